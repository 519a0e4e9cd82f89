package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestString(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"ulica", "ulica"},
		{"žena", "zena"},
		{"ženě", "zene"},
		{"Čeština", "Cestina"},
		{"příliš žluťoučký kůň", "prilis zlutoucky kun"},
		{"Ťuk-ťuk, 42!", "Tuk-tuk, 42!"},
		{"ulice/ulici", "ulice/ulici"},
		{"łódź", "lodz"},
		{"Łukasz", "Lukasz"},
		{"straße", "strasse"},
		{"Øresund", "Oresund"},
		{"đak", "dak"},
		{"æ", "ae"},
		{"ħ", "h"},
		{"2×3÷4", "2×3÷4"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, String(tt.in))
		})
	}
}

func TestStringIdempotent(t *testing.T) {
	for _, s := range []string{"", "žena", "ŽLUŤOUČKÝ", "naïve café", "áb̌", "日本語"} {
		once := String(s)
		assert.Equal(t, once, String(once), "input %q", s)
	}
}

func TestFirstRune(t *testing.T) {
	assert.Equal(t, "z", FirstRune("žena"))
	assert.Equal(t, "Z", FirstRune("Žena"))
	assert.Equal(t, "u", FirstRune("ulica"))
	assert.Equal(t, "L", FirstRune("Łódź"))
	assert.Equal(t, "l", FirstRune("łąka"))
	assert.Equal(t, "O", FirstRune("Øresund"))
	assert.Equal(t, "", FirstRune(""))
}
