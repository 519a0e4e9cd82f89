package utils

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "words.txt")
	require.NoError(t, os.WriteFile(path, []byte("žena\r\n\n  \nulica\nmalý pes\n"), 0o644))

	lines, err := ReadLines(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"žena", "ulica", "malý pes"}, lines)
}

func TestReadLinesMissingFile(t *testing.T) {
	_, err := ReadLines(filepath.Join(t.TempDir(), "missing.txt"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestSplitLines(t *testing.T) {
	lines, err := SplitLines([]byte("a\nb\n\nc"))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, lines)

	lines, err = SplitLines(nil)
	require.NoError(t, err)
	assert.Empty(t, lines)
}

func TestHashString(t *testing.T) {
	assert.Equal(t, HashString("zena"), HashString("zena"))
	assert.NotEqual(t, HashString("zena"), HashString("zenu"))
}

func TestRecoverWithError(t *testing.T) {
	run := func() (err error) {
		defer RecoverWithError(&err)
		panic("boom")
	}
	err := run()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

func TestSplitLinesLongLine(t *testing.T) {
	long := strings.Repeat("ž", 100*1024)
	lines, err := SplitLines([]byte("pes\n" + long + "\nkočka\n"))
	require.NoError(t, err)
	require.Len(t, lines, 3)
	assert.Equal(t, long, lines[1])
	assert.Equal(t, "kočka", lines[2])
}
