package pipeline

import (
	"strings"

	"wordforms.dev/declensions/normalize"
	"wordforms.dev/declensions/types"
)

// Flatten splits raw on delimiter and returns the normalized, non-blank,
// distinct parts in order of first occurrence.
func Flatten(raw string, delimiter string) types.VariantSet {
	collector := newVariantCollector()
	collector.add(raw, delimiter)
	return collector.set
}

// variantCollector accumulates several raw cells into one VariantSet so that
// duplicates across cells are dropped too.
type variantCollector struct {
	set  types.VariantSet
	seen map[string]bool
}

func newVariantCollector() *variantCollector {
	return &variantCollector{
		set:  types.VariantSet{},
		seen: make(map[string]bool),
	}
}

func (c *variantCollector) add(raw string, delimiter string) {
	for _, part := range strings.Split(raw, delimiter) {
		variant := strings.TrimSpace(normalize.String(part))
		if variant == "" {
			continue
		}
		if c.seen[variant] {
			continue
		}
		c.seen[variant] = true
		c.set = append(c.set, variant)
	}
}
