// Package sink persists a grouped dictionary, one text block per group key.
package sink

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"wordforms.dev/declensions/types"
)

// Sink stores a finished dictionary and reports how many words it stored.
type Sink interface {
	Persist(ctx context.Context, dict *types.GroupedDictionary) (int, error)
}

// Render writes one "word: v1, v2 \n" line per word of group.
func Render(group *types.Group) []byte {
	var buf bytes.Buffer
	for _, word := range group.Words() {
		variants, _ := group.Variants(word)
		fmt.Fprintf(&buf, "%s: %s \n", word, variants.String())
	}
	return buf.Bytes()
}

// FileName is the name of the block for a group key. Keys that cannot be
// used as a file name are stored as "_".
func FileName(key string) string {
	if key == "" || key == "." || key == ".." || strings.ContainsAny(key, `/\`) {
		key = "_"
	}
	return key + ".txt"
}
