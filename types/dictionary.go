package types

import (
	"bytes"
	"encoding/json"
	"strings"
)

// VariantSet is an ordered list of normalized inflected forms without
// duplicates or blank entries.
type VariantSet []string

// String renders the set the way group files store it.
func (set VariantSet) String() string {
	return strings.Join(set, ", ")
}

// Group holds the words that share one grouping key, in insertion order.
type Group struct {
	Key      string
	words    []string
	variants map[string]VariantSet
}

func newGroup(key string) *Group {
	return &Group{
		Key:      key,
		variants: make(map[string]VariantSet),
	}
}

func (group *Group) Words() []string {
	return group.words
}

func (group *Group) Variants(word string) (VariantSet, bool) {
	set, ok := group.variants[word]
	return set, ok
}

func (group *Group) Len() int {
	return len(group.words)
}

// GroupedDictionary maps a grouping key to its words and their variants.
// Keys and words keep the order of their first insertion.
type GroupedDictionary struct {
	keys   []string
	groups map[string]*Group
}

func NewGroupedDictionary() *GroupedDictionary {
	return &GroupedDictionary{groups: make(map[string]*Group)}
}

// Insert stores variants for word under key. A word inserted again keeps its
// position and gets the new variants.
func (dict *GroupedDictionary) Insert(key string, word string, variants VariantSet) *GroupedDictionary {
	group, ok := dict.groups[key]
	if !ok {
		group = newGroup(key)
		dict.groups[key] = group
		dict.keys = append(dict.keys, key)
	}
	if _, exists := group.variants[word]; !exists {
		group.words = append(group.words, word)
	}
	if variants == nil {
		variants = VariantSet{}
	}
	group.variants[word] = variants
	return dict
}

func (dict *GroupedDictionary) Keys() []string {
	return dict.keys
}

func (dict *GroupedDictionary) Group(key string) (*Group, bool) {
	group, ok := dict.groups[key]
	return group, ok
}

func (dict *GroupedDictionary) Lookup(key string, word string) (VariantSet, bool) {
	group, ok := dict.groups[key]
	if !ok {
		return nil, false
	}
	return group.Variants(word)
}

// WordCount is the number of distinct words across all groups.
func (dict *GroupedDictionary) WordCount() int {
	count := 0
	for _, group := range dict.groups {
		count += group.Len()
	}
	return count
}

// Map returns a plain copy of the dictionary.
func (dict *GroupedDictionary) Map() map[string]map[string][]string {
	result := make(map[string]map[string][]string, len(dict.groups))
	for key, group := range dict.groups {
		inner := make(map[string][]string, len(group.words))
		for _, word := range group.words {
			inner[word] = append([]string{}, group.variants[word]...)
		}
		result[key] = inner
	}
	return result
}

// MarshalJSON writes groups and words in insertion order.
func (dict *GroupedDictionary) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range dict.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeJSONKey(&buf, key); err != nil {
			return nil, err
		}
		group := dict.groups[key]
		buf.WriteByte('{')
		for j, word := range group.words {
			if j > 0 {
				buf.WriteByte(',')
			}
			if err := writeJSONKey(&buf, word); err != nil {
				return nil, err
			}
			b, err := json.Marshal(group.variants[word])
			if err != nil {
				return nil, err
			}
			buf.Write(b)
		}
		buf.WriteByte('}')
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func writeJSONKey(buf *bytes.Buffer, key string) error {
	b, err := json.Marshal(key)
	if err != nil {
		return err
	}
	buf.Write(b)
	buf.WriteByte(':')
	return nil
}
