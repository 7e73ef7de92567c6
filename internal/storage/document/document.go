// Package document merges dotted-path partial updates into JSON statblock
// documents.
package document

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/cory-johannsen/pf2e-toolbox/internal/game/statblock"
)

// ErrItemNotFound is returned when an item update names an id the document
// does not contain.
var ErrItemNotFound = errors.New("item not found")

// Encode renders sb as a JSON document.
func Encode(sb *statblock.StatBlock) ([]byte, error) {
	doc, err := json.Marshal(sb)
	if err != nil {
		return nil, fmt.Errorf("encoding statblock %q: %w", sb.Name, err)
	}
	return doc, nil
}

// Decode parses a JSON document into a StatBlock.
func Decode(doc []byte) (*statblock.StatBlock, error) {
	var sb statblock.StatBlock
	if err := json.Unmarshal(doc, &sb); err != nil {
		return nil, fmt.Errorf("decoding statblock document: %w", err)
	}
	return &sb, nil
}

// Apply merges fields into doc. Paths are applied in lexical order; paths not
// named in fields are left untouched.
//
// Postcondition: Returns the merged document or the first path that failed.
func Apply(doc []byte, fields statblock.Fields) ([]byte, error) {
	return applyAt(doc, "", fields)
}

// ApplyItems merges each update into the embedded item with its id.
//
// Postcondition: Returns ErrItemNotFound for an unknown id; no partial
// result is returned on error.
func ApplyItems(doc []byte, updates []statblock.ItemUpdate) ([]byte, error) {
	index := make(map[string]int)
	gjson.GetBytes(doc, "items").ForEach(func(key, value gjson.Result) bool {
		index[value.Get("id").String()] = int(key.Int())
		return true
	})

	out := doc
	for _, u := range updates {
		i, ok := index[u.ID]
		if !ok || u.ID == "" {
			return nil, fmt.Errorf("%w: %q", ErrItemNotFound, u.ID)
		}
		var err error
		out, err = applyAt(out, fmt.Sprintf("items.%d.", i), u.Fields)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

func applyAt(doc []byte, prefix string, fields statblock.Fields) ([]byte, error) {
	out := doc
	for _, path := range slices.Sorted(maps.Keys(fields)) {
		var err error
		out, err = sjson.SetBytes(out, prefix+path, fields[path])
		if err != nil {
			return nil, fmt.Errorf("setting %q: %w", prefix+path, err)
		}
	}
	return out, nil
}

// Get reads the value at a dotted path.
func Get(doc []byte, path string) gjson.Result {
	return gjson.GetBytes(doc, path)
}

// Name returns the document's name field.
func Name(doc []byte) string { return gjson.GetBytes(doc, statblock.FieldName).String() }

// Folder returns the document's folder id.
func Folder(doc []byte) string { return gjson.GetBytes(doc, statblock.FieldFolder).String() }
