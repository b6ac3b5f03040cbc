package changeset

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/roach88/sweep/internal/variant"
)

// parseOrderedSets decodes {"name": [{"path": value}, ...], ...} while
// preserving key declaration order. encoding/json maps are unordered, so
// the top level is walked token by token instead.
func parseOrderedSets(data []byte) ([]variant.NamedChanges, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if tok != json.Delim('{') {
		return nil, fmt.Errorf("spec must be an object of named change lists, got %v", tok)
	}

	var sets []variant.NamedChanges
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		name, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("expected change-set name, got %v", keyTok)
		}

		var ops []variant.ChangeOp
		if err := dec.Decode(&ops); err != nil {
			return nil, fmt.Errorf("change-set %q: %w", name, err)
		}
		sets = append(sets, variant.NamedChanges{Name: name, Ops: ops})
	}

	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return sets, nil
}

// marshalOrderedSets is the inverse of parseOrderedSets: set order in the
// output matches slice order, which encoding/json cannot do for maps.
func marshalOrderedSets(sets []variant.NamedChanges) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, set := range sets {
		if i > 0 {
			buf.WriteByte(',')
		}

		nameBytes, err := json.Marshal(set.Name)
		if err != nil {
			return nil, err
		}
		buf.Write(nameBytes)
		buf.WriteByte(':')

		opsBytes, err := variant.MarshalRecord(variant.ChangeRecord(set.Ops))
		if err != nil {
			return nil, fmt.Errorf("change-set %q: %w", set.Name, err)
		}
		buf.Write(opsBytes)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
