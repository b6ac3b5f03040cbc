package variant

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ChangeOp is a single config override: a property path (dotted for nested
// properties, e.g. "learner.lr") and its replacement value.
type ChangeOp struct {
	Path  string
	Value any
}

// ChangeRecord is the ordered list of overrides for one variant. It is the
// durable form written next to each checkpoint directory and read back
// verbatim by out-of-process re-invocation. Later operations override
// earlier ones on the same path.
type ChangeRecord []ChangeOp

// NamedChanges is one entry of a change-set specification: a run name and
// the overrides that define it.
type NamedChanges struct {
	Name string
	Ops  []ChangeOp
}

// Variant is one expansion result. Dir is the checkpoint directory relative
// to the experiment root ("single", "a/0", "a/single", "5", ...); its
// uniqueness within one expansion is what guarantees path collision-freedom.
type Variant struct {
	Name string
	Seed *int64
	Ops  ChangeRecord
	Dir  string
}

// MarshalJSON encodes the op as a single-key object {"path": value}.
func (op ChangeOp) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(map[string]any{op.Path: op.Value}); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// UnmarshalJSON decodes a single-key object into the op. Multi-key objects
// are rejected: the record format is an ordered list, and object key order
// is not preserved by JSON.
func (op *ChangeOp) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok != json.Delim('{') {
		return fmt.Errorf("change op must be an object, got %v", tok)
	}

	keyTok, err := dec.Token()
	if err != nil {
		return err
	}
	key, ok := keyTok.(string)
	if !ok {
		return fmt.Errorf("change op key must be a string")
	}

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return fmt.Errorf("change op %q: %w", key, err)
	}

	end, err := dec.Token()
	if err != nil {
		return err
	}
	if end != json.Delim('}') {
		return fmt.Errorf("change op must have exactly one key, found more after %q", key)
	}

	op.Path = key
	op.Value = normalizeValue(raw)
	return nil
}

// normalizeValue converts json.Number values (and any nested occurrences)
// into int64 where the literal is integral, float64 otherwise. This keeps
// run ids stable between a record built in memory and one read back from
// disk.
func normalizeValue(v any) any {
	switch val := v.(type) {
	case json.Number:
		if i, err := val.Int64(); err == nil {
			return i
		}
		f, _ := val.Float64()
		return f
	case []any:
		out := make([]any, len(val))
		for i, elem := range val {
			out[i] = normalizeValue(elem)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, elem := range val {
			out[k] = normalizeValue(elem)
		}
		return out
	default:
		return v
	}
}
