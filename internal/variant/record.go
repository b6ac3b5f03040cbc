package variant

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
)

// RecordFileName is the change-record file written inside every checkpoint
// directory.
const RecordFileName = "config_changes.json"

// WriteRecord persists a change record as JSON: an ordered list of
// single-key objects. The record is written once at expansion time and is
// immutable afterwards.
func WriteRecord(path string, record ChangeRecord) error {
	data, err := MarshalRecord(record)
	if err != nil {
		return fmt.Errorf("marshal change record: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write change record: %w", err)
	}
	return nil
}

// ReadRecord reads a change record back from disk. Numbers with integral
// literals decode as int64 so that read-back records hash identically to
// their in-memory originals.
func ReadRecord(path string) (ChangeRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read change record: %w", err)
	}
	record, err := UnmarshalRecord(data)
	if err != nil {
		return nil, fmt.Errorf("parse change record %s: %w", path, err)
	}
	return record, nil
}

// MarshalRecord encodes a record without HTML escaping. A nil record
// encodes as the empty list.
func MarshalRecord(record ChangeRecord) ([]byte, error) {
	if record == nil {
		record = ChangeRecord{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(record); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// UnmarshalRecord decodes the JSON list form of a record.
func UnmarshalRecord(data []byte) (ChangeRecord, error) {
	var record ChangeRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, err
	}
	return record, nil
}
