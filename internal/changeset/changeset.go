package changeset

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/roach88/sweep/internal/variant"
)

// AuditFileName is the root-level copy of the entire pre-expansion
// specification, written for audit alongside the per-variant records.
const AuditFileName = "all_config_changes.json"

// LoadError reports a change-set specification that could not be read or
// parsed. It is a fatal configuration error.
type LoadError struct {
	File    string
	Message string
	Err     error
}

func (e *LoadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("change-set spec %s: %s: %v", e.File, e.Message, e.Err)
	}
	return fmt.Sprintf("change-set spec %s: %s", e.File, e.Message)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Load reads a change-set specification from a .cue or .json file.
func Load(path string) ([]variant.NamedChanges, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{File: path, Message: "cannot read", Err: err}
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".cue":
		return loadCUE(path, data)
	case ".json":
		sets, err := parseOrderedSets(data)
		if err != nil {
			return nil, &LoadError{File: path, Message: "invalid JSON change-set spec", Err: err}
		}
		return sets, nil
	default:
		return nil, &LoadError{File: path, Message: "unsupported extension (want .cue or .json)"}
	}
}

// WriteAudit persists the full specification as JSON at the experiment
// root, preserving set order.
func WriteAudit(dir string, sets []variant.NamedChanges) error {
	data, err := marshalOrderedSets(sets)
	if err != nil {
		return fmt.Errorf("marshal change-set spec: %w", err)
	}
	path := filepath.Join(dir, AuditFileName)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", AuditFileName, err)
	}
	return nil
}
