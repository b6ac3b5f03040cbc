package checkpoint

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/roach88/sweep/internal/changeset"
	"github.com/roach88/sweep/internal/variant"
)

// ConfigCopyName is the snapshot of the base config stored at the
// experiment root for reproducibility.
const ConfigCopyName = "config.yaml"

// timestampLayout produces sortable per-expansion directory names.
const timestampLayout = "2006-01-02-15-04-05"

// Builder creates checkpoint trees. The zero value is ready to use; Now
// can be overridden for deterministic directory names in tests.
type Builder struct {
	Now func() time.Time
}

// Tree describes one materialized expansion.
type Tree struct {
	// Root is the timestamped experiment root directory.
	Root string
	// Paths holds one checkpoint directory per variant, in input order.
	// Callers rely on this order for log readability only; each run is
	// fully identified by its own path.
	Paths []string
}

// Build creates the experiment root under resultsRoot, copies the base
// config into it, persists the full change-set specification (when the
// expansion varied over change-sets), and creates one directory plus
// change-record file per variant.
//
// Calling Build twice against the same root is safe: existing directories
// are reused and records are rewritten with identical content.
func (b *Builder) Build(resultsRoot, configPath string, variants []variant.Variant, sets []variant.NamedChanges) (*Tree, error) {
	now := time.Now
	if b.Now != nil {
		now = b.Now
	}

	root := filepath.Join(resultsRoot, now().Format(timestampLayout))
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create experiment root: %w", err)
	}

	if err := copyFile(configPath, filepath.Join(root, ConfigCopyName)); err != nil {
		return nil, fmt.Errorf("copy base config: %w", err)
	}

	if len(sets) > 0 {
		if err := changeset.WriteAudit(root, sets); err != nil {
			return nil, err
		}
	}

	tree := &Tree{Root: root, Paths: make([]string, 0, len(variants))}
	for _, v := range variants {
		dir := filepath.Join(root, filepath.FromSlash(v.Dir))
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create checkpoint dir %s: %w", dir, err)
		}
		if err := variant.WriteRecord(filepath.Join(dir, variant.RecordFileName), v.Ops); err != nil {
			return nil, err
		}
		tree.Paths = append(tree.Paths, dir)
	}

	return tree, nil
}

// RecordPath returns the change-record file inside a checkpoint directory.
func RecordPath(checkpointDir string) string {
	return filepath.Join(checkpointDir, variant.RecordFileName)
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, data, 0o644)
}
