package changeset

import (
	"encoding/json"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"github.com/roach88/sweep/internal/variant"
)

// loadCUE compiles a CUE change-set file and extracts the named sets.
//
// The file either declares its sets under a top-level "changes" field:
//
//	changes: {
//	    small: [{"learner.lr": 0.01}]
//	    large: [{"learner.lr": 0.1}]
//	}
//
// or is itself the mapping of names to change lists. The compiled value is
// exported to JSON (CUE emits regular fields in declaration order) and then
// parsed with the same ordered decoder the JSON format uses.
func loadCUE(path string, data []byte) ([]variant.NamedChanges, error) {
	ctx := cuecontext.New()

	value := ctx.CompileBytes(data, cue.Filename(path))
	if err := value.Err(); err != nil {
		return nil, &LoadError{File: path, Message: "compiling CUE", Err: err}
	}

	if changes := value.LookupPath(cue.ParsePath("changes")); changes.Exists() {
		value = changes
	}
	if err := value.Validate(cue.Concrete(true)); err != nil {
		return nil, &LoadError{File: path, Message: "change-set spec must be concrete", Err: err}
	}

	exported, err := json.Marshal(value)
	if err != nil {
		return nil, &LoadError{File: path, Message: "exporting CUE value", Err: err}
	}

	sets, err := parseOrderedSets(exported)
	if err != nil {
		return nil, &LoadError{File: path, Message: "invalid change-set structure", Err: err}
	}
	return sets, nil
}
