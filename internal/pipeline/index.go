package pipeline

import (
	"encoding/json"
	"fmt"

	"cvforge/internal/errors"
	"cvforge/internal/types"
)

// ResolveCandidate maps one candidate index to its project name. Indexes
// refer to insertion order of the projects database. Fractional or
// non-numeric values are rejected rather than truncated.
func ResolveCandidate(db types.ProjectDatabase, idx json.Number) (string, error) {
	i, err := idx.Int64()
	if err != nil {
		return "", errors.NewValidationError(errors.ErrCodeInvalidIndexType,
			fmt.Sprintf("candidate index %q is not an integer", idx.String()), err)
	}
	if i < 0 || i >= int64(db.Len()) {
		return "", errors.NewValidationError(errors.ErrCodeIndexOutOfRange,
			fmt.Sprintf("candidate index %d out of range for %d projects", i, db.Len()), nil)
	}
	return db.Names[i], nil
}

// ResolveCandidates maps a slot's candidate list to project names,
// preserving candidate order. The first bad index fails the whole list.
func ResolveCandidates(db types.ProjectDatabase, indexes []json.Number) ([]string, error) {
	names := make([]string, 0, len(indexes))
	for _, idx := range indexes {
		name, err := ResolveCandidate(db, idx)
		if err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, nil
}
