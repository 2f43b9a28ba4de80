package pipeline

import (
	"encoding/json"
	"testing"

	"cvforge/internal/errors"
	"cvforge/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func threeProjectDB() types.ProjectDatabase {
	return types.ProjectDatabase{
		Names: []string{"alpha", "beta", "gamma"},
		Records: map[string]types.ProjectRecord{
			"alpha": {Name: "alpha"},
			"beta":  {Name: "beta"},
			"gamma": {Name: "gamma"},
		},
	}
}

func TestResolveCandidate(t *testing.T) {
	db := threeProjectDB()

	name, err := ResolveCandidate(db, json.Number("0"))
	require.NoError(t, err)
	assert.Equal(t, "alpha", name)

	name, err = ResolveCandidate(db, json.Number("2"))
	require.NoError(t, err)
	assert.Equal(t, "gamma", name)
}

func TestResolveCandidateOutOfRange(t *testing.T) {
	db := threeProjectDB()

	for _, idx := range []json.Number{"3", "99", "-1"} {
		_, err := ResolveCandidate(db, idx)
		require.Error(t, err)

		var appErr *errors.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, errors.ErrCodeIndexOutOfRange, appErr.Code)
	}
}

func TestResolveCandidateNonInteger(t *testing.T) {
	db := threeProjectDB()

	for _, idx := range []json.Number{"1.5", "0.0001", "2e-1"} {
		_, err := ResolveCandidate(db, idx)
		require.Error(t, err)

		var appErr *errors.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, errors.ErrCodeInvalidIndexType, appErr.Code, "index %s", idx)
	}
}

func TestResolveCandidatesPreservesOrder(t *testing.T) {
	db := threeProjectDB()

	names, err := ResolveCandidates(db, []json.Number{"2", "0", "1"})
	require.NoError(t, err)
	assert.Equal(t, []string{"gamma", "alpha", "beta"}, names)
}

func TestResolveCandidatesFailsOnFirstBadIndex(t *testing.T) {
	db := threeProjectDB()

	names, err := ResolveCandidates(db, []json.Number{"0", "7", "1"})
	require.Error(t, err)
	assert.Nil(t, names)

	var appErr *errors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, errors.ErrCodeIndexOutOfRange, appErr.Code)
}

func TestResolveCandidatesEmptyDatabase(t *testing.T) {
	db := types.ProjectDatabase{Records: map[string]types.ProjectRecord{}}

	_, err := ResolveCandidates(db, []json.Number{"0"})
	require.Error(t, err)

	var appErr *errors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, errors.ErrCodeIndexOutOfRange, appErr.Code)
}
