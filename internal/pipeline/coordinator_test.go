package pipeline

import (
	"encoding/json"
	"testing"

	"cvforge/internal/config"
	"cvforge/internal/errors"
	"cvforge/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testWeights() config.ScoringWeights {
	return config.ScoringWeights{
		TechnologyOverlap: 0.6,
		Priority:          0.3,
		RoleAvailability:  0.1,
	}
}

func coordinatorDB() types.ProjectDatabase {
	return types.ProjectDatabase{
		Names: []string{"payments", "search", "billing"},
		Records: map[string]types.ProjectRecord{
			"payments": {
				Name:           "payments",
				Technologies:   []string{"Go", "PostgreSQL", "Kubernetes"},
				AvailableRoles: []string{"Backend Engineer"},
				Priority:       0.9,
			},
			"search": {
				Name:           "search",
				Technologies:   []string{"Python", "Elasticsearch"},
				AvailableRoles: []string{"Search Engineer"},
				Priority:       0.5,
			},
			"billing": {
				Name:           "billing",
				Technologies:   []string{"Go", "PostgreSQL"},
				AvailableRoles: []string{"Backend Engineer"},
				Priority:       0.4,
			},
		},
	}
}

func slot(indexes ...string) types.ExperienceSlotConfig {
	nums := make([]json.Number, len(indexes))
	for i, s := range indexes {
		nums[i] = json.Number(s)
	}
	return types.ExperienceSlotConfig{CandidateProjects: nums}
}

func goJob() types.StructuredJob {
	return types.StructuredJob{RequiredSkills: []string{"Go", "PostgreSQL"}}
}

func TestAssignProjectsNeverReusesAProject(t *testing.T) {
	db := coordinatorDB()
	slots := []types.ExperienceSlotConfig{
		slot("0", "1", "2"),
		slot("0", "1", "2"),
		slot("0", "1", "2"),
	}

	assigned, err := AssignProjects(slots, db, goJob(), testWeights())
	require.NoError(t, err)
	require.Len(t, assigned, 3)

	seen := make(map[string]bool)
	for _, name := range assigned {
		assert.False(t, seen[name], "project %s assigned twice", name)
		seen[name] = true
	}
}

func TestAssignProjectsClaimPropagation(t *testing.T) {
	db := coordinatorDB()

	// payments (index 0) outscores search for a Go job, so the first slot
	// claims it and the second slot is left with billing.
	slots := []types.ExperienceSlotConfig{
		slot("0", "1"),
		slot("0", "2"),
	}

	assigned, err := AssignProjects(slots, db, goJob(), testWeights())
	require.NoError(t, err)
	assert.Equal(t, []string{"payments", "billing"}, assigned)
}

func TestAssignProjectsDisjointPools(t *testing.T) {
	db := coordinatorDB()
	slots := []types.ExperienceSlotConfig{
		slot("1"),
		slot("0", "2"),
	}

	assigned, err := AssignProjects(slots, db, goJob(), testWeights())
	require.NoError(t, err)
	assert.Equal(t, "search", assigned[0])
	assert.Equal(t, "payments", assigned[1])
}

func TestAssignProjectsUnsatisfiable(t *testing.T) {
	db := coordinatorDB()
	slots := []types.ExperienceSlotConfig{
		slot("0"),
		slot("0"),
	}

	assigned, err := AssignProjects(slots, db, goJob(), testWeights())
	require.Error(t, err)
	assert.Nil(t, assigned)

	var appErr *errors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, errors.ErrCodeUnsatisfiableAssignment, appErr.Code)
	assert.Equal(t, 1, appErr.Context["slot_index"])
}

func TestAssignProjectsDeterministic(t *testing.T) {
	db := coordinatorDB()
	slots := []types.ExperienceSlotConfig{
		slot("2", "1", "0"),
		slot("0", "1", "2"),
	}

	first, err := AssignProjects(slots, db, goJob(), testWeights())
	require.NoError(t, err)

	for i := 0; i < 50; i++ {
		again, err := AssignProjects(slots, db, goJob(), testWeights())
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestAssignProjectsTieKeepsEarlierCandidate(t *testing.T) {
	db := types.ProjectDatabase{
		Names: []string{"first", "second"},
		Records: map[string]types.ProjectRecord{
			"first":  {Name: "first", Technologies: []string{"Go"}, Priority: 0.5},
			"second": {Name: "second", Technologies: []string{"Go"}, Priority: 0.5},
		},
	}
	slots := []types.ExperienceSlotConfig{slot("1", "0")}

	assigned, err := AssignProjects(slots, db, types.StructuredJob{RequiredSkills: []string{"Go"}}, testWeights())
	require.NoError(t, err)

	// Identical scores keep the candidate listed first, index 1 here
	assert.Equal(t, []string{"second"}, assigned)
}

func TestAssignProjectsBadIndexSurfaces(t *testing.T) {
	db := coordinatorDB()
	slots := []types.ExperienceSlotConfig{slot("0", "9")}

	_, err := AssignProjects(slots, db, goJob(), testWeights())
	require.Error(t, err)

	var appErr *errors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, errors.ErrCodeIndexOutOfRange, appErr.Code)
}

func TestScoreProjectOverlapFraction(t *testing.T) {
	project := types.ProjectRecord{Technologies: []string{"Go", "Redis"}}

	assert.InDelta(t, 0.5, scoreProject(project, []string{"Go", "Kafka"}), 0.001)
	assert.InDelta(t, 1.0, scoreProject(project, []string{"go", "redis"}), 0.001)
	assert.InDelta(t, 0.0, scoreProject(project, nil), 0.001)
}
