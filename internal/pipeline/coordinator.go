package pipeline

import (
	"fmt"

	"cvforge/internal/config"
	"cvforge/internal/errors"
	"cvforge/internal/types"
)

// AssignProjects maps each experience slot to one project using a greedy,
// order-sensitive pass: slots are filled in declared order, each slot takes
// its best unclaimed candidate, and a claimed project is never reused. The
// result index matches slot order. Assignment is fully deterministic; the
// same request always yields the same mapping.
func AssignProjects(slots []types.ExperienceSlotConfig, db types.ProjectDatabase, job types.StructuredJob, weights config.ScoringWeights) ([]string, error) {
	claimed := make(map[string]bool, len(slots))
	assigned := make([]string, len(slots))

	jobSkills := job.RequiredSkills

	for slotIdx, slot := range slots {
		candidates, err := ResolveCandidates(db, slot.CandidateProjects)
		if err != nil {
			return nil, err
		}

		best := ""
		bestScore := -1.0
		for _, name := range candidates {
			if claimed[name] {
				continue
			}
			record := db.Records[name]
			overlap := scoreProject(record, jobSkills)
			score := weights.TechnologyOverlap*overlap +
				weights.Priority*record.Priority +
				weights.RoleAvailability*roleBonus(record)
			// Strict comparison keeps the earlier candidate on ties
			if score > bestScore {
				best = name
				bestScore = score
			}
		}

		if best == "" {
			return nil, errors.NewValidationError(errors.ErrCodeUnsatisfiableAssignment,
				fmt.Sprintf("no unclaimed candidate available for experience slot %d", slotIdx), nil).
				WithContext("slot_index", slotIdx)
		}

		claimed[best] = true
		assigned[slotIdx] = best
	}

	return assigned, nil
}

// scoreProject returns the technology overlap component: the fraction of the
// job's required skills covered by the project's technologies, compared on
// normalized names.
func scoreProject(project types.ProjectRecord, jobSkills []string) float64 {
	if len(jobSkills) == 0 {
		return 0
	}

	techs := normalizedSet(project.Technologies)
	matched := 0
	for _, skill := range jobSkills {
		if techs[NormalizeSkill(skill)] {
			matched++
		}
	}
	return float64(matched) / float64(len(jobSkills))
}

// roleBonus rewards projects that can present at least one role title
func roleBonus(project types.ProjectRecord) float64 {
	if len(project.AvailableRoles) > 0 {
		return 1
	}
	return 0
}
