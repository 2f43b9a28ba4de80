package pipeline

import (
	"regexp"
	"sort"
	"strings"

	"cvforge/internal/types"
)

// skillSeparators are the characters collapsed away when comparing skill
// names, so "Node.js", "node js" and "NodeJS" all normalize to "nodejs".
var skillSeparators = regexp.MustCompile(`[/\-.\s]+`)

// NormalizeSkill lowercases a skill name and strips separator characters.
// Used for every case-insensitive skill comparison in the pipeline.
func NormalizeSkill(s string) string {
	return skillSeparators.ReplaceAllString(strings.ToLower(s), "")
}

// normalizedSet builds a membership set of normalized skill names
func normalizedSet(skills []string) map[string]bool {
	set := make(map[string]bool, len(skills))
	for _, s := range skills {
		set[NormalizeSkill(s)] = true
	}
	return set
}

// BuildTechnicalSkills selects and orders the technical skill list for the
// resume. Essential skills always come first in their declared order. The
// remaining skills are ranked by job relevance, then category, then the
// user's declared order, then name.
func BuildTechnicalSkills(db types.SkillsDatabase, job types.StructuredJob, target int) []string {
	jobSkills := normalizedSet(job.Keywords)
	for _, s := range job.RequiredSkills {
		jobSkills[NormalizeSkill(s)] = true
	}

	result := make([]string, 0, target)
	seen := make(map[string]bool)

	for _, name := range db.EssentialSkills {
		key := NormalizeSkill(name)
		if seen[key] {
			continue
		}
		seen[key] = true
		result = append(result, name)
	}

	type rankedSkill struct {
		name     string
		jobMatch bool
		category string
		order    int
	}

	ranked := make([]rankedSkill, 0, len(db.Skills))
	for name, record := range db.Skills {
		key := NormalizeSkill(name)
		if seen[key] {
			continue
		}
		ranked = append(ranked, rankedSkill{
			name:     name,
			jobMatch: jobSkills[key],
			category: record.Category,
			order:    record.Order,
		})
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].jobMatch != ranked[j].jobMatch {
			return ranked[i].jobMatch
		}
		if ranked[i].category != ranked[j].category {
			return ranked[i].category < ranked[j].category
		}
		if ranked[i].order != ranked[j].order {
			return ranked[i].order < ranked[j].order
		}
		return ranked[i].name < ranked[j].name
	})

	for _, rs := range ranked {
		if len(result) >= target {
			break
		}
		seen[NormalizeSkill(rs.name)] = true
		result = append(result, rs.name)
	}

	if len(result) > target && target > 0 {
		result = result[:target]
	}

	return result
}

// DedupeSoftSkills removes soft skills that duplicate each other or any
// technical skill, then caps the list at want entries.
func DedupeSoftSkills(generated, technical []string, want int) []string {
	technicalSet := normalizedSet(technical)
	seen := make(map[string]bool)

	result := make([]string, 0, want)
	for _, s := range generated {
		key := NormalizeSkill(s)
		if key == "" || seen[key] || technicalSet[key] {
			continue
		}
		seen[key] = true
		result = append(result, s)
		if len(result) == want {
			break
		}
	}
	return result
}
