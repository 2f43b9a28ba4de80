package pipeline

import (
	"testing"

	"cvforge/internal/types"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeSkill(t *testing.T) {
	tests := []struct {
		in       string
		expected string
	}{
		{"Node.js", "nodejs"},
		{"node js", "nodejs"},
		{"NODE-JS", "nodejs"},
		{"CI/CD", "cicd"},
		{"PostgreSQL", "postgresql"},
		{"  Go  ", "go"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, NormalizeSkill(tt.in), "input %q", tt.in)
	}
}

func TestBuildTechnicalSkillsEssentialsFirst(t *testing.T) {
	db := types.SkillsDatabase{
		EssentialSkills: []string{"Go", "Docker"},
		Skills: map[string]types.SkillRecord{
			"Kubernetes": {Category: "infra", Order: 1},
			"PostgreSQL": {Category: "database", Order: 1},
		},
	}
	job := types.StructuredJob{Keywords: []string{"kubernetes"}}

	skills := BuildTechnicalSkills(db, job, 10)

	assert.Equal(t, "Go", skills[0])
	assert.Equal(t, "Docker", skills[1])
	assert.Contains(t, skills, "Kubernetes")
	assert.Contains(t, skills, "PostgreSQL")
}

func TestBuildTechnicalSkillsJobMatchRanksFirst(t *testing.T) {
	db := types.SkillsDatabase{
		Skills: map[string]types.SkillRecord{
			"Ansible":    {Category: "infra", Order: 5},
			"Kubernetes": {Category: "infra", Order: 9},
		},
	}
	job := types.StructuredJob{RequiredSkills: []string{"Kubernetes"}}

	skills := BuildTechnicalSkills(db, job, 10)

	// Job relevance beats declared order
	assert.Equal(t, []string{"Kubernetes", "Ansible"}, skills)
}

func TestBuildTechnicalSkillsRespectsCap(t *testing.T) {
	db := types.SkillsDatabase{
		EssentialSkills: []string{"Go"},
		Skills: map[string]types.SkillRecord{
			"Kubernetes": {Category: "infra", Order: 1},
			"Docker":     {Category: "infra", Order: 2},
			"Terraform":  {Category: "infra", Order: 3},
		},
	}
	job := types.StructuredJob{}

	skills := BuildTechnicalSkills(db, job, 2)

	assert.Len(t, skills, 2)
	assert.Equal(t, "Go", skills[0])
}

func TestBuildTechnicalSkillsDeterministicOrder(t *testing.T) {
	db := types.SkillsDatabase{
		Skills: map[string]types.SkillRecord{
			"Redis":    {Category: "database", Order: 2},
			"MongoDB":  {Category: "database", Order: 2},
			"RabbitMQ": {Category: "messaging", Order: 1},
		},
	}
	job := types.StructuredJob{}

	first := BuildTechnicalSkills(db, job, 10)
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, BuildTechnicalSkills(db, job, 10))
	}

	// Same category and order falls back to name
	assert.Equal(t, []string{"MongoDB", "Redis", "RabbitMQ"}, first)
}

func TestBuildTechnicalSkillsDedupesEssentialVariants(t *testing.T) {
	db := types.SkillsDatabase{
		EssentialSkills: []string{"Node.js"},
		Skills: map[string]types.SkillRecord{
			"NodeJS": {Category: "runtime", Order: 1},
			"Go":     {Category: "language", Order: 1},
		},
	}
	job := types.StructuredJob{}

	skills := BuildTechnicalSkills(db, job, 10)

	assert.Equal(t, []string{"Node.js", "Go"}, skills)
}

func TestDedupeSoftSkills(t *testing.T) {
	generated := []string{"Communication", "communication", "Teamwork", "Go", "Rigor"}
	technical := []string{"Go", "PostgreSQL"}

	soft := DedupeSoftSkills(generated, technical, 5)

	assert.Equal(t, []string{"Communication", "Teamwork", "Rigor"}, soft)
}

func TestDedupeSoftSkillsCapsAtWant(t *testing.T) {
	generated := []string{"A", "B", "C", "D", "E"}

	soft := DedupeSoftSkills(generated, nil, 3)

	assert.Equal(t, []string{"A", "B", "C"}, soft)
}

func TestDedupeSoftSkillsEmptyInput(t *testing.T) {
	assert.Empty(t, DedupeSoftSkills(nil, []string{"Go"}, 3))
}
