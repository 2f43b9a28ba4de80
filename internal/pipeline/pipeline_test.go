package pipeline

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"cvforge/internal/ai"
	"cvforge/internal/config"
	"cvforge/internal/errors"
	"cvforge/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeGenerator satisfies Generator with canned outputs and per-operation
// call counting, so tests can assert which AI calls a request triggers.
type fakeGenerator struct {
	mu    sync.Mutex
	calls map[string]int

	job types.StructuredJob

	role        string
	bullets     []string
	profile     string
	softSkills  []string
	coverLetter string

	structureErr   error
	roleErr        error
	bulletsErr     error
	profileErr     error
	softSkillsErr  error
	coverLetterErr error
}

func newFakeGenerator() *fakeGenerator {
	return &fakeGenerator{
		calls: make(map[string]int),
		job: types.StructuredJob{
			Title:            "Backend Engineer",
			Company:          "Acme",
			RequiredSkills:   []string{"Go", "PostgreSQL"},
			Keywords:         []string{"go", "postgresql", "kubernetes"},
			SoftSkills:       []string{"communication"},
			Responsibilities: []string{"Build and operate services"},
			ActionVerbs:      []string{"built", "led"},
		},
		role:        "Senior Backend Engineer",
		bullets:     []string{"Shipped the Go payment service", "Cut PostgreSQL query latency in half", "Led the Kubernetes migration", "Mentored two junior engineers"},
		profile:     "Backend engineer with a decade of Go experience.",
		softSkills:  []string{"Communication", "Teamwork", "Adaptability", "Rigor"},
		coverLetter: "Dear hiring manager, I would be glad to bring my Go experience to Acme.",
	}
}

func (f *fakeGenerator) record(op string) {
	f.mu.Lock()
	f.calls[op]++
	f.mu.Unlock()
}

func (f *fakeGenerator) callCount(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *fakeGenerator) StructureJob(ctx context.Context, input types.StructureJobInput) (types.StructuredJob, *ai.TokenUsage, error) {
	f.record("structure")
	if f.structureErr != nil {
		return types.StructuredJob{}, nil, f.structureErr
	}
	job := f.job
	job.Language = input.Language
	return job, nil, nil
}

func (f *fakeGenerator) EnhanceRole(ctx context.Context, input types.EnhanceRoleInput) (types.EnhanceRoleOutput, *ai.TokenUsage, error) {
	f.record("role")
	if f.roleErr != nil {
		return types.EnhanceRoleOutput{}, nil, f.roleErr
	}
	return types.EnhanceRoleOutput{Role: f.role}, nil, nil
}

func (f *fakeGenerator) EnhanceBullets(ctx context.Context, input types.EnhanceBulletsInput) (types.EnhanceBulletsOutput, *ai.TokenUsage, error) {
	f.record("bullets")
	if f.bulletsErr != nil {
		return types.EnhanceBulletsOutput{}, nil, f.bulletsErr
	}
	return types.EnhanceBulletsOutput{Bullets: f.bullets}, nil, nil
}

func (f *fakeGenerator) GenerateProfile(ctx context.Context, input types.GenerateProfileInput) (types.GenerateProfileOutput, *ai.TokenUsage, error) {
	f.record("profile")
	if f.profileErr != nil {
		return types.GenerateProfileOutput{}, nil, f.profileErr
	}
	return types.GenerateProfileOutput{Profile: f.profile}, nil, nil
}

func (f *fakeGenerator) GenerateSoftSkills(ctx context.Context, input types.GenerateSoftSkillsInput) (types.GenerateSoftSkillsOutput, *ai.TokenUsage, error) {
	f.record("softSkills")
	if f.softSkillsErr != nil {
		return types.GenerateSoftSkillsOutput{}, nil, f.softSkillsErr
	}
	return types.GenerateSoftSkillsOutput{SoftSkills: f.softSkills}, nil, nil
}

func (f *fakeGenerator) GenerateCoverLetter(ctx context.Context, input types.GenerateCoverLetterInput) (types.GenerateCoverLetterOutput, *ai.TokenUsage, error) {
	f.record("coverLetter")
	if f.coverLetterErr != nil {
		return types.GenerateCoverLetterOutput{}, nil, f.coverLetterErr
	}
	return types.GenerateCoverLetterOutput{CoverLetter: f.coverLetter}, nil, nil
}

func testPipelineConfig() config.PipelineConfig {
	return config.PipelineConfig{
		MinJobTextLength:      50,
		RequestTimeout:        30 * time.Second,
		BulletsPerExperience:  3,
		MaxBulletLength:       120,
		TargetTechnicalSkills: 10,
		NumSoftSkills:         3,
		Weights: config.ScoringWeights{
			TechnologyOverlap: 0.6,
			Priority:          0.3,
			RoleAvailability:  0.1,
		},
	}
}

func newTestPipeline(gen Generator) *Pipeline {
	return New(gen, testPipelineConfig(), errors.NewLogger(slog.LevelError))
}

const testJobText = "We are looking for a backend engineer to build and operate " +
	"Go services on Kubernetes with PostgreSQL for the payments platform."

func testProfile() types.UserProfile {
	return types.UserProfile{
		Personal: types.PersonalInfo{Name: "Alex Dupont", Title: "Backend Engineer", Degree: "MSc Computer Science"},
		Contact:  map[string]string{"email": "alex@example.com"},
		ProjectsDatabase: types.ProjectDatabase{
			Names: []string{"payments", "search"},
			Records: map[string]types.ProjectRecord{
				"payments": {
					Name:           "payments",
					Company:        "FinCo",
					StartDate:      "2021-01",
					EndDate:        "2024-06",
					Context:        "Payment processing platform",
					Technologies:   []string{"Go", "PostgreSQL", "Kubernetes"},
					Bullets:        []string{"Processed 2M transactions daily", "Reduced settlement latency by 40%"},
					AvailableRoles: []string{"Backend Engineer", "Platform Engineer"},
					Priority:       0.9,
				},
				"search": {
					Name:           "search",
					Company:        "ShopCo",
					StartDate:      "2018-03",
					EndDate:        "2020-12",
					Context:        "Product search service",
					Technologies:   []string{"Python", "Elasticsearch"},
					Bullets:        []string{"Indexed 50M products", "Improved relevance metrics"},
					AvailableRoles: []string{"Search Engineer"},
					Priority:       0.5,
				},
			},
		},
		SkillsDatabase: types.SkillsDatabase{
			EssentialSkills: []string{"Go"},
			Skills: map[string]types.SkillRecord{
				"PostgreSQL": {Category: "database", Order: 1},
				"Kubernetes": {Category: "infra", Order: 1},
			},
		},
		ExperiencesConfig: []types.ExperienceSlotConfig{
			{CandidateProjects: slotNumbers([]string{"0", "1"}), RoleStrategy: types.StrategyDirect, ContentStrategy: types.StrategyDirect},
			{CandidateProjects: slotNumbers([]string{"0", "1"}), RoleStrategy: types.StrategyDirect, ContentStrategy: types.StrategyDirect},
		},
	}
}

func slotNumbers(indexes []string) []json.Number {
	nums := make([]json.Number, len(indexes))
	for i, s := range indexes {
		nums[i] = json.Number(s)
	}
	return nums
}

func TestProcessDirectContentVerbatim(t *testing.T) {
	gen := newFakeGenerator()
	p := newTestPipeline(gen)

	result, err := p.Process(context.Background(), types.ProcessRequest{
		JobText:     testJobText,
		UserProfile: testProfile(),
	})
	require.NoError(t, err)
	require.NotNil(t, result)
	require.True(t, result.Success)

	require.Len(t, result.Resume.Experience, 2)
	first := result.Resume.Experience[0]

	// Direct content carries the project data through untouched
	assert.Equal(t, "Backend Engineer", first.Role)
	assert.Equal(t, "FinCo", first.Company)
	assert.Equal(t, []string{"Processed 2M transactions daily", "Reduced settlement latency by 40%"}, first.Bullets)
	assert.True(t, first.IsDirect)
	assert.True(t, result.Resume.Experience[1].IsDirect)

	// Direct slots never hit the enhancement models
	assert.Equal(t, 0, gen.callCount("role"))
	assert.Equal(t, 0, gen.callCount("bullets"))
	assert.Equal(t, 1, gen.callCount("structure"))
	assert.Equal(t, 1, gen.callCount("profile"))
	assert.Equal(t, 1, gen.callCount("softSkills"))
	assert.Equal(t, 1, gen.callCount("coverLetter"))
}

func TestProcessDirectBulletsIgnoreLengthCap(t *testing.T) {
	longBullet := "Maintained the settlement ledger and reconciliation pipeline across " +
		strings.Repeat("twelve regional deployments, ", 5) + "with zero data loss"
	require.Greater(t, len([]rune(longBullet)), testPipelineConfig().MaxBulletLength)

	withLongBullet := func() types.UserProfile {
		profile := testProfile()
		record := profile.ProjectsDatabase.Records["payments"]
		record.Bullets = []string{longBullet, "Reduced settlement latency by 40%"}
		profile.ProjectsDatabase.Records["payments"] = record
		profile.ExperiencesConfig = []types.ExperienceSlotConfig{
			{CandidateProjects: slotNumbers([]string{"0"}), RoleStrategy: types.StrategyDirect, ContentStrategy: types.StrategyDirect},
		}
		return profile
	}

	t.Run("direct strategy", func(t *testing.T) {
		gen := newFakeGenerator()
		p := newTestPipeline(gen)

		result, err := p.Process(context.Background(), types.ProcessRequest{
			JobText:     testJobText,
			UserProfile: withLongBullet(),
		})
		require.NoError(t, err)
		assert.Equal(t, []string{longBullet, "Reduced settlement latency by 40%"}, result.Resume.Experience[0].Bullets)
	})

	t.Run("enhancement fallback", func(t *testing.T) {
		gen := newFakeGenerator()
		gen.bulletsErr = errors.NewAIError(errors.ErrCodeAIServiceFailed, "model unavailable", nil)
		p := newTestPipeline(gen)

		profile := withLongBullet()
		profile.ExperiencesConfig[0].ContentStrategy = types.StrategyEnhanced

		result, err := p.Process(context.Background(), types.ProcessRequest{
			JobText:     testJobText,
			UserProfile: profile,
		})
		require.NoError(t, err)
		assert.Equal(t, []string{longBullet, "Reduced settlement latency by 40%"}, result.Resume.Experience[0].Bullets)
		assert.True(t, result.Resume.Experience[0].IsDirect)
	})
}

func TestProcessDirectBulletsCappedToConfiguredCount(t *testing.T) {
	gen := newFakeGenerator()
	p := newTestPipeline(gen)

	profile := testProfile()
	record := profile.ProjectsDatabase.Records["payments"]
	record.Bullets = []string{"First", "Second", "Third", "Fourth"}
	profile.ProjectsDatabase.Records["payments"] = record
	profile.ExperiencesConfig = []types.ExperienceSlotConfig{
		{CandidateProjects: slotNumbers([]string{"0"}), RoleStrategy: types.StrategyDirect, ContentStrategy: types.StrategyDirect},
	}

	result, err := p.Process(context.Background(), types.ProcessRequest{
		JobText:     testJobText,
		UserProfile: profile,
	})
	require.NoError(t, err)
	// Trimmed to the configured count, entries untouched
	assert.Equal(t, []string{"First", "Second", "Third"}, result.Resume.Experience[0].Bullets)
}

func TestProcessEnhancedContent(t *testing.T) {
	gen := newFakeGenerator()
	p := newTestPipeline(gen)

	profile := testProfile()
	profile.ExperiencesConfig = []types.ExperienceSlotConfig{
		{CandidateProjects: slotNumbers([]string{"0"}), RoleStrategy: types.StrategyEnhanced, ContentStrategy: types.StrategyEnhanced},
	}

	result, err := p.Process(context.Background(), types.ProcessRequest{
		JobText:     testJobText,
		UserProfile: profile,
	})
	require.NoError(t, err)

	exp := result.Resume.Experience[0]
	assert.Equal(t, "Senior Backend Engineer", exp.Role)
	assert.False(t, exp.IsDirect)
	// Exactly the configured number of bullets, each within the length cap
	require.Len(t, exp.Bullets, 3)
	for _, b := range exp.Bullets {
		assert.LessOrEqual(t, len([]rune(b)), 120)
	}

	assert.Equal(t, 1, gen.callCount("role"))
	assert.Equal(t, 1, gen.callCount("bullets"))
}

func TestProcessEnhancedFallbackToDirect(t *testing.T) {
	gen := newFakeGenerator()
	gen.roleErr = errors.NewAIError(errors.ErrCodeAIServiceFailed, "model unavailable", nil)
	gen.bulletsErr = errors.NewAIError(errors.ErrCodeAIServiceFailed, "model unavailable", nil)
	p := newTestPipeline(gen)

	profile := testProfile()
	profile.ExperiencesConfig = []types.ExperienceSlotConfig{
		{CandidateProjects: slotNumbers([]string{"0"}), RoleStrategy: types.StrategyEnhanced, ContentStrategy: types.StrategyEnhanced},
	}

	result, err := p.Process(context.Background(), types.ProcessRequest{
		JobText:     testJobText,
		UserProfile: profile,
	})
	require.NoError(t, err, "enhancement failure must degrade, not fail the request")

	exp := result.Resume.Experience[0]
	assert.Equal(t, "Backend Engineer", exp.Role)
	assert.Equal(t, []string{"Processed 2M transactions daily", "Reduced settlement latency by 40%"}, exp.Bullets)
	assert.True(t, exp.IsDirect)
	assert.Equal(t, 1, result.Metadata.Experiences.Direct)
	assert.Equal(t, 0, result.Metadata.Experiences.Enhanced)
}

func TestProcessShortJobTextFailsBeforeStructuring(t *testing.T) {
	gen := newFakeGenerator()
	p := newTestPipeline(gen)

	result, err := p.Process(context.Background(), types.ProcessRequest{
		JobText:     "Too short",
		UserProfile: testProfile(),
	})
	require.Error(t, err)
	assert.Nil(t, result)

	var appErr *errors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, errors.ErrCodeValidationFailed, appErr.Code)
	assert.Equal(t, 0, gen.callCount("structure"))
}

func TestProcessBadIndexFailsBeforeGeneration(t *testing.T) {
	gen := newFakeGenerator()
	p := newTestPipeline(gen)

	profile := testProfile()
	profile.ExperiencesConfig[1].CandidateProjects = slotNumbers([]string{"0", "9"})

	result, err := p.Process(context.Background(), types.ProcessRequest{
		JobText:     testJobText,
		UserProfile: profile,
	})
	require.Error(t, err)
	assert.Nil(t, result)

	var appErr *errors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, errors.ErrCodeIndexOutOfRange, appErr.Code)
	assert.Equal(t, 0, gen.callCount("structure"))
}

func TestProcessMissingExperiencesConfig(t *testing.T) {
	gen := newFakeGenerator()
	p := newTestPipeline(gen)

	profile := testProfile()
	profile.ExperiencesConfig = nil

	_, err := p.Process(context.Background(), types.ProcessRequest{
		JobText:     testJobText,
		UserProfile: profile,
	})
	require.Error(t, err)

	var appErr *errors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, errors.ErrCodeValidationFailed, appErr.Code)
	assert.Equal(t, 0, gen.callCount("structure"))
}

func TestProcessUnsatisfiableAssignmentIsFatal(t *testing.T) {
	gen := newFakeGenerator()
	p := newTestPipeline(gen)

	profile := testProfile()
	profile.ExperiencesConfig = []types.ExperienceSlotConfig{
		{CandidateProjects: slotNumbers([]string{"0"})},
		{CandidateProjects: slotNumbers([]string{"0"})},
	}

	result, err := p.Process(context.Background(), types.ProcessRequest{
		JobText:     testJobText,
		UserProfile: profile,
	})
	require.Error(t, err)
	assert.Nil(t, result)

	var appErr *errors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, errors.ErrCodeUnsatisfiableAssignment, appErr.Code)
	// Assignment happens after structuring but before any content generation
	assert.Equal(t, 1, gen.callCount("structure"))
	assert.Equal(t, 0, gen.callCount("coverLetter"))
}

func TestProcessProfileFailureIsFatal(t *testing.T) {
	gen := newFakeGenerator()
	gen.profileErr = errors.NewAIError(errors.ErrCodeAIServiceFailed, "model unavailable", nil)
	p := newTestPipeline(gen)

	result, err := p.Process(context.Background(), types.ProcessRequest{
		JobText:     testJobText,
		UserProfile: testProfile(),
	})
	require.Error(t, err)
	assert.Nil(t, result)

	var appErr *errors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, errors.ErrCodeUpstreamFailure, appErr.Code)
}

func TestProcessCoverLetterFailureIsFatal(t *testing.T) {
	gen := newFakeGenerator()
	gen.coverLetterErr = errors.NewAIError(errors.ErrCodeAIServiceFailed, "model unavailable", nil)
	p := newTestPipeline(gen)

	result, err := p.Process(context.Background(), types.ProcessRequest{
		JobText:     testJobText,
		UserProfile: testProfile(),
	})
	require.Error(t, err)
	assert.Nil(t, result, "no partial output on a fatal failure")

	var appErr *errors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, errors.ErrCodeUpstreamFailure, appErr.Code)
}

func TestProcessNoRoleAvailable(t *testing.T) {
	gen := newFakeGenerator()
	p := newTestPipeline(gen)

	profile := testProfile()
	record := profile.ProjectsDatabase.Records["payments"]
	record.AvailableRoles = nil
	profile.ProjectsDatabase.Records["payments"] = record
	profile.ExperiencesConfig = []types.ExperienceSlotConfig{
		{CandidateProjects: slotNumbers([]string{"0"}), RoleStrategy: types.StrategyDirect, ContentStrategy: types.StrategyDirect},
	}

	result, err := p.Process(context.Background(), types.ProcessRequest{
		JobText:     testJobText,
		UserProfile: profile,
	})
	require.Error(t, err)
	assert.Nil(t, result)

	var appErr *errors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, errors.ErrCodeNoRoleAvailable, appErr.Code)
}

func TestProcessMetadata(t *testing.T) {
	gen := newFakeGenerator()
	p := newTestPipeline(gen)

	result, err := p.Process(context.Background(), types.ProcessRequest{
		JobText:     testJobText,
		UserProfile: testProfile(),
	})
	require.NoError(t, err)

	meta := result.Metadata
	assert.Equal(t, types.LanguageEnglish, meta.Language)
	assert.Equal(t, 2, meta.Experiences.Total)
	assert.Equal(t, []string{"payments", "search"}, meta.Experiences.ProjectsUsed)
	assert.Equal(t, len(strings.Fields(gen.coverLetter)), meta.CoverLetterWordCount)
	assert.GreaterOrEqual(t, meta.AverageATSScore, 0.0)
	assert.LessOrEqual(t, meta.AverageATSScore, 100.0)
	assert.Greater(t, meta.ProcessingTimeSeconds, 0.0)
}

func TestProcessSoftSkillsExcludeTechnical(t *testing.T) {
	gen := newFakeGenerator()
	gen.softSkills = []string{"Go", "Communication", "Teamwork", "Rigor"}
	p := newTestPipeline(gen)

	result, err := p.Process(context.Background(), types.ProcessRequest{
		JobText:     testJobText,
		UserProfile: testProfile(),
	})
	require.NoError(t, err)

	soft := result.Resume.Skills.Soft
	assert.NotContains(t, soft, "Go")
	assert.Len(t, soft, 3)
}

func TestProcessRequestParamOverrides(t *testing.T) {
	gen := newFakeGenerator()
	p := newTestPipeline(gen)

	profile := testProfile()
	profile.ExperiencesConfig = []types.ExperienceSlotConfig{
		{CandidateProjects: slotNumbers([]string{"0"}), RoleStrategy: types.StrategyDirect, ContentStrategy: types.StrategyEnhanced},
	}

	two := 2
	short := 25
	req := types.ProcessRequest{
		JobText:     testJobText,
		UserProfile: profile,
	}
	req.Config.Enhancing.BulletAdaptation.BulletsPerExperience = &two
	req.Config.Enhancing.BulletAdaptation.MaxBulletLength = &short

	result, err := p.Process(context.Background(), req)
	require.NoError(t, err)

	bullets := result.Resume.Experience[0].Bullets
	require.Len(t, bullets, 2)
	for _, b := range bullets {
		assert.LessOrEqual(t, len([]rune(b)), 25)
	}
}

func TestProcessFrenchDetectionFlowsThrough(t *testing.T) {
	gen := newFakeGenerator()
	p := newTestPipeline(gen)

	frenchJob := "Nous recherchons un ingénieur backend pour rejoindre notre équipe. " +
		"Vous travaillerez sur la plateforme de paiement et les services de données."

	result, err := p.Process(context.Background(), types.ProcessRequest{
		JobText:     frenchJob,
		UserProfile: testProfile(),
	})
	require.NoError(t, err)
	assert.Equal(t, types.LanguageFrench, result.Metadata.Language)
	assert.Equal(t, types.LanguageFrench, result.StructuredJob.Language)
}

func TestStructure(t *testing.T) {
	gen := newFakeGenerator()
	p := newTestPipeline(gen)

	job, err := p.Structure(context.Background(), testJobText)
	require.NoError(t, err)
	assert.Equal(t, "Backend Engineer", job.Title)
	assert.Equal(t, types.LanguageEnglish, job.Language)
	assert.Equal(t, 1, gen.callCount("structure"))
}

func TestStructureShortText(t *testing.T) {
	gen := newFakeGenerator()
	p := newTestPipeline(gen)

	_, err := p.Structure(context.Background(), "Too short")
	require.Error(t, err)

	var appErr *errors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, errors.ErrCodeValidationFailed, appErr.Code)
	assert.Equal(t, 0, gen.callCount("structure"))
}
