package pipeline

import (
	"context"
	goerrors "errors"
	"fmt"
	"strings"
	"time"

	"cvforge/internal/ai"
	"cvforge/internal/config"
	"cvforge/internal/errors"
	"cvforge/internal/types"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

// Generator is the AI surface the pipeline depends on. *ai.Services
// satisfies it; tests substitute a fake.
type Generator interface {
	StructureJob(ctx context.Context, input types.StructureJobInput) (types.StructuredJob, *ai.TokenUsage, error)
	EnhanceRole(ctx context.Context, input types.EnhanceRoleInput) (types.EnhanceRoleOutput, *ai.TokenUsage, error)
	EnhanceBullets(ctx context.Context, input types.EnhanceBulletsInput) (types.EnhanceBulletsOutput, *ai.TokenUsage, error)
	GenerateProfile(ctx context.Context, input types.GenerateProfileInput) (types.GenerateProfileOutput, *ai.TokenUsage, error)
	GenerateSoftSkills(ctx context.Context, input types.GenerateSoftSkillsInput) (types.GenerateSoftSkillsOutput, *ai.TokenUsage, error)
	GenerateCoverLetter(ctx context.Context, input types.GenerateCoverLetterInput) (types.GenerateCoverLetterOutput, *ai.TokenUsage, error)
}

// Params are the pipeline limits resolved for one request: server defaults
// with any request overrides applied
type Params struct {
	BulletsPerExperience  int
	MaxBulletLength       int
	TargetTechnicalSkills int
	NumSoftSkills         int
}

// Pipeline runs the full job-to-resume flow. A Pipeline is stateless across
// requests; everything request-specific flows through Process arguments.
type Pipeline struct {
	gen    Generator
	cfg    config.PipelineConfig
	logger *errors.Logger
}

// New creates a pipeline over the given generator and configuration
func New(gen Generator, cfg config.PipelineConfig, logger *errors.Logger) *Pipeline {
	return &Pipeline{
		gen:    gen,
		cfg:    cfg,
		logger: logger,
	}
}

// resolveParams merges request-level overrides onto the server defaults
func (p *Pipeline) resolveParams(req types.RequestConfig) Params {
	params := Params{
		BulletsPerExperience:  p.cfg.BulletsPerExperience,
		MaxBulletLength:       p.cfg.MaxBulletLength,
		TargetTechnicalSkills: p.cfg.TargetTechnicalSkills,
		NumSoftSkills:         p.cfg.NumSoftSkills,
	}

	adaptation := req.Enhancing.BulletAdaptation
	if adaptation.BulletsPerExperience != nil && *adaptation.BulletsPerExperience > 0 {
		params.BulletsPerExperience = *adaptation.BulletsPerExperience
	}
	if adaptation.MaxBulletLength != nil && *adaptation.MaxBulletLength > 0 {
		params.MaxBulletLength = *adaptation.MaxBulletLength
	}

	generation := req.Enhancing.SkillsGeneration
	if generation.TargetTechnicalSkills != nil && *generation.TargetTechnicalSkills > 0 {
		params.TargetTechnicalSkills = *generation.TargetTechnicalSkills
	}
	if generation.NumSoftSkills != nil && *generation.NumSoftSkills >= 0 {
		params.NumSoftSkills = *generation.NumSoftSkills
	}

	return params
}

// Validate checks everything that can fail without an AI call: job text
// length, presence of experience slots, and every candidate index. Requests
// failing here never reach a model.
func (p *Pipeline) Validate(req types.ProcessRequest) error {
	if len(strings.TrimSpace(req.JobText)) < p.cfg.MinJobTextLength {
		return errors.NewValidationError(errors.ErrCodeValidationFailed,
			fmt.Sprintf("job_text must be at least %d characters", p.cfg.MinJobTextLength), nil)
	}

	if len(req.UserProfile.ExperiencesConfig) == 0 {
		return errors.NewValidationError(errors.ErrCodeValidationFailed,
			"experiences_config must contain at least one slot", nil)
	}

	for slotIdx, slot := range req.UserProfile.ExperiencesConfig {
		if len(slot.CandidateProjects) == 0 {
			return errors.NewValidationError(errors.ErrCodeValidationFailed,
				fmt.Sprintf("experience slot %d has no candidate projects", slotIdx), nil)
		}
		if _, err := ResolveCandidates(req.UserProfile.ProjectsDatabase, slot.CandidateProjects); err != nil {
			return err
		}
	}

	return nil
}

// Process runs the full pipeline: structure the job, assign projects to
// slots, generate content, and assemble the response. On any fatal error the
// caller gets no partial output.
func (p *Pipeline) Process(ctx context.Context, req types.ProcessRequest) (*types.ProcessResult, error) {
	tracer := otel.Tracer("cvforge.pipeline")
	ctx, span := tracer.Start(ctx, "pipeline.process")
	defer span.End()

	if err := p.Validate(req); err != nil {
		span.RecordError(err)
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, p.cfg.RequestTimeout)
	defer cancel()

	params := p.resolveParams(req.Config)
	profile := req.UserProfile
	start := time.Now()
	var timing types.TimingBreakdown

	// Stage 1: language detection and job structuring
	language := DetectLanguage(req.JobText)
	structStart := time.Now()
	job, _, err := p.gen.StructureJob(ctx, types.StructureJobInput{
		JobText:  req.JobText,
		Language: language,
	})
	timing.Structuring = time.Since(structStart).Seconds()
	if err != nil {
		span.RecordError(err)
		return nil, p.classifyError(ctx, err)
	}
	job.Language = language
	span.SetAttributes(
		attribute.String("job.language", string(language)),
		attribute.Int("job.slots", len(profile.ExperiencesConfig)),
	)

	// Stage 2: deterministic slot assignment
	coordStart := time.Now()
	assigned, err := AssignProjects(profile.ExperiencesConfig, profile.ProjectsDatabase, job, p.cfg.Weights)
	timing.Coordinator = time.Since(coordStart).Seconds()
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	// Stage 3: per-slot content, profile and soft skills, in parallel.
	// Results land in slot-indexed slices so output order never depends on
	// goroutine scheduling.
	enhanceStart := time.Now()
	experiences := make([]types.ExperienceResult, len(assigned))
	technical := BuildTechnicalSkills(profile.SkillsDatabase, job, params.TargetTechnicalSkills)

	var profileText string
	var softSkills []string

	g, groupCtx := errgroup.WithContext(ctx)
	for slotIdx := range assigned {
		g.Go(func() error {
			slot := profile.ExperiencesConfig[slotIdx]
			project := profile.ProjectsDatabase.Records[assigned[slotIdx]]
			result, err := p.buildExperience(groupCtx, slotIdx, slot, project, job, params)
			if err != nil {
				return err
			}
			experiences[slotIdx] = result
			return nil
		})
	}

	g.Go(func() error {
		output, _, err := p.gen.GenerateProfile(groupCtx, types.GenerateProfileInput{
			Title:        profile.Personal.Title,
			Degree:       profile.Personal.Degree,
			Roles:        assignedRoles(profile.ProjectsDatabase, assigned),
			Technologies: assignedTechnologies(profile.ProjectsDatabase, assigned),
			JobTitle:     job.Title,
			JobKeywords:  job.Keywords,
			Language:     language,
		})
		if err != nil {
			return err
		}
		profileText = output.Profile
		return nil
	})

	if params.NumSoftSkills > 0 {
		g.Go(func() error {
			output, _, err := p.gen.GenerateSoftSkills(groupCtx, types.GenerateSoftSkillsInput{
				JobSoftSkills:    job.SoftSkills,
				Responsibilities: job.Responsibilities,
				Count:            params.NumSoftSkills,
				Language:         language,
			})
			if err != nil {
				return err
			}
			softSkills = DedupeSoftSkills(output.SoftSkills, technical, params.NumSoftSkills)
			return nil
		})
	}

	err = g.Wait()
	timing.Enhancement = time.Since(enhanceStart).Seconds()
	if err != nil {
		span.RecordError(err)
		return nil, p.classifyError(ctx, err)
	}

	// Stage 4: cover letter. Failure here is fatal, unlike per-slot
	// enhancement which degrades to direct content.
	letterStart := time.Now()
	letter, _, err := p.gen.GenerateCoverLetter(ctx, types.GenerateCoverLetterInput{
		CandidateName: profile.Personal.Name,
		JobTitle:      job.Title,
		Company:       job.Company,
		Profile:       profileText,
		Experiences:   experienceSummaries(experiences),
		Skills:        technical,
		Language:      language,
	})
	timing.CoverLetter = time.Since(letterStart).Seconds()
	if err != nil {
		span.RecordError(err)
		return nil, p.classifyError(ctx, err)
	}

	// Stage 5: assembly
	assemblyStart := time.Now()
	resume := &types.Resume{
		Personal:   profile.Personal,
		Contact:    profile.Contact,
		Profile:    profileText,
		Experience: experiences,
		Skills: types.SkillsSection{
			Technical: technical,
			Soft:      softSkills,
		},
		Education:      profile.Education,
		Languages:      profile.Languages,
		Certifications: profile.Certifications,
	}

	stats := types.ExperienceStats{
		Total:        len(experiences),
		ProjectsUsed: assigned,
	}
	var atsTotal float64
	for _, exp := range experiences {
		if exp.IsDirect {
			stats.Direct++
		} else {
			stats.Enhanced++
		}
		atsTotal += exp.ATSScore
	}
	averageATS := 0.0
	if len(experiences) > 0 {
		averageATS = atsTotal / float64(len(experiences))
	}
	timing.Assembly = time.Since(assemblyStart).Seconds()

	result := &types.ProcessResult{
		Success:       true,
		StructuredJob: &job,
		Resume:        resume,
		CoverLetter:   letter.CoverLetter,
		Metadata: types.ProcessMetadata{
			ProcessingTimeSeconds: time.Since(start).Seconds(),
			TimingBreakdown:       timing,
			Language:              language,
			Experiences:           stats,
			AverageATSScore:       averageATS,
			CoverLetterWordCount:  len(strings.Fields(letter.CoverLetter)),
		},
	}

	span.SetAttributes(
		attribute.Float64("pipeline.average_ats", averageATS),
		attribute.Int("pipeline.experiences_enhanced", stats.Enhanced),
		attribute.Int("pipeline.experiences_direct", stats.Direct),
	)

	return result, nil
}

// Structure runs language detection and job structuring alone
func (p *Pipeline) Structure(ctx context.Context, jobText string) (*types.StructuredJob, error) {
	if len(strings.TrimSpace(jobText)) < p.cfg.MinJobTextLength {
		return nil, errors.NewValidationError(errors.ErrCodeValidationFailed,
			fmt.Sprintf("job_text must be at least %d characters", p.cfg.MinJobTextLength), nil)
	}

	ctx, cancel := context.WithTimeout(ctx, p.cfg.RequestTimeout)
	defer cancel()

	language := DetectLanguage(jobText)
	job, _, err := p.gen.StructureJob(ctx, types.StructureJobInput{
		JobText:  jobText,
		Language: language,
	})
	if err != nil {
		return nil, p.classifyError(ctx, err)
	}
	job.Language = language
	return &job, nil
}

// classifyError maps stage failures to the stable pipeline error codes.
// Validation errors pass through untouched; AI and network failures become
// upstream failures unless the request deadline expired.
func (p *Pipeline) classifyError(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}

	if goerrors.Is(err, context.DeadlineExceeded) || goerrors.Is(ctx.Err(), context.DeadlineExceeded) {
		return errors.NewNetworkError(errors.ErrCodeRequestTimeout,
			"request deadline exceeded before the pipeline finished", err)
	}

	var appErr *errors.AppError
	if goerrors.As(err, &appErr) {
		switch appErr.Type {
		case errors.ErrorTypeValidation:
			return appErr
		case errors.ErrorTypeAI, errors.ErrorTypeNetwork:
			if appErr.Code == errors.ErrCodeInvalidResponse {
				return appErr
			}
			return errors.NewAIError(errors.ErrCodeUpstreamFailure,
				"upstream model call failed", appErr)
		default:
			return appErr
		}
	}

	return errors.NewInternalError(errors.ErrCodeUpstreamFailure, "pipeline stage failed", err)
}

// assignedRoles lists the first available role of each assigned project
func assignedRoles(db types.ProjectDatabase, assigned []string) []string {
	roles := make([]string, 0, len(assigned))
	for _, name := range assigned {
		project := db.Records[name]
		if len(project.AvailableRoles) > 0 {
			roles = append(roles, project.AvailableRoles[0])
		}
	}
	return roles
}

// assignedTechnologies unions the assigned projects' technologies,
// preserving first-seen order
func assignedTechnologies(db types.ProjectDatabase, assigned []string) []string {
	seen := make(map[string]bool)
	var techs []string
	for _, name := range assigned {
		for _, tech := range db.Records[name].Technologies {
			key := NormalizeSkill(tech)
			if seen[key] {
				continue
			}
			seen[key] = true
			techs = append(techs, tech)
		}
	}
	return techs
}

// experienceSummaries renders one-line summaries for the cover letter prompt
func experienceSummaries(experiences []types.ExperienceResult) []string {
	summaries := make([]string, 0, len(experiences))
	for _, exp := range experiences {
		summaries = append(summaries, fmt.Sprintf("%s at %s (%s to %s)", exp.Role, exp.Company, exp.StartDate, exp.EndDate))
	}
	return summaries
}
