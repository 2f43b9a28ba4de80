package ai

import (
	"context"

	"cvforge/internal/config"
	"cvforge/internal/errors"
	"cvforge/internal/types"
)

// Services bundles one Service per pipeline operation, with request-level
// overrides already applied.
type Services struct {
	Structure   *Service
	Role        *Service
	Bullets     *Service
	Profile     *Service
	SoftSkills  *Service
	CoverLetter *Service
}

// NewServices builds the per-operation AI services for one request. Request
// overrides are merged onto the server configuration:
//   - openai.default_model applies to every operation lacking a direct override
//   - structuring.model and temperature apply to job structuring
//   - enhancing.bullet_coordinator.* apply to bullet rewriting
//   - enhancing.profile_generation.model applies to profile generation
//   - enhancing.cover_letter.model applies to cover letter generation
//
// enhancing.coordinator.* is accepted but not bound to any call: slot
// assignment is computed deterministically.
func NewServices(cfg *config.Config, req types.RequestConfig, logger *errors.Logger) (*Services, error) {
	defaultModel := req.OpenAI.DefaultModel

	build := func(op config.OperationAIConfig, operationType string, model *string, temperature *float32) (*Service, error) {
		merged := op.WithOverrides(model, temperature, defaultModel)
		return NewService(&merged, operationType, logger)
	}

	structure, err := build(cfg.GetStructureConfig(), "structure", req.Structuring.Model, req.Structuring.Temperature)
	if err != nil {
		return nil, err
	}
	role, err := build(cfg.GetRoleConfig(), "role", nil, nil)
	if err != nil {
		return nil, err
	}
	bullets, err := build(cfg.GetBulletsConfig(), "bullets", req.Enhancing.BulletCoordinator.Model, req.Enhancing.BulletCoordinator.Temperature)
	if err != nil {
		return nil, err
	}
	profile, err := build(cfg.GetProfileConfig(), "profile", req.Enhancing.ProfileGeneration.Model, req.Enhancing.ProfileGeneration.Temperature)
	if err != nil {
		return nil, err
	}
	softSkills, err := build(cfg.GetSoftSkillsConfig(), "softSkills", nil, nil)
	if err != nil {
		return nil, err
	}
	coverLetter, err := build(cfg.GetCoverLetterConfig(), "coverLetter", req.Enhancing.CoverLetter.Model, req.Enhancing.CoverLetter.Temperature)
	if err != nil {
		return nil, err
	}

	return &Services{
		Structure:   structure,
		Role:        role,
		Bullets:     bullets,
		Profile:     profile,
		SoftSkills:  softSkills,
		CoverLetter: coverLetter,
	}, nil
}

// StructureJob delegates to the structuring provider
func (s *Services) StructureJob(ctx context.Context, input types.StructureJobInput) (types.StructuredJob, *TokenUsage, error) {
	return s.Structure.Provider.StructureJob(ctx, input)
}

// EnhanceRole delegates to the role enhancement provider
func (s *Services) EnhanceRole(ctx context.Context, input types.EnhanceRoleInput) (types.EnhanceRoleOutput, *TokenUsage, error) {
	return s.Role.Provider.EnhanceRole(ctx, input)
}

// EnhanceBullets delegates to the bullet rewriting provider
func (s *Services) EnhanceBullets(ctx context.Context, input types.EnhanceBulletsInput) (types.EnhanceBulletsOutput, *TokenUsage, error) {
	return s.Bullets.Provider.EnhanceBullets(ctx, input)
}

// GenerateProfile delegates to the profile generation provider
func (s *Services) GenerateProfile(ctx context.Context, input types.GenerateProfileInput) (types.GenerateProfileOutput, *TokenUsage, error) {
	return s.Profile.Provider.GenerateProfile(ctx, input)
}

// GenerateSoftSkills delegates to the soft skill generation provider
func (s *Services) GenerateSoftSkills(ctx context.Context, input types.GenerateSoftSkillsInput) (types.GenerateSoftSkillsOutput, *TokenUsage, error) {
	return s.SoftSkills.Provider.GenerateSoftSkills(ctx, input)
}

// GenerateCoverLetter delegates to the cover letter provider
func (s *Services) GenerateCoverLetter(ctx context.Context, input types.GenerateCoverLetterInput) (types.GenerateCoverLetterOutput, *TokenUsage, error) {
	return s.CoverLetter.Provider.GenerateCoverLetter(ctx, input)
}

// Close releases all provider resources
func (s *Services) Close() error {
	for _, svc := range []*Service{s.Structure, s.Role, s.Bullets, s.Profile, s.SoftSkills, s.CoverLetter} {
		if svc != nil && svc.Provider != nil {
			if err := svc.Provider.Close(); err != nil {
				return err
			}
		}
	}
	return nil
}
