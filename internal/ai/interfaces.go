package ai

import (
	"context"

	"cvforge/internal/types"
)

// AIProvider is the contract each backend implements. Every generation
// method reports token usage; callers that don't track tokens can
// discard it.
type AIProvider interface {
	StructureJob(ctx context.Context, input types.StructureJobInput) (types.StructuredJob, *TokenUsage, error)
	EnhanceRole(ctx context.Context, input types.EnhanceRoleInput) (types.EnhanceRoleOutput, *TokenUsage, error)
	EnhanceBullets(ctx context.Context, input types.EnhanceBulletsInput) (types.EnhanceBulletsOutput, *TokenUsage, error)
	GenerateProfile(ctx context.Context, input types.GenerateProfileInput) (types.GenerateProfileOutput, *TokenUsage, error)
	GenerateSoftSkills(ctx context.Context, input types.GenerateSoftSkillsInput) (types.GenerateSoftSkillsOutput, *TokenUsage, error)
	GenerateCoverLetter(ctx context.Context, input types.GenerateCoverLetterInput) (types.GenerateCoverLetterOutput, *TokenUsage, error)
	GetModelInfo(ctx context.Context) *ModelInfo
	Close() error
}
