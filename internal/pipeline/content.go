package pipeline

import (
	"context"
	"fmt"
	"strings"

	"cvforge/internal/errors"
	"cvforge/internal/types"
)

// buildExperience produces the final content for one slot. The role and
// bullet strategies are independent: either can be direct or enhanced. An
// enhanced axis that fails (after the provider's own retry) falls back to
// direct content and marks the result IsDirect, it never fails the request.
func (p *Pipeline) buildExperience(ctx context.Context, slotIdx int, slot types.ExperienceSlotConfig, project types.ProjectRecord, job types.StructuredJob, params Params) (types.ExperienceResult, error) {
	lang := job.Language
	fellBack := false

	role, err := p.resolveRole(ctx, slotIdx, slot, project, job, &fellBack)
	if err != nil {
		return types.ExperienceResult{}, err
	}

	bullets := p.resolveBullets(ctx, slotIdx, slot, project, job, params, &fellBack)

	result := types.ExperienceResult{
		Role:      role,
		Company:   project.Company,
		Location:  project.Location.Resolve(lang),
		StartDate: project.StartDate,
		EndDate:   project.EndDate,
		Bullets:   bullets,
		Context:   project.Context,
		IsDirect:  slot.ContentStrategy == types.StrategyDirect || fellBack,
	}

	atsText := result.Role + " " + result.Context + " " + strings.Join(result.Bullets, " ")
	result.ATSScore = ATSScore(atsText, job.Keywords)

	return result, nil
}

// resolveRole picks the slot's role title. Direct strategy takes the first
// available role and fails the request if the project declares none.
func (p *Pipeline) resolveRole(ctx context.Context, slotIdx int, slot types.ExperienceSlotConfig, project types.ProjectRecord, job types.StructuredJob, fellBack *bool) (string, error) {
	directRole := func() (string, error) {
		if len(project.AvailableRoles) == 0 {
			return "", errors.NewValidationError(errors.ErrCodeNoRoleAvailable,
				fmt.Sprintf("project %q declares no available roles for experience slot %d", project.Name, slotIdx), nil).
				WithContext("slot_index", slotIdx)
		}
		return project.AvailableRoles[0], nil
	}

	if slot.RoleStrategy != types.StrategyEnhanced {
		return directRole()
	}

	fallbackRole, err := directRole()
	if err != nil {
		return "", err
	}

	output, _, err := p.gen.EnhanceRole(ctx, types.EnhanceRoleInput{
		CurrentRole:    fallbackRole,
		AvailableRoles: project.AvailableRoles,
		ProjectContext: project.Context,
		Technologies:   project.Technologies,
		JobTitle:       job.Title,
		JobKeywords:    job.Keywords,
		Language:       job.Language,
	})
	if err != nil || strings.TrimSpace(output.Role) == "" {
		p.logger.Warn("Role enhancement failed, using direct role",
			"slot_index", slotIdx,
			"project", project.Name,
			"error", errString(err))
		*fellBack = true
		return fallbackRole, nil
	}

	return output.Role, nil
}

// resolveBullets produces the slot's bullet list. Direct content reproduces
// the stored bullets verbatim, trimmed to the configured count but never
// shortened or padded. Enhanced content asks the model for exactly the
// configured number of bullets and truncates each to the length limit;
// shortfalls are topped up from the original bullets.
func (p *Pipeline) resolveBullets(ctx context.Context, slotIdx int, slot types.ExperienceSlotConfig, project types.ProjectRecord, job types.StructuredJob, params Params, fellBack *bool) []string {
	direct := func() []string {
		bullets := project.Bullets
		if params.BulletsPerExperience > 0 && len(bullets) > params.BulletsPerExperience {
			bullets = bullets[:params.BulletsPerExperience]
		}
		out := make([]string, len(bullets))
		copy(out, bullets)
		return out
	}

	if slot.ContentStrategy != types.StrategyEnhanced {
		return direct()
	}

	output, _, err := p.gen.EnhanceBullets(ctx, types.EnhanceBulletsInput{
		Bullets:          project.Bullets,
		ProjectContext:   project.Context,
		Technologies:     project.Technologies,
		JobKeywords:      job.Keywords,
		ActionVerbs:      job.ActionVerbs,
		Responsibilities: job.Responsibilities,
		NumBullets:       params.BulletsPerExperience,
		MaxLength:        params.MaxBulletLength,
		Language:         job.Language,
	})
	if err != nil || len(output.Bullets) == 0 {
		p.logger.Warn("Bullet enhancement failed, using direct bullets",
			"slot_index", slotIdx,
			"project", project.Name,
			"error", errString(err))
		*fellBack = true
		return direct()
	}

	bullets := make([]string, 0, params.BulletsPerExperience)
	seen := make(map[string]bool)
	for _, b := range output.Bullets {
		if len(bullets) == params.BulletsPerExperience {
			break
		}
		b = truncateBullet(strings.TrimSpace(b), params.MaxBulletLength)
		if b == "" || seen[b] {
			continue
		}
		seen[b] = true
		bullets = append(bullets, b)
	}

	// Top up from the originals if the model returned too few
	for _, b := range project.Bullets {
		if len(bullets) == params.BulletsPerExperience {
			break
		}
		b = truncateBullet(b, params.MaxBulletLength)
		if b == "" || seen[b] {
			continue
		}
		seen[b] = true
		bullets = append(bullets, b)
	}

	return bullets
}

// truncateBullet caps a bullet at maxLen runes. Applied to model output
// only; direct content is never length-trimmed.
func truncateBullet(s string, maxLen int) string {
	if maxLen <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen])
}

func errString(err error) string {
	if err == nil {
		return "empty response"
	}
	return err.Error()
}
