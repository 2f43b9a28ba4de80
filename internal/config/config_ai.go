package config

// derived copies the operation config and fills unset fields from the
// global AI defaults.
func (c *Config) derived(op OperationAIConfig) OperationAIConfig {
	if op.Provider == "" {
		op.Provider = c.AI.Provider
	}
	if op.Model == "" {
		op.Model = c.AI.Model
	}
	if op.Timeout == nil {
		op.Timeout = &c.AI.Timeout
	}
	if op.APIKey == "" {
		op.APIKey = c.AI.APIKey
	}
	if op.MaxRetries == nil {
		op.MaxRetries = &c.AI.MaxRetries
	}
	if op.Temperature == nil {
		op.Temperature = &c.AI.Temperature
	}
	if op.UseSystemPrompts == nil {
		op.UseSystemPrompts = &c.AI.UseSystemPrompts
	}
	return op
}

// Per-operation accessors. Each returns the effective configuration for
// one LLM call site with global fallbacks applied.

func (c *Config) GetStructureConfig() OperationAIConfig   { return c.derived(c.AI.Structure) }
func (c *Config) GetRoleConfig() OperationAIConfig        { return c.derived(c.AI.Role) }
func (c *Config) GetBulletsConfig() OperationAIConfig     { return c.derived(c.AI.Bullets) }
func (c *Config) GetProfileConfig() OperationAIConfig     { return c.derived(c.AI.Profile) }
func (c *Config) GetSoftSkillsConfig() OperationAIConfig  { return c.derived(c.AI.SoftSkills) }
func (c *Config) GetCoverLetterConfig() OperationAIConfig { return c.derived(c.AI.CoverLetter) }

// WithOverrides returns a copy of the operation config with
// request-level model and temperature overrides applied. defaultModel
// applies only when no direct model override is present.
func (op OperationAIConfig) WithOverrides(model *string, temperature *float32, defaultModel *string) OperationAIConfig {
	if model != nil && *model != "" {
		op.Model = *model
	} else if defaultModel != nil && *defaultModel != "" {
		op.Model = *defaultModel
	}
	if temperature != nil {
		t := *temperature
		op.Temperature = &t
	}
	return op
}
