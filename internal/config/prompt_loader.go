package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
)

// promptFileBindings pairs each operation's prompt configuration with its
// loaded-prompt target. Regenerated on every call so the pointers always
// refer to the current Config value.
func (c *Config) promptFileBindings() []struct {
	Operation string
	Prompts   *PromptConfig
	Target    *OperationLoadedPrompts
} {
	return []struct {
		Operation string
		Prompts   *PromptConfig
		Target    *OperationLoadedPrompts
	}{
		{"structure", &c.AI.Structure.Prompts, &loadedPrompts.Structure},
		{"role", &c.AI.Role.Prompts, &loadedPrompts.Role},
		{"bullets", &c.AI.Bullets.Prompts, &loadedPrompts.Bullets},
		{"profile", &c.AI.Profile.Prompts, &loadedPrompts.Profile},
		{"softSkills", &c.AI.SoftSkills.Prompts, &loadedPrompts.SoftSkills},
		{"coverLetter", &c.AI.CoverLetter.Prompts, &loadedPrompts.CoverLetter},
	}
}

// loadPromptsFromFiles loads custom prompts from external files if file paths are specified
func (c *Config) loadPromptsFromFiles() error {
	log.Println("[CONFIG] Starting custom prompt loading from files")

	// Initialize loaded prompts exactly once
	loadedPromptsOnce.Do(func() {
		loadedPrompts = AllLoadedPrompts{}
	})

	for _, binding := range c.promptFileBindings() {
		if binding.Prompts.SystemFile != "" {
			content, err := c.loadPromptFromFile(binding.Prompts.SystemFile, "system", binding.Operation)
			if err != nil {
				return fmt.Errorf("failed to load %s system prompt: %w", binding.Operation, err)
			}
			binding.Target.System = content
		}
		if binding.Prompts.UserFile != "" {
			content, err := c.loadPromptFromFile(binding.Prompts.UserFile, "user", binding.Operation)
			if err != nil {
				return fmt.Errorf("failed to load %s user prompt: %w", binding.Operation, err)
			}
			binding.Target.User = content
		}
	}

	c.logPromptLoadingSummary()

	return nil
}

// loadPromptFromFile loads a prompt from a file with proper error handling and logging
func (c *Config) loadPromptFromFile(filePath, promptType, operation string) (string, error) {
	// Resolve relative paths
	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to resolve absolute path for %s %s prompt file '%s': %w", promptType, operation, filePath, err)
	}

	// Check if file exists
	if _, err := os.Stat(absPath); os.IsNotExist(err) {
		return "", fmt.Errorf("%s %s prompt file not found: %s", promptType, operation, absPath)
	}

	// Read file content
	content, err := os.ReadFile(absPath)
	if err != nil {
		return "", fmt.Errorf("failed to read %s %s prompt file '%s': %w", promptType, operation, absPath, err)
	}

	// Validate content is not empty
	trimmedContent := strings.TrimSpace(string(content))
	if trimmedContent == "" {
		return "", fmt.Errorf("%s %s prompt file '%s' is empty", promptType, operation, absPath)
	}

	// Log successful loading
	log.Printf("[CONFIG] Successfully loaded %s %s prompt from file: %s (%d characters)",
		promptType, operation, absPath, len(trimmedContent))

	return trimmedContent, nil
}

// validatePromptFiles validates that prompt files exist and are readable before loading
func (c *Config) validatePromptFiles() error {
	var validationErrors []string

	validateFile := func(filePath, promptType, operation string) {
		if filePath == "" {
			return // No file specified, skip validation
		}

		absPath, err := filepath.Abs(filePath)
		if err != nil {
			validationErrors = append(validationErrors, fmt.Sprintf("invalid path for %s %s prompt: %s", promptType, operation, filePath))
			return
		}

		if _, err := os.Stat(absPath); os.IsNotExist(err) {
			validationErrors = append(validationErrors, fmt.Sprintf("%s %s prompt file not found: %s", promptType, operation, absPath))
		}
	}

	for _, binding := range c.promptFileBindings() {
		validateFile(binding.Prompts.SystemFile, "system", binding.Operation)
		validateFile(binding.Prompts.UserFile, "user", binding.Operation)
	}

	if len(validationErrors) > 0 {
		return fmt.Errorf("prompt file validation failed:\n%s", strings.Join(validationErrors, "\n"))
	}

	return nil
}

// logPromptLoadingSummary logs a summary of loaded prompts
func (c *Config) logPromptLoadingSummary() {
	log.Println("[CONFIG] === Custom Prompt Loading Summary ===")

	promptCount := 0
	targets := []struct {
		operation string
		loaded    OperationLoadedPrompts
	}{
		{"structure", loadedPrompts.Structure},
		{"role", loadedPrompts.Role},
		{"bullets", loadedPrompts.Bullets},
		{"profile", loadedPrompts.Profile},
		{"softSkills", loadedPrompts.SoftSkills},
		{"coverLetter", loadedPrompts.CoverLetter},
	}
	for _, t := range targets {
		if t.loaded.System != "" {
			log.Printf("[CONFIG] %s system prompt: loaded from file", t.operation)
			promptCount++
		}
		if t.loaded.User != "" {
			log.Printf("[CONFIG] %s user prompt: loaded from file", t.operation)
			promptCount++
		}
	}

	if promptCount == 0 {
		log.Println("[CONFIG] No custom prompts loaded - using built-in defaults")
	} else {
		log.Printf("[CONFIG] Total custom prompts loaded: %d", promptCount)
	}

	log.Println("[CONFIG] ==========================================")
}
