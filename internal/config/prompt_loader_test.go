package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePrompt(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoadPromptsFromFiles(t *testing.T) {
	tempDir := t.TempDir()
	systemFile := writePrompt(t, tempDir, "system.structure.md", "Test system prompt for job structuring")
	userFile := writePrompt(t, tempDir, "user.structure.md", "Test user prompt template: %s")

	config := &Config{
		AI: AIConfig{
			Structure: OperationAIConfig{
				Prompts: PromptConfig{
					SystemFile: systemFile,
					UserFile:   userFile,
				},
			},
		},
	}

	require.NoError(t, config.loadPromptsFromFiles())

	loaded := GetPromptsForOperation("structure")
	assert.Equal(t, "Test system prompt for job structuring", loaded.System)
	assert.Equal(t, "Test user prompt template: %s", loaded.User)

	// Loading must not rewrite the config paths
	assert.Equal(t, systemFile, config.AI.Structure.Prompts.SystemFile)
	assert.Equal(t, userFile, config.AI.Structure.Prompts.UserFile)
}

func TestValidatePromptFiles(t *testing.T) {
	tempDir := t.TempDir()
	validFile := writePrompt(t, tempDir, "valid.md", "Valid content")

	config := &Config{
		AI: AIConfig{
			CoverLetter: OperationAIConfig{
				Prompts: PromptConfig{SystemFile: validFile},
			},
		},
	}
	assert.NoError(t, config.validatePromptFiles())

	config.AI.CoverLetter.Prompts.SystemFile = filepath.Join(tempDir, "nonexistent.md")
	assert.Error(t, config.validatePromptFiles())
}

func TestLoadPromptFromFile(t *testing.T) {
	tempDir := t.TempDir()
	config := &Config{}

	t.Run("valid file", func(t *testing.T) {
		testFile := writePrompt(t, tempDir, "test.md", "Test prompt content")
		content, err := config.loadPromptFromFile(testFile, "system", "structure")
		require.NoError(t, err)
		assert.Equal(t, "Test prompt content", content)
	})

	t.Run("empty file is rejected", func(t *testing.T) {
		emptyFile := writePrompt(t, tempDir, "empty.md", "")
		_, err := config.loadPromptFromFile(emptyFile, "system", "structure")
		assert.Error(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := config.loadPromptFromFile(filepath.Join(tempDir, "nonexistent.md"), "system", "structure")
		assert.Error(t, err)
	})
}

func TestPromptFileValidateThenLoad(t *testing.T) {
	tempDir := t.TempDir()
	systemFile := writePrompt(t, tempDir, "system.md", "Custom system prompt for testing")
	userFile := writePrompt(t, tempDir, "user.md", "Custom user prompt: %s")

	config := &Config{
		AI: AIConfig{
			Bullets: OperationAIConfig{
				Prompts: PromptConfig{
					SystemFile: systemFile,
					UserFile:   userFile,
				},
			},
		},
	}

	require.NoError(t, config.validatePromptFiles())
	require.NoError(t, config.loadPromptsFromFiles())

	loaded := GetPromptsForOperation("bullets")
	assert.Equal(t, "Custom system prompt for testing", loaded.System)
	assert.Equal(t, "Custom user prompt: %s", loaded.User)
}
