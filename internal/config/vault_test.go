package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSecretVersion(t *testing.T) {
	tests := []struct {
		name        string
		input       any
		expected    int64
		expectError bool
	}{
		{name: "int64 value", input: int64(42), expected: 42},
		{name: "float64 value", input: float64(42.0), expected: 42},
		{name: "string value", input: "42", expected: 42},
		{name: "invalid string value", input: "not-a-number", expectError: true},
		{name: "unsupported type", input: []string{"42"}, expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := secretVersion(tt.input, "secret/test")

			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.expected, result)
			}
		})
	}
}

func TestFillGeminiKey(t *testing.T) {
	config := &Config{}

	fillGeminiKey(config, "test-gemini-key")

	assert.Equal(t, "test-gemini-key", config.AI.APIKey)
	assert.Equal(t, "test-gemini-key", config.AI.Structure.APIKey)
	assert.Equal(t, "test-gemini-key", config.AI.Role.APIKey)
	assert.Equal(t, "test-gemini-key", config.AI.Bullets.APIKey)
	assert.Equal(t, "test-gemini-key", config.AI.Profile.APIKey)
	assert.Equal(t, "test-gemini-key", config.AI.SoftSkills.APIKey)
	assert.Equal(t, "test-gemini-key", config.AI.CoverLetter.APIKey)
}

func TestFillGeminiKeyKeepsExistingKeys(t *testing.T) {
	config := &Config{
		AI: AIConfig{
			Structure: OperationAIConfig{APIKey: "existing-structure-key"},
		},
	}

	fillGeminiKey(config, "test-gemini-key")

	assert.Equal(t, "test-gemini-key", config.AI.APIKey)
	assert.Equal(t, "existing-structure-key", config.AI.Structure.APIKey)
	assert.Equal(t, "test-gemini-key", config.AI.CoverLetter.APIKey)
}

func TestResolveVaultToken(t *testing.T) {
	t.Run("token from config", func(t *testing.T) {
		token, err := resolveVaultToken(VaultConfig{Token: "direct-token"}, nil)
		assert.NoError(t, err)
		assert.Equal(t, "direct-token", token)
	})

	t.Run("token from file is trimmed", func(t *testing.T) {
		tokenFile := filepath.Join(t.TempDir(), "vault-token")
		require.NoError(t, os.WriteFile(tokenFile, []byte("  file-token  \n"), 0600))

		token, err := resolveVaultToken(VaultConfig{TokenFile: tokenFile}, nil)
		assert.NoError(t, err)
		assert.Equal(t, "file-token", token)
	})

	t.Run("config token wins over file", func(t *testing.T) {
		tokenFile := filepath.Join(t.TempDir(), "vault-token")
		require.NoError(t, os.WriteFile(tokenFile, []byte("file-token"), 0600))

		token, err := resolveVaultToken(VaultConfig{Token: "direct-token", TokenFile: tokenFile}, nil)
		assert.NoError(t, err)
		assert.Equal(t, "direct-token", token)
	})

	t.Run("missing token file", func(t *testing.T) {
		_, err := resolveVaultToken(VaultConfig{TokenFile: "/nonexistent/token/file"}, nil)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to read vault token file")
	})

	t.Run("no token provided", func(t *testing.T) {
		_, err := resolveVaultToken(VaultConfig{}, nil)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "vault token is required")
	})

	t.Run("whitespace-only token file", func(t *testing.T) {
		tokenFile := filepath.Join(t.TempDir(), "empty-token")
		require.NoError(t, os.WriteFile(tokenFile, []byte("   \n  \n"), 0600))

		_, err := resolveVaultToken(VaultConfig{TokenFile: tokenFile}, nil)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "vault token is required")
	})
}

func TestApplyTLSSecretData(t *testing.T) {
	t.Run("all certificates present", func(t *testing.T) {
		config := &Config{}
		tlsData := &VaultSecret{Data: map[string]any{
			"cert": "cert-content",
			"key":  "key-content",
			"ca":   "ca-content",
		}}

		count, err := applyTLSSecretData(config, tlsData)
		require.NoError(t, err)
		assert.Equal(t, 3, count)
		assert.Equal(t, "cert-content", config.Server.TLS.CertContent)
		assert.Equal(t, "key-content", config.Server.TLS.KeyContent)
		assert.Equal(t, "ca-content", config.Server.TLS.CAContent)
	})

	t.Run("partial certificates", func(t *testing.T) {
		config := &Config{}
		tlsData := &VaultSecret{Data: map[string]any{
			"cert": "cert-content",
		}}

		count, err := applyTLSSecretData(config, tlsData)
		require.NoError(t, err)
		assert.Equal(t, 1, count)
		assert.Equal(t, "cert-content", config.Server.TLS.CertContent)
		assert.Empty(t, config.Server.TLS.KeyContent)
		assert.Empty(t, config.Server.TLS.CAContent)
	})

	t.Run("empty and non-string values are skipped", func(t *testing.T) {
		config := &Config{}
		tlsData := &VaultSecret{Data: map[string]any{
			"cert": "",
			"key":  123,
		}}

		count, err := applyTLSSecretData(config, tlsData)
		require.NoError(t, err)
		assert.Equal(t, 0, count)
		assert.Empty(t, config.Server.TLS.CertContent)
		assert.Empty(t, config.Server.TLS.KeyContent)
	})

	t.Run("file path fields are rejected", func(t *testing.T) {
		for _, field := range []string{"cert_file", "key_file", "ca_file"} {
			config := &Config{}
			tlsData := &VaultSecret{Data: map[string]any{
				field: "/path/to/something",
			}}

			_, err := applyTLSSecretData(config, tlsData)
			assert.Error(t, err)
			assert.Contains(t, err.Error(), field)
			assert.Contains(t, err.Error(), "no longer supported")
		}
	})
}

func TestApplyVaultSecretsDisabled(t *testing.T) {
	config := &Config{
		Vault: VaultConfig{Enabled: false},
	}

	assert.NoError(t, ApplyVaultSecrets(config, nil))
}

func TestMaskSecret(t *testing.T) {
	assert.Equal(t, "", maskSecret(""))
	assert.Equal(t, "****", maskSecret("short"))
	assert.Equal(t, "****", maskSecret("12345678"))
	assert.Equal(t, "abcd****wxyz", maskSecret("abcdefghijklmnopqrstuvwxyz"))
}
