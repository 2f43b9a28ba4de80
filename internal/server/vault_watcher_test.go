package server

import (
	"testing"
	"time"

	"cvforge/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubVaultClient struct {
	secrets map[string]*config.VaultSecret
}

func (s *stubVaultClient) GetSecretV2(path string) (*config.VaultSecret, error) {
	return s.secrets[path], nil
}

func (s *stubVaultClient) GetStringSecret(path, key string) (string, error) {
	if secret, ok := s.secrets[path]; ok {
		if value, ok := secret.Data[key].(string); ok {
			return value, nil
		}
	}
	return "", nil
}

func (s *stubVaultClient) GetStringSliceSecret(path, key string) ([]string, error) {
	if secret, ok := s.secrets[path]; ok {
		if value, ok := secret.Data[key].([]string); ok {
			return value, nil
		}
	}
	return nil, nil
}

func newTestVaultWatcher(client VaultClientInterface) *VaultWatcher {
	return NewVaultWatcher(client, "secret/data/tls", time.Minute,
		func(data *CertificateData, err error) {}, nil)
}

func TestVaultWatcherReadsCertificateData(t *testing.T) {
	client := &stubVaultClient{
		secrets: map[string]*config.VaultSecret{
			"secret/data/tls": {
				Data: map[string]any{
					"cert": "rotated-cert",
					"key":  "rotated-key",
					"ca":   "rotated-ca",
				},
				Version: 1,
			},
		},
	}

	vw := newTestVaultWatcher(client)

	data, err := vw.readCertificateData()
	require.NoError(t, err)
	assert.Equal(t, "rotated-cert", data.CertContent)
	assert.Equal(t, "rotated-key", data.KeyContent)
	assert.Equal(t, "rotated-ca", data.CAContent)
}

func TestVaultWatcherMissingFieldsStayEmpty(t *testing.T) {
	client := &stubVaultClient{
		secrets: map[string]*config.VaultSecret{
			"secret/data/tls": {
				Data:    map[string]any{"cert": "only-cert"},
				Version: 1,
			},
		},
	}

	vw := newTestVaultWatcher(client)

	data, err := vw.readCertificateData()
	require.NoError(t, err)
	assert.Equal(t, "only-cert", data.CertContent)
	assert.Empty(t, data.KeyContent)
	assert.Empty(t, data.CAContent)
}

func TestVaultWatcherVersionAdvanced(t *testing.T) {
	client := &stubVaultClient{
		secrets: map[string]*config.VaultSecret{
			"secret/data/tls": {
				Data:    map[string]any{},
				Version: 2,
			},
		},
	}

	vw := newTestVaultWatcher(client)

	// First check sees version 2 against the initial 0
	changed, err := vw.versionAdvanced()
	require.NoError(t, err)
	assert.True(t, changed)

	// Same version again is not a change
	changed, err = vw.versionAdvanced()
	require.NoError(t, err)
	assert.False(t, changed)

	// Version bump is detected
	client.secrets["secret/data/tls"].Version = 3
	changed, err = vw.versionAdvanced()
	require.NoError(t, err)
	assert.True(t, changed)
}
