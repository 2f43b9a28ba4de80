package server

import (
	"fmt"
	"sync"
	"time"

	"cvforge/internal/config"
	"cvforge/internal/errors"
)

// VaultClientInterface is the slice of the Vault client the server needs
type VaultClientInterface interface {
	GetSecretV2(path string) (*config.VaultSecret, error)
	GetStringSecret(path, key string) (string, error)
	GetStringSliceSecret(path, key string) ([]string, error)
}

// CertificateData is rotated TLS material read from a Vault KV secret
type CertificateData struct {
	CertContent string
	KeyContent  string
	CAContent   string
}

// VaultReloadCallback receives rotated material or the fetch error
type VaultReloadCallback func(data *CertificateData, err error)

// VaultWatcher polls a KVv2 secret and fires its callback whenever the
// secret version advances. Version comparison keeps the poll cheap; the
// full payload is only read after a change.
type VaultWatcher struct {
	mu sync.RWMutex

	client       VaultClientInterface
	secretPath   string
	pollInterval time.Duration
	onUpdate     VaultReloadCallback
	logger       *errors.Logger

	stopChan    chan struct{}
	running     bool
	lastVersion int64
}

func NewVaultWatcher(client VaultClientInterface, secretPath string, pollInterval time.Duration, onUpdate VaultReloadCallback, logger *errors.Logger) *VaultWatcher {
	return &VaultWatcher{
		client:       client,
		secretPath:   secretPath,
		pollInterval: pollInterval,
		onUpdate:     onUpdate,
		logger:       logger,
		stopChan:     make(chan struct{}),
	}
}

// Start launches the poll loop.
func (vw *VaultWatcher) Start() error {
	vw.mu.Lock()
	defer vw.mu.Unlock()
	if vw.running {
		return fmt.Errorf("vault watcher is already running")
	}
	vw.running = true
	go vw.pollLoop()
	if vw.logger != nil {
		vw.logger.Info("Vault watcher started", "secret_path", vw.secretPath, "poll_interval", vw.pollInterval)
	}
	return nil
}

// Stop halts the poll loop.
func (vw *VaultWatcher) Stop() error {
	vw.mu.Lock()
	defer vw.mu.Unlock()
	if !vw.running {
		return nil
	}
	close(vw.stopChan)
	vw.running = false
	if vw.logger != nil {
		vw.logger.Info("Vault watcher stopped")
	}
	return nil
}

func (vw *VaultWatcher) pollLoop() {
	ticker := time.NewTicker(vw.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			vw.poll()
		case <-vw.stopChan:
			return
		}
	}
}

func (vw *VaultWatcher) poll() {
	advanced, err := vw.versionAdvanced()
	if err != nil {
		if vw.logger != nil {
			vw.logger.LogError(err, "Failed to check Vault for updates")
		}
		return
	}
	if !advanced {
		return
	}

	if vw.logger != nil {
		vw.logger.Info("Vault secret changed, fetching new certificate data")
	}

	data, err := vw.readCertificateData()
	if err != nil {
		if vw.logger != nil {
			vw.logger.LogError(err, "Failed to fetch new certificate data from Vault")
		}
		vw.onUpdate(nil, err)
		return
	}

	if vw.logger != nil {
		vw.logger.Info("New certificate data fetched from Vault, triggering reload")
	}
	vw.onUpdate(data, nil)
}

// versionAdvanced reads the secret metadata and reports whether its
// version moved past the last one seen.
func (vw *VaultWatcher) versionAdvanced() (bool, error) {
	secret, err := vw.client.GetSecretV2(vw.secretPath)
	if err != nil {
		return false, fmt.Errorf("failed to read secret: %w", err)
	}
	if secret.Version > vw.lastVersion {
		vw.lastVersion = secret.Version
		return true, nil
	}
	return false, nil
}

// readCertificateData pulls the cert, key and ca fields from the secret.
// Absent fields stay empty; the consumer keeps its current value for them.
func (vw *VaultWatcher) readCertificateData() (*CertificateData, error) {
	secret, err := vw.client.GetSecretV2(vw.secretPath)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch new TLS data from vault: %w", err)
	}

	data := &CertificateData{}
	if cert, ok := secret.Data["cert"].(string); ok {
		data.CertContent = cert
	}
	if key, ok := secret.Data["key"].(string); ok {
		data.KeyContent = key
	}
	if ca, ok := secret.Data["ca"].(string); ok {
		data.CAContent = ca
	}
	return data, nil
}

// Status reports watcher state for the health endpoint.
func (vw *VaultWatcher) Status() map[string]any {
	vw.mu.RLock()
	defer vw.mu.RUnlock()
	return map[string]any{
		"running":       vw.running,
		"poll_interval": vw.pollInterval.String(),
		"secret_path":   vw.secretPath,
		"last_version":  vw.lastVersion,
	}
}
