package server

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"sync"
	"time"

	"cvforge/internal/config"
	"cvforge/internal/errors"
	"cvforge/internal/observability"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// CertificateManager holds the live TLS material and swaps it in place
// when a watcher reports new certificates. Handshakes always read
// through the manager, so a reload never requires a server restart.
type CertificateManager struct {
	mu sync.RWMutex

	serverCert *tls.Certificate
	clientCert *tls.Certificate
	caCertPool *x509.CertPool

	serverCertExpiry time.Time
	clientCertExpiry time.Time
	lastReloadTime   time.Time

	fileWatcher  *CertWatcher
	vaultWatcher *VaultWatcher

	tlsCfg      *config.TLSConfig
	reloadCfg   *config.AutoReloadConfig
	vaultClient VaultClientInterface

	reloadCallbacks []ReloadCallback
	logger          *errors.Logger
	om              *observability.ObservabilityManager

	reloadCount        int64
	reloadSuccessCount int64
	reloadFailureCount int64
	lastReloadSuccess  bool
	lastReloadError    string
}

// ReloadCallback is invoked after every reload attempt
type ReloadCallback func(success bool, err error)

// CertificateMetrics is the reload counter snapshot exposed on /health
type CertificateMetrics struct {
	ReloadCount        int64
	ReloadSuccessCount int64
	ReloadFailureCount int64
	LastReloadTime     time.Time
	LastReloadSuccess  bool
	LastReloadError    string
}

func NewCertificateManager(tlsCfg *config.TLSConfig, reloadCfg *config.AutoReloadConfig, vaultClient VaultClientInterface, om *observability.ObservabilityManager, logger *errors.Logger) *CertificateManager {
	return &CertificateManager{
		tlsCfg:      tlsCfg,
		reloadCfg:   reloadCfg,
		vaultClient: vaultClient,
		logger:      logger,
		om:          om,
	}
}

// Start loads the initial certificates and brings up whichever watchers
// the config enables.
func (cm *CertificateManager) Start() error {
	if err := cm.loadCertificates(); err != nil {
		return fmt.Errorf("failed to load initial certificates: %w", err)
	}

	cm.startExpiryMonitoring()

	if err := cm.startFileWatcher(); err != nil {
		return err
	}
	return cm.startVaultWatcher()
}

// Stop shuts down the watchers.
func (cm *CertificateManager) Stop() error {
	if cm.fileWatcher != nil {
		if err := cm.fileWatcher.Stop(); err != nil {
			if cm.logger != nil {
				cm.logger.LogError(err, "Failed to stop certificate file watcher")
			}
			return err
		}
	}
	if cm.vaultWatcher != nil {
		if err := cm.vaultWatcher.Stop(); err != nil {
			if cm.logger != nil {
				cm.logger.LogError(err, "Failed to stop Vault watcher")
			}
			return err
		}
	}
	if cm.logger != nil {
		cm.logger.Info("Certificate manager stopped")
	}
	return nil
}

func (cm *CertificateManager) startFileWatcher() error {
	if cm.reloadCfg == nil || !cm.reloadCfg.FileWatcher.Enabled {
		return nil
	}
	if cm.tlsCfg.CertFile == "" && cm.tlsCfg.KeyFile == "" && cm.tlsCfg.CAFile == "" {
		return nil
	}

	watcher, err := NewCertWatcher(
		cm.tlsCfg.CertFile,
		cm.tlsCfg.KeyFile,
		cm.tlsCfg.CAFile,
		cm.reloadCfg.FileWatcher.DebounceDelay,
		cm.triggerReload,
		cm.logger,
	)
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := watcher.Start(); err != nil {
		return fmt.Errorf("failed to start file watcher: %w", err)
	}
	cm.fileWatcher = watcher

	if cm.logger != nil {
		cm.logger.Info("Certificate file watcher started",
			"cert_file", cm.tlsCfg.CertFile,
			"key_file", cm.tlsCfg.KeyFile,
			"ca_file", cm.tlsCfg.CAFile)
	}
	return nil
}

func (cm *CertificateManager) startVaultWatcher() error {
	if cm.reloadCfg == nil || !cm.reloadCfg.VaultWatcher.Enabled {
		return nil
	}
	// Vault rotation only applies to content-sourced material
	if cm.tlsCfg.CertContent == "" && cm.tlsCfg.KeyContent == "" && cm.tlsCfg.CAContent == "" {
		return nil
	}
	if cm.vaultClient == nil {
		if cm.logger != nil {
			cm.logger.Warn("Vault watcher enabled but Vault client is nil")
		}
		return nil
	}

	vw := NewVaultWatcher(
		cm.vaultClient,
		cm.reloadCfg.VaultWatcher.SecretPath,
		cm.reloadCfg.VaultWatcher.PollInterval,
		cm.applyVaultUpdate,
		cm.logger,
	)
	if err := vw.Start(); err != nil {
		return fmt.Errorf("failed to start Vault watcher: %w", err)
	}
	cm.vaultWatcher = vw

	if cm.logger != nil {
		cm.logger.Info("Vault watcher started",
			"secret_path", cm.reloadCfg.VaultWatcher.SecretPath,
			"poll_interval", cm.reloadCfg.VaultWatcher.PollInterval)
	}
	return nil
}

// applyVaultUpdate stores the rotated material reported by the Vault
// watcher and reloads from it.
func (cm *CertificateManager) applyVaultUpdate(data *CertificateData, err error) {
	if err != nil {
		if cm.logger != nil {
			cm.logger.LogError(err, "Failed to fetch new certificate data from Vault")
		}
		return
	}

	cm.mu.Lock()
	if data.CertContent != "" {
		cm.tlsCfg.CertContent = data.CertContent
	}
	if data.KeyContent != "" {
		cm.tlsCfg.KeyContent = data.KeyContent
	}
	if data.CAContent != "" {
		cm.tlsCfg.CAContent = data.CAContent
	}
	cm.mu.Unlock()

	cm.triggerReload()
}

// GetServerCertificate serves tls.Config.GetCertificate. Expired
// certificates fail the handshake rather than presenting stale material.
func (cm *CertificateManager) GetServerCertificate(hello *tls.ClientHelloInfo) (*tls.Certificate, error) {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	if cm.serverCert == nil {
		return nil, fmt.Errorf("no server certificate available")
	}
	if time.Now().After(cm.serverCertExpiry) {
		if cm.logger != nil {
			cm.logger.LogError(fmt.Errorf("server certificate expired"), "Server certificate expired",
				"expiry", cm.serverCertExpiry,
				"server_name", hello.ServerName)
		}
		return nil, fmt.Errorf("server certificate expired")
	}

	if cm.reloadCfg != nil && cm.reloadCfg.PreemptiveRenewal > 0 {
		if time.Now().After(cm.serverCertExpiry.Add(-cm.reloadCfg.PreemptiveRenewal)) {
			go cm.triggerReload()
		}
	}

	return cm.serverCert, nil
}

// GetClientCertificate serves tls.Config.GetClientCertificate for
// mutual TLS.
func (cm *CertificateManager) GetClientCertificate() (*tls.Certificate, error) {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	if cm.clientCert == nil {
		return nil, fmt.Errorf("no client certificate available")
	}
	if time.Now().After(cm.clientCertExpiry) {
		if cm.logger != nil {
			cm.logger.LogError(fmt.Errorf("client certificate expired"), "Client certificate expired", "expiry", cm.clientCertExpiry)
		}
		return nil, fmt.Errorf("client certificate expired")
	}
	return cm.clientCert, nil
}

// VerifyPeerCertificate validates the peer chain against the live CA
// pool so a rotated CA takes effect without restart.
func (cm *CertificateManager) VerifyPeerCertificate(rawCerts [][]byte, _ [][]*x509.Certificate) error {
	if len(rawCerts) == 0 {
		return fmt.Errorf("no peer certificates provided")
	}

	cert, err := x509.ParseCertificate(rawCerts[0])
	if err != nil {
		return fmt.Errorf("failed to parse peer certificate: %w", err)
	}

	cm.mu.RLock()
	pool := cm.caCertPool
	cm.mu.RUnlock()
	if pool == nil {
		return fmt.Errorf("no CA certificate pool available")
	}

	if _, err := cert.Verify(x509.VerifyOptions{Roots: pool}); err != nil {
		return fmt.Errorf("peer certificate verification failed: %w", err)
	}
	return nil
}

// AddReloadCallback registers a callback for reload outcomes.
func (cm *CertificateManager) AddReloadCallback(callback ReloadCallback) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.reloadCallbacks = append(cm.reloadCallbacks, callback)
}

// CheckExpiry returns the time until the earliest loaded certificate
// expires.
func (cm *CertificateManager) CheckExpiry() (time.Duration, error) {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	var earliest time.Time
	if !cm.serverCertExpiry.IsZero() {
		earliest = cm.serverCertExpiry
	}
	if !cm.clientCertExpiry.IsZero() && (earliest.IsZero() || cm.clientCertExpiry.Before(earliest)) {
		earliest = cm.clientCertExpiry
	}
	if earliest.IsZero() {
		return 0, fmt.Errorf("no certificates loaded")
	}
	return time.Until(earliest), nil
}

// GetMetrics snapshots the reload counters.
func (cm *CertificateManager) GetMetrics() *CertificateMetrics {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	return &CertificateMetrics{
		ReloadCount:        cm.reloadCount,
		ReloadSuccessCount: cm.reloadSuccessCount,
		ReloadFailureCount: cm.reloadFailureCount,
		LastReloadTime:     cm.lastReloadTime,
		LastReloadSuccess:  cm.lastReloadSuccess,
		LastReloadError:    cm.lastReloadError,
	}
}

// loadCertificates reads the configured material and installs it under
// the write lock so in-flight handshakes see either the old or the new
// set, never a mix.
func (cm *CertificateManager) loadCertificates() error {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	serverCert, expiry, err := cm.loadServerCertificate()
	if err != nil {
		return err
	}

	caPool, err := cm.loadCAPool()
	if err != nil {
		return err
	}

	cm.serverCert = serverCert
	cm.serverCertExpiry = expiry
	cm.caCertPool = caPool
	cm.lastReloadTime = time.Now()

	cm.reloadCount++
	cm.reloadSuccessCount++
	cm.lastReloadSuccess = true
	cm.lastReloadError = ""
	cm.recordReloadMetric(true, nil)

	for _, callback := range cm.reloadCallbacks {
		go callback(true, nil)
	}

	if cm.logger != nil {
		cm.logger.Info("Certificates reloaded successfully",
			"server_cert_expiry", cm.serverCertExpiry,
			"reload_time", cm.lastReloadTime)
	}
	return nil
}

// loadServerCertificate prefers Vault-sourced content over file paths.
func (cm *CertificateManager) loadServerCertificate() (*tls.Certificate, time.Time, error) {
	var cert tls.Certificate
	var err error

	switch {
	case cm.tlsCfg.CertContent != "" && cm.tlsCfg.KeyContent != "":
		cert, err = tls.X509KeyPair([]byte(cm.tlsCfg.CertContent), []byte(cm.tlsCfg.KeyContent))
	case cm.tlsCfg.CertFile != "" && cm.tlsCfg.KeyFile != "":
		cert, err = tls.LoadX509KeyPair(cm.tlsCfg.CertFile, cm.tlsCfg.KeyFile)
	default:
		return nil, time.Time{}, nil
	}
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("failed to load server certificate: %w", err)
	}

	var expiry time.Time
	if len(cert.Certificate) > 0 {
		leaf, err := x509.ParseCertificate(cert.Certificate[0])
		if err != nil {
			return nil, time.Time{}, fmt.Errorf("failed to parse server certificate: %w", err)
		}
		expiry = leaf.NotAfter
	}
	return &cert, expiry, nil
}

// loadCAPool builds the client CA pool for mutual mode.
func (cm *CertificateManager) loadCAPool() (*x509.CertPool, error) {
	if cm.tlsCfg.Mode != "mutual" {
		return nil, nil
	}

	var caCert []byte
	var err error
	if cm.tlsCfg.CAContent != "" {
		caCert = []byte(cm.tlsCfg.CAContent)
	} else if cm.tlsCfg.CAFile != "" {
		caCert, err = os.ReadFile(cm.tlsCfg.CAFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read CA file: %w", err)
		}
	}
	if len(caCert) == 0 {
		return nil, nil
	}

	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(caCert) {
		return nil, fmt.Errorf("failed to parse CA certificate")
	}
	return pool, nil
}

// triggerReload is the watchers' entry point.
func (cm *CertificateManager) triggerReload() {
	if cm.logger != nil {
		cm.logger.Info("Certificate reload triggered")
	}

	if err := cm.loadCertificates(); err != nil {
		cm.mu.Lock()
		cm.reloadCount++
		cm.reloadFailureCount++
		cm.lastReloadSuccess = false
		cm.lastReloadError = err.Error()
		callbacks := make([]ReloadCallback, len(cm.reloadCallbacks))
		copy(callbacks, cm.reloadCallbacks)
		cm.mu.Unlock()

		cm.recordReloadMetric(false, err)

		if cm.logger != nil {
			cm.logger.LogError(err, "Failed to reload certificates")
		}
		for _, callback := range callbacks {
			go callback(false, err)
		}
	}
}

func (cm *CertificateManager) recordReloadMetric(success bool, err error) {
	if cm.om == nil {
		return
	}
	metrics := cm.om.GetMetrics()
	if metrics == nil {
		return
	}

	ctx := context.Background()
	attrs := []attribute.KeyValue{
		attribute.String("cert_type", "server"),
	}
	if success {
		attrs = append(attrs, attribute.String("status", "success"))
	} else {
		errorMsg := ""
		if err != nil {
			errorMsg = err.Error()
		}
		attrs = append(attrs,
			attribute.String("status", "failure"),
			attribute.String("error", errorMsg))
	}
	metrics.CertReloadCount.Add(ctx, 1, metric.WithAttributes(attrs...))

	cm.recordExpiryMetrics()
}

func (cm *CertificateManager) recordExpiryMetrics() {
	if cm.om == nil {
		return
	}
	metrics := cm.om.GetMetrics()
	if metrics == nil {
		return
	}

	ctx := context.Background()
	if !cm.serverCertExpiry.IsZero() {
		metrics.CertExpiryTime.Record(ctx, time.Until(cm.serverCertExpiry).Seconds(),
			metric.WithAttributes(attribute.String("cert_type", "server")))
	}
	if !cm.clientCertExpiry.IsZero() {
		metrics.CertExpiryTime.Record(ctx, time.Until(cm.clientCertExpiry).Seconds(),
			metric.WithAttributes(attribute.String("cert_type", "client")))
	}
}

// startExpiryMonitoring keeps the expiry gauge fresh between reloads.
func (cm *CertificateManager) startExpiryMonitoring() {
	if cm.om == nil {
		return
	}

	go func() {
		ticker := time.NewTicker(1 * time.Minute)
		defer ticker.Stop()

		for range ticker.C {
			cm.mu.RLock()
			cm.recordExpiryMetrics()
			cm.mu.RUnlock()
		}
	}()

	if cm.logger != nil {
		cm.logger.Info("Certificate expiry monitoring started")
	}
}
