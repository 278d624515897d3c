package server

import (
	"cmp"
	"context"
	"crypto/tls"
	"crypto/x509"
	stderrors "errors"
	"fmt"
	"os"
	"sync"
	"time"

	"careercoach/internal/config"
	"careercoach/internal/errors"
	"careercoach/internal/observability"
)

const (
	expiryCritical = 24 * time.Hour
	expiryWarning  = 7 * 24 * time.Hour
)

// CertificateManager holds the serving certificate and the client CA pool.
// Both come from PEM files or from a Vault secret and are reloaded when the
// source changes.
type CertificateManager struct {
	mu sync.RWMutex

	serverCert *tls.Certificate
	caCertPool *x509.CertPool
	expiry     time.Time
	version    int64

	cfg          config.TLSConfig
	watcher      *CertWatcher
	vault        VaultSecretReader
	vaultWatcher *VaultWatcher
	om           *observability.ObservabilityManager
	logger       *errors.Logger

	stopOnce sync.Once
	done     chan struct{}

	reloadCount        int64
	reloadFailureCount int64
	lastReloadTime     time.Time
	lastReloadError    string
}

// CertificateMetrics is a snapshot of reload bookkeeping
type CertificateMetrics struct {
	ReloadCount        int64
	ReloadFailureCount int64
	LastReloadTime     time.Time
	LastReloadSuccess  bool
	LastReloadError    string
}

// NewCertificateManager creates a manager for the source named in cfg
func NewCertificateManager(cfg config.TLSConfig, om *observability.ObservabilityManager, logger *errors.Logger) *CertificateManager {
	if logger == nil {
		logger = errors.Discard()
	}
	return &CertificateManager{
		cfg:    cfg,
		om:     om,
		logger: logger,
		done:   make(chan struct{}),
	}
}

// WithVault sets the client used when the TLS source is vault
func (cm *CertificateManager) WithVault(client VaultSecretReader) *CertificateManager {
	cm.vault = client
	return cm
}

// Start loads the certificates and, when configured, watches them for changes
func (cm *CertificateManager) Start() error {
	if err := cm.Reload(); err != nil {
		return fmt.Errorf("failed to load initial certificates: %w", err)
	}

	go cm.monitorExpiry(time.Minute)

	if cm.cfg.FromVault() {
		cm.mu.RLock()
		applied := cm.version
		cm.mu.RUnlock()
		watcher := NewVaultWatcher(cm.vault, cm.cfg.Vault.Path, cm.cfg.Vault.PollInterval, applied, cm.applyWatched, cm.logger)
		if err := watcher.Start(); err != nil {
			return fmt.Errorf("failed to start vault watcher: %w", err)
		}
		cm.vaultWatcher = watcher
		return nil
	}

	if !cm.cfg.WatchFiles {
		return nil
	}

	watcher, err := NewCertWatcher(cm.watchedFiles(), cm.cfg.DebounceDelay, cm.triggerReload, cm.logger)
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := watcher.Start(); err != nil {
		return fmt.Errorf("failed to start file watcher: %w", err)
	}
	cm.watcher = watcher
	return nil
}

// Stop ends file watching and expiry monitoring
func (cm *CertificateManager) Stop() error {
	var err error
	cm.stopOnce.Do(func() {
		close(cm.done)
		if cm.watcher != nil {
			err = cm.watcher.Stop()
		}
		if cm.vaultWatcher != nil {
			err = stderrors.Join(err, cm.vaultWatcher.Stop())
		}
		cm.logger.Info("Certificate manager stopped")
	})
	return err
}

// GetServerCertificate serves the current certificate to TLS handshakes
func (cm *CertificateManager) GetServerCertificate(hello *tls.ClientHelloInfo) (*tls.Certificate, error) {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	if cm.serverCert == nil {
		return nil, fmt.Errorf("no server certificate available")
	}
	if !cm.expiry.IsZero() && time.Now().After(cm.expiry) {
		cm.logger.Warn("Serving expired certificate",
			"expiry", cm.expiry,
			"server_name", hello.ServerName)
	}
	return cm.serverCert, nil
}

// ClientCAs returns the pool used to verify client certificates
func (cm *CertificateManager) ClientCAs() *x509.CertPool {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.caCertPool
}

// Reload reads the certificates from their source again. The previous
// certificates stay in place when the new ones cannot be loaded.
func (cm *CertificateManager) Reload() error {
	if cm.cfg.FromVault() {
		material, err := cm.readVault()
		if err != nil {
			return cm.install(nil, time.Time{}, nil, 0, err)
		}
		return cm.ApplyMaterial(material)
	}

	cert, expiry, err := loadKeyPair(cm.cfg.CertFile, cm.cfg.KeyFile)
	var pool *x509.CertPool
	if err == nil && cm.cfg.Mutual() {
		pool, err = loadCAPool(cm.cfg.CAFile)
	}
	return cm.install(cert, expiry, pool, 0, err)
}

// ApplyMaterial installs PEM text read from Vault
func (cm *CertificateManager) ApplyMaterial(m *config.TLSMaterial) error {
	cert, expiry, err := parseKeyPair([]byte(m.CertPEM), []byte(m.KeyPEM))
	var pool *x509.CertPool
	if err == nil && cm.cfg.Mutual() {
		pool, err = parseCAPool([]byte(m.CAPEM))
	}
	return cm.install(cert, expiry, pool, m.Version, err)
}

func (cm *CertificateManager) readVault() (*config.TLSMaterial, error) {
	if cm.vault == nil {
		return nil, fmt.Errorf("vault TLS source has no vault client")
	}
	secret, err := cm.vault.GetSecretV2(cm.cfg.Vault.Path)
	if err != nil {
		return nil, err
	}
	return config.TLSMaterialFromSecret(secret, cm.cfg.Vault.Path)
}

// install swaps in freshly loaded material, or records why loading failed
func (cm *CertificateManager) install(cert *tls.Certificate, expiry time.Time, pool *x509.CertPool, version int64, err error) error {
	cm.mu.Lock()
	cm.reloadCount++
	cm.lastReloadTime = time.Now()
	if err != nil {
		cm.reloadFailureCount++
		cm.lastReloadError = err.Error()
	} else {
		cm.serverCert = cert
		cm.expiry = expiry
		cm.version = version
		if pool != nil {
			cm.caCertPool = pool
		}
		cm.lastReloadError = ""
	}
	cm.mu.Unlock()

	cm.om.RecordCertReload(context.Background(), err == nil)
	if err != nil {
		return err
	}

	cm.om.RecordCertExpiry(context.Background(), time.Until(expiry))
	if cm.cfg.FromVault() {
		cm.logger.Info("Certificates loaded",
			"source", config.TLSSourceVault,
			"secret_path", cm.cfg.Vault.Path,
			"version", version,
			"expiry", expiry)
		return nil
	}
	cm.logger.Info("Certificates loaded",
		"cert_file", cm.cfg.CertFile,
		"expiry", expiry)
	return nil
}

// CheckExpiry returns the time left before the serving certificate expires
func (cm *CertificateManager) CheckExpiry() (time.Duration, error) {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	if cm.expiry.IsZero() {
		return 0, fmt.Errorf("no certificates loaded")
	}
	return time.Until(cm.expiry), nil
}

// GetMetrics returns reload bookkeeping
func (cm *CertificateManager) GetMetrics() CertificateMetrics {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	return CertificateMetrics{
		ReloadCount:        cm.reloadCount,
		ReloadFailureCount: cm.reloadFailureCount,
		LastReloadTime:     cm.lastReloadTime,
		LastReloadSuccess:  cm.lastReloadError == "",
		LastReloadError:    cm.lastReloadError,
	}
}

// Status summarizes certificate health for the health endpoint
func (cm *CertificateManager) Status() map[string]any {
	status := map[string]any{}

	remaining, err := cm.CheckExpiry()
	switch {
	case err != nil:
		status["healthy"] = false
		status["status"] = "missing"
		status["error"] = err.Error()
	case remaining <= 0:
		status["healthy"] = false
		status["status"] = "expired"
	case remaining <= expiryCritical:
		status["healthy"] = false
		status["status"] = "critical"
	case remaining <= expiryWarning:
		status["healthy"] = true
		status["status"] = "warning"
	default:
		status["healthy"] = true
		status["status"] = "ok"
	}
	if err == nil {
		status["time_to_expiry_hours"] = int(remaining.Hours())
	}

	metrics := cm.GetMetrics()
	status["source"] = cmp.Or(cm.cfg.Source, config.TLSSourceFile)
	if cm.vaultWatcher != nil {
		status["vault"] = cm.vaultWatcher.Status()
	}
	status["reload"] = map[string]any{
		"watching":      cm.watching(),
		"count":         metrics.ReloadCount,
		"failure_count": metrics.ReloadFailureCount,
		"last_time":     metrics.LastReloadTime,
		"last_error":    metrics.LastReloadError,
	}
	return status
}

func (cm *CertificateManager) watching() bool {
	if cm.vaultWatcher != nil {
		return cm.vaultWatcher.IsRunning()
	}
	return cm.watcher != nil && cm.watcher.IsRunning()
}

func (cm *CertificateManager) applyWatched(m *config.TLSMaterial) {
	if err := cm.ApplyMaterial(m); err != nil {
		cm.logger.LogError(err, "Failed to apply certificates from Vault", "version", m.Version)
	}
}

func (cm *CertificateManager) triggerReload() {
	cm.logger.Info("Certificate reload triggered by file watcher")
	if err := cm.Reload(); err != nil {
		cm.logger.LogError(err, "Failed to reload certificates")
	}
}

func (cm *CertificateManager) monitorExpiry(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if remaining, err := cm.CheckExpiry(); err == nil {
				cm.om.RecordCertExpiry(context.Background(), remaining)
			}
		case <-cm.done:
			return
		}
	}
}

func (cm *CertificateManager) watchedFiles() []string {
	files := []string{cm.cfg.CertFile, cm.cfg.KeyFile}
	if cm.cfg.Mutual() && cm.cfg.CAFile != "" {
		files = append(files, cm.cfg.CAFile)
	}
	return files
}

// loadKeyPair loads a PEM certificate and key and reports the leaf expiry
func loadKeyPair(certFile, keyFile string) (*tls.Certificate, time.Time, error) {
	certPEM, err := os.ReadFile(certFile)
	if err == nil {
		var keyPEM []byte
		keyPEM, err = os.ReadFile(keyFile)
		if err == nil {
			return parseKeyPair(certPEM, keyPEM)
		}
	}
	return nil, time.Time{}, fmt.Errorf("failed to load server cert/key from files: %w", err)
}

// parseKeyPair decodes a PEM certificate and key and reports the leaf expiry
func parseKeyPair(certPEM, keyPEM []byte) (*tls.Certificate, time.Time, error) {
	cert, err := tls.X509KeyPair(certPEM, keyPEM)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("failed to parse server cert/key: %w", err)
	}
	if len(cert.Certificate) == 0 {
		return &cert, time.Time{}, nil
	}
	leaf, err := x509.ParseCertificate(cert.Certificate[0])
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("failed to parse server certificate: %w", err)
	}
	cert.Leaf = leaf
	return &cert, leaf.NotAfter, nil
}

// loadCAPool reads a PEM bundle into a certificate pool
func loadCAPool(caFile string) (*x509.CertPool, error) {
	pem, err := os.ReadFile(caFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read CA file: %w", err)
	}
	return parseCAPool(pem)
}

func parseCAPool(pem []byte) (*x509.CertPool, error) {
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(pem) {
		return nil, fmt.Errorf("failed to parse CA certificate")
	}
	return pool, nil
}
