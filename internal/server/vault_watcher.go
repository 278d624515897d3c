package server

import (
	"fmt"
	"sync"
	"time"

	"careercoach/internal/config"
	"careercoach/internal/errors"
)

const defaultVaultPollInterval = time.Minute

// VaultSecretReader reads KV v2 secrets
type VaultSecretReader interface {
	GetSecretV2(path string) (*config.VaultSecret, error)
}

// VaultWatcher polls a Vault secret and hands every newer version of the TLS
// material to onChange
type VaultWatcher struct {
	mu sync.RWMutex

	client       VaultSecretReader
	secretPath   string
	pollInterval time.Duration
	onChange     func(*config.TLSMaterial)
	logger       *errors.Logger

	stopChan    chan struct{}
	running     bool
	lastVersion int64
	lastError   string
}

// NewVaultWatcher creates a watcher that treats lastVersion as already applied
func NewVaultWatcher(client VaultSecretReader, secretPath string, pollInterval time.Duration, lastVersion int64, onChange func(*config.TLSMaterial), logger *errors.Logger) *VaultWatcher {
	if pollInterval <= 0 {
		pollInterval = defaultVaultPollInterval
	}
	if logger == nil {
		logger = errors.Discard()
	}
	return &VaultWatcher{
		client:       client,
		secretPath:   secretPath,
		pollInterval: pollInterval,
		onChange:     onChange,
		logger:       logger,
		stopChan:     make(chan struct{}),
		lastVersion:  lastVersion,
	}
}

// Start begins polling
func (vw *VaultWatcher) Start() error {
	vw.mu.Lock()
	defer vw.mu.Unlock()
	if vw.running {
		return fmt.Errorf("vault watcher is already running")
	}
	vw.running = true
	go vw.pollLoop()
	vw.logger.Info("Vault watcher started", "secret_path", vw.secretPath, "poll_interval", vw.pollInterval)
	return nil
}

// Stop ends polling; calling it twice is harmless
func (vw *VaultWatcher) Stop() error {
	vw.mu.Lock()
	defer vw.mu.Unlock()
	if !vw.running {
		return nil
	}
	close(vw.stopChan)
	vw.running = false
	vw.logger.Info("Vault watcher stopped")
	return nil
}

// IsRunning reports whether the watcher is polling
func (vw *VaultWatcher) IsRunning() bool {
	vw.mu.RLock()
	defer vw.mu.RUnlock()
	return vw.running
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

// poll reads the secret once and applies it when its version moved forward
func (vw *VaultWatcher) poll() {
	material, err := vw.checkForUpdates()
	if err != nil {
		vw.logger.LogError(err, "Failed to check Vault for TLS updates", "secret_path", vw.secretPath)
		return
	}
	if material == nil {
		return
	}
	vw.logger.Info("Vault TLS secret changed, triggering reload",
		"secret_path", vw.secretPath, "version", material.Version)
	vw.onChange(material)
}

func (vw *VaultWatcher) checkForUpdates() (*config.TLSMaterial, error) {
	secret, err := vw.client.GetSecretV2(vw.secretPath)
	if err == nil && secret.Version <= vw.version() {
		return nil, nil
	}
	var material *config.TLSMaterial
	if err == nil {
		material, err = config.TLSMaterialFromSecret(secret, vw.secretPath)
	}

	vw.mu.Lock()
	defer vw.mu.Unlock()
	if err != nil {
		vw.lastError = err.Error()
		return nil, err
	}
	vw.lastError = ""
	vw.lastVersion = material.Version
	return material, nil
}

func (vw *VaultWatcher) version() int64 {
	vw.mu.RLock()
	defer vw.mu.RUnlock()
	return vw.lastVersion
}

// Status reports polling state for the health endpoint
func (vw *VaultWatcher) Status() map[string]any {
	vw.mu.RLock()
	defer vw.mu.RUnlock()
	return map[string]any{
		"running":       vw.running,
		"poll_interval": vw.pollInterval.String(),
		"secret_path":   vw.secretPath,
		"last_version":  vw.lastVersion,
		"last_error":    vw.lastError,
	}
}
