package config

import (
	"errors"
	"fmt"
	"slices"
)

// TLS modes accepted for server.tls.mode
const (
	TLSModeDisabled = "disabled"
	TLSModeServer   = "server"
	TLSModeMutual   = "mutual"
)

var (
	tlsModes          = []string{TLSModeDisabled, TLSModeServer, TLSModeMutual}
	clientAuthChoices = []string{"require", "request", "verify"}
	tlsVersions       = []string{"1.2", "1.3"}
	tlsSources        = []string{TLSSourceFile, TLSSourceVault}
)

// Enabled reports whether the web client serves HTTPS
func (t TLSConfig) Enabled() bool {
	return t.Mode == TLSModeServer || t.Mode == TLSModeMutual
}

// Mutual reports whether client certificates are checked
func (t TLSConfig) Mutual() bool {
	return t.Mode == TLSModeMutual
}

// FromVault reports whether the TLS material is read from Vault
func (t TLSConfig) FromVault() bool {
	return t.Source == TLSSourceVault
}

// Validate reports every problem with the TLS settings at once
func (t TLSConfig) Validate() error {
	var errs []error

	switch {
	case t.Mode == "" || t.Mode == TLSModeDisabled:
		return nil
	case !slices.Contains(tlsModes, t.Mode):
		return fmt.Errorf("invalid TLS mode: %s (must be one of %v)", t.Mode, tlsModes)
	}

	switch {
	case t.Source != "" && !slices.Contains(tlsSources, t.Source):
		errs = append(errs, fmt.Errorf("invalid TLS source: %s (must be one of %v)", t.Source, tlsSources))
	case t.FromVault():
		if t.Vault.Path == "" {
			errs = append(errs, errors.New("vault path is required for the vault TLS source"))
		}
		if t.Vault.PollInterval < 0 {
			errs = append(errs, errors.New("vault pollInterval cannot be negative"))
		}
	case t.CertFile == "" || t.KeyFile == "":
		errs = append(errs, fmt.Errorf("TLS certificate and key files are required for %s mode", t.Mode))
	}
	if t.Mutual() {
		if t.CAFile == "" && !t.FromVault() {
			errs = append(errs, errors.New("CA certificate is required for mutual TLS mode (set caFile)"))
		}
		if t.ClientAuthPolicy != "" && !slices.Contains(clientAuthChoices, t.ClientAuthPolicy) {
			errs = append(errs, fmt.Errorf("invalid client auth policy: %s (must be one of %v)", t.ClientAuthPolicy, clientAuthChoices))
		}
	}
	if t.MinVersion != "" && !slices.Contains(tlsVersions, t.MinVersion) {
		errs = append(errs, fmt.Errorf("invalid TLS minVersion: %s (must be one of %v)", t.MinVersion, tlsVersions))
	}

	return errors.Join(errs...)
}

// ValidateTLSConfig validates the web client's TLS settings
func (c *Config) ValidateTLSConfig() error {
	return c.Server.TLS.Validate()
}
