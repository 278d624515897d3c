package server

import (
	"crypto/tls"
	"fmt"
	"net/http"

	"careercoach/internal/config"
	"careercoach/internal/observability"
)

// configureTLS starts the certificate manager and attaches a TLS config to
// httpServer unless TLS is disabled
func (s *Server) configureTLS(httpServer *http.Server, om *observability.ObservabilityManager) error {
	if err := s.TLSConfig.Validate(); err != nil {
		return err
	}
	if !s.TLSConfig.Enabled() {
		return nil
	}

	cm := NewCertificateManager(s.TLSConfig, om, s.Logger)
	if s.TLSConfig.FromVault() {
		client, err := config.NewVaultClient(s.TLSConfig.Vault, s.Logger)
		if err != nil {
			return fmt.Errorf("failed to connect to vault for TLS material: %w", err)
		}
		cm.WithVault(client)
	}
	if err := cm.Start(); err != nil {
		return fmt.Errorf("failed to start certificate manager: %w", err)
	}
	s.CertificateManager = cm

	httpServer.TLSConfig = s.buildTLSConfig(cm)
	return nil
}

// buildTLSConfig creates a TLS config that always asks cm for the current
// certificate and client CA pool
func (s *Server) buildTLSConfig(cm *CertificateManager) *tls.Config {
	tlsConfig := &tls.Config{
		MinVersion:     tlsVersion(s.TLSConfig.MinVersion),
		GetCertificate: cm.GetServerCertificate,
		ClientAuth:     tls.NoClientCert,
	}

	if !s.TLSConfig.Mutual() {
		return tlsConfig
	}

	tlsConfig.ClientAuth = clientAuthPolicy(s.TLSConfig.ClientAuthPolicy)
	tlsConfig.ClientCAs = cm.ClientCAs()
	tlsConfig.GetConfigForClient = func(*tls.ClientHelloInfo) (*tls.Config, error) {
		perConn := tlsConfig.Clone()
		perConn.GetConfigForClient = nil
		perConn.ClientCAs = cm.ClientCAs()
		return perConn, nil
	}
	return tlsConfig
}

func tlsVersion(v string) uint16 {
	if v == "1.3" {
		return tls.VersionTLS13
	}
	return tls.VersionTLS12
}

func clientAuthPolicy(policy string) tls.ClientAuthType {
	switch policy {
	case "request":
		return tls.RequestClientCert
	case "verify":
		return tls.VerifyClientCertIfGiven
	default:
		return tls.RequireAndVerifyClientCert
	}
}
