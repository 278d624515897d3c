package server

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"

	"careercoach/internal/config"
	"careercoach/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeSelfSigned writes a self-signed certificate and key valid for validFor
func writeSelfSigned(t *testing.T, dir, commonName string, validFor time.Duration) (certFile, keyFile string) {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	tmpl := &x509.Certificate{
		SerialNumber:          big.NewInt(time.Now().UnixNano()),
		Subject:               pkix.Name{CommonName: commonName},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(validFor),
		KeyUsage:              x509.KeyUsageDigitalSignature | x509.KeyUsageCertSign,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth, x509.ExtKeyUsageClientAuth},
		BasicConstraintsValid: true,
		IsCA:                  true,
		DNSNames:              []string{"localhost"},
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	require.NoError(t, err)
	keyDER, err := x509.MarshalECPrivateKey(key)
	require.NoError(t, err)

	certFile = filepath.Join(dir, "server.crt")
	keyFile = filepath.Join(dir, "server.key")
	require.NoError(t, os.WriteFile(certFile, pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der}), 0o600))
	require.NoError(t, os.WriteFile(keyFile, pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: keyDER}), 0o600))
	return certFile, keyFile
}

func servedCommonName(t *testing.T, cm *CertificateManager) string {
	t.Helper()
	cert, err := cm.GetServerCertificate(&tls.ClientHelloInfo{ServerName: "localhost"})
	require.NoError(t, err)
	return cert.Leaf.Subject.CommonName
}

func TestCertificateManagerReload(t *testing.T) {
	dir := t.TempDir()
	certFile, keyFile := writeSelfSigned(t, dir, "first", 30*24*time.Hour)

	cm := NewCertificateManager(config.TLSConfig{Mode: "server", CertFile: certFile, KeyFile: keyFile}, nil, errors.Discard())
	require.NoError(t, cm.Start())
	t.Cleanup(func() { _ = cm.Stop() })

	assert.Equal(t, "first", servedCommonName(t, cm))
	assert.Equal(t, "ok", cm.Status()["status"])

	writeSelfSigned(t, dir, "second", 12*time.Hour)
	require.NoError(t, cm.Reload())

	assert.Equal(t, "second", servedCommonName(t, cm))
	status := cm.Status()
	assert.Equal(t, "critical", status["status"])
	assert.Equal(t, false, status["healthy"])
	assert.EqualValues(t, 2, cm.GetMetrics().ReloadCount)
}

func TestCertificateManagerKeepsCertOnFailedReload(t *testing.T) {
	dir := t.TempDir()
	certFile, keyFile := writeSelfSigned(t, dir, "good", 30*24*time.Hour)

	cm := NewCertificateManager(config.TLSConfig{Mode: "server", CertFile: certFile, KeyFile: keyFile}, nil, errors.Discard())
	require.NoError(t, cm.Start())
	t.Cleanup(func() { _ = cm.Stop() })

	require.NoError(t, os.WriteFile(certFile, []byte("not a certificate"), 0o600))
	assert.Error(t, cm.Reload())

	assert.Equal(t, "good", servedCommonName(t, cm))
	metrics := cm.GetMetrics()
	assert.EqualValues(t, 1, metrics.ReloadFailureCount)
	assert.False(t, metrics.LastReloadSuccess)
	assert.NotEmpty(t, metrics.LastReloadError)
}

func TestCertificateManagerMissingFiles(t *testing.T) {
	cm := NewCertificateManager(config.TLSConfig{Mode: "server", CertFile: "/nope.crt", KeyFile: "/nope.key"}, nil, errors.Discard())

	assert.Error(t, cm.Start())
	assert.Equal(t, "missing", cm.Status()["status"])
}

func TestCertificateManagerMutualLoadsCA(t *testing.T) {
	dir := t.TempDir()
	certFile, keyFile := writeSelfSigned(t, dir, "mutual", 30*24*time.Hour)

	cm := NewCertificateManager(config.TLSConfig{
		Mode:     "mutual",
		CertFile: certFile,
		KeyFile:  keyFile,
		CAFile:   certFile,
	}, nil, errors.Discard())
	require.NoError(t, cm.Start())
	t.Cleanup(func() { _ = cm.Stop() })

	assert.NotNil(t, cm.ClientCAs())
}

func TestCertWatcherTriggersReload(t *testing.T) {
	dir := t.TempDir()
	certFile, keyFile := writeSelfSigned(t, dir, "before", 30*24*time.Hour)

	cm := NewCertificateManager(config.TLSConfig{
		Mode:          "server",
		CertFile:      certFile,
		KeyFile:       keyFile,
		WatchFiles:    true,
		DebounceDelay: 20 * time.Millisecond,
	}, nil, errors.Discard())
	require.NoError(t, cm.Start())
	t.Cleanup(func() { _ = cm.Stop() })

	// Make sure the new files get a later modification time
	time.Sleep(20 * time.Millisecond)
	writeSelfSigned(t, dir, "after", 30*24*time.Hour)

	assert.Eventually(t, func() bool {
		cert, err := cm.GetServerCertificate(&tls.ClientHelloInfo{})
		return err == nil && cert.Leaf.Subject.CommonName == "after"
	}, 5*time.Second, 20*time.Millisecond)
}

func TestCertWatcherStopIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	certFile, keyFile := writeSelfSigned(t, dir, "x", time.Hour)

	cw, err := NewCertWatcher([]string{certFile, keyFile}, 0, func() {}, nil)
	require.NoError(t, err)
	require.NoError(t, cw.Start())
	assert.True(t, cw.IsRunning())
	assert.Error(t, cw.Start())

	require.NoError(t, cw.Stop())
	require.NoError(t, cw.Stop())
	assert.False(t, cw.IsRunning())
	assert.Equal(t, []string{certFile, keyFile}, cw.WatchedFiles())
}

func TestBuildTLSConfig(t *testing.T) {
	dir := t.TempDir()
	certFile, keyFile := writeSelfSigned(t, dir, "tls", 30*24*time.Hour)

	s := newTestServer(t, newFakeBackend(), func(c *config.Config) {
		c.Server.TLS = config.TLSConfig{
			Mode:             "mutual",
			CertFile:         certFile,
			KeyFile:          keyFile,
			CAFile:           certFile,
			MinVersion:       "1.3",
			ClientAuthPolicy: "verify",
		}
	})
	httpServer := s.setupHTTPServer(nil)
	require.NoError(t, s.configureTLS(httpServer, nil))
	require.NotNil(t, s.CertificateManager)

	cfg := httpServer.TLSConfig
	assert.Equal(t, uint16(tls.VersionTLS13), cfg.MinVersion)
	assert.Equal(t, tls.VerifyClientCertIfGiven, cfg.ClientAuth)

	perConn, err := cfg.GetConfigForClient(&tls.ClientHelloInfo{})
	require.NoError(t, err)
	assert.NotNil(t, perConn.ClientCAs)
	assert.Nil(t, perConn.GetConfigForClient)
}

func TestConfigureTLSDisabled(t *testing.T) {
	s := newTestServer(t, newFakeBackend())
	httpServer := s.setupHTTPServer(nil)

	require.NoError(t, s.configureTLS(httpServer, nil))
	assert.Nil(t, httpServer.TLSConfig)
	assert.Nil(t, s.CertificateManager)
}
