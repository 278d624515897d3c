package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"careercoach/internal/errors"

	"github.com/hashicorp/vault/api"
)

// TLS material sources accepted for server.tls.source
const (
	TLSSourceFile  = "file"
	TLSSourceVault = "vault"
)

// VaultConfig locates the TLS material in a Vault KV v2 engine
type VaultConfig struct {
	Address   string `mapstructure:"address"`
	Token     string `mapstructure:"token"`
	TokenFile string `mapstructure:"tokenFile"`
	Namespace string `mapstructure:"namespace"`

	// Path is the KV v2 read path, e.g. "secret/data/careercoach/tls".
	// The secret holds PEM text under "cert", "key" and optionally "ca".
	Path         string        `mapstructure:"path"`
	PollInterval time.Duration `mapstructure:"pollInterval"`
}

// VaultSecret is one version of a KV v2 secret
type VaultSecret struct {
	Data    map[string]any
	Version int64
}

// TLSMaterial is the PEM text of a serving certificate, its key and an
// optional client CA bundle
type TLSMaterial struct {
	CertPEM string
	KeyPEM  string
	CAPEM   string
	Version int64
}

// VaultClient reads KV v2 secrets
type VaultClient struct {
	client *api.Client
	config VaultConfig
	logger *errors.Logger
}

// NewVaultClient connects to Vault and checks that it answers
func NewVaultClient(config VaultConfig, logger *errors.Logger) (*VaultClient, error) {
	if logger == nil {
		logger = errors.Discard()
	}
	logger.Debug("Initializing Vault client",
		"address", config.Address,
		"namespace", config.Namespace,
		"token_file", config.TokenFile,
		"has_token", config.Token != "")

	client, err := createVaultAPIClient(config)
	if err != nil {
		logger.LogError(err, "Failed to create Vault client")
		return nil, err
	}

	token, err := resolveVaultToken(config)
	if err != nil {
		logger.LogError(err, "Vault token is required for the vault TLS source")
		return nil, err
	}
	client.SetToken(token)

	health, err := client.Sys().Health()
	if err != nil {
		logger.LogError(err, "Failed to connect to Vault", "address", config.Address)
		return nil, fmt.Errorf("failed to connect to vault: %w", err)
	}
	logger.Info("Connected to Vault",
		"address", config.Address,
		"version", health.Version,
		"sealed", health.Sealed)

	return &VaultClient{client: client, config: config, logger: logger}, nil
}

func createVaultAPIClient(config VaultConfig) (*api.Client, error) {
	vaultConfig := api.DefaultConfig()
	if config.Address != "" {
		vaultConfig.Address = config.Address
	}

	client, err := api.NewClient(vaultConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create vault client: %w", err)
	}
	if config.Namespace != "" {
		client.SetNamespace(config.Namespace)
	}
	return client, nil
}

// resolveVaultToken prefers the inline token over the token file
func resolveVaultToken(config VaultConfig) (string, error) {
	token := config.Token
	if token == "" && config.TokenFile != "" {
		raw, err := os.ReadFile(config.TokenFile)
		if err != nil {
			return "", fmt.Errorf("failed to read vault token file: %w", err)
		}
		token = strings.TrimSpace(string(raw))
	}
	if token == "" {
		return "", fmt.Errorf("vault token is required (set token or tokenFile)")
	}
	return token, nil
}

// GetSecretV2 reads the current version of a KV v2 secret
func (vc *VaultClient) GetSecretV2(path string) (*VaultSecret, error) {
	if vc == nil {
		return nil, fmt.Errorf("vault client not initialized")
	}
	vc.logger.Debug("Reading secret from Vault", "path", path)

	secret, err := vc.client.Logical().Read(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read secret from %s: %w", path, err)
	}
	if secret == nil || secret.Data == nil {
		return nil, fmt.Errorf("secret not found at path: %s", path)
	}

	data, ok := secret.Data["data"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("secret at %s is not in KVv2 format (missing 'data' field)", path)
	}
	metadata, ok := secret.Data["metadata"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("secret at %s is not in KVv2 format (missing 'metadata' field)", path)
	}
	version, err := parseVersionValue(metadata["version"], path)
	if err != nil {
		return nil, err
	}
	return &VaultSecret{Data: data, Version: version}, nil
}

// GetStringSecret reads one string value of a KV v2 secret
func (vc *VaultClient) GetStringSecret(path, key string) (string, error) {
	secret, err := vc.GetSecretV2(path)
	if err != nil {
		return "", err
	}
	return stringField(secret, path, key, true)
}

// TLSMaterial reads the certificate, key and CA PEM text stored at path
func (vc *VaultClient) TLSMaterial(path string) (*TLSMaterial, error) {
	secret, err := vc.GetSecretV2(path)
	if err != nil {
		return nil, err
	}
	return TLSMaterialFromSecret(secret, path)
}

// TLSMaterialFromSecret pulls the PEM fields out of a secret. "cert" and
// "key" are required; "ca" is optional.
func TLSMaterialFromSecret(secret *VaultSecret, path string) (*TLSMaterial, error) {
	cert, err := stringField(secret, path, "cert", true)
	if err != nil {
		return nil, err
	}
	key, err := stringField(secret, path, "key", true)
	if err != nil {
		return nil, err
	}
	ca, err := stringField(secret, path, "ca", false)
	if err != nil {
		return nil, err
	}
	return &TLSMaterial{CertPEM: cert, KeyPEM: key, CAPEM: ca, Version: secret.Version}, nil
}

func stringField(secret *VaultSecret, path, key string, required bool) (string, error) {
	value, ok := secret.Data[key]
	if !ok {
		if required {
			return "", fmt.Errorf("key '%s' not found in secret %s", key, path)
		}
		return "", nil
	}
	str, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("value for key '%s' is not a string in secret %s", key, path)
	}
	return str, nil
}

// parseVersionValue accepts the JSON number or string forms Vault returns
func parseVersionValue(versionRaw any, path string) (int64, error) {
	switch v := versionRaw.(type) {
	case nil:
		return 0, fmt.Errorf("secret metadata at %s is missing 'version' field", path)
	case int64:
		return v, nil
	case float64:
		return int64(v), nil
	case interface{ Int64() (int64, error) }:
		return v.Int64()
	case string:
		version, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("could not parse secret version at %s: %w", path, err)
		}
		return version, nil
	default:
		return 0, fmt.Errorf("unexpected type for version at %s: %T", path, versionRaw)
	}
}
