package config

import (
	"cmp"
	"log"
	"os"
	"slices"
	"strings"
)

const envPrefix = "CAREERCOACH_"

// applyFallbacks normalises values that viper cannot default on its own
func (c *Config) applyFallbacks() {
	c.Backend.BaseURL = strings.TrimRight(strings.TrimSpace(c.Backend.BaseURL), "/")
	c.App.LogLevel = strings.ToLower(c.App.LogLevel)

	tls := &c.Server.TLS
	tls.Mode = cmp.Or(strings.ToLower(tls.Mode), TLSModeDisabled)
	if tls.Mutual() {
		tls.ClientAuthPolicy = cmp.Or(tls.ClientAuthPolicy, "require")
	}
	if tls.Enabled() {
		tls.MinVersion = cmp.Or(tls.MinVersion, "1.2")
	}

	if c.Observability.ServiceInstance == "" {
		c.Observability.ServiceInstance = c.Observability.ServiceName + "-" + hostnameOr("1")
	}
}

func hostnameOr(fallback string) string {
	if h, err := os.Hostname(); err == nil && h != "" {
		return h
	}
	return fallback
}

// overridingEnv lists the CAREERCOACH_* variables present in the environment
func overridingEnv() []string {
	var names []string
	for _, kv := range os.Environ() {
		name, _, _ := strings.Cut(kv, "=")
		if strings.HasPrefix(name, envPrefix) {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return names
}

// logConfigurationSources records where the effective settings came from.
// Only variable names are logged since values may carry credentials.
func (c *Config) logConfigurationSources(configFileUsed string) {
	log.Printf("[CONFIG] Config file: %s", cmp.Or(configFileUsed, "none (defaults)"))

	if env := overridingEnv(); len(env) > 0 {
		log.Printf("[CONFIG] Environment overrides: %s", strings.Join(env, ", "))
	}

	log.Printf("[CONFIG] Backend %s (timeout %s, breaker %t)",
		c.Backend.BaseURL, c.Backend.Timeout, c.Backend.CircuitBreaker.Enabled)
	log.Printf("[CONFIG] Web client %s:%s tls=%s log=%s observability=%t",
		c.Server.Host, c.Server.Port, c.Server.TLS.Mode, c.App.LogLevel, c.Observability.Enabled)
}
