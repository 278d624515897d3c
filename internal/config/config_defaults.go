package config

import (
	"time"

	"github.com/spf13/viper"
)

// setDefaults sets the default configuration values
func setDefaults(v *viper.Viper) {
	// Backend
	v.SetDefault("backend.baseURL", "http://localhost:8081/api")
	v.SetDefault("backend.timeout", 90*time.Second) // Generation endpoints are slow
	v.SetDefault("backend.userAgent", "careercoach")

	v.SetDefault("backend.circuitBreaker.enabled", false)
	v.SetDefault("backend.circuitBreaker.maxRequests", 3)
	v.SetDefault("backend.circuitBreaker.interval", 60*time.Second)
	v.SetDefault("backend.circuitBreaker.timeout", 60*time.Second)
	v.SetDefault("backend.circuitBreaker.minRequests", 3)
	v.SetDefault("backend.circuitBreaker.failureThreshold", 0.6)

	// Server
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", "3000")
	v.SetDefault("server.readTimeout", 30*time.Second)
	v.SetDefault("server.writeTimeout", 120*time.Second) // Must outlive a generation call
	v.SetDefault("server.idleTimeout", 120*time.Second)
	v.SetDefault("server.maxRequestSize", 1024*1024) // 1MB

	v.SetDefault("server.tls.mode", "disabled") // disabled, server, mutual
	v.SetDefault("server.tls.certFile", "")
	v.SetDefault("server.tls.keyFile", "")
	v.SetDefault("server.tls.caFile", "")
	v.SetDefault("server.tls.minVersion", "1.2")
	v.SetDefault("server.tls.clientAuthPolicy", "require")
	v.SetDefault("server.tls.watchFiles", true)
	v.SetDefault("server.tls.debounceDelay", time.Second)
	v.SetDefault("server.tls.source", "file") // file, vault
	v.SetDefault("server.tls.vault.address", "")
	v.SetDefault("server.tls.vault.token", "")
	v.SetDefault("server.tls.vault.tokenFile", "")
	v.SetDefault("server.tls.vault.namespace", "")
	v.SetDefault("server.tls.vault.path", "")
	v.SetDefault("server.tls.vault.pollInterval", time.Minute)

	v.SetDefault("server.rateLimit.enabled", true)
	v.SetDefault("server.rateLimit.requestsPerMin", 10)
	v.SetDefault("server.rateLimit.burstCapacity", 3)

	// App
	v.SetDefault("app.logLevel", "info")
	v.SetDefault("app.defaultFormat", "text")
	v.SetDefault("app.supportedFormats", []string{"json", "text", "markdown"})
	v.SetDefault("app.maxFileSize", 1024*1024) // 1MB

	// Observability
	v.SetDefault("observability.enabled", false)
	v.SetDefault("observability.serviceName", "careercoach")
	v.SetDefault("observability.serviceVersion", "")  // Falls back to the build version
	v.SetDefault("observability.serviceInstance", "") // Generated from the hostname
	v.SetDefault("observability.consoleOutput", false)
	v.SetDefault("observability.sampleRate", 1.0)
	v.SetDefault("observability.metrics.enabled", true)
	v.SetDefault("observability.metrics.collectionInterval", 15*time.Second)
	v.SetDefault("observability.customMetrics.backendCalls", true)
	v.SetDefault("observability.customMetrics.generation", true)
	v.SetDefault("observability.customMetrics.resumeChanges", true)
	v.SetDefault("observability.customMetrics.rateLimitHits", true)
	v.SetDefault("observability.customMetrics.trackDurations", true)
	v.SetDefault("observability.console.prettyPrint", true)
	v.SetDefault("observability.prometheus.enabled", true)
	v.SetDefault("observability.prometheus.endpoint", "/metrics")
	v.SetDefault("observability.prometheus.port", "9090")
	v.SetDefault("observability.otlp.enabled", false)
	v.SetDefault("observability.otlp.endpoint", "http://localhost:4318")
	v.SetDefault("observability.otlp.insecure", true)
	v.SetDefault("observability.otlp.headers", map[string]string{})
	v.SetDefault("observability.healthCheck.timeout", 5*time.Second)
}
