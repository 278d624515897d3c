package server

import (
	"context"
	"time"

	"careercoach/internal/config"
	"careercoach/internal/errors"
	"careercoach/internal/views"
)

// Backend is what the web client needs from the resume backend.
// *api.Client satisfies it.
type Backend interface {
	views.ResumeService
	Ping(ctx context.Context) error
	BreakerStats() map[string]any
	GenerationHealthy() bool
}

// Server holds configuration for the web client
type Server struct {
	Host    string
	Port    string
	Version string

	// Full application configuration
	AppConfig *config.Config

	Backend Backend

	// TLS Configuration
	TLSConfig          config.TLSConfig
	CertificateManager *CertificateManager

	// Timeout configurations
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	// Request size limit
	MaxRequestSize int64

	// Rate limiting, applied to generation pages
	RateLimit   *config.RateLimitConfig
	RateLimiter *RateLimiter

	Logger *errors.Logger

	pages  *pageRenderer
	drafts *views.SaveGate
}

// NewServer creates a web client server from the application configuration
func NewServer(appCfg *config.Config, backend Backend, version string, logger *errors.Logger) (*Server, error) {
	if logger == nil {
		logger = errors.Discard()
	}

	pages, err := newPageRenderer()
	if err != nil {
		return nil, errors.NewInternalError("TEMPLATE_PARSE", "failed to parse page templates", err)
	}

	cfg := appCfg.Server
	rateLimit := cfg.RateLimit

	var rateLimiter *RateLimiter
	if rateLimit.Enabled {
		rateLimiter = NewRateLimiter(rateLimit.RequestsPerMin, rateLimit.BurstCapacity, logger)
	}

	return &Server{
		Host:           cfg.Host,
		Port:           cfg.Port,
		Version:        version,
		AppConfig:      appCfg,
		Backend:        backend,
		TLSConfig:      cfg.TLS,
		ReadTimeout:    cfg.ReadTimeout,
		WriteTimeout:   cfg.WriteTimeout,
		IdleTimeout:    cfg.IdleTimeout,
		MaxRequestSize: cfg.MaxRequestSize,
		RateLimit:      &rateLimit,
		RateLimiter:    rateLimiter,
		Logger:         logger,
		pages:          pages,
		drafts:         views.NewSaveGate(),
	}, nil
}
