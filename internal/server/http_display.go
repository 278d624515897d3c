package server

import (
	"fmt"

	"careercoach/internal/config"
)

// displayServerInfo shows where the web client listens and how it is configured
func (s *Server) displayServerInfo(addr string, tlsEnabled bool) {
	scheme := "http"
	if tlsEnabled {
		scheme = "https"
	}
	fmt.Printf("Career coach web client on %s://%s\n", scheme, addr)
	fmt.Printf("Resume backend: %s\n", s.AppConfig.Backend.BaseURL)

	s.displayTLSInfo()
	s.displayPages()
	s.displayRequestLimitInfo()
	s.displayRateLimitInfo()
}

func (s *Server) displayTLSInfo() {
	switch s.TLSConfig.Mode {
	case config.TLSModeServer:
		fmt.Println("TLS mode: Server-only (no client certificates required)")
	case config.TLSModeMutual:
		fmt.Println("TLS mode: Mutual (client certificates required)")
	default:
		fmt.Println("TLS mode: Disabled (HTTP only)")
	}
	if s.CertificateManager != nil && s.TLSConfig.WatchFiles {
		fmt.Println("  - Certificate files are reloaded on change")
	}
}

func (s *Server) displayPages() {
	fmt.Println("Available pages:")
	fmt.Println("  GET  /                           - Dashboard")
	fmt.Println("  GET  /resumes                    - Resume list (?q=, ?role=)")
	fmt.Println("  GET  /resumes/new                - New resume form")
	fmt.Println("  GET  /resumes/{id}               - Resume detail")
	fmt.Println("  GET  /resumes/{id}/edit          - Edit resume form")
	fmt.Println("  GET  /resumes/{id}/interview     - Interview questions")
	fmt.Println("  GET  /resumes/{id}/learning-path - Learning path")
	fmt.Println("  GET  /health                     - Health check")
	fmt.Println("  GET  /stats                      - Server statistics")
}

func (s *Server) displayRequestLimitInfo() {
	if s.MaxRequestSize > 0 {
		fmt.Printf("Request size limit: %d bytes (%.1f MB)\n", s.MaxRequestSize, float64(s.MaxRequestSize)/(1024*1024))
	} else {
		fmt.Println("Request size limit: DISABLED")
	}
}

func (s *Server) displayRateLimitInfo() {
	if s.RateLimit != nil && s.RateLimit.Enabled {
		fmt.Printf("Generation rate limiting: ENABLED (%d requests/min, burst: %d)\n",
			s.RateLimit.RequestsPerMin, s.RateLimit.BurstCapacity)
	} else {
		fmt.Println("Generation rate limiting: DISABLED")
	}
}
