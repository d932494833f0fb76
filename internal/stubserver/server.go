package stubserver

import (
	"time"

	"github.com/ayushhunt/jobhelp-sub000/internal/config"
	jobhelpErrors "github.com/ayushhunt/jobhelp-sub000/internal/errors"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// Server is the built-in research backend used for development and
// testing against the exact wire contract of the production service
type Server struct {
	Host    string
	Port    string
	Version string

	// Full application configuration
	AppConfig *config.Config

	// TLS Configuration
	TLSConfig config.TLSConfig

	// Certificate hot reload
	CertWatcher *CertWatcher

	// API Authentication
	APIKeys map[string]bool

	// Timeout configurations
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	// Request size limit
	MaxRequestSize int64

	// Rate limiting
	RateLimit   *config.RateLimitConfig
	RateLimiter *RateLimiter

	// Simulated research pipeline
	Registry *JobRegistry

	// Logger
	Logger *jobhelpErrors.Logger
}

// NewServer creates a new Server instance from the application config
func NewServer(appCfg *config.Config, version string, logger *jobhelpErrors.Logger) (*Server, error) {
	serverCfg := appCfg.Server

	// Convert API keys slice to map for O(1) lookup
	apiKeyMap := make(map[string]bool)
	for _, key := range serverCfg.APIKeys {
		if key != "" {
			apiKeyMap[key] = true
		}
	}

	var rateLimiter *RateLimiter
	if serverCfg.RateLimit.Enabled {
		rateLimiter = NewRateLimiter(
			serverCfg.RateLimit.RequestsPerMin,
			serverCfg.RateLimit.BurstCapacity,
			serverCfg.RateLimit.Window,
			logger,
		)
	}

	insights, err := NewInsightsGenerator(appCfg.Insights, logger)
	if err != nil {
		return nil, err
	}

	rateLimit := serverCfg.RateLimit
	return &Server{
		Host:           serverCfg.Host,
		Port:           serverCfg.Port,
		Version:        version,
		AppConfig:      appCfg,
		TLSConfig:      serverCfg.TLS,
		APIKeys:        apiKeyMap,
		ReadTimeout:    serverCfg.ReadTimeout,
		WriteTimeout:   serverCfg.WriteTimeout,
		IdleTimeout:    serverCfg.IdleTimeout,
		MaxRequestSize: appCfg.App.MaxRequestSize,
		RateLimit:      &rateLimit,
		RateLimiter:    rateLimiter,
		Registry:       NewJobRegistry(insights, logger),
		Logger:         logger,
	}, nil
}
