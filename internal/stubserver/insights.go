package stubserver

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math"
	"math/big"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"
	"google.golang.org/api/googleapi"
	"google.golang.org/genai"

	"github.com/ayushhunt/jobhelp-sub000/internal/config"
	appErrors "github.com/ayushhunt/jobhelp-sub000/internal/errors"
	"github.com/ayushhunt/jobhelp-sub000/internal/types"
)

// InsightsGenerator produces executive summaries for the ai_analysis
// research source using the Gemini API
type InsightsGenerator struct {
	client     *genai.Client
	model      string
	maxRetries int
	timeout    time.Duration
	breaker    *gobreaker.CircuitBreaker[*genai.GenerateContentResponse]
	logger     *appErrors.Logger
}

// NewInsightsGenerator creates a generator, or nil when insights are
// disabled or no API key is configured. A nil generator is valid: the
// ai_analysis source falls back to canned output.
func NewInsightsGenerator(cfg config.InsightsConfig, logger *appErrors.Logger) (*InsightsGenerator, error) {
	if !cfg.Enabled || cfg.APIKey == "" {
		return nil, nil
	}

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey: cfg.APIKey,
	})
	if err != nil {
		return nil, appErrors.NewInternalError(appErrors.ErrCodeInsightsFailed,
			"Failed to create Gemini client", err)
	}

	g := &InsightsGenerator{
		client:     client,
		model:      cfg.Model,
		maxRetries: cfg.MaxRetries,
		timeout:    cfg.Timeout,
		logger:     logger,
	}

	if cfg.CircuitBreaker.Enabled {
		settings := gobreaker.Settings{
			Name:        "insights",
			MaxRequests: cfg.CircuitBreaker.MaxRequests,
			Interval:    cfg.CircuitBreaker.Interval,
			Timeout:     cfg.CircuitBreaker.Timeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				if counts.Requests < cfg.CircuitBreaker.MinRequests {
					return false
				}
				failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
				return failureRatio >= cfg.CircuitBreaker.FailureThreshold
			},
			OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
				if logger != nil {
					logger.Warn("Circuit breaker state changed",
						"breaker", name,
						"from", from.String(),
						"to", to.String())
				}
			},
		}
		g.breaker = gobreaker.NewCircuitBreaker[*genai.GenerateContentResponse](settings)
	}

	return g, nil
}

// ExecutiveSummary generates a short executive summary for a research
// request
func (g *InsightsGenerator) ExecutiveSummary(ctx context.Context, req types.CompanyResearchRequest) (string, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	prompt := g.buildPrompt(req)

	call := func() (*genai.GenerateContentResponse, error) {
		return g.executeWithRetry(ctx, func() (*genai.GenerateContentResponse, error) {
			return g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), nil)
		})
	}

	var result *genai.GenerateContentResponse
	var err error
	if g.breaker != nil {
		result, err = g.breaker.Execute(call)
	} else {
		result, err = call()
	}
	if err != nil {
		return "", appErrors.NewInternalError(appErrors.ErrCodeInsightsFailed,
			"Insights generation failed", err)
	}

	summary := strings.TrimSpace(result.Text())
	if summary == "" {
		return "", appErrors.NewInternalError(appErrors.ErrCodeInsightsFailed,
			"Insights generation returned empty output", nil)
	}
	return summary, nil
}

func (g *InsightsGenerator) buildPrompt(req types.CompanyResearchRequest) string {
	var b strings.Builder
	b.WriteString("Write a short executive summary (3-4 sentences) assessing the authenticity of a company ")
	b.WriteString("for a job seeker researching a potential employer.\n")
	fmt.Fprintf(&b, "Company name: %s\n", req.CompanyName)
	if req.CompanyDomain != "" {
		fmt.Fprintf(&b, "Company domain: %s\n", req.CompanyDomain)
	}
	b.WriteString("Assume the domain has a multi-year registration history and the company has an ")
	b.WriteString("independent web presence. Keep the tone factual.")
	return b.String()
}

// executeWithRetry runs a Gemini call with retry and exponential backoff
func (g *InsightsGenerator) executeWithRetry(ctx context.Context, fn func() (*genai.GenerateContentResponse, error)) (*genai.GenerateContentResponse, error) {
	var lastErr error

	for attempt := 0; attempt <= g.maxRetries; attempt++ {
		if attempt > 0 {
			if g.logger != nil {
				g.logger.Warn("Retrying insights generation",
					"attempt", attempt,
					"max_retries", g.maxRetries,
					"error", lastErr.Error())
			}

			// Exponential backoff with jitter to prevent thundering herd
			baseDelay := time.Duration(math.Pow(2, float64(attempt-1))) * time.Second
			jitterMax := big.NewInt(int64(float64(baseDelay) * 0.1))
			jitterBig, _ := rand.Int(rand.Reader, jitterMax)
			backoff := min(baseDelay+time.Duration(jitterBig.Int64()), 30*time.Second)

			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		result, err := fn()
		if err == nil {
			return result, nil
		}
		lastErr = err

		if !isRetryableError(err) {
			break
		}
	}

	return nil, fmt.Errorf("insights generation failed after %d retries: %w", g.maxRetries, lastErr)
}

// isRetryableError determines if an error should trigger a retry
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusTooManyRequests,
			http.StatusInternalServerError,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout:
			return true
		}
	}

	return false
}
