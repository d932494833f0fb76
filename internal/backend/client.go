package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/ayushhunt/jobhelp-sub000/internal/config"
	"github.com/ayushhunt/jobhelp-sub000/internal/errors"
	"github.com/ayushhunt/jobhelp-sub000/internal/types"
)

const apiPrefix = "/api/v1"

// Client is the HTTP client for the company research backend.
// All methods take a context and return structured AppErrors whose
// codes identify which phase of the research lifecycle failed.
type Client struct {
	baseURL    *url.URL
	apiKey     string
	httpClient *http.Client
	breaker    *HTTPBreaker
	logger     *errors.Logger
}

// NewClient creates a backend client from configuration
func NewClient(cfg config.BackendConfig, logger *errors.Logger) (*Client, error) {
	base, err := parseBaseURL(cfg.BaseURL)
	if err != nil {
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig,
			"Invalid backend base URL", err).WithContext("base_url", cfg.BaseURL)
	}

	return &Client{
		baseURL: base,
		apiKey:  cfg.APIKey,
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		breaker: NewHTTPBreaker("backend", cfg.CircuitBreaker, logger),
		logger:  logger,
	}, nil
}

func parseBaseURL(raw string) (*url.URL, error) {
	if raw == "" {
		return nil, fmt.Errorf("base URL is empty")
	}
	u, err := url.Parse(strings.TrimSuffix(raw, "/"))
	if err != nil {
		return nil, err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("base URL must use http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("base URL has no host")
	}
	return u, nil
}

// SubmitResearch starts an asynchronous research job. The returned
// handle carries the request_id used for progress polling, result
// retrieval and cancellation. Submission is not retried: a failure
// leaves no job behind and is reported as a submission error.
func (c *Client) SubmitResearch(ctx context.Context, req *types.CompanyResearchRequest) (*types.JobHandle, error) {
	if err := req.Validate(); err != nil {
		return nil, errors.NewValidationError(errors.ErrCodeInvalidRequest,
			"Invalid research request", err)
	}

	var ack types.AsyncResearchAck
	if err := c.doJSON(ctx, http.MethodPost, apiPrefix+"/research/async", req, &ack); err != nil {
		return nil, errors.NewSubmissionError("Failed to submit research job", err).
			WithContext("company", req.DisplayName())
	}
	if ack.RequestID == "" {
		return nil, errors.NewSubmissionError("Backend acknowledged submission without a request_id", nil).
			WithContext("company", req.DisplayName())
	}

	c.logger.Info("Research job submitted",
		"request_id", ack.RequestID,
		"company", req.DisplayName(),
		"depth", req.ResearchDepth)

	return &types.JobHandle{
		RequestID:   ack.RequestID,
		CompanyName: req.DisplayName(),
	}, nil
}

// ResearchProgress fetches one progress snapshot for a running job.
// A transport or protocol failure here is a poll error: it says
// nothing about the job itself, which may still be running.
func (c *Client) ResearchProgress(ctx context.Context, requestID string) (*types.ResearchProgress, error) {
	var progress types.ResearchProgress
	path := apiPrefix + "/research/progress/" + url.PathEscape(requestID)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &progress); err != nil {
		return nil, errors.NewPollError("Failed to poll research progress", err).
			WithContext("request_id", requestID)
	}
	return &progress, nil
}

// Research runs a synchronous research request and returns the full
// result payload. It is also the call used to fetch the result of a
// completed asynchronous job, re-sending the original request
// parameters.
func (c *Client) Research(ctx context.Context, req *types.CompanyResearchRequest) (*types.CompanyResearchResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, errors.NewValidationError(errors.ErrCodeInvalidRequest,
			"Invalid research request", err)
	}

	var result types.CompanyResearchResponse
	if err := c.doJSON(ctx, http.MethodPost, apiPrefix+"/research", req, &result); err != nil {
		return nil, errors.NewBackendError(errors.ErrCodeRequestFailed,
			"Research request failed", err).
			WithContext("company", req.DisplayName())
	}
	return &result, nil
}

// CancelResearch asks the backend to cancel a running job. Callers
// perform their local teardown before calling this; a failure here is
// informational only.
func (c *Client) CancelResearch(ctx context.Context, requestID string) (*types.CancelAck, error) {
	var ack types.CancelAck
	path := apiPrefix + "/research/cancel/" + url.PathEscape(requestID)
	if err := c.doJSON(ctx, http.MethodDelete, path, nil, &ack); err != nil {
		return nil, errors.NewCancelError("Failed to cancel research job", err).
			WithContext("request_id", requestID)
	}

	c.logger.Info("Research job cancelled", "request_id", requestID)
	return &ack, nil
}

// CostEstimate returns the expected cost breakdown for a research depth
func (c *Client) CostEstimate(ctx context.Context, depth types.ResearchDepth) (*types.ResearchCostEstimate, error) {
	if !depth.Valid() {
		return nil, errors.NewValidationError(errors.ErrCodeInvalidRequest,
			fmt.Sprintf("Invalid research depth: %s", depth), nil)
	}

	var estimate types.ResearchCostEstimate
	path := apiPrefix + "/research/cost-estimate?research_depth=" + url.QueryEscape(string(depth))
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &estimate); err != nil {
		return nil, errors.NewBackendError(errors.ErrCodeRequestFailed,
			"Failed to fetch cost estimate", err).
			WithContext("depth", string(depth))
	}
	return &estimate, nil
}

// Sources returns the backend's research source catalog
func (c *Client) Sources(ctx context.Context) (*types.SourceCatalog, error) {
	var catalog types.SourceCatalog
	if err := c.doJSON(ctx, http.MethodGet, apiPrefix+"/research/sources", nil, &catalog); err != nil {
		return nil, errors.NewBackendError(errors.ErrCodeRequestFailed,
			"Failed to fetch source catalog", err)
	}
	return &catalog, nil
}

// doJSON performs one JSON request/response round trip through the
// circuit breaker
func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL.String()+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	respBody, err := c.breaker.Execute(func() ([]byte, error) {
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		defer func() { _ = resp.Body.Close() }()

		data, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
		if err != nil {
			return nil, fmt.Errorf("failed to read response body: %w", err)
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, newStatusError(resp.StatusCode, data)
		}
		return data, nil
	})
	if err != nil {
		return err
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("failed to decode response body: %w", err)
		}
	}
	return nil
}

// StatusError carries a non-2xx backend response
type StatusError struct {
	StatusCode int
	Detail     string
}

func (e *StatusError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("backend returned HTTP %d: %s", e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("backend returned HTTP %d", e.StatusCode)
}

func newStatusError(code int, body []byte) *StatusError {
	// The backend wraps error messages as {"detail": "..."} or
	// {"error": "..."} depending on the handler; fall back to the raw
	// body when neither fits.
	var wrapped struct {
		Detail string `json:"detail"`
		Error  string `json:"error"`
	}
	detail := ""
	if err := json.Unmarshal(body, &wrapped); err == nil {
		if wrapped.Detail != "" {
			detail = wrapped.Detail
		} else if wrapped.Error != "" {
			detail = wrapped.Error
		}
	}
	if detail == "" {
		detail = strings.TrimSpace(string(body))
		if len(detail) > 200 {
			detail = detail[:200]
		}
	}
	return &StatusError{StatusCode: code, Detail: detail}
}
