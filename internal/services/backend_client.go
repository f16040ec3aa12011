package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"ortho-assist/internal/models"
)

// BackendClientInterface defines the calls the gateway makes to the
// analysis backend
type BackendClientInterface interface {
	Chat(ctx context.Context, req *models.ChatRequest) (json.RawMessage, error)
	Suggestions(ctx context.Context, chatContext string) (json.RawMessage, error)
	Info(ctx context.Context) error
	Analyze(ctx context.Context, req *models.AnalyzeRequest) (*models.AnalyzeResult, error)
	DownloadReport(ctx context.Context, reportID string) (*ReportDownload, error)
}

// ReportDownload is an open report stream; the caller must close Body
type ReportDownload struct {
	Body          io.ReadCloser
	ContentType   string
	ContentLength int64
	Filename      string
}

// BackendClient handles communication with the analysis backend
type BackendClient struct {
	baseURL      string
	httpClient   *http.Client
	probeTimeout time.Duration
	retries      int
}

// NewBackendClient creates a new backend client with default settings
func NewBackendClient(baseURL string) *BackendClient {
	return NewBackendClientWithOptions(baseURL, 60*time.Second, 5*time.Second, 2)
}

// NewBackendClientWithOptions creates a client with custom settings.
// Retries apply to idempotent GET calls only.
func NewBackendClientWithOptions(baseURL string, timeout, probeTimeout time.Duration, retries int) *BackendClient {
	return &BackendClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		probeTimeout: probeTimeout,
		retries:      retries,
	}
}

// ============================================================================
// HTTP Helper Methods
// ============================================================================

// doGet performs a GET with retry on transport errors and 5xx answers
func (c *BackendClient) doGet(ctx context.Context, endpoint string) (*http.Response, error) {
	var lastErr error

	for attempt := 0; attempt <= c.retries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(attempt*attempt) * 250 * time.Millisecond
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}

		resp, err := c.makeRequest(ctx, http.MethodGet, endpoint, nil)
		if err == nil && resp.StatusCode < 500 {
			return resp, nil
		}
		if err == nil && attempt == c.retries {
			// Out of attempts: hand the 5xx to the caller for error parsing
			return resp, nil
		}

		lastErr = err
		if resp != nil {
			lastErr = fmt.Errorf("HTTP %d", resp.StatusCode)
			resp.Body.Close()
		}
	}

	return nil, fmt.Errorf("%w: request failed after %d retries: %v", ErrBackendUnavailable, c.retries, lastErr)
}

// doPost performs a single POST; analysis and chat turns are not idempotent
func (c *BackendClient) doPost(ctx context.Context, endpoint string, body interface{}) (*http.Response, error) {
	resp, err := c.makeRequest(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	return resp, nil
}

// makeRequest creates and executes an HTTP request
func (c *BackendClient) makeRequest(ctx context.Context, method, endpoint string, body interface{}) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	return c.httpClient.Do(req)
}

// readResponse returns the body of a 2xx response or a *BackendError
func readResponse(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, newBackendError(resp, body)
	}
	return body, nil
}

// ============================================================================
// Chat Methods
// ============================================================================

// Chat forwards one chat turn and returns the backend's JSON unchanged
func (c *BackendClient) Chat(ctx context.Context, req *models.ChatRequest) (json.RawMessage, error) {
	resp, err := c.doPost(ctx, "/api/chat", req)
	if err != nil {
		return nil, fmt.Errorf("chat request failed: %w", err)
	}

	body, err := readResponse(resp)
	if err != nil {
		return nil, err
	}
	if !json.Valid(body) {
		return nil, fmt.Errorf("failed to decode response: backend returned invalid JSON")
	}
	return body, nil
}

// Suggestions fetches suggested next actions for an optional context
func (c *BackendClient) Suggestions(ctx context.Context, chatContext string) (json.RawMessage, error) {
	endpoint := "/api/chat/suggestions"
	if chatContext != "" {
		endpoint += "?context=" + url.QueryEscape(chatContext)
	}

	resp, err := c.doGet(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("suggestions request failed: %w", err)
	}

	body, err := readResponse(resp)
	if err != nil {
		return nil, err
	}
	if !json.Valid(body) {
		return nil, fmt.Errorf("failed to decode response: backend returned invalid JSON")
	}
	return body, nil
}

// ============================================================================
// Analysis Methods
// ============================================================================

// Info is the liveness probe; any 2xx is healthy. It runs under its own
// short timeout and is never retried.
func (c *BackendClient) Info(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.probeTimeout)
	defer cancel()

	resp, err := c.makeRequest(ctx, http.MethodGet, "/api/info", nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &BackendError{StatusCode: resp.StatusCode, Status: resp.Status}
	}
	return nil
}

// Analyze submits an image for analysis
func (c *BackendClient) Analyze(ctx context.Context, req *models.AnalyzeRequest) (*models.AnalyzeResult, error) {
	resp, err := c.doPost(ctx, "/api/analyze", req)
	if err != nil {
		return nil, fmt.Errorf("analyze request failed: %w", err)
	}

	body, err := readResponse(resp)
	if err != nil {
		return nil, err
	}

	result := &models.AnalyzeResult{}
	if err := json.Unmarshal(body, result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	result.Raw = body
	return result, nil
}

// ============================================================================
// Report Methods
// ============================================================================

// DownloadReport opens the PDF stream for a generated report
func (c *BackendClient) DownloadReport(ctx context.Context, reportID string) (*ReportDownload, error) {
	resp, err := c.doGet(ctx, "/api/download-pdf/"+url.PathEscape(reportID))
	if err != nil {
		return nil, fmt.Errorf("report download failed: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, err := readResponse(resp)
		return nil, err
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/pdf"
	}

	return &ReportDownload{
		Body:          resp.Body,
		ContentType:   contentType,
		ContentLength: resp.ContentLength,
		Filename:      models.ReportFilename(reportID),
	}, nil
}
