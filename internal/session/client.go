package session

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"ortho-assist/internal/models"
)

// ChatRequest is one chat turn as the manager sends it
type ChatRequest struct {
	Message    string
	ChatID     string
	UserInfo   json.RawMessage
	MCPContext json.RawMessage
	Image      *ImageFile
}

// Backend is what the manager needs from the gateway
type Backend interface {
	Chat(ctx context.Context, req *ChatRequest) (*models.ChatResponse, error)
	Suggestions(ctx context.Context, chatContext string) ([]string, error)
	DownloadReport(ctx context.Context, reportID string) (io.ReadCloser, error)
}

// RequestError is a non-2xx answer from the gateway
type RequestError struct {
	StatusCode int
	Message    string
	RequestID  string
}

func (e *RequestError) Error() string {
	return e.Message
}

// Client talks to the gateway's browser-facing routes
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient creates a gateway client. token is sent as a bearer token when
// set. The manager bounds each call with its own timeout; timeout here is
// the transport ceiling.
func NewClient(baseURL, token string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// ReportURL is the shareable download link for a report
func (c *Client) ReportURL(reportID string) string {
	return c.baseURL + "/api/reports/" + url.PathEscape(reportID) + "/download"
}

// Chat sends one turn as JSON, or as multipart when an image is attached
func (c *Client) Chat(ctx context.Context, req *ChatRequest) (*models.ChatResponse, error) {
	var (
		body        io.Reader
		contentType string
		err         error
	)
	if req.Image != nil {
		body, contentType, err = chatMultipart(req)
	} else {
		body, contentType, err = chatJSON(req)
	}
	if err != nil {
		return nil, err
	}

	httpReq, err := c.newRequest(ctx, http.MethodPost, "/api/chat", body)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", contentType)

	data, err := c.do(httpReq)
	if err != nil {
		return nil, err
	}

	resp := &models.ChatResponse{}
	if err := json.Unmarshal(data, resp); err != nil {
		return nil, fmt.Errorf("failed to decode chat response: %w", err)
	}
	return resp, nil
}

// Suggestions fetches suggested prompts. The gateway relays either a bare
// list or an object with a suggestions field.
func (c *Client) Suggestions(ctx context.Context, chatContext string) ([]string, error) {
	endpoint := "/api/chat"
	if chatContext != "" {
		endpoint += "?context=" + url.QueryEscape(chatContext)
	}

	httpReq, err := c.newRequest(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	data, err := c.do(httpReq)
	if err != nil {
		return nil, err
	}

	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		return list, nil
	}
	var wrapped models.SuggestionsResponse
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return nil, fmt.Errorf("failed to decode suggestions: %w", err)
	}
	return wrapped.Suggestions, nil
}

// DownloadReport opens a report PDF; the caller must close it
func (c *Client) DownloadReport(ctx context.Context, reportID string) (io.ReadCloser, error) {
	httpReq, err := c.newRequest(ctx, http.MethodGet, "/api/reports/"+url.PathEscape(reportID)+"/download", nil)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Accept", "application/pdf")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("report download failed: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		data, _ := io.ReadAll(resp.Body)
		return nil, newRequestError(resp, data)
	}
	return resp.Body, nil
}

func (c *Client) newRequest(ctx context.Context, method, endpoint string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return req, nil
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request to %s failed: %w", req.URL.Path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, newRequestError(resp, data)
	}
	return data, nil
}

// newRequestError prefers the gateway's {"error": ...} text over the status
func newRequestError(resp *http.Response, body []byte) *RequestError {
	e := &RequestError{
		StatusCode: resp.StatusCode,
		Message:    fmt.Sprintf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode)),
	}

	var apiErr models.APIError
	if err := json.Unmarshal(body, &apiErr); err == nil {
		if apiErr.Error != "" {
			e.Message = apiErr.Error
		}
		e.RequestID = apiErr.RequestID
	}
	return e
}

func chatJSON(req *ChatRequest) (io.Reader, string, error) {
	payload := models.ChatRequest{
		Message:    req.Message,
		ChatID:     req.ChatID,
		UserInfo:   req.UserInfo,
		MCPContext: req.MCPContext,
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, "", fmt.Errorf("failed to marshal request body: %w", err)
	}
	return bytes.NewReader(data), "application/json", nil
}

func chatMultipart(req *ChatRequest) (io.Reader, string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	fields := []struct {
		name  string
		value string
	}{
		{"message", req.Message},
		{"chat_id", req.ChatID},
		{"user_info", string(req.UserInfo)},
		{"mcp_context", string(req.MCPContext)},
	}
	for _, f := range fields {
		if f.value == "" {
			continue
		}
		if err := writer.WriteField(f.name, f.value); err != nil {
			return nil, "", fmt.Errorf("failed to write field %s: %w", f.name, err)
		}
	}

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", mime.FormatMediaType("form-data", map[string]string{"name": "image", "filename": req.Image.Name}))
	header.Set("Content-Type", req.Image.ContentType)
	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create image part: %w", err)
	}
	if _, err := part.Write(req.Image.Data); err != nil {
		return nil, "", fmt.Errorf("failed to write image: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to close multipart body: %w", err)
	}

	return body, writer.FormDataContentType(), nil
}
