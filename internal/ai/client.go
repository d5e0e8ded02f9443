// Package ai implements the HTTP client for the upstream chat-style
// multimodal inference endpoint. The same endpoint serves two call
// shapes: a short low-temperature classification call and the larger
// system+user prompted generation call.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	RoleSystem = "system"
	RoleUser   = "user"
)

// ContentPart is one block of a multimodal message: either text or an
// image reference (data URI or https URL).
type ContentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *ImageURL `json:"image_url,omitempty"`
}

// ImageURL carries an embedded data URI or an https URL.
type ImageURL struct {
	URL string `json:"url"`
}

// Message is one role-tagged chat message.
type Message struct {
	Role    string        `json:"role"`
	Content []ContentPart `json:"content"`
}

// ChatRequest is the request envelope for the chat completions endpoint.
type ChatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature *float64  `json:"temperature,omitempty"`
}

// ChatResponse is the response envelope. Only the first choice is used.
type ChatResponse struct {
	ID      string   `json:"id,omitempty"`
	Model   string   `json:"model,omitempty"`
	Choices []Choice `json:"choices"`
}

// Choice is a single completion hypothesis.
type Choice struct {
	Index        int             `json:"index"`
	Message      ResponseMessage `json:"message"`
	FinishReason string          `json:"finish_reason,omitempty"`
}

// ResponseMessage is the assistant reply within a choice.
type ResponseMessage struct {
	Role    string `json:"role,omitempty"`
	Content string `json:"content,omitempty"`
}

// FirstContent returns the content of the first choice, or empty.
func (r *ChatResponse) FirstContent() string {
	if len(r.Choices) == 0 {
		return ""
	}
	return r.Choices[0].Message.Content
}

// TextPart builds a text content part.
func TextPart(text string) ContentPart {
	return ContentPart{Type: "text", Text: text}
}

// ImagePart builds an image content part, normalizing bare base64
// payloads into JPEG data URIs.
func ImagePart(image string) ContentPart {
	return ContentPart{Type: "image_url", ImageURL: &ImageURL{URL: DataURI(image)}}
}

// DataURI prefixes bare base64 image data with a JPEG data-URI header.
// Inputs that already carry a data: or http(s) scheme pass through.
func DataURI(image string) string {
	if strings.HasPrefix(image, "data:") ||
		strings.HasPrefix(image, "http://") ||
		strings.HasPrefix(image, "https://") {
		return image
	}
	return "data:image/jpeg;base64," + image
}

// Client calls the chat completions endpoint.
type Client struct {
	httpClient *http.Client
	apiURL     string
	apiKey     string
	model      string
}

// Config holds the client settings, injected at construction.
type Config struct {
	APIURL  string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// NewClient creates a new inference client.
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		apiURL:     cfg.APIURL,
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
	}
}

// Model returns the configured model name.
func (c *Client) Model() string {
	return c.model
}

// ChatCompletion issues one chat completions call. A non-2xx status,
// a timeout, or an unparseable body all surface as errors; retry
// policy is the caller's concern.
func (c *Client) ChatCompletion(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	if req.Model == "" {
		req.Model = c.model
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("inference request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("inference API returned %d: %s", resp.StatusCode, snippet(respBody))
	}

	var chatResp ChatResponse
	if err := json.Unmarshal(respBody, &chatResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if len(chatResp.Choices) == 0 {
		return nil, fmt.Errorf("inference API returned no choices")
	}

	return &chatResp, nil
}

// snippet truncates an error body for log-safe error messages.
func snippet(body []byte) string {
	const max = 200
	s := strings.TrimSpace(string(body))
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}
