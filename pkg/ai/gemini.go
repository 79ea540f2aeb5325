package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	defaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	defaultGeminiModel   = "gemini-2.5-flash"
)

// GeminiClient calls the Google AI Studio (Gemini) generateContent API.
// One client is built at startup and shared by all requests.
type GeminiClient struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

// GeminiOption customizes a GeminiClient.
type GeminiOption func(*GeminiClient)

// WithBaseURL overrides the API root (tests, proxies).
func WithBaseURL(u string) GeminiOption {
	return func(c *GeminiClient) {
		if u = strings.TrimRight(strings.TrimSpace(u), "/"); u != "" {
			c.baseURL = u
		}
	}
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(hc *http.Client) GeminiOption {
	return func(c *GeminiClient) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout bounds a single generateContent call.
func WithTimeout(d time.Duration) GeminiOption {
	return func(c *GeminiClient) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// NewGeminiClient constructs a client for the given API key and model.
func NewGeminiClient(apiKey, model string, opts ...GeminiOption) (*GeminiClient, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key required")
	}
	model = strings.TrimPrefix(strings.TrimSpace(model), "models/")
	if model == "" {
		model = defaultGeminiModel
	}
	c := &GeminiClient{
		apiKey:     apiKey,
		model:      model,
		baseURL:    defaultGeminiBaseURL,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// Model returns the configured model name.
func (c *GeminiClient) Model() string { return c.model }

// GenerateText implements TextGenerator.
func (c *GeminiClient) GenerateText(ctx context.Context, prompt string, jsonOutput bool) (string, error) {
	reqBody := generateRequest{
		Contents: []content{{Role: "user", Parts: []part{{Text: prompt}}}},
	}
	if jsonOutput {
		reqBody.GenerationConfig = &generationConfig{ResponseMimeType: "application/json"}
	}
	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", &Error{Kind: Permanent, Err: err}
	}
	url := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, c.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", &Error{Kind: Permanent, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &Error{Kind: Permanent, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &Error{Kind: Permanent, StatusCode: resp.StatusCode, Err: err}
	}
	if resp.StatusCode >= 400 {
		return "", classifyHTTPError(resp.StatusCode, raw)
	}

	var out generateResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", &Error{Kind: Malformed, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode gemini response: %w", err)}
	}
	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
		reason := ""
		if len(out.Candidates) > 0 {
			reason = out.Candidates[0].FinishReason
		}
		return "", &Error{Kind: Malformed, StatusCode: resp.StatusCode, Err: fmt.Errorf("empty response from gemini (finishReason=%q)", reason)}
	}
	var b strings.Builder
	for _, p := range out.Candidates[0].Content.Parts {
		b.WriteString(p.Text)
	}
	return b.String(), nil
}

// classifyHTTPError maps an error response onto a Kind. HTTP 503 and
// UNAVAILABLE/overloaded statuses are the provider's overload signal.
func classifyHTTPError(status int, raw []byte) error {
	var er errorResponse
	_ = json.Unmarshal(raw, &er)
	msg := er.Error.Message
	if msg == "" {
		msg = http.StatusText(status)
	}
	kind := Permanent
	if status == http.StatusServiceUnavailable ||
		strings.EqualFold(er.Error.Status, "UNAVAILABLE") ||
		strings.Contains(strings.ToLower(msg), "overloaded") {
		kind = Transient
	}
	return &Error{Kind: kind, StatusCode: status, Err: errors.New("gemini api error: " + msg)}
}

type part struct {
	Text string `json:"text"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generationConfig struct {
	ResponseMimeType string `json:"responseMimeType,omitempty"`
}

type generateRequest struct {
	Contents         []content         `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

type generateResponse struct {
	Candidates []struct {
		Content      content `json:"content"`
		FinishReason string  `json:"finishReason"`
	} `json:"candidates"`
}

type errorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}
