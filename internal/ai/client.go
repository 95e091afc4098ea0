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

	"github.com/nhle/mail-triage/internal/model"
	"github.com/nhle/mail-triage/internal/triage"
)

const (
	defaultModel     = "claude-sonnet-4-5-20250929"
	defaultMaxTokens = 1500
	defaultBaseURL   = "https://api.anthropic.com"
	messagesPath     = "/v1/messages"
	apiVersion       = "2023-06-01"
)

// ErrNoText is returned when a response carries no text content block.
var ErrNoText = errors.New("no text content in response")

// MalformedResponseError reports model output that could not be decoded
// as an analysis. It matches triage.ErrMalformedResponse with errors.Is.
type MalformedResponseError struct {
	Raw string
	Err error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed analysis response: %v", e.Err)
}

func (e *MalformedResponseError) Unwrap() []error {
	return []error{triage.ErrMalformedResponse, e.Err}
}

// APIError is a non-200 answer from the Messages API.
type APIError struct {
	StatusCode int
	Type       string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error (%d): %s", e.StatusCode, e.Message)
}

// Options configures a Client. Zero values select defaults.
type Options struct {
	Model     string
	MaxTokens int
	BaseURL   string
	Signature string

	// HTTPClient overrides the transport, mainly for tests.
	HTTPClient *http.Client
}

// Client analyzes emails with Claude through the Anthropic Messages API.
// It implements triage.Analyzer.
type Client struct {
	apiKey    string
	model     string
	maxTokens int
	endpoint  string
	system    string
	client    *http.Client
}

// New creates a Client authenticated with apiKey.
func New(apiKey string, opts Options) *Client {
	if opts.Model == "" {
		opts.Model = defaultModel
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = defaultMaxTokens
	}
	if opts.BaseURL == "" {
		opts.BaseURL = defaultBaseURL
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{}
	}

	return &Client{
		apiKey:    apiKey,
		model:     opts.Model,
		maxTokens: opts.MaxTokens,
		endpoint:  strings.TrimRight(opts.BaseURL, "/") + messagesPath,
		system:    systemPrompt(opts.Signature),
		client:    opts.HTTPClient,
	}
}

// Name returns "claude".
func (c *Client) Name() string {
	return "claude"
}

// Analyze sends the email to the model and decodes its JSON verdict.
// Transport and API failures are returned as ordinary errors; text that
// is not the expected JSON yields a *MalformedResponseError.
func (c *Client) Analyze(
	ctx context.Context,
	email model.IncomingEmail,
) (*model.Analysis, error) {
	resp, err := c.callAPI(ctx, userPrompt(email))
	if err != nil {
		return nil, err
	}

	text, ok := firstText(resp.Content)
	if !ok {
		return nil, &MalformedResponseError{Err: ErrNoText}
	}

	return decodeAnalysis(text)
}

// callAPI makes a single request to the Claude Messages API.
func (c *Client) callAPI(ctx context.Context, prompt string) (*apiResponse, error) {
	reqBody := apiRequest{
		Model:     c.model,
		MaxTokens: c.maxTokens,
		System:    c.system,
		Messages: []apiMessage{{
			Role:    "user",
			Content: []apiContentBlock{{Type: "text", Text: prompt}},
		}},
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost, c.endpoint, bytes.NewReader(bodyBytes),
	)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", apiVersion)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling Claude API: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: string(respBody)}
		var body apiErrorResponse
		if json.Unmarshal(respBody, &body) == nil && body.Error.Message != "" {
			apiErr.Type = body.Error.Type
			apiErr.Message = body.Error.Message
		}
		return nil, apiErr
	}

	var result apiResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, &MalformedResponseError{Raw: string(respBody), Err: err}
	}

	return &result, nil
}

// firstText returns the first text block of a response.
func firstText(blocks []apiContentBlock) (string, bool) {
	for _, b := range blocks {
		if b.Type == "text" {
			return b.Text, true
		}
	}
	return "", false
}

// decodeAnalysis parses model output, tolerating a markdown code fence
// around the JSON.
func decodeAnalysis(text string) (*model.Analysis, error) {
	raw := stripFences(text)

	var analysis model.Analysis
	if err := json.Unmarshal([]byte(raw), &analysis); err != nil {
		return nil, &MalformedResponseError{Raw: text, Err: err}
	}
	return &analysis, nil
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}

// --- Claude API types ---

type apiRequest struct {
	Model     string       `json:"model"`
	MaxTokens int          `json:"max_tokens"`
	System    string       `json:"system"`
	Messages  []apiMessage `json:"messages"`
}

type apiMessage struct {
	Role    string            `json:"role"`
	Content []apiContentBlock `json:"content"`
}

type apiContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

type apiResponse struct {
	ID         string            `json:"id"`
	Type       string            `json:"type"`
	Role       string            `json:"role"`
	Content    []apiContentBlock `json:"content"`
	Model      string            `json:"model"`
	StopReason string            `json:"stop_reason"`
}

type apiErrorResponse struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}
