// Package genai wraps the Gemini generateContent REST endpoint and the
// defensive parsing of the free-form text it returns.
package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// FinishReasonMaxTokens marks a response cut off at the output-token limit.
// The parser uses it to decide whether truncation repair is worth attempting.
const FinishReasonMaxTokens = "MAX_TOKENS"

// GenerateOptions tune a single generation call.
type GenerateOptions struct {
	// Temperature for the generation; zero value means the API default.
	Temperature float64
	// MaxOutputTokens caps the response length; 0 leaves the API default.
	MaxOutputTokens int
	// JSONOutput asks the model for application/json responses.
	JSONOutput bool
	// SearchGrounding lets the model consult live web search before
	// answering. Omitting it silently degrades answer freshness, so callers
	// doing research must set it explicitly.
	SearchGrounding bool
}

// Response is the text of one generation plus the reason it stopped.
type Response struct {
	Text         string
	FinishReason string
}

// Client calls the Gemini generateContent API over plain HTTP.
type Client struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a Gemini client for the given model.
func NewClient(apiKey, model string) *Client {
	return &Client{
		apiKey:     apiKey,
		model:      model,
		baseURL:    "https://generativelanguage.googleapis.com/v1beta",
		httpClient: &http.Client{Timeout: 90 * time.Second},
	}
}

type generateRequest struct {
	Contents         []content         `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
	SafetySettings   []safetySetting   `json:"safetySettings,omitempty"`
	Tools            []tool            `json:"tools,omitempty"`
}

type content struct {
	Role  string `json:"role"`
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	Temperature      float64 `json:"temperature"`
	ResponseMimeType string  `json:"responseMimeType,omitempty"`
	MaxOutputTokens  int     `json:"maxOutputTokens,omitempty"`
}

type safetySetting struct {
	Category  string `json:"category"`
	Threshold string `json:"threshold"`
}

type tool struct {
	GoogleSearch struct{} `json:"google_search"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []part `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

var defaultSafetySettings = []safetySetting{
	{Category: "HARM_CATEGORY_HARASSMENT", Threshold: "BLOCK_NONE"},
	{Category: "HARM_CATEGORY_HATE_SPEECH", Threshold: "BLOCK_NONE"},
	{Category: "HARM_CATEGORY_SEXUALLY_EXPLICIT", Threshold: "BLOCK_NONE"},
	{Category: "HARM_CATEGORY_DANGEROUS_CONTENT", Threshold: "BLOCK_NONE"},
}

// Generate sends one prompt and returns the first candidate's text and finish
// reason.
func (c *Client) Generate(ctx context.Context, prompt string, opts GenerateOptions) (*Response, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("genai: API key not configured")
	}

	reqBody := generateRequest{
		Contents: []content{
			{Role: "user", Parts: []part{{Text: prompt}}},
		},
		GenerationConfig: &generationConfig{
			Temperature:     opts.Temperature,
			MaxOutputTokens: opts.MaxOutputTokens,
		},
		SafetySettings: defaultSafetySettings,
	}
	if opts.JSONOutput && !opts.SearchGrounding {
		// responseMimeType is rejected when the search tool is attached.
		reqBody.GenerationConfig.ResponseMimeType = "application/json"
	}
	if opts.SearchGrounding {
		reqBody.Tools = []tool{{}}
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("genai: failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("genai: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("genai: failed to call generateContent: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("genai: failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("genai: generateContent error (status %d): %s", resp.StatusCode, string(body))
	}

	var genResp generateResponse
	if err := json.Unmarshal(body, &genResp); err != nil {
		return nil, fmt.Errorf("genai: failed to parse response: %w", err)
	}
	if genResp.Error != nil {
		return nil, fmt.Errorf("genai: API error %d: %s", genResp.Error.Code, genResp.Error.Message)
	}
	if len(genResp.Candidates) == 0 || len(genResp.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("genai: empty response from model")
	}

	cand := genResp.Candidates[0]
	var text string
	for _, p := range cand.Content.Parts {
		text += p.Text
	}

	return &Response{Text: text, FinishReason: cand.FinishReason}, nil
}
