package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"life-tracker/internal/apperr"

	"google.golang.org/genai"
)

// GenerateRequest is the Gemini-shaped payload accepted from the browser.
// Only the first text fragment of each content is used.
type GenerateRequest struct {
	Contents          []*genai.Content `json:"contents"`
	SystemInstruction *genai.Content   `json:"systemInstruction,omitempty"`
	GenerationConfig  json.RawMessage  `json:"generationConfig,omitempty"`
}

// Prompt returns contents[0].parts[0].text, or "" when any level is missing.
func (r *GenerateRequest) Prompt() string {
	if len(r.Contents) == 0 {
		return ""
	}
	return firstText(r.Contents[0])
}

// SystemText returns systemInstruction.parts[0].text, or "".
func (r *GenerateRequest) SystemText() string {
	return firstText(r.SystemInstruction)
}

func firstText(c *genai.Content) string {
	if c == nil || len(c.Parts) == 0 || c.Parts[0] == nil {
		return ""
	}
	return c.Parts[0].Text
}

// generateContentRequest is the fixed shape sent upstream.
type generateContentRequest struct {
	Contents          []*genai.Content `json:"contents"`
	SystemInstruction *genai.Content   `json:"systemInstruction,omitempty"`
	GenerationConfig  json.RawMessage  `json:"generationConfig,omitempty"`
}

// Gemini calls the generateContent endpoint of the Gemini REST API.
type Gemini struct {
	client  *Client
	baseURL string
	model   string
}

// NewGemini creates a Gemini client. The API key travels in the
// x-goog-api-key header so it never appears in URLs.
func NewGemini(baseURL, model, apiKey string, timeout time.Duration) *Gemini {
	return &Gemini{
		client:  NewClient("gemini", &http.Client{Timeout: timeout}, &HeaderAuth{Header: "x-goog-api-key"}, apiKey),
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
	}
}

// Generate forwards the prompt, optional system instruction and optional
// generation config, returning the upstream JSON body unchanged. A 2xx reply
// that is not JSON is an upstream failure.
func (g *Gemini) Generate(ctx context.Context, in *GenerateRequest) ([]byte, error) {
	out := generateContentRequest{
		Contents: []*genai.Content{{Parts: []*genai.Part{{Text: in.Prompt()}}}},
	}
	if sys := in.SystemText(); sys != "" {
		out.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: sys}}}
	}
	if cfg := bytes.TrimSpace(in.GenerationConfig); len(cfg) > 0 && !bytes.Equal(cfg, []byte("null")) {
		out.GenerationConfig = cfg
	}

	payload, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("encode gemini request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent", g.baseURL, url.PathEscape(g.model))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create gemini request: %w", err)
	}

	resp, err := g.client.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, apperr.Wrap(apperr.ErrUpstream, "gemini request failed",
			fmt.Errorf("upstream returned %d %s", resp.StatusCode, http.StatusText(resp.StatusCode)))
	}
	if !json.Valid(resp.Body) {
		return nil, apperr.Wrap(apperr.ErrUpstream, "gemini request failed",
			errors.New("upstream returned a non-JSON body"))
	}
	return resp.Body, nil
}
