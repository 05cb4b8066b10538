package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"
)

// Client calls the Gemini generateContent REST API.
//
// One client serves every model the app uses; the model name is picked per
// call so analysis, TTS, and image transforms can run on different models.
type Client struct {
	httpClient *http.Client
	apiKey     string
	baseURL    string
}

const defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

var (
	// ErrMissingAPIKey means no key was configured; every call fails fast
	// with this instead of a confusing remote 403.
	ErrMissingAPIKey = errors.New("ai: api key not configured")

	// ErrEntityNotFound maps the API's "Requested entity was not found"
	// response, which signals an invalid or revoked key rather than a bad
	// request. Callers surface it as a re-auth prompt.
	ErrEntityNotFound = errors.New("ai: requested entity was not found")
)

// NewClient creates a Gemini client. An empty apiKey is allowed at
// construction time; calls will return ErrMissingAPIKey.
func NewClient(apiKey string) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
	}
}

// Request / response wire types. Only the fields this app uses.

type GenerateRequest struct {
	Contents          []Content         `json:"contents"`
	GenerationConfig  *GenerationConfig `json:"generationConfig,omitempty"`
	SystemInstruction *Content          `json:"systemInstruction,omitempty"`
	Tools             []Tool            `json:"tools,omitempty"`
}

type Content struct {
	Role  string `json:"role,omitempty"`
	Parts []Part `json:"parts"`
}

type Part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *InlineData `json:"inlineData,omitempty"`
}

type InlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"` // base64
}

type GenerationConfig struct {
	ResponseMimeType   string        `json:"responseMimeType,omitempty"`
	ResponseSchema     *Schema       `json:"responseSchema,omitempty"`
	ResponseModalities []string      `json:"responseModalities,omitempty"`
	SpeechConfig       *SpeechConfig `json:"speechConfig,omitempty"`
	ImageConfig        *ImageConfig  `json:"imageConfig,omitempty"`
}

type SpeechConfig struct {
	VoiceConfig *VoiceConfig `json:"voiceConfig,omitempty"`
}

type VoiceConfig struct {
	PrebuiltVoiceConfig *PrebuiltVoiceConfig `json:"prebuiltVoiceConfig,omitempty"`
}

type PrebuiltVoiceConfig struct {
	VoiceName string `json:"voiceName"`
}

type ImageConfig struct {
	AspectRatio string `json:"aspectRatio,omitempty"`
}

type Tool struct {
	FunctionDeclarations []FunctionDeclaration `json:"functionDeclarations,omitempty"`
	GoogleSearch         *GoogleSearch         `json:"googleSearch,omitempty"`
}

// GoogleSearch enables search grounding. It carries no options; presence
// is the switch.
type GoogleSearch struct{}

type FunctionDeclaration struct {
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Parameters  *Schema `json:"parameters,omitempty"`
}

type GenerateResponse struct {
	Candidates []Candidate `json:"candidates"`
}

type Candidate struct {
	Content           Content            `json:"content"`
	GroundingMetadata *GroundingMetadata `json:"groundingMetadata,omitempty"`
}

type GroundingMetadata struct {
	GroundingChunks []GroundingChunk `json:"groundingChunks"`
}

type GroundingChunk struct {
	Web *WebSource `json:"web,omitempty"`
}

type WebSource struct {
	Title string `json:"title"`
	URI   string `json:"uri"`
}

type apiError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// GenerateContent posts a request to the named model and returns the
// parsed response.
func (c *Client) GenerateContent(ctx context.Context, model string, req GenerateRequest) (*GenerateResponse, error) {
	if c.apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	startTime := time.Now()

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		log.Printf("[AI] GenerateContent FAILED: model=%s err=%v", model, err)
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var ae apiError
		_ = json.Unmarshal(respBody, &ae)
		msg := ae.Error.Message
		log.Printf("[AI] GenerateContent FAILED: model=%s status=%d msg=%s", model, resp.StatusCode, msg)
		if ae.Error.Status == "NOT_FOUND" || strings.Contains(msg, "Requested entity was not found") {
			return nil, ErrEntityNotFound
		}
		return nil, fmt.Errorf("api error: status=%d msg=%s", resp.StatusCode, msg)
	}

	var out GenerateResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}

	log.Printf("[AI] GenerateContent OK: model=%s duration=%v", model, time.Since(startTime))
	return &out, nil
}

// Text returns the concatenated text parts of the first candidate.
func (r *GenerateResponse) Text() string {
	if len(r.Candidates) == 0 {
		return ""
	}
	var b strings.Builder
	for _, p := range r.Candidates[0].Content.Parts {
		b.WriteString(p.Text)
	}
	return b.String()
}

// FirstInlineData returns the first inline (binary) part of the first
// candidate, or nil.
func (r *GenerateResponse) FirstInlineData() *InlineData {
	if len(r.Candidates) == 0 {
		return nil
	}
	for _, p := range r.Candidates[0].Content.Parts {
		if p.InlineData != nil {
			return p.InlineData
		}
	}
	return nil
}
