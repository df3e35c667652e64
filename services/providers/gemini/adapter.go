package gemini

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/roomnotes/backend/services/providers"
)

const (
	defaultBaseURL         = "https://generativelanguage.googleapis.com/v1beta"
	defaultGenerationModel = "gemini-2.0-flash"
	defaultEmbeddingModel  = "text-embedding-004"
)

// GeminiAdapter implements the Provider interface for Google Gemini
type GeminiAdapter struct {
	config     providers.ProviderConfig
	httpClient *http.Client
}

// NewGeminiAdapter creates a new Gemini adapter
func NewGeminiAdapter(config providers.ProviderConfig) *GeminiAdapter {
	if config.BaseURL == "" {
		config.BaseURL = defaultBaseURL
	}
	if config.GenerationModel == "" {
		config.GenerationModel = defaultGenerationModel
	}
	if config.EmbeddingModel == "" {
		config.EmbeddingModel = defaultEmbeddingModel
	}
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}

	return &GeminiAdapter{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}
}

// Name returns the provider name
func (a *GeminiAdapter) Name() string {
	return "gemini"
}

// GenerateText produces a text completion for the given prompt
func (a *GeminiAdapter) GenerateText(ctx context.Context, prompt string) (string, error) {
	req := &generateContentRequest{
		Contents: []content{
			{Parts: []part{{Text: prompt}}},
		},
	}
	return a.generateContent(ctx, req)
}

// TranscribeAudio converts raw audio bytes into a text transcription
func (a *GeminiAdapter) TranscribeAudio(ctx context.Context, audio []byte, mimeType string) (string, error) {
	if len(audio) == 0 {
		return "", providers.NewProviderError(a.Name(), "EMPTY_AUDIO", "audio data is empty", 400, false, nil)
	}
	if mimeType == "" {
		mimeType = "audio/webm"
	}

	req := &generateContentRequest{
		Contents: []content{
			{
				Parts: []part{
					{Text: "Transcribe the following audio recording. Return only the spoken text, without commentary."},
					{
						InlineData: &inlineData{
							MimeType: mimeType,
							Data:     base64.StdEncoding.EncodeToString(audio),
						},
					},
				},
			},
		},
	}
	return a.generateContent(ctx, req)
}

// EmbedText produces an embedding vector for the given text
func (a *GeminiAdapter) EmbedText(ctx context.Context, text string) ([]float32, error) {
	reqBody, err := json.Marshal(&embedContentRequest{
		Content:  content{Parts: []part{{Text: text}}},
		TaskType: "RETRIEVAL_DOCUMENT",
	})
	if err != nil {
		return nil, providers.NewProviderError(a.Name(), "MARSHAL_ERROR", "Failed to marshal request", 0, false, err)
	}

	url := fmt.Sprintf("%s/models/%s:embedContent", a.config.BaseURL, a.config.EmbeddingModel)
	respBody, err := a.post(ctx, url, reqBody)
	if err != nil {
		return nil, err
	}

	var embedResp embedContentResponse
	if err := json.Unmarshal(respBody, &embedResp); err != nil {
		return nil, providers.NewProviderError(a.Name(), "UNMARSHAL_ERROR", "Failed to unmarshal response", 0, false, err)
	}
	if len(embedResp.Embedding.Values) == 0 {
		return nil, providers.NewProviderError(a.Name(), "EMPTY_EMBEDDING", "provider returned empty embedding", 0, false, nil)
	}

	return embedResp.Embedding.Values, nil
}

// IsAvailable checks if the provider is currently available
func (a *GeminiAdapter) IsAvailable(ctx context.Context) bool {
	url := fmt.Sprintf("%s/models/%s", a.config.BaseURL, a.config.GenerationModel)
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return false
	}
	req.Header.Set("x-goog-api-key", a.config.APIKey)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode == http.StatusOK
}

func (a *GeminiAdapter) generateContent(ctx context.Context, genReq *generateContentRequest) (string, error) {
	reqBody, err := json.Marshal(genReq)
	if err != nil {
		return "", providers.NewProviderError(a.Name(), "MARSHAL_ERROR", "Failed to marshal request", 0, false, err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", a.config.BaseURL, a.config.GenerationModel)
	respBody, err := a.post(ctx, url, reqBody)
	if err != nil {
		return "", err
	}

	var genResp generateContentResponse
	if err := json.Unmarshal(respBody, &genResp); err != nil {
		return "", providers.NewProviderError(a.Name(), "UNMARSHAL_ERROR", "Failed to unmarshal response", 0, false, err)
	}

	if len(genResp.Candidates) == 0 || len(genResp.Candidates[0].Content.Parts) == 0 {
		return "", providers.NewProviderError(a.Name(), "EMPTY_RESPONSE", "provider returned no candidates", 0, false, nil)
	}

	text := genResp.Candidates[0].Content.Parts[0].Text
	if text == "" {
		return "", providers.NewProviderError(a.Name(), "EMPTY_RESPONSE", "provider returned empty text", 0, false, nil)
	}

	return text, nil
}

// post executes a JSON POST with retry on 5xx and transport errors
func (a *GeminiAdapter) post(ctx context.Context, url string, body []byte) ([]byte, error) {
	var httpResp *http.Response
	var lastErr error

	for attempt := 0; attempt <= a.config.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, providers.NewProviderError(a.Name(), "CONTEXT_CANCELED", "request canceled", 0, false, ctx.Err())
			case <-time.After(a.config.RetryDelay * time.Duration(attempt)):
			}
		}

		httpReq, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(body))
		if err != nil {
			return nil, providers.NewProviderError(a.Name(), "REQUEST_ERROR", "Failed to create request", 0, false, err)
		}
		httpReq.Header.Set("Content-Type", "application/json")
		httpReq.Header.Set("x-goog-api-key", a.config.APIKey)
		for k, v := range a.config.Headers {
			httpReq.Header.Set(k, v)
		}

		httpResp, lastErr = a.httpClient.Do(httpReq)
		if lastErr == nil && httpResp.StatusCode < 500 {
			break
		}

		if httpResp != nil {
			httpResp.Body.Close()
			httpResp = nil
		}
	}

	if lastErr != nil {
		return nil, providers.NewProviderError(a.Name(), "HTTP_ERROR", "HTTP request failed", 0, true, lastErr)
	}
	if httpResp == nil {
		return nil, providers.NewProviderError(a.Name(), "HTTP_ERROR", "HTTP request failed", 0, true, errors.New("no response after retries"))
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, providers.NewProviderError(a.Name(), "READ_ERROR", "Failed to read response", httpResp.StatusCode, false, err)
	}

	if httpResp.StatusCode != http.StatusOK {
		return nil, a.handleErrorResponse(httpResp.StatusCode, respBody)
	}

	return respBody, nil
}

// handleErrorResponse handles Gemini error responses
func (a *GeminiAdapter) handleErrorResponse(statusCode int, body []byte) error {
	var errResp geminiErrorResponse
	if err := json.Unmarshal(body, &errResp); err != nil || errResp.Error.Message == "" {
		return providers.NewProviderError(a.Name(), "UNKNOWN_ERROR", string(body), statusCode, statusCode >= 500, err)
	}

	retryable := statusCode >= 500 || statusCode == 429

	return providers.NewProviderError(
		a.Name(),
		errResp.Error.Status,
		errResp.Error.Message,
		statusCode,
		retryable,
		errors.New(errResp.Error.Message),
	)
}

// Gemini-specific request/response types

type generateContentRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inlineData,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type generateContentResponse struct {
	Candidates []candidate `json:"candidates"`
}

type candidate struct {
	Content      content `json:"content"`
	FinishReason string  `json:"finishReason"`
}

type embedContentRequest struct {
	Content  content `json:"content"`
	TaskType string  `json:"taskType,omitempty"`
}

type embedContentResponse struct {
	Embedding embeddingValues `json:"embedding"`
}

type embeddingValues struct {
	Values []float32 `json:"values"`
}

type geminiErrorResponse struct {
	Error geminiError `json:"error"`
}

type geminiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
}
