package gemini

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/roomnotes/backend/services/providers"
)

func TestNewGeminiAdapter(t *testing.T) {
	config := providers.ProviderConfig{
		APIKey: "test-key",
	}

	adapter := NewGeminiAdapter(config)

	if adapter == nil {
		t.Fatal("NewGeminiAdapter() returned nil")
	}

	if adapter.Name() != "gemini" {
		t.Errorf("Name() = %s, want gemini", adapter.Name())
	}

	if adapter.config.BaseURL != defaultBaseURL {
		t.Errorf("BaseURL = %s, want %s", adapter.config.BaseURL, defaultBaseURL)
	}

	if adapter.config.GenerationModel != defaultGenerationModel {
		t.Errorf("GenerationModel = %s, want %s", adapter.config.GenerationModel, defaultGenerationModel)
	}

	if adapter.config.EmbeddingModel != defaultEmbeddingModel {
		t.Errorf("EmbeddingModel = %s, want %s", adapter.config.EmbeddingModel, defaultEmbeddingModel)
	}
}

func TestGeminiAdapter_GenerateText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, ":generateContent") {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.Header.Get("x-goog-api-key") != "test-key" {
			t.Errorf("missing api key header")
		}

		body, _ := io.ReadAll(r.Body)
		var req generateContentRequest
		if err := json.Unmarshal(body, &req); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
		if len(req.Contents) != 1 || req.Contents[0].Parts[0].Text != "hello" {
			t.Errorf("unexpected request contents: %+v", req.Contents)
		}

		json.NewEncoder(w).Encode(generateContentResponse{
			Candidates: []candidate{
				{Content: content{Parts: []part{{Text: "world"}}}},
			},
		})
	}))
	defer server.Close()

	adapter := NewGeminiAdapter(providers.ProviderConfig{
		APIKey:  "test-key",
		BaseURL: server.URL,
	})

	got, err := adapter.GenerateText(context.Background(), "hello")
	if err != nil {
		t.Fatalf("GenerateText() error = %v", err)
	}
	if got != "world" {
		t.Errorf("GenerateText() = %s, want world", got)
	}
}

func TestGeminiAdapter_GenerateText_EmptyCandidates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(generateContentResponse{})
	}))
	defer server.Close()

	adapter := NewGeminiAdapter(providers.ProviderConfig{
		APIKey:  "test-key",
		BaseURL: server.URL,
	})

	_, err := adapter.GenerateText(context.Background(), "hello")
	if err == nil {
		t.Fatal("expected error for empty candidates")
	}

	provErr, ok := err.(*providers.ProviderError)
	if !ok {
		t.Fatalf("expected ProviderError, got %T", err)
	}
	if provErr.Code != "EMPTY_RESPONSE" {
		t.Errorf("Code = %s, want EMPTY_RESPONSE", provErr.Code)
	}
}

func TestGeminiAdapter_GenerateText_EmptyText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(generateContentResponse{
			Candidates: []candidate{
				{Content: content{Parts: []part{{Text: ""}}}},
			},
		})
	}))
	defer server.Close()

	adapter := NewGeminiAdapter(providers.ProviderConfig{
		APIKey:  "test-key",
		BaseURL: server.URL,
	})

	_, err := adapter.GenerateText(context.Background(), "hello")
	if err == nil {
		t.Fatal("expected error for empty generated text")
	}

	provErr, ok := err.(*providers.ProviderError)
	if !ok {
		t.Fatalf("expected ProviderError, got %T", err)
	}
	if provErr.Code != "EMPTY_RESPONSE" {
		t.Errorf("Code = %s, want EMPTY_RESPONSE", provErr.Code)
	}
}

func TestGeminiAdapter_TranscribeAudio(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var req generateContentRequest
		if err := json.Unmarshal(body, &req); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}

		parts := req.Contents[0].Parts
		if len(parts) != 2 {
			t.Fatalf("expected 2 parts, got %d", len(parts))
		}
		if parts[1].InlineData == nil {
			t.Fatal("expected inline audio data")
		}
		if parts[1].InlineData.MimeType != "audio/webm" {
			t.Errorf("MimeType = %s, want audio/webm", parts[1].InlineData.MimeType)
		}

		json.NewEncoder(w).Encode(generateContentResponse{
			Candidates: []candidate{
				{Content: content{Parts: []part{{Text: "transcribed lecture"}}}},
			},
		})
	}))
	defer server.Close()

	adapter := NewGeminiAdapter(providers.ProviderConfig{
		APIKey:  "test-key",
		BaseURL: server.URL,
	})

	got, err := adapter.TranscribeAudio(context.Background(), []byte("fake-audio"), "audio/webm")
	if err != nil {
		t.Fatalf("TranscribeAudio() error = %v", err)
	}
	if got != "transcribed lecture" {
		t.Errorf("TranscribeAudio() = %s, want transcribed lecture", got)
	}
}

func TestGeminiAdapter_TranscribeAudio_EmptyAudio(t *testing.T) {
	adapter := NewGeminiAdapter(providers.ProviderConfig{APIKey: "test-key"})

	_, err := adapter.TranscribeAudio(context.Background(), nil, "audio/webm")
	if err == nil {
		t.Fatal("expected error for empty audio")
	}
}

func TestGeminiAdapter_EmbedText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, ":embedContent") {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}

		body, _ := io.ReadAll(r.Body)
		var req embedContentRequest
		if err := json.Unmarshal(body, &req); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
		if req.TaskType != "RETRIEVAL_DOCUMENT" {
			t.Errorf("TaskType = %s, want RETRIEVAL_DOCUMENT", req.TaskType)
		}

		json.NewEncoder(w).Encode(embedContentResponse{
			Embedding: embeddingValues{Values: []float32{0.1, 0.2, 0.3}},
		})
	}))
	defer server.Close()

	adapter := NewGeminiAdapter(providers.ProviderConfig{
		APIKey:  "test-key",
		BaseURL: server.URL,
	})

	got, err := adapter.EmbedText(context.Background(), "some text")
	if err != nil {
		t.Fatalf("EmbedText() error = %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("len(embedding) = %d, want 3", len(got))
	}
	if got[0] != 0.1 {
		t.Errorf("embedding[0] = %f, want 0.1", got[0])
	}
}

func TestGeminiAdapter_EmbedText_EmptyEmbedding(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(embedContentResponse{})
	}))
	defer server.Close()

	adapter := NewGeminiAdapter(providers.ProviderConfig{
		APIKey:  "test-key",
		BaseURL: server.URL,
	})

	_, err := adapter.EmbedText(context.Background(), "some text")
	if err == nil {
		t.Fatal("expected error for empty embedding")
	}
}

func TestGeminiAdapter_RetryOn5xx(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(generateContentResponse{
			Candidates: []candidate{
				{Content: content{Parts: []part{{Text: "recovered"}}}},
			},
		})
	}))
	defer server.Close()

	adapter := NewGeminiAdapter(providers.ProviderConfig{
		APIKey:     "test-key",
		BaseURL:    server.URL,
		MaxRetries: 3,
		RetryDelay: 1 * time.Millisecond,
	})

	got, err := adapter.GenerateText(context.Background(), "hello")
	if err != nil {
		t.Fatalf("GenerateText() error = %v", err)
	}
	if got != "recovered" {
		t.Errorf("GenerateText() = %s, want recovered", got)
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
}

func TestGeminiAdapter_ErrorResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(geminiErrorResponse{
			Error: geminiError{
				Code:    400,
				Message: "invalid argument",
				Status:  "INVALID_ARGUMENT",
			},
		})
	}))
	defer server.Close()

	adapter := NewGeminiAdapter(providers.ProviderConfig{
		APIKey:  "test-key",
		BaseURL: server.URL,
	})

	_, err := adapter.GenerateText(context.Background(), "hello")
	if err == nil {
		t.Fatal("expected error")
	}

	provErr, ok := err.(*providers.ProviderError)
	if !ok {
		t.Fatalf("expected ProviderError, got %T", err)
	}
	if provErr.StatusCode != http.StatusBadRequest {
		t.Errorf("StatusCode = %d, want %d", provErr.StatusCode, http.StatusBadRequest)
	}
	if provErr.Retryable {
		t.Error("400 errors should not be retryable")
	}
	if provErr.Code != "INVALID_ARGUMENT" {
		t.Errorf("Code = %s, want INVALID_ARGUMENT", provErr.Code)
	}
}

func TestGeminiAdapter_RateLimitRetryable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(geminiErrorResponse{
			Error: geminiError{
				Code:    429,
				Message: "quota exceeded",
				Status:  "RESOURCE_EXHAUSTED",
			},
		})
	}))
	defer server.Close()

	adapter := NewGeminiAdapter(providers.ProviderConfig{
		APIKey:  "test-key",
		BaseURL: server.URL,
	})

	_, err := adapter.GenerateText(context.Background(), "hello")
	if err == nil {
		t.Fatal("expected error")
	}

	if !providers.IsRetryable(err) {
		t.Error("429 errors should be retryable")
	}
}

func TestGeminiAdapter_IsAvailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("unexpected method: %s", r.Method)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	adapter := NewGeminiAdapter(providers.ProviderConfig{
		APIKey:  "test-key",
		BaseURL: server.URL,
	})

	if !adapter.IsAvailable(context.Background()) {
		t.Error("IsAvailable() = false, want true")
	}
}
