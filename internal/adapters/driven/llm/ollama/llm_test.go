package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/archon-cli/internal/core/domain"
	"github.com/custodia-labs/archon-cli/internal/core/ports/driven"
)

func TestNewLLMService_Defaults(t *testing.T) {
	svc := NewLLMService(LLMConfig{})

	assert.Equal(t, DefaultLLMModel, svc.ModelName())
	assert.Equal(t, DefaultBaseURL, svc.baseURL)
	assert.Equal(t, DefaultLLMTimeout, svc.client.Timeout)
	assert.Equal(t, domain.AIProviderOllama, svc.Provider())
}

func TestGenerate_SendsOptions(t *testing.T) {
	var got generateRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(generateResponse{Response: `{"project_name": "demo app"}`, Done: true})
	}))
	defer srv.Close()

	svc := NewLLMService(LLMConfig{BaseURL: srv.URL + "/", Model: "llama3.2"})
	gen, err := svc.Generate(context.Background(), "describe", driven.GenerateOptions{
		SystemPrompt: "be terse",
		MaxTokens:    4000,
		Temperature:  0.1,
		JSON:         true,
	})
	require.NoError(t, err)

	assert.Equal(t, "describe", got.Prompt)
	assert.Equal(t, "be terse", got.System)
	assert.Equal(t, "json", got.Format)
	assert.False(t, got.Stream)
	require.NotNil(t, got.Options)
	assert.Equal(t, 4000, got.Options.NumPredict)

	assert.Equal(t, domain.AIProviderOllama, gen.Provider)
	assert.Equal(t, "llama3.2", gen.Model)
	assert.Equal(t, 3, gen.TokensUsed)
	assert.InDelta(t, 0.7, gen.Confidence, 1e-9)
	assert.Zero(t, gen.CostUSD)
}

func TestGenerate_UsesEvalCounts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(generateResponse{Response: "{}", Done: true, PromptEvalCount: 120, EvalCount: 30})
	}))
	defer srv.Close()

	gen, err := NewLLMService(LLMConfig{BaseURL: srv.URL}).Generate(context.Background(), "x", driven.GenerateOptions{})
	require.NoError(t, err)
	assert.Equal(t, 150, gen.TokensUsed)
}

func TestGenerate_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewLLMService(LLMConfig{BaseURL: srv.URL}).Generate(context.Background(), "x", driven.GenerateOptions{})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrLLMUnavailable)
	assert.Contains(t, err.Error(), "status 404: model not found")
}

func TestGenerate_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := NewLLMService(LLMConfig{BaseURL: srv.URL}).Generate(context.Background(), "x", driven.GenerateOptions{})
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrLLMUnavailable)
	assert.Contains(t, err.Error(), "status 503: overloaded")
}

func TestGenerate_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewLLMService(LLMConfig{BaseURL: url}).Generate(context.Background(), "x", driven.GenerateOptions{})
	assert.ErrorIs(t, err, domain.ErrLLMUnavailable)
}

func TestGenerate_EmptyResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(generateResponse{Response: "  ", Done: true})
	}))
	defer srv.Close()

	_, err := NewLLMService(LLMConfig{BaseURL: srv.URL}).Generate(context.Background(), "x", driven.GenerateOptions{})
	assert.ErrorIs(t, err, domain.ErrInvalidResponse)
}

func TestPing(t *testing.T) {
	var status atomic.Int32
	status.Store(http.StatusOK)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/tags", r.URL.Path)
		if code := int(status.Load()); code != http.StatusOK {
			w.WriteHeader(code)
			return
		}
		_, _ = w.Write([]byte(`{"models":[{"name":"llama3.2:latest"},{"name":"mistral:7b"}]}`))
	}))
	defer srv.Close()

	assert.NoError(t, NewLLMService(LLMConfig{BaseURL: srv.URL}).Ping(context.Background()))
	assert.NoError(t, NewLLMService(LLMConfig{BaseURL: srv.URL, Model: "mistral:7b"}).Ping(context.Background()))

	err := NewLLMService(LLMConfig{BaseURL: srv.URL, Model: "qwen2"}).Ping(context.Background())
	require.ErrorIs(t, err, domain.ErrLLMUnavailable)
	assert.Contains(t, err.Error(), "ollama pull qwen2")

	svc := NewLLMService(LLMConfig{BaseURL: srv.URL})
	status.Store(http.StatusInternalServerError)
	assert.Error(t, svc.Ping(context.Background()))
	assert.NoError(t, svc.Close())
}
