package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/medassist/claims-backend/internal/config"
	"github.com/medassist/claims-backend/internal/entity"
	pkgRetry "github.com/medassist/claims-backend/internal/pkg/retry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testLLMConfig(baseURL string) config.LLMConnectorConfig {
	return config.LLMConnectorConfig{
		Url:            baseURL,
		Model:          "test-model",
		Temperature:    0.2,
		RequestTimeout: 5 * time.Second,
		ConnTimeout:    time.Second,
		Retry: pkgRetry.RetryConfig{
			Attempts: 3,
			Delay:    time.Millisecond,
			MaxDelay: 5 * time.Millisecond,
		},
	}
}

func TestGenerate(t *testing.T) {
	var gotReq generateRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/generate", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		json.NewEncoder(w).Encode(generateResponse{Response: "  The claim is covered.  ", Done: true})
	}))
	defer server.Close()

	c := NewConnector(testLLMConfig(server.URL), zap.NewNop())

	answer, err := c.Generate(context.Background(), "Is the claim covered?")
	require.NoError(t, err)

	assert.Equal(t, "The claim is covered.", answer)
	assert.Equal(t, "test-model", gotReq.Model)
	assert.False(t, gotReq.Stream)
	assert.Equal(t, 0.2, gotReq.Options["temperature"])
}

func TestGenerate_EmptyAnswerIsGenerationFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(generateResponse{Response: "   ", Done: true})
	}))
	defer server.Close()

	c := NewConnector(testLLMConfig(server.URL), zap.NewNop())

	_, err := c.Generate(context.Background(), "q")
	assert.ErrorIs(t, err, entity.ErrGenerationFailed)
}

func TestGenerate_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(generateResponse{Response: "recovered", Done: true})
	}))
	defer server.Close()

	c := NewConnector(testLLMConfig(server.URL), zap.NewNop())

	answer, err := c.Generate(context.Background(), "q")
	require.NoError(t, err)
	assert.Equal(t, "recovered", answer)
	assert.Equal(t, int32(3), calls.Load())
}

func TestGenerate_ClientErrorsAreNotRetried(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	c := NewConnector(testLLMConfig(server.URL), zap.NewNop())

	_, err := c.Generate(context.Background(), "q")
	require.Error(t, err)
	assert.ErrorIs(t, err, entity.ErrGenerationFailed)
	assert.Equal(t, int32(1), calls.Load(), "4xx responses must not be retried")
}

func TestGenerate_ExhaustedRetriesSurfaceUnavailable(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	c := NewConnector(testLLMConfig(server.URL), zap.NewNop())

	_, err := c.Generate(context.Background(), "q")
	require.Error(t, err)
	assert.ErrorIs(t, err, entity.ErrModelUnavailable)
	assert.Equal(t, int32(3), calls.Load())
}

func TestGenerate_CancelledContextIsTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(time.Second)
		json.NewEncoder(w).Encode(generateResponse{Response: "late"})
	}))
	defer server.Close()

	c := NewConnector(testLLMConfig(server.URL), zap.NewNop())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := c.Generate(ctx, "q")
	require.Error(t, err)
	assert.ErrorIs(t, err, entity.ErrTimeout)
}

func TestMockConnector_EchoesQuestion(t *testing.T) {
	m := NewMockConnector(zap.NewNop())

	answer, err := m.Generate(context.Background(), "Context: ...\n\nQuestion: Is surgery covered?\n\nAnswer:")
	require.NoError(t, err)
	assert.Contains(t, answer, "Is surgery covered?")
}
