package embedding

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"

	"github.com/avast/retry-go/v4"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"github.com/medassist/claims-backend/internal/config"
	"github.com/medassist/claims-backend/internal/entity"
	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// Connector maps text to fixed-length vectors via an OpenAI-compatible
// embeddings API. It holds no per-call state and is safe to share
// across concurrent callers; construct one at startup and inject it.
type Connector struct {
	client *openai.Client
	config config.EmbeddingConnectorConfig
	logger *zap.Logger
}

func NewConnector(cfg config.EmbeddingConnectorConfig, logger *zap.Logger) (*Connector, error) {
	if cfg.APIKey == "" && cfg.BaseURL == "" {
		return nil, fmt.Errorf("%w: embedding API key is required when no local base URL is set", entity.ErrInvalidConfig)
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	clientCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	return &Connector{
		client: openai.NewClientWithConfig(clientCfg),
		config: cfg,
		logger: logger,
	}, nil
}

// Dimension returns the fixed vector length produced by the model
func (c *Connector) Dimension() int {
	return c.config.Dimension
}

// Embed generates one embedding vector
func (c *Connector) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := c.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch generates embeddings for texts, preserving order. Calls
// are retried with backoff while the backend is unavailable, then
// surfaced as ModelUnavailable.
func (c *Connector) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	vectors := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += c.config.BatchSize {
		end := start + c.config.BatchSize
		if end > len(texts) {
			end = len(texts)
		}

		batch, err := c.embedBatch(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		vectors = append(vectors, batch...)
	}

	return vectors, nil
}

func (c *Connector) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	var resp openai.EmbeddingResponse

	err := retry.Do(func() error {
		var reqErr error
		resp, reqErr = c.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
			Model: openai.EmbeddingModel(c.config.Model),
			Input: texts,
		})
		if reqErr != nil {
			ctxzap.Warn(ctx, "embedding request failed", zap.Error(reqErr))
			return c.classify(reqErr)
		}
		return nil
	}, append(c.config.Retry.ToRetryOptions(),
		retry.Context(ctx),
		retry.RetryIf(func(err error) bool { return errors.Is(err, entity.ErrModelUnavailable) }),
	)...)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %v", entity.ErrTimeout, err)
		}
		return nil, err
	}

	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("%w: embedding backend returned %d vectors for %d inputs",
			entity.ErrModelUnavailable, len(resp.Data), len(texts))
	}

	vectors := make([][]float32, len(texts))
	for _, item := range resp.Data {
		if item.Index < 0 || item.Index >= len(texts) {
			return nil, fmt.Errorf("%w: embedding backend returned out-of-range index %d",
				entity.ErrModelUnavailable, item.Index)
		}
		if len(item.Embedding) != c.config.Dimension {
			return nil, fmt.Errorf("%w: model produced dimension %d, configured %d",
				entity.ErrInvalidConfig, len(item.Embedding), c.config.Dimension)
		}
		v := make([]float32, len(item.Embedding))
		copy(v, item.Embedding)
		l2normalize(v)
		vectors[item.Index] = v
	}

	return vectors, nil
}

// classify maps backend failures onto the domain taxonomy. Server and
// transport errors are retryable ModelUnavailable; anything the backend
// rejected as bad input is not.
func (c *Connector) classify(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode >= 400 && apiErr.HTTPStatusCode < 500 &&
		apiErr.HTTPStatusCode != http.StatusTooManyRequests {
		return fmt.Errorf("embedding request rejected: %w", err)
	}
	return fmt.Errorf("%w: %v", entity.ErrModelUnavailable, err)
}

// l2normalize scales a vector to unit length so cosine similarity and
// inner product agree.
func l2normalize(v []float32) {
	var sum float32
	for _, x := range v {
		sum += x * x
	}
	if sum == 0 {
		return
	}
	inv := float32(1.0 / math.Sqrt(float64(sum)))
	for i := range v {
		v[i] *= inv
	}
}
