package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/avast/retry-go/v4"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"github.com/medassist/claims-backend/internal/config"
	"github.com/medassist/claims-backend/internal/entity"
	pkghttp "github.com/medassist/claims-backend/pkg/http"
	"go.uber.org/zap"
)

// Connector calls an Ollama-compatible generation API for answer
// synthesis
type Connector struct {
	config    config.LLMConnectorConfig
	connector *pkghttp.Connector
	logger    *zap.Logger
}

type generateRequest struct {
	Model   string         `json:"model"`
	Prompt  string         `json:"prompt"`
	Stream  bool           `json:"stream"`
	Options map[string]any `json:"options,omitempty"`
}

type generateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

func NewConnector(cfg config.LLMConnectorConfig, logger *zap.Logger) *Connector {
	connector := pkghttp.NewConnector(
		&pkghttp.ConnectorConfig{
			BaseURL: cfg.Url,
			Logger:  logger,
		},
		pkghttp.WithRequestTimeout(cfg.RequestTimeout),
		pkghttp.WithConnTimeout(cfg.ConnTimeout),
		pkghttp.WithKeepAlive(cfg.KeepAlive),
		pkghttp.WithIdleConnTimeout(cfg.IdleConnTimeout),
		pkghttp.WithResponseHeaderTimeout(cfg.ResponseHeaderTimeout),
		pkghttp.WithRequestLogging(),
		pkghttp.WithAuthToken(cfg.Token),
	)

	return &Connector{
		config:    cfg,
		connector: connector,
		logger:    logger,
	}
}

// Generate synthesizes an answer from the assembled prompt. Transient
// backend failures are retried with backoff and surfaced as
// ModelUnavailable once attempts are exhausted.
func (c *Connector) Generate(ctx context.Context, prompt string) (string, error) {
	ctxzap.Debug(ctx, "generating answer via LLM service", zap.Int("prompt_length", len(prompt)))

	req := generateRequest{
		Model:  c.config.Model,
		Prompt: prompt,
		Stream: false,
		Options: map[string]any{
			"temperature": c.config.Temperature,
		},
	}

	var resp generateResponse
	err := retry.Do(func() error {
		resp = generateResponse{}
		if reqErr := c.connector.DoRequest(ctx, http.MethodPost, "/api/generate", req, &resp); reqErr != nil {
			ctxzap.Warn(ctx, "generation request failed", zap.Error(reqErr))
			return classify(reqErr)
		}
		return nil
	}, append(c.config.Retry.ToRetryOptions(),
		retry.Context(ctx),
		retry.RetryIf(func(err error) bool { return errors.Is(err, entity.ErrModelUnavailable) }),
	)...)
	if err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("%w: %v", entity.ErrTimeout, err)
		}
		return "", err
	}

	answer := strings.TrimSpace(resp.Response)
	if answer == "" {
		return "", fmt.Errorf("%w: model returned an empty answer", entity.ErrGenerationFailed)
	}

	ctxzap.Info(ctx, "answer generated", zap.Int("answer_length", len(answer)))
	return answer, nil
}

func classify(err error) error {
	var httpErr *pkghttp.HTTPError
	if errors.As(err, &httpErr) && httpErr.StatusCode >= 400 && httpErr.StatusCode < 500 &&
		httpErr.StatusCode != http.StatusTooManyRequests {
		return fmt.Errorf("%w: %v", entity.ErrGenerationFailed, err)
	}
	return fmt.Errorf("%w: %v", entity.ErrModelUnavailable, err)
}
