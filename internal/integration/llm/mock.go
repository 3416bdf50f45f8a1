package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// MockConnector fabricates answers without a model backend
type MockConnector struct {
	logger *zap.Logger
}

func NewMockConnector(logger *zap.Logger) *MockConnector {
	return &MockConnector{logger: logger}
}

func (m *MockConnector) Generate(ctx context.Context, prompt string) (string, error) {
	ctxzap.Info(ctx, "[MOCK] generating answer", zap.Int("prompt_length", len(prompt)))

	// Echo the question back so responses are traceable in local runs
	question := ""
	if idx := strings.LastIndex(prompt, "Question:"); idx >= 0 {
		question = strings.TrimSpace(strings.Split(prompt[idx+len("Question:"):], "\n")[0])
	}

	return fmt.Sprintf("This is a mock answer to: %q. Configure a real model backend to get grounded answers.", question), nil
}
