package embedding

import (
	"context"
	"hash/fnv"
	"math"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// MockConnector produces deterministic embeddings without a backend.
// Similar texts do not get similar vectors; it only preserves the
// provider contract (fixed dimension, unit length, same text -> same
// vector), which is enough for local runs and tests.
type MockConnector struct {
	dim    int
	logger *zap.Logger
}

func NewMockConnector(dimension int, logger *zap.Logger) *MockConnector {
	return &MockConnector{dim: dimension, logger: logger}
}

func (m *MockConnector) Dimension() int {
	return m.dim
}

func (m *MockConnector) Embed(ctx context.Context, text string) ([]float32, error) {
	ctxzap.Debug(ctx, "[MOCK] embedding text", zap.Int("length", len(text)))

	v := make([]float32, m.dim)
	h := fnv.New32a()
	for i, r := range text {
		h.Reset()
		h.Write([]byte{byte(i), byte(r), byte(r >> 8)})
		v[int(h.Sum32())%m.dim] += float32(r%31) + 1
	}

	var sum float32
	for _, x := range v {
		sum += x * x
	}
	if sum > 0 {
		inv := float32(1.0 / math.Sqrt(float64(sum)))
		for i := range v {
			v[i] *= inv
		}
	}
	return v, nil
}

func (m *MockConnector) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		v, err := m.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		vectors[i] = v
	}
	return vectors, nil
}
