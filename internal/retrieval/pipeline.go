// Package retrieval orchestrates question answering over the vector
// index: embed the question, run a filtered search, assemble a bounded
// context and synthesize an answer.
package retrieval

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"github.com/medassist/claims-backend/internal/config"
	"github.com/medassist/claims-backend/internal/entity"
	"github.com/medassist/claims-backend/internal/index"
	"go.uber.org/zap"
)

// promptTemplate is the fixed instruction frame for the synthesis
// model; %s slots are the assembled context and the question.
const promptTemplate = `You are a medical claims assistant. Use the provided context to answer questions about medical claims, policies, and procedures.

Context from documents:
%s

Question: %s

Instructions:
- Only use information from the provided context
- If the answer is not in the context, say "I cannot find this information in the provided documents"
- Focus on policy numbers, patient details, procedures, diagnosis codes, and claim amounts
- Be precise and factual

Answer:`

// Embedder turns text into a query vector
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Generator synthesizes an answer from an assembled prompt
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Searcher is the read side of the vector index
type Searcher interface {
	Search(query []float32, k int, filter entity.RetrievalFilter) ([]index.ScoredEntry, error)
}

// pipeline is a QA pipeline compiled for one normalized filter. It
// holds configuration only; every Answer call searches the live index,
// so cached pipelines never serve stale documents.
type pipeline struct {
	filter     entity.RetrievalFilter
	topK       int
	charBudget int
	embedder   Embedder
	generator  Generator
	searcher   Searcher
}

func newPipeline(filter entity.RetrievalFilter, cfg config.RetrievalConfig, embedder Embedder, generator Generator, searcher Searcher) *pipeline {
	return &pipeline{
		filter:     filter,
		topK:       cfg.TopK,
		charBudget: cfg.ContextCharBudget,
		embedder:   embedder,
		generator:  generator,
		searcher:   searcher,
	}
}

// Answer runs the full pipeline for one question. When synthesis fails
// the retrieved sources are attached to the error so partial success
// stays reportable.
func (p *pipeline) Answer(ctx context.Context, question string) (*entity.QueryResult, error) {
	vector, err := p.embedder.Embed(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("embed question: %w", err)
	}

	hits, err := p.searcher.Search(vector, p.topK, p.filter)
	if err != nil {
		return nil, fmt.Errorf("search index: %w", err)
	}

	sources := make([]entity.Source, 0, len(hits))
	for _, hit := range hits {
		sources = append(sources, entity.Source{
			Text:     hit.Entry.Text,
			Metadata: hit.Entry.Metadata,
			Score:    hit.Score,
		})
	}

	ctxzap.Debug(ctx, "retrieved context chunks",
		zap.Int("hits", len(hits)),
		zap.Int("filter_documents", len(p.filter.DocumentIDs)),
	)

	prompt := fmt.Sprintf(promptTemplate, p.assembleContext(hits), question)

	answer, err := p.generator.Generate(ctx, prompt)
	if err != nil {
		if errors.Is(err, entity.ErrTimeout) || ctx.Err() != nil {
			return nil, fmt.Errorf("synthesize answer: %w", err)
		}
		return nil, &entity.GenerationError{Err: err, Sources: sources}
	}

	return &entity.QueryResult{Answer: answer, Sources: sources}, nil
}

// assembleContext joins chunk texts in descending score order and stops
// once the character budget is reached, so the lowest-scoring chunks
// are the first to be truncated.
func (p *pipeline) assembleContext(hits []index.ScoredEntry) string {
	var b strings.Builder
	for _, hit := range hits {
		block := len(hit.Entry.Text) + 2
		if b.Len() > 0 && b.Len()+block > p.charBudget {
			break
		}
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		if len(hit.Entry.Text) > p.charBudget {
			runes := []rune(hit.Entry.Text)
			if len(runes) > p.charBudget {
				runes = runes[:p.charBudget]
			}
			b.WriteString(string(runes))
			break
		}
		b.WriteString(hit.Entry.Text)
	}
	return b.String()
}
