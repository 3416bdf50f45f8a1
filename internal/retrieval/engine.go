package retrieval

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/medassist/claims-backend/internal/config"
	"github.com/medassist/claims-backend/internal/entity"
	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

// unfilteredKey is the cache key for the search-everything pipeline
const unfilteredKey = "*"

// Engine hands out compiled QA pipelines per retrieval filter.
// Compiling a pipeline is the expensive part (binding the embedder and
// prompt frame), so pipelines are cached by canonical filter key; idle
// entries expire so the cache stays bounded under many distinct
// filters.
type Engine struct {
	cfg       config.RetrievalConfig
	embedder  Embedder
	generator Generator
	searcher  Searcher
	logger    *zap.Logger

	pipelines *gocache.Cache
	buildMu   sync.Mutex // guards pipeline insertion only; hits stay lock-free
}

func NewEngine(cfg config.RetrievalConfig, embedder Embedder, generator Generator, searcher Searcher, logger *zap.Logger) *Engine {
	return &Engine{
		cfg:       cfg,
		embedder:  embedder,
		generator: generator,
		searcher:  searcher,
		logger:    logger,
		pipelines: gocache.New(cfg.PipelineCacheTTL, 2*cfg.PipelineCacheTTL),
	}
}

// Answer resolves the pipeline for the filter and runs it
func (e *Engine) Answer(ctx context.Context, question string, filter entity.RetrievalFilter) (*entity.QueryResult, error) {
	return e.pipelineFor(filter).Answer(ctx, question)
}

func (e *Engine) pipelineFor(filter entity.RetrievalFilter) *pipeline {
	key, normalized := canonicalFilter(filter)

	if cached, ok := e.pipelines.Get(key); ok {
		return cached.(*pipeline)
	}

	e.buildMu.Lock()
	defer e.buildMu.Unlock()

	// Re-check under the lock; another caller may have built it
	if cached, ok := e.pipelines.Get(key); ok {
		return cached.(*pipeline)
	}

	p := newPipeline(normalized, e.cfg, e.embedder, e.generator, e.searcher)
	e.pipelines.SetDefault(key, p)
	e.logger.Debug("compiled retrieval pipeline", zap.String("filter_key", key))
	return p
}

// canonicalFilter normalizes a filter into a stable cache key: sorted,
// de-duplicated document ids, or a sentinel for "search all".
func canonicalFilter(filter entity.RetrievalFilter) (string, entity.RetrievalFilter) {
	if len(filter.DocumentIDs) == 0 {
		return unfilteredKey, entity.RetrievalFilter{}
	}

	seen := make(map[string]struct{}, len(filter.DocumentIDs))
	ids := make([]string, 0, len(filter.DocumentIDs))
	for _, id := range filter.DocumentIDs {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	sort.Strings(ids)

	return strings.Join(ids, ","), entity.RetrievalFilter{DocumentIDs: ids}
}
