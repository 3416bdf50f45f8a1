// Package index implements the persistent vector store. Entries are
// keyed by chunk id and grouped into one JSONL segment file per source
// document; writes are flushed and atomically renamed before Upsert
// returns, so an index survives process restart without re-embedding.
package index

import (
	"bufio"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/medassist/claims-backend/internal/entity"
	"go.uber.org/zap"
)

const (
	metaFile      = "collection.json"
	segmentPrefix = "seg-"
	segmentSuffix = ".jsonl"
)

// Entry is the persisted form of a document chunk
type Entry struct {
	ChunkID    string                  `json:"chunk_id"`
	DocumentID string                  `json:"document_id"`
	Position   int                     `json:"position"`
	Text       string                  `json:"text"`
	Embedding  []float32               `json:"embedding"`
	Metadata   entity.DocumentMetadata `json:"metadata"`
	Seq        uint64                  `json:"seq"`
}

// ScoredEntry is one search hit
type ScoredEntry struct {
	Entry Entry
	Score float32
}

type collectionMeta struct {
	Collection string `json:"collection"`
	Dimension  int    `json:"dimension"`
}

// snapshot is an immutable view of the index. Searches read it without
// taking any lock; writers build a new one and swap the pointer.
type snapshot struct {
	entries []Entry        // insertion order
	byID    map[string]int // chunk id -> position in entries
}

// Store is a durable vector index over one collection directory
type Store struct {
	dir     string
	dim     int
	logger  *zap.Logger
	mu      sync.Mutex // serializes Upsert and Delete
	snap    atomic.Pointer[snapshot]
	nextSeq uint64
}

// Open loads (or creates) the collection under dir. The embedding
// dimension is fixed for the lifetime of the collection; opening an
// existing collection with a different dimension fails, since mixing
// vectors from different models would poison search.
func Open(dir string, dimension int, logger *zap.Logger) (*Store, error) {
	if dimension <= 0 {
		return nil, fmt.Errorf("%w: embedding dimension must be positive, got %d", entity.ErrInvalidConfig, dimension)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create index directory: %w", err)
	}

	s := &Store{dir: dir, dim: dimension, logger: logger}

	if err := s.loadOrInitMeta(); err != nil {
		return nil, err
	}

	snap, maxSeq, err := s.loadSegments()
	if err != nil {
		return nil, err
	}
	s.snap.Store(snap)
	s.nextSeq = maxSeq + 1

	logger.Info("vector index opened",
		zap.String("dir", dir),
		zap.Int("dimension", dimension),
		zap.Int("entries", len(snap.entries)),
	)

	return s, nil
}

// Len returns the number of indexed entries
func (s *Store) Len() int {
	return len(s.snap.Load().entries)
}

// Upsert writes entries into the index, replacing any existing entry
// with the same chunk id. The affected document segments are durable on
// disk before Upsert returns.
func (s *Store) Upsert(entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}
	for _, e := range entries {
		if len(e.Embedding) != s.dim {
			return fmt.Errorf("%w: entry %s has embedding dimension %d, index expects %d",
				entity.ErrInvalidConfig, e.ChunkID, len(e.Embedding), s.dim)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cur := s.snap.Load()
	next := cur.clone()

	touched := make(map[string]struct{})
	for _, e := range entries {
		e.Seq = s.nextSeq
		s.nextSeq++
		touched[e.DocumentID] = struct{}{}

		if pos, ok := next.byID[e.ChunkID]; ok {
			// Replacement keeps the original insertion position so
			// search tie-breaks stay stable.
			e.Seq = next.entries[pos].Seq
			next.entries[pos] = e
			continue
		}
		next.byID[e.ChunkID] = len(next.entries)
		next.entries = append(next.entries, e)
	}

	for docID := range touched {
		if err := s.writeSegment(docID, next.byDocument(docID)); err != nil {
			return err
		}
	}

	s.snap.Store(next)
	return nil
}

// Search returns the k nearest entries by cosine similarity, highest
// first, ties broken by insertion order. A filter with document ids
// restricts the candidate set.
func (s *Store) Search(query []float32, k int, filter entity.RetrievalFilter) ([]ScoredEntry, error) {
	if len(query) != s.dim {
		return nil, fmt.Errorf("%w: query dimension %d, index expects %d", entity.ErrInvalidConfig, len(query), s.dim)
	}
	if k <= 0 {
		return nil, nil
	}

	var allowed map[string]struct{}
	if len(filter.DocumentIDs) > 0 {
		allowed = make(map[string]struct{}, len(filter.DocumentIDs))
		for _, id := range filter.DocumentIDs {
			allowed[id] = struct{}{}
		}
	}

	snap := s.snap.Load()
	results := make([]ScoredEntry, 0, len(snap.entries))
	for _, e := range snap.entries {
		if allowed != nil {
			if _, ok := allowed[e.DocumentID]; !ok {
				continue
			}
		}
		results = append(results, ScoredEntry{Entry: e, Score: cosine(query, e.Embedding)})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if k < len(results) {
		results = results[:k]
	}
	return results, nil
}

// Delete removes every entry belonging to documentID and its segment
// file, returning the number of entries removed.
func (s *Store) Delete(documentID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur := s.snap.Load()

	removed := 0
	next := &snapshot{byID: make(map[string]int)}
	for _, e := range cur.entries {
		if e.DocumentID == documentID {
			removed++
			continue
		}
		next.byID[e.ChunkID] = len(next.entries)
		next.entries = append(next.entries, e)
	}
	if removed == 0 {
		return 0, nil
	}

	path := s.segmentPath(documentID)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return 0, fmt.Errorf("remove segment: %w", err)
	}

	s.snap.Store(next)
	return removed, nil
}

func (s *Store) loadOrInitMeta() error {
	path := filepath.Join(s.dir, metaFile)

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		meta := collectionMeta{Collection: filepath.Base(s.dir), Dimension: s.dim}
		raw, err := json.Marshal(meta)
		if err != nil {
			return fmt.Errorf("marshal collection meta: %w", err)
		}
		return atomicWrite(path, raw)
	}
	if err != nil {
		return fmt.Errorf("read collection meta: %w", err)
	}

	var meta collectionMeta
	if err := json.Unmarshal(data, &meta); err != nil {
		return fmt.Errorf("parse collection meta: %w", err)
	}
	if meta.Dimension != s.dim {
		return fmt.Errorf("%w: collection was built with dimension %d, provider produces %d; full re-index required",
			entity.ErrInvalidConfig, meta.Dimension, s.dim)
	}
	return nil
}

func (s *Store) loadSegments() (*snapshot, uint64, error) {
	files, err := filepath.Glob(filepath.Join(s.dir, segmentPrefix+"*"+segmentSuffix))
	if err != nil {
		return nil, 0, fmt.Errorf("list segments: %w", err)
	}

	var entries []Entry
	var maxSeq uint64
	for _, path := range files {
		f, err := os.Open(path)
		if err != nil {
			return nil, 0, fmt.Errorf("open segment %s: %w", path, err)
		}

		scanner := bufio.NewScanner(f)
		scanner.Buffer(make([]byte, 0, 1024*1024), 16*1024*1024)
		for scanner.Scan() {
			var e Entry
			if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
				f.Close()
				return nil, 0, fmt.Errorf("parse segment %s: %w", path, err)
			}
			if len(e.Embedding) != s.dim {
				f.Close()
				return nil, 0, fmt.Errorf("%w: segment %s entry %s has dimension %d, index expects %d",
					entity.ErrInvalidConfig, path, e.ChunkID, len(e.Embedding), s.dim)
			}
			if e.Seq > maxSeq {
				maxSeq = e.Seq
			}
			entries = append(entries, e)
		}
		if err := scanner.Err(); err != nil {
			f.Close()
			return nil, 0, fmt.Errorf("read segment %s: %w", path, err)
		}
		f.Close()
	}

	// Restore insertion order across segment files
	sort.Slice(entries, func(i, j int) bool { return entries[i].Seq < entries[j].Seq })

	snap := &snapshot{entries: entries, byID: make(map[string]int, len(entries))}
	for i, e := range entries {
		snap.byID[e.ChunkID] = i
	}
	return snap, maxSeq, nil
}

func (s *Store) writeSegment(documentID string, entries []Entry) error {
	var buf strings.Builder
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	for _, e := range entries {
		if err := enc.Encode(e); err != nil {
			return fmt.Errorf("encode entry %s: %w", e.ChunkID, err)
		}
	}
	return atomicWrite(s.segmentPath(documentID), []byte(buf.String()))
}

func (s *Store) segmentPath(documentID string) string {
	// Document ids come from callers; hex-encode so any id is a safe
	// file name.
	return filepath.Join(s.dir, segmentPrefix+hex.EncodeToString([]byte(documentID))+segmentSuffix)
}

func (snap *snapshot) clone() *snapshot {
	next := &snapshot{
		entries: make([]Entry, len(snap.entries)),
		byID:    make(map[string]int, len(snap.byID)),
	}
	copy(next.entries, snap.entries)
	for id, pos := range snap.byID {
		next.byID[id] = pos
	}
	return next
}

func (snap *snapshot) byDocument(documentID string) []Entry {
	var out []Entry
	for _, e := range snap.entries {
		if e.DocumentID == documentID {
			out = append(out, e)
		}
	}
	return out
}

// atomicWrite writes data to a temp file, fsyncs it and renames it into
// place so readers never observe a partially written segment.
func atomicWrite(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

// cosine computes cosine similarity; vectors are expected to be of
// equal length by the dimension checks above.
func cosine(a, b []float32) float32 {
	var dot, na, nb float32
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (float32(math.Sqrt(float64(na))) * float32(math.Sqrt(float64(nb))))
}
