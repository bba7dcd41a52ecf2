// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package session persists completed research runs under user-chosen
// names and answers similarity queries against them. Each session is a
// directory holding bundle.yaml (the annotated papers, insights, and
// directions) and index.db (a SQLite table of embedded text chunks).
// Writes are staged in a temp directory and renamed into place, so a
// failed store never leaves a partial session behind.
//
// The store assumes a single writer. Concurrent processes mutating the
// same session directory are not coordinated.
package session

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/research-assistant/internal/ratelimit"
	"github.com/pdiddy/research-assistant/pkg/types"
)

const (
	bundleFile = "bundle.yaml"
	indexFile  = "index.db"

	// Backend is the rate limiter backend name for embedding calls.
	Backend = "embeddings"
)

var (
	// ErrNameConflict is returned by Store when the session already
	// exists and overwrite was not requested.
	ErrNameConflict = errors.New("session already exists")

	// ErrNotFound is returned when the named session does not exist.
	ErrNotFound = errors.New("session not found")

	// ErrEmbeddingUnavailable is returned when the embedding backend is
	// not configured or cannot be reached.
	ErrEmbeddingUnavailable = errors.New("embedding backend unavailable")
)

// CorruptSessionError is returned by Load when a session directory
// exists but its bundle or index cannot be read.
type CorruptSessionError struct {
	Name string
	Err  error
}

func (e *CorruptSessionError) Error() string {
	return fmt.Sprintf("session %s is corrupt: %v", e.Name, e.Err)
}

func (e *CorruptSessionError) Unwrap() error { return e.Err }

// DimensionMismatchError is returned when the embedding backend
// produces vectors of a different width than the stored index: by
// Query when the query vector does not match a stored chunk, and by
// Update when fresh chunks would mix widths into an existing index.
type DimensionMismatchError struct {
	Want int
	Got  int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("embedding dimension mismatch: index has %d, backend returned %d", e.Want, e.Got)
}

// Embedder turns text into fixed-width vectors.
type Embedder interface {
	// Configured reports whether the backend has credentials.
	Configured() bool

	// Embed returns one vector per input text, in input order.
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Match is one similarity query result.
type Match struct {
	Chunk Chunk
	Score float64
}

// Store manages the session directory tree.
type Store struct {
	root     string
	embedder Embedder
	limiter  *ratelimit.Limiter
}

// NewStore builds a Store rooted at cfg.Dir. The embedder may be nil;
// storing or querying then fails with ErrEmbeddingUnavailable.
func NewStore(cfg types.StorageConfig, embedder Embedder, limiter *ratelimit.Limiter) *Store {
	root := cfg.Dir
	if root == "" {
		root = "sessions"
	}
	return &Store{root: root, embedder: embedder, limiter: limiter}
}

// validateName rejects empty names and names that would escape the
// store root.
func validateName(name string) error {
	if name == "" {
		return errors.New("session name is empty")
	}
	if strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return fmt.Errorf("invalid session name %q", name)
	}
	return nil
}

func (s *Store) dir(name string) string {
	return filepath.Join(s.root, name)
}

// Store persists bundle under bundle.Name. It derives text chunks from
// the bundle, embeds them, and writes bundle.yaml plus index.db to a
// staging directory before renaming it into place. Returns
// ErrNameConflict when the session exists and overwrite is false.
func (s *Store) Store(ctx context.Context, bundle types.SessionBundle, overwrite bool) error {
	if err := validateName(bundle.Name); err != nil {
		return err
	}

	dir := s.dir(bundle.Name)
	if _, err := os.Stat(dir); err == nil {
		if !overwrite {
			return fmt.Errorf("%w: %s", ErrNameConflict, bundle.Name)
		}
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("checking session directory: %w", err)
	}

	chunks := bundleChunks(bundle)
	if err := s.embedChunks(ctx, chunks); err != nil {
		return err
	}

	return s.writeSession(bundle, chunks)
}

// writeSession stages bundle.yaml and index.db in a temp directory
// under the store root, then renames it over the session directory.
func (s *Store) writeSession(bundle types.SessionBundle, chunks []Chunk) error {
	if err := os.MkdirAll(s.root, 0o755); err != nil {
		return fmt.Errorf("creating store root: %w", err)
	}

	staging, err := os.MkdirTemp(s.root, ".staging-*")
	if err != nil {
		return fmt.Errorf("creating staging directory: %w", err)
	}
	defer os.RemoveAll(staging)

	data, err := yaml.Marshal(bundle)
	if err != nil {
		return fmt.Errorf("encoding bundle: %w", err)
	}
	if err := os.WriteFile(filepath.Join(staging, bundleFile), data, 0o644); err != nil {
		return fmt.Errorf("writing bundle: %w", err)
	}

	if err := writeIndex(filepath.Join(staging, indexFile), chunks); err != nil {
		return fmt.Errorf("writing index: %w", err)
	}

	dir := s.dir(bundle.Name)
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("removing old session: %w", err)
	}
	if err := os.Rename(staging, dir); err != nil {
		return fmt.Errorf("installing session: %w", err)
	}
	return nil
}

// embedChunks fills each chunk's Embedding through the rate limiter.
func (s *Store) embedChunks(ctx context.Context, chunks []Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}
	vectors, err := s.embed(ctx, texts)
	if err != nil {
		return err
	}
	if len(vectors) != len(chunks) {
		return fmt.Errorf("%w: got %d vectors for %d chunks", ErrEmbeddingUnavailable, len(vectors), len(chunks))
	}
	for i := range chunks {
		chunks[i].Embedding = vectors[i]
	}
	return nil
}

// embed calls the embedder through the limiter, mapping backend
// exhaustion and missing configuration to ErrEmbeddingUnavailable.
func (s *Store) embed(ctx context.Context, texts []string) ([][]float32, error) {
	if s.embedder == nil || !s.embedder.Configured() {
		return nil, ErrEmbeddingUnavailable
	}

	var vectors [][]float32
	err := s.limiter.Do(ctx, Backend, func(ctx context.Context) error {
		var callErr error
		vectors, callErr = s.embedder.Embed(ctx, texts)
		return callErr
	})
	if err != nil {
		var exhausted *ratelimit.ExhaustedError
		if errors.As(err, &exhausted) {
			return nil, fmt.Errorf("%w: %v", ErrEmbeddingUnavailable, err)
		}
		return nil, err
	}
	return vectors, nil
}

// Load reads the named session's bundle. Returns ErrNotFound when the
// session does not exist and *CorruptSessionError when its bundle
// cannot be deserialized.
func (s *Store) Load(name string) (*types.SessionBundle, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}

	path := filepath.Join(s.dir(name), bundleFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return nil, &CorruptSessionError{Name: name, Err: err}
	}

	var bundle types.SessionBundle
	if err := yaml.Unmarshal(data, &bundle); err != nil {
		return nil, &CorruptSessionError{Name: name, Err: err}
	}
	return &bundle, nil
}

// Query embeds text and returns the k most similar chunks from the
// named session's index, ranked by descending cosine similarity with
// chunk-id tie-break. k is clamped to the index size.
func (s *Store) Query(ctx context.Context, name, text string, k int) ([]Match, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	if k < 1 {
		return nil, fmt.Errorf("k must be >= 1, got %d", k)
	}

	indexPath := filepath.Join(s.dir(name), indexFile)
	if _, err := os.Stat(indexPath); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return nil, fmt.Errorf("checking index: %w", err)
	}

	chunks, err := readIndex(indexPath)
	if err != nil {
		return nil, &CorruptSessionError{Name: name, Err: err}
	}
	if len(chunks) == 0 {
		return nil, nil
	}

	vectors, err := s.embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("%w: got %d vectors for query", ErrEmbeddingUnavailable, len(vectors))
	}
	query := vectors[0]

	// Every stored vector must match the query width, not just the
	// first: an index written across embedding-model changes could
	// otherwise hold mixed widths.
	matches := make([]Match, 0, len(chunks))
	for _, c := range chunks {
		if len(c.Embedding) != len(query) {
			return nil, &DimensionMismatchError{Want: len(c.Embedding), Got: len(query)}
		}
		matches = append(matches, Match{Chunk: c, Score: cosine(query, c.Embedding)})
	}
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].Chunk.ID < matches[j].Chunk.ID
	})

	if k > len(matches) {
		k = len(matches)
	}
	return matches[:k], nil
}

// Update appends deduped newPapers to the named session's bundle,
// replaces its insights when newInsights is non-nil, and extends the
// index with chunks for the added material. Existing chunks keep their
// embeddings; only new chunks are embedded. Chunks are appended
// without chunk-level dedup, so re-adding a paper whose text changed
// leaves both generations queryable.
func (s *Store) Update(ctx context.Context, name string, newPapers []types.Paper, newInsights *types.Insights) (*types.SessionBundle, error) {
	bundle, err := s.Load(name)
	if err != nil {
		return nil, err
	}

	existing, err := readIndex(filepath.Join(s.dir(name), indexFile))
	if err != nil {
		return nil, &CorruptSessionError{Name: name, Err: err}
	}

	seen := make(map[string]bool, len(bundle.Papers))
	for _, p := range bundle.Papers {
		seen[p.ID] = true
	}

	var added []types.Paper
	for _, p := range newPapers {
		if p.ID == "" || seen[p.ID] {
			continue
		}
		seen[p.ID] = true
		added = append(added, p)
	}
	bundle.Papers = append(bundle.Papers, added...)

	var fresh []Chunk
	for _, p := range added {
		fresh = append(fresh, paperChunks(p)...)
	}
	if newInsights != nil {
		bundle.Insights = *newInsights
		fresh = append(fresh, insightChunks(*newInsights)...)
	}

	if len(fresh) > 0 {
		if err := s.embedChunks(ctx, fresh); err != nil {
			return nil, err
		}
		// Refuse to mix vector widths in one index: appending chunks
		// from a different embedding model would make later queries
		// fail on whichever width they don't match.
		if len(existing) > 0 {
			want := len(existing[0].Embedding)
			for _, c := range fresh {
				if len(c.Embedding) != want {
					return nil, &DimensionMismatchError{Want: want, Got: len(c.Embedding)}
				}
			}
		}
	}

	if err := s.writeSession(*bundle, append(existing, fresh...)); err != nil {
		return nil, err
	}
	return bundle, nil
}

// List returns the stored session names in sorted order.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading store root: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() && !strings.HasPrefix(e.Name(), ".") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// Delete removes the named session. Deleting a session that does not
// exist is not an error.
func (s *Store) Delete(name string) error {
	if err := validateName(name); err != nil {
		return err
	}
	if err := os.RemoveAll(s.dir(name)); err != nil {
		return fmt.Errorf("deleting session %s: %w", name, err)
	}
	return nil
}

// cosine computes cosine similarity between equal-length vectors.
// Returns 0 when either vector has zero magnitude.
func cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
