// Package corpus stores and queries chunked material in per-namespace vector indexes.
package corpus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/kailas-cloud/screener/internal/db"
	"github.com/kailas-cloud/screener/internal/domain"
	"github.com/kailas-cloud/screener/internal/domain/retrieval/chunk"
	"github.com/kailas-cloud/screener/internal/domain/retrieval/filter"
	"github.com/kailas-cloud/screener/internal/domain/retrieval/match"
)

// Hash field names shared by every namespace index.
const (
	FieldWorkspace = "workspace_id"
	FieldCase      = "case_id"
	FieldCategory  = "category"
	FieldParent    = "parent_id"
	FieldChunk     = "chunk"
	FieldContent   = "content"
	FieldMetadata  = "metadata"
	FieldVector    = "vector"
)

// TextMetadataKey carries the matched chunk text back to callers.
const TextMetadataKey = "text"

// store is the consumer interface for the corpus (ISP).
type store interface {
	HSetMulti(ctx context.Context, items []db.HashSetItem) error
	Del(ctx context.Context, keys ...string) error
	Scan(ctx context.Context, pattern string) ([]string, error)
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	IndexExists(ctx context.Context, name string) (bool, error)
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
}

// IndexConfig sets the vector index geometry.
type IndexConfig struct {
	VectorDim   int
	Algorithm   db.VectorAlgorithm
	M           int
	EFConstruct int
}

// Repo implements the retrieval corpus over a db.Store.
type Repo struct {
	store store
	index IndexConfig
}

// New creates a corpus repository.
func New(s store, cfg IndexConfig) *Repo {
	if cfg.Algorithm == "" {
		cfg.Algorithm = db.VectorHNSW
	}
	return &Repo{store: s, index: cfg}
}

// EnsureNamespace creates the namespace index unless it already exists.
// Concurrent callers racing on FT.CREATE both succeed.
func (r *Repo) EnsureNamespace(ctx context.Context, namespace string) error {
	name := IndexName(namespace)

	exists, err := r.store.IndexExists(ctx, name)
	if err != nil {
		return fmt.Errorf("check index %s: %w", name, err)
	}
	if exists {
		return nil
	}

	def, err := r.buildIndex(namespace)
	if err != nil {
		return fmt.Errorf("build index: %w", err)
	}
	if err := r.store.CreateIndex(ctx, def); err != nil && !errors.Is(err, db.ErrIndexExists) {
		return fmt.Errorf("create index %s: %w", name, err)
	}
	return nil
}

func (r *Repo) buildIndex(namespace string) (*db.IndexDefinition, error) {
	b := db.NewIndex(IndexName(namespace)).
		Prefix(keyPrefix(namespace)).
		Tag(FieldWorkspace, FieldCase, FieldCategory, FieldParent).
		Numeric(FieldChunk)

	if r.index.Algorithm == db.VectorFlat {
		b = b.VectorFlat(FieldVector, r.index.VectorDim, db.DistanceCosine)
	} else {
		b = b.VectorHNSW(FieldVector, r.index.VectorDim, db.DistanceCosine, r.index.M, r.index.EFConstruct)
	}
	return b.Build()
}

// Query returns the topK nearest chunks in one namespace, collapsed to one
// match per parent document (its best chunk).
func (r *Repo) Query(
	ctx context.Context, namespace string, vector []float32, filters filter.Expression, topK int,
) ([]match.Match, error) {
	sr, err := r.store.SearchKNN(ctx, &db.KNNQuery{
		IndexName:    IndexName(namespace),
		Filters:      filters,
		Vector:       vector,
		K:            topK,
		ReturnFields: []string{FieldParent, FieldChunk, FieldContent, FieldMetadata},
	})
	if err != nil {
		return nil, fmt.Errorf("query namespace %s: %w", namespace, err)
	}
	if sr == nil || len(sr.Entries) == 0 {
		return nil, nil
	}

	prefix := keyPrefix(namespace)
	best := make(map[string]int, len(sr.Entries))
	matches := make([]match.Match, 0, len(sr.Entries))

	for _, entry := range sr.Entries {
		id := entry.Fields[FieldParent]
		if id == "" {
			id = parentFromKey(strings.TrimPrefix(entry.Key, prefix))
		}

		if i, seen := best[id]; seen {
			if entry.Score > matches[i].Score {
				matches[i] = toMatch(id, namespace, entry)
			}
			continue
		}
		best[id] = len(matches)
		matches = append(matches, toMatch(id, namespace, entry))
	}

	return matches, nil
}

func toMatch(id, namespace string, entry db.SearchEntry) match.Match {
	meta := make(map[string]string)
	if raw := entry.Fields[FieldMetadata]; raw != "" {
		// Metadata is written by Replace; a corrupt blob only loses attribution.
		_ = json.Unmarshal([]byte(raw), &meta)
	}
	if meta == nil {
		meta = make(map[string]string)
	}
	if text := entry.Fields[FieldContent]; text != "" {
		meta[TextMetadataKey] = text
	}
	if c := entry.Fields[FieldChunk]; c != "" {
		meta[FieldChunk] = c
	}
	return match.Match{ID: id, Score: entry.Score, Namespace: namespace, Metadata: meta}
}

// Replace writes the chunks of one document, removing any chunks previously
// stored under the same id. Returns the number of chunks written.
func (r *Repo) Replace(
	ctx context.Context, namespace, id string, metadata map[string]string, chunks []chunk.Embedded,
) (int, error) {
	if len(chunks) == 0 {
		return 0, fmt.Errorf("%w: no chunks to write", domain.ErrInvalidDocument)
	}

	if metadata == nil {
		metadata = map[string]string{}
	}
	metaJSON, err := json.Marshal(metadata)
	if err != nil {
		return 0, fmt.Errorf("marshal metadata: %w", err)
	}

	stale, err := r.store.Scan(ctx, keyPrefix(namespace)+id+":*")
	if err != nil {
		return 0, fmt.Errorf("scan stale chunks: %w", err)
	}

	items := make([]db.HashSetItem, 0, len(chunks))
	fresh := make(map[string]struct{}, len(chunks))
	for _, c := range chunks {
		if len(c.Vector) != r.index.VectorDim {
			return 0, fmt.Errorf("%w: chunk %d has %d dims, index expects %d",
				domain.ErrInvalidDocument, c.Index, len(c.Vector), r.index.VectorDim)
		}

		fields := map[string]string{
			FieldParent:   id,
			FieldChunk:    strconv.Itoa(c.Index),
			FieldContent:  c.Content,
			FieldMetadata: string(metaJSON),
			FieldVector:   db.VectorBytes(c.Vector),
		}
		for _, tag := range []string{FieldWorkspace, FieldCase, FieldCategory} {
			if v := metadata[tag]; v != "" {
				fields[tag] = v
			}
		}

		key := chunkKey(namespace, id, c.Index)
		fresh[key] = struct{}{}
		items = append(items, db.HashSetItem{Key: key, Fields: fields})
	}

	if err := r.store.HSetMulti(ctx, items); err != nil {
		return 0, fmt.Errorf("write chunks: %w", err)
	}

	var obsolete []string
	for _, k := range stale {
		if _, ok := fresh[k]; !ok {
			obsolete = append(obsolete, k)
		}
	}
	if err := r.store.Del(ctx, obsolete...); err != nil {
		return 0, fmt.Errorf("delete stale chunks: %w", err)
	}

	return len(items), nil
}

// IndexName returns the FT index name of a namespace.
func IndexName(namespace string) string {
	return domain.KeyPrefix + "idx:" + namespace
}

func keyPrefix(namespace string) string {
	return domain.KeyPrefix + "ns:" + namespace + ":"
}

func chunkKey(namespace, id string, index int) string {
	return keyPrefix(namespace) + id + ":" + strconv.Itoa(index)
}

func parentFromKey(suffix string) string {
	if i := strings.LastIndexByte(suffix, ':'); i >= 0 {
		return suffix[:i]
	}
	return suffix
}
