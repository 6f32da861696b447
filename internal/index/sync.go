package index

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"github.com/teamtalks/knowledgebase/internal/apperror"
	"github.com/teamtalks/knowledgebase/internal/model"
)

// DefaultBatchSize bounds one upsert call. Vector stores cap the request
// size, and smaller batches keep a mid-corpus failure cheap to resume.
const DefaultBatchSize = 100

// Synchronizer embeds questions and upserts them into the vector index.
// It serves both bulk reindexing and the incremental refresh after a single
// mutation — same path, different input size.
type Synchronizer struct {
	embedder  Embedder
	index     VectorIndex
	batchSize int
	logger    *slog.Logger
}

// NewSynchronizer wires the two external-service clients. batchSize <= 0
// selects DefaultBatchSize.
func NewSynchronizer(embedder Embedder, index VectorIndex, batchSize int, logger *slog.Logger) *Synchronizer {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Synchronizer{
		embedder:  embedder,
		index:     index,
		batchSize: batchSize,
		logger:    logger,
	}
}

// BuildEmbeddingText flattens a question into the text that gets embedded:
// the title followed by every answer's text, answers ordered by upvote count
// descending so the most-endorsed content dominates the vector.
func BuildEmbeddingText(q model.Question) string {
	parts := make([]string, 0, len(q.Answers)+1)
	parts = append(parts, q.Title)

	answers := append(model.AnswerList(nil), q.Answers...)
	sort.SliceStable(answers, func(i, j int) bool {
		return answers[i].Upvotes > answers[j].Upvotes
	})
	for _, a := range answers {
		if strings.TrimSpace(a.Text) != "" {
			parts = append(parts, a.Text)
		}
	}
	return strings.Join(parts, " ")
}

// SanitizeMetadata flattens a question into the vector store's metadata
// schema, which only holds primitives and homogeneous string lists. Answers
// are reduced to their texts; anything else non-primitive is dropped.
func SanitizeMetadata(q model.Question) map[string]any {
	texts := make([]string, 0, len(q.Answers))
	for _, a := range q.Answers {
		texts = append(texts, a.Text)
	}

	meta := map[string]any{
		"id":          q.ID,
		"title":       q.Title,
		"author":      q.Author,
		"createdDate": q.CreatedDate,
		"upvotes":     q.Upvotes,
		"tags":        q.Tags,
		"answers":     texts,
	}
	if q.CreatedDateDisplay != "" {
		meta["createdDateDisplay"] = q.CreatedDateDisplay
	}

	for key, value := range meta {
		if !allowedMetaValue(value) {
			delete(meta, key)
		}
	}
	return meta
}

// allowedMetaValue reports whether the vector store can hold value:
// string, number, boolean, or a slice of strings. Nil slices are rejected —
// they marshal as JSON null, which the metadata schema cannot hold.
func allowedMetaValue(value any) bool {
	switch v := value.(type) {
	case string, bool, int, int64, float64:
		return true
	case []string:
		return v != nil
	case []any:
		if v == nil {
			return false
		}
		for _, item := range v {
			if _, ok := item.(string); !ok {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// SyncQuestion embeds one question and upserts it — the incremental path
// used after a mutation. The caller decides whether a failure here is fatal;
// a committed file mutation is never rolled back over a sync error.
func (s *Synchronizer) SyncQuestion(ctx context.Context, q model.Question) error {
	item, err := s.buildItem(ctx, q)
	if err != nil {
		return err
	}
	if err := s.index.Upsert(ctx, []Item{item}); err != nil {
		return apperror.Index("upsert", err)
	}
	s.logger.Info("question reindexed", slog.Int("id", q.ID))
	return nil
}

// SyncAll embeds every question and upserts in bounded batches, issued
// sequentially. The first failed batch aborts the rest; the returned error
// reports how many batches already committed, since those upserts stand.
func (s *Synchronizer) SyncAll(ctx context.Context, questions []model.Question) error {
	items := make([]Item, 0, len(questions))
	for _, q := range questions {
		if q.ID == 0 || strings.TrimSpace(q.Title) == "" {
			s.logger.Warn("skipping question with missing id or title",
				slog.Int("id", q.ID))
			continue
		}
		item, err := s.buildItem(ctx, q)
		if err != nil {
			return err
		}
		items = append(items, item)
	}

	committed := 0
	for start := 0; start < len(items); start += s.batchSize {
		end := start + s.batchSize
		if end > len(items) {
			end = len(items)
		}
		if err := s.index.Upsert(ctx, items[start:end]); err != nil {
			return apperror.Index("upsert",
				fmt.Errorf("batch %d failed after %d committed: %w", committed+1, committed, err))
		}
		committed++
		s.logger.Info("batch upserted",
			slog.Int("batch", committed),
			slog.Int("records", end-start),
		)
	}

	s.logger.Info("reindex complete",
		slog.Int("records", len(items)),
		slog.Int("batches", committed),
	)
	return nil
}

func (s *Synchronizer) buildItem(ctx context.Context, q model.Question) (Item, error) {
	vector, err := s.embedder.Embed(ctx, BuildEmbeddingText(q))
	if err != nil {
		return Item{}, apperror.Index("embed", err)
	}
	return Item{
		ID:       strconv.Itoa(q.ID),
		Values:   vector,
		Metadata: SanitizeMetadata(q),
	}, nil
}
