package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/teamtalks/knowledgebase/internal/apperror"
	"github.com/teamtalks/knowledgebase/internal/index"
)

// Search result sizing.
const (
	DefaultSearchTopK = 5
	MaxSearchTopK     = 50
)

// SearchService answers semantic queries against the vector index. It never
// touches the file store: results carry the metadata stored at index time.
type SearchService struct {
	embedder index.Embedder
	idx      index.VectorIndex
	logger   *slog.Logger
}

// NewSearchService creates a SearchService.
func NewSearchService(embedder index.Embedder, idx index.VectorIndex, logger *slog.Logger) *SearchService {
	return &SearchService{
		embedder: embedder,
		idx:      idx,
		logger:   logger,
	}
}

// Search embeds the query text and returns the topK closest records. topK is
// clamped to [1, MaxSearchTopK]; zero selects the default.
func (s *SearchService) Search(ctx context.Context, query string, topK int) ([]index.Match, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apperror.ValidationFailed("q", "query text is required")
	}
	if topK <= 0 {
		topK = DefaultSearchTopK
	}
	if topK > MaxSearchTopK {
		topK = MaxSearchTopK
	}

	vector, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, apperror.Index("embed query", err)
	}

	matches, err := s.idx.Query(ctx, vector, topK, true)
	if err != nil {
		return nil, apperror.Index("query", err)
	}

	s.logger.Debug("semantic search completed",
		slog.String("query", query),
		slog.Int("matches", len(matches)),
	)
	return matches, nil
}
