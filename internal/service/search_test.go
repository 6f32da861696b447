package service

import (
	"context"
	"errors"
	"testing"

	"log/slog"
	"os"

	"github.com/teamtalks/knowledgebase/internal/apperror"
	"github.com/teamtalks/knowledgebase/internal/index"
)

type stubEmbedder struct {
	lastText string
	err      error
}

func (e *stubEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	e.lastText = text
	if e.err != nil {
		return nil, e.err
	}
	return []float32{0.5, 0.5}, nil
}

func (e *stubEmbedder) Dimension() int { return 2 }

type stubIndex struct {
	lastTopK int
	matches  []index.Match
	err      error
}

func (s *stubIndex) Upsert(_ context.Context, _ []index.Item) error { return nil }

func (s *stubIndex) Query(_ context.Context, _ []float32, topK int, _ bool) ([]index.Match, error) {
	s.lastTopK = topK
	if s.err != nil {
		return nil, s.err
	}
	return s.matches, nil
}

func newTestSearchService(t *testing.T) (*SearchService, *stubEmbedder, *stubIndex) {
	t.Helper()
	embedder := &stubEmbedder{}
	idx := &stubIndex{}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	return NewSearchService(embedder, idx, logger), embedder, idx
}

func TestSearch_Success(t *testing.T) {
	svc, embedder, idx := newTestSearchService(t)
	idx.matches = []index.Match{{ID: "1001", Score: 0.92}}

	matches, err := svc.Search(context.Background(), "  how to center a div  ", 0)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if embedder.lastText != "how to center a div" {
		t.Errorf("embedded %q, want trimmed query", embedder.lastText)
	}
	if idx.lastTopK != DefaultSearchTopK {
		t.Errorf("topK = %d, want default %d", idx.lastTopK, DefaultSearchTopK)
	}
	if len(matches) != 1 || matches[0].ID != "1001" {
		t.Errorf("matches = %+v", matches)
	}
}

func TestSearch_EmptyQuery(t *testing.T) {
	svc, _, _ := newTestSearchService(t)

	_, err := svc.Search(context.Background(), "   ", 5)
	if !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("error = %v, want ErrValidation", err)
	}
}

func TestSearch_ClampsTopK(t *testing.T) {
	svc, _, idx := newTestSearchService(t)

	if _, err := svc.Search(context.Background(), "q", 500); err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if idx.lastTopK != MaxSearchTopK {
		t.Errorf("topK = %d, want clamped to %d", idx.lastTopK, MaxSearchTopK)
	}
}

func TestSearch_EmbedFailure(t *testing.T) {
	svc, embedder, _ := newTestSearchService(t)
	embedder.err = errors.New("model overloaded")

	_, err := svc.Search(context.Background(), "q", 5)
	if !errors.Is(err, apperror.ErrIndex) {
		t.Errorf("error = %v, want ErrIndex", err)
	}
}

func TestSearch_QueryFailure(t *testing.T) {
	svc, _, idx := newTestSearchService(t)
	idx.err = errors.New("index unreachable")

	_, err := svc.Search(context.Background(), "q", 5)
	if !errors.Is(err, apperror.ErrIndex) {
		t.Errorf("error = %v, want ErrIndex", err)
	}
}
