package index

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/teamtalks/knowledgebase/internal/apperror"
	"github.com/teamtalks/knowledgebase/internal/model"
)

// fakeEmbedder returns a tiny deterministic vector for any text.
type fakeEmbedder struct {
	calls int
	err   error
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return []float32{float32(len(text)), 1, 0}, nil
}

func (f *fakeEmbedder) Dimension() int { return 3 }

// fakeIndex records every Upsert batch and can fail after N successes.
type fakeIndex struct {
	batches   [][]Item
	failAfter int // fail on batch failAfter+1; -1 = never fail
}

func (f *fakeIndex) Upsert(_ context.Context, items []Item) error {
	if f.failAfter >= 0 && len(f.batches) >= f.failAfter {
		return errors.New("upsert refused")
	}
	batch := make([]Item, len(items))
	copy(batch, items)
	f.batches = append(f.batches, batch)
	return nil
}

func (f *fakeIndex) Query(_ context.Context, _ []float32, _ int, _ bool) ([]Match, error) {
	return nil, nil
}

func newTestSync(t *testing.T, idx *fakeIndex, batchSize int) (*Synchronizer, *fakeEmbedder) {
	t.Helper()
	emb := &fakeEmbedder{}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	return NewSynchronizer(emb, idx, batchSize, logger), emb
}

func questions(n int) []model.Question {
	qs := make([]model.Question, 0, n)
	for i := 0; i < n; i++ {
		qs = append(qs, model.Question{ID: 1001 + i, Title: fmt.Sprintf("question %d", i)})
	}
	return qs
}

// =========================================================================
// EMBEDDING TEXT
// =========================================================================

func TestBuildEmbeddingText_SortsAnswersByUpvotes(t *testing.T) {
	q := model.Question{
		Title: "How do I deploy?",
		Answers: model.AnswerList{
			{AnswerID: 100001, Text: "least endorsed", Upvotes: 0},
			{AnswerID: 100002, Text: "most endorsed", Upvotes: 9},
			{AnswerID: 100003, Text: "middle", Upvotes: 4},
		},
	}

	got := BuildEmbeddingText(q)
	want := "How do I deploy? most endorsed middle least endorsed"
	if got != want {
		t.Errorf("BuildEmbeddingText() = %q, want %q", got, want)
	}
}

func TestBuildEmbeddingText_NoAnswers(t *testing.T) {
	q := model.Question{Title: "Unanswered?"}
	if got := BuildEmbeddingText(q); got != "Unanswered?" {
		t.Errorf("BuildEmbeddingText() = %q, want just the title", got)
	}
}

func TestBuildEmbeddingText_SkipsBlankAnswers(t *testing.T) {
	q := model.Question{
		Title:   "t",
		Answers: model.AnswerList{{AnswerID: 1, Text: "   "}},
	}
	if got := BuildEmbeddingText(q); strings.TrimSpace(got) != "t" {
		t.Errorf("BuildEmbeddingText() = %q, blank answers must not pad the text", got)
	}
}

// =========================================================================
// METADATA
// =========================================================================

func TestSanitizeMetadata(t *testing.T) {
	q := model.Question{
		ID:          1001,
		Title:       "t",
		Author:      "Alice",
		CreatedDate: "2025-08-11T14:30:00Z",
		Upvotes:     3,
		Tags:        []string{"go", "deploy"},
		Answers: model.AnswerList{
			{AnswerID: 100001, Text: "first", Upvotes: 2},
			{AnswerID: 100002, Text: "second", Upvotes: 0},
		},
	}

	meta := SanitizeMetadata(q)

	if meta["id"] != 1001 {
		t.Errorf("id = %v", meta["id"])
	}
	answers, ok := meta["answers"].([]string)
	if !ok {
		t.Fatalf("answers metadata is %T, want []string (flattened texts)", meta["answers"])
	}
	if len(answers) != 2 || answers[0] != "first" {
		t.Errorf("answers = %v", answers)
	}
	if _, present := meta["createdDateDisplay"]; present {
		t.Error("empty createdDateDisplay should be omitted")
	}
	for key, value := range meta {
		if !allowedMetaValue(value) {
			t.Errorf("metadata key %q holds disallowed value %v (%T)", key, value, value)
		}
	}
}

// An untagged question (the common case) must not send "tags": null — the
// metadata schema holds no nulls, so a nil slice is stripped, not kept.
func TestSanitizeMetadata_UntaggedQuestion(t *testing.T) {
	meta := SanitizeMetadata(model.Question{ID: 1001, Title: "untagged", Author: "a"})

	if _, present := meta["tags"]; present {
		t.Errorf("tags = %v, want key absent for a question with no tags", meta["tags"])
	}

	raw, err := json.Marshal(meta)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if strings.Contains(string(raw), "null") {
		t.Errorf("marshaled metadata %s contains null", raw)
	}
}

func TestAllowedMetaValue(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  bool
	}{
		{"string", "x", true},
		{"int", 5, true},
		{"float", 5.5, true},
		{"bool", true, true},
		{"string slice", []string{"a"}, true},
		{"empty string slice", []string{}, true},
		{"nil string slice", []string(nil), false},
		{"homogeneous any slice", []any{"a", "b"}, true},
		{"nil any slice", []any(nil), false},
		{"mixed slice", []any{"a", 1}, false},
		{"nested map", map[string]any{"x": 1}, false},
		{"struct", model.Answer{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := allowedMetaValue(tt.value); got != tt.want {
				t.Errorf("allowedMetaValue(%v) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}

// =========================================================================
// SYNC
// =========================================================================

// 250 records at batch size 100 → exactly 3 upsert calls, last carrying 50.
func TestSyncAll_Batching(t *testing.T) {
	idx := &fakeIndex{failAfter: -1}
	sync, emb := newTestSync(t, idx, 100)

	if err := sync.SyncAll(context.Background(), questions(250)); err != nil {
		t.Fatalf("SyncAll() error = %v", err)
	}

	if len(idx.batches) != 3 {
		t.Fatalf("upsert calls = %d, want 3", len(idx.batches))
	}
	if n := len(idx.batches[0]); n != 100 {
		t.Errorf("batch 1 size = %d, want 100", n)
	}
	if n := len(idx.batches[2]); n != 50 {
		t.Errorf("batch 3 size = %d, want 50", n)
	}
	if emb.calls != 250 {
		t.Errorf("embed calls = %d, want 250", emb.calls)
	}
}

func TestSyncAll_AbortsOnBatchFailure(t *testing.T) {
	idx := &fakeIndex{failAfter: 1} // first batch lands, second fails
	sync, _ := newTestSync(t, idx, 100)

	err := sync.SyncAll(context.Background(), questions(250))
	if !errors.Is(err, apperror.ErrIndex) {
		t.Fatalf("SyncAll() error = %v, want ErrIndex", err)
	}
	if !strings.Contains(err.Error(), "1 committed") {
		t.Errorf("error %q should report the committed batch count", err.Error())
	}
	if len(idx.batches) != 1 {
		t.Errorf("batches committed = %d, want 1 (abort after first failure)", len(idx.batches))
	}
}

func TestSyncAll_SkipsRecordsWithoutIDOrTitle(t *testing.T) {
	idx := &fakeIndex{failAfter: -1}
	sync, _ := newTestSync(t, idx, 100)

	qs := []model.Question{
		{ID: 1001, Title: "ok"},
		{ID: 0, Title: "no id"},
		{ID: 1002, Title: "   "},
	}
	if err := sync.SyncAll(context.Background(), qs); err != nil {
		t.Fatalf("SyncAll() error = %v", err)
	}
	if len(idx.batches) != 1 || len(idx.batches[0]) != 1 {
		t.Fatalf("batches = %+v, want one batch with one item", idx.batches)
	}
	if idx.batches[0][0].ID != "1001" {
		t.Errorf("item ID = %q, want \"1001\"", idx.batches[0][0].ID)
	}
}

func TestSyncQuestion_EmbedsAndUpserts(t *testing.T) {
	idx := &fakeIndex{failAfter: -1}
	sync, _ := newTestSync(t, idx, 100)

	q := model.Question{ID: 1001, Title: "incremental"}
	if err := sync.SyncQuestion(context.Background(), q); err != nil {
		t.Fatalf("SyncQuestion() error = %v", err)
	}
	if len(idx.batches) != 1 || len(idx.batches[0]) != 1 {
		t.Fatalf("batches = %+v, want exactly one single-item upsert", idx.batches)
	}
	item := idx.batches[0][0]
	if item.ID != "1001" {
		t.Errorf("ID = %q, want \"1001\"", item.ID)
	}
	if len(item.Values) != 3 {
		t.Errorf("vector length = %d, want 3", len(item.Values))
	}
}

func TestSyncQuestion_EmbedFailure(t *testing.T) {
	idx := &fakeIndex{failAfter: -1}
	sync, emb := newTestSync(t, idx, 100)
	emb.err = errors.New("model offline")

	err := sync.SyncQuestion(context.Background(), model.Question{ID: 1001, Title: "t"})
	if !errors.Is(err, apperror.ErrIndex) {
		t.Fatalf("SyncQuestion() error = %v, want ErrIndex", err)
	}
	if len(idx.batches) != 0 {
		t.Error("no upsert should happen when embedding fails")
	}
}
