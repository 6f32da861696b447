// Package service contains the business logic layer of the application.
//
// The layering follows the usual three-layer shape:
//
//	Handler (HTTP layer)     → parses requests, writes responses
//	Service (business layer) → validates, enforces rules, orchestrates
//	Repository (data layer)  → reads/writes the record files
//
// Services accept primitives and return domain errors (apperror), never
// HTTP types — the same logic drives the HTTP handlers and the reindex CLI.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/teamtalks/knowledgebase/internal/apperror"
	"github.com/teamtalks/knowledgebase/internal/index"
	"github.com/teamtalks/knowledgebase/internal/model"
	"github.com/teamtalks/knowledgebase/internal/mutation"
	"github.com/teamtalks/knowledgebase/internal/repository"
)

// Validation constants.
const (
	MaxTitleLength  = 300
	MaxAnswerLength = 100000 // ~100KB of rich text

	// displayDateLayout is the human-readable date carried alongside the
	// canonical RFC 3339 timestamp (MM/DD/YYYY, as older files have it).
	displayDateLayout = "01/02/2006"
)

// QuestionService handles business logic for question records.
//
// The synchronizer is optional: when nil, indexing is disabled and mutations
// simply skip the incremental refresh. This is how the server runs when no
// index backend is configured.
type QuestionService struct {
	repo   repository.QuestionRepository
	sync   *index.Synchronizer
	logger *slog.Logger
	now    func() time.Time // injectable clock for tests
}

// NewQuestionService creates a QuestionService. sync may be nil.
func NewQuestionService(repo repository.QuestionRepository, sync *index.Synchronizer, logger *slog.Logger) *QuestionService {
	return &QuestionService{
		repo:   repo,
		sync:   sync,
		logger: logger,
		now:    time.Now,
	}
}

// Create validates and persists a new question, optionally seeded with one
// answer. The repository allocates the ID.
func (s *QuestionService) Create(ctx context.Context, title, answerText, author string) (*model.Question, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, apperror.ValidationFailed("title", "Title is required")
	}
	if len(title) > MaxTitleLength {
		return nil, apperror.ValidationFailed("title",
			fmt.Sprintf("title must be %d characters or less", MaxTitleLength))
	}
	answerText = strings.TrimSpace(answerText)
	if len(answerText) > MaxAnswerLength {
		return nil, apperror.ValidationFailed("answer",
			fmt.Sprintf("answer must be %d characters or less", MaxAnswerLength))
	}

	author = strings.TrimSpace(author)
	if author == "" {
		author = model.AnonymousAuthor
	}

	created := s.now().UTC()
	display := created.Format(displayDateLayout)

	q := &model.Question{
		Title:              title,
		CreatedDate:        created.Format(time.RFC3339),
		CreatedDateDisplay: display,
		Author:             author,
		Upvotes:            0,
		Answers:            model.AnswerList{},
	}
	if answerText != "" {
		q.Answers = model.AnswerList{{
			AnswerID: 100001,
			Text:     answerText,
			User:     author,
			Date:     display,
			Upvotes:  0,
		}}
	}

	if err := s.repo.Create(ctx, q); err != nil {
		s.logger.Error("failed to create question",
			slog.String("title", title),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating question: %w", err)
	}

	s.refreshIndex(ctx, *q)
	return q, nil
}

// GetByID retrieves one question. Returns apperror.ErrNotFound if absent.
func (s *QuestionService) GetByID(ctx context.Context, id int) (*model.Question, error) {
	if id <= 0 {
		return nil, apperror.ValidationFailed("id", "question ID must be a positive integer")
	}
	return s.repo.GetByID(ctx, id)
}

// List returns every readable question in the store.
func (s *QuestionService) List(ctx context.Context) ([]model.Question, error) {
	questions, err := s.repo.List(ctx)
	if err != nil {
		s.logger.Error("failed to list questions", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing questions: %w", err)
	}
	return questions, nil
}

// Patch applies one typed mutation to a question and refreshes its index
// entry. The mutation is a single whole-file rewrite in the repository.
func (s *QuestionService) Patch(ctx context.Context, id int, op mutation.Operation) (*model.Question, error) {
	if id <= 0 {
		return nil, apperror.ValidationFailed("id", "question ID must be a positive integer")
	}
	if op.Kind == "" {
		return nil, apperror.ValidationFailed("operation", "operation is required")
	}

	q, err := s.repo.Mutate(ctx, id, op)
	if err != nil {
		return nil, err
	}

	s.refreshIndex(ctx, *q)
	return q, nil
}

// AppendAnswer adds one answer to a question. Empty user defaults to
// Anonymous; empty date defaults to today's display date.
func (s *QuestionService) AppendAnswer(ctx context.Context, id int, text, user, date string) (*model.Question, error) {
	if strings.TrimSpace(text) == "" {
		return nil, apperror.ValidationFailed("answer", "Answer is required")
	}
	if len(text) > MaxAnswerLength {
		return nil, apperror.ValidationFailed("answer",
			fmt.Sprintf("answer must be %d characters or less", MaxAnswerLength))
	}
	if date == "" {
		date = s.now().UTC().Format(displayDateLayout)
	}

	return s.Patch(ctx, id, mutation.Operation{
		Kind: mutation.KindAppendAnswer,
		Text: text,
		User: user,
		Date: date,
	})
}

// UpvoteAnswer increments one answer's vote count.
func (s *QuestionService) UpvoteAnswer(ctx context.Context, questionID, answerID int) (*model.Question, error) {
	if answerID <= 0 {
		return nil, apperror.ValidationFailed("answerId", "answer ID must be a positive integer")
	}
	return s.Patch(ctx, questionID, mutation.Operation{
		Kind:     mutation.KindUpvoteAnswer,
		AnswerID: answerID,
	})
}

// ReindexAll re-embeds and re-upserts the entire corpus. Returns the number
// of questions pushed through the synchronizer.
func (s *QuestionService) ReindexAll(ctx context.Context) (int, error) {
	if s.sync == nil {
		return 0, apperror.ValidationFailed("index", "no vector index is configured")
	}

	questions, err := s.repo.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("listing questions for reindex: %w", err)
	}
	if err := s.sync.SyncAll(ctx, questions); err != nil {
		return 0, err
	}
	return len(questions), nil
}

// refreshIndex pushes one question's new state to the vector index. A sync
// failure is logged but never rolls back the already-committed file write —
// the index is eventually consistent and a reindex repairs the gap.
func (s *QuestionService) refreshIndex(ctx context.Context, q model.Question) {
	if s.sync == nil {
		return
	}
	if err := s.sync.SyncQuestion(ctx, q); err != nil {
		s.logger.Warn("incremental index refresh failed; store and index diverge until the next reindex",
			slog.Int("id", q.ID),
			slog.String("error", err.Error()),
		)
	}
}
