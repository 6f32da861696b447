// Package mutation computes new Question states from typed operations.
//
// Every operation here is a pure function: it receives a decoded Question,
// returns an updated copy or an error, and never touches the filesystem.
// The repository layer owns the load/apply/store cycle, so these functions
// can be tested with plain values and no I/O.
package mutation

import (
	"fmt"
	"math"
	"strings"

	"github.com/teamtalks/knowledgebase/internal/apperror"
	"github.com/teamtalks/knowledgebase/internal/model"
)

// Kind names a mutation operation. The string values are the wire contract
// of the PATCH endpoint and match what existing clients send.
type Kind string

const (
	KindUpdateField    Kind = "update_field"
	KindAddTag         Kind = "add_tag"
	KindAppendAnswer   Kind = "append_answer"
	KindUpvoteAnswer   Kind = "upvote_answer"
	KindDownvoteAnswer Kind = "downvote_answer"
)

// Operation is one typed mutation against a single question.
type Operation struct {
	Kind Kind

	// AnswerID targets an answer for the vote operations, or scopes
	// update_field to an answer instead of the question. Zero means
	// "the question itself".
	AnswerID int

	// Field and Value are used by update_field. Value arrives as decoded
	// JSON, so numbers are float64.
	Field string
	Value any

	// Text, User and Date are used by append_answer and add_tag (Value
	// carries the tag for add_tag).
	Text string
	User string
	Date string
}

// Apply computes the question state after op. The input is never modified;
// callers can safely retry or discard the result.
func Apply(q model.Question, op Operation) (model.Question, error) {
	out := clone(q)

	switch op.Kind {
	case KindUpdateField:
		if err := updateField(&out, op); err != nil {
			return model.Question{}, err
		}
	case KindAddTag:
		if err := addTag(&out, op); err != nil {
			return model.Question{}, err
		}
	case KindAppendAnswer:
		if err := appendAnswer(&out, op); err != nil {
			return model.Question{}, err
		}
	case KindUpvoteAnswer:
		if err := voteAnswer(&out, op.AnswerID, +1); err != nil {
			return model.Question{}, err
		}
	case KindDownvoteAnswer:
		if err := voteAnswer(&out, op.AnswerID, -1); err != nil {
			return model.Question{}, err
		}
	default:
		return model.Question{}, apperror.ValidationFailed("operation",
			fmt.Sprintf("invalid operation %q", op.Kind))
	}

	return out, nil
}

// clone deep-copies the slices so Apply never aliases the caller's data.
func clone(q model.Question) model.Question {
	out := q
	if q.Tags != nil {
		out.Tags = append([]string(nil), q.Tags...)
	}
	if q.Answers != nil {
		out.Answers = append(model.AnswerList(nil), q.Answers...)
	}
	return out
}

// updateField overwrites a named scalar field on the question, or on one
// answer when AnswerID is set. Field names match the JSON contract. Vote
// counters reject negative values — upvotes are never negative, no matter
// what the caller sends.
func updateField(q *model.Question, op Operation) error {
	if op.Field == "" || op.Value == nil {
		return apperror.ValidationFailed("field", "field and value required for update operation")
	}

	if op.AnswerID != 0 {
		i := q.FindAnswer(op.AnswerID)
		if i < 0 {
			if len(q.Answers) == 0 {
				return apperror.ValidationFailed("answers", "question has no answers to update")
			}
			return apperror.NotFound("answer", fmt.Sprintf("%d", op.AnswerID))
		}
		a := &q.Answers[i]
		switch op.Field {
		case "text":
			return setString(&a.Text, op)
		case "user":
			return setString(&a.User, op)
		case "date":
			return setString(&a.Date, op)
		case "upvotes":
			return setCount(&a.Upvotes, op)
		default:
			return apperror.ValidationFailed("field",
				fmt.Sprintf("unknown answer field %q", op.Field))
		}
	}

	switch op.Field {
	case "title":
		return setString(&q.Title, op)
	case "author":
		return setString(&q.Author, op)
	case "createdDate":
		return setString(&q.CreatedDate, op)
	case "createdDateDisplay":
		return setString(&q.CreatedDateDisplay, op)
	case "upvotes":
		return setCount(&q.Upvotes, op)
	default:
		return apperror.ValidationFailed("field",
			fmt.Sprintf("unknown question field %q", op.Field))
	}
}

func setString(dst *string, op Operation) error {
	s, ok := op.Value.(string)
	if !ok {
		return apperror.ValidationFailed(op.Field,
			fmt.Sprintf("field %q requires a string value", op.Field))
	}
	*dst = s
	return nil
}

// setCount accepts int or float64 (JSON numbers decode as float64).
// Fractional values are rejected, not truncated.
func setCount(dst *int, op Operation) error {
	var n int
	switch v := op.Value.(type) {
	case int:
		n = v
	case float64:
		if v != math.Trunc(v) {
			return apperror.ValidationFailed(op.Field,
				fmt.Sprintf("field %q requires an integer value", op.Field))
		}
		n = int(v)
	default:
		return apperror.ValidationFailed(op.Field,
			fmt.Sprintf("field %q requires a numeric value", op.Field))
	}
	if n < 0 {
		return apperror.ValidationFailed(op.Field, "upvotes cannot be negative")
	}
	*dst = n
	return nil
}

// addTag lowercases the tag and appends it unless already present. Tags are
// stored lowercase, so presence is plain value equality after folding.
func addTag(q *model.Question, op Operation) error {
	raw, ok := op.Value.(string)
	if !ok || strings.TrimSpace(raw) == "" {
		return apperror.ValidationFailed("value", "tag value is required")
	}
	tag := strings.ToLower(strings.TrimSpace(raw))
	for _, existing := range q.Tags {
		if strings.ToLower(existing) == tag {
			return nil // already tagged
		}
	}
	q.Tags = append(q.Tags, tag)
	return nil
}

// appendAnswer builds a new answer with the next per-question answer ID and
// appends it. A question still in the legacy "unanswered" state (decoded as
// an empty list) ends up with a one-element list.
func appendAnswer(q *model.Question, op Operation) error {
	if strings.TrimSpace(op.Text) == "" {
		return apperror.ValidationFailed("answer", "Answer is required")
	}

	user := strings.TrimSpace(op.User)
	if user == "" {
		user = model.AnonymousAuthor
	}

	q.Answers = append(q.Answers, model.Answer{
		AnswerID: q.NextAnswerID(),
		Text:     strings.TrimSpace(op.Text),
		User:     user,
		Date:     op.Date,
		Upvotes:  0,
	})
	return nil
}

// voteAnswer adjusts one answer's upvotes by delta, clamped at zero.
func voteAnswer(q *model.Question, answerID, delta int) error {
	if answerID == 0 {
		return apperror.ValidationFailed("answerId", "Answer ID required for vote operation")
	}
	if len(q.Answers) == 0 {
		return apperror.ValidationFailed("answers", "question has no answers to vote on")
	}
	i := q.FindAnswer(answerID)
	if i < 0 {
		return apperror.NotFound("answer", fmt.Sprintf("%d", answerID))
	}
	q.Answers[i].Upvotes += delta
	if q.Answers[i].Upvotes < 0 {
		q.Answers[i].Upvotes = 0
	}
	return nil
}
