// Package model defines the data structures used throughout the application.
// In Go, we use structs to represent our data — similar to classes in other languages,
// but without inheritance. Go favours composition over inheritance.
package model

// AnonymousAuthor is the fallback author/user name used whenever a caller
// submits a question or an answer without identifying themselves.
const AnonymousAuthor = "Anonymous"

// UnansweredSentinel is the legacy placeholder some older question files carry
// in place of an answers array. Semantically it means "no answers yet" and is
// decoded to an empty AnswerList; it is never written back.
const UnansweredSentinel = "No answer provided yet. Feel free to contribute an answer!"

// Question is the root knowledge-base record.
// The `json:"..."` tags tell Go's encoding/json package how to serialize/deserialize
// this struct to/from JSON — the field names below are the on-disk contract and
// must not change, since the data directory is shared with older tooling.
//
// For example, when we marshal a Question to JSON:
//
//	q := Question{ID: 1001, Title: "What is X?"}
//	json.Marshal(q) → {"id":1001,"title":"What is X?",...}
type Question struct {
	// ID is a positive integer, unique across the whole corpus — not just
	// within one file. Allocation happens in the repository layer.
	ID int `json:"id"`

	// Title is required at creation and never changes afterwards.
	Title string `json:"title"`

	// CreatedDate is the canonical RFC 3339 timestamp used for sorting.
	// CreatedDateDisplay is the human form (MM/DD/YYYY) older files carry.
	CreatedDate        string `json:"createdDate"`
	CreatedDateDisplay string `json:"createdDateDisplay,omitempty"`

	// Upvotes counts votes on the question itself. Never negative.
	Upvotes int `json:"upvotes"`

	Author string `json:"author"`

	// Tags are lowercase strings. The mutation layer deduplicates
	// case-insensitively on add.
	Tags []string `json:"tags,omitempty"`

	// Answers is always an ordered sequence in memory, regardless of which
	// of the legacy on-disk shapes it was decoded from. Insertion order is
	// chronological order of contribution.
	Answers AnswerList `json:"answers"`
}

// Answer is a contribution attached to exactly one Question. It is never
// referenced outside its owning question.
type Answer struct {
	// AnswerID is unique within the owning question only. New answers get
	// max(existing, 100000)+1 — the counter older files started at.
	AnswerID int `json:"answerid"`

	// Text is rich (HTML-bearing) and stored verbatim. Sanitization, if
	// any, is the presentation layer's job.
	Text string `json:"text"`

	User    string `json:"user"`
	Date    string `json:"date"`
	Upvotes int    `json:"upvotes"`
}

// NextAnswerID returns the answer ID to assign to a new answer on q.
// IDs are monotonic per question, starting at 100001.
func (q *Question) NextAnswerID() int {
	max := 100000
	for _, a := range q.Answers {
		if a.AnswerID > max {
			max = a.AnswerID
		}
	}
	return max + 1
}

// FindAnswer returns the index of the answer with the given ID, or -1.
func (q *Question) FindAnswer(answerID int) int {
	for i := range q.Answers {
		if q.Answers[i].AnswerID == answerID {
			return i
		}
	}
	return -1
}
