package model

import (
	"encoding/json"
	"fmt"
)

// AnswerList is the canonical in-memory shape for a question's answers:
// an ordered slice, possibly empty.
//
// WHY A NAMED TYPE WITH CUSTOM JSON?
// The data directory accumulated four different shapes for the "answers"
// field over time:
//
//  1. a JSON array of answer objects        → [{"answerid":100001,...}]
//  2. an empty array                        → []
//  3. the legacy "unanswered" sentinel text → "No answer provided yet. ..."
//  4. a single inline answer object         → {"answerid":100001,...}
//
// Rather than make every reader handle all four, we collapse them here, at
// the decode boundary. Everything downstream (mutations, the index
// synchronizer, handlers) only ever sees shape 1. Encoding always produces
// an array, so files converge on the canonical shape as they are rewritten.
type AnswerList []Answer

// UnmarshalJSON accepts all four legacy shapes and canonicalizes to a slice.
func (l *AnswerList) UnmarshalJSON(data []byte) error {
	// Fast path: a real array of answers.
	var answers []Answer
	if err := json.Unmarshal(data, &answers); err == nil {
		*l = answers
		return nil
	}

	// The sentinel string (or any other bare string) means "no answers".
	// We accept any string here: a handful of files carry a free-text
	// answer placeholder, and treating it as an answer would fabricate an
	// answer ID that was never allocated.
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*l = AnswerList{}
		return nil
	}

	// A single inline answer object.
	var one Answer
	if err := json.Unmarshal(data, &one); err == nil {
		*l = AnswerList{one}
		return nil
	}

	return fmt.Errorf("model: answers is not an array, string, or answer object")
}

// MarshalJSON always writes an array — never the sentinel, never null.
func (l AnswerList) MarshalJSON() ([]byte, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]Answer(l))
}
