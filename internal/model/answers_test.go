package model

import (
	"encoding/json"
	"reflect"
	"testing"
)

// The answers field appears in four shapes across the data directory. All of
// them must decode to the same canonical in-memory form.
func TestAnswerListUnmarshal_LegacyShapes(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want AnswerList
	}{
		{
			name: "full array",
			in:   `[{"answerid":100001,"text":"yes","user":"Bob","date":"01/02/2025","upvotes":3}]`,
			want: AnswerList{{AnswerID: 100001, Text: "yes", User: "Bob", Date: "01/02/2025", Upvotes: 3}},
		},
		{
			name: "empty array",
			in:   `[]`,
			want: AnswerList{},
		},
		{
			name: "unanswered sentinel string",
			in:   `"No answer provided yet. Feel free to contribute an answer!"`,
			want: AnswerList{},
		},
		{
			name: "any bare string means unanswered",
			in:   `"ask in #help"`,
			want: AnswerList{},
		},
		{
			name: "single inline answer object",
			in:   `{"answerid":100001,"text":"inline","user":"Carol","date":"01/02/2025","upvotes":0}`,
			want: AnswerList{{AnswerID: 100001, Text: "inline", User: "Carol", Date: "01/02/2025"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got AnswerList
			if err := json.Unmarshal([]byte(tt.in), &got); err != nil {
				t.Fatalf("Unmarshal() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestAnswerListUnmarshal_Malformed(t *testing.T) {
	var got AnswerList
	if err := json.Unmarshal([]byte(`42`), &got); err == nil {
		t.Error("expected error for numeric answers field")
	}
}

// Encoding must always produce an array — never null, never the sentinel —
// so files converge on the canonical shape as they are rewritten.
func TestAnswerListMarshal_NilIsEmptyArray(t *testing.T) {
	q := Question{ID: 1001, Title: "t"}
	raw, err := json.Marshal(q)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	answers, ok := decoded["answers"].([]any)
	if !ok {
		t.Fatalf("answers encoded as %T, want JSON array", decoded["answers"])
	}
	if len(answers) != 0 {
		t.Errorf("answers = %v, want empty", answers)
	}
}

// Round-trip: decode(encode(q)) == q for each legacy input shape.
func TestQuestionRoundTrip(t *testing.T) {
	inputs := []string{
		`{"id":1,"title":"a","createdDate":"2025-08-11T14:30:00Z","author":"Alice","upvotes":2,"tags":["go"],"answers":[{"answerid":100001,"text":"x","user":"Bob","date":"08/11/2025","upvotes":1}]}`,
		`{"id":2,"title":"b","createdDate":"2025-08-11T14:30:00Z","author":"Alice","upvotes":0,"answers":[]}`,
		`{"id":3,"title":"c","createdDate":"2025-08-11T14:30:00Z","author":"Alice","upvotes":0,"answers":"No answer provided yet. Feel free to contribute an answer!"}`,
		`{"id":4,"title":"d","createdDate":"2025-08-11T14:30:00Z","author":"Alice","upvotes":0,"answers":{"answerid":100001,"text":"inline","user":"Bob","date":"08/11/2025","upvotes":0}}`,
	}

	for _, in := range inputs {
		var q Question
		if err := json.Unmarshal([]byte(in), &q); err != nil {
			t.Fatalf("Unmarshal() error = %v", err)
		}

		encoded, err := json.Marshal(q)
		if err != nil {
			t.Fatalf("Marshal() error = %v", err)
		}

		var again Question
		if err := json.Unmarshal(encoded, &again); err != nil {
			t.Fatalf("re-Unmarshal() error = %v", err)
		}
		if !reflect.DeepEqual(q, again) {
			t.Errorf("round trip mismatch:\n first = %+v\nsecond = %+v", q, again)
		}
	}
}

func TestNextAnswerID(t *testing.T) {
	tests := []struct {
		name string
		q    Question
		want int
	}{
		{"no answers starts at 100001", Question{}, 100001},
		{
			"monotonic past existing",
			Question{Answers: AnswerList{{AnswerID: 100001}, {AnswerID: 100005}}},
			100006,
		},
		{
			"legacy small ids still jump to 100001",
			Question{Answers: AnswerList{{AnswerID: 1}}},
			100001,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.q.NextAnswerID(); got != tt.want {
				t.Errorf("NextAnswerID() = %d, want %d", got, tt.want)
			}
		})
	}
}
