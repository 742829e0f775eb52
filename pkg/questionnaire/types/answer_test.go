package types

import (
	"encoding/json"
	"testing"
)

func TestAnswerValueIsPresent(t *testing.T) {
	tests := []struct {
		name  string
		value AnswerValue
		want  bool
	}{
		{"none", AnswerValue{}, false},
		{"blank string", StringAnswer("   "), false},
		{"string", StringAnswer("ok"), true},
		{"zero number", NumberAnswer(0), true},
		{"false", BoolAnswer(false), true},
		{"empty list", ListAnswer(), false},
		{"list", ListAnswer("a"), true},
		{"blank list items", ListAnswer(" ", ""), false},
		{"list with one non-blank item", ListAnswer(" ", "a"), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.value.IsPresent(); got != tt.want {
				t.Errorf("IsPresent() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAnswerValueFlatten(t *testing.T) {
	if got := ListAnswer("fever", "cough").Flatten(); got != "fever, cough" {
		t.Errorf("unexpected list flatten: %v", got)
	}
	if got := NumberAnswer(4.5).Flatten(); got != 4.5 {
		t.Errorf("unexpected number flatten: %v", got)
	}
	if got := NumberAnswer(42).String(); got != "42" {
		t.Errorf("unexpected number string: %v", got)
	}
	if got := (AnswerValue{}).Flatten(); got != nil {
		t.Errorf("expected nil, got %v", got)
	}
}

func TestAnswerValueJSON(t *testing.T) {
	tests := []struct {
		in   string
		kind AnswerKind
	}{
		{`"yes"`, ANSWER_KIND_STRING},
		{`12.5`, ANSWER_KIND_NUMBER},
		{`true`, ANSWER_KIND_BOOLEAN},
		{`["a","b"]`, ANSWER_KIND_LIST},
		{`null`, ANSWER_KIND_NONE},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var a AnswerValue
			if err := json.Unmarshal([]byte(tt.in), &a); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if a.Kind != tt.kind {
				t.Errorf("kind = %s, want %s", a.Kind, tt.kind)
			}
			out, err := json.Marshal(a)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if string(out) != tt.in {
				t.Errorf("marshal = %s, want %s", out, tt.in)
			}
		})
	}

	t.Run("object rejected", func(t *testing.T) {
		var a AnswerValue
		if err := json.Unmarshal([]byte(`{"x":1}`), &a); err == nil {
			t.Error("expected error")
		}
	})

	t.Run("response skipped flag", func(t *testing.T) {
		var r QuestionResponse
		if err := json.Unmarshal([]byte(`{"questionId":"q","answerValue":"x","isSkipped":true}`), &r); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if r.Satisfied() {
			t.Error("skipped response must not satisfy")
		}
	})
}
