package types

import (
	"errors"
	"testing"
)

func validQuestionnaire() Questionnaire {
	return Questionnaire{
		ID:    "q1",
		Title: "Intake",
		Pages: []QuestionPage{
			{
				ID: "p1",
				Questions: []Question{
					{ID: "name", QuestionText: "Your name", QuestionType: QUESTION_TYPE_TEXT, IsRequired: true},
					{ID: "symptoms", QuestionText: "Symptoms", QuestionType: QUESTION_TYPE_MULTIPLE_CHOICE, Options: []string{"fever", "cough"}},
				},
			},
			{
				ID: "p2",
				Questions: []Question{
					{ID: "age", QuestionText: "Age", QuestionType: QUESTION_TYPE_NUMBER},
				},
			},
		},
	}
}

func TestQuestionnaireValidate(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		q := validQuestionnaire()
		if err := q.Validate(); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("no pages", func(t *testing.T) {
		q := validQuestionnaire()
		q.Pages = nil
		if err := q.Validate(); err == nil {
			t.Error("expected error")
		}
	})

	t.Run("unknown question type", func(t *testing.T) {
		q := validQuestionnaire()
		q.Pages[1].Questions[0].QuestionType = "slider"
		if err := q.Validate(); err == nil {
			t.Error("expected error")
		}
	})

	t.Run("duplicate id", func(t *testing.T) {
		q := validQuestionnaire()
		q.Pages[1].Questions[0].ID = "name"
		if err := q.Validate(); !errors.Is(err, ErrDuplicateQuestionID) {
			t.Errorf("expected ErrDuplicateQuestionID, got %v", err)
		}
	})

	t.Run("choice without options", func(t *testing.T) {
		q := validQuestionnaire()
		q.Pages[0].Questions[1].Options = nil
		if err := q.Validate(); !errors.Is(err, ErrMissingOptions) {
			t.Errorf("expected ErrMissingOptions, got %v", err)
		}
	})
}

func TestFindQuestion(t *testing.T) {
	q := validQuestionnaire()
	question, page, ok := q.FindQuestion("age")
	if !ok || page != 1 || question.QuestionType != QUESTION_TYPE_NUMBER {
		t.Errorf("unexpected result: %v %d %v", question, page, ok)
	}
	if _, _, ok := q.FindQuestion("missing"); ok {
		t.Error("should not find missing question")
	}
	if n := len(q.Questions()); n != 3 {
		t.Errorf("expected 3 questions, got %d", n)
	}
}
