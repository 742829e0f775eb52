package bundled

import (
	"reflect"
	"testing"

	qtypes "github.com/case-framework/records-portal/pkg/questionnaire/types"
)

func TestLoadPersonalHealth(t *testing.T) {
	q, err := LoadPersonalHealth()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.ID != PERSONAL_HEALTH_ID {
		t.Errorf("unexpected id: %s", q.ID)
	}
	if len(q.Pages) < 2 {
		t.Errorf("expected several pages, got %d", len(q.Pages))
	}
	if _, _, ok := q.FindQuestion("has-documents"); !ok {
		t.Errorf("upload question missing")
	}
}

func TestIsPersonalHealth(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"personal-health", true},
		{"/questionnaires/personal-health", true},
		{"/questionnaires/personal-health/", true},
		{"/questionnaires/not-personal-health", false},
		{"intake", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := IsPersonalHealth(tt.in); got != tt.want {
				t.Errorf("IsPersonalHealth(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func uploadQuestionnaire() qtypes.Questionnaire {
	return qtypes.Questionnaire{
		ID: PERSONAL_HEALTH_ID,
		Pages: []qtypes.QuestionPage{
			{ID: "p1", Questions: []qtypes.Question{
				{ID: "docs", QuestionText: "Would you like to Upload documents?", QuestionType: qtypes.QUESTION_TYPE_YES_NO, IsRequired: true},
			}},
		},
	}
}

func TestDecidePostSubmit(t *testing.T) {
	tests := []struct {
		name      string
		responses map[string]qtypes.QuestionResponse
		want      Redirect
	}{
		{"yes", map[string]qtypes.QuestionResponse{"docs": {QuestionID: "docs", AnswerValue: qtypes.StringAnswer("Yes")}}, REDIRECT_DOCUMENTS},
		{"true", map[string]qtypes.QuestionResponse{"docs": {QuestionID: "docs", AnswerValue: qtypes.BoolAnswer(true)}}, REDIRECT_DOCUMENTS},
		{"no", map[string]qtypes.QuestionResponse{"docs": {QuestionID: "docs", AnswerValue: qtypes.StringAnswer("No")}}, REDIRECT_INTEGRATIONS},
		{"absent", map[string]qtypes.QuestionResponse{}, REDIRECT_INTEGRATIONS},
		{"skipped", map[string]qtypes.QuestionResponse{"docs": {QuestionID: "docs", AnswerValue: qtypes.StringAnswer("yes"), IsSkipped: true}}, REDIRECT_INTEGRATIONS},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DecidePostSubmit(uploadQuestionnaire(), tt.responses)
			if got.Redirect != tt.want {
				t.Errorf("redirect = %s, want %s", got.Redirect, tt.want)
			}
		})
	}
}

func TestDecidePostSubmitIntegrations(t *testing.T) {
	q, err := LoadPersonalHealth()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	responses := map[string]qtypes.QuestionResponse{
		"service-interest:apple-health": {AnswerValue: qtypes.StringAnswer("interested")},
		"service-interest:google-fit":   {AnswerValue: qtypes.StringAnswer("not interested")},
		"service-interest:fitbit":       {AnswerValue: qtypes.StringAnswer("Interested")},
		"has-documents":                 {AnswerValue: qtypes.StringAnswer("no")},
	}
	got := DecidePostSubmit(q, responses)
	if got.Redirect != REDIRECT_INTEGRATIONS {
		t.Errorf("unexpected redirect: %s", got.Redirect)
	}
	want := []string{"apple-health", "fitbit"}
	if !reflect.DeepEqual(got.SelectedIntegrations, want) {
		t.Errorf("integrations = %v, want %v", got.SelectedIntegrations, want)
	}
}
