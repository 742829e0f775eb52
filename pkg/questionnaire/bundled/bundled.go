// Package bundled ships the personal health questionnaire with the portal
// and holds the business rule that decides where a user goes after
// submitting it.
package bundled

import (
	_ "embed"
	"strings"

	qtypes "github.com/case-framework/records-portal/pkg/questionnaire/types"
	"gopkg.in/yaml.v2"
)

const (
	PERSONAL_HEALTH_ID = "personal-health"

	serviceInterestPageTitle = "Service Interest"
	serviceInterestAnswer    = "interested"
	uploadMarker             = "upload"
	integrationSeparator     = ":"
)

type Redirect string

const (
	REDIRECT_DOCUMENTS    Redirect = "documents"
	REDIRECT_INTEGRATIONS Redirect = "integrations"
)

type PostSubmit struct {
	Redirect             Redirect `json:"redirect"`
	SelectedIntegrations []string `json:"selectedIntegrations"`
}

//go:embed personal-health.yaml
var personalHealthDefinition []byte

// IsPersonalHealth matches the fixed questionnaire id or a URL path that
// ends with it.
func IsPersonalHealth(idOrPath string) bool {
	idOrPath = strings.TrimSuffix(strings.TrimSpace(idOrPath), "/")
	return idOrPath == PERSONAL_HEALTH_ID || strings.HasSuffix(idOrPath, "/"+PERSONAL_HEALTH_ID)
}

// LoadPersonalHealth parses and validates the embedded definition.
func LoadPersonalHealth() (qtypes.Questionnaire, error) {
	var q qtypes.Questionnaire
	if err := yaml.UnmarshalStrict(personalHealthDefinition, &q); err != nil {
		return qtypes.Questionnaire{}, err
	}
	if err := q.Validate(); err != nil {
		return qtypes.Questionnaire{}, err
	}
	return q, nil
}

// DecidePostSubmit routes to document upload when any question mentioning
// "upload" was answered affirmatively, otherwise to the integrations hub.
// Service interest answers are reported in question order.
func DecidePostSubmit(q qtypes.Questionnaire, responses map[string]qtypes.QuestionResponse) PostSubmit {
	result := PostSubmit{
		Redirect:             REDIRECT_INTEGRATIONS,
		SelectedIntegrations: []string{},
	}

	for _, page := range q.Pages {
		isServicePage := strings.EqualFold(strings.TrimSpace(page.Title), serviceInterestPageTitle)
		for _, question := range page.Questions {
			r, ok := responses[question.ID]
			if !ok || r.IsSkipped {
				continue
			}

			if strings.Contains(strings.ToLower(question.QuestionText), uploadMarker) && isAffirmative(r.AnswerValue) {
				result.Redirect = REDIRECT_DOCUMENTS
			}

			if isServicePage && strings.EqualFold(strings.TrimSpace(r.AnswerValue.String()), serviceInterestAnswer) {
				parts := strings.Split(question.ID, integrationSeparator)
				result.SelectedIntegrations = append(result.SelectedIntegrations, parts[len(parts)-1])
			}
		}
	}
	return result
}

func isAffirmative(a qtypes.AnswerValue) bool {
	switch a.Kind {
	case qtypes.ANSWER_KIND_BOOLEAN:
		return a.Bool
	case qtypes.ANSWER_KIND_STRING:
		v := strings.ToLower(strings.TrimSpace(a.Str))
		return v == "yes" || v == "true"
	}
	return false
}
