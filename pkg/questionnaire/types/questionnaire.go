package types

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

type QuestionType string

const (
	QUESTION_TYPE_MULTIPLE_CHOICE QuestionType = "multiple-choice"
	QUESTION_TYPE_SINGLE_CHOICE   QuestionType = "single-choice"
	QUESTION_TYPE_TEXT            QuestionType = "text"
	QUESTION_TYPE_NUMBER          QuestionType = "number"
	QUESTION_TYPE_DATE            QuestionType = "date"
	QUESTION_TYPE_SCALE           QuestionType = "scale"
	QUESTION_TYPE_YES_NO          QuestionType = "yes-no"
	QUESTION_TYPE_CHECKBOX        QuestionType = "checkbox"
)

var (
	ErrDuplicateQuestionID = errors.New("duplicate question id")
	ErrMissingOptions      = errors.New("choice question without options")
)

var validate = validator.New(validator.WithRequiredStructEnabled())

type Questionnaire struct {
	ID          string         `bson:"id" json:"id" yaml:"id" validate:"required"`
	Title       string         `bson:"title" json:"title" yaml:"title"`
	Description string         `bson:"description,omitempty" json:"description,omitempty" yaml:"description,omitempty"`
	Pages       []QuestionPage `bson:"pages" json:"pages" yaml:"pages" validate:"required,min=1,dive"`
}

type QuestionPage struct {
	ID          string     `bson:"id" json:"id" yaml:"id" validate:"required"`
	Title       string     `bson:"title" json:"title" yaml:"title"`
	Description string     `bson:"description,omitempty" json:"description,omitempty" yaml:"description,omitempty"`
	Questions   []Question `bson:"questions" json:"questions" yaml:"questions" validate:"dive"`
}

type Question struct {
	ID             string           `bson:"id" json:"id" yaml:"id" validate:"required"`
	QuestionNumber int              `bson:"questionNumber" json:"questionNumber" yaml:"questionNumber"`
	QuestionText   string           `bson:"questionText" json:"questionText" yaml:"questionText" validate:"required"`
	QuestionType   QuestionType     `bson:"questionType" json:"questionType" yaml:"questionType" validate:"required,oneof=multiple-choice single-choice text number date scale yes-no checkbox"`
	IsRequired     bool             `bson:"isRequired" json:"isRequired" yaml:"isRequired"`
	Options        []string         `bson:"options,omitempty" json:"options,omitempty" yaml:"options,omitempty"`
	Validation     *ValidationRules `bson:"validation,omitempty" json:"validation,omitempty" yaml:"validation,omitempty"`
	HelpText       string           `bson:"helpText,omitempty" json:"helpText,omitempty" yaml:"helpText,omitempty"`
	Placeholder    string           `bson:"placeholder,omitempty" json:"placeholder,omitempty" yaml:"placeholder,omitempty"`
}

type ValidationRules struct {
	MinLength    *int     `bson:"minLength,omitempty" json:"minLength,omitempty" yaml:"minLength,omitempty"`
	MaxLength    *int     `bson:"maxLength,omitempty" json:"maxLength,omitempty" yaml:"maxLength,omitempty"`
	MinValue     *float64 `bson:"minValue,omitempty" json:"minValue,omitempty" yaml:"minValue,omitempty"`
	MaxValue     *float64 `bson:"maxValue,omitempty" json:"maxValue,omitempty" yaml:"maxValue,omitempty"`
	Pattern      string   `bson:"pattern,omitempty" json:"pattern,omitempty" yaml:"pattern,omitempty"`
	ErrorMessage string   `bson:"errorMessage,omitempty" json:"errorMessage,omitempty" yaml:"errorMessage,omitempty"`
}

// IsListType reports question types whose answers are a set of options.
func (t QuestionType) IsListType() bool {
	return t == QUESTION_TYPE_MULTIPLE_CHOICE || t == QUESTION_TYPE_CHECKBOX
}

func (t QuestionType) needsOptions() bool {
	return t == QUESTION_TYPE_MULTIPLE_CHOICE || t == QUESTION_TYPE_SINGLE_CHOICE
}

// Validate checks the structure of a questionnaire definition before a
// session is started on it.
func (q *Questionnaire) Validate() error {
	if err := validate.Struct(q); err != nil {
		return err
	}

	seen := map[string]bool{}
	for _, page := range q.Pages {
		for _, question := range page.Questions {
			if seen[question.ID] {
				return fmt.Errorf("%w: %s", ErrDuplicateQuestionID, question.ID)
			}
			seen[question.ID] = true
			if question.QuestionType.needsOptions() && len(question.Options) == 0 {
				return fmt.Errorf("%w: %s", ErrMissingOptions, question.ID)
			}
		}
	}
	return nil
}

// FindQuestion returns the question and the index of its page.
func (q *Questionnaire) FindQuestion(questionID string) (*Question, int, bool) {
	for pi := range q.Pages {
		for qi := range q.Pages[pi].Questions {
			if q.Pages[pi].Questions[qi].ID == questionID {
				return &q.Pages[pi].Questions[qi], pi, true
			}
		}
	}
	return nil, -1, false
}

// Questions returns all questions in page order.
func (q *Questionnaire) Questions() []Question {
	var all []Question
	for _, page := range q.Pages {
		all = append(all, page.Questions...)
	}
	return all
}
