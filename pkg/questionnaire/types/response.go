package types

import "time"

type QuestionResponse struct {
	QuestionID  string      `json:"questionId"`
	AnswerValue AnswerValue `json:"answerValue"`
	AnswerText  string      `json:"answerText,omitempty"`
	IsSkipped   bool        `json:"isSkipped"`
}

// Satisfied reports whether the response answers a required question.
func (r QuestionResponse) Satisfied() bool {
	return !r.IsSkipped && r.AnswerValue.IsPresent()
}

// SubmittedAnswer is one flattened entry of a response submission.
type SubmittedAnswer struct {
	QuestionID  string      `bson:"questionId" json:"questionId"`
	AnswerValue interface{} `bson:"answerValue" json:"answerValue"`
	AnswerText  string      `bson:"answerText,omitempty" json:"answerText,omitempty"`
	IsSkipped   bool        `bson:"isSkipped" json:"isSkipped"`
}

type ResponseSubmission struct {
	QuestionnaireID string            `json:"questionnaireId" validate:"required"`
	Responses       []SubmittedAnswer `json:"responses"`
	IsCompleted     bool              `json:"isCompleted"`
}

type ResponseRecord struct {
	ID              string            `bson:"_id,omitempty" json:"id"`
	QuestionnaireID string            `bson:"questionnaireId" json:"questionnaireId"`
	UserID          string            `bson:"userId" json:"userId"`
	Responses       []SubmittedAnswer `bson:"responses" json:"responses"`
	IsCompleted     bool              `bson:"isCompleted" json:"isCompleted"`
	CreatedAt       time.Time         `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time         `bson:"updatedAt" json:"updatedAt"`
}
