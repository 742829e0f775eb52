package engine

import "errors"

var (
	ErrNotLoaded           = errors.New("questionnaire not loaded")
	ErrLoadFailed          = errors.New("questionnaire could not be loaded")
	ErrUnknownQuestion     = errors.New("unknown question")
	ErrValidation          = errors.New("required questions are unanswered")
	ErrSubmissionFailure   = errors.New("questionnaire submission failed")
	ErrDraftNotSupported   = errors.New("drafts are not supported for this questionnaire")
	ErrOperationInProgress = errors.New("submission in progress")
	ErrAlreadySubmitted    = errors.New("questionnaire already submitted")
	ErrFirstPage           = errors.New("already on the first page")
	ErrPageOutOfRange      = errors.New("page index out of range")
	ErrClosed              = errors.New("questionnaire session closed")
)
