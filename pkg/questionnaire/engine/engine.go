// Package engine runs a questionnaire session: page navigation gated by
// required answers, response recording and submission.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/case-framework/records-portal/pkg/metrics"
	"github.com/case-framework/records-portal/pkg/questionnaire/bundled"
	qtypes "github.com/case-framework/records-portal/pkg/questionnaire/types"
	"github.com/case-framework/records-portal/pkg/session"
)

type State string

const (
	STATE_LOADING     State = "loading"
	STATE_ERROR       State = "error"
	STATE_IN_PROGRESS State = "in_progress"
	STATE_SUBMITTING  State = "submitting"
	STATE_SUBMITTED   State = "submitted"
)

const (
	submissionKindFinal = "final"
	submissionKindDraft = "draft"

	warningRequiredUnanswered = "Please answer all required questions before continuing."
)

type QuestionnaireBackend interface {
	GetQuestionnaire(ctx context.Context, sess *session.Context, questionnaireID string) (qtypes.Questionnaire, error)
	SubmitResponses(ctx context.Context, sess *session.Context, submission qtypes.ResponseSubmission) (qtypes.ResponseRecord, error)
}

type Options struct {
	// LoadBundled replaces the embedded personal health definition.
	LoadBundled func() (qtypes.Questionnaire, error)
}

type SubmitResult struct {
	ResponseID string              `json:"responseId"`
	PostSubmit *bundled.PostSubmit `json:"postSubmit,omitempty"`
}

type Snapshot struct {
	QuestionnaireID  string                             `json:"questionnaireId"`
	Title            string                             `json:"title"`
	State            State                              `json:"state"`
	IsBundled        bool                               `json:"isBundled"`
	CurrentPageIndex int                                `json:"currentPageIndex"`
	TotalPages       int                                `json:"totalPages"`
	Progress         float64                            `json:"progress"`
	Page             *qtypes.QuestionPage               `json:"page,omitempty"`
	Responses        map[string]qtypes.QuestionResponse `json:"responses"`
	FieldErrors      map[string]string                  `json:"fieldErrors,omitempty"`
	Warning          string                             `json:"warning,omitempty"`
	LastError        string                             `json:"lastError,omitempty"`
	ResponseID       string                             `json:"responseId,omitempty"`
	PostSubmit       *bundled.PostSubmit                `json:"postSubmit,omitempty"`
}

type Engine struct {
	backend     QuestionnaireBackend
	sess        *session.Context
	ref         string
	loadBundled func() (qtypes.Questionnaire, error)

	mu            sync.Mutex
	state         State
	questionnaire *qtypes.Questionnaire
	isBundled     bool
	currentPage   int
	responses     map[string]qtypes.QuestionResponse
	inFlight      bool
	closed        bool
	generation    uint64
	warning       string
	lastError     error
	responseID    string
	postSubmit    *bundled.PostSubmit
}

// NewEngine prepares a session for the questionnaire identified by ref,
// which is an id or a URL path.
func NewEngine(backend QuestionnaireBackend, sess *session.Context, ref string, opts Options) *Engine {
	e := &Engine{
		backend:     backend,
		sess:        sess,
		ref:         ref,
		loadBundled: opts.LoadBundled,
		state:       STATE_LOADING,
		responses:   map[string]qtypes.QuestionResponse{},
	}
	if e.loadBundled == nil {
		e.loadBundled = bundled.LoadPersonalHealth
	}
	return e
}

// Load fetches the definition, or uses the bundled one for the personal
// health questionnaire, and starts on the first page.
func (e *Engine) Load(ctx context.Context) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrClosed
	}
	gen := e.generation
	e.state = STATE_LOADING
	e.mu.Unlock()

	var (
		q         qtypes.Questionnaire
		err       error
		isBundled = bundled.IsPersonalHealth(e.ref)
	)
	if isBundled {
		q, err = e.loadBundled()
	} else {
		q, err = e.backend.GetQuestionnaire(ctx, e.sess, e.ref)
	}
	if err == nil {
		err = q.Validate()
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if gen != e.generation {
		return ErrClosed
	}
	if err != nil {
		slog.Error("questionnaire could not be loaded", slog.String("questionnaire", e.ref), slog.String("error", err.Error()))
		e.state = STATE_ERROR
		e.lastError = err
		return fmt.Errorf("%w: %s", ErrLoadFailed, err.Error())
	}

	e.questionnaire = &q
	e.isBundled = isBundled
	e.currentPage = 0
	e.state = STATE_IN_PROGRESS
	e.lastError = nil
	return nil
}

// RecordResponse stores the answer of a question and clears a previous skip.
// A single string answer to a multiple-choice or checkbox question toggles
// that option in the stored selection.
func (e *Engine) RecordResponse(questionID string, response qtypes.QuestionResponse) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	question, err := e.editableQuestion(questionID)
	if err != nil {
		return err
	}

	response.QuestionID = questionID
	response.IsSkipped = false
	if question.QuestionType.IsListType() {
		response.AnswerValue = mergeSelection(e.responses[questionID], response.AnswerValue)
	}
	e.responses[questionID] = response
	return nil
}

// SkipQuestion marks a question as deliberately left out.
func (e *Engine) SkipQuestion(questionID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, err := e.editableQuestion(questionID); err != nil {
		return err
	}
	e.responses[questionID] = qtypes.QuestionResponse{
		QuestionID: questionID,
		IsSkipped:  true,
	}
	return nil
}

func (e *Engine) editableQuestion(questionID string) (*qtypes.Question, error) {
	if e.closed {
		return nil, ErrClosed
	}
	if e.questionnaire == nil {
		return nil, ErrNotLoaded
	}
	if e.state == STATE_SUBMITTED {
		return nil, ErrAlreadySubmitted
	}
	if e.inFlight {
		return nil, ErrOperationInProgress
	}
	question, _, ok := e.questionnaire.FindQuestion(questionID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownQuestion, questionID)
	}
	return question, nil
}

func mergeSelection(previous qtypes.QuestionResponse, incoming qtypes.AnswerValue) qtypes.AnswerValue {
	switch incoming.Kind {
	case qtypes.ANSWER_KIND_STRING:
		var selected []string
		if !previous.IsSkipped && previous.AnswerValue.Kind == qtypes.ANSWER_KIND_LIST {
			selected = previous.AnswerValue.List
		}
		return qtypes.ListAnswer(toggle(selected, incoming.Str)...)
	case qtypes.ANSWER_KIND_LIST:
		return qtypes.ListAnswer(dedupe(incoming.List)...)
	}
	return incoming
}

// toggle flips option in selected. Blank options leave the selection as is.
func toggle(selected []string, option string) []string {
	if strings.TrimSpace(option) == "" {
		return append([]string{}, selected...)
	}
	out := make([]string, 0, len(selected)+1)
	found := false
	for _, s := range selected {
		if s == option {
			found = true
			continue
		}
		out = append(out, s)
	}
	if !found {
		out = append(out, option)
	}
	return out
}

func dedupe(items []string) []string {
	seen := make(map[string]bool, len(items))
	out := make([]string, 0, len(items))
	for _, s := range items {
		if seen[s] || strings.TrimSpace(s) == "" {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

// Next advances one page when the current page is complete. On the last
// page it submits instead.
func (e *Engine) Next(ctx context.Context) error {
	e.mu.Lock()
	if err := e.navigable(); err != nil {
		e.mu.Unlock()
		return err
	}
	if !e.validatePage(e.currentPage) {
		e.warning = warningRequiredUnanswered
		page := e.currentPage
		e.mu.Unlock()
		metrics.CountValidationWarning()
		return fmt.Errorf("%w: page %d", ErrValidation, page)
	}
	if e.currentPage < len(e.questionnaire.Pages)-1 {
		e.currentPage++
		e.warning = ""
		e.mu.Unlock()
		return nil
	}
	e.mu.Unlock()

	_, err := e.Submit(ctx)
	return err
}

// Previous goes back one page without any validation.
func (e *Engine) Previous() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.navigable(); err != nil {
		return err
	}
	if e.currentPage == 0 {
		return ErrFirstPage
	}
	e.currentPage--
	e.warning = ""
	return nil
}

// GoToPage jumps to page i, used to revisit earlier pages.
func (e *Engine) GoToPage(i int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.navigable(); err != nil {
		return err
	}
	if i < 0 || i >= len(e.questionnaire.Pages) {
		return ErrPageOutOfRange
	}
	if i > e.currentPage {
		for p := e.currentPage; p < i; p++ {
			if !e.validatePage(p) {
				e.currentPage = p
				e.warning = warningRequiredUnanswered
				return fmt.Errorf("%w: page %d", ErrValidation, p)
			}
		}
	}
	e.currentPage = i
	e.warning = ""
	return nil
}

func (e *Engine) navigable() error {
	switch {
	case e.closed:
		return ErrClosed
	case e.questionnaire == nil:
		return ErrNotLoaded
	case e.state == STATE_SUBMITTED:
		return ErrAlreadySubmitted
	case e.inFlight:
		return ErrOperationInProgress
	}
	return nil
}

// Submit sends the complete response set. When required answers are
// missing the session moves to the first incomplete page instead.
func (e *Engine) Submit(ctx context.Context) (SubmitResult, error) {
	e.mu.Lock()
	if err := e.navigable(); err != nil {
		e.mu.Unlock()
		return SubmitResult{}, err
	}
	if ok, firstInvalid := e.validateAll(); !ok {
		e.currentPage = firstInvalid
		e.warning = warningRequiredUnanswered
		e.mu.Unlock()
		metrics.CountValidationWarning()
		return SubmitResult{}, fmt.Errorf("%w: page %d", ErrValidation, firstInvalid)
	}

	e.inFlight = true
	e.state = STATE_SUBMITTING
	e.warning = ""
	submission := e.buildSubmission(true)
	submitted := make(map[string]qtypes.QuestionResponse, len(e.responses))
	for id, r := range e.responses {
		submitted[id] = r
	}
	gen := e.generation
	e.mu.Unlock()

	record, err := e.backend.SubmitResponses(ctx, e.sess, submission)

	e.mu.Lock()
	defer e.mu.Unlock()
	if gen != e.generation {
		return SubmitResult{}, ErrClosed
	}
	e.inFlight = false

	if err != nil {
		slog.Error("questionnaire submission failed", slog.String("questionnaire", submission.QuestionnaireID), slog.String("error", err.Error()))
		e.state = STATE_IN_PROGRESS
		e.lastError = err
		metrics.CountQuestionnaireSubmission(submissionKindFinal, "failed")
		return SubmitResult{}, fmt.Errorf("%w: %s", ErrSubmissionFailure, err.Error())
	}

	e.state = STATE_SUBMITTED
	e.lastError = nil
	e.responseID = record.ID
	result := SubmitResult{ResponseID: record.ID}
	if e.isBundled {
		decision := bundled.DecidePostSubmit(*e.questionnaire, submitted)
		e.postSubmit = &decision
		result.PostSubmit = &decision
	}
	metrics.CountQuestionnaireSubmission(submissionKindFinal, "success")
	slog.Info("questionnaire submitted", slog.String("questionnaire", submission.QuestionnaireID), slog.String("responseID", record.ID))
	return result, nil
}

// SaveDraft stores the current answers as incomplete. Only server backed
// questionnaires keep drafts.
func (e *Engine) SaveDraft(ctx context.Context) (string, error) {
	e.mu.Lock()
	if err := e.navigable(); err != nil {
		e.mu.Unlock()
		return "", err
	}
	if e.isBundled {
		e.mu.Unlock()
		return "", ErrDraftNotSupported
	}
	e.inFlight = true
	submission := e.buildSubmission(false)
	gen := e.generation
	e.mu.Unlock()

	record, err := e.backend.SubmitResponses(ctx, e.sess, submission)

	e.mu.Lock()
	defer e.mu.Unlock()
	if gen != e.generation {
		return "", ErrClosed
	}
	e.inFlight = false

	if err != nil {
		slog.Error("questionnaire draft could not be saved", slog.String("questionnaire", submission.QuestionnaireID), slog.String("error", err.Error()))
		e.lastError = err
		metrics.CountQuestionnaireSubmission(submissionKindDraft, "failed")
		return "", fmt.Errorf("%w: %s", ErrSubmissionFailure, err.Error())
	}
	e.lastError = nil
	e.responseID = record.ID
	metrics.CountQuestionnaireSubmission(submissionKindDraft, "success")
	return record.ID, nil
}

// buildSubmission flattens the responses in question order.
func (e *Engine) buildSubmission(isCompleted bool) qtypes.ResponseSubmission {
	submission := qtypes.ResponseSubmission{
		QuestionnaireID: e.questionnaire.ID,
		Responses:       []qtypes.SubmittedAnswer{},
		IsCompleted:     isCompleted,
	}
	for _, question := range e.questionnaire.Questions() {
		r, ok := e.responses[question.ID]
		if !ok {
			continue
		}
		answer := qtypes.SubmittedAnswer{
			QuestionID: question.ID,
			AnswerText: r.AnswerText,
			IsSkipped:  r.IsSkipped,
		}
		if !r.IsSkipped {
			answer.AnswerValue = r.AnswerValue.Flatten()
		}
		submission.Responses = append(submission.Responses, answer)
	}
	return submission
}

// Progress is currentPageIndex / totalPages * 100, so the first page
// shows 0.
func (e *Engine) Progress() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.progress()
}

func (e *Engine) progress() float64 {
	if e.questionnaire == nil || len(e.questionnaire.Pages) == 0 {
		return 0
	}
	return float64(e.currentPage) / float64(len(e.questionnaire.Pages)) * 100
}

func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

func (e *Engine) CurrentPageIndex() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.currentPage
}

func (e *Engine) Warning() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.warning
}

func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	s := Snapshot{
		QuestionnaireID:  e.ref,
		State:            e.state,
		IsBundled:        e.isBundled,
		CurrentPageIndex: e.currentPage,
		Progress:         e.progress(),
		Responses:        make(map[string]qtypes.QuestionResponse, len(e.responses)),
		Warning:          e.warning,
		ResponseID:       e.responseID,
		PostSubmit:       e.postSubmit,
	}
	for k, v := range e.responses {
		s.Responses[k] = v
	}
	if e.lastError != nil {
		s.LastError = e.lastError.Error()
	}
	if e.questionnaire != nil {
		s.QuestionnaireID = e.questionnaire.ID
		s.Title = e.questionnaire.Title
		s.TotalPages = len(e.questionnaire.Pages)
		page := e.questionnaire.Pages[e.currentPage]
		s.Page = &page
		s.FieldErrors = e.fieldErrors(e.currentPage)
	}
	return s
}

// Close discards the session. Responses still in flight are ignored.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	e.generation++
	e.inFlight = false
}
