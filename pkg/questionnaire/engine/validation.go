package engine

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	qtypes "github.com/case-framework/records-portal/pkg/questionnaire/types"
)

// ValidatePage is true iff every required question on page i has a
// non-skipped, present answer.
func (e *Engine) ValidatePage(i int) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.validatePage(i)
}

// ValidateAll checks all pages in order and returns the index of the first
// incomplete page, or -1.
func (e *Engine) ValidateAll() (bool, int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.validateAll()
}

func (e *Engine) validatePage(i int) bool {
	if e.questionnaire == nil || i < 0 || i >= len(e.questionnaire.Pages) {
		return false
	}
	for _, question := range e.questionnaire.Pages[i].Questions {
		if !question.IsRequired {
			continue
		}
		r, ok := e.responses[question.ID]
		if !ok || !r.Satisfied() {
			return false
		}
	}
	return true
}

func (e *Engine) validateAll() (bool, int) {
	if e.questionnaire == nil {
		return false, -1
	}
	for i := range e.questionnaire.Pages {
		if !e.validatePage(i) {
			return false, i
		}
	}
	return true, -1
}

// FieldErrors evaluates the optional validation rules of the answered
// questions on page i. The result is informational and does not block
// navigation.
func (e *Engine) FieldErrors(i int) map[string]string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.fieldErrors(i)
}

func (e *Engine) fieldErrors(i int) map[string]string {
	errs := map[string]string{}
	if e.questionnaire == nil || i < 0 || i >= len(e.questionnaire.Pages) {
		return errs
	}
	for _, question := range e.questionnaire.Pages[i].Questions {
		r, ok := e.responses[question.ID]
		if !ok || !r.Satisfied() || question.Validation == nil {
			continue
		}
		if msg := checkRules(question, r.AnswerValue); msg != "" {
			errs[question.ID] = msg
		}
	}
	return errs
}

func checkRules(question qtypes.Question, answer qtypes.AnswerValue) string {
	rules := question.Validation
	message := func(fallback string) string {
		if rules.ErrorMessage != "" {
			return rules.ErrorMessage
		}
		return fallback
	}

	if answer.Kind == qtypes.ANSWER_KIND_STRING {
		length := utf8.RuneCountInString(strings.TrimSpace(answer.Str))
		if rules.MinLength != nil && length < *rules.MinLength {
			return message(fmt.Sprintf("Please enter at least %d characters.", *rules.MinLength))
		}
		if rules.MaxLength != nil && length > *rules.MaxLength {
			return message(fmt.Sprintf("Please enter at most %d characters.", *rules.MaxLength))
		}
		if rules.Pattern != "" {
			re, err := regexp.Compile(rules.Pattern)
			if err == nil && !re.MatchString(answer.Str) {
				return message("The answer has an invalid format.")
			}
		}
	}

	if rules.MinValue != nil || rules.MaxValue != nil {
		value, ok := numericValue(answer)
		if !ok {
			return message("Please enter a number.")
		}
		if rules.MinValue != nil && value < *rules.MinValue {
			return message(fmt.Sprintf("The value must be at least %s.", formatNumber(*rules.MinValue)))
		}
		if rules.MaxValue != nil && value > *rules.MaxValue {
			return message(fmt.Sprintf("The value must be at most %s.", formatNumber(*rules.MaxValue)))
		}
	}
	return ""
}

func numericValue(answer qtypes.AnswerValue) (float64, bool) {
	switch answer.Kind {
	case qtypes.ANSWER_KIND_NUMBER:
		return answer.Num, true
	case qtypes.ANSWER_KIND_STRING:
		v, err := strconv.ParseFloat(strings.TrimSpace(answer.Str), 64)
		return v, err == nil
	}
	return 0, false
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
