package utils

import "regexp"

var resourceIDRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// IsURLSafe reports whether a resource id (document, questionnaire) can be
// placed into a request path without escaping.
func IsURLSafe(value string) bool {
	if value == "" || len(value) > 128 {
		return false
	}
	return resourceIDRegex.MatchString(value)
}
