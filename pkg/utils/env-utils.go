package utils

import (
	"regexp"
	"strings"
)

var nonAlphaNumRegex = regexp.MustCompile(`[^A-Z0-9]+`)

// GenerateEnvVarName converts the input to an upper-case environment variable
// name: non-alphanumeric runs become underscores, leading and trailing
// underscores are removed.
func GenerateEnvVarName(input string) string {
	normalized := nonAlphaNumRegex.ReplaceAllString(strings.ToUpper(input), "_")
	return strings.Trim(normalized, "_")
}

// GenerateAccountPasswordEnvVarName returns the variable that overrides the
// password of a seeded account. Format: SEED_ACCOUNT_PASSWORD_FOR_{NORMALIZED_EMAIL}
func GenerateAccountPasswordEnvVarName(email string) string {
	return "SEED_ACCOUNT_PASSWORD_FOR_" + GenerateEnvVarName(email)
}
