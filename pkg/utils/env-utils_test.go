package utils

import "testing"

func TestGenerateEnvVarName(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "simple alphanumeric name",
			input:    "portal",
			expected: "PORTAL",
		},
		{
			name:     "name with hyphens",
			input:    "records-backend-emulator",
			expected: "RECORDS_BACKEND_EMULATOR",
		},
		{
			name:     "email address",
			input:    "jane.doe@example.org",
			expected: "JANE_DOE_EXAMPLE_ORG",
		},
		{
			name:     "leading and trailing special chars",
			input:    "-lab_results-",
			expected: "LAB_RESULTS",
		},
		{
			name:     "empty string",
			input:    "",
			expected: "",
		},
		{
			name:     "only special characters",
			input:    "---",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := GenerateEnvVarName(tt.input)
			if result != tt.expected {
				t.Errorf("GenerateEnvVarName(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestGenerateAccountPasswordEnvVarName(t *testing.T) {
	got := GenerateAccountPasswordEnvVarName("admin@records.local")
	want := "SEED_ACCOUNT_PASSWORD_FOR_ADMIN_RECORDS_LOCAL"
	if got != want {
		t.Errorf("GenerateAccountPasswordEnvVarName() = %q, want %q", got, want)
	}
}
