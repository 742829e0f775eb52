package utils

import (
	"github.com/go-playground/validator/v10"
)

var configValidator = validator.New(validator.WithRequiredStructEnabled())

// ValidateConfig checks the `validate` tags of a loaded config struct.
func ValidateConfig(conf interface{}) error {
	return configValidator.Struct(conf)
}
