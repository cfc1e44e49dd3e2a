// Package scorers provides the built-in scorer implementations for the
// evaluation harness. Every scorer validates its configuration at
// construction time, is immutable afterwards, and is safe to share
// read-only across concurrent workers.
package scorers

import (
	"github.com/go-playground/validator/v10"
)

// Package-level validator instance for configuration validation.
// Uses go-playground/validator v10 for struct tag-based validation.
var validate = validator.New()
