package validator

import "errors"

// ErrValidationFailed is the generic validation failure.
var ErrValidationFailed = errors.New("validation failed")
