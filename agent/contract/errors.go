package contract

import "errors"

var (
	ErrModelInvoke     = errors.New("model invoke failed")
	ErrSchemaViolation = errors.New("model response violates schema")
	ErrValidation      = errors.New("validation failed")
	ErrNotConfigured   = errors.New("reasoning provider is not configured")
	ErrStepBudget      = errors.New("step budget exceeded")
)
