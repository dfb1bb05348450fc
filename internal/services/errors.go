package services

import (
	"errors"
)

// ===== COMMON SERVICE ERRORS =====

var (
	// Generic errors
	ErrNotFound         = errors.New("resource not found")
	ErrUnauthorized     = errors.New("unauthorized access")
	ErrForbidden        = errors.New("forbidden - insufficient permissions")
	ErrValidationFailed = errors.New("validation failed")
	ErrInternalError    = errors.New("internal server error")
	ErrBadRequest       = errors.New("bad request")

	// Test specific errors
	ErrTestNotFound     = errors.New("listening test not found")
	ErrTestNotParseable = errors.New("listening test structure is malformed")

	// Submission specific errors
	ErrSubmissionNotFound  = errors.New("submission not found")
	ErrAlreadySubmitted    = errors.New("submission already finished")
	ErrEmptyAutosave       = errors.New("nothing to autosave - no answers and no existing submission")
	ErrSubmissionForbidden = errors.New("submission belongs to another user")
)
