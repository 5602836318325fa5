// Package errors provides standardized error handling for the query pipeline.
package errors

import (
	"errors"
	"fmt"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	// Translation boundary
	ErrCodeTranslationFailed       ErrorCode = "TRANSLATION_FAILED"
	ErrCodeLanguageDetectionFailed ErrorCode = "LANGUAGE_DETECTION_FAILED"

	// Dialog / intent recognition
	ErrCodeIntentUnresolved       ErrorCode = "INTENT_UNRESOLVED"
	ErrCodeDialogContinuation     ErrorCode = "DIALOG_CONTINUATION"
	ErrCodeRecursionLimitExceeded ErrorCode = "RECURSION_LIMIT_EXCEEDED"
	ErrCodeClassifierUnavailable  ErrorCode = "CLASSIFIER_UNAVAILABLE"

	// Fulfillment
	ErrCodeFulfillmentDataFailed ErrorCode = "FULFILLMENT_DATA_FAILED"
	ErrCodeDrugAPIUnavailable    ErrorCode = "DRUG_API_UNAVAILABLE"

	// Catch-all
	ErrCodeUnexpectedFault ErrorCode = "UNEXPECTED_FAULT"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// Expected reports whether the error is an ordinary conversational outcome
// (unresolved intent, pending dialog) rather than a system fault. Expected
// errors are returned to the user and never logged at error level.
func (e *StandardError) Expected() bool {
	switch e.Code {
	case ErrCodeIntentUnresolved, ErrCodeDialogContinuation:
		return true
	}
	return false
}

// CodeOf extracts the ErrorCode from err, or ErrCodeUnexpectedFault when err
// is not a StandardError.
func CodeOf(err error) ErrorCode {
	var se *StandardError
	if errors.As(err, &se) {
		return se.Code
	}
	return ErrCodeUnexpectedFault
}

// ==========================
// 2. Error Constructors
// ==========================

// NewTranslationFailedError creates a non-retryable translation error.
func NewTranslationFailedError(language string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeTranslationFailed,
		Message:   fmt.Sprintf("Translation failed, language: %s", language),
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewLanguageDetectionFailedError signals that no source language could be
// determined for an auto-detect request.
func NewLanguageDetectionFailedError() *StandardError {
	return &StandardError{
		Code:      ErrCodeLanguageDetectionFailed,
		Message:   "Language detection failed",
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewRecursionLimitExceededError creates a fatal slot-resolution loop error.
func NewRecursionLimitExceededError(depth int) *StandardError {
	return &StandardError{
		Code:      ErrCodeRecursionLimitExceeded,
		Message:   "Slot resolution did not converge",
		Details:   fmt.Sprintf("depth: %d", depth),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewClassifierUnavailableError creates a retryable classifier transport error.
func NewClassifierUnavailableError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeClassifierUnavailable,
		Message:   "Intent classifier unavailable",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewDrugAPIUnavailableError creates a retryable drug-data transport error.
func NewDrugAPIUnavailableError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDrugAPIUnavailable,
		Message:   "Drug information source unavailable",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewFulfillmentDataError creates a non-retryable malformed-data error.
func NewFulfillmentDataError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeFulfillmentDataFailed,
		Message:   "Drug information could not be processed",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewUnexpectedFaultError wraps an unanticipated internal fault.
func NewUnexpectedFaultError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeUnexpectedFault,
		Message:   "An unexpected error occurred while processing your request.",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}
