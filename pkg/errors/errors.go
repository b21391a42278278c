// Package errors provides the error types used across the linker. The types
// separate fatal failures (configuration, source store) from per-submission
// failures (resolution, sync), and classify CRM transport failures as
// transient or permanent so retry layers know what is worth repeating.
package errors

import (
	"errors"
	"fmt"
)

// New returns an error that formats as the given text.
// It's an alias for the standard library errors.New for convenience.
var New = errors.New

// Common sentinel errors for the linker.
var (
	// ErrInvalidName indicates a company name that is empty after
	// normalization and cannot be matched or created.
	ErrInvalidName = errors.New("invalid company name")

	// ErrCreationDisabled indicates a product was not found and the active
	// profile forbids creating catalog entries.
	ErrCreationDisabled = errors.New("product not found and creation disabled")

	// ErrDealNotFound indicates a submission's deal does not exist in the CRM.
	ErrDealNotFound = errors.New("deal not found")

	// ErrHeadcountOutOfRange indicates a company headcount outside the
	// profile's configured bounds.
	ErrHeadcountOutOfRange = errors.New("headcount out of range")

	// ErrRateLimited indicates the CRM API rate limit has been exceeded.
	ErrRateLimited = errors.New("rate limited")

	// ErrTransient marks failures that are safe to retry.
	ErrTransient = errors.New("transient failure")
)

// ConfigError represents a configuration problem detected before any
// processing starts. Always fatal.
type ConfigError struct {
	Component string
	Message   string
	Err       error
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Component != "" {
		return fmt.Sprintf("configuration error in %s: %s", e.Component, e.Message)
	}
	return fmt.Sprintf("configuration error: %s", e.Message)
}

// Unwrap implements errors.Unwrap.
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// NewConfigError creates a new ConfigError.
func NewConfigError(component, message string, err error) *ConfigError {
	return &ConfigError{Component: component, Message: message, Err: err}
}

// StoreError represents a failure of the submission source store. Fatal to
// the whole batch: if the source is unreachable there is nothing to process.
type StoreError struct {
	Operation string
	Err       error
}

// Error implements the error interface.
func (e *StoreError) Error() string {
	return fmt.Sprintf("store error during %s: %v", e.Operation, e.Err)
}

// Unwrap implements errors.Unwrap.
func (e *StoreError) Unwrap() error {
	return e.Err
}

// NewStoreError creates a new StoreError.
func NewStoreError(operation string, err error) *StoreError {
	return &StoreError{Operation: operation, Err: err}
}

// ResolveError represents a permanent failure to resolve a company name to a
// catalog product. Scoped to one submission and never retried.
type ResolveError struct {
	Company string
	Reason  error
}

// Error implements the error interface.
func (e *ResolveError) Error() string {
	if e.Company != "" {
		return fmt.Sprintf("cannot resolve company %q: %v", e.Company, e.Reason)
	}
	return fmt.Sprintf("cannot resolve company: %v", e.Reason)
}

// Unwrap implements errors.Unwrap.
func (e *ResolveError) Unwrap() error {
	return e.Reason
}

// NewResolveError creates a new ResolveError.
func NewResolveError(company string, reason error) *ResolveError {
	return &ResolveError{Company: company, Reason: reason}
}

// SyncError represents a failure while synchronizing a deal's line items.
type SyncError struct {
	DealID int
	Err    error
}

// Error implements the error interface.
func (e *SyncError) Error() string {
	return fmt.Sprintf("sync error for deal %d: %v", e.DealID, e.Err)
}

// Unwrap implements errors.Unwrap.
func (e *SyncError) Unwrap() error {
	return e.Err
}

// NewSyncError creates a new SyncError.
func NewSyncError(dealID int, err error) *SyncError {
	return &SyncError{DealID: dealID, Err: err}
}

// APIError represents a failure from the CRM HTTP API. Transient marks
// failures (timeouts, 429, 5xx) that retry layers may repeat.
type APIError struct {
	Endpoint   string
	StatusCode int
	Message    string
	Transient  bool
	Err        error
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("CRM API error on %s (status %d): %s", e.Endpoint, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("CRM API error on %s: %s", e.Endpoint, e.Message)
}

// Unwrap implements errors.Unwrap.
func (e *APIError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support.
func (e *APIError) Is(target error) bool {
	if target == ErrTransient {
		return e.Transient
	}
	if target == ErrRateLimited {
		return e.StatusCode == 429
	}
	return false
}

// NewAPIError creates a new APIError, classifying the status code.
func NewAPIError(endpoint string, statusCode int, message string) *APIError {
	return &APIError{
		Endpoint:   endpoint,
		StatusCode: statusCode,
		Message:    message,
		Transient:  statusCode == 429 || statusCode >= 500,
	}
}

// Helper functions for error checking.

// IsTransient reports whether an error is worth retrying: either explicitly
// marked transient or a rate-limit failure.
func IsTransient(err error) bool {
	return errors.Is(err, ErrTransient) || errors.Is(err, ErrRateLimited)
}

// IsInvalidName checks if an error is an invalid-name resolution failure.
func IsInvalidName(err error) bool {
	return errors.Is(err, ErrInvalidName)
}

// IsCreationDisabled checks if an error is a creation-disabled resolution failure.
func IsCreationDisabled(err error) bool {
	return errors.Is(err, ErrCreationDisabled)
}

// IsDealNotFound checks if an error indicates an orphaned deal.
func IsDealNotFound(err error) bool {
	return errors.Is(err, ErrDealNotFound)
}
