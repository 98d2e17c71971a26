package domain

import (
	"errors"
	"fmt"
)

// Common errors
var (
	ErrNotFound         = errors.New("record not found")
	ErrInvalidID        = errors.New("invalid id")
	ErrValidation       = errors.New("validation error")
	ErrCapacityExceeded = errors.New("date range is full")
	ErrVersionConflict  = errors.New("document was modified by another session, reload and retry")
	ErrLockBusy         = errors.New("another enrollment for this date range is in progress")
	ErrStore            = errors.New("store failure")
)

// Not-found errors per entity. All of them match ErrNotFound.
var (
	ErrPackageNotFound   = fmt.Errorf("package %w", ErrNotFound)
	ErrDateRangeNotFound = fmt.Errorf("date range %w", ErrNotFound)
	ErrMemberNotFound    = fmt.Errorf("trip member %w", ErrNotFound)
	ErrCategoryNotFound  = fmt.Errorf("details category %w", ErrNotFound)
	ErrAssetNotFound     = fmt.Errorf("media asset %w", ErrNotFound)
)

// ValidationError reports malformed or logically invalid input.
type ValidationError struct {
	Field   string
	Message string
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// CapacityExceededError is returned when an enrollment would push a date range past maxParticipants.
type CapacityExceededError struct {
	DateRangeID string
	Max         int
	Current     int
}

func (e *CapacityExceededError) Error() string {
	return fmt.Sprintf("date range %s is full (%d/%d participants)", e.DateRangeID, e.Current, e.Max)
}

func (e *CapacityExceededError) Is(target error) bool {
	return target == ErrCapacityExceeded
}

// StoreError wraps a document store, cache or blob store failure.
type StoreError struct {
	Op  string
	Err error
}

func NewStoreError(op string, err error) *StoreError {
	return &StoreError{Op: op, Err: err}
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

func (e *StoreError) Is(target error) bool {
	return target == ErrStore
}
