package types

import (
	"errors"
	"fmt"
)

var ErrAlertNotFound = errors.New("alert not found")

// TranscriptionError means the speech service was unavailable or returned
// unusable output.
type TranscriptionError struct {
	Err error
}

func (e *TranscriptionError) Error() string { return fmt.Sprintf("transcription: %v", e.Err) }
func (e *TranscriptionError) Unwrap() error { return e.Err }

// ClassificationError means the reasoning service failed or its answer did
// not satisfy the classification contract.
type ClassificationError struct {
	Provider string
	Err      error
}

func (e *ClassificationError) Error() string {
	return fmt.Sprintf("classification (%s): %v", e.Provider, e.Err)
}
func (e *ClassificationError) Unwrap() error { return e.Err }

// ValidationError is a client mistake detected before any external call.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Msg
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Msg)
}

type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string { return fmt.Sprintf("store %s: %v", e.Op, e.Err) }
func (e *StoreError) Unwrap() error { return e.Err }
