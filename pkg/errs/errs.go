// Package errs holds the error values shared by the lexicon, speller and server packages.
//
// Every failure is one of these sentinels wrapped with context, so callers
// classify with errors.Is:
//
//	if errors.Is(err, errs.ErrEngineClosed) { ... }
package errs

import "errors"

var (
	// ErrInvalidInput is returned when a required argument is absent.
	ErrInvalidInput = errors.New("invalid input")
	// ErrEngineClosed is returned for operations on a released speller, archive or suggestion list.
	ErrEngineClosed = errors.New("engine closed")
	// ErrIndexOutOfRange is returned by SuggestionList.Get outside [0, Len).
	ErrIndexOutOfRange = errors.New("index out of range")
	// ErrIO is returned when a lexicon file cannot be read.
	ErrIO = errors.New("io error")
	// ErrEngineUnavailable is returned when an archive cannot produce a speller session.
	ErrEngineUnavailable = errors.New("engine unavailable")
	// ErrResourceExhausted is returned when a strict node pool runs out of records.
	ErrResourceExhausted = errors.New("resource exhausted")
)
