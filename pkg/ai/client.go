package ai

import (
	"context"
	"errors"
	"fmt"
)

// TextGenerator sends a single prompt to a generative model and returns its raw text.
// jsonOutput asks the provider to answer with an application/json body.
type TextGenerator interface {
	GenerateText(ctx context.Context, prompt string, jsonOutput bool) (string, error)
}

// Kind classifies provider failures.
type Kind int

const (
	// Permanent failures are not retried (bad key, bad request, blocked prompt).
	Permanent Kind = iota
	// Transient failures signal temporary overload and are worth retrying.
	Transient
	// Malformed means the provider answered but the payload is unusable.
	Malformed
)

func (k Kind) String() string {
	switch k {
	case Transient:
		return "transient"
	case Malformed:
		return "malformed"
	}
	return "permanent"
}

// Error is returned by provider clients for every failed call.
type Error struct {
	Kind       Kind
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("ai %s error (status %d): %v", e.Kind, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("ai %s error: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the classification of err; unknown errors count as permanent.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Permanent
}

// IsTransient reports whether err is a retryable overload signal.
func IsTransient(err error) bool {
	return err != nil && KindOf(err) == Transient
}
