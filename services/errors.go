package services

import (
	"errors"
	"fmt"

	"github.com/Dosada05/bracket-of-death/brackets"
	"github.com/Dosada05/bracket-of-death/phase"
	"github.com/Dosada05/bracket-of-death/repositories"
	"github.com/Dosada05/bracket-of-death/scoring"
)

// Sentinels matched by the HTTP layer with errors.Is.
var (
	ErrNotFound          = errors.New("requested resource not found")
	ErrValidationFailed  = errors.New("validation failed")
	ErrInvalidTransition = errors.New("invalid transition")
	ErrScoreValidity     = errors.New("score fails validity rule")
)

// ValidationError is malformed or inconsistent input.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string   { return e.Err.Error() }
func (e *ValidationError) Unwrap() []error { return []error{ErrValidationFailed, e.Err} }

// InvalidTransitionError is a status change or advance requested out of turn.
type InvalidTransitionError struct {
	Err error
}

func (e *InvalidTransitionError) Error() string   { return e.Err.Error() }
func (e *InvalidTransitionError) Unwrap() []error { return []error{ErrInvalidTransition, e.Err} }

// ScoreValidityError is a completed score the sport rule rejects and no
// admin override covers.
type ScoreValidityError struct {
	Err error
}

func (e *ScoreValidityError) Error() string   { return e.Err.Error() }
func (e *ScoreValidityError) Unwrap() []error { return []error{ErrScoreValidity, e.Err} }

// NotFoundError is an unresolved tournament, match, team or player id.
type NotFoundError struct {
	Err error
}

func (e *NotFoundError) Error() string   { return e.Err.Error() }
func (e *NotFoundError) Unwrap() []error { return []error{ErrNotFound, e.Err} }

func validationErrorf(format string, args ...interface{}) error {
	return &ValidationError{Err: fmt.Errorf(format, args...)}
}

func transitionErrorf(format string, args ...interface{}) error {
	return &InvalidTransitionError{Err: fmt.Errorf(format, args...)}
}

// classify wraps errors from the lower packages into the service taxonomy.
// Errors that are already classified pass through unchanged.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var (
		ve *ValidationError
		te *InvalidTransitionError
		se *ScoreValidityError
		ne *NotFoundError
	)
	switch {
	case errors.As(err, &ve), errors.As(err, &te), errors.As(err, &se), errors.As(err, &ne):
		return err
	case errors.Is(err, scoring.ErrInvalidScore):
		return &ScoreValidityError{Err: err}
	case errors.Is(err, scoring.ErrInvalidInput),
		errors.Is(err, brackets.ErrUnsupportedRound):
		return &ValidationError{Err: err}
	case errors.Is(err, phase.ErrInvalidTransition),
		errors.Is(err, brackets.ErrNotEnoughTeams):
		return &InvalidTransitionError{Err: err}
	case errors.Is(err, repositories.ErrTournamentNotFound),
		errors.Is(err, repositories.ErrMatchNotFound),
		errors.Is(err, repositories.ErrPlayerNotFound):
		return &NotFoundError{Err: err}
	}
	return err
}
