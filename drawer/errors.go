/*
errors.go - Centralized error types for the cash core

PURPOSE:
  All error types in one place. Invalid commands are rejected at the
  command boundary and never silently corrected; nothing in this core is
  retried automatically, and a committed ledger append is never rolled back.

ERROR CATEGORIES:
  1. State errors      - command refused because of session state
  2. Input errors      - negative amounts, unknown movement types
  3. Store errors      - persistence failures, missing rows

USAGE:
  if errors.Is(err, drawer.ErrSessionClosed) { ... }
*/
package drawer

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrSessionOpen is returned when OPEN is attempted while a session is
	// already open.
	ErrSessionOpen = errors.New("a drawer session is already open")

	// ErrSessionClosed is returned when a command requires an open session
	// (deposit, expense, withdrawal, reconciliation) and there is none.
	ErrSessionClosed = errors.New("no drawer session is open")

	// ErrNegativeAmount is returned for negative movement amounts or a
	// negative declared cash count. Magnitudes are always >= 0; a negative
	// BALANCE is a computed outcome, never a stored value.
	ErrNegativeAmount = errors.New("amount must not be negative")

	// ErrImmutableZCut is returned when deleting or editing a z-cut CLOSE
	// entry is attempted. Close records are permanent.
	ErrImmutableZCut = errors.New("z-cut movements cannot be deleted")

	// ErrMovementNotFound is returned when a referenced movement doesn't exist.
	ErrMovementNotFound = errors.New("movement not found")

	// ErrInvalidMovementType is returned for unknown movement types at the
	// command boundary.
	ErrInvalidMovementType = errors.New("invalid movement type")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// StateError reports a command refused because of session state.
type StateError struct {
	Command string // e.g. "open", "close", "deposit"
	IsOpen  bool   // session state at refusal time
}

func (e *StateError) Error() string {
	if e.IsOpen {
		return fmt.Sprintf("%s refused: a session is already open", e.Command)
	}
	return fmt.Sprintf("%s refused: no session is open", e.Command)
}

func (e *StateError) Unwrap() error {
	if e.IsOpen {
		return ErrSessionOpen
	}
	return ErrSessionClosed
}

// AmountError reports a rejected amount.
type AmountError struct {
	Command string
	Amount  decimal.Decimal
}

func (e *AmountError) Error() string {
	return fmt.Sprintf("%s refused: amount %s is negative", e.Command, e.Amount)
}

func (e *AmountError) Unwrap() error { return ErrNegativeAmount }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to an invalid command
// rather than a store failure. These map to 4xx at the HTTP boundary.
func IsClientError(err error) bool {
	return errors.Is(err, ErrSessionOpen) ||
		errors.Is(err, ErrSessionClosed) ||
		errors.Is(err, ErrNegativeAmount) ||
		errors.Is(err, ErrImmutableZCut) ||
		errors.Is(err, ErrInvalidMovementType)
}

// IsConflict returns true for state conflicts (HTTP 409).
func IsConflict(err error) bool {
	return errors.Is(err, ErrSessionOpen) ||
		errors.Is(err, ErrSessionClosed) ||
		errors.Is(err, ErrImmutableZCut)
}
