/*
store.go - Persistence interfaces for the movement ledger and sales records

PURPOSE:
  Defines the boundary between the cash core and its storage. The movement
  ledger is append-only with one carve-out: full deletion of a non-z-cut
  entry, used by operators to undo erroneous manual movements. CLOSE entries
  with a z report are permanent.

SALES RECORDS:
  Transactions belong to the sales module; this core only reads them.
  SalesReader is the read-only surface; SalesStore adds the ingest method
  used by the collaborator that records sales.

IMPLEMENTATIONS:
  - store/sqlite:    Production SQLite
  - drawer/store:    In-memory for tests/dev

SEE ALSO:
  - commands.go: Command boundary using MovementStore
  - zcut.go:     Reconciliation engine using both interfaces
*/
package drawer

import (
	"context"
	"time"
)

// =============================================================================
// MOVEMENT STORE - Append-only ledger persistence
// =============================================================================

// MovementStore persists cash movements.
//
// INVARIANTS:
//   - Append assigns Seq monotonically in insertion order.
//   - Load returns movements ordered ascending by (Timestamp, Seq).
//   - Delete must refuse movements with IsZCut set.
type MovementStore interface {
	// Append persists a movement. The only write besides Delete.
	Append(ctx context.Context, m *CashMovement) error

	// Load returns the full ledger, ascending by (Timestamp, Seq).
	Load(ctx context.Context) ([]CashMovement, error)

	// LoadRange returns movements with Timestamp in [from, to).
	LoadRange(ctx context.Context, from, to time.Time) ([]CashMovement, error)

	// Get returns a movement by ID, or ErrMovementNotFound.
	Get(ctx context.Context, id string) (*CashMovement, error)

	// Delete removes a non-z-cut movement. Returns ErrImmutableZCut for
	// z-cut entries and ErrMovementNotFound for unknown IDs.
	Delete(ctx context.Context, id string) error
}

// =============================================================================
// SALES - Read-only to the cash core
// =============================================================================

// SalesReader reads sales transactions. The cash core never writes these.
type SalesReader interface {
	// LoadSince returns transactions with Date >= t, ascending by Date.
	LoadSince(ctx context.Context, t time.Time) ([]Transaction, error)

	// LoadRange returns transactions with Date in [from, to), ascending.
	LoadRange(ctx context.Context, from, to time.Time) ([]Transaction, error)
}

// SalesStore is the ingest surface used by the sales collaborator.
type SalesStore interface {
	SalesReader

	// Record persists a sales transaction.
	Record(ctx context.Context, tx *Transaction) error
}

// =============================================================================
// PRINT DISPATCH - Best-effort collaborator
// =============================================================================

// PrintDispatcher hands a frozen z report to the printing collaborator.
// Dispatch must not block and its outcome is never part of reconciliation:
// a failed or absent printer leaves the appended CLOSE untouched.
type PrintDispatcher interface {
	DispatchZReport(report ZReportData)
}
