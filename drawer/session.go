/*
session.go - Session resolution and balance calculation

PURPOSE:
  The drawer session is never stored. It is a projection: a pure fold over
  the movement ledger. A session is the maximal suffix of the ledger (by
  time) that contains no CLOSE entry, and it is open iff that suffix
  contains an OPEN.

KEY INSIGHT:
  Because the session is derived, the single invariant ("closed iff a CLOSE
  is the most recent relevant event") is trivially correct: appending a
  CLOSE flips the next resolution to closed, with no stored flag to update.

TIE-BREAKING:
  Movements are ordered newest-first by Timestamp; equal timestamps fall
  back to store-assigned Seq (insertion order) so the scan is deterministic.

SEE ALSO:
  - zcut.go: Reconciliation, which terminates the session by appending CLOSE
*/
package drawer

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// SESSION - Computed projection, never stored
// =============================================================================

// Session is the current (or most recent) drawer shift as derived from the
// ledger. Movements are ordered newest-first.
type Session struct {
	Movements []CashMovement
	IsOpen    bool
}

// ResolveSession derives the current session from the full movement ledger.
// Input order does not matter; the slice is copied before sorting.
//
// Algorithm: sort descending by (Timestamp, Seq). The session is everything
// strictly newer than the most recent CLOSE, or the whole ledger if no CLOSE
// exists. Openness is whether that slice contains an OPEN.
func ResolveSession(movements []CashMovement) Session {
	if len(movements) == 0 {
		return Session{}
	}

	sorted := make([]CashMovement, len(movements))
	copy(sorted, movements)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].Timestamp.Equal(sorted[j].Timestamp) {
			return sorted[i].Timestamp.After(sorted[j].Timestamp)
		}
		return sorted[i].Seq > sorted[j].Seq
	})

	// Find the most recent CLOSE; the session ends strictly before it.
	end := len(sorted)
	for i, m := range sorted {
		if m.Type == MovementClose {
			end = i
			break
		}
	}

	session := sorted[:end]
	open := false
	for _, m := range session {
		if m.Type == MovementOpen {
			open = true
			break
		}
	}

	return Session{Movements: session, IsOpen: open}
}

// Balance folds the session movements into the current cash balance:
// OPEN and DEPOSIT add, EXPENSE and WITHDRAWAL subtract. The result may be
// negative, which signals a shortfall, not an error.
func (s Session) Balance() decimal.Decimal {
	total := decimal.Zero
	for _, m := range s.Movements {
		total = total.Add(m.Signed())
	}
	return total
}

// OpeningFund returns the session's OPEN amount, or zero if the session has
// no OPEN entry (legacy/incomplete sessions).
func (s Session) OpeningFund() decimal.Decimal {
	for _, m := range s.Movements {
		if m.Type == MovementOpen {
			return m.Amount
		}
	}
	return decimal.Zero
}

// StartedAt returns the timestamp of the session's OPEN movement, or the
// zero time when the session has no OPEN.
func (s Session) StartedAt() time.Time {
	for _, m := range s.Movements {
		if m.Type == MovementOpen {
			return m.Timestamp
		}
	}
	return time.Time{}
}

// SumByType sums the magnitudes of session movements of the given type.
// Z-cut CLOSE entries never appear in a session by construction.
func (s Session) SumByType(t MovementType) decimal.Decimal {
	total := decimal.Zero
	for _, m := range s.Movements {
		if m.Type == t {
			total = total.Add(m.Amount)
		}
	}
	return total
}
