package drawer_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumapos/cash-engine/drawer"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

var baseTime = time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC)

func mov(id string, t drawer.MovementType, amount float64, at time.Time, seq int64) drawer.CashMovement {
	return drawer.CashMovement{
		ID:        id,
		Type:      t,
		Amount:    decimal.NewFromFloat(amount),
		Timestamp: at,
		Seq:       seq,
	}
}

func closeMov(id string, at time.Time, seq int64) drawer.CashMovement {
	m := mov(id, drawer.MovementClose, 0, at, seq)
	m.IsZCut = true
	return m
}

// =============================================================================
// SESSION RESOLUTION
// =============================================================================

func TestResolveSession_EmptyLedger(t *testing.T) {
	// GIVEN: no movements at all
	// THEN: an empty, closed session

	session := drawer.ResolveSession(nil)

	assert.False(t, session.IsOpen)
	assert.Empty(t, session.Movements)
	assert.True(t, session.Balance().IsZero())
}

func TestResolveSession_NoClose_SessionIsWholeLedger(t *testing.T) {
	ledger := []drawer.CashMovement{
		mov("m1", drawer.MovementOpen, 100, baseTime, 1),
		mov("m2", drawer.MovementDeposit, 50, baseTime.Add(time.Hour), 2),
	}

	session := drawer.ResolveSession(ledger)

	assert.True(t, session.IsOpen)
	assert.Len(t, session.Movements, 2)
}

func TestResolveSession_AfterClose_SessionIsEmpty(t *testing.T) {
	// GIVEN: a shift that was opened and closed
	// THEN: the current session is empty and closed

	ledger := []drawer.CashMovement{
		mov("m1", drawer.MovementOpen, 100, baseTime, 1),
		mov("m2", drawer.MovementExpense, 20, baseTime.Add(time.Hour), 2),
		closeMov("m3", baseTime.Add(2*time.Hour), 3),
	}

	session := drawer.ResolveSession(ledger)

	assert.False(t, session.IsOpen)
	assert.Empty(t, session.Movements)
}

func TestResolveSession_OnlyMovementsAfterMostRecentClose(t *testing.T) {
	// GIVEN: a closed shift followed by a new open shift
	// THEN: only the new shift's movements are in the session

	ledger := []drawer.CashMovement{
		mov("old-open", drawer.MovementOpen, 100, baseTime, 1),
		closeMov("old-close", baseTime.Add(time.Hour), 2),
		mov("new-open", drawer.MovementOpen, 200, baseTime.Add(2*time.Hour), 3),
		mov("new-dep", drawer.MovementDeposit, 30, baseTime.Add(3*time.Hour), 4),
	}

	session := drawer.ResolveSession(ledger)

	require.True(t, session.IsOpen)
	require.Len(t, session.Movements, 2)
	assert.Equal(t, "new-dep", session.Movements[0].ID) // newest first
	assert.Equal(t, "new-open", session.Movements[1].ID)
	assert.Equal(t, "200", session.OpeningFund().String())
}

func TestResolveSession_CloseWithoutReopen_ClosedEmpty(t *testing.T) {
	// A ledger whose suffix after the last CLOSE has no OPEN: deposits were
	// recorded but the shift never formally started.

	ledger := []drawer.CashMovement{
		closeMov("c1", baseTime, 1),
		mov("d1", drawer.MovementDeposit, 10, baseTime.Add(time.Hour), 2),
	}

	session := drawer.ResolveSession(ledger)

	assert.False(t, session.IsOpen, "no OPEN since last close")
	assert.Len(t, session.Movements, 1)
}

func TestResolveSession_InputOrderIrrelevant(t *testing.T) {
	shuffled := []drawer.CashMovement{
		mov("m2", drawer.MovementDeposit, 50, baseTime.Add(time.Hour), 2),
		closeMov("m3", baseTime.Add(2*time.Hour), 3),
		mov("m1", drawer.MovementOpen, 100, baseTime, 1),
		mov("m4", drawer.MovementOpen, 75, baseTime.Add(3*time.Hour), 4),
	}

	session := drawer.ResolveSession(shuffled)

	require.True(t, session.IsOpen)
	require.Len(t, session.Movements, 1)
	assert.Equal(t, "m4", session.Movements[0].ID)
}

func TestResolveSession_TimestampTies_BrokenBySeq(t *testing.T) {
	// GIVEN: a CLOSE and an OPEN sharing the same timestamp
	// THEN: the later insertion (higher seq) is treated as newer

	ledger := []drawer.CashMovement{
		closeMov("c1", baseTime, 1),
		mov("o1", drawer.MovementOpen, 100, baseTime, 2),
	}

	session := drawer.ResolveSession(ledger)

	require.True(t, session.IsOpen, "OPEN inserted after CLOSE should start a new session")
	require.Len(t, session.Movements, 1)
	assert.Equal(t, "o1", session.Movements[0].ID)
}

// =============================================================================
// BALANCE CALCULATION
// =============================================================================

func TestSessionBalance_FoldsSignedAmounts(t *testing.T) {
	// Balance = sum(OPEN, DEPOSIT) - sum(EXPENSE, WITHDRAWAL)

	ledger := []drawer.CashMovement{
		mov("m1", drawer.MovementOpen, 100, baseTime, 1),
		mov("m2", drawer.MovementDeposit, 50, baseTime.Add(time.Hour), 2),
		mov("m3", drawer.MovementExpense, 20, baseTime.Add(2*time.Hour), 3),
		mov("m4", drawer.MovementWithdrawal, 15, baseTime.Add(3*time.Hour), 4),
	}

	session := drawer.ResolveSession(ledger)

	assert.Equal(t, "115", session.Balance().String())
}

func TestSessionBalance_NegativeIsValid(t *testing.T) {
	// A shortfall is a reportable condition, not an error.

	ledger := []drawer.CashMovement{
		mov("m1", drawer.MovementOpen, 10, baseTime, 1),
		mov("m2", drawer.MovementExpense, 25, baseTime.Add(time.Hour), 2),
	}

	session := drawer.ResolveSession(ledger)

	assert.Equal(t, "-15", session.Balance().String())
}

func TestSession_OpeningFundZeroWithoutOpen(t *testing.T) {
	ledger := []drawer.CashMovement{
		closeMov("c1", baseTime, 1),
		mov("d1", drawer.MovementDeposit, 40, baseTime.Add(time.Hour), 2),
	}

	session := drawer.ResolveSession(ledger)

	assert.True(t, session.OpeningFund().IsZero())
	assert.True(t, session.StartedAt().IsZero())
}

func TestSession_SumByType(t *testing.T) {
	ledger := []drawer.CashMovement{
		mov("m1", drawer.MovementOpen, 100, baseTime, 1),
		mov("m2", drawer.MovementExpense, 20, baseTime.Add(time.Hour), 2),
		mov("m3", drawer.MovementExpense, 5, baseTime.Add(2*time.Hour), 3),
		mov("m4", drawer.MovementWithdrawal, 30, baseTime.Add(3*time.Hour), 4),
	}

	session := drawer.ResolveSession(ledger)

	assert.Equal(t, "25", session.SumByType(drawer.MovementExpense).String())
	assert.Equal(t, "30", session.SumByType(drawer.MovementWithdrawal).String())
}
