package sqlite

import (
	"context"
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

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

var testTime = time.Date(2025, time.March, 10, 9, 30, 0, 0, time.UTC)

func testMovement(id string, movType drawer.MovementType, amount int64, at time.Time) *drawer.CashMovement {
	return &drawer.CashMovement{
		ID:        id,
		Type:      movType,
		Amount:    decimal.NewFromInt(amount),
		Timestamp: at,
		Category:  drawer.CategoryOperational,
	}
}

// =============================================================================
// MOVEMENT STORE
// =============================================================================

func TestAppendAssignsMonotonicSeq(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first := testMovement("m1", drawer.MovementOpen, 100, testTime)
	second := testMovement("m2", drawer.MovementDeposit, 50, testTime)

	require.NoError(t, store.Append(ctx, first))
	require.NoError(t, store.Append(ctx, second))

	assert.Equal(t, int64(1), first.Seq)
	assert.Equal(t, int64(2), second.Seq)
}

func TestMovementRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	loc := time.FixedZone("UTC-5", -5*3600)
	original := &drawer.CashMovement{
		ID:          "m1",
		Type:        drawer.MovementExpense,
		Amount:      decimal.RequireFromString("42.75"),
		Timestamp:   time.Date(2025, time.March, 10, 22, 15, 0, 123456789, loc),
		Category:    drawer.CategoryOperational,
		SubCategory: "supplies",
		Description: "paper rolls",
	}
	require.NoError(t, store.Append(ctx, original))

	got, err := store.Get(ctx, "m1")

	require.NoError(t, err)
	assert.Equal(t, original.ID, got.ID)
	assert.Equal(t, original.Type, got.Type)
	assert.True(t, original.Amount.Equal(got.Amount))
	assert.Equal(t, original.SubCategory, got.SubCategory)
	assert.Equal(t, original.Description, got.Description)
	assert.False(t, got.IsZCut)
	assert.Nil(t, got.ZReport)

	// The stored RFC3339 text keeps the original offset, so the local
	// calendar date survives the round trip.
	assert.True(t, original.Timestamp.Equal(got.Timestamp))
	_, offset := got.Timestamp.Zone()
	assert.Equal(t, -5*3600, offset)
}

func TestZReportSnapshotRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	report := &drawer.ZReportData{
		OpeningFund:   decimal.NewFromInt(100),
		GrossSales:    decimal.NewFromInt(135),
		CashSales:     decimal.NewFromInt(40),
		CardSales:     decimal.NewFromInt(25),
		TransferSales: decimal.NewFromInt(10),
		CreditSales:   decimal.NewFromInt(60),
		Expenses:      decimal.NewFromInt(10),
		Withdrawals:   decimal.NewFromInt(5),
		ExpectedCash:  decimal.NewFromInt(130),
		DeclaredCash:  decimal.NewFromInt(125),
		Difference:    decimal.NewFromInt(-5),
		Timestamp:     testTime,
	}
	closeMov := &drawer.CashMovement{
		ID:        "z1",
		Type:      drawer.MovementClose,
		Amount:    decimal.Zero,
		Timestamp: testTime,
		Category:  drawer.CategoryOther,
		IsZCut:    true,
		ZReport:   report,
	}
	require.NoError(t, store.Append(ctx, closeMov))

	got, err := store.Get(ctx, "z1")

	require.NoError(t, err)
	assert.True(t, got.IsZCut)
	require.NotNil(t, got.ZReport)
	assert.True(t, report.ExpectedCash.Equal(got.ZReport.ExpectedCash))
	assert.True(t, report.DeclaredCash.Equal(got.ZReport.DeclaredCash))
	assert.True(t, report.Difference.Equal(got.ZReport.Difference))
	assert.True(t, report.CreditSales.Equal(got.ZReport.CreditSales))
}

func TestLoadOrdersByTimeThenSeq(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	// Two movements share a timestamp; insertion order decides.
	require.NoError(t, store.Append(ctx, testMovement("late", drawer.MovementDeposit, 5, testTime.Add(time.Hour))))
	require.NoError(t, store.Append(ctx, testMovement("tie-a", drawer.MovementOpen, 100, testTime)))
	require.NoError(t, store.Append(ctx, testMovement("tie-b", drawer.MovementDeposit, 50, testTime)))

	movements, err := store.Load(ctx)

	require.NoError(t, err)
	require.Len(t, movements, 3)
	assert.Equal(t, "tie-a", movements[0].ID)
	assert.Equal(t, "tie-b", movements[1].ID)
	assert.Equal(t, "late", movements[2].ID)
}

func TestLoadRangeIsHalfOpen(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, testMovement("before", drawer.MovementDeposit, 1, testTime.Add(-time.Minute))))
	require.NoError(t, store.Append(ctx, testMovement("at-start", drawer.MovementDeposit, 2, testTime)))
	require.NoError(t, store.Append(ctx, testMovement("inside", drawer.MovementDeposit, 3, testTime.Add(30*time.Minute))))
	require.NoError(t, store.Append(ctx, testMovement("at-end", drawer.MovementDeposit, 4, testTime.Add(time.Hour))))

	movements, err := store.LoadRange(ctx, testTime, testTime.Add(time.Hour))

	require.NoError(t, err)
	require.Len(t, movements, 2)
	assert.Equal(t, "at-start", movements[0].ID)
	assert.Equal(t, "inside", movements[1].ID)
}

func TestGetUnknownMovement(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Get(context.Background(), "nope")

	assert.ErrorIs(t, err, drawer.ErrMovementNotFound)
}

func TestDeleteManualMovement(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, testMovement("m1", drawer.MovementDeposit, 10, testTime)))
	require.NoError(t, store.Delete(ctx, "m1"))

	_, err := store.Get(ctx, "m1")
	assert.ErrorIs(t, err, drawer.ErrMovementNotFound)
}

func TestDeleteRefusesZCut(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	closeMov := testMovement("z1", drawer.MovementClose, 0, testTime)
	closeMov.IsZCut = true
	require.NoError(t, store.Append(ctx, closeMov))

	err := store.Delete(ctx, "z1")

	assert.ErrorIs(t, err, drawer.ErrImmutableZCut)
	_, getErr := store.Get(ctx, "z1")
	assert.NoError(t, getErr, "the close row must survive the attempt")
}

func TestDeleteUnknownMovement(t *testing.T) {
	store := newTestStore(t)

	err := store.Delete(context.Background(), "nope")

	assert.ErrorIs(t, err, drawer.ErrMovementNotFound)
}

// =============================================================================
// SALES STORE
// =============================================================================

func TestTransactionRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	original := &drawer.Transaction{
		ID:            "t1",
		Date:          testTime,
		Total:         decimal.RequireFromString("57.50"),
		Subtotal:      decimal.NewFromInt(60),
		Discount:      decimal.RequireFromString("2.50"),
		PaymentMethod: drawer.PaySplit,
		AmountPaid:    decimal.RequireFromString("57.50"),
		Split: &drawer.SplitDetails{
			Cash: decimal.NewFromInt(30),
			Card: decimal.RequireFromString("27.50"),
		},
		Status: drawer.StatusCompleted,
		Items: []drawer.LineItem{
			{Name: "espresso", Price: decimal.NewFromInt(5), Quantity: 2, Category: "beverages"},
			{Name: "soap", Price: decimal.NewFromInt(10), Quantity: 1, Category: "consignment", IsConsignment: true},
		},
	}
	require.NoError(t, store.Record(ctx, original))

	txs, err := store.LoadSince(ctx, testTime.Add(-time.Minute))

	require.NoError(t, err)
	require.Len(t, txs, 1)
	got := txs[0]
	assert.Equal(t, original.ID, got.ID)
	assert.True(t, original.Total.Equal(got.Total))
	assert.True(t, original.Discount.Equal(got.Discount))
	assert.Equal(t, drawer.PaySplit, got.PaymentMethod)
	require.NotNil(t, got.Split)
	assert.True(t, original.Split.Cash.Equal(got.Split.Cash))
	assert.True(t, original.Split.Card.Equal(got.Split.Card))
	require.Len(t, got.Items, 2)
	assert.Equal(t, "espresso", got.Items[0].Name)
	assert.True(t, got.Items[1].IsConsignment)
}

func TestLoadSinceFiltersOlderSales(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	old := &drawer.Transaction{
		ID: "old", Date: testTime.Add(-time.Hour),
		Total: decimal.NewFromInt(10), Subtotal: decimal.NewFromInt(10),
		PaymentMethod: drawer.PayCash, AmountPaid: decimal.NewFromInt(10),
		Status: drawer.StatusCompleted,
	}
	recent := &drawer.Transaction{
		ID: "recent", Date: testTime.Add(time.Hour),
		Total: decimal.NewFromInt(20), Subtotal: decimal.NewFromInt(20),
		PaymentMethod: drawer.PayCash, AmountPaid: decimal.NewFromInt(20),
		Status: drawer.StatusCompleted,
	}
	require.NoError(t, store.Record(ctx, old))
	require.NoError(t, store.Record(ctx, recent))

	txs, err := store.LoadSince(ctx, testTime)

	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, "recent", txs[0].ID)
}

func TestSalesLoadRangeIsHalfOpen(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for i, at := range []time.Time{testTime.Add(-time.Minute), testTime, testTime.Add(time.Hour)} {
		tx := &drawer.Transaction{
			ID: string(rune('a' + i)), Date: at,
			Total: decimal.NewFromInt(1), Subtotal: decimal.NewFromInt(1),
			PaymentMethod: drawer.PayCash, AmountPaid: decimal.NewFromInt(1),
			Status: drawer.StatusCompleted,
		}
		require.NoError(t, store.Record(ctx, tx))
	}

	txs, err := store.Sales().LoadRange(ctx, testTime, testTime.Add(time.Hour))

	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, "b", txs[0].ID)
}
