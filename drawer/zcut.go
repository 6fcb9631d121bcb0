/*
zcut.go - End-of-shift reconciliation (Z cut)

PURPOSE:
  Compares the system-expected cash against the physically counted amount,
  freezes the result as a ZReportData snapshot, and terminates the session
  by appending a CLOSE movement that embeds the snapshot.

TWO-PHASE SHAPE:
  1. Commit: compute the snapshot and append the CLOSE. This is the
     authoritative state change; once appended it is a committed fact and
     is never rolled back.
  2. Dispatch: hand the snapshot to the printing collaborator,
     fire-and-forget. A failed or absent printer is a logged warning, not
     an error of the reconciliation.

CLOCK:
  The caller's now() is sampled once and used for the CLOSE timestamp, the
  snapshot timestamp, and the legacy-session day-start fallback, so one
  reconciliation is internally time-consistent.
*/
package drawer

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Reconciler produces Z-cut reports and terminates drawer sessions.
type Reconciler struct {
	Movements MovementStore
	Sales     SalesReader

	// Printer is optional. When nil, reconciliation skips dispatch.
	Printer PrintDispatcher

	Log logrus.FieldLogger
}

func NewReconciler(movements MovementStore, sales SalesReader, printer PrintDispatcher, log logrus.FieldLogger) *Reconciler {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Reconciler{Movements: movements, Sales: sales, Printer: printer, Log: log}
}

// CloseDrawer reconciles the open session against declaredCash and appends
// the terminating CLOSE movement. Returns the CLOSE with its embedded
// snapshot.
//
// Refused when no session is open or declaredCash is negative. Arithmetic
// never fails: missing split details and absent OPEN entries contribute
// zero.
func (r *Reconciler) CloseDrawer(ctx context.Context, declaredCash decimal.Decimal, now time.Time) (*CashMovement, error) {
	if declaredCash.IsNegative() {
		return nil, &AmountError{Command: "close", Amount: declaredCash}
	}

	movements, err := r.Movements.Load(ctx)
	if err != nil {
		return nil, err
	}
	session := ResolveSession(movements)
	if !session.IsOpen {
		return nil, &StateError{Command: "close", IsOpen: false}
	}

	expectedCash := session.Balance()

	// Session start: the OPEN timestamp, or the start of the current
	// calendar day for legacy sessions without one.
	sessionStart := session.StartedAt()
	if sessionStart.IsZero() {
		y, m, d := now.Date()
		sessionStart = time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	}

	sessionTx, err := r.Sales.LoadSince(ctx, sessionStart)
	if err != nil {
		return nil, err
	}

	report := buildZReport(session, sessionTx, declaredCash, now)
	report.ExpectedCash = expectedCash
	report.Difference = declaredCash.Sub(expectedCash)

	closeMov := &CashMovement{
		ID:          uuid.NewString(),
		Type:        MovementClose,
		Amount:      decimal.Zero,
		Timestamp:   now,
		Category:    CategoryOther,
		Description: "Z cut",
		IsZCut:      true,
		ZReport:     &report,
	}
	if err := r.Movements.Append(ctx, closeMov); err != nil {
		return nil, err
	}

	// Commit done. Printing is best-effort from here on.
	if r.Printer != nil {
		r.Printer.DispatchZReport(report)
	} else {
		r.Log.WithField("close_id", closeMov.ID).Debug("no printer configured, skipping z report dispatch")
	}

	return closeMov, nil
}

// buildZReport computes the sales and movement sums of a snapshot.
// ExpectedCash and Difference are filled in by the caller.
func buildZReport(session Session, sessionTx []Transaction, declaredCash decimal.Decimal, now time.Time) ZReportData {
	report := ZReportData{
		OpeningFund:   session.OpeningFund(),
		GrossSales:    decimal.Zero,
		CashSales:     decimal.Zero,
		CardSales:     decimal.Zero,
		TransferSales: decimal.Zero,
		CreditSales:   decimal.Zero,
		Expenses:      session.SumByType(MovementExpense),
		Withdrawals:   session.SumByType(MovementWithdrawal),
		DeclaredCash:  declaredCash,
		Timestamp:     now,
	}

	for _, tx := range sessionTx {
		if tx.Status == StatusCancelled {
			continue
		}
		report.GrossSales = report.GrossSales.Add(tx.Total)

		switch tx.PaymentMethod {
		case PayCash:
			report.CashSales = report.CashSales.Add(tx.AmountPaid)
		case PayCard:
			report.CardSales = report.CardSales.Add(tx.AmountPaid)
		case PayTransfer:
			report.TransferSales = report.TransferSales.Add(tx.AmountPaid)
		case PayCredit:
			// Credit sales are receivables: full total counts as sales even
			// though no cash changed hands.
			report.CreditSales = report.CreditSales.Add(tx.Total)
		case PaySplit:
			if tx.Split != nil {
				report.CashSales = report.CashSales.Add(tx.Split.Cash)
				report.CardSales = report.CardSales.Add(tx.Split.Card)
				report.TransferSales = report.TransferSales.Add(tx.Split.Transfer)
			}
		}
	}
	return report
}

// ZReports replays the stored snapshots of all z-cut CLOSE movements,
// newest first. Used for reprint and audit; the snapshots are returned
// exactly as written, never recomputed.
func (r *Reconciler) ZReports(ctx context.Context) ([]CashMovement, error) {
	movements, err := r.Movements.Load(ctx)
	if err != nil {
		return nil, err
	}
	var closes []CashMovement
	for i := len(movements) - 1; i >= 0; i-- {
		if movements[i].IsZCut && movements[i].ZReport != nil {
			closes = append(closes, movements[i])
		}
	}
	return closes, nil
}

// Reprint re-dispatches the stored snapshot of an earlier close.
func (r *Reconciler) Reprint(ctx context.Context, closeID string) error {
	m, err := r.Movements.Get(ctx, closeID)
	if err != nil {
		return err
	}
	if !m.IsZCut || m.ZReport == nil {
		return ErrMovementNotFound
	}
	if r.Printer == nil {
		r.Log.WithField("close_id", closeID).Warn("reprint requested with no printer configured")
		return nil
	}
	r.Printer.DispatchZReport(*m.ZReport)
	return nil
}
