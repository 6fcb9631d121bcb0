/*
Package drawer is the cash ledger core of the point-of-sale system.

PURPOSE:
  An append-only log of cash-drawer events (open, deposit, expense,
  withdrawal, close) from which everything else is DERIVED: the current
  session, the running balance, and the end-of-shift reconciliation
  snapshot. There is no stored "session" row that can drift out of sync
  with the ledger.

KEY CONCEPTS IN THIS FILE (types.go):
  - CashMovement: A single immutable drawer event
  - ZReportData:  The frozen end-of-shift reconciliation snapshot
  - Transaction:  A sales record (read-only to this package)
  - Movement types, categories, payment methods

DESIGN PRINCIPLES:
  1. Derivation over storage: sessions and balances are pure folds over events
  2. Precision: decimal.Decimal for all money, never float64
  3. Magnitude-only amounts: sign is implied by movement type
  4. Snapshots are write-once: a Z report is never recomputed after the fact

SEE ALSO:
  - session.go: Session resolution and balance calculation
  - zcut.go:    Reconciliation engine
  - store.go:   Persistence interfaces
*/
package drawer

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// MOVEMENT - A single cash drawer event
// =============================================================================

type MovementType string

const (
	MovementOpen       MovementType = "OPEN"       // Shift start, seeds the opening fund
	MovementDeposit    MovementType = "DEPOSIT"    // Cash added to the drawer
	MovementExpense    MovementType = "EXPENSE"    // Cash paid out for an expense
	MovementWithdrawal MovementType = "WITHDRAWAL" // Cash removed (payouts, bank drops)
	MovementClose      MovementType = "CLOSE"      // Shift end, written by the reconciler
)

// Category classifies WHY money moved, independent of the movement type.
type Category string

const (
	CategorySales       Category = "SALES"
	CategoryOperational Category = "OPERATIONAL"
	CategoryEquity      Category = "EQUITY"
	CategoryProfit      Category = "PROFIT"
	CategoryThirdParty  Category = "THIRD_PARTY"
	CategoryOther       Category = "OTHER"
)

// CashMovement is one ledger entry. Immutable once written; the only valid
// mutation is full deletion of a non-z-cut entry (operator undo).
type CashMovement struct {
	ID     string
	Type   MovementType
	Amount decimal.Decimal // Magnitude only, always >= 0. Sign comes from Type.

	// Timestamp is the authoritative ordering key. Seq is assigned by the
	// store on append and breaks ties between equal timestamps so session
	// resolution stays deterministic.
	Timestamp time.Time
	Seq       int64

	Category    Category
	SubCategory string // Free-text refinement (supplier name, expense label)
	Description string

	// IsZCut marks the synthetic CLOSE written by the reconciler. It is an
	// explicit flag rather than inferred from Amount == 0, so a legitimate
	// zero-amount manual entry is never mistaken for a close.
	IsZCut  bool
	ZReport *ZReportData
}

// Signed returns the movement's contribution to the drawer balance.
func (m CashMovement) Signed() decimal.Decimal {
	switch m.Type {
	case MovementOpen, MovementDeposit:
		return m.Amount
	case MovementExpense, MovementWithdrawal:
		return m.Amount.Neg()
	default: // CLOSE is only ever a terminator, never a balance contributor
		return decimal.Zero
	}
}

// =============================================================================
// Z REPORT - Write-once reconciliation snapshot
// =============================================================================

// ZReportData is the system of record for what reconciliation found at the
// moment the drawer was closed. It is embedded in its owning CLOSE movement
// and never recomputed, even if later corrections change the ledger.
type ZReportData struct {
	OpeningFund   decimal.Decimal `json:"opening_fund"`
	GrossSales    decimal.Decimal `json:"gross_sales"`
	CashSales     decimal.Decimal `json:"cash_sales"`
	CardSales     decimal.Decimal `json:"card_sales"`
	TransferSales decimal.Decimal `json:"transfer_sales"`
	CreditSales   decimal.Decimal `json:"credit_sales"`
	Expenses      decimal.Decimal `json:"expenses"`
	Withdrawals   decimal.Decimal `json:"withdrawals"`
	ExpectedCash  decimal.Decimal `json:"expected_cash"`
	DeclaredCash  decimal.Decimal `json:"declared_cash"`

	// Difference = DeclaredCash - ExpectedCash. Negative means a shortfall.
	Difference decimal.Decimal `json:"difference"`
	Timestamp  time.Time       `json:"timestamp"`
}

// =============================================================================
// SALES TRANSACTION - External collaborator data, read-only to this core
// =============================================================================

type PaymentMethod string

const (
	PayCash     PaymentMethod = "cash"
	PayCard     PaymentMethod = "card"
	PayTransfer PaymentMethod = "transfer"
	PayCredit   PaymentMethod = "credit"
	PaySplit    PaymentMethod = "split"
)

type TransactionStatus string

const (
	StatusCompleted TransactionStatus = "completed"
	StatusCancelled TransactionStatus = "cancelled"
	StatusRefunded  TransactionStatus = "refunded"
)

// SplitDetails breaks down a split payment by tender. Absent components
// contribute zero, never an error.
type SplitDetails struct {
	Cash     decimal.Decimal `json:"cash"`
	Card     decimal.Decimal `json:"card"`
	Transfer decimal.Decimal `json:"transfer"`
}

// LineItem is a sold item inside a transaction. IsConsignment marks goods
// not owned by the business, whose revenue is tracked as third-party.
type LineItem struct {
	Name          string          `json:"name"`
	Price         decimal.Decimal `json:"price"`
	Quantity      int             `json:"quantity"`
	Category      string          `json:"category"`
	IsConsignment bool            `json:"is_consignment"`
}

// Transaction is a sales record. The cash core never writes these; it only
// selects and sums them during reconciliation and period aggregation.
type Transaction struct {
	ID            string
	Date          time.Time
	Total         decimal.Decimal
	Subtotal      decimal.Decimal
	Discount      decimal.Decimal
	PaymentMethod PaymentMethod
	AmountPaid    decimal.Decimal
	Split         *SplitDetails
	Status        TransactionStatus
	Items         []LineItem
}

// Revenue returns the revenue of a line (price x quantity).
func (li LineItem) Revenue() decimal.Decimal {
	return li.Price.Mul(decimal.NewFromInt(int64(li.Quantity)))
}
