/*
commands.go - Command boundary for drawer operations

PURPOSE:
  UI/CLI commands (open, deposit, expense, withdraw, delete) come through
  here. State rules are enforced at this boundary, not by the ledger
  itself: the ledger stores whatever it is given, the commands refuse
  invalid transitions before anything is written.

CLOCK:
  Every command takes the timestamp as an argument. Callers capture now()
  once per operation; nothing here re-reads a global clock, which keeps
  commands deterministic under test.

SEE ALSO:
  - session.go: The projection commands validate against
  - zcut.go:    CLOSE is never written here, only by the reconciler
*/
package drawer

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Commands is the command boundary over the movement ledger.
type Commands struct {
	Movements MovementStore
}

func NewCommands(store MovementStore) *Commands {
	return &Commands{Movements: store}
}

// CurrentSession loads the ledger and resolves the live session.
func (c *Commands) CurrentSession(ctx context.Context) (Session, error) {
	movements, err := c.Movements.Load(ctx)
	if err != nil {
		return Session{}, err
	}
	return ResolveSession(movements), nil
}

// Open starts a new drawer session with the given opening fund.
// Refused while a session is already open.
func (c *Commands) Open(ctx context.Context, amount decimal.Decimal, description string, now time.Time) (*CashMovement, error) {
	if amount.IsNegative() {
		return nil, &AmountError{Command: "open", Amount: amount}
	}

	session, err := c.CurrentSession(ctx)
	if err != nil {
		return nil, err
	}
	if session.IsOpen {
		return nil, &StateError{Command: "open", IsOpen: true}
	}

	m := &CashMovement{
		ID:          uuid.NewString(),
		Type:        MovementOpen,
		Amount:      amount,
		Timestamp:   now,
		Category:    CategoryEquity,
		Description: description,
	}
	if err := c.Movements.Append(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// Record appends a manual movement (deposit, expense, or withdrawal) to the
// open session. OPEN and CLOSE are not accepted here; they have their own
// entry points.
func (c *Commands) Record(ctx context.Context, t MovementType, amount decimal.Decimal, category Category, subCategory, description string, now time.Time) (*CashMovement, error) {
	switch t {
	case MovementDeposit, MovementExpense, MovementWithdrawal:
	default:
		return nil, ErrInvalidMovementType
	}
	if amount.IsNegative() {
		return nil, &AmountError{Command: string(t), Amount: amount}
	}

	session, err := c.CurrentSession(ctx)
	if err != nil {
		return nil, err
	}
	if !session.IsOpen {
		return nil, &StateError{Command: string(t), IsOpen: false}
	}

	if category == "" {
		category = CategoryOther
	}

	m := &CashMovement{
		ID:          uuid.NewString(),
		Type:        t,
		Amount:      amount,
		Timestamp:   now,
		Category:    category,
		SubCategory: subCategory,
		Description: description,
	}
	if err := c.Movements.Append(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// DeleteMovement removes an erroneous manual entry. This is the single
// permitted mutation of the ledger; z-cut CLOSE entries are refused.
func (c *Commands) DeleteMovement(ctx context.Context, id string) error {
	m, err := c.Movements.Get(ctx, id)
	if err != nil {
		return err
	}
	if m.IsZCut {
		return ErrImmutableZCut
	}
	return c.Movements.Delete(ctx, id)
}
