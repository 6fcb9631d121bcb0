/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  JSON structures for API communication, decoupling the internal domain
  model from the external contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

MONEY:
  Monetary fields are decimal.Decimal, which accepts both JSON numbers and
  quoted strings on input and emits quoted strings on output, so clients
  never round-trip through float64.

VALIDATION:
  Struct tags are checked with go-playground/validator in the handlers;
  domain rules (session state, sign conventions) stay in the drawer
  package.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/lumapos/cash-engine/drawer"
)

// =============================================================================
// DRAWER REQUESTS
// =============================================================================

// OpenDrawerRequest starts a shift with an opening fund.
type OpenDrawerRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
}

// RecordMovementRequest appends a manual movement to the open session.
type RecordMovementRequest struct {
	Type        string          `json:"type" validate:"required,oneof=DEPOSIT EXPENSE WITHDRAWAL"`
	Amount      decimal.Decimal `json:"amount"`
	Category    string          `json:"category" validate:"omitempty,oneof=SALES OPERATIONAL EQUITY PROFIT THIRD_PARTY OTHER"`
	SubCategory string          `json:"sub_category"`
	Description string          `json:"description"`
}

// CloseDrawerRequest reconciles and terminates the open session.
type CloseDrawerRequest struct {
	DeclaredCash decimal.Decimal `json:"declared_cash"`
}

// =============================================================================
// DRAWER RESPONSES
// =============================================================================

// MovementDTO represents a cash movement in API responses.
type MovementDTO struct {
	ID          string          `json:"id"`
	Type        string          `json:"type"`
	Amount      decimal.Decimal `json:"amount"`
	Timestamp   string          `json:"timestamp"`
	Category    string          `json:"category"`
	SubCategory string          `json:"sub_category,omitempty"`
	Description string          `json:"description,omitempty"`
	IsZCut      bool            `json:"is_zcut"`
}

// SessionDTO is the live drawer state shown to the operator.
type SessionDTO struct {
	IsOpen      bool            `json:"is_open"`
	Balance     decimal.Decimal `json:"balance"`
	OpeningFund decimal.Decimal `json:"opening_fund"`
	StartedAt   string          `json:"started_at,omitempty"`
	Movements   []MovementDTO   `json:"movements"`
}

// ZReportDTO wraps a frozen reconciliation snapshot with its CLOSE ID.
type ZReportDTO struct {
	CloseID string             `json:"close_id"`
	Report  drawer.ZReportData `json:"report"`
}

// =============================================================================
// SALES
// =============================================================================

// RecordSaleRequest ingests a sales transaction from the POS collaborator.
type RecordSaleRequest struct {
	ID            string               `json:"id"`
	Date          string               `json:"date"` // RFC3339; empty = now
	Total         decimal.Decimal      `json:"total"`
	Subtotal      decimal.Decimal      `json:"subtotal"`
	Discount      decimal.Decimal      `json:"discount"`
	PaymentMethod string               `json:"payment_method" validate:"required,oneof=cash card transfer credit split"`
	AmountPaid    decimal.Decimal      `json:"amount_paid"`
	Split         *drawer.SplitDetails `json:"split_details,omitempty"`
	Status        string               `json:"status" validate:"omitempty,oneof=completed cancelled refunded"`
	Items         []LineItemDTO        `json:"items" validate:"dive"`
}

// LineItemDTO is a sold item inside a sale.
type LineItemDTO struct {
	Name          string          `json:"name" validate:"required"`
	Price         decimal.Decimal `json:"price"`
	Quantity      int             `json:"quantity" validate:"min=1"`
	Category      string          `json:"category"`
	IsConsignment bool            `json:"is_consignment"`
}

// TransactionDTO represents a sale in API responses.
type TransactionDTO struct {
	ID            string               `json:"id"`
	Date          string               `json:"date"`
	Total         decimal.Decimal      `json:"total"`
	Subtotal      decimal.Decimal      `json:"subtotal"`
	Discount      decimal.Decimal      `json:"discount"`
	PaymentMethod string               `json:"payment_method"`
	AmountPaid    decimal.Decimal      `json:"amount_paid"`
	Split         *drawer.SplitDetails `json:"split_details,omitempty"`
	Status        string               `json:"status"`
	Items         []LineItemDTO        `json:"items"`
}

// =============================================================================
// ERROR RESPONSE
// =============================================================================

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// CONVERSIONS
// =============================================================================

func toMovementDTO(m drawer.CashMovement) MovementDTO {
	return MovementDTO{
		ID:          m.ID,
		Type:        string(m.Type),
		Amount:      m.Amount,
		Timestamp:   m.Timestamp.Format(time.RFC3339),
		Category:    string(m.Category),
		SubCategory: m.SubCategory,
		Description: m.Description,
		IsZCut:      m.IsZCut,
	}
}

func toSessionDTO(s drawer.Session) SessionDTO {
	dto := SessionDTO{
		IsOpen:      s.IsOpen,
		Balance:     s.Balance(),
		OpeningFund: s.OpeningFund(),
		Movements:   make([]MovementDTO, 0, len(s.Movements)),
	}
	if start := s.StartedAt(); !start.IsZero() {
		dto.StartedAt = start.Format(time.RFC3339)
	}
	for _, m := range s.Movements {
		dto.Movements = append(dto.Movements, toMovementDTO(m))
	}
	return dto
}

func toTransactionDTO(tx drawer.Transaction) TransactionDTO {
	dto := TransactionDTO{
		ID:            tx.ID,
		Date:          tx.Date.Format(time.RFC3339),
		Total:         tx.Total,
		Subtotal:      tx.Subtotal,
		Discount:      tx.Discount,
		PaymentMethod: string(tx.PaymentMethod),
		AmountPaid:    tx.AmountPaid,
		Split:         tx.Split,
		Status:        string(tx.Status),
		Items:         make([]LineItemDTO, 0, len(tx.Items)),
	}
	for _, item := range tx.Items {
		dto.Items = append(dto.Items, LineItemDTO{
			Name:          item.Name,
			Price:         item.Price,
			Quantity:      item.Quantity,
			Category:      item.Category,
			IsConsignment: item.IsConsignment,
		})
	}
	return dto
}
