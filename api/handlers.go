/*
handlers.go - HTTP API handlers for the cash drawer engine

PURPOSE:
  Exposes the cash core via REST. Handles HTTP request/response, JSON
  serialization, and delegates to domain logic.

ENDPOINTS:
  Drawer:
    POST   /api/drawer/open               Open a shift
    GET    /api/drawer/session            Live session state
    POST   /api/drawer/movements          Record deposit/expense/withdrawal
    DELETE /api/drawer/movements/{id}     Undo an erroneous manual entry
    POST   /api/drawer/close              Z cut (reconciliation)
    GET    /api/drawer/reports            Past Z reports
    POST   /api/drawer/reports/{id}/print Reprint a stored Z report

  Sales:
    POST   /api/sales                     Ingest a sale (POS collaborator)
    GET    /api/sales                     List sales in a range

  Reports:
    GET    /api/reports/summary           Period aggregation

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Resource not found
  - 409: State conflicts (open while open, close while closed, z-cut delete)
  - 500: Internal errors

CLOCK:
  Handlers capture Now() once per request and thread that single timestamp
  through the operation, keeping each command internally time-consistent.

SEE ALSO:
  - dto.go:    Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/lumapos/cash-engine/drawer"
	"github.com/lumapos/cash-engine/printing"
	"github.com/lumapos/cash-engine/report"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Commands   *drawer.Commands
	Reconciler *drawer.Reconciler
	Aggregator *report.Aggregator
	Sales      drawer.SalesStore
	Dispatcher *printing.Dispatcher
	Log        logrus.FieldLogger

	// Now is injectable for tests; defaults to time.Now.
	Now func() time.Time

	validate *validator.Validate
}

// Deps bundles the collaborators a Handler needs.
type Deps struct {
	Movements  drawer.MovementStore
	Sales      drawer.SalesStore
	Dispatcher *printing.Dispatcher
	Log        logrus.FieldLogger
}

// NewHandler wires the domain services around the given stores.
func NewHandler(deps Deps) *Handler {
	if deps.Log == nil {
		deps.Log = logrus.StandardLogger()
	}

	var printer drawer.PrintDispatcher
	if deps.Dispatcher != nil {
		printer = deps.Dispatcher
	}

	return &Handler{
		Commands:   drawer.NewCommands(deps.Movements),
		Reconciler: drawer.NewReconciler(deps.Movements, deps.Sales, printer, deps.Log),
		Aggregator: report.NewAggregator(deps.Movements, deps.Sales),
		Sales:      deps.Sales,
		Dispatcher: deps.Dispatcher,
		Log:        deps.Log,
		Now:        time.Now,
		validate:   validator.New(),
	}
}

// =============================================================================
// DRAWER HANDLERS
// =============================================================================

// OpenDrawer opens a shift.
// POST /api/drawer/open
func (h *Handler) OpenDrawer(w http.ResponseWriter, r *http.Request) {
	var req OpenDrawerRequest
	if !h.decode(w, r, &req) {
		return
	}

	m, err := h.Commands.Open(r.Context(), req.Amount, req.Description, h.Now())
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toMovementDTO(*m))
}

// GetSession returns the live session state.
// GET /api/drawer/session
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	session, err := h.Commands.CurrentSession(r.Context())
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "Failed to resolve session", err)
		return
	}
	writeJSON(w, http.StatusOK, toSessionDTO(session))
}

// RecordMovement appends a manual movement to the open session.
// POST /api/drawer/movements
func (h *Handler) RecordMovement(w http.ResponseWriter, r *http.Request) {
	var req RecordMovementRequest
	if !h.decode(w, r, &req) {
		return
	}

	m, err := h.Commands.Record(
		r.Context(),
		drawer.MovementType(req.Type),
		req.Amount,
		drawer.Category(req.Category),
		req.SubCategory,
		req.Description,
		h.Now(),
	)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toMovementDTO(*m))
}

// DeleteMovement removes an erroneous manual entry.
// DELETE /api/drawer/movements/{id}
func (h *Handler) DeleteMovement(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.Commands.DeleteMovement(r.Context(), id); err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": id})
}

// CloseDrawer reconciles and terminates the open session.
// POST /api/drawer/close
func (h *Handler) CloseDrawer(w http.ResponseWriter, r *http.Request) {
	var req CloseDrawerRequest
	if !h.decode(w, r, &req) {
		return
	}

	closeMov, err := h.Reconciler.CloseDrawer(r.Context(), req.DeclaredCash, h.Now())
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, ZReportDTO{CloseID: closeMov.ID, Report: *closeMov.ZReport})
}

// ListZReports returns past reconciliation snapshots, newest first.
// GET /api/drawer/reports
func (h *Handler) ListZReports(w http.ResponseWriter, r *http.Request) {
	closes, err := h.Reconciler.ZReports(r.Context())
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "Failed to load z reports", err)
		return
	}

	dtos := make([]ZReportDTO, 0, len(closes))
	for _, c := range closes {
		dtos = append(dtos, ZReportDTO{CloseID: c.ID, Report: *c.ZReport})
	}
	writeJSON(w, http.StatusOK, map[string]any{"reports": dtos})
}

// ReprintZReport re-dispatches a stored snapshot to the printer.
// POST /api/drawer/reports/{id}/print
func (h *Handler) ReprintZReport(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.Reconciler.Reprint(r.Context(), id); err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{"dispatched": id})
}

// =============================================================================
// SALES HANDLERS
// =============================================================================

// RecordSale ingests a sales transaction.
// POST /api/sales
func (h *Handler) RecordSale(w http.ResponseWriter, r *http.Request) {
	var req RecordSaleRequest
	if !h.decode(w, r, &req) {
		return
	}

	date := h.Now()
	if req.Date != "" {
		parsed, err := time.Parse(time.RFC3339, req.Date)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "Invalid date format (use RFC3339)", err)
			return
		}
		date = parsed
	}

	tx := drawer.Transaction{
		ID:            req.ID,
		Date:          date,
		Total:         req.Total,
		Subtotal:      req.Subtotal,
		Discount:      req.Discount,
		PaymentMethod: drawer.PaymentMethod(req.PaymentMethod),
		AmountPaid:    req.AmountPaid,
		Split:         req.Split,
		Status:        drawer.TransactionStatus(req.Status),
	}
	if tx.ID == "" {
		tx.ID = uuid.NewString()
	}
	if tx.Status == "" {
		tx.Status = drawer.StatusCompleted
	}
	for _, item := range req.Items {
		tx.Items = append(tx.Items, drawer.LineItem{
			Name:          item.Name,
			Price:         item.Price,
			Quantity:      item.Quantity,
			Category:      item.Category,
			IsConsignment: item.IsConsignment,
		})
	}

	if err := h.Sales.Record(r.Context(), &tx); err != nil {
		h.writeError(w, http.StatusInternalServerError, "Failed to record sale", err)
		return
	}
	writeJSON(w, http.StatusCreated, toTransactionDTO(tx))
}

// ListSales returns sales in the requested range (defaults to today).
// GET /api/sales?range=today|week|month|custom&start=&end=
func (h *Handler) ListSales(w http.ResponseWriter, r *http.Request) {
	rng, ok := h.parseRange(w, r)
	if !ok {
		return
	}

	loc := h.Now().Location()
	txs, err := h.Sales.LoadRange(r.Context(), rng.Start.Time(loc), rng.End.Next().Time(loc))
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "Failed to load sales", err)
		return
	}

	dtos := make([]TransactionDTO, 0, len(txs))
	for _, tx := range txs {
		dtos = append(dtos, toTransactionDTO(tx))
	}
	writeJSON(w, http.StatusOK, map[string]any{"transactions": dtos})
}

// =============================================================================
// REPORT HANDLERS
// =============================================================================

// GetSummary runs the period aggregator.
// GET /api/reports/summary?range=week&method=cash&top=5
func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	rng, ok := h.parseRange(w, r)
	if !ok {
		return
	}

	opts := report.Options{
		PaymentMethod: drawer.PaymentMethod(r.URL.Query().Get("method")),
	}
	if top := r.URL.Query().Get("top"); top != "" {
		n, err := strconv.Atoi(top)
		if err != nil || n < 1 {
			h.writeError(w, http.StatusBadRequest, "Invalid top parameter", err)
			return
		}
		opts.TopN = n
	}

	summary, err := h.Aggregator.Summarize(r.Context(), rng, h.Now().Location(), opts)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "Failed to aggregate period", err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// parseRange resolves the range/start/end query parameters. Custom ranges
// take explicit YYYY-MM-DD bounds; presets resolve against Now().
func (h *Handler) parseRange(w http.ResponseWriter, r *http.Request) (drawer.DateRange, bool) {
	preset := drawer.RangePreset(r.URL.Query().Get("range"))
	if preset == "" {
		preset = drawer.RangeToday
	}

	if preset == drawer.RangeCustom {
		start, err := time.Parse("2006-01-02", r.URL.Query().Get("start"))
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "Invalid start date (use YYYY-MM-DD)", err)
			return drawer.DateRange{}, false
		}
		end, err := time.Parse("2006-01-02", r.URL.Query().Get("end"))
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "Invalid end date (use YYYY-MM-DD)", err)
			return drawer.DateRange{}, false
		}
		rng := drawer.DateRange{Start: drawer.DayKeyOf(start), End: drawer.DayKeyOf(end)}
		if rng.End.Before(rng.Start) {
			h.writeError(w, http.StatusBadRequest, "End date before start date", nil)
			return drawer.DateRange{}, false
		}
		return rng, true
	}

	rng, err := drawer.ResolvePreset(preset, h.Now())
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid range preset", err)
		return drawer.DateRange{}, false
	}
	return rng, true
}

// =============================================================================
// HELPERS
// =============================================================================

// decode parses and validates a JSON request body. Writes the error
// response itself and returns false when the request is bad.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		h.writeError(w, http.StatusBadRequest, "Validation failed", err)
		return false
	}
	return true
}

func (h *Handler) writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, drawer.ErrMovementNotFound):
		h.writeError(w, http.StatusNotFound, "Movement not found", err)
	case drawer.IsConflict(err):
		h.writeError(w, http.StatusConflict, "Command refused", err)
	case drawer.IsClientError(err):
		h.writeError(w, http.StatusBadRequest, "Invalid command", err)
	default:
		h.writeError(w, http.StatusInternalServerError, "Internal error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	if status >= http.StatusInternalServerError {
		h.Log.WithError(err).Error(message)
	}
	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
