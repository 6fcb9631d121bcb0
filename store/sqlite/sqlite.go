/*
Package sqlite provides the SQLite-backed implementation of the drawer
storage interfaces.

PURPOSE:
  Implements drawer.MovementStore and drawer.SalesStore over a single
  local database file. The data model is client-local and single-writer,
  so a mutex plus SQLite's own atomic-append semantics is all the
  transaction discipline needed.

LEDGER CONTRACT:
  - movements rows are never UPDATEd.
  - DELETE is allowed only for rows with is_zcut = 0 (operator undo).
  - seq is assigned monotonically, giving the insertion-order tie-break
    that keeps session resolution deterministic for equal timestamps.
  - The Z report snapshot is stored as JSON inside its CLOSE row, so a
    reprint replays exactly what reconciliation froze.

TIMESTAMPS:
  Event times are persisted twice: as RFC3339 with their original offset
  (authoritative, keeps the local wall clock for day bucketing) and as
  unix nanoseconds (unix_ns) for ordering and range filtering, which a
  lexicographic comparison of mixed-offset strings would get wrong.

WAL MODE:
  The database is opened with WAL for better crash recovery and so reads
  don't block the writer.

SEE ALSO:
  - drawer/store.go:        Interface definitions
  - drawer/store/memory.go: In-memory implementation for tests
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/lumapos/cash-engine/drawer"
)

// Store implements drawer.MovementStore and drawer.SalesStore.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New opens (and migrates) the database at dbPath. Use ":memory:" for an
// in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	-- Cash movements (append-only ledger; deletes only for is_zcut = 0)
	CREATE TABLE IF NOT EXISTS movements (
		id TEXT PRIMARY KEY,
		seq INTEGER UNIQUE,
		mov_type TEXT NOT NULL,
		amount TEXT NOT NULL,
		timestamp TEXT NOT NULL,
		unix_ns INTEGER NOT NULL,
		category TEXT NOT NULL,
		sub_category TEXT,
		description TEXT,
		is_zcut INTEGER NOT NULL DEFAULT 0,
		zreport_json TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_movements_unix_ns
		ON movements(unix_ns, seq);
	CREATE INDEX IF NOT EXISTS idx_movements_type
		ON movements(mov_type);
	CREATE INDEX IF NOT EXISTS idx_movements_zcut
		ON movements(is_zcut) WHERE is_zcut = 1;

	-- Sales transactions (written by the sales module, read by the core)
	CREATE TABLE IF NOT EXISTS sales_transactions (
		id TEXT PRIMARY KEY,
		date TEXT NOT NULL,
		unix_ns INTEGER NOT NULL,
		total TEXT NOT NULL,
		subtotal TEXT NOT NULL,
		discount TEXT NOT NULL,
		payment_method TEXT NOT NULL,
		amount_paid TEXT NOT NULL,
		split_json TEXT,
		status TEXT NOT NULL,
		items_json TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_sales_unix_ns
		ON sales_transactions(unix_ns);
	CREATE INDEX IF NOT EXISTS idx_sales_status
		ON sales_transactions(status);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// MOVEMENT STORE (drawer.MovementStore interface)
// =============================================================================

// Append adds a movement to the ledger and fills in its Seq.
func (s *Store) Append(ctx context.Context, m *drawer.CashMovement) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var zreportJSON sql.NullString
	if m.ZReport != nil {
		raw, err := json.Marshal(m.ZReport)
		if err != nil {
			return fmt.Errorf("failed to encode z report: %w", err)
		}
		zreportJSON = sql.NullString{String: string(raw), Valid: true}
	}

	query := `
		INSERT INTO movements
		(id, seq, mov_type, amount, timestamp, unix_ns, category, sub_category,
		 description, is_zcut, zreport_json, created_at)
		VALUES (?, (SELECT IFNULL(MAX(seq), 0) + 1 FROM movements), ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, query,
		m.ID,
		m.Type,
		m.Amount.String(),
		m.Timestamp.Format(time.RFC3339Nano),
		m.Timestamp.UnixNano(),
		m.Category,
		nullString(m.SubCategory),
		nullString(m.Description),
		boolToInt(m.IsZCut),
		zreportJSON,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to append movement: %w", err)
	}

	row := s.db.QueryRowContext(ctx, `SELECT seq FROM movements WHERE id = ?`, m.ID)
	if err := row.Scan(&m.Seq); err != nil {
		return fmt.Errorf("failed to read assigned seq: %w", err)
	}
	return nil
}

const movementColumns = `id, seq, mov_type, amount, timestamp, category,
	sub_category, description, is_zcut, zreport_json`

// Load returns the full ledger ascending by (timestamp, seq).
func (s *Store) Load(ctx context.Context) ([]drawer.CashMovement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+movementColumns+`
		FROM movements
		ORDER BY unix_ns ASC, seq ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to load movements: %w", err)
	}
	defer rows.Close()

	return scanMovements(rows)
}

// LoadRange returns movements with timestamp in [from, to).
func (s *Store) LoadRange(ctx context.Context, from, to time.Time) ([]drawer.CashMovement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+movementColumns+`
		FROM movements
		WHERE unix_ns >= ? AND unix_ns < ?
		ORDER BY unix_ns ASC, seq ASC
	`, from.UnixNano(), to.UnixNano())
	if err != nil {
		return nil, fmt.Errorf("failed to load movements: %w", err)
	}
	defer rows.Close()

	return scanMovements(rows)
}

// Get returns a movement by ID.
func (s *Store) Get(ctx context.Context, id string) (*drawer.CashMovement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+movementColumns+`
		FROM movements
		WHERE id = ?
	`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get movement: %w", err)
	}
	defer rows.Close()

	movements, err := scanMovements(rows)
	if err != nil {
		return nil, err
	}
	if len(movements) == 0 {
		return nil, drawer.ErrMovementNotFound
	}
	return &movements[0], nil
}

// Delete removes a non-z-cut movement. The WHERE guard makes z-cut rows
// undeletable at the SQL level, independent of the command boundary check.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var isZCut int
	err := s.db.QueryRowContext(ctx, `SELECT is_zcut FROM movements WHERE id = ?`, id).Scan(&isZCut)
	if err == sql.ErrNoRows {
		return drawer.ErrMovementNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to check movement: %w", err)
	}
	if isZCut == 1 {
		return drawer.ErrImmutableZCut
	}

	_, err = s.db.ExecContext(ctx, `DELETE FROM movements WHERE id = ? AND is_zcut = 0`, id)
	if err != nil {
		return fmt.Errorf("failed to delete movement: %w", err)
	}
	return nil
}

func scanMovements(rows *sql.Rows) ([]drawer.CashMovement, error) {
	var movements []drawer.CashMovement
	for rows.Next() {
		var (
			m           drawer.CashMovement
			amount      string
			timestamp   string
			subCategory sql.NullString
			description sql.NullString
			isZCut      int
			zreportJSON sql.NullString
		)
		if err := rows.Scan(&m.ID, &m.Seq, &m.Type, &amount, &timestamp,
			&m.Category, &subCategory, &description, &isZCut, &zreportJSON); err != nil {
			return nil, fmt.Errorf("failed to scan movement: %w", err)
		}

		dec, err := decimal.NewFromString(amount)
		if err != nil {
			return nil, fmt.Errorf("corrupt amount for movement %s: %w", m.ID, err)
		}
		m.Amount = dec

		ts, err := time.Parse(time.RFC3339Nano, timestamp)
		if err != nil {
			return nil, fmt.Errorf("corrupt timestamp for movement %s: %w", m.ID, err)
		}
		m.Timestamp = ts

		m.SubCategory = subCategory.String
		m.Description = description.String
		m.IsZCut = isZCut == 1

		if zreportJSON.Valid && zreportJSON.String != "" {
			var report drawer.ZReportData
			if err := json.Unmarshal([]byte(zreportJSON.String), &report); err != nil {
				return nil, fmt.Errorf("corrupt z report for movement %s: %w", m.ID, err)
			}
			m.ZReport = &report
		}

		movements = append(movements, m)
	}
	return movements, rows.Err()
}

// =============================================================================
// SALES STORE (drawer.SalesStore interface)
// =============================================================================

// Record persists a sales transaction.
func (s *Store) Record(ctx context.Context, tx *drawer.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	itemsJSON, err := json.Marshal(tx.Items)
	if err != nil {
		return fmt.Errorf("failed to encode items: %w", err)
	}

	var splitJSON sql.NullString
	if tx.Split != nil {
		raw, err := json.Marshal(tx.Split)
		if err != nil {
			return fmt.Errorf("failed to encode split details: %w", err)
		}
		splitJSON = sql.NullString{String: string(raw), Valid: true}
	}

	query := `
		INSERT INTO sales_transactions
		(id, date, unix_ns, total, subtotal, discount, payment_method,
		 amount_paid, split_json, status, items_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = s.db.ExecContext(ctx, query,
		tx.ID,
		tx.Date.Format(time.RFC3339Nano),
		tx.Date.UnixNano(),
		tx.Total.String(),
		tx.Subtotal.String(),
		tx.Discount.String(),
		tx.PaymentMethod,
		tx.AmountPaid.String(),
		splitJSON,
		tx.Status,
		string(itemsJSON),
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to record transaction: %w", err)
	}
	return nil
}

const transactionColumns = `id, date, total, subtotal, discount,
	payment_method, amount_paid, split_json, status, items_json`

// LoadSince returns transactions with date >= t, ascending.
func (s *Store) LoadSince(ctx context.Context, t time.Time) ([]drawer.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+transactionColumns+`
		FROM sales_transactions
		WHERE unix_ns >= ?
		ORDER BY unix_ns ASC
	`, t.UnixNano())
	if err != nil {
		return nil, fmt.Errorf("failed to load transactions: %w", err)
	}
	defer rows.Close()

	return scanTransactions(rows)
}

// SalesView adapts Store to drawer.SalesStore. Store cannot carry the sales
// LoadRange directly because the name collides with the movement LoadRange.
type SalesView struct {
	*Store
}

// Sales returns the drawer.SalesStore view of the store.
func (s *Store) Sales() SalesView {
	return SalesView{s}
}

// LoadRange returns transactions with date in [from, to), ascending.
func (s SalesView) LoadRange(ctx context.Context, from, to time.Time) ([]drawer.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+transactionColumns+`
		FROM sales_transactions
		WHERE unix_ns >= ? AND unix_ns < ?
		ORDER BY unix_ns ASC
	`, from.UnixNano(), to.UnixNano())
	if err != nil {
		return nil, fmt.Errorf("failed to load transactions: %w", err)
	}
	defer rows.Close()

	return scanTransactions(rows)
}

func scanTransactions(rows *sql.Rows) ([]drawer.Transaction, error) {
	var txs []drawer.Transaction
	for rows.Next() {
		var (
			tx         drawer.Transaction
			date       string
			total      string
			subtotal   string
			discount   string
			amountPaid string
			splitJSON  sql.NullString
			itemsJSON  string
		)
		if err := rows.Scan(&tx.ID, &date, &total, &subtotal, &discount,
			&tx.PaymentMethod, &amountPaid, &splitJSON, &tx.Status, &itemsJSON); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}

		ts, err := time.Parse(time.RFC3339Nano, date)
		if err != nil {
			return nil, fmt.Errorf("corrupt date for transaction %s: %w", tx.ID, err)
		}
		tx.Date = ts

		if tx.Total, err = decimal.NewFromString(total); err != nil {
			return nil, fmt.Errorf("corrupt total for transaction %s: %w", tx.ID, err)
		}
		if tx.Subtotal, err = decimal.NewFromString(subtotal); err != nil {
			return nil, fmt.Errorf("corrupt subtotal for transaction %s: %w", tx.ID, err)
		}
		if tx.Discount, err = decimal.NewFromString(discount); err != nil {
			return nil, fmt.Errorf("corrupt discount for transaction %s: %w", tx.ID, err)
		}
		if tx.AmountPaid, err = decimal.NewFromString(amountPaid); err != nil {
			return nil, fmt.Errorf("corrupt amount_paid for transaction %s: %w", tx.ID, err)
		}

		if splitJSON.Valid && splitJSON.String != "" {
			var split drawer.SplitDetails
			if err := json.Unmarshal([]byte(splitJSON.String), &split); err != nil {
				return nil, fmt.Errorf("corrupt split details for transaction %s: %w", tx.ID, err)
			}
			tx.Split = &split
		}
		if err := json.Unmarshal([]byte(itemsJSON), &tx.Items); err != nil {
			return nil, fmt.Errorf("corrupt items for transaction %s: %w", tx.ID, err)
		}

		txs = append(txs, tx)
	}
	return txs, rows.Err()
}

// =============================================================================
// HELPERS
// =============================================================================

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
