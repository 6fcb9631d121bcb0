/*
Package report is the period aggregation engine.

PURPOSE:
  Re-derives comparable financial summaries over arbitrary calendar ranges,
  independent of drawer session boundaries. It reads the same two streams
  as reconciliation (sales transactions and cash movements) and applies the
  same categorical split rules, so a Z report and a period report for the
  same window agree.

DETERMINISM:
  Aggregate is a pure function of its inputs. Given the same snapshot and
  the same range parameters it produces byte-identical output: series and
  breakdowns are emitted in a fixed order and no clock is read.

BUCKETING:
  Buckets are keyed by local calendar date (drawer.DayKey), not by
  epoch-time division, to avoid double counting across timezone-induced
  boundary shifts. Ranges of at most 60 days get zero-filled buckets for a
  gapless series; wider ranges stay sparse to bound memory.

SEE ALSO:
  - drawer/zcut.go:      The session-scoped twin of this engine
  - drawer/daterange.go: DayKey and range resolution
*/
package report

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/lumapos/cash-engine/drawer"
)

// gaplessMaxDays bounds zero-bucket pre-population.
const gaplessMaxDays = 60

// DefaultTopN is the product ranking size when none is requested.
const DefaultTopN = 5

// Options filters and shapes an aggregation.
type Options struct {
	// PaymentMethod restricts sales sums to one method when set. Exact
	// match: "split" selects split transactions as a whole.
	PaymentMethod drawer.PaymentMethod

	// TopN is the product ranking size. Zero means DefaultTopN.
	TopN int
}

// DayPoint is one bucket of the time series.
type DayPoint struct {
	Date     string          `json:"date"` // YYYY-MM-DD
	Sales    decimal.Decimal `json:"sales"`
	Expenses decimal.Decimal `json:"expenses"`
}

// ProductRevenue is one row of the top-products ranking.
type ProductRevenue struct {
	Name     string          `json:"name"`
	Quantity int             `json:"quantity"`
	Revenue  decimal.Decimal `json:"revenue"`
}

// CategoryAmount is one row of a category breakdown.
type CategoryAmount struct {
	Category string          `json:"category"`
	Amount   decimal.Decimal `json:"amount"`
}

// Summary is the full period aggregation result. It is a transient read
// model; nothing here is persisted.
type Summary struct {
	Range drawer.DateRange `json:"-"`
	From  string           `json:"from"`
	To    string           `json:"to"`

	Series       []DayPoint       `json:"series"`
	TopProducts  []ProductRevenue `json:"top_products"`
	SalesByCat   []CategoryAmount `json:"sales_by_category"`
	ExpenseByCat []CategoryAmount `json:"expenses_by_category"`

	TotalSales       decimal.Decimal `json:"total_sales"`
	TotalMoneyOut    decimal.Decimal `json:"total_money_out"`
	AvgTicket        decimal.Decimal `json:"avg_ticket"`
	TransactionCount int             `json:"transaction_count"`

	// Consignment split. NetEstimate = OwnSales - operational expenses;
	// THIRD_PARTY payouts recorded as withdrawals stay out of it but do
	// count into TotalMoneyOut.
	OwnSales        decimal.Decimal `json:"own_sales"`
	ThirdPartySales decimal.Decimal `json:"third_party_sales"`
	NetEstimate     decimal.Decimal `json:"net_estimate"`
}

// Aggregate computes a period summary from snapshots of the two streams.
// Pure: identical inputs yield identical output.
func Aggregate(txs []drawer.Transaction, movements []drawer.CashMovement, rng drawer.DateRange, opts Options) *Summary {
	s := &Summary{
		Range:           rng,
		From:            rng.Start.String(),
		To:              rng.End.String(),
		TotalSales:      decimal.Zero,
		TotalMoneyOut:   decimal.Zero,
		AvgTicket:       decimal.Zero,
		OwnSales:        decimal.Zero,
		ThirdPartySales: decimal.Zero,
		NetEstimate:     decimal.Zero,
	}

	series := make(map[drawer.DayKey]*DayPoint)
	bucket := func(k drawer.DayKey) *DayPoint {
		p, ok := series[k]
		if !ok {
			p = &DayPoint{Date: k.String(), Sales: decimal.Zero, Expenses: decimal.Zero}
			series[k] = p
		}
		return p
	}

	// Gapless series for narrow ranges; sparse beyond the cap.
	if rng.Len() <= gaplessMaxDays {
		for _, day := range rng.Days() {
			bucket(day)
		}
	}

	salesByCat := make(map[string]decimal.Decimal)
	products := make(map[string]*ProductRevenue)
	operationalExpenses := decimal.Zero

	for _, tx := range txs {
		if tx.Status == drawer.StatusCancelled || !rng.Contains(tx.Date) {
			continue
		}
		if opts.PaymentMethod != "" && tx.PaymentMethod != opts.PaymentMethod {
			continue
		}

		s.TransactionCount++
		s.TotalSales = s.TotalSales.Add(tx.Total)
		p := bucket(drawer.DayKeyOf(tx.Date))
		p.Sales = p.Sales.Add(tx.Total)

		for _, item := range tx.Items {
			rev := item.Revenue()
			if item.IsConsignment {
				s.ThirdPartySales = s.ThirdPartySales.Add(rev)
			} else {
				s.OwnSales = s.OwnSales.Add(rev)
			}

			cat := item.Category
			if cat == "" {
				cat = "uncategorized"
			}
			salesByCat[cat] = salesByCat[cat].Add(rev)

			pr, ok := products[item.Name]
			if !ok {
				pr = &ProductRevenue{Name: item.Name, Revenue: decimal.Zero}
				products[item.Name] = pr
			}
			pr.Quantity += item.Quantity
			pr.Revenue = pr.Revenue.Add(rev)
		}
	}

	expenseByCat := make(map[string]decimal.Decimal)
	for _, m := range movements {
		if !rng.Contains(m.Timestamp) {
			continue
		}
		switch m.Type {
		case drawer.MovementExpense:
			s.TotalMoneyOut = s.TotalMoneyOut.Add(m.Amount)
			operationalExpenses = operationalExpenses.Add(m.Amount)
			p := bucket(drawer.DayKeyOf(m.Timestamp))
			p.Expenses = p.Expenses.Add(m.Amount)

			key := string(m.Category)
			if m.SubCategory != "" {
				key = key + "/" + m.SubCategory
			}
			expenseByCat[key] = expenseByCat[key].Add(m.Amount)
		case drawer.MovementWithdrawal:
			// Withdrawals (including THIRD_PARTY payouts) are money out of
			// the drawer but not an operating cost.
			s.TotalMoneyOut = s.TotalMoneyOut.Add(m.Amount)
		}
	}

	s.NetEstimate = s.OwnSales.Sub(operationalExpenses)
	if s.TransactionCount > 0 {
		s.AvgTicket = s.TotalSales.Div(decimal.NewFromInt(int64(s.TransactionCount))).Round(2)
	}

	s.Series = sortedSeries(series)
	s.TopProducts = topProducts(products, opts.TopN)
	s.SalesByCat = sortedCategories(salesByCat)
	s.ExpenseByCat = sortedCategories(expenseByCat)
	return s
}

func sortedSeries(buckets map[drawer.DayKey]*DayPoint) []DayPoint {
	keys := make([]drawer.DayKey, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Before(keys[j]) })

	series := make([]DayPoint, 0, len(keys))
	for _, k := range keys {
		series = append(series, *buckets[k])
	}
	return series
}

func topProducts(products map[string]*ProductRevenue, n int) []ProductRevenue {
	if n <= 0 {
		n = DefaultTopN
	}
	ranked := make([]ProductRevenue, 0, len(products))
	for _, p := range products {
		ranked = append(ranked, *p)
	}
	// Revenue descending, name ascending on ties: keeps output stable.
	sort.Slice(ranked, func(i, j int) bool {
		if !ranked[i].Revenue.Equal(ranked[j].Revenue) {
			return ranked[i].Revenue.GreaterThan(ranked[j].Revenue)
		}
		return ranked[i].Name < ranked[j].Name
	})
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

func sortedCategories(byCat map[string]decimal.Decimal) []CategoryAmount {
	keys := make([]string, 0, len(byCat))
	for k := range byCat {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	rows := make([]CategoryAmount, 0, len(keys))
	for _, k := range keys {
		rows = append(rows, CategoryAmount{Category: k, Amount: byCat[k]})
	}
	return rows
}

// =============================================================================
// AGGREGATOR - Store wiring around the pure core
// =============================================================================

// Aggregator loads snapshots of the two stores and delegates to Aggregate.
type Aggregator struct {
	Movements drawer.MovementStore
	Sales     drawer.SalesReader
}

func NewAggregator(movements drawer.MovementStore, sales drawer.SalesReader) *Aggregator {
	return &Aggregator{Movements: movements, Sales: sales}
}

// Summarize aggregates the range [rng.Start, rng.End] resolved to local-time
// day boundaries in loc.
func (a *Aggregator) Summarize(ctx context.Context, rng drawer.DateRange, loc *time.Location, opts Options) (*Summary, error) {
	if loc == nil {
		loc = time.Local
	}
	from := rng.Start.Time(loc)
	to := rng.End.Next().Time(loc)

	txs, err := a.Sales.LoadRange(ctx, from, to)
	if err != nil {
		return nil, err
	}
	movements, err := a.Movements.LoadRange(ctx, from, to)
	if err != nil {
		return nil, err
	}
	return Aggregate(txs, movements, rng, opts), nil
}
