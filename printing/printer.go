/*
Package printing is the best-effort print collaborator.

PURPOSE:
  Receives frozen Z reports (and period summaries) and hands them to a
  rendering target. Dispatch is fire-and-forget: the cash core commits its
  ledger append first and never waits on, or fails because of, printing.
  A dead printer is a warning in the logs, nothing more.

  The core never inspects the printer's payload format; byte-level ticket
  encoding lives behind the Printer interface.
*/
package printing

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/lumapos/cash-engine/drawer"
)

// Printer renders reconciliation and period reports on some target.
// Implementations own the byte-level encoding.
type Printer interface {
	PrintZReport(ctx context.Context, report drawer.ZReportData) error
	PrintSummary(ctx context.Context, payload any) error
}

// =============================================================================
// DISPATCHER - Fire-and-forget job launcher
// =============================================================================

// Dispatcher runs print jobs asynchronously with a timeout. It implements
// drawer.PrintDispatcher.
type Dispatcher struct {
	Printer Printer
	Timeout time.Duration
	Log     logrus.FieldLogger
}

const defaultTimeout = 10 * time.Second

func NewDispatcher(printer Printer, log logrus.FieldLogger) *Dispatcher {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Dispatcher{Printer: printer, Timeout: defaultTimeout, Log: log}
}

// DispatchZReport prints a Z report in the background. Returns immediately;
// the job outcome is only ever logged.
func (d *Dispatcher) DispatchZReport(report drawer.ZReportData) {
	d.run("z_report", func(ctx context.Context) error {
		return d.Printer.PrintZReport(ctx, report)
	})
}

// DispatchSummary prints a period summary in the background.
func (d *Dispatcher) DispatchSummary(payload any) {
	d.run("summary", func(ctx context.Context) error {
		return d.Printer.PrintSummary(ctx, payload)
	})
}

func (d *Dispatcher) run(kind string, job func(ctx context.Context) error) {
	if d.Printer == nil {
		d.Log.WithField("kind", kind).Debug("no printer attached, dropping print job")
		return
	}

	timeout := d.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		if err := job(ctx); err != nil {
			d.Log.WithField("kind", kind).WithError(err).Warn("print dispatch failed")
		}
	}()
}

// =============================================================================
// PRINTER IMPLEMENTATIONS
// =============================================================================

// NopPrinter is used when no hardware is connected. Jobs succeed silently.
type NopPrinter struct{}

func (NopPrinter) PrintZReport(context.Context, drawer.ZReportData) error { return nil }
func (NopPrinter) PrintSummary(context.Context, any) error                { return nil }

// RecordingPrinter captures print jobs for tests.
type RecordingPrinter struct {
	ZReports  []drawer.ZReportData
	Summaries []any

	// Err, when set, is returned from every print call.
	Err error

	done chan struct{}
}

// NewRecordingPrinter returns a printer that signals on done after each job,
// so tests can wait for asynchronous dispatch without sleeping.
func NewRecordingPrinter() *RecordingPrinter {
	return &RecordingPrinter{done: make(chan struct{}, 16)}
}

func (p *RecordingPrinter) PrintZReport(_ context.Context, report drawer.ZReportData) error {
	p.ZReports = append(p.ZReports, report)
	if p.done != nil {
		p.done <- struct{}{}
	}
	return p.Err
}

func (p *RecordingPrinter) PrintSummary(_ context.Context, payload any) error {
	p.Summaries = append(p.Summaries, payload)
	if p.done != nil {
		p.done <- struct{}{}
	}
	return p.Err
}

// Wait blocks until a job completes or the timeout expires. Returns false
// on timeout.
func (p *RecordingPrinter) Wait(timeout time.Duration) bool {
	select {
	case <-p.done:
		return true
	case <-time.After(timeout):
		return false
	}
}
