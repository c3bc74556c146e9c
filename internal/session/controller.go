// Package session runs the edit session over one ingested document.
//
// A Controller owns the explicit session state: the ledger's live table,
// the active filter and the ingestion that produced it. Each event (load,
// filter change, commit) runs the same synchronous pass, Filter then
// Edit-apply then Aggregate, under a single lock.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/loanledger/internal/core"
	"github.com/JonMunkholm/loanledger/internal/export"
	"github.com/JonMunkholm/loanledger/internal/ingest"
	"github.com/JonMunkholm/loanledger/internal/logging"
)

// ErrNoDocument is returned by operations that need a loaded ledger.
var ErrNoDocument = errors.New("no document loaded")

// Loader produces ingestion results. *ingest.Cache satisfies it.
type Loader interface {
	Load(ctx context.Context, doc ingest.Document) (res *ingest.Result, hit bool, err error)
}

// Observer receives session events. *metrics.Metrics satisfies it.
type Observer interface {
	ObserveIngest(d time.Duration, cacheHit bool, records int, err error)
	ObserveEdit(err error)
	ObserveFilter()
	ObserveView(records int)
	ObserveExport()
}

type nopObserver struct{}

func (nopObserver) ObserveIngest(time.Duration, bool, int, error) {}
func (nopObserver) ObserveEdit(error)                              {}
func (nopObserver) ObserveFilter()                                 {}
func (nopObserver) ObserveView(int)                                {}
func (nopObserver) ObserveExport()                                 {}

// Option configures a Controller.
type Option func(*Controller)

// WithObserver reports session events to o.
func WithObserver(o Observer) Option {
	return func(c *Controller) {
		if o != nil {
			c.observer = o
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		if now != nil {
			c.now = now
		}
	}
}

// FilterOptions are the values offered by the filter widgets.
type FilterOptions struct {
	Lots     []string      `json:"lots"`
	Advisors []string      `json:"advisors"`
	Statuses []core.Status `json:"statuses"`
}

// Snapshot is the state the renderer needs after an event.
type Snapshot struct {
	SessionID  string          `json:"sessionId"`
	DocumentID string          `json:"documentId"`
	FileName   string          `json:"fileName"`
	Filter     core.FilterSpec `json:"filter"`
	View       []core.Record   `json:"view"`
	KPIs       core.KPIs       `json:"kpis"`
	Options    FilterOptions   `json:"options"`
	LedgerSize int             `json:"ledgerSize"`
	Report     ingest.Report   `json:"report"`
	Changes    []core.Change   `json:"changes,omitempty"`
}

// Controller holds the single active session.
type Controller struct {
	loader   Loader
	observer Observer
	now      func() time.Time

	mu        sync.Mutex
	sessionID string
	docID     string
	fileName  string
	report    ingest.Report
	table     *core.LiveTable
}

// NewController creates a controller with no document loaded.
func NewController(loader Loader, opts ...Option) *Controller {
	c := &Controller{
		loader:   loader,
		observer: nopObserver{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Load ingests doc and makes it the active session.
//
// Loading the document already in session keeps its edits and filter. A
// different document replaces the ledger wholesale and resets the filter
// and history. On failure the previous session is left untouched.
func (c *Controller) Load(ctx context.Context, doc ingest.Document) (Snapshot, error) {
	logger := logging.WithFields(ctx, "file", doc.Name, "bytes", len(doc.Data))
	start := c.now()
	fp := doc.Fingerprint()

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.table != nil && c.docID == fp {
		c.observer.ObserveIngest(c.now().Sub(start), true, c.table.Ledger().Len(), nil)
		logger.Debug("document already loaded, keeping session", logging.SessionKey, c.sessionID)
		return c.snapshot(nil), nil
	}

	res, hit, err := c.loader.Load(ctx, doc)
	if err != nil {
		c.observer.ObserveIngest(c.now().Sub(start), false, 0, err)
		logger.Warn("ingestion failed", "error", err)
		return Snapshot{}, fmt.Errorf("load %q: %w", doc.Name, err)
	}
	c.observer.ObserveIngest(c.now().Sub(start), hit, res.Ledger.Len(), nil)

	c.sessionID = uuid.NewString()
	c.docID = fp
	c.fileName = doc.Name
	c.report = res.Report
	c.report.FileName = doc.Name
	c.table = core.NewLiveTable(res.Ledger, core.FilterSpec{}, core.NewHistory())
	c.observer.ObserveView(len(c.table.View()))

	logger.Info("session started",
		logging.SessionKey, c.sessionID,
		"records", res.Ledger.Len(),
		"cache_hit", hit,
		"header_row", res.Report.HeaderRow,
	)
	return c.snapshot(nil), nil
}

// SetFilter replaces the active filter.
func (c *Controller) SetFilter(ctx context.Context, spec core.FilterSpec) (Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.table == nil {
		return Snapshot{}, ErrNoDocument
	}
	c.table.SetFilter(spec)
	c.observer.ObserveFilter()
	c.observer.ObserveView(len(c.table.View()))

	logging.WithSession(ctx, c.sessionID).Debug("filter applied", "visible", len(c.table.View()))
	return c.snapshot(nil), nil
}

// Commit applies one cell edit to a visible record.
func (c *Controller) Commit(ctx context.Context, req core.UpdateCellRequest) (Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.table == nil {
		return Snapshot{}, ErrNoDocument
	}

	changes, err := c.table.UpdateCell(req)
	c.observer.ObserveEdit(err)
	if err != nil {
		logging.WithSession(ctx, c.sessionID, "record", req.RowKey).Info("edit rejected",
			"column", req.Column,
			"error", err,
		)
		return Snapshot{}, fmt.Errorf("update %s of %q: %w", req.Column, req.RowKey, err)
	}
	c.observer.ObserveView(len(c.table.View()))

	logging.WithSession(ctx, c.sessionID, "record", req.RowKey).Info("edit committed", "changes", len(changes))
	return c.snapshot(changes), nil
}

// Snapshot returns the current state.
func (c *Controller) Snapshot() (Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.table == nil {
		return Snapshot{}, ErrNoDocument
	}
	return c.snapshot(nil), nil
}

// History returns committed edits, newest first.
func (c *Controller) History() ([]core.EditEntry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.table == nil {
		return nil, ErrNoDocument
	}
	return c.table.History().Entries(), nil
}

// Export writes the full edited ledger as xlsx and returns a download name.
func (c *Controller) Export(ctx context.Context, w io.Writer) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.table == nil {
		return "", ErrNoDocument
	}
	records := c.table.Ledger().Records()
	if err := export.Write(w, records); err != nil {
		return "", fmt.Errorf("export: %w", err)
	}
	c.observer.ObserveExport()

	logging.WithSession(ctx, c.sessionID).Info("ledger exported", "records", len(records))
	return exportName(c.now()), nil
}

// Reset discards the active session.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.table = nil
	c.sessionID, c.docID, c.fileName = "", "", ""
	c.report = ingest.Report{}
}

// snapshot must be called with c.mu held.
func (c *Controller) snapshot(changes []core.Change) Snapshot {
	l := c.table.Ledger()
	return Snapshot{
		SessionID:  c.sessionID,
		DocumentID: c.docID,
		FileName:   c.fileName,
		Filter:     c.table.Filter(),
		View:       c.table.View(),
		KPIs:       c.table.KPIs(),
		Options: FilterOptions{
			Lots:     l.Lots(),
			Advisors: l.Advisors(),
			Statuses: core.Statuses(),
		},
		LedgerSize: l.Len(),
		Report:     c.report.Clone(),
		Changes:    changes,
	}
}

func exportName(at time.Time) string {
	return fmt.Sprintf("solicitudes_editadas_%s.xlsx", at.Format("20060102_150405"))
}
