package core

import (
	"fmt"
	"strconv"
	"time"
)

// UpdateCellRequest contains the data for updating a single cell.
type UpdateCellRequest struct {
	RowKey string `json:"rowKey"` // Record ID
	Column string `json:"column"` // Canonical field name
	Value  string `json:"value"`  // New value as text
}

// LiveTable is the editable projection of a ledger under a filter.
//
// Edits are written back to the ledger by record ID. The view and KPIs are
// rebuilt from the ledger after every change, so they always reflect the
// committed state. Rows are never added or removed.
type LiveTable struct {
	ledger  *Ledger
	spec    FilterSpec
	view    []Record
	kpis    KPIs
	history *History
	now     func() time.Time
}

// NewLiveTable creates a live table over l showing the records selected by spec.
func NewLiveTable(l *Ledger, spec FilterSpec, history *History) *LiveTable {
	if history == nil {
		history = NewHistory()
	}
	t := &LiveTable{
		ledger:  l,
		spec:    spec,
		history: history,
		now:     time.Now,
	}
	t.refresh()
	return t
}

// View returns a copy of the visible records.
func (t *LiveTable) View() []Record {
	out := make([]Record, len(t.view))
	copy(out, t.view)
	return out
}

// KPIs returns the metrics of the visible records.
func (t *LiveTable) KPIs() KPIs { return t.kpis }

// Filter returns the active filter.
func (t *LiveTable) Filter() FilterSpec { return t.spec }

// Ledger returns the underlying ledger.
func (t *LiveTable) Ledger() *Ledger { return t.ledger }

// History returns the commit history.
func (t *LiveTable) History() *History { return t.history }

// SetFilter replaces the active filter and recomputes the view.
func (t *LiveTable) SetFilter(spec FilterSpec) {
	t.spec = spec
	t.refresh()
}

// UpdateCell applies a single textual cell edit.
func (t *LiveTable) UpdateCell(req UpdateCellRequest) ([]Change, error) {
	patch, err := PatchFromCell(req.Column, req.Value)
	if err != nil {
		return nil, err
	}
	return t.Commit(req.RowKey, patch)
}

// Commit applies patch to the visible record id. Either every field in the
// patch is applied or none is.
func (t *LiveTable) Commit(id string, patch Patch) ([]Change, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}
	if _, ok := t.ledger.Get(id); !ok {
		return nil, fmt.Errorf("%w: %q", ErrRecordNotFound, id)
	}
	if !t.visible(id) {
		return nil, fmt.Errorf("%w: %q", ErrRecordHidden, id)
	}

	before, after, err := t.ledger.update(id, func(r *Record) error {
		if patch.Client != nil {
			r.Client = *patch.Client
		}
		if patch.Amount != nil {
			r.Amount = *patch.Amount
		}
		if patch.Status != nil {
			r.Status = *patch.Status
		}
		if patch.Notes != nil {
			r.Notes = *patch.Notes
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	changes := diff(before, after)
	t.history.Record(id, changes, t.now())
	t.refresh()
	return changes, nil
}

func (t *LiveTable) visible(id string) bool {
	for _, r := range t.view {
		if r.ID == id {
			return true
		}
	}
	return false
}

// refresh runs the fixed Filter then Aggregate pass.
func (t *LiveTable) refresh() {
	t.view = Apply(t.ledger, t.spec)
	t.kpis = Aggregate(t.view)
}

func diff(before, after Record) []Change {
	var changes []Change
	if before.Client != after.Client {
		changes = append(changes, Change{Field: FieldClient, Old: before.Client, New: after.Client})
	}
	if before.Amount != after.Amount {
		changes = append(changes, Change{
			Field: FieldAmount,
			Old:   strconv.FormatFloat(before.Amount, 'f', -1, 64),
			New:   strconv.FormatFloat(after.Amount, 'f', -1, 64),
		})
	}
	if before.Status != after.Status {
		changes = append(changes, Change{Field: FieldStatus, Old: string(before.Status), New: string(after.Status)})
	}
	if before.Notes != after.Notes {
		changes = append(changes, Change{Field: FieldNotes, Old: before.Notes, New: after.Notes})
	}
	return changes
}
