package core

import (
	"errors"
	"fmt"
	"sort"
)

// ErrDuplicateID is returned when a ledger would contain two records with the same ID.
var ErrDuplicateID = errors.New("duplicate record id")

// Ledger is the ordered, session-scoped collection of records.
// Records are addressed by ID; the count never changes after construction.
type Ledger struct {
	records []Record
	index   map[string]int
}

// NewLedger builds a ledger from records, preserving order.
// Every record must satisfy the Record invariants.
func NewLedger(records []Record) (*Ledger, error) {
	l := &Ledger{
		records: make([]Record, len(records)),
		index:   make(map[string]int, len(records)),
	}
	for i, rec := range records {
		if err := rec.validate(); err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		if _, dup := l.index[rec.ID]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateID, rec.ID)
		}
		l.records[i] = rec
		l.index[rec.ID] = i
	}
	return l, nil
}

// Len returns the number of records.
func (l *Ledger) Len() int {
	if l == nil {
		return 0
	}
	return len(l.records)
}

// Records returns a copy of all records in ledger order.
func (l *Ledger) Records() []Record {
	if l == nil {
		return nil
	}
	out := make([]Record, len(l.records))
	copy(out, l.records)
	return out
}

// Get returns the record with the given ID.
func (l *Ledger) Get(id string) (Record, bool) {
	if l == nil {
		return Record{}, false
	}
	i, ok := l.index[id]
	if !ok {
		return Record{}, false
	}
	return l.records[i], true
}

// Clone returns an independent copy of the ledger.
func (l *Ledger) Clone() *Ledger {
	if l == nil {
		return nil
	}
	c := &Ledger{
		records: make([]Record, len(l.records)),
		index:   make(map[string]int, len(l.index)),
	}
	copy(c.records, l.records)
	for k, v := range l.index {
		c.index[k] = v
	}
	return c
}

// Lots returns the sorted distinct lot values.
func (l *Ledger) Lots() []string {
	return l.distinct(func(r Record) string { return r.Lot })
}

// Advisors returns the sorted distinct advisor values.
func (l *Ledger) Advisors() []string {
	return l.distinct(func(r Record) string { return r.Advisor })
}

func (l *Ledger) distinct(key func(Record) string) []string {
	if l == nil {
		return nil
	}
	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, r := range l.records {
		k := key(r)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// update applies fn to a copy of the record and stores it only if fn
// succeeds and the result still satisfies the invariants.
func (l *Ledger) update(id string, fn func(*Record) error) (before, after Record, err error) {
	i, ok := l.index[id]
	if !ok {
		return Record{}, Record{}, fmt.Errorf("%w: %q", ErrRecordNotFound, id)
	}

	before = l.records[i]
	after = before
	if err := fn(&after); err != nil {
		return before, before, err
	}
	if after.ID != before.ID {
		return before, before, fmt.Errorf("%w: %s", ErrReadOnlyField, FieldID)
	}
	if err := after.validate(); err != nil {
		return before, before, err
	}

	l.records[i] = after
	return before, after, nil
}

func (r Record) validate() error {
	if r.ID == "" {
		return errors.New("empty record id")
	}
	if r.Amount < 0 {
		return fmt.Errorf("%w: %v", ErrNegativeAmount, r.Amount)
	}
	if !r.Status.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, r.Status)
	}
	if r.DaysOpen < 0 {
		return fmt.Errorf("negative daysOpen: %d", r.DaysOpen)
	}
	return nil
}
