package core

import (
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

// Field names a canonical record attribute.
type Field string

const (
	FieldID        Field = "id"
	FieldClient    Field = "client"
	FieldAmount    Field = "amount"
	FieldStatus    Field = "status"
	FieldAdvisor   Field = "advisor"
	FieldLot       Field = "lot"
	FieldCreatedAt Field = "createdAt"
	FieldClosedAt  Field = "closedAt"
	FieldDaysOpen  Field = "daysOpen"
	FieldNotes     Field = "notes"
)

// Defaults applied when a source value is missing.
const (
	DefaultClient  = "Cliente General"
	DefaultAdvisor = "Sin Asignar"
	DefaultLot     = "Sin Dato"
)

// Editable reports whether f may be changed through a LiveTable.
func (f Field) Editable() bool {
	switch f {
	case FieldClient, FieldAmount, FieldStatus, FieldNotes:
		return true
	}
	return false
}

// Known reports whether f is a canonical field.
func (f Field) Known() bool {
	switch f {
	case FieldID, FieldClient, FieldAmount, FieldStatus, FieldAdvisor,
		FieldLot, FieldCreatedAt, FieldClosedAt, FieldDaysOpen, FieldNotes:
		return true
	}
	return false
}

// Record is one normalized loan application.
//
// Amount is never negative, Status is always a canonical value and DaysOpen
// is never negative. ID is unique within a Ledger and never changes.
type Record struct {
	ID        string      `json:"id"`
	Client    string      `json:"client"`
	Amount    float64     `json:"amount"`
	Status    Status      `json:"status"`
	Advisor   string      `json:"advisor"`
	Lot       string      `json:"lot"`
	CreatedAt pgtype.Date `json:"createdAt"`
	ClosedAt  pgtype.Date `json:"closedAt"`
	DaysOpen  int         `json:"daysOpen"`
	Notes     string      `json:"notes"`
}

// DateRange is an inclusive range of calendar days.
type DateRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// Contains reports whether d falls on a day within the range.
func (r DateRange) Contains(d time.Time) bool {
	day := truncateDay(d)
	return !day.Before(truncateDay(r.From)) && !day.After(truncateDay(r.To))
}

// FilterSpec describes the active view restriction. Empty dimensions do not
// restrict. A FilterSpec is a value: replace it, don't mutate it.
type FilterSpec struct {
	Lots      []string   `json:"lots,omitempty"`
	Advisors  []string   `json:"advisors,omitempty"`
	DateRange *DateRange `json:"dateRange,omitempty"`
	Query     string     `json:"query,omitempty"`
}

// IsEmpty reports whether the spec is the identity filter.
func (f FilterSpec) IsEmpty() bool {
	return len(f.Lots) == 0 && len(f.Advisors) == 0 && f.DateRange == nil && f.Query == ""
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
