package core

// validation.go checks edits before they reach the ledger.
//
// Only client, amount, status and notes are editable. Amount must be a
// non-negative number and status must resolve to the canonical set. Any
// failure rejects the whole edit.

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrRecordNotFound = errors.New("record not found")
	ErrRecordHidden   = errors.New("record not in current view")
	ErrUnknownField   = errors.New("unknown field")
	ErrReadOnlyField  = errors.New("field is read-only")
	ErrInvalidAmount  = errors.New("invalid amount")
	ErrNegativeAmount = errors.New("amount must not be negative")
	ErrInvalidStatus  = errors.New("invalid status")
)

// ValidationError describes a rejected edit value.
type ValidationError struct {
	Field Field
	Value string
	Err   error
}

func (e *ValidationError) Error() string {
	if e.Value != "" {
		return fmt.Sprintf("%s: %v (%q)", e.Field, e.Err, e.Value)
	}
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// ParseField resolves a column name to a canonical field, ignoring case.
func ParseField(name string) (Field, error) {
	name = strings.TrimSpace(name)
	for _, f := range []Field{FieldID, FieldClient, FieldAmount, FieldStatus, FieldAdvisor,
		FieldLot, FieldCreatedAt, FieldClosedAt, FieldDaysOpen, FieldNotes} {
		if strings.EqualFold(string(f), name) {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownField, name)
}

// Patch is a set of edits to one record. Nil fields are left unchanged.
type Patch struct {
	Client *string  `json:"client,omitempty"`
	Amount *float64 `json:"amount,omitempty"`
	Status *Status  `json:"status,omitempty"`
	Notes  *string  `json:"notes,omitempty"`
}

// IsEmpty reports whether the patch changes nothing.
func (p Patch) IsEmpty() bool {
	return p.Client == nil && p.Amount == nil && p.Status == nil && p.Notes == nil
}

// Validate checks every value in the patch.
func (p Patch) Validate() error {
	if p.Amount != nil && *p.Amount < 0 {
		return &ValidationError{Field: FieldAmount, Value: fmt.Sprint(*p.Amount), Err: ErrNegativeAmount}
	}
	if p.Status != nil && !p.Status.Valid() {
		return &ValidationError{Field: FieldStatus, Value: string(*p.Status), Err: ErrInvalidStatus}
	}
	return nil
}

// PatchFromCell converts a single textual cell edit to a Patch.
func PatchFromCell(column, value string) (Patch, error) {
	field, err := ParseField(column)
	if err != nil {
		return Patch{}, err
	}
	if !field.Editable() {
		return Patch{}, &ValidationError{Field: field, Err: ErrReadOnlyField}
	}

	switch field {
	case FieldClient:
		v := strings.TrimSpace(value)
		if v == "" {
			v = DefaultClient
		}
		return Patch{Client: &v}, nil
	case FieldNotes:
		return Patch{Notes: &value}, nil
	case FieldAmount:
		amount, ok := ParseMoney(value)
		if !ok {
			return Patch{}, &ValidationError{Field: field, Value: value, Err: ErrInvalidAmount}
		}
		if amount < 0 {
			return Patch{}, &ValidationError{Field: field, Value: value, Err: ErrNegativeAmount}
		}
		return Patch{Amount: &amount}, nil
	case FieldStatus:
		st, ok := ParseStatus(value)
		if !ok {
			return Patch{}, &ValidationError{Field: field, Value: value, Err: ErrInvalidStatus}
		}
		return Patch{Status: &st}, nil
	}
	return Patch{}, &ValidationError{Field: field, Err: ErrReadOnlyField}
}
