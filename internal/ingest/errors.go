package ingest

import (
	"errors"
	"fmt"
	"strings"

	"github.com/JonMunkholm/loanledger/internal/core"
)

// Kind classifies an ingestion failure.
type Kind int

const (
	KindParseFailure Kind = iota + 1
	KindHeaderNotFound
	KindMissingRequiredColumns
)

func (k Kind) String() string {
	switch k {
	case KindParseFailure:
		return "ParseFailure"
	case KindHeaderNotFound:
		return "HeaderNotFound"
	case KindMissingRequiredColumns:
		return "MissingRequiredColumns"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Sentinels for errors.Is. An *Error matches the sentinel of its Kind.
var (
	ErrParseFailure           = errors.New("document could not be read")
	ErrHeaderNotFound         = errors.New("header row not found")
	ErrMissingRequiredColumns = errors.New("missing required columns")
)

// Causes wrapped inside a ParseFailure.
var (
	ErrEmptyFile         = errors.New("empty file")
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrFileTooLarge      = errors.New("file too large")
)

// Error is the typed ingestion failure. Callers branch on Kind (or use
// errors.Is with the Kind sentinels) before touching any ledger.
type Error struct {
	Kind       Kind
	Missing    []core.Field // set for KindMissingRequiredColumns
	ScanWindow int          // set for KindHeaderNotFound
	Err        error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindHeaderNotFound:
		return fmt.Sprintf("header row not found in first %d rows", e.ScanWindow)
	case KindMissingRequiredColumns:
		names := make([]string, len(e.Missing))
		for i, f := range e.Missing {
			names[i] = string(f)
		}
		return fmt.Sprintf("missing required columns: %s", strings.Join(names, ", "))
	default:
		if e.Err != nil {
			return fmt.Sprintf("parse failure: %v", e.Err)
		}
		return "parse failure"
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches the sentinel for the error's kind.
func (e *Error) Is(target error) bool {
	switch e.Kind {
	case KindParseFailure:
		return target == ErrParseFailure
	case KindHeaderNotFound:
		return target == ErrHeaderNotFound
	case KindMissingRequiredColumns:
		return target == ErrMissingRequiredColumns
	}
	return false
}

func parseFailure(err error) *Error {
	return &Error{Kind: KindParseFailure, Err: err}
}

// AsError extracts the typed failure from err.
func AsError(err error) (*Error, bool) {
	var ie *Error
	if errors.As(err, &ie) {
		return ie, true
	}
	return nil, false
}
