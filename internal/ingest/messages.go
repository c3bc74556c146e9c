package ingest

// messages.go maps errors to user-facing messages with support codes.
//
// Codes by category:
//
//	ING001 - Header not found: no row in the scan window looks like a header
//	ING002 - Missing columns: amount (Monto) and/or status (Estado) not found
//
//	FILE001 - File too large
//	FILE002 - Unreadable file: corrupt or not a spreadsheet
//	FILE003 - Unsupported format: legacy .xls or other binary formats
//	FILE004 - Empty file
//	FILE005 - No file provided
//
//	EDT001 - Record not found
//	EDT002 - Read-only field
//	EDT003 - Invalid amount
//	EDT004 - Invalid status
//	EDT005 - Record not visible under the current filter
//
//	SES001 - No document loaded
//
//	REQ001 - Malformed request body
//	REQ002 - Too many requests
//
//	ERR000 - Unknown error
//
// Typed errors are matched with errors.Is first. Anything else falls through
// to case-insensitive substring patterns; the first matching pattern wins.

import (
	"errors"
	"fmt"
	"strings"

	"github.com/JonMunkholm/loanledger/internal/core"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

type sentinelMessage struct {
	err error
	msg UserMessage
}

// sentinelMessages is checked in order; causes come before their wrappers.
var sentinelMessages = []sentinelMessage{
	{ErrFileTooLarge, UserMessage{
		Message: "File exceeds the maximum upload size",
		Action:  "Remove unused sheets or rows and try again",
		Code:    "FILE001",
	}},
	{ErrUnsupportedFormat, UserMessage{
		Message: "File format is not supported",
		Action:  "Save the file as .xlsx or .csv and upload it again",
		Code:    "FILE003",
	}},
	{ErrEmptyFile, UserMessage{
		Message: "The uploaded file is empty",
		Action:  "Upload a spreadsheet that contains a header row and data",
		Code:    "FILE004",
	}},
	{ErrHeaderNotFound, UserMessage{
		Message: "Could not find the header row",
		Action:  "Make sure a row near the top contains the Monto and Estado column titles",
		Code:    "ING001",
	}},
	{ErrParseFailure, UserMessage{
		Message: "The file could not be read",
		Action:  "Check that the file is a valid .xlsx or .csv export and is not corrupted",
		Code:    "FILE002",
	}},
	{core.ErrRecordNotFound, UserMessage{
		Message: "The record no longer exists in this session",
		Action:  "Reload the table and try again",
		Code:    "EDT001",
	}},
	{core.ErrRecordHidden, UserMessage{
		Message: "The record is not in the current view",
		Action:  "Clear the filters to edit this record",
		Code:    "EDT005",
	}},
	{core.ErrReadOnlyField, UserMessage{
		Message: "This column cannot be edited",
		Action:  "Only client, amount, status and notes are editable",
		Code:    "EDT002",
	}},
	{core.ErrUnknownField, UserMessage{
		Message: "Unknown column",
		Action:  "Only client, amount, status and notes are editable",
		Code:    "EDT002",
	}},
	{core.ErrNegativeAmount, UserMessage{
		Message: "Amount cannot be negative",
		Action:  "Enter an amount of zero or more",
		Code:    "EDT003",
	}},
	{core.ErrInvalidAmount, UserMessage{
		Message: "Amount is not a valid number",
		Action:  "Enter a number such as 125000 or $125,000.00",
		Code:    "EDT003",
	}},
	{core.ErrInvalidStatus, UserMessage{
		Message: "Status is not one of the allowed values",
		Action:  "Choose a status from the list",
		Code:    "EDT004",
	}},
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

var errorPatterns = []errorPattern{
	{"no document loaded", UserMessage{
		Message: "No file has been loaded yet",
		Action:  "Upload a spreadsheet to start",
		Code:    "SES001",
	}},
	{"no file provided", UserMessage{
		Message: "No file was selected",
		Action:  "Please select a spreadsheet to upload",
		Code:    "FILE005",
	}},
	{"request body too large", UserMessage{
		Message: "File exceeds the maximum upload size",
		Action:  "Remove unused sheets or rows and try again",
		Code:    "FILE001",
	}},
	{"malformed request", UserMessage{
		Message: "The request could not be understood",
		Action:  "Refresh the page and try again",
		Code:    "REQ001",
	}},
	{"rate limit exceeded", UserMessage{
		Message: "Too many requests",
		Action:  "Wait a minute before trying again",
		Code:    "REQ002",
	}},
}

var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts an error to a user-friendly message.
// Returns an empty UserMessage for a nil error.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	// Missing columns get a field-specific message.
	if ie, ok := AsError(err); ok && ie.Kind == KindMissingRequiredColumns {
		return missingColumnsMessage(ie.Missing)
	}

	for _, sm := range sentinelMessages {
		if errors.Is(err, sm.err) {
			return sm.msg
		}
	}

	lower := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(lower, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError renders "Message (Code: XXX). Action".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

func missingColumnsMessage(missing []core.Field) UserMessage {
	labels := make([]string, 0, len(missing))
	for _, f := range missing {
		labels = append(labels, fieldLabel(f))
	}
	if len(labels) == 0 {
		labels = append(labels, fieldLabel(core.FieldAmount), fieldLabel(core.FieldStatus))
	}
	return UserMessage{
		Message: fmt.Sprintf("Could not find the %s column(s)", strings.Join(labels, " and ")),
		Action:  "Check that the spreadsheet has column headers for the amount (Monto) and the status (Estado)",
		Code:    "ING002",
	}
}

func fieldLabel(f core.Field) string {
	switch f {
	case core.FieldAmount:
		return "Monto"
	case core.FieldStatus:
		return "Estado"
	default:
		return string(f)
	}
}
