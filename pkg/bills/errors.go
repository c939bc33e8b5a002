package bills

import (
	"errors"
	"fmt"
	"strings"
)

// ValidationError reports a receipt rejected before any network call.
type ValidationError struct {
	FileName string
	Reason   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid file %q: %s", e.FileName, e.Reason)
}

// TransportError is a network or server failure reported by the bill store.
// Code is the HTTP status, or 0 when no usable response was received.
type TransportError struct {
	Op   string // list, create, update, upload
	Code int
	Err  error
}

func (e *TransportError) Error() string {
	var b strings.Builder
	b.WriteString("bill store ")
	b.WriteString(e.Op)
	if e.Code != 0 {
		fmt.Fprintf(&b, ": status %d", e.Code)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Message is the text shown to the employee, e.g. "Erreur 404".
func (e *TransportError) Message() string {
	if e.Code == 0 {
		return "Erreur"
	}
	return fmt.Sprintf("Erreur %d", e.Code)
}

// MalformedRecordError describes a stored bill that breaks the record invariants.
// It is logged and never stops a list from rendering.
type MalformedRecordError struct {
	ID       string
	Problems []string
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("malformed bill %q: %s", e.ID, strings.Join(e.Problems, "; "))
}

// ErrorMessage maps any failure to the text shown in place of the bill list.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	var te *TransportError
	if errors.As(err, &te) {
		return te.Message()
	}
	return "Erreur"
}
