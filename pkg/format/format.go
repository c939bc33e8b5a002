// Package format prepares stored bills for display.
package format

import (
	"fmt"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/pigeonworks-llc/billed/pkg/bills"
)

// frenchMonths holds the French short month names, lower-case.
var frenchMonths = [...]string{
	"janv.", "févr.", "mars", "avr.", "mai", "juin",
	"juil.", "août", "sept.", "oct.", "nov.", "déc.",
}

// FormatDate renders a stored date as "4 Avr. 04".
// A value that does not parse is returned unchanged.
func FormatDate(raw string) string {
	t, ok := bills.ParseDate(raw)
	if !ok {
		return raw
	}
	return fmt.Sprintf("%d %s %02d", t.Day(), monthLabel(t.Month()), t.Year()%100)
}

// monthLabel keeps the first three letters of the French month, capitalised.
func monthLabel(m time.Month) string {
	name := []rune(frenchMonths[m-1])
	if len(name) > 3 {
		name = name[:3]
	}
	// Casers keep state, so one is built per call.
	return cases.Title(language.French).String(string(name)) + "."
}

// FormatStatus returns the French label for a review status.
func FormatStatus(status bills.Status) string {
	switch status {
	case bills.StatusPending:
		return "En attente"
	case bills.StatusAccepted:
		return "Accepté"
	case bills.StatusRefused:
		return "Refusé"
	default:
		return ""
	}
}

// Normalize builds the display form of a record. It never fails.
func Normalize(b bills.BillRecord) bills.DisplayBillRecord {
	return bills.DisplayBillRecord{
		BillRecord:    b,
		FormattedDate: FormatDate(b.Date),
		StatusLabel:   FormatStatus(b.Status),
	}
}
