package billstore

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/pigeonworks-llc/billed/pkg/bills"
)

// decodeBill decodes one element of a bill list. An element that does not
// fit BillRecord is decoded field by field so the list keeps its length;
// the controllers validate records later.
func decodeBill(raw json.RawMessage) bills.BillRecord {
	var b bills.BillRecord
	if err := json.Unmarshal(raw, &b); err == nil {
		return b
	}

	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		// Not even an object. Keep a placeholder that fails validation.
		return bills.BillRecord{}
	}

	b = bills.BillRecord{
		ID:           stringField(fields, "id"),
		Email:        stringField(fields, "email"),
		Type:         stringField(fields, "type"),
		Name:         stringField(fields, "name"),
		Date:         stringField(fields, "date"),
		Amount:       intField(fields, "amount"),
		VAT:          intField(fields, "vat"),
		PCT:          intField(fields, "pct"),
		Commentary:   stringField(fields, "commentary"),
		FileURL:      stringField(fields, "fileUrl"),
		FileName:     stringField(fields, "fileName"),
		Status:       bills.Status(stringField(fields, "status")),
		CommentAdmin: stringField(fields, "commentAdmin"),
	}
	return b
}

func stringField(fields map[string]any, key string) string {
	switch v := fields[key].(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}

// intField returns -1 for values that cannot be read as a number, which
// Validate reports as negative.
func intField(fields map[string]any, key string) bills.Int {
	switch v := fields[key].(type) {
	case nil:
		return 0
	case float64:
		if n, ok := bills.IntFromFloat(v); ok {
			return n
		}
		return -1
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return 0
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			if n, ok := bills.IntFromFloat(f); ok {
				return n
			}
		}
		return -1
	default:
		return -1
	}
}
