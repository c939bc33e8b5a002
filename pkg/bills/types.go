// Package bills defines the expense-report records exchanged with the bill store.
package bills

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Status is the review status of a bill.
type Status string

const (
	StatusPending  Status = "pending"
	StatusAccepted Status = "accepted"
	StatusRefused  Status = "refused"
)

// Valid reports whether s is one of the three review statuses.
func (s Status) Valid() bool {
	return s == StatusPending || s == StatusAccepted || s == StatusRefused
}

// Route names handed to a Navigator.
const (
	RouteBills   = "#employee/bills"
	RouteNewBill = "#employee/bill/new"
)

// Navigator switches the view to the given route.
type Navigator func(route string)

// Int is an integer that also decodes from a numeric JSON string.
// The store has historically written vat as "80" and amount as 400.
type Int int64

// UnmarshalJSON accepts 12, "12", "" and null.
func (n *Int) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*n = 0
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*n = 0
			return nil
		}
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid integer string %q", s)
		}
		*n = Int(v)
		return nil
	}

	var v json.Number
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	i, err := v.Int64()
	if err != nil {
		f, ferr := v.Float64()
		if ferr != nil {
			return fmt.Errorf("invalid integer %s", v)
		}
		fi, ok := IntFromFloat(f)
		if !ok {
			return fmt.Errorf("integer %s out of range", v)
		}
		i = int64(fi)
	}
	*n = Int(i)
	return nil
}

// IntFromFloat truncates f, reporting false when it does not fit in an int64.
func IntFromFloat(f float64) (Int, bool) {
	if math.IsNaN(f) || f >= math.MaxInt64 || f < math.MinInt64 {
		return 0, false
	}
	return Int(f), true
}

// BillRecord is a persisted expense report.
type BillRecord struct {
	ID           string `json:"id,omitempty"`
	Email        string `json:"email"`
	Type         string `json:"type"` // e.g. "Transports", "Hôtel et logement"
	Name         string `json:"name"`
	Date         string `json:"date"` // YYYY-MM-DD, not guaranteed
	Amount       Int    `json:"amount"`
	VAT          Int    `json:"vat"`
	PCT          Int    `json:"pct"`
	Commentary   string `json:"commentary,omitempty"`
	FileURL      string `json:"fileUrl,omitempty"`
	FileName     string `json:"fileName,omitempty"`
	Status       Status `json:"status"`
	CommentAdmin string `json:"commentAdmin,omitempty"`
}

// Validate checks the record invariants and returns a *MalformedRecordError
// listing every violation, or nil.
func (b *BillRecord) Validate() error {
	var problems []string

	if b.Amount < 0 {
		problems = append(problems, "negative amount")
	}
	if b.VAT < 0 {
		problems = append(problems, "negative vat")
	}
	if b.PCT < 0 {
		problems = append(problems, "negative pct")
	}
	if !b.Status.Valid() {
		problems = append(problems, fmt.Sprintf("unknown status %q", b.Status))
	}
	if _, ok := ParseDate(b.Date); !ok {
		problems = append(problems, fmt.Sprintf("unparseable date %q", b.Date))
	}
	if b.FileURL != "" {
		u, err := url.Parse(b.FileURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			problems = append(problems, fmt.Sprintf("file reference %q is not an absolute URL", b.FileURL))
		}
	}

	if len(problems) == 0 {
		return nil
	}
	return &MalformedRecordError{ID: b.ID, Problems: problems}
}

// DisplayBillRecord is a BillRecord prepared for one render pass.
// Date keeps the raw value; FormattedDate is what gets shown.
type DisplayBillRecord struct {
	BillRecord
	FormattedDate string `json:"formattedDate"`
	StatusLabel   string `json:"statusLabel"`
}

// UploadedFile is a receipt picked by the employee. It is never persisted as such.
type UploadedFile struct {
	Name        string
	ContentType string // as claimed by the client
	Data        []byte
}

// FileRef is the durable reference returned by the store after an upload.
type FileRef struct {
	FileURL  string `json:"fileUrl"`
	FileName string `json:"fileName"`
	Key      string `json:"key"`
}

// User is the session user stamped on new bills.
type User struct {
	Type  string `json:"type"`
	Email string `json:"email"`
}

// UserEmail returns the user's email address.
func (u User) UserEmail() string {
	return u.Email
}

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
}

// ParseDate parses a stored bill date. It reports false instead of failing.
func ParseDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
