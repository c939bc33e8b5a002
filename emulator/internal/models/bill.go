package models

import (
	"time"

	"github.com/pigeonworks-llc/billed/pkg/bills"
)

// StoredBill is a bill as kept by the emulator. Bill is returned to clients
// exactly as it was last written.
type StoredBill struct {
	Bill      bills.BillRecord `json:"bill"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// BillsQuery filters bill listings.
type BillsQuery struct {
	Email  string
	Status bills.Status
}

// Matches reports whether b passes the query.
func (q BillsQuery) Matches(b bills.BillRecord) bool {
	if q.Email != "" && b.Email != q.Email {
		return false
	}
	if q.Status != "" && b.Status != q.Status {
		return false
	}
	return true
}
