package store

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/pigeonworks-llc/billed/emulator/internal/models"
	"github.com/pigeonworks-llc/billed/pkg/bills"
)

// CreateBill stores a new bill under a generated id.
func (s *Store) CreateBill(b bills.BillRecord) (*bills.BillRecord, error) {
	b.ID = uuid.Must(uuid.NewV7()).String()
	if b.Status == "" {
		b.Status = bills.StatusPending
	}

	now := time.Now()
	stored := models.StoredBill{Bill: b, CreatedAt: now, UpdatedAt: now}
	if err := s.Put(BucketBills, b.ID, stored); err != nil {
		return nil, fmt.Errorf("failed to save bill: %w", err)
	}

	return &stored.Bill, nil
}

// PutBill creates or replaces the bill with the given id. The record is kept
// as sent; only the id is forced to match.
func (s *Store) PutBill(id string, b bills.BillRecord) (*bills.BillRecord, bool, error) {
	if id == "" {
		return nil, false, ErrInvalidID
	}
	b.ID = id

	created := false
	err := s.Update(BucketBills, id, func(existing []byte) (any, error) {
		now := time.Now()
		stored := models.StoredBill{Bill: b, CreatedAt: now, UpdatedAt: now}
		if existing == nil {
			created = true
			return stored, nil
		}

		var prev models.StoredBill
		if err := json.Unmarshal(existing, &prev); err == nil {
			stored.CreatedAt = prev.CreatedAt
		}
		return stored, nil
	})
	if err != nil {
		return nil, false, fmt.Errorf("failed to save bill: %w", err)
	}

	return &b, created, nil
}

// GetBill retrieves a bill by id.
func (s *Store) GetBill(id string) (*bills.BillRecord, error) {
	var stored models.StoredBill
	if err := s.Get(BucketBills, id, &stored); err != nil {
		return nil, err
	}
	return &stored.Bill, nil
}

// ListBills returns the bills matching q in creation order.
func (s *Store) ListBills(q models.BillsQuery) ([]bills.BillRecord, error) {
	results, err := s.List(BucketBills, nil)
	if err != nil {
		return nil, err
	}

	stored := make([]models.StoredBill, 0, len(results))
	for _, data := range results {
		var sb models.StoredBill
		if err := json.Unmarshal(data, &sb); err != nil {
			return nil, fmt.Errorf("failed to unmarshal bill: %w", err)
		}
		if q.Matches(sb.Bill) {
			stored = append(stored, sb)
		}
	}
	sort.SliceStable(stored, func(i, j int) bool {
		return stored[i].CreatedAt.Before(stored[j].CreatedAt)
	})

	out := make([]bills.BillRecord, 0, len(stored))
	for _, sb := range stored {
		out = append(out, sb.Bill)
	}
	return out, nil
}

// DeleteBill deletes a bill by id.
func (s *Store) DeleteBill(id string) error {
	return s.Delete(BucketBills, id)
}
