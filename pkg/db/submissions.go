package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/pigeonworks-llc/billed/pkg/bills"
)

// Submission is a bill recorded after the store accepted it.
type Submission struct {
	ID          int64
	BillID      string
	Email       string
	ExpenseType string
	Name        string
	BillDate    string
	Amount      int64
	VAT         int64
	PCT         int64
	FileName    string
	FileURL     string
	Status      string
	SubmittedAt time.Time
}

// SubmissionFromBill copies the fields kept in the history.
func SubmissionFromBill(b bills.BillRecord) Submission {
	return Submission{
		BillID:      b.ID,
		Email:       b.Email,
		ExpenseType: b.Type,
		Name:        b.Name,
		BillDate:    b.Date,
		Amount:      int64(b.Amount),
		VAT:         int64(b.VAT),
		PCT:         int64(b.PCT),
		FileName:    b.FileName,
		FileURL:     b.FileURL,
		Status:      string(b.Status),
	}
}

// Metadata keys.
const (
	MetadataLastSubmittedBill = "last_submitted_bill"
	MetadataLastListAt        = "last_list_at"
)

// History manages submission history operations.
type History struct {
	conn *Connection
}

// NewHistory creates a new History instance.
func NewHistory(conn *Connection) *History {
	return &History{conn: conn}
}

// RecordSubmission records a submitted bill and remembers it as the last one
// submitted. Submitting the same bill id again updates the row.
func (h *History) RecordSubmission(ctx context.Context, s Submission) error {
	if s.BillID == "" {
		return errors.New("failed to record submission: empty bill id")
	}

	query := `
		INSERT INTO submissions (bill_id, email, expense_type, name, bill_date, amount, vat, pct, file_name, file_url, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(bill_id) DO UPDATE SET
			email = excluded.email,
			expense_type = excluded.expense_type,
			name = excluded.name,
			bill_date = excluded.bill_date,
			amount = excluded.amount,
			vat = excluded.vat,
			pct = excluded.pct,
			file_name = excluded.file_name,
			file_url = excluded.file_url,
			status = excluded.status,
			submitted_at = CURRENT_TIMESTAMP
	`

	return h.conn.Transaction(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, query,
			s.BillID, s.Email, s.ExpenseType, s.Name, s.BillDate,
			s.Amount, s.VAT, s.PCT, s.FileName, s.FileURL, s.Status,
		)
		if err != nil {
			return fmt.Errorf("failed to record submission: %w", err)
		}

		if _, err := tx.ExecContext(ctx, setMetadataQuery, MetadataLastSubmittedBill, s.BillID); err != nil {
			return fmt.Errorf("failed to set metadata: %w", err)
		}
		return nil
	})
}

const submissionColumns = `id, bill_id, email, expense_type, name, bill_date, amount, vat, pct, file_name, file_url, status, submitted_at`

func scanSubmission(row interface{ Scan(...any) error }) (Submission, error) {
	var s Submission
	err := row.Scan(
		&s.ID, &s.BillID, &s.Email, &s.ExpenseType, &s.Name, &s.BillDate,
		&s.Amount, &s.VAT, &s.PCT, &s.FileName, &s.FileURL, &s.Status, &s.SubmittedAt,
	)
	return s, err
}

// GetSubmission retrieves a submission by bill id. It returns nil when absent.
func (h *History) GetSubmission(ctx context.Context, billID string) (*Submission, error) {
	row := h.conn.QueryRowContext(ctx, `SELECT `+submissionColumns+` FROM submissions WHERE bill_id = ?`, billID)

	s, err := scanSubmission(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get submission: %w", err)
	}
	return &s, nil
}

// ListSubmissions returns the most recent submissions by bill date, latest
// first. A limit of 0 returns all of them.
func (h *History) ListSubmissions(ctx context.Context, limit int) ([]Submission, error) {
	query := `SELECT ` + submissionColumns + ` FROM submissions ORDER BY bill_date DESC, id DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := h.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}
	defer rows.Close()

	var out []Submission
	for rows.Next() {
		s, err := scanSubmission(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan submission: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}

	return out, nil
}

// TypeTotal is the per expense type aggregate.
type TypeTotal struct {
	ExpenseType string
	Count       int
	Amount      int64
}

// Stats represents submission statistics.
type Stats struct {
	TotalSubmissions int
	TotalAmount      int64
	TotalVAT         int64
	ByType           []TypeTotal
	LastSubmission   sql.NullString
}

// GetStats retrieves submission statistics.
func (h *History) GetStats(ctx context.Context) (*Stats, error) {
	var stats Stats

	err := h.conn.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(amount), 0), COALESCE(SUM(vat), 0) FROM submissions`,
	).Scan(&stats.TotalSubmissions, &stats.TotalAmount, &stats.TotalVAT)
	if err != nil {
		return nil, fmt.Errorf("failed to get submission totals: %w", err)
	}

	rows, err := h.conn.QueryContext(ctx, `
		SELECT expense_type, COUNT(*), SUM(amount)
		FROM submissions
		GROUP BY expense_type
		ORDER BY SUM(amount) DESC, expense_type
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to get totals by type: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var t TypeTotal
		if err := rows.Scan(&t.ExpenseType, &t.Count, &t.Amount); err != nil {
			return nil, fmt.Errorf("failed to scan type total: %w", err)
		}
		stats.ByType = append(stats.ByType, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to get totals by type: %w", err)
	}

	err = h.conn.QueryRowContext(ctx, `SELECT MAX(submitted_at) FROM submissions`).Scan(&stats.LastSubmission)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to get last submission time: %w", err)
	}

	return &stats, nil
}

// GetMetadata retrieves a metadata value. It returns "" when absent.
func (h *History) GetMetadata(ctx context.Context, key string) (string, error) {
	var value string
	err := h.conn.QueryRowContext(ctx, `SELECT value FROM metadata WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get metadata: %w", err)
	}

	return value, nil
}

const setMetadataQuery = `
	INSERT INTO metadata (key, value, updated_at)
	VALUES (?, ?, CURRENT_TIMESTAMP)
	ON CONFLICT(key) DO UPDATE SET
		value = excluded.value,
		updated_at = CURRENT_TIMESTAMP
`

// SetMetadata sets a metadata value.
func (h *History) SetMetadata(ctx context.Context, key, value string) error {
	if _, err := h.conn.ExecContext(ctx, setMetadataQuery, key, value); err != nil {
		return fmt.Errorf("failed to set metadata: %w", err)
	}

	return nil
}
