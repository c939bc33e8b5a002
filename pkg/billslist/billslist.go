// Package billslist loads the employee's bills for display.
package billslist

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/pigeonworks-llc/billed/pkg/bills"
	"github.com/pigeonworks-llc/billed/pkg/billstore"
	"github.com/pigeonworks-llc/billed/pkg/format"
)

// Options configures a Controller.
type Options struct {
	Navigator bills.Navigator
	Logger    *slog.Logger // Default: slog.Default()
}

// Result is the outcome of one load. On failure Bills is empty and
// ErrorMessage holds the text to show instead of the list.
type Result struct {
	Bills        []bills.DisplayBillRecord
	Err          error
	ErrorMessage string
}

// Controller drives the bills page. It holds no per-load state.
type Controller struct {
	store    billstore.Store
	navigate bills.Navigator
	logger   *slog.Logger
}

// New creates a bills page controller.
func New(store billstore.Store, opts Options) *Controller {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		store:    store,
		navigate: opts.Navigator,
		logger:   logger,
	}
}

// LoadBills fetches, normalizes and orders the bills, latest first.
func (c *Controller) LoadBills(ctx context.Context) (result Result) {
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("load bills: %v", r)
			c.logger.Error("Bills load panicked", "error", err)
			result = Result{Bills: []bills.DisplayBillRecord{}, Err: err, ErrorMessage: bills.ErrorMessage(err)}
		}
	}()

	records, err := c.store.ListBills(ctx)
	if err != nil {
		c.logger.Warn("Failed to load bills", "error", err)
		return Result{Bills: []bills.DisplayBillRecord{}, Err: err, ErrorMessage: bills.ErrorMessage(err)}
	}

	display := make([]bills.DisplayBillRecord, 0, len(records))
	for _, record := range records {
		display = append(display, c.normalize(record))
	}
	SortLatestFirst(display)

	c.logger.Debug("Bills loaded", "count", len(display))
	return Result{Bills: display}
}

// normalize formats one record. A bad record is logged and kept.
func (c *Controller) normalize(record bills.BillRecord) (d bills.DisplayBillRecord) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("Failed to format bill", "id", record.ID, "panic", r)
			d = bills.DisplayBillRecord{BillRecord: record, FormattedDate: record.Date}
		}
	}()

	if err := record.Validate(); err != nil {
		var mre *bills.MalformedRecordError
		if errors.As(err, &mre) {
			c.logger.Warn("Malformed bill", "id", mre.ID, "problems", mre.Problems)
		}
	}
	return format.Normalize(record)
}

// NewBill opens the new bill form.
func (c *Controller) NewBill() {
	if c.navigate != nil {
		c.navigate(bills.RouteNewBill)
	}
}

// SortLatestFirst orders records by their raw date, latest first.
// Records whose date does not parse keep their relative order at the end.
func SortLatestFirst(records []bills.DisplayBillRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		ti, oki := bills.ParseDate(records[i].Date)
		tj, okj := bills.ParseDate(records[j].Date)
		switch {
		case oki && okj:
			return ti.After(tj)
		case oki:
			return true
		default:
			return false
		}
	})
}
