// Package newbill implements the new expense report workflow: pick a receipt,
// upload it, then submit the bill.
package newbill

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/pigeonworks-llc/billed/pkg/bills"
	"github.com/pigeonworks-llc/billed/pkg/billstore"
	"github.com/pigeonworks-llc/billed/pkg/receipt"
)

// DefaultPCT is the percentage applied when the form leaves it empty.
const DefaultPCT = 20

var (
	// ErrNotUploaded is returned by Submit before a receipt has been uploaded.
	ErrNotUploaded = errors.New("no uploaded receipt to submit")

	// ErrSuperseded is returned when a newer file selection replaced the
	// operation while it was waiting on the store.
	ErrSuperseded = errors.New("superseded by a newer file selection")
)

// Session provides the signed-in user.
type Session interface {
	UserEmail() string
}

// Form holds the fields typed by the employee.
type Form struct {
	Type       string
	Name       string
	Date       string // YYYY-MM-DD
	Amount     int64
	VAT        int64
	PCT        int64 // Default: 20
	Commentary string
}

// View is a consistent copy of the controller state.
type View struct {
	State        State
	FileURL      string
	FileName     string
	Key          string
	ErrorVisible bool
	Err          error
	Bill         *bills.BillRecord
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Controller drives the new bill page. It is safe for concurrent use; the
// mutex is never held while waiting on the store.
type Controller struct {
	store    billstore.Store
	session  Session
	navigate bills.Navigator
	logger   *slog.Logger

	mu       sync.Mutex
	gen      uint64
	state    State
	fileURL  string
	fileName string
	key      string
	err      error
	bill     *bills.BillRecord
}

// New creates a new bill controller in the Idle state.
func New(store billstore.Store, session Session, navigate bills.Navigator, opts ...Option) *Controller {
	c := &Controller{
		store:    store,
		session:  session,
		navigate: navigate,
		logger:   slog.Default(),
		state:    Idle,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SelectFile validates the receipt and uploads it. Any earlier selection
// still in flight is superseded.
//
// It returns a *bills.ValidationError for a rejected file, the store error
// when the upload fails, and ErrSuperseded when a newer selection won.
func (c *Controller) SelectFile(ctx context.Context, file bills.UploadedFile) error {
	c.mu.Lock()
	c.gen++
	gen := c.gen
	c.clearFile()

	if err := receipt.Check(file); err != nil {
		c.setState(Rejected)
		c.err = err
		c.mu.Unlock()
		c.logger.Warn("Invalid receipt", "file", file.Name, "error", err)
		return err
	}

	c.setState(FileSelected)
	c.setState(Uploading)
	c.mu.Unlock()

	c.logger.Debug("Uploading receipt", "file", file.Name, "generation", gen)
	ref, err := c.store.UploadFile(ctx, file)
	if err == nil && ref == nil {
		err = &bills.TransportError{Op: "upload", Err: errors.New("empty upload response")}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.gen {
		c.logger.Debug("Discarding stale upload", "file", file.Name, "generation", gen)
		return ErrSuperseded
	}
	if err != nil {
		c.setState(Failed)
		c.err = err
		c.logger.Error("Receipt upload failed", "file", file.Name, "error", err)
		return err
	}

	c.setState(Uploaded)
	c.fileURL = ref.FileURL
	c.fileName = ref.FileName
	if c.fileName == "" {
		c.fileName = file.Name
	}
	c.key = ref.Key
	c.logger.Info("Receipt uploaded", "file", c.fileName, "key", c.key)
	return nil
}

// Submit sends the bill built from the form and the uploaded receipt, then
// navigates to the bills page.
//
// A form that breaks the record invariants (negative amounts, unparseable
// date) returns a *bills.MalformedRecordError; the state stays Uploaded and
// the store is not called.
func (c *Controller) Submit(ctx context.Context, form Form) error {
	c.mu.Lock()
	if c.state != Uploaded {
		c.mu.Unlock()
		return ErrNotUploaded
	}

	gen := c.gen
	record := c.buildRecord(form)
	if err := record.Validate(); err != nil {
		c.mu.Unlock()
		c.logger.Warn("Invalid bill", "id", record.ID, "error", err)
		return err
	}
	c.setState(Submitting)
	c.mu.Unlock()

	saved, err := c.store.CreateOrUpdateBill(ctx, record)

	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		c.logger.Debug("Discarding stale submission", "id", record.ID)
		return ErrSuperseded
	}
	if err != nil {
		c.setState(Failed)
		c.err = err
		c.mu.Unlock()
		c.logger.Error("Bill submission failed", "id", record.ID, "error", err)
		return err
	}

	if saved == nil {
		saved = &record
	}
	c.setState(Completed)
	c.bill = saved
	c.mu.Unlock()

	c.logger.Info("Bill submitted", "id", saved.ID, "type", saved.Type, "amount", saved.Amount)
	if c.navigate != nil {
		c.navigate(bills.RouteBills)
	}
	return nil
}

// Snapshot returns the current state.
func (c *Controller) Snapshot() View {
	c.mu.Lock()
	defer c.mu.Unlock()

	v := View{
		State:        c.state,
		FileURL:      c.fileURL,
		FileName:     c.fileName,
		Key:          c.key,
		ErrorVisible: c.state == Rejected,
		Err:          c.err,
	}
	if c.bill != nil {
		b := *c.bill
		v.Bill = &b
	}
	return v
}

// setState moves to s. Caller holds mu.
func (c *Controller) setState(s State) {
	c.logger.Debug("New bill state", "from", c.state, "to", s)
	c.state = s
}

// clearFile drops the previous file reference and outcome. Caller holds mu.
func (c *Controller) clearFile() {
	c.fileURL = ""
	c.fileName = ""
	c.key = ""
	c.err = nil
	c.bill = nil
}

// buildRecord assembles the bill to store. Caller holds mu.
func (c *Controller) buildRecord(form Form) bills.BillRecord {
	pct := form.PCT
	if pct == 0 {
		pct = DefaultPCT
	}

	var email string
	if c.session != nil {
		email = c.session.UserEmail()
	}

	return bills.BillRecord{
		ID:         c.key,
		Email:      email,
		Type:       form.Type,
		Name:       form.Name,
		Date:       form.Date,
		Amount:     bills.Int(form.Amount),
		VAT:        bills.Int(form.VAT),
		PCT:        bills.Int(pct),
		Commentary: form.Commentary,
		FileURL:    c.fileURL,
		FileName:   c.fileName,
		Status:     bills.StatusPending,
	}
}
