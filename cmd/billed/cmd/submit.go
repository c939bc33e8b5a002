package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pigeonworks-llc/billed/pkg/bills"
	"github.com/pigeonworks-llc/billed/pkg/catalog"
	"github.com/pigeonworks-llc/billed/pkg/db"
	"github.com/pigeonworks-llc/billed/pkg/newbill"
)

var (
	submitFile        string
	submitContentType string
	submitForm        newbill.Form
	submitNoHistory   bool
)

// submitCmd represents the submit command.
var submitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Upload a receipt and submit a new bill",
	Long: `Upload a receipt image and submit a new bill to the bill store.

This command:
1. Checks the receipt (jpg, jpeg or png only)
2. Uploads it to the bill store
3. Submits the bill with status "pending"
4. Records the submission in the local SQLite history

Example:
  billed submit --file receipt.jpg --type Transports --name Taxi \
    --date 2023-04-24 --amount 1000 --vat 20 --pct 20 --commentary "Client visit"`,
	Run: runSubmit,
}

func init() {
	submitCmd.Flags().StringVar(&submitFile, "file", "", "receipt image (required)")
	submitCmd.Flags().StringVar(&submitContentType, "content-type", "", "receipt MIME type (default: from the file extension)")
	submitCmd.Flags().StringVar(&submitForm.Type, "type", "", "expense type, see 'billed types' (required)")
	submitCmd.Flags().StringVar(&submitForm.Name, "name", "", "expense name (required)")
	submitCmd.Flags().StringVar(&submitForm.Date, "date", "", "expense date YYYY-MM-DD (required)")
	submitCmd.Flags().Int64Var(&submitForm.Amount, "amount", 0, "amount TTC in euros (required)")
	submitCmd.Flags().Int64Var(&submitForm.VAT, "vat", 0, "VAT amount")
	submitCmd.Flags().Int64Var(&submitForm.PCT, "pct", 0, "VAT percentage (default 20)")
	submitCmd.Flags().StringVar(&submitForm.Commentary, "commentary", "", "free text comment")
	submitCmd.Flags().BoolVar(&submitNoHistory, "no-history", false, "do not record the submission locally")

	for _, name := range []string{"file", "type", "name", "date", "amount"} {
		_ = submitCmd.MarkFlagRequired(name)
	}
}

func runSubmit(cmd *cobra.Command, args []string) {
	cfg := loadConfig(
		[]string{"store", "apiUrl"},
		[]string{"user", "email"},
	)
	paths := newPathResolver(cfg)

	types, err := catalog.LoadOrDefault(paths.GetCatalogPath())
	exitOnError(err, "failed to load expense types")

	form, err := prepareForm(submitForm, types)
	exitOnError(err, "invalid bill")

	file, err := readReceipt(submitFile, submitContentType)
	exitOnError(err, "failed to read receipt")

	session := bills.User{Type: cfg.User.Type, Email: cfg.User.Email}
	var route string
	controller := newbill.New(newStoreClient(cfg), session,
		func(r string) { route = r },
		newbill.WithLogger(slog.Default()),
	)

	ctx := context.Background()

	slog.Info("Uploading receipt", "file", file.Name, "content_type", file.ContentType)
	if err := controller.SelectFile(ctx, file); err != nil {
		var ve *bills.ValidationError
		if errors.As(err, &ve) {
			exitOnError(err, "receipt rejected")
		}
		fmt.Fprintln(os.Stderr, bills.ErrorMessage(err))
		exitOnError(err, "failed to upload receipt")
	}

	slog.Info("Submitting bill", "type", form.Type, "name", form.Name, "amount", form.Amount)
	if err := controller.Submit(ctx, form); err != nil {
		fmt.Fprintln(os.Stderr, bills.ErrorMessage(err))
		exitOnError(err, "failed to submit bill")
	}

	view := controller.Snapshot()
	if !submitNoHistory && view.Bill != nil {
		// Failures are logged only: the bill is already in the store.
		updated, err := recordSubmission(ctx, paths.GetDatabasePath(), *view.Bill)
		switch {
		case err != nil:
			slog.Warn("Failed to record submission", "id", view.Bill.ID, "error", err)
		case updated:
			slog.Warn("Bill was already in the history, entry updated", "id", view.Bill.ID)
		}
	}

	fmt.Printf("Submitted bill %s (%s)\n", view.Bill.ID, view.FileName)
	fmt.Printf("Next: %s\n", route)
}

// prepareForm checks the form against the catalogue and applies type defaults.
func prepareForm(form newbill.Form, types *catalog.Catalog) (newbill.Form, error) {
	t, ok := types.Lookup(form.Type)
	if !ok {
		return form, fmt.Errorf("unknown expense type %q (known: %v)", form.Type, types.Names())
	}
	form.Type = t.Name

	if _, ok := bills.ParseDate(form.Date); !ok {
		return form, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", form.Date)
	}
	if form.Amount < 0 || form.VAT < 0 || form.PCT < 0 {
		return form, errors.New("amount, vat and pct must not be negative")
	}
	if form.PCT == 0 && t.DefaultPCT > 0 {
		form.PCT = t.DefaultPCT
	}
	return form, nil
}

// readReceipt loads the receipt from disk. The content type defaults to the
// one registered for the file extension.
func readReceipt(path, contentType string) (bills.UploadedFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return bills.UploadedFile{}, err
	}
	if contentType == "" {
		contentType = mime.TypeByExtension(filepath.Ext(path))
	}
	return bills.UploadedFile{
		Name:        filepath.Base(path),
		ContentType: contentType,
		Data:        data,
	}, nil
}

// recordSubmission stores the bill in the local history and reports whether
// an entry for the same bill was already there.
func recordSubmission(ctx context.Context, dbPath string, bill bills.BillRecord) (bool, error) {
	slog.Debug("Opening database", "path", dbPath)
	conn, err := db.Open(dbPath)
	if err != nil {
		return false, err
	}
	defer conn.Close()

	history := db.NewHistory(conn)
	existing, err := history.GetSubmission(ctx, bill.ID)
	if err != nil {
		return false, err
	}
	if err := history.RecordSubmission(ctx, db.SubmissionFromBill(bill)); err != nil {
		return false, err
	}
	return existing != nil, nil
}
