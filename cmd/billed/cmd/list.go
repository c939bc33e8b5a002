package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/pigeonworks-llc/billed/pkg/bills"
	"github.com/pigeonworks-llc/billed/pkg/billslist"
	"github.com/pigeonworks-llc/billed/pkg/db"
)

var listJSON bool

// listCmd represents the list command.
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List your bills, latest first",
	Long: `Fetch your bills from the bill store and print them, latest first.

Dates are shown in the short French form (4 Avr. 04) and statuses as
En attente, Accepté or Refusé.

Example:
  billed list
  billed list --json`,
	Run: runList,
}

func init() {
	listCmd.Flags().BoolVar(&listJSON, "json", false, "print bills as JSON")
}

func runList(cmd *cobra.Command, args []string) {
	cfg := loadConfig([]string{"store", "apiUrl"})
	paths := newPathResolver(cfg)

	controller := billslist.New(newStoreClient(cfg), billslist.Options{Logger: slog.Default()})

	slog.Info("Loading bills", "api_url", cfg.Store.APIURL)
	ctx := context.Background()
	result := controller.LoadBills(ctx)
	if result.Err != nil {
		fmt.Fprintln(os.Stderr, result.ErrorMessage)
		exitOnError(result.Err, "failed to load bills")
	}

	if err := markListed(ctx, paths.GetDatabasePath(), time.Now()); err != nil {
		slog.Warn("Failed to record list time", "error", err)
	}

	if listJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		exitOnError(enc.Encode(result.Bills), "failed to encode bills")
		return
	}

	exitOnError(renderBills(os.Stdout, result.Bills), "failed to print bills")
	slog.Debug("Bills displayed", "count", len(result.Bills))
}

// markListed stores the time of the last successful list in the history.
func markListed(ctx context.Context, dbPath string, at time.Time) error {
	conn, err := db.Open(dbPath)
	if err != nil {
		return err
	}
	defer conn.Close()

	return db.NewHistory(conn).SetMetadata(ctx, db.MetadataLastListAt, at.Format(time.RFC3339))
}

// renderBills prints one row per bill.
func renderBills(w io.Writer, list []bills.DisplayBillRecord) error {
	if len(list) == 0 {
		_, err := fmt.Fprintln(w, "No bills")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TYPE\tNAME\tDATE\tAMOUNT\tSTATUS")
	for _, b := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d €\t%s\n", b.Type, b.Name, b.FormattedDate, b.Amount, b.StatusLabel)
	}
	return tw.Flush()
}
