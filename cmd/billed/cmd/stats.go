package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/pigeonworks-llc/billed/pkg/db"
	"github.com/pigeonworks-llc/billed/pkg/format"
)

var statsRecent int

// statsCmd represents the stats command.
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Display submission statistics",
	Long: `Display statistics about bills submitted from this machine.

Shows:
- Total number of submitted bills
- Total amount and VAT
- Amount per expense type
- Last submission timestamp
- Last submitted bill and last list time
- Database location

Example:
  billed stats
  billed stats --recent 5`,
	Run: runStats,
}

func init() {
	statsCmd.Flags().IntVar(&statsRecent, "recent", 0, "also list the N most recent submissions")
}

func runStats(cmd *cobra.Command, args []string) {
	cfg := loadConfig([]string{"data", "root"})
	paths := newPathResolver(cfg)

	dbPath := paths.GetDatabasePath()
	slog.Debug("Opening database", "path", dbPath)

	conn, err := db.Open(dbPath)
	exitOnError(err, "failed to open database")
	defer conn.Close()

	history := db.NewHistory(conn)
	ctx := context.Background()

	stats, err := history.GetStats(ctx)
	exitOnError(err, "failed to get statistics")

	fmt.Println("\n=== Submission Statistics ===")
	fmt.Printf("Total submitted bills: %d\n", stats.TotalSubmissions)
	fmt.Printf("Total amount:          %d €\n", stats.TotalAmount)
	fmt.Printf("Total VAT:             %d €\n", stats.TotalVAT)

	for _, t := range stats.ByType {
		fmt.Printf("  %-24s %3d bills  %8d €\n", t.ExpenseType, t.Count, t.Amount)
	}

	if stats.LastSubmission.Valid {
		fmt.Printf("Last submission:       %s\n", stats.LastSubmission.String)
	} else {
		fmt.Printf("Last submission:       (never)\n")
	}

	exitOnError(printHistoryInfo(ctx, os.Stdout, conn, history), "failed to read history metadata")

	if statsRecent > 0 {
		recent, err := history.ListSubmissions(ctx, statsRecent)
		exitOnError(err, "failed to list submissions")

		fmt.Println("\n=== Recent Submissions ===")
		for _, s := range recent {
			fmt.Printf("%-12s %-24s %-20s %8d €\n", format.FormatDate(s.BillDate), s.ExpenseType, s.Name, s.Amount)
		}
	}

	fmt.Println()
}

// printHistoryInfo prints the database location and the tracked metadata.
func printHistoryInfo(ctx context.Context, w io.Writer, conn *db.Connection, history *db.History) error {
	lastBill, err := history.GetMetadata(ctx, db.MetadataLastSubmittedBill)
	if err != nil {
		return err
	}
	lastList, err := history.GetMetadata(ctx, db.MetadataLastListAt)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "Last submitted bill:   %s\n", orNever(lastBill))
	fmt.Fprintf(w, "Last list:             %s\n", orNever(lastList))
	_, err = fmt.Fprintf(w, "Database:              %s\n", conn.GetPath())
	return err
}

func orNever(v string) string {
	if v == "" {
		return "(never)"
	}
	return v
}
