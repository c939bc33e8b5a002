package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/pigeonworks-llc/billed/pkg/catalog"
)

// typesCmd represents the types command.
var typesCmd = &cobra.Command{
	Use:   "types",
	Short: "List the expense types",
	Long: `List the expense types accepted by 'billed submit --type'.

The list comes from BILLED_CATALOG_PATH (YAML) or the built-in defaults.

Example:
  billed types`,
	Run: runTypes,
}

func runTypes(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	paths := newPathResolver(cfg)

	catalogPath := paths.GetCatalogPath()
	types, err := catalog.LoadOrDefault(catalogPath)
	exitOnError(err, "failed to load expense types")

	fmt.Println(catalogSource(catalogPath, paths.FileExists(catalogPath)))

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tCODE\tDEFAULT PCT")
	for _, t := range types.Types() {
		pct := "-"
		if t.DefaultPCT > 0 {
			pct = fmt.Sprintf("%d", t.DefaultPCT)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", t.Name, t.Code, pct)
	}
	exitOnError(tw.Flush(), "failed to print expense types")
}

// catalogSource describes where the expense types were loaded from.
func catalogSource(path string, exists bool) string {
	if path == "" || !exists {
		return "Source: built-in defaults"
	}
	return "Source: " + path
}
