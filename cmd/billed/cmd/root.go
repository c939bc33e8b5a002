// Package cmd provides CLI commands for billed.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/pigeonworks-llc/billed/pkg/billstore"
	"github.com/pigeonworks-llc/billed/pkg/config"
	"github.com/pigeonworks-llc/billed/pkg/logging"
	"github.com/pigeonworks-llc/billed/pkg/pathutil"
)

var (
	cfgFile string
	debug   bool
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "billed",
	Short: "Submit and review employee expense reports",
	Long: `billed is a CLI for employees to manage expense reports (notes de frais)
stored in a remote bill store.

It supports:
- Listing your bills, latest first
- Uploading a receipt and submitting a new bill
- Keeping a local SQLite history of submissions
- Listing the expense types you may use

Example:
  billed list
  billed submit --file receipt.jpg --type Transports --name Taxi --date 2023-04-24 --amount 1000
  billed stats`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if debug {
			logging.SetupWithLevel(slog.LevelDebug)
			return
		}
		logging.Setup()
	},
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .env)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(submitCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(typesCmd)
}

// loadConfig loads and validates the configuration for the given requirements.
func loadConfig(required ...[]string) *config.Config {
	cfg, err := config.Load(cfgFile)
	exitOnError(err, "failed to load configuration")

	if err := cfg.Validate(required...); err != nil {
		exitOnError(err, "invalid configuration")
	}
	if cfg.Debug && !debug {
		logging.SetupWithLevel(slog.LevelDebug)
	}
	return cfg
}

func newPathResolver(cfg *config.Config) *pathutil.PathResolver {
	return pathutil.New(pathutil.Config{
		DataRoot:     cfg.Data.Root,
		DatabasePath: cfg.Data.DBPath,
		CatalogPath:  cfg.Data.CatalogPath,
	})
}

func newStoreClient(cfg *config.Config) *billstore.Client {
	return billstore.NewClient(billstore.ClientConfig{
		APIURL:       cfg.Store.APIURL,
		AccessToken:  cfg.Store.AccessToken,
		ClientID:     cfg.Store.ClientID,
		ClientSecret: cfg.Store.ClientSecret,
		UserEmail:    cfg.User.Email,
		Timeout:      cfg.Store.Timeout,
	})
}

// Helper function to handle errors and exit.
func exitOnError(err error, msg string) {
	if err != nil {
		slog.Error(msg, "error", err)
		fmt.Fprintf(os.Stderr, "Error: %s: %v\n", msg, err)
		os.Exit(1)
	}
}
