// Package pathutil provides centralized path management for local billed data.
package pathutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DefaultDataRoot is used when no data root is configured.
const DefaultDataRoot = "./data"

// PathResolver manages paths for the submission database, the expense type
// catalogue and stored receipts.
type PathResolver struct {
	dataRoot    string
	dbPath      string
	catalogPath string
	receiptsDir string
}

// Config represents the configuration for PathResolver.
type Config struct {
	// DataRoot is the root directory for local data (e.g., ./data)
	DataRoot string
	// DatabasePath is the path to the SQLite submission history
	DatabasePath string
	// CatalogPath is the YAML expense type catalogue
	CatalogPath string
	// ReceiptsDir is where the emulator keeps uploaded receipts
	ReceiptsDir string
}

// New creates a new PathResolver with the given configuration.
// If DatabasePath is empty, it defaults to {DataRoot}/.billed/history.db
// If CatalogPath is empty, it defaults to {DataRoot}/expense_types.yaml
// If ReceiptsDir is empty, it defaults to {DataRoot}/receipts
func New(config Config) *PathResolver {
	dbPath := config.DatabasePath
	if dbPath == "" {
		dbPath = filepath.Join(config.DataRoot, ".billed", "history.db")
	}

	catalogPath := config.CatalogPath
	if catalogPath == "" {
		catalogPath = filepath.Join(config.DataRoot, "expense_types.yaml")
	}

	receiptsDir := config.ReceiptsDir
	if receiptsDir == "" {
		receiptsDir = filepath.Join(config.DataRoot, "receipts")
	}

	return &PathResolver{
		dataRoot:    config.DataRoot,
		dbPath:      dbPath,
		catalogPath: catalogPath,
		receiptsDir: receiptsDir,
	}
}

// FromEnv creates a PathResolver from environment variables.
// Expected environment variables:
//   - BILLED_DATA_ROOT: Root directory for local data (default ./data)
//   - BILLED_DB_PATH: Database file path (optional)
//   - BILLED_CATALOG_PATH: Expense type catalogue (optional)
//   - UPLOAD_DIR: Receipts directory (optional)
func FromEnv() *PathResolver {
	dataRoot := os.Getenv("BILLED_DATA_ROOT")
	if dataRoot == "" {
		dataRoot = DefaultDataRoot
	}

	return New(Config{
		DataRoot:     dataRoot,
		DatabasePath: os.Getenv("BILLED_DB_PATH"),
		CatalogPath:  os.Getenv("BILLED_CATALOG_PATH"),
		ReceiptsDir:  os.Getenv("UPLOAD_DIR"),
	})
}

// GetDataRoot returns the data root directory.
func (p *PathResolver) GetDataRoot() string {
	return p.dataRoot
}

// GetDatabasePath returns the database file path.
func (p *PathResolver) GetDatabasePath() string {
	return p.dbPath
}

// GetCatalogPath returns the expense type catalogue path.
func (p *PathResolver) GetCatalogPath() string {
	return p.catalogPath
}

// GetReceiptsDir returns the receipts directory.
func (p *PathResolver) GetReceiptsDir() string {
	return p.receiptsDir
}

// GetReceiptPath returns the path of a stored receipt, grouped by year and month
// of the upload date.
// Example: receipts/2023/04/<key>.jpg
func (p *PathResolver) GetReceiptPath(date, key, ext string) (string, error) {
	parts := strings.Split(date, "-")
	if len(parts) < 2 || len(parts[0]) != 4 || len(parts[1]) != 2 {
		return "", fmt.Errorf("invalid date format: %s. Expected YYYY-MM-DD", date)
	}
	if key == "" || strings.ContainsAny(key, `/\`) || key == "." || key == ".." {
		return "", fmt.Errorf("invalid receipt key: %q", key)
	}

	ext = strings.TrimPrefix(strings.ToLower(ext), ".")
	filename := key
	if ext != "" {
		filename = key + "." + ext
	}

	return filepath.Join(p.receiptsDir, parts[0], parts[1], filename), nil
}

// EnsureDir creates a directory if it doesn't exist.
// It creates all parent directories as needed (like mkdir -p).
func (p *PathResolver) EnsureDir(dirPath string) error {
	if err := os.MkdirAll(dirPath, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dirPath, err)
	}
	return nil
}

// EnsureParentDir ensures the parent directory of a file exists.
func (p *PathResolver) EnsureParentDir(filePath string) error {
	return p.EnsureDir(filepath.Dir(filePath))
}

// FileExists checks if a file exists.
func (p *PathResolver) FileExists(filePath string) bool {
	_, err := os.Stat(filePath)
	return err == nil
}
