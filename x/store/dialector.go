package store

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Config selects the backend of every collection
type Config struct {
	DataDir string
	Dsn     string
}

// Dialector returns the gorm dialector for the named collection.
// An empty dsn selects a sqlite file per collection under DataDir.
func Dialector(cfg Config, name string) (gorm.Dialector, error) {
	if cfg.Dsn != "" {
		return postgres.Open(cfg.Dsn), nil
	}

	dataDir := cfg.DataDir
	if dataDir == "" {
		dataDir = "db"
	}

	err := os.MkdirAll(dataDir, 0o755)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create data directory")
	}

	return sqlite.Open(filepath.Join(dataDir, name)), nil
}
