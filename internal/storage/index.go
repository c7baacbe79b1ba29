package storage

import (
	"context"
	"fmt"

	"github.com/filedeck/filedeck/internal/models"
)

// Index holds file metadata keyed by storage file name.
type Index interface {
	// Insert assigns rec.ID and stores the record.
	Insert(ctx context.Context, rec *models.FileRecord) error
	// List returns all records, newest upload first.
	List(ctx context.Context) ([]models.FileRecord, error)
	Get(ctx context.Context, fileName string) (*models.FileRecord, error)
	Remove(ctx context.Context, fileName string) error
	Close() error
}

// OpenIndex builds the index selected by kind ("memory" or "sql").
// snapshotPath is used by the memory index and may be empty.
func OpenIndex(kind, snapshotPath, driver, dsn string) (Index, error) {
	switch kind {
	case "", "memory":
		return NewMemoryIndex(snapshotPath)
	case "sql":
		return OpenSQLIndex(driver, dsn)
	default:
		return nil, fmt.Errorf("unknown index kind %q", kind)
	}
}
