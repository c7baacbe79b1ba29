package storage

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/marcboeker/go-duckdb"
	_ "modernc.org/sqlite"

	"github.com/filedeck/filedeck/internal/models"
)

// Supported SQL drivers.
const (
	DriverSQLite = "sqlite"
	DriverMySQL  = "mysql"
	DriverDuckDB = "duckdb"
)

// The schema sticks to types every supported driver accepts.
// Timestamps are unix nanoseconds.
const createFilesTable = `
CREATE TABLE IF NOT EXISTS files (
	id                 BIGINT PRIMARY KEY,
	file_name          VARCHAR(255) NOT NULL UNIQUE,
	original_file_name VARCHAR(1024) NOT NULL,
	file_size          BIGINT NOT NULL,
	uploaded_at        BIGINT NOT NULL,
	content_type       VARCHAR(255) NOT NULL,
	last_modified      BIGINT,
	checksum           VARCHAR(128) NOT NULL
)`

const selectColumns = `id, file_name, original_file_name, file_size, uploaded_at, content_type, last_modified, checksum`

// SQLIndex stores metadata in a database/sql table.
type SQLIndex struct {
	mu     sync.Mutex // serializes ID allocation
	db     *sql.DB
	driver string
}

// OpenSQLIndex opens the database and creates the files table.
func OpenSQLIndex(driverName, dsn string) (*SQLIndex, error) {
	if driverName == "" {
		driverName = DriverSQLite
	}

	var db *sql.DB
	switch driverName {
	case DriverDuckDB:
		connector, err := duckdb.NewConnector(dsn, func(execer driver.ExecerContext) error {
			_, err := execer.ExecContext(context.Background(), "PRAGMA threads=2", nil)
			return err
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create DuckDB connector: %w", err)
		}
		db = sql.OpenDB(connector)
	case DriverSQLite, DriverMySQL:
		var err error
		db, err = sql.Open(driverName, dsn)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported SQL driver %q", driverName)
	}

	if driverName == DriverSQLite {
		// One writer; also keeps ":memory:" databases on a single connection.
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if _, err := db.Exec(createFilesTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return &SQLIndex{db: db, driver: driverName}, nil
}

// Driver returns the database/sql driver name in use.
func (x *SQLIndex) Driver() string { return x.driver }

func (x *SQLIndex) Insert(ctx context.Context, rec *models.FileRecord) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	var maxID sql.NullInt64
	if err := x.db.QueryRowContext(ctx, `SELECT MAX(id) FROM files`).Scan(&maxID); err != nil {
		return fmt.Errorf("allocating id: %w", err)
	}
	id := maxID.Int64 + 1

	var lastModified sql.NullInt64
	if rec.LastModified != nil {
		lastModified = sql.NullInt64{Int64: rec.LastModified.UnixNano(), Valid: true}
	}

	_, err := x.db.ExecContext(ctx,
		`INSERT INTO files (`+selectColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, rec.FileName, rec.OriginalFileName, rec.FileSize,
		rec.UploadedAt.UnixNano(), rec.ContentType, lastModified, rec.Checksum,
	)
	if err != nil {
		return fmt.Errorf("inserting file: %w", err)
	}
	rec.ID = id
	return nil
}

func (x *SQLIndex) List(ctx context.Context) ([]models.FileRecord, error) {
	rows, err := x.db.QueryContext(ctx,
		`SELECT `+selectColumns+` FROM files ORDER BY uploaded_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing files: %w", err)
	}
	defer rows.Close()

	list := []models.FileRecord{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *rec)
	}
	return list, rows.Err()
}

func (x *SQLIndex) Get(ctx context.Context, fileName string) (*models.FileRecord, error) {
	row := x.db.QueryRowContext(ctx,
		`SELECT `+selectColumns+` FROM files WHERE file_name = ?`, fileName)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return rec, err
}

func (x *SQLIndex) Remove(ctx context.Context, fileName string) error {
	res, err := x.db.ExecContext(ctx, `DELETE FROM files WHERE file_name = ?`, fileName)
	if err != nil {
		return fmt.Errorf("deleting file: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (x *SQLIndex) Close() error {
	return x.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner) (*models.FileRecord, error) {
	var (
		rec          models.FileRecord
		uploadedAt   int64
		lastModified sql.NullInt64
	)
	err := s.Scan(&rec.ID, &rec.FileName, &rec.OriginalFileName, &rec.FileSize,
		&uploadedAt, &rec.ContentType, &lastModified, &rec.Checksum)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning file: %w", err)
	}
	rec.UploadedAt = time.Unix(0, uploadedAt).UTC()
	if lastModified.Valid {
		lm := time.Unix(0, lastModified.Int64).UTC()
		rec.LastModified = &lm
	}
	return &rec, nil
}
