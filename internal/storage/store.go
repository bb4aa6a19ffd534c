// internal/storage/store.go
package storage

import (
	"context"
	"database/sql"
	"encoding/json"

	"demand-radar/internal/common/logger"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Store provides persistence for the demand pipeline. All SQL uses $N
// placeholders in argument order, which both lib/pq and SQLite accept.
type Store struct {
	db     *sql.DB
	driver string
	logger logger.Logger
}

func New(db *sql.DB, driver string, log logger.Logger) *Store {
	return &Store{
		db:     db,
		driver: driver,
		logger: log.WithFields(map[string]interface{}{"component": "storage"}),
	}
}

// Ping tests the database connection
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func encodeJSON(v interface{}) (string, error) {
	if v == nil {
		return "", nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func decodeStringSlice(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil
	}
	return out
}

func decodeFloatMap(raw string) map[string]float64 {
	if raw == "" {
		return nil
	}
	var out map[string]float64
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil
	}
	return out
}
