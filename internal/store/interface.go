package store

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/shrimpsizemoose/kardemumma/internal/models"
)

// DocStore holds the whole scheduling document. Load returns the latest
// committed snapshot; Apply runs the full load-mutate-save cycle as one
// serialized unit, so every check-then-act sequence in the domain engines is
// atomic with its write. A mutate callback returning an error aborts with no
// state change.
type DocStore interface {
	Close() error
	ApplyMigrations(dir string) error

	Load() (*models.Database, error)
	Apply(mutate func(*models.Database) error) error
}

// EmptyDocument is the JSON seed for a store with no document yet.
const EmptyDocument = `{"version":0,"courses":[],"sheets":[]}`

// BaseStore provides the shared SQL implementation for the database-backed
// document stores. The document lives in a single row; concurrent writers are
// detected with a version compare-and-swap and retried.
type BaseStore struct {
	DB        *sqlx.DB
	Converter func(string) string
}

const casMaxRetries = 16

func (s *BaseStore) Close() error {
	if s.DB != nil {
		return s.DB.Close()
	}
	return nil
}

// ApplyMigrations applies SQL migrations from a directory, translating
// dialect if needed
func (s *BaseStore) ApplyMigrations(dir string, translateSQL func(string) string) error {
	files, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to read migrations directory: %w", err)
	}

	for _, file := range files {
		if !strings.HasSuffix(file.Name(), ".sql") {
			continue
		}

		content, err := os.ReadFile(fmt.Sprintf("%s/%s", dir, file.Name()))
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", file.Name(), err)
		}

		sql := string(content)
		if translateSQL != nil {
			sql = translateSQL(sql)
		}

		if _, err := s.DB.Exec(sql); err != nil {
			return fmt.Errorf("failed to apply migration %s: %w", file.Name(), err)
		}
	}

	return nil
}

type documentRow struct {
	Version int64  `db:"version"`
	Data    string `db:"data"`
}

func (s *BaseStore) Load() (*models.Database, error) {
	var row documentRow
	query := s.Converter(`SELECT version, data FROM document WHERE id = 1`)
	if err := s.DB.Get(&row, query); err != nil {
		return nil, fmt.Errorf("failed to load document: %w", err)
	}

	var db models.Database
	if err := json.Unmarshal([]byte(row.Data), &db); err != nil {
		return nil, fmt.Errorf("failed to decode document: %w", err)
	}
	db.Version = row.Version

	return &db, nil
}

func (s *BaseStore) Apply(mutate func(*models.Database) error) error {
	for attempt := 0; attempt < casMaxRetries; attempt++ {
		db, err := s.Load()
		if err != nil {
			return err
		}
		version := db.Version

		if err := mutate(db); err != nil {
			return err
		}

		db.Version = version + 1
		data, err := json.Marshal(db)
		if err != nil {
			return fmt.Errorf("failed to encode document: %w", err)
		}

		query := s.Converter(`
			UPDATE document SET version = ?, data = ?
			WHERE id = 1 AND version = ?
		`)
		res, err := s.DB.Exec(query, db.Version, string(data), version)
		if err != nil {
			return fmt.Errorf("failed to save document: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to check save result: %w", err)
		}
		if affected == 1 {
			return nil
		}
		// someone else committed first, reload and retry
	}

	return fmt.Errorf("document contention: gave up after %d retries", casMaxRetries)
}
