package app

import (
	"strings"

	"github.com/shrimpsizemoose/kardemumma/internal/store"
	"github.com/shrimpsizemoose/kardemumma/internal/store/file"
	"github.com/shrimpsizemoose/kardemumma/internal/store/postgres"
	"github.com/shrimpsizemoose/kardemumma/internal/store/sqlite"
)

// NewStore picks a document store backend from the DSN: postgres:// URLs get
// the postgres store, *.db / *.sqlite paths the sqlite store, anything else
// is treated as a JSON file path.
func NewStore(dsn, migrationsDir string) (store.DocStore, error) {
	switch {
	case strings.HasPrefix(dsn, "postgres"):
		return postgres.NewPostgresStore(dsn, migrationsDir)
	case strings.HasSuffix(dsn, ".db"), strings.HasSuffix(dsn, ".sqlite"), dsn == ":memory:":
		return sqlite.NewSQLiteStore(dsn, migrationsDir)
	default:
		return file.NewFileStore(dsn)
	}
}
