package generator

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/sumitkamra20/insightgen/internal/domain"
)

const generatorSchema = `
CREATE TABLE IF NOT EXISTS generators (
	id         TEXT PRIMARY KEY,
	definition BLOB NOT NULL,
	updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

// SQLiteStore persists generator definitions in a SQLite database. It
// implements Source and additionally supports writing, which backs the
// "generators import" flow that publishes a YAML directory to the store.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// OpenSQLiteStore opens (and if needed initializes) a generator store.
func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, domain.IOError(fmt.Sprintf("cannot open generator store %s", path), err)
	}

	if _, err := db.Exec(generatorSchema); err != nil {
		db.Close()
		return nil, domain.IOError("cannot initialize generator store schema", err)
	}

	return &SQLiteStore{db: db, path: path}, nil
}

func (s *SQLiteStore) Name() string {
	return fmt.Sprintf("sqlite:%s", s.path)
}

// Load returns the raw YAML of every stored definition keyed by id.
func (s *SQLiteStore) Load() (map[string][]byte, error) {
	rows, err := s.db.Query(`SELECT id, definition FROM generators ORDER BY id`)
	if err != nil {
		return nil, domain.IOError("cannot query generator store", err)
	}
	defer rows.Close()

	docs := make(map[string][]byte)
	for rows.Next() {
		var id string
		var definition []byte
		if err := rows.Scan(&id, &definition); err != nil {
			return nil, domain.IOError("cannot scan generator row", err)
		}
		docs[id] = definition
	}

	if err := rows.Err(); err != nil {
		return nil, domain.IOError("cannot iterate generator rows", err)
	}

	return docs, nil
}

// Put stores or replaces one definition. The YAML is validated against the
// definition schema before it is written so the store never holds documents
// the registry would reject outright.
func (s *SQLiteStore) Put(data []byte, defaults Defaults) (string, error) {
	def, err := parseDefinition(data, defaults)
	if err != nil {
		return "", err
	}

	_, err = s.db.Exec(`
		INSERT INTO generators (id, definition, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(id) DO UPDATE SET definition = excluded.definition, updated_at = CURRENT_TIMESTAMP`,
		def.ID, data)
	if err != nil {
		return "", domain.IOError(fmt.Sprintf("cannot store generator %s", def.ID), err)
	}

	return def.ID, nil
}

// Delete removes one definition by id.
func (s *SQLiteStore) Delete(id string) error {
	res, err := s.db.Exec(`DELETE FROM generators WHERE id = ?`, id)
	if err != nil {
		return domain.IOError(fmt.Sprintf("cannot delete generator %s", id), err)
	}

	if n, _ := res.RowsAffected(); n == 0 {
		return domain.GeneratorNotFoundError(id)
	}

	return nil
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
