package dedup

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"

	_ "modernc.org/sqlite" // database/sql driver
)

// sqliteStore records keys in a SQLite table whose primary-key
// constraint enforces uniqueness: an insert that changes no rows is
// the "seen before" signal. Because the table is ordinary durable
// storage, a later run pointed at the same database file resumes with
// the prior run's keys intact.
type sqliteStore struct {
	db     *sql.DB
	insert *sql.Stmt
}

// NewSQLiteStore opens (creating if needed) the SQLite database at
// path and prepares it as a membership store.
func NewSQLiteStore(ctx context.Context, path string) (Store, error) {
	if path == "" {
		return nil, errors.New("sqlite store path is required")
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrapf(err, "open sqlite store %s", path)
	}
	// modernc.org/sqlite serializes access per connection; a single
	// connection avoids SQLITE_BUSY on concurrent inserts.
	db.SetMaxOpenConns(1)
	const ddl = `CREATE TABLE IF NOT EXISTS seen (key BLOB PRIMARY KEY) WITHOUT ROWID`
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		_ = db.Close()
		return nil, errors.Wrapf(err, "create schema in sqlite store %s", path)
	}
	insert, err := db.PrepareContext(ctx, `INSERT OR IGNORE INTO seen (key) VALUES (?)`)
	if err != nil {
		_ = db.Close()
		return nil, errors.Wrapf(err, "prepare insert for sqlite store %s", path)
	}
	return &sqliteStore{db: db, insert: insert}, nil
}

func (s *sqliteStore) TestAndRecord(key Key) (bool, error) {
	res, err := s.insert.Exec(key[:])
	if err != nil {
		return false, errors.Wrap(err, "record key in sqlite store")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, errors.Wrap(err, "record key in sqlite store")
	}
	return n == 1, nil
}

func (s *sqliteStore) Close() error {
	_ = s.insert.Close()
	return s.db.Close()
}
