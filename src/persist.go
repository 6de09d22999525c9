package tracker

/*------------------------------------------------------------------
 *
 * Purpose:   	Remember what the operator set up across restarts.
 *
 * Description:	Two things survive: tactical calls, and the objects
 *		and items we own.  Objects are kept as the information
 *		part we last sent.  At start up that is fed back through
 *		the decoder so they carry on being retransmitted.
 *
 *		Everything else is rebuilt from what is heard.
 *
 *---------------------------------------------------------------*/

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

type Store struct {
	db *sql.DB
}

// SavedObject is one of my objects or items as last transmitted.
type SavedObject struct {
	Name    string
	Info    string
	Updated time.Time
}

// OpenStore opens or creates the database.  "file::memory:" is fine for tests.
func OpenStore(path string) (*Store, error) {
	var db, err = sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// One writer, and an in-memory database only exists on its own connection.
	db.SetMaxOpenConns(1)

	if err := createSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func createSchema(db *sql.DB) error {
	var schema = `
	CREATE TABLE IF NOT EXISTS tactical (
		call TEXT PRIMARY KEY,
		alias TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS objects (
		name TEXT PRIMARY KEY,
		info TEXT NOT NULL,
		updated INTEGER NOT NULL
	);
	`

	var _, err = db.Exec(schema)

	return err
}

// SaveTactical sets or, with an empty alias, removes a tactical call.
func (s *Store) SaveTactical(call, alias string) error {
	var err error

	if alias == "" {
		_, err = s.db.Exec(`DELETE FROM tactical WHERE call = ?`, call)
	} else {
		_, err = s.db.Exec(`INSERT INTO tactical (call, alias) VALUES (?, ?)
			ON CONFLICT(call) DO UPDATE SET alias = excluded.alias`, call, alias)
	}

	if err != nil {
		return fmt.Errorf("tactical %s: %w", call, err)
	}

	return nil
}

func (s *Store) Tacticals() (map[string]string, error) {
	var rows, err = s.db.Query(`SELECT call, alias FROM tactical`)
	if err != nil {
		return nil, fmt.Errorf("query tactical: %w", err)
	}
	defer rows.Close()

	var result = make(map[string]string)
	for rows.Next() {
		var call, alias string
		if err := rows.Scan(&call, &alias); err != nil {
			return nil, fmt.Errorf("scan tactical: %w", err)
		}
		result[call] = alias
	}

	return result, rows.Err()
}

func (s *Store) SaveObject(name, info string, now time.Time) error {
	var _, err = s.db.Exec(`INSERT INTO objects (name, info, updated) VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET info = excluded.info, updated = excluded.updated`,
		name, info, now.Unix())
	if err != nil {
		return fmt.Errorf("object %s: %w", name, err)
	}

	return nil
}

func (s *Store) DeleteObject(name string) error {
	if _, err := s.db.Exec(`DELETE FROM objects WHERE name = ?`, name); err != nil {
		return fmt.Errorf("object %s: %w", name, err)
	}

	return nil
}

// Objects returns my saved objects, oldest first.
func (s *Store) Objects() ([]SavedObject, error) {
	var rows, err = s.db.Query(`SELECT name, info, updated FROM objects ORDER BY updated, name`)
	if err != nil {
		return nil, fmt.Errorf("query objects: %w", err)
	}
	defer rows.Close()

	var result []SavedObject
	for rows.Next() {
		var o SavedObject
		var updated int64
		if err := rows.Scan(&o.Name, &o.Info, &updated); err != nil {
			return nil, fmt.Errorf("scan objects: %w", err)
		}
		o.Updated = time.Unix(updated, 0)
		result = append(result, o)
	}

	return result, rows.Err()
}
