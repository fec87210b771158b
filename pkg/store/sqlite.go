package store

import (
	"database/sql"
	"fmt"
	"strconv"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite creates a SQLite-based store at path.
func NewSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := CreateSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// AddFile stores a scanned file record.
func (s *SQLiteStore) AddFile(f *File) error {
	_, err := s.db.Exec("INSERT OR IGNORE INTO files (path, size) VALUES (?, ?)", f.Path, f.Size)
	if err != nil {
		return fmt.Errorf("inserting file: %w", err)
	}
	return nil
}

// AddClosure stores a closure record, deduplicated by extern name.
func (s *SQLiteStore) AddClosure(c *Closure) error {
	_, err := s.db.Exec(`
		INSERT OR IGNORE INTO closures (extern_name, path, line, ret_cpp, capture_count, callback_offset, body)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		c.ExternName,
		c.Path,
		c.Line,
		c.RetCpp,
		c.CaptureCount,
		c.CallbackOffset,
		c.Body,
	)
	if err != nil {
		return fmt.Errorf("inserting closure: %w", err)
	}
	return nil
}

// AddClass stores a class record.
func (s *SQLiteStore) AddClass(c *Class) error {
	_, err := s.db.Exec(`
		INSERT OR IGNORE INTO classes (name, cpp, public, path, line)
		VALUES (?, ?, ?, ?, ?)
	`,
		c.Name,
		c.Cpp,
		c.Public,
		c.Path,
		c.Line,
	)
	if err != nil {
		return fmt.Errorf("inserting class: %w", err)
	}
	return nil
}

// AddInvocation stores a rust! invocation record.
func (s *SQLiteStore) AddInvocation(inv *Invocation) error {
	_, err := s.db.Exec(`
		INSERT INTO invocations (closure, ident, ret_cpp, args)
		VALUES (?, ?, ?, ?)
	`,
		inv.Closure,
		inv.Id,
		inv.RetCpp,
		inv.Args,
	)
	if err != nil {
		return fmt.Errorf("inserting invocation: %w", err)
	}
	return nil
}

// SetCrateInfo replaces the crate summary row.
func (s *SQLiteStore) SetCrateInfo(info *CrateInfo) error {
	_, err := s.db.Exec(`
		INSERT INTO crate_info (id, file_hash, callbacks, snippets)
		VALUES (1, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET file_hash = excluded.file_hash,
			callbacks = excluded.callbacks, snippets = excluded.snippets
	`,
		strconv.FormatUint(info.FileHash, 10),
		info.Callbacks,
		info.Snippets,
	)
	if err != nil {
		return fmt.Errorf("inserting crate info: %w", err)
	}
	return nil
}

// GetFiles retrieves all scanned files.
func (s *SQLiteStore) GetFiles() ([]*File, error) {
	rows, err := s.db.Query("SELECT path, size FROM files ORDER BY path")
	if err != nil {
		return nil, fmt.Errorf("querying files: %w", err)
	}
	defer rows.Close()

	var files []*File
	for rows.Next() {
		var f File
		if err := rows.Scan(&f.Path, &f.Size); err != nil {
			return nil, fmt.Errorf("scanning file: %w", err)
		}
		files = append(files, &f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating files: %w", err)
	}
	return files, nil
}

// GetClosures retrieves all closures.
func (s *SQLiteStore) GetClosures() ([]*Closure, error) {
	rows, err := s.db.Query(`
		SELECT extern_name, path, line, ret_cpp, capture_count, callback_offset, body
		FROM closures ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("querying closures: %w", err)
	}
	defer rows.Close()

	var closures []*Closure
	for rows.Next() {
		var c Closure
		err := rows.Scan(
			&c.ExternName,
			&c.Path,
			&c.Line,
			&c.RetCpp,
			&c.CaptureCount,
			&c.CallbackOffset,
			&c.Body,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning closure: %w", err)
		}
		closures = append(closures, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating closures: %w", err)
	}
	return closures, nil
}

// GetClasses retrieves all classes.
func (s *SQLiteStore) GetClasses() ([]*Class, error) {
	rows, err := s.db.Query("SELECT name, cpp, public, path, line FROM classes ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("querying classes: %w", err)
	}
	defer rows.Close()

	var classes []*Class
	for rows.Next() {
		var c Class
		if err := rows.Scan(&c.Name, &c.Cpp, &c.Public, &c.Path, &c.Line); err != nil {
			return nil, fmt.Errorf("scanning class: %w", err)
		}
		classes = append(classes, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating classes: %w", err)
	}
	return classes, nil
}

// GetInvocations retrieves all rust! invocations.
func (s *SQLiteStore) GetInvocations() ([]*Invocation, error) {
	rows, err := s.db.Query("SELECT closure, ident, ret_cpp, args FROM invocations ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("querying invocations: %w", err)
	}
	defer rows.Close()

	var invs []*Invocation
	for rows.Next() {
		var inv Invocation
		if err := rows.Scan(&inv.Closure, &inv.Id, &inv.RetCpp, &inv.Args); err != nil {
			return nil, fmt.Errorf("scanning invocation: %w", err)
		}
		invs = append(invs, &inv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating invocations: %w", err)
	}
	return invs, nil
}

// GetCrateInfo retrieves the crate summary.
func (s *SQLiteStore) GetCrateInfo() (*CrateInfo, error) {
	var info CrateInfo
	var hash string
	err := s.db.QueryRow("SELECT file_hash, callbacks, snippets FROM crate_info WHERE id = 1").
		Scan(&hash, &info.Callbacks, &info.Snippets)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("no crate info stored")
	}
	if err != nil {
		return nil, fmt.Errorf("querying crate info: %w", err)
	}
	info.FileHash, err = strconv.ParseUint(hash, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parsing crate hash: %w", err)
	}
	return &info, nil
}

// ClosureExists checks whether a closure with this extern name is
// already stored.
func (s *SQLiteStore) ClosureExists(externName string) (bool, error) {
	var count int
	err := s.db.QueryRow("SELECT COUNT(*) FROM closures WHERE extern_name = ?", externName).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("checking closure existence: %w", err)
	}
	return count > 0, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
