package ion

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// HistoryManager persists the command-entry history to sqlite (teacher's
// history.go, generalized from a single Command value to the pipeline's
// own pretty-printed form plus its exit status, and given the schema
// migration the teacher's version never ran — Insert would otherwise fail
// against a fresh database file).
type HistoryManager struct {
	db *sql.DB
}

// NewHistoryManager opens (creating if necessary) the sqlite history
// database at dbPath, or "$HOME/.ion_history.sqlite" if dbPath is empty.
func NewHistoryManager(dbPath string) (*HistoryManager, error) {
	if dbPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		dbPath = filepath.Join(home, ".ion_history.sqlite")
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}
	const schema = `CREATE TABLE IF NOT EXISTS command (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		command TEXT NOT NULL,
		return_code INTEGER NOT NULL,
		ran_at DATETIME NOT NULL
	)`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("history: schema: %w", err)
	}
	return &HistoryManager{db: db}, nil
}

// Insert records one pipeline invocation: its canonical pretty form and
// the exit code the core produced for it.
func (h *HistoryManager) Insert(command string, returnCode int) error {
	if h == nil {
		return nil
	}
	_, err := h.db.Exec(
		"INSERT INTO command (command, return_code, ran_at) VALUES (?, ?, ?)",
		command, returnCode, time.Now(),
	)
	return err
}

// Dump returns every recorded command line, oldest first.
func (h *HistoryManager) Dump() ([]string, error) {
	if h == nil {
		return nil, nil
	}
	rows, err := h.db.Query("SELECT command FROM command ORDER BY id ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var cmd string
		if err := rows.Scan(&cmd); err != nil {
			return nil, err
		}
		out = append(out, cmd)
	}
	return out, rows.Err()
}

// Close releases the underlying database handle.
func (h *HistoryManager) Close() error {
	if h == nil {
		return nil
	}
	return h.db.Close()
}
