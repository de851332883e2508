package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/stupiduntilnot/dialogkeeper/internal/dialog"
)

// OpenDB opens (or creates) a SQLite database at the given path, ensuring
// that the parent directory exists.
func OpenDB(path string) (*sql.DB, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create db directory %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open db at %s: %w", path, err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping db at %s: %w", path, err)
	}

	return db, nil
}

// InitSchema creates the turns table.
func InitSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS turns (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			chat_id INTEGER NOT NULL,
			user_text TEXT NOT NULL,
			bot_text TEXT NOT NULL,
			n_tokens INTEGER NOT NULL,
			created_at INTEGER NOT NULL DEFAULT (unixepoch())
		);
		CREATE INDEX IF NOT EXISTS idx_turns_chat_id_id ON turns(chat_id, id);
	`)
	return err
}

// Store reads and writes completed dialog turns. Turn token counts are
// cached at write time so assembly never re-tokenizes old history.
type Store struct {
	DB *sql.DB
}

// Append records one completed exchange for the given chat.
func (s *Store) Append(chatID int64, turn dialog.Turn) error {
	_, err := s.DB.Exec(
		"INSERT INTO turns (chat_id, user_text, bot_text, n_tokens) VALUES (?, ?, ?, ?)",
		chatID, turn.User, turn.Bot, turn.Tokens,
	)
	if err != nil {
		return fmt.Errorf("failed to append turn for chat %d: %w", chatID, err)
	}
	return nil
}

// Recent returns the most recent `limit` turns for the given chat, ordered
// chronologically (oldest first).
func (s *Store) Recent(chatID int64, limit int) ([]dialog.Turn, error) {
	rows, err := s.DB.Query(
		"SELECT user_text, bot_text, n_tokens FROM turns WHERE chat_id = ? ORDER BY id DESC LIMIT ?",
		chatID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query turns for chat %d: %w", chatID, err)
	}
	defer rows.Close()

	var results []dialog.Turn
	for rows.Next() {
		var turn dialog.Turn
		if err := rows.Scan(&turn.User, &turn.Bot, &turn.Tokens); err != nil {
			continue
		}
		results = append(results, turn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate turns for chat %d: %w", chatID, err)
	}

	// Reverse to chronological order.
	for i, j := 0, len(results)-1; i < j; i, j = i+1, j-1 {
		results[i], results[j] = results[j], results[i]
	}
	return results, nil
}

// Clear deletes all turns of the given chat. Used when a new dialog starts.
func (s *Store) Clear(chatID int64) error {
	_, err := s.DB.Exec("DELETE FROM turns WHERE chat_id = ?", chatID)
	if err != nil {
		return fmt.Errorf("failed to clear turns for chat %d: %w", chatID, err)
	}
	return nil
}
