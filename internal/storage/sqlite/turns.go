// ABOUTME: SQLite-backed conversation history
// ABOUTME: Implements the HistoryStore contract over the turns table
package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/harper/study-agent/internal/models"
	"github.com/harper/study-agent/internal/storage"
)

var _ storage.HistoryStore = (*HistoryStore)(nil)

// HistoryStore handles turn persistence
type HistoryStore struct {
	db *DB
}

// NewHistoryStore creates a new HistoryStore
func NewHistoryStore(db *DB) *HistoryStore {
	return &HistoryStore{db: db}
}

// Append inserts turn after all existing turns
func (s *HistoryStore) Append(turn models.Turn) error {
	if !turn.Role.IsValid() {
		return fmt.Errorf("invalid role %q", turn.Role)
	}
	createdAt := turn.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := s.db.Exec(`
		INSERT INTO turns (id, role, content, created_at)
		VALUES (?, ?, ?, ?)
	`, nullString(turn.TurnID), string(turn.Role), turn.Content, createdAt)
	if err != nil {
		return fmt.Errorf("failed to append turn: %w", err)
	}
	return nil
}

// ReadAll returns every turn, oldest first
func (s *HistoryStore) ReadAll() ([]models.Turn, error) {
	rows, err := s.db.Query(`
		SELECT id, role, content, created_at
		FROM turns
		ORDER BY seq ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to read turns: %w", err)
	}
	defer func() { _ = rows.Close() }()

	turns := []models.Turn{}
	for rows.Next() {
		var (
			turn models.Turn
			id   sql.NullString
			role string
		)
		if err := rows.Scan(&id, &role, &turn.Content, &turn.CreatedAt); err != nil {
			return nil, err
		}
		if id.Valid {
			turn.TurnID = id.String
		}
		turn.Role = models.Role(role)
		turns = append(turns, turn)
	}

	return turns, rows.Err()
}

// Clear removes all turns
func (s *HistoryStore) Clear() error {
	if _, err := s.db.Exec("DELETE FROM turns"); err != nil {
		return fmt.Errorf("failed to clear turns: %w", err)
	}
	return nil
}

// Count returns the number of stored turns
func (s *HistoryStore) Count() (int, error) {
	var n int
	err := s.db.QueryRow("SELECT COUNT(*) FROM turns").Scan(&n)
	return n, err
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
