// ABOUTME: HistoryStore contract for the persisted conversation
// ABOUTME: Append-only ordered turns with read-all and clear
package storage

import (
	"errors"

	"github.com/harper/study-agent/internal/models"
)

// ErrCorruptHistory is returned when stored history cannot be decoded
var ErrCorruptHistory = errors.New("history is corrupted")

// ErrHistoryReset is returned by Append when a corrupted store was discarded.
// The turn itself was written.
var ErrHistoryReset = errors.New("corrupted history file, starting fresh")

// HistoryStore persists conversation turns in append order.
// ReadAll returns turns oldest first; a missing store reads as empty.
type HistoryStore interface {
	Append(turn models.Turn) error
	ReadAll() ([]models.Turn, error)
	Clear() error
}
