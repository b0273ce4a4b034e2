// ABOUTME: JSON file history store compatible with the [{role, content}] layout
// ABOUTME: Rewrites the whole file atomically on each append
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/harper/study-agent/internal/models"
)

// JSONHistory stores turns in a single JSON array file
type JSONHistory struct {
	path string
	mu   sync.Mutex
}

// NewJSONHistory creates a JSON history store at path. The file is created lazily.
func NewJSONHistory(path string) *JSONHistory {
	return &JSONHistory{path: path}
}

// Path returns the backing file path
func (h *JSONHistory) Path() string {
	return h.path
}

// ReadAll returns every stored turn, oldest first
func (h *JSONHistory) ReadAll() ([]models.Turn, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.load()
}

// Append adds a turn at the end of the file.
// A corrupted file is replaced with a fresh history holding only turn,
// and ErrHistoryReset is returned so the caller can report it.
func (h *JSONHistory) Append(turn models.Turn) error {
	if !turn.Role.IsValid() {
		return fmt.Errorf("invalid role %q", turn.Role)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	turns, loadErr := h.load()
	if loadErr != nil && !errors.Is(loadErr, ErrCorruptHistory) {
		return loadErr
	}
	reset := loadErr != nil
	if reset {
		turns = nil
	}

	turns = append(turns, turn)
	if err := h.save(turns); err != nil {
		return err
	}
	if reset {
		return fmt.Errorf("%w: %v", ErrHistoryReset, loadErr)
	}
	return nil
}

// Clear empties the history
func (h *JSONHistory) Clear() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.save([]models.Turn{})
}

func (h *JSONHistory) load() ([]models.Turn, error) {
	data, err := os.ReadFile(h.path) // #nosec G304
	if errors.Is(err, os.ErrNotExist) {
		return []models.Turn{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}
	if len(data) == 0 {
		return []models.Turn{}, nil
	}

	var turns []models.Turn
	if err := json.Unmarshal(data, &turns); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptHistory, err)
	}
	return turns, nil
}

func (h *JSONHistory) save(turns []models.Turn) error {
	if err := os.MkdirAll(filepath.Dir(h.path), 0755); err != nil {
		return fmt.Errorf("failed to create history directory: %w", err)
	}

	data, err := json.MarshalIndent(turns, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode history: %w", err)
	}

	tmp := h.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("failed to write history: %w", err)
	}
	if err := os.Rename(tmp, h.path); err != nil {
		return fmt.Errorf("failed to replace history: %w", err)
	}
	return nil
}
