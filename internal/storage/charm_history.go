// ABOUTME: Charm KV history store for turns synced across machines
// ABOUTME: Each turn is one JSON value under a zero-padded sequence key
package storage

import (
	"encoding/json"
	"fmt"

	"github.com/harper/study-agent/internal/charm"
	"github.com/harper/study-agent/internal/models"
)

// KV is the subset of the charm client the history store needs
type KV interface {
	Set(key string, value []byte) error
	Get(key string) ([]byte, error)
	Delete(key string) error
	ListKeys(prefix string) ([]string, error)
}

// CharmHistory stores turns in Charm KV
type CharmHistory struct {
	kv KV
}

// NewCharmHistory creates a history store on top of a charm client
func NewCharmHistory(kv KV) *CharmHistory {
	return &CharmHistory{kv: kv}
}

// Append stores turn one past the highest existing sequence number.
// Gaps left by deletes are never reused.
func (h *CharmHistory) Append(turn models.Turn) error {
	if !turn.Role.IsValid() {
		return fmt.Errorf("invalid role %q", turn.Role)
	}

	keys, err := h.kv.ListKeys(charm.TurnPrefix)
	if err != nil {
		return err
	}

	data, err := json.Marshal(turn)
	if err != nil {
		return fmt.Errorf("failed to encode turn: %w", err)
	}
	return h.kv.Set(charm.TurnKeyWithID(nextSeq(keys), turn.TurnID), data)
}

// nextSeq returns one past the highest sequence number among keys
func nextSeq(keys []string) int {
	next := 0
	for _, key := range keys {
		if seq, ok := charm.ParseTurnSeq(key); ok && seq >= next {
			next = seq + 1
		}
	}
	return next
}

// ReadAll returns every turn in key order
func (h *CharmHistory) ReadAll() ([]models.Turn, error) {
	keys, err := h.kv.ListKeys(charm.TurnPrefix)
	if err != nil {
		return nil, err
	}

	turns := make([]models.Turn, 0, len(keys))
	for _, key := range keys {
		data, err := h.kv.Get(key)
		if err != nil {
			return nil, fmt.Errorf("failed to get %s: %w", key, err)
		}
		if data == nil {
			continue
		}
		var turn models.Turn
		if err := json.Unmarshal(data, &turn); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrCorruptHistory, key, err)
		}
		turns = append(turns, turn)
	}
	return turns, nil
}

// Clear deletes every turn key
func (h *CharmHistory) Clear() error {
	keys, err := h.kv.ListKeys(charm.TurnPrefix)
	if err != nil {
		return err
	}
	for _, key := range keys {
		if err := h.kv.Delete(key); err != nil {
			return err
		}
	}
	return nil
}
