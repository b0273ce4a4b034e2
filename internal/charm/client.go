// ABOUTME: Charm KV client wrapper for cloud-synced conversation history
// ABOUTME: Uses automatic SSH key auth and syncs after writes when enabled
package charm

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/charm/client"
	"github.com/charmbracelet/charm/kv"
)

// TurnPrefix namespaces history turns in the KV store
const TurnPrefix = "turn:"

// Config holds charm client configuration
type Config struct {
	Host     string
	DBName   string
	AutoSync bool
}

// DefaultConfig returns default configuration for charm client
func DefaultConfig() *Config {
	host := os.Getenv("CHARM_HOST")
	if host == "" {
		host = "cloud.charm.sh"
	}
	return &Config{
		Host:     host,
		DBName:   "study-agent",
		AutoSync: true,
	}
}

// Client wraps charm KV for storage operations
type Client struct {
	kv     *kv.KV
	config *Config
	mu     sync.Mutex
}

// NewClient creates a new charm client with the given config
func NewClient(cfg *Config) (*Client, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	// kv reads CHARM_HOST when opening
	if err := os.Setenv("CHARM_HOST", cfg.Host); err != nil {
		return nil, fmt.Errorf("failed to set charm host: %w", err)
	}

	db, err := kv.OpenWithDefaults(cfg.DBName)
	if err != nil {
		return nil, fmt.Errorf("failed to open charm kv: %w", err)
	}

	c := &Client{
		kv:     db,
		config: cfg,
	}

	// Pull remote data on startup
	if cfg.AutoSync {
		_ = db.Sync()
	}

	return c, nil
}

// ErrClosed is returned by operations on a closed client
var ErrClosed = errors.New("charm client is closed")

// Close closes the KV database
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.kv == nil {
		return nil
	}
	err := c.kv.Close()
	c.kv = nil
	return err
}

// locked runs fn against the open KV while holding the client lock
func (c *Client) locked(fn func(db *kv.KV) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.kv == nil {
		return ErrClosed
	}
	return fn(c.kv)
}

// write runs a mutation and pushes it to the cloud when auto-sync is on
func (c *Client) write(op, key string, fn func(db *kv.KV) error) error {
	return c.locked(func(db *kv.KV) error {
		if err := fn(db); err != nil {
			return fmt.Errorf("failed to %s %s: %w", op, key, err)
		}
		if c.config.AutoSync {
			_ = db.Sync()
		}
		return nil
	})
}

// Set stores value under key
func (c *Client) Set(key string, value []byte) error {
	return c.write("set", key, func(db *kv.KV) error {
		return db.Set([]byte(key), value)
	})
}

// Get returns the value stored under key
func (c *Client) Get(key string) ([]byte, error) {
	var value []byte
	err := c.locked(func(db *kv.KV) error {
		var err error
		value, err = db.Get([]byte(key))
		return err
	})
	return value, err
}

// Delete removes key
func (c *Client) Delete(key string) error {
	return c.write("delete", key, func(db *kv.KV) error {
		return db.Delete([]byte(key))
	})
}

// ListKeys returns every key starting with prefix, in lexical order
func (c *Client) ListKeys(prefix string) ([]string, error) {
	var result []string
	err := c.locked(func(db *kv.KV) error {
		keys, err := db.Keys()
		if err != nil {
			return fmt.Errorf("failed to list keys: %w", err)
		}
		for _, key := range keys {
			if k := string(key); strings.HasPrefix(k, prefix) {
				result = append(result, k)
			}
		}
		return nil
	})
	sort.Strings(result)
	return result, err
}

// Sync pulls and pushes pending changes
func (c *Client) Sync() error {
	return c.locked(func(db *kv.KV) error { return db.Sync() })
}

// Reset wipes all local data
func (c *Client) Reset() error {
	return c.locked(func(db *kv.KV) error { return db.Reset() })
}

// ID returns the charm user ID
func (c *Client) ID() (string, error) {
	cc, err := client.NewClientWithDefaults()
	if err != nil {
		return "", fmt.Errorf("failed to create charm client: %w", err)
	}
	return cc.ID()
}

// GetAuthorizedKeys returns the list of linked devices/keys
func (c *Client) GetAuthorizedKeys() (string, error) {
	cc, err := client.NewClientWithDefaults()
	if err != nil {
		return "", fmt.Errorf("failed to create charm client: %w", err)
	}
	return cc.AuthorizedKeys()
}

// Config returns the client configuration
func (c *Client) Config() Config {
	return *c.config
}

// TurnKey builds the key for the turn at position seq.
// Zero padding keeps lexical key order equal to append order.
func TurnKey(seq int) string {
	return fmt.Sprintf("%s%012d", TurnPrefix, seq)
}

// TurnKeyWithID suffixes the sequence key with the turn ID so two machines
// appending at the same position after a sync keep both turns
func TurnKeyWithID(seq int, id string) string {
	if id == "" {
		return TurnKey(seq)
	}
	return TurnKey(seq) + ":" + id
}

// ParseTurnSeq extracts the sequence number from a turn key
func ParseTurnSeq(key string) (int, bool) {
	rest, ok := strings.CutPrefix(key, TurnPrefix)
	if !ok {
		return 0, false
	}
	digits, _, _ := strings.Cut(rest, ":")
	seq, err := strconv.Atoi(digits)
	if err != nil || seq < 0 {
		return 0, false
	}
	return seq, true
}
