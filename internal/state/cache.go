package state

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/groupscholar/opportunity-radar/internal/models"
)

// CacheState is the on-disk mirror of client-owned data: the durable client
// identifier, locally created custom entries, and the watchlist.
type CacheState struct {
	ClientID  string               `json:"client_id"`
	Custom    []models.Opportunity `json:"custom"`
	Watchlist []string             `json:"watchlist"`
}

// Cache persists CacheState as a single JSON file.
type Cache struct {
	path string
}

func NewCache(dir string) *Cache {
	return &Cache{path: filepath.Join(dir, "state.json")}
}

// Load reads the cached state. A missing or malformed file is treated as an
// empty collection, never an error.
func (c *Cache) Load() CacheState {
	var st CacheState
	data, err := os.ReadFile(c.path)
	if err != nil {
		return st
	}
	if err := json.Unmarshal(data, &st); err != nil {
		return CacheState{}
	}
	return st
}

func (c *Cache) Save(st CacheState) error {
	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(c.path, data, 0o644)
}
