package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/bluele/gcache"
)

// Memory keeps admission timestamps per key in an LRU cache. Keys expire one
// window after their last admission and the least recently used key is
// evicted once MaxClients is reached.
type Memory struct {
	settings Settings
	mu       sync.Mutex
	store    gcache.Cache
}

func NewMemory(settings Settings) *Memory {
	return newMemory(settings, gcache.NewRealClock())
}

func newMemory(settings Settings, clock gcache.Clock) *Memory {
	return &Memory{
		settings: settings,
		store: gcache.New(settings.MaxClients).
			LRU().
			Expiration(settings.Window).
			Clock(clock).
			Build(),
	}
}

func (m *Memory) Admit(_ context.Context, key string, now time.Time) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	var stamps []time.Time
	if v, err := m.store.GetIFPresent(key); err == nil {
		stamps = v.([]time.Time)
	}

	kept := make([]time.Time, 0, len(stamps)+1)
	for _, ts := range stamps {
		if now.Sub(ts) < m.settings.Window {
			kept = append(kept, ts)
		}
	}

	if len(kept) >= m.settings.Max {
		if len(kept) != len(stamps) {
			m.store.Set(key, kept)
		}
		return false
	}

	m.store.Set(key, append(kept, now))
	return true
}

func (m *Memory) Tracked(context.Context) int {
	return m.store.Len(true)
}

func (m *Memory) Window() time.Duration {
	return m.settings.Window
}
