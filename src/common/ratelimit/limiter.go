package ratelimit

import (
	"context"
	"time"
)

// Limiter admits at most Max requests per key within a sliding window.
type Limiter interface {
	Admit(ctx context.Context, key string, now time.Time) bool
	// Tracked is the number of client keys currently holding admissions.
	Tracked(ctx context.Context) int
	Window() time.Duration
}

type Settings struct {
	Max        int
	Window     time.Duration
	MaxClients int
}

func DefaultSettings() Settings {
	return Settings{
		Max:        20,
		Window:     60 * time.Second,
		MaxClients: 10000,
	}
}
