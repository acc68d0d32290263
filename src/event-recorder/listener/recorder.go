package listener

import (
	"context"
	"fmt"
	"time"

	"github.com/jack-barr3tt/board-proxy/src/common/events"
	"github.com/redis/go-redis/v9"
	"go.uber.org/multierr"
)

const statsTTL = 7 * 24 * time.Hour

type counterStore interface {
	HIncrBy(ctx context.Context, key, field string, incr int64) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
}

// Recorder keeps daily per-station and per-provider board counters in Redis.
type Recorder struct {
	rdb counterStore
}

func NewRecorder(rdb *redis.Client) *Recorder {
	return &Recorder{rdb: rdb}
}

func StationKey(day time.Time, slug string) string {
	return fmt.Sprintf("board_stats:%s:station:%s", day.UTC().Format("2006-01-02"), slug)
}

func ProviderKey(day time.Time, provider string) string {
	return fmt.Sprintf("board_stats:%s:provider:%s", day.UTC().Format("2006-01-02"), provider)
}

func (r *Recorder) Handle(ctx context.Context, body []byte) error {
	ev, err := events.Decode(body)
	if err != nil {
		return err
	}
	return r.Record(ctx, ev)
}

func (r *Recorder) Record(ctx context.Context, ev events.Event) error {
	outcome := "served"
	if ev.Kind == events.BoardFailed {
		outcome = "failed"
	}

	stationKey := StationKey(ev.Timestamp, ev.Station)
	providerKey := ProviderKey(ev.Timestamp, string(ev.Provider))

	increments := []struct {
		key   string
		field string
		by    int64
	}{
		{stationKey, outcome, 1},
		{stationKey, fmt.Sprintf("status:%d", ev.Status), 1},
		{stationKey, "attempts", int64(ev.Attempts)},
		{stationKey, "duration_ms", ev.DurationMs},
		{providerKey, outcome, 1},
	}

	for _, inc := range increments {
		if err := r.rdb.HIncrBy(ctx, inc.key, inc.field, inc.by).Err(); err != nil {
			return fmt.Errorf("increment %s %s: %w", inc.key, inc.field, err)
		}
	}

	var err error
	for _, key := range []string{stationKey, providerKey} {
		if expErr := r.rdb.Expire(ctx, key, statsTTL).Err(); expErr != nil {
			err = multierr.Append(err, fmt.Errorf("expire %s: %w", key, expErr))
		}
	}
	return err
}
