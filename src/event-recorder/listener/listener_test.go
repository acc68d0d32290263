package listener

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jack-barr3tt/board-proxy/src/common/events"
	"github.com/jack-barr3tt/board-proxy/src/common/types"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type fakeStore struct {
	mu      sync.Mutex
	hashes  map[string]map[string]int64
	ttls    map[string]time.Duration
	failKey string

	failExpire bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{hashes: map[string]map[string]int64{}, ttls: map[string]time.Duration{}}
}

func (f *fakeStore) HIncrBy(ctx context.Context, key, field string, incr int64) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()

	cmd := redis.NewIntCmd(ctx, "hincrby", key, field, incr)
	if key == f.failKey {
		cmd.SetErr(errors.New("connection reset"))
		return cmd
	}
	if f.hashes[key] == nil {
		f.hashes[key] = map[string]int64{}
	}
	f.hashes[key][field] += incr
	cmd.SetVal(f.hashes[key][field])
	return cmd
}

func (f *fakeStore) Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd {
	f.mu.Lock()
	defer f.mu.Unlock()

	cmd := redis.NewBoolCmd(ctx, "expire", key, expiration)
	if f.failExpire {
		cmd.SetErr(errors.New("connection reset"))
		return cmd
	}
	f.ttls[key] = expiration
	cmd.SetVal(true)
	return cmd
}

var zurich = types.Station{Country: "CH", Code: "8503000", Name: "Zürich HB", City: "Zurich", Slug: "zurich-hb", Type: types.ProviderSBB, URL: "https://transport.opendata.ch/v1/stationboard?id=8503000"}

func encode(t *testing.T, ev events.Event) []byte {
	t.Helper()
	body, err := json.Marshal(ev)
	if err != nil {
		t.Fatal(err)
	}
	return body
}

func TestRecorderCounts(t *testing.T) {
	store := newFakeStore()
	r := &Recorder{rdb: store}
	ctx := context.Background()

	served := events.NewBoardEvent(zurich, 200, 1, 120*time.Millisecond, zurich.URL, nil)
	failed := events.NewBoardEvent(zurich, 504, 3, 900*time.Millisecond, zurich.URL, errors.New("timeout"))

	for _, ev := range []events.Event{served, served, failed} {
		if err := r.Handle(ctx, encode(t, ev)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	station := store.hashes[StationKey(served.Timestamp, "zurich-hb")]
	want := map[string]int64{
		"served":      2,
		"failed":      1,
		"status:200":  2,
		"status:504":  1,
		"attempts":    5,
		"duration_ms": 1140,
	}
	for field, n := range want {
		if station[field] != n {
			t.Errorf("field %s: got %d, want %d", field, station[field], n)
		}
	}

	provider := store.hashes[ProviderKey(served.Timestamp, "SBB")]
	if provider["served"] != 2 || provider["failed"] != 1 {
		t.Errorf("unexpected provider counters %v", provider)
	}
	if store.ttls[StationKey(served.Timestamp, "zurich-hb")] != statsTTL {
		t.Error("expected station counters to expire")
	}
}

func TestRecorderRejectsBadMessages(t *testing.T) {
	r := &Recorder{rdb: newFakeStore()}
	if err := r.Handle(context.Background(), []byte("{not json")); err == nil {
		t.Error("expected decode error")
	}
}

func TestRecorderReportsStoreErrors(t *testing.T) {
	ev := events.NewBoardEvent(zurich, 200, 1, time.Second, zurich.URL, nil)
	store := newFakeStore()
	store.failKey = StationKey(ev.Timestamp, "zurich-hb")

	if err := (&Recorder{rdb: store}).Record(context.Background(), ev); err == nil {
		t.Error("expected store error")
	}
}

func TestRecorderReportsExpireErrors(t *testing.T) {
	ev := events.NewBoardEvent(zurich, 200, 1, time.Second, zurich.URL, nil)
	store := newFakeStore()
	store.failExpire = true

	err := (&Recorder{rdb: store}).Record(context.Background(), ev)
	if err == nil {
		t.Fatal("expected expire error")
	}
	for _, key := range []string{StationKey(ev.Timestamp, "zurich-hb"), ProviderKey(ev.Timestamp, "SBB")} {
		if !strings.Contains(err.Error(), key) {
			t.Errorf("expected error to name %s, got %v", key, err)
		}
	}
	if store.hashes[StationKey(ev.Timestamp, "zurich-hb")]["served"] != 1 {
		t.Error("expected counters to be written before the expire failure")
	}
}

func TestKeys(t *testing.T) {
	day := time.Date(2024, 3, 1, 23, 30, 0, 0, time.FixedZone("CET", 3600))
	if got := StationKey(day, "zurich-hb"); got != "board_stats:2024-03-01:station:zurich-hb" {
		t.Errorf("unexpected station key %s", got)
	}
	if got := ProviderKey(day, "SBB"); got != "board_stats:2024-03-01:provider:SBB" {
		t.Errorf("unexpected provider key %s", got)
	}
}

func TestListenerAMQP(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var got [][]byte
	handler := func(_ context.Context, body []byte) error {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, body)
		if string(body) == "bad" {
			return errors.New("bad message")
		}
		return nil
	}

	deliveries := make(chan amqp.Delivery, 3)
	deliveries <- amqp.Delivery{Body: []byte("one")}
	deliveries <- amqp.Delivery{Body: []byte("bad")}
	deliveries <- amqp.Delivery{Body: []byte("two")}
	close(deliveries)

	var wg sync.WaitGroup
	wg.Add(1)
	l := NewListener(ctx, &wg, handler, zap.NewNop().Sugar())
	go l.StartAMQP(deliveries)
	wg.Wait()

	if len(got) != 3 || string(got[2]) != "two" {
		t.Errorf("expected all deliveries handled in order, got %q", got)
	}
}

func TestListenerStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	var wg sync.WaitGroup
	wg.Add(1)
	l := NewListener(ctx, &wg, func(context.Context, []byte) error { return nil }, zap.NewNop().Sugar())
	go l.StartAMQP(make(chan amqp.Delivery))

	cancel()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("listener did not stop after cancel")
	}
}
