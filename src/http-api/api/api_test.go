package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jack-barr3tt/board-proxy/src/common/board"
	"github.com/jack-barr3tt/board-proxy/src/common/config"
	"github.com/jack-barr3tt/board-proxy/src/common/data"
	"github.com/jack-barr3tt/board-proxy/src/common/events"
	"github.com/jack-barr3tt/board-proxy/src/common/fetch"
	"github.com/jack-barr3tt/board-proxy/src/common/ratelimit"
	"github.com/jack-barr3tt/board-proxy/src/common/types"
	"go.uber.org/zap"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recordingPublisher) Publish(_ context.Context, ev events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func (r *recordingPublisher) Close() error { return nil }

func (r *recordingPublisher) last() events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.events) == 0 {
		return events.Event{}
	}
	return r.events[len(r.events)-1]
}

type upstreams struct {
	board     *httptest.Server
	feed      *httptest.Server
	broken    *httptest.Server
	missing   *httptest.Server
	slow      *httptest.Server
	malformed *httptest.Server
	closedURL string
}

func newUpstreams(t *testing.T) *upstreams {
	t.Helper()
	u := &upstreams{
		board: httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			fmt.Fprint(w, `<html><head><title>Board</title></head><body><header>Site</header><table id="board"><tr><td>10:15</td><td>IC 3021</td></tr></table><a href="/more">more</a></body></html>`)
		})),
		feed: httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `{"station":{"name":"Zürich HB"},"stationboard":[{"stop":{"departure":"2024-03-01T09:02:00+0100","platform":"31","delay":2},"category":"IR","number":"36","to":"Basel SBB"}]}`)
		})),
		broken: httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		})),
		missing: httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.NotFound(w, r)
		})),
		slow: httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
			case <-time.After(2 * time.Second):
			}
		})),
		malformed: httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, "<html>maintenance</html>")
		})),
	}

	closed := httptest.NewServer(http.NotFoundHandler())
	u.closedURL = closed.URL
	closed.Close()

	t.Cleanup(func() {
		u.board.Close()
		u.feed.Close()
		u.broken.Close()
		u.missing.Close()
		u.slow.Close()
		u.malformed.Close()
	})
	return u
}

func (u *upstreams) stations() []types.Station {
	return []types.Station{
		{Country: "NL", Code: "UT", Name: "Utrecht Centraal", City: "Utrecht", Slug: "utrecht-centraal", Type: types.ProviderNS, URL: u.board.URL + "/departures?station=UT"},
		{Country: "CH", Code: "8503000", Name: "Zürich HB", NameEn: "Zurich Main Station", City: "Zurich", Slug: "zurich-hb", Type: types.ProviderSBB, URL: u.feed.URL + "/v1/stationboard?id=8503000"},
		{Country: "ES", Code: "60000", Name: "Madrid Puerta de Atocha", City: "Madrid", Slug: "madrid-atocha", Type: types.ProviderRENFE, URL: "https://www.renfe.com/es/en"},
		{Country: "IT", Code: "1728", Name: "Milano Centrale", City: "Milan", Slug: "milano-centrale", Type: types.ProviderRFI, URL: u.broken.URL + "/partenze"},
		{Country: "FR", Code: "87686006", Name: "Paris Gare de Lyon", City: "Paris", Slug: "paris-gare-de-lyon", Type: types.ProviderSNCF, URL: u.missing.URL + "/depart"},
		{Country: "AT", Code: "8103000", Name: "Wien Hauptbahnhof", City: "Vienna", Slug: "wien-hbf", Type: types.ProviderOBB, URL: u.slow.URL + "/abfahrt"},
		{Country: "UK", Code: "KGX", Name: "London Kings Cross", City: "London", Slug: "london-kings-cross", Type: types.ProviderNationalRail, URL: u.closedURL + "/dep/KGX"},
		{Country: "CH", Code: "8501008", Name: "Genève", City: "Geneva", Slug: "geneve", Type: types.ProviderSBB, URL: u.malformed.URL + "/v1/stationboard?id=8501008"},
		{Country: "UK", Code: "EUS", Name: "London Euston", City: "London", Slug: "london-euston", Type: types.ProviderNationalRail, URL: u.board.URL + "/dep/EUS"},
		{Country: "UK", Code: "PAD", Name: "London Paddington", City: "London", Slug: "london-paddington", Type: types.ProviderNationalRail, URL: u.board.URL + "/dep/PAD"},
		{Country: "UK", Code: "VIC", Name: "London Victoria", City: "London", Slug: "london-victoria", Type: types.ProviderNationalRail, URL: u.board.URL + "/dep/VIC"},
		{Country: "UK", Code: "WAT", Name: "London Waterloo", City: "London", Slug: "london-waterloo", Type: types.ProviderNationalRail, URL: u.board.URL + "/dep/WAT"},
		{Country: "UK", Code: "LST", Name: "London Liverpool Street", City: "London", Slug: "london-liverpool-street", Type: types.ProviderNationalRail, URL: u.board.URL + "/dep/LST"},
	}
}

func newTestApp(t *testing.T) (*fiber.App, *recordingPublisher, *upstreams) {
	t.Helper()

	public := t.TempDir()
	if err := os.WriteFile(filepath.Join(public, "index.html"), []byte("<html><body>Station selector</body></html>"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := config.Default()
	cfg.PublicDir = public

	u := newUpstreams(t)
	stations := data.NewDirectory(u.stations(), "test")
	limiter := ratelimit.NewMemory(ratelimit.Settings{Max: cfg.RateLimitMax, Window: cfg.RateLimitWindow, MaxClients: cfg.RateLimitMaxClients})
	fetcher := fetch.New(fetch.Policy{
		MaxRetries: 2,
		BaseDelay:  time.Millisecond,
		MaxDelay:   2 * time.Millisecond,
		Timeout:    200 * time.Millisecond,
	})
	publisher := &recordingPublisher{}

	server := NewServer(cfg, stations, limiter, fetcher, board.NewRegistry(cfg.BoardRefreshSeconds), publisher, zap.NewNop().Sugar())
	return NewApp(server), publisher, u
}

func get(t *testing.T, app *fiber.App, target string) (*http.Response, string) {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, target, nil), -1)
	if err != nil {
		t.Fatalf("GET %s: %v", target, err)
	}
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		t.Fatal(err)
	}
	return resp, string(body)
}

func TestGetBoardPassthrough(t *testing.T) {
	app, publisher, u := newTestApp(t)

	resp, body := get(t, app, "/board?station=utrecht-centraal")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, body)
	}

	wantHeaders := map[string]string{
		"Content-Type":      "text/html; charset=utf-8",
		"Cache-Control":     "no-cache, no-store, must-revalidate",
		"Pragma":            "no-cache",
		"Expires":           "0",
		"X-Station-Name":    "Utrecht Centraal",
		"X-Station-Country": "NL",
		"X-Provider-Type":   "NS",
	}
	for k, v := range wantHeaders {
		if got := resp.Header.Get(k); got != v {
			t.Errorf("header %s: got %q, want %q", k, got, v)
		}
	}

	if !strings.Contains(body, "IC 3021") || strings.Contains(body, "<header>") {
		t.Errorf("expected board without site chrome, got %s", body)
	}
	if !strings.Contains(body, `href="`+u.board.URL+`/more"`) {
		t.Error("expected root-relative link rewritten to the upstream origin")
	}

	ev := publisher.last()
	if ev.Kind != events.BoardServed || ev.Station != "utrecht-centraal" || ev.Status != http.StatusOK || ev.Attempts != 1 {
		t.Errorf("unexpected event %+v", ev)
	}
}

func TestGetBoardStructuredFeed(t *testing.T) {
	app, _, _ := newTestApp(t)

	resp, body := get(t, app, "/board?station=8503000")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	for _, want := range []string{"<th>Time</th>", "09:02", "IR 36", "Basel SBB", "31", "+2′"} {
		if !strings.Contains(body, want) {
			t.Errorf("expected %q in board", want)
		}
	}
	if resp.Header.Get("X-Provider-Type") != "SBB" {
		t.Errorf("unexpected provider header %q", resp.Header.Get("X-Provider-Type"))
	}
}

func TestGetBoardCityParameter(t *testing.T) {
	app, _, _ := newTestApp(t)

	resp, body := get(t, app, "/board?city=MADRID-ATOCHA")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if !strings.Contains(body, "Madrid Puerta de Atocha") {
		t.Error("expected the unavailable page for the station")
	}
}

func TestGetBoardMissingParameter(t *testing.T) {
	app, publisher, _ := newTestApp(t)

	for _, target := range []string{"/board", "/board?station=", "/board?station=%20%20"} {
		resp, body := get(t, app, target)
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", target, resp.StatusCode)
			continue
		}
		var payload ErrorResponse
		if err := json.Unmarshal([]byte(body), &payload); err != nil {
			t.Fatalf("%s: expected JSON body: %v", target, err)
		}
		if payload.Usage != boardUsage {
			t.Errorf("%s: unexpected usage %q", target, payload.Usage)
		}
	}
	if len(publisher.events) != 0 {
		t.Error("expected no events for invalid requests")
	}
}

func TestGetBoardUnknownStation(t *testing.T) {
	app, _, _ := newTestApp(t)

	resp, body := get(t, app, "/board?station=london")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}

	var payload NotFoundResponse
	if err := json.Unmarshal([]byte(body), &payload); err != nil {
		t.Fatalf("expected JSON body: %v", err)
	}
	if payload.Identifier != "london" {
		t.Errorf("unexpected identifier %q", payload.Identifier)
	}
	if len(payload.Suggestions) != 5 {
		t.Fatalf("expected 5 suggestions, got %d", len(payload.Suggestions))
	}
	for _, s := range payload.Suggestions {
		if !strings.HasPrefix(s.Slug, "london-") || s.URL != "/board?station="+s.Slug {
			t.Errorf("unexpected suggestion %+v", s)
		}
	}

	resp, body = get(t, app, "/board?station=atlantis")
	if resp.StatusCode != http.StatusNotFound || !strings.Contains(body, `"suggestions":[]`) {
		t.Errorf("expected empty suggestions, got %d %s", resp.StatusCode, body)
	}
}

func TestGetBoardRateLimit(t *testing.T) {
	app, _, _ := newTestApp(t)

	for i := 1; i <= 25; i++ {
		resp, _ := get(t, app, "/board?station=madrid-atocha")
		if i <= 20 && resp.StatusCode != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i, resp.StatusCode)
		}
		if i > 20 {
			if resp.StatusCode != http.StatusTooManyRequests {
				t.Fatalf("request %d: expected 429, got %d", i, resp.StatusCode)
			}
			if resp.Header.Get("Retry-After") != "60" {
				t.Errorf("request %d: unexpected Retry-After %q", i, resp.Header.Get("Retry-After"))
			}
		}
	}
}

type keyRecordingLimiter struct {
	ratelimit.Limiter
	mu   sync.Mutex
	keys []string
}

func (l *keyRecordingLimiter) Admit(ctx context.Context, key string, now time.Time) bool {
	l.mu.Lock()
	l.keys = append(l.keys, key)
	l.mu.Unlock()
	return l.Limiter.Admit(ctx, key, now)
}

func TestGetBoardRateLimitPerForwardedClient(t *testing.T) {
	cfg := config.Default()
	cfg.PublicDir = t.TempDir()
	cfg.ProxyHeader = fiber.HeaderXForwardedFor

	u := newUpstreams(t)
	limiter := &keyRecordingLimiter{Limiter: ratelimit.NewMemory(ratelimit.DefaultSettings())}
	server := NewServer(cfg, data.NewDirectory(u.stations(), "test"), limiter, fetch.New(fetch.DefaultPolicy()),
		board.NewRegistry(cfg.BoardRefreshSeconds), nil, zap.NewNop().Sugar())
	app := NewApp(server)

	request := func(client string) int {
		req := httptest.NewRequest(http.MethodGet, "/board?station=madrid-atocha", nil)
		req.Header.Set(fiber.HeaderXForwardedFor, client)
		resp, err := app.Test(req, -1)
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		return resp.StatusCode
	}

	for i := 1; i <= 21; i++ {
		status := request("203.0.113.7")
		if i <= 20 && status != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i, status)
		}
		if i == 21 && status != http.StatusTooManyRequests {
			t.Fatalf("request %d: expected 429, got %d", i, status)
		}
	}
	if status := request("198.51.100.2"); status != http.StatusOK {
		t.Fatalf("expected a second client to be admitted, got %d", status)
	}

	limiter.mu.Lock()
	defer limiter.mu.Unlock()
	for i, key := range limiter.keys[:21] {
		if key != "203.0.113.7" {
			t.Errorf("admission %d: key %q changed after its request completed", i+1, key)
		}
	}
	if last := limiter.keys[len(limiter.keys)-1]; last != "198.51.100.2" {
		t.Errorf("expected last key 198.51.100.2, got %q", last)
	}
	if tracked := limiter.Tracked(context.Background()); tracked != 2 {
		t.Errorf("expected 2 tracked clients, got %d", tracked)
	}
}

func TestGetBoardUpstreamFailures(t *testing.T) {
	tests := []struct {
		name     string
		station  string
		status   int
		attempts int
	}{
		{name: "server error", station: "milano-centrale", status: http.StatusBadGateway, attempts: 2},
		{name: "client error", station: "paris-gare-de-lyon", status: http.StatusBadGateway, attempts: 1},
		{name: "timeout", station: "wien-hbf", status: http.StatusGatewayTimeout, attempts: 2},
		{name: "unreachable", station: "london-kings-cross", status: http.StatusServiceUnavailable, attempts: 2},
		{name: "malformed feed", station: "geneve", status: http.StatusBadGateway, attempts: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app, publisher, _ := newTestApp(t)

			resp, body := get(t, app, "/board?station="+tt.station)
			if resp.StatusCode != tt.status {
				t.Fatalf("expected %d, got %d", tt.status, resp.StatusCode)
			}
			if resp.Header.Get("Content-Type") != "text/html; charset=utf-8" {
				t.Errorf("expected an HTML error page, got %q", resp.Header.Get("Content-Type"))
			}
			if !strings.Contains(body, `href="/"`) || !strings.Contains(body, `http-equiv="refresh"`) {
				t.Error("expected a link home and a refresh hint")
			}

			ev := publisher.last()
			if ev.Kind != events.BoardFailed || ev.Status != tt.status || ev.Error == "" {
				t.Errorf("unexpected event %+v", ev)
			}
			if ev.Attempts != tt.attempts {
				t.Errorf("expected %d attempts recorded, got %d", tt.attempts, ev.Attempts)
			}
		})
	}
}

func TestBuildBoardErrors(t *testing.T) {
	s := NewServer(config.Default(), data.Builtin(), ratelimit.NewMemory(ratelimit.DefaultSettings()), fetch.New(fetch.DefaultPolicy()), board.NewRegistry(0), nil, zap.NewNop().Sugar())

	_, err := s.BuildBoard(context.Background(), "  ", "client")
	var validationErr *ValidationError
	if !errors.As(err, &validationErr) || validationErr.Param != "station" {
		t.Errorf("expected validation error, got %v", err)
	}

	_, err = s.BuildBoard(context.Background(), "hauptbahnhof", "client")
	var notFoundErr *NotFoundError
	if !errors.As(err, &notFoundErr) {
		t.Fatalf("expected not found error, got %v", err)
	}
	if len(notFoundErr.Suggestions) != 5 {
		t.Errorf("expected suggestions capped at 5, got %d", len(notFoundErr.Suggestions))
	}
}

func TestHealth(t *testing.T) {
	app, _, _ := newTestApp(t)
	get(t, app, "/board?station=madrid-atocha")

	resp, body := get(t, app, "/health")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var payload HealthResponse
	if err := json.Unmarshal([]byte(body), &payload); err != nil {
		t.Fatal(err)
	}
	if payload.Status != "ok" || payload.Stations != 13 || payload.Source != "test" {
		t.Errorf("unexpected health %+v", payload)
	}
	if strings.Join(payload.Countries, ",") != "AT,CH,ES,FR,IT,NL,UK" {
		t.Errorf("unexpected countries %v", payload.Countries)
	}
	if payload.TrackedClients != 1 {
		t.Errorf("expected 1 tracked client, got %d", payload.TrackedClients)
	}
}

func TestListStations(t *testing.T) {
	app, _, _ := newTestApp(t)

	_, body := get(t, app, "/stations/list")
	var all StationListResponse
	if err := json.Unmarshal([]byte(body), &all); err != nil {
		t.Fatal(err)
	}
	if all.TotalStations != 13 || len(all.Stations) != 13 {
		t.Errorf("expected 13 stations, got %d", all.TotalStations)
	}
	if all.Countries["UK"] != 6 {
		t.Errorf("unexpected country counts %v", all.Countries)
	}

	_, body = get(t, app, "/stations/list?country=ch")
	var swiss StationListResponse
	if err := json.Unmarshal([]byte(body), &swiss); err != nil {
		t.Fatal(err)
	}
	if swiss.TotalStations != 2 || swiss.Stations[0].BoardURL != "/board?station=zurich-hb" || swiss.Stations[0].NameEn != "Zurich Main Station" {
		t.Errorf("unexpected swiss listing %+v", swiss)
	}
}

func TestSearchStations(t *testing.T) {
	app, _, _ := newTestApp(t)

	resp, _ := get(t, app, "/stations/search")
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 without q, got %d", resp.StatusCode)
	}

	_, body := get(t, app, "/stations/search?q=London")
	var payload SearchResponse
	if err := json.Unmarshal([]byte(body), &payload); err != nil {
		t.Fatal(err)
	}
	if payload.Query != "London" || payload.Count != 6 || len(payload.Results) != 6 {
		t.Errorf("unexpected search response %+v", payload)
	}

	_, body = get(t, app, "/stations/search?q=a")
	if err := json.Unmarshal([]byte(body), &payload); err != nil {
		t.Fatal(err)
	}
	if payload.Count != searchLimit {
		t.Errorf("expected results capped at %d, got %d", searchLimit, payload.Count)
	}
}

func TestStaticAndUnknownRoutes(t *testing.T) {
	app, _, _ := newTestApp(t)

	resp, body := get(t, app, "/")
	if resp.StatusCode != http.StatusOK || !strings.Contains(body, "Station selector") {
		t.Errorf("expected the index page, got %d", resp.StatusCode)
	}

	resp, body = get(t, app, "/departures")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
	var payload RouteNotFoundResponse
	if err := json.Unmarshal([]byte(body), &payload); err != nil {
		t.Fatal(err)
	}
	if payload.Endpoints["departureBoard"] != "/board?station={station_slug}" {
		t.Errorf("unexpected endpoints %v", payload.Endpoints)
	}
}

func TestSecurityHeaders(t *testing.T) {
	app, _, _ := newTestApp(t)

	resp, _ := get(t, app, "/health")
	if resp.Header.Get("X-Content-Type-Options") != "nosniff" {
		t.Error("expected nosniff header")
	}
	if resp.Header.Get("Content-Security-Policy") != "" {
		t.Error("expected no content security policy")
	}
	if resp.Header.Get("Cross-Origin-Embedder-Policy") != "unsafe-none" {
		t.Errorf("unexpected COEP %q", resp.Header.Get("Cross-Origin-Embedder-Policy"))
	}
}
