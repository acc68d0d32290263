package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StationsFromFile     = "file"
	StationsFromPostgres = "postgres"

	RateLimitMemory = "memory"
	RateLimitRedis  = "redis"

	EventsNone  = "none"
	EventsAMQP  = "amqp"
	EventsStomp = "stomp"
)

// Config holds environment-driven settings shared by the binaries.
type Config struct {
	Port      int
	PublicDir string

	StationsSource   string
	StationsFile     string
	StationsFallback bool

	RateLimitBackend    string
	RateLimitMax        int
	RateLimitWindow     time.Duration
	RateLimitMaxClients int

	FetchTimeout    time.Duration
	FetchMaxRetries int
	FetchBaseDelay  time.Duration
	FetchMaxDelay   time.Duration
	FetchMaxJitter  time.Duration

	BoardRefreshSeconds int
	ProxyHeader         string

	EventsBackend    string
	BoardEventsQueue string

	Redis    RedisConfig
	Postgres PostgresConfig
	MQ       MQConfig
	Stomp    StompConfig

	LogLevel  string
	LogFormat string
}

type RedisConfig struct {
	Addr string
}

type PostgresConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DB       string
}

type MQConfig struct {
	User     string
	Password string
	Host     string
	Port     string
}

type StompConfig struct {
	Endpoint    string
	Username    string
	Password    string
	Destination string
}

// Default returns the configuration used when no environment overrides are set.
func Default() Config {
	return Config{
		Port:                3000,
		PublicDir:           "./public",
		StationsSource:      StationsFromFile,
		StationsFile:        "stations.json",
		StationsFallback:    true,
		RateLimitBackend:    RateLimitMemory,
		RateLimitMax:        20,
		RateLimitWindow:     60 * time.Second,
		RateLimitMaxClients: 10000,
		FetchTimeout:        20 * time.Second,
		FetchMaxRetries:     3,
		FetchBaseDelay:      time.Second,
		FetchMaxDelay:       5 * time.Second,
		FetchMaxJitter:      time.Second,
		BoardRefreshSeconds: 60,
		EventsBackend:       EventsNone,
		BoardEventsQueue:    "board_events",
		Redis:               RedisConfig{Addr: "redis:6379"},
		Stomp:               StompConfig{Destination: "/queue/board_events"},
		LogLevel:            "info",
		LogFormat:           "console",
	}
}

// Load reads configuration from environment variables (optionally .env).
func Load() (Config, error) {
	cfg := Default()
	var errs []error

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		errs = append(errs, fmt.Errorf(".env: %w", err))
	}

	cfg.Port = envInt("PORT", cfg.Port, &errs)
	cfg.PublicDir = envString("PUBLIC_DIR", cfg.PublicDir)

	cfg.StationsSource = strings.ToLower(envString("STATIONS_SOURCE", cfg.StationsSource))
	cfg.StationsFile = envString("STATIONS_FILE", cfg.StationsFile)
	cfg.StationsFallback = envBool("STATIONS_FALLBACK", cfg.StationsFallback, &errs)

	cfg.RateLimitBackend = strings.ToLower(envString("RATE_LIMIT_BACKEND", cfg.RateLimitBackend))
	cfg.RateLimitMax = envInt("RATE_LIMIT_MAX", cfg.RateLimitMax, &errs)
	cfg.RateLimitWindow = envDuration("RATE_LIMIT_WINDOW", cfg.RateLimitWindow, &errs)
	cfg.RateLimitMaxClients = envInt("RATE_LIMIT_MAX_CLIENTS", cfg.RateLimitMaxClients, &errs)

	cfg.FetchTimeout = envDuration("FETCH_TIMEOUT", cfg.FetchTimeout, &errs)
	cfg.FetchMaxRetries = envInt("FETCH_MAX_RETRIES", cfg.FetchMaxRetries, &errs)
	cfg.FetchBaseDelay = envDuration("FETCH_BASE_DELAY", cfg.FetchBaseDelay, &errs)
	cfg.FetchMaxDelay = envDuration("FETCH_MAX_DELAY", cfg.FetchMaxDelay, &errs)
	cfg.FetchMaxJitter = envDuration("FETCH_MAX_JITTER", cfg.FetchMaxJitter, &errs)

	cfg.BoardRefreshSeconds = envInt("BOARD_REFRESH_SECONDS", cfg.BoardRefreshSeconds, &errs)
	cfg.ProxyHeader = envString("PROXY_HEADER", cfg.ProxyHeader)

	cfg.EventsBackend = strings.ToLower(envString("EVENTS_BACKEND", cfg.EventsBackend))
	cfg.BoardEventsQueue = envString("BOARD_EVENTS_QUEUE", cfg.BoardEventsQueue)

	cfg.Redis.Addr = envString("REDIS_ADDR", cfg.Redis.Addr)

	cfg.Postgres = PostgresConfig{
		Host:     os.Getenv("POSTGRES_HOST"),
		Port:     os.Getenv("POSTGRES_PORT"),
		User:     os.Getenv("POSTGRES_USER"),
		Password: os.Getenv("POSTGRES_PASSWORD"),
		DB:       os.Getenv("POSTGRES_DB"),
	}
	cfg.MQ = MQConfig{
		User:     os.Getenv("MQ_USER"),
		Password: os.Getenv("MQ_PASSWORD"),
		Host:     os.Getenv("MQ_HOST"),
		Port:     os.Getenv("MQ_PORT"),
	}
	cfg.Stomp.Endpoint = os.Getenv("STOMP_ENDPOINT")
	cfg.Stomp.Username = os.Getenv("STOMP_USERNAME")
	cfg.Stomp.Password = os.Getenv("STOMP_PASSWORD")
	cfg.Stomp.Destination = envString("STOMP_DESTINATION", cfg.Stomp.Destination)

	cfg.LogLevel = envString("LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = strings.ToLower(envString("LOG_FORMAT", cfg.LogFormat))

	errs = append(errs, cfg.validate()...)
	return cfg, errors.Join(errs...)
}

func (c Config) validate() []error {
	var errs []error

	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("invalid PORT: %d", c.Port))
	}
	switch c.StationsSource {
	case StationsFromFile, StationsFromPostgres:
	default:
		errs = append(errs, fmt.Errorf("invalid STATIONS_SOURCE: %s", c.StationsSource))
	}
	switch c.RateLimitBackend {
	case RateLimitMemory, RateLimitRedis:
	default:
		errs = append(errs, fmt.Errorf("invalid RATE_LIMIT_BACKEND: %s", c.RateLimitBackend))
	}
	switch c.EventsBackend {
	case EventsNone, EventsAMQP, EventsStomp:
	default:
		errs = append(errs, fmt.Errorf("invalid EVENTS_BACKEND: %s", c.EventsBackend))
	}
	if c.RateLimitMax <= 0 {
		errs = append(errs, fmt.Errorf("invalid RATE_LIMIT_MAX: %d", c.RateLimitMax))
	}
	if c.RateLimitWindow <= 0 {
		errs = append(errs, fmt.Errorf("invalid RATE_LIMIT_WINDOW: %s", c.RateLimitWindow))
	}
	if c.RateLimitMaxClients <= 0 {
		errs = append(errs, fmt.Errorf("invalid RATE_LIMIT_MAX_CLIENTS: %d", c.RateLimitMaxClients))
	}
	if c.FetchMaxRetries <= 0 {
		errs = append(errs, fmt.Errorf("invalid FETCH_MAX_RETRIES: %d", c.FetchMaxRetries))
	}
	if c.FetchTimeout <= 0 {
		errs = append(errs, fmt.Errorf("invalid FETCH_TIMEOUT: %s", c.FetchTimeout))
	}
	if c.BoardRefreshSeconds < 0 {
		errs = append(errs, fmt.Errorf("invalid BOARD_REFRESH_SECONDS: %d", c.BoardRefreshSeconds))
	}

	return errs
}

// ListenAddr returns the host:port string for the HTTP server.
func (c Config) ListenAddr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func envString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int, errs *[]error) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("invalid %s: %s", key, v))
		return def
	}
	return n
}

func envBool(key string, def bool, errs *[]error) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("invalid %s: %s", key, v))
		return def
	}
	return b
}

// envDuration accepts Go durations ("1500ms") or a bare number of milliseconds.
func envDuration(key string, def time.Duration, errs *[]error) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if ms, err := strconv.Atoi(v); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("invalid %s: %s", key, v))
		return def
	}
	return d
}
