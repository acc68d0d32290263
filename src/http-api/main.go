package main

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jack-barr3tt/board-proxy/src/common/board"
	"github.com/jack-barr3tt/board-proxy/src/common/config"
	"github.com/jack-barr3tt/board-proxy/src/common/data"
	"github.com/jack-barr3tt/board-proxy/src/common/events"
	"github.com/jack-barr3tt/board-proxy/src/common/fetch"
	"github.com/jack-barr3tt/board-proxy/src/common/ratelimit"
	"github.com/jack-barr3tt/board-proxy/src/common/utils"
	"github.com/jack-barr3tt/board-proxy/src/http-api/api"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

func main() {
	cfg, cfgErr := config.Load()
	utils.InitLogger(cfg.LogLevel, cfg.LogFormat)
	defer utils.SyncLogger()
	log := utils.GetLogger()

	if cfgErr != nil {
		log.Fatalw("invalid configuration", "error", cfgErr)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var closers []func() error

	stations, err := loadStations(ctx, cfg, log)
	if err != nil {
		log.Fatalw("failed to load stations", "error", err)
	}

	limiter, err := newLimiter(cfg, log, &closers)
	if err != nil {
		log.Fatalw("failed to set up rate limiter", "error", err)
	}

	publisher, err := newPublisher(cfg, log)
	if err != nil {
		log.Fatalw("failed to set up board events", "error", err)
	}
	closers = append(closers, publisher.Close)

	fetcher := fetch.New(fetch.Policy{
		MaxRetries: cfg.FetchMaxRetries,
		BaseDelay:  cfg.FetchBaseDelay,
		MaxDelay:   cfg.FetchMaxDelay,
		MaxJitter:  cfg.FetchMaxJitter,
		Timeout:    cfg.FetchTimeout,
	}, fetch.WithLogger(log))

	server := api.NewServer(cfg, stations, limiter, fetcher, board.NewRegistry(cfg.BoardRefreshSeconds), publisher, log)
	app := api.NewApp(server)

	go func() {
		<-ctx.Done()
		log.Infow("shutting down")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Warnw("fiber shutdown failed", "error", err)
		}
	}()

	log.Infow("board proxy starting",
		"addr", cfg.ListenAddr(),
		"stations", stations.Len(),
		"source", stations.Source(),
		"rateLimit", cfg.RateLimitBackend,
		"events", cfg.EventsBackend,
	)

	if err := app.Listen(cfg.ListenAddr()); err != nil {
		log.Errorw("fiber listen failed", "error", err)
	}

	var closeErr error
	for _, closer := range closers {
		closeErr = multierr.Append(closeErr, closer())
	}
	if closeErr != nil {
		log.Warnw("errors during shutdown", "error", closeErr)
	}
}

func loadStations(ctx context.Context, cfg config.Config, log *zap.SugaredLogger) (*data.Directory, error) {
	var (
		stations *data.Directory
		err      error
	)

	switch cfg.StationsSource {
	case config.StationsFromPostgres:
		pg, connErr := utils.NewPostgresConnection(ctx, cfg.Postgres)
		if connErr != nil {
			err = &data.DataLoadError{Source: data.PostgresSource, Err: connErr}
			break
		}
		stations, err = data.LoadPostgres(ctx, pg)
		pg.Close()
	default:
		stations, err = data.LoadFile(cfg.StationsFile)
	}

	if err == nil {
		return stations, nil
	}

	if errors.Is(err, fs.ErrNotExist) {
		log.Warnw("stations file not found, using built-in stations", "path", cfg.StationsFile)
		return data.Builtin(), nil
	}
	if cfg.StationsFallback {
		log.Warnw("stations source unusable, using built-in stations", "error", err)
		return data.Builtin(), nil
	}
	return nil, err
}

func newLimiter(cfg config.Config, log *zap.SugaredLogger, closers *[]func() error) (ratelimit.Limiter, error) {
	settings := ratelimit.Settings{
		Max:        cfg.RateLimitMax,
		Window:     cfg.RateLimitWindow,
		MaxClients: cfg.RateLimitMaxClients,
	}

	if cfg.RateLimitBackend != config.RateLimitRedis {
		return ratelimit.NewMemory(settings), nil
	}

	rdb := utils.NewRedisClient(cfg.Redis)
	*closers = append(*closers, rdb.Close)
	return ratelimit.NewRedis(rdb, settings, log), nil
}

func newPublisher(cfg config.Config, log *zap.SugaredLogger) (events.Publisher, error) {
	switch cfg.EventsBackend {
	case config.EventsAMQP:
		conn, channel, err := utils.NewRabbitConnection(cfg.MQ)
		if err != nil {
			return nil, err
		}
		publisher, err := events.NewAMQPPublisher(channel, cfg.BoardEventsQueue)
		if err != nil {
			conn.Close()
			return nil, err
		}
		return events.NewAsync(&connPublisher{Publisher: publisher, close: conn.Close}, 256, log), nil

	case config.EventsStomp:
		conn, err := utils.NewStompConnection(cfg.Stomp)
		if err != nil {
			return nil, err
		}
		return events.NewAsync(events.NewStompPublisher(conn, cfg.Stomp.Destination), 256, log), nil

	default:
		return events.Nop{}, nil
	}
}

// connPublisher closes the AMQP connection after its channel.
type connPublisher struct {
	events.Publisher
	close func() error
}

func (p *connPublisher) Close() error {
	return multierr.Append(p.Publisher.Close(), p.close())
}
