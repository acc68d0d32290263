package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/jack-barr3tt/board-proxy/src/common/config"
	"github.com/jack-barr3tt/board-proxy/src/common/data"
	"github.com/jack-barr3tt/board-proxy/src/common/utils"
)

// station-sync copies the stations file into Postgres so replicas can run
// with STATIONS_SOURCE=postgres.
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

	stations, err := data.LoadFile(cfg.StationsFile)
	if err != nil {
		log.Fatalw("failed to load stations file", "path", cfg.StationsFile, "error", err)
	}

	pg, err := utils.NewPostgresConnection(ctx, cfg.Postgres)
	if err != nil {
		log.Fatalw("failed to connect to postgres", "error", err)
	}
	defer pg.Close()

	log.Infow("syncing stations", "path", cfg.StationsFile, "stations", stations.Len())

	if err := data.SyncStations(ctx, pg, stations.List("")); err != nil {
		log.Fatalw("failed to sync stations", "error", err)
	}

	// read back through the same path the API uses
	synced, err := data.LoadPostgres(ctx, pg)
	if err != nil {
		log.Fatalw("synced stations failed validation", "error", err)
	}

	log.Infow("stations synced", "stations", synced.Len(), "countries", synced.Countries())
}
