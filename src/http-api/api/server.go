package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jack-barr3tt/board-proxy/src/common/board"
	"github.com/jack-barr3tt/board-proxy/src/common/config"
	"github.com/jack-barr3tt/board-proxy/src/common/data"
	"github.com/jack-barr3tt/board-proxy/src/common/events"
	"github.com/jack-barr3tt/board-proxy/src/common/ratelimit"
	"go.uber.org/zap"
)

type APIServer struct {
	Config   config.Config
	Stations *data.Directory
	Limiter  ratelimit.Limiter
	Fetcher  board.Fetcher
	Boards   board.Registry
	Events   events.Publisher
	Logger   *zap.SugaredLogger

	startedAt time.Time
}

func NewServer(
	cfg config.Config,
	stations *data.Directory,
	limiter ratelimit.Limiter,
	fetcher board.Fetcher,
	boards board.Registry,
	publisher events.Publisher,
	logger *zap.SugaredLogger,
) *APIServer {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &APIServer{
		Config:    cfg,
		Stations:  stations,
		Limiter:   limiter,
		Fetcher:   fetcher,
		Boards:    boards,
		Events:    publisher,
		Logger:    logger,
		startedAt: time.Now(),
	}
}

func RegisterHandlers(app *fiber.App, s *APIServer) {
	app.Get("/health", s.GetHealth)
	app.Get("/stations/list", s.ListStations)
	app.Get("/stations/search", s.SearchStations)
	app.Get("/board", s.GetBoard)
}

// NewApp builds the fiber app with middleware, routes, static files and the
// JSON fallback for unknown routes.
func NewApp(s *APIServer) *fiber.App {
	app := fiber.New(fiber.Config{
		ProxyHeader:           s.Config.ProxyHeader,
		DisableStartupMessage: true,
		ErrorHandler:          jsonErrorHandler,
	})

	app.Use(recover.New())
	app.Use(func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		if path := c.Path(); path != "/health" {
			s.Logger.Infow("request",
				"method", c.Method(),
				"path", path,
				"status", c.Response().StatusCode(),
				"duration", time.Since(start),
				"ip", c.IP(),
			)
		}
		return err
	})
	app.Use(cors.New())
	app.Use(helmet.New(helmet.Config{
		CrossOriginEmbedderPolicy: "unsafe-none",
	}))

	RegisterHandlers(app, s)

	app.Static("/", s.Config.PublicDir)
	app.Use(s.RouteNotFound)

	return app
}

func jsonErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	return c.Status(code).JSON(ErrorResponse{
		Error:   http.StatusText(code),
		Message: err.Error(),
	})
}
