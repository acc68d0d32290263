package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jack-barr3tt/board-proxy/src/common/board"
	"github.com/jack-barr3tt/board-proxy/src/common/events"
	"github.com/jack-barr3tt/board-proxy/src/common/fetch"
	"github.com/jack-barr3tt/board-proxy/src/common/types"
)

type BoardResult struct {
	Station types.Station
	Page    *board.Page
}

// BuildBoard validates the request, applies the rate limit, resolves the
// station and renders its board. Every resolved station produces an event.
func (s *APIServer) BuildBoard(ctx context.Context, identifier, clientKey string) (*BoardResult, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil, &ValidationError{Param: "station", Usage: boardUsage}
	}

	if !s.Limiter.Admit(ctx, clientKey, time.Now()) {
		s.Logger.Warnw("rate limit exceeded", "client", clientKey)
		return nil, ErrRateLimited
	}

	station, ok := s.Stations.FindBySlugOrCode(identifier)
	if !ok {
		s.Logger.Warnw("unknown station", "identifier", identifier)
		return nil, &NotFoundError{
			Identifier:  identifier,
			Suggestions: s.Stations.Search(identifier, suggestionLimit),
		}
	}

	s.Logger.Infow("fetching board", "station", station.Name, "country", station.Country, "provider", station.Type)
	start := time.Now()

	page, err := s.render(ctx, station)
	elapsed := time.Since(start)
	if err != nil {
		boardErr := &BoardError{Station: station, SourceURL: station.URL, Err: err}
		var fetchErr *fetch.FetchError
		if errors.As(err, &fetchErr) {
			boardErr.Attempts = fetchErr.Attempts
			if fetchErr.URL != "" {
				boardErr.SourceURL = fetchErr.URL
			}
		}

		s.Logger.Errorw("failed to build board", "station", station.Name, "elapsed", elapsed, "error", err)
		s.publish(ctx, events.NewBoardEvent(station, boardStatus(err), boardErr.Attempts, elapsed, boardErr.SourceURL, err))
		return nil, boardErr
	}

	s.Logger.Infow("served board", "station", station.Name, "elapsed", elapsed, "attempts", page.Attempts)
	s.publish(ctx, events.NewBoardEvent(station, http.StatusOK, page.Attempts, elapsed, page.SourceURL, nil))

	return &BoardResult{Station: station, Page: page}, nil
}

func (s *APIServer) render(ctx context.Context, station types.Station) (*board.Page, error) {
	renderer, err := s.Boards.Lookup(station.Type)
	if err != nil {
		return nil, err
	}
	return renderer.Render(ctx, s.Fetcher, station)
}

func (s *APIServer) publish(ctx context.Context, ev events.Event) {
	if err := s.Events.Publish(ctx, ev); err != nil {
		s.Logger.Warnw("failed to publish board event", "id", ev.ID, "error", err)
	}
}

func (s *APIServer) GetBoard(c *fiber.Ctx) error {
	identifier := c.Query("station")
	if identifier == "" {
		identifier = c.Query("city")
	}

	result, err := s.BuildBoard(c.UserContext(), identifier, clientKey(c))
	if err != nil {
		return s.writeBoardError(c, err)
	}

	setBoardHeaders(c, result.Station)
	return c.Status(http.StatusOK).SendString(result.Page.HTML)
}

func (s *APIServer) writeBoardError(c *fiber.Ctx, err error) error {
	var validationErr *ValidationError
	var notFoundErr *NotFoundError
	var boardErr *BoardError

	switch {
	case errors.As(err, &validationErr):
		return c.Status(http.StatusBadRequest).JSON(ErrorResponse{
			Error:   "Bad Request",
			Message: `Missing "station" parameter`,
			Usage:   validationErr.Usage,
		})

	case errors.Is(err, ErrRateLimited):
		c.Set(fiber.HeaderRetryAfter, strconv.Itoa(int(s.Limiter.Window().Seconds())))
		return c.Status(http.StatusTooManyRequests).JSON(ErrorResponse{
			Error:   "Too Many Requests",
			Message: "Rate limit exceeded, please try again later",
		})

	case errors.As(err, &notFoundErr):
		return c.Status(http.StatusNotFound).JSON(NotFoundResponse{
			Error:       "Station not found",
			Identifier:  notFoundErr.Identifier,
			Suggestions: suggestions(notFoundErr.Suggestions),
			Usage:       boardUsage,
		})

	case errors.As(err, &boardErr):
		setBoardHeaders(c, boardErr.Station)
		return c.Status(boardStatus(boardErr.Err)).
			SendString(board.ErrorPage(boardErr.Station, boardErr.Err.Error(), boardErr.SourceURL))

	default:
		return err
	}
}
