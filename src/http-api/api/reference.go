package api

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"
)

func (s *APIServer) ListStations(c *fiber.Ctx) error {
	stations := s.Stations.List(c.Query("country"))

	return c.JSON(StationListResponse{
		TotalStations: len(stations),
		Countries:     s.Stations.Countries(),
		Stations:      summarize(stations),
	})
}

func (s *APIServer) SearchStations(c *fiber.Ctx) error {
	query := c.Query("q")
	if strings.TrimSpace(query) == "" {
		return c.Status(http.StatusBadRequest).JSON(ErrorResponse{
			Error:   "Missing query parameter",
			Message: "q query parameter is required",
			Usage:   searchUsage,
		})
	}

	results := s.Stations.Search(query, searchLimit)
	return c.JSON(SearchResponse{
		Query:   query,
		Count:   len(results),
		Results: summarize(results),
	})
}

func (s *APIServer) RouteNotFound(c *fiber.Ctx) error {
	return c.Status(http.StatusNotFound).JSON(RouteNotFoundResponse{
		Error: "Not Found",
		Endpoints: map[string]string{
			"searchStations": "/stations/search?q={query}",
			"listStations":   "/stations/list?country={country_code}",
			"departureBoard": "/board?station={station_slug}",
			"health":         "/health",
		},
	})
}
