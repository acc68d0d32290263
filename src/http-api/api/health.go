package api

import (
	"sort"
	"time"

	"github.com/gofiber/fiber/v2"
)

func (s *APIServer) GetHealth(c *fiber.Ctx) error {
	counts := s.Stations.Countries()
	countries := make([]string, 0, len(counts))
	for country := range counts {
		countries = append(countries, country)
	}
	sort.Strings(countries)

	response := HealthResponse{
		Status:         "ok",
		Timestamp:      time.Now().UTC(),
		Uptime:         time.Since(s.startedAt).Seconds(),
		Stations:       s.Stations.Len(),
		Countries:      countries,
		Source:         s.Stations.Source(),
		TrackedClients: s.Limiter.Tracked(c.UserContext()),
	}
	return c.JSON(response)
}
