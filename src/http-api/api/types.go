package api

import (
	"time"

	"github.com/jack-barr3tt/board-proxy/src/common/types"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Usage   string `json:"usage,omitempty"`
}

type HealthResponse struct {
	Status         string    `json:"status"`
	Timestamp      time.Time `json:"timestamp"`
	Uptime         float64   `json:"uptime"`
	Stations       int       `json:"stations"`
	Countries      []string  `json:"countries"`
	Source         string    `json:"source"`
	TrackedClients int       `json:"trackedClients"`
}

type StationSummary struct {
	Country  string             `json:"country"`
	Code     string             `json:"code"`
	Name     string             `json:"name"`
	NameEn   string             `json:"nameEn,omitempty"`
	City     string             `json:"city"`
	Slug     string             `json:"slug"`
	Type     types.ProviderType `json:"type"`
	BoardURL string             `json:"boardUrl"`
}

type StationListResponse struct {
	TotalStations int              `json:"totalStations"`
	Countries     map[string]int   `json:"countries"`
	Stations      []StationSummary `json:"stations"`
}

type SearchResponse struct {
	Query   string           `json:"query"`
	Count   int              `json:"count"`
	Results []StationSummary `json:"results"`
}

type Suggestion struct {
	Name    string `json:"name"`
	City    string `json:"city"`
	Country string `json:"country"`
	Slug    string `json:"slug"`
	URL     string `json:"url"`
}

type NotFoundResponse struct {
	Error       string       `json:"error"`
	Identifier  string       `json:"identifier"`
	Suggestions []Suggestion `json:"suggestions"`
	Usage       string       `json:"usage"`
}

type RouteNotFoundResponse struct {
	Error     string            `json:"error"`
	Endpoints map[string]string `json:"endpoints"`
}
