package api

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/jack-barr3tt/board-proxy/src/common/board"
	"github.com/jack-barr3tt/board-proxy/src/common/fetch"
	"github.com/jack-barr3tt/board-proxy/src/common/types"
)

const (
	boardUsage  = "/board?station=milano-centrale"
	searchUsage = "/stations/search?q=milan"

	searchLimit     = 10
	suggestionLimit = 5
)

func boardPath(slug string) string {
	return "/board?station=" + url.QueryEscape(slug)
}

func summarize(stations []types.Station) []StationSummary {
	out := make([]StationSummary, 0, len(stations))
	for _, st := range stations {
		out = append(out, StationSummary{
			Country:  st.Country,
			Code:     st.Code,
			Name:     st.Name,
			NameEn:   st.NameEn,
			City:     st.City,
			Slug:     st.Slug,
			Type:     st.Type,
			BoardURL: boardPath(st.Slug),
		})
	}
	return out
}

func suggestions(stations []types.Station) []Suggestion {
	out := make([]Suggestion, 0, len(stations))
	for _, st := range stations {
		out = append(out, Suggestion{
			Name:    st.Name,
			City:    st.City,
			Country: st.Country,
			Slug:    st.Slug,
			URL:     boardPath(st.Slug),
		})
	}
	return out
}

// boardStatus maps a board failure to the status served with the error page.
func boardStatus(err error) int {
	var fetchErr *fetch.FetchError
	if errors.As(err, &fetchErr) {
		switch {
		case fetchErr.IsTimeout():
			return http.StatusGatewayTimeout
		case fetchErr.IsUpstreamStatus():
			return http.StatusBadGateway
		default:
			return http.StatusServiceUnavailable
		}
	}

	var formatErr *board.FormatError
	if errors.As(err, &formatErr) {
		return http.StatusBadGateway
	}
	return http.StatusServiceUnavailable
}

// clientKey identifies the caller for rate limiting. c.IP() may alias the
// request buffer when read from a proxy header, and limiters keep the key.
func clientKey(c *fiber.Ctx) string {
	return utils.CopyString(c.IP())
}

func setBoardHeaders(c *fiber.Ctx, station types.Station) {
	c.Set(fiber.HeaderContentType, "text/html; charset=utf-8")
	c.Set(fiber.HeaderCacheControl, "no-cache, no-store, must-revalidate")
	c.Set(fiber.HeaderPragma, "no-cache")
	c.Set(fiber.HeaderExpires, "0")
	c.Set("X-Station-Name", station.Name)
	c.Set("X-Station-Country", station.Country)
	c.Set("X-Provider-Type", string(station.Type))
}
