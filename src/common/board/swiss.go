package board

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"strconv"
	"strings"
	"time"

	"github.com/jack-barr3tt/board-proxy/src/common/fetch"
	"github.com/jack-barr3tt/board-proxy/src/common/types"
)

var swissTemplate = template.Must(template.New("swiss").Funcs(template.FuncMap{"signedDelay": signedDelay}).Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}} - Departures</title>
<style>
body { margin: 0; padding: 16px; font-family: Helvetica, Arial, sans-serif; background: #1a1a1a; color: #fff; }
h1 { font-size: 1.4em; margin: 0 0 12px; }
table { width: 100%; border-collapse: collapse; }
th, td { padding: 8px; text-align: left; border-bottom: 1px solid #333; }
th { color: #aaa; font-weight: normal; }
.delay { background: #c00; color: #fff; padding: 2px 6px; border-radius: 3px; font-size: 0.9em; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
<table>
<thead><tr><th>Time</th><th>Train</th><th>Destination</th><th>Platform</th><th>Delay</th></tr></thead>
<tbody>
{{- range .Rows}}
<tr><td>{{.Time}}</td><td>{{.Train}}</td><td>{{.Destination}}</td><td>{{.Platform}}</td><td>{{if .Delay}}<span class="delay">{{signedDelay .Delay}}′</span>{{end}}</td></tr>
{{- end}}
</tbody>
</table>
</body>
</html>
`))

type swissRow struct {
	Time        string
	Train       string
	Destination string
	Platform    string
	Delay       int
}

// Swiss renders the transport.opendata.ch stationboard feed as a table.
type Swiss struct{}

func NewSwiss() Swiss {
	return Swiss{}
}

func (s Swiss) Render(ctx context.Context, f Fetcher, station types.Station) (*Page, error) {
	res, err := f.Fetch(ctx, station.URL, map[string]string{"Accept": "application/json"})
	if err != nil {
		return nil, err
	}

	html, err := s.Format(station, res)
	if err != nil {
		return nil, err
	}
	return &Page{HTML: html, SourceURL: station.URL, Attempts: res.Attempts}, nil
}

func (Swiss) Format(station types.Station, res *fetch.Result) (string, error) {
	var feed types.SwissFeed
	if err := json.Unmarshal(res.Body, &feed); err != nil {
		return "", &FormatError{Kind: MalformedFeed, Err: err}
	}
	if feed.Stationboard == nil {
		return "", &FormatError{Kind: MalformedFeed, Err: errors.New(`feed has no "stationboard" array`)}
	}

	title := station.Name
	if feed.Station != nil && feed.Station.Name != "" {
		title = feed.Station.Name
	}

	rows := make([]swissRow, 0, len(*feed.Stationboard))
	for _, dep := range *feed.Stationboard {
		rows = append(rows, swissRowFor(dep))
	}

	var sb strings.Builder
	if err := swissTemplate.Execute(&sb, struct {
		Title string
		Rows  []swissRow
	}{Title: title, Rows: rows}); err != nil {
		return "", fmt.Errorf("render swiss board: %w", err)
	}
	return sb.String(), nil
}

func swissRowFor(dep types.SwissDeparture) swissRow {
	row := swissRow{
		Time:        "--:--",
		Train:       strings.TrimSpace(dep.Category + " " + dep.Number),
		Destination: dep.To,
		Platform:    "-",
	}
	if dep.Stop.Departure != nil {
		if t, ok := parseDeparture(*dep.Stop.Departure); ok {
			row.Time = t.Format("15:04")
		}
	}
	if row.Destination == "" {
		row.Destination = "Unknown"
	}
	if dep.Stop.Platform != nil && *dep.Stop.Platform != "" {
		row.Platform = *dep.Stop.Platform
	}
	if dep.Stop.Delay != nil {
		row.Delay = *dep.Stop.Delay
	}
	return row
}

// signedDelay prints early departures as -N and late ones as +N.
func signedDelay(minutes int) string {
	if minutes < 0 {
		return strconv.Itoa(minutes)
	}
	return "+" + strconv.Itoa(minutes)
}

// parseDeparture keeps the offset carried by the timestamp so the board shows
// station-local time.
func parseDeparture(raw string) (time.Time, bool) {
	for _, layout := range []string{"2006-01-02T15:04:05-0700", time.RFC3339} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
