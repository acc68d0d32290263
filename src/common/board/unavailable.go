package board

import (
	"context"
	"fmt"
	"html/template"
	"strings"

	"github.com/jack-barr3tt/board-proxy/src/common/types"
)

var unavailableTemplate = template.Must(template.New("unavailable").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Name}} - Departures</title>
<style>
body { margin: 0; padding: 32px; font-family: Helvetica, Arial, sans-serif; background: #1a1a1a; color: #fff; }
a { color: #6cf; }
</style>
</head>
<body>
<h1>{{.Name}}</h1>
<p>Live departures from {{.Provider}} ({{.Country}}) are not available through a public feed.</p>
<p>Check the <a href="{{.URL}}" rel="noopener">official website</a> for current departures.</p>
<p><a href="/">Back to station list</a></p>
</body>
</html>
`))

// Unavailable serves a fixed page for providers without a public board.
type Unavailable struct{}

func (Unavailable) Render(_ context.Context, _ Fetcher, station types.Station) (*Page, error) {
	var sb strings.Builder
	err := unavailableTemplate.Execute(&sb, struct {
		Name     string
		Provider types.ProviderType
		Country  string
		URL      string
	}{Name: station.Name, Provider: station.Type, Country: station.Country, URL: station.URL})
	if err != nil {
		return nil, fmt.Errorf("render unavailable page: %w", err)
	}
	return &Page{HTML: sb.String(), SourceURL: station.URL}, nil
}
