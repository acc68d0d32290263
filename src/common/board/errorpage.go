package board

import (
	"html/template"
	"strings"

	"github.com/jack-barr3tt/board-proxy/src/common/types"
)

const errorRefreshSeconds = 30

var errorTemplate = template.Must(template.New("error").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta http-equiv="refresh" content="{{.Refresh}}">
<title>{{.Name}} - Board unavailable</title>
<style>
body { margin: 0; padding: 32px; font-family: Helvetica, Arial, sans-serif; background: #1a1a1a; color: #fff; }
code { color: #f99; }
a { color: #6cf; }
</style>
</head>
<body>
<h1>{{.Name}}</h1>
<p>The {{.Provider}} departure board could not be loaded.</p>
<p><code>{{.Message}}</code></p>
<p>Source: <a href="{{.SourceURL}}" rel="noopener">{{.SourceURL}}</a></p>
<p>This page retries in {{.Refresh}} seconds. <a href="/">Back to station list</a></p>
</body>
</html>
`))

// ErrorPage renders the HTML shown when a board cannot be produced.
func ErrorPage(station types.Station, message, sourceURL string) string {
	var sb strings.Builder
	err := errorTemplate.Execute(&sb, struct {
		Name      string
		Provider  types.ProviderType
		Message   string
		SourceURL string
		Refresh   int
	}{
		Name:      station.Name,
		Provider:  station.Type,
		Message:   message,
		SourceURL: sourceURL,
		Refresh:   errorRefreshSeconds,
	})
	if err != nil {
		return "<!DOCTYPE html><html><body><p>Board unavailable.</p><p><a href=\"/\">Back</a></p></body></html>"
	}
	return sb.String()
}
