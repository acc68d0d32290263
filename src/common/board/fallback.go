package board

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/jack-barr3tt/board-proxy/src/common/types"
)

// FallbackURL describes a second upstream tried when the primary answers
// with a station search form instead of a board.
type FallbackURL struct {
	// Template receives the URL-escaped provider code through %s.
	Template string
	// Markers are selectors that only match the search form.
	Markers []string
}

func DefaultDBFallback() FallbackURL {
	return FallbackURL{
		Template: "https://reiseauskunft.bahn.de/bin/bhftafel.exe/dn?evaId=%s&boardType=dep&time=actual&start=yes",
		Markers:  []string{`input[name="input"]`, `select[name="input"]`, `form[name="sqResult"]`},
	}
}

func (f FallbackURL) URLFor(code string) string {
	return fmt.Sprintf(f.Template, url.QueryEscape(code))
}

// IsSearchForm reports whether body matches any marker.
func (f FallbackURL) IsSearchForm(body []byte) bool {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil || len(f.Markers) == 0 {
		return false
	}
	return doc.Find(strings.Join(f.Markers, ", ")).Length() > 0
}

// Fallback renders through a Formatter, hopping once to the alternate URL
// when the primary response is a search form.
type Fallback struct {
	formatter Formatter
	alternate FallbackURL
}

func NewFallback(formatter Formatter, alternate FallbackURL) *Fallback {
	return &Fallback{formatter: formatter, alternate: alternate}
}

func (fb *Fallback) Render(ctx context.Context, f Fetcher, station types.Station) (*Page, error) {
	res, err := f.Fetch(ctx, station.URL, nil)
	if err != nil {
		return nil, err
	}
	source := station.URL
	attempts := res.Attempts

	if fb.alternate.IsSearchForm(res.Body) {
		source = fb.alternate.URLFor(station.Code)
		res, err = f.Fetch(ctx, source, nil)
		if err != nil {
			return nil, err
		}
		attempts += res.Attempts
	}

	html, err := fb.formatter.Format(station, res)
	if err != nil {
		return nil, err
	}
	return &Page{HTML: html, SourceURL: source, Attempts: attempts}, nil
}
