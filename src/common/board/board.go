package board

import (
	"context"
	"fmt"

	"github.com/jack-barr3tt/board-proxy/src/common/fetch"
	"github.com/jack-barr3tt/board-proxy/src/common/types"
)

// Fetcher is the subset of fetch.Fetcher the renderers need.
type Fetcher interface {
	Fetch(ctx context.Context, url string, headers map[string]string) (*fetch.Result, error)
}

// Page is a rendered departure board.
type Page struct {
	HTML      string
	SourceURL string
	Attempts  int
}

// Renderer produces a board page for a station, fetching upstream as needed.
type Renderer interface {
	Render(ctx context.Context, f Fetcher, station types.Station) (*Page, error)
}

// Formatter turns an upstream response into board HTML without any I/O.
type Formatter interface {
	Format(station types.Station, res *fetch.Result) (string, error)
}

type FormatErrorKind string

const (
	MalformedFeed FormatErrorKind = "malformed feed"
	MalformedHTML FormatErrorKind = "malformed html"
)

type FormatError struct {
	Kind FormatErrorKind
	Err  error
}

func (e *FormatError) Error() string {
	if e.Err == nil {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

// Registry maps provider types to their renderer.
type Registry map[types.ProviderType]Renderer

// NewRegistry wires every known provider type.
func NewRegistry(refreshSeconds int) Registry {
	passthrough := NewPassthrough(DefaultRules(), refreshSeconds)

	return Registry{
		types.ProviderRFI:          passthrough,
		types.ProviderNS:           passthrough,
		types.ProviderOBB:          passthrough,
		types.ProviderNationalRail: passthrough,
		types.ProviderSNCF:         passthrough,
		types.ProviderSBB:          NewSwiss(),
		types.ProviderDB:           NewFallback(passthrough, DefaultDBFallback()),
		types.ProviderRENFE:        Unavailable{},
		types.ProviderPKP:          Unavailable{},
	}
}

func (r Registry) Lookup(provider types.ProviderType) (Renderer, error) {
	renderer, ok := r[provider]
	if !ok {
		return nil, fmt.Errorf("no renderer for provider type %q", provider)
	}
	return renderer, nil
}
