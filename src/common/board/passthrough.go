package board

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/jack-barr3tt/board-proxy/src/common/fetch"
	"github.com/jack-barr3tt/board-proxy/src/common/types"
)

const noCacheMeta = `<meta http-equiv="Cache-Control" content="no-cache, no-store, must-revalidate"><meta http-equiv="Pragma" content="no-cache"><meta http-equiv="Expires" content="0">`

var cssRootURL = regexp.MustCompile(`url\((["']?)/([^/])`)

// Passthrough re-serves an upstream HTML board with its site chrome removed.
type Passthrough struct {
	rules          Rules
	refreshSeconds int
}

func NewPassthrough(rules Rules, refreshSeconds int) *Passthrough {
	return &Passthrough{rules: rules, refreshSeconds: refreshSeconds}
}

func (p *Passthrough) Render(ctx context.Context, f Fetcher, station types.Station) (*Page, error) {
	res, err := f.Fetch(ctx, station.URL, nil)
	if err != nil {
		return nil, err
	}

	html, err := p.Format(station, res)
	if err != nil {
		return nil, err
	}
	return &Page{HTML: html, SourceURL: station.URL, Attempts: res.Attempts}, nil
}

func (p *Passthrough) Format(station types.Station, res *fetch.Result) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(res.Body))
	if err != nil {
		return "", &FormatError{Kind: MalformedHTML, Err: err}
	}

	origin, err := originOf(res.URL, station.URL)
	if err != nil {
		return "", &FormatError{Kind: MalformedHTML, Err: err}
	}

	p.stripChrome(doc)
	rewriteURLs(doc, origin)
	p.inject(doc, station.Type)

	out, err := doc.Html()
	if err != nil {
		return "", &FormatError{Kind: MalformedHTML, Err: err}
	}
	return out, nil
}

func (p *Passthrough) stripChrome(doc *goquery.Document) {
	if len(p.rules.Remove) > 0 {
		doc.Find(strings.Join(p.rules.Remove, ", ")).Remove()
	}

	var chrome []*goquery.Selection
	doc.Find("*").Each(func(_ int, s *goquery.Selection) {
		switch goquery.NodeName(s) {
		case "html", "head", "body":
			return
		}
		class := strings.ToLower(s.AttrOr("class", ""))
		id := strings.ToLower(s.AttrOr("id", ""))
		for _, pattern := range p.rules.ChromePatterns {
			if strings.Contains(class, pattern) || strings.Contains(id, pattern) {
				chrome = append(chrome, s)
				return
			}
		}
	})
	for _, s := range chrome {
		s.Remove()
	}
}

// rewriteURLs points root-relative links at the upstream origin and gives
// protocol-relative links an explicit https scheme.
func rewriteURLs(doc *goquery.Document, origin string) {
	for _, attr := range []string{"href", "src", "action"} {
		doc.Find("[" + attr + "]").Each(func(_ int, s *goquery.Selection) {
			val, _ := s.Attr(attr)
			switch {
			case strings.HasPrefix(val, "//"):
				s.SetAttr(attr, "https:"+val)
			case strings.HasPrefix(val, "/"):
				s.SetAttr(attr, origin+val)
			}
		})
	}

	doc.Find("[style]").Each(func(_ int, s *goquery.Selection) {
		val, _ := s.Attr("style")
		s.SetAttr("style", cssRootURL.ReplaceAllString(val, "url(${1}"+origin+"/${2}"))
	})
	doc.Find("style").Each(func(_ int, s *goquery.Selection) {
		css := s.Text()
		if rewritten := cssRootURL.ReplaceAllString(css, "url(${1}"+origin+"/${2}"); rewritten != css {
			s.SetText(rewritten)
		}
	})
}

func (p *Passthrough) inject(doc *goquery.Document, provider types.ProviderType) {
	target := doc.Find("head").First()
	if target.Length() == 0 {
		target = doc.Find("body").First()
	}
	if target.Length() == 0 {
		target = doc.Selection
	}

	target.AppendHtml(noCacheMeta)
	target.AppendHtml(p.style(provider))
	if p.refreshSeconds > 0 {
		target.AppendHtml(fmt.Sprintf(`<script>setTimeout(function () { window.location.reload(); }, %d);</script>`, p.refreshSeconds*1000))
	}
}

func (p *Passthrough) style(provider types.ProviderType) string {
	var sb strings.Builder
	sb.WriteString("<style>\n")
	sb.WriteString(strings.Join(p.rules.HideSelectors(provider), ",\n"))
	sb.WriteString(" {\n  display: none !important;\n}\n")
	sb.WriteString("body {\n  margin: 0;\n  padding: 0;\n  overflow-x: hidden;\n}\n")
	sb.WriteString("</style>")
	return sb.String()
}

func originOf(candidates ...string) (string, error) {
	for _, raw := range candidates {
		if raw == "" {
			continue
		}
		u, err := url.Parse(raw)
		if err != nil || u.Host == "" {
			continue
		}
		return u.Scheme + "://" + u.Host, nil
	}
	return "", fmt.Errorf("no usable origin in %q", candidates)
}
