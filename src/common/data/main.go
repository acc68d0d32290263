package data

import (
	"strings"

	"github.com/jack-barr3tt/board-proxy/src/common/types"
)

// Directory is an immutable, ordered set of stations with derived lookup
// indexes. It is safe for concurrent readers.
type Directory struct {
	stations  []types.Station
	bySlug    map[string]int
	byCode    map[string]int
	countries map[string]int
	source    string
}

// NewDirectory indexes stations in order. On duplicate slugs or codes the
// first occurrence wins; Validate reports duplicates as load errors.
func NewDirectory(stations []types.Station, source string) *Directory {
	d := &Directory{
		stations:  make([]types.Station, len(stations)),
		bySlug:    make(map[string]int, len(stations)),
		byCode:    make(map[string]int, len(stations)),
		countries: make(map[string]int),
		source:    source,
	}
	copy(d.stations, stations)

	for i, st := range d.stations {
		slug := strings.ToLower(st.Slug)
		if _, exists := d.bySlug[slug]; !exists {
			d.bySlug[slug] = i
		}
		code := strings.ToLower(st.Code)
		if _, exists := d.byCode[code]; !exists {
			d.byCode[code] = i
		}
		d.countries[strings.ToUpper(st.Country)]++
	}

	return d
}

func (d *Directory) FindBySlugOrCode(identifier string) (types.Station, bool) {
	key := strings.ToLower(strings.TrimSpace(identifier))
	if key == "" {
		return types.Station{}, false
	}
	if i, ok := d.bySlug[key]; ok {
		return d.stations[i], true
	}
	if i, ok := d.byCode[key]; ok {
		return d.stations[i], true
	}
	return types.Station{}, false
}

// Search returns stations whose name, English name, city, slug or code contain
// query, in directory order. limit <= 0 means no cap.
func (d *Directory) Search(query string, limit int) []types.Station {
	term := strings.ToLower(strings.TrimSpace(query))
	if term == "" {
		return []types.Station{}
	}

	results := []types.Station{}
	for _, st := range d.stations {
		if !st.Matches(term) {
			continue
		}
		results = append(results, st)
		if limit > 0 && len(results) >= limit {
			break
		}
	}
	return results
}

func (d *Directory) List(country string) []types.Station {
	country = strings.TrimSpace(country)
	results := make([]types.Station, 0, len(d.stations))
	for _, st := range d.stations {
		if country == "" || strings.EqualFold(st.Country, country) {
			results = append(results, st)
		}
	}
	return results
}

func (d *Directory) Len() int {
	return len(d.stations)
}

func (d *Directory) Countries() map[string]int {
	out := make(map[string]int, len(d.countries))
	for k, v := range d.countries {
		out[k] = v
	}
	return out
}

func (d *Directory) Source() string {
	return d.source
}
