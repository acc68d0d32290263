package data

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/jack-barr3tt/board-proxy/src/common/types"
	"go.uber.org/multierr"
)

// DataLoadError reports a station source that could not be used.
type DataLoadError struct {
	Source string
	Err    error
}

func (e *DataLoadError) Error() string {
	return fmt.Sprintf("load stations from %s: %v", e.Source, e.Err)
}

func (e *DataLoadError) Unwrap() error {
	return e.Err
}

// LoadFile reads and validates a stations file. A missing file yields an error
// wrapping fs.ErrNotExist so callers can fall back to Builtin.
func LoadFile(path string) (*Directory, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, &DataLoadError{Source: path, Err: err}
	}

	stations, err := Parse(raw)
	if err != nil {
		return nil, &DataLoadError{Source: path, Err: err}
	}

	if err := Validate(stations); err != nil {
		return nil, &DataLoadError{Source: path, Err: err}
	}

	return NewDirectory(stations, path), nil
}

// Parse accepts either a bare JSON array of stations or an object with a
// "stations" array.
func Parse(raw []byte) ([]types.Station, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("empty stations document")
	}

	if trimmed[0] == '[' {
		var stations []types.Station
		if err := json.Unmarshal(trimmed, &stations); err != nil {
			return nil, fmt.Errorf("decode stations array: %w", err)
		}
		return stations, nil
	}

	var file types.StationFile
	if err := json.Unmarshal(trimmed, &file); err != nil {
		return nil, fmt.Errorf("decode stations object: %w", err)
	}
	if file.Stations == nil {
		return nil, fmt.Errorf("stations document has no \"stations\" array")
	}
	return file.Stations, nil
}

// Validate checks required fields, provider types, source URLs and slug
// uniqueness. All problems are reported together.
func Validate(stations []types.Station) error {
	if len(stations) == 0 {
		return fmt.Errorf("no stations")
	}

	var err error
	seen := make(map[string]int, len(stations))

	for i, st := range stations {
		missing := []string{}
		for field, value := range map[string]string{
			"country": st.Country,
			"code":    st.Code,
			"name":    st.Name,
			"city":    st.City,
			"slug":    st.Slug,
			"type":    string(st.Type),
			"url":     st.URL,
		} {
			if strings.TrimSpace(value) == "" {
				missing = append(missing, field)
			}
		}
		if len(missing) > 0 {
			err = multierr.Append(err, fmt.Errorf("station %d (%q): missing %s", i, st.Slug, strings.Join(sortedFields(missing), ", ")))
			continue
		}

		if !st.Type.Known() {
			err = multierr.Append(err, fmt.Errorf("station %d (%q): unknown provider type %q", i, st.Slug, st.Type))
		}

		if u, perr := url.Parse(st.URL); perr != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			err = multierr.Append(err, fmt.Errorf("station %d (%q): invalid url %q", i, st.Slug, st.URL))
		}

		slug := strings.ToLower(st.Slug)
		if first, dup := seen[slug]; dup {
			err = multierr.Append(err, fmt.Errorf("station %d: duplicate slug %q (first seen at %d)", i, st.Slug, first))
		} else {
			seen[slug] = i
		}
	}

	return err
}

func sortedFields(fields []string) []string {
	order := []string{"country", "code", "name", "city", "slug", "type", "url"}
	set := make(map[string]bool, len(fields))
	for _, f := range fields {
		set[f] = true
	}
	out := make([]string, 0, len(fields))
	for _, f := range order {
		if set[f] {
			out = append(out, f)
		}
	}
	return out
}
