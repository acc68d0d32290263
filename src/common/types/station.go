package types

import "strings"

type ProviderType string

const (
	ProviderRFI          ProviderType = "RFI"
	ProviderNS           ProviderType = "NS"
	ProviderDB           ProviderType = "DB"
	ProviderOBB          ProviderType = "OBB"
	ProviderSBB          ProviderType = "SBB"
	ProviderNationalRail ProviderType = "NationalRail"
	ProviderSNCF         ProviderType = "SNCF"
	ProviderRENFE        ProviderType = "RENFE"
	ProviderPKP          ProviderType = "PKP"
)

var knownProviders = map[ProviderType]bool{
	ProviderRFI:          true,
	ProviderNS:           true,
	ProviderDB:           true,
	ProviderOBB:          true,
	ProviderSBB:          true,
	ProviderNationalRail: true,
	ProviderSNCF:         true,
	ProviderRENFE:        true,
	ProviderPKP:          true,
}

func (p ProviderType) Known() bool {
	return knownProviders[p]
}

type Station struct {
	Country string       `json:"country"`
	Code    string       `json:"code"`
	Name    string       `json:"name"`
	NameEn  string       `json:"nameEn,omitempty"`
	City    string       `json:"city"`
	Slug    string       `json:"slug"`
	Type    ProviderType `json:"type"`
	URL     string       `json:"url"`
}

// Matches reports whether the lower-cased term occurs in any searchable field.
func (s Station) Matches(term string) bool {
	return strings.Contains(strings.ToLower(s.Name), term) ||
		strings.Contains(strings.ToLower(s.NameEn), term) ||
		strings.Contains(strings.ToLower(s.City), term) ||
		strings.Contains(strings.ToLower(s.Slug), term) ||
		strings.Contains(strings.ToLower(s.Code), term)
}

// StationFile is the object form of the stations file. A bare array is accepted too.
type StationFile struct {
	LastUpdated   string         `json:"lastUpdated,omitempty"`
	TotalStations int            `json:"totalStations,omitempty"`
	Countries     map[string]int `json:"countries,omitempty"`
	Stations      []Station      `json:"stations"`
}
