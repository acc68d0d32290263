package data

import "github.com/jack-barr3tt/board-proxy/src/common/types"

const BuiltinSource = "builtin"

// Builtin returns the fixed fallback directory used when no station source is
// available: 2 IT, 3 NL, 5 DE, 2 CH, 5 UK and 3 FR stations.
func Builtin() *Directory {
	return NewDirectory(builtinStations, BuiltinSource)
}

var builtinStations = []types.Station{
	{Country: "IT", Code: "1728", Name: "Milano Centrale", City: "Milan", Slug: "milano-centrale", Type: types.ProviderRFI,
		URL: "https://iechub.rfi.it/ArriviPartenze/en/ArrivalsDepartures/Monitor?Arrivals=False&PlaceId=1728"},
	{Country: "IT", Code: "1802", Name: "Roma Termini", City: "Rome", Slug: "roma-termini", Type: types.ProviderRFI,
		URL: "https://iechub.rfi.it/ArriviPartenze/en/ArrivalsDepartures/Monitor?Arrivals=False&PlaceId=1802"},

	{Country: "NL", Code: "ASD", Name: "Amsterdam Centraal", City: "Amsterdam", Slug: "amsterdam-centraal", Type: types.ProviderNS,
		URL: "https://www.ns.nl/reisinformatie/externe-schermen/treinen/vertrektijden?stationId=ASD&columns=1"},
	{Country: "NL", Code: "RTD", Name: "Rotterdam Centraal", City: "Rotterdam", Slug: "rotterdam-centraal", Type: types.ProviderNS,
		URL: "https://www.ns.nl/reisinformatie/externe-schermen/treinen/vertrektijden?stationId=RTD&columns=1"},
	{Country: "NL", Code: "UT", Name: "Utrecht Centraal", City: "Utrecht", Slug: "utrecht-centraal", Type: types.ProviderNS,
		URL: "https://www.ns.nl/reisinformatie/externe-schermen/treinen/vertrektijden?stationId=UT&columns=1"},

	{Country: "DE", Code: "8011160", Name: "Berlin Hauptbahnhof", NameEn: "Berlin Central Station", City: "Berlin", Slug: "berlin-hauptbahnhof", Type: types.ProviderDB,
		URL: "https://reiseauskunft.bahn.de/bin/bhftafel.exe/dn?input=Berlin%20Hbf&boardType=dep&time=actual&start=yes"},
	{Country: "DE", Code: "8000261", Name: "München Hauptbahnhof", NameEn: "Munich Central Station", City: "Munich", Slug: "munchen-hauptbahnhof", Type: types.ProviderDB,
		URL: "https://reiseauskunft.bahn.de/bin/bhftafel.exe/dn?input=M%C3%BCnchen%20Hbf&boardType=dep&time=actual&start=yes"},
	{Country: "DE", Code: "8000105", Name: "Frankfurt Hauptbahnhof", NameEn: "Frankfurt Central Station", City: "Frankfurt", Slug: "frankfurt-hauptbahnhof", Type: types.ProviderDB,
		URL: "https://reiseauskunft.bahn.de/bin/bhftafel.exe/dn?input=Frankfurt(Main)Hbf&boardType=dep&time=actual&start=yes"},
	{Country: "DE", Code: "8002549", Name: "Hamburg Hauptbahnhof", NameEn: "Hamburg Central Station", City: "Hamburg", Slug: "hamburg-hauptbahnhof", Type: types.ProviderDB,
		URL: "https://reiseauskunft.bahn.de/bin/bhftafel.exe/dn?input=Hamburg%20Hbf&boardType=dep&time=actual&start=yes"},
	{Country: "DE", Code: "8000207", Name: "Köln Hauptbahnhof", NameEn: "Cologne Central Station", City: "Cologne", Slug: "koln-hauptbahnhof", Type: types.ProviderDB,
		URL: "https://reiseauskunft.bahn.de/bin/bhftafel.exe/dn?input=K%C3%B6ln%20Hbf&boardType=dep&time=actual&start=yes"},

	{Country: "CH", Code: "8503000", Name: "Zürich HB", NameEn: "Zurich Main Station", City: "Zurich", Slug: "zurich-hb", Type: types.ProviderSBB,
		URL: "https://transport.opendata.ch/v1/stationboard?id=8503000&limit=20"},
	{Country: "CH", Code: "8501008", Name: "Genève", NameEn: "Geneva", City: "Geneva", Slug: "geneve", Type: types.ProviderSBB,
		URL: "https://transport.opendata.ch/v1/stationboard?id=8501008&limit=20"},

	{Country: "UK", Code: "EUS", Name: "London Euston", City: "London", Slug: "london-euston", Type: types.ProviderNationalRail,
		URL: "https://ojp.nationalrail.co.uk/service/ldbboard/dep/EUS"},
	{Country: "UK", Code: "VIC", Name: "London Victoria", City: "London", Slug: "london-victoria", Type: types.ProviderNationalRail,
		URL: "https://ojp.nationalrail.co.uk/service/ldbboard/dep/VIC"},
	{Country: "UK", Code: "KGX", Name: "London Kings Cross", City: "London", Slug: "london-kings-cross", Type: types.ProviderNationalRail,
		URL: "https://ojp.nationalrail.co.uk/service/ldbboard/dep/KGX"},
	{Country: "UK", Code: "MAN", Name: "Manchester Piccadilly", City: "Manchester", Slug: "manchester-piccadilly", Type: types.ProviderNationalRail,
		URL: "https://ojp.nationalrail.co.uk/service/ldbboard/dep/MAN"},
	{Country: "UK", Code: "BHM", Name: "Birmingham New Street", City: "Birmingham", Slug: "birmingham-new-street", Type: types.ProviderNationalRail,
		URL: "https://ojp.nationalrail.co.uk/service/ldbboard/dep/BHM"},

	{Country: "FR", Code: "frpst", Name: "Paris Gare du Nord", City: "Paris", Slug: "paris-gare-du-nord", Type: types.ProviderSNCF,
		URL: "https://www.garesetconnexions.sncf/fr/gare/frpst/paris-gare-du-nord/departs"},
	{Country: "FR", Code: "frply", Name: "Paris Gare de Lyon", City: "Paris", Slug: "paris-gare-de-lyon", Type: types.ProviderSNCF,
		URL: "https://www.garesetconnexions.sncf/fr/gare/frply/paris-gare-de-lyon/departs"},
	{Country: "FR", Code: "frlpd", Name: "Lyon Part-Dieu", City: "Lyon", Slug: "lyon-part-dieu", Type: types.ProviderSNCF,
		URL: "https://www.garesetconnexions.sncf/fr/gare/frlpd/lyon-part-dieu/departs"},
}
