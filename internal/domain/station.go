package domain

// Provider identifies which upstream service serves a station.
type Provider string

const (
	ProviderCHS  Provider = "CHS"
	ProviderNOAA Provider = "NOAA"
)

// Valid reports whether p is one of the two known providers.
func (p Provider) Valid() bool {
	return p == ProviderCHS || p == ProviderNOAA
}

// Station describes one monitoring station from the catalog.
type Station struct {
	// ID is the provider-specific identifier: 5 digits for CHS,
	// 7 digits for NOAA. It also names the station's table in the store.
	ID       string
	Provider Provider
	Name     string
	// DatumCorrection converts local chart datum to IGLD when added to a
	// level. Only CHS stations carry one; nil means no correction.
	DatumCorrection *float64
}

// Catalog is the set of stations driving a fetch run. It is loaded once and
// not mutated while the run is in progress.
type Catalog struct {
	Stations []Station
}

// Len returns the number of stations in the catalog.
func (c Catalog) Len() int {
	return len(c.Stations)
}
