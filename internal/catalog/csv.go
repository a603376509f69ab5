// Package catalog loads station metadata from the stations CSV file used to
// seed the store's catalog table.
package catalog

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/glslr/levels-etl/internal/domain"
)

// LoadCSV reads a stations file with columns id, provider, name and an
// optional cd (chart datum to IGLD correction, metres). Station IDs stay
// strings so leading zeros survive.
func LoadCSV(path string) (domain.Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return domain.Catalog{}, fmt.Errorf("open stations file: %w", err)
	}
	defer f.Close()

	return parse(f)
}

func parse(r io.Reader) (domain.Catalog, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return domain.Catalog{}, fmt.Errorf("read stations header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{"id", "provider", "name"} {
		if _, ok := cols[required]; !ok {
			return domain.Catalog{}, fmt.Errorf("stations file missing %q column", required)
		}
	}

	var cat domain.Catalog
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return domain.Catalog{}, fmt.Errorf("read stations line %d: %w", line, err)
		}

		stn := domain.Station{
			ID:       strings.TrimSpace(rec[cols["id"]]),
			Provider: domain.Provider(strings.TrimSpace(rec[cols["provider"]])),
			Name:     strings.TrimSpace(rec[cols["name"]]),
		}
		if stn.ID == "" {
			return domain.Catalog{}, fmt.Errorf("stations line %d: empty id", line)
		}
		if !stn.Provider.Valid() {
			return domain.Catalog{}, fmt.Errorf("stations line %d: unknown provider %q", line, stn.Provider)
		}
		if i, ok := cols["cd"]; ok && i < len(rec) {
			if raw := strings.TrimSpace(rec[i]); raw != "" {
				cd, err := strconv.ParseFloat(raw, 64)
				if err != nil {
					return domain.Catalog{}, fmt.Errorf("stations line %d: bad cd %q", line, raw)
				}
				stn.DatumCorrection = &cd
			}
		}
		cat.Stations = append(cat.Stations, stn)
	}
	return cat, nil
}
