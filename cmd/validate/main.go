// Command validate performs integrity checks on a stations file before it is
// used to seed the catalog: station id formats per provider, duplicates, and
// datum-correction plausibility.
//
// Usage:
//
//	go run ./cmd/validate -stations stations.csv
package main

import (
	"flag"
	"fmt"
	"math"
	"os"
	"regexp"

	"github.com/glslr/levels-etl/internal/catalog"
	"github.com/glslr/levels-etl/internal/domain"
)

var (
	chsIDPattern  = regexp.MustCompile(`^\d{5}$`)
	noaaIDPattern = regexp.MustCompile(`^\d{7}$`)
)

// Corrections larger than this are almost certainly a unit mixup
// (centimetres or feet instead of metres).
const maxPlausibleCorrection = 10.0

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	stations := flag.String("stations", "stations.csv", "path to the stations CSV file")
	flag.Parse()

	os.Exit(run(*stations))
}

func run(path string) int {
	fmt.Println("=== Station Catalog Validation ===")
	fmt.Println()

	cat, err := catalog.LoadCSV(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load stations file: %v\n", err)
		return 1
	}

	phases := []*phase{
		validateIDs(cat),
		validateDatumCorrections(cat),
	}

	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Stations: %d total\n", cat.Len())

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// validateIDs checks each id against its provider's format and flags
// duplicates across the whole file.
func validateIDs(cat domain.Catalog) *phase {
	p := &phase{name: "Phase 1: Station IDs"}

	seen := map[string]int{}
	for i, stn := range cat.Stations {
		seen[stn.ID]++

		switch stn.Provider {
		case domain.ProviderCHS:
			if !chsIDPattern.MatchString(stn.ID) {
				p.errorf("station %d (%s): CHS ids are 5 digits, got %q", i, stn.Name, stn.ID)
			}
		case domain.ProviderNOAA:
			if !noaaIDPattern.MatchString(stn.ID) {
				p.errorf("station %d (%s): NOAA ids are 7 digits, got %q", i, stn.Name, stn.ID)
			}
		}
	}
	for id, n := range seen {
		if n > 1 {
			p.errorf("id %s appears %d times", id, n)
		}
	}
	return p
}

// validateDatumCorrections checks that corrections only appear where they
// apply and look like metres.
func validateDatumCorrections(cat domain.Catalog) *phase {
	p := &phase{name: "Phase 2: Datum Corrections"}

	for i, stn := range cat.Stations {
		cd := stn.DatumCorrection
		if cd == nil {
			continue
		}
		if stn.Provider == domain.ProviderNOAA {
			// NOAA levels are requested directly on IGLD; a correction
			// would be applied twice.
			p.errorf("station %d (%s): NOAA station carries cd=%g", i, stn.Name, *cd)
			continue
		}
		if math.IsNaN(*cd) || math.Abs(*cd) > maxPlausibleCorrection {
			p.errorf("station %d (%s): implausible cd=%g metres", i, stn.Name, *cd)
		}
	}
	return p
}
