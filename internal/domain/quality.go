package domain

import "math"

const (
	// maxStepChange is the largest plausible level change between two
	// consecutive readings, in metres.
	maxStepChange = 2.5
	// outlierSigmas bounds retained values to mean +/- outlierSigmas*stdev.
	outlierSigmas = 4.0
)

// FilterStats counts the values rejected by each cleaning pass.
type FilterStats struct {
	Stalled  int // repeated-value suppression
	Jumps    int // single-step jump guard
	Outliers int // statistical bound
}

// Total returns the number of values rejected across all passes.
func (f FilterStats) Total() int {
	return f.Stalled + f.Jumps + f.Outliers
}

// CleanSeries runs the quality filter over a CHS series and returns a new,
// masked series plus rejection counts. The input is not modified.
//
// The passes run sequentially and a later pass never restores a value nulled
// by an earlier one. The outlier bound uses mean and sample stdev computed
// before any filtering, not recomputed between passes. Filtering is
// best-effort: an empty or degenerate series comes back as-is.
func CleanSeries(s *Series) (*Series, FilterStats) {
	var stats FilterStats
	out := s.Clone()
	if s.Len() == 0 {
		return out, stats
	}

	mean, stdev, _ := s.stats()

	// Pass 1: reject values unchanged from both one and two steps back.
	// Catches runs of three or more identical readings, the signature of a
	// stalled sensor. Both lag conditions must hold; the second value of a
	// pair of repeats survives.
	orig := s.Observations()
	for i := 2; i < len(orig); i++ {
		if orig[i].Rejected() || orig[i-1].Rejected() || orig[i-2].Rejected() {
			continue
		}
		if orig[i].Value == orig[i-1].Value && orig[i].Value == orig[i-2].Value {
			out.obs[i].Value = math.NaN()
			stats.Stalled++
		}
	}

	// Pass 2: reject single-step jumps beyond +/- maxStepChange, measured
	// against the pass-1 result. A rejected predecessor leaves the step
	// undefined, so the value is kept.
	afterStall := out.Clone()
	for i := 1; i < afterStall.Len(); i++ {
		cur, prev := afterStall.obs[i], afterStall.obs[i-1]
		if cur.Rejected() || prev.Rejected() {
			continue
		}
		if d := cur.Value - prev.Value; d > maxStepChange || d < -maxStepChange {
			out.obs[i].Value = math.NaN()
			stats.Jumps++
		}
	}

	// Pass 3: reject values outside the pre-filter statistical band. Skipped
	// when the series is too short to carry a meaningful stdev.
	if !math.IsNaN(stdev) {
		lo, hi := mean-outlierSigmas*stdev, mean+outlierSigmas*stdev
		for i := range out.obs {
			if out.obs[i].Rejected() {
				continue
			}
			if v := out.obs[i].Value; v > hi || v < lo {
				out.obs[i].Value = math.NaN()
				stats.Outliers++
			}
		}
	}

	return out, stats
}
