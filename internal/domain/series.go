package domain

import (
	"math"
	"sort"
	"time"
)

// Timestep selects the temporal resolution of a fetched series.
type Timestep string

const (
	// TimestepDefault returns the provider's native resolution
	// (3-minute for CHS, 6-minute for NOAA) with no resampling.
	TimestepDefault Timestep = "default"
	TimestepHourly  Timestep = "hourly"
	TimestepDaily   Timestep = "daily"
	// Timestep15Min is only honoured by the CHS adapter.
	Timestep15Min Timestep = "15-min"
)

// Observation is a single timestamped water level in metres.
// A NaN value marks a reading rejected by the quality filter, which is
// distinct from the timestamp being absent from the series altogether.
type Observation struct {
	Time  time.Time
	Value float64
}

// Rejected reports whether the observation was nulled by the quality filter.
func (o Observation) Rejected() bool {
	return math.IsNaN(o.Value)
}

// Series is an ordered water-level time series for exactly one station.
// Observations are kept sorted by time ascending with at most one value per
// timestamp; setting an existing timestamp replaces its value.
type Series struct {
	obs []Observation
}

// NewSeries returns an empty series.
func NewSeries() *Series {
	return &Series{}
}

// Set inserts or replaces the value at t, keeping the series ordered.
func (s *Series) Set(t time.Time, value float64) {
	i := sort.Search(len(s.obs), func(i int) bool {
		return !s.obs[i].Time.Before(t)
	})
	if i < len(s.obs) && s.obs[i].Time.Equal(t) {
		s.obs[i].Value = value
		return
	}
	s.obs = append(s.obs, Observation{})
	copy(s.obs[i+1:], s.obs[i:])
	s.obs[i] = Observation{Time: t, Value: value}
}

// At returns the value at t and whether the timestamp is present.
func (s *Series) At(t time.Time) (float64, bool) {
	i := sort.Search(len(s.obs), func(i int) bool {
		return !s.obs[i].Time.Before(t)
	})
	if i < len(s.obs) && s.obs[i].Time.Equal(t) {
		return s.obs[i].Value, true
	}
	return 0, false
}

// Len returns the number of observations, including rejected ones.
func (s *Series) Len() int {
	return len(s.obs)
}

// Observations returns the observations in time order. The slice is shared;
// callers must not modify it.
func (s *Series) Observations() []Observation {
	return s.obs
}

// Slice returns a new series restricted to [start, end], both inclusive.
func (s *Series) Slice(start, end time.Time) *Series {
	out := NewSeries()
	for _, o := range s.obs {
		if o.Time.Before(start) || o.Time.After(end) {
			continue
		}
		out.obs = append(out.obs, o)
	}
	return out
}

// Shift adds delta to every retained value. Rejected values stay NaN.
func (s *Series) Shift(delta float64) {
	for i := range s.obs {
		if !s.obs[i].Rejected() {
			s.obs[i].Value += delta
		}
	}
}

// Clone returns a deep copy of the series.
func (s *Series) Clone() *Series {
	out := &Series{obs: make([]Observation, len(s.obs))}
	copy(out.obs, s.obs)
	return out
}

// stats returns mean and sample standard deviation over retained values,
// plus how many retained values there are. With fewer than two retained
// values the standard deviation is NaN.
func (s *Series) stats() (mean, stdev float64, n int) {
	var sum float64
	for _, o := range s.obs {
		if o.Rejected() {
			continue
		}
		sum += o.Value
		n++
	}
	if n == 0 {
		return math.NaN(), math.NaN(), 0
	}
	mean = sum / float64(n)
	if n < 2 {
		return mean, math.NaN(), n
	}
	var ss float64
	for _, o := range s.obs {
		if o.Rejected() {
			continue
		}
		d := o.Value - mean
		ss += d * d
	}
	return mean, math.Sqrt(ss / float64(n-1)), n
}
