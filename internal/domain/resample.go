package domain

import (
	"math"
	"time"
)

// minHoursPerDay is how many hourly values a day needs before a CHS daily
// mean is trusted; thinner days are nulled rather than averaged.
const minHoursPerDay = 18

// ResampleCHS aggregates a CHS series to the requested timestep. Hourly
// output takes the first observation of each hour bucket. Daily output is the
// mean of a day's hourly values rounded to 2 decimals, nulled when fewer than
// minHoursPerDay hours carry data. Any other timestep returns the series
// unchanged. An empty series resamples to an empty series.
func ResampleCHS(s *Series, step Timestep) *Series {
	switch step {
	case TimestepHourly:
		return firstPerHour(s)
	case TimestepDaily:
		return dailyMeanMinHours(s)
	default:
		return s.Clone()
	}
}

// ResampleNOAA aggregates a NOAA 6-minute series to the requested timestep.
// Daily output follows the NOAA convention of attributing the hour-24 reading
// to the previous day, and always drops the current (incomplete) day. Any
// timestep other than hourly or daily returns the native 6-minute series
// unchanged.
func ResampleNOAA(s *Series, step Timestep) *Series {
	if step != TimestepHourly && step != TimestepDaily {
		return s.Clone()
	}
	hourly := firstPerHour(s)
	if step == TimestepHourly {
		return hourly
	}
	return dailyMeanShifted(hourly)
}

// firstPerHour keeps the earliest retained observation in each hour bucket,
// keyed at the bucket start. A bucket holding only rejected values yields a
// rejected entry.
func firstPerHour(s *Series) *Series {
	out := NewSeries()
	var bucket time.Time
	started := false
	chosen := math.NaN()
	flush := func() {
		if started {
			out.Set(bucket, chosen)
		}
	}
	for _, o := range s.Observations() {
		b := o.Time.Truncate(time.Hour)
		if !started || !b.Equal(bucket) {
			flush()
			bucket, chosen, started = b, math.NaN(), true
		}
		if math.IsNaN(chosen) && !o.Rejected() {
			chosen = o.Value
		}
	}
	flush()
	return out
}

// dailyMeanMinHours averages each calendar day's retained values, keyed at
// midnight, nulling days with fewer than minHoursPerDay of them.
func dailyMeanMinHours(s *Series) *Series {
	days, groups := groupByDay(s)
	out := NewSeries()
	for _, day := range days {
		g := groups[day]
		if g.n < minHoursPerDay {
			out.Set(day, math.NaN())
			continue
		}
		out.Set(day, round2(g.sum/float64(g.n)))
	}
	return out
}

// dailyMeanShifted averages an hourly series per calendar day after shifting
// values back by one hour, so the reading at hour 24 of a day counts toward
// that day rather than the next. Days on or after the clock's current date,
// taken on the series' fixed Eastern base, are dropped as incomplete.
func dailyMeanShifted(hourly *Series) *Series {
	obs := hourly.Observations()
	out := NewSeries()
	if len(obs) == 0 {
		return out
	}

	// Work over the complete hourly grid between the first and last
	// observation. A slot only ever receives the reading taken one hour
	// after it; a reading on the far side of a gap stays attached to its
	// own hour instead of sliding back across the gap.
	first := obs[0].Time.Truncate(time.Hour)
	last := obs[len(obs)-1].Time.Truncate(time.Hour)

	var days []time.Time
	groups := make(map[time.Time]*dayAgg)
	for cur := first; !cur.After(last); cur = cur.Add(time.Hour) {
		day := dateOf(cur)
		g, ok := groups[day]
		if !ok {
			g = &dayAgg{}
			groups[day] = g
			days = append(days, day)
		}
		if v, ok := hourly.At(cur.Add(time.Hour)); ok && !math.IsNaN(v) {
			g.sum += v
			g.n++
		}
	}

	today := dateOf(UTCToEastern(clock.Now().UTC()))
	for _, day := range days {
		if !day.Before(today) {
			continue
		}
		g := groups[day]
		if g.n == 0 {
			out.Set(day, math.NaN())
			continue
		}
		out.Set(day, round2(g.sum/float64(g.n)))
	}
	return out
}

type dayAgg struct {
	sum float64
	n   int
}

// groupByDay buckets retained values by calendar date, preserving first-seen
// day order.
func groupByDay(s *Series) ([]time.Time, map[time.Time]*dayAgg) {
	var days []time.Time
	groups := make(map[time.Time]*dayAgg)
	for _, o := range s.Observations() {
		day := dateOf(o.Time)
		g, ok := groups[day]
		if !ok {
			g = &dayAgg{}
			groups[day] = g
			days = append(days, day)
		}
		if !o.Rejected() {
			g.sum += o.Value
			g.n++
		}
	}
	return days, groups
}

func dateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func round2(v float64) float64 {
	if math.IsNaN(v) {
		return v
	}
	return math.Round(v*100) / 100
}
