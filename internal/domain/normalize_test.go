package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartupUTCOffset(t *testing.T) {
	est := time.FixedZone("EST", -5*60*60)
	now := time.Date(2020, time.May, 2, 12, 0, 0, 0, est)

	assert.Equal(t, 5*time.Hour, StartupUTCOffset(now))

	utc := time.Date(2020, time.May, 2, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Duration(0), StartupUTCOffset(utc))
}

func TestNormalizer_ShiftToUTC(t *testing.T) {
	n := NewNormalizer(5 * time.Hour)
	in := time.Date(2020, time.May, 2, 12, 0, 0, 0, time.Local)

	got := n.ShiftToUTC(in)

	assert.Equal(t, time.Date(2020, time.May, 2, 17, 0, 0, 0, time.UTC), got)
}

func TestNormalizer_ToUTC(t *testing.T) {
	n := NewNormalizer(5 * time.Hour)

	t.Run("utc passes through", func(t *testing.T) {
		in := time.Date(2020, time.May, 2, 12, 0, 0, 0, time.UTC)
		assert.Equal(t, in, n.ToUTC(in))
	})

	t.Run("local wall clock is shifted", func(t *testing.T) {
		in := time.Date(2020, time.May, 2, 12, 0, 0, 0, time.Local)
		assert.Equal(t, time.Date(2020, time.May, 2, 17, 0, 0, 0, time.UTC), n.ToUTC(in))
	})

	t.Run("other zones are relabelled, not converted", func(t *testing.T) {
		// Matches the historical loader: a zone-aware timestamp keeps its
		// wall clock and only has the zone replaced.
		cet := time.FixedZone("CET", 60*60)
		in := time.Date(2020, time.May, 2, 12, 0, 0, 0, cet)

		got := n.ToUTC(in)

		require.Equal(t, time.UTC, got.Location())
		assert.Equal(t, 12, got.Hour())
	})
}

func TestNormalizer_CorrectToUTC(t *testing.T) {
	n := NewNormalizer(5 * time.Hour)
	cet := time.FixedZone("CET", 60*60)
	in := time.Date(2020, time.May, 2, 12, 0, 0, 0, cet)

	got := n.CorrectToUTC(in)

	assert.Equal(t, 11, got.Hour(), "real conversion, unlike ToUTC")
}

func TestUTCToEastern(t *testing.T) {
	in := time.Date(2020, time.May, 2, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2020, time.May, 2, 7, 0, 0, 0, time.UTC), UTCToEastern(in))
}
