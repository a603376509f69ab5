package chs

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glslr/levels-etl/internal/domain"
	"github.com/glslr/levels-etl/internal/observability"
)

// fakeCaller serves getMetadata and search from canned data. Searches return
// one value per hour across the requested window, generated by values.
type fakeCaller struct {
	stationList string
	values      func(stamp time.Time) float64

	searches []searchRequest
}

func (f *fakeCaller) Call(_ context.Context, action string, request, response any) error {
	switch action {
	case "getMetadata":
		resp := response.(*metadataResponse)
		resp.Items = []metadataItem{{Name: "station_id_list", Value: f.stationList}}
	case "search":
		req := request.(searchRequest)
		f.searches = append(f.searches, req)
		resp := response.(*searchResponse)

		from, err := time.Parse(dateLayout, req.DateMin)
		if err != nil {
			return err
		}
		to, err := time.Parse(dateLayout, req.DateMax)
		if err != nil {
			return err
		}
		for cur := from; !cur.After(to); cur = cur.Add(time.Hour) {
			resp.Data = append(resp.Data, waterLevel{
				BoundaryDateMax: cur.Format(dateLayout),
				Value:           f.values(cur),
			})
		}
	}
	return nil
}

func newTestClient(f *fakeCaller) *Client {
	return &Client{
		soap:       f,
		normalizer: domain.NewNormalizer(0),
		logger:     slog.Default(),
		metrics:    observability.NewMetricsForTesting(),
	}
}

var rampStart = time.Date(2020, time.May, 1, 0, 0, 0, 0, time.UTC)

// ramp rises one centimetre per hour, which survives every filter pass.
func ramp(t time.Time) float64 {
	return 70.0 + t.Sub(rampStart).Hours()*0.01
}

func TestFetch_RejectsMalformedStationID(t *testing.T) {
	f := &fakeCaller{stationList: "15930"}
	c := newTestClient(f)

	for _, id := range []string{"", "1593", "159300", "15a30"} {
		_, err := c.Fetch(context.Background(), domain.Station{ID: id, Provider: domain.ProviderCHS},
			rampStart, rampStart.Add(time.Hour), domain.TimestepHourly)
		assert.ErrorIs(t, err, domain.ErrInvalidStationID, "id %q", id)
	}
	assert.Empty(t, f.searches, "validation should run before any request")
}

func TestFetch_StationNotServed(t *testing.T) {
	f := &fakeCaller{stationList: "11111, 22222"}
	c := newTestClient(f)

	_, err := c.Fetch(context.Background(), domain.Station{ID: "33333", Provider: domain.ProviderCHS},
		rampStart, rampStart.Add(time.Hour), domain.TimestepHourly)

	assert.ErrorIs(t, err, domain.ErrStationUnavailable)
	assert.Empty(t, f.searches)
}

func TestFetch_StitchesWindowsIntoContinuousSeries(t *testing.T) {
	f := &fakeCaller{stationList: "15930", values: ramp}
	c := newTestClient(f)

	// A three-day range runs four 1-day windows, with shared boundary hours.
	end := rampStart.Add(72 * time.Hour)
	series, err := c.Fetch(context.Background(), domain.Station{ID: "15930", Provider: domain.ProviderCHS},
		rampStart, end, domain.TimestepHourly)

	require.NoError(t, err)
	require.Len(t, f.searches, 4)

	obs := series.Observations()
	require.NotEmpty(t, obs)

	// Every hour present exactly once, no gaps across window boundaries.
	for i := 1; i < len(obs); i++ {
		assert.Equal(t, time.Hour, obs[i].Time.Sub(obs[i-1].Time),
			"gap between %v and %v", obs[i-1].Time, obs[i].Time)
	}

	// Stored timestamps sit on the fixed Eastern base, five hours behind the
	// UTC observation time, and keep the observed value.
	for _, o := range obs {
		assert.False(t, o.Rejected())
		assert.InDelta(t, ramp(o.Time.Add(5*time.Hour)), o.Value, 1e-9, "at %v", o.Time)
	}

	// The request range bounds the output.
	assert.False(t, obs[0].Time.Before(rampStart))
	assert.False(t, obs[len(obs)-1].Time.After(end))
}

func TestOnGrid(t *testing.T) {
	tests := []struct {
		stamp string
		step  domain.Timestep
		want  bool
	}{
		{"2020-05-01 12:00:00", domain.TimestepHourly, true},
		{"2020-05-01 12:03:00", domain.TimestepHourly, false},
		{"2020-05-01 12:45:00", domain.TimestepHourly, false},
		{"2020-05-01 00:00:00", domain.TimestepDaily, true},
		{"2020-05-01 12:03:00", domain.TimestepDaily, false},
		{"2020-05-01 12:15:00", domain.Timestep15Min, true},
		{"2020-05-01 12:30:00", domain.Timestep15Min, true},
		{"2020-05-01 12:45:00", domain.Timestep15Min, true},
		{"2020-05-01 12:03:00", domain.Timestep15Min, false},
		{"2020-05-01 12:03:00", domain.TimestepDefault, true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, onGrid(tt.stamp, tt.step), "%s at %s", tt.stamp, tt.step)
	}
}

func TestFetch_AppliesDatumCorrection(t *testing.T) {
	f := &fakeCaller{stationList: "15930", values: ramp}
	c := newTestClient(f)
	cd := 0.5
	stn := domain.Station{ID: "15930", Provider: domain.ProviderCHS, DatumCorrection: &cd}

	series, err := c.Fetch(context.Background(), stn, rampStart, rampStart.Add(12*time.Hour), domain.TimestepHourly)

	require.NoError(t, err)
	require.NotZero(t, series.Len())
	for _, o := range series.Observations() {
		assert.InDelta(t, ramp(o.Time.Add(5*time.Hour))+cd, o.Value, 1e-9, "at %v", o.Time)
	}
}

func TestFetch_DailyExtendsRangeByOneDay(t *testing.T) {
	f := &fakeCaller{stationList: "15930", values: ramp}
	c := newTestClient(f)

	end := rampStart.Add(48 * time.Hour)
	series, err := c.Fetch(context.Background(), domain.Station{ID: "15930", Provider: domain.ProviderCHS},
		rampStart, end, domain.TimestepDaily)

	require.NoError(t, err)
	// One extra window beyond the hourly case covers the final day's hours.
	assert.Len(t, f.searches, 4)
	for _, o := range series.Observations() {
		h, m, s := o.Time.Clock()
		assert.Zero(t, h+m+s, "daily values should be keyed to midnight, got %v", o.Time)
	}
}

func TestFetch_SearchRequestShape(t *testing.T) {
	f := &fakeCaller{stationList: "15930", values: ramp}
	c := newTestClient(f)

	_, err := c.Fetch(context.Background(), domain.Station{ID: "15930", Provider: domain.ProviderCHS},
		rampStart, rampStart.Add(time.Hour), domain.TimestepHourly)

	require.NoError(t, err)
	require.NotEmpty(t, f.searches)
	req := f.searches[0]
	assert.Equal(t, "wl", req.DataName)
	assert.Equal(t, "station_id=15930::vl=1+", req.MetadataSelection)
	assert.Equal(t, 1000, req.SizeMax)
	assert.Equal(t, "asc", req.Order)
	assert.True(t, req.Metadata)
}
