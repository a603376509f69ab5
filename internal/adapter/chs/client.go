// Package chs fetches water levels from the Canadian Hydrographic Service
// observations web service.
package chs

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/glslr/levels-etl/internal/adapter/soap"
	"github.com/glslr/levels-etl/internal/domain"
	"github.com/glslr/levels-etl/internal/observability"
)

const (
	// The service caps one search at 1000 rows. With 3-minute data that is
	// just over two days, so requests go out in 1-day windows.
	windowSize = 24 * time.Hour
	maxRows    = 1000

	// Bounding box covering the whole Great Lakes - St. Lawrence basin;
	// station selection happens through metadataSelection, not geography.
	latMin, latMax = 40.0, 51.0
	lonMin, lonMax = -93.5, -69.0

	dateLayout = "2006-01-02 15:04:00"
)

var stationIDPattern = regexp.MustCompile(`^\d{5}$`)

// caller abstracts the SOAP transport so tests can serve canned windows.
type caller interface {
	Call(ctx context.Context, action string, request, response any) error
}

// Client fetches CHS water-level series.
type Client struct {
	soap       caller
	normalizer *domain.Normalizer
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewClient creates a CHS client against baseURL.
func NewClient(baseURL string, timeout time.Duration, normalizer *domain.Normalizer, logger *slog.Logger, metrics *observability.Metrics) *Client {
	return &Client{
		soap:       soap.NewClient("chs", baseURL, timeout),
		normalizer: normalizer,
		logger:     logger,
		metrics:    metrics,
	}
}

// Fetch retrieves, cleans, and resamples water levels for one CHS station
// over [start, end]. The returned series is on the fixed Eastern Standard
// time base. The station's datum correction, when present, is added after
// resampling so stored levels are IGLD rather than chart datum.
func (c *Client) Fetch(ctx context.Context, stn domain.Station, start, end time.Time, step domain.Timestep) (*domain.Series, error) {
	if !stationIDPattern.MatchString(stn.ID) {
		return nil, fmt.Errorf("%w: CHS station id must be a 5-digit string, got %q", domain.ErrInvalidStationID, stn.ID)
	}

	available, err := c.stationList(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch CHS station list: %w", err)
	}
	if !available[stn.ID] {
		return nil, fmt.Errorf("%w: %s", domain.ErrStationUnavailable, stn.ID)
	}

	startUTC := c.normalizer.ToUTC(start)
	endUTC := c.normalizer.ToUTC(end)
	if step == domain.TimestepDaily {
		// A daily request often ends at midnight; pull one more day of
		// hours so the final day's mean is complete.
		endUTC = endUTC.Add(24 * time.Hour)
	}

	series := domain.NewSeries()
	for cur := startUTC; !cur.After(endUTC); cur = cur.Add(windowSize) {
		winEnd := cur.Add(windowSize)
		if winEnd.After(endUTC) {
			winEnd = endUTC
		}
		if err := c.fetchWindow(ctx, stn.ID, cur, winEnd, step, series); err != nil {
			return nil, err
		}
		c.metrics.FetchWindows.WithLabelValues(string(domain.ProviderCHS)).Inc()
	}

	series, stats := domain.CleanSeries(series)
	c.recordRejections(stn.ID, stats)

	series = domain.ResampleCHS(series, step)
	series = series.Slice(c.normalizer.RelabelUTC(start), c.normalizer.RelabelUTC(end))

	if stn.DatumCorrection != nil {
		series.Shift(*stn.DatumCorrection)
	}
	return series, nil
}

// fetchWindow runs one bounded search and merges matching records into series.
func (c *Client) fetchWindow(ctx context.Context, stationID string, from, to time.Time, step domain.Timestep, series *domain.Series) error {
	req := searchRequest{
		DataName:          "wl",
		LatitudeMin:       latMin,
		LatitudeMax:       latMax,
		LongitudeMin:      lonMin,
		LongitudeMax:      lonMax,
		DepthMin:          0,
		DepthMax:          0,
		DateMin:           from.Format(dateLayout),
		DateMax:           to.Format(dateLayout),
		Start:             1,
		SizeMax:           maxRows,
		Metadata:          true,
		// Selection criteria are ::-joined key=value pairs; vl is the
		// validation level.
		MetadataSelection: fmt.Sprintf("station_id=%s::vl=1+", stationID),
		Order:             "asc",
	}

	c.logger.Debug("fetching CHS window", "station", stationID, "from", req.DateMin, "to", req.DateMax)

	var resp searchResponse
	if err := c.soap.Call(ctx, "search", req, &resp); err != nil {
		return fmt.Errorf("search %s [%s, %s]: %w", stationID, req.DateMin, req.DateMax, err)
	}

	for _, rec := range resp.Data {
		if !onGrid(rec.BoundaryDateMax, step) {
			continue
		}
		observed, err := time.Parse(dateLayout, rec.BoundaryDateMax)
		if err != nil {
			return fmt.Errorf("parse CHS timestamp %q: %w", rec.BoundaryDateMax, err)
		}
		series.Set(domain.UTCToEastern(observed), rec.Value)
	}
	return nil
}

// stationList returns the station IDs the service currently serves. CHS does
// not carry every catalog station, so this gates each fetch.
func (c *Client) stationList(ctx context.Context) (map[string]bool, error) {
	var resp metadataResponse
	if err := c.soap.Call(ctx, "getMetadata", getMetadataRequest{}, &resp); err != nil {
		return nil, err
	}
	for _, item := range resp.Items {
		if item.Name == "station_id_list" {
			ids := make(map[string]bool)
			for _, id := range strings.Split(item.Value, ",") {
				ids[strings.TrimSpace(id)] = true
			}
			return ids, nil
		}
	}
	return nil, fmt.Errorf("metadata response missing station_id_list")
}

func (c *Client) recordRejections(stationID string, stats domain.FilterStats) {
	if stats.Total() == 0 {
		return
	}
	c.logger.Info("quality filter rejected values",
		"station", stationID,
		"stalled", stats.Stalled,
		"jumps", stats.Jumps,
		"outliers", stats.Outliers,
	)
	c.metrics.ValuesRejected.WithLabelValues("stalled").Add(float64(stats.Stalled))
	c.metrics.ValuesRejected.WithLabelValues("jump").Add(float64(stats.Jumps))
	c.metrics.ValuesRejected.WithLabelValues("outlier").Add(float64(stats.Outliers))
}

// onGrid reports whether a raw 3-minute timestamp lands on the grid implied
// by the requested timestep.
func onGrid(stamp string, step domain.Timestep) bool {
	switch step {
	case domain.TimestepHourly, domain.TimestepDaily:
		return strings.Contains(stamp, ":00:00")
	case domain.Timestep15Min:
		for _, grid := range []string{":00:00", ":15:00", ":30:00", ":45:00"} {
			if strings.Contains(stamp, grid) {
				return true
			}
		}
		return false
	default:
		return true
	}
}
