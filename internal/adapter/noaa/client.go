// Package noaa fetches water levels from the NOAA CO-OPS raw six-minute
// water-level web service.
package noaa

import (
	"context"
	"encoding/xml"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"github.com/glslr/levels-etl/internal/adapter/soap"
	"github.com/glslr/levels-etl/internal/domain"
	"github.com/glslr/levels-etl/internal/observability"
)

// The service accepts ranges up to around a month; requests go out in
// 30-day windows.
const windowSize = 30 * 24 * time.Hour

// stampLayout matches the service's timestamps, e.g. "2020-05-02 13:06:00.0".
const stampLayout = "2006-01-02 15:04:05.0"

var stationIDPattern = regexp.MustCompile(`^\d{7}$`)

// caller abstracts the SOAP transport so tests can serve canned windows.
type caller interface {
	Call(ctx context.Context, action string, request, response any) error
}

// Client fetches NOAA water-level series.
type Client struct {
	soap    caller
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewClient creates a NOAA client against baseURL.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Client {
	return &Client{
		soap:    soap.NewClient("noaa", baseURL, timeout),
		logger:  logger,
		metrics: metrics,
	}
}

// Fetch retrieves and resamples water levels for one NOAA station over
// [start, end). Levels are requested directly in IGLD metres and local
// standard time, so neither a datum correction nor the quality filter
// applies on this path.
func (c *Client) Fetch(ctx context.Context, stn domain.Station, start, end time.Time, step domain.Timestep) (*domain.Series, error) {
	if !stationIDPattern.MatchString(stn.ID) {
		return nil, fmt.Errorf("%w: NOAA station id must be a 7-digit string, got %q", domain.ErrInvalidStationID, stn.ID)
	}

	series := domain.NewSeries()
	for cur := start; cur.Before(end); {
		winEnd := cur.Add(windowSize)
		if winEnd.After(end) {
			winEnd = end
		}
		if err := c.fetchWindow(ctx, stn.ID, cur, winEnd, series); err != nil {
			return nil, err
		}
		c.metrics.FetchWindows.WithLabelValues(string(domain.ProviderNOAA)).Inc()
		cur = winEnd
	}

	return domain.ResampleNOAA(series, step), nil
}

func (c *Client) fetchWindow(ctx context.Context, stationID string, from, to time.Time, series *domain.Series) error {
	req := rawSixMinRequest{
		StationID: stationID,
		BeginDate: from.Format("20060102"),
		EndDate:   to.Format("20060102"),
		Datum:     "IGLD",
		Unit:      0, // metres
		TimeZone:  1, // local standard time
	}

	c.logger.Debug("fetching NOAA window", "station", stationID, "from", req.BeginDate, "to", req.EndDate)

	var resp rawSixMinResponse
	if err := c.soap.Call(ctx, "getWaterLevelRawSixMin", req, &resp); err != nil {
		return fmt.Errorf("getWaterLevelRawSixMin %s [%s, %s]: %w", stationID, req.BeginDate, req.EndDate, err)
	}

	for _, rec := range resp.Items {
		observed, err := time.Parse(stampLayout, rec.TimeStamp)
		if err != nil {
			return fmt.Errorf("parse NOAA timestamp %q: %w", rec.TimeStamp, err)
		}
		series.Set(observed, rec.WL)
	}
	return nil
}

// Wire types for the raw six-minute water-level service.

type rawSixMinRequest struct {
	XMLName   xml.Name `xml:"getWaterLevelRawSixMin"`
	StationID string   `xml:"stationId"`
	BeginDate string   `xml:"beginDate"`
	EndDate   string   `xml:"endDate"`
	Datum     string   `xml:"datum"`
	Unit      int      `xml:"unit"`
	TimeZone  int      `xml:"timeZone"`
}

type rawSixMinResponse struct {
	XMLName xml.Name        `xml:"getWaterLevelRawSixMinResponse"`
	Items   []rawSixMinItem `xml:"return>item"`
}

type rawSixMinItem struct {
	TimeStamp string  `xml:"timeStamp"`
	WL        float64 `xml:"WL"`
}
