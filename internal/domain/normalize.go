package domain

import "time"

// EasternStandardOffset shifts UTC to fixed Eastern Standard Time (UTC-5,
// no daylight saving). CHS timestamps are moved to this base before storage.
const EasternStandardOffset = -5 * time.Hour

// StartupUTCOffset returns the wall-clock delta between UTC and the zone of
// now, intended to be captured once at process start and handed to
// NewNormalizer. Adding the result to a local wall-clock reading yields UTC.
//
// Capturing the offset once reproduces the historical loader behaviour: every
// conversion reuses the daylight-saving status of process start, so
// timestamps on the far side of a DST boundary convert with the wrong offset.
// Use CorrectToUTC where that matters.
func StartupUTCOffset(now time.Time) time.Duration {
	_, secs := now.Zone()
	return -time.Duration(secs) * time.Second
}

// Normalizer converts request and provider timestamps to UTC using a fixed
// local-to-UTC offset decided at construction.
type Normalizer struct {
	utcOffset time.Duration
}

// NewNormalizer returns a Normalizer using the given local-to-UTC offset.
func NewNormalizer(utcOffset time.Duration) *Normalizer {
	return &Normalizer{utcOffset: utcOffset}
}

// ToUTC produces an unambiguous UTC timestamp from t.
//
// A time in the process-local zone is treated as a zone-less wall clock and
// shifted by the fixed offset. A time in any other non-UTC zone is only
// relabelled as UTC, without converting its wall clock; this mirrors the
// historical loader, which stamped aware timestamps rather than converting
// them. A UTC time is returned unchanged.
func (n *Normalizer) ToUTC(t time.Time) time.Time {
	switch t.Location() {
	case time.UTC:
		return t
	case time.Local:
		return n.ShiftToUTC(t)
	default:
		return n.RelabelUTC(t)
	}
}

// ShiftToUTC interprets t's wall clock as local standard time and shifts it
// to UTC by the fixed offset.
func (n *Normalizer) ShiftToUTC(t time.Time) time.Time {
	return n.RelabelUTC(t).Add(n.utcOffset)
}

// RelabelUTC stamps t's wall clock as UTC without converting it.
func (n *Normalizer) RelabelUTC(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}

// CorrectToUTC is the zone-database conversion of t to UTC. It is the
// correct replacement for ToUTC's fixed-offset shortcut and is kept separate
// so the two behaviours can be compared around DST boundaries.
func (n *Normalizer) CorrectToUTC(t time.Time) time.Time {
	return t.UTC()
}

// UTCToEastern maps a UTC timestamp onto the fixed Eastern Standard storage
// base. The wall clock moves back five hours; the label stays UTC so stored
// timestamps compare consistently.
func UTCToEastern(t time.Time) time.Time {
	return t.Add(EasternStandardOffset)
}
