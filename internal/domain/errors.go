package domain

import "errors"

var (
	// ErrInvalidStationID marks a station identifier with the wrong shape
	// for its provider. This is a caller error and fails the fetch
	// immediately.
	ErrInvalidStationID = errors.New("invalid station id")

	// ErrStationUnavailable marks a station absent from the provider's
	// own station list. Some catalog stations are not served by CHS.
	ErrStationUnavailable = errors.New("station not available from provider")
)
