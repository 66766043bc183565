package dispatch

import "errors"

// ErrStationUnavailable is returned when a forced station id was supplied but
// the station is not ready or does not exist. Forced overrides are for
// operator use and must not degrade silently into nearest-station search.
var ErrStationUnavailable = errors.New("dispatch: forced station unavailable")

// ErrNoStationsAvailable is returned when the ready-station candidate pool is
// empty. The HTTP boundary maps it to 503.
var ErrNoStationsAvailable = errors.New("dispatch: no ready stations available")
