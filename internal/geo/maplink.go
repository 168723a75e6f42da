package geo

import (
	"fmt"
	"strconv"

	"github.com/mwiklund/pagerd/internal/parse"
)

// Plausible WGS84 bounds for the RT90 grid. Results outside mean the
// embedded pair was garbage (truncated digits, swapped axes), in which
// case the link is suppressed and the notification proceeds without it.
const (
	minLat, maxLat = 54.0, 70.0
	minLon, maxLon = 9.0, 26.0
)

// MapLink extracts an RT90 coordinate pair of the form "X=<digits> Y=<digits>"
// from a message and returns an OpenStreetMap URL for the converted
// position. Returns "" when no pair is present or the pair does not
// convert to a plausible position.
func MapLink(message string) string {
	x, y, ok := parse.Coordinates(message)
	if !ok {
		return ""
	}

	lat, lon := ToWGS84(x, y)
	if lat < minLat || lat > maxLat || lon < minLon || lon > maxLon {
		return ""
	}

	latStr := strconv.FormatFloat(lat, 'f', -1, 64)
	lonStr := strconv.FormatFloat(lon, 'f', -1, 64)
	return fmt.Sprintf("https://www.openstreetmap.org/?mlat=%s&mlon=%s#map=15/%s/%s",
		latStr, lonStr, latStr, lonStr)
}
