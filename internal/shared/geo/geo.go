package geo

import (
	"fmt"
	"math"
	"strings"
	"time"
)

const (
	EarthRadiusMiles = 3959.0
	EarthRadiusKm    = 6371.0
)

// HaversineMiles returns the great-circle distance in miles between two points.
func HaversineMiles(lat1, lon1, lat2, lon2 float64) float64 {
	return EarthRadiusMiles * centralAngle(lat1, lon1, lat2, lon2)
}

func HaversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	return EarthRadiusKm * centralAngle(lat1, lon1, lat2, lon2)
}

func centralAngle(lat1, lon1, lat2, lon2 float64) float64 {
	lat1Rad := toRadians(lat1)
	lat2Rad := toRadians(lat2)
	dLat := lat2Rad - lat1Rad
	dLon := toRadians(lon2) - toRadians(lon1)

	a := math.Pow(math.Sin(dLat/2), 2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*math.Pow(math.Sin(dLon/2), 2)
	// rounding can push a a hair above 1 for antipodal points
	return 2 * math.Asin(math.Sqrt(math.Min(a, 1)))
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

// ParseTimestamp parses an RFC 3339 timestamp. Fractional seconds and a
// lowercase t or z separator are accepted.
func ParseTimestamp(ts string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, strings.ToUpper(ts))
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", ts, err)
	}
	return t, nil
}

// ElapsedHours returns the hours between two RFC 3339 timestamps. The result is
// negative when to precedes from.
func ElapsedHours(from, to string) (float64, error) {
	start, err := ParseTimestamp(from)
	if err != nil {
		return 0, err
	}
	end, err := ParseTimestamp(to)
	if err != nil {
		return 0, err
	}
	return end.Sub(start).Hours(), nil
}

// FormatElapsed renders a duration as HH:MM:SS, truncating sub-second parts.
func FormatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64(d / time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, (total%3600)/60, total%60)
}
