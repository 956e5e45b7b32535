package rides

import (
	"math"

	"github.com/brianbtrfld/sram-ebike/internal/ride"
	"github.com/brianbtrfld/sram-ebike/internal/shared/geo"
)

// Summarize computes ride statistics from validated, chronologically ordered
// waypoints. Segments without both positions add neither distance nor speed;
// elevation gain only counts rises between points that both carry elevation.
func Summarize(waypoints []ride.Waypoint) Summary {
	if len(waypoints) == 0 {
		return Summary{ElapsedTime: geo.FormatElapsed(0)}
	}

	first, _ := geo.ParseTimestamp(waypoints[0].Timestamp)
	last, _ := geo.ParseTimestamp(waypoints[len(waypoints)-1].Timestamp)
	elapsed := geo.FormatElapsed(last.Sub(first))

	if len(waypoints) == 1 {
		return Summary{ElapsedTime: elapsed}
	}

	var distance, gain float64
	var speeds []float64
	for i := 1; i < len(waypoints); i++ {
		prev, cur := waypoints[i-1], waypoints[i]

		if prev.ElevationFt != nil && cur.ElevationFt != nil {
			if rise := *cur.ElevationFt - *prev.ElevationFt; rise > 0 {
				gain += rise
			}
		}

		if !prev.HasPosition() || !cur.HasPosition() {
			continue
		}
		d := geo.HaversineMiles(*prev.Lat, *prev.Lon, *cur.Lat, *cur.Lon)
		distance += d

		if hours, err := geo.ElapsedHours(prev.Timestamp, cur.Timestamp); err == nil && hours > 0 {
			speeds = append(speeds, d/hours)
		}
	}

	var avg, top float64
	for _, s := range speeds {
		avg += s
		top = math.Max(top, s)
	}
	if len(speeds) > 0 {
		avg /= float64(len(speeds))
	}

	return Summary{
		TotalDistanceMi:      round(distance, 2),
		TotalElevationGainFt: round(gain, 1),
		AverageSpeedMph:      round(avg, 1),
		MaxSpeedMph:          round(top, 1),
		ElapsedTime:          elapsed,
	}
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
