package gpxconv

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/brianbtrfld/sram-ebike/internal/ride"
	"github.com/brianbtrfld/sram-ebike/internal/shared/geo"

	"github.com/tkrajina/gpxgo/gpx"
)

const (
	feetPerMeter = 3.28084

	maxReasonableSpeedMph = 45.0
	maxSpeedChangeMph     = 10.0
	minSpeedInterval      = time.Second
	topSpeedPercentile    = 0.95
)

// Document is a converted ride. It carries the ride fields the simulator
// loads plus the metrics computed during conversion.
type Document struct {
	ride.Ride
	TotalDistanceMi      float64  `json:"total_distance_mi"`
	TotalElevationGainFt float64  `json:"total_elevation_gain_ft"`
	AverageSpeedMph      *float64 `json:"average_speed_mph"`
	MaxSpeedMph          *float64 `json:"max_speed_mph"`
	ElapsedTime          *string  `json:"elapsed_time"`
}

// Progress receives one Add(1) per processed point. *progressbar.ProgressBar
// satisfies it.
type Progress interface {
	Add(n int) error
}

func ParseFile(path string) (*gpx.GPX, error) {
	g, err := gpx.ParseFile(path)
	if err != nil {
		return nil, fmt.Errorf("parse gpx %s: %w", path, err)
	}
	return g, nil
}

// PointCount returns the number of track points across all tracks.
func PointCount(g *gpx.GPX) int {
	n := 0
	for _, track := range g.Tracks {
		for _, segment := range track.Segments {
			n += len(segment.Points)
		}
	}
	return n
}

// Convert walks every track point of g in order. Distance accumulates within
// a segment between points that both carry a time; a speed reading is taken
// when the points are at least a second apart.
func Convert(g *gpx.GPX, progress Progress) Document {
	var doc Document
	doc.Waypoints = []ride.Waypoint{}

	var speeds []float64
	lastValid := 0.0

	for _, track := range g.Tracks {
		doc.Name = track.Name

		for _, segment := range track.Segments {
			var prev *gpx.GPXPoint
			var elevations []float64

			for i := range segment.Points {
				p := &segment.Points[i]
				wp := waypointFrom(p)
				doc.Waypoints = append(doc.Waypoints, wp)

				if prev != nil && !p.Timestamp.IsZero() && !prev.Timestamp.IsZero() {
					d := geo.HaversineMiles(prev.Latitude, prev.Longitude, p.Latitude, p.Longitude)
					doc.TotalDistanceMi += d

					if dt := p.Timestamp.Sub(prev.Timestamp); dt >= minSpeedInterval {
						speed := d / dt.Hours()
						if validSpeed(speed, lastValid) {
							speeds = append(speeds, speed)
							lastValid = speed
						}
					}
				}
				if wp.ElevationFt != nil {
					elevations = append(elevations, *wp.ElevationFt)
				}

				prev = p
				if progress != nil {
					_ = progress.Add(1)
				}
			}
			doc.TotalElevationGainFt += elevationGain(elevations)
		}
	}

	finish(&doc, speeds)
	return doc
}

func ConvertFile(path string, progress Progress) (Document, error) {
	g, err := ParseFile(path)
	if err != nil {
		return Document{}, err
	}
	return Convert(g, progress), nil
}

// Write stores doc as indented JSON at path.
func Write(doc Document, path string) error {
	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode ride: %w", err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func waypointFrom(p *gpx.GPXPoint) ride.Waypoint {
	wp := ride.Waypoint{
		Lat: ride.Float(p.Latitude),
		Lon: ride.Float(p.Longitude),
	}
	if p.Elevation.NotNull() {
		wp.ElevationFt = ride.Float(p.Elevation.Value() * feetPerMeter)
	}
	if !p.Timestamp.IsZero() {
		wp.Timestamp = p.Timestamp.Format(time.RFC3339Nano)
	}
	return wp
}

func finish(doc *Document, speeds []float64) {
	doc.WaypointCount = len(doc.Waypoints)
	if len(doc.Waypoints) == 0 {
		return
	}
	first := doc.Waypoints[0]
	last := doc.Waypoints[len(doc.Waypoints)-1]
	doc.StartTime = first.Timestamp
	doc.EndTime = last.Timestamp

	start, err := geo.ParseTimestamp(first.Timestamp)
	if err != nil {
		return
	}
	end, err := geo.ParseTimestamp(last.Timestamp)
	if err != nil {
		return
	}
	elapsed := end.Sub(start)
	if elapsed <= 0 {
		return
	}

	avg := doc.TotalDistanceMi / elapsed.Hours()
	doc.AverageSpeedMph = &avg
	if len(speeds) > 0 {
		top := percentile(speeds, topSpeedPercentile)
		doc.MaxSpeedMph = &top
	}
	formatted := geo.FormatElapsed(elapsed)
	doc.ElapsedTime = &formatted
}

// validSpeed rejects readings above a plausible e-bike speed and jumps
// larger than maxSpeedChangeMph from the previous valid reading.
func validSpeed(speed, prev float64) bool {
	if speed < 0 || speed > maxReasonableSpeedMph {
		return false
	}
	diff := speed - prev
	if diff < 0 {
		diff = -diff
	}
	return diff <= maxSpeedChangeMph
}

func elevationGain(elevations []float64) float64 {
	gain := 0.0
	for i := 1; i < len(elevations); i++ {
		if diff := elevations[i] - elevations[i-1]; diff > 0 {
			gain += diff
		}
	}
	return gain
}

func percentile(values []float64, p float64) float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	idx := int(float64(len(sorted)) * p)
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}
