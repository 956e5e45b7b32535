package ride

import (
	"encoding/json"
	"testing"
)

func TestCloneDoesNotAlias(t *testing.T) {
	r := Ride{
		Name:          "loop",
		WaypointCount: 5,
		Waypoints: []Waypoint{
			{Timestamp: "2024-05-01T10:00:00Z", Lat: Float(40), Lon: Float(-105), ElevationFt: Float(5400)},
			{Timestamp: "2024-05-01T10:00:10Z", Lat: Float(40.001)},
		},
	}

	c := r.Clone()
	*c.Waypoints[0].Lat = 1
	c.Waypoints[1].Timestamp = "changed"
	c.Waypoints = append(c.Waypoints, Waypoint{})

	if *r.Waypoints[0].Lat != 40 {
		t.Fatalf("clone aliased lat")
	}
	if r.Waypoints[1].Timestamp != "2024-05-01T10:00:10Z" {
		t.Fatalf("clone aliased waypoint")
	}
	if len(r.Waypoints) != 2 {
		t.Fatalf("clone aliased slice")
	}
	if c.Waypoints[1].Lon != nil {
		t.Fatalf("missing field should stay nil")
	}
}

func TestWaypointPresence(t *testing.T) {
	full := Waypoint{Lat: Float(1), Lon: Float(2), ElevationFt: Float(3)}
	if !full.HasPosition() || !full.Complete() {
		t.Fatalf("expected complete waypoint")
	}
	noElev := Waypoint{Lat: Float(1), Lon: Float(2)}
	if !noElev.HasPosition() || noElev.Complete() {
		t.Fatalf("expected position without elevation")
	}
	noLon := Waypoint{Lat: Float(1), ElevationFt: Float(3)}
	if noLon.HasPosition() || noLon.Complete() {
		t.Fatalf("expected no position")
	}
}

func TestRideJSONKeys(t *testing.T) {
	raw := `{
		"name": "Morning",
		"start_time": "2024-05-01T10:00:00Z",
		"end_time": "2024-05-01T11:00:00Z",
		"number_waypoints": 9,
		"waypoints": [
			{"timestamp": "2024-05-01T10:00:00Z", "lat": 40.0, "lon": -105.0, "elevation_ft": 5400},
			{"timestamp": "2024-05-01T10:00:05Z", "lat": null}
		]
	}`

	var r Ride
	if err := json.Unmarshal([]byte(raw), &r); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if r.WaypointCount != 9 || len(r.Waypoints) != 2 {
		t.Fatalf("unexpected counts: %d %d", r.WaypointCount, len(r.Waypoints))
	}
	if !r.Waypoints[0].Complete() {
		t.Fatalf("expected first waypoint complete")
	}
	if r.Waypoints[1].Lat != nil || r.Waypoints[1].Lon != nil || r.Waypoints[1].ElevationFt != nil {
		t.Fatalf("expected absent fields to be nil")
	}
}
