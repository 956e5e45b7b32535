package ride

// Waypoint is one recorded sample. Position and elevation are optional and
// stay nil when the recording omitted them.
type Waypoint struct {
	Timestamp   string   `json:"timestamp"`
	Lat         *float64 `json:"lat"`
	Lon         *float64 `json:"lon"`
	ElevationFt *float64 `json:"elevation_ft"`
}

// Ride is an ordered recording. WaypointCount is whatever the source declared
// and may not match len(Waypoints).
type Ride struct {
	Name          string     `json:"name"`
	StartTime     string     `json:"start_time"`
	EndTime       string     `json:"end_time"`
	WaypointCount int        `json:"number_waypoints"`
	Waypoints     []Waypoint `json:"waypoints"`
}

func (w Waypoint) HasPosition() bool {
	return w.Lat != nil && w.Lon != nil
}

func (w Waypoint) Complete() bool {
	return w.HasPosition() && w.ElevationFt != nil
}

func (w Waypoint) Clone() Waypoint {
	return Waypoint{
		Timestamp:   w.Timestamp,
		Lat:         cloneFloat(w.Lat),
		Lon:         cloneFloat(w.Lon),
		ElevationFt: cloneFloat(w.ElevationFt),
	}
}

// Clone returns a deep copy that shares no memory with r.
func (r Ride) Clone() Ride {
	out := r
	if r.Waypoints != nil {
		out.Waypoints = make([]Waypoint, len(r.Waypoints))
		for i, w := range r.Waypoints {
			out.Waypoints[i] = w.Clone()
		}
	}
	return out
}

// Float returns a pointer to v, for building waypoints in code.
func Float(v float64) *float64 {
	return &v
}

func cloneFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
