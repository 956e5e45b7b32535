package rides

import (
	"time"

	"github.com/brianbtrfld/sram-ebike/internal/ride"
)

type Summary struct {
	TotalDistanceMi      float64 `json:"total_distance_mi"`
	TotalElevationGainFt float64 `json:"total_elevation_gain_ft"`
	AverageSpeedMph      float64 `json:"average_speed_mph"`
	MaxSpeedMph          float64 `json:"max_speed_mph"`
	ElapsedTime          string  `json:"elapsed_time"`
}

// Record is a stored ride with its computed summary.
type Record struct {
	ID string `json:"id"`
	ride.Ride
	Summary   Summary   `json:"summary"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UpdateRequest covers the editable fields. Waypoints are never rewritten.
type UpdateRequest struct {
	Name      string `json:"name"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}
