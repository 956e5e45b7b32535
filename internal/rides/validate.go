package rides

import (
	"errors"
	"fmt"

	"github.com/brianbtrfld/sram-ebike/internal/ride"
	"github.com/brianbtrfld/sram-ebike/internal/shared/geo"
)

var ErrValidation = errors.New("invalid ride")

// ValidationError describes why a ride was rejected.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// Validate checks a ride before it is stored.
func Validate(r ride.Ride) error {
	if r.Name == "" {
		return invalid("name", "required")
	}
	if err := validateWindow(r.StartTime, r.EndTime); err != nil {
		return err
	}
	if len(r.Waypoints) == 0 {
		return invalid("waypoints", "at least one waypoint is required")
	}

	var prev string
	for i, w := range r.Waypoints {
		field := fmt.Sprintf("waypoints[%d]", i)
		if w.Lat != nil && (*w.Lat < -90 || *w.Lat > 90) {
			return invalid(field+".lat", "%v is outside -90..90", *w.Lat)
		}
		if w.Lon != nil && (*w.Lon < -180 || *w.Lon > 180) {
			return invalid(field+".lon", "%v is outside -180..180", *w.Lon)
		}
		if _, err := geo.ParseTimestamp(w.Timestamp); err != nil {
			return invalid(field+".timestamp", "expected RFC 3339, got %q", w.Timestamp)
		}
		if i > 0 {
			if hours, _ := geo.ElapsedHours(prev, w.Timestamp); hours < 0 {
				return invalid(field+".timestamp", "waypoints must be in chronological order")
			}
		}
		prev = w.Timestamp
	}
	return nil
}

func validateWindow(start, end string) error {
	if _, err := geo.ParseTimestamp(start); err != nil {
		return invalid("start_time", "expected RFC 3339, got %q", start)
	}
	if _, err := geo.ParseTimestamp(end); err != nil {
		return invalid("end_time", "expected RFC 3339, got %q", end)
	}
	if hours, _ := geo.ElapsedHours(start, end); hours < 0 {
		return invalid("end_time", "must not precede start_time")
	}
	return nil
}
