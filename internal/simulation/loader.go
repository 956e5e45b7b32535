package simulation

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"

	"github.com/brianbtrfld/sram-ebike/internal/ride"
	"github.com/brianbtrfld/sram-ebike/internal/shared/geo"
)

// Loader turns a ride-type id into a parsed ride. It runs outside the slot
// lock, so implementations are free to do I/O.
type Loader interface {
	Load(rideType string) (ride.Ride, error)
	RideTypes() []string
}

var catalog = map[string]string{
	"chill":    "ride-chill.json",
	"hardcore": "ride-hardcore.json",
}

// FileLoader reads the bundled rides from a directory on disk.
type FileLoader struct {
	dir string
}

func NewFileLoader(dir string) *FileLoader {
	return &FileLoader{dir: dir}
}

func (l *FileLoader) RideTypes() []string {
	types := make([]string, 0, len(catalog))
	for k := range catalog {
		types = append(types, k)
	}
	sort.Strings(types)
	return types
}

func (l *FileLoader) Path(rideType string) (string, error) {
	name, ok := catalog[rideType]
	if !ok {
		return "", &Error{Kind: InvalidRideType, RideType: rideType}
	}
	return filepath.Join(l.dir, name), nil
}

func (l *FileLoader) Load(rideType string) (ride.Ride, error) {
	path, err := l.Path(rideType)
	if err != nil {
		return ride.Ride{}, err
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return ride.Ride{}, &Error{Kind: IOError, RideType: rideType, Path: path, Err: err}
	}

	r, err := ParseRide(raw)
	if err != nil {
		return ride.Ride{}, &Error{Kind: ParseError, RideType: rideType, Path: path, Err: err}
	}
	return r, nil
}

// ParseRide decodes a ride document. Only the ride's own start and end times
// are checked; waypoint timestamps are left for the simulator to tolerate.
func ParseRide(raw []byte) (ride.Ride, error) {
	var r ride.Ride
	if err := json.Unmarshal(raw, &r); err != nil {
		return ride.Ride{}, err
	}
	if _, err := geo.ParseTimestamp(r.StartTime); err != nil {
		return ride.Ride{}, err
	}
	if _, err := geo.ParseTimestamp(r.EndTime); err != nil {
		return ride.Ride{}, err
	}
	return r, nil
}
