package simulation

import (
	"log/slog"
	"sync"

	"github.com/brianbtrfld/sram-ebike/internal/logging"
	"github.com/brianbtrfld/sram-ebike/internal/ride"
	"github.com/brianbtrfld/sram-ebike/internal/telemetry"
)

const (
	StartedMessage = "Simulation started"
	StoppedMessage = "Simulation stopped"
)

type State string

const (
	StateIdle      State = "idle"
	StateRunning   State = "running"
	StateExhausted State = "exhausted"
)

// Status is a read-only view of the slot.
type Status struct {
	State    State   `json:"state"`
	RideName string  `json:"ride_name,omitempty"`
	Cursor   int     `json:"cursor"`
	Total    int     `json:"total"`
	Battery  float64 `json:"battery_percentage"`
	Distance float64 `json:"distance_miles"`
}

// Service owns the single simulation slot. At most one simulator is installed
// at a time and every operation runs under one mutex.
type Service struct {
	mu       sync.Mutex
	sim      *telemetry.Simulator
	state    State
	poisoned bool

	loader Loader
	logger *slog.Logger
}

func NewService(loader Loader, logger *slog.Logger) *Service {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Service{
		state:  StateIdle,
		loader: loader,
		logger: logger.With("component", "simulation"),
	}
}

// Start loads the ride for rideType and replaces whatever is running. A load
// failure leaves the current simulation in place.
func (s *Service) Start(rideType string) (string, error) {
	r, err := s.loader.Load(rideType)
	if err != nil {
		s.logger.Warn("ride load failed", "ride_type", rideType, "kind", KindOf(err).String(), "error", err)
		return "", err
	}
	if err := s.StartRide(r); err != nil {
		return "", err
	}
	s.logger.Info("simulation started", "ride_type", rideType, "ride", r.Name, "waypoints", len(r.Waypoints))
	return StartedMessage, nil
}

// StartRide installs a simulator for an already parsed ride.
func (s *Service) StartRide(r ride.Ride) error {
	sim := telemetry.New(r)
	return s.withLock(func() {
		s.sim = sim
		s.state = StateRunning
	})
}

// Poll returns the next frame of the active simulation. ok is false both when
// nothing is running and when the ride has been fully replayed.
func (s *Service) Poll() (frame telemetry.Frame, ok bool, err error) {
	err = s.withLock(func() {
		if s.sim == nil {
			return
		}
		frame, ok = s.sim.Next()
		if !ok || s.sim.Done() {
			s.state = StateExhausted
		}
	})
	return frame, ok, err
}

// Stop clears the slot. Stopping an idle slot is not an error.
func (s *Service) Stop() (string, error) {
	var wasActive bool
	err := s.withLock(func() {
		wasActive = s.sim != nil
		s.sim = nil
		s.state = StateIdle
	})
	if err != nil {
		return "", err
	}
	if wasActive {
		s.logger.Info("simulation stopped")
	}
	return StoppedMessage, nil
}

// PeekRide returns a copy of the active ride without advancing the replay.
func (s *Service) PeekRide() (r ride.Ride, ok bool, err error) {
	err = s.withLock(func() {
		if s.sim == nil {
			return
		}
		r, ok = s.sim.Ride(), true
	})
	return r, ok, err
}

func (s *Service) Status() (st Status, err error) {
	err = s.withLock(func() {
		st.State = s.state
		if s.sim == nil {
			return
		}
		st.RideName = s.sim.RideName()
		st.Cursor = s.sim.Cursor()
		st.Total = s.sim.Len()
		st.Battery = s.sim.Battery()
		st.Distance = s.sim.Distance()
	})
	return st, err
}

func (s *Service) RideTypes() []string {
	return s.loader.RideTypes()
}

// withLock runs fn while holding the slot mutex. A panic inside fn poisons
// the slot for good; the panic is logged once the mutex is released and
// then re-raised for the HTTP recover middleware.
func (s *Service) withLock(fn func()) error {
	var recovered any
	defer func() {
		if recovered == nil {
			return
		}
		s.logger.Error("simulation slot poisoned", "panic", recovered)
		panic(recovered)
	}()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.poisoned {
		return &Error{Kind: LockError}
	}

	defer func() {
		if r := recover(); r != nil {
			s.poisoned = true
			recovered = r
		}
	}()
	fn()
	return nil
}
