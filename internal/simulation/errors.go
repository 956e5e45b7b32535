package simulation

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
)

type Kind int

const (
	KindUnknown Kind = iota
	InvalidRideType
	IOError
	ParseError
	LockError
)

func (k Kind) String() string {
	switch k {
	case InvalidRideType:
		return "invalid_ride_type"
	case IOError:
		return "io_error"
	case ParseError:
		return "parse_error"
	case LockError:
		return "lock_error"
	default:
		return "unknown"
	}
}

var (
	ErrInvalidRideType = errors.New("invalid ride type")
	ErrIO              = errors.New("ride file unreadable")
	ErrParse           = errors.New("ride file malformed")
	ErrLockPoisoned    = errors.New("simulation slot poisoned")
)

func (k Kind) sentinel() error {
	switch k {
	case InvalidRideType:
		return ErrInvalidRideType
	case IOError:
		return ErrIO
	case ParseError:
		return ErrParse
	case LockError:
		return ErrLockPoisoned
	default:
		return nil
	}
}

// Error carries the failure kind plus whatever context was known when it
// happened. Callers match on kind with errors.Is against the Err* sentinels.
type Error struct {
	Kind     Kind
	RideType string
	Path     string
	Err      error
}

func (e *Error) Error() string {
	msg := e.Kind.sentinel()
	text := "simulation error"
	if msg != nil {
		text = msg.Error()
	}
	if e.RideType != "" {
		text = fmt.Sprintf("%s %q", text, e.RideType)
	}
	if e.Path != "" {
		text = fmt.Sprintf("%s (%s)", text, e.Path)
	}
	if e.Err != nil {
		text = fmt.Sprintf("%s: %v", text, e.Err)
	}
	return text
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	s := e.Kind.sentinel()
	return s != nil && target == s
}

// KindOf reports the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// StatusCode maps a slot error to the HTTP status the handlers answer with.
func StatusCode(err error) int {
	switch KindOf(err) {
	case InvalidRideType:
		return fiber.StatusBadRequest
	case ParseError:
		return fiber.StatusUnprocessableEntity
	case LockError:
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}
