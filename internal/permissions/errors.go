package permissions

import (
	"errors"
	"fmt"
)

// Sentinel errors for matching with errors.Is.
var (
	ErrUnknownService   = errors.New("unknown service")
	ErrUnknownLevel     = errors.New("unknown permission level")
	ErrMalformedSpec    = errors.New("malformed permission spec")
	ErrDuplicateService = errors.New("duplicate service")
)

// UnknownServiceError is returned when a service has no permission ladder.
type UnknownServiceError struct {
	Service string
	Valid   []string
}

func (e *UnknownServiceError) Error() string {
	return fmt.Sprintf("Unknown service: '%s'. Valid services: %v", e.Service, e.Valid)
}

func (e *UnknownServiceError) Is(target error) bool { return target == ErrUnknownService }

// UnknownLevelError is returned when a level name does not occur in a
// service's ladder.
type UnknownLevelError struct {
	Service string
	Level   string
	Valid   []string
}

func (e *UnknownLevelError) Error() string {
	return fmt.Sprintf("Unknown level '%s' for service '%s'. Valid levels: %v", e.Level, e.Service, e.Valid)
}

func (e *UnknownLevelError) Is(target error) bool { return target == ErrUnknownLevel }

// MalformedSpecError is returned for an entry without a "service:level" colon.
type MalformedSpecError struct {
	Spec string
}

func (e *MalformedSpecError) Error() string {
	return fmt.Sprintf("Invalid permission format: '%s'. Expected 'service:level' (e.g., 'gmail:organize', 'drive:readonly')", e.Spec)
}

func (e *MalformedSpecError) Is(target error) bool { return target == ErrMalformedSpec }

// DuplicateServiceError is returned when a service is configured twice.
type DuplicateServiceError struct {
	Service string
}

func (e *DuplicateServiceError) Error() string {
	return fmt.Sprintf("Duplicate service in permissions: '%s'", e.Service)
}

func (e *DuplicateServiceError) Is(target error) bool { return target == ErrDuplicateService }
