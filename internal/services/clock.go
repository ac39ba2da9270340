package services

import "time"

// Clock is the injectable time source used for every timestamp the services
// produce, so scoring and progress logic stays testable without wall-clock
// coupling.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now()
}

// NewSystemClock returns the wall-clock backed Clock used in production wiring.
func NewSystemClock() Clock {
	return systemClock{}
}

// FixedClock always reports the same instant. Test helper.
type FixedClock struct {
	Instant time.Time
}

func (c FixedClock) Now() time.Time {
	return c.Instant
}
