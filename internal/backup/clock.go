package backup

import (
	"time"

	"github.com/google/uuid"
)

// Clock abstracts time retrieval so snapshot naming is deterministic in tests.
type Clock interface {
	Now() time.Time
}

// RealClock returns the actual local time.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

// FixedClock always returns the same instant.
type FixedClock time.Time

func (c FixedClock) Now() time.Time { return time.Time(c) }

// NewRunID returns a random identifier attached to every log line of a run.
func NewRunID() string { return uuid.NewString() }
