package keymanager

import (
	"time"

	"go.uber.org/atomic"
)

// PruneSafetyMargin is how old a committee's effective timestamp must be, in
// seconds, before it may be pruned. It absorbs clock skew between nodes.
const PruneSafetyMargin uint64 = 10 * 60

// Clock supplies the registry with the current wall time and with a monotone
// write position stamped on every appended committee.
type Clock interface {
	// Now returns the current time in unix seconds.
	Now() uint64
	// Position returns a value strictly greater than any previously returned.
	Position() uint64
}

// SystemClock reads wall time from the OS.
type SystemClock struct {
	position *atomic.Uint64
}

func NewSystemClock(start uint64) *SystemClock {
	return &SystemClock{position: atomic.NewUint64(start)}
}

func (c *SystemClock) Now() uint64 {
	return uint64(time.Now().Unix())
}

func (c *SystemClock) Position() uint64 {
	return c.position.Inc()
}

// AdvanceTo makes sure the next Position is above v. Used after a restart so
// that positions keep increasing across process lifetimes.
func (c *SystemClock) AdvanceTo(v uint64) {
	for {
		cur := c.position.Load()
		if cur >= v {
			return
		}
		if c.position.CAS(cur, v) {
			return
		}
	}
}
