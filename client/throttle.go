package client

import (
	"math"
	"time"

	"arena-server/motion"
)

// Input throttle defaults
const (
	InputInterval   = 50 * time.Millisecond
	InputAngleDelta = 0.1
)

// InputThrottle decides when steering is worth sending: after
// InputInterval, on a turn larger than InputAngleDelta, or on a boost
// toggle.
type InputThrottle struct {
	last      time.Time
	lastAngle float64
	lastBoost bool
	sent      bool
}

// Allow reports whether to send and records the input as sent if so
func (t *InputThrottle) Allow(angle float64, boosting bool, now time.Time) bool {
	send := !t.sent ||
		now.Sub(t.last) > InputInterval ||
		math.Abs(motion.NormalizeAngle(angle-t.lastAngle)) > InputAngleDelta ||
		boosting != t.lastBoost
	if send {
		t.sent = true
		t.last = now
		t.lastAngle = angle
		t.lastBoost = boosting
	}
	return send
}
