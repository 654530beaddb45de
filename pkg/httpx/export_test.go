package httpx

import (
	"time"

	"golang.org/x/time/rate"
)

// NewLimiterSetForTest exposes the per-key limiter set with a fake clock.
func NewLimiterSetForTest(cfg RateLimitConfig, now func() time.Time) (get func(string) *rate.Limiter, size func() int) {
	s := newLimiterSet(cfg)
	s.now = now
	s.lastSweep = now()
	return s.get, s.len
}
