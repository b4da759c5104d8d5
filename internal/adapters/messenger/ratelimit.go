package messenger

import (
	"sync"

	"golang.org/x/time/rate"
)

// senderLimiters throttles turns per sender so one user cannot monopolize
// the model budget.
type senderLimiters struct {
	mu      sync.Mutex
	byID    map[string]*rate.Limiter
	perSec  rate.Limit
	burst   int
	enabled bool
}

func newSenderLimiters(perMinute, burst int) *senderLimiters {
	if perMinute <= 0 {
		return &senderLimiters{enabled: false}
	}
	if burst <= 0 {
		burst = 1
	}
	return &senderLimiters{
		byID:    make(map[string]*rate.Limiter),
		perSec:  rate.Limit(float64(perMinute) / 60.0),
		burst:   burst,
		enabled: true,
	}
}

func (l *senderLimiters) allow(senderID string) bool {
	if !l.enabled {
		return true
	}

	l.mu.Lock()
	limiter, ok := l.byID[senderID]
	if !ok {
		limiter = rate.NewLimiter(l.perSec, l.burst)
		l.byID[senderID] = limiter
	}
	l.mu.Unlock()

	return limiter.Allow()
}
