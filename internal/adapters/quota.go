package adapters

import (
	"sync"
	"time"

	"pymigrate/internal/migerrors"
)

// QuotaGate is a simple sliding-window rate limiter shared by every
// HTTP-backed collaborator in this package, per spec.md §4.5's
// "authentication/quota gate predicate": a collaborator with no
// configured API key or an exhausted quota is denied before a request is
// ever sent, rather than let the caller discover it via an HTTP 429.
type QuotaGate struct {
	mu         sync.Mutex
	apiKey     string
	maxPerHour int
	calls      []time.Time
}

// NewQuotaGate builds a QuotaGate. An empty apiKey makes Allow always
// deny: a collaborator with no credentials is not permitted to make
// requests at all, rather than attempt them unauthenticated.
func NewQuotaGate(apiKey string, maxPerHour int) *QuotaGate {
	if maxPerHour <= 0 {
		maxPerHour = 60
	}
	return &QuotaGate{apiKey: apiKey, maxPerHour: maxPerHour}
}

// Allow reports whether a new call may proceed, recording it if so.
func (g *QuotaGate) Allow() error {
	if g.apiKey == "" {
		return migerrors.New(migerrors.ErrQuotaDenied, "no API key configured for this collaborator")
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	cutoff := time.Now().Add(-time.Hour)
	live := g.calls[:0]
	for _, t := range g.calls {
		if t.After(cutoff) {
			live = append(live, t)
		}
	}
	g.calls = live

	if len(g.calls) >= g.maxPerHour {
		return migerrors.New(migerrors.ErrQuotaDenied, "hourly request quota exhausted")
	}
	g.calls = append(g.calls, time.Now())
	return nil
}

// APIKey returns the configured key, for collaborators that need to set
// an Authorization header.
func (g *QuotaGate) APIKey() string { return g.apiKey }
