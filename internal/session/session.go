// Package session holds the dashboard state driven by map viewport events:
// the current center, the most recent risk lookup, and overlay visibility.
//
// Continuous move events only update the center. A move-end event updates the
// center and issues exactly one risk lookup. Each lookup carries a generation
// number; a result is applied only if no newer lookup has been issued since,
// so a slow response can never overwrite a newer one.
package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/couchcryptid/storm-data-risk/internal/domain"
	"github.com/couchcryptid/storm-data-risk/internal/observability"
)

// LookupPrecision is the number of decimal places sent to the risk API.
const LookupPrecision = 6

// Lookup is one issued risk query.
type Lookup struct {
	Generation uint64
	Coordinate domain.Coordinate
}

// Result is the outcome of fetching a Lookup.
type Result struct {
	Lookup  Lookup
	Profile domain.RiskProfile
	Err     error
}

// State is a point-in-time copy of the session.
type State struct {
	Coordinate domain.Coordinate
	Visibility Visibility
	Current    *domain.RiskLookup // nil until the first successful lookup
	Generation uint64
	Pending    bool // a lookup has been issued and its result not yet applied
}

// Session owns the viewport center, the current risk lookup and the overlay
// visibility. It is safe for use from the host event loop and from the
// goroutines that deliver lookup results.
type Session struct {
	service domain.RiskService
	logger  *slog.Logger
	metrics *observability.Metrics

	mu         sync.Mutex
	coordinate domain.Coordinate
	visibility Visibility
	current    *domain.RiskLookup
	generation uint64 // newest lookup issued
	settled    uint64 // newest lookup whose result was applied
	wg         sync.WaitGroup
}

// New creates a Session centered on initial with the overlay hidden.
func New(service domain.RiskService, initial domain.Coordinate, logger *slog.Logger, metrics *observability.Metrics) *Session {
	metrics.DashboardVisible.Set(0)
	return &Session{
		service:    service,
		logger:     logger,
		metrics:    metrics,
		coordinate: initial,
		visibility: Hidden,
	}
}

// OnViewportChange records a continuous move event. It never issues a lookup.
// Out-of-range coordinates are stored as given.
func (s *Session) OnViewportChange(c domain.Coordinate) domain.Coordinate {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.coordinate = c
	s.metrics.ViewportEvents.WithLabelValues("move").Inc()
	return c
}

// OnViewportChangeEnd records the terminal event of a gesture and issues one
// lookup for the settled center. The caller runs the lookup with Fetch and
// hands the result to Apply.
func (s *Session) OnViewportChangeEnd(c domain.Coordinate) Lookup {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.coordinate = c
	s.generation++
	s.metrics.ViewportEvents.WithLabelValues("move_end").Inc()

	l := Lookup{Generation: s.generation, Coordinate: c.Round(LookupPrecision)}
	s.logger.Debug("risk lookup issued",
		"generation", l.Generation,
		"lat", l.Coordinate.Latitude,
		"lon", l.Coordinate.Longitude,
	)
	return l
}

// Fetch performs the lookup against the risk service. It does not touch
// session state and may run on any goroutine.
func (s *Session) Fetch(ctx context.Context, l Lookup) Result {
	start := time.Now()
	profile, err := s.service.LookupRisk(ctx, l.Coordinate)
	s.metrics.RiskLookupDuration.Observe(time.Since(start).Seconds())
	return Result{Lookup: l, Profile: profile, Err: err}
}

// Apply folds a lookup result into the session and reports whether state
// changed. Results superseded by a newer lookup are discarded. Failures are
// logged and leave the session untouched; they never reach the caller.
func (s *Session) Apply(r Result) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r.Lookup.Generation < s.generation {
		s.metrics.RiskLookups.WithLabelValues("superseded").Inc()
		s.logger.Debug("discarding superseded risk lookup",
			"generation", r.Lookup.Generation,
			"latest", s.generation,
		)
		return false
	}
	if r.Lookup.Generation > s.settled {
		s.settled = r.Lookup.Generation
	}

	if r.Err != nil {
		class := domain.ClassifyError(r.Err)
		s.metrics.RiskLookups.WithLabelValues(class).Inc()
		s.logger.Warn("risk lookup failed",
			"generation", r.Lookup.Generation,
			"lat", r.Lookup.Coordinate.Latitude,
			"lon", r.Lookup.Coordinate.Longitude,
			"class", class,
			"error", r.Err,
		)
		return false
	}

	lookup := domain.NewRiskLookup(r.Lookup.Coordinate, r.Profile)
	s.current = &lookup
	s.setVisibility(Shown)
	s.metrics.RiskLookups.WithLabelValues("success").Inc()
	s.logger.Info("risk profile updated",
		"generation", r.Lookup.Generation,
		"state", r.Profile.State,
		"county", r.Profile.County,
	)
	return true
}

// MoveEnd handles a move-end event end to end: it issues the lookup and runs
// it in the background, applying the result when it arrives. It returns
// without waiting for the network.
func (s *Session) MoveEnd(ctx context.Context, c domain.Coordinate) Lookup {
	l := s.OnViewportChangeEnd(c)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.Apply(s.Fetch(ctx, l))
	}()
	return l
}

// Wait blocks until every lookup started by MoveEnd has been applied.
func (s *Session) Wait() {
	s.wg.Wait()
}

// Dismiss hides the overlay. The current lookup is kept so Reopen can show
// it again without a new fetch. Reports whether visibility changed.
func (s *Session) Dismiss() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.visibility == Hidden {
		return false
	}
	s.setVisibility(Hidden)
	return true
}

// Reopen shows the overlay again with the retained lookup. It does nothing
// when no lookup has succeeded yet.
func (s *Session) Reopen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.visibility == Shown || s.current == nil {
		return false
	}
	s.setVisibility(Shown)
	return true
}

// Snapshot returns a deep copy of the session state. Callers may modify it
// freely.
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := State{
		Coordinate: s.coordinate,
		Visibility: s.visibility,
		Generation: s.generation,
		Pending:    s.settled < s.generation,
	}
	if s.current != nil {
		cur := *s.current
		cur.Profile = s.current.Profile.Clone()
		st.Current = &cur
	}
	return st
}

func (s *Session) setVisibility(v Visibility) {
	s.visibility = v
	if v == Shown {
		s.metrics.DashboardVisible.Set(1)
	} else {
		s.metrics.DashboardVisible.Set(0)
	}
}
