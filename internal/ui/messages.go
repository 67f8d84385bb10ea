package ui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/couchcryptid/storm-data-risk/internal/domain"
	"github.com/couchcryptid/storm-data-risk/internal/session"
)

// Message types for async operations

// moveEndMsg fires when the viewport has been still for the move-end delay.
// seq identifies the move that scheduled it; stale ticks are ignored.
type moveEndMsg struct {
	seq int
}

// lookupResultMsg carries a finished risk lookup back to the event loop.
type lookupResultMsg struct {
	result session.Result
}

func scheduleMoveEnd(delay time.Duration, seq int) tea.Cmd {
	return tea.Tick(delay, func(time.Time) tea.Msg {
		return moveEndMsg{seq: seq}
	})
}

func fetchRisk(ctx context.Context, s *session.Session, l session.Lookup) tea.Cmd {
	return func() tea.Msg {
		return lookupResultMsg{result: s.Fetch(ctx, l)}
	}
}

// placeResultMsg carries a finished place search back to the event loop.
type placeResultMsg struct {
	query string
	place domain.Place
	err   error
}

func geocodePlace(ctx context.Context, g domain.Geocoder, query string) tea.Cmd {
	return func() tea.Msg {
		place, err := g.ForwardGeocode(ctx, query)
		return placeResultMsg{query: query, place: place, err: err}
	}
}
