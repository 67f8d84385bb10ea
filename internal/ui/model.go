package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"

	"github.com/couchcryptid/storm-data-risk/internal/domain"
	"github.com/couchcryptid/storm-data-risk/internal/session"
)

// Model is the terminal dashboard. It plays the map view: key presses pan and
// zoom the viewport center and feed viewport events into the session.
type Model struct {
	ctx          context.Context
	session      *session.Session
	geocoder     domain.Geocoder // nil disables place search
	moveEndDelay time.Duration

	center      domain.Coordinate
	zoom        int
	moveSeq     int // bumped on every move; a move-end tick must match it
	showDetails bool

	// Latest session snapshot, refreshed after every state change.
	state session.State

	search    textinput.Model
	searching bool
	status    string

	width   int
	height  int
	spinner spinner.Model
	bar     progress.Model
}

// NewModel creates a dashboard bound to s, centered where s is centered.
// geocoder may be nil, in which case place search is unavailable.
func NewModel(ctx context.Context, s *session.Session, geocoder domain.Geocoder, moveEndDelay time.Duration) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(colorPrimary)

	ti := textinput.New()
	ti.Placeholder = "City, address, or ZIP"
	ti.Prompt = "Search: "
	ti.CharLimit = 128
	ti.Width = 40

	st := s.Snapshot()
	return Model{
		ctx:          ctx,
		session:      s,
		geocoder:     geocoder,
		moveEndDelay: moveEndDelay,
		center:       st.Coordinate,
		zoom:         defaultZoom,
		state:        st,
		search:       ti,
		spinner:      sp,
		bar: progress.New(
			progress.WithDefaultGradient(),
			progress.WithWidth(24),
			progress.WithoutPercentage(),
		),
	}
}

// Init does not fetch: the first lookup waits for the first move-end.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case moveEndMsg:
		if msg.seq != m.moveSeq {
			return m, nil
		}
		return m.startLookup()

	case lookupResultMsg:
		m.session.Apply(msg.result)
		m.state = m.session.Snapshot()
		return m, nil

	case placeResultMsg:
		return m.handlePlace(msg)

	case spinner.TickMsg:
		if !m.state.Pending {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if m.searching {
			return m.handleSearchKey(msg)
		}
		return m.handleKey(msg)
	}

	if m.searching {
		var cmd tea.Cmd
		m.search, cmd = m.search.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	step := panStep(m.zoom)

	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "up", "k":
		return m.move(pan(m.center, step, 0))
	case "down", "j":
		return m.move(pan(m.center, -step, 0))
	case "left", "h":
		return m.move(pan(m.center, 0, -step))
	case "right", "l":
		return m.move(pan(m.center, 0, step))
	case "+", "=":
		if m.zoom < maxZoom {
			m.zoom++
		}
		return m.move(m.center)
	case "-", "_":
		if m.zoom > minZoom {
			m.zoom--
		}
		return m.move(m.center)
	case "r":
		m.moveSeq++
		return m.startLookup()
	case "esc":
		m.session.Dismiss()
	case "enter":
		m.session.Reopen()
	case "tab":
		m.showDetails = !m.showDetails
	case "/":
		if m.geocoder == nil {
			m.status = "Place search is disabled (set MAPBOX_TOKEN)"
			return m, nil
		}
		m.searching = true
		m.status = ""
		m.search.Reset()
		return m, m.search.Focus()
	}

	m.state = m.session.Snapshot()
	return m, nil
}

// handleSearchKey routes keys to the search prompt, so letters such as q
// are typed instead of acting as shortcuts.
func (m Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.closeSearch()
		return m, nil
	case "enter":
		query := strings.TrimSpace(m.search.Value())
		m.closeSearch()
		if query == "" {
			return m, nil
		}
		m.status = fmt.Sprintf("Searching for %q...", query)
		return m, geocodePlace(m.ctx, m.geocoder, query)
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	return m, cmd
}

func (m *Model) closeSearch() {
	m.searching = false
	m.search.Blur()
}

// handlePlace jumps the viewport to a found place and looks it up at once,
// as if the user had panned there and stopped.
func (m Model) handlePlace(msg placeResultMsg) (tea.Model, tea.Cmd) {
	switch {
	case errors.Is(msg.err, domain.ErrPlaceNotFound):
		m.status = fmt.Sprintf("No place found for %q", msg.query)
		return m, nil
	case msg.err != nil:
		m.status = "Place search failed: " + msg.err.Error()
		return m, nil
	}

	m.status = msg.place.FullName
	m.center = m.session.OnViewportChange(msg.place.Coordinate)
	m.moveSeq++
	return m.startLookup()
}

// move records a continuous viewport change and schedules the move-end that
// fires once the viewport has been still for moveEndDelay.
func (m Model) move(c domain.Coordinate) (tea.Model, tea.Cmd) {
	m.center = m.session.OnViewportChange(c)
	m.moveSeq++
	m.state = m.session.Snapshot()
	return m, scheduleMoveEnd(m.moveEndDelay, m.moveSeq)
}

func (m Model) startLookup() (tea.Model, tea.Cmd) {
	l := m.session.OnViewportChangeEnd(m.center)
	m.state = m.session.Snapshot()
	return m, tea.Batch(fetchRisk(m.ctx, m.session, l), m.spinner.Tick)
}

// View renders the UI
func (m Model) View() string {
	sections := []string{
		titleStyle.Render("Hazard Risk Map"),
		mutedStyle.Render("FEMA National Risk Index for the viewport center"),
		"",
		m.viewCoordinates(),
	}

	switch {
	case m.state.Visibility == session.Shown && m.state.Current != nil:
		sections = append(sections, m.viewSummary(*m.state.Current))
	case m.state.Current != nil:
		sections = append(sections, "", mutedStyle.Render("Summary hidden. Press Enter to show it again."))
	case !m.state.Pending:
		sections = append(sections, "", mutedStyle.Render("Pan to a location to load its risk summary."))
	}

	if m.searching {
		sections = append(sections, "", m.search.View())
	} else if m.status != "" {
		sections = append(sections, "", mutedStyle.Render(m.status))
	}

	help := "↑↓←→/hjkl: Pan • +/-: Zoom • /: Search • R: Refresh • Tab: Details • Esc: Dismiss • Enter: Show • Q: Quit"
	if m.searching {
		help = "Enter: Go • Esc: Cancel"
	}
	sections = append(sections, helpStyle.Render(help))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) viewCoordinates() string {
	lines := []string{
		fmt.Sprintf("Latitude: %s", domain.FormatDegrees(m.center.Latitude, 4)),
		fmt.Sprintf("Longitude: %s", domain.FormatDegrees(m.center.Longitude, 4)),
		mutedStyle.Render(fmt.Sprintf("Zoom: %d", m.zoom)),
	}
	if m.state.Pending {
		lines = append(lines, m.spinner.View()+" Loading risk data...")
	}
	return coordBoxStyle.Render(strings.Join(lines, "\n"))
}

func (m Model) viewSummary(lookup domain.RiskLookup) string {
	p := lookup.Profile

	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("%s County, %s", p.County, p.State)))
	b.WriteString("\n")
	b.WriteString(labelStyle.Render("Population ") + valueStyle.Render(humanize.Comma(int64(p.Population))))
	b.WriteString("  ")
	b.WriteString(labelStyle.Render("Social vulnerability ") + valueStyle.Render(fmt.Sprintf("%.2f", p.SocialVulnerability)))
	b.WriteString("  ")
	b.WriteString(labelStyle.Render("Community resilience ") + valueStyle.Render(fmt.Sprintf("%.2f", p.CommunityResilience)))
	b.WriteString("\n")

	b.WriteString(sectionHeaderStyle.Render("Top Hazards"))
	b.WriteString("\n")
	top := domain.Rank(p)
	if len(top) == 0 {
		b.WriteString(mutedStyle.Render("No scored hazards for this location."))
		b.WriteString("\n")
	}
	for _, h := range top {
		score := *h.Record.HazardTypeRiskScore
		fmt.Fprintf(&b, "%-20s %s %s\n",
			h.DisplayName,
			m.bar.ViewAs(score/100),
			scoreStyle(score).Render(domain.FormatScore(&score)),
		)
	}

	if m.showDetails {
		b.WriteString(sectionHeaderStyle.Render("All Hazards"))
		b.WriteString("\n")
		b.WriteString(detailTable(domain.DetailList(p)))
		b.WriteString("\n")
	}

	b.WriteString(mutedStyle.Render("Looked up " + lookup.LookedUpAt.Local().Format("15:04:05")))

	return summaryBoxStyle.Render(b.String())
}

// detailTable renders every scored hazard with its supporting figures.
func detailTable(hazards []domain.RankedHazard) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorMuted)).
		BorderColumn(false).
		Headers("Hazard", "Score", "Events", "Freq/yr", "Annual loss ($)").
		StyleFunc(func(row, col int) lipgloss.Style {
			cell := lipgloss.NewStyle().Padding(0, 1)
			if col > 0 {
				cell = cell.Align(lipgloss.Right)
			}
			if row == table.HeaderRow {
				return cell.Inherit(labelStyle)
			}
			return cell
		})
	for _, h := range hazards {
		r := h.Record
		t.Row(
			h.DisplayName,
			domain.FormatScore(r.HazardTypeRiskScore),
			domain.FormatEvents(r.Events),
			domain.FormatFrequency(r.AnnualizedFrequency),
			domain.FormatLoss(r.AnnualLoss),
		)
	}
	return t.String()
}
