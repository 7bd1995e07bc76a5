package tui

import (
	"context"
	"fmt"
	"strings"

	"noctua/internal/core"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// DigestSource is the part of the store the browser reads from.
type DigestSource interface {
	ListDigests(ctx context.Context, limit int) ([]core.DigestListing, error)
	GetDigest(ctx context.Context, date string) (*core.DigestRecord, error)
}

type digestLoadedMsg struct {
	date   string
	record *core.DigestRecord
	err    error
}

// model is the two-pane digest browser: dates on the left, the selected
// digest's script on the right.
type model struct {
	ctx         context.Context
	source      DigestSource
	listings    []core.DigestListing
	selectedIdx int
	detail      *core.DigestRecord
	detailErr   error
	scroll      int
	width       int
	height      int
	quitting    bool
}

func newModel(ctx context.Context, source DigestSource, listings []core.DigestListing) model {
	return model{ctx: ctx, source: source, listings: listings}
}

// Init loads the first digest.
func (m model) Init() tea.Cmd {
	return m.loadSelected()
}

func (m model) loadSelected() tea.Cmd {
	if len(m.listings) == 0 || m.source == nil {
		return nil
	}
	date := m.listings[m.selectedIdx].Date
	ctx, source := m.ctx, m.source
	return func() tea.Msg {
		rec, err := source.GetDigest(ctx, date)
		return digestLoadedMsg{date: date, record: rec, err: err}
	}
}

// Update handles messages and updates the model accordingly.
func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case digestLoadedMsg:
		// Ignore late results for a date that is no longer selected.
		if len(m.listings) > 0 && msg.date == m.listings[m.selectedIdx].Date {
			m.detail, m.detailErr, m.scroll = msg.record, msg.err, 0
		}

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.quitting = true
			return m, tea.Quit
		case "up", "k":
			if m.selectedIdx > 0 {
				m.selectedIdx--
				m.detail = nil
				return m, m.loadSelected()
			}
		case "down", "j":
			if m.selectedIdx < len(m.listings)-1 {
				m.selectedIdx++
				m.detail = nil
				return m, m.loadSelected()
			}
		case "pgdown", "f", " ":
			m.scroll += m.pageSize()
		case "pgup", "b":
			m.scroll = max(0, m.scroll-m.pageSize())
		}
	}

	return m, nil
}

func (m model) pageSize() int {
	return max(5, m.height-8)
}

var (
	docStyle      = lipgloss.NewStyle().Margin(1, 2)
	paneStyle     = lipgloss.NewStyle().Border(lipgloss.RoundedBorder(), true).Padding(0, 1)
	selectedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	headingStyle  = lipgloss.NewStyle().Bold(true)
)

// View renders the TUI.
func (m model) View() string {
	if m.quitting {
		return "Bye.\n"
	}
	if len(m.listings) == 0 {
		return docStyle.Render("No digests stored yet. Run `noctua run` first.\n\n[q] Quit")
	}

	listWidth := 28
	detailWidth := max(40, m.width-listWidth-12)

	var list strings.Builder
	list.WriteString(headingStyle.Render("Digests") + "\n\n")
	for i, l := range m.listings {
		line := fmt.Sprintf("%s  %3d art", l.Date, l.ArticleCount)
		if i == m.selectedIdx {
			list.WriteString(selectedStyle.Render("> "+line) + "\n")
		} else {
			list.WriteString("  " + line + "\n")
		}
	}

	leftPane := paneStyle.Width(listWidth).Render(list.String())
	rightPane := paneStyle.Width(detailWidth).Render(m.detailView())
	help := dimStyle.Render("[↑/k] Up | [↓/j] Down | [space/b] Scroll | [q] Quit")

	return docStyle.Render(lipgloss.JoinHorizontal(lipgloss.Top, leftPane, rightPane) + "\n\n" + help)
}

func (m model) detailView() string {
	selected := m.listings[m.selectedIdx]
	header := headingStyle.Render(selected.Date) + "  " + dimStyle.Render(selected.TopicsSummary)
	if selected.Summary != "" {
		header += "\n" + selected.Summary
	}

	switch {
	case m.detailErr != nil:
		return header + "\n\nFailed to load digest: " + m.detailErr.Error()
	case m.detail == nil:
		return header + "\n\nLoading..."
	}

	lines := strings.Split(m.detail.Text, "\n")
	start := min(m.scroll, max(0, len(lines)-1))
	end := min(len(lines), start+m.pageSize())
	return header + "\n\n" + strings.Join(lines[start:end], "\n")
}

// StartTUI loads the most recent digests and runs the browser until the user quits.
func StartTUI(ctx context.Context, source DigestSource, limit int) error {
	listings, err := source.ListDigests(ctx, limit)
	if err != nil {
		return fmt.Errorf("failed to list digests: %w", err)
	}

	p := tea.NewProgram(newModel(ctx, source, listings), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}
	return nil
}
