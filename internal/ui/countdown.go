package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const tickInterval = 200 * time.Millisecond

type tickMsg time.Time

type clearedMsg struct{}

// Countdown shows how long sensitive text stays on the clipboard.
type Countdown struct {
	preview  string
	due      time.Time
	total    time.Duration
	done     <-chan struct{}
	now      func() time.Time
	progress progress.Model

	remaining time.Duration
	cleared   bool
	aborted   bool
	width     int
}

// NewCountdown creates the view. preview should already be masked. done is
// closed once the clear has run.
func NewCountdown(preview string, due time.Time, done <-chan struct{}) Countdown {
	now := time.Now
	total := due.Sub(now())
	if total < 0 {
		total = 0
	}
	return Countdown{
		preview:   preview,
		due:       due,
		total:     total,
		done:      done,
		now:       now,
		progress:  progress.New(progress.WithDefaultGradient(), progress.WithWidth(40), progress.WithoutPercentage()),
		remaining: total,
		width:     80,
	}
}

// Aborted reports whether the user quit before the clear ran.
func (m Countdown) Aborted() bool {
	return m.aborted
}

// Cleared reports whether the clear ran while the view was open.
func (m Countdown) Cleared() bool {
	return m.cleared
}

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func waitCleared(done <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		if done != nil {
			<-done
		}
		return clearedMsg{}
	}
}

func (m Countdown) Init() tea.Cmd {
	return tea.Batch(tick(), waitCleared(m.done))
}

func (m Countdown) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			m.aborted = true
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		w := msg.Width - 4
		if w > 60 {
			w = 60
		}
		if w < 10 {
			w = 10
		}
		m.progress.Width = w

	case tickMsg:
		m.remaining = m.due.Sub(m.now())
		if m.remaining < 0 {
			m.remaining = 0
		}
		return m, tick()

	case clearedMsg:
		m.cleared = true
		m.remaining = 0
		return m, tea.Quit
	}

	return m, nil
}

// fraction is the share of the delay still left, from 1 down to 0.
func (m Countdown) fraction() float64 {
	if m.total <= 0 {
		return 0
	}
	f := float64(m.remaining) / float64(m.total)
	if f > 1 {
		return 1
	}
	if f < 0 {
		return 0
	}
	return f
}

func (m Countdown) View() string {
	var s strings.Builder

	headerStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("6")).
		Padding(0, 1)

	previewStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("3")).
		Padding(0, 1)

	statusStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("8")).
		Padding(0, 1)

	s.WriteString(headerStyle.Render("sensclip"))
	s.WriteString(previewStyle.Render(m.preview))
	s.WriteString("\n\n")

	if m.cleared {
		doneStyle := lipgloss.NewStyle().
			Foreground(lipgloss.Color("10")).
			Bold(true).
			Padding(0, 1)
		s.WriteString(doneStyle.Render("✓ Clipboard cleared"))
		s.WriteString("\n")
		return s.String()
	}

	s.WriteString(" ")
	s.WriteString(m.progress.ViewAs(m.fraction()))
	s.WriteString("\n")
	s.WriteString(statusStyle.Render(fmt.Sprintf("Clearing in %s", formatRemaining(m.remaining))))
	s.WriteString("\n")
	s.WriteString(statusStyle.Render("q: clear now and quit"))
	s.WriteString("\n")

	return s.String()
}

// formatRemaining rounds up so the view never shows 0s before the clear.
func formatRemaining(d time.Duration) string {
	if d <= 0 {
		return "0s"
	}
	secs := int64((d + time.Second - 1) / time.Second)
	if secs < 60 {
		return fmt.Sprintf("%ds", secs)
	}
	return (time.Duration(secs) * time.Second).String()
}

// RunCountdown shows the countdown until the clear runs or the user quits.
func RunCountdown(m Countdown) (Countdown, error) {
	p := tea.NewProgram(m)
	final, err := p.Run()
	if err != nil {
		return m, fmt.Errorf("program error: %w", err)
	}
	if fm, ok := final.(Countdown); ok {
		return fm, nil
	}
	return m, nil
}
