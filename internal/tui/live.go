// Package tui is the live run view: a bubbletea program fed periodic
// snapshots of the event stream.
package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	cyan   = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	white  = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	dim    = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	green  = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
	yellow = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
)

// Snapshot is one frame of run state.
type Snapshot struct {
	Name      string
	SimTime   float64
	Events    uint64
	MaxEvents uint64
	KE        float64
	MFT       float64
	Rate      float64 // events per second
	Done      bool
	Err       error
}

type model struct {
	snaps   <-chan Snapshot
	current Snapshot
	history []float64
	start   time.Time
	width   int
}

type snapMsg Snapshot

func waitForSnap(snaps <-chan Snapshot) tea.Cmd {
	return func() tea.Msg {
		snap, ok := <-snaps
		if !ok {
			return snapMsg(Snapshot{Done: true})
		}
		return snapMsg(snap)
	}
}

func (m model) Init() tea.Cmd { return waitForSnap(m.snaps) }

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "q" || msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
	case snapMsg:
		snap := Snapshot(msg)
		if snap.Done || snap.Err != nil {
			m.current.Done = true
			m.current.Err = snap.Err
			return m, tea.Quit
		}
		m.current = snap
		m.history = append(m.history, snap.KE)
		if len(m.history) > 50 {
			m.history = m.history[1:]
		}
		return m, waitForSnap(m.snaps)
	}
	return m, nil
}

func (m model) View() string {
	var b strings.Builder
	s := m.current

	b.WriteString(cyan.Render(fmt.Sprintf("  %s", s.Name)))
	b.WriteString(dim.Render(fmt.Sprintf("  up %s\n\n", time.Since(m.start).Round(time.Second))))

	b.WriteString(fmt.Sprintf("  %s %s\n", dim.Render("sim time "), white.Render(fmt.Sprintf("%.6g", s.SimTime))))
	b.WriteString(fmt.Sprintf("  %s %s", dim.Render("events   "), white.Render(fmt.Sprintf("%d", s.Events))))
	if s.MaxEvents > 0 {
		b.WriteString(dim.Render(fmt.Sprintf(" / %d", s.MaxEvents)))
		b.WriteString("  " + progressBar(float64(s.Events)/float64(s.MaxEvents), 24))
	}
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("  %s %s\n", dim.Render("rate     "), green.Render(fmt.Sprintf("%.0f ev/s", s.Rate))))
	b.WriteString(fmt.Sprintf("  %s %s\n", dim.Render("KE       "), white.Render(fmt.Sprintf("%.8g", s.KE))))
	b.WriteString(fmt.Sprintf("  %s %s\n", dim.Render("MFT      "), white.Render(fmt.Sprintf("%.4g", s.MFT))))

	b.WriteString("\n  " + sparkline(m.history, 40) + "\n")
	b.WriteString(dim.Render("\n  q to quit\n"))
	return b.String()
}

func progressBar(frac float64, width int) string {
	if frac > 1 {
		frac = 1
	}
	filled := int(frac * float64(width))
	return yellow.Render(strings.Repeat("█", filled)) + dim.Render(strings.Repeat("░", width-filled))
}

var sparkRunes = []rune("▁▂▃▄▅▆▇█")

func sparkline(vals []float64, width int) string {
	if len(vals) == 0 {
		return ""
	}
	if len(vals) > width {
		vals = vals[len(vals)-width:]
	}
	lo, hi := vals[0], vals[0]
	for _, v := range vals {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	var b strings.Builder
	for _, v := range vals {
		idx := 0
		if hi > lo {
			idx = int((v - lo) / (hi - lo) * float64(len(sparkRunes)-1))
		}
		b.WriteRune(sparkRunes[idx])
	}
	return green.Render(b.String())
}

// Run drives the live view until the snapshot channel closes or the user
// quits.
func Run(snaps <-chan Snapshot) error {
	m := model{snaps: snaps, start: time.Now(), width: 80}
	p := tea.NewProgram(m)
	_, err := p.Run()
	return err
}
