package toolchain

import (
	"fmt"
	"os"

	bspinner "github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	log "github.com/cloudposse/rustdn/pkg/logger"
)

var spinnerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

// Bubble Tea spinner model shown while a toolchain builds.
type spinnerModel struct {
	spinner bspinner.Model
	message string
	done    bool
}

func initialSpinnerModel(message string) *spinnerModel {
	s := bspinner.New()
	s.Spinner = bspinner.Dot
	s.Style = spinnerStyle
	return &spinnerModel{
		spinner: s,
		message: message,
	}
}

func (m *spinnerModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m *spinnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case bspinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case buildDoneMsg:
		m.done = true
		return m, tea.Quit
	}
	return m, nil
}

func (m *spinnerModel) View() string {
	if m.done {
		return ""
	}
	return fmt.Sprintf("%s %s", m.spinner.View(), m.message)
}

// Signals the spinner that the build finished.
type buildDoneMsg struct{}

// startProgress reports that a build started and returns a func that stops
// the report. On a terminal a spinner runs until then; otherwise, or when
// disabled, the message is logged once.
func startProgress(message string, enabled bool) (stop func()) {
	if !enabled || !isatty.IsTerminal(os.Stderr.Fd()) {
		log.Info(message)
		return func() {}
	}

	// No input: the spinner must not put the terminal in raw mode or read
	// keystrokes meant for the proxied tool.
	p := tea.NewProgram(initialSpinnerModel(message), tea.WithOutput(os.Stderr), tea.WithInput(nil))
	done := make(chan struct{})
	go func() {
		defer close(done)
		if _, err := p.Run(); err != nil {
			log.Debug("Progress spinner stopped", "error", err)
		}
	}()

	return func() {
		p.Send(buildDoneMsg{})
		<-done
	}
}
