package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"
)

const maxLogLines = 500

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	statsStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	helpStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Italic(true)
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	kindStyles = map[string]lipgloss.Style{
		"media":  lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		"mark":   lipgloss.NewStyle().Foreground(lipgloss.Color("75")),
		"clear":  lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		"closed": lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
	}
)

type connectedMsg struct{ twiml string }

type callEventMsg callEvent

type callFailedMsg struct{ err error }

type callEndedMsg struct{}

type model struct {
	caller   string
	spinner  spinner.Model
	viewport viewport.Model
	ready    bool

	connected bool
	ended     bool
	err       error
	lines     []string
	media     int
	marks     int
	clears    int

	hangUp func()
}

func newModel(callerNumber string, hangUp func()) model {
	return model{
		caller:   callerNumber,
		spinner:  spinner.New(spinner.WithSpinner(spinner.Dot)),
		viewport: viewport.New(80, 20),
		hangUp:   hangUp,
	}
}

func (m model) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			if m.hangUp != nil {
				m.hangUp()
			}
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.viewport.Width = msg.Width
		m.viewport.Height = max(msg.Height-4, 3)
		m.ready = true
		m.refresh()
	case connectedMsg:
		m.connected = true
		m.log("call", "connected, twiml "+strings.Join(strings.Fields(msg.twiml), " "))
	case callEventMsg:
		switch msg.kind {
		case "media":
			m.media++
		case "mark":
			m.marks++
		case "clear":
			m.clears++
		}
		m.log(msg.kind, msg.detail)
	case callFailedMsg:
		m.err = msg.err
		m.ended = true
		m.log("error", msg.err.Error())
	case callEndedMsg:
		m.ended = true
		m.log("call", "ended")
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m *model) log(kind, detail string) {
	style, ok := kindStyles[kind]
	if !ok {
		style = lipgloss.NewStyle()
	}
	line := fmt.Sprintf("%s %s %s", time.Now().Format("15:04:05.000"), style.Render(fmt.Sprintf("%-7s", kind)), detail)
	m.lines = append(m.lines, line)
	if len(m.lines) > maxLogLines {
		m.lines = m.lines[len(m.lines)-maxLogLines:]
	}
	m.refresh()
}

func (m *model) refresh() {
	width := m.viewport.Width
	if width <= 0 {
		width = 80
	}
	m.viewport.SetContent(wordwrap.String(strings.Join(m.lines, "\n"), width))
	m.viewport.GotoBottom()
}

func (m model) View() string {
	status := m.spinner.View() + " connecting"
	switch {
	case m.err != nil:
		status = errorStyle.Render("failed")
	case m.ended:
		status = "ended"
	case m.connected:
		status = m.spinner.View() + " in call"
	}

	header := titleStyle.Render("mock call from "+m.caller) + "  " + status
	stats := statsStyle.Render(fmt.Sprintf("media %d  marks %d  clears %d", m.media, m.marks, m.clears))
	help := helpStyle.Render("q: hang up")

	return lipgloss.JoinVertical(lipgloss.Left, header, stats, m.viewport.View(), help)
}
