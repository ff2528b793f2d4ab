package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"patientsim/internal/client"
	"patientsim/internal/config"
	"patientsim/internal/core"
	"patientsim/pkg"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("25")).Padding(0, 1)
	statusStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("250")).Padding(0, 1)
	userStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	personaStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214"))
	noteStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Italic(true)
	helpStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	feedbackFrame = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240")).Padding(0, 1).MarginLeft(2)

	scoreStyles = map[string]lipgloss.Style{
		core.QualityExcellent: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42")),
		core.QualityGood:      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("112")),
		core.QualityAverage:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("220")),
		core.QualityPoor:      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("203")),
	}
)

// sessionEventMsg wraps one core event for the update loop.
type sessionEventMsg core.Event

// turnDoneMsg reports the outcome of a submitted turn.
type turnDoneMsg struct{ err error }

type model struct {
	cfg     *config.Config
	session *core.Session
	events  chan core.Event

	input textinput.Model
	vp    viewport.Model
	spin  spinner.Model

	width   int
	height  int
	ready   bool
	locked  bool
	waiting bool
	ended   bool
	goal    bool
	status  int
	note    string
	err     error
}

func newModel(cfg *config.Config, session *core.Session, events chan core.Event) model {
	input := textinput.New()
	input.Prompt = "❯ "
	input.Placeholder = "Skriv til " + cfg.Persona.Name + "..."
	input.CharLimit = 500
	input.Focus()

	spin := spinner.New()
	spin.Spinner = spinner.Points
	spin.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))

	return model{
		cfg:     cfg,
		session: session,
		events:  events,
		input:   input,
		spin:    spin,
		status:  session.Status(),
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.waitForEvent())
}

// waitForEvent bridges the session's event sink into the Bubble Tea loop.
// It is re-armed after every delivered event.
func (m model) waitForEvent() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-m.events
		if !ok {
			return nil
		}
		return sessionEventMsg(ev)
	}
}

func (m model) submitTurn(text string) tea.Cmd {
	return func() tea.Msg {
		return turnDoneMsg{err: m.session.SubmitTurn(context.Background(), text)}
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			text := strings.TrimSpace(m.input.Value())
			if text == "" || m.locked || m.ended {
				return m, nil
			}
			m.input.Reset()
			return m, m.submitTurn(text)
		}

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		chrome := 5 // title, status bar, activity line, input, help
		if !m.ready {
			m.vp = viewport.New(msg.Width, msg.Height-chrome)
			m.ready = true
		} else {
			m.vp.Width = msg.Width
			m.vp.Height = msg.Height - chrome
		}
		m.vp.SetContent(m.renderTranscript())
		return m, nil

	case spinner.TickMsg:
		if !m.waiting && !m.locked {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case sessionEventMsg:
		cmds := []tea.Cmd{m.waitForEvent()}
		switch msg.Type {
		case core.EventInputLocked:
			m.locked = true
			m.note = ""
			cmds = append(cmds, m.spin.Tick)
		case core.EventInputUnlocked:
			m.locked = false
			m.waiting = false
		case core.EventWaitingStarted:
			m.waiting = true
		case core.EventWaitingStopped:
			m.waiting = false
		case core.EventStatusChanged:
			m.status = msg.Status
		case core.EventGoalReached:
			m.goal = true
		case core.EventConversationEnded:
			m.ended = true
		case core.EventTurnError:
			m.note = msg.Note
		}
		if m.ready {
			m.vp.SetContent(m.renderTranscript())
		}
		return m, tea.Batch(cmds...)

	case turnDoneMsg:
		// Rejected submissions (empty text, turn in flight) are silent; the
		// input state already reflects them through events.
		if msg.err != nil && msg.err != core.ErrEmptyUtterance && msg.err != core.ErrTurnInFlight {
			m.err = msg.err
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m model) View() string {
	if !m.ready {
		return "Indlæser..."
	}

	title := titleStyle.Render("Samtaletræning med " + m.cfg.Persona.Name)
	statusLine := statusStyle.Render(fmt.Sprintf("Status %d/5: %s", m.status, m.cfg.DescribeStatus(m.status)))

	activity := " "
	switch {
	case m.waiting:
		activity = m.spin.View() + " " + m.cfg.Persona.Name + " tænker..."
	case m.locked:
		activity = m.spin.View() + " venter på svar..."
	case m.goal && m.ended:
		activity = personaStyle.Render("Mål nået, samtalen er slut.")
	case m.goal:
		activity = personaStyle.Render("Mål nået: " + m.cfg.Persona.Name + " indvilger i at måle sit blodsukker.")
	case m.ended:
		activity = noteStyle.Render("Samtalen er slut.")
	}
	if m.err != nil {
		activity = noteStyle.Render("Fejl: " + m.err.Error())
	}

	inputLine := m.input.View()
	if m.locked {
		inputLine = helpStyle.Render("(input låst mens turen afvikles)")
	}
	help := helpStyle.Render("enter: send · esc: afslut")

	return strings.Join([]string{title, statusLine, m.vp.View(), activity, inputLine, help}, "\n")
}

// renderTranscript draws the reverse-chronological transcript with feedback
// panels under the trainee's own utterances.
func (m model) renderTranscript() string {
	var b strings.Builder
	for _, u := range m.session.Transcript() {
		label := personaStyle.Render(string(u.Speaker) + ":")
		if u.Speaker == pkg.SpeakerUser {
			label = userStyle.Render(string(u.Speaker) + ":")
		}
		b.WriteString(label + " " + u.Text + "\n")
		if u.Feedback != nil {
			b.WriteString(renderFeedback(u.Feedback.Score, u.Feedback.Attitude, u.Feedback.Strengths, u.Feedback.Focus) + "\n")
		}
		b.WriteString("\n")
	}
	if m.note != "" {
		b.WriteString(noteStyle.Render(m.note) + "\n")
	}
	return b.String()
}

func renderFeedback(score int, attitude, strengths, focus string) string {
	style, ok := scoreStyles[core.QualityClass(score)]
	if !ok {
		style = scoreStyles[core.QualityAverage]
	}
	lines := []string{style.Render(fmt.Sprintf("Score: %d/10", score))}
	if attitude != "" {
		lines = append(lines, "Holdning: "+attitude)
	}
	if strengths != "" {
		lines = append(lines, "Styrker: "+strengths)
	}
	if focus != "" {
		lines = append(lines, "Fokus: "+focus)
	}
	return feedbackFrame.Render(strings.Join(lines, "\n"))
}

func main() {
	var (
		configPath = flag.String("config", "", "path to a config file")
		serverURL  = flag.String("server", "http://localhost:3000", "base URL of the proxy server")
		logPath    = flag.String("log", "", "append debug logs to this file")
	)
	flag.Parse()

	logOut := io.Discard
	if *logPath != "" {
		f, err := os.OpenFile(*logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintln(os.Stderr, "open log file:", err)
			os.Exit(1)
		}
		defer f.Close()
		logOut = f
	}
	log := zerolog.New(logOut).With().Timestamp().Logger()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "load config:", err)
		os.Exit(1)
	}

	api := client.New(*serverURL)
	player := newTerminalPlayer(cfg.Audio.PlayerCommand, log)
	audio := core.NewAudioController(player, cfg.Audio.WaitingClips, cfg.Audio.WelcomeClip, log)

	// The event channel is buffered so the session's turn goroutine never
	// blocks on a slow redraw.
	events := make(chan core.Event, 64)
	sink := func(ev core.Event) { events <- ev }
	session := core.NewSession(cfg, api, api, api, audio, sink, log)
	session.Start()

	p := tea.NewProgram(newModel(cfg, session, events), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintln(os.Stderr, "trainer:", err)
		os.Exit(1)
	}
}
