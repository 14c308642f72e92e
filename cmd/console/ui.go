package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/cwhitt/adventure-engine/internal/config"
	"github.com/cwhitt/adventure-engine/pkg/dispatcher"
	"github.com/cwhitt/adventure-engine/pkg/engine"
)

const (
	PlaceHolderText = "What do you do?"
	SaveFileName    = "adventure-save.json"
)

// ConsoleUI is the BubbleTea model that runs the UI.
// https://github.com/charmbracelet/bubbletea
type ConsoleUI struct {
	config       *config.Config
	logger       *slog.Logger
	session      *Session
	policy       dispatcher.Policy
	gameViewport viewport.Model
	metaViewport viewport.Model
	textarea     textarea.Model
	ready        bool
	width        int
	height       int
	err          error
	loading      bool

	// Transcript lines, reflowed on resize.
	transcript []transcriptLine

	// World selection state
	showWorldModal bool
	worlds         []worldEntry
	selectedWorld  int

	// Suspended-command interaction state
	pending           *interaction
	selectedCandidate int
	lineDone          chan struct{}

	// Quit confirmation state
	showQuitModal bool

	// Cached player state, refreshed after each line.
	score  int
	moves  int
	status engine.GameStatus

	// Progress bar state
	progressTick int
}

// transcriptLine is one logical line of the game transcript with its
// rendering role.
type transcriptLine struct {
	Text string
	Role string // "player", "game", "error", "system"
}

type lineResultMsg struct {
	messages []string
	score    int
	moves    int
	status   engine.GameStatus
}

type interactionMsg struct {
	req *interaction
}

type sessionStartedMsg struct {
	session *Session
	err     error
}

type actorTickMsg struct{}

type progressTickMsg struct{}

var (
	gamePanelStyle = lipgloss.NewStyle().
			PaddingTop(2).
			PaddingBottom(1).
			PaddingLeft(3).
			PaddingRight(0)

	metaPanelStyle = lipgloss.NewStyle().
			PaddingTop(2).
			PaddingBottom(0).
			PaddingLeft(0).
			PaddingRight(2)

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")). // pink
			Bold(true)

	gameStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")) // green

	playerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")) // teal

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")) // red

	systemStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")) // yellow

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2).
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("255"))

	modalTitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true).
			Align(lipgloss.Center)

	modalItemStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255"))

	modalSelectedItemStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("0")).
				Background(lipgloss.Color("205")).
				Bold(true)

	separatorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey
)

var titleCaser = cases.Title(language.English)

func NewConsoleUI(cfg *config.Config, logger *slog.Logger, worlds []worldEntry) ConsoleUI {
	ta := textarea.New()
	ta.Placeholder = PlaceHolderText
	ta.Focus()
	ta.Prompt = promptStyle.Render("> ")
	ta.CharLimit = 500
	ta.SetWidth(50)
	ta.SetHeight(1)
	ta.ShowLineNumbers = false

	gameVp := viewport.New(50, 20)
	gameVp.MouseWheelEnabled = true

	metaVp := viewport.New(20, 20)

	return ConsoleUI{
		config:         cfg,
		logger:         logger,
		policy:         dispatcher.PolicyFailEarly,
		textarea:       ta,
		gameViewport:   gameVp,
		metaViewport:   metaVp,
		showWorldModal: true,
		worlds:         worlds,
		status:         engine.StatusPlaying,
	}
}

func (m ConsoleUI) Init() tea.Cmd {
	return nil
}

func (m *ConsoleUI) append(role string, lines ...string) {
	for _, l := range lines {
		m.transcript = append(m.transcript, transcriptLine{Text: l, Role: role})
	}
}

// writeGameContent renders the transcript into the viewport at the
// current width.
func (m *ConsoleUI) writeGameContent() {
	wrapWidth := m.gameViewport.Width - 6
	if wrapWidth < 10 {
		wrapWidth = 10
	}

	var content strings.Builder
	content.WriteString(titleStyle.Render("ADVENTURE ENGINE") + "\n\n")
	content.WriteString(separatorStyle.Render(strings.Repeat("─", wrapWidth)) + "\n\n")

	for _, line := range m.transcript {
		wrapped := wordwrap.String(line.Text, wrapWidth)
		switch line.Role {
		case "player":
			content.WriteString(playerStyle.Render(wrapped) + "\n")
		case "error":
			content.WriteString(errorStyle.Render(wrapped) + "\n")
		case "system":
			content.WriteString(systemStyle.Render(wrapped) + "\n")
		default:
			content.WriteString(gameStyle.Render(wrapped) + "\n")
		}
	}

	if m.loading {
		content.WriteString("\n" + m.renderProgressBar())
	}

	m.gameViewport.SetContent(content.String())
	m.gameViewport.GotoBottom()
}

func (m *ConsoleUI) writeMetadata() {
	var content strings.Builder
	content.WriteString(titleStyle.Render("STATUS") + "\n\n")

	content.WriteString("World:\n")
	content.WriteString(titleCaser.String(m.session.WorldName) + "\n\n")

	content.WriteString(fmt.Sprintf("Score: %d\n", m.score))
	content.WriteString(fmt.Sprintf("Moves: %d\n\n", m.moves))

	switch m.status {
	case engine.StatusWon:
		content.WriteString(systemStyle.Render("You have won!") + "\n\n")
	case engine.StatusLost:
		content.WriteString(errorStyle.Render("Game over.") + "\n\n")
	}

	content.WriteString("Policy:\n")
	content.WriteString(string(m.policy) + "\n\n")

	content.WriteString("Commands:\n")
	content.WriteString("• Enter: Act\n")
	content.WriteString("• Ctrl+C: Quit\n")
	content.WriteString("• /help: Help\n")
	content.WriteString("• /save, /restore\n")
	content.WriteString("• /copy: Clipboard\n")

	m.metaViewport.SetContent(content.String())
}

func (m *ConsoleUI) resize() {
	gameWidth := int(float64(m.width)*0.75) - 4
	metaWidth := m.width - gameWidth - 6

	m.gameViewport.Width = gameWidth - 2
	m.gameViewport.Height = m.height - 7
	m.metaViewport.Width = metaWidth - 2
	m.metaViewport.Height = m.height - 4
	m.textarea.SetWidth(gameWidth - 4)
}

func (m ConsoleUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.showWorldModal {
		return m.updateWorldModal(msg)
	}
	if m.showQuitModal {
		return m.updateQuitModal(msg)
	}
	if m.pending != nil {
		return m.updateInteractionModal(msg)
	}

	var (
		tiCmd tea.Cmd
		vpCmd tea.Cmd
		mvCmd tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.MouseMsg:
		m.gameViewport, vpCmd = m.gameViewport.Update(msg)
		return m, vpCmd

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		m.ready = true
		m.writeGameContent()
		if m.session != nil {
			m.writeMetadata()
		}

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.showQuitModal = true
			return m, nil
		case tea.KeyEnter:
			if m.loading {
				return m, nil
			}

			input := strings.TrimSpace(m.textarea.Value())
			if input == "" {
				return m, nil
			}
			if strings.HasPrefix(input, "/") {
				return m.handleCommand(input)
			}

			m.textarea.Reset()
			m.loading = true
			m.progressTick = 0
			m.append("player", "> "+input)
			m.writeGameContent()

			done := make(chan struct{})
			m.lineDone = done
			return m, tea.Batch(
				m.runLine(input, done),
				waitInteraction(m.session, done),
				progressTick(),
			)
		}

	case lineResultMsg:
		m.loading = false
		m.pending = nil
		m.append("game", msg.messages...)
		m.append("game", "")
		m.score = msg.score
		m.moves = msg.moves
		m.status = msg.status
		m.writeGameContent()
		m.writeMetadata()
		return m, nil

	case interactionMsg:
		if msg.req != nil {
			m.pending = msg.req
			m.selectedCandidate = 0
		}
		return m, nil

	case actorTickMsg:
		// Actors stand still while a command is suspended on a modal;
		// ticking would block on the engine mutex.
		if !m.loading && m.session != nil && m.status == engine.StatusPlaying {
			if msgs := m.session.Engine.Tick(); len(msgs) > 0 {
				m.append("game", msgs...)
				m.writeGameContent()
			}
		}
		return m, m.scheduleTick()

	case progressTickMsg:
		if m.loading {
			m.progressTick++
			m.writeGameContent()
			return m, progressTick()
		}
	}

	m.textarea, tiCmd = m.textarea.Update(msg)
	m.gameViewport, vpCmd = m.gameViewport.Update(msg)
	m.metaViewport, mvCmd = m.metaViewport.Update(msg)
	return m, tea.Batch(tiCmd, vpCmd, mvCmd)
}

// runLine executes one input line on the session engine. Runs on a
// goroutine; the engine may suspend on the Interactions channel.
func (m ConsoleUI) runLine(input string, done chan struct{}) tea.Cmd {
	s := m.session
	policy := m.policy
	return func() tea.Msg {
		defer close(done)

		report := s.Engine.ExecuteLine(context.Background(), input, policy)
		var messages []string
		for _, res := range report.Results {
			messages = append(messages, res.Output.Messages...)
		}
		messages = append(messages, s.Engine.Tick()...)

		player := s.Engine.World().Player
		return lineResultMsg{
			messages: messages,
			score:    player.Score,
			moves:    player.Moves,
			status:   s.Engine.Status(),
		}
	}
}

// waitInteraction delivers the next suspended-command question, or
// nothing when the line completes first.
func waitInteraction(s *Session, done chan struct{}) tea.Cmd {
	return func() tea.Msg {
		select {
		case req := <-s.Interactions:
			return interactionMsg{req}
		case <-done:
			return nil
		}
	}
}

func (m ConsoleUI) scheduleTick() tea.Cmd {
	if m.config.TickInterval <= 0 {
		return nil
	}
	return tea.Tick(m.config.TickInterval, func(time.Time) tea.Msg {
		return actorTickMsg{}
	})
}

func (m ConsoleUI) handleCommand(input string) (tea.Model, tea.Cmd) {
	cmd := strings.ToLower(strings.TrimSpace(input))
	m.textarea.Reset()

	switch cmd {
	case "/help":
		m.append("system",
			"Commands:",
			"  /help            Show this help",
			"  /policy          Toggle fail-early / best-effort",
			"  /save, /restore  Save or restore the game",
			"  /copy            Copy the transcript to the clipboard",
			"",
			"Separate several commands with \"and\", \"then\" or commas.",
			"")

	case "/policy":
		if m.policy == dispatcher.PolicyFailEarly {
			m.policy = dispatcher.PolicyBestEffort
		} else {
			m.policy = dispatcher.PolicyFailEarly
		}
		m.append("system", fmt.Sprintf("Execution policy is now %s.", m.policy), "")
		m.writeMetadata()

	case "/save":
		if err := m.session.SaveTo(SaveFileName); err != nil {
			m.append("error", "Save failed: "+err.Error(), "")
		} else {
			m.append("system", "Game saved to "+SaveFileName+".", "")
		}

	case "/restore":
		if err := m.session.RestoreFrom(SaveFileName); err != nil {
			m.append("error", "Restore failed: "+err.Error(), "")
		} else {
			player := m.session.Engine.World().Player
			m.score = player.Score
			m.moves = player.Moves
			m.status = m.session.Engine.Status()
			m.append("system", "Game restored.", "")
			m.writeMetadata()
		}

	case "/copy":
		var lines []string
		for _, l := range m.transcript {
			lines = append(lines, l.Text)
		}
		if err := clipboard.WriteAll(strings.Join(lines, "\n")); err != nil {
			m.append("error", "Copy failed: "+err.Error(), "")
		} else {
			m.append("system", "Transcript copied to clipboard.", "")
		}

	default:
		m.append("error", "Unknown command: "+cmd, "")
	}

	m.writeGameContent()
	return m, nil
}

func (m ConsoleUI) updateWorldModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case sessionStartedMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.session = msg.session
		m.showWorldModal = false
		m.resize()
		m.ready = true

		// The opening look describes the starting room.
		report := m.session.Engine.ExecuteLine(context.Background(), "look", dispatcher.PolicyFailEarly)
		for _, res := range report.Results {
			m.append("game", res.Output.Messages...)
		}
		m.append("game", "")
		m.writeGameContent()
		m.writeMetadata()
		m.textarea.Focus()
		return m, tea.Batch(textarea.Blink, m.scheduleTick())

	case tea.KeyMsg:
		if m.err != nil {
			if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyEsc {
				return m, tea.Quit
			}
			return m, nil
		}

		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyUp:
			if m.selectedWorld > 0 {
				m.selectedWorld--
			}
		case tea.KeyDown:
			if m.selectedWorld < len(m.worlds)-1 {
				m.selectedWorld++
			}
		case tea.KeyEnter:
			if len(m.worlds) > 0 && !m.loading {
				entry := m.worlds[m.selectedWorld]
				m.loading = true
				cfg := m.config
				logger := m.logger
				return m, func() tea.Msg {
					s, err := newSession(cfg, logger, entry)
					return sessionStartedMsg{s, err}
				}
			}
		}
	}

	return m, nil
}

func (m ConsoleUI) updateInteractionModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	req := m.pending

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()

	case lineResultMsg:
		// The line finished while the modal was up (cancelled elsewhere).
		m.pending = nil
		return m.Update(msg)

	case tea.KeyMsg:
		if req.Autocorrect {
			switch msg.String() {
			case "y", "Y", "enter":
				req.reply <- interactionReply{accepted: true}
				m.pending = nil
				return m, waitInteraction(m.session, m.lineDone)
			case "n", "N", "esc":
				req.reply <- interactionReply{accepted: false}
				m.pending = nil
				return m, waitInteraction(m.session, m.lineDone)
			}
			return m, nil
		}

		switch msg.Type {
		case tea.KeyUp:
			if m.selectedCandidate > 0 {
				m.selectedCandidate--
			}
		case tea.KeyDown:
			if m.selectedCandidate < len(req.Candidates)-1 {
				m.selectedCandidate++
			}
		case tea.KeyEnter:
			c := req.Candidates[m.selectedCandidate]
			req.reply <- interactionReply{candidate: &c}
			m.pending = nil
			return m, waitInteraction(m.session, m.lineDone)
		case tea.KeyEsc:
			// Cancelling leaves the world untouched.
			req.reply <- interactionReply{candidate: nil}
			m.pending = nil
			return m, waitInteraction(m.session, m.lineDone)
		}
	}

	return m, nil
}

func (m ConsoleUI) updateQuitModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEnter:
			return m, tea.Quit
		default:
			switch msg.String() {
			case "y", "Y":
				return m, tea.Quit
			case "n", "N", "esc":
				m.showQuitModal = false
				if !m.showWorldModal {
					m.textarea.Focus()
					return m, textarea.Blink
				}
			}
		}
	}

	return m, nil
}

func (m ConsoleUI) renderWorldModal() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var content strings.Builder
	if m.err != nil {
		content.WriteString(modalTitleStyle.Render("Error"))
		content.WriteString("\n\n")
		content.WriteString(errorStyle.Render(fmt.Sprintf("Failed to start game: %v", m.err)))
		content.WriteString("\n\n")
		content.WriteString("Press Ctrl+C to exit")
	} else if m.loading {
		content.WriteString(modalTitleStyle.Render("Loading World..."))
		content.WriteString("\n\n")
		content.WriteString(systemStyle.Render("Building the world..."))
	} else {
		content.WriteString(modalTitleStyle.Render("Select a World"))
		content.WriteString("\n\n")
		for i, w := range m.worlds {
			name := titleCaser.String(w.Name)
			if i == m.selectedWorld {
				content.WriteString(modalSelectedItemStyle.Render("▶ " + name))
			} else {
				content.WriteString(modalItemStyle.Render("  " + name))
			}
			content.WriteString("\n")
		}
		content.WriteString("\n")
		content.WriteString(promptStyle.Render("Use ↑/↓ to navigate, Enter to select, Ctrl+C to exit"))
	}

	modal := modalStyle.Width(60).Render(content.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m ConsoleUI) renderInteractionModal() string {
	req := m.pending
	var content strings.Builder

	if req.Autocorrect {
		content.WriteString(modalTitleStyle.Render("Did You Mean?"))
		content.WriteString("\n\n")
		content.WriteString(fmt.Sprintf("No exact match for %q.", req.Original))
		content.WriteString("\n\n")
		content.WriteString(fmt.Sprintf("Did you mean the %s? (%.0f%% match)", req.Suggestion, req.Confidence*100))
		content.WriteString("\n\n")
		content.WriteString(promptStyle.Render("Press Y to accept, N to reject"))
	} else {
		content.WriteString(modalTitleStyle.Render("Which Do You Mean?"))
		content.WriteString("\n\n")
		for i, c := range req.Candidates {
			label := c.Name
			if c.Context != "" {
				label += " (" + c.Context + ")"
			}
			if i == m.selectedCandidate {
				content.WriteString(modalSelectedItemStyle.Render("▶ " + label))
			} else {
				content.WriteString(modalItemStyle.Render("  " + label))
			}
			content.WriteString("\n")
		}
		content.WriteString("\n")
		content.WriteString(promptStyle.Render("Use ↑/↓ to choose, Enter to select, Esc to cancel"))
	}

	modal := modalStyle.Width(56).Render(content.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m ConsoleUI) renderQuitModal() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var content strings.Builder
	content.WriteString(modalTitleStyle.Render("Quit Game?"))
	content.WriteString("\n\n")
	content.WriteString("Are you sure you want to quit your adventure?")
	content.WriteString("\n\n")
	content.WriteString(promptStyle.Render("Press Y to quit, N to continue"))

	modal := modalStyle.Width(50).Render(content.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m ConsoleUI) View() string {
	if m.showWorldModal {
		return m.renderWorldModal()
	}
	if m.showQuitModal {
		return m.renderQuitModal()
	}
	if m.pending != nil {
		return m.renderInteractionModal()
	}
	if !m.ready {
		return "\n  Initializing..."
	}

	gameWidth := int(float64(m.width)*0.75) - 4
	metaWidth := m.width - gameWidth - 6

	gamePanel := gamePanelStyle.Width(gameWidth).Height(m.height - 3).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			m.gameViewport.View(),
			"",
			separatorStyle.Render(strings.Repeat("─", gameWidth-4)),
			m.textarea.View(),
		),
	)

	metaPanel := metaPanelStyle.Width(metaWidth).Height(m.height - 2).Render(
		m.metaViewport.View(),
	)

	return lipgloss.JoinHorizontal(lipgloss.Top, gamePanel, metaPanel)
}

// renderProgressBar creates an animated progress bar for loading states
func (m ConsoleUI) renderProgressBar() string {
	usable := m.gameViewport.Width - 6
	if usable <= 0 {
		usable = 30
	}
	if usable > 80 {
		usable = 80
	} else if usable < 10 {
		usable = 10
	}

	const totalFrames = 40
	frame := m.progressTick % totalFrames
	filled := (frame * usable) / totalFrames

	var bar strings.Builder
	for i := 0; i < usable; i++ {
		if i < filled {
			bar.WriteString("█")
		} else if i == filled && frame%4 < 2 {
			bar.WriteString("▓")
		} else {
			bar.WriteString("░")
		}
	}
	return separatorStyle.Render(bar.String())
}

// progressTick creates a command that sends a progress tick message
func progressTick() tea.Cmd {
	return tea.Tick(time.Millisecond*200, func(time.Time) tea.Msg {
		return progressTickMsg{}
	})
}
