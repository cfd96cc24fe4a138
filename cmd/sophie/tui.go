package main

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/born-ml/sophie/internal/generate"
)

type tuiStyles struct {
	title  lipgloss.Style
	panel  lipgloss.Style
	user   lipgloss.Style
	bot    lipgloss.Style
	dim    lipgloss.Style
	errMsg lipgloss.Style
}

func defaultTUIStyles() tuiStyles {
	brand := lipgloss.AdaptiveColor{Light: "26", Dark: "81"}
	subtle := lipgloss.AdaptiveColor{Light: "245", Dark: "244"}
	border := lipgloss.AdaptiveColor{Light: "250", Dark: "238"}
	return tuiStyles{
		title:  lipgloss.NewStyle().Bold(true).Foreground(brand),
		panel:  lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(border).Padding(0, 1),
		user:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42")),
		bot:    lipgloss.NewStyle().Bold(true).Foreground(brand),
		dim:    lipgloss.NewStyle().Foreground(subtle),
		errMsg: lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Bold(true),
	}
}

type chatLine struct {
	speaker string // "You", "Sophie", or "" for system lines
	text    string
	err     bool
}

type replyMsg struct {
	resp generate.Response
	err  error
}

// chatModel is the bubbletea model of the full-screen chat.
type chatModel struct {
	gen    responder
	cfg    generate.GenerateConfig
	styles tuiStyles

	input   textinput.Model
	view    viewport.Model
	lines   []chatLine
	waiting bool
	width   int
	height  int
}

func newChatModel(gen responder, cfg generate.GenerateConfig) chatModel {
	input := textinput.New()
	input.Placeholder = "Type a message and press Enter"
	input.CharLimit = 1200
	input.Prompt = "You: "
	input.Focus()

	vp := viewport.New(80, 16)

	m := chatModel{
		gen:    gen,
		cfg:    cfg,
		styles: defaultTUIStyles(),
		input:  input,
		view:   vp,
		width:  80,
		height: 24,
	}
	m.lines = append(m.lines, chatLine{text: "type 'exit' or press Esc to quit"})
	m.rebuild()
	return m
}

func runTUI(gen responder, cfg generate.GenerateConfig) error {
	p := tea.NewProgram(newChatModel(gen, cfg), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

func (m chatModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m chatModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.view.Width = max(20, msg.Width-4)
		m.view.Height = max(3, msg.Height-7)
		m.input.Width = max(10, msg.Width-10)
		m.rebuild()
		return m, nil

	case replyMsg:
		m.waiting = false
		if msg.err != nil {
			m.lines = append(m.lines, chatLine{text: msg.err.Error(), err: true})
		} else {
			m.lines = append(m.lines, chatLine{speaker: "Sophie", text: msg.resp.Text})
		}
		m.rebuild()
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			return m.submit()
		case tea.KeyPgUp, tea.KeyPgDown:
			var cmd tea.Cmd
			m.view, cmd = m.view.Update(msg)
			return m, cmd
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// submit sends the current input to the generator. Input is ignored while
// a reply is pending.
func (m chatModel) submit() (tea.Model, tea.Cmd) {
	if m.waiting {
		return m, nil
	}
	prompt := m.input.Value()
	if isExit(prompt) {
		return m, tea.Quit
	}
	if strings.TrimSpace(prompt) == "" {
		return m, nil
	}

	m.input.SetValue("")
	m.lines = append(m.lines, chatLine{speaker: "You", text: prompt})
	m.waiting = true
	m.rebuild()

	gen, cfg := m.gen, m.cfg
	return m, func() tea.Msg {
		resp, err := gen.Generate(prompt, cfg)
		return replyMsg{resp: resp, err: err}
	}
}

func (m *chatModel) rebuild() {
	wrap := lipgloss.NewStyle().Width(max(10, m.view.Width-2))

	rendered := make([]string, 0, len(m.lines)+1)
	for _, ln := range m.lines {
		var s string
		switch {
		case ln.err:
			s = m.styles.errMsg.Render("error: ") + ln.text
		case ln.speaker == "You":
			s = m.styles.user.Render("You: ") + ln.text
		case ln.speaker == "Sophie":
			s = m.styles.bot.Render("Sophie: ") + ln.text
		default:
			s = m.styles.dim.Render(ln.text)
		}
		rendered = append(rendered, wrap.Render(s))
	}
	if m.waiting {
		rendered = append(rendered, m.styles.dim.Render("Sophie is typing..."))
	}

	m.view.SetContent(strings.Join(rendered, "\n"))
	m.view.GotoBottom()
}

func (m chatModel) View() string {
	var b strings.Builder
	b.WriteString(m.styles.title.Render("Sophie"))
	b.WriteString(m.styles.dim.Render("  word-level dialogue model"))
	b.WriteString("\n")
	b.WriteString(m.styles.panel.Render(m.view.View()))
	b.WriteString("\n")
	b.WriteString(m.input.View())
	b.WriteString("\n")
	b.WriteString(m.styles.dim.Render("enter send • pgup/pgdn scroll • esc quit"))
	return b.String()
}
