package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"docqa/internal/domain"
	"docqa/internal/format"
)

// AskPort is the TUI-facing subset of the RAG service.
type AskPort interface {
	Ask(ctx context.Context, question string) (*domain.Answer, error)
}

// Error display modes.
const (
	ErrorsModal  = "modal"
	ErrorsInline = "inline"
)

// Options configures the window of one profile.
type Options struct {
	Title        string
	Footer       string
	Summary      string
	Layout       string
	ErrorDisplay string
}

const hint = "enter: submit • alt+enter: new line • ctrl+l: clear • tab: passages • ctrl+c: quit"

type answerMsg struct {
	answer *domain.Answer
	err    error
}

type dialog struct {
	title string
	body  string
	color lipgloss.Color
}

// Model is the Bubble Tea model of the question window.
// Only one question is in flight at a time.
type Model struct {
	ctx          context.Context
	service      AskPort
	opts         Options
	input        textarea.Model
	viewport     viewport.Model
	spinner      spinner.Model
	dialog       *dialog
	response     string
	results      []domain.SearchResult
	lastQuery    string
	showPassages bool
	cursor       int
	busy         bool
	ready        bool
	width        int
}

// New creates a new TUI model instance.
func New(ctx context.Context, service AskPort, opts Options) Model {
	ta := textarea.New()
	ta.Placeholder = "Enter your query below"
	ta.ShowLineNumbers = false
	ta.CharLimit = 0
	ta.SetHeight(5)
	ta.KeyMap.InsertNewline.SetKeys("alt+enter", "ctrl+j")
	ta.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = statusStyle

	return Model{
		ctx:      ctx,
		service:  service,
		opts:     opts,
		input:    ta,
		viewport: viewport.New(0, 0),
		spinner:  sp,
	}
}

// Init starts the cursor blink.
func (m Model) Init() tea.Cmd { return textarea.Blink }

// Update handles key, window and answer events.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil
	case answerMsg:
		m.busy = false
		m.results = nil
		m.cursor = 0
		if msg.err != nil {
			text := format.Error(msg.err)
			if m.opts.ErrorDisplay == ErrorsModal {
				m.dialog = &dialog{title: "Error", body: text, color: errorRed}
			} else {
				m.response = text
			}
		} else {
			m.response = format.Response(msg.answer, m.opts.Layout)
			m.results = msg.answer.Results
		}
		m.refresh()
		return m, nil
	case spinner.TickMsg:
		if !m.busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		if m.dialog != nil {
			switch msg.Type {
			case tea.KeyEsc, tea.KeyEnter:
				m.dialog = nil
			}
			return m, nil
		}
		switch msg.String() {
		case "enter":
			return m.submit()
		case "ctrl+l":
			m.input.Reset()
			m.response = ""
			m.results = nil
			m.showPassages = false
			m.refresh()
			return m, nil
		case "tab":
			m.showPassages = !m.showPassages
			m.cursor = 0
			m.refresh()
			return m, nil
		case "up", "down":
			if m.showPassages && len(m.results) > 0 {
				step := 1
				if msg.String() == "up" {
					step = len(m.results) - 1
				}
				m.cursor = (m.cursor + step) % len(m.results)
				m.refresh()
				return m, nil
			}
		case "pgup", "pgdown":
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	if m.busy {
		return m, nil
	}
	q := strings.TrimSpace(m.input.Value())
	if q == "" {
		m.dialog = &dialog{title: "Input Error", body: "Please enter a query.", color: warnAmber}
		return m, nil
	}
	m.busy = true
	m.lastQuery = q
	m.response = ""
	m.results = nil
	m.showPassages = false
	m.refresh()
	return m, tea.Batch(m.spinner.Tick, ask(m.ctx, m.service, q))
}

func ask(ctx context.Context, service AskPort, question string) tea.Cmd {
	return func() tea.Msg {
		answer, err := service.Ask(ctx, question)
		return answerMsg{answer: answer, err: err}
	}
}

// View renders the window, or the open dialog on top of it.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.dialog != nil {
		return m.renderDialog()
	}
	var b strings.Builder
	b.WriteString(titleStyle.Width(m.width).Render(m.opts.Title))
	b.WriteString("\n")
	if m.opts.Summary != "" {
		b.WriteString(summaryStyle.Width(m.width).Render(m.opts.Summary))
		b.WriteString("\n")
	}
	b.WriteString(labelStyle.Render("Enter your query below:"))
	b.WriteString("\n")
	b.WriteString(queryBoxStyle.Render(m.input.View()))
	b.WriteString("\n")
	if m.busy {
		b.WriteString(m.spinner.View() + statusStyle.Render(" Thinking..."))
	} else {
		b.WriteString(statusStyle.Render(hint))
	}
	b.WriteString("\n")
	label := "Response from Chatbot:"
	if m.showPassages {
		label = "Retrieved passages:"
	}
	b.WriteString(labelStyle.Render(label))
	b.WriteString("\n")
	b.WriteString(resultBoxStyle.Render(m.viewport.View()))
	b.WriteString("\n")
	b.WriteString(footerStyle.Width(m.width).Render(m.opts.Footer))
	return b.String()
}

func (m *Model) resize(width, height int) {
	m.ready = true
	m.width = width
	qw, qh := queryBoxStyle.GetFrameSize()
	rw, rh := resultBoxStyle.GetFrameSize()
	m.input.SetWidth(max(20, width-qw))

	reserved := 3 + 1 + 1 + 1 + 1 + 1 // title, label, status, label, footer
	if m.opts.Summary != "" {
		reserved += lipgloss.Height(summaryStyle.Width(width).Render(m.opts.Summary))
	}
	reserved += m.input.Height() + qh
	m.viewport.Width = max(20, width-rw)
	m.viewport.Height = max(3, height-reserved-rh)
	m.refresh()
}

func (m *Model) refresh() {
	if m.showPassages {
		m.viewport.SetContent(m.renderPassage())
		return
	}
	m.viewport.SetContent(lipgloss.NewStyle().Width(m.viewport.Width).Render(m.response))
	m.viewport.GotoTop()
}

func (m Model) renderPassage() string {
	if len(m.results) == 0 {
		return "No passages yet."
	}
	r := m.results[m.cursor]
	title := fmt.Sprintf("Passage %d/%d  %s  score=%.3f", m.cursor+1, len(m.results), r.Chunk.ChunkID, r.Score)
	body := highlightBestSentence(r.Chunk.Text, m.lastQuery)
	return title + "\n\n" + lipgloss.NewStyle().Width(m.viewport.Width).Render(body)
}

func (m Model) renderDialog() string {
	title := lipgloss.NewStyle().Bold(true).Foreground(m.dialog.color).Render(m.dialog.title)
	body := lipgloss.NewStyle().Width(min(60, max(20, m.width-10))).Render(m.dialog.body)
	help := statusStyle.Render("esc / enter: close")
	box := dialogStyle.BorderForeground(m.dialog.color).Render(title + "\n\n" + body + "\n\n" + help)
	return lipgloss.Place(m.width, max(lipgloss.Height(box), m.viewport.Height), lipgloss.Center, lipgloss.Center, box)
}
