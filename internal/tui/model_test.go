package tui

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docqa/internal/domain"
	"docqa/internal/format"
)

type fakeService struct {
	questions []string
	answer    *domain.Answer
	err       error
}

func (f *fakeService) Ask(ctx context.Context, question string) (*domain.Answer, error) {
	f.questions = append(f.questions, question)
	return f.answer, f.err
}

func newModel(svc AskPort, opts Options) Model {
	m := New(context.Background(), svc, opts)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return next.(Model)
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

// collect runs cmd and returns every message it produces, flattening batches.
func collect(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, collect(c)...)
		}
		return out
	}
	return []tea.Msg{msg}
}

func answerFrom(msgs []tea.Msg) (answerMsg, bool) {
	for _, msg := range msgs {
		if a, ok := msg.(answerMsg); ok {
			return a, true
		}
	}
	return answerMsg{}, false
}

func TestSubmit_EmptyQueryOpensDialog(t *testing.T) {
	svc := &fakeService{}
	m := newModel(svc, Options{Title: "Novel"})
	m.input.SetValue("   ")

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	assert.Nil(t, cmd)
	require.NotNil(t, m.dialog)
	assert.Equal(t, "Input Error", m.dialog.title)
	assert.Equal(t, "Please enter a query.", m.dialog.body)
	assert.Contains(t, m.View(), "Please enter a query.")
	assert.Empty(t, svc.questions)

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Nil(t, m.dialog)
}

func TestSubmit_RendersInlineAnswer(t *testing.T) {
	svc := &fakeService{answer: &domain.Answer{
		Text:    "A hatter.",
		Sources: []string{"alice.md"},
		Results: []domain.SearchResult{{Chunk: domain.Chunk{ChunkID: "alice.md:1", Text: "The Hatter was mad."}, Score: 0.9}},
	}}
	m := newModel(svc, Options{Layout: format.LayoutInline, ErrorDisplay: ErrorsModal})
	m.input.SetValue("Who is the Hatter?")

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.True(t, m.busy)

	// A second submit while busy is ignored.
	_, again := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, again)

	msg, ok := answerFrom(collect(cmd))
	require.True(t, ok)
	m, _ = update(t, m, msg)

	assert.False(t, m.busy)
	assert.Equal(t, []string{"Who is the Hatter?"}, svc.questions)
	assert.Equal(t, "Response: A hatter.\n\nSources: alice.md", m.response)
	assert.Len(t, m.results, 1)
}

func TestSubmit_NoMatchAnswer(t *testing.T) {
	svc := &fakeService{answer: &domain.Answer{NoMatch: true, Text: format.NoMatchMessage}}
	m := newModel(svc, Options{Layout: format.LayoutInline})
	m.input.SetValue("unrelated")

	_, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	msg, ok := answerFrom(collect(cmd))
	require.True(t, ok)
	m, _ = update(t, m, msg)

	assert.Equal(t, "Unable to find matching results.", m.response)
}

func TestAnswerError_ModalAndInline(t *testing.T) {
	failure := answerMsg{err: errors.New("quota exceeded")}

	modal := newModel(&fakeService{}, Options{ErrorDisplay: ErrorsModal})
	modal, _ = update(t, modal, failure)
	require.NotNil(t, modal.dialog)
	assert.Equal(t, "Error", modal.dialog.title)
	assert.Equal(t, "An error occurred: quota exceeded", modal.dialog.body)
	assert.Empty(t, modal.response)

	inline := newModel(&fakeService{}, Options{ErrorDisplay: ErrorsInline})
	inline, _ = update(t, inline, failure)
	assert.Nil(t, inline.dialog)
	assert.Equal(t, "An error occurred: quota exceeded", inline.response)
}

func TestPassagesView_CyclesResults(t *testing.T) {
	m := newModel(&fakeService{}, Options{Layout: format.LayoutBlock})
	m, _ = update(t, m, answerMsg{answer: &domain.Answer{
		Text: "x",
		Results: []domain.SearchResult{
			{Chunk: domain.Chunk{ChunkID: "a:0", Text: "First passage."}},
			{Chunk: domain.Chunk{ChunkID: "a:1", Text: "Second passage."}},
		},
	}})

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.True(t, m.showPassages)
	assert.Contains(t, m.renderPassage(), "Passage 1/2")

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyDown})
	assert.Contains(t, m.renderPassage(), "a:1")

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 0, m.cursor)

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, 1, m.cursor)
}

func TestClearResetsWindow(t *testing.T) {
	m := newModel(&fakeService{}, Options{})
	m.input.SetValue("question")
	m.response = "old answer"

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlL})

	assert.Empty(t, m.input.Value())
	assert.Empty(t, m.response)
}

func TestHighlightBestSentence(t *testing.T) {
	text := "The Queen shouted. The Hatter poured tea. Alice sat down."

	out := highlightBestSentence(text, "hatter tea")

	assert.Contains(t, out, "The Queen shouted.")
	assert.Contains(t, out, "Alice sat down.")
	assert.Contains(t, out, "Hatter poured tea")
	assert.Equal(t, "  ", highlightBestSentence("  ", "x"))
}

func TestHighlightBestSentence_UnpunctuatedTail(t *testing.T) {
	out := highlightBestSentence("Alice fell. The Hatter poured tea", "hatter")

	assert.Contains(t, out, "Alice fell.")
	assert.Contains(t, out, "The Hatter poured tea")
}
