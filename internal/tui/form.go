package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// field is one labelled input of a form
type field struct {
	label string
	input textinput.Model
}

// form is a vertical list of text inputs with one focused at a time
type form struct {
	fields []field
	focus  int
}

func newForm(labels ...string) form {
	f := form{}
	for _, label := range labels {
		in := textinput.New()
		in.Prompt = ""
		in.CharLimit = 256
		in.Width = 40
		f.fields = append(f.fields, field{label: label, input: in})
	}
	if len(f.fields) > 0 {
		f.fields[0].input.Focus()
	}
	return f
}

func (f *form) set(i int, value string) {
	f.fields[i].input.SetValue(value)
}

func (f form) value(i int) string {
	return strings.TrimSpace(f.fields[i].input.Value())
}

func (f *form) reset() {
	for i := range f.fields {
		f.fields[i].input.Reset()
	}
	f.move(-f.focus)
}

// move shifts focus by delta, wrapping around
func (f *form) move(delta int) {
	if len(f.fields) == 0 {
		return
	}
	f.fields[f.focus].input.Blur()
	n := len(f.fields)
	f.focus = (f.focus + delta%n + n) % n
	f.fields[f.focus].input.Focus()
}

func (f *form) update(msg tea.Msg) tea.Cmd {
	if len(f.fields) == 0 {
		return nil
	}
	var cmd tea.Cmd
	f.fields[f.focus].input, cmd = f.fields[f.focus].input.Update(msg)
	return cmd
}

func (f form) view() string {
	var b strings.Builder
	for i, fl := range f.fields {
		marker := "  "
		label := fl.label
		if i == f.focus {
			marker = "> "
			label = SelectedStyle.Render(label)
		}
		b.WriteString(marker + label + ": " + fl.input.View() + "\n")
	}
	return b.String()
}
