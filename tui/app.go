package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"churnpredict/ml"
)

// App is the terminal form: one row per feature, enter predicts.
type App struct {
	ctx       context.Context
	predictor *ml.Predictor
	fields    []field
	cursor    int
	result    *ml.Result
	err       error
}

// field is a numeric text input or the Yes/No plan selector.
type field struct {
	name        string
	categorical bool
	plan        string
	input       textinput.Model
}

func (f *field) value() string {
	if f.categorical {
		return f.plan
	}
	return f.input.Value()
}

type keyMap struct {
	Up      key.Binding
	Down    key.Binding
	Toggle  key.Binding
	Predict key.Binding
	Quit    key.Binding
}

var keys = keyMap{
	Up:      key.NewBinding(key.WithKeys("up", "shift+tab"), key.WithHelp("↑", "move")),
	Down:    key.NewBinding(key.WithKeys("down", "tab"), key.WithHelp("↓", "move")),
	Toggle:  key.NewBinding(key.WithKeys("left", "right", " "), key.WithHelp("←/→", "toggle plan")),
	Predict: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "predict churn")),
	Quit:    key.NewBinding(key.WithKeys("esc", "ctrl+c"), key.WithHelp("esc", "quit")),
}

func (k keyMap) help() string {
	parts := make([]string, 0, 5)
	for _, b := range []key.Binding{k.Up, k.Down, k.Toggle, k.Predict, k.Quit} {
		parts = append(parts, "["+b.Help().Key+"] "+b.Help().Desc)
	}
	return strings.Join(parts, "  ")
}

type predictionMsg struct {
	Result ml.Result
}

type errMsg struct{ error }

func New(ctx context.Context, predictor *ml.Predictor) *App {
	names := ml.FeatureNames()
	fields := make([]field, len(names))
	for i, name := range names {
		fields[i] = field{name: name, categorical: ml.IsCategorical(name)}
		if fields[i].categorical {
			fields[i].plan = ml.PlanOptions()[0]
			continue
		}
		inp := textinput.New()
		inp.Prompt = ""
		inp.Placeholder = "0.0"
		inp.CharLimit = 32
		inp.SetValue("0.0")
		fields[i].input = inp
	}
	a := &App{ctx: ctx, predictor: predictor, fields: fields}
	a.focus(0)
	return a
}

func (a *App) Init() tea.Cmd {
	return textinput.Blink
}

func (a *App) focus(i int) tea.Cmd {
	if f := &a.fields[a.cursor]; !f.categorical {
		f.input.Blur()
	}
	a.cursor = i
	if f := &a.fields[a.cursor]; !f.categorical {
		return f.input.Focus()
	}
	return nil
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch m := msg.(type) {
	case tea.KeyMsg:
		return a.handleKey(m)
	case predictionMsg:
		result := m.Result
		a.result = &result
		a.err = nil
		return a, nil
	case errMsg:
		a.result = nil
		a.err = m.error
		return a, nil
	}

	// cursor blink and other input housekeeping
	if f := &a.fields[a.cursor]; !f.categorical {
		var cmd tea.Cmd
		f.input, cmd = f.input.Update(msg)
		return a, cmd
	}
	return a, nil
}

func (a *App) handleKey(m tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(m, keys.Quit):
		return a, tea.Quit
	case key.Matches(m, keys.Up):
		if a.cursor > 0 {
			return a, a.focus(a.cursor - 1)
		}
		return a, nil
	case key.Matches(m, keys.Down):
		if a.cursor < len(a.fields)-1 {
			return a, a.focus(a.cursor + 1)
		}
		return a, nil
	case key.Matches(m, keys.Predict):
		return a, a.predictCmd()
	}

	f := &a.fields[a.cursor]
	if f.categorical {
		if key.Matches(m, keys.Toggle) {
			f.plan = togglePlan(f.plan)
		}
		return a, nil
	}

	var cmd tea.Cmd
	f.input, cmd = f.input.Update(m)
	return a, cmd
}

func togglePlan(value string) string {
	if value == ml.PlanYes {
		return ml.PlanNo
	}
	return ml.PlanYes
}

// rawInputs snapshots the form so the command does not race later edits.
func (a *App) rawInputs() ml.RawInputs {
	raw := make(ml.RawInputs, len(a.fields))
	for i := range a.fields {
		raw[a.fields[i].name] = a.fields[i].value()
	}
	return raw
}

func (a *App) predictCmd() tea.Cmd {
	raw := a.rawInputs()
	return func() tea.Msg {
		result, err := a.predictor.Predict(a.ctx, raw)
		if err != nil {
			return errMsg{err}
		}
		return predictionMsg{Result: result}
	}
}

// styles
var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Underline(true)
	labelStyle    = lipgloss.NewStyle().Width(26)
	selectedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#4CAF50"))
	boxStyle      = lipgloss.NewStyle().Bold(true).Padding(1, 4).Align(lipgloss.Center)
	churnStyle    = boxStyle.Foreground(lipgloss.Color("#b30000")).Background(lipgloss.Color("#ffcccc"))
	notChurnStyle = boxStyle.Foreground(lipgloss.Color("#006600")).Background(lipgloss.Color("#ccffcc"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#8a4b00"))
	helpStyle     = lipgloss.NewStyle().Faint(true)
)

func (a *App) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Telecom Customer Churn Prediction"))
	b.WriteString("\nEnter customer details below:\n\n")

	for i := range a.fields {
		f := &a.fields[i]
		marker := " "
		label := labelStyle.Render(ml.FeatureLabel(f.name))
		if i == a.cursor {
			marker = "▶"
			label = selectedStyle.Render(label)
		}
		value := "< " + f.plan + " >"
		if !f.categorical {
			value = f.input.View()
		}
		b.WriteString(fmt.Sprintf("%s %s %s\n", marker, label, value))
	}

	if a.result != nil {
		b.WriteString("\n" + renderResult(*a.result) + "\n")
	}
	if a.err != nil {
		b.WriteString("\n" + errorStyle.Render("Error during prediction: "+a.err.Error()) + "\n")
	}

	b.WriteString("\n" + helpStyle.Render(keys.help()))
	return b.String()
}

func renderResult(result ml.Result) string {
	probability := fmt.Sprintf("%.2f", result.Probability)
	if result.Churn() {
		return churnStyle.Render("Prediction: Churn\nProbability: " + probability)
	}
	return notChurnStyle.Render("Prediction: Not Churn\nProbability: " + probability)
}
