package tui

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"churnpredict/ml"
)

func testApp(t *testing.T) *App {
	t.Helper()
	loader, err := ml.NewLoader(ml.LoaderConfig{
		ModelPath:  filepath.Join("..", "ml", "testdata", "trained_model.json"),
		ScalerPath: filepath.Join("..", "ml", "testdata", "scaler.json"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	artifacts, err := loader.Load()
	if err != nil {
		t.Fatalf("load artifacts: %v", err)
	}
	predictor, err := ml.NewPredictor(artifacts, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return New(context.Background(), predictor)
}

func keyPress(k tea.KeyType) tea.KeyMsg { return tea.KeyMsg{Type: k} }

func runes(s string) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)} }

// send feeds a key to the app. Commands are dropped so cursor blink ticks
// never run; submit runs the prediction command.
func send(t *testing.T, a *App, msg tea.Msg) {
	t.Helper()
	a.Update(msg)
}

// submit presses enter and, like the runtime, feeds the result back.
func submit(t *testing.T, a *App) {
	t.Helper()
	_, cmd := a.Update(keyPress(tea.KeyEnter))
	if cmd == nil {
		t.Fatal("expected a prediction command")
	}
	a.Update(cmd())
}

func (a *App) currentName() string { return a.fields[a.cursor].name }

func (a *App) currentValue() string { return a.fields[a.cursor].value() }

// setField moves to the named field and replaces its value.
func setField(t *testing.T, a *App, name, value string) {
	t.Helper()
	for a.cursor > 0 {
		send(t, a, keyPress(tea.KeyUp))
	}
	for a.currentName() != name {
		send(t, a, keyPress(tea.KeyDown))
	}
	send(t, a, keyPress(tea.KeyCtrlU))
	send(t, a, runes(value))
}

func TestNewDefaults(t *testing.T) {
	a := testApp(t)
	view := a.View()
	for _, want := range []string{"Telecom Customer Churn Prediction", "Voice Mail Messages", "< No >", "0.0"} {
		if !strings.Contains(view, want) {
			t.Fatalf("expected %q in view:\n%s", want, view)
		}
	}
	if strings.Contains(view, "Prediction:") {
		t.Fatal("expected no prediction before enter")
	}
}

func TestTogglePlan(t *testing.T) {
	a := testApp(t)
	send(t, a, keyPress(tea.KeyDown))
	send(t, a, keyPress(tea.KeyDown))
	if a.currentName() != ml.InternationalPlan {
		t.Fatalf("expected cursor on plan, got %s", a.currentName())
	}
	send(t, a, keyPress(tea.KeyRight))
	if a.currentValue() != ml.PlanYes {
		t.Fatalf("expected Yes, got %s", a.currentValue())
	}
	// typing does not edit the selector
	send(t, a, runes("x"))
	send(t, a, keyPress(tea.KeyLeft))
	if a.currentValue() != ml.PlanNo {
		t.Fatalf("expected No, got %s", a.currentValue())
	}
}

func TestPredictChurn(t *testing.T) {
	a := testApp(t)
	inputs := map[string]string{
		ml.VoiceMailMessages:    "0",
		ml.CustomerServiceCalls: "5",
		ml.InternationalCharge:  "3.5",
		ml.InternationalCalls:   "2",
		ml.DayMins:              "300",
		ml.EveningMins:          "220",
		ml.NightMins:            "210",
		ml.TotalCharge:          "90",
	}
	for _, name := range ml.FeatureNames() {
		if value, ok := inputs[name]; ok {
			setField(t, a, name, value)
		}
	}
	for a.currentName() != ml.InternationalPlan {
		send(t, a, keyPress(tea.KeyUp))
	}
	send(t, a, keyPress(tea.KeyRight))

	submit(t, a)
	if a.err != nil {
		t.Fatalf("unexpected error: %v", a.err)
	}
	if a.result == nil || !a.result.Churn() {
		t.Fatalf("expected churn result, got %+v", a.result)
	}
	view := a.View()
	if !strings.Contains(view, "Prediction: Churn") || !strings.Contains(view, "Probability: 0.99") {
		t.Fatalf("unexpected view:\n%s", view)
	}
}

func TestPredictErrorKeepsForm(t *testing.T) {
	a := testApp(t)
	setField(t, a, ml.DayMins, "abc")
	submit(t, a)

	if a.result != nil {
		t.Fatalf("expected no result, got %+v", a.result)
	}
	if !errors.Is(a.err, ml.ErrNotNumeric) {
		t.Fatalf("expected ErrNotNumeric, got %v", a.err)
	}
	if !strings.Contains(a.View(), "Error during prediction") {
		t.Fatal("expected error in view")
	}

	// fixing the field recovers
	send(t, a, keyPress(tea.KeyBackspace))
	send(t, a, keyPress(tea.KeyBackspace))
	send(t, a, keyPress(tea.KeyBackspace))
	send(t, a, runes("100"))
	submit(t, a)
	if a.err != nil || a.result == nil {
		t.Fatalf("expected result after fix, got err %v", a.err)
	}
	if strings.Contains(a.View(), "Error during prediction") {
		t.Fatal("expected error to clear")
	}
}

func TestQuit(t *testing.T) {
	a := testApp(t)
	_, cmd := a.Update(keyPress(tea.KeyEsc))
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatal("expected tea.QuitMsg")
	}
}
