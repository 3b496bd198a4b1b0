package tui

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	apperrors "github.com/pratik-mahalle/bizrec/internal/pkg/errors"
	"github.com/pratik-mahalle/bizrec/internal/pkg/logger"
	"github.com/pratik-mahalle/bizrec/internal/services"
	"github.com/pratik-mahalle/bizrec/internal/testutil"
	"github.com/pratik-mahalle/bizrec/internal/view"
	"github.com/pratik-mahalle/bizrec/pkg/client"
)

func newTestModel(t *testing.T) (Model, *testutil.FakeService) {
	t.Helper()
	fake := testutil.NewFakeService()
	remote := services.Remote{
		Businesses:      fake,
		Datasets:        fake,
		Training:        fake,
		Recommendations: fake,
		Metrics:         fake.Metrics(),
	}
	log := logger.New(logger.Config{Level: "error", Format: "json"})
	app := services.NewCoordinators(remote, 0, log)
	return NewModel(context.Background(), app), fake
}

// run executes cmd synchronously and feeds its message back into m
func run(m Model, cmd tea.Cmd) Model {
	if cmd == nil {
		return m
	}
	next, _ := m.Update(cmd())
	return next.(Model)
}

func press(m Model, key string) (Model, tea.Cmd) {
	var msg tea.KeyMsg
	switch key {
	case "enter":
		msg = tea.KeyMsg{Type: tea.KeyEnter}
	case "tab":
		msg = tea.KeyMsg{Type: tea.KeyTab}
	case "ctrl+n":
		msg = tea.KeyMsg{Type: tea.KeyCtrlN}
	case "ctrl+p":
		msg = tea.KeyMsg{Type: tea.KeyCtrlP}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
	}
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

func typeText(m Model, s string) Model {
	for _, r := range s {
		m, _ = press(m, string(r))
	}
	return m
}

func TestModel_InitLoadsBusinesses(t *testing.T) {
	m, fake := newTestModel(t)
	fake.Seed(client.BusinessDraft{Name: "Acme", Industry: "Retail"})

	m = run(m, m.Init())

	if len(m.businesses) != 1 {
		t.Fatalf("businesses = %d, want 1", len(m.businesses))
	}
	if !strings.Contains(m.View(), "Acme") {
		t.Error("View() does not list the loaded business")
	}
}

func TestModel_SwitchViews(t *testing.T) {
	m, _ := newTestModel(t)

	if m.Active() != view.Businesses {
		t.Fatalf("initial view = %s, want Businesses", m.Active())
	}
	m, _ = press(m, "ctrl+n")
	if m.Active() != view.Upload {
		t.Errorf("after ctrl+n view = %s, want Upload", m.Active())
	}
	m, _ = press(m, "ctrl+p")
	m, _ = press(m, "ctrl+p")
	if m.Active() != view.Metrics {
		t.Errorf("after ctrl+p twice view = %s, want Metrics", m.Active())
	}
}

func TestModel_CreateBusiness(t *testing.T) {
	m, fake := newTestModel(t)

	m, _ = press(m, "n")
	m = typeText(m, "Acme")
	m, _ = press(m, "tab")
	m = typeText(m, "Retail")
	m, cmd := press(m, "enter")
	m = run(m, cmd)

	if fake.Calls(testutil.OpCreate) != 1 {
		t.Fatalf("create calls = %d, want 1", fake.Calls(testutil.OpCreate))
	}
	if len(m.businesses) != 1 || m.businesses[0].Name != "Acme" || m.businesses[0].Industry != "Retail" {
		t.Errorf("businesses = %+v, want the created one", m.businesses)
	}
	if st := m.statuses[view.Businesses]; !st.OK {
		t.Errorf("status = %v, want success", st)
	}
}

func TestModel_UploadWithoutBusinessID(t *testing.T) {
	m, fake := newTestModel(t)

	m, _ = press(m, "ctrl+n")
	m, cmd := press(m, "enter")
	m = run(m, cmd)

	if fake.TotalCalls() != 0 {
		t.Errorf("calls = %d, want none", fake.TotalCalls())
	}
	st := m.statuses[view.Upload]
	if st.OK {
		t.Error("upload without input succeeded")
	}
	if !strings.Contains(m.View(), "Upload rejected") {
		t.Error("View() does not show the precondition failure")
	}
}

func TestModel_MetricsRendersPresentFieldsOnly(t *testing.T) {
	m, fake := newTestModel(t)
	precision := 0.667
	fake.MetricsResults["1"] = &client.MetricsResult{PrecisionAtK: &precision}

	if err := m.router.Select(view.Metrics); err != nil {
		t.Fatal(err)
	}
	m = typeText(m, "1")
	m, cmd := press(m, "enter")
	m = run(m, cmd)

	out := m.metricsView()
	if !strings.Contains(out, "Precision@5") || !strings.Contains(out, "0.667") {
		t.Errorf("metricsView() = %q, want precision", out)
	}
	for _, absent := range []string{"Recall", "MAP", "MRR", "Diversity"} {
		if strings.Contains(out, absent) {
			t.Errorf("metricsView() renders absent %s", absent)
		}
	}
}

func TestModel_SupersededResultKeepsNewerStatus(t *testing.T) {
	m, _ := newTestModel(t)
	newer := services.Status{OK: true, Message: "3 recommendations for Widget", Seq: 2}
	m.statuses[view.Recommendations] = newer

	stale := services.Status{Seq: 1, Err: apperrors.Superseded("recommend", 1)}
	next, _ := m.Update(recommendMsg{status: stale})
	m = next.(Model)

	if m.statuses[view.Recommendations] != newer {
		t.Errorf("status = %v, want the newer one", m.statuses[view.Recommendations])
	}
}

func TestModel_NonNumericFieldsAreRejected(t *testing.T) {
	tests := []struct {
		name   string
		target view.View
		op     string
		// values for the fields between the business id and the numeric one
		between []string
	}{
		{name: "training samples", target: view.Training, op: testutil.OpTrain},
		{name: "recommendation k", target: view.Recommendations, op: testutil.OpRecommend, between: []string{"3"}},
		{name: "metrics k", target: view.Metrics, op: testutil.OpMetrics},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, fake := newTestModel(t)
			id := fake.Seed(client.BusinessDraft{Name: "Acme"})
			if err := m.router.Select(tt.target); err != nil {
				t.Fatal(err)
			}

			m = typeText(m, id)
			m, _ = press(m, "tab")
			for _, v := range tt.between {
				m = typeText(m, v)
				m, _ = press(m, "tab")
			}
			m = typeText(m, "abc")
			m, cmd := press(m, "enter")
			m = run(m, cmd)

			if got := fake.Calls(tt.op); got != 0 {
				t.Errorf("calls = %d, want none", got)
			}
			st := m.statuses[tt.target]
			if st.OK || st.Code() != apperrors.ErrCodePrecondition {
				t.Errorf("status = %v, want precondition failure", st)
			}
		})
	}
}

func TestModel_UploadMissingFile(t *testing.T) {
	m, fake := newTestModel(t)
	id := fake.Seed(client.BusinessDraft{Name: "Acme"})

	m, _ = press(m, "ctrl+n")
	m = typeText(m, id)
	m, _ = press(m, "tab")
	m = typeText(m, filepath.Join(t.TempDir(), "missing.csv"))
	m, cmd := press(m, "enter")
	m = run(m, cmd)

	if got := fake.Calls(testutil.OpUpload); got != 0 {
		t.Errorf("upload calls = %d, want none", got)
	}
	if st := m.statuses[view.Upload]; st.OK || st.Code() != apperrors.ErrCodePrecondition {
		t.Errorf("status = %v, want precondition failure", st)
	}
}
