package tui

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	apperrors "github.com/pratik-mahalle/bizrec/internal/pkg/errors"
	"github.com/pratik-mahalle/bizrec/internal/services"
	"github.com/pratik-mahalle/bizrec/internal/view"
	"github.com/pratik-mahalle/bizrec/pkg/client"
)

// Form field positions
const (
	bizName = iota
	bizIndustry
	bizEmail
)

const (
	uploadBusiness = iota
	uploadPath
)

const (
	trainBusiness = iota
	trainSamples
	trainTabular
	trainText
)

const (
	recBusiness = iota
	recItem
	recK
)

const (
	metricsBusiness = iota
	metricsK
)

// Results of asynchronous operations. Each carries the view it belongs to so a result that
// lands after the operator switched away still updates its own screen.
type (
	listMsg struct {
		businesses []client.Business
		status     services.Status
	}
	mutationMsg struct {
		status services.Status
	}
	uploadMsg struct {
		status services.Status
	}
	trainMsg struct {
		job    *services.Job
		status services.Status
	}
	recommendMsg struct {
		result *client.RecommendationResult
		status services.Status
	}
	metricsMsg struct {
		result *client.MetricsResult
		status services.Status
	}
)

// Model is the bubbletea model of the interactive session
type Model struct {
	ctx    context.Context
	app    *services.Coordinators
	router *view.Router

	// Businesses view
	businesses []client.Business
	cursor     int
	editing    bool
	editID     string
	bizForm    form

	uploadForm  form
	trainForm   form
	recForm     form
	metricsForm form

	job     *services.Job
	recs    *client.RecommendationResult
	metrics *client.MetricsResult

	statuses map[view.View]services.Status
	pending  map[view.View]int
}

// NewModel creates the session model. ctx bounds every request it issues.
func NewModel(ctx context.Context, app *services.Coordinators) Model {
	m := Model{
		ctx:         ctx,
		app:         app,
		router:      view.NewRouter(),
		bizForm:     newForm("Name", "Industry", "Contact email"),
		uploadForm:  newForm("Business ID", "File path"),
		trainForm:   newForm("Business ID", "Samples", "Use tabular (y/n)", "Use text (y/n)"),
		recForm:     newForm("Business ID", "Item index", "k"),
		metricsForm: newForm("Business ID", "k"),
		statuses:    make(map[view.View]services.Status),
		pending:     make(map[view.View]int),
	}

	defaults := services.DefaultTrainingOptions()
	m.trainForm.set(trainSamples, strconv.Itoa(defaults.NSamples))
	m.trainForm.set(trainTabular, "y")
	m.trainForm.set(trainText, "y")
	m.recForm.set(recK, strconv.Itoa(client.DefaultK))
	m.metricsForm.set(metricsK, strconv.Itoa(client.DefaultK))

	return m
}

// Active returns the selected view
func (m Model) Active() view.View {
	return m.router.Active()
}

// Init loads the business list
func (m Model) Init() tea.Cmd {
	m.pending[view.Businesses]++
	return m.listCmd()
}

// Update handles key presses and operation results
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case listMsg:
		m.done(view.Businesses, msg.status)
		if msg.status.OK {
			m.businesses = msg.businesses
			m.clampCursor()
		}
	case mutationMsg:
		m.done(view.Businesses, msg.status)
		m.businesses = m.app.Businesses.Businesses()
		m.clampCursor()
	case uploadMsg:
		m.done(view.Upload, msg.status)
	case trainMsg:
		m.done(view.Training, msg.status)
		if !msg.status.Superseded() && msg.job != nil {
			m.job = msg.job
		}
	case recommendMsg:
		m.done(view.Recommendations, msg.status)
		if !msg.status.Superseded() {
			m.recs = msg.result
		}
	case metricsMsg:
		m.done(view.Metrics, msg.status)
		if !msg.status.Superseded() {
			m.metrics = msg.result
		}
	}
	return m, nil
}

// done records a finished operation. Superseded results leave the status of the newer
// request in place.
func (m *Model) done(v view.View, st services.Status) {
	if m.pending[v] > 0 {
		m.pending[v]--
	}
	if st.Superseded() {
		return
	}
	m.statuses[v] = st
}

func (m *Model) clampCursor() {
	if m.cursor >= len(m.businesses) {
		m.cursor = len(m.businesses) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "ctrl+n":
		m.router.Next()
		return m, nil
	case "ctrl+p":
		m.router.Prev()
		return m, nil
	}

	if m.router.Active() == view.Businesses && !m.editing {
		return m.handleBrowseKey(msg)
	}

	f := m.activeForm()
	switch msg.String() {
	case "esc":
		if m.editing {
			m.editing = false
			m.bizForm.reset()
		}
		return m, nil
	case "tab", "down":
		f.move(1)
		return m, nil
	case "shift+tab", "up":
		f.move(-1)
		return m, nil
	case "enter":
		return m.submit()
	}
	return m, f.update(msg)
}

func (m Model) handleBrowseKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.businesses)-1 {
			m.cursor++
		}
	case "r":
		m.pending[view.Businesses]++
		return m, m.listCmd()
	case "n":
		m.editing = true
		m.editID = ""
		m.bizForm.reset()
	case "e":
		if b, ok := m.selected(); ok {
			m.editing = true
			m.editID = b.ID.String()
			m.bizForm.reset()
			m.bizForm.set(bizName, b.Name)
			m.bizForm.set(bizIndustry, b.Industry)
			m.bizForm.set(bizEmail, b.ContactEmail)
		}
	case "d":
		if b, ok := m.selected(); ok {
			id := b.ID.String()
			m.pending[view.Businesses]++
			return m, func() tea.Msg {
				return mutationMsg{status: m.app.Businesses.Delete(m.ctx, id)}
			}
		}
	}
	return m, nil
}

func (m Model) selected() (client.Business, bool) {
	if m.cursor < 0 || m.cursor >= len(m.businesses) {
		return client.Business{}, false
	}
	return m.businesses[m.cursor], true
}

func (m *Model) activeForm() *form {
	switch m.router.Active() {
	case view.Upload:
		return &m.uploadForm
	case view.Training:
		return &m.trainForm
	case view.Recommendations:
		return &m.recForm
	case view.Metrics:
		return &m.metricsForm
	default:
		return &m.bizForm
	}
}

// submit starts the operation of the active view. Requests run in the background; the
// operator can switch views while they are in flight.
func (m Model) submit() (tea.Model, tea.Cmd) {
	active := m.router.Active()
	m.pending[active]++

	switch active {
	case view.Businesses:
		draft := client.BusinessDraft{
			Name:         m.bizForm.value(bizName),
			Industry:     m.bizForm.value(bizIndustry),
			ContactEmail: m.bizForm.value(bizEmail),
		}
		id := m.editID
		m.editing = false
		m.bizForm.reset()
		return m, func() tea.Msg {
			if id == "" {
				_, st := m.app.Businesses.Create(m.ctx, draft)
				return mutationMsg{status: st}
			}
			_, st := m.app.Businesses.Update(m.ctx, id, draft)
			return mutationMsg{status: st}
		}

	case view.Upload:
		businessID := m.uploadForm.value(uploadBusiness)
		path := m.uploadForm.value(uploadPath)
		return m, func() tea.Msg {
			return uploadMsg{status: m.upload(businessID, path)}
		}

	case view.Training:
		businessID := m.trainForm.value(trainBusiness)
		opts := services.DefaultTrainingOptions()
		n, err := number(m.trainForm.value(trainSamples), "n_samples")
		if err != nil {
			st := services.Status{Message: "Training rejected", Err: err}
			return m, func() tea.Msg { return trainMsg{status: st} }
		}
		opts.NSamples = n
		opts.UseTabular = yes(m.trainForm.value(trainTabular))
		opts.UseText = yes(m.trainForm.value(trainText))
		return m, func() tea.Msg {
			job, st := m.app.Training.Submit(m.ctx, businessID, opts)
			return trainMsg{job: job, status: st}
		}

	case view.Recommendations:
		businessID := m.recForm.value(recBusiness)
		item := m.recForm.value(recItem)
		k, err := number(m.recForm.value(recK), "k")
		if err != nil {
			st := services.Status{Message: "Query rejected", Err: err}
			return m, func() tea.Msg { return recommendMsg{status: st} }
		}
		return m, func() tea.Msg {
			result, st := m.app.Recommendations.Query(m.ctx, businessID, item, k)
			return recommendMsg{result: result, status: st}
		}

	case view.Metrics:
		businessID := m.metricsForm.value(metricsBusiness)
		k, err := number(m.metricsForm.value(metricsK), "k")
		if err != nil {
			st := services.Status{Message: "Query rejected", Err: err}
			return m, func() tea.Msg { return metricsMsg{status: st} }
		}
		return m, func() tea.Msg {
			result, st := m.app.Metrics.Query(m.ctx, businessID, k)
			return metricsMsg{result: result, status: st}
		}
	}

	m.pending[active]--
	return m, nil
}

func (m Model) listCmd() tea.Cmd {
	return func() tea.Msg {
		businesses, st := m.app.Businesses.List(m.ctx)
		return listMsg{businesses: businesses, status: st}
	}
}

// upload opens path and hands it to the coordinator. An empty path is passed on as a
// missing file.
func (m Model) upload(businessID, path string) services.Status {
	var file *services.File
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return services.Status{Message: "Upload rejected", Err: apperrors.Precondition("cannot open dataset: "+err.Error(), nil)}
		}
		defer f.Close()
		file = &services.File{Name: filepath.Base(path), Content: f}
	}
	return m.app.Uploads.Submit(m.ctx, businessID, file)
}

func yes(s string) bool {
	switch strings.ToLower(s) {
	case "y", "yes", "true", "1":
		return true
	}
	return false
}

// number parses a numeric form field. Anything but a decimal integer is a local rejection.
func number(s, field string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, apperrors.Precondition(field+" must be an integer", nil)
	}
	return n, nil
}
