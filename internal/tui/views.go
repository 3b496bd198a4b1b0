package tui

import (
	"fmt"
	"strings"

	"github.com/pratik-mahalle/bizrec/internal/services"
	"github.com/pratik-mahalle/bizrec/internal/view"
)

// View renders the tab bar, the active screen and its status line
func (m Model) View() string {
	var b strings.Builder
	active := m.router.Active()

	b.WriteString(TitleStyle.Render("bizrec") + "\n")
	tabs := make([]string, 0, len(view.All()))
	for _, v := range view.All() {
		if v == active {
			tabs = append(tabs, ActiveTabStyle.Render(v.String()))
		} else {
			tabs = append(tabs, TabStyle.Render(v.String()))
		}
	}
	b.WriteString(strings.Join(tabs, "|") + "\n\n")

	switch active {
	case view.Businesses:
		b.WriteString(m.businessesView())
	case view.Upload:
		b.WriteString(m.uploadForm.view())
	case view.Training:
		b.WriteString(m.trainForm.view())
		b.WriteString(m.jobView())
	case view.Recommendations:
		b.WriteString(m.recForm.view())
		b.WriteString(m.recommendationsView())
	case view.Metrics:
		b.WriteString(m.metricsForm.view())
		b.WriteString(m.metricsView())
	}

	b.WriteString("\n" + m.statusLine(active) + "\n")
	b.WriteString(HelpStyle.Render(m.help(active)))
	return b.String()
}

func (m Model) statusLine(v view.View) string {
	if m.pending[v] > 0 {
		return LoadingStyle.Render("Working...")
	}
	st, ok := m.statuses[v]
	if !ok {
		return ""
	}
	return renderStatus(st)
}

func renderStatus(st services.Status) string {
	if st.OK {
		return SuccessStyle.Render(st.String())
	}
	return ErrorStyle.Render(st.String())
}

func (m Model) help(v view.View) string {
	nav := "ctrl+n/ctrl+p switch view • ctrl+c quit"
	if v == view.Businesses && !m.editing {
		return "↑/↓ select • n new • e edit • d delete • r refresh • q quit • " + nav
	}
	if v == view.Businesses {
		return "tab next field • enter save • esc cancel • " + nav
	}
	return "tab next field • enter submit • " + nav
}

func (m Model) businessesView() string {
	if m.editing {
		title := "New business"
		if m.editID != "" {
			title = "Edit business " + m.editID
		}
		return title + "\n\n" + m.bizForm.view()
	}

	if len(m.businesses) == 0 {
		return "No businesses yet. Press n to create one.\n"
	}

	var b strings.Builder
	for i, biz := range m.businesses {
		line := fmt.Sprintf("%-6s %-30s %-20s %s", biz.ID, biz.Name, biz.Industry, biz.ContactEmail)
		if i == m.cursor {
			b.WriteString(SelectedStyle.Render("> "+line) + "\n")
			continue
		}
		b.WriteString("  " + line + "\n")
	}
	return b.String()
}

func (m Model) jobView() string {
	if m.job == nil {
		return ""
	}
	s := fmt.Sprintf("\nLast job %s for business %s: %s\n", m.job.ID, m.job.BusinessID, m.job.State)
	if m.job.Ack != nil && m.job.Ack.ItemsLoaded > 0 {
		s += fmt.Sprintf("Items loaded: %d\n", m.job.Ack.ItemsLoaded)
	}
	return s
}

func (m Model) recommendationsView() string {
	if m.recs == nil {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "\nRecommendations for %s\n", m.recs.ProductName)
	for i, r := range m.recs.Recommendations {
		fmt.Fprintf(&b, "%3d. [%d] %s\n", i+1, r.Index, r.ProductName)
	}
	return b.String()
}

func (m Model) metricsView() string {
	if m.metrics == nil {
		return ""
	}
	indicators := services.Indicators(m.metrics)
	if len(indicators) == 0 {
		return fmt.Sprintf("\nNo metrics reported at k=%d\n", m.metrics.K)
	}
	var b strings.Builder
	b.WriteString("\n")
	for _, ind := range indicators {
		fmt.Fprintf(&b, "%-14s %s\n", ind.Label, ind.Formatted())
	}
	return b.String()
}
