package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/kilianp07/xcharge/core/dispatch"
	"github.com/kilianp07/xcharge/core/model"
	"github.com/kilianp07/xcharge/infra/mapview"
	"github.com/kilianp07/xcharge/internal/ui/theme"
)

func (m Model) View() string {
	var body string
	switch m.snap.Stage {
	case dispatch.StageWelcome:
		body = m.viewWelcome()
	case dispatch.StageMap:
		body = m.viewMap()
	case dispatch.StageDetails:
		body = m.viewDetails()
	case dispatch.StageDispatch:
		body = m.viewDispatch()
	case dispatch.StageTracking:
		body = m.viewTracking()
	}
	parts := []string{m.viewHeader(), theme.Pane.Render(body), m.viewStatus()}
	if m.showHelp {
		parts = append(parts, m.help.FullHelpView(m.keys.FullHelp()))
	} else {
		parts = append(parts, m.help.ShortHelpView(m.keys.ShortHelp()))
	}
	return theme.App.Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
}

func (m Model) viewHeader() string {
	battery := fmt.Sprintf("battery %d%%", m.snap.BatteryLevel)
	if m.snap.LowBattery {
		battery = theme.Warn.Render(battery + " LOW")
	} else {
		battery = theme.Muted.Render(battery)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, theme.Title.Render("XCHARGE"), "  ", battery)
}

func (m Model) viewStatus() string {
	if m.rejected {
		return theme.Error.Render(m.status)
	}
	return theme.Muted.Render(m.status)
}

func (m Model) viewWelcome() string {
	lines := []string{
		theme.Title.Render("Charge anywhere."),
		"A mobile charger comes to you.",
		"",
	}
	if m.snap.Filling {
		lines = append(lines, theme.Muted.Render("warming up..."))
	} else {
		lines = append(lines, "press enter to find a pod")
	}
	return strings.Join(lines, "\n")
}

func (m Model) viewMap() string {
	v := mapview.Build(m.mapCfg, m.snap.Pods, nil)
	lines := []string{theme.Title.Render("Nearby pods"), theme.Muted.Render(v.EmbedURL), ""}
	for i, p := range m.snap.Pods {
		line := fmt.Sprintf("%-22s %s  %s", p.Name, p.Summary(), theme.Muted.Render(p.Distance))
		if i == m.cursor {
			line = theme.Selected.Render("> " + line)
		} else {
			line = "  " + line
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func stat(label, value string) string {
	return lipgloss.JoinVertical(lipgloss.Left, theme.Big.Render(value), theme.Muted.Render(" "+label))
}

func (m Model) viewDetails() string {
	p := m.snap.SelectedPod
	if p == nil {
		return theme.Error.Render("no pod selected")
	}
	stats := lipgloss.JoinHorizontal(lipgloss.Top,
		stat("power", p.Power),
		"   ",
		stat("reliability", fmt.Sprintf("%.1f%%", p.Reliability)),
		"   ",
		stat("eta", fmt.Sprintf("%d min", p.ETAMinutes)),
	)
	lines := []string{
		theme.Title.Render(p.Name),
		theme.Muted.Render(p.Intel),
		"",
		stats,
		"",
		fmt.Sprintf("confidence %d%%", m.snap.ConfidenceScore),
	}
	if v := mapview.Build(m.mapCfg, nil, p); v.Centre != nil {
		lines = append(lines, theme.Muted.Render(v.EmbedURL))
	}
	body := strings.Join(lines, "\n")
	if m.snap.PaymentOpen {
		body = lipgloss.JoinVertical(lipgloss.Left, body, "", m.viewPayment())
	} else {
		body += "\n\npress enter to request this pod"
	}
	return body
}

func (m Model) viewPayment() string {
	q := m.snap.Quote
	row := func(label string, paise int64) string {
		return fmt.Sprintf("%-18s %10s", label, dispatch.FormatINR(paise))
	}
	lines := []string{
		theme.Title.Render("Payment"),
		row("Energy estimate", q.EnergyEstimate),
		row("Service fee", q.ServiceFee),
		strings.Repeat("─", 29),
		row("Total", q.Total()),
		"",
		theme.Selected.Render("[p] PAY & DISPATCH (BYPASS)"),
	}
	return theme.Overlay.Render(strings.Join(lines, "\n"))
}

func podName(p *model.Pod) string {
	if p == nil {
		return "pod"
	}
	return p.Name
}

func (m Model) viewDispatch() string {
	t := m.snap.Trivia
	lines := []string{
		theme.Title.Render("Dispatching " + podName(m.snap.SelectedPod)),
		m.bar.ViewAs(float64(m.snap.LoadProgress) / 100),
		"",
	}
	if t.Title != "" {
		lines = append(lines, theme.Selected.Render(t.Title), theme.Muted.Render(t.Detail))
	}
	return strings.Join(lines, "\n")
}

func (m Model) viewTracking() string {
	head := "On the way: " + podName(m.snap.SelectedPod)
	if m.snap.Arrived {
		head = podName(m.snap.SelectedPod) + " has arrived"
	}
	lines := []string{
		theme.Title.Render(head),
		theme.Big.Render(m.snap.Countdown),
		m.bar.ViewAs(float64(m.snap.TrackingProgress) / 100),
	}
	if m.snap.Arrived {
		lines = append(lines, "", "press enter to return to the map")
	}
	return strings.Join(lines, "\n")
}
