package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"habitbreak/internal/constants"
	"habitbreak/internal/controller"
)

var sparkLevels = []rune("▁▂▃▄▅▆▇█")

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	switch m.state {
	case constants.StateAuth, constants.StateJournalForm, constants.StateGoalForm, constants.StateGoalEdit:
		return docStyle.Render(m.form.View())
	}

	st := m.ctrl.Snapshot()

	ui := lipgloss.JoinVertical(
		lipgloss.Left,
		m.viewHeader(st),
		lipgloss.JoinHorizontal(lipgloss.Top, m.viewStreak(st), m.viewTips(st)),
		lipgloss.JoinHorizontal(lipgloss.Top, m.viewJournal(st), m.viewGoals(st)),
		m.viewMetricsLine(st),
		m.help.View(m.keys),
	)
	return docStyle.Render(ui)
}

func (m Model) viewHeader(st controller.State) string {
	parts := []string{
		titleStyle.Render("Habit Breaker"),
		badgeStyle.Render("Focus: " + constants.HabitLabel(st.Habit)),
	}

	if st.Profile != nil {
		signin := st.Profile.Name()
		if !st.Profile.IsVerified {
			signin += " (unverified)"
		}
		parts = append(parts, mutedStyle.Render("Signed in: "+signin))
	} else {
		parts = append(parts, mutedStyle.Render("Not signed in, press l to log in"))
	}

	if m.busy || st.Loading {
		parts = append(parts, m.spin.View())
	}

	header := lipgloss.JoinHorizontal(lipgloss.Center, joinSpaced(parts)...)

	if st.ErrMsg != "" {
		return lipgloss.JoinVertical(lipgloss.Left, header, dangerStyle.Render(st.ErrMsg))
	}
	return header
}

func joinSpaced(parts []string) []string {
	out := make([]string, 0, len(parts)*2)
	for i, p := range parts {
		if i > 0 {
			out = append(out, "  ")
		}
		out = append(out, p)
	}
	return out
}

func (m Model) viewStreak(st controller.State) string {
	var b strings.Builder
	b.WriteString(paneTitleStyle.Render("Your Streak"))
	b.WriteString("\n")
	b.WriteString(streakStyle.Render(fmt.Sprintf("%d days", st.Streak.DaysLogged)))
	b.WriteString(mutedStyle.Render(fmt.Sprintf(" logged, current streak %d", st.Streak.CurrentStreak)))
	b.WriteString("\n")
	b.WriteString(chartBarStyle.Render(sparkline(st)))
	b.WriteString("\n")
	b.WriteString(mutedStyle.Render(fmt.Sprintf("last %d days, press c to check in", st.Window)))
	return paneStyle.Render(b.String())
}

// sparkline renders the per-day check-in counts as one rune per day.
func sparkline(st controller.State) string {
	days := st.Metrics.Checkins
	if len(days) == 0 {
		return mutedStyle.Render("no check-ins yet")
	}
	max := 1
	for _, d := range days {
		if d.Count > max {
			max = d.Count
		}
	}
	var b strings.Builder
	for _, d := range days {
		idx := d.Count * (len(sparkLevels) - 1) / max
		b.WriteRune(sparkLevels[idx])
	}
	return b.String()
}

func (m Model) viewTips(st controller.State) string {
	var b strings.Builder
	b.WriteString(paneTitleStyle.Render("Quick Tips"))
	b.WriteString("\n")
	b.WriteString(subtitleStyle.Render("Tailored for: " + constants.HabitLabel(st.Habit)))
	b.WriteString("\n")
	if len(st.Tips) == 0 {
		b.WriteString(mutedStyle.Render("no tips loaded"))
	}
	for _, t := range st.Tips {
		b.WriteString("• " + t + "\n")
	}
	return paneStyle.Render(strings.TrimRight(b.String(), "\n"))
}

func (m Model) viewJournal(st controller.State) string {
	var b strings.Builder
	b.WriteString(paneTitleStyle.Render("Recent Journal Entries"))
	b.WriteString("\n")
	if len(st.Journal) == 0 {
		b.WriteString(mutedStyle.Render("No entries yet. Press j to log your first one."))
		return paneStyle.Render(b.String())
	}

	shown := st.Journal
	if len(shown) > 5 {
		shown = shown[:5]
	}
	for _, e := range shown {
		b.WriteString(mutedStyle.Render(e.CreatedAt))
		b.WriteString(fmt.Sprintf("  [intensity %d]\n", e.Intensity))
		b.WriteString(e.Note + "\n")
		if e.Feeling != "" {
			b.WriteString(subtitleStyle.Render("Feeling: "+e.Feeling) + "\n")
		}
	}
	return paneStyle.Render(strings.TrimRight(b.String(), "\n"))
}

func (m Model) viewGoals(st controller.State) string {
	var b strings.Builder
	b.WriteString(paneTitleStyle.Render("Your Goals"))
	b.WriteString("\n")
	if len(st.Goals) == 0 {
		b.WriteString(mutedStyle.Render("No goals yet. Press g to create one."))
		return paneStyle.Render(b.String())
	}

	for i, g := range st.Goals {
		cursor := "  "
		line := fmt.Sprintf("%s (target %d days)", g.Title, g.TargetDays)
		if g.Done() {
			line += " ✓ " + g.CompletedDate
		}
		if i == m.goalCursor {
			cursor = "> "
			line = selectedStyle.Render(line)
		}
		b.WriteString(cursor + line + "\n")
	}
	b.WriteString(mutedStyle.Render("e edit, d mark done"))
	return paneStyle.Render(strings.TrimRight(b.String(), "\n"))
}

func (m Model) viewMetricsLine(st controller.State) string {
	avg := "-"
	if st.Metrics.AvgIntensity != nil {
		avg = fmt.Sprintf("%.1f", *st.Metrics.AvgIntensity)
	}
	return mutedStyle.Render(fmt.Sprintf(
		"Window %dd (press w)  ·  journal entries %d  ·  avg intensity (last 200) %s",
		st.Window, st.Metrics.JournalCount, avg,
	))
}
