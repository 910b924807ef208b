// Package reporting renders a finished run report for the terminal.
package reporting

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/solo-fox/veve/internal/schedule"
)

var (
	colorPass = lipgloss.Color("#2CD7C7")
	colorFail = lipgloss.Color("#E74C3C")
	colorSkip = lipgloss.Color("#2C4A54")
	colorSoft = lipgloss.Color("#F4D03F")
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true)
	mutedStyle = lipgloss.NewStyle().Foreground(colorSkip)
	passStyle  = lipgloss.NewStyle().Foreground(colorPass)
	failStyle  = lipgloss.NewStyle().Foreground(colorFail)
	softStyle  = lipgloss.NewStyle().Foreground(colorSoft)
	stackStyle = lipgloss.NewStyle().Foreground(colorSkip).PaddingLeft(4)
)

func marker(status schedule.Status) string {
	switch status {
	case schedule.StatusPassed:
		return passStyle.Render("✓")
	case schedule.StatusFailed:
		return failStyle.Render("✗")
	case schedule.StatusSkipped:
		return mutedStyle.Render("○")
	case schedule.StatusSoftFail:
		return softStyle.Render("⚠")
	default:
		return "?"
	}
}

// Console renders run reports as styled terminal text.
//
// Verbose includes skipped tests and hook results; the default output
// lists only tests that ran. Failure stacks are always included for
// failed and soft-failed tests.
type Console struct {
	Verbose bool
}

// Render formats one report. The output is deterministic for a given
// report: results appear in the report's completion order and the
// summary line is derived only from the stats.
func (c Console) Render(report *schedule.Report) string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(report.Description))
	b.WriteString(mutedStyle.Render(fmt.Sprintf("  run %s", report.RunID)))
	b.WriteString("\n\n")

	if c.Verbose && len(report.Hooks) > 0 {
		for _, res := range report.Hooks {
			c.writeResult(&b, res, "hook")
		}
		b.WriteString("\n")
	}

	for _, res := range report.Tests {
		if res.Status == schedule.StatusSkipped && !c.Verbose {
			continue
		}
		c.writeResult(&b, res, "")
	}

	b.WriteString("\n")
	b.WriteString(c.summary(report))
	b.WriteString("\n")
	return b.String()
}

func (c Console) writeResult(b *strings.Builder, res schedule.Result, tag string) {
	line := fmt.Sprintf("  %s %s", marker(res.Status), res.Description)
	if tag != "" {
		line += mutedStyle.Render(" [" + tag + "]")
	}
	if res.Retries > 0 {
		line += softStyle.Render(fmt.Sprintf(" (retried %d)", res.Retries))
	}
	b.WriteString(line)
	b.WriteString("\n")

	if res.Error != nil {
		b.WriteString(failStyle.Render("      " + res.Error.Message))
		b.WriteString("\n")
		if res.Error.Stack != "" {
			b.WriteString(stackStyle.Render(strings.TrimRight(res.Error.Stack, "\n")))
			b.WriteString("\n")
		}
	}
}

func (c Console) summary(report *schedule.Report) string {
	s := report.Stats
	parts := []string{passStyle.Render(fmt.Sprintf("%d passed", s.Passed))}
	if s.Failed > 0 {
		parts = append(parts, failStyle.Render(fmt.Sprintf("%d failed", s.Failed)))
	}
	if s.SoftFailed > 0 {
		parts = append(parts, softStyle.Render(fmt.Sprintf("%d soft-failed", s.SoftFailed)))
	}
	if s.Skipped > 0 {
		parts = append(parts, mutedStyle.Render(fmt.Sprintf("%d skipped", s.Skipped)))
	}
	parts = append(parts, mutedStyle.Render(fmt.Sprintf("%d total in %s", s.Total, report.Duration.Round(time.Millisecond))))

	verdict := passStyle.Render("PASS")
	if report.Status == schedule.StatusFailed {
		verdict = failStyle.Render("FAIL")
	}
	return fmt.Sprintf("%s  %s", verdict, strings.Join(parts, mutedStyle.Render(", ")))
}
