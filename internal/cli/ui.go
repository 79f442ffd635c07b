package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"

	"github.com/matzehuels/bayesaudit/pkg/audit"
)

// =============================================================================
// Color Palette
// =============================================================================

var (
	colorCyan   = lipgloss.Color("36")  // Teal - primary actions
	colorGreen  = lipgloss.Color("35")  // Green - success
	colorYellow = lipgloss.Color("220") // Amber - warnings
	colorRed    = lipgloss.Color("167") // Soft red - errors
	colorBlue   = lipgloss.Color("75")  // Light blue - links
	colorWhite  = lipgloss.Color("255") // Bright white - values
	colorGray   = lipgloss.Color("245") // Gray - secondary text
	colorDim    = lipgloss.Color("240") // Dim gray - muted text
)

// =============================================================================
// Public Styles
// =============================================================================

var (
	// StyleTitle for main headings.
	StyleTitle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)

	// StyleDim for secondary/muted text.
	StyleDim = lipgloss.NewStyle().Foreground(colorDim)

	// StyleValue for data values.
	StyleValue = lipgloss.NewStyle().Foreground(colorWhite)

	// StyleNumber for numeric values.
	StyleNumber = lipgloss.NewStyle().Foreground(colorCyan)

	// StyleSuccess for success messages.
	StyleSuccess = lipgloss.NewStyle().Foreground(colorGreen)

	// StyleWarning for warning messages.
	StyleWarning = lipgloss.NewStyle().Foreground(colorYellow)
)

// =============================================================================
// Internal Styles
// =============================================================================

var (
	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconError   = lipgloss.NewStyle().Foreground(colorRed)
	styleIconWarning = lipgloss.NewStyle().Foreground(colorYellow)
	styleIconInfo    = lipgloss.NewStyle().Foreground(colorGray)
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)

	styleStable   = lipgloss.NewStyle().Foreground(colorGreen)
	styleUnstable = lipgloss.NewStyle().Foreground(colorGray)

	styleCommand = lipgloss.NewStyle().Foreground(colorBlue)
	styleHeader  = lipgloss.NewStyle().Foreground(colorGray).Bold(true)
)

// =============================================================================
// Icons
// =============================================================================

const (
	iconSuccess  = "✓"
	iconError    = "✗"
	iconWarning  = "!"
	iconInfo     = "›"
	iconArrow    = "→"
	iconStable   = "stable"
	iconUnstable = "drawing"
)

// =============================================================================
// Status Output
// =============================================================================

// printSuccess prints a success message.
func printSuccess(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconSuccess.Render(iconSuccess) + " " + msg)
}

// printError prints an error message.
func printError(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconError.Render(iconError) + " " + msg)
}

// printWarning prints a warning message.
func printWarning(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconWarning.Render(iconWarning) + " " + StyleWarning.Render(msg))
}

// printInfo prints an info/status message.
func printInfo(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconInfo.Render(iconInfo) + " " + msg)
}

// printDetail prints a detail line (indented).
func printDetail(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println("  " + StyleDim.Render(msg))
}

// printFile prints a file output line.
func printFile(path string) {
	fmt.Println("  " + StyleDim.Render(iconArrow) + " " + StyleValue.Render(path))
}

// printKeyValue prints a labeled value.
func printKeyValue(key, value string) {
	keyStyle := lipgloss.NewStyle().Foreground(colorGray).Width(12)
	fmt.Println(keyStyle.Render(key) + " " + StyleValue.Render(value))
}

// printNextStep prints a suggested next command.
func printNextStep(description, cmd string) {
	fmt.Println(StyleDim.Render(description+":") + " " + styleCommand.Render(cmd))
}

// =============================================================================
// Audit Output
// =============================================================================

// stageLine formats one stage report on a single line.
func stageLine(r audit.StageReport) string {
	status := iconUnstable
	statusStyle := styleUnstable
	if r.Stable {
		status = iconStable
		statusStyle = styleStable
	}
	parts := []string{
		fmt.Sprintf("stage %d", r.Stage),
		drawnOf(r.Drawn, r.Population),
		fmt.Sprintf("best %s", r.Best),
		fmt.Sprintf("%d/%d", r.Frequency, r.Trials),
		r.Duration.Round(time.Millisecond).String(),
	}
	var b strings.Builder
	b.WriteString("  ")
	for i, part := range parts {
		if i > 0 {
			b.WriteString(StyleDim.Render(" · "))
		}
		b.WriteString(StyleDim.Render(part))
	}
	b.WriteString(StyleDim.Render(" · "))
	b.WriteString(statusStyle.Render(status))
	return b.String()
}

// drawnOf renders "1,200 of 48,000 ballots", or just the count when the
// population is unknown.
func drawnOf(drawn, population int) string {
	if population <= 0 {
		return humanize.Comma(int64(drawn)) + " ballots"
	}
	return fmt.Sprintf("%s of %s ballots", humanize.Comma(int64(drawn)), humanize.Comma(int64(population)))
}

// printResult prints the audit summary.
func printResult(res *audit.Result) {
	fmt.Println()
	switch res.Status {
	case audit.StatusConfirmed:
		printSuccess("Outcome %s confirmed", StyleValue.Render(res.Outcome.String()))
	default:
		printWarning("Full count reached; outcome %s is the count result", res.Outcome)
	}
	printKeyValue("Contest", res.ContestID)
	printKeyValue("Audit", res.AuditID)
	printKeyValue("Seed", fmt.Sprint(res.Seed))
	printKeyValue("Stages", fmt.Sprint(res.Stages))
	printKeyValue("Drawn", humanize.Comma(int64(res.Drawn)))
	printKeyValue("Agreement", fmt.Sprintf("%d/%d trials", res.Frequency, res.Trials))
	printKeyValue("Duration", res.Duration.Round(time.Millisecond).String())

	if len(res.Reports) > 0 {
		fmt.Println()
		fmt.Println(sharesTable(res.Reports[len(res.Reports)-1]))
	}
	for _, w := range res.Witnesses {
		printDetail("%s elected in only %.1f%% of trials (witness trial %d)", w.Candidate, 100*w.Share, w.Trial)
	}
}

// sharesTable renders each candidate's share of a stage's outcomes.
func sharesTable(r audit.StageReport) string {
	rows := make([][]string, 0, len(r.Shares))
	for _, s := range r.Shares {
		rows = append(rows, []string{string(s.Candidate), fmt.Sprintf("%.1f%%", 100*s.Share)})
	}
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Candidate", "Elected in").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return styleHeader
			}
			if col == 1 {
				return StyleNumber
			}
			return StyleValue
		}).
		Render()
}
