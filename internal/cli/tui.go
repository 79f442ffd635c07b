package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/bayesaudit/pkg/audit"
)

var (
	watchTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	watchDimStyle   = lipgloss.NewStyle().Foreground(colorDim)
	watchBarStyle   = lipgloss.NewStyle().Foreground(colorGreen)
)

// spinnerFrames animate the header while a stage is running.
var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// =============================================================================
// AuditModel - Live stage view
// =============================================================================

type (
	stageMsg audit.StageReport
	tickMsg  time.Time
	doneMsg  struct {
		res *audit.Result
		err error
	}
)

// AuditModel is the bubbletea model of a running audit. It lists the most
// recent stages and the candidate shares of the latest one.
type AuditModel struct {
	Title      string
	Population int
	Reports    []audit.StageReport
	Result     *audit.Result
	Err        error
	Height     int

	frame  int
	cancel context.CancelFunc
}

// NewAuditModel creates a model; cancel is called when the user quits.
func NewAuditModel(title string, population int, cancel context.CancelFunc) AuditModel {
	return AuditModel{Title: title, Population: population, Height: 10, cancel: cancel}
}

func (m AuditModel) Init() tea.Cmd {
	return tick()
}

func tick() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m AuditModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			if m.cancel != nil {
				m.cancel()
			}
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-12, 3)
	case stageMsg:
		m.Reports = append(m.Reports, audit.StageReport(msg))
	case doneMsg:
		m.Result, m.Err = msg.res, msg.err
		return m, tea.Quit
	case tickMsg:
		m.frame++
		return m, tick()
	}
	return m, nil
}

func (m AuditModel) View() string {
	var b strings.Builder

	header := m.Title
	if m.Result == nil && m.Err == nil {
		header = spinnerFrames[m.frame%len(spinnerFrames)] + " " + header
	}
	b.WriteString(watchTitleStyle.Render(header))
	b.WriteString("\n")
	b.WriteString(watchDimStyle.Render("q quit"))
	b.WriteString("\n\n")

	if len(m.Reports) == 0 {
		b.WriteString(watchDimStyle.Render("  drawing first batch..."))
		b.WriteString("\n")
		return b.String()
	}

	start := max(len(m.Reports)-m.Height, 0)
	rows := make([][]string, 0, len(m.Reports)-start)
	for _, r := range m.Reports[start:] {
		status := iconUnstable
		if r.Stable {
			status = iconStable
		}
		rows = append(rows, []string{
			fmt.Sprint(r.Stage),
			drawnOf(r.Drawn, m.Population),
			r.Best.String(),
			fmt.Sprintf("%d/%d", r.Frequency, r.Trials),
			status,
		})
	}
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Stage", "Drawn", "Best", "Agreement", "").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return styleHeader
			}
			if col == 4 && rows[row][4] == iconStable {
				return styleStable
			}
			return lipgloss.NewStyle().Foreground(colorWhite)
		})
	b.WriteString(t.Render())
	b.WriteString("\n\n")

	last := m.Reports[len(m.Reports)-1]
	for _, s := range last.Shares {
		b.WriteString(fmt.Sprintf("  %-8s %s %5.1f%%\n", s.Candidate, shareBar(s.Share, 30), 100*s.Share))
	}
	return b.String()
}

// shareBar draws share as a bar of width cells.
func shareBar(share float64, width int) string {
	n := min(max(int(share*float64(width)+0.5), 0), width)
	return watchBarStyle.Render(strings.Repeat("█", n)) + watchDimStyle.Render(strings.Repeat("░", width-n))
}

// watchAudit runs an audit behind the live stage view. run receives the
// callback to install as the runner's stage hook.
func watchAudit(ctx context.Context, title string, population int,
	run func(ctx context.Context, onStage func(audit.StageReport)) (*audit.Result, error)) (*audit.Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(NewAuditModel(title, population, cancel))
	done := make(chan doneMsg, 1)
	go func() {
		res, err := run(ctx, func(r audit.StageReport) { p.Send(stageMsg(r)) })
		d := doneMsg{res: res, err: err}
		done <- d
		p.Send(d)
	}()

	if _, err := p.Run(); err != nil {
		cancel()
		<-done
		return nil, err
	}
	d := <-done
	return d.res, d.err
}
