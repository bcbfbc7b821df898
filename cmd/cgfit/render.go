package main

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/curioloop/conjugate/cg"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170"))
	keyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")).
			Width(12)
	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))
	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))
)

func renderResult(title string, res *cg.Result) string {
	row := func(key, value string) string {
		return lipgloss.JoinHorizontal(lipgloss.Top, keyStyle.Render(key), valueStyle.Render(value))
	}

	lines := []string{titleStyle.Render(title)}
	for i, v := range res.X {
		lines = append(lines, row(fmt.Sprintf("x[%d]", i), fmt.Sprintf("%.6f", v)))
	}
	lines = append(lines,
		row("cost", fmt.Sprintf("%.6e", res.F)),
		row("iterations", fmt.Sprintf("%d", res.NumIter)),
		row("evaluations", fmt.Sprintf("%d f, %d ∇f", res.NumCost, res.NumGrad)),
		row("restarts", fmt.Sprintf("%d", res.NumReset)),
	)

	status := res.Status.String()
	if !res.OK {
		status = warnStyle.Render(status)
	}
	lines = append(lines, row("status", status))

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}
