package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/ocragent/ocr-agent/internal/docprocessing/domain"
)

var (
	accent  = lipgloss.Color("#2563EB")
	dim     = lipgloss.Color("#6B7280")
	success = lipgloss.Color("#22C55E")
	danger  = lipgloss.Color("#EF4444")
	warning = lipgloss.Color("#F59E0B")
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(accent)
	dimStyle      = lipgloss.NewStyle().Foreground(dim)
	passStyle     = lipgloss.NewStyle().Foreground(success).Bold(true)
	failStyle     = lipgloss.NewStyle().Foreground(danger).Bold(true)
	warnStyle     = lipgloss.NewStyle().Foreground(warning)
	errorTagStyle = lipgloss.NewStyle().Foreground(danger)
	boxStyle      = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(accent).
			Padding(0, 2)
)

func renderResult(file string, res *domain.ValidationResult) string {
	var b strings.Builder

	verdict := failStyle.Render("INVALID")
	if res.Valid {
		verdict = passStyle.Render("VALID")
	}
	b.WriteString(titleStyle.Render(file) + "  " + verdict + "\n")
	b.WriteString(dimStyle.Render(fmt.Sprintf("%s · confidence %d · %s %.1f",
		res.DocumentType, res.Confidence, res.Raw.Engine, res.Raw.Confidence)))

	if res.Data != nil {
		if id := res.Data.SubjectID(); id != nil {
			b.WriteString("\n" + dimStyle.Render("id ") + *id)
		}
	}

	for _, f := range res.Errors {
		b.WriteString("\n" + errorTagStyle.Render("✗ "+f.Code) + " " + f.Message)
	}
	for _, f := range res.Alerts {
		b.WriteString("\n" + warnStyle.Render("! "+f.Code) + " " + f.Message)
	}

	return boxStyle.Render(b.String())
}
