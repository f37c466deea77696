// Package render prints investigation reports for terminals.
package render

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/gokaycavdar/go-netguard/pkg/models"
)

const (
	colorMuted  = lipgloss.Color("240")
	colorAccent = lipgloss.Color("57")
	colorGood   = lipgloss.Color("42")
	colorWarn   = lipgloss.Color("214")
	colorBad    = lipgloss.Color("160")
)

type styles struct {
	title  lipgloss.Style
	muted  lipgloss.Style
	header lipgloss.Style
	cell   lipgloss.Style
	levels map[models.RiskLevel]lipgloss.Style
	grades map[models.Grade]lipgloss.Style
}

func newStyles(r *lipgloss.Renderer, color bool) styles {
	s := styles{
		title:  r.NewStyle().Bold(true),
		muted:  r.NewStyle(),
		header: r.NewStyle().Bold(true).Padding(0, 1),
		cell:   r.NewStyle().Padding(0, 1),
		levels: map[models.RiskLevel]lipgloss.Style{},
		grades: map[models.Grade]lipgloss.Style{},
	}
	for _, l := range []models.RiskLevel{models.RiskInfo, models.RiskWarning, models.RiskDanger} {
		s.levels[l] = r.NewStyle()
	}
	for _, g := range []models.Grade{models.GradeExcellent, models.GradeGood, models.GradeFair, models.GradePoor} {
		s.grades[g] = r.NewStyle()
	}
	if !color {
		return s
	}

	s.title = s.title.Foreground(colorAccent)
	s.muted = s.muted.Foreground(colorMuted)
	s.header = s.header.Foreground(lipgloss.Color("229")).Background(colorAccent)
	s.levels[models.RiskWarning] = s.levels[models.RiskWarning].Foreground(colorWarn)
	s.levels[models.RiskDanger] = s.levels[models.RiskDanger].Foreground(colorBad).Bold(true)
	s.grades[models.GradeExcellent] = s.grades[models.GradeExcellent].Foreground(colorGood).Bold(true)
	s.grades[models.GradeGood] = s.grades[models.GradeGood].Foreground(colorGood)
	s.grades[models.GradeFair] = s.grades[models.GradeFair].Foreground(colorWarn)
	s.grades[models.GradePoor] = s.grades[models.GradePoor].Foreground(colorBad).Bold(true)
	return s
}

// Report writes a human-readable rendering of report to w. Colour is only
// emitted when color is true and w supports it.
func Report(w io.Writer, report *models.InvestigationReport, color bool) error {
	r := lipgloss.NewRenderer(w)
	st := newStyles(r, color)

	var b strings.Builder
	b.WriteString(st.title.Render("Network investigation "+report.ID) + "\n")
	meta := fmt.Sprintf("host %s, started %s, took %s",
		orDash(report.Hostname), report.StartedAt.Format(time.RFC3339), report.Duration.Round(time.Millisecond))
	b.WriteString(st.muted.Render(meta) + "\n\n")

	if report.Error != nil {
		b.WriteString(st.levels[models.RiskDanger].Render(
			fmt.Sprintf("Connection snapshot unavailable (%s): %s", report.Error.Kind, report.Error.Message)) + "\n\n")
	}

	sec := report.Security
	b.WriteString(fmt.Sprintf("Security score: %s\n",
		st.grade(sec.Grade).Render(fmt.Sprintf("%d/100 (%s)", sec.Score, sec.Grade))))
	b.WriteString(fmt.Sprintf("Connections: %d total, %d external, %d private\n",
		sec.Total, report.Summary.ExternalConnections, report.Summary.PrivateConnections))
	b.WriteString(fmt.Sprintf("Threats: %d  Warnings: %d  Secure: %d  Suspicious ports: %d  Geolocation failures: %d\n",
		sec.Threats, sec.Warnings, sec.Secure, sec.SuspiciousPorts, sec.GeoFailures))
	b.WriteString(st.muted.Render(fmt.Sprintf("Lookups: %d performed, %d skipped; %d listening sockets ignored",
		report.Metadata.GeoLookups, report.Metadata.GeoSkipped, report.Metadata.ListeningSkipped)) + "\n\n")

	if len(report.Connections) > 0 {
		b.WriteString(connectionTable(report.Connections, st) + "\n\n")
	}

	if len(report.Summary.TopCountries) > 0 {
		b.WriteString(st.title.Render("Top countries") + "\n")
		for _, c := range report.Summary.TopCountries {
			b.WriteString(fmt.Sprintf("  %-24s %d\n", c.Country, c.Count))
		}
		b.WriteString("\n")
	}

	writeList(&b, st, "Recommendations", sec.Recommendations)
	writeList(&b, st, "Risk factors", sec.RiskFactors)

	_, err := io.WriteString(w, b.String())
	return err
}

func connectionTable(conns []models.ClassifiedConnection, st styles) string {
	rows := make([][]string, 0, len(conns))
	for _, c := range conns {
		rows = append(rows, []string{
			string(c.Protocol),
			c.Local.String(),
			c.Remote.String(),
			c.State,
			c.ProcessName(),
			location(c.Geo),
			string(c.RiskLevel),
			strings.Join(c.Risks, "; "),
		})
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(st.muted).
		Headers("PROTO", "LOCAL", "REMOTE", "STATE", "PROCESS", "LOCATION", "RISK", "REASONS").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return st.header
			}
			if col == 6 && row >= 0 && row < len(conns) {
				if s, ok := st.levels[conns[row].RiskLevel]; ok {
					return s.Padding(0, 1)
				}
			}
			return st.cell
		})
	return t.String()
}

func location(g *models.GeoRecord) string {
	switch {
	case g == nil:
		return "-"
	case g.OK():
		parts := make([]string, 0, 2)
		if g.City != "" {
			parts = append(parts, g.City)
		}
		if g.CountryCode != "" {
			parts = append(parts, g.CountryCode)
		} else if g.Country != "" {
			parts = append(parts, g.Country)
		}
		if len(parts) == 0 {
			return "?"
		}
		return strings.Join(parts, ", ")
	case g.Status == models.GeoSkipped:
		return "(" + string(g.FailureKind) + ")"
	default:
		return "lookup failed"
	}
}

func (s styles) grade(g models.Grade) lipgloss.Style {
	if st, ok := s.grades[g]; ok {
		return st
	}
	return s.muted
}

func writeList(b *strings.Builder, st styles, title string, items []string) {
	if len(items) == 0 {
		return
	}
	b.WriteString(st.title.Render(title) + "\n")
	for _, item := range items {
		b.WriteString("  - " + item + "\n")
	}
	b.WriteString("\n")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
