package render

import (
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/gokaycavdar/go-netguard/pkg/models"
)

// GeoRecords writes one table row per geolocation record.
func GeoRecords(w io.Writer, records []*models.GeoRecord, color bool) error {
	st := newStyles(lipgloss.NewRenderer(w), color)

	rows := make([][]string, 0, len(records))
	for _, g := range records {
		detail := strings.TrimSpace(strings.Join([]string{g.ASN, g.ISP}, " "))
		if !g.OK() {
			detail = g.Message
		}
		rows = append(rows, []string{g.IP, string(g.Status), location(g), g.Timezone, detail})
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(st.muted).
		Headers("IP", "STATUS", "LOCATION", "TIMEZONE", "NETWORK").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return st.header
			}
			return st.cell
		})

	_, err := io.WriteString(w, t.String()+"\n")
	return err
}
