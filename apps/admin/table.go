package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/trezcool/masomo-admin/client"
	"github.com/trezcool/masomo-admin/core/listing"
	"github.com/trezcool/masomo-admin/core/resource"
)

const shortIDLen = 8

var (
	headerStyle = lipgloss.NewStyle().Bold(true)
	footerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#909090"))

	neutralBadge = lipgloss.NewStyle().Foreground(lipgloss.Color("#A49FA5"))
	infoBadge    = lipgloss.NewStyle().Foreground(lipgloss.Color("#5A56E0"))
	successBadge = lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575"))
	warningBadge = lipgloss.NewStyle().Foreground(lipgloss.Color("#ECFD65"))
	dangerBadge  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4672"))
)

func badgeStyle(v resource.Variant) lipgloss.Style {
	switch v {
	case resource.VariantNeutral:
		return neutralBadge
	case resource.VariantInfo:
		return infoBadge
	case resource.VariantSuccess:
		return successBadge
	case resource.VariantWarning:
		return warningBadge
	case resource.VariantDanger:
		return dangerBadge
	}
	panic(fmt.Sprintf("unknown variant %d", int(v)))
}

// parseVariant is the inverse of resource.Variant.String.
func parseVariant(s string) (resource.Variant, bool) {
	for v := resource.VariantNeutral; v <= resource.VariantDanger; v++ {
		if v.String() == s {
			return v, true
		}
	}
	return resource.VariantNeutral, false
}

// badge renders an enum value in the color of its variant.
func badge(col resource.ColumnInfo, value string) string {
	v, ok := parseVariant(col.Variants[value])
	if !ok {
		return value
	}
	return badgeStyle(v).Render(value)
}

func printRows(w io.Writer, meta client.Meta, snap listing.Snapshot[client.Row]) {
	headers := []string{"ID"}
	for _, col := range meta.Columns {
		headers = append(headers, strings.ToUpper(col.Name))
	}
	headers = append(headers, "CREATED")

	now := time.Now()
	rows := make([][]string, 0, len(snap.Rows))
	for _, row := range snap.Rows {
		id := row.RecordID()
		if len(id) > shortIDLen {
			id = id[:shortIDLen]
		}
		cells := []string{id}
		for _, col := range meta.Columns {
			cells = append(cells, cell(col, row[col.Name]))
		}
		cells = append(cells, createdAgo(row["created_at"], now))
		rows = append(rows, cells)
	}
	printTable(w, headers, rows)

	p := snap.Pagination
	pages := p.PageCount()
	if pages == 0 {
		pages = 1
	}
	fmt.Fprintln(w, footerStyle.Render(fmt.Sprintf("page %d of %d, %s %s",
		p.PageIndex+1, pages, humanize.Comma(int64(p.TotalCount)), meta.Name)))
}

func cell(col resource.ColumnInfo, v interface{}) string {
	switch val := v.(type) {
	case nil:
		return "-"
	case string:
		if col.Kind == "enum" {
			return badge(col, val)
		}
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		if val {
			return "yes"
		}
		return "no"
	}
	return fmt.Sprint(v)
}

func createdAgo(v interface{}, now time.Time) string {
	s, _ := v.(string)
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return "-"
	}
	return humanize.RelTime(t, now, "ago", "from now")
}

// printTable prints left aligned columns, sized on the rendered width of their cells.
func printTable(w io.Writer, headers []string, rows [][]string) {
	if len(rows) == 0 {
		fmt.Fprintln(w, "No rows found.")
		return
	}

	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i, c := range row {
			if cw := lipgloss.Width(c); cw > widths[i] {
				widths[i] = cw
			}
		}
	}

	line := func(cells []string, style *lipgloss.Style) {
		var b strings.Builder
		for i, c := range cells {
			if style != nil {
				c = style.Render(c)
			}
			b.WriteString(c)
			if i < len(cells)-1 {
				b.WriteString(strings.Repeat(" ", widths[i]-lipgloss.Width(c)+2))
			}
		}
		fmt.Fprintln(w, b.String())
	}
	line(headers, &headerStyle)
	for _, row := range rows {
		line(row, nil)
	}
}
