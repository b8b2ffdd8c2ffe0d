package main

import (
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

type columnAlignment int

const (
	alignAuto columnAlignment = iota
	alignLeft
	alignRight
)

// detailWidth caps free-text columns so encoder stderr does not blow out the
// terminal.
const detailWidth = 72

// renderTable draws rows under headers. Columns without an explicit alignment
// are right-aligned when every non-empty cell reads as a number or a size.
func renderTable(headers []string, rows [][]string, aligns []columnAlignment) string {
	if len(headers) == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(toRow(headers, len(headers)))
	for _, row := range rows {
		tw.AppendRow(toRow(row, len(headers)))
	}

	configs := make([]table.ColumnConfig, len(headers))
	for i, name := range headers {
		align := alignAuto
		if i < len(aligns) {
			align = aligns[i]
		}
		if align == alignAuto {
			align = inferAlignment(rows, i)
		}
		configs[i] = table.ColumnConfig{Number: i + 1, AlignHeader: text.AlignLeft, Align: text.AlignLeft}
		if align == alignRight {
			configs[i].Align = text.AlignRight
		}
		if isFreeText(name) {
			configs[i].WidthMax = detailWidth
			configs[i].WidthMaxEnforcer = text.WrapSoft
		}
	}
	tw.SetColumnConfigs(configs)
	return tw.Render()
}

func toRow(cells []string, width int) table.Row {
	row := make(table.Row, width)
	for i := range row {
		if i < len(cells) {
			row[i] = cells[i]
		} else {
			row[i] = ""
		}
	}
	return row
}

func inferAlignment(rows [][]string, col int) columnAlignment {
	seen := false
	for _, row := range rows {
		if col >= len(row) || row[col] == "" {
			continue
		}
		if !numericCell(row[col]) {
			return alignLeft
		}
		seen = true
	}
	if seen {
		return alignRight
	}
	return alignLeft
}

// numericCell accepts plain integers and humanized sizes such as "1.2 MiB".
func numericCell(cell string) bool {
	value, _, _ := strings.Cut(strings.TrimSpace(cell), " ")
	_, err := strconv.ParseFloat(value, 64)
	return err == nil
}

func isFreeText(header string) bool {
	switch strings.ToLower(header) {
	case "detail", "encoder output", "error":
		return true
	}
	return false
}
