package main

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// columnAlignment selects a column's text alignment for renderTable.
type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

// renderTable draws a rounded-border table with headers, row data, and
// per-column alignment (columns past len(aligns) default to left-aligned).
// Short rows are padded with empty cells.
func renderTable(headers []string, rows [][]string, aligns []columnAlignment) string {
	columnCount := len(headers)
	if columnCount == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(buildTableRow(headers, columnCount))
	for _, row := range rows {
		tw.AppendRow(buildTableRow(row, columnCount))
	}
	tw.SetColumnConfigs(buildColumnConfigs(columnCount, aligns))

	return tw.Render()
}

func buildTableRow(cells []string, columnCount int) table.Row {
	row := make(table.Row, columnCount)
	for i := 0; i < columnCount; i++ {
		if i < len(cells) {
			row[i] = cells[i]
		} else {
			row[i] = ""
		}
	}
	return row
}

func buildColumnConfigs(columnCount int, aligns []columnAlignment) []table.ColumnConfig {
	configs := make([]table.ColumnConfig, 0, columnCount)
	for i := 0; i < columnCount; i++ {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		configs = append(configs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
	}
	return configs
}
