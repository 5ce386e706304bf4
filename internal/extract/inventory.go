package extract

import (
	"regexp"
	"strings"
)

// InventoryItem is one row of an inventory pipe table.
type InventoryItem struct {
	Name    string `json:"name"`
	Variant string `json:"variant"`
	Stock   string `json:"stock"`
	Price   string `json:"price"`
	Status  string `json:"status"`
	Notes   string `json:"notes"`
}

// InventoryHeaderMarker identifies the header row of an inventory table.
const InventoryHeaderMarker = "| Item Name |"

// inventoryMinCells is the number of cells a row needs to become an item.
const inventoryMinCells = 6

type tableState int

const (
	tableSeeking tableState = iota
	tableInRows
)

// ParseInventory returns the rows of every inventory table in text.
//
// A line containing [InventoryHeaderMarker] starts a table; the separator row
// is skipped; pipe rows with at least six non-empty cells become items mapped
// positionally; a blank line ends the table. Other lines inside a table are
// ignored without ending it.
func ParseInventory(text string) []InventoryItem {
	items := []InventoryItem{}
	state := tableSeeking

	for _, line := range lines(text) {
		if strings.Contains(line, InventoryHeaderMarker) {
			state = tableInRows

			continue
		}

		if state != tableInRows {
			continue
		}

		switch {
		case strings.TrimSpace(line) == "":
			state = tableSeeking
		case isSeparatorRow(line):
		case strings.HasPrefix(line, "|"):
			cells := splitRow(line)
			if len(cells) < inventoryMinCells {
				continue
			}

			items = append(items, InventoryItem{
				Name:    strings.TrimSpace(strings.ReplaceAll(cells[0], "**", "")),
				Variant: cells[1],
				Stock:   cells[2],
				Price:   cells[3],
				Status:  cells[4],
				Notes:   cells[5],
			})
		}
	}

	return items
}

var separatorCellRe = regexp.MustCompile(`^:?-+:?$`)

// isSeparatorRow reports whether line is a delimiter row such as
// "| --- | :---: |", alignment colons included.
func isSeparatorRow(line string) bool {
	if !strings.HasPrefix(line, "|") {
		return false
	}

	cells := splitRow(line)
	if len(cells) == 0 {
		return false
	}

	for _, cell := range cells {
		if !separatorCellRe.MatchString(cell) {
			return false
		}
	}

	return true
}

// splitRow splits a pipe row into trimmed, non-empty cells.
func splitRow(line string) []string {
	var cells []string

	for _, cell := range strings.Split(line, "|") {
		cell = strings.TrimSpace(cell)
		if cell != "" {
			cells = append(cells, cell)
		}
	}

	return cells
}
