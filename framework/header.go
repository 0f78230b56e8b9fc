package framework

import (
	"regexp"
	"strings"
)

// Default scan window of LocateHeader.
const (
	DefaultHeaderScanRows = 30
	DefaultHeaderScanCols = 80
)

var numericCell = regexp.MustCompile(`^[-+]?\d+(\.\d+)?$`)

// LocateHeader returns the 1-based row within the scan window that looks most
// like a header: the most populated cells, then the most non-numeric ones.
// The first row with the best score wins. Row 1 is returned when the window
// is entirely blank.
func LocateHeader(grid [][]Value, scanRows, scanCols int) int {
	if scanRows <= 0 {
		scanRows = DefaultHeaderScanRows
	}
	if scanCols <= 0 {
		scanCols = DefaultHeaderScanCols
	}
	best := 1
	bestFilled, bestLabels := -1, -1
	for r := 0; r < len(grid) && r < scanRows; r++ {
		row := grid[r]
		if len(row) > scanCols {
			row = row[:scanCols]
		}
		filled, labels := 0, 0
		for _, cell := range row {
			s := strings.TrimSpace(cell.String())
			if s == "" {
				continue
			}
			filled++
			if !numericCell.MatchString(s) {
				labels++
			}
		}
		if filled == 0 {
			continue
		}
		if filled > bestFilled || (filled == bestFilled && labels > bestLabels) {
			best, bestFilled, bestLabels = r+1, filled, labels
		}
	}
	return best
}
