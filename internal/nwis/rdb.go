// In file: internal/nwis/rdb.go
package nwis

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strings"
)

// rdbFormatCell matches the column-definition row that follows an RDB header,
// e.g. "5s", "15s", "20d", "12n".
var rdbFormatCell = regexp.MustCompile(`^\d+[sdnSDN]$`)

// ParseRDB reads a USGS RDB (tab-delimited) document into a Frame.
//
// Layout: any number of '#' comment lines, one header row, one column-format
// row, then data rows. Trailing blank lines are ignored. A document with only
// comments yields an empty frame without columns.
func ParseRDB(r io.Reader) (*Frame, error) {
	scanner := bufio.NewScanner(r)
	// Site and water-use documents can carry very long rows.
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	var frame *Frame
	expectFormatRow := false
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.HasPrefix(line, "#") || strings.TrimSpace(line) == "" {
			continue
		}
		cells := strings.Split(line, "\t")

		if frame == nil {
			for i := range cells {
				cells[i] = strings.TrimSpace(cells[i])
			}
			frame = NewFrame(cells...)
			expectFormatRow = true
			continue
		}
		if expectFormatRow {
			expectFormatRow = false
			if isFormatRow(cells) {
				continue
			}
		}
		if len(cells) > len(frame.Columns) {
			return nil, fmt.Errorf("rdb line %d: %d cells for %d columns", lineNo, len(cells), len(frame.Columns))
		}
		frame.Append(cells)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read rdb document: %w", err)
	}
	if frame == nil {
		return NewFrame(), nil
	}
	return frame, nil
}

func isFormatRow(cells []string) bool {
	for _, c := range cells {
		if !rdbFormatCell.MatchString(strings.TrimSpace(c)) {
			return false
		}
	}
	return len(cells) > 0
}
