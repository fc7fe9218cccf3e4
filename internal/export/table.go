package export

import (
	"encoding/json"
	"strconv"
)

// ParseTableGrid decodes the permissive JSON grid of a table block: an
// array of rows, each row an array of cells, each cell either a plain
// string, a number, or an object carrying a "value" key. Rows are padded to
// a rectangle. Malformed or empty payloads yield (nil, false) silently.
func ParseTableGrid(payload string) ([][]string, bool) {
	if payload == "" {
		return nil, false
	}

	var rows []json.RawMessage
	if err := json.Unmarshal([]byte(payload), &rows); err != nil {
		return nil, false
	}
	if len(rows) == 0 {
		return nil, false
	}

	grid := make([][]string, 0, len(rows))
	cols := 0
	for _, raw := range rows {
		var cells []json.RawMessage
		if err := json.Unmarshal(raw, &cells); err != nil {
			return nil, false
		}
		row := make([]string, 0, len(cells))
		for _, cell := range cells {
			row = append(row, parseCell(cell))
		}
		if len(row) > cols {
			cols = len(row)
		}
		grid = append(grid, row)
	}
	if cols == 0 {
		return nil, false
	}

	for i := range grid {
		for len(grid[i]) < cols {
			grid[i] = append(grid[i], "")
		}
	}
	return grid, true
}

func parseCell(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}

	var obj struct {
		Value json.RawMessage `json:"value"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil && obj.Value != nil {
		if err := json.Unmarshal(obj.Value, &s); err == nil {
			return s
		}
		var f float64
		if err := json.Unmarshal(obj.Value, &f); err == nil {
			return strconv.FormatFloat(f, 'f', -1, 64)
		}
	}

	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return ""
}
