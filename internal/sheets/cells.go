package sheets

import (
	"fmt"
	"strconv"
	"strings"
)

// RenderCell formats a value the way a spreadsheet echoes it back: trimmed
// text, and numbers without exponent or trailing zeros.
func RenderCell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	default:
		return strings.TrimSpace(fmt.Sprint(x))
	}
}

// RenderRow applies RenderCell to every cell.
func RenderRow(row []any) []string {
	out := make([]string, len(row))
	for i, v := range row {
		out[i] = RenderCell(v)
	}
	return out
}
