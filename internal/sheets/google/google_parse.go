package google

import (
	"fmt"
	"strconv"
	"strings"
)

// sheetRange addresses a whole worksheet. Titles are quoted so names with
// spaces or digits resolve as sheets, not A1 ranges.
func sheetRange(title string) string {
	return "'" + strings.ReplaceAll(title, "'", "''") + "'"
}

// toRows converts the API's values matrix to strings. Trailing empty cells are
// omitted by the API, so rows can be ragged.
func toRows(values [][]interface{}) [][]string {
	out := make([][]string, 0, len(values))
	for _, row := range values {
		out = append(out, toStrings(row))
	}
	return out
}

func toStrings(in []interface{}) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = cellString(v)
	}
	return out
}

// cellString renders an unformatted cell. Numbers arrive as float64 from the
// JSON decoder and are printed without exponent or trailing zeros.
func cellString(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		if x {
			return "TRUE"
		}
		return "FALSE"
	default:
		return strings.TrimSpace(fmt.Sprint(x))
	}
}
