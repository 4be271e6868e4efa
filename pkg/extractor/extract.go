// Package extractor flattens tabular provider results into bounded string lists.
package extractor

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Column preference lists, consulted in order after an explicit preferred column.
var (
	QueryColumns = []string{"query", "title", "value"}
	TopicColumns = []string{"topic_title", "title", "topic_mid", "topic_type"}
)

var errNotScalar = errors.New("value is not a scalar")

// ExtractColumn returns up to limit string values from one column of t.
//
// The column is the first candidate that exists and whose values can all be
// coerced: preferred, then QueryColumns, then TopicColumns, then every other
// column in table order. Rows with a nil or missing value are skipped and row
// order is kept. The result is never nil.
func ExtractColumn(t *Table, preferred string, limit int) []string {
	if t.Empty() || len(t.Columns) == 0 || limit <= 0 {
		return []string{}
	}

	for _, col := range candidates(t, preferred) {
		values, err := columnValues(t, col, limit)
		if err != nil {
			continue
		}
		return values
	}
	return []string{}
}

// SelectColumn reports which column ExtractColumn would read from, or "" if
// none of the candidates yields usable values.
func SelectColumn(t *Table, preferred string) string {
	if t.Empty() {
		return ""
	}
	for _, col := range candidates(t, preferred) {
		if _, err := columnValues(t, col, len(t.Rows)); err == nil {
			return col
		}
	}
	return ""
}

func candidates(t *Table, preferred string) []string {
	seen := make(map[string]bool, len(t.Columns))
	out := make([]string, 0, len(t.Columns))
	add := func(col string) {
		if seen[col] || !t.HasColumn(col) {
			return
		}
		seen[col] = true
		out = append(out, col)
	}

	add(preferred)
	for _, col := range QueryColumns {
		add(col)
	}
	for _, col := range TopicColumns {
		add(col)
	}
	// Last resort: whatever the source exposes, in its own order. This can pick
	// an unrelated column (a type indicator, say) without any signal.
	for _, col := range t.Columns {
		add(col)
	}
	return out
}

func columnValues(t *Table, col string, limit int) (values []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			values, err = nil, fmt.Errorf("column %q: %v", col, r)
		}
	}()

	values = make([]string, 0, min(limit, len(t.Rows)))
	for _, row := range t.Rows {
		if len(values) >= limit {
			break
		}
		v, ok := row[col]
		if !ok || isNull(v) {
			continue
		}
		s, convErr := toString(v)
		if convErr != nil {
			return nil, fmt.Errorf("column %q: %w", col, convErr)
		}
		values = append(values, s)
	}
	return values, nil
}

func isNull(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case float64:
		return math.IsNaN(x)
	case float32:
		return math.IsNaN(float64(x))
	}
	return false
}

func toString(v any) (string, error) {
	switch x := v.(type) {
	case string:
		return clean(x), nil
	case *string:
		if x == nil {
			return "", errNotScalar
		}
		return clean(*x), nil
	case json.Number:
		return x.String(), nil
	case fmt.Stringer:
		return clean(x.String()), nil
	case bool:
		return strconv.FormatBool(x), nil
	case int:
		return strconv.Itoa(x), nil
	case int8:
		return strconv.FormatInt(int64(x), 10), nil
	case int16:
		return strconv.FormatInt(int64(x), 10), nil
	case int32:
		return strconv.FormatInt(int64(x), 10), nil
	case int64:
		return strconv.FormatInt(x, 10), nil
	case uint:
		return strconv.FormatUint(uint64(x), 10), nil
	case uint8:
		return strconv.FormatUint(uint64(x), 10), nil
	case uint16:
		return strconv.FormatUint(uint64(x), 10), nil
	case uint32:
		return strconv.FormatUint(uint64(x), 10), nil
	case uint64:
		return strconv.FormatUint(x, 10), nil
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32), nil
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), nil
	}
	return "", fmt.Errorf("%w: %T", errNotScalar, v)
}

// clean trims provider text and composes it to NFC.
func clean(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}
