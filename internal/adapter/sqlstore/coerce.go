package sqlstore

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// row is one result row keyed by column name. Drivers disagree on the Go
// type of each value (MySQL returns []byte for DECIMAL and JSON, SQLite
// int64 for booleans, pgx/stdlib string for NUMERIC), so every read goes
// through a coercion helper.
type row map[string]any

func (r row) str(col string) string { return toString(r[col]) }

func (r row) integer(col string) int {
	n, _ := toInt(r[col])
	return n
}

func (r row) float(col string) float64 {
	f, _ := toFloat(r[col])
	return f
}

func (r row) nullFloat(col string) *float64 {
	if r[col] == nil {
		return nil
	}
	f, err := toFloat(r[col])
	if err != nil {
		return nil
	}
	return &f
}

func (r row) boolean(col string) bool { return toBool(r[col]) }

func (r row) timestamp(col string) time.Time {
	t, _ := toTime(r[col])
	return t
}

func (r row) nullTimestamp(col string) *time.Time {
	if r[col] == nil {
		return nil
	}
	t, err := toTime(r[col])
	if err != nil {
		return nil
	}
	return &t
}

func (r row) list(col string) []string {
	out, _ := toStrings(r[col])
	return out
}

func toString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return string(x)
	case time.Time:
		return x.UTC().Format(time.RFC3339Nano)
	default:
		return fmt.Sprint(x)
	}
}

func toInt(v any) (int, error) {
	switch x := v.(type) {
	case nil:
		return 0, nil
	case int64:
		return int(x), nil
	case int32:
		return int(x), nil
	case int:
		return x, nil
	case float64:
		return int(x), nil
	case bool:
		if x {
			return 1, nil
		}
		return 0, nil
	case []byte, string:
		return strconv.Atoi(strings.TrimSpace(toString(x)))
	}
	return 0, fmt.Errorf("cannot convert %T to int", v)
}

func toFloat(v any) (float64, error) {
	switch x := v.(type) {
	case nil:
		return 0, nil
	case float64:
		return x, nil
	case float32:
		return float64(x), nil
	case int64:
		return float64(x), nil
	case int:
		return float64(x), nil
	case []byte, string:
		return strconv.ParseFloat(strings.TrimSpace(toString(x)), 64)
	}
	return 0, fmt.Errorf("cannot convert %T to float", v)
}

func toBool(v any) bool {
	switch x := v.(type) {
	case bool:
		return x
	case int64:
		return x != 0
	case int:
		return x != 0
	case float64:
		return x != 0
	case []byte, string:
		switch strings.ToLower(strings.TrimSpace(toString(x))) {
		case "1", "t", "true", "y", "yes":
			return true
		}
	}
	return false
}

// timeLayouts are the textual timestamp formats produced by the supported
// drivers when a value is not returned as time.Time.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02",
}

func toTime(v any) (time.Time, error) {
	switch x := v.(type) {
	case nil:
		return time.Time{}, nil
	case time.Time:
		return x.UTC(), nil
	case int64:
		return time.Unix(x, 0).UTC(), nil
	case []byte, string:
		s := strings.TrimSpace(toString(x))
		for _, layout := range timeLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t.UTC(), nil
			}
		}
		return time.Time{}, fmt.Errorf("cannot parse time %q", s)
	}
	return time.Time{}, fmt.Errorf("cannot convert %T to time", v)
}

// toStrings parses a JSON array column. NULL and empty values give an empty
// slice.
func toStrings(v any) ([]string, error) {
	s := strings.TrimSpace(toString(v))
	if s == "" || s == "null" {
		return []string{}, nil
	}
	var out []string
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return []string{}, fmt.Errorf("parse json array: %w", err)
	}
	if out == nil {
		out = []string{}
	}
	return out, nil
}

// jsonArray renders a string slice for a JSON/TEXT column.
func jsonArray(in []string) string {
	if len(in) == 0 {
		return "[]"
	}
	b, err := json.Marshal(in)
	if err != nil {
		return "[]"
	}
	return string(b)
}
