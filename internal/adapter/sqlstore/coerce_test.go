package sqlstore

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestRowCoercion(t *testing.T) {
	r := row{
		"mysqlDecimal": []byte("19.90"),
		"pgNumeric":    "42.5",
		"sqliteBool":   int64(1),
		"mysqlBool":    []byte("0"),
		"intText":      []byte(" 7 "),
		"jsonBytes":    []byte(`["a","b"]`),
		"jsonEmpty":    "",
		"jsonNull":     nil,
		"textTime":     "2026-03-01 09:00:00.5+00:00",
		"nativeTime":   time.Date(2026, 3, 1, 10, 0, 0, 0, time.FixedZone("CET", 3600)),
	}

	if got := r.float("mysqlDecimal"); got != 19.9 {
		t.Errorf("mysqlDecimal = %v", got)
	}
	if got := r.float("pgNumeric"); got != 42.5 {
		t.Errorf("pgNumeric = %v", got)
	}
	if !r.boolean("sqliteBool") || r.boolean("mysqlBool") {
		t.Error("bool coercion failed")
	}
	if got := r.integer("intText"); got != 7 {
		t.Errorf("intText = %d", got)
	}
	if diff := cmp.Diff([]string{"a", "b"}, r.list("jsonBytes")); diff != "" {
		t.Errorf("jsonBytes (-want +got):\n%s", diff)
	}
	for _, col := range []string{"jsonEmpty", "jsonNull", "missing"} {
		if got := r.list(col); got == nil || len(got) != 0 {
			t.Errorf("%s = %#v, want empty slice", col, got)
		}
	}

	want := time.Date(2026, 3, 1, 9, 0, 0, 500_000_000, time.UTC)
	if got := r.timestamp("textTime"); !got.Equal(want) || got.Location() != time.UTC {
		t.Errorf("textTime = %v", got)
	}
	if got := r.timestamp("nativeTime"); got.Hour() != 9 || got.Location() != time.UTC {
		t.Errorf("nativeTime not normalized to UTC: %v", got)
	}

	if r.nullFloat("jsonNull") != nil || r.nullTimestamp("jsonNull") != nil {
		t.Error("NULL must stay nil")
	}
	if f := r.nullFloat("mysqlDecimal"); f == nil || *f != 19.9 {
		t.Errorf("nullFloat = %v", f)
	}
}

func TestToTimeRejectsGarbage(t *testing.T) {
	if _, err := toTime("hier"); err == nil {
		t.Error("expected parse error")
	}
	if _, err := toTime(3.5); err == nil {
		t.Error("expected type error")
	}
}

func TestJSONArray(t *testing.T) {
	tests := []struct {
		in   []string
		want string
	}{
		{nil, "[]"},
		{[]string{}, "[]"},
		{[]string{"é", `"q"`}, `["é","\"q\""]`},
	}
	for _, tt := range tests {
		if got := jsonArray(tt.in); got != tt.want {
			t.Errorf("jsonArray(%#v) = %s, want %s", tt.in, got, tt.want)
		}
	}
}
