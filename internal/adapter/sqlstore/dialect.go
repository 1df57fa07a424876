package sqlstore

import (
	"database/sql/driver"
	"fmt"
	"strconv"
	"strings"

	"modernc.org/sqlite"
)

// SQLite's built-in LOWER folds ASCII only; fold lowercases every letter so
// searches match the same rows as on PostgreSQL and MySQL.
func init() {
	sqlite.MustRegisterDeterministicScalarFunction("fold", 1, fold)
}

func fold(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	switch v := args[0].(type) {
	case string:
		return strings.ToLower(v), nil
	case []byte:
		return strings.ToLower(string(v)), nil
	default:
		return v, nil
	}
}

// Dialect rewrites the portable query text used by this package (double
// quoted identifiers, ? placeholders) for a concrete engine.
type Dialect string

const (
	Postgres Dialect = "postgres"
	MySQL    Dialect = "mysql"
	SQLite   Dialect = "sqlite"
)

// Valid reports whether d is supported.
func (d Dialect) Valid() bool {
	return d == Postgres || d == MySQL || d == SQLite
}

// Rebind converts placeholders to $n for PostgreSQL and identifier quotes to
// backticks for MySQL. String literals in queries must not contain ? or ".
func (d Dialect) Rebind(query string) string {
	switch d {
	case Postgres:
		var b strings.Builder
		b.Grow(len(query) + 8)
		n := 0
		for i := 0; i < len(query); i++ {
			if query[i] == '?' {
				n++
				b.WriteByte('$')
				b.WriteString(strconv.Itoa(n))
				continue
			}
			b.WriteByte(query[i])
		}
		return b.String()
	case MySQL:
		return strings.ReplaceAll(query, `"`, "`")
	default:
		return query
	}
}

// lower returns the case folding expression for col.
func (d Dialect) lower(col string) string {
	if d == SQLite {
		return fmt.Sprintf(`fold(%q)`, col)
	}
	return fmt.Sprintf(`LOWER(%q)`, col)
}

// placeholders returns "?, ?, ?" for n arguments.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
