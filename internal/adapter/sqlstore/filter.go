package sqlstore

import (
	"fmt"
	"strings"

	"github.com/windevexpert/windevexpert/internal/domain/listing"
)

// filterSpec names the columns a list query filters on.
type filterSpec struct {
	Search    []string
	Status    string
	StatusArg func(string) any
	Category  string
}

var (
	courseFilter  = filterSpec{Search: []string{"title", "description"}, Status: "status", Category: "category"}
	productFilter = filterSpec{Search: []string{"name", "description"}, Status: "status", Category: "category"}
	quoteFilter   = filterSpec{Search: []string{"customerName", "email", "company"}, Status: "status", Category: "projectType"}
	orderFilter   = filterSpec{Search: []string{"orderNumber", "customerName", "email"}, Status: "status"}
	userFilter    = filterSpec{
		Search:    []string{"email", "name"},
		Status:    "enabled",
		StatusArg: func(s string) any { return s == "enabled" },
		Category:  "role",
	}
)

// where builds the portable WHERE clause of a list query.
func where(f listing.Filter, spec filterSpec, d Dialect) (string, []any) {
	var conds []string
	var args []any

	if f.Search != "" && len(spec.Search) > 0 {
		ors := make([]string, len(spec.Search))
		for i, col := range spec.Search {
			ors[i] = d.lower(col) + ` LIKE ? ESCAPE '!'`
			args = append(args, f.SearchPattern())
		}
		conds = append(conds, "("+strings.Join(ors, " OR ")+")")
	}
	if f.Status != "" && spec.Status != "" {
		var v any = f.Status
		if spec.StatusArg != nil {
			v = spec.StatusArg(f.Status)
		}
		conds = append(conds, fmt.Sprintf(`%q = ?`, spec.Status))
		args = append(args, v)
	}
	if f.Category != "" && spec.Category != "" {
		conds = append(conds, fmt.Sprintf(`%q = ?`, spec.Category))
		args = append(args, f.Category)
	}

	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// inClause returns `"col" IN (?, ?)` and its arguments.
func inClause(col string, ids []string) (string, []any) {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return fmt.Sprintf(`%q IN (%s)`, col, placeholders(len(ids))), args
}
