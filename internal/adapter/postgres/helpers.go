package postgres

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/windevexpert/windevexpert/internal/domain"
	"github.com/windevexpert/windevexpert/internal/domain/listing"
)

// orEmpty returns items unchanged if non-nil, or an empty slice if nil.
// Useful to ensure JSON serialization produces [] instead of null.
func orEmpty[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}

// notFoundWrap checks whether err is pgx.ErrNoRows and, if so, wraps
// domain.ErrNotFound with the given message. Otherwise it wraps the
// original error.
func notFoundWrap(err error, format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", msg, domain.ErrNotFound)
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// writeWrap maps unique violations to domain.ErrConflict.
func writeWrap(err error, format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return fmt.Errorf("%s: %w", msg, domain.ErrConflict)
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// execExpectOne verifies that an Exec affected exactly one row. If not
// (and err is nil), it returns domain.ErrNotFound with the given message.
func execExpectOne(tag pgconn.CommandTag, err error, format string, args ...any) error {
	if err != nil {
		return fmt.Errorf(fmt.Sprintf(format, args...)+": %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf(fmt.Sprintf(format, args...)+": %w", domain.ErrNotFound)
	}
	return nil
}

// filterSpec names the columns a list query filters on. An empty
// Category disables the category filter; StatusArg converts the raw status
// value when the column is not textual.
type filterSpec struct {
	Search    []string
	Status    string
	StatusArg func(string) any
	Category  string
}

// filterSQL builds the WHERE clause of a list query.
func filterSQL(f listing.Filter, spec filterSpec) (string, []any) {
	var conds []string
	var args []any

	if f.Search != "" && len(spec.Search) > 0 {
		args = append(args, f.SearchPattern())
		ors := make([]string, len(spec.Search))
		for i, col := range spec.Search {
			ors[i] = fmt.Sprintf(`LOWER(%q) LIKE $%d ESCAPE '!'`, col, len(args))
		}
		conds = append(conds, "("+strings.Join(ors, " OR ")+")")
	}
	if f.Status != "" && spec.Status != "" {
		var v any = f.Status
		if spec.StatusArg != nil {
			v = spec.StatusArg(f.Status)
		}
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(`%q = $%d`, spec.Status, len(args)))
	}
	if f.Category != "" && spec.Category != "" {
		args = append(args, f.Category)
		conds = append(conds, fmt.Sprintf(`%q = $%d`, spec.Category, len(args)))
	}

	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// pageSQL appends LIMIT/OFFSET placeholders after the filter arguments.
func pageSQL(f listing.Filter, args []any) (string, []any) {
	args = append(args, f.Limit, f.Offset())
	return fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args)), args
}
