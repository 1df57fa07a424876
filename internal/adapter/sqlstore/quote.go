package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/windevexpert/windevexpert/internal/domain/listing"
	"github.com/windevexpert/windevexpert/internal/domain/quote"
)

const quoteColumns = `"id", "customerName", "email", "phone", "company", "projectType", "budget", "description",
	"status", "proposal", "proposalAmount", "respondedAt", "createdAt", "updatedAt"`

func quoteFromRow(r row) quote.Quote {
	return quote.Quote{
		ID:             r.str("id"),
		CustomerName:   r.str("customerName"),
		Email:          r.str("email"),
		Phone:          r.str("phone"),
		Company:        r.str("company"),
		ProjectType:    r.str("projectType"),
		Budget:         r.str("budget"),
		Description:    r.str("description"),
		Status:         quote.Status(r.str("status")),
		Proposal:       r.str("proposal"),
		ProposalAmount: r.nullFloat("proposalAmount"),
		RespondedAt:    r.nullTimestamp("respondedAt"),
		CreatedAt:      r.timestamp("createdAt"),
		UpdatedAt:      r.timestamp("updatedAt"),
	}
}

func (s *Store) ListQuotes(ctx context.Context, f listing.Filter) (listing.Page[quote.Quote], error) {
	f = f.Normalize()
	cond, args := where(f, quoteFilter, s.dialect)

	total, err := s.count(ctx, s.db, `SELECT COUNT(*) AS "n" FROM "Quote"`+cond, args...)
	if err != nil {
		return listing.Page[quote.Quote]{}, fmt.Errorf("count quotes: %w", err)
	}

	rows, err := s.query(ctx, s.db,
		`SELECT `+quoteColumns+` FROM "Quote"`+cond+` ORDER BY "createdAt" DESC, "id" DESC LIMIT ? OFFSET ?`,
		append(args, f.Limit, f.Offset())...)
	if err != nil {
		return listing.Page[quote.Quote]{}, fmt.Errorf("list quotes: %w", err)
	}

	quotes := make([]quote.Quote, 0, len(rows))
	for _, r := range rows {
		quotes = append(quotes, quoteFromRow(r))
	}
	return listing.NewPage(quotes, total, f), nil
}

func (s *Store) GetQuote(ctx context.Context, id string) (*quote.Quote, error) {
	return s.getQuote(ctx, s.db, id)
}

func (s *Store) getQuote(ctx context.Context, q runner, id string) (*quote.Quote, error) {
	rows, err := s.query(ctx, q, `SELECT `+quoteColumns+` FROM "Quote" WHERE "id" = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("get quote %s: %w", id, err)
	}
	if len(rows) == 0 {
		return nil, notFound("get quote %s", id)
	}
	qt := quoteFromRow(rows[0])
	return &qt, nil
}

func (s *Store) CreateQuote(ctx context.Context, req quote.CreateRequest) (*quote.Quote, error) {
	q := quote.New(s.newID(), req, s.now())
	_, err := s.exec(ctx, s.db, `
		INSERT INTO "Quote" (`+quoteColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		q.ID, q.CustomerName, q.Email, q.Phone, q.Company, q.ProjectType, q.Budget, q.Description,
		string(q.Status), q.Proposal, q.ProposalAmount, q.RespondedAt, q.CreatedAt, q.UpdatedAt)
	if err != nil {
		return nil, writeErr(err, "create quote")
	}
	return &q, nil
}

func (s *Store) UpdateQuote(ctx context.Context, id string, req quote.UpdateRequest) (*quote.Quote, error) {
	var updated *quote.Quote
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		q, err := s.getQuote(ctx, tx, id)
		if err != nil {
			return err
		}
		q.Apply(req, s.now())
		if q.RespondedAt != nil {
			at := q.RespondedAt.UTC().Truncate(time.Microsecond)
			q.RespondedAt = &at
		}

		res, err := s.exec(ctx, tx, `
			UPDATE "Quote" SET "customerName" = ?, "email" = ?, "phone" = ?, "company" = ?, "projectType" = ?,
				"budget" = ?, "description" = ?, "status" = ?, "proposal" = ?, "proposalAmount" = ?,
				"respondedAt" = ?, "updatedAt" = ?
			WHERE "id" = ?`,
			q.CustomerName, q.Email, q.Phone, q.Company, q.ProjectType,
			q.Budget, q.Description, string(q.Status), q.Proposal, q.ProposalAmount,
			q.RespondedAt, q.UpdatedAt,
			q.ID)
		updated = q
		return expectOne(res, err, "update quote %s", id)
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *Store) DeleteQuote(ctx context.Context, id string) error {
	res, err := s.exec(ctx, s.db, `DELETE FROM "Quote" WHERE "id" = ?`, id)
	return expectOne(res, err, "delete quote %s", id)
}
