package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/windevexpert/windevexpert/internal/domain/listing"
	"github.com/windevexpert/windevexpert/internal/domain/quote"
)

const quoteColumns = `"id", "customerName", "email", "phone", "company", "projectType", "budget", "description",
	"status", "proposal", "proposalAmount", "respondedAt", "createdAt", "updatedAt"`

var quoteFilter = filterSpec{Search: []string{"customerName", "email", "company"}, Status: "status", Category: "projectType"}

func (s *Store) ListQuotes(ctx context.Context, f listing.Filter) (listing.Page[quote.Quote], error) {
	f = f.Normalize()
	where, args := filterSQL(f, quoteFilter)

	var total int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM "Quote"`+where, args...).Scan(&total); err != nil {
		return listing.Page[quote.Quote]{}, fmt.Errorf("count quotes: %w", err)
	}

	limit, args := pageSQL(f, args)
	rows, err := s.pool.Query(ctx,
		`SELECT `+quoteColumns+` FROM "Quote"`+where+` ORDER BY "createdAt" DESC, "id" DESC`+limit, args...)
	if err != nil {
		return listing.Page[quote.Quote]{}, fmt.Errorf("list quotes: %w", err)
	}
	quotes, err := pgx.CollectRows(rows, pgx.RowToStructByName[quote.Quote])
	if err != nil {
		return listing.Page[quote.Quote]{}, fmt.Errorf("scan quotes: %w", err)
	}
	return listing.NewPage(quotes, total, f), nil
}

func (s *Store) GetQuote(ctx context.Context, id string) (*quote.Quote, error) {
	return s.getQuote(ctx, s.pool, id)
}

func (s *Store) getQuote(ctx context.Context, q querier, id string) (*quote.Quote, error) {
	rows, err := q.Query(ctx, `SELECT `+quoteColumns+` FROM "Quote" WHERE "id" = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("get quote %s: %w", id, err)
	}
	qt, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[quote.Quote])
	if err != nil {
		return nil, notFoundWrap(err, "get quote %s", id)
	}
	return &qt, nil
}

func (s *Store) CreateQuote(ctx context.Context, req quote.CreateRequest) (*quote.Quote, error) {
	q := quote.New(s.newID(), req, s.now())
	_, err := s.pool.Exec(ctx, `
		INSERT INTO "Quote" (`+quoteColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		q.ID, q.CustomerName, q.Email, q.Phone, q.Company, q.ProjectType, q.Budget, q.Description,
		q.Status, q.Proposal, q.ProposalAmount, q.RespondedAt, q.CreatedAt, q.UpdatedAt)
	if err != nil {
		return nil, writeWrap(err, "create quote")
	}
	return &q, nil
}

func (s *Store) UpdateQuote(ctx context.Context, id string, req quote.UpdateRequest) (*quote.Quote, error) {
	var updated *quote.Quote
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		q, err := s.getQuote(ctx, tx, id)
		if err != nil {
			return err
		}
		q.Apply(req, s.now())
		if q.RespondedAt != nil {
			at := q.RespondedAt.UTC().Truncate(time.Microsecond)
			q.RespondedAt = &at
		}

		tag, err := tx.Exec(ctx, `
			UPDATE "Quote" SET "customerName" = $2, "email" = $3, "phone" = $4, "company" = $5, "projectType" = $6,
				"budget" = $7, "description" = $8, "status" = $9, "proposal" = $10, "proposalAmount" = $11,
				"respondedAt" = $12, "updatedAt" = $13
			WHERE "id" = $1`,
			q.ID, q.CustomerName, q.Email, q.Phone, q.Company, q.ProjectType,
			q.Budget, q.Description, q.Status, q.Proposal, q.ProposalAmount,
			q.RespondedAt, q.UpdatedAt)
		if err != nil {
			return fmt.Errorf("update quote %s: %w", id, err)
		}
		updated = q
		return execExpectOne(tag, nil, "update quote %s", id)
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *Store) DeleteQuote(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM "Quote" WHERE "id" = $1`, id)
	return execExpectOne(tag, err, "delete quote %s", id)
}
