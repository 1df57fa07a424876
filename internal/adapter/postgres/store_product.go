package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/windevexpert/windevexpert/internal/domain/listing"
	"github.com/windevexpert/windevexpert/internal/domain/product"
)

const productColumns = `"id", "name", "slug", "description", "price", "category", "status",
	"stock", "isDigital", "features", "createdAt", "updatedAt"`

var productFilter = filterSpec{Search: []string{"name", "description"}, Status: "status", Category: "category"}

func (s *Store) ListProducts(ctx context.Context, f listing.Filter) (listing.Page[product.Product], error) {
	f = f.Normalize()
	where, args := filterSQL(f, productFilter)

	var total int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM "Product"`+where, args...).Scan(&total); err != nil {
		return listing.Page[product.Product]{}, fmt.Errorf("count products: %w", err)
	}

	limit, args := pageSQL(f, args)
	rows, err := s.pool.Query(ctx,
		`SELECT `+productColumns+` FROM "Product"`+where+` ORDER BY "createdAt" DESC, "id" DESC`+limit, args...)
	if err != nil {
		return listing.Page[product.Product]{}, fmt.Errorf("list products: %w", err)
	}
	products, err := pgx.CollectRows(rows, pgx.RowToStructByName[product.Product])
	if err != nil {
		return listing.Page[product.Product]{}, fmt.Errorf("scan products: %w", err)
	}
	for i := range products {
		products[i].Features = orEmpty(products[i].Features)
	}
	return listing.NewPage(products, total, f), nil
}

func (s *Store) GetProduct(ctx context.Context, id string) (*product.Product, error) {
	return s.getProduct(ctx, s.pool, id)
}

func (s *Store) getProduct(ctx context.Context, q querier, id string) (*product.Product, error) {
	rows, err := q.Query(ctx, `SELECT `+productColumns+` FROM "Product" WHERE "id" = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("get product %s: %w", id, err)
	}
	p, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[product.Product])
	if err != nil {
		return nil, notFoundWrap(err, "get product %s", id)
	}
	p.Features = orEmpty(p.Features)
	return &p, nil
}

func (s *Store) CreateProduct(ctx context.Context, req product.CreateRequest) (*product.Product, error) {
	p := product.New(s.newID(), req, s.now())
	p.Features = orEmpty(p.Features)
	_, err := s.pool.Exec(ctx, `
		INSERT INTO "Product" (`+productColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		p.ID, p.Name, p.Slug, p.Description, p.Price, p.Category, p.Status,
		p.Stock, p.IsDigital, p.Features, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return nil, writeWrap(err, "create product")
	}
	return &p, nil
}

func (s *Store) UpdateProduct(ctx context.Context, id string, req product.UpdateRequest) (*product.Product, error) {
	var updated *product.Product
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		p, err := s.getProduct(ctx, tx, id)
		if err != nil {
			return err
		}
		p.Apply(req, s.now())
		p.Features = orEmpty(p.Features)

		tag, err := tx.Exec(ctx, `
			UPDATE "Product" SET "name" = $2, "slug" = $3, "description" = $4, "price" = $5, "category" = $6,
				"status" = $7, "stock" = $8, "isDigital" = $9, "features" = $10, "updatedAt" = $11
			WHERE "id" = $1`,
			p.ID, p.Name, p.Slug, p.Description, p.Price, p.Category,
			p.Status, p.Stock, p.IsDigital, p.Features, p.UpdatedAt)
		if err != nil {
			return writeWrap(err, "update product %s", id)
		}
		updated = p
		return execExpectOne(tag, nil, "update product %s", id)
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *Store) DeleteProduct(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM "Product" WHERE "id" = $1`, id)
	return execExpectOne(tag, err, "delete product %s", id)
}
