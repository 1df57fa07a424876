package sqlstore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/windevexpert/windevexpert/internal/domain/listing"
	"github.com/windevexpert/windevexpert/internal/domain/product"
)

const productColumns = `"id", "name", "slug", "description", "price", "category", "status",
	"stock", "isDigital", "features", "createdAt", "updatedAt"`

func productFromRow(r row) product.Product {
	return product.Product{
		ID:          r.str("id"),
		Name:        r.str("name"),
		Slug:        r.str("slug"),
		Description: r.str("description"),
		Price:       r.float("price"),
		Category:    r.str("category"),
		Status:      product.Status(r.str("status")),
		Stock:       r.integer("stock"),
		IsDigital:   r.boolean("isDigital"),
		Features:    r.list("features"),
		CreatedAt:   r.timestamp("createdAt"),
		UpdatedAt:   r.timestamp("updatedAt"),
	}
}

func (s *Store) ListProducts(ctx context.Context, f listing.Filter) (listing.Page[product.Product], error) {
	f = f.Normalize()
	cond, args := where(f, productFilter, s.dialect)

	total, err := s.count(ctx, s.db, `SELECT COUNT(*) AS "n" FROM "Product"`+cond, args...)
	if err != nil {
		return listing.Page[product.Product]{}, fmt.Errorf("count products: %w", err)
	}

	rows, err := s.query(ctx, s.db,
		`SELECT `+productColumns+` FROM "Product"`+cond+` ORDER BY "createdAt" DESC, "id" DESC LIMIT ? OFFSET ?`,
		append(args, f.Limit, f.Offset())...)
	if err != nil {
		return listing.Page[product.Product]{}, fmt.Errorf("list products: %w", err)
	}

	products := make([]product.Product, 0, len(rows))
	for _, r := range rows {
		products = append(products, productFromRow(r))
	}
	return listing.NewPage(products, total, f), nil
}

func (s *Store) GetProduct(ctx context.Context, id string) (*product.Product, error) {
	return s.getProduct(ctx, s.db, id)
}

func (s *Store) getProduct(ctx context.Context, q runner, id string) (*product.Product, error) {
	rows, err := s.query(ctx, q, `SELECT `+productColumns+` FROM "Product" WHERE "id" = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("get product %s: %w", id, err)
	}
	if len(rows) == 0 {
		return nil, notFound("get product %s", id)
	}
	p := productFromRow(rows[0])
	return &p, nil
}

func (s *Store) CreateProduct(ctx context.Context, req product.CreateRequest) (*product.Product, error) {
	p := product.New(s.newID(), req, s.now())
	if p.Features == nil {
		p.Features = []string{}
	}
	_, err := s.exec(ctx, s.db, `
		INSERT INTO "Product" (`+productColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.Slug, p.Description, p.Price, p.Category, string(p.Status),
		p.Stock, p.IsDigital, jsonArray(p.Features), p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return nil, writeErr(err, "create product")
	}
	return &p, nil
}

func (s *Store) UpdateProduct(ctx context.Context, id string, req product.UpdateRequest) (*product.Product, error) {
	var updated *product.Product
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		p, err := s.getProduct(ctx, tx, id)
		if err != nil {
			return err
		}
		p.Apply(req, s.now())
		if p.Features == nil {
			p.Features = []string{}
		}

		res, err := s.exec(ctx, tx, `
			UPDATE "Product" SET "name" = ?, "slug" = ?, "description" = ?, "price" = ?, "category" = ?,
				"status" = ?, "stock" = ?, "isDigital" = ?, "features" = ?, "updatedAt" = ?
			WHERE "id" = ?`,
			p.Name, p.Slug, p.Description, p.Price, p.Category,
			string(p.Status), p.Stock, p.IsDigital, jsonArray(p.Features), p.UpdatedAt,
			p.ID)
		updated = p
		return expectOne(res, err, "update product %s", id)
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *Store) DeleteProduct(ctx context.Context, id string) error {
	res, err := s.exec(ctx, s.db, `DELETE FROM "Product" WHERE "id" = ?`, id)
	return expectOne(res, err, "delete product %s", id)
}
