package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/windevexpert/windevexpert/internal/domain/listing"
	"github.com/windevexpert/windevexpert/internal/domain/order"
)

const orderColumns = `"id", "orderNumber", "customerName", "email", "status", "total", "currency",
	"invoiceNumber", "createdAt", "updatedAt"`

const orderItemColumns = `"id", "orderId", "productId", "name", "quantity", "unitPrice"`

var orderFilter = filterSpec{Search: []string{"orderNumber", "customerName", "email"}, Status: "status"}

func (s *Store) ListOrders(ctx context.Context, f listing.Filter) (listing.Page[order.Order], error) {
	f = f.Normalize()
	where, args := filterSQL(f, orderFilter)

	var total int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM "Order"`+where, args...).Scan(&total); err != nil {
		return listing.Page[order.Order]{}, fmt.Errorf("count orders: %w", err)
	}

	limit, args := pageSQL(f, args)
	rows, err := s.pool.Query(ctx,
		`SELECT `+orderColumns+` FROM "Order"`+where+` ORDER BY "createdAt" DESC, "id" DESC`+limit, args...)
	if err != nil {
		return listing.Page[order.Order]{}, fmt.Errorf("list orders: %w", err)
	}
	orders, err := pgx.CollectRows(rows, pgx.RowToStructByName[order.Order])
	if err != nil {
		return listing.Page[order.Order]{}, fmt.Errorf("scan orders: %w", err)
	}
	if err := attachItems(ctx, s.pool, orders); err != nil {
		return listing.Page[order.Order]{}, err
	}
	return listing.NewPage(orders, total, f), nil
}

func (s *Store) GetOrder(ctx context.Context, id string) (*order.Order, error) {
	return s.getOrder(ctx, s.pool, id)
}

func (s *Store) getOrder(ctx context.Context, q querier, id string) (*order.Order, error) {
	rows, err := q.Query(ctx, `SELECT `+orderColumns+` FROM "Order" WHERE "id" = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("get order %s: %w", id, err)
	}
	o, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[order.Order])
	if err != nil {
		return nil, notFoundWrap(err, "get order %s", id)
	}
	list := []order.Order{o}
	if err := attachItems(ctx, q, list); err != nil {
		return nil, err
	}
	return &list[0], nil
}

// attachItems loads the items of every order with one query.
func attachItems(ctx context.Context, q querier, orders []order.Order) error {
	if len(orders) == 0 {
		return nil
	}
	ids := make([]string, len(orders))
	for i := range orders {
		ids[i] = orders[i].ID
	}

	rows, err := q.Query(ctx,
		`SELECT `+orderItemColumns+` FROM "OrderItem" WHERE "orderId" = ANY($1) ORDER BY "orderId", "name", "id"`, ids)
	if err != nil {
		return fmt.Errorf("list order items: %w", err)
	}
	items, err := pgx.CollectRows(rows, pgx.RowToStructByName[order.Item])
	if err != nil {
		return fmt.Errorf("scan order items: %w", err)
	}

	byOrder := make(map[string][]order.Item, len(orders))
	for _, it := range items {
		byOrder[it.OrderID] = append(byOrder[it.OrderID], it)
	}
	for i := range orders {
		orders[i].Items = orEmpty(byOrder[orders[i].ID])
	}
	return nil
}

func (s *Store) CreateOrder(ctx context.Context, req order.CreateRequest) (*order.Order, error) {
	o := order.New(s.newID(), req, s.now(), s.newID)

	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO "Order" (`+orderColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			o.ID, o.OrderNumber, o.CustomerName, o.Email, o.Status, o.Total, o.Currency,
			o.InvoiceNumber, o.CreatedAt, o.UpdatedAt)
		if err != nil {
			return writeWrap(err, "create order")
		}
		return insertItems(ctx, tx, o.Items)
	})
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (s *Store) UpdateOrder(ctx context.Context, id string, req order.UpdateRequest) (*order.Order, error) {
	var updated *order.Order
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		o, err := s.getOrder(ctx, tx, id)
		if err != nil {
			return err
		}
		replaced := o.Apply(req, s.now(), s.newID)

		tag, err := tx.Exec(ctx, `
			UPDATE "Order" SET "customerName" = $2, "email" = $3, "status" = $4, "total" = $5,
				"invoiceNumber" = $6, "updatedAt" = $7
			WHERE "id" = $1`,
			o.ID, o.CustomerName, o.Email, o.Status, o.Total, o.InvoiceNumber, o.UpdatedAt)
		if err := execExpectOne(tag, err, "update order %s", id); err != nil {
			return err
		}

		if replaced {
			if _, err := tx.Exec(ctx, `DELETE FROM "OrderItem" WHERE "orderId" = $1`, id); err != nil {
				return fmt.Errorf("delete items of %s: %w", id, err)
			}
			if err := insertItems(ctx, tx, o.Items); err != nil {
				return err
			}
		}
		updated = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *Store) DeleteOrder(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM "Order" WHERE "id" = $1`, id)
	return execExpectOne(tag, err, "delete order %s", id)
}

func insertItems(ctx context.Context, tx pgx.Tx, items []order.Item) error {
	if len(items) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, it := range items {
		batch.Queue(`INSERT INTO "OrderItem" (`+orderItemColumns+`) VALUES ($1, $2, $3, $4, $5, $6)`,
			it.ID, it.OrderID, it.ProductID, it.Name, it.Quantity, it.UnitPrice)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert order items: %w", err)
	}
	return nil
}
