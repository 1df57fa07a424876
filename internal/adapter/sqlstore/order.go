package sqlstore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/windevexpert/windevexpert/internal/domain/listing"
	"github.com/windevexpert/windevexpert/internal/domain/order"
)

const orderColumns = `"id", "orderNumber", "customerName", "email", "status", "total", "currency",
	"invoiceNumber", "createdAt", "updatedAt"`

const orderItemColumns = `"id", "orderId", "productId", "name", "quantity", "unitPrice"`

func orderFromRow(r row) order.Order {
	return order.Order{
		ID:            r.str("id"),
		OrderNumber:   r.str("orderNumber"),
		CustomerName:  r.str("customerName"),
		Email:         r.str("email"),
		Status:        order.Status(r.str("status")),
		Total:         r.float("total"),
		Currency:      r.str("currency"),
		InvoiceNumber: r.str("invoiceNumber"),
		Items:         []order.Item{},
		CreatedAt:     r.timestamp("createdAt"),
		UpdatedAt:     r.timestamp("updatedAt"),
	}
}

func itemFromRow(r row) order.Item {
	return order.Item{
		ID:        r.str("id"),
		OrderID:   r.str("orderId"),
		ProductID: r.str("productId"),
		Name:      r.str("name"),
		Quantity:  r.integer("quantity"),
		UnitPrice: r.float("unitPrice"),
	}
}

func (s *Store) ListOrders(ctx context.Context, f listing.Filter) (listing.Page[order.Order], error) {
	f = f.Normalize()
	cond, args := where(f, orderFilter, s.dialect)

	total, err := s.count(ctx, s.db, `SELECT COUNT(*) AS "n" FROM "Order"`+cond, args...)
	if err != nil {
		return listing.Page[order.Order]{}, fmt.Errorf("count orders: %w", err)
	}

	rows, err := s.query(ctx, s.db,
		`SELECT `+orderColumns+` FROM "Order"`+cond+` ORDER BY "createdAt" DESC, "id" DESC LIMIT ? OFFSET ?`,
		append(args, f.Limit, f.Offset())...)
	if err != nil {
		return listing.Page[order.Order]{}, fmt.Errorf("list orders: %w", err)
	}

	orders := make([]order.Order, 0, len(rows))
	for _, r := range rows {
		orders = append(orders, orderFromRow(r))
	}
	if err := s.attachItems(ctx, s.db, orders); err != nil {
		return listing.Page[order.Order]{}, err
	}
	return listing.NewPage(orders, total, f), nil
}

func (s *Store) GetOrder(ctx context.Context, id string) (*order.Order, error) {
	return s.getOrder(ctx, s.db, id)
}

func (s *Store) getOrder(ctx context.Context, q runner, id string) (*order.Order, error) {
	rows, err := s.query(ctx, q, `SELECT `+orderColumns+` FROM "Order" WHERE "id" = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("get order %s: %w", id, err)
	}
	if len(rows) == 0 {
		return nil, notFound("get order %s", id)
	}
	list := []order.Order{orderFromRow(rows[0])}
	if err := s.attachItems(ctx, q, list); err != nil {
		return nil, err
	}
	return &list[0], nil
}

// attachItems emulates the order/item join with a second query.
func (s *Store) attachItems(ctx context.Context, q runner, orders []order.Order) error {
	if len(orders) == 0 {
		return nil
	}
	ids := make([]string, len(orders))
	for i := range orders {
		ids[i] = orders[i].ID
	}
	in, args := inClause("orderId", ids)
	rows, err := s.query(ctx, q,
		`SELECT `+orderItemColumns+` FROM "OrderItem" WHERE `+in+` ORDER BY "orderId", "name", "id"`, args...)
	if err != nil {
		return fmt.Errorf("list order items: %w", err)
	}

	byOrder := make(map[string][]order.Item, len(orders))
	for _, r := range rows {
		it := itemFromRow(r)
		byOrder[it.OrderID] = append(byOrder[it.OrderID], it)
	}
	for i := range orders {
		if items, ok := byOrder[orders[i].ID]; ok {
			orders[i].Items = items
		}
	}
	return nil
}

func (s *Store) CreateOrder(ctx context.Context, req order.CreateRequest) (*order.Order, error) {
	o := order.New(s.newID(), req, s.now(), s.newID)

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := s.exec(ctx, tx, `
			INSERT INTO "Order" (`+orderColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			o.ID, o.OrderNumber, o.CustomerName, o.Email, string(o.Status), o.Total, o.Currency,
			o.InvoiceNumber, o.CreatedAt, o.UpdatedAt)
		if err != nil {
			return writeErr(err, "create order")
		}
		return s.insertItems(ctx, tx, o.Items)
	})
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (s *Store) UpdateOrder(ctx context.Context, id string, req order.UpdateRequest) (*order.Order, error) {
	var updated *order.Order
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		o, err := s.getOrder(ctx, tx, id)
		if err != nil {
			return err
		}
		replaced := o.Apply(req, s.now(), s.newID)

		res, err := s.exec(ctx, tx, `
			UPDATE "Order" SET "customerName" = ?, "email" = ?, "status" = ?, "total" = ?,
				"invoiceNumber" = ?, "updatedAt" = ?
			WHERE "id" = ?`,
			o.CustomerName, o.Email, string(o.Status), o.Total, o.InvoiceNumber, o.UpdatedAt,
			o.ID)
		if err := expectOne(res, err, "update order %s", id); err != nil {
			return err
		}

		if replaced {
			if _, err := s.exec(ctx, tx, `DELETE FROM "OrderItem" WHERE "orderId" = ?`, id); err != nil {
				return fmt.Errorf("delete items of %s: %w", id, err)
			}
			if err := s.insertItems(ctx, tx, o.Items); err != nil {
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
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := s.exec(ctx, tx, `DELETE FROM "OrderItem" WHERE "orderId" = ?`, id); err != nil {
			return fmt.Errorf("delete items of %s: %w", id, err)
		}
		res, err := s.exec(ctx, tx, `DELETE FROM "Order" WHERE "id" = ?`, id)
		return expectOne(res, err, "delete order %s", id)
	})
}

func (s *Store) insertItems(ctx context.Context, tx *sql.Tx, items []order.Item) error {
	for _, it := range items {
		_, err := s.exec(ctx, tx,
			`INSERT INTO "OrderItem" (`+orderItemColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
			it.ID, it.OrderID, it.ProductID, it.Name, it.Quantity, it.UnitPrice)
		if err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}
	}
	return nil
}
