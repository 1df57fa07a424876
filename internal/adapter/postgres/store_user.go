package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/windevexpert/windevexpert/internal/domain/listing"
	"github.com/windevexpert/windevexpert/internal/domain/user"
)

const userColumns = `"id", "email", "name", "passwordHash", "role", "enabled", "createdAt", "updatedAt"`

// userFilter maps status onto the enabled flag ("enabled" or "disabled")
// and category onto the role.
var userFilter = filterSpec{
	Search:    []string{"email", "name"},
	Status:    "enabled",
	StatusArg: func(s string) any { return s == "enabled" },
	Category:  "role",
}

func (s *Store) ListUsers(ctx context.Context, f listing.Filter) (listing.Page[user.User], error) {
	f = f.Normalize()
	where, args := filterSQL(f, userFilter)

	var total int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM "User"`+where, args...).Scan(&total); err != nil {
		return listing.Page[user.User]{}, fmt.Errorf("count users: %w", err)
	}

	limit, args := pageSQL(f, args)
	rows, err := s.pool.Query(ctx,
		`SELECT `+userColumns+` FROM "User"`+where+` ORDER BY "createdAt" DESC, "id" DESC`+limit, args...)
	if err != nil {
		return listing.Page[user.User]{}, fmt.Errorf("list users: %w", err)
	}
	users, err := pgx.CollectRows(rows, pgx.RowToStructByName[user.User])
	if err != nil {
		return listing.Page[user.User]{}, fmt.Errorf("scan users: %w", err)
	}
	return listing.NewPage(users, total, f), nil
}

func (s *Store) GetUser(ctx context.Context, id string) (*user.User, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+userColumns+` FROM "User" WHERE "id" = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("get user %s: %w", id, err)
	}
	u, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[user.User])
	if err != nil {
		return nil, notFoundWrap(err, "get user %s", id)
	}
	return &u, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*user.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	rows, err := s.pool.Query(ctx, `SELECT `+userColumns+` FROM "User" WHERE "email" = $1`, email)
	if err != nil {
		return nil, fmt.Errorf("get user by email %s: %w", email, err)
	}
	u, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[user.User])
	if err != nil {
		return nil, notFoundWrap(err, "get user by email %s", email)
	}
	return &u, nil
}

func (s *Store) CreateUser(ctx context.Context, u *user.User) error {
	if u.ID == "" {
		u.ID = s.newID()
	}
	now := s.now()
	u.CreatedAt = now
	u.UpdatedAt = now

	_, err := s.pool.Exec(ctx, `
		INSERT INTO "User" (`+userColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		u.ID, u.Email, u.Name, u.PasswordHash, u.Role, u.Enabled, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		return writeWrap(err, "create user")
	}
	return nil
}

func (s *Store) UpdateUser(ctx context.Context, u *user.User) error {
	u.UpdatedAt = s.now()
	tag, err := s.pool.Exec(ctx, `
		UPDATE "User" SET "name" = $2, "role" = $3, "enabled" = $4, "passwordHash" = $5, "updatedAt" = $6
		WHERE "id" = $1`,
		u.ID, u.Name, u.Role, u.Enabled, u.PasswordHash, u.UpdatedAt)
	return execExpectOne(tag, err, "update user %s", u.ID)
}

func (s *Store) DeleteUser(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM "User" WHERE "id" = $1`, id)
	return execExpectOne(tag, err, "delete user %s", id)
}
