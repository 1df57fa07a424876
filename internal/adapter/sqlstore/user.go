package sqlstore

import (
	"context"
	"fmt"
	"strings"

	"github.com/windevexpert/windevexpert/internal/domain/listing"
	"github.com/windevexpert/windevexpert/internal/domain/user"
)

const userColumns = `"id", "email", "name", "passwordHash", "role", "enabled", "createdAt", "updatedAt"`

func userFromRow(r row) user.User {
	return user.User{
		ID:           r.str("id"),
		Email:        r.str("email"),
		Name:         r.str("name"),
		PasswordHash: r.str("passwordHash"),
		Role:         user.Role(r.str("role")),
		Enabled:      r.boolean("enabled"),
		CreatedAt:    r.timestamp("createdAt"),
		UpdatedAt:    r.timestamp("updatedAt"),
	}
}

func (s *Store) ListUsers(ctx context.Context, f listing.Filter) (listing.Page[user.User], error) {
	f = f.Normalize()
	cond, args := where(f, userFilter, s.dialect)

	total, err := s.count(ctx, s.db, `SELECT COUNT(*) AS "n" FROM "User"`+cond, args...)
	if err != nil {
		return listing.Page[user.User]{}, fmt.Errorf("count users: %w", err)
	}

	rows, err := s.query(ctx, s.db,
		`SELECT `+userColumns+` FROM "User"`+cond+` ORDER BY "createdAt" DESC, "id" DESC LIMIT ? OFFSET ?`,
		append(args, f.Limit, f.Offset())...)
	if err != nil {
		return listing.Page[user.User]{}, fmt.Errorf("list users: %w", err)
	}

	users := make([]user.User, 0, len(rows))
	for _, r := range rows {
		users = append(users, userFromRow(r))
	}
	return listing.NewPage(users, total, f), nil
}

func (s *Store) getUserBy(ctx context.Context, col, val string) (*user.User, error) {
	rows, err := s.query(ctx, s.db, `SELECT `+userColumns+` FROM "User" WHERE `+fmt.Sprintf("%q", col)+` = ?`, val)
	if err != nil {
		return nil, fmt.Errorf("get user by %s %s: %w", col, val, err)
	}
	if len(rows) == 0 {
		return nil, notFound("get user by %s %s", col, val)
	}
	u := userFromRow(rows[0])
	return &u, nil
}

func (s *Store) GetUser(ctx context.Context, id string) (*user.User, error) {
	return s.getUserBy(ctx, "id", id)
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*user.User, error) {
	return s.getUserBy(ctx, "email", strings.ToLower(strings.TrimSpace(email)))
}

func (s *Store) CreateUser(ctx context.Context, u *user.User) error {
	if u.ID == "" {
		u.ID = s.newID()
	}
	now := s.now()
	u.CreatedAt = now
	u.UpdatedAt = now

	_, err := s.exec(ctx, s.db, `
		INSERT INTO "User" (`+userColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Email, u.Name, u.PasswordHash, string(u.Role), u.Enabled, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		return writeErr(err, "create user")
	}
	return nil
}

func (s *Store) UpdateUser(ctx context.Context, u *user.User) error {
	u.UpdatedAt = s.now()
	res, err := s.exec(ctx, s.db, `
		UPDATE "User" SET "name" = ?, "role" = ?, "enabled" = ?, "passwordHash" = ?, "updatedAt" = ?
		WHERE "id" = ?`,
		u.Name, string(u.Role), u.Enabled, u.PasswordHash, u.UpdatedAt, u.ID)
	return expectOne(res, err, "update user %s", u.ID)
}

func (s *Store) DeleteUser(ctx context.Context, id string) error {
	res, err := s.exec(ctx, s.db, `DELETE FROM "User" WHERE "id" = ?`, id)
	return expectOne(res, err, "delete user %s", id)
}
