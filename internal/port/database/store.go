// Package database defines the repository ports (interfaces) of the
// back-office entities. Every backend implements all of them.
package database

import (
	"context"

	"github.com/windevexpert/windevexpert/internal/domain/course"
	"github.com/windevexpert/windevexpert/internal/domain/listing"
	"github.com/windevexpert/windevexpert/internal/domain/order"
	"github.com/windevexpert/windevexpert/internal/domain/product"
	"github.com/windevexpert/windevexpert/internal/domain/quote"
	"github.com/windevexpert/windevexpert/internal/domain/user"
)

// CourseRepository stores courses with their lessons.
type CourseRepository interface {
	ListCourses(ctx context.Context, f listing.Filter) (listing.Page[course.Course], error)
	GetCourse(ctx context.Context, id string) (*course.Course, error)
	CreateCourse(ctx context.Context, req course.CreateRequest) (*course.Course, error)
	UpdateCourse(ctx context.Context, id string, req course.UpdateRequest) (*course.Course, error)
	DeleteCourse(ctx context.Context, id string) error
}

// ProductRepository stores shop products.
type ProductRepository interface {
	ListProducts(ctx context.Context, f listing.Filter) (listing.Page[product.Product], error)
	GetProduct(ctx context.Context, id string) (*product.Product, error)
	CreateProduct(ctx context.Context, req product.CreateRequest) (*product.Product, error)
	UpdateProduct(ctx context.Context, id string, req product.UpdateRequest) (*product.Product, error)
	DeleteProduct(ctx context.Context, id string) error
}

// QuoteRepository stores quote requests. The category filter matches the
// project type.
type QuoteRepository interface {
	ListQuotes(ctx context.Context, f listing.Filter) (listing.Page[quote.Quote], error)
	GetQuote(ctx context.Context, id string) (*quote.Quote, error)
	CreateQuote(ctx context.Context, req quote.CreateRequest) (*quote.Quote, error)
	UpdateQuote(ctx context.Context, id string, req quote.UpdateRequest) (*quote.Quote, error)
	DeleteQuote(ctx context.Context, id string) error
}

// OrderRepository stores orders with their items.
type OrderRepository interface {
	ListOrders(ctx context.Context, f listing.Filter) (listing.Page[order.Order], error)
	GetOrder(ctx context.Context, id string) (*order.Order, error)
	CreateOrder(ctx context.Context, req order.CreateRequest) (*order.Order, error)
	UpdateOrder(ctx context.Context, id string, req order.UpdateRequest) (*order.Order, error)
	DeleteOrder(ctx context.Context, id string) error
}

// UserRepository stores accounts. Passwords arrive already hashed; the
// category filter matches the role.
type UserRepository interface {
	ListUsers(ctx context.Context, f listing.Filter) (listing.Page[user.User], error)
	GetUser(ctx context.Context, id string) (*user.User, error)
	GetUserByEmail(ctx context.Context, email string) (*user.User, error)
	CreateUser(ctx context.Context, u *user.User) error
	UpdateUser(ctx context.Context, u *user.User) error
	DeleteUser(ctx context.Context, id string) error
}

// Store aggregates every repository of one backend.
type Store interface {
	CourseRepository
	ProductRepository
	QuoteRepository
	OrderRepository
	UserRepository

	// Backend names the data path in use: "primary" or "fallback".
	Backend() string
	Ping(ctx context.Context) error
	Close()
}
