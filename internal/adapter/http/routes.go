package http

import (
	"github.com/go-chi/chi/v5"

	"github.com/windevexpert/windevexpert/internal/middleware"
	"github.com/windevexpert/windevexpert/internal/port/cache"
)

// RouteOptions carries the guards applied to the route groups.
type RouteOptions struct {
	// AdminToken yields the back-office bearer token.
	AdminToken func() string
	// InstallLimiter rate-limits the installer endpoints when set.
	InstallLimiter *middleware.RateLimiter
	// Idempotency stores back-office responses replayed on a repeated
	// Idempotency-Key. Nil disables replay.
	Idempotency cache.Cache
}

// MountRoutes registers all API routes on the given chi router.
func MountRoutes(r chi.Router, h *Handlers, opts RouteOptions) {
	e := h.errs()
	if opts.AdminToken == nil {
		opts.AdminToken = middleware.StaticToken("")
	}

	r.Get("/health", h.Health)

	r.Route("/api/install", func(r chi.Router) {
		if opts.InstallLimiter != nil {
			r.Use(opts.InstallLimiter.Handler)
		}
		r.Use(middleware.IdentifyAdmin(opts.AdminToken))
		r.Post("/", h.HandleInstall)
		r.Post("/export", h.ExportConfig)
		r.Get("/status", h.InstallStatus)
	})

	r.Route("/api/nimda", func(r chi.Router) {
		r.Use(middleware.AdminAuth(opts.AdminToken, h.Env))
		if opts.Idempotency != nil {
			r.Use(middleware.Idempotency(opts.Idempotency, middleware.IdempotencyTTL))
		}

		// Courses
		r.Get("/courses", handleList(e, "courses", h.Admin.ListCourses))
		r.Post("/courses", handleCreate(e, h.Admin.CreateCourse))
		r.Get("/courses/{id}", handleGet(e, h.Admin.GetCourse, "formation introuvable"))
		r.Put("/courses/{id}", handleUpdate(e, h.Admin.UpdateCourse, "formation introuvable"))
		r.Delete("/courses/{id}", handleDelete(e, h.Admin.DeleteCourse, "formation introuvable"))

		// Products
		r.Get("/products", handleList(e, "products", h.Admin.ListProducts))
		r.Post("/products", handleCreate(e, h.Admin.CreateProduct))
		r.Get("/products/{id}", handleGet(e, h.Admin.GetProduct, "produit introuvable"))
		r.Put("/products/{id}", handleUpdate(e, h.Admin.UpdateProduct, "produit introuvable"))
		r.Delete("/products/{id}", handleDelete(e, h.Admin.DeleteProduct, "produit introuvable"))

		// Quotes
		r.Get("/quotes", handleList(e, "quotes", h.Admin.ListQuotes))
		r.Post("/quotes", handleCreate(e, h.Admin.CreateQuote))
		r.Get("/quotes/{id}", handleGet(e, h.Admin.GetQuote, "devis introuvable"))
		r.Put("/quotes/{id}", handleUpdate(e, h.Admin.UpdateQuote, "devis introuvable"))
		r.Delete("/quotes/{id}", handleDelete(e, h.Admin.DeleteQuote, "devis introuvable"))
		r.Post("/quotes/{id}/respond", handleUpdate(e, h.Admin.RespondQuote, "devis introuvable"))

		// Orders
		r.Get("/orders", handleList(e, "orders", h.Admin.ListOrders))
		r.Post("/orders", handleCreate(e, h.Admin.CreateOrder))
		r.Get("/orders/{id}", handleGet(e, h.Admin.GetOrder, "commande introuvable"))
		r.Put("/orders/{id}", handleUpdate(e, h.Admin.UpdateOrder, "commande introuvable"))
		r.Delete("/orders/{id}", handleDelete(e, h.Admin.DeleteOrder, "commande introuvable"))
		r.Put("/orders/{id}/status", handleUpdate(e, h.Admin.ChangeOrderStatus, "commande introuvable"))

		// Users
		r.Get("/users", handleList(e, "users", h.Admin.ListUsers))
		r.Post("/users", handleCreate(e, h.Admin.CreateUser))
		r.Get("/users/{id}", handleGet(e, h.Admin.GetUser, "utilisateur introuvable"))
		r.Put("/users/{id}", handleUpdate(e, h.Admin.UpdateUser, "utilisateur introuvable"))
		r.Delete("/users/{id}", handleDelete(e, h.Admin.DeleteUser, "utilisateur introuvable"))
	})
}
