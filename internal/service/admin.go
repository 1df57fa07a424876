package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/windevexpert/windevexpert/internal/domain"
	"github.com/windevexpert/windevexpert/internal/domain/course"
	"github.com/windevexpert/windevexpert/internal/domain/listing"
	"github.com/windevexpert/windevexpert/internal/domain/order"
	"github.com/windevexpert/windevexpert/internal/domain/product"
	"github.com/windevexpert/windevexpert/internal/domain/quote"
	"github.com/windevexpert/windevexpert/internal/domain/user"
	"github.com/windevexpert/windevexpert/internal/port/database"
	"github.com/windevexpert/windevexpert/internal/port/messagequeue"
	"github.com/windevexpert/windevexpert/internal/port/notifier"
)

// CustomerMailer sends the transactional emails of the back-office.
type CustomerMailer interface {
	SendQuoteProposal(ctx context.Context, q quote.Quote) error
	SendOrderStatus(ctx context.Context, o order.Order) error
}

// AdminService implements the back-office operations on top of the
// selected repository backend.
type AdminService struct {
	store      database.Store
	mail       CustomerMailer
	queue      messagequeue.Queue
	notify     *NotificationService
	bcryptCost int
	now        func() time.Time
}

// NewAdminService creates the back-office service. mail may be nil when no
// SMTP relay is configured.
func NewAdminService(store database.Store, mail CustomerMailer, bcryptCost int) *AdminService {
	return &AdminService{
		store:      store,
		mail:       mail,
		bcryptCost: bcryptCost,
		now:        time.Now,
	}
}

// SetQueue enables domain event publication.
func (s *AdminService) SetQueue(q messagequeue.Queue) { s.queue = q }

// SetNotifier enables administrator notifications.
func (s *AdminService) SetNotifier(n *NotificationService) { s.notify = n }

// Backend names the data path in use.
func (s *AdminService) Backend() string { return s.store.Backend() }

// Ping checks the database.
func (s *AdminService) Ping(ctx context.Context) error { return s.store.Ping(ctx) }

func (s *AdminService) publish(ctx context.Context, subject string, payload any) {
	if s.queue == nil {
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		slog.ErrorContext(ctx, "marshal event", "subject", subject, "error", err)
		return
	}
	if err := s.queue.Publish(ctx, subject, data); err != nil {
		slog.WarnContext(ctx, "publish event failed", "subject", subject, "error", err)
	}
}

// --- Courses ---

func (s *AdminService) ListCourses(ctx context.Context, f listing.Filter) (listing.Page[course.Course], error) {
	return s.store.ListCourses(ctx, f)
}

func (s *AdminService) GetCourse(ctx context.Context, id string) (*course.Course, error) {
	return s.store.GetCourse(ctx, id)
}

func (s *AdminService) CreateCourse(ctx context.Context, req *course.CreateRequest) (*course.Course, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return s.store.CreateCourse(ctx, *req)
}

func (s *AdminService) UpdateCourse(ctx context.Context, id string, req course.UpdateRequest) (*course.Course, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return s.store.UpdateCourse(ctx, id, req)
}

func (s *AdminService) DeleteCourse(ctx context.Context, id string) error {
	return s.store.DeleteCourse(ctx, id)
}

// --- Products ---

func (s *AdminService) ListProducts(ctx context.Context, f listing.Filter) (listing.Page[product.Product], error) {
	return s.store.ListProducts(ctx, f)
}

func (s *AdminService) GetProduct(ctx context.Context, id string) (*product.Product, error) {
	return s.store.GetProduct(ctx, id)
}

func (s *AdminService) CreateProduct(ctx context.Context, req *product.CreateRequest) (*product.Product, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return s.store.CreateProduct(ctx, *req)
}

func (s *AdminService) UpdateProduct(ctx context.Context, id string, req product.UpdateRequest) (*product.Product, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return s.store.UpdateProduct(ctx, id, req)
}

func (s *AdminService) DeleteProduct(ctx context.Context, id string) error {
	return s.store.DeleteProduct(ctx, id)
}

// --- Quotes ---

func (s *AdminService) ListQuotes(ctx context.Context, f listing.Filter) (listing.Page[quote.Quote], error) {
	return s.store.ListQuotes(ctx, f)
}

func (s *AdminService) GetQuote(ctx context.Context, id string) (*quote.Quote, error) {
	return s.store.GetQuote(ctx, id)
}

func (s *AdminService) CreateQuote(ctx context.Context, req *quote.CreateRequest) (*quote.Quote, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return s.store.CreateQuote(ctx, *req)
}

func (s *AdminService) UpdateQuote(ctx context.Context, id string, req quote.UpdateRequest) (*quote.Quote, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	req.RespondedAt = nil
	return s.store.UpdateQuote(ctx, id, req)
}

func (s *AdminService) DeleteQuote(ctx context.Context, id string) error {
	return s.store.DeleteQuote(ctx, id)
}

// RespondQuote emails the proposal to the customer and marks the quote as
// sent. Nothing is stored when the email cannot be delivered; without an
// SMTP relay the proposal is stored only.
func (s *AdminService) RespondQuote(ctx context.Context, id string, req quote.RespondRequest) (*quote.Quote, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	q, err := s.store.GetQuote(ctx, id)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC().Truncate(time.Microsecond)
	if err := q.Respond(req, now); err != nil {
		return nil, err
	}

	if s.mail != nil {
		if err := s.mail.SendQuoteProposal(ctx, *q); err != nil && !errors.Is(err, notifier.ErrNotConfigured) {
			return nil, fmt.Errorf("send quote proposal: %w", err)
		}
	}

	updated, err := s.store.UpdateQuote(ctx, id, q.AsUpdate())
	if err != nil {
		return nil, err
	}

	s.publish(ctx, messagequeue.SubjectQuoteResponded, messagequeue.QuoteRespondedPayload{
		QuoteID:     updated.ID,
		Email:       updated.Email,
		Amount:      updated.ProposalAmount,
		RespondedAt: now,
	})
	s.notify.Notify(ctx, notifier.Notification{
		Title:   "Devis envoyé",
		Message: fmt.Sprintf("Proposition envoyée à %s (%s).", updated.CustomerName, updated.Email),
		Level:   "info",
		Source:  EventQuoteResponded,
	})
	return updated, nil
}

// --- Orders ---

func (s *AdminService) ListOrders(ctx context.Context, f listing.Filter) (listing.Page[order.Order], error) {
	return s.store.ListOrders(ctx, f)
}

func (s *AdminService) GetOrder(ctx context.Context, id string) (*order.Order, error) {
	return s.store.GetOrder(ctx, id)
}

func (s *AdminService) CreateOrder(ctx context.Context, req *order.CreateRequest) (*order.Order, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return s.store.CreateOrder(ctx, *req)
}

func (s *AdminService) UpdateOrder(ctx context.Context, id string, req order.UpdateRequest) (*order.Order, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return s.store.UpdateOrder(ctx, id, req)
}

func (s *AdminService) DeleteOrder(ctx context.Context, id string) error {
	return s.store.DeleteOrder(ctx, id)
}

// ChangeOrderStatus moves an order along its lifecycle, then informs the
// customer. A failed email is logged and does not undo the change.
func (s *AdminService) ChangeOrderStatus(ctx context.Context, id string, req order.StatusRequest) (*order.Order, error) {
	o, err := s.store.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	from := o.Status
	if err := o.ChangeStatus(req.Status, s.now().UTC()); err != nil {
		return nil, err
	}
	if o.Status == from {
		return o, nil
	}

	next := o.Status
	updated, err := s.store.UpdateOrder(ctx, id, order.UpdateRequest{Status: &next})
	if err != nil {
		return nil, err
	}

	if s.mail != nil {
		if err := s.mail.SendOrderStatus(ctx, *updated); err != nil && !errors.Is(err, notifier.ErrNotConfigured) {
			slog.WarnContext(ctx, "order status email failed", "order", updated.OrderNumber, "error", err)
		}
	}
	s.publish(ctx, messagequeue.SubjectOrderStatus, messagequeue.OrderStatusPayload{
		OrderID:       updated.ID,
		OrderNumber:   updated.OrderNumber,
		From:          string(from),
		To:            string(updated.Status),
		InvoiceNumber: updated.InvoiceNumber,
	})
	s.notify.Notify(ctx, notifier.Notification{
		Title:   "Commande " + updated.OrderNumber,
		Message: fmt.Sprintf("Statut modifié : %s → %s.", from, updated.Status),
		Level:   "info",
		Source:  EventOrderStatus,
	})
	return updated, nil
}

// --- Users ---

func (s *AdminService) ListUsers(ctx context.Context, f listing.Filter) (listing.Page[user.User], error) {
	return s.store.ListUsers(ctx, f)
}

func (s *AdminService) GetUser(ctx context.Context, id string) (*user.User, error) {
	return s.store.GetUser(ctx, id)
}

func (s *AdminService) hash(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(h), nil
}

// CreateUser validates the request and stores the account with a bcrypt
// hash of its password.
func (s *AdminService) CreateUser(ctx context.Context, req *user.CreateRequest) (*user.User, error) {
	if err := user.Checked(req); err != nil {
		return nil, err
	}
	h, err := s.hash(req.Password)
	if err != nil {
		return nil, err
	}
	u := user.New(uuid.NewString(), *req, h, s.now().UTC().Truncate(time.Microsecond))
	if err := s.store.CreateUser(ctx, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// UpdateUser applies a partial update, re-hashing the password when one is
// given.
func (s *AdminService) UpdateUser(ctx context.Context, id string, req user.UpdateRequest) (*user.User, error) {
	if err := user.Checked(&req); err != nil {
		return nil, err
	}
	u, err := s.store.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	var h string
	if req.Password != nil {
		if h, err = s.hash(*req.Password); err != nil {
			return nil, err
		}
	}
	u.Apply(req, h, s.now().UTC().Truncate(time.Microsecond))
	if err := s.store.UpdateUser(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// ResetPassword sets a new password for the account with the given email.
func (s *AdminService) ResetPassword(ctx context.Context, email, password string) error {
	if len(password) < user.MinPasswordLength {
		return domain.Validationf("le mot de passe doit contenir au moins %d caractères", user.MinPasswordLength)
	}
	u, err := s.store.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return err
	}
	_, err = s.UpdateUser(ctx, u.ID, user.UpdateRequest{Password: &password})
	return err
}

func (s *AdminService) DeleteUser(ctx context.Context, id string) error {
	return s.store.DeleteUser(ctx, id)
}
