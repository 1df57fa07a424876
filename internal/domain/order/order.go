// Package order defines customer orders, their items and the status
// lifecycle used by the back-office.
package order

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/windevexpert/windevexpert/internal/domain"
)

// Status is the fulfilment state of an order.
type Status string

const (
	StatusPending   Status = "pending"
	StatusPaid      Status = "paid"
	StatusShipped   Status = "shipped"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
	StatusRefunded  Status = "refunded"
)

// DefaultCurrency is the only currency the shop sells in.
const DefaultCurrency = "EUR"

var transitions = map[Status][]Status{
	StatusPending:   {StatusPaid, StatusCancelled},
	StatusPaid:      {StatusShipped, StatusCompleted, StatusRefunded, StatusCancelled},
	StatusShipped:   {StatusCompleted, StatusRefunded},
	StatusCompleted: {StatusRefunded},
}

// IsValid reports whether s is a known status.
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusPaid, StatusShipped, StatusCompleted, StatusCancelled, StatusRefunded:
		return true
	}
	return false
}

// CanTransitionTo reports whether an order may move from s to next.
func (s Status) CanTransitionTo(next Status) bool {
	for _, t := range transitions[s] {
		if t == next {
			return true
		}
	}
	return false
}

// Order is a customer order with its items.
type Order struct {
	ID            string    `json:"id" db:"id"`
	OrderNumber   string    `json:"orderNumber" db:"orderNumber"`
	CustomerName  string    `json:"customerName" db:"customerName"`
	Email         string    `json:"email" db:"email"`
	Status        Status    `json:"status" db:"status"`
	Total         float64   `json:"total" db:"total"`
	Currency      string    `json:"currency" db:"currency"`
	InvoiceNumber string    `json:"invoiceNumber" db:"invoiceNumber"`
	Items         []Item    `json:"items" db:"-"`
	CreatedAt     time.Time `json:"createdAt" db:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt" db:"updatedAt"`
}

// Item is one order line.
type Item struct {
	ID        string  `json:"id" db:"id"`
	OrderID   string  `json:"orderId" db:"orderId"`
	ProductID string  `json:"productId" db:"productId"`
	Name      string  `json:"name" db:"name"`
	Quantity  int     `json:"quantity" db:"quantity"`
	UnitPrice float64 `json:"unitPrice" db:"unitPrice"`
}

// ItemInput is the writable part of an order line.
type ItemInput struct {
	ProductID string  `json:"productId"`
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unitPrice"`
}

// CreateRequest is the input for registering an order.
type CreateRequest struct {
	CustomerName string      `json:"customerName"`
	Email        string      `json:"email"`
	Currency     string      `json:"currency"`
	Items        []ItemInput `json:"items"`
}

// Validate checks required fields and fills the currency.
func (r *CreateRequest) Validate() error {
	r.CustomerName = strings.TrimSpace(r.CustomerName)
	if r.CustomerName == "" {
		return domain.Validationf("le nom du client est requis")
	}
	if !domain.IsEmail(strings.TrimSpace(r.Email)) {
		return domain.Validationf("adresse email invalide")
	}
	if r.Currency == "" {
		r.Currency = DefaultCurrency
	}
	if r.Currency != DefaultCurrency {
		return domain.Validationf("devise non prise en charge : %s", r.Currency)
	}
	return validateItems(r.Items)
}

func validateItems(items []ItemInput) error {
	if len(items) == 0 {
		return domain.Validationf("la commande doit contenir au moins un article")
	}
	for i, it := range items {
		if strings.TrimSpace(it.Name) == "" {
			return domain.Validationf("le nom de l'article %d est requis", i+1)
		}
		if it.Quantity < 1 {
			return domain.Validationf("la quantité de l'article %d doit être positive", i+1)
		}
		if it.UnitPrice < 0 {
			return domain.Validationf("le prix de l'article %d ne peut pas être négatif", i+1)
		}
	}
	return nil
}

// UpdateRequest is a partial update. A non-nil Items replaces every line and
// recomputes the total.
type UpdateRequest struct {
	CustomerName *string      `json:"customerName,omitempty"`
	Email        *string      `json:"email,omitempty"`
	Status       *Status      `json:"status,omitempty"`
	Items        *[]ItemInput `json:"items,omitempty"`
}

// Validate checks the fields that are present.
func (r *UpdateRequest) Validate() error {
	if r.CustomerName != nil && strings.TrimSpace(*r.CustomerName) == "" {
		return domain.Validationf("le nom du client est requis")
	}
	if r.Email != nil && !domain.IsEmail(*r.Email) {
		return domain.Validationf("adresse email invalide")
	}
	if r.Status != nil && !r.Status.IsValid() {
		return domain.Validationf("statut de commande invalide : %s", *r.Status)
	}
	if r.Items != nil {
		return validateItems(*r.Items)
	}
	return nil
}

// StatusRequest is the body of the order status endpoint.
type StatusRequest struct {
	Status Status `json:"status"`
}

// New builds a pending order from a validated request.
func New(id string, r CreateRequest, now time.Time, newID func() string) Order {
	o := Order{
		ID:           id,
		OrderNumber:  Number(id, now),
		CustomerName: r.CustomerName,
		Email:        strings.TrimSpace(r.Email),
		Status:       StatusPending,
		Currency:     r.Currency,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	o.setItems(r.Items, newID)
	return o
}

// Apply merges a partial update into o. It reports whether the item list
// was replaced. Status changes made here bypass the transition table; use
// ChangeStatus for the lifecycle endpoint.
func (o *Order) Apply(r UpdateRequest, now time.Time, newID func() string) bool {
	if r.CustomerName != nil {
		o.CustomerName = strings.TrimSpace(*r.CustomerName)
	}
	if r.Email != nil {
		o.Email = strings.TrimSpace(*r.Email)
	}
	if r.Status != nil {
		o.Status = *r.Status
		o.assignInvoice()
	}
	o.UpdatedAt = now
	if r.Items == nil {
		return false
	}
	o.setItems(*r.Items, newID)
	return true
}

// ChangeStatus moves the order along its lifecycle. Paying an order assigns
// its invoice number.
func (o *Order) ChangeStatus(next Status, now time.Time) error {
	if !next.IsValid() {
		return domain.Validationf("statut de commande invalide : %s", next)
	}
	if o.Status == next {
		return nil
	}
	if !o.Status.CanTransitionTo(next) {
		return domain.Validationf("transition de statut impossible : %s vers %s", o.Status, next)
	}
	o.Status = next
	o.assignInvoice()
	o.UpdatedAt = now
	return nil
}

func (o *Order) assignInvoice() {
	if o.InvoiceNumber != "" {
		return
	}
	switch o.Status {
	case StatusPaid, StatusShipped, StatusCompleted:
		o.InvoiceNumber = "FAC-" + strings.TrimPrefix(o.OrderNumber, "CMD-")
	}
}

func (o *Order) setItems(in []ItemInput, newID func() string) {
	o.Items = make([]Item, 0, len(in))
	for _, it := range in {
		o.Items = append(o.Items, Item{
			ID:        newID(),
			OrderID:   o.ID,
			ProductID: it.ProductID,
			Name:      strings.TrimSpace(it.Name),
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
		})
	}
	o.Total = Total(o.Items)
}

// Total sums quantity × unit price over items, rounded to the cent.
func Total(items []Item) float64 {
	var sum float64
	for _, it := range items {
		sum += float64(it.Quantity) * it.UnitPrice
	}
	return math.Round(sum*100) / 100
}

// Number derives the human-facing order number from the creation date and
// the first characters of the id, e.g. CMD-20260301-1A2B3C.
func Number(id string, at time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(id, "-", ""))
	if len(suffix) > 6 {
		suffix = suffix[:6]
	}
	return fmt.Sprintf("CMD-%s-%s", at.Format("20060102"), suffix)
}
