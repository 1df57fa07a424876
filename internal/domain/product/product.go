// Package product defines the shop product catalog model.
package product

import (
	"strings"
	"time"

	"github.com/windevexpert/windevexpert/internal/domain"
)

// Status is the sale state of a product.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

// Product is a sellable item, physical or digital.
type Product struct {
	ID          string    `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Slug        string    `json:"slug" db:"slug"`
	Description string    `json:"description" db:"description"`
	Price       float64   `json:"price" db:"price"`
	Category    string    `json:"category" db:"category"`
	Status      Status    `json:"status" db:"status"`
	Stock       int       `json:"stock" db:"stock"`
	IsDigital   bool      `json:"isDigital" db:"isDigital"`
	Features    []string  `json:"features" db:"features"`
	CreatedAt   time.Time `json:"createdAt" db:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt" db:"updatedAt"`
}

// CreateRequest is the input for creating a product.
type CreateRequest struct {
	Name        string   `json:"name"`
	Slug        string   `json:"slug"`
	Description string   `json:"description"`
	Price       float64  `json:"price"`
	Category    string   `json:"category"`
	Status      Status   `json:"status"`
	Stock       int      `json:"stock"`
	IsDigital   bool     `json:"isDigital"`
	Features    []string `json:"features"`
}

func validStatus(s Status) bool {
	return s == StatusActive || s == StatusInactive
}

// Validate checks required fields and fills defaults.
func (r *CreateRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		return domain.Validationf("le nom est requis")
	}
	if r.Slug == "" {
		r.Slug = domain.Slugify(r.Name)
	}
	if r.Status == "" {
		r.Status = StatusActive
	}
	if !validStatus(r.Status) {
		return domain.Validationf("statut de produit invalide : %s", r.Status)
	}
	if r.Price < 0 {
		return domain.Validationf("le prix ne peut pas être négatif")
	}
	if r.Stock < 0 {
		return domain.Validationf("le stock ne peut pas être négatif")
	}
	if r.Features == nil {
		r.Features = []string{}
	}
	return nil
}

// UpdateRequest is a partial update; nil fields are left unchanged.
type UpdateRequest struct {
	Name        *string  `json:"name,omitempty"`
	Slug        *string  `json:"slug,omitempty"`
	Description *string  `json:"description,omitempty"`
	Price       *float64 `json:"price,omitempty"`
	Category    *string  `json:"category,omitempty"`
	Status      *Status  `json:"status,omitempty"`
	Stock       *int     `json:"stock,omitempty"`
	IsDigital   *bool    `json:"isDigital,omitempty"`
	Features    []string `json:"features,omitempty"`
}

// Validate checks the fields that are present.
func (r *UpdateRequest) Validate() error {
	if r.Name != nil && strings.TrimSpace(*r.Name) == "" {
		return domain.Validationf("le nom est requis")
	}
	if r.Status != nil && !validStatus(*r.Status) {
		return domain.Validationf("statut de produit invalide : %s", *r.Status)
	}
	if r.Price != nil && *r.Price < 0 {
		return domain.Validationf("le prix ne peut pas être négatif")
	}
	if r.Stock != nil && *r.Stock < 0 {
		return domain.Validationf("le stock ne peut pas être négatif")
	}
	return nil
}

// New builds a product from a validated request.
func New(id string, r CreateRequest, now time.Time) Product {
	return Product{
		ID:          id,
		Name:        r.Name,
		Slug:        r.Slug,
		Description: r.Description,
		Price:       r.Price,
		Category:    r.Category,
		Status:      r.Status,
		Stock:       r.Stock,
		IsDigital:   r.IsDigital,
		Features:    r.Features,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Apply merges a partial update into p.
func (p *Product) Apply(r UpdateRequest, now time.Time) {
	if r.Name != nil {
		p.Name = strings.TrimSpace(*r.Name)
	}
	if r.Slug != nil {
		p.Slug = *r.Slug
	}
	if r.Description != nil {
		p.Description = *r.Description
	}
	if r.Price != nil {
		p.Price = *r.Price
	}
	if r.Category != nil {
		p.Category = *r.Category
	}
	if r.Status != nil {
		p.Status = *r.Status
	}
	if r.Stock != nil {
		p.Stock = *r.Stock
	}
	if r.IsDigital != nil {
		p.IsDigital = *r.IsDigital
	}
	if r.Features != nil {
		p.Features = r.Features
	}
	p.UpdatedAt = now
}
