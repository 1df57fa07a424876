// Package quote defines customer quote requests and the admin proposal
// workflow.
package quote

import (
	"strings"
	"time"

	"github.com/windevexpert/windevexpert/internal/domain"
)

// Status is the processing state of a quote request.
type Status string

const (
	StatusPending   Status = "pending"
	StatusReviewing Status = "reviewing"
	StatusSent      Status = "sent"
	StatusAccepted  Status = "accepted"
	StatusRejected  Status = "rejected"
)

// ValidStatuses is the set of all valid quote statuses.
var ValidStatuses = map[Status]bool{
	StatusPending:   true,
	StatusReviewing: true,
	StatusSent:      true,
	StatusAccepted:  true,
	StatusRejected:  true,
}

// IsClosed reports whether the customer already answered the proposal.
func (s Status) IsClosed() bool {
	return s == StatusAccepted || s == StatusRejected
}

// Quote is a customer project inquiry.
type Quote struct {
	ID             string     `json:"id" db:"id"`
	CustomerName   string     `json:"customerName" db:"customerName"`
	Email          string     `json:"email" db:"email"`
	Phone          string     `json:"phone" db:"phone"`
	Company        string     `json:"company" db:"company"`
	ProjectType    string     `json:"projectType" db:"projectType"`
	Budget         string     `json:"budget" db:"budget"`
	Description    string     `json:"description" db:"description"`
	Status         Status     `json:"status" db:"status"`
	Proposal       string     `json:"proposal" db:"proposal"`
	ProposalAmount *float64   `json:"proposalAmount" db:"proposalAmount"`
	RespondedAt    *time.Time `json:"respondedAt" db:"respondedAt"`
	CreatedAt      time.Time  `json:"createdAt" db:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt" db:"updatedAt"`
}

// CreateRequest is the input for registering a quote request.
type CreateRequest struct {
	CustomerName string `json:"customerName"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	Company      string `json:"company"`
	ProjectType  string `json:"projectType"`
	Budget       string `json:"budget"`
	Description  string `json:"description"`
}

// Validate checks required fields.
func (r *CreateRequest) Validate() error {
	r.CustomerName = strings.TrimSpace(r.CustomerName)
	r.Email = strings.TrimSpace(r.Email)
	if r.CustomerName == "" {
		return domain.Validationf("le nom du client est requis")
	}
	if !domain.IsEmail(r.Email) {
		return domain.Validationf("adresse email invalide")
	}
	if strings.TrimSpace(r.Description) == "" {
		return domain.Validationf("la description du projet est requise")
	}
	return nil
}

// UpdateRequest is a partial update; nil fields are left unchanged.
type UpdateRequest struct {
	CustomerName   *string  `json:"customerName,omitempty"`
	Email          *string  `json:"email,omitempty"`
	Phone          *string  `json:"phone,omitempty"`
	Company        *string  `json:"company,omitempty"`
	ProjectType    *string  `json:"projectType,omitempty"`
	Budget         *string  `json:"budget,omitempty"`
	Description    *string  `json:"description,omitempty"`
	Status         *Status  `json:"status,omitempty"`
	Proposal       *string  `json:"proposal,omitempty"`
	ProposalAmount *float64 `json:"proposalAmount,omitempty"`

	// RespondedAt is set by the respond workflow only.
	RespondedAt *time.Time `json:"-"`
}

// Validate checks the fields that are present.
func (r *UpdateRequest) Validate() error {
	if r.CustomerName != nil && strings.TrimSpace(*r.CustomerName) == "" {
		return domain.Validationf("le nom du client est requis")
	}
	if r.Email != nil && !domain.IsEmail(*r.Email) {
		return domain.Validationf("adresse email invalide")
	}
	if r.Status != nil && !ValidStatuses[*r.Status] {
		return domain.Validationf("statut de devis invalide : %s", *r.Status)
	}
	if r.ProposalAmount != nil && *r.ProposalAmount < 0 {
		return domain.Validationf("le montant proposé ne peut pas être négatif")
	}
	return nil
}

// RespondRequest is the admin proposal sent back to the customer.
type RespondRequest struct {
	Proposal string   `json:"proposal"`
	Amount   *float64 `json:"amount,omitempty"`
}

// Validate checks the proposal text and amount.
func (r *RespondRequest) Validate() error {
	if strings.TrimSpace(r.Proposal) == "" {
		return domain.Validationf("la proposition est requise")
	}
	if r.Amount != nil && *r.Amount < 0 {
		return domain.Validationf("le montant proposé ne peut pas être négatif")
	}
	return nil
}

// New builds a pending quote from a validated request.
func New(id string, r CreateRequest, now time.Time) Quote {
	return Quote{
		ID:           id,
		CustomerName: r.CustomerName,
		Email:        r.Email,
		Phone:        r.Phone,
		Company:      r.Company,
		ProjectType:  r.ProjectType,
		Budget:       r.Budget,
		Description:  r.Description,
		Status:       StatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// Apply merges a partial update into q.
func (q *Quote) Apply(r UpdateRequest, now time.Time) {
	set := func(dst *string, v *string) {
		if v != nil {
			*dst = *v
		}
	}
	set(&q.CustomerName, r.CustomerName)
	set(&q.Email, r.Email)
	set(&q.Phone, r.Phone)
	set(&q.Company, r.Company)
	set(&q.ProjectType, r.ProjectType)
	set(&q.Budget, r.Budget)
	set(&q.Description, r.Description)
	set(&q.Proposal, r.Proposal)
	if r.Status != nil {
		q.Status = *r.Status
	}
	if r.ProposalAmount != nil {
		amount := *r.ProposalAmount
		q.ProposalAmount = &amount
	}
	if r.RespondedAt != nil {
		at := *r.RespondedAt
		q.RespondedAt = &at
	}
	q.UpdatedAt = now
}

// Respond records the admin proposal and marks the quote as sent.
func (q *Quote) Respond(r RespondRequest, now time.Time) error {
	if q.Status.IsClosed() {
		return domain.Validationf("le devis est déjà clôturé (%s)", q.Status)
	}
	q.Proposal = strings.TrimSpace(r.Proposal)
	if r.Amount != nil {
		amount := *r.Amount
		q.ProposalAmount = &amount
	}
	q.Status = StatusSent
	q.RespondedAt = &now
	q.UpdatedAt = now
	return nil
}

// AsUpdate returns the update that persists q's mutable fields.
func (q Quote) AsUpdate() UpdateRequest {
	return UpdateRequest{
		CustomerName:   &q.CustomerName,
		Email:          &q.Email,
		Phone:          &q.Phone,
		Company:        &q.Company,
		ProjectType:    &q.ProjectType,
		Budget:         &q.Budget,
		Description:    &q.Description,
		Status:         &q.Status,
		Proposal:       &q.Proposal,
		ProposalAmount: q.ProposalAmount,
		RespondedAt:    q.RespondedAt,
	}
}
