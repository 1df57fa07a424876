package order

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/windevexpert/windevexpert/internal/domain"
)

func seqID() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("item-%d", n)
	}
}

func validRequest() CreateRequest {
	return CreateRequest{
		CustomerName: "Société Dupont",
		Email:        "compta@dupont.fr",
		Items: []ItemInput{
			{ProductID: "p1", Name: "Licence", Quantity: 2, UnitPrice: 19.99},
			{ProductID: "p2", Name: "Support", Quantity: 1, UnitPrice: 0.03},
		},
	}
}

func TestCreateRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*CreateRequest)
		wantErr bool
	}{
		{name: "valid", modify: func(_ *CreateRequest) {}},
		{name: "no items", modify: func(r *CreateRequest) { r.Items = nil }, wantErr: true},
		{name: "zero quantity", modify: func(r *CreateRequest) { r.Items[0].Quantity = 0 }, wantErr: true},
		{name: "bad email", modify: func(r *CreateRequest) { r.Email = "compta" }, wantErr: true},
		{name: "other currency", modify: func(r *CreateRequest) { r.Currency = "USD" }, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.modify(&req)
			err := req.Validate()
			if tt.wantErr != (err != nil) {
				t.Fatalf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, domain.ErrValidation) {
				t.Errorf("expected ErrValidation, got %v", err)
			}
		})
	}
}

func TestNewComputesTotalAndNumber(t *testing.T) {
	req := validRequest()
	if err := req.Validate(); err != nil {
		t.Fatal(err)
	}
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	o := New("1a2b3c4d-0000-0000-0000-000000000000", req, now, seqID())

	if o.Total != 40.01 {
		t.Errorf("total = %v, want 40.01", o.Total)
	}
	if o.OrderNumber != "CMD-20260301-1A2B3C" {
		t.Errorf("order number = %q", o.OrderNumber)
	}
	if o.Currency != DefaultCurrency || o.Status != StatusPending {
		t.Errorf("unexpected defaults: %+v", o)
	}
	if len(o.Items) != 2 || o.Items[0].OrderID != o.ID {
		t.Errorf("unexpected items: %+v", o.Items)
	}
}

func TestChangeStatus(t *testing.T) {
	now := time.Now().UTC()
	o := Order{OrderNumber: "CMD-20260301-ABCDEF", Status: StatusPending}

	if err := o.ChangeStatus(StatusShipped, now); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("pending -> shipped should be rejected, got %v", err)
	}
	if err := o.ChangeStatus(StatusPaid, now); err != nil {
		t.Fatal(err)
	}
	if o.InvoiceNumber != "FAC-20260301-ABCDEF" {
		t.Errorf("invoice = %q", o.InvoiceNumber)
	}
	if err := o.ChangeStatus(StatusPaid, now); err != nil {
		t.Errorf("same status should be a no-op, got %v", err)
	}
	if err := o.ChangeStatus(StatusRefunded, now); err != nil {
		t.Fatal(err)
	}
	if err := o.ChangeStatus(StatusPaid, now); err == nil {
		t.Error("refunded is terminal")
	}
	if err := o.ChangeStatus("lost", now); err == nil {
		t.Error("unknown status should be rejected")
	}
}
