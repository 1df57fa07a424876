package product

import (
	"errors"
	"testing"
	"time"

	"github.com/windevexpert/windevexpert/internal/domain"
)

func TestCreateRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		req     CreateRequest
		wantErr bool
	}{
		{name: "valid", req: CreateRequest{Name: "Pack composants"}},
		{name: "missing name", req: CreateRequest{}, wantErr: true},
		{name: "bad status", req: CreateRequest{Name: "A", Status: "soldout"}, wantErr: true},
		{name: "negative stock", req: CreateRequest{Name: "A", Stock: -2}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.wantErr != (err != nil) {
				t.Fatalf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, domain.ErrValidation) {
				t.Errorf("expected ErrValidation, got %v", err)
			}
		})
	}
}

func TestApply(t *testing.T) {
	req := CreateRequest{Name: "Licence WinDev"}
	if err := req.Validate(); err != nil {
		t.Fatal(err)
	}
	now := time.Now().UTC()
	p := New("p1", req, now)
	if p.Status != StatusActive || p.Slug != "licence-windev" || p.Features == nil {
		t.Fatalf("unexpected defaults: %+v", p)
	}

	stock := 4
	digital := true
	p.Apply(UpdateRequest{Stock: &stock, IsDigital: &digital}, now.Add(time.Minute))
	if p.Stock != 4 || !p.IsDigital || p.Name != "Licence WinDev" {
		t.Errorf("unexpected product: %+v", p)
	}
}
