package email

import (
	"context"

	"github.com/windevexpert/windevexpert/internal/domain/order"
	"github.com/windevexpert/windevexpert/internal/domain/quote"
)

// CustomerMailer sends the transactional emails of the back-office.
type CustomerMailer struct {
	mailer   *Mailer
	renderer *Renderer
}

// NewCustomerMailer creates a customer mailer.
func NewCustomerMailer(m *Mailer, r *Renderer) *CustomerMailer {
	return &CustomerMailer{mailer: m, renderer: r}
}

// SendQuoteProposal emails the admin proposal to the customer of q.
func (c *CustomerMailer) SendQuoteProposal(ctx context.Context, q quote.Quote) error {
	msg, err := c.renderer.QuoteProposal(q)
	if err != nil {
		return err
	}
	return c.mailer.Send(ctx, q.Email, msg)
}

// SendOrderStatus tells the customer of o about its new status.
func (c *CustomerMailer) SendOrderStatus(ctx context.Context, o order.Order) error {
	msg, err := c.renderer.OrderStatus(o)
	if err != nil {
		return err
	}
	return c.mailer.Send(ctx, o.Email, msg)
}
