package messagequeue

import "time"

// QuoteRespondedPayload is the schema for quotes.responded messages.
type QuoteRespondedPayload struct {
	QuoteID     string    `json:"quote_id"`
	Email       string    `json:"email"`
	Amount      *float64  `json:"amount,omitempty"`
	RespondedAt time.Time `json:"responded_at"`
}

// OrderStatusPayload is the schema for orders.status messages.
type OrderStatusPayload struct {
	OrderID       string `json:"order_id"`
	OrderNumber   string `json:"order_number"`
	From          string `json:"from"`
	To            string `json:"to"`
	InvoiceNumber string `json:"invoice_number,omitempty"`
}

// InstallFinalizedPayload is the schema for install.finalized messages.
type InstallFinalizedPayload struct {
	SiteURL     string    `json:"site_url"`
	Version     string    `json:"version"`
	DBType      string    `json:"db_type"`
	InstalledAt time.Time `json:"installed_at"`
}
