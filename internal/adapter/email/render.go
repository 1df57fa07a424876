package email

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/windevexpert/windevexpert/internal/domain/order"
	"github.com/windevexpert/windevexpert/internal/domain/quote"
	"github.com/windevexpert/windevexpert/internal/port/notifier"
)

//go:embed templates/*.html
var templateFS embed.FS

// Message is a rendered email.
type Message struct {
	Subject string
	HTML    string
}

// Renderer executes the embedded French templates.
type Renderer struct {
	siteName string
	siteURL  string
	tmpl     *template.Template
	printer  *message.Printer
}

// NewRenderer parses the templates. siteURL is used for links.
func NewRenderer(siteName, siteURL string) (*Renderer, error) {
	r := &Renderer{
		siteName: siteName,
		siteURL:  siteURL,
		printer:  message.NewPrinter(language.French),
	}
	tmpl, err := template.New("email").Funcs(template.FuncMap{
		"money": r.Money,
		"date":  formatDate,
	}).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse email templates: %w", err)
	}
	r.tmpl = tmpl
	return r, nil
}

// Money formats an amount in euros the French way, e.g. "1 250,50 €".
func (r *Renderer) Money(amount float64) string {
	return r.printer.Sprintf("%.2f €", amount)
}

func formatDate(t time.Time) string {
	return t.Format("02/01/2006 à 15:04")
}

var statusLabels = map[order.Status]string{
	order.StatusPending:   "en attente",
	order.StatusPaid:      "payée",
	order.StatusShipped:   "expédiée",
	order.StatusCompleted: "terminée",
	order.StatusCancelled: "annulée",
	order.StatusRefunded:  "remboursée",
}

// StatusLabel returns the French label of an order status.
func StatusLabel(s order.Status) string {
	if l, ok := statusLabels[s]; ok {
		return l
	}
	return string(s)
}

type layoutData struct {
	SiteName string
	SiteURL  string
	Body     any
}

func (r *Renderer) render(name, subject string, body any) (Message, error) {
	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, name, layoutData{SiteName: r.siteName, SiteURL: r.siteURL, Body: body}); err != nil {
		return Message{}, fmt.Errorf("render %s: %w", name, err)
	}
	return Message{Subject: fmt.Sprintf("[%s] %s", r.siteName, subject), HTML: buf.String()}, nil
}

// QuoteProposal renders the proposal sent in answer to a quote request.
func (r *Renderer) QuoteProposal(q quote.Quote) (Message, error) {
	return r.render("quote_proposal.html", "Votre devis", q)
}

// OrderStatus renders the customer notice of an order status change.
func (r *Renderer) OrderStatus(o order.Order) (Message, error) {
	body := struct {
		order.Order
		StatusLabel string
	}{o, StatusLabel(o.Status)}
	return r.render("order_status.html", fmt.Sprintf("Commande %s %s", o.OrderNumber, StatusLabel(o.Status)), body)
}

// InstallData describes a finished installation.
type InstallData struct {
	AdminEmail  string
	DBType      string
	Version     string
	InstalledAt time.Time
}

// InstallComplete renders the message sent to the administrator once the
// installer finishes.
func (r *Renderer) InstallComplete(d InstallData) (Message, error) {
	return r.render("install_complete.html", "Installation terminée", d)
}

// SMTPTest renders the message sent by the installer to check SMTP settings.
func (r *Renderer) SMTPTest(at time.Time) (Message, error) {
	return r.render("smtp_test.html", "Test de configuration SMTP", struct{ SentAt time.Time }{at})
}

// Notification renders a generic administrator notification.
func (r *Renderer) Notification(n notifier.Notification) (Message, error) {
	return r.render("notification.html", n.Title, n)
}
