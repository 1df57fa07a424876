//go:build integration

package storage

import (
	"context"
	"os"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/windevexpert/windevexpert/internal/adapter/migrations"
	"github.com/windevexpert/windevexpert/internal/adapter/postgres"
	"github.com/windevexpert/windevexpert/internal/adapter/sqlstore"
	"github.com/windevexpert/windevexpert/internal/config"
	"github.com/windevexpert/windevexpert/internal/domain/course"
	"github.com/windevexpert/windevexpert/internal/domain/listing"
	"github.com/windevexpert/windevexpert/internal/domain/order"
	"github.com/windevexpert/windevexpert/internal/domain/quote"
	"github.com/windevexpert/windevexpert/internal/port/database"
)

// openBoth connects both backends to the same PostgreSQL database.
func openBoth(t *testing.T) (primary, fallback database.Store) {
	t.Helper()
	url := os.Getenv("WDE_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("WDE_TEST_DATABASE_URL not set")
	}
	ctx := context.Background()

	if _, err := migrations.UpDSN(ctx, migrations.Postgres, url); err != nil {
		t.Fatal(err)
	}
	cfg := config.Defaults().Database
	cfg.URL = url
	pool, err := postgres.NewPool(ctx, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := pool.Exec(ctx, `TRUNCATE "Lesson", "Course", "OrderItem", "Order", "Quote", "Product", "User"`); err != nil {
		t.Fatal(err)
	}
	fb, err := sqlstore.Open(ctx, sqlstore.Postgres, url)
	if err != nil {
		t.Fatal(err)
	}
	p := postgres.NewStore(pool)
	t.Cleanup(func() {
		fb.Close()
		p.Close()
	})
	return p, fb
}

func TestBackendsReturnIdenticalResults(t *testing.T) {
	ctx := context.Background()
	primary, fallback := openBoth(t)

	creq := course.CreateRequest{
		Title:   "Formation WinDev",
		Price:   149.5,
		Status:  course.StatusPublished,
		Tags:    []string{"windev"},
		Lessons: []course.LessonInput{{Title: "Prise en main"}, {Title: "Base HFSQL", IsFree: true}},
	}
	if err := creq.Validate(); err != nil {
		t.Fatal(err)
	}
	c, err := primary.CreateCourse(ctx, creq)
	if err != nil {
		t.Fatal(err)
	}

	oreq := order.CreateRequest{
		CustomerName: "Client Test",
		Email:        "client@example.fr",
		Items:        []order.ItemInput{{Name: "Licence", Quantity: 3, UnitPrice: 33.33}},
	}
	if err := oreq.Validate(); err != nil {
		t.Fatal(err)
	}
	if _, err := fallback.CreateOrder(ctx, oreq); err != nil {
		t.Fatal(err)
	}

	qreq := quote.CreateRequest{CustomerName: "Lead", Email: "lead@example.fr", ProjectType: "app"}
	if err := qreq.Validate(); err != nil {
		t.Fatal(err)
	}
	if _, err := primary.CreateQuote(ctx, qreq); err != nil {
		t.Fatal(err)
	}

	fromPrimary, err := primary.GetCourse(ctx, c.ID)
	if err != nil {
		t.Fatal(err)
	}
	fromFallback, err := fallback.GetCourse(ctx, c.ID)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(fromPrimary, fromFallback); diff != "" {
		t.Errorf("course differs (-primary +fallback):\n%s", diff)
	}

	f := listing.Filter{Search: "client"}
	po, err := primary.ListOrders(ctx, f)
	if err != nil {
		t.Fatal(err)
	}
	fo, err := fallback.ListOrders(ctx, f)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(po, fo); diff != "" {
		t.Errorf("orders differ (-primary +fallback):\n%s", diff)
	}

	pq, err := primary.ListQuotes(ctx, listing.Filter{})
	if err != nil {
		t.Fatal(err)
	}
	fq, err := fallback.ListQuotes(ctx, listing.Filter{})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(pq, fq); diff != "" {
		t.Errorf("quotes differ (-primary +fallback):\n%s", diff)
	}
}
