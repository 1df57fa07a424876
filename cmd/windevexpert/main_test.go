package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/windevexpert/windevexpert/internal/adapter/sqlstore"
	"github.com/windevexpert/windevexpert/internal/config"
	"github.com/windevexpert/windevexpert/internal/domain/user"
)

func TestMigrationTarget(t *testing.T) {
	tests := []struct {
		name        string
		url         string
		wantDialect sqlstore.Dialect
		wantDSN     string
	}{
		{"postgres url", "postgres://wde:pw@db:5432/wde", sqlstore.Postgres, "postgres://wde:pw@db:5432/wde"},
		{"mysql url", "mysql://wde:pw@db:3306/wde", sqlstore.MySQL, "wde:pw@tcp(db:3306)/wde"},
		{"no url", "", sqlstore.SQLite, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Defaults()
			cfg.Installer.Dir = "/srv/wde"
			cfg.Database.URL = tt.url

			d, dsn, err := migrationTarget(&cfg)
			if err != nil {
				t.Fatal(err)
			}
			if d != tt.wantDialect {
				t.Errorf("dialect = %q, want %q", d, tt.wantDialect)
			}
			if tt.wantDSN != "" && !strings.HasPrefix(dsn, tt.wantDSN) {
				t.Errorf("dsn = %q, want prefix %q", dsn, tt.wantDSN)
			}
			if d == sqlstore.SQLite && sqlstore.SQLitePath(dsn) != filepath.Join("/srv/wde", "data", "windevexpert.db") {
				t.Errorf("sqlite path = %q", sqlstore.SQLitePath(dsn))
			}
		})
	}
}

func TestBuildNotifiers(t *testing.T) {
	cfg := config.Defaults()
	if got := buildNotifiers(&cfg); len(got) != 0 {
		t.Fatalf("expected no notifier by default, got %d", len(got))
	}

	cfg.Slack.WebhookURL = "https://hooks.slack.com/services/T/B/X"
	cfg.Discord.WebhookURL = "https://discord.com/api/webhooks/1/abc"
	cfg.SMTP.Host = "smtp.exemple.fr"
	cfg.Admin.NotifyEmails = []string{"ops@exemple.fr"}
	got := buildNotifiers(&cfg)
	names := map[string]bool{}
	for _, n := range got {
		names[n.Name()] = true
	}
	if !names["email"] || !names["slack"] || !names["discord"] {
		t.Errorf("notifiers = %v, want email, slack and discord", names)
	}
}

func TestPrintUsers(t *testing.T) {
	var buf bytes.Buffer
	if err := printUsers(&buf, nil); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "No users found.") {
		t.Errorf("output = %q", buf.String())
	}

	buf.Reset()
	users := []user.User{{ID: "u1", Email: "admin@exemple.fr", Name: "Admin", Role: user.RoleAdmin, Enabled: true}}
	if err := printUsers(&buf, users); err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"EMAIL", "admin@exemple.fr", "admin", "true"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("output misses %q:\n%s", want, buf.String())
		}
	}
}
