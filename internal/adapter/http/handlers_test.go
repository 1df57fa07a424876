package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/go-cmp/cmp"
	"golang.org/x/crypto/bcrypt"

	wdehttp "github.com/windevexpert/windevexpert/internal/adapter/http"
	"github.com/windevexpert/windevexpert/internal/adapter/migrations"
	"github.com/windevexpert/windevexpert/internal/adapter/sqlstore"
	"github.com/windevexpert/windevexpert/internal/adapter/storage"
	"github.com/windevexpert/windevexpert/internal/config"
	"github.com/windevexpert/windevexpert/internal/domain/course"
	"github.com/windevexpert/windevexpert/internal/domain/install"
	"github.com/windevexpert/windevexpert/internal/domain/user"
	"github.com/windevexpert/windevexpert/internal/middleware"
	"github.com/windevexpert/windevexpert/internal/service"
	"github.com/windevexpert/windevexpert/internal/wizard"
)

const testToken = "jeton-de-test"

type noMail struct{}

func (noMail) Verify(context.Context, install.Config) error           { return nil }
func (noMail) SendTest(context.Context, install.Config, string) error { return nil }

type testServer struct {
	router http.Handler
	store  *sqlstore.Store
}

func newTestServer(t *testing.T, env string) *testServer {
	t.Helper()
	ctx := context.Background()

	store, err := sqlstore.Open(ctx, sqlstore.SQLite, sqlstore.SQLiteDSN(filepath.Join(t.TempDir(), "test.db")))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(store.Close)
	if _, err := migrations.Up(ctx, store.DB(), migrations.SQLite); err != nil {
		t.Fatal(err)
	}

	cfg := config.Defaults().Installer
	cfg.Dir = t.TempDir()
	h := &wdehttp.Handlers{
		Admin:     service.NewAdminService(store, nil, bcrypt.MinCost),
		Installer: service.NewInstallerService(cfg, bcrypt.MinCost, storage.Provisioner{DataDir: cfg.DataPath()}, noMail{}),
		Env:       env,
	}

	r := chi.NewRouter()
	wdehttp.MountRoutes(r, h, wdehttp.RouteOptions{AdminToken: middleware.StaticToken(testToken)})
	return &testServer{router: r, store: store}
}

func (s *testServer) do(t *testing.T, method, path string, body any, auth bool) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if raw, ok := body.(string); ok {
			buf.WriteString(raw)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if auth {
		req.Header.Set("Authorization", "Bearer "+testToken)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(w.Body).Decode(&v); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return v
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, "production")
	w := s.do(t, http.MethodGet, "/health", nil, false)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	got := decode[map[string]any](t, w)
	if got["backend"] != "fallback" || got["database"] != "ok" || got["events"] != "disabled" {
		t.Errorf("unexpected health: %v", got)
	}
}

func TestHealthDatabaseDown(t *testing.T) {
	s := newTestServer(t, "production")
	s.store.Close()
	w := s.do(t, http.MethodGet, "/health", nil, false)
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", w.Code)
	}
}

func TestAdminRequiresToken(t *testing.T) {
	s := newTestServer(t, "production")
	if w := s.do(t, http.MethodGet, "/api/nimda/courses", nil, false); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}

	w := s.do(t, http.MethodGet, "/api/nimda/courses", nil, true)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	got := decode[map[string]any](t, w)
	for _, key := range []string{"courses", "total", "totalPages", "currentPage"} {
		if _, ok := got[key]; !ok {
			t.Errorf("envelope misses %q: %v", key, got)
		}
	}
}

func TestAdminDevBypass(t *testing.T) {
	s := newTestServer(t, "development")
	if w := s.do(t, http.MethodGet, "/api/nimda/users", nil, false); w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestCourseCRUD(t *testing.T) {
	s := newTestServer(t, "production")

	w := s.do(t, http.MethodPost, "/api/nimda/courses", course.CreateRequest{
		Title:    "WinDev avancé",
		Price:    490,
		Category: "windev",
		Lessons:  []course.LessonInput{{Title: "Introduction"}, {Title: "Requêtes SQL"}},
	}, true)
	if w.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d: %s", w.Code, w.Body.String())
	}
	created := decode[course.Course](t, w)
	if created.Slug != "windev-avance" || len(created.Lessons) != 2 {
		t.Errorf("unexpected course: %+v", created)
	}

	w = s.do(t, http.MethodGet, "/api/nimda/courses?search=AVANC&category=windev", nil, true)
	list := decode[struct {
		Courses []course.Course `json:"courses"`
		Total   int             `json:"total"`
	}](t, w)
	if list.Total != 1 || len(list.Courses) != 1 {
		t.Fatalf("search: got %+v", list)
	}

	title := "WinDev expert"
	w = s.do(t, http.MethodPut, "/api/nimda/courses/"+created.ID, course.UpdateRequest{Title: &title}, true)
	if w.Code != http.StatusOK {
		t.Fatalf("update: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if got := decode[course.Course](t, w); got.Title != title {
		t.Errorf("title = %q", got.Title)
	}

	if w = s.do(t, http.MethodDelete, "/api/nimda/courses/"+created.ID, nil, true); w.Code != http.StatusNoContent {
		t.Fatalf("delete: expected 204, got %d", w.Code)
	}
	w = s.do(t, http.MethodGet, "/api/nimda/courses/"+created.ID, nil, true)
	if w.Code != http.StatusNotFound {
		t.Fatalf("get after delete: expected 404, got %d", w.Code)
	}
	if got := decode[map[string]string](t, w); got["error"] != "formation introuvable" {
		t.Errorf("error = %q", got["error"])
	}
}

func TestCreateValidationError(t *testing.T) {
	s := newTestServer(t, "production")
	w := s.do(t, http.MethodPost, "/api/nimda/courses", course.CreateRequest{Title: "  "}, true)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if got := decode[map[string]string](t, w); got["error"] != "le titre est requis" {
		t.Errorf("error = %q", got["error"])
	}
}

func TestInvalidBody(t *testing.T) {
	s := newTestServer(t, "production")
	w := s.do(t, http.MethodPost, "/api/nimda/products", "{pas du json", true)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestDuplicateUserConflict(t *testing.T) {
	s := newTestServer(t, "production")
	req := user.CreateRequest{Email: "admin@exemple.fr", Name: "Admin", Password: "motdepasse-long", Role: user.RoleAdmin}
	if w := s.do(t, http.MethodPost, "/api/nimda/users", req, true); w.Code != http.StatusCreated {
		t.Fatalf("first create: expected 201, got %d: %s", w.Code, w.Body.String())
	}
	w := s.do(t, http.MethodPost, "/api/nimda/users", req, true)
	if w.Code != http.StatusConflict {
		t.Fatalf("duplicate: expected 409, got %d", w.Code)
	}
	if strings.Contains(w.Body.String(), "passwordHash") {
		t.Error("response leaks the password hash")
	}
}

func TestDataAccessFailureDetail(t *testing.T) {
	for _, tt := range []struct {
		env        string
		wantDetail bool
	}{
		{"production", false},
		{"development", true},
	} {
		t.Run(tt.env, func(t *testing.T) {
			s := newTestServer(t, tt.env)
			s.store.Close()

			w := s.do(t, http.MethodGet, "/api/nimda/products", nil, true)
			if w.Code != http.StatusInternalServerError {
				t.Fatalf("expected 500, got %d", w.Code)
			}
			got := decode[map[string]string](t, w)
			if got["error"] != "erreur lors de l'accès aux données" {
				t.Errorf("error = %q", got["error"])
			}
			if (got["detail"] != "") != tt.wantDetail {
				t.Errorf("detail = %q, want present=%v", got["detail"], tt.wantDetail)
			}
		})
	}
}

func sqliteInstallConfig() install.Config {
	return install.Config{
		SiteURL:         "https://www.exemple.fr",
		AdminEmail:      "admin@exemple.fr",
		DBType:          install.DBSQLite,
		NextAuthSecret:  strings.Repeat("n", install.SecretLength),
		EncryptionKey:   strings.Repeat("e", install.SecretLength),
		StripeSecretKey: "sk_test_secret",
	}
}

func TestInstallValidateConfig(t *testing.T) {
	s := newTestServer(t, "production")
	w := s.do(t, http.MethodPost, "/api/install", install.Request{
		Action: install.ActionValidateConfig,
		Config: sqliteInstallConfig(),
	}, false)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	resp := decode[install.Response](t, w)
	if _, ok := resp.Checks[install.CheckDatabase]; !ok {
		t.Errorf("missing database check: %+v", resp.Checks)
	}
	if resp.Overall == "" {
		t.Error("missing overall status")
	}
}

func TestInstallMalformedRequests(t *testing.T) {
	s := newTestServer(t, "production")
	badStep := 42
	tests := []struct {
		name string
		body any
	}{
		{"unknown action", install.Request{Action: "format_disk"}},
		{"missing step", install.Request{Action: install.ActionInstallStep, Config: sqliteInstallConfig()}},
		{"unknown step", install.Request{Action: install.ActionInstallStep, Config: sqliteInstallConfig(), Step: &badStep}},
		{"not json", "action=install_step"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if w := s.do(t, http.MethodPost, "/api/install", tt.body, false); w.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d: %s", w.Code, w.Body.String())
			}
		})
	}
}

func TestInstallStepFailureIsOK(t *testing.T) {
	s := newTestServer(t, "production")
	c := sqliteInstallConfig()
	c.AdminEmail = "pas-un-email"
	step := int(install.StepConfigFiles)

	w := s.do(t, http.MethodPost, "/api/install", install.Request{Action: install.ActionInstallStep, Config: c, Step: &step}, false)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if resp := decode[install.Response](t, w); resp.Success || resp.Message == "" {
		t.Errorf("expected a failed step with a message, got %+v", resp)
	}
}

func TestExportConfig(t *testing.T) {
	s := newTestServer(t, "production")
	w := s.do(t, http.MethodPost, "/api/install/export", install.Request{Config: sqliteInstallConfig()}, false)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, install.ExportFilename) {
		t.Errorf("Content-Disposition = %q", cd)
	}
	body := w.Body.String()
	if strings.Contains(body, "sk_test_secret") || !strings.Contains(body, install.RedactionMarker) {
		t.Errorf("export not redacted:\n%s", body)
	}
	if !strings.Contains(body, "https://www.exemple.fr") {
		t.Errorf("export lost the site URL:\n%s", body)
	}
}

func TestWizardClientExportRoundTrip(t *testing.T) {
	s := newTestServer(t, "production")
	srv := httptest.NewServer(s.router)
	defer srv.Close()

	c := sqliteInstallConfig()
	data, err := wizard.NewHTTPClient(srv.URL, nil).Export(context.Background(), c)
	if err != nil {
		t.Fatal(err)
	}
	var got install.Config
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("decode export %q: %v", data, err)
	}

	want := c
	want.NextAuthSecret = install.RedactionMarker
	want.EncryptionKey = install.RedactionMarker
	want.StripeSecretKey = install.RedactionMarker
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("export mismatch (-want +got):\n%s", diff)
	}
}

// runInstall posts every install step and fails on the first unsuccessful one.
func runInstall(t *testing.T, s *testServer, c install.Config) {
	t.Helper()
	for _, step := range install.Steps() {
		n := int(step)
		w := s.do(t, http.MethodPost, "/api/install", install.Request{Action: install.ActionInstallStep, Config: c, Step: &n}, false)
		if resp := decode[install.Response](t, w); w.Code != http.StatusOK || !resp.Success {
			t.Fatalf("step %s: %d %+v", step, w.Code, resp)
		}
	}
}

func TestInstallerLockedAfterInstall(t *testing.T) {
	s := newTestServer(t, "production")
	c := sqliteInstallConfig()
	runInstall(t, s, c)

	w := s.do(t, http.MethodGet, "/api/install/status", nil, false)
	if got := decode[service.Status](t, w); !got.Installed || got.Disabled {
		t.Fatalf("status = %+v, want installed", got)
	}

	hijack := c
	hijack.NextAuthSecret = strings.Repeat("x", install.SecretLength)
	hijack.AdminEmail = "intrus@exemple.fr"
	admin := int(install.StepAdminUser)
	configFiles := int(install.StepConfigFiles)
	tests := []struct {
		name string
		req  install.Request
	}{
		{"config files", install.Request{Action: install.ActionInstallStep, Config: hijack, Step: &configFiles}},
		{"admin user", install.Request{Action: install.ActionInstallStep, Config: hijack, Step: &admin}},
		{"test connection", install.Request{Action: install.ActionTestConnection, Config: hijack}},
		{"validate config", install.Request{Action: install.ActionValidateConfig, Config: hijack}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(t, http.MethodPost, "/api/install", tt.req, false)
			if w.Code != http.StatusConflict {
				t.Fatalf("expected 409, got %d: %s", w.Code, w.Body.String())
			}
			if got := decode[map[string]string](t, w); got["error"] != "l'installation est déjà terminée" {
				t.Errorf("error = %q", got["error"])
			}
		})
	}

	w = s.do(t, http.MethodPost, "/api/install", install.Request{Action: install.ActionInstallStep, Config: c, Step: &configFiles}, true)
	if resp := decode[install.Response](t, w); w.Code != http.StatusOK || !resp.Success {
		t.Errorf("rerun with admin token: %d %+v", w.Code, resp)
	}

	w = s.do(t, http.MethodPost, "/api/install", install.Request{Action: install.ActionCleanup, Confirm: true}, false)
	if resp := decode[install.Response](t, w); w.Code != http.StatusOK || !resp.Success {
		t.Errorf("cleanup after install: %d %+v", w.Code, resp)
	}
}

func TestInstallerGoneAfterCleanup(t *testing.T) {
	s := newTestServer(t, "production")

	w := s.do(t, http.MethodPost, "/api/install", install.Request{Action: install.ActionCleanup}, false)
	if resp := decode[install.Response](t, w); w.Code != http.StatusOK || resp.Success {
		t.Fatalf("unconfirmed cleanup: %d %+v", w.Code, resp)
	}

	w = s.do(t, http.MethodPost, "/api/install", install.Request{Action: install.ActionCleanup, Confirm: true}, false)
	if resp := decode[install.Response](t, w); !resp.Success {
		t.Fatalf("cleanup failed: %+v", resp)
	}

	for _, path := range []string{"/api/install", "/api/install/export"} {
		w = s.do(t, http.MethodPost, path, install.Request{Action: install.ActionTestConnection}, false)
		if w.Code != http.StatusGone {
			t.Errorf("%s: expected 410, got %d", path, w.Code)
		}
	}
	w = s.do(t, http.MethodGet, "/api/install/status", nil, false)
	if got := decode[service.Status](t, w); !got.Disabled {
		t.Errorf("status = %+v, want disabled", got)
	}
}
