package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"time"

	wdeotel "github.com/windevexpert/windevexpert/internal/adapter/otel"
	"github.com/windevexpert/windevexpert/internal/config"
	"github.com/windevexpert/windevexpert/internal/domain"
	"github.com/windevexpert/windevexpert/internal/domain/install"
	"github.com/windevexpert/windevexpert/internal/port/database"
	"github.com/windevexpert/windevexpert/internal/port/messagequeue"
)

// ErrInstallerDisabled is returned for every action once the installer was
// cleaned up.
var ErrInstallerDisabled = errors.New("installer disabled")

// ErrAlreadyInstalled is returned for every action but cleanup once
// installed.lock exists, unless the context carries an operator.
var ErrAlreadyInstalled = errors.New("installation already completed")

type operatorCtxKey struct{}

// AsOperator marks ctx as coming from an authenticated operator, who may
// rerun actions on a completed installation.
func AsOperator(ctx context.Context) context.Context {
	return context.WithValue(ctx, operatorCtxKey{}, true)
}

func isOperator(ctx context.Context) bool {
	ok, _ := ctx.Value(operatorCtxKey{}).(bool)
	return ok
}

// Marker files written into the install directory.
const (
	EnvFile        = ".env"
	YAMLFile       = config.DefaultConfigFile
	LockFile       = "installed.lock"
	DisabledMarker = "installer.disabled"
)

// DatabaseProvisioner is the database side of an installation.
type DatabaseProvisioner interface {
	Check(ctx context.Context, c install.Config) error
	Prepare(ctx context.Context, c install.Config) error
	Migrate(ctx context.Context, c install.Config) (int, error)
	Users(ctx context.Context, c install.Config) (database.UserRepository, func(), error)
}

// MailProbe exercises the SMTP relay entered in the wizard.
type MailProbe interface {
	Verify(ctx context.Context, c install.Config) error
	SendTest(ctx context.Context, c install.Config, to string) error
}

// InstallerService executes installation actions. It keeps no state between
// requests; sequencing belongs to the wizard.
type InstallerService struct {
	cfg        config.Installer
	dir        string
	dataDir    string
	bcryptCost int
	db         DatabaseProvisioner
	mail       MailProbe
	notify     *NotificationService
	queue      messagequeue.Queue
	metrics    *wdeotel.Metrics

	now        func() time.Time
	goVersion  string
	lookPath   func(string) (string, error)
	runCommand func(ctx context.Context, dir string, argv []string) ([]byte, error)
}

// NewInstallerService creates the executor for the install directory of cfg.
func NewInstallerService(cfg config.Installer, bcryptCost int, db DatabaseProvisioner, mail MailProbe) *InstallerService {
	dir, err := filepath.Abs(cfg.Dir)
	if err != nil {
		dir = cfg.Dir
	}
	cfg.Dir = dir
	return &InstallerService{
		cfg:        cfg,
		dir:        dir,
		dataDir:    cfg.DataPath(),
		bcryptCost: bcryptCost,
		db:         db,
		mail:       mail,
		now:        time.Now,
		goVersion:  runtime.Version(),
		lookPath:   exec.LookPath,
		runCommand: runCommand,
	}
}

// SetNotifier enables the completion notification.
func (s *InstallerService) SetNotifier(n *NotificationService) { s.notify = n }

// SetQueue enables publication of the install.finalized event.
func (s *InstallerService) SetQueue(q messagequeue.Queue) { s.queue = q }

// SetMetrics enables action and step counters.
func (s *InstallerService) SetMetrics(m *wdeotel.Metrics) { s.metrics = m }

// Dir returns the absolute install directory.
func (s *InstallerService) Dir() string { return s.dir }

// DataDir returns the absolute data directory.
func (s *InstallerService) DataDir() string { return s.dataDir }

func (s *InstallerService) path(name string) string { return filepath.Join(s.dir, name) }

// Disabled reports whether cleanup_installer already ran.
func (s *InstallerService) Disabled() bool {
	_, err := os.Stat(s.path(DisabledMarker))
	return err == nil
}

// Installed reports whether the finalize step wrote installed.lock.
func (s *InstallerService) Installed() bool {
	_, err := os.Stat(s.path(LockFile))
	return err == nil
}

// Status describes the installation state of the deployment.
type Status struct {
	Installed   bool       `json:"installed"`
	Disabled    bool       `json:"disabled"`
	Version     string     `json:"version,omitempty"`
	InstalledAt *time.Time `json:"installedAt,omitempty"`
}

// Status reads the lock and disabled markers.
func (s *InstallerService) Status() Status {
	st := Status{Disabled: s.Disabled()}
	if lock, err := readLock(s.path(LockFile)); err == nil {
		st.Installed = true
		st.Version = lock.Version
		st.InstalledAt = &lock.InstalledAt
	}
	return st
}

// Handle dispatches one installer request. Only a disabled installer, a
// completed installation or a malformed request produce an error; everything
// else is reported in the response. Once installed, only cleanup_installer
// stays open to anonymous callers.
func (s *InstallerService) Handle(ctx context.Context, req install.Request) (resp install.Response, err error) {
	if s.Disabled() {
		return install.Response{}, ErrInstallerDisabled
	}
	if !req.Action.IsValid() {
		return install.Response{}, domain.Validationf("action inconnue : %q", req.Action)
	}
	if req.Action != install.ActionCleanup && s.Installed() && !isOperator(ctx) {
		return install.Response{}, ErrAlreadyInstalled
	}

	ctx, span := wdeotel.StartInstallActionSpan(ctx, string(req.Action))
	defer func() {
		wdeotel.EndSpan(span, err)
		s.metrics.RecordAction(ctx, string(req.Action), err == nil && resp.Success)
	}()

	switch req.Action {
	case install.ActionTestConnection:
		return install.Response{StepResult: s.TestConnection(ctx, req.Config)}, nil
	case install.ActionValidateConfig:
		v := s.Validate(ctx, req.Config)
		return validationResponse(v), nil
	case install.ActionInstallStep:
		if req.Step == nil {
			return install.Response{}, domain.Validationf("le numéro d'étape est requis")
		}
		step := install.Step(*req.Step)
		if !step.Valid() {
			return install.Response{}, domain.Validationf("étape inconnue : %d", *req.Step)
		}
		return install.Response{StepResult: s.RunStep(ctx, step, req.Config)}, nil
	case install.ActionCleanup:
		return install.Response{StepResult: s.Cleanup(ctx, req.Confirm)}, nil
	}
	return install.Response{}, domain.Validationf("action inconnue : %q", req.Action)
}

func validationResponse(v install.Validation) install.Response {
	r := install.Response{Checks: v.Checks, Overall: v.Overall}
	switch v.Overall {
	case install.StatusSuccess:
		r.StepResult = install.Succeeded("Toutes les vérifications sont passées", "")
	case install.StatusWarning:
		r.StepResult = install.Succeeded("Vérifications terminées avec des avertissements", "")
	default:
		r.StepResult = install.Failed("Certaines vérifications ont échoué")
	}
	return r
}

// TestConnection opens the configured database and pings it. The driver
// error is surfaced as-is to help self-hosted troubleshooting.
func (s *InstallerService) TestConnection(ctx context.Context, c install.Config) install.StepResult {
	if !c.DBType.IsValid() {
		return install.Failed(fmt.Sprintf("Type de base de données inconnu : %q", c.DBType))
	}
	if err := s.db.Check(ctx, c); err != nil {
		slog.WarnContext(ctx, "install: test connection failed", "db_type", c.DBType, "error", err)
		return install.Failed(fmt.Sprintf("Connexion impossible : %v", err))
	}
	return install.Succeeded("Connexion à la base de données réussie", string(c.DBType))
}

// RunStep executes one provisioning step. Errors and panics become a failed
// result; side effects already applied are kept.
func (s *InstallerService) RunStep(ctx context.Context, step install.Step, c install.Config) (res install.StepResult) {
	ctx, span := wdeotel.StartInstallStepSpan(ctx, int(step), step.String())
	start := time.Now()
	log := slog.With("step", int(step), "name", step.String())

	defer func() {
		if r := recover(); r != nil {
			log.ErrorContext(ctx, "install: step panicked", "panic", r)
			res = install.Failed(fmt.Sprintf("Erreur interne pendant « %s » : %v", step.Label(), r))
		}
		var spanErr error
		if !res.Success {
			spanErr = errors.New(res.Message)
		}
		wdeotel.EndSpan(span, spanErr)
		s.metrics.RecordStep(ctx, step.String(), res.Success, time.Since(start).Seconds())
	}()

	if ferr := c.ValidateFields(); ferr != nil {
		return install.Failed(fmt.Sprintf("Configuration invalide : %s", ferr.Message))
	}

	var err error
	switch step {
	case install.StepConfigFiles:
		res, err = s.writeConfigFiles(ctx, c)
	case install.StepDependencies:
		res, err = s.installDependencies(ctx)
	case install.StepDatabaseConfig:
		res, err = s.configureDatabase(ctx, c)
	case install.StepMigrations:
		res, err = s.runMigrations(ctx, c)
	case install.StepAdminUser:
		res, err = s.createAdmin(ctx, c)
	case install.StepServices:
		res, err = s.configureServices(ctx, c)
	case install.StepFinalize:
		res, err = s.finalize(ctx, c)
	default:
		return install.Failed(fmt.Sprintf("Étape inconnue : %d", int(step)))
	}
	if err != nil {
		log.ErrorContext(ctx, "install: step failed", "error", err)
		return install.Failed(fmt.Sprintf("%s : %v", step.Label(), err))
	}
	log.InfoContext(ctx, "install: step completed")
	return res
}

// Cleanup removes the configured installer paths and disables the
// installer for good.
func (s *InstallerService) Cleanup(ctx context.Context, confirm bool) install.StepResult {
	if !confirm {
		return install.Failed("La suppression de l'installateur doit être confirmée")
	}
	var removed []string
	for _, p := range s.cfg.RemovePaths {
		target, err := s.within(p)
		if err != nil {
			return install.Failed(err.Error())
		}
		if err := os.RemoveAll(target); err != nil {
			slog.ErrorContext(ctx, "install: cleanup failed", "path", target, "error", err)
			return install.Failed(fmt.Sprintf("Impossible de supprimer %s : %v", p, err))
		}
		removed = append(removed, p)
	}
	stamp := []byte(s.now().UTC().Format(time.RFC3339) + "\n")
	if err := os.WriteFile(s.path(DisabledMarker), stamp, 0o600); err != nil {
		return install.Failed(fmt.Sprintf("Impossible de désactiver l'installateur : %v", err))
	}
	slog.InfoContext(ctx, "install: installer removed", "paths", removed)
	return install.Succeeded("L'installateur a été supprimé", fmt.Sprintf("%d élément(s) supprimé(s)", len(removed)))
}

// within resolves p inside the install directory and rejects paths that
// escape it.
func (s *InstallerService) within(p string) (string, error) {
	if filepath.IsAbs(p) {
		return "", fmt.Errorf("chemin absolu refusé : %s", p)
	}
	target := filepath.Join(s.dir, p)
	rel, err := filepath.Rel(s.dir, target)
	if err != nil || rel == "." || rel == ".." || filepath.IsAbs(rel) || len(rel) > 2 && rel[:3] == ".."+string(filepath.Separator) {
		return "", fmt.Errorf("chemin hors du répertoire d'installation refusé : %s", p)
	}
	return target, nil
}

func runCommand(ctx context.Context, dir string, argv []string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...) //nolint:gosec // operator-configured command
	cmd.Dir = dir
	return cmd.CombinedOutput()
}
