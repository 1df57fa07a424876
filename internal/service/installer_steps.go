package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"

	"github.com/windevexpert/windevexpert/internal/config"
	"github.com/windevexpert/windevexpert/internal/domain"
	"github.com/windevexpert/windevexpert/internal/domain/install"
	"github.com/windevexpert/windevexpert/internal/domain/user"
	"github.com/windevexpert/windevexpert/internal/port/messagequeue"
	"github.com/windevexpert/windevexpert/internal/port/notifier"
)

// InitialPasswordLength is the length of the generated administrator
// password.
const InitialPasswordLength = 16

// mergeEnv overlays values onto the existing .env file. Empty values are
// skipped so reruns never erase a setting.
func (s *InstallerService) mergeEnv(values map[string]string) error {
	return s.writeEnv(values, false)
}

// replaceEnv overlays values the calling step owns outright: an empty value
// removes the key.
func (s *InstallerService) replaceEnv(values map[string]string) error {
	return s.writeEnv(values, true)
}

func (s *InstallerService) writeEnv(values map[string]string, removeEmpty bool) error {
	path := s.path(EnvFile)
	env, err := godotenv.Read(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("lecture de %s : %w", EnvFile, err)
		}
		env = map[string]string{}
	}
	for k, v := range values {
		switch {
		case v != "":
			env[k] = v
		case removeEmpty:
			delete(env, k)
		}
	}
	if err := godotenv.Write(env, path); err != nil {
		return fmt.Errorf("écriture de %s : %w", EnvFile, err)
	}
	return os.Chmod(path, 0o600)
}

func (s *InstallerService) readEnv(key string) string {
	env, err := godotenv.Read(s.path(EnvFile))
	if err != nil {
		return ""
	}
	return env[key]
}

// writeConfigFiles is step 0: .env with the application secrets and the
// server YAML file, plus the writable directories.
func (s *InstallerService) writeConfigFiles(ctx context.Context, c install.Config) (install.StepResult, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return install.StepResult{}, err
	}
	for _, d := range s.cfg.WritableDirs {
		target, err := s.within(d)
		if err != nil {
			return install.StepResult{}, err
		}
		if err := os.MkdirAll(target, 0o755); err != nil {
			return install.StepResult{}, fmt.Errorf("création de %s : %w", d, err)
		}
	}
	if err := os.MkdirAll(s.dataDir, 0o755); err != nil {
		return install.StepResult{}, fmt.Errorf("création du répertoire de données : %w", err)
	}

	token := s.readEnv("WDE_ADMIN_TOKEN")
	if token == "" {
		var err error
		if token, err = install.GeneratePassword(48); err != nil {
			return install.StepResult{}, err
		}
	}
	siteURL := strings.TrimRight(c.SiteURL, "/")
	if err := s.mergeEnv(map[string]string{
		"APP_ENV":                 "production",
		"WDE_SITE_URL":            siteURL,
		"NEXTAUTH_URL":            siteURL,
		"NEXTAUTH_SECRET":         c.NextAuthSecret,
		"ENCRYPTION_KEY":          c.EncryptionKey,
		"WDE_ADMIN_TOKEN":         token,
		"WDE_ADMIN_NOTIFY_EMAILS": c.AdminEmail,
		"WDE_DATA_DIR":            s.dataDir,
	}); err != nil {
		return install.StepResult{}, err
	}

	fileCfg := config.Defaults()
	fileCfg.Site.URL = siteURL
	fileCfg.Installer.Dir = s.dir
	fileCfg.Installer.DataDir = s.dataDir
	fileCfg.Installer.Version = s.cfg.Version
	data, err := yaml.Marshal(fileCfg)
	if err != nil {
		return install.StepResult{}, fmt.Errorf("encodage YAML : %w", err)
	}
	if err := os.WriteFile(s.path(YAMLFile), data, 0o600); err != nil {
		return install.StepResult{}, fmt.Errorf("écriture de %s : %w", YAMLFile, err)
	}
	slog.InfoContext(ctx, "install: configuration files written", "dir", s.dir)
	return install.Succeeded("Fichiers de configuration créés", EnvFile+", "+YAMLFile), nil
}

// installDependencies is step 1: run the configured command, or check that
// the required tools are on PATH.
func (s *InstallerService) installDependencies(ctx context.Context) (install.StepResult, error) {
	if len(s.cfg.DependencyCommand) > 0 {
		out, err := s.runCommand(ctx, s.dir, s.cfg.DependencyCommand)
		if err != nil {
			return install.StepResult{}, fmt.Errorf("%s : %w\n%s", strings.Join(s.cfg.DependencyCommand, " "), err, tail(out, 20))
		}
		return install.Succeeded("Dépendances installées", tail(out, 20)), nil
	}

	var missing, found []string
	for _, tool := range s.cfg.RequiredTools {
		if p, err := s.lookPath(tool); err != nil {
			missing = append(missing, tool)
		} else {
			found = append(found, p)
		}
	}
	if len(missing) > 0 {
		return install.StepResult{}, fmt.Errorf("outils manquants : %s", strings.Join(missing, ", "))
	}
	return install.Succeeded("Dépendances vérifiées", strings.Join(found, "\n")), nil
}

// tail returns the last n lines of out.
func tail(out []byte, n int) string {
	lines := strings.Split(strings.TrimRight(string(out), "\n"), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}

// configureDatabase is step 2: create/ping the database and record its URL.
func (s *InstallerService) configureDatabase(ctx context.Context, c install.Config) (install.StepResult, error) {
	if err := s.db.Prepare(ctx, c); err != nil {
		return install.StepResult{}, err
	}
	if err := s.mergeEnv(map[string]string{"DATABASE_URL": c.DatabaseURL(s.dataDir)}); err != nil {
		return install.StepResult{}, err
	}
	details := string(c.DBType)
	if c.DBType == install.DBSQLite {
		details = c.SQLitePath(s.dataDir)
	}
	return install.Succeeded("Base de données configurée", details), nil
}

// runMigrations is step 3.
func (s *InstallerService) runMigrations(ctx context.Context, c install.Config) (install.StepResult, error) {
	n, err := s.db.Migrate(ctx, c)
	if err != nil {
		return install.StepResult{}, err
	}
	if n == 0 {
		return install.Succeeded("Schéma déjà à jour", ""), nil
	}
	return install.Succeeded(fmt.Sprintf("%d migration(s) appliquée(s)", n), ""), nil
}

// createAdmin is step 4: upsert the administrator account. A new account
// gets a generated password, returned once in the details; an existing one
// keeps its password and is promoted to an enabled admin.
func (s *InstallerService) createAdmin(ctx context.Context, c install.Config) (install.StepResult, error) {
	users, closeFn, err := s.db.Users(ctx, c)
	if err != nil {
		return install.StepResult{}, err
	}
	defer closeFn()

	email := strings.ToLower(strings.TrimSpace(c.AdminEmail))
	now := s.now().UTC().Truncate(time.Microsecond)

	existing, err := users.GetUserByEmail(ctx, email)
	switch {
	case err == nil:
		if existing.Role != user.RoleAdmin || !existing.Enabled {
			role, enabled := user.RoleAdmin, true
			existing.Apply(user.UpdateRequest{Role: &role, Enabled: &enabled}, "", now)
			if err := users.UpdateUser(ctx, existing); err != nil {
				return install.StepResult{}, err
			}
		}
		return install.Succeeded("Compte administrateur existant conservé", email), nil
	case !errors.Is(err, domain.ErrNotFound):
		return install.StepResult{}, err
	}

	password, err := install.GeneratePassword(InitialPasswordLength)
	if err != nil {
		return install.StepResult{}, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return install.StepResult{}, fmt.Errorf("hachage du mot de passe : %w", err)
	}
	u := user.New(uuid.NewString(), user.CreateRequest{
		Email: email,
		Name:  "Administrateur",
		Role:  user.RoleAdmin,
	}, string(hash), now)
	if err := users.CreateUser(ctx, &u); err != nil {
		return install.StepResult{}, err
	}
	slog.InfoContext(ctx, "install: administrator created", "email", email)
	return install.Succeeded("Compte administrateur créé",
		fmt.Sprintf("Identifiant : %s\nMot de passe initial : %s", email, password)), nil
}

// configureServices is step 5: SMTP and payment settings, then an SMTP test
// message to the administrator when a relay is configured.
func (s *InstallerService) configureServices(ctx context.Context, c install.Config) (install.StepResult, error) {
	values := map[string]string{
		"WDE_SMTP_HOST":     c.SMTPHost,
		"WDE_SMTP_USER":     c.SMTPUser,
		"WDE_SMTP_PASSWORD": c.SMTPPassword,
		"WDE_SMTP_FROM":     c.SMTPFrom,
		"STRIPE_PUBLIC_KEY": c.StripePublicKey,
		"STRIPE_SECRET_KEY": c.StripeSecretKey,
		"PAYPAL_CLIENT_ID":  c.PaypalClientID,
		"PAYPAL_SECRET":     c.PaypalSecret,
		"WDE_SMTP_PORT":     "",
	}
	if c.SMTPPort > 0 {
		values["WDE_SMTP_PORT"] = strconv.Itoa(c.SMTPPort)
	}
	if err := s.replaceEnv(values); err != nil {
		return install.StepResult{}, err
	}

	if !c.SMTPConfigured() {
		return install.Succeeded("Services configurés", "SMTP non configuré, test d'envoi ignoré"), nil
	}
	if err := s.mail.SendTest(ctx, c, c.AdminEmail); err != nil {
		return install.StepResult{}, fmt.Errorf("envoi de l'email de test : %w", err)
	}
	return install.Succeeded("Services configurés", "Email de test envoyé à "+c.AdminEmail), nil
}

// lock is the content of installed.lock.
type lock struct {
	InstalledAt time.Time      `json:"installedAt"`
	Version     string         `json:"version"`
	DBType      install.DBType `json:"dbType"`
	SiteURL     string         `json:"siteUrl"`
}

func readLock(path string) (lock, error) {
	var l lock
	data, err := os.ReadFile(path) //nolint:gosec // install directory path
	if err != nil {
		return l, err
	}
	err = json.Unmarshal(data, &l)
	return l, err
}

// finalize is step 6: write the lock marker, then notify and publish the
// completion. Notification failures do not fail the step.
func (s *InstallerService) finalize(ctx context.Context, c install.Config) (install.StepResult, error) {
	l := lock{
		InstalledAt: s.now().UTC().Truncate(time.Second),
		Version:     s.cfg.Version,
		DBType:      c.DBType,
		SiteURL:     c.SiteURL,
	}
	if prev, err := readLock(s.path(LockFile)); err == nil {
		l.InstalledAt = prev.InstalledAt
	}
	data, err := json.MarshalIndent(l, "", "  ")
	if err != nil {
		return install.StepResult{}, err
	}
	if err := os.WriteFile(s.path(LockFile), data, 0o600); err != nil {
		return install.StepResult{}, fmt.Errorf("écriture de %s : %w", LockFile, err)
	}

	s.notify.Notify(ctx, notifier.Notification{
		Title:   "Installation terminée",
		Message: fmt.Sprintf("WinDevExpert %s est installé sur %s (base %s).", l.Version, l.SiteURL, l.DBType),
		Level:   "success",
		Source:  EventInstallFinalized,
	})
	if s.queue != nil {
		payload, _ := json.Marshal(messagequeue.InstallFinalizedPayload{
			SiteURL:     l.SiteURL,
			Version:     l.Version,
			DBType:      string(l.DBType),
			InstalledAt: l.InstalledAt,
		})
		if err := s.queue.Publish(ctx, messagequeue.SubjectInstallFinalized, payload); err != nil {
			slog.WarnContext(ctx, "install: publish finalized event failed", "error", err)
		}
	}
	return install.Succeeded("Installation terminée", l.InstalledAt.Format(time.RFC3339)), nil
}
