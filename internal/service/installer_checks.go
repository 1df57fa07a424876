package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"go/version"
	"io/fs"
	"os"
	"slices"
	"strings"

	"github.com/windevexpert/windevexpert/internal/adapter/storage"
	"github.com/windevexpert/windevexpert/internal/domain/install"
)

// Validate runs the six environment checks. It has no lasting side effects,
// so repeated calls with the same configuration and environment agree.
func (s *InstallerService) Validate(ctx context.Context, c install.Config) install.Validation {
	checks := map[string]install.CheckResult{
		install.CheckDatabase:       s.checkDatabase(ctx, c),
		install.CheckPermissions:    s.checkPermissions(),
		install.CheckRuntimeVersion: s.checkRuntimeVersion(),
		install.CheckExtensions:     s.checkExtensions(c),
		install.CheckSMTP:           s.checkSMTP(ctx, c),
		install.CheckDirectories:    s.checkDirectories(),
	}
	return install.NewValidation(checks)
}

func checkOK(msg string) install.CheckResult {
	return install.CheckResult{Status: install.StatusSuccess, Message: msg}
}

func checkWarn(msg, details string) install.CheckResult {
	return install.CheckResult{Status: install.StatusWarning, Message: msg, Details: details}
}

func checkFail(msg, details string) install.CheckResult {
	return install.CheckResult{Status: install.StatusError, Message: msg, Details: details}
}

func (s *InstallerService) checkDatabase(ctx context.Context, c install.Config) install.CheckResult {
	if !c.DBType.IsValid() {
		return checkFail("Type de base de données inconnu", string(c.DBType))
	}
	if err := s.db.Check(ctx, c); err != nil {
		return checkFail("Connexion à la base de données impossible", err.Error())
	}
	return checkOK("Base de données accessible")
}

func (s *InstallerService) checkPermissions() install.CheckResult {
	if err := storage.CheckWritable(s.dir); err != nil {
		return checkFail("Le répertoire d'installation n'est pas accessible en écriture", err.Error())
	}
	return checkOK("Répertoire d'installation accessible en écriture")
}

func (s *InstallerService) checkRuntimeVersion() install.CheckResult {
	if !version.IsValid(s.goVersion) {
		return checkWarn("Version du runtime non reconnue", s.goVersion)
	}
	if s.cfg.MinGoVersion != "" && version.Compare(s.goVersion, s.cfg.MinGoVersion) < 0 {
		return checkFail(fmt.Sprintf("Version %s requise", s.cfg.MinGoVersion), s.goVersion)
	}
	return install.CheckResult{Status: install.StatusSuccess, Message: "Version du runtime compatible", Details: s.goVersion}
}

func (s *InstallerService) checkExtensions(c install.Config) install.CheckResult {
	if c.DBType.IsValid() && !slices.Contains(sql.Drivers(), c.DBType.SQLDriver()) {
		return checkFail("Pilote de base de données absent", c.DBType.SQLDriver())
	}
	var missing []string
	for _, tool := range s.cfg.RequiredTools {
		if _, err := s.lookPath(tool); err != nil {
			missing = append(missing, tool)
		}
	}
	if len(missing) > 0 {
		return checkWarn("Outils manquants", strings.Join(missing, ", "))
	}
	return checkOK("Pilotes et outils requis présents")
}

func (s *InstallerService) checkSMTP(ctx context.Context, c install.Config) install.CheckResult {
	if !c.SMTPConfigured() {
		return checkWarn("SMTP non configuré, aucun email ne sera envoyé", "")
	}
	if err := s.mail.Verify(ctx, c); err != nil {
		return checkWarn("Serveur SMTP injoignable", err.Error())
	}
	return checkOK("Serveur SMTP joignable")
}

// checkDirectories reports each writable directory. A missing directory is
// a warning since step 0 creates it.
func (s *InstallerService) checkDirectories() install.CheckResult {
	var missing, broken []string
	for _, d := range s.cfg.WritableDirs {
		target, err := s.within(d)
		if err != nil {
			broken = append(broken, d)
			continue
		}
		info, err := os.Stat(target)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			missing = append(missing, d)
		case err != nil || !info.IsDir():
			broken = append(broken, d)
		default:
			if storage.CheckWritable(target) != nil {
				broken = append(broken, d)
			}
		}
	}
	switch {
	case len(broken) > 0:
		return checkFail("Répertoires non accessibles en écriture", strings.Join(broken, ", "))
	case len(missing) > 0:
		return checkWarn("Répertoires absents, ils seront créés", strings.Join(missing, ", "))
	}
	return checkOK("Répertoires accessibles en écriture")
}
