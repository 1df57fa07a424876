package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/windevexpert/windevexpert/internal/domain/install"
	"github.com/windevexpert/windevexpert/internal/wizard"
)

var checkLabels = map[string]string{
	install.CheckDatabase:       "Base de données",
	install.CheckPermissions:    "Permissions",
	install.CheckRuntimeVersion: "Version du runtime",
	install.CheckExtensions:     "Pilotes et outils",
	install.CheckSMTP:           "SMTP",
	install.CheckDirectories:    "Répertoires",
}

// renderValidation lists one badge per check in display order.
func renderValidation(v install.Validation) string {
	var b strings.Builder
	for _, name := range install.CheckNames {
		c, ok := v.Checks[name]
		if !ok {
			continue
		}
		fmt.Fprintf(&b, "%s %s : %s\n", badge(c.Status), labelStyle.Render(checkLabels[name]), c.Message)
		if c.Details != "" {
			fmt.Fprintf(&b, "    %s\n", mutedStyle.Render(c.Details))
		}
	}
	switch v.Overall {
	case install.StatusSuccess:
		b.WriteString(successStyle.Render("Toutes les vérifications sont passées."))
	case install.StatusWarning:
		b.WriteString(successStyle.Render("Vérifications terminées avec des avertissements."))
	default:
		b.WriteString(errorStyle.Render("Corrigez les erreurs avant de lancer l'installation."))
	}
	return b.String()
}

// renderLog lists every attempted step.
func renderLog(entries []wizard.LogEntry) string {
	var b strings.Builder
	for _, e := range entries {
		fmt.Fprintf(&b, "%s [%d/%d] %s", resultBadge(e.Result.Success), int(e.Step)+1, install.StepCount, e.Step.Label())
		if e.Result.Message != "" {
			fmt.Fprintf(&b, " : %s", e.Result.Message)
		}
		b.WriteByte('\n')
		if e.Result.Details != "" {
			for _, line := range strings.Split(e.Result.Details, "\n") {
				fmt.Fprintf(&b, "    %s\n", mutedStyle.Render(line))
			}
		}
	}
	return b.String()
}

// summary describes the configuration without its secrets.
func summary(c install.Config) string {
	lines := []string{
		"Site : " + c.SiteURL,
		"Administrateur : " + c.AdminEmail,
		"Base de données : " + string(c.DBType),
	}
	if c.UsesNetworkDB() {
		lines = append(lines, fmt.Sprintf("Serveur : %s:%d", c.EffectiveDBHost(), c.EffectiveDBPort()),
			"Base : "+c.DBName, "Utilisateur : "+c.DBUser)
	} else {
		lines = append(lines, "Fichier : "+c.SQLiteFile())
	}
	if c.SMTPConfigured() {
		lines = append(lines, fmt.Sprintf("SMTP : %s:%d", c.SMTPHost, c.SMTPPort))
	} else {
		lines = append(lines, "SMTP : non configuré")
	}
	return strings.Join(lines, "\n")
}

// formValues mirrors install.Config with text fields for the form inputs.
type formValues struct {
	SiteURL    string
	AdminEmail string

	DBType     string
	DBHost     string
	DBPort     string
	DBName     string
	DBUser     string
	DBPassword string

	SMTPHost     string
	SMTPPort     string
	SMTPUser     string
	SMTPPassword string
	SMTPFrom     string
}

func valuesFrom(c install.Config) formValues {
	v := formValues{
		SiteURL:      c.SiteURL,
		AdminEmail:   c.AdminEmail,
		DBType:       string(c.DBType),
		DBHost:       c.DBHost,
		DBName:       c.DBName,
		DBUser:       c.DBUser,
		DBPassword:   c.DBPassword,
		SMTPHost:     c.SMTPHost,
		SMTPUser:     c.SMTPUser,
		SMTPPassword: c.SMTPPassword,
		SMTPFrom:     c.SMTPFrom,
	}
	if c.DBPort > 0 {
		v.DBPort = strconv.Itoa(c.DBPort)
	}
	if c.SMTPPort > 0 {
		v.SMTPPort = strconv.Itoa(c.SMTPPort)
	}
	return v
}

// apply writes the form values onto base, keeping its secrets and payment
// settings. Switching engine applies the engine defaults first.
func (v formValues) apply(base install.Config) install.Config {
	c := base
	if t := install.DBType(v.DBType); t != base.DBType {
		c = c.WithDBType(t)
	}
	c.SiteURL = strings.TrimSpace(v.SiteURL)
	c.AdminEmail = strings.TrimSpace(v.AdminEmail)
	c.SMTPHost = strings.TrimSpace(v.SMTPHost)
	c.SMTPPort, _ = strconv.Atoi(strings.TrimSpace(v.SMTPPort))
	c.SMTPUser = strings.TrimSpace(v.SMTPUser)
	c.SMTPPassword = v.SMTPPassword
	c.SMTPFrom = strings.TrimSpace(v.SMTPFrom)

	if !c.UsesNetworkDB() {
		c.DBName = strings.TrimSpace(v.DBName)
		return c
	}
	if h := strings.TrimSpace(v.DBHost); h != "" {
		c.DBHost = h
	}
	// A port left at the previous engine's default follows the engine.
	p, err := strconv.Atoi(strings.TrimSpace(v.DBPort))
	if err == nil && p > 0 && (c.DBType == base.DBType || p != base.DBType.DefaultPort()) {
		c.DBPort = p
	}
	c.DBName = strings.TrimSpace(v.DBName)
	c.DBUser = strings.TrimSpace(v.DBUser)
	c.DBPassword = v.DBPassword
	return c
}

// validatePort accepts an empty value or a TCP port number.
func validatePort(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	p, err := strconv.Atoi(s)
	if err != nil || p < 1 || p > 65535 {
		return fmt.Errorf("port invalide : %q", s)
	}
	return nil
}

// adminCredentials extracts the details of the admin user step.
func adminCredentials(entries []wizard.LogEntry) string {
	for i := len(entries) - 1; i >= 0; i-- {
		if entries[i].Step == install.StepAdminUser && entries[i].Result.Success {
			return entries[i].Result.Details
		}
	}
	return ""
}
