// Package install defines the guided installation data model: the
// configuration assembled by the wizard, the per-check validation report and
// the ordered provisioning steps.
package install

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/windevexpert/windevexpert/internal/domain"
)

// DBType is the database engine chosen for the deployment.
type DBType string

const (
	DBSQLite     DBType = "sqlite"
	DBMySQL      DBType = "mysql"
	DBPostgreSQL DBType = "postgresql"
)

// ValidDBTypes lists the supported engines in the order they are offered.
var ValidDBTypes = []DBType{DBSQLite, DBMySQL, DBPostgreSQL}

// IsValid reports whether t is a supported engine.
func (t DBType) IsValid() bool {
	switch t {
	case DBSQLite, DBMySQL, DBPostgreSQL:
		return true
	}
	return false
}

// DefaultPort returns the conventional port of the engine, 0 for SQLite.
func (t DBType) DefaultPort() int {
	switch t {
	case DBMySQL:
		return 3306
	case DBPostgreSQL:
		return 5432
	default:
		return 0
	}
}

// DefaultSQLiteFile is the database file used when a SQLite deployment
// leaves dbName empty.
const DefaultSQLiteFile = "windevexpert.db"

// Config is the installation configuration. Field names match the JSON
// contract shared with the browser wizard.
type Config struct {
	SiteURL    string `json:"siteUrl" yaml:"site_url"`
	AdminEmail string `json:"adminEmail" yaml:"admin_email"`

	DBType     DBType `json:"dbType" yaml:"db_type"`
	DBHost     string `json:"dbHost,omitempty" yaml:"db_host,omitempty"`
	DBPort     int    `json:"dbPort,omitempty" yaml:"db_port,omitempty"`
	DBName     string `json:"dbName,omitempty" yaml:"db_name,omitempty"`
	DBUser     string `json:"dbUser,omitempty" yaml:"db_user,omitempty"`
	DBPassword string `json:"dbPassword,omitempty" yaml:"db_password,omitempty"`

	NextAuthSecret string `json:"nextauthSecret" yaml:"nextauth_secret"`
	EncryptionKey  string `json:"encryptionKey" yaml:"encryption_key"`

	SMTPHost     string `json:"smtpHost,omitempty" yaml:"smtp_host,omitempty"`
	SMTPPort     int    `json:"smtpPort,omitempty" yaml:"smtp_port,omitempty"`
	SMTPUser     string `json:"smtpUser,omitempty" yaml:"smtp_user,omitempty"`
	SMTPPassword string `json:"smtpPassword,omitempty" yaml:"smtp_password,omitempty"`
	SMTPFrom     string `json:"smtpFrom,omitempty" yaml:"smtp_from,omitempty"`

	StripePublicKey string `json:"stripePublicKey,omitempty" yaml:"stripe_public_key,omitempty"`
	StripeSecretKey string `json:"stripeSecretKey,omitempty" yaml:"stripe_secret_key,omitempty"`
	PaypalClientID  string `json:"paypalClientId,omitempty" yaml:"paypal_client_id,omitempty"`
	PaypalSecret    string `json:"paypalSecret,omitempty" yaml:"paypal_secret,omitempty"`
}

// NewConfig returns the configuration a wizard starts from: SQLite selected
// and both application secrets freshly generated.
func NewConfig() (Config, error) {
	c := Config{DBType: DBSQLite}
	var err error
	if c.NextAuthSecret, err = GenerateSecret(); err != nil {
		return Config{}, err
	}
	if c.EncryptionKey, err = GenerateSecret(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// WithDBType switches the engine and applies its defaults: the port of the
// engine, and for SQLite the removal of every network/credential field.
func (c Config) WithDBType(t DBType) Config {
	c.DBType = t
	c.DBPort = t.DefaultPort()
	if t == DBSQLite {
		c.DBHost = ""
		c.DBUser = ""
		c.DBPassword = ""
		return c
	}
	if c.DBHost == "" {
		c.DBHost = "localhost"
	}
	return c
}

// UsesNetworkDB reports whether host, port, name and user are relevant.
func (c Config) UsesNetworkDB() bool { return c.DBType != DBSQLite }

// Field names as exposed to the wizard, in validation order.
const (
	FieldSiteURL    = "siteUrl"
	FieldAdminEmail = "adminEmail"
	FieldDBType     = "dbType"
	FieldDBName     = "dbName"
	FieldDBUser     = "dbUser"
	FieldDBPort     = "dbPort"
	FieldSMTPPort   = "smtpPort"
)

// FieldError reports the first offending field of a configuration.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// IsEmail reports whether s has the basic local@domain.tld shape.
func IsEmail(s string) bool {
	return domain.IsEmail(s)
}

// IsAbsoluteURL reports whether s parses as an absolute http(s) URL.
func IsAbsoluteURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// ValidateFields checks required fields and value shapes, returning the
// first offending field or nil.
func (c Config) ValidateFields() *FieldError {
	if strings.TrimSpace(c.SiteURL) == "" {
		return &FieldError{Field: FieldSiteURL, Message: "L'URL du site est requise"}
	}
	if !IsAbsoluteURL(c.SiteURL) {
		return &FieldError{Field: FieldSiteURL, Message: "L'URL du site n'est pas valide"}
	}
	if strings.TrimSpace(c.AdminEmail) == "" {
		return &FieldError{Field: FieldAdminEmail, Message: "L'email administrateur est requis"}
	}
	if !IsEmail(c.AdminEmail) {
		return &FieldError{Field: FieldAdminEmail, Message: "L'email administrateur n'est pas valide"}
	}
	if !c.DBType.IsValid() {
		return &FieldError{Field: FieldDBType, Message: "Type de base de données inconnu"}
	}
	if c.UsesNetworkDB() {
		if strings.TrimSpace(c.DBName) == "" {
			return &FieldError{Field: FieldDBName, Message: "Le nom de la base de données est requis"}
		}
		if strings.TrimSpace(c.DBUser) == "" {
			return &FieldError{Field: FieldDBUser, Message: "L'utilisateur de la base de données est requis"}
		}
		if c.DBPort < 0 || c.DBPort > 65535 {
			return &FieldError{Field: FieldDBPort, Message: "Le port de la base de données n'est pas valide"}
		}
	}
	if c.SMTPPort < 0 || c.SMTPPort > 65535 {
		return &FieldError{Field: FieldSMTPPort, Message: "Le port SMTP n'est pas valide"}
	}
	return nil
}

// SMTPConfigured reports whether an SMTP relay was provided.
func (c Config) SMTPConfigured() bool { return c.SMTPHost != "" }

// EffectiveDBPort returns the configured port or the engine default.
func (c Config) EffectiveDBPort() int {
	if c.DBPort > 0 {
		return c.DBPort
	}
	return c.DBType.DefaultPort()
}

// EffectiveDBHost returns the configured host or localhost.
func (c Config) EffectiveDBHost() string {
	if c.DBHost != "" {
		return c.DBHost
	}
	return "localhost"
}

// SQLiteFile returns the SQLite database file name.
func (c Config) SQLiteFile() string {
	if c.DBName != "" {
		return c.DBName
	}
	return DefaultSQLiteFile
}
