package install

import (
	"net"
	"net/url"
	"path/filepath"
	"strconv"

	"github.com/go-sql-driver/mysql"
)

// Dialect returns the storage dialect name used by migrations and the
// fallback repositories: postgres, mysql or sqlite.
func (t DBType) Dialect() string {
	if t == DBPostgreSQL {
		return "postgres"
	}
	return string(t)
}

// SQLDriver returns the database/sql driver name registered for the engine.
func (t DBType) SQLDriver() string {
	switch t {
	case DBPostgreSQL:
		return "pgx"
	case DBMySQL:
		return "mysql"
	default:
		return "sqlite"
	}
}

// SQLitePath returns the database file location for a SQLite deployment.
func (c Config) SQLitePath(dataDir string) string {
	if filepath.IsAbs(c.SQLiteFile()) {
		return c.SQLiteFile()
	}
	return filepath.Join(dataDir, c.SQLiteFile())
}

// DSN returns the database/sql data source name for the configured engine.
func (c Config) DSN(dataDir string) string {
	switch c.DBType {
	case DBPostgreSQL:
		return c.DatabaseURL(dataDir)
	case DBMySQL:
		m := mysql.NewConfig()
		m.User = c.DBUser
		m.Passwd = c.DBPassword
		m.Net = "tcp"
		m.Addr = net.JoinHostPort(c.EffectiveDBHost(), strconv.Itoa(c.EffectiveDBPort()))
		m.DBName = c.DBName
		m.ParseTime = true
		m.Params = map[string]string{"charset": "utf8mb4"}
		return m.FormatDSN()
	default:
		return "file:" + c.SQLitePath(dataDir) + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	}
}

// DatabaseURL returns the URL form recorded as DATABASE_URL.
func (c Config) DatabaseURL(dataDir string) string {
	switch c.DBType {
	case DBPostgreSQL, DBMySQL:
		scheme := "postgres"
		if c.DBType == DBMySQL {
			scheme = "mysql"
		}
		u := url.URL{
			Scheme: scheme,
			User:   url.UserPassword(c.DBUser, c.DBPassword),
			Host:   net.JoinHostPort(c.EffectiveDBHost(), strconv.Itoa(c.EffectiveDBPort())),
			Path:   "/" + c.DBName,
		}
		if c.DBType == DBPostgreSQL {
			u.RawQuery = "sslmode=disable"
		}
		return u.String()
	default:
		return "file:" + c.SQLitePath(dataDir)
	}
}
