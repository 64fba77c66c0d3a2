package persistence

import (
	"database/sql"
	"fmt"
	"net/url"
	"time"

	"creator-hub/infrastructure/configuration"

	_ "github.com/microsoft/go-mssqldb"
)

// NewMSSQLDB opens the Azure SQL / SQL Server credential store used on the
// production path.
func NewMSSQLDB() (*sql.DB, error) {
	cfg := configuration.C.Database.Mssql

	params := url.Values{}
	if cfg.Name != "" {
		params.Set("database", cfg.Name)
	}
	// Azure SQL requires encryption. Local dev containers present a
	// self-signed certificate, so trust it for localhost hosts.
	params.Set("encrypt", "true")
	if cfg.Host == "localhost" || cfg.Host == "127.0.0.1" {
		params.Set("TrustServerCertificate", "true")
	}

	dsnURL := &url.URL{
		Scheme:   "sqlserver",
		Host:     fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		RawQuery: params.Encode(),
	}
	if cfg.User != "" {
		if cfg.Password != "" {
			dsnURL.User = url.UserPassword(cfg.User, cfg.Password)
		} else {
			dsnURL.User = url.User(cfg.User)
		}
	}

	db, err := sql.Open("sqlserver", dsnURL.String())
	if err != nil {
		return nil, err
	}
	db.SetMaxIdleConns(10)
	db.SetConnMaxIdleTime(time.Minute)
	db.SetConnMaxLifetime(5 * time.Minute)
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}
