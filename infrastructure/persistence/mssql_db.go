package persistence

import (
	"database/sql"
	"errors"
	"net/url"
	"time"

	"video-aggregator/infrastructure/configuration"

	_ "github.com/microsoft/go-mssqldb"
)

// NewMSSQLDB opens Azure SQL / SQL Server, the snapshot store in production
func NewMSSQLDB() (*sql.DB, error) {
	cfg := configuration.C.Database.Mssql
	if cfg.Name == "" {
		return nil, errors.New("mssql not configured")
	}

	q := url.Values{}
	q.Set("database", cfg.Name)
	q.Set("encrypt", "true")
	// local containers use a self-signed certificate
	if isLocal(cfg.Host) {
		q.Set("TrustServerCertificate", "true")
	}
	return open("sqlserver", dsn("sqlserver", cfg, "", q), pool{
		maxIdle:     10,
		maxIdleTime: time.Minute,
		maxLifetime: 5 * time.Minute,
	})
}
