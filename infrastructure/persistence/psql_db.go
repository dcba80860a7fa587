package persistence

import (
	"database/sql"
	"errors"
	"net/url"
	"time"

	"video-aggregator/infrastructure/configuration"

	_ "github.com/lib/pq"
)

// NewPostgreSQLDB opens the PostgreSQL database holding the video snapshot
func NewPostgreSQLDB() (*sql.DB, error) {
	cfg := configuration.C.Database.Psql
	if cfg.Host == "" || cfg.Name == "" {
		return nil, errors.New("postgres not configured")
	}

	q := url.Values{}
	q.Set("sslmode", "require")
	if isLocal(cfg.Host) {
		q.Set("sslmode", "disable")
	}
	return open("postgres", dsn("postgres", cfg, "/"+cfg.Name, q), pool{
		maxOpen:     10,
		maxIdle:     5,
		maxLifetime: 5 * time.Minute,
	})
}
