package persistence

import (
	"database/sql"
	"fmt"
	"net/url"
	"time"

	"video-aggregator/infrastructure/configuration"
)

type pool struct {
	maxOpen     int
	maxIdle     int
	maxIdleTime time.Duration
	maxLifetime time.Duration
}

func isLocal(host string) bool {
	return host == "localhost" || host == "127.0.0.1"
}

func dsn(scheme string, cfg configuration.Db, path string, q url.Values) string {
	u := &url.URL{Scheme: scheme, Host: fmt.Sprintf("%s:%s", cfg.Host, cfg.Port), Path: path, RawQuery: q.Encode()}
	switch {
	case cfg.User != "" && cfg.Password != "":
		u.User = url.UserPassword(cfg.User, cfg.Password)
	case cfg.User != "":
		u.User = url.User(cfg.User)
	}
	return u.String()
}

// open connects and pings so a bad config fails at startup, not on first query
func open(driver, dataSource string, p pool) (*sql.DB, error) {
	db, err := sql.Open(driver, dataSource)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if p.maxOpen > 0 {
		db.SetMaxOpenConns(p.maxOpen)
	}
	db.SetMaxIdleConns(p.maxIdle)
	if p.maxIdleTime > 0 {
		db.SetConnMaxIdleTime(p.maxIdleTime)
	}
	db.SetConnMaxLifetime(p.maxLifetime)
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}
	return db, nil
}
