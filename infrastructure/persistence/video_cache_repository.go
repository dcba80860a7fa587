package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"video-aggregator/domain/model"
	"video-aggregator/infrastructure/logger"
)

const (
	pgSelectVideo = `SELECT data, expires_at FROM video_cache WHERE file_code=$1`
	pgUpsertVideo = `INSERT INTO video_cache(file_code, source, data, uploaded_at, expires_at, updated_at)
		  VALUES ($1,$2,$3,$4,$5,$6)
		  ON CONFLICT (file_code) DO UPDATE SET source=EXCLUDED.source, data=EXCLUDED.data, uploaded_at=EXCLUDED.uploaded_at, expires_at=EXCLUDED.expires_at, updated_at=EXCLUDED.updated_at`
	pgCountVideos   = `SELECT COUNT(1) FROM video_cache WHERE expires_at > $1`
	pgListVideos    = `SELECT data FROM video_cache WHERE expires_at > $1 ORDER BY uploaded_at DESC NULLS LAST, file_code LIMIT $2 OFFSET $3`
	pgDeleteExpired = `DELETE FROM video_cache WHERE expires_at < $1`
)

// EnsureVideoCacheSchema creates the table for the persistent video snapshot if not exists
func EnsureVideoCacheSchema(db *sql.DB) error {
	ddl := `CREATE TABLE IF NOT EXISTS video_cache (
        file_code TEXT PRIMARY KEY,
        source TEXT NOT NULL,
        data JSONB NOT NULL,
        uploaded_at TIMESTAMPTZ NULL,
        expires_at TIMESTAMPTZ NOT NULL,
        updated_at TIMESTAMPTZ NOT NULL
    )`
	if _, err := db.Exec(ddl); err != nil {
		return fmt.Errorf("create video_cache table: %w", err)
	}

	if _, err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_video_cache_expires_at ON video_cache(expires_at)`); err != nil {
		logger.GetLogger().WithField("error", err).Warn("failed creating idx_video_cache_expires_at")
	}
	if _, err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_video_cache_uploaded_at ON video_cache(uploaded_at DESC)`); err != nil {
		logger.GetLogger().WithField("error", err).Warn("failed creating idx_video_cache_uploaded_at")
	}
	return nil
}

// VideoCacheRepository stores normalized videos as JSONB rows with an expiry
type VideoCacheRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewVideoCacheRepository(db *sql.DB) *VideoCacheRepository {
	return &VideoCacheRepository{db: db, now: time.Now}
}

func (r *VideoCacheRepository) Vendor() string { return "postgres" }

// GetVideo returns a cached video and its expiry time if present and not expired
func (r *VideoCacheRepository) GetVideo(ctx context.Context, fileCode string) (*model.Video, *time.Time, error) {
	if r.db == nil {
		return nil, nil, nil
	}
	var raw []byte
	var expiresAt time.Time
	if err := r.db.QueryRowContext(ctx, pgSelectVideo, fileCode).Scan(&raw, &expiresAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, nil
		}
		return nil, nil, err
	}
	// expired rows are a miss, the expiry is still reported
	if r.now().After(expiresAt) {
		return nil, &expiresAt, nil
	}
	var v model.Video
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, nil, err
	}
	return &v, &expiresAt, nil
}

// UpsertVideos bulk upserts videos in one transaction
func (r *VideoCacheRepository) UpsertVideos(ctx context.Context, videos []model.Video, ttl time.Duration) (err error) {
	if r.db == nil || len(videos) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, pgUpsertVideo)
	if err != nil {
		return err
	}
	defer stmt.Close()

	now := r.now().UTC()
	exp := now.Add(ttl)
	for i := range videos {
		raw, mErr := json.Marshal(&videos[i])
		if mErr != nil {
			return mErr
		}
		if _, err = stmt.ExecContext(ctx, videos[i].FileCode, videos[i].Source, raw, nullTime(videos[i].UploadedAt), exp, now); err != nil {
			return fmt.Errorf("upsert video %s: %w", videos[i].FileCode, err)
		}
	}
	return tx.Commit()
}

// ListVideos returns unexpired videos ordered by uploaded_at desc with pagination
func (r *VideoCacheRepository) ListVideos(ctx context.Context, limit, offset int) ([]model.Video, int64, error) {
	if r.db == nil {
		return nil, 0, nil
	}
	limit, offset = clampPage(limit, offset)
	now := r.now().UTC()

	var total int64
	if err := r.db.QueryRowContext(ctx, pgCountVideos, now).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.db.QueryContext(ctx, pgListVideos, now, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out, err := scanVideos(rows, limit)
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// DeleteExpired removes rows whose expiry is before the cutoff
func (r *VideoCacheRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	if r.db == nil {
		return 0, nil
	}
	res, err := r.db.ExecContext(ctx, pgDeleteExpired, before.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func nullTime(t time.Time) interface{} {
	if t.IsZero() {
		return nil
	}
	return t.UTC()
}

func clampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = 25
	}
	if limit > 1000 {
		limit = 1000
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// scanVideos decodes one JSON column per row
func scanVideos(rows *sql.Rows, capacity int) ([]model.Video, error) {
	out := make([]model.Video, 0, capacity)
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		var v model.Video
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
