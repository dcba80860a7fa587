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
	msSelectVideo = `SELECT data, expires_at FROM dbo.video_cache WHERE file_code=@p1`
	msMergeVideo  = `MERGE dbo.video_cache AS target
USING (SELECT @p1 AS file_code) AS src
ON (target.file_code = src.file_code)
WHEN MATCHED THEN UPDATE SET source=@p2, data=@p3, uploaded_at=@p4, expires_at=@p5, updated_at=@p6
WHEN NOT MATCHED THEN INSERT (file_code, source, data, uploaded_at, expires_at, updated_at)
VALUES (@p1, @p2, @p3, @p4, @p5, @p6);`
	msCountVideos = `SELECT COUNT(1) FROM dbo.video_cache WHERE expires_at > @p1`
	msListVideos  = `SELECT data FROM dbo.video_cache WHERE expires_at > @p1
ORDER BY uploaded_at DESC, file_code
OFFSET @p2 ROWS FETCH NEXT @p3 ROWS ONLY`
	msDeleteExpired = `DELETE FROM dbo.video_cache WHERE expires_at < @p1`
)

// EnsureVideoCacheSchemaMSSQL creates the snapshot table on MSSQL if not exists
func EnsureVideoCacheSchemaMSSQL(db *sql.DB) error {
	if db == nil {
		return fmt.Errorf("db is nil")
	}
	ddl := `IF NOT EXISTS (SELECT * FROM sys.objects WHERE object_id = OBJECT_ID(N'dbo.video_cache') AND type in (N'U'))
BEGIN
    CREATE TABLE dbo.video_cache (
        file_code NVARCHAR(64) NOT NULL PRIMARY KEY,
        source NVARCHAR(32) NOT NULL,
        data NVARCHAR(MAX) NOT NULL,
        uploaded_at DATETIMEOFFSET NULL,
        expires_at DATETIMEOFFSET NOT NULL,
        updated_at DATETIMEOFFSET NOT NULL
    );
END`
	if _, err := db.Exec(ddl); err != nil {
		return fmt.Errorf("create video_cache table (mssql): %w", err)
	}
	if _, err := db.Exec(`IF NOT EXISTS (SELECT * FROM sys.indexes WHERE name = 'idx_video_cache_expires_at' AND object_id = OBJECT_ID('dbo.video_cache'))
CREATE INDEX idx_video_cache_expires_at ON dbo.video_cache(expires_at)`); err != nil {
		logger.GetLogger().WithField("error", err).Warn("failed creating idx_video_cache_expires_at (mssql)")
	}
	return nil
}

// VideoCacheRepositoryMSSQL implements IVideoCache on MSSQL
type VideoCacheRepositoryMSSQL struct {
	db  *sql.DB
	now func() time.Time
}

func NewVideoCacheRepositoryMSSQL(db *sql.DB) *VideoCacheRepositoryMSSQL {
	return &VideoCacheRepositoryMSSQL{db: db, now: time.Now}
}

func (r *VideoCacheRepositoryMSSQL) Vendor() string { return "mssql" }

// GetVideo returns cached video if not expired
func (r *VideoCacheRepositoryMSSQL) GetVideo(ctx context.Context, fileCode string) (*model.Video, *time.Time, error) {
	if r.db == nil {
		return nil, nil, nil
	}
	var raw string
	var expiresAt time.Time
	if err := r.db.QueryRowContext(ctx, msSelectVideo, fileCode).Scan(&raw, &expiresAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, nil
		}
		return nil, nil, err
	}
	if r.now().After(expiresAt) {
		return nil, &expiresAt, nil
	}
	var v model.Video
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return nil, nil, err
	}
	return &v, &expiresAt, nil
}

// UpsertVideos merges every video in one transaction
func (r *VideoCacheRepositoryMSSQL) UpsertVideos(ctx context.Context, videos []model.Video, ttl time.Duration) (err error) {
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

	now := r.now().UTC()
	exp := now.Add(ttl)
	for i := range videos {
		raw, mErr := json.Marshal(&videos[i])
		if mErr != nil {
			return mErr
		}
		if _, err = tx.ExecContext(ctx, msMergeVideo, videos[i].FileCode, videos[i].Source, string(raw), nullTime(videos[i].UploadedAt), exp, now); err != nil {
			return fmt.Errorf("merge video %s: %w", videos[i].FileCode, err)
		}
	}
	return tx.Commit()
}

// ListVideos returns a page ordered by uploaded_at desc
func (r *VideoCacheRepositoryMSSQL) ListVideos(ctx context.Context, limit, offset int) ([]model.Video, int64, error) {
	if r.db == nil {
		return nil, 0, nil
	}
	limit, offset = clampPage(limit, offset)
	now := r.now().UTC()

	var total int64
	if err := r.db.QueryRowContext(ctx, msCountVideos, now).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.db.QueryContext(ctx, msListVideos, now, offset, limit)
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

func (r *VideoCacheRepositoryMSSQL) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	if r.db == nil {
		return 0, nil
	}
	res, err := r.db.ExecContext(ctx, msDeleteExpired, before.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
