package db

import (
	"context"
	"database/sql"

	"github.com/sqlc-dev/pqtype"
)

const listActiveSongs = `
SELECT id, title, artist, preview_url, duration_sec, active, metadata, created_at
FROM songs
WHERE active
ORDER BY random()
LIMIT $1
`

func (q *Queries) ListActiveSongs(ctx context.Context, limit int32) ([]Song, error) {
	rows, err := q.db.QueryContext(ctx, listActiveSongs, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Song
	for rows.Next() {
		var i Song
		if err := rows.Scan(
			&i.ID,
			&i.Title,
			&i.Artist,
			&i.PreviewUrl,
			&i.DurationSec,
			&i.Active,
			&i.Metadata,
			&i.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const countActiveSongs = `SELECT COUNT(*) FROM songs WHERE active`

func (q *Queries) CountActiveSongs(ctx context.Context) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countActiveSongs).Scan(&count)
	return count, err
}

const upsertSong = `
INSERT INTO songs (title, artist, preview_url, duration_sec, active, metadata)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (title, artist) DO UPDATE SET
    preview_url  = EXCLUDED.preview_url,
    duration_sec = EXCLUDED.duration_sec,
    active       = EXCLUDED.active,
    metadata     = EXCLUDED.metadata
RETURNING id, title, artist, preview_url, duration_sec, active, metadata, created_at
`

type UpsertSongParams struct {
	Title       string
	Artist      string
	PreviewUrl  sql.NullString
	DurationSec sql.NullInt32
	Active      bool
	Metadata    pqtype.NullRawMessage
}

func (q *Queries) UpsertSong(ctx context.Context, arg UpsertSongParams) (Song, error) {
	row := q.db.QueryRowContext(ctx, upsertSong,
		arg.Title,
		arg.Artist,
		arg.PreviewUrl,
		arg.DurationSec,
		arg.Active,
		arg.Metadata,
	)
	var i Song
	err := row.Scan(
		&i.ID,
		&i.Title,
		&i.Artist,
		&i.PreviewUrl,
		&i.DurationSec,
		&i.Active,
		&i.Metadata,
		&i.CreatedAt,
	)
	return i, err
}
