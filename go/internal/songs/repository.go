package songs

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/mcdev12/tunequiz/go/internal/models"
	"github.com/mcdev12/tunequiz/go/internal/songs/db"
	"github.com/mcdev12/tunequiz/go/internal/sqlutil"
	"github.com/rs/zerolog/log"
)

// Querier defines what the repository needs from the database layer
type Querier interface {
	ListActiveSongs(ctx context.Context, limit int32) ([]db.Song, error)
	CountActiveSongs(ctx context.Context) (int64, error)
	UpsertSong(ctx context.Context, arg db.UpsertSongParams) (db.Song, error)
}

// Repository implements song data access operations
type Repository struct {
	queries Querier
	db      *sql.DB
}

// NewRepository creates a songs repository. database is used for batch imports
// and may be nil when only reads are needed.
func NewRepository(querier Querier, database *sql.DB) *Repository {
	return &Repository{
		queries: querier,
		db:      database,
	}
}

// ListActiveSongs returns up to limit active songs in random order
func (r *Repository) ListActiveSongs(ctx context.Context, limit int) ([]models.Song, error) {
	rows, err := r.queries.ListActiveSongs(ctx, int32(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to list active songs: %w", err)
	}

	songs := make([]models.Song, 0, len(rows))
	for _, row := range rows {
		songs = append(songs, dbSongToModel(row))
	}
	return songs, nil
}

// CountActiveSongs returns how many songs can be drawn into a pool
func (r *Repository) CountActiveSongs(ctx context.Context) (int64, error) {
	count, err := r.queries.CountActiveSongs(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count active songs: %w", err)
	}
	return count, nil
}

// UpsertSongs inserts or updates songs in a single transaction
func (r *Repository) UpsertSongs(ctx context.Context, songs []models.Song) (int, error) {
	if r.db == nil {
		return 0, fmt.Errorf("songs repository has no database for writes")
	}

	written := 0
	err := sqlutil.Run(ctx, r.db, func(tx *sql.Tx) *db.Queries {
		return db.New(tx)
	}, func(q *db.Queries) error {
		for _, song := range songs {
			params, err := songToUpsertParams(song)
			if err != nil {
				return err
			}
			if _, err := q.UpsertSong(ctx, params); err != nil {
				return fmt.Errorf("failed to upsert song %q: %w", song.Title, err)
			}
			written++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	log.Info().Int("count", written).Msg("Upserted songs")
	return written, nil
}

func songToUpsertParams(song models.Song) (db.UpsertSongParams, error) {
	var metadata json.RawMessage
	if len(song.Metadata) > 0 {
		raw, err := json.Marshal(song.Metadata)
		if err != nil {
			return db.UpsertSongParams{}, fmt.Errorf("failed to marshal metadata for %q: %w", song.Title, err)
		}
		metadata = raw
	}

	return db.UpsertSongParams{
		Title:       song.Title,
		Artist:      song.Artist,
		PreviewUrl:  sqlutil.ToNullString(song.PreviewURL),
		DurationSec: sqlutil.ToNullInt32(song.DurationSec),
		Active:      song.Active,
		Metadata:    sqlutil.ToNullRawMessage(metadata),
	}, nil
}

// dbSongToModel converts a database row to the domain model.
// Unreadable metadata is logged and dropped rather than failing the whole pool.
func dbSongToModel(row db.Song) models.Song {
	song := models.Song{
		ID:          row.ID,
		Title:       row.Title,
		Artist:      row.Artist,
		PreviewURL:  sqlutil.FromNullString(row.PreviewUrl, ""),
		DurationSec: sqlutil.FromNullInt32(row.DurationSec),
		Active:      row.Active,
		CreatedAt:   row.CreatedAt,
	}

	if raw := sqlutil.FromNullRawMessage(row.Metadata); raw != nil {
		var metadata map[string]string
		if err := json.Unmarshal(raw, &metadata); err != nil {
			log.Warn().Err(err).Str("song_id", row.ID.String()).Msg("Ignoring unreadable song metadata")
		} else {
			song.Metadata = metadata
		}
	}
	return song
}
