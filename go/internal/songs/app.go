package songs

import (
	"context"
	"fmt"

	"github.com/mcdev12/tunequiz/go/internal/models"
	"github.com/rs/zerolog/log"
)

const (
	// DefaultPoolSize is used when a caller asks for no particular limit
	DefaultPoolSize = 50
	// MaxPoolSize caps a single pool query
	MaxPoolSize = 500
)

// Source is anything that can list active songs: the Postgres repository or a FileCatalog
type Source interface {
	ListActiveSongs(ctx context.Context, limit int) ([]models.Song, error)
}

// App is the songs business layer used by the question generator
type App struct {
	source Source
}

// NewApp creates a songs app over source
func NewApp(source Source) *App {
	return &App{source: source}
}

// ListActiveSongs validates limit and returns at most limit active songs
func (a *App) ListActiveSongs(ctx context.Context, limit int) ([]models.Song, error) {
	switch {
	case limit < 0:
		return nil, fmt.Errorf("%w: %d", ErrInvalidLimit, limit)
	case limit == 0:
		limit = DefaultPoolSize
	case limit > MaxPoolSize:
		limit = MaxPoolSize
	}

	songs, err := a.source.ListActiveSongs(ctx, limit)
	if err != nil {
		return nil, err
	}

	active := songs[:0:0]
	for _, s := range songs {
		if s.Active && s.Title != "" {
			active = append(active, s)
		}
	}
	if len(active) > limit {
		active = active[:limit]
	}

	log.Debug().Int("limit", limit).Int("count", len(active)).Msg("Loaded song pool")
	return active, nil
}
