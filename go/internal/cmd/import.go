package main

import (
	"context"
	"fmt"

	"github.com/mcdev12/tunequiz/go/internal/models"
	"github.com/mcdev12/tunequiz/go/internal/songs"
	"github.com/rs/zerolog/log"
)

// songWriter is the part of the songs repository the import needs
type songWriter interface {
	UpsertSongs(ctx context.Context, songs []models.Song) (int, error)
}

// importSongs upserts every song of a YAML catalog file
func importSongs(ctx context.Context, repo songWriter, path string) error {
	catalog, err := songs.LoadFileCatalog(path)
	if err != nil {
		return err
	}

	all := catalog.Songs()
	if len(all) == 0 {
		return fmt.Errorf("catalog %s has no songs", path)
	}

	written, err := repo.UpsertSongs(ctx, all)
	if err != nil {
		return fmt.Errorf("upsert catalog songs: %w", err)
	}

	log.Info().Str("file", path).Int("songs", written).Msg("imported song catalog")
	return nil
}
