package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/mcdev12/tunequiz/go/clients/songcatalog"
	"github.com/mcdev12/tunequiz/go/internal/dbconfig"
	"github.com/mcdev12/tunequiz/go/internal/models"
)

// Song mirrors the JSON asset layout
type Song struct {
	ID          *uuid.UUID        `json:"id"`
	Title       string            `json:"title"`
	Artist      string            `json:"artist"`
	PreviewURL  string            `json:"preview_url"`
	DurationSec int               `json:"duration_sec"`
	Active      *bool             `json:"active"`
	Metadata    map[string]string `json:"metadata"`
}

type execer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

type summary struct {
	total, inserted, skipped, errs int
}

func main() {
	ctx := context.Background()

	file := flag.String("file", "go/internal/assets/songs.json", "JSON song asset")
	playlist := flag.String("playlist", "", "seed from a catalog playlist instead of the asset")
	search := flag.String("search", "", "seed from a catalog search instead of the asset")
	flag.Parse()

	_ = godotenv.Load()

	// 1) Load songs from the catalog or the JSON asset
	var (
		songs []models.Song
		err   error
	)
	switch {
	case *playlist != "" || *search != "":
		songs, err = fromCatalog(ctx, *playlist, *search)
	default:
		songs, err = fromAsset(*file)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "load songs: %v\n", err)
		os.Exit(1)
	}

	// 2) Connect using shared dbconfig
	cfg := dbconfig.NewConfigFromEnv()
	pool, err := pgxpool.New(ctx, cfg.DSN())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to connect: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	// 3) Insert and count
	s := seed(ctx, pool, songs)

	// 4) Print summary
	fmt.Printf(
		"Songs seed complete: %d total, %d inserted, %d skipped, %d errors\n",
		s.total, s.inserted, s.skipped, s.errs,
	)
}

func fromAsset(path string) ([]models.Song, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read JSON: %w", err)
	}
	return parseAsset(data)
}

func parseAsset(data []byte) ([]models.Song, error) {
	var raw []Song
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("unmarshal JSON: %w", err)
	}

	songs := make([]models.Song, 0, len(raw))
	for _, s := range raw {
		song := models.Song{
			Title:       s.Title,
			Artist:      s.Artist,
			PreviewURL:  s.PreviewURL,
			DurationSec: s.DurationSec,
			Active:      s.Active == nil || *s.Active,
			Metadata:    s.Metadata,
		}
		if s.ID != nil {
			song.ID = *s.ID
		} else {
			song.ID = uuid.NewSHA1(uuid.NameSpaceOID, []byte(s.Artist+"/"+s.Title))
		}
		songs = append(songs, song)
	}
	return songs, nil
}

func fromCatalog(ctx context.Context, playlist, search string) ([]models.Song, error) {
	cfg := songcatalog.DefaultConfig()
	cfg.ClientID = os.Getenv("SONG_CATALOG_CLIENT_ID")
	cfg.ClientSecret = os.Getenv("SONG_CATALOG_CLIENT_SECRET")
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, fmt.Errorf("SONG_CATALOG_CLIENT_ID and SONG_CATALOG_CLIENT_SECRET are required")
	}
	client := songcatalog.NewClient(cfg)

	if playlist != "" {
		return client.PlaylistTracks(ctx, playlist)
	}
	return client.SearchTracks(ctx, search, 0)
}

func seed(ctx context.Context, db execer, songs []models.Song) summary {
	s := summary{total: len(songs)}

	for _, song := range songs {
		if song.Title == "" || song.Artist == "" {
			fmt.Fprintf(os.Stderr, "skipping song %s: title and artist are required\n", song.ID)
			s.errs++
			continue
		}

		var metadata []byte
		if len(song.Metadata) > 0 {
			var err error
			if metadata, err = json.Marshal(song.Metadata); err != nil {
				s.errs++
				continue
			}
		}

		tag, err := db.Exec(ctx, `
            INSERT INTO songs (
              id, title, artist, preview_url, duration_sec, active, metadata
            ) VALUES (
              $1,$2,$3,NULLIF($4,''),NULLIF($5,0),$6,$7
            )
            ON CONFLICT (title, artist) DO NOTHING
        `,
			song.ID, song.Title, song.Artist, song.PreviewURL, song.DurationSec, song.Active, metadata,
		)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error inserting song %s: %v\n", song.ID, err)
			s.errs++
			continue
		}
		if tag.RowsAffected() == 1 {
			s.inserted++
		} else {
			s.skipped++
		}
	}
	return s
}
