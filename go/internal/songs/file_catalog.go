package songs

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/tunequiz/go/internal/models"
	"gopkg.in/yaml.v3"
)

// catalogEntry is one song in the on-disk catalog layout
type catalogEntry struct {
	ID          string            `yaml:"id,omitempty"`
	Title       string            `yaml:"title"`
	Artist      string            `yaml:"artist"`
	PreviewURL  string            `yaml:"preview_url,omitempty"`
	DurationSec int               `yaml:"duration_sec,omitempty"`
	Active      *bool             `yaml:"active,omitempty"`
	Metadata    map[string]string `yaml:"metadata,omitempty"`
}

type catalogFile struct {
	Songs []catalogEntry `yaml:"songs"`
}

// FileCatalog serves songs from a YAML file, for offline play and seeding
type FileCatalog struct {
	mu    sync.Mutex
	songs []models.Song
	rng   *rand.Rand
}

// LoadFileCatalog reads a catalog from path
func LoadFileCatalog(path string) (*FileCatalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read song catalog: %w", err)
	}
	return ParseFileCatalog(data)
}

// ParseFileCatalog parses a YAML catalog. Songs without an id get a stable
// one derived from title and artist; songs default to active.
func ParseFileCatalog(data []byte) (*FileCatalog, error) {
	var raw catalogFile
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse song catalog: %w", err)
	}

	songs := make([]models.Song, 0, len(raw.Songs))
	for i, entry := range raw.Songs {
		song, err := entry.toSong()
		if err != nil {
			return nil, fmt.Errorf("song %d: %w", i, err)
		}
		songs = append(songs, song)
	}

	return &FileCatalog{
		songs: songs,
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}, nil
}

// Songs returns every song in the catalog
func (c *FileCatalog) Songs() []models.Song {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.Song(nil), c.songs...)
}

// ListActiveSongs returns up to limit active songs in random order
func (c *FileCatalog) ListActiveSongs(ctx context.Context, limit int) ([]models.Song, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	active := make([]models.Song, 0, len(c.songs))
	for _, s := range c.songs {
		if s.Active {
			active = append(active, s)
		}
	}
	c.rng.Shuffle(len(active), func(i, j int) {
		active[i], active[j] = active[j], active[i]
	})
	if limit > 0 && len(active) > limit {
		active = active[:limit]
	}
	return active, nil
}

func (e catalogEntry) toSong() (models.Song, error) {
	if e.Title == "" || e.Artist == "" {
		return models.Song{}, ErrInvalidSong
	}
	song := models.Song{
		Title:       e.Title,
		Artist:      e.Artist,
		PreviewURL:  e.PreviewURL,
		DurationSec: e.DurationSec,
		Active:      e.Active == nil || *e.Active,
		Metadata:    e.Metadata,
	}
	if e.ID == "" {
		song.ID = uuid.NewSHA1(uuid.NameSpaceOID, []byte(e.Artist+"/"+e.Title))
		return song, nil
	}
	id, err := uuid.Parse(e.ID)
	if err != nil {
		return models.Song{}, fmt.Errorf("invalid song id %q: %w", e.ID, err)
	}
	song.ID = id
	return song, nil
}

func songToCatalogEntry(song models.Song) catalogEntry {
	active := song.Active
	return catalogEntry{
		ID:          song.ID.String(),
		Title:       song.Title,
		Artist:      song.Artist,
		PreviewURL:  song.PreviewURL,
		DurationSec: song.DurationSec,
		Active:      &active,
		Metadata:    song.Metadata,
	}
}

// WriteFileCatalog writes songs to path in the catalog layout
func WriteFileCatalog(path string, songs []models.Song) error {
	file := catalogFile{Songs: make([]catalogEntry, 0, len(songs))}
	for _, song := range songs {
		file.Songs = append(file.Songs, songToCatalogEntry(song))
	}
	data, err := yaml.Marshal(file)
	if err != nil {
		return fmt.Errorf("failed to encode song catalog: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write song catalog: %w", err)
	}
	return nil
}
