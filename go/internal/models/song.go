package models

import (
	"time"

	"github.com/google/uuid"
)

// Song represents a playable item in the song catalog
type Song struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Artist      string    `json:"artist"`
	PreviewURL  string    `json:"preview_url"`
	DurationSec int       `json:"duration_sec"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`

	// free-form catalog tags (genre, year, ...), stored as jsonb
	Metadata map[string]string `json:"metadata,omitempty"`
}

// SongRef is the by-value song reference carried inside a round question
type SongRef struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Artist      string `json:"artist"`
	PreviewURL  string `json:"previewUrl"`
	DurationSec int    `json:"duration"`
}

// Ref returns the by-value reference for this song
func (s *Song) Ref() SongRef {
	return SongRef{
		ID:          s.ID.String(),
		Title:       s.Title,
		Artist:      s.Artist,
		PreviewURL:  s.PreviewURL,
		DurationSec: s.DurationSec,
	}
}
