package songs

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/mcdev12/tunequiz/go/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCatalog = `
songs:
  - title: Harbor Lights
    artist: The Tides
    preview_url: https://cdn.example/harbor.mp3
    duration_sec: 30
    metadata:
      genre: indie
  - id: 6f1c2a52-3d1b-4c39-9d0e-5f0b1f1e2a10
    title: Night Drive
    artist: Neon Avenue
    duration_sec: 28
  - title: Retired Tune
    artist: Old Band
    active: false
`

func TestParseFileCatalog(t *testing.T) {
	catalog, err := ParseFileCatalog([]byte(sampleCatalog))
	require.NoError(t, err)

	songs := catalog.Songs()
	require.Len(t, songs, 3)

	assert.Equal(t, "Harbor Lights", songs[0].Title)
	assert.True(t, songs[0].Active)
	assert.Equal(t, map[string]string{"genre": "indie"}, songs[0].Metadata)
	assert.Equal(t, uuid.NewSHA1(uuid.NameSpaceOID, []byte("The Tides/Harbor Lights")), songs[0].ID, "ids are derived when missing")

	assert.Equal(t, uuid.MustParse("6f1c2a52-3d1b-4c39-9d0e-5f0b1f1e2a10"), songs[1].ID)
	assert.False(t, songs[2].Active)

	active, err := catalog.ListActiveSongs(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, active, 2)

	limited, err := catalog.ListActiveSongs(context.Background(), 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestParseFileCatalog_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "missing artist", data: "songs:\n  - title: Lonely\n"},
		{name: "bad id", data: "songs:\n  - id: nope\n    title: A\n    artist: B\n"},
		{name: "not yaml", data: "songs: [unterminated"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseFileCatalog([]byte(tt.data))
			assert.Error(t, err)
		})
	}
}

func TestWriteFileCatalog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	songs := []models.Song{
		{ID: uuid.New(), Title: "On", Artist: "A", Active: true, DurationSec: 30},
		{ID: uuid.New(), Title: "Off", Artist: "B", Active: false},
	}
	require.NoError(t, WriteFileCatalog(path, songs))

	catalog, err := LoadFileCatalog(path)
	require.NoError(t, err)
	got := catalog.Songs()
	require.Len(t, got, 2)
	assert.Equal(t, songs[0].ID, got[0].ID)
	assert.True(t, got[0].Active)
	assert.False(t, got[1].Active, "inactive flag survives a write")
}
