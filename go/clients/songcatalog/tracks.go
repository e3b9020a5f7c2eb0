package songcatalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/mcdev12/tunequiz/go/internal/models"
)

// Catalog API response structures
type CatalogArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type CatalogAlbum struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	ReleaseDate string `json:"release_date"`
}

type CatalogTrack struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Artists    []CatalogArtist `json:"artists"`
	Album      CatalogAlbum    `json:"album"`
	PreviewURL *string         `json:"preview_url"`
	DurationMs int             `json:"duration_ms"`
}

type searchResponse struct {
	Tracks struct {
		Items []CatalogTrack `json:"items"`
	} `json:"tracks"`
}

type playlistResponse struct {
	Items []struct {
		Track *CatalogTrack `json:"track"`
	} `json:"items"`
	Next *string `json:"next"`
}

// SearchTracks returns up to limit tracks matching query
func (c *Client) SearchTracks(ctx context.Context, query string, limit int) ([]models.Song, error) {
	if limit <= 0 || limit > maxPageSize {
		limit = maxPageSize
	}
	params := url.Values{
		"q":     {query},
		"type":  {"track"},
		"limit": {strconv.Itoa(limit)},
	}

	body, err := c.authorizedGet(ctx, searchPath+"?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("search tracks: %w", err)
	}

	var resp searchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal search response: %w", err)
	}

	songs := make([]models.Song, 0, len(resp.Tracks.Items))
	for _, track := range resp.Tracks.Items {
		songs = append(songs, track.ToSong())
	}
	return songs, nil
}

// PlaylistTracks returns every track of a playlist, following pagination
func (c *Client) PlaylistTracks(ctx context.Context, playlistID string) ([]models.Song, error) {
	endpoint := fmt.Sprintf(playlistTracksPath, url.PathEscape(playlistID)) + "?limit=" + strconv.Itoa(maxPageSize)

	var songs []models.Song
	for endpoint != "" {
		body, err := c.authorizedGet(ctx, endpoint)
		if err != nil {
			return nil, fmt.Errorf("playlist %s tracks: %w", playlistID, err)
		}

		var page playlistResponse
		if err := json.Unmarshal(body, &page); err != nil {
			return nil, fmt.Errorf("failed to unmarshal playlist response: %w", err)
		}
		for _, item := range page.Items {
			if item.Track != nil {
				songs = append(songs, item.Track.ToSong())
			}
		}

		endpoint = ""
		if page.Next != nil {
			endpoint = *page.Next
		}
	}
	return songs, nil
}

// ToSong converts a catalog track. Tracks without a preview clip are kept
// but inactive, since nothing can be played for them.
func (t CatalogTrack) ToSong() models.Song {
	names := make([]string, 0, len(t.Artists))
	for _, a := range t.Artists {
		names = append(names, a.Name)
	}

	song := models.Song{
		ID:          uuid.NewSHA1(uuid.NameSpaceURL, []byte("catalog:track:"+t.ID)),
		Title:       t.Name,
		Artist:      strings.Join(names, ", "),
		DurationSec: t.DurationMs / 1000,
		Metadata: map[string]string{
			"catalog_id": t.ID,
		},
	}
	if t.Album.Name != "" {
		song.Metadata["album"] = t.Album.Name
	}
	if t.Album.ReleaseDate != "" {
		song.Metadata["release_date"] = t.Album.ReleaseDate
	}
	if t.PreviewURL != nil && *t.PreviewURL != "" {
		song.PreviewURL = *t.PreviewURL
		song.Active = true
	}
	return song
}
