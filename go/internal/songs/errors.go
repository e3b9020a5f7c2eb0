package songs

import "errors"

var (
	// ErrInvalidLimit is returned for a pool size outside [1, MaxPoolSize]
	ErrInvalidLimit = errors.New("invalid song pool limit")

	// ErrInvalidSong is returned when a song lacks a title or artist
	ErrInvalidSong = errors.New("song requires title and artist")
)
