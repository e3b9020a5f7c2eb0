// Package question builds round questions from the active song catalog.
package question

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/mcdev12/tunequiz/go/internal/models"
	"github.com/rs/zerolog/log"
)

// ErrNoActiveSongs is returned when the candidate pool is empty
var ErrNoActiveSongs = errors.New("no active songs")

// DefaultPoolSize bounds how many candidates are drawn per question
const DefaultPoolSize = 50

// decoySuffixes synthesize near-duplicate titles when the pool is too small
var decoySuffixes = []string{" (Live)", " (Remix)", " (Acoustic)", " (Radio Edit)"}

// SongSource is what the generator needs from the song repository
type SongSource interface {
	ListActiveSongs(ctx context.Context, limit int) ([]models.Song, error)
}

// Generator picks a random correct song plus decoys.
// It is not safe for concurrent use because it owns its RNG.
type Generator struct {
	songs    SongSource
	poolSize int
	rng      *rand.Rand
}

// NewGenerator seeds its own RNG and returns a generator
func NewGenerator(songs SongSource, poolSize int) *Generator {
	if poolSize <= 0 {
		poolSize = DefaultPoolSize
	}
	src := rand.NewSource(time.Now().UnixNano())
	return &Generator{
		songs:    songs,
		poolSize: poolSize,
		rng:      rand.New(src),
	}
}

// WithRand replaces the RNG, mostly for deterministic tests
func (g *Generator) WithRand(rng *rand.Rand) *Generator {
	g.rng = rng
	return g
}

// Generate draws a candidate pool and builds a shuffled four-option question
func (g *Generator) Generate(ctx context.Context) (*models.RoundQuestion, error) {
	candidates, err := g.songs.ListActiveSongs(ctx, g.poolSize)
	if err != nil {
		return nil, fmt.Errorf("list active songs: %w", err)
	}

	pool := make([]models.Song, 0, len(candidates))
	for _, s := range candidates {
		if s.Active && s.Title != "" {
			pool = append(pool, s)
		}
	}
	if len(pool) == 0 {
		return nil, ErrNoActiveSongs
	}

	correct := pool[g.rng.Intn(len(pool))]

	options := make([]string, 0, models.OptionCount)
	seen := map[string]bool{correct.Title: true}
	options = append(options, correct.Title)

	for _, i := range g.rng.Perm(len(pool)) {
		if len(options) == models.OptionCount {
			break
		}
		title := pool[i].Title
		if seen[title] {
			continue
		}
		seen[title] = true
		options = append(options, title)
	}

	padded := 0
	for i := 0; len(options) < models.OptionCount; i++ {
		decoy := correct.Title + nearDuplicateSuffix(i)
		if seen[decoy] {
			continue
		}
		seen[decoy] = true
		options = append(options, decoy)
		padded++
	}

	g.rng.Shuffle(len(options), func(i, j int) {
		options[i], options[j] = options[j], options[i]
	})

	correctIndex := -1
	for i, opt := range options {
		if opt == correct.Title {
			correctIndex = i
			break
		}
	}

	q := &models.RoundQuestion{
		Song:               correct.Ref(),
		Options:            options,
		CorrectAnswerIndex: correctIndex,
	}
	if err := q.Validate(); err != nil {
		return nil, fmt.Errorf("generated invalid question: %w", err)
	}

	log.Debug().
		Str("song_id", correct.ID.String()).
		Int("pool_size", len(pool)).
		Int("padded_decoys", padded).
		Msg("generated round question")

	return q, nil
}

func nearDuplicateSuffix(i int) string {
	if i < len(decoySuffixes) {
		return decoySuffixes[i]
	}
	return fmt.Sprintf(" (Take %d)", i-len(decoySuffixes)+2)
}
