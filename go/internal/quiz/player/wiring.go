package player

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/mcdev12/tunequiz/go/internal/config"
	"github.com/mcdev12/tunequiz/go/internal/dbconfig"
	"github.com/mcdev12/tunequiz/go/internal/models"
	"github.com/mcdev12/tunequiz/go/internal/quiz/channel"
	"github.com/mcdev12/tunequiz/go/internal/quiz/host"
	"github.com/mcdev12/tunequiz/go/internal/quiz/question"
	"github.com/mcdev12/tunequiz/go/internal/quiz/round"
	"github.com/mcdev12/tunequiz/go/internal/rooms"
	"github.com/mcdev12/tunequiz/go/internal/songs"
	songsdb "github.com/mcdev12/tunequiz/go/internal/songs/db"
)

// NewChannel builds the broadcast channel for cfg. The memory transport has no
// peers outside this process, so it yields a nil channel (an offline session).
func NewChannel(cfg config.ChannelConfig, participantID string) (channel.Channel, error) {
	switch cfg.Transport {
	case config.TransportNATS:
		natsCfg := channel.DefaultNATSConfig()
		natsCfg.URL = cfg.NATSURL
		natsCfg.SubjectPrefix = cfg.SubjectPrefix
		natsCfg.Name = "tunequiz-" + participantID
		return channel.NewNATSChannel(natsCfg)

	case config.TransportWebSocket:
		wsCfg := channel.DefaultWebSocketConfig()
		wsCfg.URL = cfg.RelayURL
		wsCfg.ParticipantID = participantID
		return channel.NewWebSocketChannel(wsCfg), nil

	case config.TransportMemory:
		return nil, nil

	default:
		return nil, fmt.Errorf("unknown channel transport %q", cfg.Transport)
	}
}

// NewRoomsClient connects to the room service
func NewRoomsClient(cfg config.RoomsConfig) *rooms.Client {
	return rooms.NewClient(&http.Client{Timeout: 10 * time.Second}, cfg.APIURL)
}

// NewElector resolves the host flag through the room service
func NewElector(client *rooms.Client) *host.Elector {
	return host.NewElector(client)
}

// NewQuestionSource builds the question generator over the configured song
// source. The returned close func releases the database, if one was opened.
func NewQuestionSource(ctx context.Context, cfg config.SongsConfig) (*question.Generator, func() error, error) {
	var (
		source  songs.Source
		closeFn = func() error { return nil }
	)

	switch cfg.Source {
	case config.SongSourceFile:
		catalog, err := songs.LoadFileCatalog(cfg.File)
		if err != nil {
			return nil, nil, err
		}
		source = catalog

	case config.SongSourcePostgres:
		database, err := dbconfig.NewConfigFromEnv().Open(ctx)
		if err != nil {
			return nil, nil, err
		}
		source = songs.NewRepository(songsdb.New(database), nil)
		closeFn = closeDB(database)

	default:
		return nil, nil, fmt.Errorf("unknown song source %q", cfg.Source)
	}

	return question.NewGenerator(songs.NewApp(source), cfg.PoolSize), closeFn, nil
}

func closeDB(database *sql.DB) func() error {
	return func() error { return database.Close() }
}

// SessionConfig maps the shared config onto a round session config
func SessionConfig(cfg *config.Config, session models.Session, self models.Player) round.Config {
	return round.Config{
		Session:          session,
		Self:             self,
		Settings:         cfg.Round.Settings,
		TotalRounds:      cfg.Round.TotalRounds,
		RevealDelay:      cfg.Round.RevealDelay,
		AllowStaleRounds: cfg.Round.AllowStaleRounds,
	}
}
