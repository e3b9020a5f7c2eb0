package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/tunequiz/go/internal/config"
	"github.com/mcdev12/tunequiz/go/internal/models"
	"github.com/mcdev12/tunequiz/go/internal/quiz/player"
	"github.com/mcdev12/tunequiz/go/internal/quiz/round"
	"github.com/mcdev12/tunequiz/go/internal/rooms"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "tunequiz",
		Usage: "play music trivia rounds from the terminal",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", EnvVars: []string{"TUNEQUIZ_CONFIG"}, Usage: "path to the YAML config file"},
			&cli.StringFlag{Name: "name", Value: "Player", Usage: "display name"},
			&cli.StringFlag{Name: "avatar", Usage: "avatar url"},
			&cli.StringFlag{Name: "participant", EnvVars: []string{"TUNEQUIZ_PARTICIPANT"}, Usage: "stable participant id (random if empty)"},
		},
		Before: func(c *cli.Context) error {
			config.LoadDotEnv()
			return nil
		},
		Commands: []*cli.Command{
			createRoomCommand(),
			joinCommand(),
			playCommand(),
			demoCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal().Err(err).Msg("tunequiz failed")
	}
}

func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}
	config.SetupLogging(cfg.Log)
	return cfg, nil
}

func self(c *cli.Context) models.Player {
	id := c.String("participant")
	if id == "" {
		id = uuid.New().String()
	}
	return models.Player{ID: id, DisplayName: c.String("name"), Avatar: c.String("avatar")}
}

func createRoomCommand() *cli.Command {
	return &cli.Command{
		Name:  "create-room",
		Usage: "open a room hosted by this player and print its code",
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			me := self(c)

			room, err := player.NewRoomsClient(cfg.Rooms).CreateRoom(c.Context, me)
			if err != nil {
				return fmt.Errorf("create room: %w", err)
			}
			fmt.Printf("room:        %s\n", room.Code)
			fmt.Printf("session:     %s\n", uuid.New().String())
			fmt.Printf("participant: %s\n", me.ID)
			return nil
		},
	}
}

func joinCommand() *cli.Command {
	return &cli.Command{
		Name:  "join",
		Usage: "join a room by code",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "room", Required: true},
		},
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			me := self(c)
			code := rooms.NormalizeCode(c.String("room"))

			if _, err := player.NewRoomsClient(cfg.Rooms).JoinRoom(c.Context, code, me); err != nil {
				return fmt.Errorf("join room %s: %w", code, err)
			}
			fmt.Printf("joined %s as %s\n", code, me.ID)
			return nil
		},
	}
}

func playCommand() *cli.Command {
	return &cli.Command{
		Name:  "play",
		Usage: "play a session; type s to start, 1-4 to answer, r to retry, q to quit",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "room", Usage: "room code"},
			&cli.StringFlag{Name: "session", Usage: "session id shared by every player (empty plays offline)"},
			&cli.BoolFlag{Name: "auto-answer", Usage: "let a bot answer for you"},
		},
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			return play(c, cfg)
		},
	}
}

func play(c *cli.Context, cfg *config.Config) error {
	ctx, cancel := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	me := self(c)
	session := models.Session{
		RoomCode:  rooms.NormalizeCode(c.String("room")),
		SessionID: c.String("session"),
	}

	transport, err := player.NewChannel(cfg.Channel, me.ID)
	if err != nil {
		return err
	}
	if transport == nil {
		session.SessionID = ""
	} else {
		defer transport.Close()
	}

	// followers never generate questions, so only the host needs a song source
	var elector round.HostElector
	needsQuestions := session.Offline()
	if !session.Offline() {
		roomsClient := player.NewRoomsClient(cfg.Rooms)
		e := player.NewElector(roomsClient)
		elector = e
		needsQuestions = e.IsHost(ctx, session.RoomCode, me.ID)

		// countdowns are reconciled against the host's clock, so a large skew shows up as lost seconds
		if skew, err := roomsClient.ClockSkew(ctx, time.Now); err != nil {
			log.Warn().Err(err).Msg("could not read server time")
		} else if skew > time.Second || skew < -time.Second {
			log.Warn().Dur("skew", skew).Msg("local clock differs from the room service")
		}
	}

	var questions round.QuestionSource
	if needsQuestions {
		generator, closeSource, err := player.NewQuestionSource(ctx, cfg.Songs)
		if err != nil {
			return err
		}
		defer closeSource()
		questions = generator
	}

	var bot *player.Bot
	if c.Bool("auto-answer") {
		bot = player.NewBot(ctx, clockwork.NewRealClock(), rand.New(rand.NewSource(time.Now().UnixNano())), 3*time.Second)
	}
	console := player.NewConsole(os.Stdout, cfg.Round.TotalRounds, bot)

	s := round.NewSession(player.SessionConfig(cfg, session, me), transport, elector, questions, console)
	if bot != nil {
		bot.Attach(s)
	}

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	go readCommands(ctx, s)

	select {
	case <-console.Finished:
	case <-ctx.Done():
	case err := <-done:
		if err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	}
	return s.Close()
}

// readCommands maps stdin lines onto session calls until stdin closes
func readCommands(ctx context.Context, s *round.Session) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		var err error
		switch line {
		case "":
			continue
		case "s":
			err = s.Start(ctx)
		case "r":
			err = s.Retry(ctx)
		case "q":
			s.Close()
			return
		default:
			option, convErr := strconv.Atoi(line)
			if convErr != nil {
				fmt.Println("? type s, r, q or an option number")
				continue
			}
			var delta int
			delta, err = s.Submit(ctx, option-1)
			if err == nil {
				fmt.Printf("  +%d eggs\n", delta)
			}
		}
		if errors.Is(err, round.ErrClosed) {
			return
		}
		if err != nil {
			fmt.Printf("! %v\n", err)
		}
	}
}

func demoCommand() *cli.Command {
	return &cli.Command{
		Name:  "demo",
		Usage: "watch bots play a full game in-process",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "bots", Value: 3, Usage: "followers next to the host bot"},
			&cli.IntFlag{Name: "rounds", Value: 3},
			&cli.IntFlag{Name: "seconds", Value: 5, Usage: "time per question"},
			&cli.Int64Flag{Name: "seed", Value: 1},
		},
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}

			generator, closeSource, err := player.NewQuestionSource(c.Context, cfg.Songs)
			if err != nil {
				return err
			}
			defer closeSource()

			settings := cfg.Round.Settings
			settings.TimePerQuestion = c.Int("seconds")
			results, err := player.RunDemo(c.Context, player.DemoOptions{
				Round: round.Config{
					Settings:    settings,
					TotalRounds: c.Int("rounds"),
					RevealDelay: cfg.Round.RevealDelay,
				},
				Bots:      c.Int("bots"),
				MaxDelay:  time.Duration(c.Int("seconds")) * time.Second,
				Questions: generator,
				Out:       os.Stdout,
				Seed:      c.Int64("seed"),
			})
			if err != nil {
				return err
			}

			fmt.Println("\nFinal scores")
			for i, r := range results {
				fmt.Printf("  %d. %-8s %d eggs\n", i+1, r.Player.DisplayName, r.Eggs)
			}
			return nil
		},
	}
}
