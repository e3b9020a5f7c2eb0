// Package config loads the settings shared by the tunequiz binaries.
//
// Values come from an optional YAML file, then from the environment (a .env
// file is honoured by the binaries through godotenv before Load runs).
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/mcdev12/tunequiz/go/internal/models"
	"gopkg.in/yaml.v3"
)

// Channel transports
const (
	TransportNATS      = "nats"
	TransportWebSocket = "websocket"
	TransportMemory    = "memory"
)

// Song sources
const (
	SongSourcePostgres = "postgres"
	SongSourceFile     = "file"
)

var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	Log     LogConfig     `yaml:"log"`
	Round   RoundConfig   `yaml:"round"`
	Channel ChannelConfig `yaml:"channel"`
	Rooms   RoomsConfig   `yaml:"rooms"`
	Songs   SongsConfig   `yaml:"songs"`
	Gateway GatewayConfig `yaml:"gateway"`
	Results ResultsConfig `yaml:"results"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

type RoundConfig struct {
	TotalRounds      int                  `yaml:"total_rounds"`
	RevealDelay      time.Duration        `yaml:"reveal_delay"`
	Settings         models.RoundSettings `yaml:"settings"`
	AllowStaleRounds bool                 `yaml:"allow_stale_rounds"`
}

type ChannelConfig struct {
	Transport     string `yaml:"transport"`
	NATSURL       string `yaml:"nats_url"`
	SubjectPrefix string `yaml:"subject_prefix"`
	RelayURL      string `yaml:"relay_url"`
}

type RoomsConfig struct {
	APIURL string `yaml:"api_url"`
}

type SongsConfig struct {
	Source   string `yaml:"source"`
	File     string `yaml:"file"`
	PoolSize int    `yaml:"pool_size"`
}

type GatewayConfig struct {
	Port           string        `yaml:"port"`
	AllowedOrigins []string      `yaml:"allowed_origins"`
	PingInterval   time.Duration `yaml:"ping_interval"`
}

type ResultsConfig struct {
	Enabled       bool   `yaml:"enabled"`
	NATSURL       string `yaml:"nats_url"`
	Stream        string `yaml:"stream"`
	SubjectPrefix string `yaml:"subject_prefix"`
}

// Default returns the configuration used when nothing overrides it
func Default() Config {
	return Config{
		Log: LogConfig{Level: "info", Pretty: true},
		Round: RoundConfig{
			TotalRounds: models.TotalRounds,
			RevealDelay: 3 * time.Second,
			Settings:    models.DefaultRoundSettings(),
		},
		Channel: ChannelConfig{
			Transport:     TransportNATS,
			NATSURL:       "nats://localhost:4222",
			SubjectPrefix: "tunequiz.session",
			RelayURL:      "ws://localhost:8081/ws/session",
		},
		Rooms: RoomsConfig{APIURL: "http://localhost:8080"},
		Songs: SongsConfig{Source: SongSourcePostgres, PoolSize: 50},
		Gateway: GatewayConfig{
			Port:           "8081",
			AllowedOrigins: []string{"http://localhost:3000"},
			PingInterval:   54 * time.Second,
		},
		Results: ResultsConfig{
			NATSURL:       "nats://localhost:4222",
			Stream:        "QUIZ_RESULTS",
			SubjectPrefix: "quiz.results",
		},
	}
}

// Load reads path (if non-empty), applies environment overrides and validates
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv() {
	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)
	c.Log.Pretty = getEnvAsBool("LOG_PRETTY", c.Log.Pretty)

	c.Channel.Transport = getEnv("CHANNEL_TRANSPORT", c.Channel.Transport)
	c.Channel.NATSURL = getEnv("NATS_URL", c.Channel.NATSURL)
	c.Channel.RelayURL = getEnv("RELAY_URL", c.Channel.RelayURL)

	c.Rooms.APIURL = getEnv("ROOMS_API_URL", c.Rooms.APIURL)

	c.Songs.Source = getEnv("SONGS_SOURCE", c.Songs.Source)
	c.Songs.File = getEnv("SONGS_FILE", c.Songs.File)
	c.Songs.PoolSize = getEnvAsInt("SONGS_POOL_SIZE", c.Songs.PoolSize)

	c.Gateway.Port = getEnv("GATEWAY_PORT", c.Gateway.Port)
	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		c.Gateway.AllowedOrigins = splitList(origins)
	}

	c.Results.Enabled = getEnvAsBool("RESULTS_ENABLED", c.Results.Enabled)
	c.Results.NATSURL = getEnv("RESULTS_NATS_URL", c.Results.NATSURL)
}

// Validate rejects settings no component can run with
func (c *Config) Validate() error {
	switch c.Channel.Transport {
	case TransportNATS, TransportWebSocket, TransportMemory:
	default:
		return fmt.Errorf("%w: unknown channel transport %q", ErrInvalidConfig, c.Channel.Transport)
	}

	switch c.Songs.Source {
	case SongSourcePostgres:
	case SongSourceFile:
		if c.Songs.File == "" {
			return fmt.Errorf("%w: songs.file is required for the file source", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown song source %q", ErrInvalidConfig, c.Songs.Source)
	}

	if c.Round.TotalRounds < 1 {
		return fmt.Errorf("%w: round.total_rounds must be positive", ErrInvalidConfig)
	}
	if c.Round.Settings.TimePerQuestion < 1 {
		return fmt.Errorf("%w: round.settings.time_per_question must be at least 1", ErrInvalidConfig)
	}
	if c.Results.Enabled && c.Results.Stream == "" {
		return fmt.Errorf("%w: results.stream is required when results are enabled", ErrInvalidConfig)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
