package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tunequiz.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, Default(), *cfg)
	assert.Equal(t, 10, cfg.Round.TotalRounds)
	assert.Equal(t, 15, cfg.Round.Settings.TimePerQuestion)
	assert.Equal(t, "QUIZ_RESULTS", cfg.Results.Stream)
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
log:
  level: debug
round:
  total_rounds: 5
  reveal_delay: 2s
  allow_stale_rounds: true
  settings:
    eggs_per_correct: 20
    speed_bonus: 0
    time_per_question: 30
channel:
  transport: websocket
  relay_url: ws://relay:9000/ws/session
songs:
  source: file
  file: songs.yaml
gateway:
  allowed_origins: [https://quiz.example.com]
  ping_interval: 30s
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 5, cfg.Round.TotalRounds)
	assert.Equal(t, 2*time.Second, cfg.Round.RevealDelay)
	assert.True(t, cfg.Round.AllowStaleRounds)
	assert.Equal(t, 20, cfg.Round.Settings.EggsPerCorrect)
	assert.Equal(t, 0, cfg.Round.Settings.SpeedBonus)
	assert.Equal(t, 30, cfg.Round.Settings.TimePerQuestion)
	assert.Equal(t, TransportWebSocket, cfg.Channel.Transport)
	assert.Equal(t, "ws://relay:9000/ws/session", cfg.Channel.RelayURL)
	// untouched keys keep their defaults
	assert.Equal(t, "tunequiz.session", cfg.Channel.SubjectPrefix)
	assert.Equal(t, "songs.yaml", cfg.Songs.File)
	assert.Equal(t, []string{"https://quiz.example.com"}, cfg.Gateway.AllowedOrigins)
	assert.Equal(t, 30*time.Second, cfg.Gateway.PingInterval)
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeConfig(t, "channel:\n  nats_url: nats://file:4222\n")

	t.Setenv("NATS_URL", "nats://env:4222")
	t.Setenv("GATEWAY_PORT", "9090")
	t.Setenv("ALLOWED_ORIGINS", "http://a.test, http://b.test,")
	t.Setenv("RESULTS_ENABLED", "true")
	t.Setenv("SONGS_POOL_SIZE", "not-a-number")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "nats://env:4222", cfg.Channel.NATSURL)
	assert.Equal(t, "9090", cfg.Gateway.Port)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.Gateway.AllowedOrigins)
	assert.True(t, cfg.Results.Enabled)
	assert.Equal(t, 50, cfg.Songs.PoolSize)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	_, err = Load(writeConfig(t, "round: [not, a, map]"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "memory transport", mutate: func(c *Config) { c.Channel.Transport = TransportMemory }},
		{
			name:    "unknown transport",
			mutate:  func(c *Config) { c.Channel.Transport = "carrier-pigeon" },
			wantErr: true,
		},
		{
			name:    "file source without file",
			mutate:  func(c *Config) { c.Songs.Source = SongSourceFile },
			wantErr: true,
		},
		{
			name:    "unknown song source",
			mutate:  func(c *Config) { c.Songs.Source = "spotify" },
			wantErr: true,
		},
		{
			name:    "zero rounds",
			mutate:  func(c *Config) { c.Round.TotalRounds = 0 },
			wantErr: true,
		},
		{
			name:    "zero time per question",
			mutate:  func(c *Config) { c.Round.Settings.TimePerQuestion = 0 },
			wantErr: true,
		},
		{
			name: "results enabled without stream",
			mutate: func(c *Config) {
				c.Results.Enabled = true
				c.Results.Stream = ""
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidConfig)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestSetupLogging(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.GlobalLevel())

	SetupLogging(LogConfig{Level: "warn"})
	assert.Equal(t, zerolog.WarnLevel, zerolog.GlobalLevel())

	SetupLogging(LogConfig{Level: "nonsense"})
	assert.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())
}
