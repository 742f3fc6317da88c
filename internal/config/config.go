package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"doodletale/internal/domain"
)

// Config stores runtime configuration for the drawing companion.
type Config struct {
	Atelier AtelierConfig
	Audio   AudioConfig
	Speech  SpeechConfig
	Session SessionConfig
}

type AtelierConfig struct {
	BaseURL   string
	AuthToken string
	Timeout   time.Duration
}

type AudioConfig struct {
	RecorderCommand string
	InputFormat     string
	InputDevice     string
	SampleRate      int
	Channels        int
	Bitrate         string
	CaptureDir      string
	MicEnabled      bool
}

type SpeechConfig struct {
	APIKey  string
	BaseURL string
	VoiceEN string
	VoiceDE string
	Player  string
}

type SessionConfig struct {
	Language domain.Language
	StepHint int
}

// Load resolves configuration from environment variables and sensible
// defaults. Invalid values fall back rather than fail; a missing speech key
// simply leaves narration disabled.
func Load() Config {
	cfg := Config{
		Atelier: AtelierConfig{
			BaseURL:   envOrDefault("DOODLETALE_API_BASE", "https://api.doodletale.app"),
			AuthToken: strings.TrimSpace(os.Getenv("DOODLETALE_API_TOKEN")),
			Timeout:   time.Duration(envOrDefaultInt("DOODLETALE_API_TIMEOUT_MS", 120000)) * time.Millisecond,
		},
		Audio: AudioConfig{
			RecorderCommand: envOrDefault("DOODLETALE_FFMPEG_COMMAND", "ffmpeg"),
			InputFormat:     envOrDefault("DOODLETALE_AUDIO_INPUT_FORMAT", "pulse"),
			InputDevice:     envOrDefault("DOODLETALE_AUDIO_INPUT_DEVICE", "default"),
			SampleRate:      envOrDefaultInt("DOODLETALE_SAMPLE_RATE", 44100),
			Channels:        envOrDefaultInt("DOODLETALE_CHANNELS", 1),
			Bitrate:         envOrDefault("DOODLETALE_AUDIO_BITRATE", "128k"),
			CaptureDir:      strings.TrimSpace(os.Getenv("DOODLETALE_CAPTURE_DIR")),
			MicEnabled:      envOrDefaultBool("DOODLETALE_MIC_ENABLED", true),
		},
		Speech: SpeechConfig{
			APIKey:  strings.TrimSpace(os.Getenv("ELEVEN_LABS_API_KEY")),
			BaseURL: strings.TrimSpace(os.Getenv("ELEVEN_LABS_API_BASE_URL")),
			VoiceEN: firstNonEmpty(
				os.Getenv("DOODLETALE_VOICE_EN"),
				os.Getenv("ELEVEN_LABS_VOICE_ID"),
			),
			VoiceDE: strings.TrimSpace(os.Getenv("DOODLETALE_VOICE_DE")),
			Player:  envOrDefault("DOODLETALE_PLAYER_COMMAND", "ffplay"),
		},
		Session: SessionConfig{
			Language: parseLanguage(os.Getenv("DOODLETALE_LANGUAGE")),
			StepHint: envOrDefaultInt("DOODLETALE_STEP_HINT", 0),
		},
	}

	if cfg.Atelier.Timeout <= 0 {
		cfg.Atelier.Timeout = 120 * time.Second
	}
	if cfg.Audio.SampleRate <= 0 {
		cfg.Audio.SampleRate = 44100
	}
	if cfg.Audio.Channels <= 0 {
		cfg.Audio.Channels = 1
	}
	if cfg.Session.StepHint < 0 {
		cfg.Session.StepHint = 0
	}

	return cfg
}

func parseLanguage(value string) domain.Language {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "de":
		return domain.LanguageDE
	default:
		return domain.LanguageEN
	}
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		trimmed := strings.TrimSpace(value)
		if trimmed != "" {
			return trimmed
		}
	}
	return ""
}

func envOrDefault(key string, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func envOrDefaultInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func envOrDefaultBool(key string, fallback bool) bool {
	value := strings.TrimSpace(strings.ToLower(os.Getenv(key)))
	switch value {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}
