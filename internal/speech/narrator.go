package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"

	"doodletale/internal/domain"
	"doodletale/internal/ports"
)

const (
	defaultBaseURL      = "https://api.elevenlabs.io/v1"
	defaultVoiceID      = "21m00Tcm4TlvDq8ikWAM"
	defaultModelID      = "eleven_multilingual_v2"
	defaultOutputFormat = "mp3_44100_128"
	defaultPlayer       = "ffplay"
)

// Config configures the narrator. APIKey is required; everything else has
// a working default.
type Config struct {
	APIKey  string
	BaseURL string
	VoiceEN string
	VoiceDE string
	ModelID string
	Player  string
	Timeout time.Duration
}

// HTTPNarrator synthesizes speech over an ElevenLabs-shaped HTTP API and
// plays the returned audio through an external player process. Narrate
// blocks until playback finishes.
type HTTPNarrator struct {
	cfg        Config
	httpClient *http.Client
	log        *zap.Logger
}

var _ ports.Narrator = (*HTTPNarrator)(nil)

func NewHTTPNarrator(cfg Config, log *zap.Logger) (*HTTPNarrator, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("narrator API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.VoiceEN == "" {
		cfg.VoiceEN = defaultVoiceID
	}
	if cfg.VoiceDE == "" {
		cfg.VoiceDE = cfg.VoiceEN
	}
	if cfg.ModelID == "" {
		cfg.ModelID = defaultModelID
	}
	if cfg.Player == "" {
		cfg.Player = defaultPlayer
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &HTTPNarrator{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		log:        log,
	}, nil
}

type synthesisRequest struct {
	Text          string        `json:"text"`
	ModelID       string        `json:"model_id"`
	LanguageCode  string        `json:"language_code,omitempty"`
	VoiceSettings voiceSettings `json:"voice_settings"`
}

type voiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
}

// Narrate speaks text in the requested language. It returns once playback
// has finished, the context is cancelled, or synthesis or playback failed.
func (n *HTTPNarrator) Narrate(ctx context.Context, text string, lang domain.Language) error {
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("narration text cannot be empty")
	}

	audio, err := n.synthesize(ctx, text, lang)
	if err != nil {
		return err
	}
	return n.play(ctx, audio)
}

func (n *HTTPNarrator) synthesize(ctx context.Context, text string, lang domain.Language) ([]byte, error) {
	payload, err := json.Marshal(synthesisRequest{
		Text:         text,
		ModelID:      n.cfg.ModelID,
		LanguageCode: string(lang),
		VoiceSettings: voiceSettings{
			Stability:       0.5,
			SimilarityBoost: 0.75,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal synthesis request: %w", err)
	}

	url := fmt.Sprintf("%s/text-to-speech/%s?output_format=%s", n.cfg.BaseURL, n.voiceFor(lang), defaultOutputFormat)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create synthesis request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/mpeg")
	req.Header.Set("xi-api-key", n.cfg.APIKey)

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("synthesis request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		n.log.Warn("speech synthesis failed",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("response", detail))
		return nil, fmt.Errorf("speech synthesis returned status %d", resp.StatusCode)
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read synthesis response: %w", err)
	}
	if len(audio) == 0 {
		return nil, fmt.Errorf("speech synthesis returned no audio")
	}
	n.log.Debug("speech synthesized", zap.String("language", string(lang)), zap.Int("bytes", len(audio)))
	return audio, nil
}

func (n *HTTPNarrator) play(ctx context.Context, audio []byte) error {
	cmd := exec.CommandContext(ctx, n.cfg.Player, "-nodisp", "-autoexit", "-loglevel", "quiet", "-")
	cmd.Stdin = bytes.NewReader(audio)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if stderr.Len() > 0 {
			return fmt.Errorf("audio playback failed: %w: %s", err, strings.TrimSpace(stderr.String()))
		}
		return fmt.Errorf("audio playback failed: %w", err)
	}
	return nil
}

func (n *HTTPNarrator) voiceFor(lang domain.Language) string {
	if lang == domain.LanguageDE {
		return n.cfg.VoiceDE
	}
	return n.cfg.VoiceEN
}
