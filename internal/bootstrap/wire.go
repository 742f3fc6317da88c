package bootstrap

import (
	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"doodletale/internal/audio"
	"doodletale/internal/auth"
	"doodletale/internal/config"
	"doodletale/internal/offline"
	"doodletale/internal/ports"
	"doodletale/internal/providers/atelier"
	"doodletale/internal/speech"
	"doodletale/internal/usecase"
)

// Services is the assembled runtime graph.
type Services struct {
	Auth     *auth.Context
	Catalog  *usecase.CatalogLoader
	Tutorial *usecase.TutorialSession
	Capture  *usecase.CaptureBuffer
	Editing  *usecase.EditingPipeline
	Stories  *usecase.StoryPipeline
	Narrator ports.Narrator
	Config   config.Config
}

// Build wires all backend dependencies for the current runtime. The
// narrator is optional and stays nil unless speech synthesis is configured.
func Build(events ports.EventSink, log *zap.Logger) (Services, error) {
	if log == nil {
		log = zap.NewNop()
	}
	cfg := config.Load()

	authCtx := auth.NewContext()
	if cfg.Atelier.AuthToken != "" {
		authCtx.SetToken(cfg.Atelier.AuthToken)
	}

	client := atelier.NewClient(atelier.Config{
		BaseURL: cfg.Atelier.BaseURL,
		Timeout: cfg.Atelier.Timeout,
	}, authCtx, log)

	library, err := offline.NewLibrary()
	if err != nil {
		return Services{}, err
	}

	recorder := audio.NewFFMPEGRecorder(cfg.Audio.RecorderCommand, audio.Options{
		InputFormat: cfg.Audio.InputFormat,
		InputDevice: cfg.Audio.InputDevice,
		SampleRate:  cfg.Audio.SampleRate,
		Channels:    cfg.Audio.Channels,
		Bitrate:     cfg.Audio.Bitrate,
		Dir:         cfg.Audio.CaptureDir,
	})
	permission := audio.StaticPermission{Granted: cfg.Audio.MicEnabled}

	services := Services{
		Auth:     authCtx,
		Catalog:  usecase.NewCatalogLoader(client, events, log),
		Tutorial: usecase.NewTutorialSession(client, library, events, log),
		Capture:  usecase.NewCaptureBuffer(permission, recorder, events, clock.New(), log),
		Editing:  usecase.NewEditingPipeline(client, log),
		Stories:  usecase.NewStoryPipeline(client, log),
		Config:   cfg,
	}

	if cfg.Speech.APIKey != "" {
		narrator, err := speech.NewHTTPNarrator(speech.Config{
			APIKey:  cfg.Speech.APIKey,
			BaseURL: cfg.Speech.BaseURL,
			VoiceEN: cfg.Speech.VoiceEN,
			VoiceDE: cfg.Speech.VoiceDE,
			Player:  cfg.Speech.Player,
		}, log)
		if err != nil {
			return Services{}, err
		}
		services.Narrator = narrator
	}

	log.Info("services wired",
		zap.String("api_base", cfg.Atelier.BaseURL),
		zap.Bool("narration", services.Narrator != nil),
		zap.Int("offline_subjects", library.Len()))
	return services, nil
}
