package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"

	"go.uber.org/zap"

	"doodletale/internal/domain"
	"doodletale/internal/ports"
)

var (
	ErrNoImage      = errors.New("no image selected for editing")
	ErrEditInFlight = errors.New("an edit is already in progress")
)

// EditingPipeline validates and submits image-edit requests. Requests that
// are locally invalid (no image, empty instruction) never reach the service,
// and at most one submission is in flight per pipeline at a time.
type EditingPipeline struct {
	svc ports.EditService
	log *zap.Logger

	mu       sync.Mutex
	inFlight bool
}

func NewEditingPipeline(svc ports.EditService, log *zap.Logger) *EditingPipeline {
	if log == nil {
		log = zap.NewNop()
	}
	return &EditingPipeline{svc: svc, log: log}
}

// Options fetches the edit option catalog. Zero options is a valid outcome;
// a failure here must not block voice-driven editing, so callers may treat
// the error as "no options available".
func (p *EditingPipeline) Options(ctx context.Context) ([]domain.EditOption, error) {
	options, err := p.svc.FetchEditOptions(ctx)
	if err != nil {
		p.log.Warn("edit options fetch failed", zap.Error(err))
		return nil, err
	}
	return options, nil
}

// Submit sends one edit request. A second Submit while the first is still
// running returns ErrEditInFlight; re-submission after a failure is a brand
// new request.
func (p *EditingPipeline) Submit(ctx context.Context, req ports.EditRequest) (domain.EditResult, error) {
	if err := validateEditRequest(req); err != nil {
		return domain.EditResult{}, err
	}

	p.mu.Lock()
	if p.inFlight {
		p.mu.Unlock()
		return domain.EditResult{}, ErrEditInFlight
	}
	p.inFlight = true
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		p.inFlight = false
		p.mu.Unlock()
	}()

	result, err := p.svc.SubmitEdit(ctx, req)
	if err != nil {
		p.log.Warn("edit submit failed", zap.Bool("voice", isVoiceInstruction(req.Instruction)), zap.Error(err))
		return domain.EditResult{}, err
	}
	p.log.Info("edit submitted",
		zap.String("record_id", result.RecordID),
		zap.Bool("voice", result.Voice))
	return result, nil
}

func validateEditRequest(req ports.EditRequest) error {
	if req.Image == nil {
		return ErrNoImage
	}
	switch instr := req.Instruction.(type) {
	case domain.TextPrompt:
		if strings.TrimSpace(instr.Text) == "" {
			return domain.ErrEmptyInstruction
		}
	case domain.VoiceClip:
		if len(instr.Clip.Data) == 0 {
			return domain.ErrEmptyInstruction
		}
	default:
		return domain.ErrEmptyInstruction
	}
	return nil
}

func isVoiceInstruction(instr domain.Instruction) bool {
	_, ok := instr.(domain.VoiceClip)
	return ok
}

type editMessage struct {
	en string
	de string
}

var editMessages = map[string]editMessage{
	"timeout": {
		en: "The edit took too long. Please try again.",
		de: "Die Bearbeitung hat zu lange gedauert. Bitte versuche es noch einmal.",
	},
	"tooLarge": {
		en: "The drawing is too large to edit. Please pick a smaller one.",
		de: "Die Zeichnung ist zu groß zum Bearbeiten. Bitte wähle eine kleinere aus.",
	},
	"unavailable": {
		en: "Editing is not available right now. Please try again later.",
		de: "Die Bearbeitung ist gerade nicht verfügbar. Bitte versuche es später noch einmal.",
	},
}

// FailureMessage turns a submission error into a user-facing string in the
// requested language. Known failure shapes get a friendly message; anything
// else falls back to the raw error text. The error itself is never altered.
func (p *EditingPipeline) FailureMessage(err error, lang domain.Language) string {
	if err == nil {
		return ""
	}
	text := err.Error()
	lower := strings.ToLower(text)
	switch {
	case domain.IsTimeout(err), strings.Contains(lower, "timed out"), strings.Contains(lower, "timeout"):
		return editMessages["timeout"].localize(lang)
	case strings.Contains(lower, "too large"):
		return editMessages["tooLarge"].localize(lang)
	case strings.Contains(lower, "not available"), strings.Contains(lower, "unavailable"):
		return editMessages["unavailable"].localize(lang)
	}
	return text
}

func (m editMessage) localize(lang domain.Language) string {
	if lang == domain.LanguageDE {
		return m.de
	}
	return m.en
}
