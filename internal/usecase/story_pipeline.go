package usecase

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"doodletale/internal/domain"
	"doodletale/internal/ports"
)

// StoryOutcome is the result of a fetch-first story lookup. Found is false
// when no story exists yet for the record; that is an outcome, not an error,
// and callers offer creation as the next step.
type StoryOutcome struct {
	Story domain.Story
	Found bool
}

// StoryPipeline fetches existing stories and creates new ones. The language
// is fixed per call; requests in another language are independent.
type StoryPipeline struct {
	svc ports.StoryService
	log *zap.Logger
}

func NewStoryPipeline(svc ports.StoryService, log *zap.Logger) *StoryPipeline {
	if log == nil {
		log = zap.NewNop()
	}
	return &StoryPipeline{svc: svc, log: log}
}

// FetchOrCreate looks up the story for a saved drawing, falling back to
// creation when the drawing has no server identity to look up. A fetch that
// comes back 404 reports Found=false with a nil error; it never creates
// implicitly.
func (p *StoryPipeline) FetchOrCreate(ctx context.Context, req ports.StoryRequest) (StoryOutcome, error) {
	ref, hasRef := req.Image.(domain.RemoteReference)
	if req.RecordID == "" || !hasRef {
		story, err := p.Create(ctx, req)
		if err != nil {
			return StoryOutcome{}, err
		}
		return StoryOutcome{Story: story, Found: true}, nil
	}

	story, err := p.svc.FetchStory(ctx, req.RecordID, ref.URL, req.Language)
	if domain.IsNotFound(err) {
		p.log.Info("no story for drawing yet", zap.String("record_id", req.RecordID))
		return StoryOutcome{}, nil
	}
	if err != nil {
		p.log.Warn("story fetch failed", zap.String("record_id", req.RecordID), zap.Error(err))
		return StoryOutcome{}, err
	}
	if err := checkComplete(story, req.Language); err != nil {
		return StoryOutcome{}, err
	}
	return StoryOutcome{Story: story, Found: true}, nil
}

// Create requests a brand new story for the drawing.
func (p *StoryPipeline) Create(ctx context.Context, req ports.StoryRequest) (domain.Story, error) {
	story, err := p.svc.CreateStory(ctx, req)
	if err != nil {
		p.log.Warn("story creation failed", zap.Error(err))
		return domain.Story{}, err
	}
	if err := checkComplete(story, req.Language); err != nil {
		return domain.Story{}, err
	}
	p.log.Info("story created", zap.String("language", string(req.Language)))
	return story, nil
}

// checkComplete rejects stories missing a title or body in the requested
// language, even when the response itself was well-formed.
func checkComplete(story domain.Story, lang domain.Language) error {
	if strings.TrimSpace(story.Title.For(lang)) == "" || strings.TrimSpace(story.Body.For(lang)) == "" {
		return domain.ErrIncompleteContent
	}
	return nil
}
