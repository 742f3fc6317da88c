package ports

import (
	"context"
	"time"

	"doodletale/internal/domain"
)

// PermissionProbe answers whether microphone capture is allowed.
type PermissionProbe interface {
	MicrophoneGranted(ctx context.Context) bool
}

// RecorderSession is a live microphone capture.
type RecorderSession interface {
	// Stop finalizes the capture and returns the path of the encoded
	// artifact on disk.
	Stop() (string, error)
	// Abort terminates the capture and removes any partial artifact.
	Abort() error
}

// Recorder starts microphone capture sessions that encode to a transient
// on-disk artifact.
type Recorder interface {
	Start(ctx context.Context) (RecorderSession, error)
}

// CatalogSource fetches the category/subject catalog.
type CatalogSource interface {
	FetchCatalog(ctx context.Context) ([]domain.Category, error)
}

// TutorialGenerator requests a generated step sequence for a subject.
type TutorialGenerator interface {
	GenerateTutorial(ctx context.Context, subject domain.Bilingual, stepHint int) ([]domain.TutorialStep, error)
}

// EditRequest carries everything an edit submission needs. Exactly one
// image source and one instruction variant are set.
type EditRequest struct {
	Image       domain.ImageSource
	Instruction domain.Instruction
	SubjectHint string
	AppendToID  string
	Language    domain.Language
}

// EditService lists edit options and submits edit requests.
type EditService interface {
	FetchEditOptions(ctx context.Context) ([]domain.EditOption, error)
	SubmitEdit(ctx context.Context, req EditRequest) (domain.EditResult, error)
}

// StoryRequest carries everything a story creation needs.
type StoryRequest struct {
	Image    domain.ImageSource
	RecordID string
	Language domain.Language
}

// StoryService fetches existing stories and creates new ones.
type StoryService interface {
	FetchStory(ctx context.Context, recordID, imageURL string, lang domain.Language) (domain.Story, error)
	CreateStory(ctx context.Context, req StoryRequest) (domain.Story, error)
}

// OfflineTutorials resolves bundled step sequences by subject identity.
type OfflineTutorials interface {
	Lookup(name domain.Bilingual) ([]domain.TutorialStep, bool)
}

// Narrator speaks a story body aloud. It blocks until playback finishes,
// the context is cancelled, or playback fails.
type Narrator interface {
	Narrate(ctx context.Context, text string, lang domain.Language) error
}

// EventSink emits state changes and progress to the presentation layer.
type EventSink interface {
	CatalogStateChanged(state domain.LoadState)
	TutorialStateChanged(state domain.LoadState, reason domain.TransitionReason)
	CaptureStateChanged(state domain.CaptureState)
	RecordingTick(elapsed time.Duration)
}
