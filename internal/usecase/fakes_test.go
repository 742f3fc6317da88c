package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"doodletale/internal/domain"
	"doodletale/internal/ports"
)

type fakeCatalogSource struct {
	mu         sync.Mutex
	categories []domain.Category
	err        error
	calls      int
	started    chan struct{}
	release    chan struct{}
}

func (f *fakeCatalogSource) FetchCatalog(_ context.Context) ([]domain.Category, error) {
	f.mu.Lock()
	f.calls++
	started := f.started
	release := f.release
	f.started = nil
	f.mu.Unlock()

	if started != nil {
		close(started)
	}
	if release != nil {
		<-release
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.categories, nil
}

type generatorScript struct {
	steps   []domain.TutorialStep
	err     error
	started chan struct{}
	release chan struct{}
}

type fakeGenerator struct {
	mu       sync.Mutex
	scripts  []generatorScript
	calls    int
	subjects []domain.Bilingual
	hints    []int
}

func (f *fakeGenerator) GenerateTutorial(_ context.Context, subject domain.Bilingual, stepHint int) ([]domain.TutorialStep, error) {
	f.mu.Lock()
	if f.calls >= len(f.scripts) {
		f.mu.Unlock()
		return nil, errors.New("no generation scripted")
	}
	script := f.scripts[f.calls]
	f.calls++
	f.subjects = append(f.subjects, subject)
	f.hints = append(f.hints, stepHint)
	f.mu.Unlock()

	if script.started != nil {
		close(script.started)
	}
	if script.release != nil {
		<-script.release
	}
	return script.steps, script.err
}

type fakeOffline struct {
	steps map[string][]domain.TutorialStep
}

func (f *fakeOffline) Lookup(name domain.Bilingual) ([]domain.TutorialStep, bool) {
	steps, ok := f.steps[name.EN]
	return steps, ok
}

type fakePermission struct {
	granted bool
}

func (f *fakePermission) MicrophoneGranted(_ context.Context) bool { return f.granted }

type fakeRecorder struct {
	mu       sync.Mutex
	sessions []*fakeRecorderSession
	err      error
	calls    int
}

func (f *fakeRecorder) Start(_ context.Context) (ports.RecorderSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if f.calls >= len(f.sessions) {
		return nil, errors.New("no recorder session scripted")
	}
	session := f.sessions[f.calls]
	f.calls++
	return session, nil
}

type fakeRecorderSession struct {
	mu         sync.Mutex
	path       string
	stopErr    error
	abortErr   error
	stopCalls  int
	abortCalls int
}

func (f *fakeRecorderSession) Stop() (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopCalls++
	return f.path, f.stopErr
}

func (f *fakeRecorderSession) Abort() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.abortCalls++
	return f.abortErr
}

type fakeEditService struct {
	mu       sync.Mutex
	options  []domain.EditOption
	optErr   error
	result   domain.EditResult
	err      error
	calls    int
	requests []ports.EditRequest
	started  chan struct{}
	release  chan struct{}
}

func (f *fakeEditService) FetchEditOptions(_ context.Context) ([]domain.EditOption, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.optErr != nil {
		return nil, f.optErr
	}
	return f.options, nil
}

func (f *fakeEditService) SubmitEdit(_ context.Context, req ports.EditRequest) (domain.EditResult, error) {
	f.mu.Lock()
	f.calls++
	f.requests = append(f.requests, req)
	started := f.started
	release := f.release
	f.started = nil
	f.mu.Unlock()

	if started != nil {
		close(started)
	}
	if release != nil {
		<-release
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	return f.result, f.err
}

func (f *fakeEditService) submitCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeStoryService struct {
	mu          sync.Mutex
	story       domain.Story
	fetchErr    error
	created     domain.Story
	createErr   error
	fetchCalls  int
	createCalls int
	lastRecord  string
	lastURL     string
	lastLang    domain.Language
	lastCreate  ports.StoryRequest
}

func (f *fakeStoryService) FetchStory(_ context.Context, recordID, imageURL string, lang domain.Language) (domain.Story, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetchCalls++
	f.lastRecord = recordID
	f.lastURL = imageURL
	f.lastLang = lang
	if f.fetchErr != nil {
		return domain.Story{}, f.fetchErr
	}
	return f.story, nil
}

func (f *fakeStoryService) CreateStory(_ context.Context, req ports.StoryRequest) (domain.Story, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createCalls++
	f.lastCreate = req
	if f.createErr != nil {
		return domain.Story{}, f.createErr
	}
	return f.created, nil
}

type tutorialEvent struct {
	state  domain.LoadState
	reason domain.TransitionReason
}

type fakeEventSink struct {
	mu       sync.Mutex
	catalog  []domain.LoadState
	tutorial []tutorialEvent
	capture  []domain.CaptureState
	ticks    []time.Duration
}

func (f *fakeEventSink) CatalogStateChanged(state domain.LoadState) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.catalog = append(f.catalog, state)
}

func (f *fakeEventSink) TutorialStateChanged(state domain.LoadState, reason domain.TransitionReason) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tutorial = append(f.tutorial, tutorialEvent{state: state, reason: reason})
}

func (f *fakeEventSink) CaptureStateChanged(state domain.CaptureState) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.capture = append(f.capture, state)
}

func (f *fakeEventSink) RecordingTick(elapsed time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ticks = append(f.ticks, elapsed)
}

func (f *fakeEventSink) snapshotCatalog() []domain.LoadState {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.LoadState, len(f.catalog))
	copy(out, f.catalog)
	return out
}

func (f *fakeEventSink) snapshotTutorial() []tutorialEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]tutorialEvent, len(f.tutorial))
	copy(out, f.tutorial)
	return out
}

func (f *fakeEventSink) snapshotCapture() []domain.CaptureState {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.CaptureState, len(f.capture))
	copy(out, f.capture)
	return out
}

func (f *fakeEventSink) snapshotTicks() []time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]time.Duration, len(f.ticks))
	copy(out, f.ticks)
	return out
}
