package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"doodletale/internal/domain"
	"doodletale/internal/ports"
)

var (
	ErrNoSubject         = errors.New("subject has no name")
	ErrNoOfflineTutorial = errors.New("no offline tutorial for this subject")
)

// TutorialSession drives one subject's generated tutorial: loading, step
// navigation, retry, and the offline fallback escape hatch. Selecting a new
// subject supersedes any in-flight generation; the stale response is
// discarded by epoch check when it lands, never applied.
type TutorialSession struct {
	generator ports.TutorialGenerator
	offline   ports.OfflineTutorials
	events    ports.EventSink
	log       *zap.Logger

	mu          sync.Mutex
	epoch       uint64
	state       domain.LoadState
	category    domain.Category
	subject     domain.Subject
	subjectName domain.Bilingual
	steps       []domain.TutorialStep
	index       int
	offlineUsed bool
	lastErr     error
}

func NewTutorialSession(generator ports.TutorialGenerator, offline ports.OfflineTutorials, events ports.EventSink, log *zap.Logger) *TutorialSession {
	if log == nil {
		log = zap.NewNop()
	}
	return &TutorialSession{
		generator: generator,
		offline:   offline,
		events:    events,
		log:       log,
		state:     domain.LoadStateInitial,
	}
}

// Select starts a fresh generation cycle for subject, resetting the step
// index and discarding any prior loaded or error state. The subject name is
// snapshotted so it survives locale switches mid-session.
func (s *TutorialSession) Select(ctx context.Context, category domain.Category, subject domain.Subject) error {
	if subject.Name.Empty() {
		return ErrNoSubject
	}

	s.mu.Lock()
	reason := domain.ReasonSubjectSelected
	if s.state == domain.LoadStateLoading {
		reason = domain.ReasonSuperseded
	}
	s.epoch++
	epoch := s.epoch
	s.category = category
	s.subject = subject
	s.subjectName = subject.Name
	s.steps = nil
	s.index = 0
	s.offlineUsed = false
	s.lastErr = nil
	s.state = domain.LoadStateLoading
	s.mu.Unlock()

	s.events.TutorialStateChanged(domain.LoadStateLoading, reason)
	return s.generate(ctx, epoch, subject.Name, subject.StepCount)
}

// Retry repeats the generation request for the current subject. It is legal
// from the error state only and preserves the chance of fresh server
// content, unlike the offline fallback.
func (s *TutorialSession) Retry(ctx context.Context) error {
	s.mu.Lock()
	if s.state != domain.LoadStateError {
		state := s.state
		s.mu.Unlock()
		return fmt.Errorf("tutorial retry not allowed from state %q", state)
	}
	s.epoch++
	epoch := s.epoch
	name := s.subjectName
	hint := s.subject.StepCount
	s.lastErr = nil
	s.state = domain.LoadStateLoading
	s.mu.Unlock()

	s.events.TutorialStateChanged(domain.LoadStateLoading, domain.ReasonRetry)
	return s.generate(ctx, epoch, name, hint)
}

func (s *TutorialSession) generate(ctx context.Context, epoch uint64, name domain.Bilingual, hint int) error {
	steps, err := s.generator.GenerateTutorial(ctx, name, hint)
	if err == nil && len(steps) == 0 {
		err = errors.New("generation returned no steps")
	}

	s.mu.Lock()
	if s.epoch != epoch {
		s.mu.Unlock()
		s.log.Debug("discarding superseded tutorial response", zap.String("subject", name.EN))
		return nil
	}
	if err != nil {
		s.state = domain.LoadStateError
		s.lastErr = err
		s.mu.Unlock()
		s.events.TutorialStateChanged(domain.LoadStateError, domain.ReasonGenerationFailed)
		s.log.Warn("tutorial generation failed", zap.String("subject", name.EN), zap.Error(err))
		return err
	}
	s.steps = steps
	s.index = 0
	s.state = domain.LoadStateLoaded
	s.mu.Unlock()

	s.events.TutorialStateChanged(domain.LoadStateLoaded, domain.ReasonGenerationDone)
	s.log.Info("tutorial loaded", zap.String("subject", name.EN), zap.Int("steps", len(steps)))
	return nil
}

// UseOfflineFallback abandons the network path for this subject and loads
// the bundled step set. It is legal from the error state only; it is a
// terminal substitute for loaded, never a retry.
func (s *TutorialSession) UseOfflineFallback() error {
	s.mu.Lock()
	if s.state != domain.LoadStateError {
		state := s.state
		s.mu.Unlock()
		return fmt.Errorf("offline fallback not allowed from state %q", state)
	}
	steps, ok := s.offline.Lookup(s.subjectName)
	if !ok || len(steps) == 0 {
		s.mu.Unlock()
		return ErrNoOfflineTutorial
	}
	s.epoch++
	s.steps = steps
	s.index = 0
	s.offlineUsed = true
	s.lastErr = nil
	s.state = domain.LoadStateLoaded
	name := s.subjectName
	s.mu.Unlock()

	s.events.TutorialStateChanged(domain.LoadStateLoaded, domain.ReasonOfflineFallback)
	s.log.Info("using offline tutorial", zap.String("subject", name.EN), zap.Int("steps", len(steps)))
	return nil
}

// NextStep advances to the next step; it is a no-op at the last one.
// Callers check HasNextStep and branch to a completion action instead.
func (s *TutorialSession) NextStep() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != domain.LoadStateLoaded {
		return
	}
	if s.index+1 < len(s.steps) {
		s.index++
	}
}

// PreviousStep steps back; it is a no-op at index 0.
func (s *TutorialSession) PreviousStep() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != domain.LoadStateLoaded {
		return
	}
	if s.index > 0 {
		s.index--
	}
}

// HasNextStep reports whether a step exists after the current one.
func (s *TutorialSession) HasNextStep() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == domain.LoadStateLoaded && s.index+1 < len(s.steps)
}

// CurrentStep returns the step at the current index once loaded.
func (s *TutorialSession) CurrentStep() (domain.TutorialStep, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != domain.LoadStateLoaded || len(s.steps) == 0 {
		return domain.TutorialStep{}, false
	}
	return s.steps[s.index], true
}

// Index returns the current 0-based step index.
func (s *TutorialSession) Index() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index
}

// StepCount returns the number of loaded steps.
func (s *TutorialSession) StepCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.steps)
}

// State returns the current loading state.
func (s *TutorialSession) State() domain.LoadState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Subject returns the currently selected subject.
func (s *TutorialSession) Subject() domain.Subject {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.subject
}

// SubjectName returns the bilingual name snapshot taken at selection time.
func (s *TutorialSession) SubjectName() domain.Bilingual {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.subjectName
}

// Category returns the category the subject was selected from.
func (s *TutorialSession) Category() domain.Category {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.category
}

// Offline reports whether the loaded steps came from the offline fallback.
func (s *TutorialSession) Offline() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.offlineUsed
}

// Err returns the failure that produced the error state, if any.
func (s *TutorialSession) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}
