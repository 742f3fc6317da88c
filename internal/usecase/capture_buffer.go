package usecase

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"doodletale/internal/domain"
	"doodletale/internal/ports"
)

var (
	ErrRecordingActive = errors.New("recording already in progress")
	ErrNotRecording    = errors.New("no recording in progress")
	ErrNoClip          = errors.New("no captured clip")
)

// CaptureBuffer records microphone audio into an in-memory clip. Bytes
// exist only between stop and the submit or discard that consumes them; the
// transient on-disk artifact the recorder produces is removed as soon as it
// has been read, so no audio persists beyond process memory.
type CaptureBuffer struct {
	permissions ports.PermissionProbe
	recorder    ports.Recorder
	events      ports.EventSink
	clk         clock.Clock
	log         *zap.Logger

	mu       sync.Mutex
	state    domain.CaptureState
	session  ports.RecorderSession
	started  time.Time
	duration time.Duration
	clip     []byte
	tickStop chan struct{}
}

func NewCaptureBuffer(permissions ports.PermissionProbe, recorder ports.Recorder, events ports.EventSink, clk clock.Clock, log *zap.Logger) *CaptureBuffer {
	if clk == nil {
		clk = clock.New()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &CaptureBuffer{
		permissions: permissions,
		recorder:    recorder,
		events:      events,
		clk:         clk,
		log:         log,
		state:       domain.CaptureStateIdle,
	}
}

// Start begins a new capture. A denied microphone permission reports
// ErrPermissionDenied before the recorder is touched. Any previously
// captured clip is reset, and the elapsed counter starts ticking once per
// second until stop.
func (b *CaptureBuffer) Start(ctx context.Context) error {
	if !b.permissions.MicrophoneGranted(ctx) {
		return domain.ErrPermissionDenied
	}

	b.mu.Lock()
	if b.state == domain.CaptureStateRecording {
		b.mu.Unlock()
		return ErrRecordingActive
	}
	b.state = domain.CaptureStateRecording
	b.clip = nil
	b.duration = 0
	b.mu.Unlock()

	session, err := b.recorder.Start(ctx)
	if err != nil {
		b.mu.Lock()
		b.state = domain.CaptureStateIdle
		b.mu.Unlock()
		return fmt.Errorf("start recorder: %w", err)
	}

	ticker := b.clk.Ticker(time.Second)
	stop := make(chan struct{})
	b.mu.Lock()
	b.session = session
	b.started = b.clk.Now()
	b.tickStop = stop
	b.mu.Unlock()

	go b.tickLoop(ticker, stop)

	b.events.CaptureStateChanged(domain.CaptureStateRecording)
	return nil
}

// Stop finalizes the capture, reads the artifact into memory, and removes
// the on-disk file. A recorder that finished without a retrievable artifact
// is a hard failure (ErrCaptureLost); an artifact with zero bytes resolves
// to a clean idle with no clip.
func (b *CaptureBuffer) Stop() (domain.AudioClip, error) {
	b.mu.Lock()
	if b.state != domain.CaptureStateRecording {
		b.mu.Unlock()
		return domain.AudioClip{}, ErrNotRecording
	}
	session := b.session
	stop := b.tickStop
	elapsed := b.clk.Now().Sub(b.started).Truncate(time.Second)
	b.mu.Unlock()

	if stop != nil {
		close(stop)
	}

	path, err := session.Stop()
	if err != nil {
		b.finish(domain.CaptureStateIdle, elapsed, nil)
		return domain.AudioClip{}, fmt.Errorf("stop recorder: %w", err)
	}
	if path == "" {
		b.finish(domain.CaptureStateIdle, elapsed, nil)
		return domain.AudioClip{}, domain.ErrCaptureLost
	}

	data, readErr := os.ReadFile(path)
	if removeErr := os.Remove(path); removeErr != nil && !os.IsNotExist(removeErr) {
		b.log.Warn("could not remove capture artifact", zap.String("path", path), zap.Error(removeErr))
	}
	if readErr != nil {
		b.finish(domain.CaptureStateIdle, elapsed, nil)
		if os.IsNotExist(readErr) {
			return domain.AudioClip{}, domain.ErrCaptureLost
		}
		return domain.AudioClip{}, fmt.Errorf("read capture artifact: %w", readErr)
	}
	if len(data) == 0 {
		b.finish(domain.CaptureStateIdle, elapsed, nil)
		return domain.AudioClip{}, nil
	}

	b.finish(domain.CaptureStateStopped, elapsed, data)
	return domain.AudioClip{Data: data, Duration: elapsed}, nil
}

// Abort cancels an active recording and drops any partial artifact without
// reading it.
func (b *CaptureBuffer) Abort() error {
	b.mu.Lock()
	if b.state != domain.CaptureStateRecording {
		b.mu.Unlock()
		return ErrNotRecording
	}
	session := b.session
	stop := b.tickStop
	b.mu.Unlock()

	if stop != nil {
		close(stop)
	}
	if err := session.Abort(); err != nil {
		b.log.Warn("recorder abort reported an error", zap.Error(err))
	}

	b.finish(domain.CaptureStateIdle, 0, nil)
	return nil
}

// Restart discards whatever the buffer holds and starts a fresh capture.
// Bytes from the previous recording are unreachable afterwards.
func (b *CaptureBuffer) Restart(ctx context.Context) error {
	b.mu.Lock()
	state := b.state
	b.mu.Unlock()

	switch state {
	case domain.CaptureStateRecording:
		if err := b.Abort(); err != nil {
			return err
		}
	case domain.CaptureStateStopped:
		if err := b.Discard(); err != nil {
			return err
		}
	}
	return b.Start(ctx)
}

// Discard drops the captured clip and returns to idle. It is also the
// reset path after a clip has been submitted successfully.
func (b *CaptureBuffer) Discard() error {
	b.mu.Lock()
	if b.state != domain.CaptureStateStopped {
		b.mu.Unlock()
		return ErrNoClip
	}
	b.clip = nil
	b.state = domain.CaptureStateIdle
	b.mu.Unlock()

	b.events.CaptureStateChanged(domain.CaptureStateIdle)
	return nil
}

// Clip returns the captured audio while the buffer is stopped. The bytes
// are consumed exactly once: after a successful submit the caller calls
// Discard to return the buffer to idle.
func (b *CaptureBuffer) Clip() (domain.AudioClip, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state != domain.CaptureStateStopped || len(b.clip) == 0 {
		return domain.AudioClip{}, ErrNoClip
	}
	return domain.AudioClip{Data: b.clip, Duration: b.duration}, nil
}

// State returns the current capture state.
func (b *CaptureBuffer) State() domain.CaptureState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Duration returns the elapsed recording time in whole seconds, frozen at
// stop and reset by the next start.
func (b *CaptureBuffer) Duration() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == domain.CaptureStateRecording {
		return b.clk.Now().Sub(b.started).Truncate(time.Second)
	}
	return b.duration
}

func (b *CaptureBuffer) finish(state domain.CaptureState, duration time.Duration, clip []byte) {
	b.mu.Lock()
	b.state = state
	b.session = nil
	b.tickStop = nil
	b.duration = duration
	b.clip = clip
	b.mu.Unlock()

	b.events.CaptureStateChanged(state)
}

func (b *CaptureBuffer) tickLoop(ticker *clock.Ticker, stop chan struct{}) {
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			b.mu.Lock()
			if b.state != domain.CaptureStateRecording {
				b.mu.Unlock()
				return
			}
			elapsed := b.clk.Now().Sub(b.started).Truncate(time.Second)
			b.duration = elapsed
			b.mu.Unlock()
			b.events.RecordingTick(elapsed)
		case <-stop:
			return
		}
	}
}
