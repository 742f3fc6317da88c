package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"doodletale/internal/ports"
)

// Options configure the capture pipeline. Zero values fall back to a
// single-channel 44.1kHz AAC recording from the default input.
type Options struct {
	InputFormat string
	InputDevice string
	SampleRate  int
	Channels    int
	Bitrate     string
	Dir         string
}

// FFMPEGRecorder records microphone audio to a transient AAC file using
// ffmpeg. Each Start produces a fresh artifact; the session hands its path
// to the caller on Stop and the caller owns removal from there.
type FFMPEGRecorder struct {
	command string
	opts    Options
}

var _ ports.Recorder = (*FFMPEGRecorder)(nil)

func NewFFMPEGRecorder(command string, opts Options) *FFMPEGRecorder {
	if command == "" {
		command = "ffmpeg"
	}
	if opts.InputFormat == "" {
		opts.InputFormat = "pulse"
	}
	if opts.InputDevice == "" {
		opts.InputDevice = "default"
	}
	if opts.SampleRate <= 0 {
		opts.SampleRate = 44100
	}
	if opts.Channels <= 0 {
		opts.Channels = 1
	}
	if opts.Bitrate == "" {
		opts.Bitrate = "128k"
	}
	if opts.Dir == "" {
		opts.Dir = os.TempDir()
	}
	return &FFMPEGRecorder{command: command, opts: opts}
}

func (r *FFMPEGRecorder) Start(ctx context.Context) (ports.RecorderSession, error) {
	path := filepath.Join(r.opts.Dir, "capture-"+uuid.NewString()+".aac")

	args := []string{
		"-nostdin",
		"-hide_banner",
		"-loglevel", "warning",
		"-f", r.opts.InputFormat,
		"-i", r.opts.InputDevice,
		"-ac", strconv.Itoa(r.opts.Channels),
		"-ar", strconv.Itoa(r.opts.SampleRate),
		"-c:a", "aac",
		"-b:a", r.opts.Bitrate,
		"-y", path,
	}

	cmd := exec.CommandContext(ctx, r.command, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start ffmpeg: %w", err)
	}

	waitErr := make(chan error, 1)
	go func() {
		waitErr <- cmd.Wait()
		close(waitErr)
	}()

	select {
	case err := <-waitErr:
		_ = os.Remove(path)
		if err != nil {
			return nil, fmt.Errorf("ffmpeg exited before recording started: %w: %s", err, strings.TrimSpace(stderr.String()))
		}
		return nil, errors.New("ffmpeg exited before recording started")
	case <-time.After(250 * time.Millisecond):
	}

	return &ffmpegSession{
		path:    path,
		stderr:  &stderr,
		process: cmd.Process,
		waitErr: waitErr,
	}, nil
}

type ffmpegSession struct {
	path   string
	stderr *bytes.Buffer

	process *os.Process
	waitErr <-chan error

	stopOnce sync.Once
	stopErr  error
}

// Stop interrupts the encoder so it can finalize the container, waiting
// briefly before falling back to a hard kill, and returns the artifact
// path.
func (s *ffmpegSession) Stop() (string, error) {
	s.terminate()
	if s.stopErr != nil {
		_ = os.Remove(s.path)
		return "", s.stopErr
	}
	return s.path, nil
}

// Abort terminates the encoder and removes the partial artifact.
func (s *ffmpegSession) Abort() error {
	s.terminate()
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return s.stopErr
}

func (s *ffmpegSession) terminate() {
	s.stopOnce.Do(func() {
		if s.process != nil {
			_ = s.process.Signal(os.Interrupt)
		}

		select {
		case err, ok := <-s.waitErr:
			if ok {
				s.stopErr = normalizeStopErr(err)
			}
		case <-time.After(2 * time.Second):
			if s.process != nil {
				_ = s.process.Kill()
			}
			err, ok := <-s.waitErr
			if ok {
				s.stopErr = normalizeStopErr(err)
			}
		}

		if s.stopErr != nil && s.stderr != nil && s.stderr.Len() > 0 {
			s.stopErr = fmt.Errorf("%w: %s", s.stopErr, strings.TrimSpace(s.stderr.String()))
		}
	})
}

// normalizeStopErr drops exit status errors: an interrupted encoder is the
// sanctioned stop path, not a failure.
func normalizeStopErr(err error) error {
	if err == nil {
		return nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return nil
	}
	return err
}
