package audio

import (
	"context"

	"doodletale/internal/ports"
)

// StaticPermission reports a fixed microphone grant. Desktop builds run
// where the OS mediates device access outside the process, so the grant is
// a configuration decision rather than a runtime prompt.
type StaticPermission struct {
	Granted bool
}

var _ ports.PermissionProbe = StaticPermission{}

func (p StaticPermission) MicrophoneGranted(_ context.Context) bool {
	return p.Granted
}
