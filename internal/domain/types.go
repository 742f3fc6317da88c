package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Language selects one side of a bilingual text pair.
type Language string

const (
	LanguageEN Language = "en"
	LanguageDE Language = "de"
)

// Bilingual holds the English and German renditions of one text.
type Bilingual struct {
	EN string
	DE string
}

// For returns the text for lang exactly as stored; it may be empty.
func (b Bilingual) For(lang Language) string {
	if lang == LanguageDE {
		return b.DE
	}
	return b.EN
}

// Resolve returns the text for lang, falling back to the other language
// when the requested side is empty.
func (b Bilingual) Resolve(lang Language) string {
	if text := b.For(lang); text != "" {
		return text
	}
	if lang == LanguageDE {
		return b.EN
	}
	return b.DE
}

// Empty reports whether both sides are empty.
func (b Bilingual) Empty() bool {
	return b.EN == "" && b.DE == ""
}

// Color is an 8-bit RGBA color parsed from catalog hex strings.
type Color struct {
	R uint8
	G uint8
	B uint8
	A uint8
}

// DefaultAccent replaces catalog colors that fail to parse.
var DefaultAccent = Color{R: 0x42, G: 0xA5, B: 0xF5, A: 0xFF}

// ParseHexColor parses "#RRGGBB" or "#AARRGGBB"; the leading '#' is optional.
func ParseHexColor(s string) (Color, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	switch len(hex) {
	case 6:
		hex = "FF" + hex
	case 8:
	default:
		return Color{}, fmt.Errorf("hex color %q: expected 6 or 8 digits", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return Color{}, fmt.Errorf("hex color %q: %w", s, err)
	}
	return Color{
		A: uint8(v >> 24),
		R: uint8(v >> 16),
		G: uint8(v >> 8),
		B: uint8(v),
	}, nil
}

// Category groups subjects under a bilingual title.
// A category with an empty title pair is invalid and never surfaced.
type Category struct {
	Title       Bilingual
	Description Bilingual
	Icon        string
	Accent      Color
	Subjects    []Subject
}

// Subject is a drawable motif a tutorial can be generated for.
// Its identity is the bilingual name pair; there is no surrogate key.
type Subject struct {
	Name      Bilingual
	Emoji     string
	StepCount int
	Thumbnail string
}

// TutorialStep is one instruction in a generated tutorial. Image is nil
// when the server sent none or the payload could not be decoded.
type TutorialStep struct {
	Instruction Bilingual
	Image       []byte
}

// EditOption is a predefined instruction template for image editing.
type EditOption struct {
	ID          string
	Title       Bilingual
	Description Bilingual
	Template    Bilingual
	Glyph       string
	Accent      Color
}

// EditResult references the edited image a submission produced. Exactly one
// of URL and Data is set, depending on how the server returned the image.
type EditResult struct {
	RecordID string
	URL      string
	Data     []byte
	Option   *EditOption
	Voice    bool
}

// Story is a bilingual narration generated for an edited image.
type Story struct {
	Title    Bilingual
	Body     Bilingual
	ImageURL string
}

// AudioClip is a finished in-memory recording.
type AudioClip struct {
	Data     []byte
	Duration time.Duration
}

// ImageSource identifies where the image for an edit submission comes from.
// Exactly one variant is supplied per submission.
type ImageSource interface {
	isImageSource()
}

// FileUpload points at an image file on local disk.
type FileUpload struct {
	Path string
}

// InlineBytes carries a raster image already held in memory.
type InlineBytes struct {
	Name string
	Data []byte
}

// RemoteReference points at an image the server already stores.
type RemoteReference struct {
	URL string
}

func (FileUpload) isImageSource()      {}
func (InlineBytes) isImageSource()     {}
func (RemoteReference) isImageSource() {}

// Instruction is the edit instruction accompanying an image.
// Exactly one variant is supplied per submission.
type Instruction interface {
	isInstruction()
}

// TextPrompt is a typed instruction, optionally derived from an EditOption.
type TextPrompt struct {
	Text   string
	Option *EditOption
}

// VoiceClip is a spoken instruction captured by the recorder.
type VoiceClip struct {
	Clip AudioClip
}

func (TextPrompt) isInstruction() {}
func (VoiceClip) isInstruction()  {}

// LoadState models the catalog and tutorial loading lifecycle.
type LoadState string

const (
	LoadStateInitial LoadState = "initial"
	LoadStateLoading LoadState = "loading"
	LoadStateLoaded  LoadState = "loaded"
	LoadStateEmpty   LoadState = "empty"
	LoadStateError   LoadState = "error"
)

// CaptureState models the audio recording lifecycle.
type CaptureState string

const (
	CaptureStateIdle      CaptureState = "idle"
	CaptureStateRecording CaptureState = "recording"
	CaptureStateStopped   CaptureState = "stopped"
)

// TransitionReason provides a structured reason for tutorial state changes.
type TransitionReason string

const (
	ReasonSubjectSelected  TransitionReason = "subject_selected"
	ReasonGenerationDone   TransitionReason = "generation_done"
	ReasonGenerationFailed TransitionReason = "generation_failed"
	ReasonRetry            TransitionReason = "retry"
	ReasonOfflineFallback  TransitionReason = "offline_fallback"
	ReasonSuperseded       TransitionReason = "superseded"
)
