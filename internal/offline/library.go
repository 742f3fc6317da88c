package offline

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"doodletale/internal/domain"
	"doodletale/internal/ports"
)

//go:embed tutorials.json
var tutorialsJSON []byte

// Library resolves bundled step-by-step tutorials by subject name. It backs
// the fallback path when tutorial generation is unreachable, so lookups are
// purely in-memory and the bundled steps carry no images.
type Library struct {
	byName map[string][]domain.TutorialStep
	count  int
}

var _ ports.OfflineTutorials = (*Library)(nil)

type entryDTO struct {
	NameEN string    `json:"name_en"`
	NameDE string    `json:"name_de"`
	Steps  []stepDTO `json:"steps"`
}

type stepDTO struct {
	TextEN string `json:"text_en"`
	TextDE string `json:"text_de"`
}

// NewLibrary loads the bundled tutorial set.
func NewLibrary() (*Library, error) {
	return Parse(tutorialsJSON)
}

// Parse builds a library from a JSON tutorial set. Entries without steps
// are dropped.
func Parse(data []byte) (*Library, error) {
	var entries []entryDTO
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse offline tutorials: %w", err)
	}

	lib := &Library{byName: make(map[string][]domain.TutorialStep)}
	for _, entry := range entries {
		if len(entry.Steps) == 0 {
			continue
		}
		steps := make([]domain.TutorialStep, 0, len(entry.Steps))
		for _, step := range entry.Steps {
			steps = append(steps, domain.TutorialStep{
				Instruction: domain.Bilingual{EN: step.TextEN, DE: step.TextDE},
			})
		}
		for _, key := range []string{entry.NameEN, entry.NameDE} {
			if key == "" {
				continue
			}
			lib.byName[normalize(key)] = steps
		}
		lib.count++
	}
	return lib, nil
}

// Lookup resolves a subject by either side of its name, ignoring case and
// surrounding whitespace.
func (l *Library) Lookup(name domain.Bilingual) ([]domain.TutorialStep, bool) {
	for _, key := range []string{name.EN, name.DE} {
		if key == "" {
			continue
		}
		if steps, ok := l.byName[normalize(key)]; ok {
			return steps, true
		}
	}
	return nil, false
}

// Len returns the number of bundled subjects.
func (l *Library) Len() int {
	return l.count
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
