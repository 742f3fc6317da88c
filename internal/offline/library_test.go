package offline

import (
	"testing"

	"doodletale/internal/domain"
)

func TestLibraryLookupBundledSubjects(t *testing.T) {
	t.Parallel()

	lib, err := NewLibrary()
	if err != nil {
		t.Fatalf("bundled tutorials failed to load: %v", err)
	}
	if lib.Len() == 0 {
		t.Fatalf("expected bundled subjects")
	}

	steps, ok := lib.Lookup(domain.Bilingual{EN: "cat", DE: "Katze"})
	if !ok {
		t.Fatalf("expected a bundled cat tutorial")
	}
	if len(steps) < 3 {
		t.Fatalf("expected a multi-step tutorial, got %d steps", len(steps))
	}
	for i, step := range steps {
		if step.Instruction.EN == "" || step.Instruction.DE == "" {
			t.Fatalf("step %d is missing a translation: %+v", i, step.Instruction)
		}
		if step.Image != nil {
			t.Fatalf("bundled steps carry no images")
		}
	}
}

func TestLibraryLookupByEitherName(t *testing.T) {
	t.Parallel()

	lib, err := NewLibrary()
	if err != nil {
		t.Fatalf("bundled tutorials failed to load: %v", err)
	}

	if _, ok := lib.Lookup(domain.Bilingual{DE: "Hund"}); !ok {
		t.Fatalf("expected a lookup by german name to succeed")
	}
	if _, ok := lib.Lookup(domain.Bilingual{EN: "  DOG  "}); !ok {
		t.Fatalf("expected the lookup to ignore case and whitespace")
	}
	if _, ok := lib.Lookup(domain.Bilingual{EN: "unicorn"}); ok {
		t.Fatalf("expected an unknown subject to miss")
	}
	if _, ok := lib.Lookup(domain.Bilingual{}); ok {
		t.Fatalf("expected an empty name to miss")
	}
}

func TestParseDropsEntriesWithoutSteps(t *testing.T) {
	t.Parallel()

	lib, err := Parse([]byte(`[
		{"name_en": "ghost", "name_de": "Gespenst", "steps": []},
		{"name_en": "star", "name_de": "Stern", "steps": [
			{"text_en": "Draw five points.", "text_de": "Zeichne fünf Zacken."}
		]}
	]`))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if lib.Len() != 1 {
		t.Fatalf("expected one usable subject, got %d", lib.Len())
	}
	if _, ok := lib.Lookup(domain.Bilingual{EN: "ghost"}); ok {
		t.Fatalf("an entry without steps must be dropped")
	}
	if _, ok := lib.Lookup(domain.Bilingual{DE: "Stern"}); !ok {
		t.Fatalf("expected the star entry to load")
	}
}

func TestParseRejectsMalformedJSON(t *testing.T) {
	t.Parallel()

	if _, err := Parse([]byte("{not json")); err == nil {
		t.Fatalf("expected a parse error")
	}
}
