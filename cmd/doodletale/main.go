package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"doodletale/internal/bootstrap"
	"doodletale/internal/domain"
	"doodletale/internal/ports"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "doodletale:", err)
		os.Exit(1)
	}
}

func run() error {
	if err := godotenv.Load(); err != nil {
		fmt.Fprintln(os.Stderr, "no .env file found, relying on environment")
	}

	logger := buildLogger()
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	services, err := bootstrap.Build(consoleEvents{}, logger)
	if err != nil {
		return err
	}

	app := &app{
		services: services,
		in:       bufio.NewScanner(os.Stdin),
		lang:     services.Config.Session.Language,
	}
	return app.run(ctx)
}

func buildLogger() *zap.Logger {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("DOODLETALE_DEBUG"))) {
	case "1", "true", "yes", "on":
		logger, err := zap.NewDevelopment()
		if err == nil {
			return logger
		}
	}
	return zap.NewNop()
}

type app struct {
	services bootstrap.Services
	in       *bufio.Scanner
	lang     domain.Language
}

func (a *app) run(ctx context.Context) error {
	fmt.Println("Doodletale drawing companion")
	for ctx.Err() == nil {
		category, subject, ok := a.chooseSubject(ctx)
		if !ok {
			return nil
		}
		a.runTutorial(ctx, category, subject)
	}
	return nil
}

// chooseSubject drives the catalog to loaded (offering retries on failure)
// and walks the category and subject menus. ok is false when the user
// quits or nothing is drawable.
func (a *app) chooseSubject(ctx context.Context) (domain.Category, domain.Subject, bool) {
	catalog := a.services.Catalog

	for catalog.State() != domain.LoadStateLoaded {
		if ctx.Err() != nil {
			return domain.Category{}, domain.Subject{}, false
		}
		var err error
		switch catalog.State() {
		case domain.LoadStateInitial:
			err = catalog.Load(ctx)
		case domain.LoadStateError:
			if !a.confirm("Loading failed. Try again?") {
				return domain.Category{}, domain.Subject{}, false
			}
			err = catalog.Retry(ctx)
		case domain.LoadStateEmpty:
			fmt.Println("No categories are available yet. Come back later!")
			return domain.Category{}, domain.Subject{}, false
		}
		if err != nil {
			fmt.Println(describeError(err))
		}
	}

	categories := catalog.Categories()
	for {
		fmt.Println("\nWhat do you want to draw today?")
		for i, category := range categories {
			fmt.Printf("%2d. %s %s\n", i+1, category.Icon, category.Title.Resolve(a.lang))
		}
		idx, ok := a.pickIndex("Category (enter to quit)", len(categories))
		if !ok {
			return domain.Category{}, domain.Subject{}, false
		}
		category := categories[idx]
		if len(category.Subjects) == 0 {
			fmt.Println("Nothing to draw here yet.")
			continue
		}

		fmt.Printf("\n%s\n", category.Description.Resolve(a.lang))
		for i, subject := range category.Subjects {
			fmt.Printf("%2d. %s %s\n", i+1, subject.Emoji, subject.Name.Resolve(a.lang))
		}
		idx, ok = a.pickIndex("Subject (enter to go back)", len(category.Subjects))
		if !ok {
			continue
		}
		return category, category.Subjects[idx], true
	}
}

func (a *app) runTutorial(ctx context.Context, category domain.Category, subject domain.Subject) {
	session := a.services.Tutorial
	if err := session.Select(ctx, category, subject); err != nil {
		fmt.Println(describeError(err))
		if !a.recoverTutorial(ctx) {
			return
		}
	}

walk:
	for {
		step, ok := session.CurrentStep()
		if !ok {
			return
		}
		fmt.Printf("\nStep %d of %d: %s\n", session.Index()+1, session.StepCount(), step.Instruction.Resolve(a.lang))
		if step.Image != nil {
			fmt.Printf("  (picture available, %d bytes)\n", len(step.Image))
		}
		if !session.HasNextStep() {
			fmt.Println("That was the last step. Well done!")
			break walk
		}
		switch a.prompt("[n]ext, [p]revious, [d]one drawing") {
		case "p":
			session.PreviousStep()
		case "d":
			break walk
		default:
			session.NextStep()
		}
	}

	if a.confirm("Want to edit a photo of your drawing?") {
		a.runEditing(ctx, subject)
	}
}

// recoverTutorial loops on the failed generation menu until the tutorial is
// loaded or the user gives up.
func (a *app) recoverTutorial(ctx context.Context) bool {
	session := a.services.Tutorial
	for session.State() == domain.LoadStateError {
		if ctx.Err() != nil {
			return false
		}
		switch a.prompt("[r]etry, [o]ffline tutorial, [b]ack") {
		case "r":
			if err := session.Retry(ctx); err != nil {
				fmt.Println(describeError(err))
			}
		case "o":
			if err := session.UseOfflineFallback(); err != nil {
				fmt.Println("There is no built-in tutorial for this one.")
			}
		case "b":
			return false
		}
	}
	return session.State() == domain.LoadStateLoaded
}

func (a *app) runEditing(ctx context.Context, subject domain.Subject) {
	path := a.prompt("Path to a photo of your drawing (enter to skip)")
	if path == "" {
		return
	}

	var image domain.ImageSource = domain.FileUpload{Path: path}
	recordID := ""
	for {
		result, ok := a.submitEdit(ctx, image, recordID, subject)
		if !ok {
			return
		}
		recordID = result.RecordID
		switch {
		case result.URL != "":
			fmt.Printf("Your edited drawing is ready: %s\n", result.URL)
			image = domain.RemoteReference{URL: result.URL}
		case len(result.Data) > 0:
			fmt.Printf("Your edited drawing is ready (%d bytes).\n", len(result.Data))
			image = domain.InlineBytes{Name: "edited.png", Data: result.Data}
		}

		if recordID != "" && a.confirm("Hear a story about it?") {
			a.runStory(ctx, image, recordID)
		}
		if !a.confirm("Another edit?") {
			return
		}
	}
}

func (a *app) submitEdit(ctx context.Context, image domain.ImageSource, recordID string, subject domain.Subject) (domain.EditResult, bool) {
	editing := a.services.Editing

	options, err := editing.Options(ctx)
	if err != nil {
		options = nil
	}
	if len(options) > 0 {
		fmt.Println("\nPick an edit, type your own, or say it:")
		for i, option := range options {
			fmt.Printf("%2d. %s %s\n", i+1, option.Glyph, option.Title.Resolve(a.lang))
		}
	}

	for {
		if ctx.Err() != nil {
			return domain.EditResult{}, false
		}
		input := a.prompt("Edit instruction (number, text, or [v]oice; enter to cancel)")
		if input == "" {
			return domain.EditResult{}, false
		}

		var instruction domain.Instruction
		switch {
		case input == "v":
			clip, ok := a.recordInstruction(ctx)
			if !ok {
				continue
			}
			instruction = domain.VoiceClip{Clip: clip}
		default:
			if n, err := strconv.Atoi(input); err == nil && n >= 1 && n <= len(options) {
				option := options[n-1]
				instruction = domain.TextPrompt{Text: option.Template.Resolve(a.lang), Option: &option}
			} else {
				instruction = domain.TextPrompt{Text: input}
			}
		}

		result, err := editing.Submit(ctx, ports.EditRequest{
			Image:       image,
			Instruction: instruction,
			SubjectHint: subject.Name.Resolve(domain.LanguageEN),
			AppendToID:  recordID,
			Language:    a.lang,
		})
		if err != nil {
			fmt.Println(editing.FailureMessage(err, a.lang))
			if !a.confirm("Try another instruction?") {
				return domain.EditResult{}, false
			}
			continue
		}
		return result, true
	}
}

// recordInstruction captures one spoken instruction, letting the child
// restart mid-recording or re-record after hearing the duration.
func (a *app) recordInstruction(ctx context.Context) (domain.AudioClip, bool) {
	capture := a.services.Capture
	for {
		if err := capture.Start(ctx); err != nil {
			if errors.Is(err, domain.ErrPermissionDenied) {
				fmt.Println("Microphone access is disabled.")
			} else {
				fmt.Println(describeError(err))
			}
			return domain.AudioClip{}, false
		}

		input := a.prompt("Recording! Enter to stop, r+enter to start over")
		for input == "r" {
			if err := capture.Restart(ctx); err != nil {
				fmt.Println(describeError(err))
				return domain.AudioClip{}, false
			}
			input = a.prompt("Recording! Enter to stop, r+enter to start over")
		}

		clip, err := capture.Stop()
		if err != nil {
			if errors.Is(err, domain.ErrCaptureLost) {
				fmt.Println("The recording was lost. Try again.")
			} else {
				fmt.Println(describeError(err))
			}
			return domain.AudioClip{}, false
		}
		if len(clip.Data) == 0 {
			fmt.Println("Nothing was recorded.")
			return domain.AudioClip{}, false
		}

		keep := a.confirm(fmt.Sprintf("Recorded %s. Use it?", clip.Duration))
		_ = capture.Discard()
		if keep {
			return clip, true
		}
		if !a.confirm("Record again?") {
			return domain.AudioClip{}, false
		}
	}
}

func (a *app) runStory(ctx context.Context, image domain.ImageSource, recordID string) {
	stories := a.services.Stories
	req := ports.StoryRequest{Image: image, RecordID: recordID, Language: a.lang}

	outcome, err := stories.FetchOrCreate(ctx, req)
	if err != nil {
		fmt.Println(describeError(err))
		return
	}
	story := outcome.Story
	if !outcome.Found {
		if !a.confirm("There is no story yet. Create one now?") {
			return
		}
		story, err = stories.Create(ctx, req)
		if err != nil {
			if errors.Is(err, domain.ErrIncompleteContent) {
				fmt.Println("The story came back incomplete. Try again later.")
			} else {
				fmt.Println(describeError(err))
			}
			return
		}
	}

	fmt.Printf("\n%s\n\n%s\n\n", story.Title.Resolve(a.lang), story.Body.Resolve(a.lang))
	if a.services.Narrator != nil && a.confirm("Read it aloud?") {
		if err := a.services.Narrator.Narrate(ctx, story.Body.Resolve(a.lang), a.lang); err != nil {
			fmt.Println("Narration failed:", describeError(err))
		}
	}
}

func (a *app) prompt(label string) string {
	fmt.Printf("%s > ", label)
	if !a.in.Scan() {
		return ""
	}
	return strings.TrimSpace(a.in.Text())
}

func (a *app) confirm(label string) bool {
	switch strings.ToLower(a.prompt(label + " [y/N]")) {
	case "y", "yes", "j", "ja":
		return true
	}
	return false
}

func (a *app) pickIndex(label string, count int) (int, bool) {
	for {
		input := a.prompt(label)
		if input == "" {
			return 0, false
		}
		n, err := strconv.Atoi(input)
		if err == nil && n >= 1 && n <= count {
			return n - 1, true
		}
		fmt.Println("Pick a number from the list.")
	}
}

// describeError turns domain failures into short child-friendly lines; the
// menus around it decide which retry affordance to offer.
func describeError(err error) string {
	var apiErr *domain.APIError
	var malformed *domain.MalformedResponseError
	switch {
	case err == nil:
		return ""
	case domain.IsTimeout(err):
		return "The server took too long to answer."
	case errors.As(err, &apiErr):
		if apiErr.StatusCode == 401 {
			return "Not signed in. Check DOODLETALE_API_TOKEN."
		}
		return apiErr.Message
	case errors.As(err, &malformed):
		return "The server answer could not be read."
	case isNetworkErr(err):
		return "Could not reach the server. Check your connection."
	}
	return err.Error()
}

func isNetworkErr(err error) bool {
	var netErr *domain.NetworkError
	return errors.As(err, &netErr)
}

// consoleEvents renders state changes as terminal lines.
type consoleEvents struct{}

func (consoleEvents) CatalogStateChanged(state domain.LoadState) {
	if state == domain.LoadStateLoading {
		fmt.Println("Loading the catalog...")
	}
}

func (consoleEvents) TutorialStateChanged(state domain.LoadState, reason domain.TransitionReason) {
	switch {
	case state == domain.LoadStateLoading && reason == domain.ReasonRetry:
		fmt.Println("Trying again...")
	case state == domain.LoadStateLoading:
		fmt.Println("Preparing your drawing tutorial...")
	case state == domain.LoadStateLoaded && reason == domain.ReasonOfflineFallback:
		fmt.Println("Using the built-in tutorial instead.")
	}
}

func (consoleEvents) CaptureStateChanged(state domain.CaptureState) {
	if state == domain.CaptureStateStopped {
		fmt.Println()
	}
}

func (consoleEvents) RecordingTick(elapsed time.Duration) {
	fmt.Printf("\r  %s ", elapsed.Truncate(time.Second))
}
