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

var ErrCatalogBusy = errors.New("catalog load already in progress")

// CatalogLoader drives the category catalog through its loading states.
// Empty is a distinct terminal-success state from Error: a valid
// zero-category response never reports as a failure.
type CatalogLoader struct {
	source ports.CatalogSource
	events ports.EventSink
	log    *zap.Logger

	mu         sync.Mutex
	state      domain.LoadState
	epoch      uint64
	categories []domain.Category
	lastErr    error
}

func NewCatalogLoader(source ports.CatalogSource, events ports.EventSink, log *zap.Logger) *CatalogLoader {
	if log == nil {
		log = zap.NewNop()
	}
	return &CatalogLoader{
		source: source,
		events: events,
		log:    log,
		state:  domain.LoadStateInitial,
	}
}

// Load fetches the catalog. It is legal from the initial state only; Retry
// covers the error state.
func (l *CatalogLoader) Load(ctx context.Context) error {
	return l.load(ctx, domain.LoadStateInitial)
}

// Retry repeats a failed load. It is legal from the error state only; there
// is no automatic retry or backoff.
func (l *CatalogLoader) Retry(ctx context.Context) error {
	return l.load(ctx, domain.LoadStateError)
}

func (l *CatalogLoader) load(ctx context.Context, from domain.LoadState) error {
	epoch, err := l.beginLoad(from)
	if err != nil {
		return err
	}
	l.events.CatalogStateChanged(domain.LoadStateLoading)

	categories, fetchErr := l.source.FetchCatalog(ctx)

	l.mu.Lock()
	if l.epoch != epoch {
		l.mu.Unlock()
		return nil
	}
	var state domain.LoadState
	switch {
	case fetchErr != nil:
		state = domain.LoadStateError
		l.categories = nil
		l.lastErr = fetchErr
	case len(categories) == 0:
		state = domain.LoadStateEmpty
		l.categories = nil
		l.lastErr = nil
	default:
		state = domain.LoadStateLoaded
		l.categories = categories
		l.lastErr = nil
	}
	l.state = state
	l.mu.Unlock()

	l.events.CatalogStateChanged(state)
	if fetchErr != nil {
		l.log.Warn("catalog load failed", zap.Error(fetchErr))
		return fetchErr
	}
	l.log.Info("catalog loaded", zap.Int("categories", len(categories)))
	return nil
}

func (l *CatalogLoader) beginLoad(from domain.LoadState) (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state == domain.LoadStateLoading {
		return 0, ErrCatalogBusy
	}
	if l.state != from {
		return 0, fmt.Errorf("catalog load not allowed from state %q", l.state)
	}
	l.state = domain.LoadStateLoading
	l.epoch++
	return l.epoch, nil
}

// State returns the current loading state.
func (l *CatalogLoader) State() domain.LoadState {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Categories returns the loaded catalog; it is empty unless the state is
// loaded.
func (l *CatalogLoader) Categories() []domain.Category {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.categories
}

// Err returns the failure that produced the error state, if any.
func (l *CatalogLoader) Err() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lastErr
}
