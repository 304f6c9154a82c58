package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/commitly/commitlybot/internal/logger"
)

// ErrCorrupt marks a stored document that exists but cannot be decoded.
var ErrCorrupt = errors.New("registry document is corrupt")

// Store persists a whole Document.
type Store interface {
	Load(ctx context.Context) (Document, error)
	Save(ctx context.Context, doc Document) error
	Close() error
}

// quarantiner is implemented by stores that can keep a corrupt document
// around before it is overwritten.
type quarantiner interface {
	Quarantine(ctx context.Context) (string, error)
}

// Registry serializes access to a Store. Every operation reads the stored
// document, so edits made by another process between calls are picked up.
type Registry struct {
	mu    sync.Mutex
	store Store
	log   *slog.Logger
}

// New returns a Registry over store.
func New(store Store, log *slog.Logger) *Registry {
	if log == nil {
		log = logger.Discard()
	}
	return &Registry{store: store, log: log.With("component", "registry")}
}

// Load returns the stored document. Store errors are logged and an empty
// document is returned.
func (r *Registry) Load(ctx context.Context) Document {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.load(ctx)
}

// Save replaces the stored document.
func (r *Registry) Save(ctx context.Context, doc Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.save(ctx, doc)
}

// Track adds id to the recipients if it is not there yet.
func (r *Registry) Track(ctx context.Context, id int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := r.loadForUpdate(ctx)
	if err != nil {
		return false, err
	}
	if doc.Contains(id) {
		return false, nil
	}
	doc.Users = append(doc.Users, id)
	if err := r.save(ctx, doc); err != nil {
		return false, err
	}
	r.log.InfoContext(ctx, "New recipient tracked", "chat_id", id, "total", len(doc.Users))
	return true, nil
}

// Recipients returns the known recipients in first-seen order.
func (r *Registry) Recipients(ctx context.Context) []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.load(ctx).Users)
}

// Region returns the stored news region of id.
func (r *Registry) Region(ctx context.Context, id int64) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	region, ok := r.load(ctx).Regions[id]
	return region, ok
}

// SetRegion stores the news region of id.
func (r *Registry) SetRegion(ctx context.Context, id int64, region string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := r.loadForUpdate(ctx)
	if err != nil {
		return err
	}
	if doc.Regions == nil {
		doc.Regions = make(map[int64]string)
	}
	doc.Regions[id] = region
	return r.save(ctx, doc)
}

// Completed reports whether the one-shot identified by key has finished.
// Unlike Load it does not fail open: an unreadable store must not cause a
// second run.
func (r *Registry) Completed(ctx context.Context, key string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := r.store.Load(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to load registry: %w", err)
	}
	_, ok := doc.CompletedTasks[key]
	return ok, nil
}

// MarkCompleted records that the one-shot identified by key finished at at.
func (r *Registry) MarkCompleted(ctx context.Context, key string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := r.loadForUpdate(ctx)
	if err != nil {
		return err
	}
	if doc.CompletedTasks == nil {
		doc.CompletedTasks = make(map[string]time.Time)
	}
	doc.CompletedTasks[key] = at
	return r.save(ctx, doc)
}

// Close closes the underlying store.
func (r *Registry) Close() error {
	return r.store.Close()
}

func (r *Registry) load(ctx context.Context) Document {
	doc, err := r.store.Load(ctx)
	if err != nil {
		r.log.WarnContext(ctx, "Failed to load registry, starting empty", "error", err)
		return Document{}
	}
	return doc
}

// loadForUpdate reads the document a write is based on. Only a corrupt
// document is replaced by an empty one; any other read failure aborts the
// write so stored recipients are never dropped.
func (r *Registry) loadForUpdate(ctx context.Context) (Document, error) {
	doc, err := r.store.Load(ctx)
	if err == nil {
		return doc, nil
	}
	if !errors.Is(err, ErrCorrupt) {
		r.log.ErrorContext(ctx, "Failed to load registry, write skipped", "error", err)
		return Document{}, fmt.Errorf("failed to load registry: %w", err)
	}

	q, ok := r.store.(quarantiner)
	if !ok {
		r.log.WarnContext(ctx, "Registry document is corrupt, starting empty", "error", err)
		return Document{}, nil
	}
	aside, qerr := q.Quarantine(ctx)
	if qerr != nil {
		r.log.ErrorContext(ctx, "Failed to move corrupt registry aside, write skipped", "error", qerr)
		return Document{}, fmt.Errorf("failed to quarantine corrupt registry: %w", qerr)
	}
	r.log.WarnContext(ctx, "Registry document is corrupt, moved aside and starting empty", "moved_to", aside, "error", err)
	return Document{}, nil
}

func (r *Registry) save(ctx context.Context, doc Document) error {
	if err := r.store.Save(ctx, doc); err != nil {
		r.log.ErrorContext(ctx, "Failed to save registry", "error", err)
		return fmt.Errorf("failed to save registry: %w", err)
	}
	return nil
}
