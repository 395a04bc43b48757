package resolve

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"sync"

	"github.com/goliatone/go-formflow/pkg/descriptor"
)

// ErrSubFormNotFound signals a lookup miss from a Provider. The resolver
// translates it into a MissingSubFormError carrying the unresolved id.
var ErrSubFormNotFound = errors.New("resolve: sub-form not found")

// Provider supplies sub-form documents by id. Implementations may hit the
// network; the repository below is the in-memory reference implementation.
type Provider interface {
	SubForm(ctx context.Context, id string) (descriptor.SubForm, error)
}

// ProviderFunc adapts a function into a Provider.
type ProviderFunc func(ctx context.Context, id string) (descriptor.SubForm, error)

// SubForm delegates to the underlying function.
func (fn ProviderFunc) SubForm(ctx context.Context, id string) (descriptor.SubForm, error) {
	return fn(ctx, id)
}

// Repository stores sub-form documents by id. It is an explicit value owned
// by the caller (one per test, one per server process) rather than a
// process-wide singleton.
type Repository struct {
	mu   sync.RWMutex
	docs map[string]descriptor.SubForm
}

// NewRepository creates an empty repository.
func NewRepository() *Repository {
	return &Repository{docs: make(map[string]descriptor.SubForm)}
}

// Register adds a sub-form document keyed by its id. Duplicate ids return an
// error so conflicting definitions surface early.
func (r *Repository) Register(doc descriptor.SubForm) error {
	if doc.ID == "" {
		return errors.New("resolve: sub-form id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.docs[doc.ID]; exists {
		return fmt.Errorf("resolve: sub-form %q already registered", doc.ID)
	}
	r.docs[doc.ID] = doc.Clone()
	return nil
}

// MustRegister panics on registration failure. Useful for init-time wiring.
func (r *Repository) MustRegister(doc descriptor.SubForm) {
	if err := r.Register(doc); err != nil {
		panic(err)
	}
}

// SubForm implements Provider. Misses return ErrSubFormNotFound.
func (r *Repository) SubForm(_ context.Context, id string) (descriptor.SubForm, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	doc, ok := r.docs[id]
	if !ok {
		return descriptor.SubForm{}, fmt.Errorf("%w: %q", ErrSubFormNotFound, id)
	}
	return doc.Clone(), nil
}

// Lookup retrieves a registered document without the Provider error contract.
func (r *Repository) Lookup(id string) (descriptor.SubForm, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	doc, ok := r.docs[id]
	if !ok {
		return descriptor.SubForm{}, false
	}
	return doc.Clone(), true
}

// Clear removes every registered document.
func (r *Repository) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.docs = make(map[string]descriptor.SubForm)
}

// IDs returns the sorted ids of every registered document.
func (r *Repository) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.docs))
	for id := range r.docs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// LoadFS walks the filesystem and registers every JSON/YAML sub-form document
// it finds.
func (r *Repository) LoadFS(fsys fs.FS) error {
	if fsys == nil {
		return nil
	}
	return fs.WalkDir(fsys, ".", func(name string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if entry.IsDir() || !isDocumentFile(name) {
			return nil
		}
		raw, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("resolve: read %s: %w", name, err)
		}
		doc, err := descriptor.ParseSubForm(raw)
		if err != nil {
			return fmt.Errorf("resolve: %s: %w", name, err)
		}
		if err := r.Register(doc); err != nil {
			return fmt.Errorf("resolve: %s: %w", name, err)
		}
		return nil
	})
}

func isDocumentFile(name string) bool {
	switch path.Ext(name) {
	case ".json", ".yaml", ".yml":
		return true
	}
	return false
}
