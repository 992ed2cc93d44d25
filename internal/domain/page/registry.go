package page

import (
	"log/slog"
	"sync"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"

	"github.com/ben-burie/Stryde/internal/domain/authform"
	"github.com/ben-burie/Stryde/internal/domain/chat"
	"github.com/ben-burie/Stryde/internal/domain/profilemenu"
	"github.com/ben-burie/Stryde/internal/domain/upload"
	apperrors "github.com/ben-burie/Stryde/pkg/errors"
	"github.com/ben-burie/Stryde/pkg/metrics"
)

// Deps are the collaborators shared by every page.
type Deps struct {
	Analyzer  upload.Analyzer
	Responder chat.Responder
	Clock     clock.Clock
	Chat      chat.Config
	Metrics   *metrics.Manager
	Logger    *slog.Logger
}

// Registry tracks live pages by id.
type Registry struct {
	deps   Deps
	logger *slog.Logger

	mu    sync.RWMutex
	pages map[string]*Page
}

// NewRegistry is a wire provider for live pages.
func NewRegistry(deps Deps) *Registry {
	return &Registry{
		deps:   deps,
		logger: deps.Logger.With("component", "page.registry"),
		pages:  make(map[string]*Page),
	}
}

// Create builds and registers a fresh page of kind.
func (r *Registry) Create(kind Kind) (*Page, error) {
	if _, err := ParseKind(string(kind)); err != nil {
		return nil, err
	}
	p := r.build(kind)

	r.mu.Lock()
	r.pages[p.ID] = p
	r.mu.Unlock()

	r.deps.Metrics.LivePages(1)
	r.logger.Info("page opened", "page_id", p.ID, "kind", kind)
	return p, nil
}

// Get returns a live page.
func (r *Registry) Get(id string) (*Page, error) {
	r.mu.RLock()
	p, ok := r.pages[id]
	r.mu.RUnlock()
	if !ok {
		return nil, apperrors.Wrap(apperrors.CodePageNotFound, "page not found", nil)
	}
	return p, nil
}

// Remove closes and forgets a page. Unknown ids are ignored.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	p, ok := r.pages[id]
	delete(r.pages, id)
	r.mu.Unlock()
	if !ok {
		return
	}
	p.Close()
	r.deps.Metrics.LivePages(-1)
	r.logger.Info("page closed", "page_id", id, "kind", p.Kind)
}

// Len reports the number of live pages.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.pages)
}

// CloseAll closes every page, used on shutdown.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	ids := make([]string, 0, len(r.pages))
	for id := range r.pages {
		ids = append(ids, id)
	}
	r.mu.Unlock()
	for _, id := range ids {
		r.Remove(id)
	}
}

func (r *Registry) build(kind Kind) *Page {
	id := uuid.NewString()
	p := &Page{
		ID:      id,
		Kind:    kind,
		logger:  r.deps.Logger.With("page_id", id),
		updates: make(chan View, 1),
	}
	switch kind {
	case KindHome:
		p.menu = profilemenu.New(p, p.publish)
		p.pipeline = upload.NewPipeline(r.deps.Analyzer, r.deps.Metrics, p.logger, p.publish)
		p.chat = chat.NewPanel(r.deps.Chat, r.deps.Responder, r.deps.Clock, r.deps.Metrics, p.logger, p.publish)
	case KindLogon:
		p.auth = authform.New(p.publish)
	}
	return p
}
