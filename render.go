package darkroom

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gogpu/darkroom/cache"
	"github.com/gogpu/darkroom/edit"
	"github.com/gogpu/darkroom/internal/parallel"
)

// Renderer errors.
var (
	// ErrSuperseded reports that a newer render for the same image
	// cancelled this one. Latest-wins: only the most recent edit's run
	// survives.
	ErrSuperseded = errors.New("darkroom: render superseded by a newer edit")

	// ErrRendererClosed reports use after Close.
	ErrRendererClosed = errors.New("darkroom: renderer is closed")
)

// Renderer renders edit states against source images: it compiles the
// state to a pass plan, schedules tiles across the worker pool, executes
// passes on the configured backend, and memoizes per-tile pass outputs in
// the result cache.
//
// A Renderer is safe for concurrent use. Renders for different images run
// concurrently; a new render for an image cancels the in-flight run for
// that same image, since its output could never be shown.
type Renderer struct {
	cfg     Config
	backend Backend
	cache   *cache.Cache[*Pixmap] // nil when the budget is 0
	pool    *parallel.WorkerPool
	exec    *executor

	mu       sync.Mutex
	inflight map[string]*runToken // by image ID
	proxies  map[string]*Image
	closed   bool
}

// runToken identifies one in-flight run so a finished run only releases
// its own slot, never a successor's.
type runToken struct {
	cancel context.CancelCauseFunc
}

// NewRenderer creates a renderer.
//
// With no options, the best available backend is selected (GPU first,
// software fallback). An explicitly requested backend that fails to
// initialize is an error rather than a silent fallback.
func NewRenderer(opts ...Option) (*Renderer, error) {
	o := defaultRendererOptions()
	for _, opt := range opts {
		opt(&o)
	}
	cfg := o.cfg
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	backend, err := openBackend(cfg)
	if err != nil {
		return nil, err
	}

	r := &Renderer{
		cfg:      cfg,
		backend:  backend,
		pool:     parallel.NewWorkerPool(cfg.Workers),
		inflight: make(map[string]*runToken),
		proxies:  make(map[string]*Image),
	}
	if cfg.CacheBudgetMB > 0 {
		r.cache = cache.New[*Pixmap](int64(cfg.CacheBudgetMB) << 20)
	}
	r.exec = &executor{backend: backend, cache: r.cache, pool: r.pool}

	Logger().Info("renderer created",
		"backend", backend.Name(),
		"tile_size", cfg.TileSize,
		"cache_budget_mb", cfg.CacheBudgetMB,
		"workers", r.pool.Workers())
	return r, nil
}

// Render renders the edit state against the source image at full
// resolution. The returned pixmap is owned by the caller.
//
// Rendering an identity state returns a copy of the source pixels
// unchanged. If a newer Render or Preview call for the same image arrives
// while this one runs, this run is cancelled and returns ErrSuperseded.
func (r *Renderer) Render(ctx context.Context, state edit.State, img *Image) (*Pixmap, error) {
	runCtx, token, err := r.beginRun(ctx, img.ID())
	if err != nil {
		return nil, err
	}
	defer r.endRun(img.ID(), token)

	plan := Compile(state, img.Width(), img.Height())
	Logger().Debug("render start",
		"image", img.ID(), "passes", len(plan.Passes), "halo", plan.Halo)

	out, err := r.exec.render(runCtx, img, plan, r.cfg.TileSize)
	if err != nil {
		return nil, r.runError(runCtx, err)
	}
	return out, nil
}

// Preview renders the edit state against a reduced-resolution proxy of the
// image, sized so its long edge is the configured fast-preview edge. The
// proxy is built once per image and reused; mask geometry and spatial
// radii are scaled to match.
//
// If the fast path is disabled or the image is already small enough,
// Preview falls back to a full-resolution render.
func (r *Renderer) Preview(ctx context.Context, state edit.State, img *Image) (*Pixmap, error) {
	edge := r.cfg.FastPreviewEdge
	long := img.Width()
	if img.Height() > long {
		long = img.Height()
	}
	if edge == 0 || long <= edge {
		return r.Render(ctx, state, img)
	}

	proxy, err := r.proxyFor(img, edge)
	if err != nil {
		return nil, err
	}
	f := float64(proxy.Width()) / float64(img.Width())

	runCtx, token, err := r.beginRun(ctx, img.ID())
	if err != nil {
		return nil, err
	}
	defer r.endRun(img.ID(), token)

	scaled := scaleState(state, f)
	plan := Compile(scaled, proxy.Width(), proxy.Height())
	out, err := r.exec.render(runCtx, proxy, plan, r.cfg.TileSize)
	if err != nil {
		return nil, r.runError(runCtx, err)
	}
	return out, nil
}

// FlushCache drops every cached tile belonging to the image, including its
// preview proxy. Called on image or folder switches.
func (r *Renderer) FlushCache(imageID string) {
	r.mu.Lock()
	proxy := r.proxies[imageID]
	delete(r.proxies, imageID)
	r.mu.Unlock()

	if r.cache != nil {
		r.cache.FlushImage(imageID)
		if proxy != nil {
			r.cache.FlushImage(proxy.ID())
		}
	}
}

// CacheStats returns result cache statistics, or the zero Stats when
// caching is disabled.
func (r *Renderer) CacheStats() cache.Stats {
	if r.cache == nil {
		return cache.Stats{}
	}
	return r.cache.Stats()
}

// Backend returns the name of the active execution backend.
func (r *Renderer) Backend() string { return r.backend.Name() }

// NewHistory creates an undo history seeded with initial, with the
// drag-coalescing window taken from the renderer's configuration
// (history_coalesce_ms).
func (r *Renderer) NewHistory(initial edit.State) *edit.History {
	h := edit.NewHistory(initial)
	h.SetCoalesceWindow(time.Duration(r.cfg.HistoryCoalesceMS) * time.Millisecond)
	return h
}

// Close cancels in-flight runs, stops the worker pool, and releases
// backend resources. Close is idempotent.
func (r *Renderer) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	for _, token := range r.inflight {
		token.cancel(ErrRendererClosed)
	}
	r.inflight = nil
	r.mu.Unlock()

	r.pool.Close()
	return r.backend.Close()
}

// beginRun registers a run for the image, cancelling any run already in
// flight for it.
func (r *Renderer) beginRun(ctx context.Context, imageID string) (context.Context, *runToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, nil, ErrRendererClosed
	}
	if prev, ok := r.inflight[imageID]; ok {
		Logger().Info("run superseded", "image", imageID)
		prev.cancel(ErrSuperseded)
	}
	runCtx, cancel := context.WithCancelCause(ctx)
	token := &runToken{cancel: cancel}
	r.inflight[imageID] = token
	return runCtx, token, nil
}

// endRun releases the image's in-flight slot, but only if this run still
// owns it: a superseded run must not clear its successor's registration.
func (r *Renderer) endRun(imageID string, token *runToken) {
	token.cancel(nil)
	r.mu.Lock()
	if r.inflight != nil && r.inflight[imageID] == token {
		delete(r.inflight, imageID)
	}
	r.mu.Unlock()
}

// runError maps a cancellation back to its cause, so a superseded run
// reports ErrSuperseded rather than a bare context error.
func (r *Renderer) runError(runCtx context.Context, err error) error {
	if errors.Is(err, context.Canceled) {
		if cause := context.Cause(runCtx); cause != nil && !errors.Is(cause, context.Canceled) {
			return cause
		}
	}
	return fmt.Errorf("darkroom: render: %w", err)
}
