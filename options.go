package darkroom

// Option configures a Renderer during creation.
// Use functional options to customize Renderer behavior.
//
// Example:
//
//	// Defaults: best available backend, 512px tiles
//	r := darkroom.NewRenderer()
//
//	// Explicit backend and budget
//	r := darkroom.NewRenderer(
//	    darkroom.WithBackend("wgpu"),
//	    darkroom.WithCacheBudget(1<<30),
//	)
type Option func(*rendererOptions)

// rendererOptions holds optional configuration for Renderer creation.
type rendererOptions struct {
	cfg Config
}

// defaultRendererOptions returns the default renderer options.
func defaultRendererOptions() rendererOptions {
	return rendererOptions{cfg: DefaultConfig()}
}

// WithConfig replaces the whole configuration.
// Later options still override individual fields.
func WithConfig(cfg Config) Option {
	return func(o *rendererOptions) {
		o.cfg = cfg
	}
}

// WithBackend selects the execution backend by name.
// When a backend is selected explicitly, initialization failure is surfaced
// as an error instead of silently falling back to another backend.
func WithBackend(name string) Option {
	return func(o *rendererOptions) {
		o.cfg.Backend = name
	}
}

// WithTileSize sets the core tile edge length in pixels.
func WithTileSize(size int) Option {
	return func(o *rendererOptions) {
		o.cfg.TileSize = size
	}
}

// WithCacheBudget sets the result cache memory budget in bytes, rounded
// up to a whole number of MiB so that any nonzero budget keeps caching
// enabled. A budget of 0 disables caching.
func WithCacheBudget(bytes int64) Option {
	return func(o *rendererOptions) {
		o.cfg.CacheBudgetMB = int((bytes + 1<<20 - 1) >> 20)
	}
}

// WithWorkers sets the number of tile workers. 0 uses GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(o *rendererOptions) {
		o.cfg.Workers = n
	}
}

// WithFastPreview sets the long-edge size of the fast-path proxy render.
// Pass 0 to disable the fast path entirely.
func WithFastPreview(longEdge int) Option {
	return func(o *rendererOptions) {
		o.cfg.FastPreviewEdge = longEdge
	}
}
