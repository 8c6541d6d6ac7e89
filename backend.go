package darkroom

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// Backend execution errors.
var (
	// ErrBackendUnavailable reports that a backend cannot initialize on
	// this machine (no adapter, driver failure).
	ErrBackendUnavailable = errors.New("darkroom: backend unavailable")

	// ErrResourceExhausted reports that a backend ran out of device or
	// host memory executing a pass. The executor retries the region at a
	// halved tile size before giving up.
	ErrResourceExhausted = errors.New("darkroom: backend resources exhausted")

	// ErrShaderCompile reports a kernel compilation failure. The error
	// message names the failing pass.
	ErrShaderCompile = errors.New("darkroom: shader compilation failed")
)

// Region locates a tile's outer rectangle within the full image. Passes
// whose math depends on absolute position (vignette falloff, grain hashing,
// lens geometry, mask rasterization) evaluate against these coordinates,
// which is what makes tiled output bit-identical to a whole-image render.
type Region struct {
	// X, Y is the outer origin in image space. Halos clamp to the image,
	// so the origin is always within bounds.
	X, Y int

	// ImageW, ImageH are the full image dimensions.
	ImageW, ImageH int
}

// Backend executes compiled passes over pixel regions.
//
// ExecutePass applies one pass to the outer region held in src, writing
// the result to dst. Both buffers have the region's outer dimensions and
// never alias. Implementations must be safe for concurrent calls; the
// tile workers share one backend.
type Backend interface {
	Name() string
	ExecutePass(dst, src *Pixmap, pass Pass, region Region) error
	Close() error
}

// BackendFactory creates a backend from renderer configuration.
// Initialization errors (wrapped ErrBackendUnavailable for missing
// hardware) let the default selection fall through to the next candidate.
type BackendFactory func(cfg Config) (Backend, error)

var (
	backendsMu sync.RWMutex
	backends   = make(map[string]BackendFactory)
)

// RegisterBackend makes a backend available by name, typically from an
// init function in the backend's package. Registering a duplicate name
// panics.
func RegisterBackend(name string, factory BackendFactory) {
	backendsMu.Lock()
	defer backendsMu.Unlock()
	if _, dup := backends[name]; dup {
		panic("darkroom: RegisterBackend called twice for " + name)
	}
	backends[name] = factory
}

// Backends returns the registered backend names, sorted.
func Backends() []string {
	backendsMu.RLock()
	defer backendsMu.RUnlock()
	names := make([]string, 0, len(backends))
	for name := range backends {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// openBackend creates the backend named in cfg. An explicitly selected
// backend that fails to initialize is an error, never a silent fallback;
// an empty name tries candidates best-first and falls back.
func openBackend(cfg Config) (Backend, error) {
	if cfg.Backend != "" {
		backendsMu.RLock()
		factory, ok := backends[cfg.Backend]
		backendsMu.RUnlock()
		if !ok {
			return nil, fmt.Errorf("%w: unknown backend %q (registered: %v)",
				ErrBackendUnavailable, cfg.Backend, Backends())
		}
		b, err := factory(cfg)
		if err != nil {
			return nil, fmt.Errorf("darkroom: backend %q failed to initialize: %w", cfg.Backend, err)
		}
		return b, nil
	}

	var firstErr error
	for _, name := range []string{"wgpu", "software"} {
		backendsMu.RLock()
		factory, ok := backends[name]
		backendsMu.RUnlock()
		if !ok {
			continue
		}
		b, err := factory(cfg)
		if err == nil {
			Logger().Debug("backend selected", "backend", name)
			return b, nil
		}
		Logger().Debug("backend unavailable", "backend", name, "error", err)
		if firstErr == nil {
			firstErr = err
		}
	}
	if firstErr != nil {
		return nil, firstErr
	}
	return nil, fmt.Errorf("%w: no backends registered", ErrBackendUnavailable)
}
