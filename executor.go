package darkroom

import (
	"context"
	"errors"
	"sync"

	"github.com/gogpu/darkroom/cache"
	"github.com/gogpu/darkroom/internal/parallel"
	"github.com/gogpu/darkroom/tile"
)

// minTileSize bounds the resource-exhaustion retry: below this core size a
// failing render gives up instead of halving again.
const minTileSize = 64

// executor walks compiled plans over tile grids: it schedules tiles onto
// the worker pool, resumes each tile from the deepest cached pass output,
// runs the remaining passes on the backend, and reassembles tile cores
// into the output pixmap.
type executor struct {
	backend Backend
	cache   *cache.Cache[*Pixmap] // nil when caching is disabled
	pool    *parallel.WorkerPool
}

// render produces the full output image for one plan. On backend resource
// exhaustion it retries the whole grid at a halved core size, down to
// minTileSize.
func (e *executor) render(ctx context.Context, img *Image, plan Plan, coreSize int) (*Pixmap, error) {
	if plan.Empty() {
		return img.Pix().Clone(), nil
	}

	for size := coreSize; ; size /= 2 {
		out, err := e.renderGrid(ctx, img, plan, size)
		if err == nil {
			return out, nil
		}
		if errors.Is(err, ErrResourceExhausted) && size/2 >= minTileSize {
			Logger().Warn("render out of resources, halving tile size",
				"image", img.ID(), "tile_size", size/2)
			continue
		}
		return nil, err
	}
}

// renderGrid renders every tile of one grid in parallel and assembles the
// cores. The first error wins; remaining tiles still drain but their
// results are discarded.
func (e *executor) renderGrid(ctx context.Context, img *Image, plan Plan, coreSize int) (*Pixmap, error) {
	grid := tile.NewGrid(img.Width(), img.Height(), coreSize, plan.Halo)
	out := NewPixmap(img.Width(), img.Height())

	var (
		mu       sync.Mutex
		firstErr error
	)
	tiles := grid.Tiles()
	work := make([]func(), len(tiles))
	for i := range tiles {
		t := tiles[i]
		work[i] = func() {
			mu.Lock()
			failed := firstErr != nil
			mu.Unlock()
			if failed || ctx.Err() != nil {
				return
			}

			outer, err := e.renderTile(ctx, img, plan, t)
			if err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
				return
			}
			// Core assembly: each tile owns a disjoint core rectangle, so
			// writes to out never overlap.
			outer.CopyInto(out, t.CoreOffsetX(), t.CoreOffsetY(), t.CoreW, t.CoreH, t.X, t.Y)
		}
	}
	e.pool.ExecuteAll(work)

	if firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// renderTile computes the post-plan outer region for one tile.
func (e *executor) renderTile(ctx context.Context, img *Image, plan Plan, t tile.Tile) (*Pixmap, error) {
	region := Region{
		X:      t.OuterX(),
		Y:      t.OuterY(),
		ImageW: img.Width(),
		ImageH: img.Height(),
	}
	ow, oh := t.OuterW(), t.OuterH()

	// Resume from the deepest pass whose output is still cached. Editing
	// group k leaves passes before k hitting here, so only the suffix
	// recomputes.
	cur, start := e.lookup(img, plan, t, ow, oh)
	if cur == nil {
		cur = img.Pix().SubRegion(region.X, region.Y, ow, oh)
	}

	for i := start; i < len(plan.Passes); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		dst := NewPixmap(ow, oh)
		if err := e.backend.ExecutePass(dst, cur, plan.Passes[i], region); err != nil {
			return nil, err
		}
		// Cached buffers are immutable from here on; a cancelled run never
		// publishes partial outputs.
		if e.cache != nil && ctx.Err() == nil {
			e.cache.Put(e.key(img, plan, t, i), dst)
		}
		cur = dst
	}
	return cur, nil
}

// lookup finds the deepest cached pass output with the right geometry.
// A hit with stale dimensions (the halo demand changed since it was
// stored) is skipped rather than served.
func (e *executor) lookup(img *Image, plan Plan, t tile.Tile, ow, oh int) (*Pixmap, int) {
	if e.cache == nil {
		return nil, 0
	}
	for i := len(plan.Passes) - 1; i >= 0; i-- {
		v, ok := e.cache.Get(e.key(img, plan, t, i))
		if !ok {
			continue
		}
		if v.Width() != ow || v.Height() != oh {
			continue
		}
		return v, i + 1
	}
	return nil, 0
}

func (e *executor) key(img *Image, plan Plan, t tile.Tile, pass int) cache.Key {
	return cache.Key{
		ImageID:   img.ID(),
		StackHash: plan.Passes[pass].StackHash,
		TileID:    t.ID,
		PassID:    pass,
	}
}
