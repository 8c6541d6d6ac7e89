// Command darkroom renders an edited photo to a PNG.
//
// Edits are read from a sidecar JSON document, the same format the library
// produces with edit.MarshalState. Without a sidecar the source image is
// exported unchanged.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/gogpu/darkroom"
	_ "github.com/gogpu/darkroom/backend/wgpu" // GPU backend, used when available
	"github.com/gogpu/darkroom/decode"
	"github.com/gogpu/darkroom/edit"
)

func main() {
	var (
		input   = flag.String("input", "", "source image (png, jpeg, tiff, webp, bmp, gif)")
		edits   = flag.String("edits", "", "sidecar edit document (JSON)")
		output  = flag.String("output", "out.png", "output file")
		config  = flag.String("config", "", "renderer config file (YAML)")
		backend = flag.String("backend", "", "execution backend (software, wgpu)")
		preview = flag.Int("preview", 0, "render a fast preview with this long edge instead of full resolution")
	)
	flag.Parse()

	if *input == "" {
		flag.Usage()
		os.Exit(2)
	}

	img, err := decode.File(*input)
	if err != nil {
		log.Fatalf("decode %s: %v", *input, err)
	}

	state := edit.NewState()
	if *edits != "" {
		data, err := os.ReadFile(*edits)
		if err != nil {
			log.Fatalf("read edits: %v", err)
		}
		state, err = edit.UnmarshalState(data)
		if err != nil {
			log.Fatalf("parse edits: %v", err)
		}
	}

	opts := []darkroom.Option{}
	if *config != "" {
		cfg, err := darkroom.LoadConfig(*config)
		if err != nil {
			log.Fatalf("load config: %v", err)
		}
		opts = append(opts, darkroom.WithConfig(cfg))
	}
	if *backend != "" {
		opts = append(opts, darkroom.WithBackend(*backend))
	}
	if *preview > 0 {
		opts = append(opts, darkroom.WithFastPreview(*preview))
	}

	r, err := darkroom.NewRenderer(opts...)
	if err != nil {
		log.Fatalf("renderer: %v", err)
	}
	defer func() {
		_ = r.Close()
	}()

	ctx := context.Background()
	var out *darkroom.Pixmap
	if *preview > 0 {
		out, err = r.Preview(ctx, state, img)
	} else {
		out, err = r.Render(ctx, state, img)
	}
	if err != nil {
		log.Fatalf("render: %v", err)
	}

	if err := out.SavePNG(*output); err != nil {
		log.Fatalf("save %s: %v", *output, err)
	}

	h := darkroom.NewHistogram(out)
	fmt.Printf("%s: %dx%d on %s backend, %.1f%% shadows clipped, %.1f%% highlights clipped\n",
		*output, out.Width(), out.Height(), r.Backend(),
		h.ClippedShadows()*100, h.ClippedHighlights()*100)
}
