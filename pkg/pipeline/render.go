package pipeline

import (
	"context"
	"fmt"

	"github.com/matzehuels/railgen/pkg/generator"
	"github.com/matzehuels/railgen/pkg/render"
	"github.com/matzehuels/railgen/pkg/render/nodelink"
)

// Render generates output artifacts in the requested formats.
func Render(ctx context.Context, m *generator.Map, opts Options) (map[string][]byte, error) {
	artifacts := make(map[string][]byte, len(opts.Formats))
	var dot string

	for _, format := range opts.Formats {
		var data []byte
		var err error

		switch format {
		case render.FormatText:
			data = []byte(render.ASCII(m, render.ASCIIOptions{Stations: opts.Stations}))
		case render.FormatSVG:
			data = render.SVG(m, svgOptions(opts)...)
		case render.FormatDOT, render.FormatGraphSVG, render.FormatGraphPNG:
			if dot == "" {
				dot = nodelink.ToDOT(m, nodelink.Options{Detailed: opts.Detailed})
			}
			switch format {
			case render.FormatDOT:
				data = []byte(dot)
			case render.FormatGraphSVG:
				data, err = nodelink.RenderSVG(ctx, dot)
			default:
				data, err = nodelink.RenderPNG(ctx, dot)
			}
		default:
			return nil, fmt.Errorf("unsupported format: %s", format)
		}

		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		artifacts[format] = data
	}

	return artifacts, nil
}

func svgOptions(opts Options) []render.SVGOption {
	svgOpts := []render.SVGOption{render.WithCellSize(opts.CellSize)}
	if opts.Stations {
		svgOpts = append(svgOpts, render.WithStations())
	}
	if opts.Grid {
		svgOpts = append(svgOpts, render.WithGridLines())
	}
	return svgOpts
}
