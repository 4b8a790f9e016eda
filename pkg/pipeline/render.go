package pipeline

import (
	"context"
	"fmt"

	"github.com/matzehuels/lineage/pkg/errors"
	"github.com/matzehuels/lineage/pkg/family"
	"github.com/matzehuels/lineage/pkg/graph"
	"github.com/matzehuels/lineage/pkg/render/chart"
	"github.com/matzehuels/lineage/pkg/render/nodelink"
)

// RenderFromLayout generates output artifacts in the requested formats.
//
// Chart output needs only the layout. Nodelink output is drawn from the
// tree's relationships and uses the layout for generation ranks, so t must
// be the tree the layout was computed for.
func RenderFromLayout(ctx context.Context, l graph.Layout, t family.Tree, opts Options) (map[string][]byte, error) {
	if opts.IsNodelink() {
		return renderNodelink(ctx, l, t, opts)
	}
	return renderChart(l, opts)
}

// renderChart generates chart outputs.
func renderChart(l graph.Layout, opts Options) (map[string][]byte, error) {
	style, err := chart.StyleFor(opts.Style)
	if err != nil {
		return nil, err
	}
	svgOpts := []chart.SVGOption{chart.WithStyle(style)}
	if opts.Scale > 0 {
		svgOpts = append(svgOpts, chart.WithScale(opts.Scale))
	}

	artifacts := make(map[string][]byte)
	for _, format := range opts.Formats {
		var data []byte
		switch format {
		case FormatSVG:
			data = chart.RenderSVG(l, svgOpts...)
		case FormatJSON:
			data, err = graph.MarshalLayout(l)
		default:
			return nil, errors.New(errors.ErrCodeInvalidFormat, "unsupported chart format: %s", format)
		}
		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		artifacts[format] = data
	}
	return artifacts, nil
}

// renderNodelink generates nodelink outputs.
func renderNodelink(ctx context.Context, l graph.Layout, t family.Tree, opts Options) (map[string][]byte, error) {
	if len(t.Persons) == 0 && len(l.Nodes) > 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "nodelink rendering needs the tree, not only its layout")
	}
	dot := nodelink.ToDOT(t, nodelink.Options{
		Detailed:    opts.Detailed,
		Generations: nodelink.GenerationsOf(l),
	})

	artifacts := make(map[string][]byte)
	for _, format := range opts.Formats {
		var (
			data []byte
			err  error
		)
		switch format {
		case FormatDOT:
			data = []byte(dot)
		case FormatSVG:
			data, err = nodelink.RenderSVG(ctx, dot)
		case FormatPNG:
			data, err = nodelink.RenderPNG(ctx, dot)
		case FormatJSON:
			data, err = graph.MarshalLayout(l)
		default:
			return nil, errors.New(errors.ErrCodeInvalidFormat, "unsupported nodelink format: %s", format)
		}
		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		artifacts[format] = data
	}
	return artifacts, nil
}
