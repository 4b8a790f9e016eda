package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/lineage/pkg/family"
	"github.com/matzehuels/lineage/pkg/graph"
	"github.com/matzehuels/lineage/pkg/pipeline"
)

// renderCommand creates the render command.
func (c *CLI) renderCommand() *cobra.Command {
	var (
		output     string
		formatsStr string
		noCache    bool
	)
	opts := pipeline.Options{}

	cmd := &cobra.Command{
		Use:   "render <tree|layout.json>",
		Short: "Render a family tree or a computed layout",
		Long: `Render a family tree or a computed layout.

Chart output (-t chart) draws the pedigree chart as SVG. Nodelink output
(-t nodelink) draws the relationship graph with Graphviz and needs the tree
itself, not a layout.json.

Formats: chart supports svg and json; nodelink supports svg, png, dot, json.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			base := c.layoutDefaults()
			opts.ReferenceX, opts.MaxPasses, opts.Logger = base.ReferenceX, base.MaxPasses, base.Logger
			opts.Formats = parseFormats(formatsStr)
			if err := opts.ValidateForRender(); err != nil {
				return err
			}
			return c.runRender(cmd.Context(), args[0], opts, output, noCache)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&opts.VizType, "type", "t", pipeline.DefaultVizType, "visualization type: chart, nodelink")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s), comma-separated (default: svg)")
	cmd.Flags().StringVar(&opts.Style, "style", pipeline.DefaultStyle, "chart style: simple, classic")
	cmd.Flags().Float64Var(&opts.Scale, "scale", 0, "chart pixels per grid unit (default 48)")
	cmd.Flags().StringVar(&opts.RootID, "root", "", "root person id (trees only)")
	cmd.Flags().BoolVar(&opts.Detailed, "detailed", false, "show years and generations (nodelink)")
	cmd.Flags().BoolVar(&opts.Refresh, "refresh", false, "recompute even when cached")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}

// runRender renders input to every requested format.
func (c *CLI) runRender(ctx context.Context, input string, opts pipeline.Options, output string, noCache bool) error {
	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	var (
		artifacts map[string][]byte
		hit       bool
		l         graph.Layout
	)
	spin := newSpinner(ctx, os.Stderr, fmt.Sprintf("Rendering %s...", opts.VizType))
	spin.Start()
	if isLayoutFile(input) {
		if opts.RootID != "" {
			spin.Stop()
			return fmt.Errorf("--root needs a tree, %s is a computed layout", input)
		}
		l, err = graph.ReadLayoutFile(input)
		if err == nil {
			artifacts, hit, err = runner.RenderWithCacheInfo(ctx, l, family.Tree{}, opts)
		}
	} else {
		var t family.Tree
		if t, err = c.loadTree(ctx, input); err == nil {
			var res *pipeline.Result
			if res, err = runner.Execute(ctx, t, opts); err == nil {
				artifacts, hit, l = res.Artifacts, res.CacheInfo.RenderHit, res.Layout
			}
		}
	}
	if err != nil {
		spin.StopWithError("Render failed")
		return err
	}
	spin.Stop()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	paths := outputPaths(input, output, opts.VizType, opts.Formats)
	formats := make([]string, 0, len(artifacts))
	for f := range artifacts {
		formats = append(formats, f)
	}
	sort.Strings(formats)

	printSuccess("Rendered %s (root %s)", opts.VizType, l.Root)
	for _, f := range formats {
		if err := os.WriteFile(paths[f], artifacts[f], 0o644); err != nil {
			return fmt.Errorf("write %s: %w", paths[f], err)
		}
		printFile(paths[f])
	}
	printStats(len(l.Nodes), len(l.Connectors), hit)
	return nil
}

// isLayoutFile reports whether path names a computed layout rather than a
// tree.
func isLayoutFile(path string) bool {
	return strings.HasSuffix(path, ".layout.json")
}

// outputPaths maps each format to its file. A single format writes to
// output when given; otherwise files are named <base>[.nodelink].<format>, with
// json written as <base>.layout.json.
func outputPaths(input, output, vizType string, formats []string) map[string]string {
	paths := make(map[string]string, len(formats))
	if len(formats) == 1 && output != "" {
		paths[formats[0]] = output
		return paths
	}

	base := outputBase(input)
	if output != "" {
		base = output
		if ext := strings.TrimPrefix(filepath.Ext(output), "."); slices.Contains(pipeline.ValidFormats[vizType], ext) {
			base = strings.TrimSuffix(output, "."+ext)
		}
	}
	if vizType == graph.VizTypeNodelink {
		base += ".nodelink"
	}
	for _, f := range formats {
		if f == pipeline.FormatJSON {
			paths[f] = base + ".layout.json" // never clobber a .json tree
			continue
		}
		paths[f] = base + "." + f
	}
	return paths
}
