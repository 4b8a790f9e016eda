package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/lineage/pkg/errors"
	"github.com/matzehuels/lineage/pkg/family"
	"github.com/matzehuels/lineage/pkg/graph"
	"github.com/matzehuels/lineage/pkg/pipeline"
)

// layoutCommand creates the layout command.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		output  string
		noCache bool
		pick    bool
		refresh bool
		rootID  string
	)

	cmd := &cobra.Command{
		Use:   "layout <tree>",
		Short: "Compute the chart layout of a family tree",
		Long: `Compute the chart layout of a family tree.

<tree> is a tree file (.json, .yaml, .yml) or the id of a stored tree. The
output is a layout.json file that 'render' turns into an SVG chart.

The root person defaults to the tree's root. Use --root to pick another one,
or --pick to choose interactively. Results are cached.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			t, err := c.loadTree(ctx, args[0])
			if err != nil {
				return err
			}
			if pick {
				id, err := pickRoot(t)
				if err != nil {
					return err
				}
				if id == "" {
					printInfo("No root selected")
					return nil
				}
				rootID = id
			}

			opts := c.layoutDefaults()
			opts.RootID = rootID
			opts.Refresh = refresh
			return c.runLayout(ctx, args[0], t, opts, output, noCache)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <tree>.layout.json)")
	cmd.Flags().StringVar(&rootID, "root", "", "root person id (default: the tree's root)")
	cmd.Flags().BoolVar(&pick, "pick", false, "choose the root person interactively")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "recompute even when cached")
	cmd.MarkFlagsMutuallyExclusive("root", "pick")

	return cmd
}

// runLayout computes the layout of t and writes it as JSON.
func (c *CLI) runLayout(ctx context.Context, input string, t family.Tree, opts pipeline.Options, output string, noCache bool) error {
	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	spin := newSpinner(ctx, os.Stderr, "Computing layout...")
	spin.Start()
	l, cacheHit, err := runner.ComputeLayoutWithCacheInfo(ctx, t, opts)
	if err != nil {
		spin.StopWithError("Layout failed")
		return fmt.Errorf("compute layout: %w", err)
	}
	spin.Stop()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	outputPath := output
	if outputPath == "" {
		outputPath = outputBase(input) + ".layout.json"
	}
	if err := graph.WriteLayoutFile(l, outputPath); err != nil {
		return fmt.Errorf("write output %s: %w", outputPath, err)
	}

	printSuccess("Layout complete (root %s)", l.Root)
	printFile(outputPath)
	printStats(len(l.Nodes), len(l.Connectors), cacheHit)
	printNextStep("Render", "lineage render "+outputPath)
	return nil
}

// loadTree reads a tree file, or fetches a stored tree when arg is not an
// existing file.
func (c *CLI) loadTree(ctx context.Context, arg string) (family.Tree, error) {
	if _, err := os.Stat(arg); err == nil {
		t, err := pipeline.ParseFile(arg)
		if err != nil {
			return family.Tree{}, fmt.Errorf("load tree %s: %w", arg, err)
		}
		return t, nil
	}
	if filepath.Ext(arg) != "" || strings.ContainsRune(arg, os.PathSeparator) {
		return family.Tree{}, errors.New(errors.ErrCodeFileNotFound, "file not found: %s", arg)
	}

	st, err := c.openStore(ctx, nil)
	if err != nil {
		return family.Tree{}, err
	}
	defer st.Close()
	t, err := st.Get(ctx, arg)
	if err != nil {
		return family.Tree{}, fmt.Errorf("load stored tree %s: %w", arg, err)
	}
	return t, nil
}

// outputBase derives the output path prefix from the input path or tree id.
func outputBase(input string) string {
	base := strings.TrimSuffix(input, filepath.Ext(input))
	return strings.TrimSuffix(base, ".layout")
}
