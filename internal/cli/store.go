package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/lineage/pkg/graph"
	"github.com/matzehuels/lineage/pkg/pipeline"
)

// storeCommand creates the store management command.
func (c *CLI) storeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "store",
		Short: "Manage stored family trees",
		Long: `Manage stored family trees.

The backend (file, sqlite or mongo) is chosen in the config file. Stored
trees can be laid out and rendered by id: 'lineage layout <id>'.`,
	}

	cmd.AddCommand(c.storeImportCommand())
	cmd.AddCommand(c.storeListCommand())
	cmd.AddCommand(c.storeExportCommand())
	cmd.AddCommand(c.storeDeleteCommand())

	return cmd
}

func (c *CLI) storeImportCommand() *cobra.Command {
	var id string
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Validate a tree file and store it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			prog := newProgress(c.Logger)

			t, err := pipeline.ParseFile(args[0])
			if err != nil {
				return fmt.Errorf("load tree %s: %w", args[0], err)
			}
			if id != "" {
				t.ID = id
			}

			st, err := c.openStore(ctx, nil)
			if err != nil {
				return err
			}
			defer st.Close()
			if err := st.Put(ctx, &t); err != nil {
				return err
			}

			prog.done("stored tree", "id", t.ID, "persons", len(t.Persons))
			printSuccess("Stored %s", t.ID)
			printDetail("%d persons, %d relationships", len(t.Persons), len(t.Relationships))
			printNextStep("Lay out", "lineage layout "+t.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "tree id (default: the file's id, or a new UUID)")
	return cmd
}

func (c *CLI) storeListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored trees",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, err := c.openStore(ctx, nil)
			if err != nil {
				return err
			}
			defer st.Close()

			summaries, err := st.List(ctx)
			if err != nil {
				return err
			}
			if len(summaries) == 0 {
				printInfo("No stored trees")
				return nil
			}
			printSummaries(summaries)
			return nil
		},
	}
}

func (c *CLI) storeExportCommand() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "export <id>",
		Short: "Write a stored tree to a file (or stdout as YAML)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, err := c.openStore(ctx, nil)
			if err != nil {
				return err
			}
			defer st.Close()

			t, err := st.Get(ctx, args[0])
			if err != nil {
				return err
			}
			if output == "" {
				return graph.WriteTree(t, out, graph.FormatYAML)
			}
			if err := graph.WriteTreeFile(t, output); err != nil {
				return err
			}
			printSuccess("Exported %s", t.ID)
			printFile(output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (.json, .yaml, .yml)")
	return cmd
}

func (c *CLI) storeDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a stored tree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, err := c.openStore(ctx, nil)
			if err != nil {
				return err
			}
			defer st.Close()

			if err := st.Delete(ctx, args[0]); err != nil {
				return err
			}
			printSuccess("Deleted %s", args[0])
			return nil
		},
	}
}
