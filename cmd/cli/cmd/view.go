package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/fruitsalade/breadbox/pkg/models"
	"github.com/fruitsalade/breadbox/pkg/protocol"
)

var viewCmd = &cobra.Command{
	Use:   "view",
	Short: "Change view mode, grid columns, or hidden-file visibility",
	RunE: func(cmd *cobra.Command, args []string) error {
		mode, _ := cmd.Flags().GetString("mode")
		columns, _ := cmd.Flags().GetInt("columns")

		req := protocol.ViewRequest{
			Mode:        models.ViewMode(mode),
			GridColumns: columns,
		}
		if cmd.Flags().Changed("hidden") {
			hidden, _ := cmd.Flags().GetBool("hidden")
			req.ShowHidden = &hidden
		}
		if req.Mode == "" && req.GridColumns == 0 && req.ShowHidden == nil {
			return fmt.Errorf("nothing to change: pass --mode, --columns or --hidden")
		}

		c := newClient()
		ctx, cancel := newContext()
		defer cancel()

		snap, err := c.SetView(ctx, req)
		if err != nil {
			return fmt.Errorf("failed to change view: %w", err)
		}
		fmt.Printf("✓ View: %s, %d columns, hidden %s\n", snap.ViewMode, snap.GridColumns, onOff(snap.ShowHidden))
		return nil
	},
}

var sortCmd = &cobra.Command{
	Use:   "sort",
	Short: "Change the listing sort order",
	RunE: func(cmd *cobra.Command, args []string) error {
		by, _ := cmd.Flags().GetString("by")
		order, _ := cmd.Flags().GetString("order")
		if by == "" && order == "" {
			return fmt.Errorf("nothing to change: pass --by and/or --order")
		}

		c := newClient()
		ctx, cancel := newContext()
		defer cancel()

		snap, err := c.SetSort(ctx, models.SortField(by), models.SortDirection(order))
		if err != nil {
			return fmt.Errorf("failed to change sort: %w", err)
		}
		fmt.Printf("✓ Sorting by %s %s\n", snap.SortOptions.Field, snap.SortOptions.Direction)
		return nil
	},
}

var filterCmd = &cobra.Command{
	Use:   "filter <all|files|folders>",
	Short: "Restrict the listing to files, folders, or everything",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := newClient()
		ctx, cancel := newContext()
		defer cancel()

		snap, err := c.SetFilters(ctx, nil, models.FilterType(args[0]))
		if err != nil {
			return fmt.Errorf("failed to change filter: %w", err)
		}
		fmt.Printf("✓ Filter: %s\n", snap.FilterType)
		return nil
	},
}

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Manage search query and history",
}

var searchSetCmd = &cobra.Command{
	Use:   "set <query>",
	Short: "Set the live search query (empty string clears it)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		query := ""
		if len(args) == 1 {
			query = args[0]
		}

		c := newClient()
		ctx, cancel := newContext()
		defer cancel()

		snap, err := c.SetSearchQuery(ctx, query)
		if err != nil {
			return fmt.Errorf("failed to set search query: %w", err)
		}
		if snap.SearchQuery == "" {
			fmt.Println("✓ Search query cleared")
		} else {
			fmt.Printf("✓ Search query: %q\n", snap.SearchQuery)
		}
		return nil
	},
}

var searchSubmitCmd = &cobra.Command{
	Use:   "submit <term>",
	Short: "Record a submitted search in the history",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := newClient()
		ctx, cancel := newContext()
		defer cancel()

		snap, err := c.AddSearchTerm(ctx, args[0])
		if err != nil {
			return fmt.Errorf("failed to record search: %w", err)
		}
		fmt.Printf("✓ Recorded %q (%d terms in history)\n", args[0], len(snap.SearchHistory))
		return nil
	},
}

var searchHistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "List the search history, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := newClient()
		ctx, cancel := newContext()
		defer cancel()

		terms, err := c.SearchHistory(ctx)
		if err != nil {
			return fmt.Errorf("failed to fetch search history: %w", err)
		}
		if len(terms) == 0 {
			fmt.Println("No search history")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "#\tTERM")
		for i, term := range terms {
			fmt.Fprintf(w, "%d\t%s\n", i+1, term)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(viewCmd)
	viewCmd.Flags().String("mode", "", "View mode (grid or list)")
	viewCmd.Flags().Int("columns", 0, "Grid column count")
	viewCmd.Flags().Bool("hidden", false, "Show hidden files")

	rootCmd.AddCommand(sortCmd)
	sortCmd.Flags().String("by", "", "Sort field (name, date, size, type)")
	sortCmd.Flags().String("order", "", "Sort direction (asc or desc)")

	rootCmd.AddCommand(filterCmd)

	rootCmd.AddCommand(searchCmd)
	searchCmd.AddCommand(searchSetCmd)
	searchCmd.AddCommand(searchSubmitCmd)
	searchCmd.AddCommand(searchHistoryCmd)
}
