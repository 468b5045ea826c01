package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/fruitsalade/breadbox/pkg/models"
)

var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Inspect or reset the file-manager state",
}

var stateGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Show the current state snapshot",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := newClient()
		ctx, cancel := newContext()
		defer cancel()

		snap, err := c.State(ctx)
		if err != nil {
			return fmt.Errorf("failed to fetch state: %w", err)
		}

		asJSON, _ := cmd.Flags().GetBool("json")
		if asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(snap)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintf(w, "Path:\t%s\n", snap.CurrentPath)
		fmt.Fprintf(w, "Files:\t%d\n", len(snap.Files))
		fmt.Fprintf(w, "Selected:\t%d (multi-select %s)\n", snap.SelectedCount, onOff(snap.MultiSelectMode))
		fmt.Fprintf(w, "Favorites:\t%d\n", len(snap.Favorites))
		fmt.Fprintf(w, "Recents:\t%d\n", len(snap.RecentFiles))
		fmt.Fprintf(w, "Clipboard:\t%s (%d files)\n", snap.Clipboard.Type, len(snap.Clipboard.Files))
		fmt.Fprintf(w, "Sort:\t%s %s\n", snap.SortOptions.Field, snap.SortOptions.Direction)
		fmt.Fprintf(w, "Filter:\t%s\n", snap.FilterType)
		fmt.Fprintf(w, "View:\t%s (%d columns, hidden %s)\n", snap.ViewMode, snap.GridColumns, onOff(snap.ShowHidden))
		if snap.SearchQuery != "" {
			fmt.Fprintf(w, "Search:\t%q\n", snap.SearchQuery)
		}
		return w.Flush()
	},
}

var stateResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Restore the state to its defaults",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := newClient()
		ctx, cancel := newContext()
		defer cancel()

		if _, err := c.ResetState(ctx); err != nil {
			return fmt.Errorf("failed to reset state: %w", err)
		}

		fmt.Println("✓ State reset to defaults")
		return nil
	},
}

var cdCmd = &cobra.Command{
	Use:   "cd <path>",
	Short: "Change the current directory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := newClient()
		ctx, cancel := newContext()
		defer cancel()

		snap, err := c.SetPath(ctx, args[0])
		if err != nil {
			return fmt.Errorf("failed to change path: %w", err)
		}

		if record, _ := cmd.Flags().GetBool("record"); record {
			if snap, err = c.AddHistory(ctx, args[0]); err != nil {
				return fmt.Errorf("failed to record history: %w", err)
			}
		}

		fmt.Printf("✓ Now at %s (%d paths in history)\n", snap.CurrentPath, len(snap.History))
		return nil
	},
}

var selectCmd = &cobra.Command{
	Use:   "select",
	Short: "Manage the file selection",
}

var selectAllCmd = &cobra.Command{
	Use:   "all",
	Short: "Select every file in the current listing",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := newClient()
		ctx, cancel := newContext()
		defer cancel()

		snap, err := c.SelectAll(ctx)
		if err != nil {
			return fmt.Errorf("failed to select all: %w", err)
		}
		fmt.Printf("✓ Selected %d files\n", snap.SelectedCount)
		return nil
	},
}

var selectNoneCmd = &cobra.Command{
	Use:   "none",
	Short: "Clear the selection",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := newClient()
		ctx, cancel := newContext()
		defer cancel()

		if _, err := c.DeselectAll(ctx); err != nil {
			return fmt.Errorf("failed to clear selection: %w", err)
		}
		fmt.Println("✓ Selection cleared")
		return nil
	},
}

var selectSetCmd = &cobra.Command{
	Use:   "set <uri> [uri...]",
	Short: "Select exactly the given file URIs",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := newClient()
		ctx, cancel := newContext()
		defer cancel()

		snap, err := c.SetSelection(ctx, args)
		if err != nil {
			return fmt.Errorf("failed to set selection: %w", err)
		}
		fmt.Printf("✓ Selected %d files\n", snap.SelectedCount)
		return nil
	},
}

var selectModeCmd = &cobra.Command{
	Use:   "mode [on|off]",
	Short: "Toggle or set multi-select mode",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := newClient()
		ctx, cancel := newContext()
		defer cancel()

		var enabled bool
		var err error
		if len(args) == 0 {
			enabled, err = c.ToggleMultiSelect(ctx)
		} else {
			switch strings.ToLower(args[0]) {
			case "on":
				enabled, err = c.SetMultiSelect(ctx, true)
			case "off":
				enabled, err = c.SetMultiSelect(ctx, false)
			default:
				return fmt.Errorf("argument must be on or off, got %q", args[0])
			}
		}
		if err != nil {
			return fmt.Errorf("failed to change multi-select mode: %w", err)
		}
		fmt.Printf("✓ Multi-select %s\n", onOff(enabled))
		return nil
	},
}

var favCmd = &cobra.Command{
	Use:   "fav <uri>",
	Short: "Toggle a file's favorite flag",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := newClient()
		ctx, cancel := newContext()
		defer cancel()

		isFavorite, err := c.ToggleFavorite(ctx, args[0])
		if err != nil {
			return fmt.Errorf("failed to toggle favorite: %w", err)
		}
		if isFavorite {
			fmt.Printf("✓ Favorited %s\n", args[0])
		} else {
			fmt.Printf("✓ Unfavorited %s\n", args[0])
		}
		return nil
	},
}

var recentCmd = &cobra.Command{
	Use:   "recent",
	Short: "Manage the recently accessed files list",
}

var recentListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List recent files, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := newClient()
		ctx, cancel := newContext()
		defer cancel()

		files, err := c.Recents(ctx)
		if err != nil {
			return fmt.Errorf("failed to fetch recents: %w", err)
		}
		if len(files) == 0 {
			fmt.Println("No recent files")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tURI\tDIR")
		for _, f := range files {
			fmt.Fprintf(w, "%s\t%s\t%v\n", f.Name, f.URI, f.IsDirectory)
		}
		return w.Flush()
	},
}

var recentAddCmd = &cobra.Command{
	Use:   "add <uri>",
	Short: "Record a file access",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("name")
		isDir, _ := cmd.Flags().GetBool("dir")
		if name == "" {
			name = args[0][strings.LastIndex(args[0], "/")+1:]
		}

		c := newClient()
		ctx, cancel := newContext()
		defer cancel()

		snap, err := c.AddRecent(ctx, models.FileItem{Name: name, URI: args[0], IsDirectory: isDir})
		if err != nil {
			return fmt.Errorf("failed to add recent: %w", err)
		}
		fmt.Printf("✓ Recorded %s (%d recents)\n", args[0], len(snap.RecentFiles))
		return nil
	},
}

var clipCmd = &cobra.Command{
	Use:   "clip",
	Short: "Manage the clipboard",
}

var clipCopyCmd = &cobra.Command{
	Use:   "copy <uri> [uri...]",
	Short: "Load the clipboard for copying",
	Args:  cobra.MinimumNArgs(1),
	RunE:  clipLoad(models.ClipboardCopy),
}

var clipCutCmd = &cobra.Command{
	Use:   "cut <uri> [uri...]",
	Short: "Load the clipboard for cutting",
	Args:  cobra.MinimumNArgs(1),
	RunE:  clipLoad(models.ClipboardCut),
}

var clipClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Empty the clipboard",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := newClient()
		ctx, cancel := newContext()
		defer cancel()

		if _, err := c.ClearClipboard(ctx); err != nil {
			return fmt.Errorf("failed to clear clipboard: %w", err)
		}
		fmt.Println("✓ Clipboard cleared")
		return nil
	},
}

var clipShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the clipboard contents",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := newClient()
		ctx, cancel := newContext()
		defer cancel()

		clip, err := c.Clipboard(ctx)
		if err != nil {
			return fmt.Errorf("failed to fetch clipboard: %w", err)
		}
		if clip.Type == models.ClipboardNone || len(clip.Files) == 0 {
			fmt.Println("Clipboard is empty")
			return nil
		}

		fmt.Printf("%s (%d files):\n", clip.Type, len(clip.Files))
		for _, uri := range clip.Files {
			fmt.Printf("  %s\n", uri)
		}
		return nil
	},
}

func clipLoad(mode models.ClipboardMode) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		c := newClient()
		ctx, cancel := newContext()
		defer cancel()

		snap, err := c.SetClipboard(ctx, mode, args)
		if err != nil {
			return fmt.Errorf("failed to load clipboard: %w", err)
		}
		fmt.Printf("✓ Clipboard: %s %d files\n", snap.Clipboard.Type, len(snap.Clipboard.Files))
		return nil
	}
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

func init() {
	rootCmd.AddCommand(stateCmd)
	stateCmd.AddCommand(stateGetCmd)
	stateCmd.AddCommand(stateResetCmd)
	stateGetCmd.Flags().Bool("json", false, "Output as JSON")

	rootCmd.AddCommand(cdCmd)
	cdCmd.Flags().Bool("record", true, "Also record the path in the navigation history")

	rootCmd.AddCommand(selectCmd)
	selectCmd.AddCommand(selectAllCmd)
	selectCmd.AddCommand(selectNoneCmd)
	selectCmd.AddCommand(selectSetCmd)
	selectCmd.AddCommand(selectModeCmd)

	rootCmd.AddCommand(favCmd)

	rootCmd.AddCommand(recentCmd)
	recentCmd.AddCommand(recentListCmd)
	recentCmd.AddCommand(recentAddCmd)
	recentAddCmd.Flags().String("name", "", "Display name (defaults to the URI basename)")
	recentAddCmd.Flags().Bool("dir", false, "Mark the entry as a directory")

	rootCmd.AddCommand(clipCmd)
	clipCmd.AddCommand(clipCopyCmd)
	clipCmd.AddCommand(clipCutCmd)
	clipCmd.AddCommand(clipClearCmd)
	clipCmd.AddCommand(clipShowCmd)
}
