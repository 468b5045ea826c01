package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/fruitsalade/breadbox/pkg/models"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Inspect and change app settings",
}

var settingsGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Show the general settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := newClient()
		ctx, cancel := newContext()
		defer cancel()

		s, err := c.Settings(ctx)
		if err != nil {
			return fmt.Errorf("failed to fetch settings: %w", err)
		}

		asJSON, _ := cmd.Flags().GetBool("json")
		if asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(s)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintf(w, "Theme:\t%s\n", s.Theme)
		fmt.Fprintf(w, "Language:\t%s\n", s.Language)
		fmt.Fprintf(w, "Confirm delete:\t%s\n", onOff(s.ConfirmDelete))
		fmt.Fprintf(w, "Show extensions:\t%s\n", onOff(s.ShowFileExtensions))
		fmt.Fprintf(w, "Default view:\t%s\n", s.DefaultView)
		fmt.Fprintf(w, "Remember last path:\t%s\n", onOff(s.RememberLastPath))
		return w.Flush()
	},
}

var settingsSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Update general settings fields",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := newClient()
		ctx, cancel := newContext()
		defer cancel()

		s, err := c.Settings(ctx)
		if err != nil {
			return fmt.Errorf("failed to fetch settings: %w", err)
		}

		if cmd.Flags().Changed("theme") {
			theme, _ := cmd.Flags().GetString("theme")
			s.Theme = models.Theme(theme)
		}
		if cmd.Flags().Changed("language") {
			s.Language, _ = cmd.Flags().GetString("language")
		}
		if cmd.Flags().Changed("confirm-delete") {
			s.ConfirmDelete, _ = cmd.Flags().GetBool("confirm-delete")
		}
		if cmd.Flags().Changed("show-extensions") {
			s.ShowFileExtensions, _ = cmd.Flags().GetBool("show-extensions")
		}
		if cmd.Flags().Changed("default-view") {
			view, _ := cmd.Flags().GetString("default-view")
			s.DefaultView = models.ViewMode(view)
		}
		if cmd.Flags().Changed("remember-path") {
			s.RememberLastPath, _ = cmd.Flags().GetBool("remember-path")
		}

		if _, err := c.UpdateSettings(ctx, s); err != nil {
			return fmt.Errorf("failed to update settings: %w", err)
		}
		fmt.Println("✓ Settings updated")
		return nil
	},
}

var settingsResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Restore the general settings to their defaults",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := newClient()
		ctx, cancel := newContext()
		defer cancel()

		if _, err := c.ResetSettings(ctx); err != nil {
			return fmt.Errorf("failed to reset settings: %w", err)
		}
		fmt.Println("✓ Settings reset to defaults")
		return nil
	},
}

var downloadsCmd = &cobra.Command{
	Use:   "downloads",
	Short: "Manage download settings and locations",
}

var downloadsGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Show the download settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := newClient()
		ctx, cancel := newContext()
		defer cancel()

		s, err := c.DownloadSettings(ctx)
		if err != nil {
			return fmt.Errorf("failed to fetch download settings: %w", err)
		}

		fmt.Printf("Directory: %s\n", s.Directory)
		fmt.Printf("Wi-Fi only: %s, max concurrent: %d, auto-resume: %s\n",
			onOff(s.WifiOnly), s.MaxConcurrent, onOff(s.AutoResume))

		if len(s.Locations) == 0 {
			fmt.Println("No named locations")
			return nil
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tPATH\tDEFAULT")
		for _, loc := range s.Locations {
			def := ""
			if loc.Default {
				def = "*"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\n", loc.Name, loc.Path, def)
		}
		return w.Flush()
	},
}

var downloadsAddCmd = &cobra.Command{
	Use:   "add <name> <path>",
	Short: "Add a named download location",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		makeDefault, _ := cmd.Flags().GetBool("default")

		c := newClient()
		ctx, cancel := newContext()
		defer cancel()

		s, err := c.AddDownloadLocation(ctx, models.DownloadLocation{
			Name:    args[0],
			Path:    args[1],
			Default: makeDefault,
		})
		if err != nil {
			return fmt.Errorf("failed to add location: %w", err)
		}
		fmt.Printf("✓ Added %s (%d locations)\n", args[0], len(s.Locations))
		return nil
	},
}

var downloadsRmCmd = &cobra.Command{
	Use:   "rm <name>",
	Short: "Remove a named download location",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := newClient()
		ctx, cancel := newContext()
		defer cancel()

		if _, err := c.RemoveDownloadLocation(ctx, args[0]); err != nil {
			return fmt.Errorf("failed to remove location: %w", err)
		}
		fmt.Printf("✓ Removed %s\n", args[0])
		return nil
	},
}

var downloadsDefaultCmd = &cobra.Command{
	Use:   "default <name>",
	Short: "Mark a named location as the default download target",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := newClient()
		ctx, cancel := newContext()
		defer cancel()

		s, err := c.SetDefaultDownloadLocation(ctx, args[0])
		if err != nil {
			return fmt.Errorf("failed to set default location: %w", err)
		}
		fmt.Printf("✓ Default location %s (%s)\n", args[0], s.Directory)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(settingsCmd)
	settingsCmd.AddCommand(settingsGetCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	settingsCmd.AddCommand(settingsResetCmd)
	settingsGetCmd.Flags().Bool("json", false, "Output as JSON")
	settingsSetCmd.Flags().String("theme", "", "Color theme (system, light, dark)")
	settingsSetCmd.Flags().String("language", "", "Language code")
	settingsSetCmd.Flags().Bool("confirm-delete", true, "Ask before deleting")
	settingsSetCmd.Flags().Bool("show-extensions", true, "Show file extensions")
	settingsSetCmd.Flags().String("default-view", "", "Default view mode (grid or list)")
	settingsSetCmd.Flags().Bool("remember-path", true, "Reopen at the last path")

	settingsCmd.AddCommand(downloadsCmd)
	downloadsCmd.AddCommand(downloadsGetCmd)
	downloadsCmd.AddCommand(downloadsAddCmd)
	downloadsCmd.AddCommand(downloadsRmCmd)
	downloadsCmd.AddCommand(downloadsDefaultCmd)
	downloadsAddCmd.Flags().Bool("default", false, "Make this the default location")
}
