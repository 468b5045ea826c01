package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Exchange the API key for a device token",
	Long: `Login verifies the shared API key against the server and prints a
device token. Export it as BREADBOX_TOKEN (or pass --token) for
subsequent commands.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		apiKey, _ := cmd.Flags().GetString("api-key")
		if apiKey == "" {
			apiKey = os.Getenv("BREADBOX_API_KEY")
		}
		if apiKey == "" {
			return fmt.Errorf("API key is required. Set BREADBOX_API_KEY or use --api-key")
		}
		deviceName, _ := cmd.Flags().GetString("device")

		c := newClient()
		ctx, cancel := newContext()
		defer cancel()

		resp, err := c.Login(ctx, apiKey, deviceName)
		if err != nil {
			return fmt.Errorf("login failed: %w", err)
		}

		fmt.Printf("✓ Logged in as device %s (expires %s)\n", resp.DeviceID, resp.ExpiresAt.Format("2006-01-02"))
		fmt.Println()
		fmt.Printf("export BREADBOX_TOKEN=%s\n", resp.Token)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(loginCmd)

	loginCmd.Flags().String("api-key", "", "Shared API key (defaults to BREADBOX_API_KEY)")
	loginCmd.Flags().String("device", hostnameOrDefault(), "Device name recorded in the token")
}

func hostnameOrDefault() string {
	if name, err := os.Hostname(); err == nil && name != "" {
		return name
	}
	return "cli"
}
