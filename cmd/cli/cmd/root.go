package cmd

import (
	"context"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/fruitsalade/breadbox/pkg/client"
)

var (
	baseURL   string
	authToken string
)

var rootCmd = &cobra.Command{
	Use:   "breadbox",
	Short: "Breadbox CLI - inspect and drive persisted file-manager state",
	Long: `Breadbox CLI talks to a breadbox server: a persisted store for
file-manager UI state (navigation, selection, favorites, recents,
clipboard, search and view preferences) plus app settings.

It provides commands to read and mutate the state, manage settings,
and watch the live change feed.`,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&baseURL, "url", getEnvOrDefault("BREADBOX_URL", "http://localhost:8080"), "Breadbox server base URL")
	rootCmd.PersistentFlags().StringVar(&authToken, "token", os.Getenv("BREADBOX_TOKEN"), "Device token (from `breadbox login`)")
}

func getEnvOrDefault(key, defaultValue string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultValue
}

func newClient() *client.Client {
	return client.New(client.Config{
		BaseURL:   baseURL,
		AuthToken: authToken,
	})
}

func newSSEClient() *client.SSEClient {
	sse := client.NewSSEClient(baseURL, nil)
	if authToken != "" {
		sse.SetAuthToken(authToken)
	}
	return sse
}

func newContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 30*time.Second)
}
