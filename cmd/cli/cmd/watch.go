package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Stream state change events",
	Long: `Watch subscribes to the server's change feed and prints one line per
event until interrupted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		sse := newSSEClient()
		events, errs := sse.Subscribe(ctx)

		fmt.Fprintf(os.Stderr, "watching %s (ctrl-c to stop)\n", baseURL)
		for {
			select {
			case <-ctx.Done():
				return nil
			case ev, ok := <-events:
				if !ok {
					return nil
				}
				ts := time.Unix(ev.Timestamp, 0).Format("15:04:05")
				if ev.Op != "" {
					fmt.Printf("%s  %-10s %-16s %s\n", ts, ev.Type, ev.Store, ev.Op)
				} else {
					fmt.Printf("%s  %-10s %s\n", ts, ev.Type, ev.Store)
				}
			case err, ok := <-errs:
				if ok && err != nil {
					return err
				}
			}
		}
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show server statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := newClient()
		ctx, cancel := newContext()
		defer cancel()

		stats, err := c.Stats(ctx)
		if err != nil {
			return fmt.Errorf("failed to fetch stats: %w", err)
		}

		fmt.Printf("Uptime: %s, backend: %s\n",
			(time.Duration(stats.UptimeSeconds) * time.Second).String(), stats.Backend)
		fmt.Printf("Pending writes: %d, subscribers: %d\n", stats.PendingWrites, stats.Subscribers)

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "STORE\tMUTATIONS")
		for _, st := range stats.Stores {
			fmt.Fprintf(w, "%s\t%d\n", st.Key, st.Mutations)
		}
		return w.Flush()
	},
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check whether the server is reachable",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := newClient()
		ctx, cancel := newContext()
		defer cancel()

		health, err := c.Health(ctx)
		if err != nil {
			return fmt.Errorf("server unreachable: %w", err)
		}
		fmt.Printf("✓ %s (backend: %s)\n", health.Status, health.Backend)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(healthCmd)
}
