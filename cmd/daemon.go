//go:build unix

package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/gurisko/shipyard/internal/daemon"
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Manage the shipyard daemon",
	Long: `Control the shipyard daemon, which serves GUI front-ends over a Unix socket.

The daemon provides:
- the project registry
- package.json editing and templates
- builds streamed as NDJSON, and their history`,
}

var daemonStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the shipyard daemon",
	Long: `Start the shipyard daemon in foreground mode.

For background operation, use:
  nohup shipyard daemon start > /tmp/shipyard-daemon.log 2>&1 &`,
	RunE: startDaemon,
}

var daemonStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the shipyard daemon",
	Long:  "Stop the running shipyard daemon gracefully.",
	RunE:  stopDaemon,
}

var daemonStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check daemon status",
	Long:  "Check if the shipyard daemon is running and display its status.",
	RunE:  statusDaemon,
}

func init() {
	rootCmd.AddCommand(daemonCmd)
	daemonCmd.AddCommand(daemonStartCmd)
	daemonCmd.AddCommand(daemonStopCmd)
	daemonCmd.AddCommand(daemonStatusCmd)
}

func startDaemon(cmd *cobra.Command, args []string) error {
	d, err := daemon.New(daemonConfig())
	if err != nil {
		return fmt.Errorf("failed to initialize daemon: %w", err)
	}

	return d.Start()
}

func stopDaemon(cmd *cobra.Command, args []string) error {
	d, err := daemon.New(daemonConfig())
	if err != nil {
		return fmt.Errorf("failed to initialize daemon: %w", err)
	}

	return d.Stop()
}

func statusDaemon(cmd *cobra.Command, args []string) error {
	d, err := daemon.New(daemonConfig())
	if err != nil {
		return fmt.Errorf("failed to initialize daemon: %w", err)
	}

	status, err := d.GetStatus()
	if err != nil {
		return err
	}

	// Format for display
	if !status.Running {
		if status.PID > 0 {
			if status.ErrorMessage != "" {
				fmt.Printf("shipyard daemon process exists (PID: %d) but not responding\n", status.PID)
				fmt.Printf("  Socket: %s\n", status.SocketPath)
				fmt.Printf("  Error: %v\n", status.ErrorMessage)
			} else {
				fmt.Printf("shipyard daemon is not running (stale pidfile)\n")
				fmt.Printf("  Socket: %s\n", status.SocketPath)
			}
		} else {
			fmt.Printf("shipyard daemon is not running\n")
			fmt.Printf("  Socket: %s\n", status.SocketPath)
		}
	} else {
		fmt.Printf("shipyard daemon running (PID: %d)\n", status.PID)
		fmt.Printf("  Socket: %s\n", status.SocketPath)
		fmt.Printf("  Uptime: %s\n", status.Uptime.Round(time.Second))
	}

	return nil
}

// daemonConfig builds the daemon configuration from the loaded settings.
func daemonConfig() *daemon.Config {
	return &daemon.Config{
		SocketPath:   settings.Paths.Socket,
		PIDFile:      settings.Paths.PID,
		RegistryPath: settings.Paths.Registry,
		HistoryPath:  settings.Paths.History,
		TemplatesDir: settings.Paths.Templates,
		Tools:        settings.Tools(),
		Policy:       settings.Policy(),
	}
}
