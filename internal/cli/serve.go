package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/raphaelgruber/seedbloom/internal/server"
)

var (
	serveAddr         string
	serveTickInterval time.Duration
	serveSaveInterval time.Duration
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the memory over WebSocket",
	Long: `Serve the memory to WebSocket clients at ws://<addr>/ws until interrupted.

The snapshot is loaded at startup, saved every --save-interval and once more
on shutdown. With --tick-interval set, weights decay on a timer.

Examples:
  seedbloom serve
  seedbloom serve --addr :8585 --tick-interval 1h
  seedbloom serve --save-interval 0`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config)")
	serveCmd.Flags().DurationVar(&serveTickInterval, "tick-interval", 0, "decay weights every interval (default from config)")
	serveCmd.Flags().DurationVar(&serveSaveInterval, "save-interval", 0, "save snapshot every interval (default from config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	srvCfg := server.Config{
		Addr:         cfg.Server.Addr,
		SnapshotPath: cfg.SnapshotPath,
		TickInterval: cfg.Server.TickInterval,
		SaveInterval: cfg.Server.SaveInterval,
	}
	if cmd.Flags().Changed("addr") {
		srvCfg.Addr = serveAddr
	}
	if cmd.Flags().Changed("tick-interval") {
		srvCfg.TickInterval = serveTickInterval
	}
	if cmd.Flags().Changed("save-interval") {
		srvCfg.SaveInterval = serveSaveInterval
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(mem, srvCfg, logger.With("component", "server"))
	fmt.Fprintf(cmd.OutOrStdout(), "Serving %d seeds at ws://%s/ws\n", mem.Len(), srvCfg.Addr)
	return srv.Run(ctx)
}
