package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/tzmeta/am"
	"github.com/teranos/tzmeta/errors"
	"github.com/teranos/tzmeta/logger"
	"github.com/teranos/tzmeta/server"
)

// ServerCmd starts the explorer server
var ServerCmd = &cobra.Command{
	Use:     "server",
	Aliases: []string{"serve"},
	Short:   "Start the tzmeta explorer server",
	Long: `Launch the HTTP API and WebSocket job stream.

Clients create a session, start view calls and token enumerations on it,
and follow their progress over /ws?session=<id>. The active config file is
watched; node and CORS settings are applied without a restart.`,
	RunE: runServer,
}

var serverPort int

func init() {
	ServerCmd.Flags().IntVar(&serverPort, "port", 0, "Port to listen on (overrides [server] port)")
}

const shutdownTimeout = 10 * time.Second

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := logger.ComponentLogger("cli")

	client, rpc, err := viewClient(cfg)
	if err != nil {
		return err
	}
	checkCtx, cancel := context.WithTimeout(cmd.Context(), cfg.NodeTimeout())
	if err := rpc.CheckVersion(checkCtx); err != nil {
		if errors.Is(err, errors.ErrNodeIncompatible) {
			cancel()
			return err
		}
		log.Warnw("Could not verify node version", logger.FieldEndpoint, rpc.Endpoint(), logger.FieldError, err)
	}
	cancel()

	srv := server.New(client, cfg)

	watcher, err := am.WatchActive()
	if err != nil {
		log.Warnw("Config hot reload disabled", logger.FieldError, err)
	}
	if watcher != nil {
		watcher.OnReload(func(next *am.Config) error {
			invoker, _, err := viewClient(next)
			if err != nil {
				return err
			}
			srv.SetInvoker(invoker)
			srv.ApplyConfig(next)
			return nil
		})
		watcher.Start()
		defer watcher.Stop()
		log.Infow("Watching config", logger.FieldFile, watcher.Path())
	}

	port := cfg.GetServerPort()
	if serverPort != 0 {
		port = serverPort
	}
	pterm.Info.Printf("tzmeta server on port %d, node %s\n", port, rpc.Endpoint())

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start(port)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case err := <-errChan:
		return errors.Wrap(err, "server stopped")
	case <-sigChan:
		pterm.Info.Println("Shutting down gracefully (press Ctrl+C again to force)...")

		shutdownDone := make(chan error, 1)
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			shutdownDone <- srv.Shutdown(ctx)
		}()

		select {
		case err := <-shutdownDone:
			if err != nil {
				return errors.Wrap(err, "shutdown error")
			}
			pterm.Success.Println("Server stopped cleanly")
			return nil
		case <-sigChan:
			pterm.Warning.Println("Force shutdown - exiting immediately")
			os.Exit(1)
			return nil
		}
	}
}
