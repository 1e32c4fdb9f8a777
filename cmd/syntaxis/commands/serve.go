package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/syntaxis/syntaxis/am"
	"github.com/syntaxis/syntaxis/errors"
	"github.com/syntaxis/syntaxis/library"
	"github.com/syntaxis/syntaxis/logger"
	"github.com/syntaxis/syntaxis/server"
	"github.com/syntaxis/syntaxis/version"
)

// ServeCmd starts the HTTP API
var ServeCmd = &cobra.Command{
	Use:     "serve",
	Aliases: []string{"server"},
	Short:   "Start the HTTP API",
	Long: `Serve template parsing, sentence generation and the template library over
HTTP. Changes to the project syntaxis.toml are picked up without a restart.

Endpoints:
  GET    /health
  POST   /api/parse
  POST   /api/generate
  GET    /api/templates
  POST   /api/templates
  GET    /api/templates/{id}
  DELETE /api/templates/{id}
  POST   /api/templates/{id}/generate`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

var (
	servePort    int
	serveNoWatch bool
)

const shutdownTimeout = 10 * time.Second

func init() {
	ServeCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Port to listen on (overrides server.port)")
	ServeCmd.Flags().BoolVar(&serveNoWatch, "no-watch", false, "Do not reload syntaxis.toml on change")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := am.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		return errors.Wrap(err, "invalid configuration")
	}
	port := cfg.Server.Port
	if servePort != 0 {
		port = servePort
	}

	conn, err := openDatabase(cmd)
	if err != nil {
		return err
	}
	defer conn.Close()

	store, err := openStore(cmd.Context(), conn)
	if err != nil {
		return err
	}
	srv := server.New(store, library.New(conn, logger.Logger), cfg, logger.Logger)

	if project := am.FindProjectConfig(); project != "" && !serveNoWatch {
		if err := srv.WatchConfig(project); err != nil {
			pterm.Warning.Printf("Config reload disabled: %v\n", err)
		}
	}

	info := version.Get()
	pterm.Info.Printf("syntaxis %s listening on http://localhost:%d\n", info.Version, port)

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start(port)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case err := <-errChan:
		return errors.Wrap(err, "server failed to start")
	case <-sigChan:
		pterm.Info.Println("Shutting down gracefully (press Ctrl+C again to force)...")

		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		shutdownDone := make(chan error, 1)
		go func() {
			shutdownDone <- srv.Stop(ctx)
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
