package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"mapa_rutas/core-go/internal/console"
	"mapa_rutas/core-go/internal/mapview"
)

var consoleCmd = &cobra.Command{
	Use:   "console",
	Short: "Interactive map dashboard",
	Long: `Start the interactive dashboard. Commands are read line by line from
stdin; type 'help' for the list.`,
	Args: cobra.NoArgs,
	RunE: runConsole,
}

func runConsole(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log := newLogger(cfg)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	con := console.New(cmd.OutOrStdout())
	toaster := mapview.NewToaster(cfg.NotificationTTL, con)
	defer toaster.Close()

	client := newClient(cfg)
	c, err := mapview.New(log, client, con, toaster, mapview.Options{
		HasRemoteView:    cfg.RemoteView,
		SimulationMode:   cfg.SimulationMode,
		InfoRefreshDelay: cfg.InfoRefreshDelay,
		RequestTimeout:   requestTimeout(cfg),
	})
	if err != nil {
		return err
	}
	c.Bind(con)

	runCtx, cancel := context.WithCancel(ctx)
	defer func() {
		cancel()
		<-c.Done()
	}()
	if cfg.RemoteView {
		con.AttachView(runCtx, console.ViewSource{
			Fetcher: client,
			Timeout: requestTimeout(cfg),
			Loaded:  c.ViewLoaded,
			Failed:  c.ViewFailed,
		})
	}
	go func() {
		if err := c.Run(runCtx); err != nil {
			log.Error().Err(err).Msg("map view controller exited")
		}
	}()

	log.Info().Str("backend", cfg.BackendURL).Bool("remote_view", cfg.RemoteView).Msg("console started")
	if err := con.Serve(runCtx, cmd.InOrStdin()); err != nil {
		return err
	}
	if runCtx.Err() != nil {
		return nil
	}

	// Piped input ends before its requests do; let them finish and render.
	drainCtx, drainCancel := context.WithTimeout(runCtx, requestTimeout(cfg))
	defer drainCancel()
	if err := c.WaitIdle(drainCtx); err != nil {
		log.Warn().Err(err).Msg("gave up waiting for outstanding requests")
	}
	return nil
}
