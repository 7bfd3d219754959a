package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/flynn-ai/jarvis/internal/server"
)

const shutdownTimeout = 10 * time.Second

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the brain service",
	Long: `Run the JARVIS brain: the command API on /api/* and the websocket
command channel on /ws.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if servePort > 0 {
			cfg.Server.Port = servePort
		}
		log := newLogger(cfg, true)

		a, err := newApp(cfg, log)
		if err != nil {
			return err
		}
		defer a.close()

		srv := server.New(&server.Config{
			Orchestrator: a.orch,
			Host:         cfg.Server.Host,
			Port:         cfg.Server.Port,
			CORSOrigins:  cfg.Server.CORSOrigins,
			Logger:       log,
		})
		log.Info().Str("user", a.orch.User()).Strs("rings", a.orch.Registry().List()).Msg("JARVIS initialized")
		return runUntilSignal(cmd.Context(), log, srv.Start, srv.Shutdown)
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "listen port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

// runUntilSignal runs start until it fails or SIGINT/SIGTERM arrives, then
// calls shutdown with a bounded context.
func runUntilSignal(ctx context.Context, log zerolog.Logger, start func() error, shutdown func(context.Context) error) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() { errCh <- start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
