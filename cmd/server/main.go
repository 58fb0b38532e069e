package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	router "github.com/dkeye/CodeLens/internal/adapters/http"
	"github.com/dkeye/CodeLens/internal/app"
	"github.com/dkeye/CodeLens/internal/app/orch"
	"github.com/dkeye/CodeLens/internal/config"
)

const version = "0.1.0"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var env string

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the collaboration server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), env, cmd)
		},
	}

	root := &cobra.Command{
		Use:          "codelens",
		Short:        "Real-time collaboration server for code reviews",
		SilenceUsage: true,
		RunE:         serveCmd.RunE,
	}
	pf := root.PersistentFlags()
	pf.StringVar(&env, "env", "", "config environment (config/config.<env>.yaml), defaults to $CONFIG_ENV or dev")
	pf.Int("port", 0, "listen port")
	pf.String("mode", "", "gin mode: debug, release or test")
	pf.String("log-level", "", "log level: trace, debug, info, warn, error")

	root.AddCommand(serveCmd, &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "codelens version %s\n", version)
		},
	})
	return root
}

func serve(ctx context.Context, env string, cmd *cobra.Command) error {
	cfg, err := config.Load(env, cmd.Flags())
	if err != nil {
		log.Error().Err(err).Msg("failed to load config")
		return err
	}
	setupLogger(cfg)

	policy, err := app.PolicyByName(cfg.BackpressurePolicy)
	if err != nil {
		return err
	}
	rooms := app.NewRoomManager(app.Limits{
		MaxRooms:        cfg.MaxRooms,
		MaxParticipants: cfg.MaxParticipants,
	})
	o := orch.New(app.NewRegistry(), rooms, policy)

	r := router.SetupRouter(ctx, cfg, o)
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("CodeLens server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			log.Error().Err(err).Msg("server error")
			return err
		}
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
		return err
	}
	log.Info().Msg("Server exited gracefully")
	return nil
}

// setupLogger switches to JSON output in release mode.
func setupLogger(cfg *config.Config) {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	if cfg.Mode == "release" {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}
}
