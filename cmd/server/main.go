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

	router "github.com/dkeye/Huddle/internal/adapters/http"
	"github.com/dkeye/Huddle/internal/adapters/rtc"
	"github.com/dkeye/Huddle/internal/app"
	"github.com/dkeye/Huddle/internal/app/orch"
	"github.com/dkeye/Huddle/internal/config"
	"github.com/dkeye/Huddle/internal/discovery"
	"github.com/dkeye/Huddle/internal/instance"
)

const version = "0.1.0"

var (
	flagEnv  string
	flagPort int
)

var rootCmd = &cobra.Command{
	Use:     "huddle",
	Short:   "Room and signaling coordinator for browser video calls",
	Long:    `Huddle keeps track of call rooms and their participants and relays WebRTC offers, answers and ICE candidates between browsers. Media flows peer to peer and never touches the server.`,
	Version: version,
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve()
	},
}

func init() {
	rootCmd.Flags().StringVar(&flagEnv, "env", "", "config environment, reads config/config.<env>.yaml (default $CONFIG_ENV or dev)")
	rootCmd.Flags().IntVar(&flagPort, "port", 0, "listen port, overrides the config file")
	rootCmd.AddCommand(statusCmd)
}

func main() {
	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true
	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("huddle failed")
		os.Exit(1)
	}
}

func serve() error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load(flagEnv)
	if err != nil {
		return err
	}
	if flagPort != 0 {
		cfg.Port = flagPort
	}
	zerolog.SetGlobalLevel(cfg.Level())

	lock, err := instance.Acquire(cfg.LockFile)
	if err != nil {
		return err
	}
	defer func() {
		if err := lock.Release(); err != nil {
			log.Warn().Err(err).Msg("release instance lock")
		}
	}()

	ice, err := rtc.ICEServers(cfg.ICEServers)
	if err != nil {
		return err
	}

	manager := app.NewRoomManager()
	policy := app.SimplePolicy{}
	reg := app.NewRegistry()
	dir := app.NewDirectory()
	coordinator := orch.New(reg, dir, manager, policy)

	r := router.SetupRouter(ctx, cfg, coordinator, ice)
	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	if cfg.Advertise {
		stop, err := discovery.StartAdvertising(cfg.Port, "", version)
		if err != nil {
			log.Warn().Err(err).Msg("mDNS advertising unavailable")
		} else {
			defer stop()
		}
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Str("version", version).Msg("Huddle server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	log.Info().Msg("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited gracefully")
	return nil
}
