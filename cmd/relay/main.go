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

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"

	"github.com/tuongmengleang/firechat/internal/observability"
	"github.com/tuongmengleang/firechat/internal/relay"
)

// Version is stamped at build time.
var Version = "dev"

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var (
		listen   string
		dataPath string
		logLevel string
	)
	cmd := &cobra.Command{
		Use:          "relay",
		Short:        "Untrusted store-and-forward relay for firechat",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			log := observability.NewLogger("firechat-relay", Version, os.Stderr, logLevel)
			metrics := observability.NewMetrics()

			backend, closeBackend, err := openBackend(dataPath)
			if err != nil {
				return err
			}
			defer closeBackend()

			srv := &http.Server{
				Addr:              listen,
				Handler:           relay.NewServer(backend, metrics, log).Handler(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			errc := make(chan error, 1)
			go func() {
				log.Info("relay listening on " + listen)
				errc <- srv.ListenAndServe()
			}()

			select {
			case err := <-errc:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			case <-ctx.Done():
				log.Info("shutting down")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				return srv.Shutdown(shutdownCtx)
			}
		},
	}
	cmd.Flags().StringVar(&listen, "listen", ":8080", "listen address")
	cmd.Flags().StringVar(&dataPath, "data", "", "bolt database file (in-memory when empty)")
	cmd.Flags().StringVar(&logLevel, "log-level", "info", "debug, info, warn or error")
	return cmd
}

func openBackend(path string) (relay.Backend, func(), error) {
	if path == "" {
		return relay.NewMemory(), func() {}, nil
	}
	path, err := homedir.Expand(path)
	if err != nil {
		return nil, nil, err
	}
	b, err := relay.OpenBolt(path)
	if err != nil {
		return nil, nil, err
	}
	return b, func() { _ = b.Close() }, nil
}
