// Command deaddrop-server runs the drop server.
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

	"github.com/carlmjohnson/versioninfo"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"deaddrop/internal/app"
	"deaddrop/internal/config"
	"deaddrop/internal/instrument"
)

const (
	janitorInterval = 30 * time.Second
	shutdownTimeout = 10 * time.Second
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "deaddrop-server",
		Short:        "Anonymous dead-drop server",
		SilenceUsage: true,
	}
	root.AddCommand(serveCmd(), versionCmd())
	return root
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the build version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("deaddrop-server %s\n", versioninfo.Short())
		},
	}
}

func serveCmd() *cobra.Command {
	var (
		cfgFile string
		address string
		keysDir string
		backend string
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Default()
			if cfgFile != "" {
				var err error
				if cfg, err = config.LoadFile(cfgFile); err != nil {
					return fmt.Errorf("failed to load config file '%v': %w", cfgFile, err)
				}
			}
			if address != "" {
				cfg.Server.Address = address
			}
			if keysDir != "" {
				cfg.Server.KeysDir = keysDir
			}
			if backend != "" {
				cfg.Server.Backend = backend
			}
			if err := cfg.FixupAndValidate(); err != nil {
				return err
			}
			return serve(cfg)
		},
	}
	f := cmd.Flags()
	f.StringVarP(&cfgFile, "config", "f", "", "TOML config file")
	f.StringVar(&address, "address", "", "listen address (overrides Server.Address)")
	f.StringVar(&keysDir, "keys", "", "directory with root and intermediate keys (overrides Server.KeysDir)")
	f.StringVar(&backend, "backend", "", "memory or bolt (overrides Server.Backend)")
	return cmd
}

func serve(cfg *config.Config) error {
	logBackend, err := cfg.InitLogBackend()
	if err != nil {
		return err
	}
	log := logBackend.GetLogger("main")

	srv, err := app.NewServer(cfg.Server, logBackend)
	if err != nil {
		return err
	}
	defer srv.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Rotate logs upon SIGHUP.
	rotateCh := make(chan os.Signal, 1)
	signal.Notify(rotateCh, syscall.SIGHUP)
	defer signal.Stop(rotateCh)

	servers := []*http.Server{{
		Addr:              cfg.Server.Address,
		Handler:           srv.Handler,
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          logBackend.GetGoLogger("http", "warning"),
	}}
	if cfg.Metrics.Address != "" {
		servers = append(servers, &http.Server{
			Addr:              cfg.Metrics.Address,
			Handler:           instrument.Handler(),
			ReadHeaderTimeout: 10 * time.Second,
			ErrorLog:          logBackend.GetGoLogger("metrics", "warning"),
		})
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		srv.Janitor(gctx, janitorInterval)
		return nil
	})
	g.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-rotateCh:
				if err := logBackend.Rotate(); err != nil {
					log.Errorf("log rotation failed: %v", err)
				}
			}
		}
	})
	for _, hs := range servers {
		g.Go(func() error {
			log.Noticef("listening on %s", hs.Addr)
			if err := hs.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		log.Notice("shutting down")
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		for _, hs := range servers {
			if err := hs.Shutdown(sctx); err != nil {
				log.Warningf("shutdown %s: %v", hs.Addr, err)
			}
		}
		return nil
	})
	return g.Wait()
}
