package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"

	"github.com/spf13/cobra"
	"gopkg.in/op/go-logging.v1"

	"deaddrop/internal/app"
	"deaddrop/internal/config"
	"deaddrop/internal/log"
)

const (
	envPassphrase       = "DEADDROP_PASSPHRASE"
	envSourcePassphrase = "DEADDROP_SOURCE_PASSPHRASE"
)

var (
	configFile       string
	keysDir          string
	serverURL        string
	logLevel         string
	passphrase       string
	sourcePassphrase string

	cfg     *config.Config
	backend *log.Backend
	wire    *app.Wire
	logger  *logging.Logger
)

// Execute runs the deaddrop CLI.
func Execute() error {
	root := &cobra.Command{
		Use:           "deaddrop",
		Short:         "Anonymous dead-drop client for journalists and sources",
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if configFile != "" {
				cfg, err = config.LoadFile(configFile)
				if err != nil {
					return err
				}
			} else {
				cfg = config.Default()
			}
			if keysDir != "" {
				cfg.Client.KeysDir = keysDir
			}
			if serverURL != "" {
				cfg.Client.ServerURL = serverURL
			}
			if logLevel != "" {
				cfg.Logging.Level = logLevel
			}
			if err := cfg.FixupAndValidate(); err != nil {
				return err
			}
			if backend, err = cfg.InitLogBackend(); err != nil {
				return err
			}
			logger = backend.GetLogger("deaddrop")

			if passphrase == "" {
				passphrase = os.Getenv(envPassphrase)
			}
			if sourcePassphrase == "" {
				sourcePassphrase = os.Getenv(envSourcePassphrase)
			}
			wire, err = app.NewWire(app.Config{
				KeysDir:    cfg.Client.KeysDir,
				ServerURL:  cfg.Client.ServerURL,
				Passphrase: passphrase,
				Timeout:    cfg.Client.Timeout,
				Log:        backend,
			})
			return err
		},
	}

	f := root.PersistentFlags()
	f.StringVarP(&configFile, "config", "f", "", "TOML config file")
	f.StringVar(&keysDir, "keys", "", "key directory (overrides Client.KeysDir)")
	f.StringVar(&serverURL, "server", "", "server base URL (overrides Client.ServerURL)")
	f.StringVar(&logLevel, "log-level", "", "log level (overrides Logging.Level)")
	f.StringVarP(&passphrase, "passphrase", "p", "", "passphrase protecting local private keys (or $"+envPassphrase+")")
	f.StringVar(&sourcePassphrase, "source-passphrase", "", "source identity passphrase (or $"+envSourcePassphrase+")")

	root.AddCommand(pkiCmd(), journalistCmd(), sourceCmd(), versionCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return root.ExecuteContext(ctx)
}

func requirePassphrase() error {
	if passphrase == "" {
		return fmt.Errorf("passphrase required (-p or $%s)", envPassphrase)
	}
	return nil
}

func requireSourcePassphrase() error {
	if sourcePassphrase == "" {
		return fmt.Errorf("source passphrase required (--source-passphrase or $%s)", envSourcePassphrase)
	}
	return nil
}

func parseIndex(s string) (int, error) {
	i, err := strconv.Atoi(s)
	if err != nil || i < 0 {
		return 0, errors.New("journalist index must be a non-negative integer")
	}
	return i, nil
}
