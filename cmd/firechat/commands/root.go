package commands

import (
	"errors"
	"fmt"
	"os"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/tuongmengleang/firechat/internal/app"
	"github.com/tuongmengleang/firechat/internal/observability"
)

// Version is stamped at build time.
var Version = "dev"

// needsPassphrase marks commands that open the local key store.
const needsPassphrase = "needs-passphrase"

var (
	home       string
	passphrase string
	relayURL   string
	logLevel   string

	cfg  app.Config
	wire *app.Wire
)

// Execute runs the firechat CLI.
func Execute() error {
	root := &cobra.Command{
		Use:           "firechat",
		Short:         "End-to-end encrypted two-party chat CLI",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = loadConfig(cmd)
			if err != nil {
				return err
			}
			if cmd.Annotations[needsPassphrase] == "true" && cfg.Passphrase == "" {
				if cfg.Passphrase, err = promptPassphrase(); err != nil {
					return err
				}
			}
			wire, err = app.NewWire(cfg)
			return err
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if wire == nil {
				return nil
			}
			return wire.Close()
		},
	}

	root.PersistentFlags().StringVar(&home, "home", app.DefaultHome, "state dir")
	root.PersistentFlags().StringVarP(&passphrase, "passphrase", "p", "", "passphrase protecting local keys (prompted if empty)")
	root.PersistentFlags().StringVar(&relayURL, "relay", "", "relay base URL (default "+app.DefaultRelayURL+")")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "debug, info, warn or error")

	root.AddCommand(
		signinCmd(),
		whoamiCmd(),
		peerCmd(),
		sendCmd(),
		recvCmd(),
		historyCmd(),
		signoutCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return err
	}
	return nil
}

// loadConfig layers defaults, the INI file under --home, and explicit flags.
func loadConfig(cmd *cobra.Command) (app.Config, error) {
	c := app.DefaultConfig()
	c.Home = home
	if err := c.ExpandHome(); err != nil {
		return app.Config{}, err
	}
	if err := c.LoadFile(c.ConfigPath()); err != nil {
		return app.Config{}, err
	}

	flags := cmd.Flags()
	if flags.Changed("relay") {
		c.RelayURL = relayURL
	}
	if flags.Changed("log-level") {
		c.LogLevel = logLevel
	}
	c.Passphrase = passphrase
	if c.Passphrase == "" {
		c.Passphrase = os.Getenv("FIRECHAT_PASSPHRASE")
	}
	c.Log = observability.NewConsoleLogger("firechat", Version, os.Stderr, c.LogLevel)
	return c, nil
}

func promptPassphrase() (string, error) {
	if !term.IsTerminal(int(syscall.Stdin)) {
		return "", errors.New("passphrase required (-p or FIRECHAT_PASSPHRASE)")
	}
	fmt.Fprint(os.Stderr, "Passphrase: ")
	b, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("read passphrase: %w", err)
	}
	if len(b) == 0 {
		return "", errors.New("empty passphrase")
	}
	return string(b), nil
}

func withPassphrase(cmd *cobra.Command) *cobra.Command {
	if cmd.Annotations == nil {
		cmd.Annotations = map[string]string{}
	}
	cmd.Annotations[needsPassphrase] = "true"
	return cmd
}
