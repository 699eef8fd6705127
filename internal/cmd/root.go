// Package cmd implements the episode-roulette command line.
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Digital-Shane/episode-roulette/internal/config"
	"github.com/Digital-Shane/episode-roulette/internal/log"
	"github.com/Digital-Shane/episode-roulette/internal/picker"
	"github.com/Digital-Shane/episode-roulette/internal/provider"
	providerinit "github.com/Digital-Shane/episode-roulette/internal/provider/init"
	"github.com/Digital-Shane/episode-roulette/internal/service"
	"github.com/Digital-Shane/episode-roulette/internal/session"
	"github.com/Digital-Shane/episode-roulette/internal/tui"
	"github.com/Digital-Shane/episode-roulette/internal/tui/watch"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

// app carries what every command needs once the root command has loaded
// the configuration.
type app struct {
	fs afero.Fs

	cfgFile      string
	providerName string
	logLevel     string

	cfg    *config.Config
	logger *logrus.Logger
	closer io.Closer

	// newCatalog builds the in-process catalog for the configured provider.
	newCatalog func(a *app) (service.Catalog, error)
	runTUI     func(ctx context.Context, catalog service.Catalog, prefs *session.Preferences, opts ...watch.Option) error
}

func newApp() *app {
	return &app{
		fs:         afero.NewOsFs(),
		newCatalog: localCatalog,
		runTUI:     tui.Run,
	}
}

// localCatalog wires the configured provider, picker and service together.
func localCatalog(a *app) (service.Catalog, error) {
	if err := a.cfg.Validate(true); err != nil {
		return nil, err
	}

	registry := provider.NewRegistry()
	if err := providerinit.LoadBuiltinProviders(registry); err != nil {
		return nil, err
	}
	name := a.cfg.Provider.Name
	p, err := providerinit.Setup(registry, name, a.cfg.ProviderSettings(name))
	if err != nil {
		return nil, fmt.Errorf("failed to set up %s provider: %w", name, err)
	}

	pk := picker.New(p, picker.WithAttempts(a.cfg.Picker.Attempts), picker.WithLogger(a.logger))
	return service.New(p, pk, a.logger), nil
}

// load reads the configuration, applies global flags and builds the logger.
func (a *app) load(cmd *cobra.Command) error {
	cfg, err := config.Load(a.fs, a.cfgFile)
	if err != nil {
		return err
	}

	if cmd.Flags().Changed("provider") {
		if err := cfg.Set("provider.name", strings.ToLower(strings.TrimSpace(a.providerName))); err != nil {
			return err
		}
	}
	if cmd.Flags().Changed("log-level") {
		if err := cfg.Set("log.level", a.logLevel); err != nil {
			return err
		}
	}
	if err := cfg.Validate(false); err != nil {
		return err
	}

	logger, closer, err := log.New(log.Options{
		Level:      cfg.Log.Level,
		JSON:       cfg.Log.JSON,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	}, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.logger = logger
	a.closer = closer
	return nil
}

func (a *app) close() error {
	if a.closer == nil {
		return nil
	}
	return a.closer.Close()
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "episode-roulette",
		Short: "Pick a random episode of a TV show",
		Long: `episode-roulette picks a random episode of a TV show, steering away from
episodes you have already been offered. Run it as an HTTP service, query it
from the command line, or browse it in the terminal UI.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.load(cmd)
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			return a.close()
		},
	}

	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "Config file (default ~/.episode-roulette/config.json)")
	root.PersistentFlags().StringVar(&a.providerName, "provider", "", "Metadata provider: "+strings.Join(config.ProviderNames, ", "))
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Log level: trace, debug, info, warn, error")

	root.AddCommand(
		newServeCmd(a),
		newSearchCmd(a),
		newShowCmd(a),
		newPickCmd(a),
		newEpisodeCmd(a),
		newWatchCmd(a),
		newConfigCmd(a),
	)
	return root
}

// Execute runs the command line and exits non-zero on failure.
func Execute() {
	if err := newRootCmd(newApp()).ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
