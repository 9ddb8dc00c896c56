// Package cmd implements the bucket-explorer command line.
package cmd

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/damacus/bucket-explorer/internal/config"
	"github.com/damacus/bucket-explorer/internal/kvstore"
	"github.com/damacus/bucket-explorer/internal/logging"
	"github.com/damacus/bucket-explorer/internal/metrics"
	"github.com/damacus/bucket-explorer/internal/models"
	"github.com/damacus/bucket-explorer/internal/profiles"
	"github.com/damacus/bucket-explorer/internal/services"
)

// app carries state shared by every subcommand of one invocation
type app struct {
	v       *viper.Viper
	cfgFile string
	cfg     *config.Config
	logger  *zap.Logger

	// factory overrides the configured store driver
	factory services.StoreClientFactory
}

// Execute runs the root command
func Execute() {
	root := newRootCmd(&app{})
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd(a *app) *cobra.Command {
	a.v = config.New()

	root := &cobra.Command{
		Use:   "bucket-explorer",
		Short: "Browse S3-compatible object stores through saved connection profiles",
		Long: `bucket-explorer serves a local web UI and JSON API for browsing
S3-compatible object stores. Running it without a subcommand starts the server.`,
		Version:       versionInfo.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.load()
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), a)
		},
	}
	root.SetVersionTemplate("{{.Version}}\n")

	flags := root.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "config file (yaml, json or toml)")
	flags.String("host", "", "bind host (default 127.0.0.1)")
	flags.Int("port", 0, "bind port (default 3000)")
	flags.String("log-level", "", "log level: debug, info, warn, error")
	flags.String("storage-driver", "", "profile storage: memory, file or sqlite")
	flags.String("storage-path", "", "profile storage location")
	flags.String("store-driver", "", "object store client: minio or aws")

	_ = a.v.BindPFlag("server.host", flags.Lookup("host"))
	_ = a.v.BindPFlag("server.port", flags.Lookup("port"))
	_ = a.v.BindPFlag("log.level", flags.Lookup("log-level"))
	_ = a.v.BindPFlag("storage.driver", flags.Lookup("storage-driver"))
	_ = a.v.BindPFlag("storage.path", flags.Lookup("storage-path"))
	_ = a.v.BindPFlag("store.driver", flags.Lookup("store-driver"))

	root.AddCommand(
		newServeCmd(a),
		newProfilesCmd(a),
		newLsCmd(a),
		newGetCmd(a),
		newVersionCmd(),
	)
	return root
}

func (a *app) load() error {
	cfg, err := config.Load(a.v, a.cfgFile)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = logger
	return nil
}

// openProfiles opens the configured persistence and the profile store over it
func (a *app) openProfiles(ctx context.Context) (*profiles.Store, func() error, error) {
	kv, closeKV, err := kvstore.Open(ctx, a.cfg.Storage.Driver, a.cfg.Storage.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("open storage: %w", err)
	}

	opts := []profiles.Option{profiles.WithLogger(a.logger)}
	if a.cfg.Storage.SecretKey != "" {
		sealer, err := services.NewSecretSealer([]byte(a.cfg.Storage.SecretKey))
		if err != nil {
			_ = closeKV()
			return nil, nil, err
		}
		opts = append(opts, profiles.WithSealer(sealer))
	}

	store, err := profiles.Open(ctx, kv, opts...)
	if err != nil {
		_ = closeKV()
		return nil, nil, err
	}
	a.logger.Debug("profile storage opened",
		zap.String("driver", a.cfg.Storage.Driver),
		zap.String("path", a.cfg.Storage.Path),
		zap.Int("profiles", len(store.List())))
	return store, closeKV, nil
}

// gateway builds the object-store gateway for the configured driver
func (a *app) gateway(m *metrics.Metrics) (*services.Gateway, error) {
	factory := a.factory
	if factory == nil {
		var err error
		factory, err = services.NewStoreClientFactory(a.cfg.Store.Driver)
		if err != nil {
			return nil, err
		}
	}
	return services.NewGateway(factory,
		services.WithLogger(a.logger.Named("gateway")),
		services.WithMetrics(m),
		services.WithTimeout(a.cfg.Store.RequestTimeout),
	), nil
}

var errProfileNotFound = errors.New("no profile matches")

// findProfile resolves ref as a profile id, then as a unique profile name
func findProfile(store *profiles.Store, ref string) (models.ConnectionProfile, error) {
	if p, ok := store.Get(ref); ok {
		return p, nil
	}

	var matches []models.ConnectionProfile
	for _, p := range store.List() {
		if strings.EqualFold(p.Name, ref) {
			matches = append(matches, p)
		}
	}
	switch len(matches) {
	case 0:
		return models.ConnectionProfile{}, fmt.Errorf("%w %q", errProfileNotFound, ref)
	case 1:
		return matches[0], nil
	default:
		return models.ConnectionProfile{}, fmt.Errorf("profile name %q is ambiguous, use the id", ref)
	}
}

// withStore opens the profile store for the duration of fn
func (a *app) withStore(ctx context.Context, fn func(store *profiles.Store) error) error {
	store, closeKV, err := a.openProfiles(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeKV(); err != nil {
			a.logger.Warn("failed to close storage", zap.Error(err))
		}
	}()
	return fn(store)
}

// GenerateSecretKey returns a random key suitable for storage.secret_key
func GenerateSecretKey(r io.Reader) (string, error) {
	buf := make([]byte, services.SecretKeySize*3/4)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
