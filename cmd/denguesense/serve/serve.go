// Package servecmder provides the serve command running the DengueSense API
// server.
package servecmder

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/papercomputeco/denguesense/api"
	"github.com/papercomputeco/denguesense/pkg/config"
	"github.com/papercomputeco/denguesense/pkg/eventstream"
	"github.com/papercomputeco/denguesense/pkg/eventstream/kafka"
	"github.com/papercomputeco/denguesense/pkg/eventstream/nop"
	"github.com/papercomputeco/denguesense/pkg/fixtures"
	"github.com/papercomputeco/denguesense/pkg/logger"
	"github.com/papercomputeco/denguesense/pkg/report"
	"github.com/papercomputeco/denguesense/pkg/storage"
	"github.com/papercomputeco/denguesense/pkg/storage/inmemory"
	"github.com/papercomputeco/denguesense/pkg/storage/postgres"
	"github.com/papercomputeco/denguesense/pkg/storage/sqlite"
)

type ServeCommander struct {
	listen       string
	endpoint     string
	apiKey       string
	sqlitePath   string
	postgresDSN  string
	fixturesPath string
	eventStream  string
	logFile      string
	disableMCP   bool

	debug  bool
	cfg    *config.Config
	logger *zap.Logger
}

const serveLongDesc string = `Run the DengueSense API server.

The server exposes hotspots, community reports, analytics, image analysis,
the health assistant relay, Prometheus metrics on /metrics and an MCP
endpoint on /mcp.

Reports are stored in PostgreSQL (--postgres), SQLite (--sqlite) or, with
neither, in memory seeded with the demo reports. Hotspots, analytics and
impact figures come from a TOML fixture file (--fixtures) that is reloaded
when it changes, or from the built-in demo data.

Submitted reports are published as report.submitted events when
--eventstream kafka is set together with eventstream.brokers in config.toml
or DENGUESENSE_EVENTSTREAM_BROKERS.

Examples:
  denguesense serve
  denguesense serve --listen :9000 --sqlite ./reports.db
  denguesense serve --fixtures ./fixtures.toml --log-file ./denguesense.log`

const serveShortDesc string = "Run the DengueSense API server"

// serveFlags are the registry flags serve binds to viper.
var serveFlags = []string{
	config.FlagListen,
	config.FlagEndpoint,
	config.FlagAPIKey,
	config.FlagSQLite,
	config.FlagPostgres,
	config.FlagFixtures,
	config.FlagEventStream,
}

func NewServeCmd() *cobra.Command {
	cmder := &ServeCommander{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")

			v, err := config.InitViper(configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			config.BindRegisteredFlags(v, cmd, config.Flags, serveFlags)
			cmder.cfg = config.FromViper(v)
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %v", err)
			}
			return cmder.run(cmd.Context())
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagListen, &cmder.listen)
	config.AddStringFlag(cmd, config.Flags, config.FlagEndpoint, &cmder.endpoint)
	config.AddStringFlag(cmd, config.Flags, config.FlagAPIKey, &cmder.apiKey)
	config.AddStringFlag(cmd, config.Flags, config.FlagSQLite, &cmder.sqlitePath)
	config.AddStringFlag(cmd, config.Flags, config.FlagPostgres, &cmder.postgresDSN)
	config.AddStringFlag(cmd, config.Flags, config.FlagFixtures, &cmder.fixturesPath)
	config.AddStringFlag(cmd, config.Flags, config.FlagEventStream, &cmder.eventStream)
	cmd.Flags().StringVar(&cmder.logFile, "log-file", "", "Also write logs to this file, rotated at 50MB")
	cmd.Flags().BoolVar(&cmder.disableMCP, "disable-mcp", false, "Do not serve the MCP endpoint")

	return cmd
}

func (c *ServeCommander) run(ctx context.Context) error {
	writers := []io.Writer{os.Stdout}
	if c.logFile != "" {
		fileWriter := logger.NewRotatingFileWriter(c.logFile)
		defer fileWriter.Close()
		writers = append(writers, fileWriter)
	}
	c.logger = logger.NewLoggerWithWriters(c.debug, writers...)
	defer func() { _ = c.logger.Sync() }()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	set, err := c.loadFixtures(ctx)
	if err != nil {
		return err
	}

	seed, err := set.List(ctx)
	if err != nil {
		return fmt.Errorf("reading fixture reports: %w", err)
	}

	driver, err := c.newStorageDriver(ctx, seed)
	if err != nil {
		return err
	}
	defer driver.Close()

	publisher, err := c.newPublisher()
	if err != nil {
		return err
	}
	defer publisher.Close()

	server, err := api.NewServer(api.Config{
		ListenAddr:        c.cfg.API.Listen,
		AssistantEndpoint: c.cfg.Assistant.Endpoint,
		AssistantAPIKey:   c.cfg.Assistant.APIKey,
		HTTPClient:        &http.Client{Timeout: c.cfg.Assistant.Timeout.Duration},
		Hotspots:          set,
		Analytics:         set,
		Impact:            set,
		Publisher:         publisher,
		DisableMCP:        c.disableMCP,
	}, driver, c.logger)
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}

	// Channel to capture errors from the server goroutine
	errChan := make(chan error, 1)
	go func() {
		if err := server.Run(); err != nil {
			errChan <- fmt.Errorf("API server error: %w", err)
		}
	}()

	// Wait for interrupt signal or error
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case err := <-errChan:
		return err
	case sig := <-sigChan:
		c.logger.Info("received signal, shutting down", zap.String("signal", sig.String()))
		return server.Shutdown()
	}
}

// loadFixtures returns the built-in demo data or the configured fixture
// file, watched for changes until ctx is done.
func (c *ServeCommander) loadFixtures(ctx context.Context) (*fixtures.Set, error) {
	path := c.cfg.Fixtures.Path
	if path == "" {
		c.logger.Info("using built-in demo fixtures")
		return fixtures.Default(), nil
	}

	set, err := fixtures.Load(path)
	if err != nil {
		return nil, err
	}

	go func() {
		if err := fixtures.Watch(ctx, path, set, c.logger); err != nil {
			c.logger.Error("fixture watcher stopped", zap.Error(err))
		}
	}()

	c.logger.Info("using fixture file", zap.String("path", path))
	return set, nil
}

// newStorageDriver picks PostgreSQL, then SQLite, then an in-memory store
// seeded with the fixture reports.
func (c *ServeCommander) newStorageDriver(ctx context.Context, seed []report.Report) (storage.Driver, error) {
	switch {
	case c.cfg.Storage.PostgresDSN != "":
		driver, err := postgres.NewDriver(ctx, c.cfg.Storage.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("failed to create PostgreSQL store: %w", err)
		}
		c.logger.Info("using PostgreSQL storage")
		return driver, nil

	case c.cfg.Storage.SQLitePath != "":
		driver, err := sqlite.NewSQLiteDriver(c.cfg.Storage.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("failed to create SQLite store: %w", err)
		}
		c.logger.Info("using SQLite storage", zap.String("path", c.cfg.Storage.SQLitePath))
		return driver, nil

	default:
		c.logger.Info("using in-memory storage", zap.Int("seeded_reports", len(seed)))
		return inmemory.NewDriver(seed...), nil
	}
}

func (c *ServeCommander) newPublisher() (eventstream.Publisher, error) {
	switch c.cfg.EventStream.Provider {
	case "", config.EventStreamNop:
		return nop.NewPublisher(), nil

	case config.EventStreamKafka:
		publisher, err := kafka.NewPublisher(kafka.Config{
			Brokers: c.cfg.EventStream.Brokers,
			Topic:   c.cfg.EventStream.Topic,
		})
		if err != nil {
			return nil, fmt.Errorf("creating kafka publisher: %w", err)
		}
		c.logger.Info("publishing report events to kafka",
			zap.Strings("brokers", c.cfg.EventStream.Brokers),
			zap.String("topic", c.cfg.EventStream.Topic),
		)
		return publisher, nil

	default:
		return nil, fmt.Errorf("unknown eventstream provider %q (available: nop, kafka)", c.cfg.EventStream.Provider)
	}
}
