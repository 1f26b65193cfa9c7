package api

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/papercomputeco/denguesense/api/header"
	"github.com/papercomputeco/denguesense/api/mcp"
	"github.com/papercomputeco/denguesense/api/worker"
	"github.com/papercomputeco/denguesense/pkg/eventstream/nop"
	"github.com/papercomputeco/denguesense/pkg/risk"
	"github.com/papercomputeco/denguesense/pkg/storage"
)

const (
	defaultMaxUploadBytes = 10 << 20
	defaultRelayTimeout   = 5 * time.Minute
)

// Server is the DengueSense API server.
type Server struct {
	config        Config
	driver        storage.Driver
	logger        *zap.Logger
	app           *fiber.App
	workerPool    *worker.Pool
	headerHandler *header.Handler
	httpClient    *http.Client
}

// NewServer creates a new API server.
// The driver is injected so reports can be shared with other components.
func NewServer(config Config, driver storage.Driver, logger *zap.Logger) (*Server, error) {
	if driver == nil {
		return nil, errors.New("storage driver is required")
	}
	if config.Hotspots == nil {
		return nil, errors.New("hotspot source is required")
	}
	if config.Analytics == nil {
		return nil, errors.New("analytics source is required")
	}
	if logger == nil {
		return nil, errors.New("logger is required")
	}

	if config.Analyzer == nil {
		config.Analyzer = risk.NewMockAnalyzer(risk.MockAnalyzerConfig{})
	}
	if config.Publisher == nil {
		config.Publisher = nop.NewPublisher()
	}
	if config.MaxUploadBytes <= 0 {
		config.MaxUploadBytes = defaultMaxUploadBytes
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			// Assistant replies can stream for a while
			Timeout: defaultRelayTimeout,
		}
	}

	wp, err := worker.NewPool(&worker.Config{
		Publisher: config.Publisher,
		Logger:    logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create worker pool: %w", err)
	}

	mcpServer, err := mcp.NewServer(mcp.Config{
		Hotspots:  config.Hotspots,
		Analytics: config.Analytics,
		Noop:      config.DisableMCP,
		Logger:    logger,
	})
	if err != nil {
		wp.Close()
		return nil, fmt.Errorf("could not create MCP server: %w", err)
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		BodyLimit:             config.MaxUploadBytes,
	})

	s := &Server{
		config:        config,
		driver:        driver,
		logger:        logger,
		app:           app,
		workerPool:    wp,
		headerHandler: header.NewHandler(config.AssistantAPIKey),
		httpClient:    httpClient,
	}

	app.Use(instrument)

	app.Get("/ping", s.handlePing)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	app.Get("/hotspots", s.handleListHotspots)

	app.Get("/reports", s.handleListReports)
	app.Post("/reports", s.handleSubmitReport)
	app.Get("/reports/:id", s.handleGetReport)
	app.Patch("/reports/:id", s.handleUpdateReportStatus)

	app.Get("/analytics", s.handleAnalytics)
	app.Get("/impact", s.handleImpact)

	app.Post("/analyze", s.handleAnalyze)
	app.Post("/assistant", s.handleAssistant)

	app.All("/mcp", adaptor.HTTPHandler(mcpServer.Handler()))

	return s, nil
}

// Run starts the API server on the configured address.
func (s *Server) Run() error {
	s.logger.Info("starting API server",
		zap.String("listen", s.config.ListenAddr),
	)
	return s.app.Listen(s.config.ListenAddr)
}

// RunWithListener starts the API server using the provided listener.
func (s *Server) RunWithListener(listener net.Listener) error {
	s.logger.Info("starting API server",
		zap.String("listen", listener.Addr().String()),
	)
	return s.app.Listener(listener)
}

// Shutdown gracefully shuts down the API server, then drains pending report
// events.
func (s *Server) Shutdown() error {
	err := s.app.Shutdown()
	s.workerPool.Close()
	return err
}
