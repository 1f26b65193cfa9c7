// Package mcp provides an MCP (Model Context Protocol) server exposing
// DengueSense hotspots, breeding-site advice and analytics as tools.
package mcp

import (
	"errors"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/papercomputeco/denguesense/pkg/analytics"
	"github.com/papercomputeco/denguesense/pkg/hotspot"
	"github.com/papercomputeco/denguesense/pkg/utils"
)

type Config struct {
	// Hotspots lists mapped hotspots for the list_hotspots tool
	Hotspots hotspot.Source

	// Analytics serves the dashboard for the analytics_summary tool
	Analytics analytics.Source

	// Noop for empty MCP server
	Noop bool

	// Logger is the configured zap logger
	Logger *zap.Logger
}

type Server struct {
	config    Config
	mcpServer *mcp.Server
	handler   *mcp.StreamableHTTPHandler
}

// NewServer creates a new MCP server with the DengueSense tools.
func NewServer(c Config) (*Server, error) {
	s := &Server{
		config: c,
	}

	mcpServer := mcp.NewServer(
		&mcp.Implementation{
			Name:    "denguesense",
			Version: utils.Version,
		},
		&mcp.ServerOptions{},
	)

	if !c.Noop {
		if c.Hotspots == nil {
			return nil, errors.New("hotspot source is required")
		}
		if c.Analytics == nil {
			return nil, errors.New("analytics source is required")
		}
		if c.Logger == nil {
			return nil, errors.New("logger is required")
		}

		mcp.AddTool(mcpServer, &mcp.Tool{
			Name:        listHotspotsToolName,
			Description: listHotspotsDescription,
		}, s.handleListHotspots)

		mcp.AddTool(mcpServer, &mcp.Tool{
			Name:        adviceToolName,
			Description: adviceDescription,
		}, s.handleAdvice)

		mcp.AddTool(mcpServer, &mcp.Tool{
			Name:        analyticsToolName,
			Description: analyticsDescription,
		}, s.handleAnalyticsSummary)
	}

	s.mcpServer = mcpServer

	// Create a streamable HTTP net/http handler for stateless operations
	s.handler = mcp.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcp.Server {
			return mcpServer
		},
		&mcp.StreamableHTTPOptions{
			Stateless: true,
		},
	)

	return s, nil
}

// Handler returns the HTTP handler for the MCP server.
func (s *Server) Handler() http.Handler {
	return s.handler
}
