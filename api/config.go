// Package api provides the DengueSense HTTP API server: hotspots, community
// reports, analytics, image risk analysis and the assistant relay.
package api

import (
	"context"
	"net/http"

	"github.com/papercomputeco/denguesense/pkg/analytics"
	"github.com/papercomputeco/denguesense/pkg/eventstream"
	"github.com/papercomputeco/denguesense/pkg/hotspot"
	"github.com/papercomputeco/denguesense/pkg/risk"
)

// ImpactSource provides the user impact figures.
type ImpactSource interface {
	Impact(ctx context.Context) (risk.ImpactStats, error)
}

// Config is the API server configuration.
type Config struct {
	// ListenAddr is the address to listen on (e.g., ":8081")
	ListenAddr string

	// AssistantEndpoint is the AI chat backend relayed by POST /assistant.
	// Empty disables the relay.
	AssistantEndpoint string

	// AssistantAPIKey is sent to the backend as a bearer token.
	AssistantAPIKey string

	// HTTPClient is used for the relay. Defaults to a five minute timeout.
	HTTPClient *http.Client

	// Hotspots and Analytics are required.
	Hotspots  hotspot.Source
	Analytics analytics.Source

	// Impact is optional; GET /impact answers 503 without it.
	Impact ImpactSource

	// Analyzer defaults to risk.NewMockAnalyzer.
	Analyzer risk.Analyzer

	// Publisher receives report.submitted events. Defaults to a no-op.
	Publisher eventstream.Publisher

	// MaxUploadBytes bounds request bodies, including images (default 10 MiB).
	MaxUploadBytes int

	// DisableMCP leaves /mcp with an empty tool list.
	DisableMCP bool
}
