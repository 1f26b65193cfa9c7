// Package header filters headers for the assistant relay.
//
// The API server relays chat requests to the AI backend like so:
//
//	Browser <--> API /assistant <--> AI backend
//
// and each leg negotiates hops, credentials and encoding independently.
package header

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// Handler manages headers between relay connections.
type Handler struct {
	apiKey string
}

// NewHandler creates a new header Handler. A non-empty apiKey is sent to the
// AI backend as a bearer token in place of any client credentials.
func NewHandler(apiKey string) *Handler {
	return &Handler{apiKey: apiKey}
}

// skipRequest is the set of request headers (browser --> API --> backend)
// that are not forwarded to the AI backend.
var skipRequest = map[string]struct{}{
	// Hop-by-hop headers: only meaningful for a single transport-level connection.
	"Connection": {},

	// The Host header is rewritten by Go's http.Transport to match the
	// backend URL.
	"Host": {},

	// Stripped so Go's http.Transport negotiates gzip itself and hands the
	// relay a decompressed body.
	"Accept-Encoding": {},

	// Credentials belong to the server, never to the browser.
	"Authorization": {},
	"Cookie":        {},

	// Recomputed by the transport from the request body.
	"Content-Length": {},
}

// skipResponse is the set of backend response headers (browser <-- API <-- backend)
// that are not copied back to the browser.
var skipResponse = map[string]struct{}{
	"Connection": {},

	// fasthttp manages chunked transfer encoding for the browser leg.
	"Transfer-Encoding": {},

	// The relay always reads a decompressed body.
	"Content-Encoding": {},

	// Let fasthttp compute the length of the relayed body.
	"Content-Length": {},

	"Set-Cookie": {},
}

// SetUpstreamRequestHeaders copies request headers from the Fiber context to
// the outgoing http.Request, filtering headers the relay must not forward,
// then sets the server-held bearer token.
func (h *Handler) SetUpstreamRequestHeaders(c *fiber.Ctx, req *http.Request) {
	c.Request().Header.VisitAll(func(key, value []byte) {
		k := http.CanonicalHeaderKey(string(key))
		if _, skip := skipRequest[k]; !skip {
			req.Header.Set(k, string(value))
		}
	})

	if h.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+h.apiKey)
	}
}

// SetClientResponseHeaders copies response headers from the backend
// http.Response to the Fiber context, filtering headers the relay must not
// forward back to the browser.
func (h *Handler) SetClientResponseHeaders(c *fiber.Ctx, resp *http.Response) {
	for k, v := range resp.Header {
		if _, skip := skipResponse[k]; !skip {
			c.Set(k, strings.Join(v, ", "))
		}
	}
}
