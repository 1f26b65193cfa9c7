package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/papercomputeco/denguesense/pkg/llm"
	"github.com/papercomputeco/denguesense/pkg/sse"
)

// maxUpstreamErrorBytes bounds how much of a failed upstream reply is read
// and relayed.
const maxUpstreamErrorBytes = 4096

// handleAssistant relays a chat request to the AI backend with the
// server-held key and streams the SSE reply back verbatim.
func (s *Server) handleAssistant(c *fiber.Ctx) error {
	if s.config.AssistantEndpoint == "" {
		return c.Status(fiber.StatusServiceUnavailable).JSON(llm.ErrorResponse{
			Error: "assistant is not configured",
		})
	}

	body := c.Body()

	var chatReq llm.ChatRequest
	if err := json.Unmarshal(body, &chatReq); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(llm.ErrorResponse{Error: "invalid request body"})
	}
	if len(chatReq.Messages) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(llm.ErrorResponse{Error: "messages are required"})
	}

	// Use context.Background() instead of c.Context() because fasthttp recycles
	// its RequestCtx after the handler returns, but the relay goroutine still
	// reads from the backend connection.
	httpReq, err := http.NewRequestWithContext(context.Background(), http.MethodPost, s.config.AssistantEndpoint, bytes.NewReader(body))
	if err != nil {
		s.logger.Error("failed to create assistant request", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(llm.ErrorResponse{Error: "internal error"})
	}

	s.headerHandler.SetUpstreamRequestHeaders(c, httpReq)
	httpReq.Header.Set("Content-Type", "application/json")

	s.logger.Debug("relaying assistant request",
		zap.String("url", s.config.AssistantEndpoint),
		zap.Int("message_count", len(chatReq.Messages)),
	)

	httpResp, err := s.httpClient.Do(httpReq)
	if err != nil {
		s.logger.Error("assistant request failed", zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(llm.ErrorResponse{Error: "assistant request failed"})
	}
	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		respBody, _ := io.ReadAll(io.LimitReader(httpResp.Body, maxUpstreamErrorBytes))
		httpResp.Body.Close()
		s.logger.Error("assistant returned error",
			zap.Int("status", httpResp.StatusCode),
			zap.String("body", string(respBody)),
		)
		s.headerHandler.SetClientResponseHeaders(c, httpResp)
		return c.Status(httpResp.StatusCode).Send(respBody)
	}

	s.headerHandler.SetClientResponseHeaders(c, httpResp)
	if !strings.HasPrefix(httpResp.Header.Get("Content-Type"), "text/event-stream") {
		c.Set(fiber.HeaderContentType, "text/event-stream")
	}
	c.Set(fiber.HeaderCacheControl, "no-cache")

	// io.Pipe gives backpressure: pw.Write blocks until fasthttp has read
	// the chunk and flushed it to the client.
	pr, pw := io.Pipe()
	go s.relayStream(httpResp, pw)

	// Unknown size (-1) triggers chunked transfer encoding in fasthttp.
	c.Context().Response.SetBodyStream(pr, -1)

	return nil
}

// relayStream copies the backend SSE body to pw event by event.
func (s *Server) relayStream(httpResp *http.Response, pw *io.PipeWriter) {
	defer httpResp.Body.Close()
	defer pw.Close()

	mAssistantStreams.Inc()
	defer mAssistantStreams.Dec()

	tr := sse.NewTeeReader(httpResp.Body, pw)
	events := 0

	for {
		ev, err := tr.Next()
		if err != nil {
			s.logger.Error("error relaying assistant stream",
				zap.Int("events", events),
				zap.Error(err),
			)
			pw.CloseWithError(err)
			return
		}
		if ev == nil {
			break
		}

		events++
		mAssistantEvents.Inc()

		if ev.IsDone() {
			s.logger.Debug("assistant stream done")
		}
	}

	s.logger.Debug("assistant stream relayed",
		zap.Int("events", events),
		zap.Int64("bytes", tr.Forwarded()),
	)
}
