package api

import (
	"errors"
	"io"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/papercomputeco/denguesense/pkg/llm"
	"github.com/papercomputeco/denguesense/pkg/risk"
)

// imageField is the multipart field carrying the photo.
const imageField = "image"

// AnalyzeResponse is the body of POST /analyze.
type AnalyzeResponse struct {
	risk.Result
	Presentation risk.Display  `json:"presentation"`
	Advice       []risk.Advice `json:"advice"`
}

// handleAnalyze runs breeding-site analysis on an uploaded image.
func (s *Server) handleAnalyze(c *fiber.Ctx) error {
	fh, err := c.FormFile(imageField)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(llm.ErrorResponse{Error: "image file is required"})
	}

	f, err := fh.Open()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(llm.ErrorResponse{Error: "could not read upload"})
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(llm.ErrorResponse{Error: "could not read upload"})
	}

	img, err := risk.ValidateImage(fh.Filename, data)
	if err != nil {
		if errors.Is(err, risk.ErrNotAnImage) {
			return c.Status(fiber.StatusBadRequest).JSON(llm.ErrorResponse{Error: "please upload an image file"})
		}
		return c.Status(fiber.StatusBadRequest).JSON(llm.ErrorResponse{Error: err.Error()})
	}

	s.logger.Debug("analyzing image",
		zap.String("name", img.Name),
		zap.String("content_type", img.ContentType),
		zap.Int("bytes", len(img.Data)),
	)

	result, err := s.config.Analyzer.Analyze(c.UserContext(), img)
	if err != nil {
		s.logger.Error("image analysis failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(llm.ErrorResponse{Error: "analysis failed"})
	}

	mAnalyses.WithLabelValues(string(result.Level)).Inc()

	display, _ := risk.Presentation(result.Level)
	return c.JSON(AnalyzeResponse{
		Result:       *result,
		Presentation: display,
		Advice:       risk.AdviceFor(result.Level),
	})
}
