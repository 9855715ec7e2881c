package handlers

import (
	"errors"
	"os"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/radcool22/meditrack/ai"
	"github.com/radcool22/meditrack/extract"
	"github.com/radcool22/meditrack/middleware"
	"github.com/radcool22/meditrack/models"
	"github.com/radcool22/meditrack/repositories"
)

type AIHandlers struct {
	reports      *repositories.ReportRepository
	orchestrator *ai.Orchestrator
	logger       *zap.Logger
}

func NewAIHandlers(reports *repositories.ReportRepository, orchestrator *ai.Orchestrator, logger *zap.Logger) *AIHandlers {
	return &AIHandlers{reports: reports, orchestrator: orchestrator, logger: logger}
}

type explainRequest struct {
	ReportID uint `json:"reportId"`
}

type chatRequest struct {
	ReportID            uint         `json:"reportId"`
	Question            string       `json:"question"`
	ConversationHistory []ai.Message `json:"conversationHistory"`
}

// Explain generates a plain-language summary of a report.
func (h *AIHandlers) Explain(c *fiber.Ctx) error {
	var req explainRequest
	if err := c.BodyParser(&req); err != nil || req.ReportID == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Report ID is required"})
	}

	report, text, errResp := h.reportText(c, req.ReportID)
	if report == nil {
		return errResp
	}

	explanation, err := h.orchestrator.Explain(c.UserContext(), text)
	if err != nil {
		h.logger.Error("explanation failed", zap.Uint("report", report.ID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to generate explanation"})
	}

	return c.JSON(fiber.Map{
		"explanation": explanation,
		"reportTitle": report.Title,
	})
}

// Chat answers a follow-up question about a report, replaying the
// caller-supplied conversation history.
func (h *AIHandlers) Chat(c *fiber.Ctx) error {
	var req chatRequest
	if err := c.BodyParser(&req); err != nil || req.ReportID == 0 || req.Question == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Report ID and question are required"})
	}

	report, text, errResp := h.reportText(c, req.ReportID)
	if report == nil {
		return errResp
	}

	answer, err := h.orchestrator.Chat(c.UserContext(), text, req.Question, req.ConversationHistory)
	if err != nil {
		h.logger.Error("chat failed", zap.Uint("report", report.ID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process question"})
	}

	return c.JSON(fiber.Map{
		"answer":      answer,
		"reportTitle": report.Title,
	})
}

// reportText resolves a caller-owned report and extracts its text. On any
// failure it writes the error response and returns a nil report.
func (h *AIHandlers) reportText(c *fiber.Ctx, reportID uint) (report *models.Report, text string, errResp error) {
	rep, err := h.reports.FindByID(reportID, middleware.UserID(c))
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, "", c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Report not found"})
	}
	if err != nil {
		h.logger.Error("report lookup failed", zap.Error(err))
		return nil, "", c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch report"})
	}

	data, err := os.ReadFile(rep.FilePath)
	if err != nil {
		return nil, "", c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Report file not found"})
	}

	extracted, err := extract.Text(data, rep.FileType)
	if errors.Is(err, extract.ErrUnsupported) {
		return nil, "", c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Image OCR not yet implemented. Please upload PDF reports."})
	}
	if err != nil {
		h.logger.Error("text extraction failed", zap.Uint("report", rep.ID), zap.Error(err))
		return nil, "", c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to extract text"})
	}
	if strings.TrimSpace(extracted) == "" {
		return nil, "", c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Could not extract text from report"})
	}

	return rep, extracted, nil
}
