package handlers

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/radcool22/meditrack/extract"
	"github.com/radcool22/meditrack/middleware"
	"github.com/radcool22/meditrack/models"
	"github.com/radcool22/meditrack/repositories"
)

const maxUploadSize = 10 * 1024 * 1024 // 10MB

var allowedFileTypes = map[string]bool{
	"application/pdf": true,
	"image/jpeg":      true,
	"image/jpg":       true,
	"image/png":       true,
}

type ReportHandlers struct {
	reports   *repositories.ReportRepository
	uploadDir string
	logger    *zap.Logger
}

func NewReportHandlers(reports *repositories.ReportRepository, uploadDir string, logger *zap.Logger) *ReportHandlers {
	return &ReportHandlers{reports: reports, uploadDir: uploadDir, logger: logger}
}

// Upload stores a report file under the caller's directory namespace and
// persists its metadata. Validation runs before anything touches disk; a
// storage failure after the file is written removes it again.
func (h *ReportHandlers) Upload(c *fiber.Ctx) error {
	file, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "No file uploaded"})
	}

	title := c.FormValue("title")
	if title == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Title is required"})
	}

	mimeType := file.Header.Get("Content-Type")
	if !allowedFileTypes[mimeType] {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid file type. Only PDF and images (JPEG, PNG) are allowed."})
	}
	if file.Size > maxUploadSize {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "File size too large. Maximum size is 10MB."})
	}

	userID := middleware.UserID(c)
	userDir := filepath.Join(h.uploadDir, strconv.FormatUint(uint64(userID), 10))
	if err := os.MkdirAll(userDir, 0o755); err != nil {
		h.logger.Error("upload dir creation failed", zap.String("dir", userDir), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to upload report"})
	}

	filename := fmt.Sprintf("%d-%s%s", time.Now().UnixNano(), uuid.NewString()[:8], filepath.Ext(file.Filename))
	storedPath := filepath.Join(userDir, filename)
	if err := c.SaveFile(file, storedPath); err != nil {
		h.logger.Error("file save failed", zap.String("path", storedPath), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to upload report"})
	}

	report := models.Report{
		UserID:     userID,
		Title:      title,
		Category:   optionalFormValue(c, "category"),
		ReportDate: optionalFormValue(c, "reportDate"),
		Source:     optionalFormValue(c, "source"),
		FilePath:   storedPath,
		FileType:   mimeType,
	}
	if err := h.reports.Create(&report); err != nil {
		if rmErr := os.Remove(storedPath); rmErr != nil {
			h.logger.Error("orphan file cleanup failed", zap.String("path", storedPath), zap.Error(rmErr))
		}
		h.logger.Error("report create failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to upload report"})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Report uploaded successfully",
		"report":  report,
	})
}

// List returns the caller's reports, filtered and sorted by query params.
func (h *ReportHandlers) List(c *fiber.Ctx) error {
	reports, err := h.reports.FindByUser(middleware.UserID(c), repositories.ReportFilter{
		Search:   c.Query("search"),
		Category: c.Query("category"),
		SortBy:   c.Query("sortBy", "created_at"),
		Order:    c.Query("order", "DESC"),
	})
	if err != nil {
		h.logger.Error("report list failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch reports"})
	}

	return c.JSON(fiber.Map{"reports": reports})
}

// Categories returns the caller's distinct report categories.
func (h *ReportHandlers) Categories(c *fiber.Ctx) error {
	categories, err := h.reports.Categories(middleware.UserID(c))
	if err != nil {
		h.logger.Error("category list failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch categories"})
	}

	return c.JSON(fiber.Map{"categories": categories})
}

// Get returns one report's metadata.
func (h *ReportHandlers) Get(c *fiber.Ctx) error {
	report, err := h.findReport(c)
	if report == nil {
		return err
	}
	return c.JSON(fiber.Map{"report": report})
}

// File serves the report's stored bytes.
func (h *ReportHandlers) File(c *fiber.Ctx) error {
	report, err := h.findReport(c)
	if report == nil {
		return err
	}

	if _, err := os.Stat(report.FilePath); err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "File not found"})
	}

	c.Set("Content-Type", report.FileType)
	return c.SendFile(report.FilePath)
}

// Text returns the report's extracted plain text. Images yield a sentinel
// string since OCR is not implemented.
func (h *ReportHandlers) Text(c *fiber.Ctx) error {
	report, err := h.findReport(c)
	if report == nil {
		return err
	}

	data, err := os.ReadFile(report.FilePath)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "File not found"})
	}

	text, err := extract.Text(data, report.FileType)
	if errors.Is(err, extract.ErrUnsupported) {
		text = "[Image file - OCR not yet implemented]"
	} else if err != nil {
		h.logger.Error("text extraction failed", zap.Uint("report", report.ID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to extract text"})
	}

	return c.JSON(fiber.Map{"text": text})
}

// Delete removes the report and its backing file. File removal is
// best-effort; a leftover file is logged, never surfaced.
func (h *ReportHandlers) Delete(c *fiber.Ctx) error {
	report, err := h.findReport(c)
	if report == nil {
		return err
	}

	if err := os.Remove(report.FilePath); err != nil && !os.IsNotExist(err) {
		h.logger.Error("file delete failed", zap.String("path", report.FilePath), zap.Error(err))
	}

	if err := h.reports.Delete(report.ID, middleware.UserID(c)); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Report not found"})
		}
		h.logger.Error("report delete failed", zap.Uint("report", report.ID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to delete report"})
	}

	return c.JSON(fiber.Map{"message": "Report deleted successfully"})
}

// findReport resolves the :id param scoped to the caller. On failure it
// writes the error response itself and returns a nil report; callers
// short-circuit on the nil.
func (h *ReportHandlers) findReport(c *fiber.Ctx) (*models.Report, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return nil, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid report ID"})
	}

	report, err := h.reports.FindByID(uint(id), middleware.UserID(c))
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Report not found"})
	}
	if err != nil {
		h.logger.Error("report lookup failed", zap.Error(err))
		return nil, c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch report"})
	}
	return report, nil
}

func optionalFormValue(c *fiber.Ctx, key string) *string {
	if v := c.FormValue(key); v != "" {
		return &v
	}
	return nil
}
