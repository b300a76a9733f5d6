package handler

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"payroll-web/internal/config"
	"payroll-web/internal/models"
	"payroll-web/internal/repository"
	"payroll-web/internal/service"
	"payroll-web/internal/utils"
	"payroll-web/internal/worker"
)

type ImportHandler struct {
	sessionRepo   *repository.ImportSessionRepository
	importService *service.ImportService
	asynqClient   *asynq.Client
	redis         *redis.Client
	cfg           *config.Config
}

func NewImportHandler(
	sessionRepo *repository.ImportSessionRepository,
	importService *service.ImportService,
	asynqClient *asynq.Client,
	redisClient *redis.Client,
	cfg *config.Config,
) *ImportHandler {
	return &ImportHandler{
		sessionRepo:   sessionRepo,
		importService: importService,
		asynqClient:   asynqClient,
		redis:         redisClient,
		cfg:           cfg,
	}
}

// Upload receives the salary workbook ("file") and an optional payslip
// archive ("pdfs"), runs the preview pipeline and stores the result as a
// new import session awaiting confirmation.
func (h *ImportHandler) Upload(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(int)

	file, err := c.FormFile("file")
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "File is required", err)
	}

	if ext := strings.ToLower(filepath.Ext(file.Filename)); ext != ".xlsx" {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Only XLSX files are allowed", nil)
	}
	if file.Size > int64(h.cfg.UploadMaxSize) {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "File size exceeds maximum limit", nil)
	}

	sessionCode := fmt.Sprintf("IMPORT-%s", uuid.New().String()[:8])

	if err := os.MkdirAll(h.cfg.ImportWorkDir, 0o755); err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to prepare work directory", err)
	}

	filePath := filepath.Join(h.cfg.ImportWorkDir, sessionCode+".xlsx")
	if err := c.SaveFile(file, filePath); err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to save file", err)
	}

	// The payslip archive is optional; without it the preview simply has
	// no matched documents.
	var pdfs []models.PDFCandidate
	zipFilename := ""
	if zipFile, err := c.FormFile("pdfs"); err == nil {
		if !strings.EqualFold(filepath.Ext(zipFile.Filename), ".zip") {
			h.discardUploads(filePath, sessionCode, zipFilename)
			return utils.ErrorResponse(c, fiber.StatusBadRequest, "Payslip archive must be a ZIP file", nil)
		}

		zipFilename = sessionCode + ".zip"
		zipPath := filepath.Join(h.cfg.ImportWorkDir, zipFilename)
		if err := c.SaveFile(zipFile, zipPath); err != nil {
			h.discardUploads(filePath, sessionCode, zipFilename)
			return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to save archive", err)
		}

		pdfs, err = h.importService.Matcher().ExtractFromZip(zipPath, sessionCode)
		if err != nil {
			h.discardUploads(filePath, sessionCode, zipFilename)
			return utils.ErrorResponse(c, fiber.StatusBadRequest, "Failed to extract payslip archive", err)
		}
	}

	preview, err := h.importService.ProcessForPreview(filePath, pdfs)
	if err != nil {
		h.discardUploads(filePath, sessionCode, zipFilename)
		return utils.ErrorResponse(c, fiber.StatusBadRequest, err.Error(), nil)
	}

	previewJSON, err := json.Marshal(preview)
	if err != nil {
		h.discardUploads(filePath, sessionCode, zipFilename)
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to encode preview", err)
	}

	session := &models.ImportSession{
		SessionCode: sessionCode,
		UserID:      userID,
		Filename:    file.Filename,
		FilePath:    filePath,
		ZipFilename: zipFilename,
		TotalRows:   preview.TotalRows,
		ValidRows:   len(preview.Rows),
		Status:      models.StatusPreview,
		PreviewJSON: previewJSON,
	}
	if err := h.sessionRepo.Create(session); err != nil {
		h.discardUploads(filePath, sessionCode, zipFilename)
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to create import session", err)
	}

	return utils.SuccessResponse(c, "File uploaded successfully", fiber.Map{
		"session": session,
		"preview": preview,
	})
}

// discardUploads removes the files saved for an upload that failed before a
// session existed to own them. Without this the workbook, archive and
// extracted folder would linger in the work directory with nothing left to
// delete them through.
func (h *ImportHandler) discardUploads(filePath, sessionCode, zipFilename string) {
	if filePath != "" {
		_ = os.Remove(filePath)
	}
	_ = h.importService.Matcher().Cleanup(sessionCode, zipFilename)
}

func (h *ImportHandler) GetSessions(c *fiber.Ctx) error {
	params := utils.GetPaginationParams(c)
	offset := utils.GetOffset(params.Page, params.Limit)

	sessions, total, err := h.sessionRepo.List(params.Limit, offset)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to retrieve sessions", err)
	}

	pagination := utils.CalculatePagination(params.Page, params.Limit, int64(total))
	return utils.PaginatedResponseBuilder(c, "Sessions retrieved successfully", sessions, pagination)
}

func (h *ImportHandler) GetSession(c *fiber.Ctx) error {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid session ID", err)
	}

	session, err := h.sessionRepo.GetByID(id)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Session not found", err)
	}

	var preview service.PreviewResult
	if len(session.PreviewJSON) > 0 {
		if err := json.Unmarshal(session.PreviewJSON, &preview); err != nil {
			return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to decode preview", err)
		}
	}

	return utils.SuccessResponse(c, "Session retrieved successfully", fiber.Map{
		"session": session,
		"preview": preview,
	})
}

// Confirm enqueues the background task that persists a previewed session.
func (h *ImportHandler) Confirm(c *fiber.Ctx) error {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid session ID", err)
	}

	session, err := h.sessionRepo.GetByID(id)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Session not found", err)
	}

	if session.Status != models.StatusPreview {
		return utils.ErrorResponse(c, fiber.StatusConflict,
			fmt.Sprintf("Session is %s, only preview sessions can be confirmed", session.Status), nil)
	}
	if session.ValidRows == 0 {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Session has no valid rows to import", nil)
	}

	if err := h.sessionRepo.UpdateStatus(session.ID, models.StatusConfirmed); err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to confirm session", err)
	}

	task, err := worker.NewSalaryImportTask(session.ID, session.SessionCode)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to build import task", err)
	}
	if _, err := h.asynqClient.Enqueue(task); err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to enqueue import task", err)
	}

	return utils.SuccessResponse(c, "Import confirmed", fiber.Map{
		"session_id":   session.ID,
		"session_code": session.SessionCode,
	})
}

// Progress reports the Redis-backed completion percentage for a session.
func (h *ImportHandler) Progress(c *fiber.Ctx) error {
	code := c.Params("code")

	progress, err := h.redis.Get(c.Context(), worker.ProgressKey(code)).Result()
	if err == redis.Nil {
		progress = "0.00"
	} else if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to read progress", err)
	}

	session, err := h.sessionRepo.GetByCode(code)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Session not found", err)
	}

	return utils.SuccessResponse(c, "Progress retrieved successfully", fiber.Map{
		"session_code": code,
		"status":       session.Status,
		"progress":     progress,
		"imported":     session.ImportedRows,
		"failed":       session.FailedRows,
	})
}

// Delete removes a session together with its uploaded files.
func (h *ImportHandler) Delete(c *fiber.Ctx) error {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid session ID", err)
	}

	session, err := h.sessionRepo.GetByID(id)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Session not found", err)
	}

	if session.FilePath != "" {
		if err := os.Remove(session.FilePath); err != nil && !os.IsNotExist(err) {
			return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to delete uploaded file", err)
		}
	}
	if err := h.importService.Matcher().Cleanup(session.SessionCode, session.ZipFilename); err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to delete extracted files", err)
	}

	if err := h.sessionRepo.Delete(session.ID); err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to delete session", err)
	}

	return utils.SuccessResponse(c, "Session deleted successfully", nil)
}
