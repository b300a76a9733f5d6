package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"payroll-web/internal/config"
	"payroll-web/internal/models"
	"payroll-web/internal/repository"
	"payroll-web/internal/service"
	"payroll-web/internal/utils"
)

const TaskSalaryImport = "salary:import"

type SalaryImportPayload struct {
	SessionID   int64  `json:"session_id"`
	SessionCode string `json:"session_code"`
}

// NewSalaryImportTask builds the asynq task that persists a confirmed
// import session.
func NewSalaryImportTask(sessionID int64, sessionCode string) (*asynq.Task, error) {
	payload, err := json.Marshal(SalaryImportPayload{
		SessionID:   sessionID,
		SessionCode: sessionCode,
	})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskSalaryImport, payload), nil
}

// ProgressKey is the Redis key holding the percentage for a session code.
func ProgressKey(sessionCode string) string {
	return "import:progress:" + sessionCode
}

type SalaryImportHandler struct {
	redis       *redis.Client
	cfg         *config.Config
	sessionRepo *repository.ImportSessionRepository
	// Shared by every task the mux dispatches; PersistAll serializes
	// itself so parallel imports cannot hand out duplicate refs.
	salaryRepo *repository.SalaryRepository
	matcher    *service.PDFMatcher
	log        *logrus.Logger
}

func NewSalaryImportHandler(db *sqlx.DB, redisClient *redis.Client, cfg *config.Config) *SalaryImportHandler {
	return &SalaryImportHandler{
		redis:       redisClient,
		cfg:         cfg,
		sessionRepo: repository.NewImportSessionRepository(db),
		salaryRepo:  repository.NewSalaryRepository(db, cfg.DocumentDir, cfg.RollbackOnError),
		matcher:     service.NewPDFMatcher(cfg.ImportWorkDir),
		log:         utils.GetLogger(),
	}
}

// Handle persists the previewed rows of a confirmed session into the ERP
// tables and keeps the session counters and Redis progress up to date.
func (h *SalaryImportHandler) Handle(ctx context.Context, task *asynq.Task) error {
	var payload SalaryImportPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	session, err := h.sessionRepo.GetByID(payload.SessionID)
	if err != nil {
		return fmt.Errorf("failed to get session: %w", err)
	}

	// Only confirmed sessions are processed; a retry of a finished or
	// deleted session is a no-op.
	if session.Status != models.StatusConfirmed {
		h.log.WithFields(logrus.Fields{
			"session": session.SessionCode,
			"status":  session.Status,
		}).Info("Skipping salary import task")
		return nil
	}

	if err := h.sessionRepo.UpdateStatus(session.ID, models.StatusProcessing); err != nil {
		return fmt.Errorf("failed to mark session processing: %w", err)
	}
	h.setProgress(ctx, session.SessionCode, 0)

	var preview service.PreviewResult
	if err := json.Unmarshal(session.PreviewJSON, &preview); err != nil {
		h.failSession(session, fmt.Sprintf("corrupt preview payload: %v", err))
		return fmt.Errorf("failed to unmarshal preview: %w", err)
	}

	results, errs := h.salaryRepo.PersistAll(session.UserID, preview.Rows)

	session.ImportedRows = len(results)
	session.FailedRows = len(preview.Rows) - len(results)
	if len(errs) > 0 {
		session.ErrorMessage = errs[0]
		if len(errs) > 1 {
			session.ErrorMessage = fmt.Sprintf("%s (and %d more)", errs[0], len(errs)-1)
		}
	}

	if len(results) == 0 && len(preview.Rows) > 0 {
		session.Status = models.StatusFailed
	} else {
		session.Status = models.StatusCompleted
	}
	if err := h.sessionRepo.Update(session); err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}
	h.setProgress(ctx, session.SessionCode, 100)

	// Uploaded files are no longer needed once the rows are stored and the
	// matched payslips moved to the document directory.
	folder := session.SessionCode
	if err := h.matcher.Cleanup(folder, session.ZipFilename); err != nil {
		h.log.WithField("session", session.SessionCode).Warnf("Cleanup failed: %v", err)
	}

	h.log.WithFields(logrus.Fields{
		"session":  session.SessionCode,
		"imported": session.ImportedRows,
		"failed":   session.FailedRows,
		"status":   session.Status,
	}).Info("Salary import finished")

	return nil
}

func (h *SalaryImportHandler) setProgress(ctx context.Context, sessionCode string, percent float64) {
	h.redis.Set(ctx, ProgressKey(sessionCode), fmt.Sprintf("%.2f", percent), 0)
}

func (h *SalaryImportHandler) failSession(session *models.ImportSession, message string) {
	session.Status = models.StatusFailed
	session.ErrorMessage = message
	if err := h.sessionRepo.Update(session); err != nil {
		h.log.WithField("session", session.SessionCode).Errorf("Failed to mark session failed: %v", err)
	}
}
