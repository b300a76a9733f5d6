package repository

import (
	"github.com/jmoiron/sqlx"

	"payroll-web/internal/models"
)

type ImportSessionRepository struct {
	db *sqlx.DB
}

func NewImportSessionRepository(db *sqlx.DB) *ImportSessionRepository {
	return &ImportSessionRepository{db: db}
}

func (r *ImportSessionRepository) Create(session *models.ImportSession) error {
	query := `INSERT INTO import_sessions (session_code, user_id, filename, file_path,
	          zip_filename, total_rows, valid_rows, imported_rows, failed_rows, status,
	          error_message, preview_json)
	          VALUES (:session_code, :user_id, :filename, :file_path, :zip_filename,
	          :total_rows, :valid_rows, :imported_rows, :failed_rows, :status,
	          :error_message, :preview_json)`
	result, err := r.db.NamedExec(query, session)
	if err != nil {
		return err
	}
	session.ID, _ = result.LastInsertId()
	return nil
}

func (r *ImportSessionRepository) GetByID(id int64) (*models.ImportSession, error) {
	var session models.ImportSession
	query := "SELECT * FROM import_sessions WHERE id = ? LIMIT 1"
	err := r.db.Get(&session, query, id)
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *ImportSessionRepository) GetByCode(code string) (*models.ImportSession, error) {
	var session models.ImportSession
	query := "SELECT * FROM import_sessions WHERE session_code = ? LIMIT 1"
	err := r.db.Get(&session, query, code)
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// List returns sessions newest first, without the preview payload.
func (r *ImportSessionRepository) List(limit, offset int) ([]models.ImportSession, int, error) {
	var sessions []models.ImportSession
	var total int

	if err := r.db.Get(&total, "SELECT COUNT(*) FROM import_sessions"); err != nil {
		return nil, 0, err
	}

	query := `SELECT id, session_code, user_id, filename, file_path, zip_filename,
	          total_rows, valid_rows, imported_rows, failed_rows, status, error_message,
	          created_at, updated_at
	          FROM import_sessions ORDER BY created_at DESC LIMIT ? OFFSET ?`
	if err := r.db.Select(&sessions, query, limit, offset); err != nil {
		return nil, 0, err
	}

	return sessions, total, nil
}

func (r *ImportSessionRepository) Update(session *models.ImportSession) error {
	query := `UPDATE import_sessions SET imported_rows = :imported_rows,
	          failed_rows = :failed_rows, status = :status, error_message = :error_message
	          WHERE id = :id`
	_, err := r.db.NamedExec(query, session)
	return err
}

func (r *ImportSessionRepository) UpdateStatus(id int64, status string) error {
	query := "UPDATE import_sessions SET status = ? WHERE id = ?"
	_, err := r.db.Exec(query, status, id)
	return err
}

func (r *ImportSessionRepository) Delete(id int64) error {
	query := "DELETE FROM import_sessions WHERE id = ?"
	_, err := r.db.Exec(query, id)
	return err
}
