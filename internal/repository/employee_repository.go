package repository

import (
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"payroll-web/internal/models"
)

type EmployeeRepository struct {
	db *sqlx.DB
}

func NewEmployeeRepository(db *sqlx.DB) *EmployeeRepository {
	return &EmployeeRepository{db: db}
}

// FindByName looks up an employee by exact first and last name. Returns
// (nil, nil) when no employee matches.
func (r *EmployeeRepository) FindByName(firstname, lastname string) (*models.Employee, error) {
	var employee models.Employee
	query := "SELECT id, firstname, lastname FROM users WHERE firstname = ? AND lastname = ? LIMIT 1"
	err := r.db.Get(&employee, query, firstname, lastname)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &employee, nil
}

func (r *EmployeeRepository) FindByID(id int) (*models.Employee, error) {
	var employee models.Employee
	query := "SELECT id, firstname, lastname FROM users WHERE id = ? LIMIT 1"
	err := r.db.Get(&employee, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &employee, nil
}
