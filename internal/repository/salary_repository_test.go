package repository

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"payroll-web/internal/models"
)

func newMockSalaryRepo(t *testing.T, documentDir string, rollbackOnError bool) (*SalaryRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo := NewSalaryRepository(sqlx.NewDb(db, "sqlmock"), documentDir, rollbackOnError)
	return repo, mock
}

func salaryRow(pdf string) models.EnrichedRow {
	return models.EnrichedRow{
		ValidatedRow: models.ValidatedRow{
			Firstname:       "Jean",
			Lastname:        "Dupont",
			DateP:           "2024-01-31",
			Amount:          2500,
			Label:           "Salaire janvier",
			DateSP:          "2024-01-01",
			DateEP:          "2024-01-31",
			PaymentTypeCode: "VIR",
			Paid:            1,
			AccountRef:      "BANK1",
		},
		UserID:        11,
		UserName:      "Jean Dupont",
		PaymentTypeID: 2,
		AccountID:     5,
		PDF:           pdf,
	}
}

func expectCounterSeed(mock sqlmock.Sqlmock, maxSalary, maxPayment int64) {
	mock.ExpectQuery("FROM salary").
		WillReturnRows(sqlmock.NewRows([]string{"max"}).AddRow(maxSalary))
	mock.ExpectQuery("FROM payment_salary").
		WillReturnRows(sqlmock.NewRows([]string{"max"}).AddRow(maxPayment))
}

func expectRowInserts(mock sqlmock.Sqlmock, salaryID int64) {
	mock.ExpectExec("INSERT INTO salary").
		WillReturnResult(sqlmock.NewResult(salaryID, 1))
	mock.ExpectExec(`INSERT INTO bank \(`).
		WillReturnResult(sqlmock.NewResult(salaryID+1000, 1))
	mock.ExpectExec("INSERT INTO payment_salary").
		WillReturnResult(sqlmock.NewResult(salaryID+2000, 1))
	mock.ExpectExec("INSERT INTO bank_url").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO bank_url").
		WillReturnResult(sqlmock.NewResult(2, 1))
}

func TestPersistAllAttachesPayslipAfterCommit(t *testing.T) {
	documentDir := t.TempDir()
	repo, mock := newMockSalaryRepo(t, documentDir, false)

	pdfDir := t.TempDir()
	pdfPath := filepath.Join(pdfDir, "jean_dupont.pdf")
	require.NoError(t, os.WriteFile(pdfPath, []byte("pdf"), 0o644))

	expectCounterSeed(mock, 100, 200)
	mock.ExpectBegin()
	expectRowInserts(mock, 501)
	mock.ExpectCommit()
	// The document index write happens outside the row transaction.
	mock.ExpectExec("INSERT INTO document_index").
		WillReturnResult(sqlmock.NewResult(1, 1))

	results, errs := repo.PersistAll(9, map[int]models.EnrichedRow{0: salaryRow(pdfPath)})

	assert.Empty(t, errs)
	require.Len(t, results, 1)
	assert.Equal(t, "101", results[0].SalaryRef)
	assert.Equal(t, "201", results[0].PaymentRef)
	assert.FileExists(t, filepath.Join(documentDir, "salary", "501", "jean_dupont.pdf"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPersistAllKeepsRowWhenPayslipMoveFails(t *testing.T) {
	repo, mock := newMockSalaryRepo(t, t.TempDir(), false)

	expectCounterSeed(mock, 100, 200)
	mock.ExpectBegin()
	expectRowInserts(mock, 501)
	mock.ExpectCommit()
	// No document_index expectation: the move fails before the insert.

	row := salaryRow("/nowhere/jean_dupont.pdf")
	results, errs := repo.PersistAll(9, map[int]models.EnrichedRow{0: row})

	require.Len(t, results, 1, "a payslip failure must not undo the salary records")
	assert.Equal(t, "101", results[0].SalaryRef)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "row 2")
	assert.Contains(t, errs[0], "payslip")
	assert.Contains(t, errs[0], "salary row kept")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPersistAllBatchRollsBackOnInsertFailure(t *testing.T) {
	repo, mock := newMockSalaryRepo(t, t.TempDir(), true)

	expectCounterSeed(mock, 100, 200)
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO salary").
		WillReturnError(errors.New("duplicate entry"))
	mock.ExpectRollback()

	results, errs := repo.PersistAll(9, map[int]models.EnrichedRow{0: salaryRow("")})

	assert.Empty(t, results)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "batch rolled back")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPersistAllSeedsCountersOnce(t *testing.T) {
	repo, mock := newMockSalaryRepo(t, t.TempDir(), false)

	expectCounterSeed(mock, 100, 200)
	mock.ExpectBegin()
	expectRowInserts(mock, 501)
	mock.ExpectCommit()
	// Second call reuses the in-memory counters; no re-seed queries.
	mock.ExpectBegin()
	expectRowInserts(mock, 502)
	mock.ExpectCommit()

	first, errs := repo.PersistAll(9, map[int]models.EnrichedRow{0: salaryRow("")})
	require.Empty(t, errs)
	second, errs := repo.PersistAll(9, map[int]models.EnrichedRow{0: salaryRow("")})
	require.Empty(t, errs)

	assert.Equal(t, "101", first[0].SalaryRef)
	assert.Equal(t, "102", second[0].SalaryRef)
	assert.Equal(t, "201", first[0].PaymentRef)
	assert.Equal(t, "202", second[0].PaymentRef)
	assert.NoError(t, mock.ExpectationsWereMet())
}
