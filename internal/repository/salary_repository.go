package repository

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	"payroll-web/internal/models"
	"payroll-web/internal/utils"
)

// SalaryRepository persists enriched salary rows into the host ERP tables:
// salary, bank, bank_url, payment_salary and document_index. References are
// numeric strings allocated from an in-memory counter seeded from the
// stored maximum; a mutex serializes batches so worker tasks running in
// parallel cannot hand out duplicate refs.
type SalaryRepository struct {
	db              *sqlx.DB
	documentDir     string
	rollbackOnError bool
	log             *logrus.Logger

	mu         sync.Mutex
	salaryRef  int64
	paymentRef int64
	seeded     bool
}

func NewSalaryRepository(db *sqlx.DB, documentDir string, rollbackOnError bool) *SalaryRepository {
	return &SalaryRepository{
		db:              db,
		documentDir:     documentDir,
		rollbackOnError: rollbackOnError,
		log:             utils.GetLogger(),
	}
}

// initCounters seeds the salary and payment reference counters from the
// highest stored refs. Refs are stored as strings; non-numeric ones are
// ignored by the CAST.
func (r *SalaryRepository) initCounters() error {
	if r.seeded {
		return nil
	}

	var maxSalary, maxPayment int64
	if err := r.db.Get(&maxSalary, "SELECT COALESCE(MAX(CAST(ref AS UNSIGNED)), 0) FROM salary"); err != nil {
		return fmt.Errorf("failed to read salary ref counter: %w", err)
	}
	if err := r.db.Get(&maxPayment, "SELECT COALESCE(MAX(CAST(ref AS UNSIGNED)), 0) FROM payment_salary"); err != nil {
		return fmt.Errorf("failed to read payment ref counter: %w", err)
	}

	r.salaryRef = maxSalary
	r.paymentRef = maxPayment
	r.seeded = true
	return nil
}

func (r *SalaryRepository) nextSalaryRef() string {
	r.salaryRef++
	return strconv.FormatInt(r.salaryRef, 10)
}

func (r *SalaryRepository) nextPaymentRef() string {
	r.paymentRef++
	return strconv.FormatInt(r.paymentRef, 10)
}

// persistRow writes one salary row inside tx. Write order: salary record,
// bank transaction, salary payment, then the bank URL links. The first
// failed write aborts the rest. The payslip document is attached separately
// after the transaction commits.
func (r *SalaryRepository) persistRow(tx *sqlx.Tx, authorID int, row models.EnrichedRow) (models.PersistResult, error) {
	var result models.PersistResult
	now := time.Now()

	result.SalaryRef = r.nextSalaryRef()
	salaryRes, err := tx.Exec(`
		INSERT INTO salary (ref, fk_user, fk_author, label, amount, datep, datesp, dateep,
		                    fk_typepayment, fk_account, paye, datec)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		result.SalaryRef, row.UserID, authorID, row.Label, row.Amount,
		row.DateP, row.DateSP, row.DateEP,
		row.PaymentTypeID, row.AccountID, row.Paid, now)
	if err != nil {
		return result, fmt.Errorf("salary insert failed: %w", err)
	}
	result.SalaryID, _ = salaryRes.LastInsertId()

	// The bank side of the payment is a debit, so the amount is negated.
	bankRes, err := tx.Exec(`
		INSERT INTO bank (fk_account, amount, label, dateo, datev, datec, fk_author)
		VALUES (?, ?, '(SalaryPayment)', ?, ?, ?, ?)`,
		row.AccountID, -row.Amount, row.DateP, row.DateP, now, authorID)
	if err != nil {
		return result, fmt.Errorf("bank transaction insert failed: %w", err)
	}
	result.BankID, _ = bankRes.LastInsertId()

	result.PaymentRef = r.nextPaymentRef()
	paymentRes, err := tx.Exec(`
		INSERT INTO payment_salary (ref, fk_salary, fk_bank, fk_typepayment, fk_user,
		                            amount, datep, datec, fk_author)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		result.PaymentRef, result.SalaryID, result.BankID, row.PaymentTypeID, row.UserID,
		row.Amount, row.DateP, now, authorID)
	if err != nil {
		return result, fmt.Errorf("salary payment insert failed: %w", err)
	}
	result.PaymentID, _ = paymentRes.LastInsertId()

	// Bank URL links tie the bank line back to the payment and to the
	// employee, mirroring what the ERP does on a manual salary entry.
	if _, err := tx.Exec(`
		INSERT INTO bank_url (fk_bank, url_id, type, label)
		VALUES (?, ?, 'payment_salary', '(payment)')`,
		result.BankID, result.PaymentID); err != nil {
		return result, fmt.Errorf("bank payment link insert failed: %w", err)
	}
	if _, err := tx.Exec(`
		INSERT INTO bank_url (fk_bank, url_id, type, label)
		VALUES (?, ?, 'user', ?)`,
		result.BankID, row.UserID, row.UserName); err != nil {
		return result, fmt.Errorf("bank user link insert failed: %w", err)
	}

	return result, nil
}

// attachDocument moves a matched payslip into the salary document directory
// and records it in the document index. It runs only after the row's
// transaction committed: a document failure must never undo the salary
// records, so the caller records the error and keeps the row.
func (r *SalaryRepository) attachDocument(salaryID int64, pdfPath string) error {
	destDir := filepath.Join(r.documentDir, "salary", strconv.FormatInt(salaryID, 10))
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return fmt.Errorf("failed to create document directory: %w", err)
	}

	filename := filepath.Base(pdfPath)
	destPath := filepath.Join(destDir, filename)
	if err := os.Rename(pdfPath, destPath); err != nil {
		return fmt.Errorf("failed to move payslip %s: %w", filename, err)
	}

	if _, err := r.db.Exec(`
		INSERT INTO document_index (filename, filepath, entity, entity_id, datec)
		VALUES (?, ?, 'salary', ?, ?)`,
		filename, destPath, salaryID, time.Now()); err != nil {
		return fmt.Errorf("document index insert failed: %w", err)
	}

	return nil
}

// attachRowDocument wraps attachDocument for one committed row. The error
// string carries the display row number; the row itself stays persisted.
func (r *SalaryRepository) attachRowDocument(index int, result models.PersistResult, row models.EnrichedRow) string {
	if row.PDF == "" {
		return ""
	}
	if err := r.attachDocument(result.SalaryID, row.PDF); err != nil {
		r.log.WithFields(logrus.Fields{
			"row":       index + 2,
			"salary_id": result.SalaryID,
			"error":     err.Error(),
		}).Warn("Payslip attachment failed, salary row kept")
		return fmt.Sprintf("row %d: %v (salary row kept)", index+2, err)
	}
	return ""
}

// PersistAll writes a batch of enriched rows on behalf of authorID.
//
// With rollbackOnError false each row runs in its own transaction and a
// failed row is skipped; with rollbackOnError true the whole batch shares
// one transaction and the first failure rolls everything back. Results are
// keyed like the input; errors carry the 1-based display row number.
//
// Payslip documents are attached after each row commits. An attachment
// failure is recorded in the error list but the row stays persisted.
func (r *SalaryRepository) PersistAll(authorID int, rows map[int]models.EnrichedRow) (map[int]models.PersistResult, []string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.initCounters(); err != nil {
		return nil, []string{err.Error()}
	}

	if r.rollbackOnError {
		return r.persistBatch(authorID, rows)
	}
	return r.persistPerRow(authorID, rows)
}

func (r *SalaryRepository) persistPerRow(authorID int, rows map[int]models.EnrichedRow) (map[int]models.PersistResult, []string) {
	results := make(map[int]models.PersistResult)
	var errs []string

	for _, index := range sortedRowIndices(rows) {
		tx, err := r.db.Beginx()
		if err != nil {
			errs = append(errs, fmt.Sprintf("row %d: failed to start transaction: %v", index+2, err))
			continue
		}

		result, err := r.persistRow(tx, authorID, rows[index])
		if err != nil {
			tx.Rollback()
			errs = append(errs, fmt.Sprintf("row %d: %v", index+2, err))
			continue
		}

		if err := tx.Commit(); err != nil {
			errs = append(errs, fmt.Sprintf("row %d: commit failed: %v", index+2, err))
			continue
		}
		results[index] = result

		if msg := r.attachRowDocument(index, result, rows[index]); msg != "" {
			errs = append(errs, msg)
		}
	}

	return results, errs
}

func (r *SalaryRepository) persistBatch(authorID int, rows map[int]models.EnrichedRow) (map[int]models.PersistResult, []string) {
	tx, err := r.db.Beginx()
	if err != nil {
		return nil, []string{fmt.Sprintf("failed to start transaction: %v", err)}
	}

	results := make(map[int]models.PersistResult)
	for _, index := range sortedRowIndices(rows) {
		result, err := r.persistRow(tx, authorID, rows[index])
		if err != nil {
			tx.Rollback()
			// Refs handed out inside the rolled-back transaction were
			// never stored; reseed on the next batch.
			r.seeded = false
			r.log.WithFields(logrus.Fields{
				"row":   index + 2,
				"error": err.Error(),
			}).Error("Salary import batch rolled back")
			return nil, []string{fmt.Sprintf("row %d: %v (batch rolled back)", index+2, err)}
		}
		results[index] = result
	}

	if err := tx.Commit(); err != nil {
		return nil, []string{fmt.Sprintf("commit failed: %v", err)}
	}

	var errs []string
	for _, index := range sortedRowIndices(rows) {
		if msg := r.attachRowDocument(index, results[index], rows[index]); msg != "" {
			errs = append(errs, msg)
		}
	}
	return results, errs
}

func sortedRowIndices[T any](rows map[int]T) []int {
	indices := make([]int, 0, len(rows))
	for i := range rows {
		indices = append(indices, i)
	}
	sort.Ints(indices)
	return indices
}
