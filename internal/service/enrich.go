package service

import (
	"fmt"

	"payroll-web/internal/models"
)

// EmployeeFinder resolves an employee by exact first and last name.
// A (nil, nil) return means no such employee; errors are reserved for
// lookup failures.
type EmployeeFinder interface {
	FindByName(firstname, lastname string) (*models.Employee, error)
}

// PaymentTypeFinder resolves a payment type by its code.
type PaymentTypeFinder interface {
	FindByCode(code string) (*models.PaymentType, error)
}

// BankAccountFinder resolves a bank account by reference or label.
type BankAccountFinder interface {
	FindByRefOrLabel(ref string) (*models.BankAccount, error)
}

// Enricher resolves validated rows against the host database. Lookups are
// memoized per instance, including not-found results, so a batch sharing
// the same payment type or account hits the database once per distinct key.
type Enricher struct {
	employees    EmployeeFinder
	paymentTypes PaymentTypeFinder
	accounts     BankAccountFinder

	employeeCache    map[string]*models.Employee
	paymentTypeCache map[string]*models.PaymentType
	accountCache     map[string]*models.BankAccount
}

func NewEnricher(employees EmployeeFinder, paymentTypes PaymentTypeFinder, accounts BankAccountFinder) *Enricher {
	return &Enricher{
		employees:        employees,
		paymentTypes:     paymentTypes,
		accounts:         accounts,
		employeeCache:    make(map[string]*models.Employee),
		paymentTypeCache: make(map[string]*models.PaymentType),
		accountCache:     make(map[string]*models.BankAccount),
	}
}

func (e *Enricher) lookupEmployee(firstname, lastname string) (*models.Employee, error) {
	key := firstname + "\x00" + lastname
	if cached, ok := e.employeeCache[key]; ok {
		return cached, nil
	}
	employee, err := e.employees.FindByName(firstname, lastname)
	if err != nil {
		return nil, err
	}
	e.employeeCache[key] = employee
	return employee, nil
}

func (e *Enricher) lookupPaymentType(code string) (*models.PaymentType, error) {
	if cached, ok := e.paymentTypeCache[code]; ok {
		return cached, nil
	}
	paymentType, err := e.paymentTypes.FindByCode(code)
	if err != nil {
		return nil, err
	}
	e.paymentTypeCache[code] = paymentType
	return paymentType, nil
}

func (e *Enricher) lookupAccount(ref string) (*models.BankAccount, error) {
	if cached, ok := e.accountCache[ref]; ok {
		return cached, nil
	}
	account, err := e.accounts.FindByRefOrLabel(ref)
	if err != nil {
		return nil, err
	}
	e.accountCache[ref] = account
	return account, nil
}

// EnrichRow resolves one validated row. All three lookups run even when an
// earlier one fails, so the error list names every unresolved reference;
// rowNum is the 1-based display row number.
func (e *Enricher) EnrichRow(row models.ValidatedRow, rowNum int) (models.EnrichedRow, []string) {
	enriched := models.EnrichedRow{ValidatedRow: row}
	var errs []string

	employee, err := e.lookupEmployee(row.Firstname, row.Lastname)
	if err != nil {
		errs = append(errs, fmt.Sprintf("row %d: employee lookup failed: %v", rowNum, err))
	} else if employee == nil {
		errs = append(errs, fmt.Sprintf("row %d: employee %s %s not found", rowNum, row.Firstname, row.Lastname))
	} else {
		enriched.UserID = employee.ID
		enriched.UserName = employee.Firstname + " " + employee.Lastname
	}

	paymentType, err := e.lookupPaymentType(row.PaymentTypeCode)
	if err != nil {
		errs = append(errs, fmt.Sprintf("row %d: payment type lookup failed: %v", rowNum, err))
	} else if paymentType == nil {
		errs = append(errs, fmt.Sprintf("row %d: payment type %q not found", rowNum, row.PaymentTypeCode))
	} else {
		enriched.PaymentTypeID = paymentType.ID
		enriched.PaymentTypeLabel = paymentType.Label
	}

	account, err := e.lookupAccount(row.AccountRef)
	if err != nil {
		errs = append(errs, fmt.Sprintf("row %d: bank account lookup failed: %v", rowNum, err))
	} else if account == nil {
		errs = append(errs, fmt.Sprintf("row %d: bank account %q not found", rowNum, row.AccountRef))
	} else {
		enriched.AccountID = account.ID
		enriched.AccountLabel = account.Label
	}

	if len(errs) > 0 {
		return models.EnrichedRow{}, errs
	}
	return enriched, nil
}

// EnrichAll resolves a batch of validated rows, keeping the original
// 0-based index keying. Rows are processed in spreadsheet order so the
// error list is stable across runs.
func (e *Enricher) EnrichAll(rows map[int]models.ValidatedRow) (map[int]models.EnrichedRow, []string) {
	enriched := make(map[int]models.EnrichedRow)
	var errs []string

	for _, index := range sortedIndices(rows) {
		row, rowErrs := e.EnrichRow(rows[index], index+2)
		if len(rowErrs) > 0 {
			errs = append(errs, rowErrs...)
			continue
		}
		enriched[index] = row
	}

	return enriched, errs
}
