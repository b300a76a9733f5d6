package service

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"payroll-web/internal/models"
)

type fakeEmployeeFinder struct {
	employees map[string]*models.Employee
	calls     int
	err       error
}

func (f *fakeEmployeeFinder) FindByName(firstname, lastname string) (*models.Employee, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.employees[firstname+" "+lastname], nil
}

type fakePaymentTypeFinder struct {
	types map[string]*models.PaymentType
	calls int
}

func (f *fakePaymentTypeFinder) FindByCode(code string) (*models.PaymentType, error) {
	f.calls++
	return f.types[code], nil
}

type fakeBankAccountFinder struct {
	accounts map[string]*models.BankAccount
	calls    int
}

func (f *fakeBankAccountFinder) FindByRefOrLabel(ref string) (*models.BankAccount, error) {
	f.calls++
	return f.accounts[ref], nil
}

func testFinders() (*fakeEmployeeFinder, *fakePaymentTypeFinder, *fakeBankAccountFinder) {
	return &fakeEmployeeFinder{employees: map[string]*models.Employee{
			"Jean Dupont":  {ID: 11, Firstname: "Jean", Lastname: "Dupont"},
			"Marie Durand": {ID: 12, Firstname: "Marie", Lastname: "Durand"},
		}},
		&fakePaymentTypeFinder{types: map[string]*models.PaymentType{
			"VIR": {ID: 2, Code: "VIR", Label: "Virement"},
		}},
		&fakeBankAccountFinder{accounts: map[string]*models.BankAccount{
			"BANK1": {ID: 5, Ref: "BANK1", Label: "Compte courant"},
		}}
}

func testValidatedRow() models.ValidatedRow {
	return models.ValidatedRow{
		Firstname:       "Jean",
		Lastname:        "Dupont",
		DateP:           "2024-01-31",
		Amount:          2500,
		Label:           "Salaire",
		PaymentTypeCode: "VIR",
		Paid:            1,
		AccountRef:      "BANK1",
	}
}

func TestEnrichRow(t *testing.T) {
	employees, types, accounts := testFinders()
	e := NewEnricher(employees, types, accounts)

	row, errs := e.EnrichRow(testValidatedRow(), 2)
	require.Empty(t, errs)
	assert.Equal(t, 11, row.UserID)
	assert.Equal(t, "Jean Dupont", row.UserName)
	assert.Equal(t, 2, row.PaymentTypeID)
	assert.Equal(t, "Virement", row.PaymentTypeLabel)
	assert.Equal(t, 5, row.AccountID)
	assert.Equal(t, "Compte courant", row.AccountLabel)
}

func TestEnrichRowReportsEveryMiss(t *testing.T) {
	employees, types, accounts := testFinders()
	e := NewEnricher(employees, types, accounts)

	raw := testValidatedRow()
	raw.Firstname = "Inconnu"
	raw.PaymentTypeCode = "XXX"
	raw.AccountRef = "NOPE"

	row, errs := e.EnrichRow(raw, 4)
	assert.Len(t, errs, 3)
	for _, err := range errs {
		assert.Contains(t, err, "row 4")
	}
	assert.Equal(t, models.EnrichedRow{}, row)
}

func TestEnrichRowLookupError(t *testing.T) {
	employees, types, accounts := testFinders()
	employees.err = errors.New("connection lost")
	e := NewEnricher(employees, types, accounts)

	_, errs := e.EnrichRow(testValidatedRow(), 2)
	require.NotEmpty(t, errs)
	assert.Contains(t, errs[0], "connection lost")
}

func TestEnricherCachesLookups(t *testing.T) {
	employees, types, accounts := testFinders()
	e := NewEnricher(employees, types, accounts)

	rows := map[int]models.ValidatedRow{}
	for i := 0; i < 5; i++ {
		rows[i] = testValidatedRow()
	}

	enriched, errs := e.EnrichAll(rows)
	require.Empty(t, errs)
	assert.Len(t, enriched, 5)

	assert.Equal(t, 1, employees.calls)
	assert.Equal(t, 1, types.calls)
	assert.Equal(t, 1, accounts.calls)
}

func TestEnricherCachesNotFound(t *testing.T) {
	employees, types, accounts := testFinders()
	e := NewEnricher(employees, types, accounts)

	raw := testValidatedRow()
	raw.Firstname = "Inconnu"
	rows := map[int]models.ValidatedRow{0: raw, 1: raw}

	_, errs := e.EnrichAll(rows)
	assert.Len(t, errs, 2)
	assert.Equal(t, 1, employees.calls, "not-found lookups must be cached too")
}

func TestEnrichAllKeepsIndexesAndOrder(t *testing.T) {
	employees, types, accounts := testFinders()
	e := NewEnricher(employees, types, accounts)

	missing := testValidatedRow()
	missing.Firstname = "Inconnu"

	marie := testValidatedRow()
	marie.Firstname = "Marie"
	marie.Lastname = "Durand"

	rows := map[int]models.ValidatedRow{
		0: testValidatedRow(),
		3: missing,
		7: marie,
	}

	enriched, errs := e.EnrichAll(rows)
	assert.Contains(t, enriched, 0)
	assert.Contains(t, enriched, 7)
	assert.NotContains(t, enriched, 3)

	// Index 3 is spreadsheet row 5.
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "row 5")
}
