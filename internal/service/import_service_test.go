package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"payroll-web/internal/models"
)

type fakePersister struct {
	authorID int
	rows     map[int]models.EnrichedRow
	errs     []string
}

func (f *fakePersister) PersistAll(authorID int, rows map[int]models.EnrichedRow) (map[int]models.PersistResult, []string) {
	f.authorID = authorID
	f.rows = rows

	results := make(map[int]models.PersistResult)
	for index := range rows {
		results[index] = models.PersistResult{SalaryID: int64(100 + index)}
	}
	return results, f.errs
}

func newTestImportService(t *testing.T) (*ImportService, *fakePersister) {
	t.Helper()
	employees, types, accounts := testFinders()
	persister := &fakePersister{}
	svc := NewImportService(
		NewParser(),
		NewValidator(),
		NewEnricher(employees, types, accounts),
		NewPDFMatcher(t.TempDir()),
		persister,
	)
	return svc, persister
}

func importHeaders() []interface{} {
	return []interface{}{
		"Prénom", "Nom", "Date de paiement", "Montant", "Libellé",
		"Date de début", "Date de fin", "Type de paiement", "Payé", "Compte bancaire",
	}
}

func importRow(firstname, lastname string) []interface{} {
	return []interface{}{
		firstname, lastname, "2024-01-31", "2500,00", "Salaire janvier",
		"2024-01-01", "2024-01-31", "VIR", "oui", "BANK1",
	}
}

func TestProcessForPreview(t *testing.T) {
	svc, _ := newTestImportService(t)

	path := writeWorkbook(t, [][]interface{}{
		importHeaders(),
		importRow("Jean", "Dupont"),
		importRow("Marie", "Durand"),
	})

	pdfs := []models.PDFCandidate{
		candidate("jean_dupont.pdf", "jean", "dupont"),
	}

	preview, err := svc.ProcessForPreview(path, pdfs)
	require.NoError(t, err)
	assert.Equal(t, 2, preview.TotalRows)
	assert.Empty(t, preview.Errors)
	require.Len(t, preview.Rows, 2)

	jean := preview.Rows[0]
	assert.Equal(t, 11, jean.UserID)
	assert.Equal(t, "/pdfs/jean_dupont.pdf", jean.PDF)
	assert.Equal(t, "Document trouvé", jean.PDFDisplay)

	marie := preview.Rows[1]
	assert.Equal(t, 12, marie.UserID)
	assert.Empty(t, marie.PDF, "unmatched payslip is a normal outcome")
	assert.Empty(t, marie.PDFDisplay)
}

func TestProcessForPreviewContinuesPastRowErrors(t *testing.T) {
	svc, _ := newTestImportService(t)

	badAmount := importRow("Marie", "Durand")
	badAmount[3] = ""
	unknownEmployee := importRow("Inconnu", "Personne")

	path := writeWorkbook(t, [][]interface{}{
		importHeaders(),
		importRow("Jean", "Dupont"),
		badAmount,
		unknownEmployee,
	})

	preview, err := svc.ProcessForPreview(path, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, preview.TotalRows)
	require.Len(t, preview.Rows, 1)
	assert.Contains(t, preview.Rows, 0)

	// Row 3 fails validation, row 4 fails enrichment.
	require.Len(t, preview.Errors, 2)
	assert.Contains(t, preview.Errors[0], "row 3")
	assert.Contains(t, preview.Errors[1], "row 4")
}

func TestProcessForPreviewFileErrorIsFatal(t *testing.T) {
	svc, _ := newTestImportService(t)

	_, err := svc.ProcessForPreview("salaries.csv", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse file")
}

func TestExecuteImport(t *testing.T) {
	svc, persister := newTestImportService(t)

	rows := map[int]models.EnrichedRow{
		0: {UserID: 11},
		2: {UserID: 12},
	}

	results, errs := svc.ExecuteImport(42, rows)
	assert.Empty(t, errs)
	assert.Len(t, results, 2)
	assert.Equal(t, 42, persister.authorID)
	assert.Equal(t, rows, persister.rows)
}
