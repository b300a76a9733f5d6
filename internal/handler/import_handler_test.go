package handler

import (
	"bytes"
	"mime/multipart"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"payroll-web/internal/config"
	"payroll-web/internal/repository"
	"payroll-web/internal/service"
)

func newUploadTestApp(t *testing.T) (*fiber.App, *config.Config) {
	t.Helper()

	cfg := &config.Config{
		ImportWorkDir: t.TempDir(),
		DocumentDir:   t.TempDir(),
		UploadMaxSize: 10 << 20,
	}

	importService := service.NewImportService(
		service.NewParser(),
		service.NewValidator(),
		service.NewEnricher(nil, nil, nil),
		service.NewPDFMatcher(cfg.ImportWorkDir),
		nil,
	)
	h := NewImportHandler(repository.NewImportSessionRepository(nil), importService, nil, nil, cfg)

	app := fiber.New()
	app.Post("/imports", func(c *fiber.Ctx) error {
		c.Locals("user_id", 1)
		return h.Upload(c)
	})
	return app, cfg
}

type uploadFile struct {
	field, name string
	content     []byte
}

func postUpload(t *testing.T, app *fiber.App, files ...uploadFile) int {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for _, f := range files {
		part, err := writer.CreateFormFile(f.field, f.name)
		require.NoError(t, err)
		_, err = part.Write(f.content)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest("POST", "/imports", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp.StatusCode
}

func validWorkbookBytes(t *testing.T) []byte {
	t.Helper()

	f := excelize.NewFile()
	headers := []interface{}{
		"Prénom", "Nom", "Date de paiement", "Montant", "Libellé",
		"Date de début", "Date de fin", "Type de paiement", "Payé", "Compte bancaire",
	}
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &headers))

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func workDirEntries(t *testing.T, cfg *config.Config) []os.DirEntry {
	t.Helper()
	entries, err := os.ReadDir(cfg.ImportWorkDir)
	require.NoError(t, err)
	return entries
}

func TestUploadRemovesWorkbookWhenPreviewFails(t *testing.T) {
	app, cfg := newUploadTestApp(t)

	status := postUpload(t, app, uploadFile{"file", "salaries.xlsx", []byte("not a workbook")})

	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Empty(t, workDirEntries(t, cfg), "a failed upload must not leave files behind")
}

func TestUploadRemovesFilesWhenArchiveIsInvalid(t *testing.T) {
	app, cfg := newUploadTestApp(t)

	status := postUpload(t, app,
		uploadFile{"file", "salaries.xlsx", validWorkbookBytes(t)},
		uploadFile{"pdfs", "payslips.zip", []byte("not a zip")},
	)

	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Empty(t, workDirEntries(t, cfg), "the saved workbook and archive must both be removed")
}

func TestUploadRejectsNonXlsx(t *testing.T) {
	app, cfg := newUploadTestApp(t)

	status := postUpload(t, app, uploadFile{"file", "salaries.csv", []byte("a;b")})

	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Empty(t, workDirEntries(t, cfg))
}
