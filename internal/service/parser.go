package service

import (
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"

	"payroll-web/internal/models"
)

// columnMapping maps lowercased spreadsheet headers (French and English)
// to the canonical column keys. Unrecognized headers pass through unchanged.
var columnMapping = map[string]string{
	// French
	"prénom":           models.ColFirstname,
	"nom":              models.ColLastname,
	"date de paiement": models.ColPaymentDate,
	"montant":          models.ColAmount,
	"libellé":          models.ColLabel,
	"date de début":    models.ColStartDate,
	"date de fin":      models.ColEndDate,
	"type de paiement": models.ColPaymentType,
	"payé":             models.ColPaid,
	"compte bancaire":  models.ColBankAccount,
	// English
	"first name":   models.ColFirstname,
	"firstname":    models.ColFirstname,
	"last name":    models.ColLastname,
	"lastname":     models.ColLastname,
	"payment date": models.ColPaymentDate,
	"amount":       models.ColAmount,
	"label":        models.ColLabel,
	"start date":   models.ColStartDate,
	"end date":     models.ColEndDate,
	"payment type": models.ColPaymentType,
	"paid":         models.ColPaid,
	"bank account": models.ColBankAccount,
}

// Parser reads a salary import workbook into raw rows keyed by canonical
// column name. Cell values are kept raw, so Excel serial dates and amounts
// arrive as their underlying string form.
type Parser struct {
	headers  []string // header per column index, "" for unkeyed columns
	lines    []models.ImportRow
	filePath string
}

func NewParser() *Parser {
	return &Parser{}
}

func normalizeHeader(header string) string {
	normalized := strings.ToLower(strings.TrimSpace(header))
	if key, ok := columnMapping[normalized]; ok {
		return key
	}
	return header
}

// FixEncoding repairs double-encoded UTF-8 ("Ã©" instead of "é"). The value
// is rewritten only when re-reading its code points as Latin-1 bytes yields
// different, valid UTF-8; anything else is returned untouched. Best effort:
// it targets exactly that mis-encoding pattern.
func FixEncoding(value string) string {
	latin, err := charmap.ISO8859_1.NewEncoder().String(value)
	if err != nil || latin == value {
		return value
	}
	if utf8.ValidString(latin) {
		return latin
	}
	return value
}

// ParseFile loads the first sheet of an XLSX file. Format problems (wrong
// extension, unreadable file, no data rows) are fatal and abort the import
// step with no partial processing.
func (p *Parser) ParseFile(filePath string) error {
	p.headers = nil
	p.lines = nil
	p.filePath = filePath

	if ext := strings.ToLower(filepath.Ext(filePath)); ext != ".xlsx" {
		return fmt.Errorf("file must be in XLSX format, got: %s", ext)
	}

	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to open XLSX file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return fmt.Errorf("no sheets found in XLSX file")
	}

	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return fmt.Errorf("failed to read rows: %w", err)
	}
	if len(rows) < 2 {
		return fmt.Errorf("file must contain at least header row and one data row")
	}

	// Headers from row 1; columns with an empty header stay unkeyed and
	// their cells are ignored below.
	for _, header := range rows[0] {
		header = FixEncoding(header)
		if strings.TrimSpace(header) == "" {
			p.headers = append(p.headers, "")
			continue
		}
		p.headers = append(p.headers, normalizeHeader(header))
	}

	for i := 1; i < len(rows); i++ {
		line := models.ImportRow{}
		hasData := false

		for col, header := range p.headers {
			if header == "" {
				continue
			}
			value := ""
			if col < len(rows[i]) {
				value = FixEncoding(rows[i][col])
			}
			line[header] = value
			if value != "" {
				hasData = true
			}
		}

		if hasData {
			p.lines = append(p.lines, line)
		}
	}

	if len(p.lines) == 0 {
		return fmt.Errorf("no data rows found in file")
	}

	return nil
}

// Headers returns the keyed headers in column order.
func (p *Parser) Headers() []string {
	var headers []string
	for _, h := range p.headers {
		if h != "" {
			headers = append(headers, h)
		}
	}
	return headers
}

func (p *Parser) Lines() []models.ImportRow {
	return p.lines
}

func (p *Parser) RowCount() int {
	return len(p.lines)
}

func (p *Parser) FilePath() string {
	return p.filePath
}
