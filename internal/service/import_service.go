package service

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"payroll-web/internal/models"
	"payroll-web/internal/utils"
)

// SalaryPersister writes a batch of enriched rows to the host database.
// The returned map is keyed like the input; the error list carries per-row
// failures that did not abort the batch.
type SalaryPersister interface {
	PersistAll(authorID int, rows map[int]models.EnrichedRow) (map[int]models.PersistResult, []string)
}

// PreviewResult is everything the preview step produced for one uploaded
// workbook: the rows that survived validation and enrichment, keyed by
// their 0-based spreadsheet index, plus every per-row error encountered.
type PreviewResult struct {
	Rows      map[int]models.EnrichedRow `json:"rows"`
	Headers   []string                   `json:"headers"`
	Errors    []string                   `json:"errors"`
	TotalRows int                        `json:"total_rows"`
}

// ImportService runs the salary import pipeline: parse, validate, enrich,
// match payslips, persist.
type ImportService struct {
	parser    *Parser
	validator *Validator
	enricher  *Enricher
	matcher   *PDFMatcher
	persister SalaryPersister
	log       *logrus.Logger
}

func NewImportService(parser *Parser, validator *Validator, enricher *Enricher, matcher *PDFMatcher, persister SalaryPersister) *ImportService {
	return &ImportService{
		parser:    parser,
		validator: validator,
		enricher:  enricher,
		matcher:   matcher,
		persister: persister,
		log:       utils.GetLogger(),
	}
}

func (s *ImportService) Matcher() *PDFMatcher {
	return s.matcher
}

// ProcessForPreview runs the read-only half of the pipeline on an uploaded
// workbook. File-level problems are fatal; row-level validation and
// enrichment failures drop the affected row and are reported alongside the
// surviving rows. pdfs may be empty when no payslip archive was uploaded.
func (s *ImportService) ProcessForPreview(xlsxPath string, pdfs []models.PDFCandidate) (*PreviewResult, error) {
	if err := s.parser.ParseFile(xlsxPath); err != nil {
		return nil, fmt.Errorf("failed to parse file: %w", err)
	}

	lines := s.parser.Lines()
	s.log.WithFields(logrus.Fields{
		"file":       xlsxPath,
		"total_rows": len(lines),
		"pdf_count":  len(pdfs),
	}).Info("Parsed salary import file")

	validated, errs := s.validator.ValidateAll(lines)
	enriched, enrichErrs := s.enricher.EnrichAll(validated)
	errs = append(errs, enrichErrs...)

	for _, index := range sortedIndices(enriched) {
		row := enriched[index]
		if path := s.matcher.FindPDFForUser(row.Firstname, row.Lastname, pdfs); path != "" {
			row.PDF = path
			row.PDFDisplay = "Document trouvé"
			enriched[index] = row
		}
	}

	if len(errs) > 0 {
		s.log.WithFields(logrus.Fields{
			"file":        xlsxPath,
			"error_count": len(errs),
		}).Warn("Salary import preview has row errors")
	}

	return &PreviewResult{
		Rows:      enriched,
		Headers:   s.parser.Headers(),
		Errors:    errs,
		TotalRows: len(lines),
	}, nil
}

// ExecuteImport persists a previously previewed batch on behalf of authorID.
func (s *ImportService) ExecuteImport(authorID int, rows map[int]models.EnrichedRow) (map[int]models.PersistResult, []string) {
	results, errs := s.persister.PersistAll(authorID, rows)

	s.log.WithFields(logrus.Fields{
		"author_id": authorID,
		"requested": len(rows),
		"imported":  len(results),
		"failed":    len(errs),
	}).Info("Salary import executed")

	return results, errs
}
