package models

import "time"

// Canonical column keys of the salary import template. Spreadsheet headers
// (French or English) are mapped to these by the parser.
const (
	ColFirstname   = "Prénom"
	ColLastname    = "Nom"
	ColPaymentDate = "Date de paiement"
	ColAmount      = "Montant"
	ColLabel       = "Libellé"
	ColStartDate   = "Date de début"
	ColEndDate     = "Date de fin"
	ColPaymentType = "Type de paiement"
	ColPaid        = "Payé"
	ColBankAccount = "Compte bancaire"
)

// ImportRow is one raw spreadsheet row keyed by canonical column name.
// A missing key means the column had no header; an empty string means the
// cell itself was blank. Numeric cells (Excel serial dates, amounts) arrive
// as their raw string form.
type ImportRow map[string]string

// ValidatedRow is a fully typed salary row. It is never partially
// populated: either every required field validated or the row was dropped
// with at least one error.
type ValidatedRow struct {
	Firstname       string  `json:"firstname"`
	Lastname        string  `json:"lastname"`
	DateP           string  `json:"datep"`
	DatePDisplay    string  `json:"datep_display"`
	Amount          float64 `json:"amount"`
	Label           string  `json:"label"`
	DateSP          string  `json:"datesp"`
	DateSPDisplay   string  `json:"datesp_display"`
	DateEP          string  `json:"dateep"`
	DateEPDisplay   string  `json:"dateep_display"`
	PaymentTypeCode string  `json:"typepayment_code"`
	Paid            int     `json:"paye"`
	AccountRef      string  `json:"account_ref"`
}

// EnrichedRow is a validated row with host identifiers resolved and,
// optionally, a matched PDF payslip attached. An empty PDF path is a
// normal outcome, not an error.
type EnrichedRow struct {
	ValidatedRow
	UserID           int    `json:"user_id"`
	UserName         string `json:"user_name"`
	PaymentTypeID    int    `json:"typepayment"`
	PaymentTypeLabel string `json:"typepayment_label"`
	AccountID        int    `json:"account"`
	AccountLabel     string `json:"account_label"`
	PDF              string `json:"pdf"`
	PDFDisplay       string `json:"pdf_display"`
}

// PDFCandidate is one extracted payslip file. Links are the lowercase
// underscore-separated tokens of the filename without extension, built once
// per archive and read-only afterwards.
type PDFCandidate struct {
	Filename string   `json:"filename"`
	Path     string   `json:"path"`
	Links    []string `json:"links"`
}

type ImportSession struct {
	ID           int64     `db:"id" json:"id"`
	SessionCode  string    `db:"session_code" json:"session_code"`
	UserID       int       `db:"user_id" json:"user_id"`
	Filename     string    `db:"filename" json:"filename"`
	FilePath     string    `db:"file_path" json:"file_path"`
	ZipFilename  string    `db:"zip_filename" json:"zip_filename"`
	TotalRows    int       `db:"total_rows" json:"total_rows"`
	ValidRows    int       `db:"valid_rows" json:"valid_rows"`
	ImportedRows int       `db:"imported_rows" json:"imported_rows"`
	FailedRows   int       `db:"failed_rows" json:"failed_rows"`
	Status       string    `db:"status" json:"status"`
	ErrorMessage string    `db:"error_message" json:"error_message"`
	PreviewJSON  []byte    `db:"preview_json" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// Import session statuses.
const (
	StatusPreview    = "preview"
	StatusConfirmed  = "confirmed"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)
