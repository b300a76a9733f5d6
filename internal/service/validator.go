package service

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"payroll-web/internal/models"
)

// excelEpochOffset is the number of days between the Excel/Lotus epoch's
// day 0 and 1970-01-01.
const excelEpochOffset = 25569

// dateLayouts are tried in order for cells that carry a textual date
// instead of an Excel serial number.
var dateLayouts = []string{
	"2006-01-02", // YYYY-MM-DD (ISO standard)
	"2006/01/02", // YYYY/MM/DD
	"02/01/2006", // DD/MM/YYYY (European format)
	"02-01-2006", // DD-MM-YYYY (European format)
	"01/02/2006", // MM/DD/YYYY (US format)
	"Jan 02, 2006",
	"02 Jan 2006",
}

// Validator turns raw spreadsheet rows into typed salary rows, enumerating
// every validation failure. It holds no state; errors are returned to the
// caller, never accumulated internally.
type Validator struct{}

func NewValidator() *Validator {
	return &Validator{}
}

// parseDateValue decodes a cell that is either an Excel serial day count or
// a textual date. Serial values are converted through the Unix epoch
// ((serial - 25569) * 86400) and interpreted in UTC; negative instants fail.
func (v *Validator) parseDateValue(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}

	if serial, err := strconv.ParseFloat(value, 64); err == nil {
		unix := int64((serial - excelEpochOffset) * 86400)
		if unix < 0 {
			return time.Time{}, false
		}
		return time.Unix(unix, 0).UTC(), true
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}

	return time.Time{}, false
}

// ParseExcelDate converts a date cell to YYYY-MM-DD.
func (v *Validator) ParseExcelDate(value string) (string, bool) {
	t, ok := v.parseDateValue(value)
	if !ok {
		return "", false
	}
	return t.Format("2006-01-02"), true
}

// FormatDateForDisplay converts a date cell to DD/MM/YYYY for the preview.
func (v *Validator) FormatDateForDisplay(value string) (string, bool) {
	t, ok := v.parseDateValue(value)
	if !ok {
		return "", false
	}
	return t.Format("02/01/2006"), true
}

// ParseAmount parses an amount cell. An explicit zero is valid and distinct
// from an empty cell. Comma decimal separators and space thousands
// separators (French locale) are accepted.
func (v *Validator) ParseAmount(value string) (float64, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}
	if value == "0" {
		return 0, true
	}

	value = strings.ReplaceAll(value, ",", ".")
	value = strings.ReplaceAll(value, " ", "")
	value = strings.ReplaceAll(value, " ", "")

	amount, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, false
	}
	return amount, true
}

// ParsePaid parses the paid flag: oui/yes/1 => 1, non/no/0 => 0.
func (v *Validator) ParsePaid(value string) (int, bool) {
	if value == "" {
		return 0, false
	}

	switch strings.ToLower(strings.TrimSpace(value)) {
	case "oui", "yes", "1":
		return 1, true
	case "non", "no", "0":
		return 0, true
	}
	return 0, false
}

// ValidateRow validates one raw row. Every field is checked independently
// so the returned error list covers all failures, not just the first;
// rowNum is the 1-based display row number embedded in each message. On any
// failure the returned row is the zero value, never partially populated.
func (v *Validator) ValidateRow(row models.ImportRow, rowNum int) (models.ValidatedRow, []string) {
	var validated models.ValidatedRow
	var errs []string

	firstname := strings.TrimSpace(row[models.ColFirstname])
	lastname := strings.TrimSpace(row[models.ColLastname])
	if firstname == "" || lastname == "" {
		errs = append(errs, fmt.Sprintf("row %d: first name or last name is empty", rowNum))
	} else {
		validated.Firstname = firstname
		validated.Lastname = lastname
	}

	if datep := row[models.ColPaymentDate]; strings.TrimSpace(datep) == "" {
		errs = append(errs, fmt.Sprintf("row %d: payment date is empty", rowNum))
	} else if parsed, ok := v.ParseExcelDate(datep); !ok {
		errs = append(errs, fmt.Sprintf("row %d: invalid payment date %q", rowNum, datep))
	} else {
		validated.DateP = parsed
		validated.DatePDisplay, _ = v.FormatDateForDisplay(datep)
	}

	if amount, ok := v.ParseAmount(row[models.ColAmount]); !ok {
		errs = append(errs, fmt.Sprintf("row %d: empty or invalid amount", rowNum))
	} else {
		validated.Amount = amount
	}

	if label := strings.TrimSpace(row[models.ColLabel]); label == "" {
		errs = append(errs, fmt.Sprintf("row %d: label is empty", rowNum))
	} else {
		validated.Label = label
	}

	if datesp := row[models.ColStartDate]; strings.TrimSpace(datesp) == "" {
		errs = append(errs, fmt.Sprintf("row %d: start date is empty", rowNum))
	} else if parsed, ok := v.ParseExcelDate(datesp); !ok {
		errs = append(errs, fmt.Sprintf("row %d: invalid start date %q", rowNum, datesp))
	} else {
		validated.DateSP = parsed
		validated.DateSPDisplay, _ = v.FormatDateForDisplay(datesp)
	}

	if dateep := row[models.ColEndDate]; strings.TrimSpace(dateep) == "" {
		errs = append(errs, fmt.Sprintf("row %d: end date is empty", rowNum))
	} else if parsed, ok := v.ParseExcelDate(dateep); !ok {
		errs = append(errs, fmt.Sprintf("row %d: invalid end date %q", rowNum, dateep))
	} else {
		validated.DateEP = parsed
		validated.DateEPDisplay, _ = v.FormatDateForDisplay(dateep)
	}

	// Payment type and bank account are stored as-is; resolving them
	// against the database happens at the enrichment stage.
	if code := strings.TrimSpace(row[models.ColPaymentType]); code == "" {
		errs = append(errs, fmt.Sprintf("row %d: payment type is empty", rowNum))
	} else {
		validated.PaymentTypeCode = code
	}

	if paid := row[models.ColPaid]; paid == "" {
		errs = append(errs, fmt.Sprintf("row %d: paid flag is empty", rowNum))
	} else if parsed, ok := v.ParsePaid(paid); !ok {
		errs = append(errs, fmt.Sprintf("row %d: invalid paid flag %q", rowNum, paid))
	} else {
		validated.Paid = parsed
	}

	if account := strings.TrimSpace(row[models.ColBankAccount]); account == "" {
		errs = append(errs, fmt.Sprintf("row %d: bank account is empty", rowNum))
	} else {
		validated.AccountRef = account
	}

	if len(errs) > 0 {
		return models.ValidatedRow{}, errs
	}
	return validated, nil
}

// ValidateAll validates every row, keeping only fully valid rows keyed by
// their original 0-based index so downstream stages can correlate back to
// the spreadsheet. The display row number is index+2 (header row plus
// 0-based indexing).
func (v *Validator) ValidateAll(rows []models.ImportRow) (map[int]models.ValidatedRow, []string) {
	validated := make(map[int]models.ValidatedRow)
	var errs []string

	for index, row := range rows {
		rowResult, rowErrs := v.ValidateRow(row, index+2)
		if len(rowErrs) > 0 {
			errs = append(errs, rowErrs...)
			continue
		}
		validated[index] = rowResult
	}

	return validated, errs
}

// sortedIndices returns the keys of an index-keyed row map in spreadsheet
// order, so batch passes stay deterministic.
func sortedIndices[T any](rows map[int]T) []int {
	indices := make([]int, 0, len(rows))
	for i := range rows {
		indices = append(indices, i)
	}
	sort.Ints(indices)
	return indices
}
