package service

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"payroll-web/internal/models"
)

func validRow() models.ImportRow {
	return models.ImportRow{
		models.ColFirstname:   "Jean",
		models.ColLastname:    "Dupont",
		models.ColPaymentDate: "45322",
		models.ColAmount:      "2500,00",
		models.ColLabel:       "Salaire janvier 2024",
		models.ColStartDate:   "45292",
		models.ColEndDate:     "45322",
		models.ColPaymentType: "VIR",
		models.ColPaid:        "oui",
		models.ColBankAccount: "BANK1",
	}
}

func TestParseExcelDate(t *testing.T) {
	v := NewValidator()

	tests := []struct {
		input    string
		expected string
		ok       bool
	}{
		{"44197", "2021-01-01", true},
		{"45292", "2024-01-01", true},
		{"25569", "1970-01-01", true},
		{"2024-01-15", "2024-01-15", true},
		{"15/01/2024", "2024-01-15", true},
		{"25568", "", false}, // before the Unix epoch
		{"", "", false},
		{"not a date", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := v.ParseExcelDate(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestFormatDateForDisplay(t *testing.T) {
	v := NewValidator()

	got, ok := v.FormatDateForDisplay("45292")
	require.True(t, ok)
	assert.Equal(t, "01/01/2024", got)

	got, ok = v.FormatDateForDisplay("2024-01-15")
	require.True(t, ok)
	assert.Equal(t, "15/01/2024", got)

	_, ok = v.FormatDateForDisplay("")
	assert.False(t, ok)
}

func TestParseAmount(t *testing.T) {
	v := NewValidator()

	tests := []struct {
		input    string
		expected float64
		ok       bool
	}{
		{"1500,50", 1500.50, true},
		{"1 500,50", 1500.50, true},
		{"1500.50", 1500.50, true},
		{"0", 0, true},
		{"-120,40", -120.40, true},
		{"", 0, false},
		{"abc", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := v.ParseAmount(tt.input)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.InDelta(t, tt.expected, got, 1e-9)
			}
		})
	}
}

func TestParsePaid(t *testing.T) {
	v := NewValidator()

	tests := []struct {
		input    string
		expected int
		ok       bool
	}{
		{"oui", 1, true},
		{"OUI", 1, true},
		{"yes", 1, true},
		{"1", 1, true},
		{"non", 0, true},
		{"No", 0, true},
		{"0", 0, true},
		{" oui ", 1, true},
		{"maybe", 0, false},
		{"", 0, false},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%q", tt.input), func(t *testing.T) {
			got, ok := v.ParsePaid(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestValidateRow(t *testing.T) {
	v := NewValidator()

	t.Run("valid row", func(t *testing.T) {
		row, errs := v.ValidateRow(validRow(), 2)
		require.Empty(t, errs)
		assert.Equal(t, "Jean", row.Firstname)
		assert.Equal(t, "Dupont", row.Lastname)
		assert.Equal(t, "2024-01-31", row.DateP)
		assert.Equal(t, "31/01/2024", row.DatePDisplay)
		assert.InDelta(t, 2500.0, row.Amount, 1e-9)
		assert.Equal(t, "2024-01-01", row.DateSP)
		assert.Equal(t, "VIR", row.PaymentTypeCode)
		assert.Equal(t, 1, row.Paid)
		assert.Equal(t, "BANK1", row.AccountRef)
	})

	t.Run("zero amount is valid", func(t *testing.T) {
		raw := validRow()
		raw[models.ColAmount] = "0"
		row, errs := v.ValidateRow(raw, 2)
		require.Empty(t, errs)
		assert.Zero(t, row.Amount)
	})

	t.Run("all failures reported", func(t *testing.T) {
		raw := validRow()
		raw[models.ColFirstname] = ""
		raw[models.ColAmount] = ""
		raw[models.ColPaid] = "maybe"
		row, errs := v.ValidateRow(raw, 5)
		assert.Len(t, errs, 3)
		for _, err := range errs {
			assert.Contains(t, err, "row 5")
		}
		assert.Equal(t, models.ValidatedRow{}, row, "failed row must be the zero value")
	})

	t.Run("invalid date message names the value", func(t *testing.T) {
		raw := validRow()
		raw[models.ColPaymentDate] = "pas une date"
		_, errs := v.ValidateRow(raw, 3)
		require.Len(t, errs, 1)
		assert.Contains(t, errs[0], "pas une date")
	})
}

func TestValidateAll(t *testing.T) {
	v := NewValidator()

	bad := validRow()
	bad[models.ColLabel] = ""

	rows := []models.ImportRow{validRow(), bad, validRow()}
	validated, errs := v.ValidateAll(rows)

	require.Len(t, validated, 2)
	assert.Contains(t, validated, 0)
	assert.Contains(t, validated, 2)
	assert.NotContains(t, validated, 1)

	// Index 1 maps to spreadsheet row 3 (header plus 1-based rows).
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "row 3")
}
