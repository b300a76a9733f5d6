package main

import (
	"flag"
	"log"

	"github.com/xuri/excelize/v2"
)

// Generates a sample salary import workbook for manual testing of the
// import screens.
func main() {
	out := flag.String("out", "sample_salaries.xlsx", "output file path")
	flag.Parse()

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)

	headers := []string{
		"Prénom", "Nom", "Date de paiement", "Montant", "Libellé",
		"Date de début", "Date de fin", "Type de paiement", "Payé", "Compte bancaire",
	}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			log.Fatalf("Failed to write header: %v", err)
		}
	}

	rows := [][]interface{}{
		{"Jean", "Dupont", "2024-01-31", "2500,00", "Salaire janvier 2024", "2024-01-01", "2024-01-31", "VIR", "oui", "BANK1"},
		{"Marie", "Durand", "2024-01-31", "2800,50", "Salaire janvier 2024", "2024-01-01", "2024-01-31", "VIR", "oui", "BANK1"},
		{"Jean-Pierre", "Martin", "2024-01-31", "3100", "Salaire janvier 2024", "2024-01-01", "2024-01-31", "CHQ", "non", "BANK2"},
		{"François", "Lefèvre", "2024-01-31", "0", "Régularisation janvier", "2024-01-01", "2024-01-31", "VIR", "non", "BANK1"},
	}
	for r, row := range rows {
		for c, value := range row {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				log.Fatalf("Failed to write row: %v", err)
			}
		}
	}

	if err := f.SaveAs(*out); err != nil {
		log.Fatalf("Failed to save workbook: %v", err)
	}
	log.Printf("Sample workbook written to %s", *out)
}
