package models

// Employee is a payroll beneficiary in the host ERP user table.
type Employee struct {
	ID        int    `db:"id" json:"id"`
	Firstname string `db:"firstname" json:"firstname"`
	Lastname  string `db:"lastname" json:"lastname"`
}

// PaymentType is a dictionary entry (e.g. VIR for wire transfer, CHQ for cheque).
type PaymentType struct {
	ID    int    `db:"id" json:"id"`
	Code  string `db:"code" json:"code"`
	Label string `db:"label" json:"label"`
}

type BankAccount struct {
	ID    int    `db:"id" json:"id"`
	Ref   string `db:"ref" json:"ref"`
	Label string `db:"label" json:"label"`
}

// PersistResult holds the identifiers created while persisting one salary row.
type PersistResult struct {
	SalaryID   int64  `json:"salary_id"`
	SalaryRef  string `json:"salary_ref"`
	PaymentID  int64  `json:"payment_id"`
	PaymentRef string `json:"payment_ref"`
	BankID     int64  `json:"bank_id"`
}
