package repository

import (
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"payroll-web/internal/models"
)

// PaymentTypeRepository reads the payment type dictionary (c_paiement).
type PaymentTypeRepository struct {
	db *sqlx.DB
}

func NewPaymentTypeRepository(db *sqlx.DB) *PaymentTypeRepository {
	return &PaymentTypeRepository{db: db}
}

// FindByCode looks up a payment type by its code (VIR, CHQ, LIQ, ...).
// Returns (nil, nil) when the code is unknown.
func (r *PaymentTypeRepository) FindByCode(code string) (*models.PaymentType, error) {
	var paymentType models.PaymentType
	query := "SELECT id, code, label FROM c_paiement WHERE code = ? AND active = 1 LIMIT 1"
	err := r.db.Get(&paymentType, query, code)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &paymentType, nil
}

func (r *PaymentTypeRepository) GetAll() ([]models.PaymentType, error) {
	var paymentTypes []models.PaymentType
	query := "SELECT id, code, label FROM c_paiement WHERE active = 1 ORDER BY code"
	err := r.db.Select(&paymentTypes, query)
	return paymentTypes, err
}

// BankAccountRepository reads the bank account dictionary.
type BankAccountRepository struct {
	db *sqlx.DB
}

func NewBankAccountRepository(db *sqlx.DB) *BankAccountRepository {
	return &BankAccountRepository{db: db}
}

// FindByRefOrLabel looks up an account by reference first, then by label.
// Returns (nil, nil) when neither matches.
func (r *BankAccountRepository) FindByRefOrLabel(ref string) (*models.BankAccount, error) {
	var account models.BankAccount
	query := "SELECT id, ref, label FROM bank_account WHERE ref = ? OR label = ? LIMIT 1"
	err := r.db.Get(&account, query, ref, ref)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *BankAccountRepository) GetAll() ([]models.BankAccount, error) {
	var accounts []models.BankAccount
	query := "SELECT id, ref, label FROM bank_account ORDER BY ref"
	err := r.db.Select(&accounts, query)
	return accounts, err
}
