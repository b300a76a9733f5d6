package handler

import (
	"github.com/gofiber/fiber/v2"

	"payroll-web/internal/repository"
	"payroll-web/internal/utils"
)

// DictionaryHandler serves the payment type and bank account dictionaries
// used by the import screens.
type DictionaryHandler struct {
	paymentTypeRepo *repository.PaymentTypeRepository
	bankAccountRepo *repository.BankAccountRepository
}

func NewDictionaryHandler(
	paymentTypeRepo *repository.PaymentTypeRepository,
	bankAccountRepo *repository.BankAccountRepository,
) *DictionaryHandler {
	return &DictionaryHandler{
		paymentTypeRepo: paymentTypeRepo,
		bankAccountRepo: bankAccountRepo,
	}
}

func (h *DictionaryHandler) GetPaymentTypes(c *fiber.Ctx) error {
	paymentTypes, err := h.paymentTypeRepo.GetAll()
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to retrieve payment types", err)
	}
	return utils.SuccessResponse(c, "Payment types retrieved successfully", paymentTypes)
}

func (h *DictionaryHandler) GetBankAccounts(c *fiber.Ctx) error {
	accounts, err := h.bankAccountRepo.GetAll()
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to retrieve bank accounts", err)
	}
	return utils.SuccessResponse(c, "Bank accounts retrieved successfully", accounts)
}
