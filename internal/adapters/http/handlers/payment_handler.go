package handlers

import (
	"strconv"

	"courseflow/internal/core/services"
	"courseflow/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// PaymentHandler handles payment endpoints
type PaymentHandler struct {
	paymentService *services.PaymentService
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(paymentService *services.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService}
}

// Calculate validates and upserts a payment for an instructor and period
// @Summary Calculate instructor payment
// @Description Validate load × rate arithmetic and upsert the period payment (finance only)
// @Tags Payments
// @Router /payments/calculate [post]
func (h *PaymentHandler) Calculate(c *fiber.Ctx) error {
	var input services.CalculateInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := validate.Struct(&input); err != nil {
		return response.UnprocessableEntity(c, err.Error())
	}

	userID, _ := c.Locals("userID").(uint)
	payment, err := h.paymentService.Calculate(c.Context(), &input, userID)
	if err != nil {
		return mapDomainError(c, err)
	}
	return response.Success(c, "Payment calculated", payment.ToResponse())
}

// GetByInstructor lists an instructor's payments
// @Summary List instructor payments
// @Tags Payments
// @Router /payments/{instructorId} [get]
func (h *PaymentHandler) GetByInstructor(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("instructorId"), 10, 32)
	if err != nil || id == 0 {
		return response.BadRequest(c, "Invalid instructor id")
	}

	payments, err := h.paymentService.GetByInstructor(c.Context(), uint(id))
	if err != nil {
		return mapDomainError(c, err)
	}

	out := make([]interface{}, 0, len(payments))
	for _, p := range payments {
		out = append(out, p.ToResponse())
	}
	return response.Success(c, "Payments retrieved", out)
}

// GetHistory gets the append-only history of a payment
// @Summary Get payment history
// @Tags Payments
// @Router /payments/{id}/history [get]
func (h *PaymentHandler) GetHistory(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil || id == 0 {
		return response.BadRequest(c, "Invalid payment id")
	}

	records, err := h.paymentService.GetHistory(c.Context(), uint(id))
	if err != nil {
		return mapDomainError(c, err)
	}
	return response.Success(c, "Payment history retrieved", records)
}
