package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"listify_echo/internal/services"
)

// PaymentHandler handles expenses, balances and settling up
type PaymentHandler struct {
	payments *services.PaymentService
}

func NewPaymentHandler(payments *services.PaymentService) *PaymentHandler {
	return &PaymentHandler{payments: payments}
}

// Create records an expense and splits it between the shared users
func (h *PaymentHandler) Create(c echo.Context) error {
	var req CreatePaymentRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	paidBy := callerID(c)
	if req.PaidByID != nil {
		paidBy = *req.PaidByID
	}

	payment, err := h.payments.Create(c.Request().Context(), services.CreatePaymentInput{
		Title:      req.Title,
		Amount:     req.Amount,
		Date:       req.Date,
		PaidByID:   paidBy,
		ImageURL:   req.ImageURL,
		SharedWith: req.SharedWith,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, payment)
}

// List returns the payments of the caller's group
func (h *PaymentHandler) List(c echo.Context) error {
	payments, err := h.payments.ListForUser(c.Request().Context(), callerID(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, payments)
}

func (h *PaymentHandler) Delete(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := h.payments.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Summary returns the caller's balances and the latest payments of the group
func (h *PaymentHandler) Summary(c echo.Context) error {
	summary, err := h.payments.Summary(c.Request().Context(), callerID(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, summary)
}

// Settle clears all debts between fromUserId and toUserId
func (h *PaymentHandler) Settle(c echo.Context) error {
	from, err := queryID(c, "fromUserId")
	if err != nil {
		return err
	}
	to, err := queryID(c, "toUserId")
	if err != nil {
		return err
	}
	removed, err := h.payments.Settle(c.Request().Context(), from, to)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]int64{"removed": removed})
}
