package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/JimEastburn/class-registration-system-sub001/internal/service"
	appErrors "github.com/JimEastburn/class-registration-system-sub001/pkg/errors"
	"github.com/JimEastburn/class-registration-system-sub001/pkg/response"
)

// PaymentWebhookRequest is the processor callback payload.
type PaymentWebhookRequest struct {
	EnrollmentID string `json:"enrollment_id" binding:"required"`
}

// PaymentHandler exposes processor webhook endpoints.
type PaymentHandler struct {
	payments *service.PaymentService
}

// NewPaymentHandler constructs PaymentHandler.
func NewPaymentHandler(payments *service.PaymentService) *PaymentHandler {
	return &PaymentHandler{payments: payments}
}

// Checkout godoc
// @Summary Open a payment for a pending enrollment
// @Description Creates the pending payment the processor will settle. Repeated calls return the open payment.
// @Tags Payments
// @Produce json
// @Param id path string true "Enrollment ID"
// @Success 201 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Security BearerAuth
// @Router /enrollments/{id}/checkout [post]
func (h *PaymentHandler) Checkout(c *gin.Context) {
	payment, err := h.payments.StartCheckout(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, payment)
}

// Get godoc
// @Summary Get the payment linked to an enrollment
// @Tags Payments
// @Produce json
// @Param id path string true "Enrollment ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /enrollments/{id}/payment [get]
func (h *PaymentHandler) Get(c *gin.Context) {
	payment, err := h.payments.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, payment, nil)
}

// Completed godoc
// @Summary Payment captured callback
// @Description Confirms the pending enrollment once its payment completes.
// @Tags Payments
// @Accept json
// @Produce json
// @Param payload body handler.PaymentWebhookRequest true "Callback payload"
// @Success 200 {object} response.Envelope
// @Router /webhooks/payments/completed [post]
func (h *PaymentHandler) Completed(c *gin.Context) {
	var req PaymentWebhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	enrollment, err := h.payments.HandleCompleted(c.Request.Context(), req.EnrollmentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, enrollment, nil)
}

// Refunded godoc
// @Summary Payment refunded callback
// @Description Cancels the refunded enrollment and promotes the waitlist head into the freed seat.
// @Tags Payments
// @Accept json
// @Produce json
// @Param payload body handler.PaymentWebhookRequest true "Callback payload"
// @Success 200 {object} response.Envelope
// @Router /webhooks/payments/refunded [post]
func (h *PaymentHandler) Refunded(c *gin.Context) {
	var req PaymentWebhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	enrollment, err := h.payments.HandleRefunded(c.Request.Context(), req.EnrollmentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, enrollment, nil)
}
