package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/bar-order-app/services"
	"github.com/yeremiapane/bar-order-app/utils"
)

type PaymentRequestController struct {
	Payments *services.PaymentService
}

func NewPaymentRequestController(payments *services.PaymentService) *PaymentRequestController {
	return &PaymentRequestController{Payments: payments}
}

// RequestPayment -> customer asks staff to come and settle the table
func (pc *PaymentRequestController) RequestPayment(c *gin.Context) {
	req, err := pc.Payments.RequestPayment(c.Request.Context(), c.Param("tableId"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Payment requested", req)
}

func (pc *PaymentRequestController) GetPendingRequests(c *gin.Context) {
	reqs, err := pc.Payments.PendingRequests(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Pending payment requests", reqs)
}

// ResolveRequest -> CONFIRMED or REJECTED
func (pc *PaymentRequestController) ResolveRequest(c *gin.Context) {
	var body struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	req, err := pc.Payments.ResolvePaymentRequest(c.Request.Context(), c.Param("requestId"), body.Status)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Payment request updated", req)
}
