package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/bar-order-app/services"
	"github.com/yeremiapane/bar-order-app/utils"
)

type OrderController struct {
	Orders   *services.OrderService
	Payments *services.PaymentService
}

func NewOrderController(orders *services.OrderService, payments *services.PaymentService) *OrderController {
	return &OrderController{Orders: orders, Payments: payments}
}

// CreateOrder -> staff places an order for any table
func (oc *OrderController) CreateOrder(c *gin.Context) {
	var input services.CreateOrderInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	order, err := oc.Orders.CreateOrder(c.Request.Context(), input)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.RespondJSON(c, http.StatusCreated, "Order created", order)
}

// CreateTableOrder -> customer orders from their table session. The table in
// the path wins over anything in the body.
func (oc *OrderController) CreateTableOrder(c *gin.Context) {
	var input services.CreateOrderInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	input.TableID = c.Param("tableId")

	order, err := oc.Orders.CreateOrder(c.Request.Context(), input)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.RespondJSON(c, http.StatusCreated, "Order created", order)
}

// GetTableOrders -> active orders of a table
func (oc *OrderController) GetTableOrders(c *gin.Context) {
	orders, err := oc.Orders.ActiveOrdersForTable(c.Request.Context(), c.Param("tableId"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Table orders", orders)
}

// GetAllOrders -> newest first, filtered by ?status= and ?tableId=
func (oc *OrderController) GetAllOrders(c *gin.Context) {
	orders, err := oc.Orders.ListOrders(c.Request.Context(), services.OrderFilter{
		Status:  c.Query("status"),
		TableID: c.Query("tableId"),
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of orders", orders)
}

func (oc *OrderController) GetOrderByID(c *gin.Context) {
	order, err := oc.Orders.GetOrder(c.Request.Context(), c.Param("orderId"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order detail", order)
}

// UpdateOrder -> status transition and/or line edits
func (oc *OrderController) UpdateOrder(c *gin.Context) {
	var input services.UpdateOrderInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	order, err := oc.Orders.UpdateOrder(c.Request.Context(), c.Param("orderId"), input)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.Logger().WithField("orderId", order.ID).WithField("status", order.Status).Info("Order updated")
	utils.RespondJSON(c, http.StatusOK, "Order updated", order)
}

func (oc *OrderController) ConfirmCashPayment(c *gin.Context) {
	order, err := oc.Payments.ConfirmCashPayment(c.Request.Context(), c.Param("orderId"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Cash payment confirmed", order)
}

func (oc *OrderController) Refund(c *gin.Context) {
	order, err := oc.Payments.Refund(c.Request.Context(), c.Param("orderId"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order refunded", order)
}
