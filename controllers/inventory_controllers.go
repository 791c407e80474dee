package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/bar-order-app/models"
	"github.com/yeremiapane/bar-order-app/services"
	"github.com/yeremiapane/bar-order-app/utils"
)

type InventoryController struct {
	Inventory *services.InventoryService
}

func NewInventoryController(inventory *services.InventoryService) *InventoryController {
	return &InventoryController{Inventory: inventory}
}

func (ic *InventoryController) GetItems(c *gin.Context) {
	items, err := ic.Inventory.ListItems(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Inventory items", items)
}

func (ic *InventoryController) CreateItem(c *gin.Context) {
	var item models.InventoryItem
	if err := c.ShouldBindJSON(&item); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	item.ID = ""
	item.Alerts = nil

	if err := ic.Inventory.CreateItem(c.Request.Context(), &item); err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Inventory item created", item)
}

// SetQuantity -> stock count after a delivery or a stock take
func (ic *InventoryController) SetQuantity(c *gin.Context) {
	var body struct {
		Quantity *float64 `json:"quantity" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	item, err := ic.Inventory.SetQuantity(c.Request.Context(), c.Param("itemId"), *body.Quantity)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Inventory updated", item)
}

func (ic *InventoryController) GetAlerts(c *gin.Context) {
	alerts, err := ic.Inventory.OpenAlerts(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Open inventory alerts", alerts)
}

func (ic *InventoryController) ResolveAlert(c *gin.Context) {
	alert, err := ic.Inventory.ResolveAlert(c.Request.Context(), c.Param("alertId"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Alert resolved", alert)
}
