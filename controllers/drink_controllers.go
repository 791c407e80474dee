package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/yeremiapane/bar-order-app/models"
	"github.com/yeremiapane/bar-order-app/utils"
	"gorm.io/gorm"
)

type DrinkController struct {
	DB *gorm.DB
}

func NewDrinkController(db *gorm.DB) *DrinkController {
	return &DrinkController{DB: db}
}

type drinkRequest struct {
	Name        *string          `json:"name"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	Category    *string          `json:"category"`
	ImageURL    *string          `json:"imageUrl"`
	IsAvailable *bool            `json:"isAvailable"`
}

// GetDrinks -> available drinks for the customer menu. Staff can pass
// ?all=true to include unavailable ones.
func (dc *DrinkController) GetDrinks(c *gin.Context) {
	query := dc.DB.WithContext(c.Request.Context()).Order("category ASC, name ASC")
	if c.Query("all") != "true" {
		query = query.Where("is_available = ?", true)
	}

	var drinks []models.Drink
	if err := query.Find(&drinks).Error; err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of drinks", drinks)
}

func (dc *DrinkController) CreateDrink(c *gin.Context) {
	var req drinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	if req.Name == nil || *req.Name == "" || req.Category == nil || *req.Category == "" || req.Price == nil {
		utils.RespondError(c, http.StatusBadRequest, errors.New("name, category and price are required"))
		return
	}
	if req.Price.IsNegative() {
		utils.RespondError(c, http.StatusBadRequest, errors.New("price must not be negative"))
		return
	}

	drink := models.Drink{
		Name:        *req.Name,
		Price:       req.Price.Round(2),
		Category:    *req.Category,
		ImageURL:    req.ImageURL,
		IsAvailable: true,
	}
	if req.Description != nil {
		drink.Description = *req.Description
	}
	if req.IsAvailable != nil {
		drink.IsAvailable = *req.IsAvailable
	}

	if err := dc.DB.WithContext(c.Request.Context()).Create(&drink).Error; err != nil {
		respondServiceError(c, err)
		return
	}

	utils.Logger().WithField("drink", drink.Name).Info("Drink created")
	utils.RespondJSON(c, http.StatusCreated, "Drink created", drink)
}

// UpdateDrink -> partial update, most often toggling isAvailable
func (dc *DrinkController) UpdateDrink(c *gin.Context) {
	var req drinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	db := dc.DB.WithContext(c.Request.Context())
	var drink models.Drink
	if err := db.First(&drink, "id = ?", c.Param("drinkId")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondError(c, http.StatusNotFound, errors.New("drink not found"))
			return
		}
		respondServiceError(c, err)
		return
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Price != nil {
		if req.Price.IsNegative() {
			utils.RespondError(c, http.StatusBadRequest, errors.New("price must not be negative"))
			return
		}
		updates["price"] = req.Price.Round(2)
	}
	if req.Category != nil {
		updates["category"] = *req.Category
	}
	if req.ImageURL != nil {
		updates["image_url"] = *req.ImageURL
	}
	if req.IsAvailable != nil {
		updates["is_available"] = *req.IsAvailable
	}

	if len(updates) > 0 {
		if err := db.Model(&drink).Updates(updates).Error; err != nil {
			respondServiceError(c, err)
			return
		}
	}
	if err := db.First(&drink, "id = ?", drink.ID).Error; err != nil {
		respondServiceError(c, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Drink updated", drink)
}
