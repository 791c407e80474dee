package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/bar-order-app/models"
	"github.com/yeremiapane/bar-order-app/utils"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type UserController struct {
	DB *gorm.DB
}

func NewUserController(db *gorm.DB) *UserController {
	return &UserController{DB: db}
}

// Register -> admin creates a staff account
func (uc *UserController) Register(c *gin.Context) {
	type request struct {
		Name     string `json:"name" binding:"required"`
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required,min=8"`
		Role     string `json:"role" binding:"required"` // ADMIN, BARTENDER
	}
	var req request
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	role := strings.ToUpper(req.Role)
	if !models.IsStaffRole(role) {
		utils.RespondError(c, http.StatusBadRequest, errors.New("role must be ADMIN or BARTENDER"))
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	user := models.User{
		Name:     req.Name,
		Email:    strings.ToLower(req.Email),
		Password: string(hashed),
		Role:     role,
	}

	db := uc.DB.WithContext(c.Request.Context())
	var count int64
	if err := db.Model(&models.User{}).Where("email = ?", user.Email).Count(&count).Error; err != nil {
		respondServiceError(c, err)
		return
	}
	if count > 0 {
		utils.RespondError(c, http.StatusBadRequest, errors.New("email already registered"))
		return
	}

	if err := db.Create(&user).Error; err != nil {
		respondServiceError(c, err)
		return
	}

	utils.Logger().WithField("email", user.Email).WithField("role", user.Role).Info("New user registered")
	utils.RespondJSON(c, http.StatusCreated, "User registered", gin.H{
		"userId": user.ID,
	})
}

// Login user -> return JWT
func (uc *UserController) Login(c *gin.Context) {
	var input struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var user models.User
	if err := uc.DB.WithContext(c.Request.Context()).Where("email = ?", strings.ToLower(input.Email)).First(&user).Error; err != nil {
		utils.RespondError(c, http.StatusUnauthorized, errors.New("invalid credentials"))
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(input.Password)); err != nil {
		utils.RespondError(c, http.StatusUnauthorized, errors.New("invalid credentials"))
		return
	}

	token, err := utils.GenerateToken(user.ID, user.Role)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.Logger().WithField("email", user.Email).Info("Login successful")
	utils.RespondJSON(c, http.StatusOK, "Login successful", gin.H{
		"token": token,
		"user": gin.H{
			"id":    user.ID,
			"name":  user.Name,
			"email": user.Email,
			"role":  user.Role,
		},
	})
}

// Check -> confirms the bearer token is still valid and returns its user
func (uc *UserController) Check(c *gin.Context) {
	var user models.User
	if err := uc.DB.WithContext(c.Request.Context()).First(&user, "id = ?", c.GetString("userID")).Error; err != nil {
		utils.RespondError(c, http.StatusUnauthorized, errors.New("user no longer exists"))
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Token valid", gin.H{
		"id":    user.ID,
		"name":  user.Name,
		"email": user.Email,
		"role":  user.Role,
	})
}

// GetUsers -> admin lists every staff account
func (uc *UserController) GetUsers(c *gin.Context) {
	var users []models.User
	if err := uc.DB.WithContext(c.Request.Context()).Order("created_at asc").Find(&users).Error; err != nil {
		respondServiceError(c, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "All users", users)
}

// DeleteUser -> admin removes a staff account; the last admin stays
func (uc *UserController) DeleteUser(c *gin.Context) {
	userID := c.Param("userId")

	err := uc.DB.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.First(&user, "id = ?", userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errUserNotFound
			}
			return err
		}

		if user.Role == models.RoleAdmin {
			var admins int64
			if err := tx.Model(&models.User{}).Where("role = ?", models.RoleAdmin).Count(&admins).Error; err != nil {
				return err
			}
			if admins <= 1 {
				return errLastAdmin
			}
		}

		return tx.Delete(&user).Error
	})
	switch {
	case errors.Is(err, errUserNotFound):
		utils.RespondError(c, http.StatusNotFound, err)
		return
	case errors.Is(err, errLastAdmin):
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	case err != nil:
		respondServiceError(c, err)
		return
	}

	utils.Logger().WithField("userId", userID).WithField("by", c.GetString("userID")).Info("User deleted")
	utils.RespondJSON(c, http.StatusOK, "User deleted", gin.H{
		"userId": userID,
	})
}

var (
	errUserNotFound = errors.New("user not found")
	errLastAdmin    = errors.New("cannot delete the last admin")
)
