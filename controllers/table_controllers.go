package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/bar-order-app/middlewares"
	"github.com/yeremiapane/bar-order-app/services"
	"github.com/yeremiapane/bar-order-app/tablesession"
	"github.com/yeremiapane/bar-order-app/utils"
)

type TableController struct {
	Tables *services.TableService
	Guard  *tablesession.Guard
	// CookieTTL is the lifetime of the table_token cookie set on verify.
	CookieTTL time.Duration
	Secure    bool
}

func NewTableController(tables *services.TableService, guard *tablesession.Guard, cookieTTL time.Duration, secure bool) *TableController {
	return &TableController{Tables: tables, Guard: guard, CookieTTL: cookieTTL, Secure: secure}
}

// GetAllTables -> tables with their active orders and what they owe
func (tc *TableController) GetAllTables(c *gin.Context) {
	tables, err := tc.Tables.ListTables(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of tables", tables)
}

func (tc *TableController) CreateTable(c *gin.Context) {
	var req struct {
		Number int `json:"number" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	table, err := tc.Tables.CreateTable(c.Request.Context(), req.Number)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.Logger().WithField("number", table.Number).Info("New table created")
	utils.RespondJSON(c, http.StatusCreated, "Table created successfully", table)
}

// LookupTable -> ?number=N, creating the table on first use
func (tc *TableController) LookupTable(c *gin.Context) {
	number, err := strconv.Atoi(c.Query("number"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, errors.New("number must be an integer"))
		return
	}

	table, err := tc.Tables.LookupByNumber(c.Request.Context(), number)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Table found", table)
}

// VerifyToken -> customer scanned the table QR code
func (tc *TableController) VerifyToken(c *gin.Context) {
	var body struct {
		Token string `json:"token"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	sess, err := tc.Guard.Verify(c.Request.Context(), body.Token, c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(middlewares.TableTokenCookie, sess.Token, int(tc.CookieTTL.Seconds()), "/", "", tc.Secure, true)
	utils.RespondJSON(c, http.StatusOK, "Table verified", gin.H{"tableId": sess.TableID})
}

// IssueToken -> new QR payload for a table. The previous one stops working.
func (tc *TableController) IssueToken(c *gin.Context) {
	token, err := tc.Guard.IssueToken(c.Request.Context(), c.Param("tableId"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Table token issued", gin.H{
		"tableId": c.Param("tableId"),
		"token":   token,
	})
}
