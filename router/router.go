package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/yeremiapane/bar-order-app/controllers"
	"github.com/yeremiapane/bar-order-app/live"
	"github.com/yeremiapane/bar-order-app/middlewares"
	"github.com/yeremiapane/bar-order-app/models"
	"github.com/yeremiapane/bar-order-app/services"
	"github.com/yeremiapane/bar-order-app/tablesession"
	"github.com/yeremiapane/bar-order-app/utils"
	"gorm.io/gorm"
)

// Dependencies is everything the HTTP layer needs from main.
type Dependencies struct {
	DB         *gorm.DB
	Orders     *services.OrderService
	Payments   *services.PaymentService
	Tables     *services.TableService
	Inventory  *services.InventoryService
	Stats      *services.StatsService
	Guard      *tablesession.Guard
	Dispatcher *live.Dispatcher

	RateLimiter *middlewares.RateLimiter
	Production  bool
	AllowOrigin string
	// TrustedProxies is passed to gin; nil means ClientIP is always the
	// socket peer and forwarding headers are ignored.
	TrustedProxies []string
	SessionTTL     time.Duration
	Heartbeat      time.Duration
}

func SetupRouter(deps Dependencies) *gin.Engine {
	r := gin.New()
	if err := r.SetTrustedProxies(deps.TrustedProxies); err != nil {
		utils.ErrLogger().WithError(err).Warn("Invalid trusted proxy list, trusting none")
		_ = r.SetTrustedProxies(nil)
	}
	r.Use(gin.Recovery())
	r.Use(middlewares.LoggerMiddleware())
	r.Use(middlewares.CORSMiddlewares(deps.AllowOrigin))
	r.Use(middlewares.SecurityHeaders(deps.Production))
	if deps.RateLimiter != nil {
		r.Use(deps.RateLimiter.RateLimit())
	}

	userController := controllers.NewUserController(deps.DB)
	drinkController := controllers.NewDrinkController(deps.DB)
	orderController := controllers.NewOrderController(deps.Orders, deps.Payments)
	paymentRequestController := controllers.NewPaymentRequestController(deps.Payments)
	tableController := controllers.NewTableController(deps.Tables, deps.Guard, deps.SessionTTL, deps.Production)
	inventoryController := controllers.NewInventoryController(deps.Inventory)
	adminController := controllers.NewAdminController(deps.Stats)
	eventsController := controllers.NewEventsController(deps.Dispatcher, deps.Heartbeat)

	staff := middlewares.AuthMiddleware()
	adminOnly := middlewares.RequireRoles(models.RoleAdmin)
	tableSession := middlewares.TableSessionGate(deps.Guard)
	paymentLimiter := middlewares.PaymentRateLimiter(20, 10)
	paymentAudit := middlewares.LogPaymentRequest()

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")

	// Auth
	auth := api.Group("/auth")
	{
		auth.POST("/login", middlewares.NewStrictRateLimiter(time.Second, 10), userController.Login)
		auth.GET("/check", staff, userController.Check)
		auth.POST("/register", staff, adminOnly, userController.Register)
	}

	// Staff accounts
	users := api.Group("/users", staff, adminOnly)
	{
		users.GET("", userController.GetUsers)
		users.DELETE("/:userId", userController.DeleteUser)
	}

	// Drinks
	drinks := api.Group("/drinks")
	{
		drinks.GET("", drinkController.GetDrinks)
		drinks.POST("", staff, adminOnly, drinkController.CreateDrink)
		drinks.PATCH("/:drinkId", staff, adminOnly, drinkController.UpdateDrink)
	}

	// Tables: customer routes are gated by the table session, the rest by staff auth
	tables := api.Group("/tables")
	{
		tables.GET("/lookup", tableController.LookupTable)
		tables.POST("/verify", tableController.VerifyToken)

		tables.GET("/:tableId/orders", tableSession, orderController.GetTableOrders)
		tables.POST("/:tableId/orders", tableSession, orderController.CreateTableOrder)
		tables.POST("/:tableId/payment-request", tableSession, paymentLimiter, paymentAudit, paymentRequestController.RequestPayment)
		tables.GET("/:tableId/events", tableSession, eventsController.StreamTable)

		tables.GET("", staff, tableController.GetAllTables)
		tables.POST("", staff, adminOnly, tableController.CreateTable)
		tables.GET("/:tableId/token", staff, adminOnly, tableController.IssueToken)
	}

	// Orders
	orders := api.Group("/orders", staff)
	{
		orders.POST("", orderController.CreateOrder)
		orders.GET("", orderController.GetAllOrders)
		orders.GET("/events", eventsController.StreamOrders)
		orders.GET("/:orderId", orderController.GetOrderByID)
		orders.PATCH("/:orderId", orderController.UpdateOrder)
		orders.POST("/:orderId/confirm-cash-payment", paymentLimiter, paymentAudit, orderController.ConfirmCashPayment)
		orders.POST("/:orderId/refund", paymentAudit, orderController.Refund)
	}

	// Payment requests
	paymentRequests := api.Group("/payment-requests", staff)
	{
		paymentRequests.GET("", paymentRequestController.GetPendingRequests)
		paymentRequests.GET("/events", eventsController.StreamPaymentRequests)
		paymentRequests.PATCH("/:requestId", paymentAudit, paymentRequestController.ResolveRequest)
	}

	// Inventory
	inventory := api.Group("/inventory", staff, adminOnly)
	{
		inventory.GET("", inventoryController.GetItems)
		inventory.POST("", inventoryController.CreateItem)
		inventory.GET("/alerts", inventoryController.GetAlerts)
		inventory.PATCH("/alerts/:alertId", inventoryController.ResolveAlert)
		inventory.PATCH("/:itemId", inventoryController.SetQuantity)
	}

	// Admin
	admin := api.Group("/admin", staff, adminOnly)
	{
		admin.GET("/stats", adminController.GetDashboardStats)
	}

	// WebSocket live feed for staff screens
	ws := r.Group("/ws")
	{
		ws.GET("/:role", middlewares.WebSocketAuthMiddleware(), middlewares.RoleCheck(), eventsController.LiveSocket)
	}

	return r
}
