package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"gorm.io/gorm"

	"listify_echo/internal/auth"
	"listify_echo/internal/config"
	"listify_echo/internal/metrics"
	"listify_echo/internal/middleware"
	"listify_echo/internal/realtime"
	"listify_echo/internal/services"
)

// Services bundles everything the HTTP layer calls into
type Services struct {
	Auth        *services.AuthService
	Users       *services.UserService
	Groups      *services.GroupService
	Accounts    *services.AccountService
	Payments    *services.PaymentService
	Chat        *services.ChatService
	Lists       *services.ShoppingService
	Items       *services.ItemService
	Suggestions *services.SuggestionService
	Storage     *services.StorageService
}

// NewServices wires the domain services on top of one database
func NewServices(db *gorm.DB, cache *services.RedisCache, jwtManager *auth.JWTManager, hub *realtime.Hub, cfg config.Config) Services {
	balances := services.NewBalanceService(db, cache, cfg.BalanceCacheTTL)
	return Services{
		Auth:        services.NewAuthService(db, jwtManager),
		Users:       services.NewUserService(db, balances),
		Groups:      services.NewGroupService(db, balances),
		Accounts:    services.NewAccountService(db, balances),
		Payments:    services.NewPaymentService(db, balances),
		Chat:        services.NewChatService(db, hub),
		Lists:       services.NewShoppingService(db),
		Items:       services.NewItemService(db),
		Suggestions: services.NewSuggestionService(db),
		Storage:     services.NewStorageService(cfg.Storage),
	}
}

// NewRouter builds the echo instance with every route of the API
func NewRouter(svc Services, jwtManager *auth.JWTManager, hub *realtime.Hub, cfg config.Config) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = middleware.CustomErrorHandler

	e.Use(echomw.Recover())
	e.Use(middleware.RequestLogger())
	e.Use(metrics.Middleware())
	e.Use(middleware.CORS(cfg.CORSOrigins))

	authHandler := NewAuthHandler(svc.Auth)
	userHandler := NewUserHandler(svc.Users, svc.Groups, svc.Accounts)
	prefHandler := NewUserPreferenceHandler(svc.Users)
	groupHandler := NewGroupHandler(svc.Groups)
	paymentHandler := NewPaymentHandler(svc.Payments)
	chatHandler := NewChatHandler(svc.Chat, svc.Users, hub)
	shoppingHandler := NewShoppingHandler(svc.Lists, svc.Items, svc.Suggestions, svc.Users)
	storageHandler := NewStorageHandler(svc.Storage)

	// Public routes
	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	e.GET("/metrics", echo.WrapHandler(metrics.Handler()))

	public := e.Group("/api/auth", middleware.RateLimit(cfg.AuthRateLimit, cfg.AuthRateBurst))
	public.POST("/register", authHandler.Register)
	public.POST("/login", authHandler.Login)

	requireAuth := middleware.RequireAuth(jwtManager)
	e.GET("/ws", chatHandler.WebSocket, requireAuth)

	api := e.Group("/api", requireAuth)

	// User routes
	api.GET("/users", userHandler.List)
	api.GET("/users/check-deletion-status", userHandler.CheckDeletionStatus)
	api.DELETE("/users/me", userHandler.DeleteMe)
	api.GET("/users/email/:email", userHandler.GetByEmail)
	api.GET("/users/:id", userHandler.Get)
	api.GET("/users/:id/group", userHandler.Group)
	api.GET("/users/:id/permission", userHandler.Permission)
	api.GET("/users/:id/check-deletion-status", userHandler.CheckDeletionStatus)
	api.PATCH("/users/:id/avatar", userHandler.UpdateAvatar)
	api.PATCH("/users/:id/paypal", userHandler.UpdatePaypal)
	api.PATCH("/users/:id/username", userHandler.UpdateUsername)
	api.PATCH("/users/:id/phone", userHandler.UpdatePhone)
	api.GET("/users/:id/preference", prefHandler.GetUserPreference)
	api.PUT("/users/:id/preference", prefHandler.UpdateUserPreference)

	// Group routes
	api.POST("/groups", groupHandler.Create)
	api.POST("/groups/create-with-user", groupHandler.CreateWithUser)
	api.GET("/groups", groupHandler.List)
	api.GET("/groups/code/:joinCode", groupHandler.GetByJoinCode)
	api.GET("/groups/:id", groupHandler.Get)
	api.DELETE("/groups/:id", groupHandler.Delete)
	api.PATCH("/groups/:groupId/add-user/:userId", groupHandler.AddUser)
	api.PATCH("/groups/:groupId/remove-user/:userId", groupHandler.RemoveUser)
	api.PATCH("/groups/:groupId/kick-user/:targetUserId", groupHandler.KickUser)

	// Payment routes
	api.POST("/payments", paymentHandler.Create)
	api.GET("/payments", paymentHandler.List)
	api.GET("/payments/summary", paymentHandler.Summary)
	api.DELETE("/payments/:id", paymentHandler.Delete)
	api.DELETE("/debts/settle", paymentHandler.Settle)

	// Chat routes
	api.GET("/messages/group/:groupId", chatHandler.History)

	// Shopping routes
	api.POST("/shopping-lists", shoppingHandler.CreateList)
	api.GET("/shopping-lists", shoppingHandler.ListAll)
	api.GET("/shopping-lists/visible", shoppingHandler.Visible)
	api.GET("/shopping-lists/own", shoppingHandler.Own)
	api.GET("/shopping-lists/shared", shoppingHandler.Shared)
	api.GET("/shopping-lists/with-items", shoppingHandler.WithItems)
	api.GET("/shopping-lists/suggestions", shoppingHandler.FrequentItems)
	api.POST("/shopping-lists/add-items", shoppingHandler.AddItems)
	api.GET("/shopping-lists/:id", shoppingHandler.GetList)
	api.DELETE("/shopping-lists/:id", shoppingHandler.DeleteList)

	api.POST("/items", shoppingHandler.CreateItem)
	api.PUT("/items/:id", shoppingHandler.UpdateItem)
	api.DELETE("/items/:id", shoppingHandler.DeleteItem)
	api.GET("/items/by-list/:listId", shoppingHandler.ItemsByList)
	api.GET("/items/by-list/:listId/open", shoppingHandler.OpenItemsByList)

	api.GET("/suggestions", shoppingHandler.SearchSuggestions)
	api.POST("/suggestions", shoppingHandler.CreateSuggestion)

	api.POST("/storage/upload", storageHandler.Upload)

	return e
}
