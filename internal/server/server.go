package server

import (
	"context"
	"net/http"

	"boostify/internal/audit"
	"boostify/internal/auth"
	"boostify/internal/chat"
	"boostify/internal/config"
	"boostify/internal/coupon"
	"boostify/internal/email"
	"boostify/internal/logger"
	"boostify/internal/order"
	"boostify/internal/payment"
	"boostify/internal/user"
	"boostify/internal/wallet"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
)

type Server struct {
	router *gin.Engine
	http   *http.Server
	db     *sqlx.DB
	config *config.Config
	email  *email.Service
}

func New(db *sqlx.DB, cfg *config.Config, emailService *email.Service) *Server {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())
	router.Use(RequestLoggingMiddleware())
	router.Use(MetricsMiddleware())
	router.Use(RateLimitMiddleware(cfg.RateLimitRPS, cfg.RateLimitBurst))

	sink := audit.NewZapSink(logger.Desugared())
	processor := payment.NewStripeProcessor(cfg.StripeSecretKey)

	userRepo := user.NewRepository(db)
	walletRepo := wallet.NewRepository(db)
	paymentRepo := payment.NewRepository(db)
	couponRepo := coupon.NewRepository(db)
	chatRepo := chat.NewRepository(db)
	orderRepo := order.NewRepository(db)

	userService := user.NewService(userRepo, cfg.JWTSecret)
	walletService := wallet.NewService(walletRepo, processor, sink)
	paymentService := payment.NewService(paymentRepo, processor, sink)
	couponService := coupon.NewService(couponRepo)
	orderService := order.NewService(
		orderRepo, paymentService, processor, walletService,
		couponService, chatRepo, userRepo, emailService, sink,
	)

	userHandler := user.NewHandler(userService)
	walletHandler := wallet.NewHandler(walletService)
	couponHandler := coupon.NewHandler(couponService)
	chatHandler := chat.NewHandler(chatRepo)
	orderHandler := order.NewHandler(orderService)

	public := router.Group("/auth")
	{
		public.POST("/register", userHandler.Register)
		public.POST("/login", userHandler.Login)
		public.POST("/refresh", userHandler.Refresh)
	}

	authMiddleware := auth.AuthMiddleware(cfg.JWTSecret)
	protected := router.Group("/")
	protected.Use(authMiddleware)
	{
		protected.GET("/me", userHandler.GetMe)

		protected.POST("/orders", orderHandler.Create)
		protected.POST("/orders/create-balance", orderHandler.CreateWithBalance)
		protected.GET("/orders", orderHandler.ListMine)
		protected.GET("/orders/earnings", orderHandler.Earnings)
		protected.GET("/orders/:id", orderHandler.Get)
		protected.POST("/orders/:id/complete", orderHandler.Complete)
		protected.POST("/orders/:id/approve", orderHandler.Approve)
		protected.POST("/orders/:id/reject", orderHandler.Reject)

		protected.GET("/balance", walletHandler.GetBalance)
		protected.POST("/balance/deposit", walletHandler.Deposit)
		protected.POST("/balance/deposit-success", walletHandler.DepositSuccess)
		protected.GET("/balance/transactions", walletHandler.ListTransactions)

		protected.POST("/coupons/validate", couponHandler.Validate)

		protected.GET("/chats", chatHandler.ListChats)
		protected.GET("/chats/:id/messages", chatHandler.ListMessages)
		protected.POST("/chats/:id/messages", chatHandler.SendMessage)
	}

	booster := router.Group("/")
	booster.Use(authMiddleware, auth.RequireRole(auth.RoleBooster))
	{
		booster.GET("/orders/available", orderHandler.ListAvailable)
		booster.POST("/orders/claim", orderHandler.Claim)
	}

	admin := router.Group("/admin")
	admin.Use(authMiddleware, auth.RequireRole(auth.RoleAdmin))
	{
		admin.GET("/orders", orderHandler.ListAll)
		admin.POST("/coupons", couponHandler.Create)
	}

	router.GET("/health", Health)
	router.GET("/metrics", Metrics())
	router.GET("/test-email", TestEmail(emailService))
	SetupSwagger(router)

	return &Server{
		router: router,
		db:     db,
		config: cfg,
		email:  emailService,
	}
}

func (s *Server) Start(port string) error {
	s.http = &http.Server{
		Addr:    ":" + port,
		Handler: s.router,
	}
	return s.http.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
