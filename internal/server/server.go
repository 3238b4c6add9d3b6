// Package server exposes the HTTP API: resource CRUD, the calendar
// endpoints, and the payment webhook.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/recurshop/recurshop/internal/config"
	customerdomain "github.com/recurshop/recurshop/internal/customer/domain"
	deliverydomain "github.com/recurshop/recurshop/internal/delivery/domain"
	"github.com/recurshop/recurshop/internal/planning"
	subscriptiondomain "github.com/recurshop/recurshop/internal/subscription/domain"

	productdomain "github.com/recurshop/recurshop/internal/product/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	fx.Provide(NewServer),
	fx.Invoke(registerRoutes),
	fx.Invoke(run),
)

func NewEngine(log *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger(log))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(log *zap.Logger) *gin.Engine {
	return NewEngine(log)
}

func requestLogger(log *zap.Logger) gin.HandlerFunc {
	log = log.Named("http")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
		)
	}
}

type Server struct {
	engine          *gin.Engine
	cfg             config.Config
	log             *zap.Logger
	customerSvc     customerdomain.Service
	productSvc      productdomain.Service
	subscriptionSvc subscriptiondomain.Service
	deliverySvc     deliverydomain.Service
	planningSvc     *planning.Service
}

type ServerParams struct {
	fx.In

	Gin             *gin.Engine
	Cfg             config.Config
	Log             *zap.Logger
	CustomerSvc     customerdomain.Service
	ProductSvc      productdomain.Service
	SubscriptionSvc subscriptiondomain.Service
	DeliverySvc     deliverydomain.Service
	PlanningSvc     *planning.Service
}

func NewServer(p ServerParams) *Server {
	return &Server{
		engine:          p.Gin,
		cfg:             p.Cfg,
		log:             p.Log.Named("server"),
		customerSvc:     p.CustomerSvc,
		productSvc:      p.ProductSvc,
		subscriptionSvc: p.SubscriptionSvc,
		deliverySvc:     p.DeliverySvc,
		planningSvc:     p.PlanningSvc,
	}
}

func registerRoutes(s *Server) {
	s.RegisterRoutes()
}

func (s *Server) RegisterRoutes() {
	r := s.engine

	r.POST("/next-scheduled-date", s.NextScheduledDate)
	r.POST("/customer-subscription-planning", s.CustomerSubscriptionPlanning)
	r.POST("/webhooks/payment", s.PaymentWebhook)

	api := r.Group("/api")
	{
		customers := api.Group("/customers")
		{
			customers.POST("", s.CreateCustomer)
			customers.GET("", s.ListCustomers)
			customers.GET("/:id", s.GetCustomerByID)
			customers.POST("/:id/addresses", s.CreateCustomerAddress)
			customers.GET("/:id/addresses", s.ListCustomerAddresses)
		}

		products := api.Group("/products")
		{
			products.POST("", s.CreateProduct)
			products.GET("", s.ListProducts)
			products.GET("/:id", s.GetProductByID)
		}

		subscriptions := api.Group("/subscriptions")
		{
			subscriptions.POST("", s.CreateSubscription)
			subscriptions.GET("", s.ListSubscriptions)
			subscriptions.GET("/:id", s.GetSubscriptionByID)
			subscriptions.PATCH("/:id", s.UpdateSubscription)
			subscriptions.POST("/:id/pause", s.PauseSubscription)
			subscriptions.POST("/:id/resume", s.ResumeSubscription)
			subscriptions.POST("/:id/expire", s.ExpireSubscription)
			subscriptions.POST("/:id/skip", s.SkipSubscription)
		}

		deliveries := api.Group("/deliveries")
		{
			deliveries.GET("", s.ListDeliveries)
			deliveries.GET("/:id", s.GetDeliveryByID)
		}
	}
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}
