// @title QuickEats Orders API
// @version 1.0
// @description Order lifecycle and real-time distribution backend.
package main

import (
	"context"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/quickeats/orders-backend/internal/catalog"
	"github.com/quickeats/orders-backend/internal/config"
	"github.com/quickeats/orders-backend/internal/customer"
	_ "github.com/quickeats/orders-backend/internal/docs"
	"github.com/quickeats/orders-backend/internal/httpx"
	"github.com/quickeats/orders-backend/internal/mailer"
	"github.com/quickeats/orders-backend/internal/metrics"
	"github.com/quickeats/orders-backend/internal/notify"
	ord "github.com/quickeats/orders-backend/internal/order"
	"github.com/quickeats/orders-backend/internal/payment"
)

func main() {
	cfg := config.Load()

	db, err := pgxpool.New(context.Background(), cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("pgx pool: %v", err)
	}
	defer db.Close()

	orders := ord.NewPGRepo(db)
	customers := customer.NewPGRepo(db)

	// The catalog is local by default; point CATALOG_BASEURL at a remote
	// catalog service to consume it over HTTP instead.
	var store catalog.Store = catalog.NewPGStore(db)
	if cfg.CatalogBaseURL != "" {
		store = catalog.NewHTTPStore(cfg.CatalogBaseURL)
	}

	registry := notify.NewRegistry()
	dispatcher := notify.NewDispatcher(registry)

	var mail ord.Mailer = mailer.Noop{}
	if cfg.MailerBaseURL != "" {
		mail = mailer.New(cfg.MailerBaseURL)
	}

	engine := ord.NewEngine(orders, store, dispatcher, mail, customers)
	gateway := payment.NewHTTPGateway(cfg.GatewayBaseURL)
	reconciler := payment.NewReconciler(orders, engine, gateway, cfg.WebhookSecret)

	r := gin.New()
	r.Use(gin.Recovery(), httpx.RequestID(), httpx.Logger())

	r.GET("/healthz", func(c *gin.Context) { c.String(200, "ok") })
	r.GET("/metrics", gin.WrapH(metrics.Handler()))
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// The gateway signs its callbacks; no bearer token on the webhook.
	r.POST("/payments/webhook", webhookHandler(reconciler))

	r.GET("/ws", notify.ServeWS(registry, func(token string) (string, error) {
		claims, err := httpx.ParseToken(cfg.JWTSecret, token)
		if err != nil {
			return "", err
		}
		if claims.Role == httpx.RoleStaff {
			return notify.StaffAudience, nil
		}
		return claims.Subject, nil
	}))

	auth := r.Group("/", httpx.Auth(cfg.JWTSecret))
	auth.POST("/orders", createOrderHandler(engine))
	auth.GET("/orders/:code", getOrderHandler(orders))
	auth.GET("/orders/user/:user_id", listOrdersHandler(orders))
	auth.POST("/orders/:code/pay", payOrderHandler(orders, reconciler))
	auth.PATCH("/orders/:code/status", httpx.RequireRole(httpx.RoleStaff), transitionHandler(engine, orders))
	auth.PATCH("/orders/:code/cancel", cancelHandler(engine, orders))

	log.Printf("orders-backend listening on %s", cfg.ListenAddr)
	log.Fatal(r.Run(cfg.ListenAddr))
}
