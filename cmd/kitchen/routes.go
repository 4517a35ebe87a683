package main

import (
	"context"
	"log"
	"net/http"
	"time"

	rds "kitchen-system/config"
	"kitchen-system/internal/gateway/handlers"
	"kitchen-system/internal/gateway/middleware"
	"kitchen-system/internal/kitchen/bus"
	"kitchen-system/internal/kitchen/remote"
	"kitchen-system/internal/kitchen/session"
	"kitchen-system/internal/kitchen/submitter"
	"kitchen-system/internal/kitchen/tracker"

	"github.com/gin-gonic/gin"
)

func main() {
	server := rds.LoadConfig()

	redisClient := rds.NewRedisClient(server.Redis)
	defer redisClient.Close()

	ctx := context.Background()

	sessionStore := session.NewRedisStore(redisClient, "")
	sess, err := session.Resolve(ctx, sessionStore, server.Kitchen.ShopID)
	if err != nil {
		log.Fatalf("Failed to resolve session shop id: %v", err)
	}

	ordersClient := remote.NewClient(server.Orders.BaseURL)

	orderTracker := tracker.New(ordersClient, sess)
	if err := orderTracker.Initialize(ctx); err != nil {
		// Not fatal: the screen starts empty and heals on the next
		// refresh or notification.
		log.Printf("Warning: initial order fetch failed: %v", err)
	}

	orderSubmitter := submitter.New(ordersClient, orderTracker.ApplyFullRefresh)

	eventBus := bus.NewRedisBus(redisClient)
	sub, err := eventBus.Subscribe(ctx, server.Kitchen.Channel, orderTracker.HandleNotification)
	if err != nil {
		log.Fatalf("Failed to subscribe to %s: %v", server.Kitchen.Channel, err)
	}
	defer sub.Close()

	kitchenHandler := handlers.NewKitchenHTTPHandler(orderTracker, orderSubmitter)

	r := gin.Default()

	r.Use(middleware.CORS())
	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	r.Use(middleware.RateLimit(server.Kitchen.RateLimit))

	// --- Public API Group ---
	public := r.Group("/api/v1")
	{
		auth := public.Group("/auth")
		{
			auth.POST("/login", kitchenHandler.Login)
		}
	}

	// --- Protected API Group ---
	protected := r.Group("/api/v1")
	protected.Use(middleware.JWTAuth())
	{
		kitchenGroup := protected.Group("/kitchen")
		{
			kitchenGroup.GET("/state", kitchenHandler.State)
			kitchenGroup.POST("/orders/:id/cancel", kitchenHandler.CancelOrder)
			kitchenGroup.POST("/orders/:id/accept", kitchenHandler.AcceptOrder)
			kitchenGroup.POST("/orders/:id/done", kitchenHandler.DoneOrder)
			kitchenGroup.POST("/lines/:id/accept", kitchenHandler.AcceptOrderLine)
			kitchenGroup.POST("/stage/:stage", kitchenHandler.SelectStage)
			kitchenGroup.POST("/submit", kitchenHandler.SubmitOrder)
		}
	}

	r.GET("/health", healthCheckHandler())

	log.Printf(" 🍽  Kitchen screen listening on %s", server.Kitchen.ListenAddr)
	if err := r.Run(server.Kitchen.ListenAddr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func healthCheckHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"message":   "Server is running",
			"timestamp": time.Now(),
		})
	}
}
