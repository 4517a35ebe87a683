package main

import (
	"log"
	"os"

	rds "kitchen-system/config"
	"kitchen-system/internal/database"
	"kitchen-system/internal/database/models"
	"kitchen-system/internal/gateway/middleware"
	"kitchen-system/internal/kitchen/bus"
	"kitchen-system/internal/services/orders/handler"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	godotenv.Load()
	server := rds.LoadConfig()

	redisClient := rds.NewRedisClient(server.Redis)
	defer redisClient.Close()

	dsn := os.Getenv("KITCHEN_DSN")
	db, err := database.NewConnection(dsn)
	if err != nil {
		log.Fatalf("Failed to connect to db: %v", err)
	}

	if err := models.MigrateKitchenDB(db); err != nil {
		log.Fatalf("Failed to migrate kitchen database: %v", err)
	}

	eventBus := bus.NewRedisBus(redisClient)
	ordersHandler := handler.NewOrdersHandler(db, redisClient, eventBus, server.Kitchen.Channel)

	r := gin.Default()
	r.Use(middleware.CORS())
	r.Use(middleware.RateLimit(server.Kitchen.RateLimit))

	api := r.Group("/api/v1")
	{
		pos := api.Group("/pos")
		{
			pos.GET("/orders/details", ordersHandler.GetDetails)
			pos.POST("/orders", ordersHandler.CreateOrder)
			pos.GET("/orders/status", ordersHandler.CheckOrderStatus)
			pos.POST("/orders/preparation", ordersHandler.MarkPreparationUpdated)
			pos.POST("/orders/:id/cancel", ordersHandler.ProgressCancel)
			pos.POST("/orders/:id/accept", ordersHandler.ProgressAccept)
			pos.POST("/orders/:id/done", ordersHandler.ProgressDone)
			pos.POST("/lines/:id/progress", ordersHandler.LineProgress)
		}
		api.POST("/kitchen/orders", ordersHandler.CreateKitchenOrder)
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "healthy", "message": "Orders service is running"})
	})

	log.Printf(" 🍳 Orders service listening on %s", server.Orders.ListenAddr)
	if err := r.Run(server.Orders.ListenAddr); err != nil {
		log.Fatalf("Failed to serve: %v", err)
	}
}
