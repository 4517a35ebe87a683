package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Redis   RedisConfig
	DB      DBConfig
	Orders  OrdersConfig
	Kitchen KitchenConfig
}

type DBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
}

// OrdersConfig locates the orders service, the remote store every
// kitchen screen talks to.
type OrdersConfig struct {
	ListenAddr string
	BaseURL    string
}

type KitchenConfig struct {
	ListenAddr string
	ShopID     int64
	Channel    string
	RateLimit  string
}

func LoadConfig() Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	shopID, _ := strconv.ParseInt(getEnv("KITCHEN_SHOP_ID", "0"), 10, 64)

	return Config{
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		Orders: OrdersConfig{
			ListenAddr: getEnv("ORDERS_LISTEN_ADDR", ":8081"),
			BaseURL:    getEnv("ORDERS_BASE_URL", "http://localhost:8081"),
		},
		Kitchen: KitchenConfig{
			ListenAddr: getEnv("KITCHEN_LISTEN_ADDR", ":8080"),
			ShopID:     shopID,
			Channel:    getEnv("KITCHEN_BUS_CHANNEL", "pos_order_created"),
			RateLimit:  getEnv("KITCHEN_RATE_LIMIT", "60-M"),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
