package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	Port           string
	GinMode        string
	MongoURI       string
	MongoDatabase  string
	RedisAddr      string
	RedisPassword  string
	RabbitMQURI    string
	RabbitExchange string
	JWTSecret      string
	ConsulAddress  string
	ServiceName    string
	ServiceAddress string
	AllowOrigins   string
}

var AppConfig *Config

func LoadConfig() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	AppConfig = &Config{
		Port:           getEnvOrDefault("PORT", "8080"),
		GinMode:        getEnvOrDefault("GIN_MODE", "debug"),
		MongoURI:       getEnvOrDefault("MONGO_URI", "mongodb://localhost:27017"),
		MongoDatabase:  getEnvOrDefault("MONGO_DATABASE", "practice_service"),
		RedisAddr:      getEnvOrDefault("REDIS_ADDR", ""),
		RedisPassword:  getEnvOrDefault("REDIS_PASSWORD", ""),
		RabbitMQURI:    getEnvOrDefault("RABBITMQ_URI", ""),
		RabbitExchange: getEnvOrDefault("RABBITMQ_EXCHANGE", ""),
		JWTSecret:      getEnvOrDefault("JWT_SECRET", ""),
		ConsulAddress:  getEnvOrDefault("CONSUL_ADDRESS", ""),
		ServiceName:    getEnvOrDefault("SERVICE_NAME", "practice-service"),
		ServiceAddress: getEnvOrDefault("SERVICE_ADDRESS", "localhost"),
		AllowOrigins:   getEnvOrDefault("ALLOW_ORIGINS", "http://localhost:3000"),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
