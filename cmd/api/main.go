package main

import (
	"log"
	"os"

	"royaltypool/internal/routes"
	"royaltypool/pkg/config"
)

func main() {
	// Initialize database
	config.InitDB()

	// Run pending schema migrations
	config.ExecuteMigrations()

	// Initialize RabbitMQ (optional, the API runs without it)
	if os.Getenv("RABBITMQ_HOST") != "" {
		config.InitRabbitMQ()
		defer func() {
			if config.RabbitMQ != nil {
				config.RabbitMQ.Close()
			}
		}()
		log.Println("RabbitMQ initialized successfully")
	} else {
		log.Println("RabbitMQ not configured, skipping initialization")
	}

	// Set up router
	r := routes.SetupRouter()

	// Start server
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	if err := r.Run(":" + port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
