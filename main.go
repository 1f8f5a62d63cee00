package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/spf13/viper"

	"storefront/internal/backend"
	"storefront/internal/controllers"
	"storefront/internal/handlers"
	"storefront/internal/middleware"
	"storefront/internal/notify"
	"storefront/internal/session"
)

func main() {
	// --- Configuration ---
	viper.SetDefault("APP_PORT", ":8080")
	viper.SetDefault("BACKEND_URL", "http://localhost:3000/api")
	viper.SetDefault("SESSION_DB", "session.db")
	viper.SetDefault("JWT_SECRET", "dev_secret")
	viper.SetDefault("HTTP_TIMEOUT", "30s")
	viper.AutomaticEnv()

	appPort := viper.GetString("APP_PORT")

	// --- Session state: identity mirror + event bus ---
	store, err := session.NewStore(viper.GetString("SESSION_DB"))
	if err != nil {
		log.Fatalf("Failed to initialize session store: %v", err)
	}
	bus := session.NewBus()

	// Log resync signals so cross-component traffic is visible in dev.
	go logBusEvents(bus)

	// --- Backend client ---
	client, err := backend.NewClient(backend.Config{
		BaseURL: viper.GetString("BACKEND_URL"),
		Timeout: viper.GetDuration("HTTP_TIMEOUT"),
	})
	if err != nil {
		log.Fatalf("Failed to initialize backend client: %v", err)
	}

	// --- Controllers ---
	registry := controllers.NewRegistry(client, client, store, bus, notify.Log{})

	// --- Handlers ---
	orderHandler := handlers.NewOrderHandler(registry)
	profileHandler := handlers.NewProfileHandler(registry, store)

	// --- Initialize Fiber App ---
	app := fiber.New()

	// --- Middleware ---
	app.Use(logger.New())

	// --- API Routes ---
	verifier := session.NewTokenVerifier(viper.GetString("JWT_SECRET"))
	account := app.Group("/api/v1/account", middleware.AuthRequired(verifier))

	orderHandler.RegisterRoutes(account)
	profileHandler.RegisterRoutes(account)

	// --- Health Check Endpoint ---
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	// --- Start HTTP Server ---
	log.Printf("Starting server on port %s", appPort)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := app.Listen(appPort); err != nil {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	<-quit
	log.Println("Shutting down server...")

	if err := app.Shutdown(); err != nil {
		log.Printf("Error during Fiber shutdown: %v", err)
	}

	log.Println("Server gracefully stopped")
}

// logBusEvents subscribes to both resync topics and logs everything.
func logBusEvents(bus *session.Bus) {
	_, identity := bus.Subscribe(session.TopicIdentityChanged)
	_, cart := bus.Subscribe(session.TopicCartChanged)

	for {
		select {
		case ev := <-identity:
			log.Printf("bus: identity changed for user %s", ev.UserID)
		case ev := <-cart:
			log.Printf("bus: cart changed for user %s", ev.UserID)
		}
	}
}
