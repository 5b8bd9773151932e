package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"printshop-assistant/internal/completion"
	"printshop-assistant/internal/config"
	"printshop-assistant/internal/database"
	"printshop-assistant/internal/events"
	"printshop-assistant/internal/goal"
	"printshop-assistant/internal/handlers"
	"printshop-assistant/internal/invoice"
	"printshop-assistant/internal/middleware"
	"printshop-assistant/internal/order"
	"printshop-assistant/internal/pricing"
	"printshop-assistant/internal/services"
	"printshop-assistant/internal/session"
	"printshop-assistant/internal/supabase"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Set Gin mode
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Collaborator clients
	completionClient := completion.NewClient(cfg.CompletionBaseURL, cfg.CompletionAPIKey, cfg.CompletionModel)

	var pricingClient *pricing.Client
	if cfg.PricingAPIBaseURL != "" {
		pricingClient = pricing.NewClient(cfg.PricingAPIBaseURL, cfg.PricingAPIKey)
	} else {
		log.Println("Warning: PRICING_API_BASE_URL not set. Product pricing lookups are disabled.")
	}

	var invoiceClient *invoice.Client
	if cfg.InvoiceAPIBaseURL != "" {
		invoiceClient = invoice.NewClient(cfg.InvoiceAPIBaseURL, cfg.InvoiceAPIKey)
	} else {
		log.Println("Warning: INVOICE_API_BASE_URL not set. Completed orders will not be invoiced automatically.")
	}

	// Supabase clients
	supabaseClient, err := supabase.NewClient(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize Supabase client: %v", err)
	}

	storageClient, err := supabase.NewStorageClient(cfg.SupabaseURL, cfg.SupabasePublishableKey, cfg.SupabaseStorageBucket)
	if err != nil {
		log.Fatalf("Failed to initialize storage client: %v", err)
	}

	realtimeClient := supabase.NewRealtimeClient(supabaseClient.Supabase)

	// Durable session store
	var repo session.Repository
	if cfg.DatabaseURL != "" {
		dbClient, err := database.NewClient(cfg.DatabaseURL)
		if err != nil {
			log.Printf("Warning: Failed to initialize database client: %v", err)
			log.Println("Sessions will be kept in memory only.")
		} else {
			defer dbClient.Close()
			if err := dbClient.Migrate(); err != nil {
				log.Printf("Warning: Migration failed: %v", err)
			} else {
				log.Println("Migrations completed successfully")
			}
			repo = dbClient
		}
	} else {
		log.Println("Warning: DATABASE_URL not set. Sessions will be kept in memory only.")
	}

	// Optional event stream
	var producer *events.Producer
	if cfg.KafkaBrokers != "" {
		producer, err = events.NewProducer(cfg.KafkaBrokers)
		if err != nil {
			log.Printf("Warning: Failed to connect Kafka producer: %v", err)
		} else {
			defer producer.Close()
		}
	}

	store := session.NewStore(repo, time.Duration(cfg.SessionTimeoutMinutes)*time.Minute, cfg.MaxHistory)
	if producer != nil {
		p := producer
		store.OnLead = func(sessionID string, rec *order.Record) {
			p.Publish(events.TopicLeadCaptured, map[string]interface{}{
				"session_id":     sessionID,
				"customer_name":  rec.CustomerName,
				"email":          rec.Email,
				"total_price":    rec.TotalPrice,
				"total_quantity": rec.TotalQuantity,
			})
		}
	}

	resolver := goal.NewResolver(goal.NewCompletionClassifier(completionClient))

	conversation := services.NewConversationService(
		store, resolver, completionClient, pricingClient, invoiceClient,
		storageClient, realtimeClient, producer)

	chatHandler := handlers.NewChatHandler(conversation)
	uploadHandler := handlers.NewUploadHandler(conversation)
	sessionHandler := handlers.NewSessionHandler(conversation)

	// Background expiry sweep promotes abandoned orders to leads.
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			if n := store.CleanupExpired(context.Background()); n > 0 {
				log.Printf("Expired %d idle sessions", n)
			}
		}
	}()

	// Setup router
	router := gin.Default()

	// Health check (no auth)
	router.GET("/health", handlers.HealthHandler)

	// API routes
	api := router.Group("/api/v1")
	api.Use(middleware.AuthMiddleware(cfg))

	chat := api.Group("")
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		chat.Use(middleware.RateLimit(rdb, 30, time.Minute))
	}
	chat.POST("/sessions/:session_id/messages", chatHandler.PostMessage)

	api.POST("/sessions/:session_id/designs", uploadHandler.UploadDesign)
	api.GET("/sessions/:session_id/order", sessionHandler.GetOrder)
	api.DELETE("/sessions/:session_id", sessionHandler.Reset)

	// Start server
	port := cfg.Port
	if port == "" {
		port = "8080"
	}

	log.Printf("Server starting on port %s", port)
	if err := http.ListenAndServe(":"+port, router); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
