package main

import (
	"log"
	"net/http"
	"time"

	"practice-service/internal/auth"
	"practice-service/internal/config"
	"practice-service/internal/db"
	"practice-service/internal/event"
	"practice-service/internal/handlers"
	"practice-service/internal/repository"
	"practice-service/internal/service"
	"practice-service/internal/snapshot"
	"practice-service/pkg/discovery"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	config.LoadConfig()
	cfg := config.AppConfig
	gin.SetMode(cfg.GinMode)

	db.InitMongo(cfg.MongoURI)
	database := db.Client.Database(cfg.MongoDatabase)

	// Snapshot store: Redis when configured, in-memory otherwise.
	var store snapshot.Store
	if cfg.RedisAddr != "" {
		store = snapshot.NewRedisStore(db.InitRedis(cfg.RedisAddr, cfg.RedisPassword))
	} else {
		log.Println("Redis not configured, session snapshots are in-memory only")
		store = snapshot.NewMemoryStore()
	}
	codec := snapshot.NewCodec(store)

	// RabbitMQ event publisher
	var publisher *event.EventPublisher
	if cfg.RabbitMQURI != "" && cfg.RabbitExchange != "" {
		var err error
		publisher, err = event.NewEventPublisher(cfg.RabbitMQURI, cfg.RabbitExchange)
		if err != nil {
			log.Fatalf("Failed to connect to RabbitMQ: %v", err)
		}
		defer publisher.Close()
	} else {
		log.Println("RabbitMQ not configured, session events will not be published")
	}

	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.AllowOrigins},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Content-Length", "Accept-Encoding", "X-CSRF-Token", "Authorization", "accept", "origin", "Cache-Control", "X-Requested-With", "X-User-ID"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Decks and questions
	deckRepo := repository.NewDeckRepository(database)
	questionRepo := repository.NewQuestionRepository(database)
	deckService := service.NewDeckService(deckRepo, questionRepo)
	deckHandler := handlers.NewDeckHandler(deckService)

	// Sessions and summaries
	summaryRepo := repository.NewSummaryRepository(database)
	practiceService := service.NewPracticeService(deckRepo, questionRepo, summaryRepo, codec)
	sessionHandler := handlers.NewSessionHandler(practiceService)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": cfg.ServiceName})
	})

	publicDeck := r.Group("/public/practice/deck")
	{
		publicDeck.GET("/", deckHandler.ListDecks)
		publicDeck.GET("/:id", deckHandler.GetDeck)
		publicDeck.GET("/:id/questions", deckHandler.GetDeckQuestions)
	}

	protectedDeck := r.Group("/protected/practice/deck")
	protectedDeck.Use(requireUser(cfg.JWTSecret))
	{
		protectedDeck.POST("/", deckHandler.CreateDeck)
		protectedDeck.POST("/question", deckHandler.CreateQuestion)
	}

	setupSessionRoutes(r, sessionHandler, cfg.JWTSecret, publisher)

	// Consul registration
	if cfg.ConsulAddress != "" {
		registry, err := discovery.NewServiceRegistry(cfg)
		if err != nil {
			log.Fatalf("Service discovery init failed: %v", err)
		}
		if err := registry.Register(); err != nil {
			log.Fatalf("Service registration failed: %v", err)
		}
		defer func() {
			if err := registry.Deregister(); err != nil {
				log.Printf("Service deregistration failed: %v", err)
			}
		}()
	} else {
		log.Println("Consul not configured, skipping service registration")
	}

	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Server stopped: %v", err)
	}
}

// requireUser resolves the caller's identity from the gateway-set X-User-ID
// header, falling back to a Bearer JWT when a secret is configured.
func requireUser(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetHeader("X-User-ID")
		if userID == "" && jwtSecret != "" {
			id, err := auth.UserIDFromBearer(c.GetHeader("Authorization"), jwtSecret)
			if err != nil {
				c.JSON(http.StatusUnauthorized, gin.H{
					"error": "Invalid token",
					"code":  "INVALID_TOKEN",
				})
				c.Abort()
				return
			}
			userID = id
		}
		if userID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Authentication required",
				"code":  "MISSING_USER_ID",
			})
			c.Abort()
			return
		}
		c.Set("userID", userID)
		c.Next()
	}
}

func setupSessionRoutes(r *gin.Engine, sessionHandler *handlers.SessionHandler, jwtSecret string, publisher *event.EventPublisher) {
	protectedSession := r.Group("/protected/practice/session")
	protectedSession.Use(requireUser(jwtSecret))
	{
		// === CORE SESSION LIFECYCLE ===

		protectedSession.POST("/", func(c *gin.Context) {
			sessionHandler.StartSession(c)
			if publisher != nil {
				publisher.Publish(event.SessionStarted, gin.H{
					"user_id":   c.GetString("userID"),
					"timestamp": time.Now(),
				})
			}
		})

		protectedSession.POST("/answer", func(c *gin.Context) {
			sessionHandler.SubmitAnswer(c)
			if publisher != nil {
				publisher.Publish(event.SessionAnswered, gin.H{
					"user_id":   c.GetString("userID"),
					"timestamp": time.Now(),
				})
			}
		})

		protectedSession.POST("/next", sessionHandler.NextQuestion)

		protectedSession.POST("/pause", func(c *gin.Context) {
			sessionHandler.PauseSession(c)
			if publisher != nil {
				publisher.Publish(event.SessionPaused, gin.H{
					"user_id":   c.GetString("userID"),
					"timestamp": time.Now(),
				})
			}
		})

		protectedSession.POST("/resume", func(c *gin.Context) {
			sessionHandler.ResumeSession(c)
			if publisher != nil {
				publisher.Publish(event.SessionResumed, gin.H{
					"user_id":   c.GetString("userID"),
					"timestamp": time.Now(),
				})
			}
		})

		protectedSession.POST("/end", func(c *gin.Context) {
			sessionHandler.EndSession(c)
			if publisher != nil {
				publisher.Publish(event.SessionCompleted, gin.H{
					"user_id":   c.GetString("userID"),
					"timestamp": time.Now(),
				})
			}
		})

		protectedSession.POST("/abandon", func(c *gin.Context) {
			sessionHandler.AbandonSession(c)
			if publisher != nil {
				publisher.Publish(event.SessionAbandoned, gin.H{
					"user_id":   c.GetString("userID"),
					"timestamp": time.Now(),
				})
			}
		})

		protectedSession.DELETE("/", sessionHandler.ResetSession)

		// === STATE AND RECOVERY ===

		protectedSession.GET("/", sessionHandler.GetState)
		protectedSession.GET("/recoverable", sessionHandler.CheckRecoverable)

		protectedSession.POST("/recover", func(c *gin.Context) {
			sessionHandler.RecoverSession(c)
			if publisher != nil {
				publisher.Publish(event.SessionRecovered, gin.H{
					"user_id":   c.GetString("userID"),
					"timestamp": time.Now(),
				})
			}
		})

		protectedSession.POST("/recover/dismiss", sessionHandler.DismissRecovery)
	}

	// === RESULTS ===

	protectedSummary := r.Group("/protected/practice/summary")
	protectedSummary.Use(requireUser(jwtSecret))
	{
		protectedSummary.GET("/", sessionHandler.GetSummaries)
	}
}
