package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"memory-test-service/internal/config"
	"memory-test-service/internal/database/minio"
	"memory-test-service/internal/database/mongo"
	"memory-test-service/internal/database/redis"
	"memory-test-service/internal/events"
	"memory-test-service/internal/handlers"
	"memory-test-service/internal/llm"
	"memory-test-service/internal/logger"
	"memory-test-service/internal/middleware"
	"memory-test-service/internal/repository"
	"memory-test-service/internal/service"
	"memory-test-service/pkg/discovery"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ServiceContainer holds all service dependencies
type ServiceContainer struct {
	TestRepository   *repository.TestRepository
	MemoryRepository *repository.MemoryRepository
	ReportRepository *repository.ReportRepository
	TestService      *service.TestService
	MemoryService    *service.MemoryService
	ReportService    *service.ReportService
	EventPublisher   events.Publisher
	ServiceDiscovery *discovery.ServiceRegistry
}

type indexer interface {
	InitializeIndexes(ctx context.Context) error
}

func main() {
	cfg := config.Load()

	appLog, err := logger.New(cfg.Logging.Mode, cfg.Logging.Dir)
	if err != nil {
		log.Fatalf("Failed to set up logging: %v", err)
	}
	defer appLog.Sync()

	if err := mongo.InitMongoDB(&cfg.MongoDB, appLog); err != nil {
		appLog.Fatal("Failed to initialize MongoDB", "error", err)
	}
	defer mongo.CloseDB(appLog)

	if err := minio.InitMinioClient(&cfg.MinIO, appLog); err != nil {
		appLog.Fatal("Failed to initialize MinIO client", "error", err)
	}

	// Redis only backs the quota cooldown, so the service runs without it.
	var quotaGate service.QuotaGate
	if err := redis.InitRedis(&cfg.Redis, appLog); err != nil {
		appLog.Warn("Redis unavailable, quota cooldown is disabled", "error", err)
	} else {
		quotaGate = repository.NewQuotaRepository(redis.RedisClient)
		defer redis.CloseRedis()
	}

	// Initialize repositories
	testRepository := repository.NewTestRepository(mongo.Database)
	memoryRepository := repository.NewMemoryRepository(mongo.Database)
	reportRepository := repository.NewReportRepository(mongo.Database)
	userRepository := repository.NewUserRepository(mongo.Database)
	imageRepository := repository.NewImageRepository(minio.MinioClient, cfg.MinIO.MemoryBucket)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	for _, idx := range []indexer{testRepository, memoryRepository, reportRepository} {
		if err := idx.InitializeIndexes(ctx); err != nil {
			appLog.Warn("Failed to create database indexes", "error", err)
		}
	}
	cancel()

	// Language model
	var backend llm.Backend
	llmClient := llm.NewClient(&cfg.LLM, appLog)
	if llmClient.Configured() {
		backend = llmClient
	} else {
		appLog.Warn("LLM_API_KEY is not set, questions and reports use templates")
	}
	gateway := service.NewModelGateway(backend, quotaGate, cfg.LLM.QuotaCooldown, appLog)

	var eventPublisher events.Publisher
	publisher, err := events.NewEventPublisher(cfg.RabbitMQ.URI, appLog)
	if err != nil {
		appLog.Warn("Failed to initialize event publisher, events are dropped", "error", err)
		publisher, _ = events.NewEventPublisher("", appLog)
	}
	eventPublisher = publisher
	defer eventPublisher.Close()

	authorizer := service.NewAuthorizer(userRepository)
	questionGenerator := service.NewQuestionGenerator(gateway, service.QuestionGeneratorConfig{
		Temperature: cfg.LLM.Temperature,
		CallDelay:   cfg.LLM.CallDelay,
	}, appLog)

	container := &ServiceContainer{
		TestRepository:   testRepository,
		MemoryRepository: memoryRepository,
		ReportRepository: reportRepository,
		TestService: service.NewTestService(
			testRepository,
			memoryRepository,
			userRepository,
			authorizer,
			questionGenerator,
			service.NewAnalyzer(gateway, cfg.LLM.Temperature, appLog),
			eventPublisher,
			service.TestServiceConfig{
				MinMemoriesForTest:   cfg.Workflow.MinMemoriesForTest,
				DefaultQuestionCount: cfg.Workflow.DefaultQuestionCount,
			},
			appLog,
		),
		MemoryService: service.NewMemoryService(memoryRepository, imageRepository, authorizer, eventPublisher, cfg.MinIO.URLExpiry, appLog),
		ReportService: service.NewReportService(
			testRepository,
			userRepository,
			reportRepository,
			authorizer,
			service.NewReportGenerator(gateway, cfg.LLM.Temperature, appLog),
			cfg.Workflow.MinTestsForReport,
			appLog,
		),
		EventPublisher: eventPublisher,
	}

	if cfg.Consul.Address != "" {
		serviceRegistry, err := discovery.NewServiceRegistry(
			cfg.Consul.Address,
			cfg.Server.ServiceName,
			cfg.Server.ServiceID,
			cfg.Server.Host,
			cfg.Server.Port,
			appLog,
		)
		if err != nil {
			appLog.Warn("Failed to initialize service discovery", "error", err)
		} else if err := serviceRegistry.Register(); err != nil {
			appLog.Warn("Failed to register with Consul", "error", err)
		} else {
			container.ServiceDiscovery = serviceRegistry
			defer serviceRegistry.Deregister()
		}
	}

	app := fiber.New(fiber.Config{
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.Server.CORSOrigins,
		AllowMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization"},
	}))

	app.Get("/health", func(c fiber.Ctx) error {
		return c.Status(fiber.StatusOK).SendString("Memory Test Service is healthy")
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	api := app.Group("/api")
	api.Use(middleware.NewJWTAuth(cfg.JWT.Secret, appLog).Handler())

	timeout := cfg.Server.RequestTimeout
	handlers.NewMemoryHandler(container.MemoryService, timeout, appLog).RegisterRoutes(api)
	handlers.NewTestHandler(container.TestService, timeout, appLog).RegisterRoutes(api)
	handlers.NewReportHandler(container.ReportService, timeout, appLog).RegisterRoutes(api)

	shutdownChan := make(chan os.Signal, 1)
	doneChan := make(chan bool, 1)

	signal.Notify(shutdownChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		appLog.Info("Starting server", "port", cfg.Server.Port)
		if err := app.Listen(fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)); err != nil {
			appLog.Fatal("Error starting server", "error", err)
		}
		doneChan <- true
	}()

	<-shutdownChan
	appLog.Info("Shutting down server...")

	ctx, cancel = context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		appLog.Error("Error shutting down HTTP server", "error", err)
	}

	<-doneChan
	appLog.Info("Server exited, goodbye!")
}
