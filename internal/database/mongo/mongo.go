package mongo

import (
	"context"
	"fmt"
	"time"

	"memory-test-service/internal/config"
	"memory-test-service/internal/logger"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
)

const (
	CollectionMemories    = "memories"
	CollectionTests       = "tests"
	CollectionTestResults = "test_results"
	CollectionUsers       = "users"
	CollectionReports     = "reports"
)

var (
	Client   *mongo.Client
	Database *mongo.Database
)

func InitMongoDB(cfg *config.MongoDBConfig, log *logger.Logger) error {
	clientOptions := options.Client().
		ApplyURI(cfg.URI).
		SetMaxPoolSize(cfg.PoolSize).
		SetTimeout(cfg.Timeout)

	var err error
	Client, err = mongo.Connect(clientOptions)
	if err != nil {
		return fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer pingCancel()
	if err := Client.Ping(pingCtx, readpref.Primary()); err != nil {
		return fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	Database = Client.Database(cfg.Database)
	log.Info("Connected to MongoDB", "database", cfg.Database)

	return nil
}

func CloseDB(log *logger.Logger) {
	if Client != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := Client.Disconnect(ctx); err != nil {
			log.Error("Error disconnecting from MongoDB", "error", err)
		}
	}
}
