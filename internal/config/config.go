package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	MongoDB  MongoDBConfig
	MinIO    MinIOConfig
	Redis    RedisConfig
	RabbitMQ RabbitMQConfig
	Consul   ConsulConfig
	JWT      JWTConfig
	LLM      LLMConfig
	Workflow WorkflowConfig
	Logging  LoggingConfig
}

type ServerConfig struct {
	Port           string
	Host           string
	ServiceName    string
	ServiceID      string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	// RequestTimeout bounds each service operation started by a handler.
	RequestTimeout time.Duration
	CORSOrigins    []string
}

type MongoDBConfig struct {
	URI      string
	Database string
	PoolSize uint64
	Timeout  time.Duration
}

type MinIOConfig struct {
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	UseSSL          bool
	Region          string
	MemoryBucket    string
	URLExpiry       time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type RabbitMQConfig struct {
	URI string
}

type ConsulConfig struct {
	Address string
}

type JWTConfig struct {
	Secret string
}

// LLMConfig points at an OpenAI-compatible chat completion endpoint.
// An empty APIKey leaves the backend unconfigured and every generation
// path uses its deterministic fallback.
type LLMConfig struct {
	APIKey        string
	BaseURL       string
	Model         string
	Timeout       time.Duration
	Temperature   float64
	CallDelay     time.Duration
	QuotaCooldown time.Duration
}

type WorkflowConfig struct {
	MinMemoriesForTest   int
	MinTestsForReport    int
	DefaultQuestionCount int
}

type LoggingConfig struct {
	Mode string
	Dir  string
}

// Load loads the configuration from environment variables, reading a .env
// file first when one is present.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file loaded: %v", err)
	}

	serviceName := getEnv("SERVICE_NAME", "memory-test-service")

	return &Config{
		Server: ServerConfig{
			Port:           getEnv("PORT", "8080"),
			Host:           getEnv("HOST", "0.0.0.0"),
			ServiceName:    serviceName,
			ServiceID:      serviceName + "-" + getEnv("HOSTNAME", "1"),
			ReadTimeout:    getEnvAsDuration("READ_TIMEOUT", 15*time.Second),
			WriteTimeout:   getEnvAsDuration("WRITE_TIMEOUT", 120*time.Second),
			RequestTimeout: getEnvAsDuration("REQUEST_TIMEOUT", 90*time.Second),
			CORSOrigins:    getEnvAsList("CORS_ORIGINS", []string{"*"}),
		},
		MongoDB: MongoDBConfig{
			URI:      getEnv("MONGODB_URI", "mongodb://mongodb:27017/?replicaSet=rs0"),
			Database: getEnv("MEMORY_TEST_MONGO_DB", "memory_test"),
			PoolSize: getEnvAsUint64("MONGODB_POOL_SIZE", 100),
			Timeout:  getEnvAsDuration("MONGODB_TIMEOUT", 10*time.Second),
		},
		MinIO: MinIOConfig{
			Endpoint:        getEnv("MINIO_ENDPOINT", "minio:9000"),
			AccessKeyID:     getEnv("MINIO_ACCESS_KEY", "minioadmin"),
			SecretAccessKey: getEnv("MINIO_SECRET_KEY", "minioadmin"),
			UseSSL:          getEnvAsBool("MINIO_USE_SSL", false),
			Region:          getEnv("MINIO_REGION", "us-east-1"),
			MemoryBucket:    getEnv("MINIO_MEMORY_BUCKET", "memories"),
			URLExpiry:       getEnvAsDuration("MINIO_URL_EXPIRY", time.Hour),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "redis:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		RabbitMQ: RabbitMQConfig{
			URI: getEnv("RABBITMQ_URI", ""),
		},
		Consul: ConsulConfig{
			Address: getEnv("CONSUL_ADDRESS", ""),
		},
		JWT: JWTConfig{
			Secret: getEnv("JWT_SECRET", ""),
		},
		LLM: LLMConfig{
			APIKey:        getEnv("LLM_API_KEY", ""),
			BaseURL:       getEnv("LLM_BASE_URL", "https://api.openai.com/v1"),
			Model:         getEnv("LLM_MODEL", "gpt-3.5-turbo"),
			Timeout:       getEnvAsDuration("LLM_TIMEOUT", 30*time.Second),
			Temperature:   getEnvAsFloat("LLM_TEMPERATURE", 0.7),
			CallDelay:     getEnvAsDuration("LLM_CALL_DELAY", time.Second),
			QuotaCooldown: getEnvAsDuration("LLM_QUOTA_COOLDOWN", 10*time.Minute),
		},
		Workflow: WorkflowConfig{
			MinMemoriesForTest:   getEnvAsInt("MIN_MEMORIES_FOR_TEST", 3),
			MinTestsForReport:    getEnvAsInt("MIN_TESTS_FOR_REPORT", 3),
			DefaultQuestionCount: getEnvAsInt("DEFAULT_QUESTION_COUNT", 5),
		},
		Logging: LoggingConfig{
			Mode: getEnv("LOG_MODE", "development"),
			Dir:  getEnv("LOG_DIR", ""),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		intVal, err := strconv.Atoi(value)
		if err != nil {
			log.Printf("Error converting %s to int: %v", key, err)
			return defaultValue
		}
		return intVal
	}
	return defaultValue
}

func getEnvAsUint64(key string, defaultValue uint64) uint64 {
	if value, exists := os.LookupEnv(key); exists {
		intVal, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			log.Printf("Error converting %s to uint64: %v", key, err)
			return defaultValue
		}
		return intVal
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value, exists := os.LookupEnv(key); exists {
		floatVal, err := strconv.ParseFloat(value, 64)
		if err != nil {
			log.Printf("Error converting %s to float: %v", key, err)
			return defaultValue
		}
		return floatVal
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		boolVal, err := strconv.ParseBool(value)
		if err != nil {
			log.Printf("Error converting %s to bool: %v", key, err)
			return defaultValue
		}
		return boolVal
	}
	return defaultValue
}

// getEnvAsDuration accepts either a Go duration string ("1500ms", "10m")
// or a bare integer number of seconds.
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	intVal, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("Error converting %s to duration: %v", key, err)
		return defaultValue
	}
	return time.Duration(intVal) * time.Second
}

func getEnvAsList(key string, defaultValue []string) []string {
	value, exists := os.LookupEnv(key)
	if !exists || strings.TrimSpace(value) == "" {
		return defaultValue
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
