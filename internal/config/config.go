package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	// Environment
	Environment string

	// Database
	DatabaseURL    string
	MigrateOnStart bool
	MigrationsDir  string
	DBMaxOpenConns int

	// Redis
	RedisURL string

	// Server
	Port        string
	FrontendURL string

	// Tables
	TablesDir string

	// Simulation
	PhysicsStepMsec        int
	FrameIntervalMsec      int
	MaxSessions            int
	SessionIdleSeconds     int
	IdleWorkerPollInterval int

	// Plunger tuning applied under every table's own overrides. Nil when unset.
	PlungerReverseImpulseFactor *float64
	PlungerScatterShape         *float64

	// Security
	JWTSecret        string
	AdminTokenTTLMin int
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	return &Config{
		// Environment
		Environment: getEnv("APP_ENV", "development"),

		// Database
		DatabaseURL:    getEnv("DATABASE_URL", "postgres://localhost:5432/pinball?sslmode=disable"),
		MigrateOnStart: getEnvBool("MIGRATE_ON_START", false),
		MigrationsDir:  getEnv("MIGRATIONS_DIR", "migrations"),
		DBMaxOpenConns: getEnvInt("DB_MAX_OPEN_CONNS", 25),

		// Redis
		RedisURL: getEnv("REDIS_URL", "redis://localhost:6379/0"),

		// Server
		Port:        getEnv("APP_PORT", "8080"),
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:5173"),

		// Tables
		TablesDir: getEnv("TABLES_DIR", "tables"),

		// Simulation
		PhysicsStepMsec:        getEnvInt("PHYSICS_STEP_MS", 10),
		FrameIntervalMsec:      getEnvInt("FRAME_INTERVAL_MS", 16),
		MaxSessions:            getEnvInt("MAX_SESSIONS", 200),
		SessionIdleSeconds:     getEnvInt("SESSION_IDLE_SECONDS", 300),
		IdleWorkerPollInterval: getEnvInt("IDLE_WORKER_POLL_SECONDS", 5),

		PlungerReverseImpulseFactor: getEnvFloatOpt("PLUNGER_REVERSE_IMPULSE_FACTOR"),
		PlungerScatterShape:         getEnvFloatOpt("PLUNGER_SCATTER_SHAPE"),

		// Security
		JWTSecret:        getEnv("JWT_SECRET", "change-me-in-production"),
		AdminTokenTTLMin: getEnvInt("ADMIN_TOKEN_TTL_MINUTES", 240),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloatOpt(key string) *float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return &f
		}
	}
	return nil
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
