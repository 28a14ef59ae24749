package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App        AppConfig
	Simulation SimulationConfig
	Monitor    MonitorConfig
	SMTP       SMTPConfig
	Auth       AuthConfig
}

type AppConfig struct {
	Port               string
	BaseURL            string
	ClientURL          string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
}

type SimulationConfig struct {
	// URL is the websocket endpoint of the emergence simulation.
	URL              string
	ReconnectMinWait time.Duration
	ReconnectMaxWait time.Duration
}

type MonitorConfig struct {
	WindowSize      int
	MaxNodes        int
	CanvasWidth     float64
	CanvasHeight    float64
	TickIntervalMs  int
	FrameIntervalMs int

	// Crossing thresholds for the derived metrics.
	NegentropyThreshold float64
	FeedbackThreshold   float64
	ResilienceThreshold float64

	AlertTTL       time.Duration
	InteractionCap int

	// Alerts at or above this severity are also mailed.
	AlertMailSeverity string
	AlertMailTo       string
}

type SMTPConfig struct {
	Host       string
	Port       int
	Email      string
	Password   string
	SenderName string
}

type AuthConfig struct {
	// JwtSecret guards the dashboard API when set; empty disables auth,
	// which is the expected mode on a trusted lab network.
	JwtSecret string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			BaseURL:            getEnv("APP_BASE_URL", "http://localhost:3000"),
			ClientURL:          getEnv("CLIENT_URL", "http://localhost:5173"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "app.log.csv"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", ""),
			RedisURL:           getEnv("REDIS_URL", ""),
		},
		Simulation: SimulationConfig{
			URL:              getEnv("SIMULATION_WS_URL", "ws://localhost:8765/ws"),
			ReconnectMinWait: time.Duration(getEnvAsInt("SIM_RECONNECT_MIN_MS", 1000)) * time.Millisecond,
			ReconnectMaxWait: time.Duration(getEnvAsInt("SIM_RECONNECT_MAX_MS", 30000)) * time.Millisecond,
		},
		Monitor: MonitorConfig{
			WindowSize:          getEnvAsInt("METRIC_WINDOW_SIZE", 50),
			MaxNodes:            getEnvAsInt("GRAPH_MAX_NODES", 75),
			CanvasWidth:         getEnvAsFloat("GRAPH_CANVAS_WIDTH", 1280),
			CanvasHeight:        getEnvAsFloat("GRAPH_CANVAS_HEIGHT", 720),
			TickIntervalMs:      getEnvAsInt("GRAPH_TICK_MS", 16),
			FrameIntervalMs:     getEnvAsInt("GRAPH_FRAME_MS", 50),
			NegentropyThreshold: getEnvAsFloat("THRESHOLD_NEGENTROPY", 0.5),
			FeedbackThreshold:   getEnvAsFloat("THRESHOLD_FEEDBACK", 1.2),
			ResilienceThreshold: getEnvAsFloat("THRESHOLD_RESILIENCE", 0.75),
			AlertTTL:            time.Duration(getEnvAsInt("ALERT_TTL_MINUTES", 30)) * time.Minute,
			InteractionCap:      getEnvAsInt("INTERACTION_LOG_CAP", 100),
			AlertMailSeverity:   getEnv("ALERT_MAIL_SEVERITY", "critical"),
			AlertMailTo:         getEnv("ALERT_MAIL_TO", ""),
		},
		SMTP: SMTPConfig{
			Host:       getEnv("SMTP_HOST", ""),
			Port:       getEnvAsInt("SMTP_PORT", 587),
			Email:      getEnv("SMTP_EMAIL", ""),
			Password:   getEnv("SMTP_PASSWORD", ""),
			SenderName: getEnv("SMTP_SENDER_NAME", "Emergence Monitor"),
		},
		Auth: AuthConfig{
			JwtSecret: getEnv("DASHBOARD_JWT_SECRET", ""),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseFloat(strValue, 64); err == nil {
		return value
	}
	return fallback
}
