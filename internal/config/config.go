package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config regroupe toute la configuration du serveur, lue depuis l'environnement.
type Config struct {
	Port    string
	BaseURL string

	// Stockage des collections mock : "memory" (défaut) ou "redis"
	StoreBackend string
	SeedData     bool

	RedisHost     string
	RedisPassword string

	ElasticURL      string
	ElasticUser     string
	ElasticPassword string

	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioPublicURL string
	MinioUseSSL    bool

	ChromeWSURL    string
	ScrapeAttempts int
	ScrapeInterval time.Duration

	SearchAPIURL string
	SearchAPIKey string

	LLMURL    string
	LLMAPIKey string
	LLMModel  string

	RemoveBgURL    string
	RemoveBgAPIKey string

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	MailFrom     string

	ExternalTimeout time.Duration

	// Simulation du mock API
	MockFaultRate float64
	MockLatency   time.Duration
	CODDelay      time.Duration

	GenerateMaxPerMinute int
	CORSOrigins          []string
}

// Load charge le fichier .env (s'il existe) puis construit la configuration.
func Load() *Config {
	err := godotenv.Load(".env")
	if err != nil {
		log.Println("⚠️  Aucun fichier .env trouvé, on continue avec les variables d'environnement du système")
	} else {
		log.Println("✅ Fichier .env chargé avec succès")
	}
	return FromEnv()
}

// FromEnv lit la configuration sans toucher au fichier .env.
func FromEnv() *Config {
	port := getEnv("PORT", "8080")
	return &Config{
		Port:         port,
		BaseURL:      strings.TrimRight(getEnv("BASE_URL", "http://localhost:"+port), "/"),
		StoreBackend: strings.ToLower(getEnv("STORE_BACKEND", "memory")),
		SeedData:     getEnv("SEED_DATA", "true") == "true",

		RedisHost:     os.Getenv("REDIS_HOST"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		ElasticURL:      os.Getenv("ELASTIC_URL"),
		ElasticUser:     os.Getenv("ELASTIC_USER"),
		ElasticPassword: os.Getenv("ELASTIC_PASSWORD"),

		MinioEndpoint:  os.Getenv("MINIO_ENDPOINT"),
		MinioAccessKey: os.Getenv("MINIO_ACCESS_KEY"),
		MinioSecretKey: os.Getenv("MINIO_SECRET_KEY"),
		MinioBucket:    getEnv("MINIO_BUCKET", "landing-images"),
		MinioPublicURL: os.Getenv("MINIO_PUBLIC_URL"),
		MinioUseSSL:    os.Getenv("MINIO_USE_SSL") == "true",

		ChromeWSURL:    os.Getenv("CHROME_WS_URL"),
		ScrapeAttempts: getInt("SCRAPE_POLL_ATTEMPTS", 10),
		ScrapeInterval: getDuration("SCRAPE_POLL_INTERVAL_MS", 1500*time.Millisecond),

		SearchAPIURL: getEnv("SEARCH_API_URL", "https://google.serper.dev"),
		SearchAPIKey: os.Getenv("SEARCH_API_KEY"),

		LLMURL:    getEnv("LLM_API_URL", "https://api.openai.com/v1"),
		LLMAPIKey: os.Getenv("LLM_API_KEY"),
		LLMModel:  getEnv("LLM_MODEL", "gpt-4o-mini"),

		RemoveBgURL:    getEnv("REMOVEBG_API_URL", "https://api.remove.bg/v1.0"),
		RemoveBgAPIKey: os.Getenv("REMOVEBG_API_KEY"),

		SMTPHost:     os.Getenv("SMTP_HOST"),
		SMTPPort:     getInt("SMTP_PORT", 587),
		SMTPUsername: os.Getenv("SMTP_USERNAME"),
		SMTPPassword: os.Getenv("SMTP_PASSWORD"),
		MailFrom:     getEnv("MAIL_FROM", "noreply@codpage.local"),

		ExternalTimeout: getDuration("EXTERNAL_TIMEOUT_MS", 30*time.Second),

		MockFaultRate: getFloat("MOCK_FAULT_RATE", 0),
		MockLatency:   getDuration("MOCK_LATENCY_MS", 0),
		CODDelay:      getDuration("COD_DELAY_MS", 800*time.Millisecond),

		GenerateMaxPerMinute: getInt("GENERATE_MAX_PER_MINUTE", 5),
		CORSOrigins:          splitList(getEnv("CORS_ORIGINS", "http://localhost:3000")),
	}
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		log.Printf("⚠️ %s invalide (%q), valeur par défaut %d", key, raw, defaultValue)
		return defaultValue
	}
	return v
}

func getFloat(key string, defaultValue float64) float64 {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		log.Printf("⚠️ %s invalide (%q), valeur par défaut %v", key, raw, defaultValue)
		return defaultValue
	}
	return v
}

// getDuration lit une valeur exprimée en millisecondes.
func getDuration(key string, defaultValue time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	ms, err := strconv.Atoi(raw)
	if err != nil || ms < 0 {
		log.Printf("⚠️ %s invalide (%q), valeur par défaut %s", key, raw, defaultValue)
		return defaultValue
	}
	return time.Duration(ms) * time.Millisecond
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
