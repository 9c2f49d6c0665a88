package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Consent store backends.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreRedis    = "redis"
)

// Server captures process level configuration.
type Server struct {
	Addr        string
	Environment string
	LogLevel    string

	Consent    ConsentConfig
	Evidence   EvidenceConfig
	Generation GenerationConfig
	Ritual     RitualConfig

	DatabaseURL string
	Redis       RedisConfig
	Kafka       KafkaConfig
}

// ConsentConfig controls the consent ledger.
type ConsentConfig struct {
	TTL        time.Duration
	Enforce    bool
	Store      string
	AuditTopic string
}

// EvidenceConfig controls corpus loading and prompt assembly.
type EvidenceConfig struct {
	LibraryDir string
	TopK       int
	MaxHistory int
}

// GenerationConfig points at the completion backend.
type GenerationConfig struct {
	LlamaURL    string
	Timeout     time.Duration
	MaxTokens   int
	Temperature float64
	RPS         float64 // 0 disables rate limiting
	Burst       int
}

// RitualConfig controls the ritual scheduler.
type RitualConfig struct {
	Interval   time.Duration
	RulesFile  string
	OutputPath string
	LedgerPath string
	Topic      string
	Enabled    bool
}

// RedisConfig holds Redis connection configuration.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig holds producer configuration.
type KafkaConfig struct {
	Brokers         string
	Acks            string
	Retries         int
	DeliveryTimeout time.Duration
}

// FromEnv builds a Server config from environment variables so main stays lean.
// Unparseable values keep their defaults.
func FromEnv() Server {
	storeKind := strings.ToLower(envString("CONSENT_STORE", StoreMemory))
	switch storeKind {
	case StoreMemory, StorePostgres, StoreRedis:
	default:
		storeKind = StoreMemory
	}

	return Server{
		Addr:        envString("SOFIE_ADDR", ":8000"),
		Environment: envString("SOFIE_ENV", "development"),
		LogLevel:    envString("LOG_LEVEL", "info"),
		Consent: ConsentConfig{
			TTL:        time.Duration(envInt("CONSENT_TTL_HOURS", 24)) * time.Hour,
			Enforce:    envBool("REQUIRE_CONSENT", true),
			Store:      storeKind,
			AuditTopic: envString("CONSENT_AUDIT_TOPIC", "sofie.consent.audit"),
		},
		Evidence: EvidenceConfig{
			LibraryDir: envString("LIBRARY_DIR", "library"),
			TopK:       envInt("EVIDENCE_TOP_K", 3),
			MaxHistory: envInt("MAX_HISTORY_TURNS", 10),
		},
		Generation: GenerationConfig{
			LlamaURL:    envString("LLAMA_SERVER_URL", "http://localhost:8080"),
			Timeout:     envDuration("LLAMA_TIMEOUT", 60*time.Second),
			MaxTokens:   envInt("LLAMA_MAX_TOKENS", 300),
			Temperature: envFloat("LLAMA_TEMPERATURE", 0.7),
			RPS:         envFloat("LLAMA_RPS", 2),
			Burst:       envInt("LLAMA_BURST", 4),
		},
		Ritual: RitualConfig{
			Interval:   envDuration("RITUAL_INTERVAL", time.Hour),
			RulesFile:  os.Getenv("RITUAL_RULES_FILE"),
			OutputPath: envString("RITUAL_OUTPUT", "ritual_trigger.json"),
			LedgerPath: envString("LEDGER_PATH", "library/somatic_ledger.db"),
			Topic:      envString("RITUAL_TOPIC", "sofie.rituals"),
			Enabled:    envBool("RITUAL_ENABLED", true),
		},
		DatabaseURL: os.Getenv("DATABASE_URL"),
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     envInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Kafka: KafkaConfig{
			Brokers:         os.Getenv("KAFKA_BROKERS"),
			Acks:            envString("KAFKA_ACKS", "all"),
			Retries:         envInt("KAFKA_RETRIES", 3),
			DeliveryTimeout: envDuration("KAFKA_DELIVERY_TIMEOUT", 30*time.Second),
		},
	}
}

// IsProduction reports whether SOFIE_ENV names a production deployment.
func (s Server) IsProduction() bool {
	return strings.EqualFold(s.Environment, "production")
}

func envString(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v, err := strconv.Atoi(strings.TrimSpace(os.Getenv(key))); err == nil && v > 0 {
		return v
	}
	return def
}

func envFloat(key string, def float64) float64 {
	if v, err := strconv.ParseFloat(strings.TrimSpace(os.Getenv(key)), 64); err == nil && v >= 0 {
		return v
	}
	return def
}

func envBool(key string, def bool) bool {
	if v, err := strconv.ParseBool(strings.TrimSpace(os.Getenv(key))); err == nil {
		return v
	}
	return def
}

// envDuration accepts Go durations ("90s") or bare seconds ("90").
func envDuration(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	if d, err := time.ParseDuration(raw); err == nil && d > 0 {
		return d
	}
	if secs, err := strconv.ParseFloat(raw, 64); err == nil && secs > 0 {
		return time.Duration(secs * float64(time.Second))
	}
	return def
}
