package config

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// ListenerConfig holds the network settings for a single listener (main or management).
type ListenerConfig struct {
	Port              int
	ReadHeaderTimeout time.Duration
}

type contextKey struct{}

// WithContext returns a new context carrying the given Config.
func WithContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, contextKey{}, cfg)
}

// FromContext retrieves the Config from the context.
func FromContext(ctx context.Context) *Config {
	cfg, _ := ctx.Value(contextKey{}).(*Config)
	return cfg
}

// Config holds all configuration for the chat service.
type Config struct {
	// Database
	DBURL string

	// Run datastore migrations on startup.
	DatastoreMigrateAtStart bool

	// Datastore backend type ("postgres" or "sqlite").
	DatastoreType string

	// DB pool
	DBMaxOpenConns int
	DBMaxIdleConns int

	// Cache backend type ("lru", "redis", or "none").
	CacheType string

	// Redis
	RedisURL string

	// RecallCacheSize bounds the in-process LRU recall cache (entries).
	RecallCacheSize int

	// RecallCacheTTL is how long cached no-query recall results stay valid.
	RecallCacheTTL time.Duration

	// Vector store type ("pgvector", "qdrant", or "" disabled).
	VectorType string

	// Run vector migrations on startup.
	VectorMigrateAtStart bool

	// Number of memories to embed and index per background indexer tick.
	VectorIndexerBatchSize int

	// Qdrant
	QdrantHost             string
	QdrantPort             int
	QdrantCollectionPrefix string
	QdrantCollectionName   string
	QdrantAPIKey           string
	QdrantUseTLS           bool
	QdrantStartupTimeout   time.Duration

	// Embedding type ("none" or "openai").
	EmbedType string

	// OpenAI-compatible embeddings endpoint.
	OpenAIAPIKey     string
	OpenAIEmbedModel string
	OpenAIBaseURL    string
	OpenAIDimensions int

	// Generation provider ("anthropic", "openai", or "none").
	GenerateType string

	// Anthropic
	AnthropicAPIKey string
	AnthropicModel  string

	// OpenAI-compatible chat completions. A custom base URL covers
	// Groq and other compatible providers.
	GenerateOpenAIAPIKey  string
	GenerateOpenAIModel   string
	GenerateOpenAIBaseURL string

	// Generation bounds.
	GenerateTemperature float64
	GenerateMaxTokens   int
	GenerateTimeout     time.Duration

	// Memory behavior.
	MemoryAcceptThreshold float64
	MemoryRetrievalLimit  int
	MemoryMinConfidence   float64
	MemorySweepInterval   time.Duration
	MemorySweepMaxAgeDays int

	// Conversation behavior.
	ShortTermMemorySize int
	SummaryWindowSize   int

	// Persona identity used in composed prompts.
	PersonaName       string
	PersonaAge        int
	PersonaBackground string

	// Prometheus
	// MetricsLabels is a comma-separated list of key=value pairs added as
	// constant labels to all Prometheus metrics. Values support ${VAR} expansion.
	MetricsLabels string

	// Server
	Listener           ListenerConfig
	ManagementListener ListenerConfig
	// ManagementListenerEnabled is true when --management-port was explicitly
	// provided. When false, management endpoints are served on the main port.
	ManagementListenerEnabled bool
	// ManagementAccessLog enables access logging for /health, /ready, /metrics.
	// Disabled by default to suppress high-frequency probe noise.
	ManagementAccessLog bool
	CORSEnabled         bool
	CORSOrigins         string
	// RequireJustification makes admin API calls demand a justification
	// query param or header, recorded in the audit log.
	RequireJustification bool

	// Body size limit (bytes)
	MaxBodySize int64

	// Graceful shutdown drain timeout (seconds)
	DrainTimeout int
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		DatastoreType:           "postgres",
		DatastoreMigrateAtStart: true,
		DBMaxOpenConns:          25,
		DBMaxIdleConns:          5,
		CacheType:               "lru",
		RecallCacheSize:         1024,
		RecallCacheTTL:          5 * time.Minute,
		VectorType:              "",
		VectorMigrateAtStart:    true,
		VectorIndexerBatchSize:  200,
		QdrantHost:              "localhost",
		QdrantPort:              6334,
		QdrantCollectionPrefix:  "chat-service",
		QdrantStartupTimeout:    30 * time.Second,
		EmbedType:               "none",
		OpenAIEmbedModel:        "text-embedding-3-small",
		OpenAIBaseURL:           "https://api.openai.com/v1",
		GenerateType:            "none",
		AnthropicModel:          "claude-3-5-haiku-latest",
		GenerateOpenAIModel:     "gpt-4o-mini",
		GenerateOpenAIBaseURL:   "https://api.openai.com/v1",
		GenerateTemperature:     0.7,
		GenerateMaxTokens:       300,
		GenerateTimeout:         30 * time.Second,
		MemoryAcceptThreshold:   0.4,
		MemoryRetrievalLimit:    5,
		MemoryMinConfidence:     0.3,
		MemorySweepInterval:     time.Hour,
		MemorySweepMaxAgeDays:   90,
		ShortTermMemorySize:     10,
		SummaryWindowSize:       20,
		PersonaName:             "Alex",
		PersonaAge:              28,
		PersonaBackground:       "a digital artist from Portland who loves hiking, anime, and photography",
		Listener: ListenerConfig{
			Port:              8080,
			ReadHeaderTimeout: 5 * time.Second,
		},
		MaxBodySize:  1 * 1024 * 1024,
		DrainTimeout: 30,
	}
}

// QdrantAddress returns host:port for the Qdrant gRPC endpoint. A host that
// already carries a port wins over the separate port setting.
func (c *Config) QdrantAddress() string {
	if c == nil {
		return "localhost:6334"
	}
	host := c.QdrantHost
	if host == "" {
		host = "localhost"
	}
	if strings.Contains(host, ":") {
		return host
	}
	port := c.QdrantPort
	if port == 0 {
		port = 6334
	}
	return fmt.Sprintf("%s:%d", host, port)
}
