package serve

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/empathai/chat-service/internal/config"
	registrycache "github.com/empathai/chat-service/internal/registry/cache"
	registryembed "github.com/empathai/chat-service/internal/registry/embed"
	registrygenerate "github.com/empathai/chat-service/internal/registry/generate"
	registrystore "github.com/empathai/chat-service/internal/registry/store"
	registryvector "github.com/empathai/chat-service/internal/registry/vector"
	"github.com/gin-gonic/gin"
	"github.com/urfave/cli/v3"

	// Import all plugins to trigger init() registration
	_ "github.com/empathai/chat-service/internal/plugin/cache/lru"
	_ "github.com/empathai/chat-service/internal/plugin/cache/noop"
	_ "github.com/empathai/chat-service/internal/plugin/cache/redis"
	_ "github.com/empathai/chat-service/internal/plugin/embed/disabled"
	_ "github.com/empathai/chat-service/internal/plugin/embed/openai"
	_ "github.com/empathai/chat-service/internal/plugin/generate/anthropic"
	_ "github.com/empathai/chat-service/internal/plugin/generate/disabled"
	_ "github.com/empathai/chat-service/internal/plugin/generate/openai"
	_ "github.com/empathai/chat-service/internal/plugin/route/system"
	_ "github.com/empathai/chat-service/internal/plugin/store/postgres"
	_ "github.com/empathai/chat-service/internal/plugin/store/sqlite"
	_ "github.com/empathai/chat-service/internal/plugin/vector/pgvector"
	_ "github.com/empathai/chat-service/internal/plugin/vector/qdrant"
)

// Command returns the serve sub-command.
func Command() *cli.Command {
	cfg := config.DefaultConfig()
	var readHeaderTimeoutSecs int = 5
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the chat service HTTP server",
		Flags: flags(&cfg, &readHeaderTimeoutSecs),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg.Listener.ReadHeaderTimeout = time.Duration(readHeaderTimeoutSecs) * time.Second
			cfg.ManagementListener.ReadHeaderTimeout = cfg.Listener.ReadHeaderTimeout
			cfg.ManagementListenerEnabled = cmd.IsSet("management-port")
			return run(config.WithContext(ctx, &cfg), cfg)
		},
	}
}

func flags(cfg *config.Config, readHeaderTimeoutSecs *int) []cli.Flag {
	return []cli.Flag{

		// ── Server ────────────────────────────────────────────────
		&cli.IntFlag{
			Name:        "port",
			Category:    "Server:",
			Sources:     cli.EnvVars("CHAT_SERVICE_PORT"),
			Destination: &cfg.Listener.Port,
			Value:       cfg.Listener.Port,
			Usage:       "HTTP server port",
		},
		&cli.IntFlag{
			Name:        "management-port",
			Category:    "Server:",
			Sources:     cli.EnvVars("CHAT_SERVICE_MANAGEMENT_PORT"),
			Destination: &cfg.ManagementListener.Port,
			Value:       cfg.ManagementListener.Port,
			Usage:       "Dedicated port for health and metrics; when unset, served on the main port",
		},
		&cli.BoolFlag{
			Name:        "management-access-log",
			Category:    "Server:",
			Sources:     cli.EnvVars("CHAT_SERVICE_MANAGEMENT_ACCESS_LOG"),
			Destination: &cfg.ManagementAccessLog,
			Usage:       "Enable HTTP access logging for management endpoints (/health, /ready, /metrics)",
		},
		&cli.IntFlag{
			Name:        "read-header-timeout-seconds",
			Category:    "Server:",
			Sources:     cli.EnvVars("CHAT_SERVICE_READ_HEADER_TIMEOUT_SECONDS"),
			Destination: readHeaderTimeoutSecs,
			Value:       *readHeaderTimeoutSecs,
			Usage:       "HTTP read header timeout in seconds",
		},
		&cli.BoolFlag{
			Name:        "cors",
			Category:    "Server:",
			Sources:     cli.EnvVars("CHAT_SERVICE_CORS"),
			Destination: &cfg.CORSEnabled,
			Usage:       "Enable CORS handling",
		},
		&cli.StringFlag{
			Name:        "cors-origins",
			Category:    "Server:",
			Sources:     cli.EnvVars("CHAT_SERVICE_CORS_ORIGINS"),
			Destination: &cfg.CORSOrigins,
			Usage:       "Comma-separated allowed CORS origins (empty = any)",
		},
		&cli.IntFlag{
			Name:        "drain-timeout-seconds",
			Category:    "Server:",
			Sources:     cli.EnvVars("CHAT_SERVICE_DRAIN_TIMEOUT_SECONDS"),
			Destination: &cfg.DrainTimeout,
			Value:       cfg.DrainTimeout,
			Usage:       "Graceful shutdown drain timeout in seconds",
		},
		&cli.BoolFlag{
			Name:        "admin-require-justification",
			Category:    "Server:",
			Sources:     cli.EnvVars("CHAT_SERVICE_ADMIN_REQUIRE_JUSTIFICATION"),
			Destination: &cfg.RequireJustification,
			Usage:       "Require justification for admin API calls",
		},

		// ── Database ───────────────────────────────────────────────
		&cli.StringFlag{
			Name:        "db-kind",
			Category:    "Database:",
			Sources:     cli.EnvVars("CHAT_SERVICE_DB_KIND"),
			Destination: &cfg.DatastoreType,
			Value:       cfg.DatastoreType,
			Usage:       "Backend store (" + strings.Join(registrystore.Names(), "|") + ")",
		},
		&cli.StringFlag{
			Name:        "db-url",
			Category:    "Database:",
			Sources:     cli.EnvVars("CHAT_SERVICE_DB_URL"),
			Destination: &cfg.DBURL,
			Usage:       "Database connection URL",
			Required:    true,
		},
		&cli.BoolFlag{
			Name:        "db-migrate-at-start",
			Category:    "Database:",
			Sources:     cli.EnvVars("CHAT_SERVICE_DB_MIGRATE_AT_START"),
			Destination: &cfg.DatastoreMigrateAtStart,
			Value:       cfg.DatastoreMigrateAtStart,
			Usage:       "Run schema migrations on startup",
		},
		&cli.IntFlag{
			Name:        "db-max-open-conns",
			Category:    "Database:",
			Sources:     cli.EnvVars("CHAT_SERVICE_DB_MAX_OPEN_CONNS"),
			Destination: &cfg.DBMaxOpenConns,
			Value:       cfg.DBMaxOpenConns,
			Usage:       "Maximum number of open database connections",
		},
		&cli.IntFlag{
			Name:        "db-max-idle-conns",
			Category:    "Database:",
			Sources:     cli.EnvVars("CHAT_SERVICE_DB_MAX_IDLE_CONNS"),
			Destination: &cfg.DBMaxIdleConns,
			Value:       cfg.DBMaxIdleConns,
			Usage:       "Maximum number of idle database connections",
		},

		// ── Cache ─────────────────────────────────────────────────
		&cli.StringFlag{
			Name:        "cache-kind",
			Category:    "Cache:",
			Sources:     cli.EnvVars("CHAT_SERVICE_CACHE_KIND"),
			Destination: &cfg.CacheType,
			Value:       cfg.CacheType,
			Usage:       "Recall cache backend (" + strings.Join(registrycache.Names(), "|") + ")",
		},
		&cli.StringFlag{
			Name:        "redis-url",
			Category:    "Cache:",
			Sources:     cli.EnvVars("CHAT_SERVICE_REDIS_URL"),
			Destination: &cfg.RedisURL,
			Usage:       "Redis connection URL",
		},
		&cli.IntFlag{
			Name:        "recall-cache-size",
			Category:    "Cache:",
			Sources:     cli.EnvVars("CHAT_SERVICE_RECALL_CACHE_SIZE"),
			Destination: &cfg.RecallCacheSize,
			Value:       cfg.RecallCacheSize,
			Usage:       "Maximum entries held by the in-process LRU recall cache",
		},
		&cli.DurationFlag{
			Name:        "recall-cache-ttl",
			Category:    "Cache:",
			Sources:     cli.EnvVars("CHAT_SERVICE_RECALL_CACHE_TTL"),
			Destination: &cfg.RecallCacheTTL,
			Value:       cfg.RecallCacheTTL,
			Usage:       "How long cached recall results stay valid",
		},

		// ── Vector Store ──────────────────────────────────────────
		&cli.StringFlag{
			Name:        "vector-kind",
			Category:    "Vector Store:",
			Sources:     cli.EnvVars("CHAT_SERVICE_VECTOR_KIND"),
			Destination: &cfg.VectorType,
			Value:       cfg.VectorType,
			Usage:       "Vector store (" + strings.Join(registryvector.Names(), "|") + "), empty = disabled",
		},
		&cli.IntFlag{
			Name:        "vector-indexer-batch-size",
			Category:    "Vector Store:",
			Sources:     cli.EnvVars("CHAT_SERVICE_VECTOR_INDEXER_BATCH_SIZE"),
			Destination: &cfg.VectorIndexerBatchSize,
			Value:       cfg.VectorIndexerBatchSize,
			Usage:       "Number of memories to embed and index per background indexer tick",
		},
		&cli.StringFlag{
			Name:        "vector-qdrant-host",
			Category:    "Vector Store:",
			Sources:     cli.EnvVars("CHAT_SERVICE_VECTOR_QDRANT_HOST", "CHAT_SERVICE_QDRANT_HOST"),
			Destination: &cfg.QdrantHost,
			Value:       cfg.QdrantAddress(),
			Usage:       "Qdrant host or host:port",
		},
		&cli.StringFlag{
			Name:        "vector-qdrant-api-key",
			Category:    "Vector Store:",
			Sources:     cli.EnvVars("CHAT_SERVICE_VECTOR_QDRANT_API_KEY"),
			Destination: &cfg.QdrantAPIKey,
			Usage:       "Qdrant API key",
		},
		&cli.BoolFlag{
			Name:        "vector-qdrant-tls",
			Category:    "Vector Store:",
			Sources:     cli.EnvVars("CHAT_SERVICE_VECTOR_QDRANT_TLS"),
			Destination: &cfg.QdrantUseTLS,
			Usage:       "Use TLS for the Qdrant gRPC connection",
		},
		&cli.StringFlag{
			Name:        "vector-qdrant-collection-prefix",
			Category:    "Vector Store:",
			Sources:     cli.EnvVars("CHAT_SERVICE_VECTOR_QDRANT_COLLECTION_PREFIX"),
			Destination: &cfg.QdrantCollectionPrefix,
			Value:       cfg.QdrantCollectionPrefix,
			Usage:       "Prefix for the Qdrant collection name",
		},

		// ── Embedding ─────────────────────────────────────────────
		&cli.StringFlag{
			Name:        "embedding-kind",
			Category:    "Embedding:",
			Sources:     cli.EnvVars("CHAT_SERVICE_EMBEDDING_KIND"),
			Destination: &cfg.EmbedType,
			Value:       cfg.EmbedType,
			Usage:       "Embedding provider (" + strings.Join(registryembed.Names(), "|") + ")",
		},
		&cli.StringFlag{
			Name:        "embedding-openai-api-key",
			Category:    "Embedding:",
			Sources:     cli.EnvVars("CHAT_SERVICE_OPENAI_API_KEY", "OPENAI_API_KEY"),
			Destination: &cfg.OpenAIAPIKey,
			Usage:       "OpenAI API key",
		},
		&cli.StringFlag{
			Name:        "embedding-openai-model",
			Category:    "Embedding:",
			Sources:     cli.EnvVars("CHAT_SERVICE_EMBEDDING_OPENAI_MODEL"),
			Destination: &cfg.OpenAIEmbedModel,
			Value:       cfg.OpenAIEmbedModel,
			Usage:       "OpenAI embedding model",
		},
		&cli.StringFlag{
			Name:        "embedding-openai-base-url",
			Category:    "Embedding:",
			Sources:     cli.EnvVars("CHAT_SERVICE_EMBEDDING_OPENAI_BASE_URL"),
			Destination: &cfg.OpenAIBaseURL,
			Value:       cfg.OpenAIBaseURL,
			Usage:       "OpenAI-compatible embeddings base URL",
		},
		&cli.IntFlag{
			Name:        "embedding-openai-dimensions",
			Category:    "Embedding:",
			Sources:     cli.EnvVars("CHAT_SERVICE_EMBEDDING_OPENAI_DIMENSIONS"),
			Destination: &cfg.OpenAIDimensions,
			Value:       cfg.OpenAIDimensions,
			Usage:       "Requested embedding dimensions (0 = model default)",
		},

		// ── Generation ────────────────────────────────────────────
		&cli.StringFlag{
			Name:        "generate-kind",
			Category:    "Generation:",
			Sources:     cli.EnvVars("CHAT_SERVICE_GENERATE_KIND"),
			Destination: &cfg.GenerateType,
			Value:       cfg.GenerateType,
			Usage:       "Generation provider (" + strings.Join(registrygenerate.Names(), "|") + ")",
		},
		&cli.StringFlag{
			Name:        "anthropic-api-key",
			Category:    "Generation:",
			Sources:     cli.EnvVars("CHAT_SERVICE_ANTHROPIC_API_KEY", "ANTHROPIC_API_KEY"),
			Destination: &cfg.AnthropicAPIKey,
			Usage:       "Anthropic API key",
		},
		&cli.StringFlag{
			Name:        "anthropic-model",
			Category:    "Generation:",
			Sources:     cli.EnvVars("CHAT_SERVICE_ANTHROPIC_MODEL"),
			Destination: &cfg.AnthropicModel,
			Value:       cfg.AnthropicModel,
			Usage:       "Anthropic model",
		},
		&cli.StringFlag{
			Name:        "generate-openai-api-key",
			Category:    "Generation:",
			Sources:     cli.EnvVars("CHAT_SERVICE_GENERATE_OPENAI_API_KEY", "GROQ_API_KEY"),
			Destination: &cfg.GenerateOpenAIAPIKey,
			Usage:       "API key for the OpenAI-compatible chat completions provider",
		},
		&cli.StringFlag{
			Name:        "generate-openai-model",
			Category:    "Generation:",
			Sources:     cli.EnvVars("CHAT_SERVICE_GENERATE_OPENAI_MODEL"),
			Destination: &cfg.GenerateOpenAIModel,
			Value:       cfg.GenerateOpenAIModel,
			Usage:       "Model for the OpenAI-compatible chat completions provider",
		},
		&cli.StringFlag{
			Name:        "generate-openai-base-url",
			Category:    "Generation:",
			Sources:     cli.EnvVars("CHAT_SERVICE_GENERATE_OPENAI_BASE_URL"),
			Destination: &cfg.GenerateOpenAIBaseURL,
			Value:       cfg.GenerateOpenAIBaseURL,
			Usage:       "Base URL for the OpenAI-compatible chat completions provider (Groq etc.)",
		},
		&cli.FloatFlag{
			Name:        "generate-temperature",
			Category:    "Generation:",
			Sources:     cli.EnvVars("CHAT_SERVICE_GENERATE_TEMPERATURE"),
			Destination: &cfg.GenerateTemperature,
			Value:       cfg.GenerateTemperature,
			Usage:       "Sampling temperature",
		},
		&cli.IntFlag{
			Name:        "generate-max-tokens",
			Category:    "Generation:",
			Sources:     cli.EnvVars("CHAT_SERVICE_GENERATE_MAX_TOKENS"),
			Destination: &cfg.GenerateMaxTokens,
			Value:       cfg.GenerateMaxTokens,
			Usage:       "Maximum tokens per generated reply",
		},
		&cli.DurationFlag{
			Name:        "generate-timeout",
			Category:    "Generation:",
			Sources:     cli.EnvVars("CHAT_SERVICE_GENERATE_TIMEOUT"),
			Destination: &cfg.GenerateTimeout,
			Value:       cfg.GenerateTimeout,
			Usage:       "Timeout for a single generation attempt",
		},

		// ── Memory ────────────────────────────────────────────────
		&cli.FloatFlag{
			Name:        "memory-accept-threshold",
			Category:    "Memory:",
			Sources:     cli.EnvVars("CHAT_SERVICE_MEMORY_ACCEPT_THRESHOLD"),
			Destination: &cfg.MemoryAcceptThreshold,
			Value:       cfg.MemoryAcceptThreshold,
			Usage:       "Minimum classifier confidence for storing an extracted memory",
		},
		&cli.IntFlag{
			Name:        "memory-retrieval-limit",
			Category:    "Memory:",
			Sources:     cli.EnvVars("CHAT_SERVICE_MEMORY_RETRIEVAL_LIMIT"),
			Destination: &cfg.MemoryRetrievalLimit,
			Value:       cfg.MemoryRetrievalLimit,
			Usage:       "Maximum memories injected into a prompt",
		},
		&cli.FloatFlag{
			Name:        "memory-min-confidence",
			Category:    "Memory:",
			Sources:     cli.EnvVars("CHAT_SERVICE_MEMORY_MIN_CONFIDENCE"),
			Destination: &cfg.MemoryMinConfidence,
			Value:       cfg.MemoryMinConfidence,
			Usage:       "Minimum confidence for a memory to be retrievable",
		},
		&cli.DurationFlag{
			Name:        "memory-sweep-interval",
			Category:    "Memory:",
			Sources:     cli.EnvVars("CHAT_SERVICE_MEMORY_SWEEP_INTERVAL"),
			Destination: &cfg.MemorySweepInterval,
			Value:       cfg.MemorySweepInterval,
			Usage:       "How often the background memory sweep runs",
		},
		&cli.IntFlag{
			Name:        "memory-sweep-max-age-days",
			Category:    "Memory:",
			Sources:     cli.EnvVars("CHAT_SERVICE_MEMORY_SWEEP_MAX_AGE_DAYS"),
			Destination: &cfg.MemorySweepMaxAgeDays,
			Value:       cfg.MemorySweepMaxAgeDays,
			Usage:       "Age after which stale low-confidence memories are archived",
		},

		// ── Conversation ──────────────────────────────────────────
		&cli.IntFlag{
			Name:        "short-term-memory-size",
			Category:    "Conversation:",
			Sources:     cli.EnvVars("CHAT_SERVICE_SHORT_TERM_MEMORY_SIZE"),
			Destination: &cfg.ShortTermMemorySize,
			Value:       cfg.ShortTermMemorySize,
			Usage:       "Recent messages fed into the prompt",
		},
		&cli.IntFlag{
			Name:        "summary-window-size",
			Category:    "Conversation:",
			Sources:     cli.EnvVars("CHAT_SERVICE_SUMMARY_WINDOW_SIZE"),
			Destination: &cfg.SummaryWindowSize,
			Value:       cfg.SummaryWindowSize,
			Usage:       "Write a conversation summary every N messages",
		},

		// ── Persona ───────────────────────────────────────────────
		&cli.StringFlag{
			Name:        "persona-name",
			Category:    "Persona:",
			Sources:     cli.EnvVars("CHAT_SERVICE_PERSONA_NAME"),
			Destination: &cfg.PersonaName,
			Value:       cfg.PersonaName,
			Usage:       "Name the assistant presents as",
		},
		&cli.IntFlag{
			Name:        "persona-age",
			Category:    "Persona:",
			Sources:     cli.EnvVars("CHAT_SERVICE_PERSONA_AGE"),
			Destination: &cfg.PersonaAge,
			Value:       cfg.PersonaAge,
			Usage:       "Age the assistant presents as",
		},
		&cli.StringFlag{
			Name:        "persona-background",
			Category:    "Persona:",
			Sources:     cli.EnvVars("CHAT_SERVICE_PERSONA_BACKGROUND"),
			Destination: &cfg.PersonaBackground,
			Value:       cfg.PersonaBackground,
			Usage:       "One-line backstory used in composed prompts",
		},

		// ── Monitoring ────────────────────────────────────────────
		&cli.StringFlag{
			Name:        "metrics-labels",
			Category:    "Monitoring:",
			Sources:     cli.EnvVars("CHAT_SERVICE_METRICS_LABELS"),
			Destination: &cfg.MetricsLabels,
			Value:       "service=chat-service",
			Usage:       "Comma-separated key=value pairs added as constant labels to all Prometheus metrics. Supports ${VAR} expansion.",
		},
	}
}

func run(ctx context.Context, cfg config.Config) error {
	srv, err := StartServer(ctx, &cfg)
	if err != nil {
		return err
	}

	<-ctx.Done()
	log.Info("Shutting down...")

	drainCtx, drainCancel := context.WithTimeout(context.Background(), time.Duration(cfg.DrainTimeout)*time.Second)
	defer drainCancel()
	if err := srv.Shutdown(drainCtx); err != nil {
		log.Error("Shutdown error", "err", err)
	}
	log.Info("Server stopped")
	return nil
}

func maxBodySizeMiddleware(maxBodySize int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBodySize)
		c.Next()
	}
}
