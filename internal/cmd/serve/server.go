package serve

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/empathai/chat-service/internal/chat"
	"github.com/empathai/chat-service/internal/config"
	"github.com/empathai/chat-service/internal/conversation"
	"github.com/empathai/chat-service/internal/memory"
	"github.com/empathai/chat-service/internal/persona"
	"github.com/empathai/chat-service/internal/plugin/route/admin"
	chatroute "github.com/empathai/chat-service/internal/plugin/route/chat"
	"github.com/empathai/chat-service/internal/plugin/route/conversations"
	"github.com/empathai/chat-service/internal/plugin/route/memories"
	"github.com/empathai/chat-service/internal/plugin/route/personas"
	routesystem "github.com/empathai/chat-service/internal/plugin/route/system"
	storemetrics "github.com/empathai/chat-service/internal/plugin/store/metrics"
	"github.com/empathai/chat-service/internal/prompt"
	registrycache "github.com/empathai/chat-service/internal/registry/cache"
	registryembed "github.com/empathai/chat-service/internal/registry/embed"
	registrygenerate "github.com/empathai/chat-service/internal/registry/generate"
	registrymigrate "github.com/empathai/chat-service/internal/registry/migrate"
	registryroute "github.com/empathai/chat-service/internal/registry/route"
	registrystore "github.com/empathai/chat-service/internal/registry/store"
	registryvector "github.com/empathai/chat-service/internal/registry/vector"
	"github.com/empathai/chat-service/internal/security"
	"github.com/empathai/chat-service/internal/service"
	"github.com/gin-gonic/gin"
)

// Server holds the running server and its subsystems.
type Server struct {
	Config *config.Config
	Store  registrystore.ChatStore
	Router *gin.Engine
	// Port is the actual bound port of the main listener.
	Port int

	httpServer      *http.Server
	closeManagement func(context.Context) error
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.closeManagement != nil {
		_ = s.closeManagement(ctx)
	}
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

// StartServer initializes all subsystems and starts the HTTP server.
// Use cfg.Listener.Port=0 for a random port; the actual port is Server.Port.
func StartServer(ctx context.Context, cfg *config.Config) (*Server, error) {
	log.Info("Starting chat service",
		"httpPort", cfg.Listener.Port,
		"db", cfg.DatastoreType,
		"cache", cfg.CacheType,
		"vector", cfg.VectorType,
		"embedding", cfg.EmbedType,
		"generate", cfg.GenerateType,
	)

	// Initialize Prometheus metrics with configured constant labels.
	metricsLabels, err := security.ParseMetricsLabels(cfg.MetricsLabels)
	if err != nil {
		return nil, fmt.Errorf("invalid --metrics-labels: %w", err)
	}
	security.InitMetrics(metricsLabels)

	// Run migrations
	if err := registrymigrate.RunAll(ctx); err != nil {
		return nil, fmt.Errorf("migrations failed: %w", err)
	}

	// Initialize the recall cache and inject it into the context so store
	// loaders can pick it up.
	var recallCache registrycache.RecallCache
	if cacheLoader, err := registrycache.Select(cfg.CacheType); err != nil {
		log.Warn("Cache not available", "cache", cfg.CacheType, "err", err)
	} else if loaded, err := cacheLoader(ctx); err != nil {
		log.Warn("Failed to initialize cache", "cache", cfg.CacheType, "err", err)
	} else {
		recallCache = loaded
		ctx = registrycache.WithRecallCacheContext(ctx, recallCache)
	}

	// Initialize store
	storeLoader, err := registrystore.Select(cfg.DatastoreType)
	if err != nil {
		return nil, err
	}
	store, err := storeLoader(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize store: %w", err)
	}
	store = storemetrics.Wrap(store)

	// Set up gin
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	if cfg.ManagementAccessLog {
		router.Use(security.AccessLogMiddleware())
	} else {
		router.Use(security.AccessLogMiddleware("/health", "/ready", "/metrics"))
	}
	router.Use(security.MetricsMiddleware())
	router.Use(security.AdminAuditMiddleware(cfg.RequireJustification))
	router.Use(maxBodySizeMiddleware(cfg.MaxBodySize))
	if cfg.CORSEnabled {
		router.Use(corsMiddleware(cfg.CORSOrigins))
	}

	// Mount main route plugins on the main router.
	for _, loader := range registryroute.MainRouteLoaders() {
		if err := loader(router); err != nil {
			return nil, fmt.Errorf("failed to load routes: %w", err)
		}
	}

	// Initialize embedder and vector store (optional, for semantic recall)
	var embedder registryembed.Embedder
	var vectorStore registryvector.VectorStore
	if cfg.EmbedType != "" && cfg.EmbedType != "none" {
		embedLoader, err := registryembed.Select(cfg.EmbedType)
		if err != nil {
			log.Warn("Embedder not available", "err", err)
		} else {
			embedder, err = embedLoader(ctx)
			if err != nil {
				log.Warn("Failed to initialize embedder", "err", err)
			}
		}
	}
	if cfg.VectorType != "" && cfg.VectorType != "none" {
		if embedder == nil {
			return nil, fmt.Errorf("vector store %q requires an embedding provider: set --embedding-kind to a value other than 'none'", cfg.VectorType)
		}
		vectorLoader, err := registryvector.Select(cfg.VectorType)
		if err != nil {
			log.Warn("Vector store not available", "err", err)
		} else {
			vectorStore, err = vectorLoader(ctx)
			if err != nil {
				log.Warn("Failed to initialize vector store", "err", err)
			}
		}
	}

	// Initialize the reply generator. An unset kind deliberately resolves to
	// the "none" plugin so every turn takes the fallback path.
	generateType := cfg.GenerateType
	if generateType == "" {
		generateType = "none"
	}
	generateLoader, err := registrygenerate.Select(generateType)
	if err != nil {
		return nil, err
	}
	generator, err := generateLoader(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize generator: %w", err)
	}

	// Assemble the turn pipeline.
	retriever := memory.NewRetriever(store, embedder, vectorStore, recallCache,
		cfg.MemoryRetrievalLimit, cfg.MemoryMinConfidence, cfg.RecallCacheTTL)
	ledger := conversation.NewLedger(store)
	personaManager := persona.NewManager(store)
	composer := prompt.NewComposer(prompt.Identity{
		Name:       cfg.PersonaName,
		Age:        cfg.PersonaAge,
		Background: cfg.PersonaBackground,
	})
	orchestrator := chat.NewOrchestrator(store, retriever, ledger, personaManager, composer, generator, chat.Options{
		GenerateTimeout:     cfg.GenerateTimeout,
		Temperature:         cfg.GenerateTemperature,
		MaxTokens:           cfg.GenerateMaxTokens,
		ShortTermMemorySize: cfg.ShortTermMemorySize,
		SummaryWindowSize:   cfg.SummaryWindowSize,
		AcceptThreshold:     cfg.MemoryAcceptThreshold,
	})

	sweeper := service.NewMemorySweeper(store, cfg.MemorySweepInterval,
		time.Duration(cfg.MemorySweepMaxAgeDays)*24*time.Hour)

	// Mount API routes
	chatroute.MountRoutes(router, orchestrator)
	memories.MountRoutes(router, store, vectorStore)
	conversations.MountRoutes(router, store, ledger)
	personas.MountRoutes(router, personaManager)
	admin.MountRoutes(router, store, sweeper)

	// Start background services
	indexer := service.NewBackgroundIndexer(store, embedder, vectorStore, cfg.VectorIndexerBatchSize)
	go indexer.Start(ctx)
	go sweeper.Start(ctx)

	// Mount management route plugins. With a dedicated management port they
	// run on their own bare gin engine; otherwise on the main router.
	var closeManagement func(context.Context) error
	if cfg.ManagementListenerEnabled {
		mgmtRouter := gin.New()
		mgmtRouter.Use(gin.Recovery())
		if cfg.ManagementAccessLog {
			mgmtRouter.Use(security.AccessLogMiddleware())
		}
		for _, loader := range registryroute.ManagementRouteLoaders() {
			if err := loader(mgmtRouter); err != nil {
				return nil, fmt.Errorf("failed to load management routes: %w", err)
			}
		}
		_, closeManagement, err = startManagementServer(cfg.ManagementListener, mgmtRouter)
		if err != nil {
			return nil, fmt.Errorf("failed to start management server: %w", err)
		}
	} else {
		for _, loader := range registryroute.ManagementRouteLoaders() {
			if err := loader(router); err != nil {
				return nil, fmt.Errorf("failed to load management routes: %w", err)
			}
		}
	}

	// Start the main HTTP listener.
	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.Listener.Port))
	if err != nil {
		return nil, fmt.Errorf("listen failed: %w", err)
	}
	httpServer := &http.Server{
		Handler:           router,
		ReadHeaderTimeout: cfg.Listener.ReadHeaderTimeout,
	}
	go func() {
		if err := httpServer.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server failed", "err", err)
		}
	}()

	port := lis.Addr().(*net.TCPAddr).Port
	log.Info("Server listening", "port", port)

	routesystem.MarkReady()
	return &Server{
		Config:          cfg,
		Store:           store,
		Router:          router,
		Port:            port,
		httpServer:      httpServer,
		closeManagement: closeManagement,
	}, nil
}
