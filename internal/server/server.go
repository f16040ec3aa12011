package server

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"sync"
	"time"

	"ortho-assist/config"
	"ortho-assist/internal/auth"
	"ortho-assist/internal/db"
	"ortho-assist/internal/handlers"
	"ortho-assist/internal/middleware"
	"ortho-assist/internal/repositories"
	"ortho-assist/internal/routes"
	"ortho-assist/internal/services"
	"ortho-assist/internal/workers"

	"github.com/gorilla/mux"
	httpSwagger "github.com/swaggo/http-swagger"
)

// corsMiddleware adds CORS headers to all responses
func corsMiddleware(allowedOrigin string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", allowedOrigin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

			// Handle preflight requests
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// Server is the gateway HTTP server together with the resources it owns
type Server struct {
	*http.Server

	recorder  *workers.StudyRecorder
	studyRepo repositories.StudyRepository
	logger    *log.Logger

	closeOnce sync.Once
	closeErr  error
}

// NewServer wires configuration, backend client, study store, the study
// recorder and handlers into a Server
func NewServer(cfg *config.Config) *Server {
	logger := log.New(os.Stdout, "[SERVER] ", log.LstdFlags)
	studyRepo := initializeStudyRepository(cfg, logger)
	return newServer(cfg, studyRepo, logger)
}

func newServer(cfg *config.Config, studyRepo repositories.StudyRepository, logger *log.Logger) *Server {
	backend := initializeBackendClient(cfg, logger)
	seedStudies(cfg, studyRepo, logger)

	history := services.NewHistoryService(studyRepo, log.New(os.Stdout, "[HISTORY] ", log.LstdFlags))
	recorder := initializeStudyRecorder(cfg, history, logger)
	tokens := auth.NewTokenService(cfg.JWTSecret, cfg.JWTIssuer)
	authLogger := log.New(os.Stdout, "[AUTH] ", log.LstdFlags)

	h := &routes.Handlers{
		Health: handlers.HealthCheckHandler,
		Home:   handlers.NewHomeHandler("/swagger/index.html", logger),
		Ready:  handlers.NewReadinessHandler(backend, studyRepo, logger, recorder),

		Chat:    handlers.NewChatHandler(backend, cfg.MaxUploadBytes, log.New(os.Stdout, "[CHAT] ", log.LstdFlags)),
		Upload:  handlers.NewUploadHandler(backend, recorder, cfg.MaxUploadBytes, log.New(os.Stdout, "[UPLOAD] ", log.LstdFlags)),
		Report:  handlers.NewReportHandler(backend, log.New(os.Stdout, "[REPORT] ", log.LstdFlags)),
		History: handlers.NewHistoryHandler(history, log.New(os.Stdout, "[HISTORY] ", log.LstdFlags)),

		RequireAuth: func(message string) func(http.Handler) http.Handler {
			return middleware.RequireAuth(tokens, message, authLogger)
		},
	}

	router := mux.NewRouter()
	routes.RegisterRoutes(router, h)

	// Add Swagger endpoints
	router.PathPrefix("/swagger/").Handler(httpSwagger.Handler(
		httpSwagger.URL(cfg.SwaggerURL), // The url pointing to API definition
		httpSwagger.DeepLinking(true),
		httpSwagger.DocExpansion("none"),
		httpSwagger.DomID("swagger-ui"),
	))

	var handler http.Handler = router
	handler = middleware.Logging(logger)(handler)
	handler = middleware.Recover(logger)(handler)
	handler = corsMiddleware(cfg.CorsAllowedOrigin)(handler)

	return &Server{
		Server: &http.Server{
			Addr:              cfg.Addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		},
		recorder:  recorder,
		studyRepo: studyRepo,
		logger:    logger,
	}
}

// Shutdown stops accepting requests and waits for in-flight ones, then
// drains the study recorder and closes the study store. It returns once
// all three steps are done.
func (s *Server) Shutdown(ctx context.Context) error {
	httpErr := s.Server.Shutdown(ctx)
	return errors.Join(httpErr, s.closeResources(ctx))
}

// Close closes the listener immediately and releases the same resources
// as Shutdown
func (s *Server) Close() error {
	httpErr := s.Server.Close()
	ctx, cancel := context.WithTimeout(context.Background(), s.recorder.Config().ShutdownTimeout)
	defer cancel()
	return errors.Join(httpErr, s.closeResources(ctx))
}

// closeResources runs once; the store is closed only after the recorder
// has stopped writing to it
func (s *Server) closeResources(ctx context.Context) error {
	s.closeOnce.Do(func() {
		recorderErr := s.recorder.Stop(ctx)
		if recorderErr != nil {
			s.logger.Printf("Study recorder did not drain: %v", recorderErr)
		}
		storeErr := s.studyRepo.Close()
		if storeErr != nil {
			s.logger.Printf("Failed to close study store: %v", storeErr)
		}
		s.closeErr = errors.Join(recorderErr, storeErr)
	})
	return s.closeErr
}

// initializeBackendClient creates and configures the analysis backend client
func initializeBackendClient(cfg *config.Config, logger *log.Logger) services.BackendClientInterface {
	logger.Printf("Initializing backend client: %s (timeout: %v, probe: %v, retries: %d)",
		cfg.BackendURL, cfg.BackendTimeout, cfg.BackendProbeTimeout, cfg.BackendRetries)
	return services.NewBackendClientWithOptions(cfg.BackendURL, cfg.BackendTimeout, cfg.BackendProbeTimeout, cfg.BackendRetries)
}

// initializeStudyRepository connects to Redis, falling back to an in-memory
// store when Redis is unavailable
func initializeStudyRepository(cfg *config.Config, logger *log.Logger) repositories.StudyRepository {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	redisConfig := getRedisConfig(cfg)
	logger.Printf("Connecting to Redis: %s (DB: %d)", redisConfig.Addr(), redisConfig.DB)

	redisClient, err := db.Connect(ctx, redisConfig)
	if err != nil {
		logger.Printf("❌ Redis connection failed: %v", err)
		logger.Println("   Study history will be kept in memory and lost on restart")
		logger.Println("   Hint: Ensure Redis is running (docker run -d -p 6379:6379 redis:7-alpine)")
		return repositories.NewMemoryStudyRepository()
	}
	logger.Println("✅ Redis connected successfully")

	return repositories.NewRedisStudyRepository(redisClient.GetClient())
}

// initializeStudyRecorder starts the background worker that records
// finished analyses
func initializeStudyRecorder(cfg *config.Config, history *services.HistoryService, logger *log.Logger) *workers.StudyRecorder {
	workerConfig := workers.DefaultWorkerConfig("study-recorder")
	workerConfig.Concurrency = cfg.RecorderConcurrency
	workerConfig.QueueSize = cfg.RecorderQueueSize
	workerConfig.MaxRetries = cfg.RecorderRetries

	recorder := workers.NewStudyRecorder(workerConfig, history, log.New(os.Stdout, "[RECORDER] ", log.LstdFlags))
	if err := recorder.Start(context.Background()); err != nil {
		logger.Printf("⚠️  Failed to start study recorder: %v", err)
	}
	return recorder
}

// getRedisConfig maps server configuration onto the Redis client settings
func getRedisConfig(cfg *config.Config) db.RedisConfig {
	redisConfig := db.DefaultRedisConfig()
	redisConfig.Host = cfg.RedisHost
	redisConfig.Port = cfg.RedisPort
	redisConfig.Password = cfg.RedisPassword
	redisConfig.DB = cfg.RedisDB
	if cfg.RedisPoolSize > 0 {
		redisConfig.PoolSize = cfg.RedisPoolSize
	}
	return redisConfig
}

// seedStudies loads the illustrative dataset into an empty store
func seedStudies(cfg *config.Config, repo repositories.StudyRepository, logger *log.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	studies := config.DefaultStudies()
	if cfg.StudySeedFile != "" {
		loaded, err := config.LoadStudiesFromFile(cfg.StudySeedFile)
		if err != nil {
			logger.Printf("⚠️  Failed to load study seed file %s: %v (using built-in dataset)", cfg.StudySeedFile, err)
		} else {
			studies = loaded
		}
	}

	seeded, err := repo.Seed(ctx, studies)
	if err != nil {
		logger.Printf("⚠️  Failed to seed study history: %v", err)
		return
	}
	if seeded > 0 {
		logger.Printf("Seeded study history with %d studies", seeded)
	}
}
