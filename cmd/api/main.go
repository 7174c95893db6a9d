package main

import (
	"context"
	crypto_rand "crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/harentsoaR/medconnect-api/internal/config"
	"github.com/harentsoaR/medconnect-api/internal/handlers"
	"github.com/harentsoaR/medconnect-api/internal/middleware"
	"github.com/harentsoaR/medconnect-api/internal/services"
	"github.com/harentsoaR/medconnect-api/internal/store"
	"github.com/harentsoaR/medconnect-api/internal/utils"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "medconnect-api",
		Short: "MedConnect appointment API",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create indexes or tables for the configured store backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger := newLogger(cfg)

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			_, closeStore, err := openStore(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer closeStore()

			fmt.Printf("Store %q is ready.\n", cfg.StoreBackend)
			return nil
		},
	}
}

func newLogger(cfg *config.Config) zerolog.Logger {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if cfg.IsDev() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	return logger.Level(level)
}

// openStore connects the configured backend and prepares its indexes or
// schema. The returned func releases the connection.
func openStore(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (store.Repositories, func(), error) {
	switch cfg.StoreBackend {
	case config.BackendMongo:
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
		if err != nil {
			return store.Repositories{}, nil, fmt.Errorf("connect to mongo: %w", err)
		}
		closeFn := func() { _ = client.Disconnect(context.Background()) }
		if err := client.Ping(ctx, nil); err != nil {
			closeFn()
			return store.Repositories{}, nil, fmt.Errorf("ping mongo: %w", err)
		}
		db := client.Database(cfg.MongoDatabase)
		if err := store.EnsureMongoIndexes(ctx, db); err != nil {
			closeFn()
			return store.Repositories{}, nil, err
		}
		logger.Info().Str("database", cfg.MongoDatabase).Msg("connected to mongo")
		return store.NewMongo(db), closeFn, nil

	case config.BackendPostgres:
		pool, err := store.NewPostgresPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
		if err != nil {
			return store.Repositories{}, nil, err
		}
		if err := store.EnsurePostgresSchema(ctx, pool); err != nil {
			pool.Close()
			return store.Repositories{}, nil, err
		}
		logger.Info().Msg("connected to postgres")
		return store.NewPostgres(pool), pool.Close, nil
	}

	logger.Warn().Msg("using in-memory store; data is lost on exit")
	return store.NewMemory(), func() {}, nil
}

// resolveJWTSecret returns the configured secret or, when empty, a random
// one. The second return value is true when a random secret was generated.
func resolveJWTSecret(value string) (string, bool, error) {
	if value != "" {
		return value, false, nil
	}
	key := make([]byte, 32)
	if _, err := crypto_rand.Read(key); err != nil {
		return "", false, fmt.Errorf("generate JWT secret: %w", err)
	}
	return hex.EncodeToString(key), true, nil
}

func newRouter(cfg *config.Config, h *handlers.Handler, logger zerolog.Logger) *gin.Engine {
	if !cfg.IsDev() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{middleware.RequestIDHeader},
		AllowCredentials: true,
	}))
	r.Use(gzip.Gzip(gzip.BestSpeed))

	h.RegisterRoutes(r)
	return r
}

func runServer() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	repos, closeStore, err := openStore(ctx, cfg, logger)
	cancel()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open store")
	}
	defer closeStore()

	secret, generated, err := resolveJWTSecret(cfg.JWTSecret)
	if err != nil {
		return err
	}
	if generated {
		logger.Warn().Msg("JWT_SECRET is not set; using a random secret, tokens will not survive a restart")
	}

	svc := services.NewClinicService(repos, utils.NewPasswordHasher(cfg.BcryptCost), services.WithLogger(logger))
	h := handlers.NewHandler(svc, utils.NewTokenIssuer(secret, cfg.JWTTTL), logger)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           newRouter(cfg, h, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", srv.Addr).Str("store", cfg.StoreBackend).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server shutdown failed")
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}
