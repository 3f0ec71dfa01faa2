package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logger"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/common/webapi"
	"go.uber.org/zap"

	"github.com/documind/documind/internal/ai"
	"github.com/documind/documind/internal/config"
	"github.com/documind/documind/internal/db"
	"github.com/documind/documind/internal/filestore"
	"github.com/documind/documind/internal/handler"
	"github.com/documind/documind/internal/job"
	"github.com/documind/documind/internal/middleware"
	"github.com/documind/documind/internal/repo"
	"github.com/documind/documind/internal/schedule"
	"github.com/documind/documind/internal/service"
	"github.com/documind/documind/internal/vector"
)

const embedCacheSize = 4096

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "documind",
		Short: "documind backend server",
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run documind server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if configPath == "" {
				return fmt.Errorf("--config is required")
			}
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			logger.Init(
				cfg.LogConfig.File,
				cfg.LogConfig.Level,
				int(cfg.LogConfig.FileCount),
				int(cfg.LogConfig.FileSize),
				int(cfg.LogConfig.KeepDays),
				cfg.LogConfig.Console,
			)
			logutil.GetLogger(context.Background()).Info("config loaded", zap.String("config", configPath))

			conn, err := db.Open(cfg.Database)
			if err != nil {
				return fmt.Errorf("open db: %w", err)
			}
			if err := db.ApplyMigrations(conn); err != nil {
				return fmt.Errorf("migrations: %w", err)
			}
			return runServer(cfg, conn)
		},
	}

	runCmd.Flags().StringVar(&configPath, "config", "", "path to config.json")
	rootCmd.AddCommand(runCmd)

	if err := rootCmd.Execute(); err != nil {
		logutil.GetLogger(context.Background()).Fatal("startup error", zap.Error(err))
	}
}

func runServer(cfg *config.Config, conn *sql.DB) error {
	logutil.GetLogger(context.Background()).Info(
		"starting server",
		zap.Int("port", cfg.Port),
		zap.String("file_store", cfg.FileStore.Type),
		zap.String("ai_provider", cfg.AI.Provider),
	)

	userRepo := repo.NewUserRepo(conn)
	chatRepo := repo.NewChatRepo(conn)
	messageRepo := repo.NewMessageRepo(conn)
	shareRepo := repo.NewShareRepo(conn)

	store, err := filestore.New(cfg.FileStore)
	if err != nil {
		return fmt.Errorf("init file store: %w", err)
	}

	aiProvider, err := ai.NewProvider(cfg.AI.Provider, cfg.AI)
	if err != nil {
		return fmt.Errorf("init ai provider: %w", err)
	}
	generator := ai.NewGenerator(aiProvider, cfg.AI.ChatModel)
	embedder := ai.NewCachedEmbedder(ai.NewEmbedder(aiProvider, cfg.AI.EmbedModel), embedCacheSize, time.Hour)
	vectors := vector.NewPGStore(conn)

	authService := service.NewAuthService(userRepo, []byte(cfg.JWTSecret), time.Hour*time.Duration(cfg.JWTTTLHours))
	indexingService := service.NewIndexingService(embedder, vectors, chatRepo, store, cfg.Retrieval)
	chatService := service.NewChatService(chatRepo, messageRepo, shareRepo, store, vectors, indexingService)
	ragService := service.NewRAGService(generator, embedder, vectors, messageRepo, cfg.Retrieval)

	deps := handler.RouterDeps{
		Auth:      handler.NewAuthHandler(authService),
		Chats:     handler.NewChatHandler(chatService),
		Messages:  handler.NewMessageHandler(chatService, ragService),
		Files:     handler.NewFileHandler(chatService),
		Shares:    handler.NewShareHandler(chatService),
		JWTSecret: []byte(cfg.JWTSecret),
	}

	engine, err := webapi.NewEngine(
		"/api/v1",
		fmt.Sprintf("0.0.0.0:%d", cfg.Port),
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.CORS(cfg.CORSOrigins),
			gzip.Gzip(gzip.DefaultCompression),
		),
	)
	if err != nil {
		return fmt.Errorf("init web engine: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	scheduler := schedule.NewCronScheduler()
	if err := scheduler.AddJob(job.NewIndexRetryJob(indexingService), cfg.Retrieval.IndexRetryCron); err != nil {
		return fmt.Errorf("schedule index retry: %w", err)
	}
	scheduler.Start(ctx)
	defer scheduler.Stop()

	logutil.GetLogger(context.Background()).Info("http server listening", zap.String("addr", fmt.Sprintf("0.0.0.0:%d", cfg.Port)))
	go func() {
		if err := engine.Run(); err != nil && err != http.ErrServerClosed {
			logutil.GetLogger(context.Background()).Error("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logutil.GetLogger(context.Background()).Info("server stopping...")
	return nil
}
