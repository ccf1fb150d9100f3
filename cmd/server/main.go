package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"taskmanager/internal/auth"
	"taskmanager/internal/config"
	apphttp "taskmanager/internal/http"
	"taskmanager/internal/repository/mysql"
	"taskmanager/internal/repository/sqlite"
	"taskmanager/internal/repository/sqlstore"
	"taskmanager/internal/service"
	"taskmanager/internal/storage"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}
	if level, err := logrus.ParseLevel(cfg.Log.Level); err == nil {
		logger.SetLevel(level)
	} else {
		logger.Warnf("unknown log level %q, keeping %s", cfg.Log.Level, logger.GetLevel())
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStore(cfg)
	if err != nil {
		logger.Fatalf("open database: %v", err)
	}
	defer store.Close()

	if err := store.Migrate(ctx); err != nil {
		logger.Fatalf("migrate database: %v", err)
	}

	userRepo := sqlstore.NewUserRepository(store)
	taskRepo := sqlstore.NewTaskRepository(store)

	var storageSvc storage.Service
	if cfg.Storage.Bucket != "" {
		s3Svc, err := buildStorage(ctx, cfg, logger)
		if err != nil {
			logger.Fatalf("setup storage: %v", err)
		}
		storageSvc = s3Svc
	} else {
		logger.Info("storage bucket not set, task exports disabled")
	}

	var tokens *auth.TokenIssuer
	if strings.TrimSpace(cfg.Auth.JWTSecret) != "" {
		tokens = auth.NewTokenIssuer(cfg.Auth.JWTSecret, time.Duration(cfg.Auth.TokenTTLMinutes)*time.Minute)
	}

	handler := apphttp.NewHandler(apphttp.Deps{
		Users: service.NewUserService(userRepo, cfg.Auth.BcryptCost),
		Tasks: service.NewTaskService(taskRepo),
		Exports: service.NewExportService(taskRepo, storageSvc, service.ExportOptions{
			Bucket:    cfg.Storage.Bucket,
			KeyPrefix: cfg.Storage.KeyPrefix,
			URLExpiry: time.Duration(cfg.Storage.URLExpiryMinutes) * time.Minute,
		}),
		Store:        store,
		Tokens:       tokens,
		RequireToken: cfg.Auth.RequireToken,
		Logger:       logger,
	})

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	handler.RegisterRoutes(router)

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Infof("listening on %s (database: %s)", cfg.Server.Addr, cfg.Database.Driver)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("http server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warnf("http shutdown: %v", err)
	}

	logger.Info("bye")
}

func openStore(cfg config.Config) (*sqlstore.Store, error) {
	switch cfg.Database.Driver {
	case "mysql":
		return mysql.Open(mysql.Options{
			Host:         cfg.Database.MySQL.Host,
			Port:         cfg.Database.MySQL.Port,
			User:         cfg.Database.MySQL.User,
			Password:     cfg.Database.MySQL.Password,
			Name:         cfg.Database.MySQL.Name,
			MaxOpenConns: cfg.Database.MySQL.MaxOpenConns,
			MaxIdleConns: cfg.Database.MySQL.MaxIdleConns,
		})
	case "sqlite":
		return sqlite.Open(cfg.Database.Path)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}
}

func buildStorage(ctx context.Context, cfg config.Config, logger *logrus.Logger) (*storage.S3Service, error) {
	loadOpts := []func(*awscfg.LoadOptions) error{
		awscfg.WithRegion(cfg.Storage.Region),
	}
	if cfg.AWS.Profile != "" {
		loadOpts = append(loadOpts, awscfg.WithSharedConfigProfile(cfg.AWS.Profile))
	}

	awsCfg, err := awscfg.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Storage.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Storage.Endpoint)
			o.UsePathStyle = true
		}
	})
	logger.Infof("using s3 bucket %s (region %s)", cfg.Storage.Bucket, cfg.Storage.Region)
	return storage.NewS3Service(client), nil
}
