package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lmittmann/tint"

	"normal_oj/internal/api"
	"normal_oj/internal/app/mailer"
	"normal_oj/internal/app/service"
	"normal_oj/internal/common/security"
	"normal_oj/internal/domain/repository"
	"normal_oj/internal/platform/config"
	"normal_oj/internal/platform/database"
	"normal_oj/internal/platform/queue"
	"normal_oj/internal/platform/storage"
)

func main() {
	slog.SetDefault(slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      slog.LevelInfo,
		TimeFormat: time.Kitchen,
	})))

	cfg := config.Load()
	security.InitJWT(cfg.JWTKey)

	db, err := database.Connect(cfg.DBConnStr)
	if err != nil {
		slog.Error("failed to connect to database", "err", err)
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("database connected", "host", cfg.DBHost)

	rdb, err := queue.Connect(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		slog.Error("failed to connect to redis", "err", err)
		os.Exit(1)
	}
	defer rdb.Close()
	slog.Info("redis connected", "addr", cfg.RedisAddr)

	store := storage.NewDiskStore(cfg.StoragePath)

	userRepo := repository.NewPgUserRepository(db)
	courseRepo := repository.NewPgCourseRepository(db)
	problemRepo := repository.NewPgProblemRepository(db)
	submissionRepo := repository.NewPgSubmissionRepository(db)

	mail := mailer.NewRedisMailer(rdb, cfg.MailQueueName)
	inTx := service.NewTxFunc(db)

	authService := service.NewAuthService(userRepo, mail, cfg.JWTExp)
	userService := service.NewUserService(userRepo, courseRepo, inTx)
	courseService := service.NewCourseService(courseRepo)
	problemService := service.NewProblemService(problemRepo, store, inTx)
	submissionService := service.NewSubmissionService(submissionRepo, problemRepo)

	router := api.NewRouter(authService, userService, courseService, problemService, submissionService)

	server := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "port", cfg.APIPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed", "err", err)
			os.Exit(1)
		}
	}()

	<-stop
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown failed", "err", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}
