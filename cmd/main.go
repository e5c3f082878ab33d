package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sessionauth/docs"
	"sessionauth/internal/app"
	"sessionauth/internal/config"
	"sessionauth/internal/logger"

	"go.uber.org/zap"
)

// @title Session Auth API
// @version 1.0
// @description Регистрация, вход и выход, сброс и смена пароля. Доступ по bearer-токену, привязанному к серверной сессии.
// @BasePath /api/v1/auth
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization
func main() {
	cfg, cfgErr := config.LoadConfig()
	if cfgErr != nil {
		cfg = &config.Config{}
	}
	if err := logger.InitLogger(cfg); err != nil {
		logger.Log.Fatal("Ошибка инициализации логгера", zap.Error(err))
	}
	defer logger.Log.Sync()

	if cfgErr != nil {
		logger.Log.Fatal("Ошибка загрузки конфига", zap.Error(cfgErr))
	}
	warnings, err := cfg.Validate()
	for _, w := range warnings {
		logger.Log.Warn("Конфиг", zap.String("warning", w))
	}
	if err != nil {
		logger.Log.Fatal("Невалидный конфиг", zap.Error(err))
	}

	docs.SwaggerInfo.BasePath = cfg.BasePath()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.InitApp(ctx, cfg)
	if err != nil {
		logger.Log.Fatal("Ошибка инициализации приложения", zap.Error(err))
	}
	defer application.Close()

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           application.Handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Log.Info("Сервер запущен", zap.String("port", cfg.Port), zap.String("base_path", cfg.BasePath()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Fatal("Ошибка запуска сервера", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Log.Info("Остановка сервера")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Error("Ошибка при остановке сервера", zap.Error(err))
	}
}
