package app

import (
	"context"
	"net/http"
	"time"

	"sessionauth/internal/config"
	"sessionauth/internal/db"
	"sessionauth/internal/handlers"
	"sessionauth/internal/metrics"
	"sessionauth/internal/middleware"
	"sessionauth/internal/repository"
	"sessionauth/internal/routes"
	"sessionauth/internal/services"
	"sessionauth/internal/utils"

	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/cors"
)

const sessionJanitorInterval = time.Hour

type App struct {
	Handler http.Handler

	pool        *pgxpool.Pool
	limiter     *middleware.RateLimiter
	stopJanitor context.CancelFunc
}

func InitApp(ctx context.Context, cfg *config.Config) (*App, error) {
	conn, err := db.NewPostgresConnection(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(ctx, conn); err != nil {
		conn.Close()
		return nil, err
	}

	// Метрики
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := metrics.NewCollector(reg)

	// Репозитории
	userRepo := repository.NewUserRepository(conn)
	sessionRepo := repository.NewSessionRepository(conn)

	// Сервисы
	passwordService, err := services.NewPasswordService(
		userRepo,
		utils.NewPasswordHasher(cfg.BcryptCost),
		cfg.PasswordResetTTL,
		time.Now,
		collector,
	)
	if err != nil {
		conn.Close()
		return nil, err
	}
	sessionManager := services.NewSessionManager(sessionRepo, cfg.SessionTTL, time.Now, collector)
	authService := services.NewAuthService(
		userRepo,
		passwordService,
		sessionManager,
		utils.NewTokenCodec(cfg.JWTSecret, time.Now),
		utils.NewSanitizer(),
		collector,
	)

	// Хендлеры
	authHandler := handlers.NewAuthHandler(authService)
	healthHandler := handlers.NewHealthHandler(conn)

	limiter := middleware.NewRateLimiter(cfg.RateLimitMax, cfg.RateLimitWindow)

	// Маршруты
	router := mux.NewRouter()
	routes.InitRoutes(router, routes.Deps{
		BasePath:      cfg.BasePath(),
		Auth:          authHandler,
		Health:        healthHandler,
		Authenticator: authService,
		RateLimiter:   limiter,
		BodyLimit:     cfg.BodyLimitBytes,
		Observer:      collector,
		Metrics:       metrics.Handler(reg),
	})

	corsMiddleware := cors.New(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type", middleware.HeaderRequestID},
		ExposedHeaders: []string{middleware.HeaderRequestID},
	})

	// ▶️ Периодически гасим просроченные сессии
	janitorCtx, stop := context.WithCancel(context.Background())
	StartSessionJanitor(janitorCtx, sessionRepo, sessionJanitorInterval)

	return &App{
		Handler:     corsMiddleware.Handler(router),
		pool:        conn,
		limiter:     limiter,
		stopJanitor: stop,
	}, nil
}

func (a *App) Close() {
	a.stopJanitor()
	a.limiter.Stop()
	a.pool.Close()
}
