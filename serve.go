package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"tidyup-backend/config"
	"tidyup-backend/controller"
	"tidyup-backend/dao"
	"tidyup-backend/db"
	"tidyup-backend/jobs"
	"tidyup-backend/middleware"
	"tidyup-backend/pkg/auth"
	"tidyup-backend/pkg/gemini"
	"tidyup-backend/pkg/hub"
	"tidyup-backend/usecase"
)

var migrateOnStart bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and WebSocket hub",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, log, err := setup()
		if err != nil {
			return err
		}
		defer log.Sync() //nolint:errcheck

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return serve(ctx, cfg, log)
	},
}

func init() {
	serveCmd.Flags().BoolVar(&migrateOnStart, "migrate", false, "Apply pending migrations before serving")
}

func serve(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	// 1. Stores
	conn, err := db.Open(ctx, cfg.DSN())
	if err != nil {
		return err
	}
	defer conn.Close()
	log.Info("connected to database", zap.String("host", cfg.MySQLHost), zap.String("database", cfg.MySQLDatabase))

	if migrateOnStart {
		if err := db.Migrate(ctx, conn, log); err != nil {
			return err
		}
	}

	var boards usecase.LeaderboardCache
	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Warn("redis unavailable, leaderboards will be served from MySQL", zap.Error(err))
		}
		boards = dao.NewLeaderboardCache(rdb, 8*24*time.Hour)
	}

	var ai usecase.Suggester
	if cfg.GeminiAPIKey != "" {
		client, err := gemini.NewClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			log.Warn("gemini disabled", zap.Error(err))
		} else {
			ai = client
		}
	}

	// 2. Dependency Injection
	userRepo := dao.NewUserRepository(conn)
	catalogRepo := dao.NewCatalogRepository(conn)
	itemRepo := dao.NewItemRepository(conn)
	txRepo := dao.NewTransactionRepository(conn)
	chatRepo := dao.NewMessageRepository(conn)
	communityRepo := dao.NewCommunityRepository(conn)

	access := usecase.NewHubAccess(chatRepo, txRepo)
	h := hub.New(access.Authorize, nil, log.Named("hub"))
	defer h.Close()

	tokens := auth.NewTokenIssuer(cfg.JWTSecret, cfg.JWTTTL)
	auditUC := usecase.NewAuditUsecase(dao.NewAuditRepository(conn), log)
	notifyUC := usecase.NewNotificationUsecase(dao.NewNotificationRepository(conn), h, log)
	gameUC := usecase.NewGamificationUsecase(dao.NewGamificationRepository(conn), boards, notifyUC, cfg.Gamification, log)

	catalogUC := usecase.NewCatalogUsecase(catalogRepo)
	userUC := usecase.NewUserUsecase(userRepo, catalogRepo, tokens, auth.NewSSOVerifier(cfg.SSOSecrets), gameUC, auditUC, cfg.StartingTokens, log)
	itemUC := usecase.NewItemUsecase(itemRepo, catalogRepo, gameUC, auditUC, log)
	assistantUC := usecase.NewAssistantUsecase(catalogRepo, ai, log)
	txUC := usecase.NewTransactionUsecase(txRepo, itemRepo, gameUC, notifyUC, auditUC, h, cfg.EscrowExpiry, log)
	chatUC := usecase.NewChatUsecase(chatRepo, itemRepo, h, notifyUC, gameUC, log)
	communityUC := usecase.NewCommunityUsecase(communityRepo, gameUC, notifyUC, auditUC, log)
	h.SetSendHandler(chatUC.HandleHubSend)

	limiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, log)

	// 3. Routing
	router := controller.NewRouter(controller.Handlers{
		Users:         controller.NewUserController(userUC, gameUC, log),
		Catalog:       controller.NewCatalogController(catalogUC, log),
		Items:         controller.NewItemController(itemUC, assistantUC, log),
		Transactions:  controller.NewTransactionController(txUC, log),
		Chats:         controller.NewChatController(chatUC, log),
		Community:     controller.NewCommunityController(communityUC, log),
		Notifications: controller.NewNotificationController(notifyUC, log),
		Admin:         controller.NewAdminController(auditUC, log),
		Hub:           h,
		Auth:          middleware.NewAuth(tokens, log),
		CORS:          middleware.NewCORS(cfg.CORSOrigins),
		RateLimit:     limiter,
		Ready: func(ctx context.Context) error {
			ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
			defer cancel()
			return conn.PingContext(ctx)
		},
		Log: log,
	})

	// 4. Background jobs
	scheduler := jobs.NewScheduler(log.Named("jobs"))
	for _, j := range jobs.Defaults(txUC, gameUC, limiter, log) {
		if err := scheduler.Add(j); err != nil {
			return err
		}
	}
	if err := gameUC.RebuildLeaderboards(ctx); err != nil {
		log.Warn("initial leaderboard rebuild failed", zap.Error(err))
	}
	scheduler.Start()

	// 5. Start Server
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info("server starting", zap.String("port", cfg.Port), zap.String("env", cfg.Env))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		log.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	scheduler.Stop(shutdownCtx)
	return srv.Shutdown(shutdownCtx)
}
