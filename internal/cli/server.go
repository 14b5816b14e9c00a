package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"carpet-quiz-service/internal/app"
	"carpet-quiz-service/internal/catalog"
	"carpet-quiz-service/internal/config"
	"carpet-quiz-service/internal/infra/memory"
	pgloader "carpet-quiz-service/internal/infra/postgres"
	redisinfra "carpet-quiz-service/internal/infra/redis"
	"carpet-quiz-service/internal/leaderboard"
	transport "carpet-quiz-service/internal/transport/http"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the carpet quiz server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}
	redisTTL := config.TTLDuration(cfg.Redis.TTL, 10*time.Minute)

	imageDir := cfg.Catalog.Dir
	if imageDir == "" {
		imageDir = "images"
	}
	var loader catalog.Loader = catalog.NewDirLoader(imageDir)
	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		catalogID := cfg.Postgres.CatalogID
		if catalogID == "" {
			catalogID = "default"
		}
		loader = pgloader.NewCatalogLoader(pool, catalogID)
	}
	catalogTTL := config.TTLDuration(cfg.Catalog.TTL, 0) // 0 = process lifetime
	catalogRepo := memory.NewCatalogRepository(loader, catalogTTL)

	// Fail at startup if the catalog source is unreadable or empty; no
	// quiz can start without content.
	loaded, err := catalogRepo.GetCatalog(ctx)
	if err != nil {
		return err
	}
	log.Printf("catalog loaded: %d items, %d labels", loaded.Len(), len(loaded.Labels()))

	var store app.SessionRepository
	if redisClient != nil {
		store = redisinfra.NewSessionStore(redisClient, redisTTL)
	} else {
		store = memory.NewSessionStore()
	}

	boardOpts := []leaderboard.Option{
		leaderboard.WithTimeout(config.TTLDuration(cfg.Leaderboard.Timeout, leaderboard.DefaultTimeout)),
		leaderboard.WithCacheTTL(config.TTLDuration(cfg.Leaderboard.CacheTTL, leaderboard.DefaultCacheTTL)),
		leaderboard.WithTopN(cfg.Leaderboard.TopN),
	}
	if redisClient != nil {
		boardOpts = append(boardOpts, leaderboard.WithCache(redisinfra.NewLeaderboardCache(redisClient)))
	}
	board := leaderboard.NewClient(cfg.Leaderboard.URL, cfg.Leaderboard.Token, boardOpts...)

	service := app.NewQuizService(store, catalogRepo, board)
	wsHandler := transport.NewWSHandler(service)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", wsHandler.ServeWS)
	mux.Handle("/images/", http.StripPrefix("/images/", http.FileServer(http.Dir(imageDir))))

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting carpet quiz service on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
