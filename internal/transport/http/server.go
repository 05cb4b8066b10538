package http

import (
	"context"
	"fmt"
	"log"
	stdhttp "net/http"
	"os/signal"
	"syscall"
	"time"

	"nutrisnap/internal/ai"
	"nutrisnap/internal/cache"
	"nutrisnap/internal/config"
	"nutrisnap/internal/database"
	"nutrisnap/internal/handler"
	"nutrisnap/internal/live"
	"nutrisnap/internal/media"
	"nutrisnap/internal/queue"
	"nutrisnap/internal/redis"
	"nutrisnap/internal/repository"
	"nutrisnap/internal/session"
	"nutrisnap/internal/state"
	syncer "nutrisnap/internal/sync"
	"nutrisnap/internal/worker"
)

// voiceWaterLogger routes the live coach's logWater tool into the same
// hydration write path as a manual tap.
type voiceWaterLogger struct {
	profiles *syncer.ProfileSynchronizer
	store    *session.Store
}

func (l *voiceWaterLogger) LogWater(ctx context.Context, amountML int) (int, error) {
	return l.profiles.AddWater(ctx, l.store.Current(), amountML)
}

// Run wires the whole app together and serves until interrupted.
func Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 1. Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// 2. Remote store and Redis
	db, err := database.Connect(cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	rdb, err := redis.NewClient(cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}
	defer rdb.Close()

	// 3. Repositories, local state, session store
	profileRepo := repository.NewProfileRepository(db)
	historyRepo := repository.NewHistoryRepository(db)
	postRepo := repository.NewPostRepository(db)
	waterRepo := repository.NewWaterRepository(db)

	appState := state.New()
	feedCache := cache.NewSessionFeedCache(rdb.Client)
	sessionStore := session.NewStore(rdb.Client, cfg.JWTSecret)

	// 4. Sync pipeline
	publisher := queue.NewPublisher(rdb.Client)
	consumer := queue.NewConsumer(rdb.Client)

	profileSync := syncer.NewProfileSynchronizer(appState, profileRepo, historyRepo, postRepo, waterRepo, feedCache, publisher)
	historyLedger := syncer.NewHistoryLedger(appState, publisher)
	feedSync := syncer.NewFeedSynchronizer(appState, feedCache, publisher)

	// Every session change triggers a full resync. Dispatch claims the sync
	// generation before returning, so a logout always supersedes a login
	// sync still in flight.
	sessionStore.Subscribe(profileSync.Dispatch)

	workerHandler := worker.NewHandler(profileRepo, historyRepo, postRepo, waterRepo, feedSync)
	manager := worker.NewManager(consumer, workerHandler, worker.ManagerConfig{
		WorkerCount: cfg.SyncWorkerCount,
	})
	if err := manager.Start(ctx); err != nil {
		return fmt.Errorf("failed to start sync workers: %w", err)
	}
	defer manager.Stop()

	// 5. AI and media
	aiClient := ai.NewClient(cfg.GeminiAPIKey)
	coach := ai.NewCoachService(aiClient, cfg.GeminiModel, cfg.GeminiTTSModel, cfg.GeminiImageModel)

	var mediaSvc *media.Service
	if svc, err := media.NewService(ctx, cfg); err != nil {
		log.Printf("[Server] media storage disabled: %v", err)
	} else {
		mediaSvc = svc
	}

	waterLogger := &voiceWaterLogger{profiles: profileSync, store: sessionStore}
	dial := func(ctx context.Context) (live.LiveConn, error) {
		return live.Connect(ctx, cfg.GeminiAPIKey, cfg.GeminiLiveModel)
	}
	newController := func(mic live.AudioSource, camera live.VideoSource, speaker live.Speaker) *live.Controller {
		return live.NewController(dial, mic, camera, speaker, waterLogger)
	}

	// 6. Recover a persisted session from a previous run
	sessionStore.Recover(ctx)

	// 7. HTTP surface
	router := NewRouter(RouterConfig{
		SessionStore:   sessionStore,
		SessionHandler: handler.NewSessionHandler(sessionStore),
		ProfileHandler: handler.NewProfileHandler(profileSync, appState),
		ScanHandler:    handler.NewScanHandler(coach, profileSync, mediaSvc, appState),
		MealHandler:    handler.NewMealHandler(historyLedger, feedSync, appState),
		PostHandler:    handler.NewPostHandler(feedSync, appState),
		WaterHandler:   handler.NewWaterHandler(profileSync, appState),
		CoachHandler:   handler.NewCoachHandler(coach, historyLedger, appState),
		LiveHandler:    handler.NewLiveHandler(newController),
	})

	srv := &stdhttp.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("[Server] listening on :%s", cfg.ServerPort)
		if err := srv.ListenAndServe(); err != nil && err != stdhttp.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Println("[Server] shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
