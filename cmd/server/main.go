package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"slot-booking-service/config"
	"slot-booking-service/internal/cache"
	"slot-booking-service/internal/database"
	"slot-booking-service/internal/events"
	"slot-booking-service/internal/handler"
	"slot-booking-service/internal/repository"
	"slot-booking-service/internal/service"
	"slot-booking-service/internal/worker"
	"slot-booking-service/pkg/logger"
	"slot-booking-service/pkg/metrics"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()

	log := logger.WithComponent("main")
	cfg := config.LoadConfig()

	pool, err := database.InitDatabase(&cfg.Database)
	if err != nil {
		log.Fatal("failed to initialize database", zap.Error(err))
	}
	defer pool.Close()

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		log.Fatal("failed to initialize redis", zap.Error(err))
	}
	defer rdb.Close()

	metrics.Register()

	// repositories
	slotRepo := repository.NewSlotRepository(pool)
	shiftRepo := repository.NewShiftRepository(pool)
	lockRepo := repository.NewLockRepository(pool)
	bookingRepo := repository.NewBookingRepository(pool)
	ledgerRepo := repository.NewLedgerRepository(pool)

	availCache := cache.NewSlotAvailabilityManager(rdb, cfg.Booking.AvailabilityTTL)

	eventBus, err := events.NewRedisStreamBus(rdb, cfg.Booking.EventStreamKey, "", nil)
	if err != nil {
		log.Fatal("failed to initialize event bus", zap.Error(err))
	}

	// services
	slotService := service.NewSlotService(slotRepo, shiftRepo, availCache)
	lockService := service.NewLockService(pool, slotRepo, lockRepo, cfg.Booking.DefaultLockTTL, cfg.Booking.MaxLockTTL)
	bookingService := service.NewBookingService(pool, bookingRepo, slotRepo, lockRepo, ledgerRepo, availCache, eventBus)
	reconcileService := service.NewReconcileService(pool, slotRepo, bookingRepo, availCache)
	packageService := service.NewPackageService(ledgerRepo)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// background workers
	sweeper := worker.NewLockSweeper(lockService, cfg.Booking.SweepInterval)
	go sweeper.Start(ctx)

	notifier := worker.NewNotificationWorker(eventBus, worker.LogNotifier{})
	if err := notifier.Start(ctx); err != nil {
		log.Fatal("failed to start notification worker", zap.Error(err))
	}

	gin.SetMode(cfg.Server.Mode)
	router := gin.Default()
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	handler.NewSlotHandler(slotService).RegisterRoutes(router)
	handler.NewLockHandler(lockService).RegisterRoutes(router)
	handler.NewBookingHandler(bookingService).RegisterRoutes(router)
	handler.NewAdminHandler(reconcileService, packageService).RegisterRoutes(router)

	server := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	go func() {
		log.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", zap.Error(err))
	}
}
