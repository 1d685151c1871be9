package main // Entry point package

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/seat-reservation/internal/config"
	"github.com/iliyamo/seat-reservation/internal/database"
	"github.com/iliyamo/seat-reservation/internal/handler"
	"github.com/iliyamo/seat-reservation/internal/middleware"
	"github.com/iliyamo/seat-reservation/internal/notify"
	"github.com/iliyamo/seat-reservation/internal/queue"
	"github.com/iliyamo/seat-reservation/internal/repository"
	"github.com/iliyamo/seat-reservation/internal/router"
	"github.com/iliyamo/seat-reservation/internal/service"
)

func main() {
	cfg := config.Load() // Load environment config

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg.DB)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()
	if err := database.Migrate(ctx, db); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	rdb := config.NewRedisClient() // nil when Redis is disabled or down
	if rdb != nil {
		defer rdb.Close()
	}

	// ---- Notifications ----
	var sink notify.Sink = notify.LogSink{}
	if cfg.Notify.RabbitURL != "" {
		pub := queue.NewPublisher(cfg.Notify.RabbitURL, cfg.Notify.Queue)
		defer pub.Close()
		sink = pub
		if cfg.Notify.ConsumerEnabled {
			consumer := queue.NewConsumer(cfg.Notify.RabbitURL, cfg.Notify.Queue, cfg.Notify.LogDir)
			go func() {
				if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
					log.Printf("consumer: %v", err)
				}
			}()
		}
	} else {
		log.Printf("notify: RABBITMQ_URL not set, notifications go to the log only")
	}
	dispatcher, stopDispatcher := startDispatcher(sink, notify.Options{
		Buffer:      cfg.Notify.Buffer,
		Workers:     cfg.Notify.Workers,
		MaxAttempts: cfg.Notify.MaxAttempts,
	})

	// ---- Core ----
	seats := repository.NewSeatRepo(db)
	events := repository.NewEventRepo(db)
	payments := repository.NewPaymentRepo(db)
	reviewers := repository.NewReviewerRepo(db)
	sessions := repository.NewSessionRepo(db)
	supportRepo := repository.NewSupportRepo(db)

	pool := service.NewWorkerPool(cfg.Reservation.Workers)
	res := service.NewReservations(seats, events, payments, pool)
	res.MaxPrice = cfg.Reservation.MaxPrice
	approvals := service.NewApprovals(res, reviewers, dispatcher)
	agg := service.NewAggregator(seats, events, payments)
	support := service.NewSupport(supportRepo, reviewers, dispatcher)

	if err := approvals.EnsureRootReviewer(ctx, cfg.Reservation.RootReviewerID); err != nil {
		log.Fatalf("root reviewer: %v", err)
	}

	var ledger service.ReminderLedger
	switch {
	case cfg.Reservation.RemindRepeat:
		ledger = service.RepeatLedger{}
	case rdb != nil:
		ledger = service.NewRedisLedger(rdb, cfg.Reservation.ExpireAfter, "seat:reminded")
	default:
		ledger = service.NewMemoryLedger(cfg.Reservation.ExpireAfter)
	}
	sweeper := service.NewSweeper(seats, res, dispatcher, ledger, service.SweeperConfig{
		Interval:    cfg.Reservation.SweepInterval,
		RemindAfter: cfg.Reservation.RemindAfter,
		ExpireAfter: cfg.Reservation.ExpireAfter,
	})
	sweepDone := make(chan struct{})
	go func() {
		defer close(sweepDone)
		sweeper.Run(ctx)
	}()

	// ---- HTTP ----
	e := echo.New() // Create Echo instance
	e.HideBanner = true
	e.Use(echomw.Logger())
	e.Use(echomw.Recover())

	router.RegisterRoutes(e, &handler.HealthHandler{DB: db, Stats: dispatcher.Stats})
	router.RegisterPublic(e, handler.NewPublicHandler(res), middleware.ResponseCache(config.LoadCacheConfig(), rdb))
	router.RegisterCustomer(e, handler.NewCustomerHandler(res, approvals, sessions, cfg.Reservation.ExpireAfter),
		cfg.JWTSecret, middleware.RateLimit(config.LoadRateLimitConfig(), rdb))
	router.RegisterReviewer(e, handler.NewReviewerHandler(approvals, res, agg), cfg.JWTSecret)
	router.RegisterSessions(e, handler.NewSessionHandler(sessions), cfg.JWTSecret, approvals.IsReviewer)
	router.RegisterSupport(e, handler.NewSupportHandler(support, sessions), cfg.JWTSecret, approvals.IsReviewer)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s driver=%s)", addr, cfg.Env, cfg.DB.Driver)
	go func() {
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err) // Log and exit if server fails
		}
	}()

	<-ctx.Done()
	log.Printf("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("http shutdown: %v", err)
	}
	<-sweepDone
	pool.Close()
	stopDispatcher()
}

// startDispatcher runs the dispatcher on its own context rather than
// the signal one, so notifications queued by the last sweep keep their
// retries while stop drains them.
func startDispatcher(sink notify.Sink, opts notify.Options) (*notify.Dispatcher, func()) {
	ctx, cancel := context.WithCancel(context.Background())
	d := notify.NewDispatcher(sink, opts)
	d.Start(ctx)
	return d, func() {
		d.Close()
		cancel()
	}
}
