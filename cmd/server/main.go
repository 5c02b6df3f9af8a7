package main // Entry point package

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/room-reservation/internal/cache"
	"github.com/iliyamo/room-reservation/internal/config"
	"github.com/iliyamo/room-reservation/internal/database"
	"github.com/iliyamo/room-reservation/internal/handler"
	"github.com/iliyamo/room-reservation/internal/middleware"
	"github.com/iliyamo/room-reservation/internal/model"
	"github.com/iliyamo/room-reservation/internal/queue"
	"github.com/iliyamo/room-reservation/internal/repository"
	"github.com/iliyamo/room-reservation/internal/repository/memory"
	"github.com/iliyamo/room-reservation/internal/router"
	"github.com/iliyamo/room-reservation/internal/service"
)

func main() {
	cfg, err := config.Load() // Load environment config
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Storage: MySQL in every real deployment, the in-memory store for demos.
	var uow service.UnitOfWork
	var pinger handler.Pinger
	switch cfg.Storage {
	case config.StorageMemory:
		store := memory.New()
		seedDemo(store)
		uow = store
		log.Printf("storage: in-memory (data is lost on exit)")
	default:
		db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
		if err != nil {
			log.Fatalf("database: %v", err)
		}
		defer db.Close()
		if cfg.DBMigrate {
			if err := database.Migrate(ctx, db); err != nil {
				log.Fatalf("database: %v", err)
			}
		}
		uow = repository.NewUnitOfWork(db)
		pinger = db
	}

	// Redis backs the calendar cache and the rate limiter. Both degrade to
	// no-ops when it is unreachable.
	rdb := config.NewRedisClient(cfg.Redis)
	if rdb != nil {
		defer rdb.Close()
	}
	clock := service.SystemClock{Location: cfg.Location()}

	opts := []service.ManagerOption{}
	var calendarCache service.CalendarCache
	if cc := cache.NewCalendarCache(cfg.Cache, rdb); cc != nil {
		calendarCache = cc
		opts = append(opts, service.WithCalendarCache(cc))
	}
	if cfg.EventsEnabled {
		pub := queue.NewPublisher(cfg.RabbitURL)
		defer pub.Close()
		opts = append(opts, service.WithEventSink(pub), service.WithInvoiceSender(pub))
		if cfg.ConsumerEnabled {
			consumer := queue.NewConsumer(cfg.RabbitURL, "")
			go func() {
				if err := consumer.Run(ctx); err != nil && ctx.Err() == nil {
					log.Printf("reservation-consumer: stopped: %v", err)
				}
			}()
		}
	}

	manager := service.NewManager(uow, clock, opts...)
	materializer := service.NewMaterializer(uow, clock, calendarCache)

	e := echo.New() // Create Echo instance
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.Logger())
	router.RegisterRoutes(e, pinger)
	router.RegisterReservations(e,
		handler.NewReservationHandler(manager),
		handler.NewCalendarHandler(materializer),
		cfg.JWTSecret,
		middleware.NewRateLimiter(cfg.RateLimit, rdb),
	)

	addr := ":" + cfg.Port                                // Address string with port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env) // Print startup info
	go func() {
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatal(err) // Log and exit if server fails
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}

// seedDemo gives the in-memory store a small branch to play with.
func seedDemo(s *memory.Store) {
	for i, number := range []string{"101", "102", "201", "202"} {
		s.AddRoom(model.Room{
			ID:         uint64(i + 1),
			Number:     number,
			BranchID:   1,
			FloorID:    uint64(i/2 + 1),
			RoomTypeID: uint64(i%2 + 1),
			Status:     model.RoomAvailable,
		})
	}
}
