package app

import (
	"context"
	"sync"
	"time"

	"github.com/Rasmogul/greatsoko/config"
	"github.com/Rasmogul/greatsoko/internal/server"
	"github.com/Rasmogul/greatsoko/pkg/cache"
	"github.com/Rasmogul/greatsoko/pkg/logger"
	"github.com/Rasmogul/greatsoko/pkg/migration"
	"github.com/Rasmogul/greatsoko/pkg/schedule"
)

// HealthInterval is how often the gRPC health status follows MongoDB.
const HealthInterval = 10 * time.Second

// Serve runs the queue workers, the WebSocket hub, the scheduler, the gRPC
// health server and the HTTP server until ctx is cancelled. Background
// workers are drained before it returns.
func (a *App) Serve(ctx context.Context) error {
	if pending, err := migration.New(a.DB).Pending(ctx); err != nil {
		logger.Warn("app: could not check migrations", "error", err)
	} else if len(pending) > 0 {
		logger.Warn("app: pending migrations, run `greatsoko migrate`", "pending", pending)
	}

	bgCtx, stopBackground := context.WithCancel(context.WithoutCancel(ctx))
	var wg sync.WaitGroup
	background := func(name string, fn func(context.Context)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			fn(bgCtx)
			logger.Info("app: stopped", "worker", name)
		}()
	}

	background("queue", func(ctx context.Context) {
		if err := a.Queue.Run(ctx); err != nil {
			logger.Error("app: queue stopped", "error", err)
		}
	})
	background("ws", a.Hub.Run)
	background("schedule", a.Scheduler().Run)

	if _, err := a.Health.Start(config.GRPCPort()); err != nil {
		stopBackground()
		wg.Wait()
		return err
	}

	err := server.Run(ctx, ":"+config.AppPort(), a.Router.Handler())

	a.Health.Stop()
	stopBackground()
	wg.Wait()
	return err
}

// Scheduler returns the periodic tasks of the serve process.
func (a *App) Scheduler() *schedule.Scheduler {
	s := schedule.New()
	s.Every("grpc:health", HealthInterval, a.Health.Probe).WithoutOverlapping()
	if cache.RDB != nil {
		s.Every("catalog:warm-top", config.CacheTTL(), a.warmTopProducts).WithoutOverlapping()
	}
	return s
}

func (a *App) warmTopProducts(ctx context.Context) {
	if _, err := a.Services.Products.Top(ctx); err != nil {
		logger.Warn("app: warming top products failed", "error", err)
	}
}
