package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	reputationledger "atomsi/contexts/community-experience/reputation-ledger"
	reputationcommands "atomsi/contexts/community-experience/reputation-ledger/application/commands"
	proposallifecycle "atomsi/contexts/governance/proposal-lifecycle"
	memberregistry "atomsi/contexts/identity-access/member-registry"
	treasuryapproval "atomsi/contexts/treasury/treasury-approval"
	"atomsi/internal/platform/config"
	"atomsi/internal/platform/db"
	"atomsi/internal/platform/httpserver"
	"atomsi/internal/platform/messaging"
)

// Package bootstrap is the composition root.
// Keep construction/wiring here so module code stays framework-agnostic.

const moduleName = "internal/app/bootstrap"

// Application is the fully wired engine shared by the api and worker
// processes. Contexts only meet here and on the bus.
type Application struct {
	Config     config.Config
	Bus        *messaging.Bus
	Members    memberregistry.Module
	Proposals  proposallifecycle.Module
	Treasury   treasuryapproval.Module
	Reputation reputationledger.Module
	Notifier   *httpserver.Notifier

	postgres *db.Postgres
	redis    *redis.Client
	logger   *slog.Logger
}

type APIApp struct {
	app    *Application
	server *httpserver.Server
	logger *slog.Logger
}

type WorkerApp struct {
	app    *Application
	logger *slog.Logger
}

func BuildAPI(ctx context.Context) (*APIApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger := slog.Default().With("service", cfg.ServiceName, "process", "api")
	app, err := Build(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	return NewAPIApp(app), nil
}

func NewAPIApp(app *Application) *APIApp {
	return &APIApp{
		app:    app,
		server: app.HTTPServer(normalizeAddr(app.Config.HTTPPort)),
		logger: app.logger,
	}
}

func BuildWorker(ctx context.Context) (*WorkerApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if cfg.StoreDriver != config.StoreDriverPostgres {
		return nil, errors.New("worker requires STORE_DRIVER=postgres")
	}
	logger := slog.Default().With("service", cfg.ServiceName, "process", "worker")
	app, err := Build(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	return &WorkerApp{app: app, logger: logger}, nil
}

// HTTPServer mounts every module and the notification layer on addr.
func (a *Application) HTTPServer(addr string) *httpserver.Server {
	return httpserver.New(httpserver.Modules{
		Members:    a.Members,
		Proposals:  a.Proposals,
		Treasury:   a.Treasury,
		Reputation: a.Reputation,
	}, a.Notifier, a.logger, addr)
}

// StartReputationConsumer attaches the activity consumer to the bus before
// returning, so no event published afterwards is missed.
func (a *Application) StartReputationConsumer(ctx context.Context) (func() error, error) {
	sub, err := a.Bus.Subscribe(reputationcommands.ConsumedEventTypes...)
	if err != nil {
		return nil, err
	}
	return func() error {
		return ignoreCanceled(a.Reputation.Consumer.Run(ctx, sub))
	}, nil
}

func (a *Application) runForwarder(ctx context.Context) error {
	if a.redis == nil {
		return nil
	}
	forwarder := messaging.RedisStreamForwarder{
		Bus:    a.Bus,
		Client: a.redis,
		Stream: a.Config.RedisStream,
		Logger: a.logger,
	}
	return ignoreCanceled(forwarder.Run(ctx))
}

func (a *Application) runFinalizer(ctx context.Context) error {
	return runEvery(ctx, a.Config.FinalizeInterval, func(ctx context.Context) {
		_, _ = a.Proposals.Finalizer.RunOnce(ctx)
	})
}

func (a *Application) runReputationRetry(ctx context.Context) error {
	return runEvery(ctx, a.Config.ReputationRetry, func(ctx context.Context) {
		_, _ = a.Reputation.Retrier.RunOnce(ctx)
	})
}

// Close releases the bus, open sockets and store connections.
func (a *Application) Close() error {
	if a.Notifier != nil {
		a.Notifier.CloseAll()
	}
	if a.Bus != nil {
		a.Bus.Close()
	}
	var errs []error
	if a.redis != nil {
		errs = append(errs, a.redis.Close())
	}
	if a.postgres != nil {
		errs = append(errs, a.postgres.Close())
	}
	return errors.Join(errs...)
}

// Run serves HTTP and consumes bus events until ctx is done. With the memory
// driver there is no shared store for a worker process, so the scheduled
// jobs run here as well.
func (a *APIApp) Run(ctx context.Context) error {
	group, groupCtx := errgroup.WithContext(ctx)
	consume, err := a.app.StartReputationConsumer(groupCtx)
	if err != nil {
		return err
	}
	group.Go(consume)
	group.Go(func() error { return a.app.runForwarder(groupCtx) })
	if a.app.Config.StoreDriver == config.StoreDriverMemory {
		group.Go(func() error { return a.app.runFinalizer(groupCtx) })
		group.Go(func() error { return a.app.runReputationRetry(groupCtx) })
	}
	group.Go(a.server.Start)
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		a.app.Notifier.CloseAll()
		return a.server.Shutdown(shutdownCtx)
	})

	a.logger.Info("api app started",
		"event", "bootstrap_api_started",
		"module", moduleName,
		"layer", "platform",
		"store_driver", a.app.Config.StoreDriver,
	)
	return group.Wait()
}

func (a *APIApp) Close() error {
	return a.app.Close()
}

// Run drives the finalizer, the reputation retrier and the Redis forwarder
// until ctx is done.
func (w *WorkerApp) Run(ctx context.Context) error {
	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error { return w.app.runFinalizer(groupCtx) })
	group.Go(func() error { return w.app.runReputationRetry(groupCtx) })
	group.Go(func() error { return w.app.runForwarder(groupCtx) })

	w.logger.Info("worker app started",
		"event", "bootstrap_worker_started",
		"module", moduleName,
		"layer", "platform",
		"finalize_interval", w.app.Config.FinalizeInterval.String(),
		"reputation_retry_interval", w.app.Config.ReputationRetry.String(),
	)
	return group.Wait()
}

func (w *WorkerApp) Close() error {
	return w.app.Close()
}

func runEvery(ctx context.Context, interval time.Duration, job func(context.Context)) error {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		job(ctx)
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func normalizeAddr(port string) string {
	value := strings.TrimSpace(port)
	if value == "" {
		return ":8080"
	}
	if strings.HasPrefix(value, ":") {
		return value
	}
	return ":" + value
}
