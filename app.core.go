package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"

	"github.com/boltdb/bolt"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type AppProvider interface {
	Run() error
	Serve() func() error
	Stop(context.Context, context.Context) func() error
}

type App struct {
	logger         *zap.Logger
	config         *Config
	server         *http.Server
	cleanups       []func()
	queueConsumers []func(context.Context) error
}

// NewApp provides an instance of App.
func NewApp() (AppProvider, error) {
	config, err := LoadAndInitConfigs(GitCommit, GitTag, BuildTime)
	if err != nil {
		return nil, fmt.Errorf("failed to setup app configuration: %s", err)
	}

	// ensure the logs folder exists and Setup the logging module.
	err = os.MkdirAll(config.LogFolder, 0o700)
	if err != nil {
		return nil, fmt.Errorf("failed to create logging folder: %s", err)
	}
	clock := NewClock(config.IsProduction)
	logWriter := NewRSyncWriter(config, clock)
	logger, flusher := SetupLogging(config, logWriter, NewTickClock(clock))

	app := &App{logger: logger, config: config}
	app.cleanups = append(app.cleanups, func() {
		if err := logWriter.Close(); err != nil {
			fmt.Println("error during closing of log file: ", err)
		}
	}, func() {
		if err := flusher(); err != nil {
			fmt.Println("error during flushing of logs: ", err)
		}
	})

	storage, queue, err := app.setupStorage(context.Background())
	if err != nil {
		app.Clean()
		return nil, err
	}

	views, err := NewTemplateRenderer()
	if err != nil {
		app.Clean()
		return nil, err
	}

	ids := NewIDsHandler()
	bookService := NewBookService(logger, config, clock, ids, storage, queue)
	apiService := NewAPIHandler(
		logger,
		config,
		&Statistics{
			version:   config.GitTag,
			container: IsAppRunningInDocker(),
			started:   clock.Now(),
			runtime:   runtime.Version(),
			platform:  runtime.GOOS + "/" + runtime.GOARCH,
		},
		clock,
		ids,
		NewMetrics(),
		views,
		bookService,
	)

	// Use git commit in case the tag is not set.
	if config.GitTag == "" {
		apiService.stats.version = config.GitCommit
	}

	// Build the map of middlewares stacks.
	middlewaresPublic, middlewaresOps := apiService.MiddlewaresStacks()

	// Configure the endpoints with their handlers and middlewares.
	router := apiService.SetupRoutes(NewRouteTable(),
		&MiddlewareMap{
			public: middlewaresPublic.Chain,
			ops:    middlewaresOps.Chain,
		},
	)
	// Wrap the router with the default http timeout handler.
	routerWithTimeout := http.TimeoutHandler(
		router,
		config.Server.RequestTimeout,
		"Timeout. Processing taking too long. Please try again later.")

	// Build the server definition.
	app.server = &http.Server{
		Addr:           fmt.Sprintf("%s:%s", config.Server.Host, config.Server.Port),
		Handler:        routerWithTimeout,
		ReadTimeout:    config.Server.ReadTimeout,
		WriteTimeout:   config.Server.WriteTimeout,
		MaxHeaderBytes: 1 << 20, // Max headers size : 1MB
	}

	return app, nil
}

// setupStorage connects the configured storage driver and, with the redis
// driver, the optional backup replication. Every opened client registers
// its cleanup on the app.
func (app *App) setupStorage(ctx context.Context) (BookStorage, Queuer, error) {
	config := app.config
	switch config.Storage.Driver {
	case DriverRedis:
		redisClient, err := GetRedisClient(&config.Redis)
		if err != nil {
			if redisClient != nil {
				_ = redisClient.Close()
			}
			return nil, nil, fmt.Errorf("failed to connect to redis server: %s", err)
		}
		app.cleanups = append(app.cleanups, func() { _ = redisClient.Close() })
		storage := NewRedisBookStorage(app.logger, redisClient)
		if !config.Backup.Enabled {
			return storage, nil, nil
		}

		backupClient, err := openBoltDB(&config.Backup.BoltDB)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open backup database: %s", err)
		}
		app.cleanups = append(app.cleanups, func() { _ = backupClient.Close() })
		queue := NewRedisQueue(redisClient, config.Redis.ReadTimeout)
		consumer := NewBoltDBConsumer(app.logger, queue, NewBoltBookStorage(app.logger, &config.Backup.BoltDB, backupClient))
		app.queueConsumers = append(app.queueConsumers, func(ctx context.Context) error {
			return consumer.Consume(ctx, CreateQueue, UpdateQueue, DeleteQueue)
		})
		return storage, queue, nil

	case DriverPostgres:
		pool, err := GetPostgresPool(ctx, &config.Postgres)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to postgres server: %s", err)
		}
		app.cleanups = append(app.cleanups, pool.Close)
		return NewPostgresBookStorage(app.logger, &config.Postgres, pool), nil, nil

	default:
		client, err := openBoltDB(&config.BoltDB)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open boltdb database: %s", err)
		}
		app.cleanups = append(app.cleanups, func() { _ = client.Close() })
		return NewBoltBookStorage(app.logger, &config.BoltDB, client), nil, nil
	}
}

// openBoltDB ensures the database folder exists before opening the file.
func openBoltDB(config *BoltDBConfig) (*bolt.DB, error) {
	if err := os.MkdirAll(filepath.Dir(config.FilePath), 0o700); err != nil {
		return nil, err
	}
	return GetBoltDBClient(config)
}

// Run starts the web server and a goroutine which is responsible to stop it.
func (app *App) Run() error {
	defer app.Clean()
	nCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gCtx := errgroup.WithContext(nCtx)

	g.Go(app.ConsumeQueues(gCtx, g))
	g.Go(app.Serve())
	g.Go(app.Stop(nCtx, gCtx))

	err := g.Wait()
	app.logger.Info("server stopped",
		zap.String("app.host", app.config.Server.Host),
		zap.String("app.port", app.config.Server.Port),
		zap.Error(err),
	)
	return err
}

// Clean calls all registered cleanups functions in reverse order.
func (app *App) Clean() {
	for i := len(app.cleanups) - 1; i >= 0; i-- {
		app.cleanups[i]()
	}
}

// Serve starts the web server. It returned error
// will be caught by the errorgroup.
func (app *App) Serve() func() error {
	return func() error {
		app.logger.Info("server starting",
			zap.String("app.host", app.config.Server.Host),
			zap.String("app.port", app.config.Server.Port),
			zap.String("app.storage", app.config.Storage.Driver),
		)
		err := app.server.ListenAndServe()
		if err == http.ErrServerClosed {
			err = nil
		}
		return err
	}
}

// Stop listens for the group context and triggers the server graceful shutdown.
// It states the reason of its call. We proceed with a brutal shutdown if the
// the graceful did not complete successfully. We explicitly return `nil` to
// allow the errorgroup catches only the `Serve` method result.
func (app *App) Stop(nCtx, gCtx context.Context) func() error {
	return func() error {
		<-gCtx.Done()

		if nCtx.Err() != nil {
			app.logger.Info("server stopping. reason: requested to stop")
		} else {
			app.logger.Info("server stopping. reason: errored at running")
		}

		sCtx, cancel := context.WithTimeout(context.Background(), app.config.Server.ShutdownTimeout)
		defer cancel()
		err := app.server.Shutdown(sCtx)
		switch err {
		case nil, http.ErrServerClosed:
			app.logger.Info("server graceful shutdown succeeded")
		case context.DeadlineExceeded:
			app.logger.Info("server graceful shutdown timed out")
		default:
			app.logger.Info("server graceful shutdown failed", zap.Error(err))
		}

		if err != nil && err != http.ErrServerClosed {
			app.logger.Info("server going to force shutdown", zap.Error(app.server.Close()))
		}
		return nil
	}
}

// ConsumeQueues runs all queue consumers into separate controlled goroutines.
func (app *App) ConsumeQueues(gCtx context.Context, g *errgroup.Group) func() error {
	return func() error {
		for _, consume := range app.queueConsumers {
			consume := consume
			g.Go(func() error {
				return consume(gCtx)
			})
		}
		return nil
	}
}
