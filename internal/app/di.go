// Package app provides the dependency injection container for assembling
// application components.
package app

import (
	"context"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/allisson/provenance/internal/config"
	cryptoDomain "github.com/allisson/provenance/internal/crypto/domain"
	cryptoService "github.com/allisson/provenance/internal/crypto/service"
	"github.com/allisson/provenance/internal/database"
	"github.com/allisson/provenance/internal/dispatch"
	eventHTTP "github.com/allisson/provenance/internal/event/http"
	eventRepository "github.com/allisson/provenance/internal/event/repository"
	eventService "github.com/allisson/provenance/internal/event/service"
	eventUsecase "github.com/allisson/provenance/internal/event/usecase"
	"github.com/allisson/provenance/internal/http"
	"github.com/allisson/provenance/internal/metrics"
)

// Container holds all application dependencies and provides methods to access them.
// It follows the lazy initialization pattern - components are created on first access.
type Container struct {
	config *config.Config

	logger     *slog.Logger
	db         *sql.DB
	txManager  database.TxManager
	cipher     *cryptoService.EnvelopeCipher
	eventRepo  eventUsecase.EventRepository
	dispatcher *dispatch.Dispatcher
	publisher  eventUsecase.Publisher

	metricsProvider *metrics.Provider
	businessMetrics metrics.BusinessMetrics

	eventUseCase eventUsecase.EventUseCase

	httpServer    *http.Server
	metricsServer *http.MetricsServer

	loggerInit        sync.Once
	dbInit            sync.Once
	txManagerInit     sync.Once
	cipherInit        sync.Once
	eventRepoInit     sync.Once
	dispatcherInit    sync.Once
	publisherInit     sync.Once
	metricsInit       sync.Once
	eventUseCaseInit  sync.Once
	httpServerInit    sync.Once
	metricsServerInit sync.Once

	mu         sync.Mutex
	initErrors map[string]error
}

// NewContainer creates a new dependency injection container with the provided configuration.
func NewContainer(cfg *config.Config) *Container {
	return &Container{
		config:     cfg,
		initErrors: make(map[string]error),
	}
}

// Config returns the application configuration.
func (c *Container) Config() *config.Config {
	return c.config
}

// Logger returns the configured logger instance.
func (c *Container) Logger() *slog.Logger {
	c.loggerInit.Do(func() {
		c.logger = c.initLogger()
	})
	return c.logger
}

// DB returns the database connection.
func (c *Container) DB() (*sql.DB, error) {
	c.dbInit.Do(func() {
		db, err := database.Connect(database.Config{
			Driver:             c.config.DBDriver,
			Path:               c.config.DBPath,
			ConnectionString:   c.config.DBConnectionString,
			MaxOpenConnections: c.config.DBMaxOpenConnections,
			MaxIdleConnections: c.config.DBMaxIdleConnections,
			ConnMaxLifetime:    c.config.DBConnMaxLifetime,
		})
		if err != nil {
			c.setInitError("db", err)
			return
		}
		c.db = db
	})
	if err := c.initError("db"); err != nil {
		return nil, err
	}
	return c.db, nil
}

// TxManager returns the transaction manager.
func (c *Container) TxManager() (database.TxManager, error) {
	c.txManagerInit.Do(func() {
		db, err := c.DB()
		if err != nil {
			c.setInitError("txManager", err)
			return
		}
		c.txManager = database.NewTxManager(db)
	})
	if err := c.initError("txManager"); err != nil {
		return nil, err
	}
	return c.txManager, nil
}

// EnvelopeCipher returns the envelope cipher built from the configured key.
// Key material is decoded (and unwrapped through KMS when configured), handed
// to the cipher constructor and zeroed immediately afterward.
func (c *Container) EnvelopeCipher() (*cryptoService.EnvelopeCipher, error) {
	c.cipherInit.Do(func() {
		cipher, err := c.initEnvelopeCipher()
		if err != nil {
			c.setInitError("cipher", err)
			return
		}
		c.cipher = cipher
	})
	if err := c.initError("cipher"); err != nil {
		return nil, err
	}
	return c.cipher, nil
}

// EventRepository returns the event repository for the configured driver.
func (c *Container) EventRepository() (eventUsecase.EventRepository, error) {
	c.eventRepoInit.Do(func() {
		repo, err := c.initEventRepository()
		if err != nil {
			c.setInitError("eventRepo", err)
			return
		}
		c.eventRepo = repo
	})
	if err := c.initError("eventRepo"); err != nil {
		return nil, err
	}
	return c.eventRepo, nil
}

// Dispatcher returns the replication worker pool.
func (c *Container) Dispatcher() *dispatch.Dispatcher {
	c.dispatcherInit.Do(func() {
		c.dispatcher = dispatch.NewDispatcher(
			context.Background(),
			c.config.DispatcherWorkers,
			c.Logger(),
		)
	})
	return c.dispatcher
}

// Publisher returns the content-addressed publish collaborator.
func (c *Container) Publisher() eventUsecase.Publisher {
	c.publisherInit.Do(func() {
		c.publisher = eventService.NewIPFSPublisher(
			c.config.PublisherGatewayURL,
			c.config.PublisherTimeout,
		)
	})
	return c.publisher
}

// MetricsProvider returns the metrics provider, or nil when metrics are disabled.
func (c *Container) MetricsProvider() (*metrics.Provider, error) {
	if err := c.initMetrics(); err != nil {
		return nil, err
	}
	return c.metricsProvider, nil
}

// BusinessMetrics returns the business metrics recorder (no-op when disabled).
func (c *Container) BusinessMetrics() (metrics.BusinessMetrics, error) {
	if err := c.initMetrics(); err != nil {
		return nil, err
	}
	return c.businessMetrics, nil
}

// EventUseCase returns the pipeline orchestrator, wrapped with metrics.
func (c *Container) EventUseCase() (eventUsecase.EventUseCase, error) {
	c.eventUseCaseInit.Do(func() {
		useCase, err := c.initEventUseCase()
		if err != nil {
			c.setInitError("eventUseCase", err)
			return
		}
		c.eventUseCase = useCase
	})
	if err := c.initError("eventUseCase"); err != nil {
		return nil, err
	}
	return c.eventUseCase, nil
}

// HTTPServer returns the API server (this initializes all dependencies).
func (c *Container) HTTPServer() (*http.Server, error) {
	c.httpServerInit.Do(func() {
		useCase, err := c.EventUseCase()
		if err != nil {
			c.setInitError("httpServer", err)
			return
		}
		handler := eventHTTP.NewEventHandler(useCase, c.Logger())
		c.httpServer = http.NewServer(c.config, handler, c.Logger())
	})
	if err := c.initError("httpServer"); err != nil {
		return nil, err
	}
	return c.httpServer, nil
}

// MetricsServer returns the metrics server, or nil when metrics are disabled.
func (c *Container) MetricsServer() (*http.MetricsServer, error) {
	c.metricsServerInit.Do(func() {
		if !c.config.MetricsEnabled {
			return
		}
		provider, err := c.MetricsProvider()
		if err != nil {
			c.setInitError("metricsServer", err)
			return
		}
		c.metricsServer = http.NewMetricsServer(
			c.config.ServerHost,
			c.config.MetricsPort,
			c.Logger(),
			provider,
		)
	})
	if err := c.initError("metricsServer"); err != nil {
		return nil, err
	}
	return c.metricsServer, nil
}

// Shutdown drains the pipeline and releases resources.
// The dispatcher is drained before the record store closes so no in-flight
// replication job observes a closed store.
func (c *Container) Shutdown(ctx context.Context) error {
	var errs []error

	if c.eventUseCase != nil {
		if err := c.eventUseCase.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("pipeline shutdown: %w", err))
		}
	} else if c.dispatcher != nil {
		c.dispatcher.Close()
	}

	if c.db != nil {
		if err := c.db.Close(); err != nil {
			errs = append(errs, fmt.Errorf("database close: %w", err))
		}
	}

	return errors.Join(errs...)
}

// initLogger creates the slog logger based on the configured level.
func (c *Container) initLogger() *slog.Logger {
	var logLevel slog.Level
	switch c.config.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})

	return slog.New(handler)
}

// initEnvelopeCipher decodes (and optionally KMS-unwraps) the configured key
// and builds the envelope cipher.
func (c *Container) initEnvelopeCipher() (*cryptoService.EnvelopeCipher, error) {
	alg, err := cryptoDomain.ParseAlgorithm(c.config.EncryptionAlgorithm)
	if err != nil {
		return nil, err
	}

	key, err := base64.StdEncoding.DecodeString(c.config.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("failed to decode encryption key: %w", err)
	}

	if c.config.KMSProvider != "" {
		key, err = c.unwrapKey(key)
		if err != nil {
			return nil, err
		}
	}
	defer cryptoDomain.Zero(key)

	return cryptoService.NewEnvelopeCipher(key, alg, cryptoService.NewAEADManager())
}

// unwrapKey decrypts KMS-wrapped key material through the configured keeper.
func (c *Container) unwrapKey(wrapped []byte) ([]byte, error) {
	ctx := context.Background()

	kmsService := cryptoService.NewKMSService()
	keeper, err := kmsService.OpenKeeper(ctx, c.config.KMSKeyURI)
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := keeper.Close(); closeErr != nil {
			c.Logger().Warn("failed to close KMS keeper", slog.Any("error", closeErr))
		}
	}()

	key, err := keeper.Decrypt(ctx, wrapped)
	if err != nil {
		return nil, fmt.Errorf("failed to unwrap encryption key: %w", err)
	}
	return key, nil
}

// initEventRepository selects the repository implementation by driver.
func (c *Container) initEventRepository() (eventUsecase.EventRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, err
	}

	switch c.config.DBDriver {
	case "sqlite3":
		return eventRepository.NewSQLiteEventRepository(db)
	case "postgres":
		return eventRepository.NewPostgreSQLEventRepository(db), nil
	case "mysql":
		return eventRepository.NewMySQLEventRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initMetrics creates the provider and business metrics once.
func (c *Container) initMetrics() error {
	c.metricsInit.Do(func() {
		if !c.config.MetricsEnabled {
			c.businessMetrics = metrics.NewNoOpBusinessMetrics()
			return
		}

		provider, err := metrics.NewProvider()
		if err != nil {
			c.setInitError("metrics", err)
			return
		}

		business, err := metrics.NewBusinessMetrics(
			provider.MeterProvider(),
			c.config.MetricsNamespace,
		)
		if err != nil {
			c.setInitError("metrics", err)
			return
		}

		c.metricsProvider = provider
		c.businessMetrics = business
	})
	return c.initError("metrics")
}

// initEventUseCase assembles the pipeline orchestrator.
func (c *Container) initEventUseCase() (eventUsecase.EventUseCase, error) {
	txManager, err := c.TxManager()
	if err != nil {
		return nil, err
	}

	eventRepo, err := c.EventRepository()
	if err != nil {
		return nil, err
	}

	cipher, err := c.EnvelopeCipher()
	if err != nil {
		return nil, err
	}

	business, err := c.BusinessMetrics()
	if err != nil {
		return nil, err
	}

	useCase := eventUsecase.NewEventUseCase(
		txManager,
		eventRepo,
		cipher,
		c.Dispatcher(),
		c.Publisher(),
		c.Logger(),
	)

	return eventUsecase.NewEventUseCaseWithMetrics(useCase, business), nil
}

// setInitError records a component initialization error.
func (c *Container) setInitError(name string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.initErrors[name] = err
}

// initError returns a previously recorded initialization error.
func (c *Container) initError(name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.initErrors[name]
}
