package di

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"coffee-analysis/application/serviceimpl"
	"coffee-analysis/domain/models"
	"coffee-analysis/domain/ports"
	"coffee-analysis/domain/repositories"
	"coffee-analysis/domain/services"
	"coffee-analysis/infrastructure/alert"
	"coffee-analysis/infrastructure/inference"
	natspkg "coffee-analysis/infrastructure/nats"
	"coffee-analysis/infrastructure/postgres"
	redispkg "coffee-analysis/infrastructure/redis"
	"coffee-analysis/infrastructure/storage"
	"coffee-analysis/interfaces/api/handlers"
	"coffee-analysis/pkg/config"
	"coffee-analysis/pkg/logger"
	"coffee-analysis/pkg/scheduler"
)

// Container wires the full dependency graph. Optional capabilities (redis,
// NATS, model files, webhook) degrade to null implementations, so downstream
// code never branches on nil.
type Container struct {
	Config *config.Config

	// Infrastructure
	DB             *gorm.DB
	RedisClient    *redispkg.Client // nil when redis is not configured
	NATSClient     *natspkg.Client  // nil when NATS is unreachable
	NATSConsumer   *natspkg.Consumer
	EventScheduler scheduler.EventScheduler

	// Capability ports (never nil)
	SharedCache  ports.SharedCachePort
	JobQueue     ports.JobQueuePort
	Storage      ports.ImageStoragePort
	ImageEngine  ports.InferencePort
	SymptomModel ports.InferencePort
	Notifier     ports.NotifierPort

	// Repositories
	PredictionRepository    repositories.PredictionRepository
	ProcessingLogRepository repositories.ProcessingLogRepository

	// Services
	CacheService      services.CacheService
	PredictionService services.PredictionService
	DispatchService   services.DispatchService
	StuckDetector     *serviceimpl.StuckDetectorService
}

func NewContainer() *Container {
	return &Container{}
}

func (c *Container) Initialize() error {
	if err := c.initConfig(); err != nil {
		return err
	}

	if err := c.initLogger(); err != nil {
		return err
	}

	if err := c.initInfrastructure(); err != nil {
		return err
	}

	c.initEngines()
	c.initRepositories()
	c.initServices()

	if err := c.initScheduler(); err != nil {
		return err
	}

	return nil
}

func (c *Container) initConfig() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	c.Config = cfg
	return nil
}

func (c *Container) initLogger() error {
	logConfig := logger.Config{
		Level:      c.Config.Log.Level,
		Format:     c.Config.Log.Format,
		Output:     c.Config.Log.Output,
		FilePath:   c.Config.Log.FilePath,
		MaxSize:    c.Config.Log.MaxSize,
		MaxBackups: c.Config.Log.MaxBackups,
		MaxAge:     c.Config.Log.MaxAge,
		Compress:   c.Config.Log.Compress,
	}

	if err := logger.Init(logConfig); err != nil {
		return err
	}

	logger.Info("Logger initialized",
		"level", c.Config.Log.Level,
		"format", c.Config.Log.Format,
		"output", c.Config.Log.Output,
	)
	return nil
}

func (c *Container) initInfrastructure() error {
	// Database is the one hard dependency.
	db, err := postgres.NewDatabase(c.Config.Database)
	if err != nil {
		return err
	}
	c.DB = db
	logger.Info("Database connected", "host", c.Config.Database.Host, "db", c.Config.Database.DBName)

	if err := postgres.Migrate(db); err != nil {
		return err
	}
	logger.Info("Database migrated")

	// Redis is optional; without it the cache runs on the fast tier alone.
	c.SharedCache = ports.NullSharedCache{}
	if c.Config.Redis.URL != "" {
		redisClient, err := redispkg.NewClient(&c.Config.Redis)
		if err != nil {
			logger.Warn("Redis unavailable, shared cache tier disabled", "error", err)
		} else {
			c.RedisClient = redisClient
			c.SharedCache = redisClient
			logger.Info("Redis connected", "url", c.Config.Redis.URL)
		}
	}

	// NATS is optional; without it every submission processes synchronously.
	c.JobQueue = ports.NullJobQueue{}
	natsClient, err := natspkg.NewClient(natspkg.ClientConfig{URL: c.Config.NATS.URL})
	if err != nil {
		logger.Warn("NATS unavailable, submissions will process synchronously", "error", err)
	} else {
		c.NATSClient = natsClient
		c.JobQueue = natspkg.NewPublisher(natsClient, c.Config.NATS.PublishTimeout)
		c.NATSConsumer = natspkg.NewConsumer(natsClient, natspkg.ConsumerConfig{
			Concurrency:     c.Config.Worker.Concurrency,
			ShutdownTimeout: c.Config.Worker.ShutdownTimeout,
		})
		logger.Info("NATS connected", "url", c.Config.NATS.URL)
	}

	if err := c.initStorage(); err != nil {
		return err
	}

	c.Notifier = alert.NewDiscordNotifier(c.Config.Alert)
	if !c.Notifier.IsEnabled() {
		c.Notifier = ports.NoopNotifier{}
	}

	return nil
}

func (c *Container) initStorage() error {
	switch c.Config.Storage.Type {
	case "s3":
		s3Storage, err := storage.NewS3Storage(c.Config.Storage.S3)
		if err != nil {
			return fmt.Errorf("failed to initialize S3 storage: %w", err)
		}
		c.Storage = s3Storage
		logger.Info("S3 storage initialized",
			"endpoint", c.Config.Storage.S3.Endpoint,
			"bucket", c.Config.Storage.S3.Bucket,
		)

	default:
		localStorage, err := storage.NewLocalStorage(storage.LocalStorageConfig{
			BasePath: c.Config.Storage.BasePath,
		})
		if err != nil {
			return fmt.Errorf("failed to initialize local storage: %w", err)
		}
		c.Storage = localStorage
		logger.Info("Local storage initialized", "path", c.Config.Storage.BasePath)
	}

	return nil
}

// initEngines loads the ONNX models. A missing model file is not fatal: the
// engine is replaced by a null implementation and the pipeline runs in mock
// mode until a reload succeeds.
func (c *Container) initEngines() {
	c.ImageEngine = c.loadEngine("image-model", c.Config.Model.ImageModelPaths)
	c.SymptomModel = c.loadEngine("symptom-model", c.Config.Model.SymptomModelPaths)
}

func (c *Container) loadEngine(component string, candidates []string) ports.InferencePort {
	engine, err := inference.NewEngine(inference.Options{
		Component:      component,
		CandidatePaths: candidates,
		PoolSize:       c.Config.Model.SessionPoolSize,
		LibraryPath:    c.Config.Model.ORTLibraryPath,
		InputSize:      c.Config.Model.InputSize,
	})
	if err != nil {
		if errors.Is(err, models.ErrModelNotFound) {
			logger.Warn("No model file found, running without it", "component", component)
		} else {
			logger.Warn("Model load failed, running without it", "component", component, "error", err)
		}
		return ports.NullInferenceEngine{Component: component}
	}

	handle, _ := engine.Handle()
	logger.Info("Model loaded",
		"component", component,
		"version", handle.Version,
		"classes", handle.NumClasses,
		"layout", handle.Layout.String(),
	)
	return engine
}

func (c *Container) initRepositories() {
	c.PredictionRepository = postgres.NewPredictionRepository(c.DB)
	c.ProcessingLogRepository = postgres.NewProcessingLogRepository(c.DB)
	logger.Info("Repositories initialized")
}

func (c *Container) initServices() {
	c.CacheService = serviceimpl.NewCacheService(c.SharedCache,
		c.Config.Cache.FastTTL, c.Config.Cache.SharedTTL)

	symptoms := serviceimpl.NewSymptomClassifier(c.SymptomModel)

	imagePaths := c.Config.Model.ImageModelPaths
	locate := func() (string, error) {
		return inference.LocateModel(imagePaths)
	}

	c.PredictionService = serviceimpl.NewPredictionService(
		c.ImageEngine, symptoms, c.CacheService, locate)

	c.DispatchService = serviceimpl.NewDispatchService(
		c.PredictionService,
		c.Storage,
		c.JobQueue,
		c.PredictionRepository,
		c.ProcessingLogRepository,
		c.Notifier,
		c.Config.Worker.ID,
	)
	logger.Info("Services initialized")
}

func (c *Container) initScheduler() error {
	c.EventScheduler = scheduler.NewEventScheduler()

	c.StuckDetector = serviceimpl.NewStuckDetectorService(
		c.ProcessingLogRepository,
		c.EventScheduler,
		c.Config.Worker.StuckAfter,
	)
	if err := c.StuckDetector.RegisterDetectorJob(); err != nil {
		return err
	}

	if sweeper, ok := c.CacheService.(*serviceimpl.CacheServiceImpl); ok {
		err := c.EventScheduler.AddJob("cache_sweep", "@every 10m", func() {
			if removed := sweeper.SweepExpired(); removed > 0 {
				logger.Debug("Fast cache tier swept", "removed", removed)
			}
		})
		if err != nil {
			return err
		}
	}

	c.EventScheduler.Start()
	logger.Info("Scheduler started", "stuck_after", c.Config.Worker.StuckAfter)
	return nil
}

// GetHandlerServices exposes the slice of the graph the HTTP layer needs.
func (c *Container) GetHandlerServices() *handlers.Services {
	return &handlers.Services{
		DispatchService:      c.DispatchService,
		PredictionService:    c.PredictionService,
		PredictionRepository: c.PredictionRepository,
		DB:                   c.DB,
		SharedCache:          c.SharedCache,
		JobQueue:             c.JobQueue,
		Storage:              c.Storage,
	}
}

func (c *Container) GetConfig() *config.Config {
	return c.Config
}

// Cleanup releases infrastructure in reverse dependency order.
func (c *Container) Cleanup() error {
	var errs []error

	if c.EventScheduler != nil && c.EventScheduler.IsRunning() {
		c.EventScheduler.Stop()
	}

	if c.ImageEngine != nil {
		if err := c.ImageEngine.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if c.SymptomModel != nil {
		if err := c.SymptomModel.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	if c.NATSClient != nil {
		if err := c.NATSClient.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	if c.DB != nil {
		if sqlDB, err := c.DB.DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}

	return errors.Join(errs...)
}
