package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"robot-dispatch/internal/config"
	"robot-dispatch/internal/events"
	"robot-dispatch/internal/infrastructure/cache"
	"robot-dispatch/internal/infrastructure/database/migrate"
	"robot-dispatch/internal/infrastructure/database/postgres"
	"robot-dispatch/internal/infrastructure/device"
	"robot-dispatch/internal/ingestion"
	"robot-dispatch/internal/lock"
	"robot-dispatch/internal/logger"
	"robot-dispatch/internal/metrics"
	"robot-dispatch/internal/middleware"
	"robot-dispatch/internal/routes"
	"robot-dispatch/internal/usecase/dispatch"
	"robot-dispatch/internal/usecase/fleet"
	"robot-dispatch/internal/usecase/node"
	"robot-dispatch/internal/usecase/order"
	"robot-dispatch/internal/usecase/robot"
	"robot-dispatch/internal/usecase/user"
	pkgmqtt "robot-dispatch/pkg/mqtt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("Failed to load configuration: " + err.Error() + "\n")
		os.Exit(1)
	}

	env := cfg.Server.Environment
	if env == "" {
		env = "development"
	}
	if err := logger.Init(env); err != nil {
		os.Stderr.WriteString("Failed to initialize logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer logger.Sync()

	if cfg.Database.Host == "" || cfg.Database.DBName == "" {
		logger.Fatal("Database configuration is missing. Please set DB_HOST and DB_NAME environment variables.")
	}

	db, err := postgres.NewDB(cfg)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	sqlDB, err := db.DB.DB()
	if err != nil {
		logger.Fatal("Failed to get sql.DB", zap.Error(err))
	}

	// `robot-dispatch migrate <goose command> [args]` runs migrations and exits
	if len(os.Args) > 1 && os.Args[1] == "migrate" {
		command, args := "up", []string(nil)
		if len(os.Args) > 2 {
			command, args = os.Args[2], os.Args[3:]
		}
		if err := migrate.Run(context.Background(), sqlDB, command, args...); err != nil {
			logger.Fatal("Migration failed", zap.String("command", command), zap.Error(err))
		}
		_ = db.Close()
		return
	}

	if cfg.JWT.Secret == "" {
		logger.Fatal("JWT secret is missing. Please set JWT_SECRET environment variable.")
	}

	logger.Info("Starting application", zap.String("environment", env))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Database.AutoMigrate {
		if err := migrate.Up(ctx, sqlDB); err != nil {
			logger.Fatal("Failed to apply migrations", zap.Error(err))
		}
	}

	var closers []func() error
	closers = append(closers, db.Close)

	checks := map[string]routes.HealthCheck{
		"database": func(context.Context) error { return db.Health() },
	}

	var state robot.StateStore
	if cfg.Redis.Addr != "" {
		stateCache, err := cache.New(ctx, cfg.Redis)
		if err != nil {
			logger.Fatal("Failed to connect to redis", zap.Error(err))
		}
		state = stateCache
		closers = append(closers, stateCache.Close)
		checks["redis"] = stateCache.Ping
	} else {
		logger.Warn("REDIS_ADDR not set; live robot state is disabled")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	dispatchMetrics := metrics.NewDispatchMetrics(reg)

	bus := events.NewEventBus()
	var forwarders []*events.Forwarder

	var mqttClient *pkgmqtt.Client
	if cfg.MQTT.Broker != "" {
		mqttClient = pkgmqtt.NewClient(&pkgmqtt.Config{
			Broker:         cfg.MQTT.Broker,
			ClientID:       cfg.MQTT.ClientID,
			Username:       cfg.MQTT.Username,
			Password:       cfg.MQTT.Password,
			CleanSession:   true,
			KeepAlive:      cfg.MQTT.KeepAliveSeconds,
			ConnectTimeout: cfg.MQTT.ConnectTimeoutSec,
			AutoReconnect:  true,
		})
		if err := mqttClient.Connect(); err != nil {
			logger.Fatal("Failed to connect to MQTT broker", zap.Error(err))
		}
		if cfg.MQTT.PublishEvents {
			sink := events.NewMQTTSink(mqttClient, cfg.MQTT.TopicPrefix, cfg.MQTT.QoS)
			forwarders = append(forwarders, events.NewForwarder(bus, sink, 0, 0))
		}
	}

	if len(cfg.Kafka.Brokers) > 0 {
		sink := events.NewKafkaSink(events.NewKafkaWriter(cfg.Kafka.Brokers, cfg.Kafka.EventsTopic), cfg.Kafka.EventsTopic)
		forwarders = append(forwarders, events.NewForwarder(bus, sink, 0, 0))
		closers = append(closers, sink.Close)
	}
	for _, f := range forwarders {
		f.Start()
	}
	hub := events.NewHub(bus)
	hub.Start()

	uow := postgres.NewUnitOfWork(db)
	userRepo := postgres.NewUserRepository(db)
	nodeRepo := postgres.NewNodeRepository(db)
	robotRepo := postgres.NewRobotRepository(db)
	orderRepo := postgres.NewOrderRepository(db)
	deviceClient := device.NewClient(cfg.Device.CommandTimeout)
	// dispatch, fleet and robot services serialise on the same robot locks
	robotLocks := lock.NewKeyed()

	nodeService := node.NewService(nodeRepo)
	if cfg.Seed.NodesFile != "" {
		if _, err := nodeService.SeedFromFile(ctx, cfg.Seed.NodesFile); err != nil {
			logger.Fatal("Failed to seed nodes", zap.String("file", cfg.Seed.NodesFile), zap.Error(err))
		}
	}

	dispatchService := dispatch.NewService(dispatch.Deps{
		UnitOfWork: uow,
		Orders:     orderRepo,
		Robots:     robotRepo,
		Nodes:      nodeRepo,
		Device:     deviceClient,
		Locks:      robotLocks,
		State:      state,
		Events:     bus,
		Metrics:    dispatchMetrics,
	})
	fleetService := fleet.NewService(fleet.Deps{
		UnitOfWork: uow,
		Orders:     orderRepo,
		Robots:     robotRepo,
		Nodes:      nodeRepo,
		Locks:      robotLocks,
		State:      state,
		Events:     bus,
		Metrics:    dispatchMetrics,
	})
	robotService := robot.NewService(robot.Deps{
		UnitOfWork: uow,
		Robots:     robotRepo,
		Orders:     orderRepo,
		Nodes:      nodeRepo,
		Device:     deviceClient,
		State:      state,
		Locks:      robotLocks,
		Events:     bus,
		Metrics:    dispatchMetrics,
		Defaults:   cfg.Dispatch,
		JWT:        cfg.JWT,
	})

	var (
		processor *ingestion.Processor
		ingest    *ingestion.MQTTIngestionClient
	)
	if mqttClient != nil && cfg.MQTT.IngestTelemetry {
		processor = ingestion.NewProcessor(fleetService, robotService, dispatchMetrics, cfg.MQTT.IngestionWorkers, cfg.MQTT.IngestionBuffer)
		processor.Start()
		ingest, err = ingestion.NewMQTTIngestionClient(ingestion.MQTTIngestionConfig{
			TopicPrefix: cfg.MQTT.TopicPrefix,
			QoS:         cfg.MQTT.QoS,
			JWTSecret:   cfg.JWT.Secret,
		}, mqttClient, processor, dispatchMetrics)
		if err != nil {
			logger.Fatal("Failed to create MQTT ingestion", zap.Error(err))
		}
		if err := ingest.Start(); err != nil {
			logger.Fatal("Failed to start MQTT ingestion", zap.Error(err))
		}
	}

	router := routes.SetupRoutes(cfg, routes.Services{
		Users:        user.NewService(userRepo, nodeRepo, cfg.JWT),
		Nodes:        nodeService,
		Orders:       order.NewService(orderRepo, userRepo, nodeRepo, bus),
		Dispatch:     dispatchService,
		Fleet:        fleetService,
		Robots:       robotService,
		Events:       hub,
		Gatherer:     reg,
		HealthChecks: checks,
		RateLimiter:  middleware.NewRateLimiter(ctx, cfg.RateLimit.GeneralRPS, cfg.RateLimit.GeneralBurst),
	})

	addr := net.JoinHostPort(cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout: 15 * time.Second,
		// no WriteTimeout: the admin event stream stays open
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		logger.Info("Server starting", zap.String("address", addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// ends open event streams so Shutdown does not wait on them
	hub.Stop()
	errs := server.Shutdown(shutdownCtx)

	// inbound first, then the sinks that drain what it produced
	if ingest != nil {
		ingest.Stop()
	}
	if processor != nil {
		processor.Stop()
	}
	for _, f := range forwarders {
		f.Stop()
	}
	if mqttClient != nil {
		mqttClient.Disconnect()
	}
	for _, closeFn := range closers {
		errs = multierr.Append(errs, closeFn())
	}

	if errs != nil {
		logger.Error("Shutdown finished with errors", zap.Error(errs))
		return
	}
	logger.Info("Server exited properly")
}
