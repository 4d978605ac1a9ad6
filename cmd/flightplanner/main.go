package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/skyroute/flightplanner/internal/config"
	"github.com/skyroute/flightplanner/internal/database"
	"github.com/skyroute/flightplanner/internal/dispatcher"
	"github.com/skyroute/flightplanner/internal/handlers"
	"github.com/skyroute/flightplanner/internal/httpapi"
	"github.com/skyroute/flightplanner/internal/influx"
	"github.com/skyroute/flightplanner/internal/logging"
	intOtel "github.com/skyroute/flightplanner/internal/otel"
	"github.com/skyroute/flightplanner/internal/refdata"
	"github.com/skyroute/flightplanner/internal/session"
	"github.com/skyroute/flightplanner/internal/storage"
	"github.com/spf13/viper"
)

// module defs - BuildDate can be set at build time via ldflags
var (
	CurrentVersion string = "0.1.0"
	BuildDate      string = "unknown"

	ServiceName string = "flightplanner"
)

// file paths
var (
	// ConfigDir holds flightplanner.cfg.json and an optional .env
	ConfigDir string

	LogFilePath string

	// logOutput receives text logs: stdout plus the rotating log file
	logOutput io.Writer = os.Stdout
)

// global variables
var (
	// SlogManager handles all slog-based logging
	SlogManager *logging.SlogManager

	// Logger is the slog logger (convenience reference)
	Logger *slog.Logger

	// ZLogger is used by the database and influx managers
	ZLogger zerolog.Logger

	// OTelProvider handles OpenTelemetry
	OTelProvider *intOtel.Provider

	DBManager     *database.Manager
	InfluxManager *influx.Manager

	SessionStartTime time.Time = time.Now()

	// Services
	refClient       *refdata.Client
	catalog         *refdata.Catalog
	planSession     *session.Context
	handlerService  *handlers.Service
	eventDispatcher *dispatcher.Dispatcher

	// Storage backend (optional)
	storageBackend storage.Backend
)

func setupLogging() {
	SlogManager = logging.NewSlogManager()
	SlogManager.Setup(logging.Options{Level: "info"})
	Logger = SlogManager.Logger()

	if err := config.Load(ConfigDir); err != nil {
		Logger.Warn("Failed to load config, using defaults!", "error", err)
	} else {
		Logger.Info("Loaded config", "dir", ConfigDir)
	}

	logsDir := viper.GetString("logsDir")
	if err := os.MkdirAll(logsDir, 0755); err != nil {
		Logger.Error("Failed to create logs directory", "error", err, "path", logsDir)
	}
	logFile := logging.RotatingFile(logsDir, ServiceName, SessionStartTime)
	LogFilePath = logFile.Filename

	// Initialize OTel provider if enabled (after log file is created)
	var err error
	otelCfg := config.GetOTelConfig()
	OTelProvider, err = intOtel.New(intOtel.Config{
		Enabled:        otelCfg.Enabled,
		ServiceName:    otelCfg.ServiceName,
		BatchTimeout:   otelCfg.BatchTimeout,
		LogWriter:      logFile,
		MetricWriter:   logFile,
		MetricInterval: otelCfg.MetricInterval,
		Endpoint:       otelCfg.Endpoint,
		Insecure:       otelCfg.Insecure,
	})
	if err != nil {
		Logger.Error("Failed to initialize OTel provider", "error", err)
		OTelProvider, _ = intOtel.New(intOtel.Config{})
	} else if otelCfg.Enabled {
		Logger.Info("OTel provider initialized", "file", LogFilePath, "endpoint", otelCfg.Endpoint)
	}

	var gelfWriter io.Writer
	if viper.GetBool("graylog.enabled") {
		w, err := logging.NewGELFWriter(viper.GetString("graylog.address"))
		if err != nil {
			Logger.Warn("Graylog disabled", "error", err)
		} else {
			gelfWriter = w
		}
	}

	logOutput = io.MultiWriter(os.Stdout, logFile)
	SlogManager.Setup(logging.Options{
		Level:    viper.GetString("logLevel"),
		File:     logOutput,
		GELF:     gelfWriter,
		Provider: OTelProvider.LoggerProvider(),
		Context: func() []slog.Attr {
			if planSession == nil {
				return nil
			}
			return planSession.LogAttrs()
		},
	})
	Logger = SlogManager.Logger()
	Logger.Info("Logging to file", "path", LogFilePath)

	level, err := zerolog.ParseLevel(strings.ToLower(viper.GetString("logLevel")))
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimestampFunc = func() time.Time {
		return time.Now().UTC()
	}
	mlw := zerolog.MultiLevelWriter(
		zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		},
		zerolog.ConsoleWriter{
			Out:        logFile,
			TimeFormat: time.RFC3339,
			NoColor:    true,
		},
	)
	ZLogger = zerolog.New(mlw).With().Timestamp().Logger()
}

// connectDatabase connects once; later calls return the existing manager.
func connectDatabase() (*database.Manager, error) {
	if DBManager != nil && DBManager.IsValid {
		return DBManager, nil
	}
	DBManager = database.NewManager(ZLogger.With().Str("component", "database").Logger())
	if err := DBManager.Connect(); err != nil {
		return nil, err
	}
	if err := DBManager.Setup(); err != nil {
		return nil, err
	}
	return DBManager, nil
}

// loadCatalog fetches the reference data. When a database is enabled the
// fetched data is stored there, and a failed fetch falls back to the
// stored copy.
func loadCatalog(ctx context.Context) (*refdata.Catalog, error) {
	if refClient == nil {
		refClient = refdata.NewClient(viper.GetDuration("refdata.cacheTTL"))
	}
	cat, err := refdata.Load(ctx, refClient,
		viper.GetString("refdata.airports"),
		viper.GetString("refdata.navaids"),
	)

	if !viper.GetBool("db.enabled") {
		return cat, err
	}
	db, dbErr := connectDatabase()
	if dbErr != nil {
		Logger.Warn("Reference data not persisted", "error", dbErr)
		return cat, err
	}

	if err != nil {
		Logger.Warn("Failed to fetch reference data, using stored copy", "error", err)
		airports, navaids, loadErr := db.LoadReferenceData(ctx)
		if loadErr != nil {
			return nil, errors.Join(err, loadErr)
		}
		cat = refdata.NewCatalog()
		cat.AddAirports(airports...)
		cat.AddNavaids(navaids...)
		return cat, nil
	}

	if err := db.SaveReferenceData(ctx, cat.Airports(), cat.Navaids()); err != nil {
		Logger.Warn("Failed to store reference data", "error", err)
	}
	return cat, nil
}

func initStorage() error {
	storageCfg := config.GetStorageConfig()

	backend, err := createStorageBackend(storageCfg)
	if err != nil {
		Logger.Error("Failed to create storage backend", "error", err)
		return err
	}
	if backend == nil {
		Logger.Info("No storage backend configured")
		return nil
	}
	if err := backend.Init(); err != nil {
		Logger.Error("Failed to initialize storage backend", "error", err)
		return err
	}
	storageBackend = backend
	handlerService.SetBackend(storageBackend)
	return nil
}

func initInflux(ctx context.Context) {
	backupPath := filepath.Join(viper.GetString("logsDir"),
		fmt.Sprintf("%s_influx_%s.lp.gz", ServiceName, SessionStartTime.Format("20060102_150405")))
	m := influx.NewManager(ZLogger.With().Str("component", "influx").Logger(), backupPath)
	if err := m.Connect(ctx); err != nil {
		if !errors.Is(err, influx.ErrDisabled) {
			Logger.Warn("Plan metrics disabled", "error", err)
		}
		return
	}
	InfluxManager = m
	handlerService.SetRecorder(InfluxManager)
}

func registerLifecycleHandlers(d *dispatcher.Dispatcher) {
	d.Register(":VERSION:", func(e dispatcher.Event) (any, error) {
		return []string{CurrentVersion, BuildDate}, nil
	})

	d.Register(":GETDIR:LOG:", func(e dispatcher.Event) (any, error) {
		return LogFilePath, nil
	})

	d.Register(":REFDATA:RELOAD:", func(e dispatcher.Event) (any, error) {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		fresh, err := loadCatalog(ctx)
		if err != nil {
			return nil, err
		}
		catalog.Reset()
		catalog.AddAirports(fresh.Airports()...)
		catalog.AddNavaids(fresh.Navaids()...)
		airports, navaids := catalog.Counts()
		Logger.Info("Reference data reloaded", "airports", airports, "navaids", navaids)
		return map[string]int{"airports": airports, "navaids": navaids}, nil
	}, dispatcher.Logged())
}

func serve() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var err error
	catalog, err = loadCatalog(ctx)
	if err != nil {
		Logger.Warn("Starting with an empty reference catalog", "error", err)
		catalog = refdata.NewCatalog()
	}
	airports, navaids := catalog.Counts()
	Logger.Info("Reference data loaded", "airports", airports, "navaids", navaids)

	defaults := config.GetPlanDefaults()
	planSession, err = session.NewContext(session.Defaults{
		Speed:    defaults.Speed,
		Altitude: defaults.Altitude,
		Clock:    time.Now,
	}, nil)
	if err != nil {
		return fmt.Errorf("failed to create plan session: %w", err)
	}

	eventDispatcher, err = dispatcher.New(logging.NewDispatcherLogger(Logger))
	if err != nil {
		return fmt.Errorf("failed to create dispatcher: %w", err)
	}
	registerLifecycleHandlers(eventDispatcher)

	handlerService = handlers.NewService(handlers.Dependencies{
		Session:    planSession,
		Catalog:    catalog,
		LogManager: SlogManager,
	})
	handlerService.RegisterHandlers(eventDispatcher)

	if err := initStorage(); err != nil {
		Logger.Warn("Continuing without storage backend", "error", err)
	}
	initInflux(ctx)

	app := httpapi.New(httpapi.Dependencies{
		Service:    handlerService,
		Dispatcher: eventDispatcher,
		AccessLog:  logOutput,
		Version:    CurrentVersion,
	})

	listen := viper.GetString("http.listen")
	errCh := make(chan error, 1)
	go func() {
		Logger.Info("Server starting", "listen", listen)
		errCh <- app.Listen(listen)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	Logger.Info("Shutting down server...")
	if err := app.ShutdownWithTimeout(5 * time.Second); err != nil {
		Logger.Warn("Server forced to shutdown", "error", err)
	}
	shutdown()
	Logger.Info("Server exited gracefully")
	return nil
}

func shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if eventDispatcher != nil {
		if err := eventDispatcher.Close(ctx); err != nil {
			Logger.Warn("Dispatcher did not drain", "error", err)
		}
	}
	if storageBackend != nil {
		if err := storageBackend.Close(); err != nil {
			Logger.Warn("Failed to close storage backend", "error", err)
		}
	}
	if InfluxManager != nil {
		if err := InfluxManager.Close(); err != nil {
			Logger.Warn("Failed to close influx", "error", err)
		}
	}
	if DBManager != nil {
		if err := DBManager.Close(); err != nil {
			Logger.Warn("Failed to close database", "error", err)
		}
	}
	if err := SlogManager.Flush(ctx); err != nil {
		Logger.Warn("Failed to flush logs", "error", err)
	}
	if OTelProvider != nil {
		if err := OTelProvider.Shutdown(ctx); err != nil {
			Logger.Warn("Failed to shut down OTel", "error", err)
		}
	}
}

func main() {
	flag.StringVar(&ConfigDir, "config", ".", "directory containing "+config.FileName)
	flag.Usage = usage
	flag.Parse()

	setupLogging()

	args := flag.Args()
	cmd := "serve"
	if len(args) > 0 {
		cmd = strings.ToLower(args[0])
		args = args[1:]
	}

	if cmd == "serve" {
		if err := serve(); err != nil {
			Logger.Error("Server failed", "error", err)
			shutdown()
			os.Exit(1)
		}
		return
	}

	err := runCLI(cmd, args, os.Stdout)
	shutdown()
	if err != nil {
		Logger.Error("Command failed", "command", cmd, "error", err)
		os.Exit(1)
	}
}
