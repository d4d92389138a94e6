// Command snamp-console hosts a feature registry with passive resources
// and drives it from an interactive prompt.
//
// Resources declared in the configuration file are created at startup;
// more can be declared from the prompt. Attribute values are kept in
// memory or in a NATS JetStream key-value bucket, so several consoles can
// accept data for the same resources.
//
// Usage:
//
//	snamp-console [flags]
//
// Flags:
//
//	-config string        Configuration file path
//	-log-level string     Log level: debug, info, warn, error
//	-event-log string     CBOR event log path
//	-metrics-addr string  Prometheus listen address (e.g. :9090)
//	-name string          Registry name (default "console")
//
// Examples:
//
//	# Start with an empty in-memory registry
//	snamp-console
//
//	# Start from a config file and expose metrics
//	snamp-console -config /etc/snamp/console.yaml -metrics-addr :9090
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/snamp-platform/snamp-go/cmd/snamp-console/interactive"
	"github.com/snamp-platform/snamp-go/pkg/config"
	eventlog "github.com/snamp-platform/snamp-go/pkg/log"
	"github.com/snamp-platform/snamp-go/pkg/mda"
	"github.com/snamp-platform/snamp-go/pkg/metrics"
	"github.com/snamp-platform/snamp-go/pkg/registry"
)

var (
	configFile  = flag.String("config", "", "Configuration file path")
	logLevel    = flag.String("log-level", "", "Log level: debug, info, warn, error")
	eventLog    = flag.String("event-log", "", "CBOR event log path")
	metricsAddr = flag.String("metrics-addr", "", "Prometheus listen address (e.g. :9090)")
	name        = flag.String("name", "console", "Registry name")
)

func main() {
	flag.Parse()

	cfg, err := loadConfig()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	level, _ := config.ParseLevel(cfg.Logging.Level)
	setupLogging(level)

	log.Println("SNAMP Console")
	log.Println("=============")
	log.Printf("Registry: %s", *name)
	log.Printf("Storage:  %s", storageName(cfg.MDA.Storage))
	if cfg.MDA.Expiration > 0 {
		log.Printf("Expiration: %s (%s timers)", cfg.MDA.Expiration.Std(), cfg.MDA.TimerMode)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	// Event capture
	var events []eventlog.Logger
	var fileLogger *eventlog.FileLogger
	if cfg.Logging.EventLog != "" {
		fileLogger, err = eventlog.NewFileLogger(cfg.Logging.EventLog)
		if err != nil {
			log.Fatalf("Failed to open event log: %v", err)
		}
		events = append(events, fileLogger)
		log.Printf("Event log: %s", cfg.Logging.EventLog)
	}
	if level <= slog.LevelDebug {
		events = append(events, eventlog.NewSlogAdapter(logger))
	}

	// Metrics
	m := metrics.NewMetrics(cfg.Metrics.Namespace)
	var server *http.Server
	if cfg.Metrics.Addr != "" {
		server = startMetrics(cfg.Metrics.Addr, m)
	}

	storage, releaseStorage, err := openStorage(ctx, cfg.MDA.Storage)
	if err != nil {
		log.Fatalf("Failed to open storage: %v", err)
	}

	reg := registry.New(registry.Options{
		Name:        *name,
		Logger:      logger,
		EventLogger: eventlog.NewMultiLogger(events...),
		Metrics:     m,
		AttributeFactory: mda.AttributeFactory(func(resource, _ string) {
			m.StaleRead(resource)
		}),
	})
	log.Printf("Session: %s", reg.SessionID())

	factory := acceptorFactory(reg, cfg.MDA, storage, logger)
	acceptors, err := declareResources(cfg.Resources, factory)
	if err != nil {
		log.Fatalf("Failed to declare resources: %v", err)
	}
	log.Printf("Declared %d resources", len(acceptors))

	console, err := interactive.New(reg, acceptors, factory)
	if err != nil {
		log.Fatalf("Failed to start console: %v", err)
	}
	log.SetOutput(console.Stdout())

	console.Run(ctx, cancel)

	log.Println("Shutting down...")
	if err := console.Close(); err != nil {
		log.Printf("Error closing acceptors: %v", err)
	}
	if err := reg.Close(); err != nil {
		log.Printf("Error closing registry: %v", err)
	}
	releaseStorage()

	if server != nil {
		shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("Error stopping metrics server: %v", err)
		}
		done()
	}
	if fileLogger != nil {
		if n := fileLogger.Dropped(); n > 0 {
			log.Printf("Event log dropped %d events", n)
		}
		if err := fileLogger.Close(); err != nil {
			log.Printf("Error closing event log: %v", err)
		}
	}

	log.Println("Goodbye!")
}

// loadConfig reads the config file, if any, and applies flag overrides.
func loadConfig() (config.Config, error) {
	cfg := config.Default()
	if *configFile != "" {
		var err error
		if cfg, err = config.Load(*configFile); err != nil {
			return cfg, err
		}
	}
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}
	if *eventLog != "" {
		cfg.Logging.EventLog = *eventLog
	}
	if *metricsAddr != "" {
		cfg.Metrics.Addr = *metricsAddr
	}
	return cfg, cfg.Validate()
}

func setupLogging(level slog.Level) {
	log.SetFlags(log.Ltime | log.Lmicroseconds)
	switch {
	case level <= slog.LevelDebug:
		log.SetFlags(log.Ltime | log.Lmicroseconds | log.Lshortfile)
	case level >= slog.LevelWarn:
		log.SetFlags(log.Ltime)
	}
}

func storageName(s config.Storage) string {
	if s.Type == config.StorageNATS {
		return s.URL + " (bucket " + s.Bucket + ")"
	}
	return config.StorageMemory
}

func startMetrics(addr string, m *metrics.Metrics) *http.Server {
	promReg := prometheus.NewRegistry()
	promReg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	if err := m.Register(promReg); err != nil {
		log.Fatalf("Failed to register metrics: %v", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(promReg, promhttp.HandlerOpts{
		ErrorHandling: promhttp.ContinueOnError,
	}))
	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("Metrics server: %v", err)
		}
	}()
	log.Printf("Metrics: http://%s/metrics", addr)
	return server
}

// acceptorFactory creates acceptors sharing storage, each with its own
// notification invoker.
func acceptorFactory(reg *registry.Registry, cfg config.MDA, storage mda.Storage, logger *slog.Logger) interactive.AcceptorFactory {
	mode, _ := mda.ParseTimerMode(cfg.TimerMode)
	return func(resource string) (*mda.Acceptor, error) {
		var invoker mda.Invoker = mda.SyncInvoker{}
		if cfg.Invoker.Type == config.InvokerParallel {
			invoker = mda.NewParallelInvoker(cfg.Invoker.Workers, logger)
		}
		return mda.NewAcceptor(reg, mda.Config{
			Resource:   resource,
			Expiration: cfg.Expiration.Std(),
			TimerMode:  mode,
			Storage:    storage,
			Invoker:    invoker,
			Logger:     logger,
		})
	}
}

// declareResources creates one acceptor per configured resource.
func declareResources(resources []config.ResourceConfig, factory interactive.AcceptorFactory) (map[string]*mda.Acceptor, error) {
	acceptors := make(map[string]*mda.Acceptor, len(resources))
	for _, rc := range resources {
		a, err := factory(rc.Name)
		if err != nil {
			return nil, err
		}
		acceptors[rc.Name] = a

		for i := range rc.Attributes {
			meta, err := rc.Attributes[i].Metadata()
			if err != nil {
				return nil, err
			}
			if _, err := a.DeclareAttribute(meta); err != nil {
				return nil, err
			}
		}
		for i := range rc.Notifications {
			meta, err := rc.Notifications[i].Metadata()
			if err != nil {
				return nil, err
			}
			if _, err := a.DeclareNotification(meta); err != nil {
				return nil, err
			}
		}
	}
	return acceptors, nil
}
