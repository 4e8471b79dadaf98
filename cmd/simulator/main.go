package main

import (
	"context"
	"fmt"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/charging-platform/cs-simulator/internal/atg"
	"github.com/charging-platform/cs-simulator/internal/atgclock"
	"github.com/charging-platform/cs-simulator/internal/config"
	"github.com/charging-platform/cs-simulator/internal/fleet"
	"github.com/charging-platform/cs-simulator/internal/logger"
	"github.com/charging-platform/cs-simulator/internal/metrics"
	"github.com/charging-platform/cs-simulator/internal/perfstats"
	"github.com/charging-platform/cs-simulator/internal/station"
	"github.com/charging-platform/cs-simulator/internal/template"
	"github.com/charging-platform/cs-simulator/internal/worker"
	"github.com/charging-platform/cs-simulator/internal/wsclient"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
		Async:  cfg.Log.Async,
	})
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	log.Info("Logger initialized")

	tmpl, err := template.Load(cfg.Simulator.FleetTemplatePath)
	if err != nil {
		log.Fatalf("Failed to load fleet template: %v", err)
	}
	stationConfigs := template.Expand(tmpl)
	log.Infof("Fleet template expanded into %d stations", len(stationConfigs))

	var perfSinks []perfstats.Sink
	if cfg.Simulator.PerfStatsLogPath != "" {
		fileSink, err := perfstats.NewFileStorage(cfg.Simulator.PerfStatsLogPath)
		if err != nil {
			log.Fatalf("Failed to open perf stats log: %v", err)
		}
		perfSinks = append(perfSinks, fileSink)
	}
	perf := perfstats.NewRecorder(perfSinks...)
	log.Info("Perf stats recorder initialized")

	// Fleet registry is optional: it only makes sense when this process
	// shares a station fleet with others over Redis.
	var fleetRegistry *fleet.Registry
	if cfg.Redis.Addr != "" {
		fleetRegistry, err = fleet.NewRegistry(cfg.Redis, cfg.Simulator.FleetClaimTTL)
		if err != nil {
			log.Fatalf("Failed to initialize fleet registry: %v", err)
		}
		log.Info("Fleet registry initialized")
	}

	registry := worker.NewRegistry()
	podId := cfg.PodID
	if podId == "" {
		podId = "simulator-1"
	}
	for _, sc := range stationConfigs {
		sc := sc
		sc.Logger = log
		wsCfg := wsclient.Config{
			HashId:            sc.HashId,
			SupervisionUrl:    sc.Info.SupervisionUrl,
			HandshakeTimeout:  cfg.WSClient.HandshakeTimeout,
			PingInterval:      cfg.WSClient.PingInterval,
			PongTimeout:       cfg.WSClient.PongTimeout,
			WriteTimeout:      cfg.WSClient.WriteTimeout,
			ReconnectInterval: cfg.WSClient.ReconnectInterval,
		}
		sc.WSConnector = wsclient.New(wsCfg, log)

		st := station.New(sc)
		controller := atg.NewController(st, atgclock.New(), atgclock.NewRandom(), perf, log)
		registry.Put(sc.HashId, &worker.Entity{Station: st, ATG: controller})

		if fleetRegistry != nil {
			if err := fleetRegistry.Claim(context.Background(), sc.HashId, podId); err != nil {
				log.Errorf("Failed to claim %s in fleet registry: %v", sc.HashId, err)
			}
		}
		metrics.ActiveStations.Inc()
	}
	log.Infof("Registered %d stations", len(stationConfigs))

	var channel worker.Channel
	var kafkaChannel *worker.KafkaChannel
	if cfg.Simulator.UseKafkaCommandChannel {
		kafkaChannel, err = worker.NewKafkaChannel(
			cfg.Kafka.Brokers,
			cfg.Kafka.ConsumerGroup,
			cfg.Simulator.CommandRequestTopic,
			cfg.Simulator.CommandResponseTopic,
			worker.ProducerTuning{
				RetryMax:       cfg.Kafka.Producer.RetryMax,
				ReturnSuccess:  cfg.Kafka.Producer.ReturnSuccess,
				FlushFrequency: cfg.Kafka.Producer.FlushFrequency,
			},
			worker.ConsumerTuning{
				ReturnErrors:   cfg.Kafka.Consumer.ReturnErrors,
				OffsetsInitial: cfg.Kafka.Consumer.OffsetsInitial,
			},
			log,
		)
		if err != nil {
			log.Fatalf("Failed to initialize Kafka command channel: %v", err)
		}
		channel = kafkaChannel
		log.Infof("Kafka command channel initialized with brokers: %v", cfg.Kafka.Brokers)
	} else {
		channel = worker.NewInProcessChannel(cfg.Simulator.InProcessChannelBuffer)
		log.Info("In-process command channel initialized")
	}

	dispatcher := worker.NewDispatcher(registry, channel, perf, log)

	dispatchCtx, cancelDispatch := context.WithCancel(context.Background())
	go func() {
		if err := dispatcher.Run(dispatchCtx); err != nil && dispatchCtx.Err() == nil {
			log.Errorf("Dispatcher stopped: %v", err)
		}
	}()
	log.Info("Command dispatcher started")

	metrics.RegisterMetrics()
	go startMetricsServer(cfg.GetMetricsAddr(), cfg.Monitoring.PprofEnabled, log)
	log.Infof("Metrics server starting on %s...", cfg.GetMetricsAddr())

	log.Info("Charging station simulator started successfully")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down simulator...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cancelDispatch()
	if kafkaChannel != nil {
		if err := kafkaChannel.Close(); err != nil {
			log.Errorf("Error closing Kafka command channel: %v", err)
		}
	}

	for _, hashId := range registry.HashIds() {
		entity, err := registry.Get(hashId)
		if err != nil {
			continue
		}
		entity.ATG.Stop()
		_ = entity.Station.CloseWSConnection()
		if fleetRegistry != nil {
			if err := fleetRegistry.Release(shutdownCtx, hashId); err != nil {
				log.Errorf("Error releasing %s from fleet registry: %v", hashId, err)
			}
		}
	}
	log.Info("Stations stopped")

	if fleetRegistry != nil {
		if err := fleetRegistry.Close(); err != nil {
			log.Errorf("Error closing fleet registry: %v", err)
		}
	}

	log.Info("Simulator gracefully stopped.")
}

func startMetricsServer(addr string, pprofEnabled bool, log *logger.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	if pprofEnabled {
		mux.HandleFunc("/debug/pprof/", pprof.Index)
		mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
		mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
		log.Info("pprof endpoints registered under /debug/pprof")
	}
	log.Infof("Metrics server listening on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatalf("Metrics server failed: %v", err)
	}
}
