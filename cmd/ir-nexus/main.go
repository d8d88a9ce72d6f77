package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dbehnke/ir-nexus/pkg/carrier"
	"github.com/dbehnke/ir-nexus/pkg/config"
	"github.com/dbehnke/ir-nexus/pkg/database"
	"github.com/dbehnke/ir-nexus/pkg/encoder"
	"github.com/dbehnke/ir-nexus/pkg/logger"
	"github.com/dbehnke/ir-nexus/pkg/metrics"
	"github.com/dbehnke/ir-nexus/pkg/mqtt"
	"github.com/dbehnke/ir-nexus/pkg/remote"
	"github.com/dbehnke/ir-nexus/pkg/session"
	"github.com/dbehnke/ir-nexus/pkg/web"
)

var (
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
)

func main() {
	configFile := flag.String("config", "config.yaml", "Path to configuration file")
	showVersion := flag.Bool("version", false, "Show version information")
	validate := flag.Bool("validate", false, "Validate configuration and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("IR-Nexus %s (%s, built %s)\n", version, commit, buildTime)
		os.Exit(0)
	}

	// Bootstrap logger until the configured one exists
	log := logger.New(logger.Config{Level: "info", Format: "text"})

	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Error("Failed to load configuration", logger.Error(err))
		os.Exit(1)
	}

	if *validate {
		log.Info("Configuration is valid")
		os.Exit(0)
	}

	log = logger.New(logger.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
	log.Info("Starting IR-Nexus",
		logger.String("version", version),
		logger.String("build_time", buildTime),
		logger.String("config_file", *configFile))

	if err := run(cfg, log); err != nil {
		log.Error("IR-Nexus failed", logger.Error(err))
		os.Exit(1)
	}
	log.Info("IR-Nexus stopped")
}

func run(cfg *config.Config, log *logger.Logger) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	var wg sync.WaitGroup

	// Transmit path: driver -> carrier -> sessions (via the manager)
	drv, irq, err := openDriver(cfg.Transmitter, log)
	if err != nil {
		return err
	}
	tx := carrier.New(drv, irq,
		carrier.WithMaxFrame(time.Duration(cfg.Transmitter.MaxFrameMS)*time.Millisecond),
		carrier.WithLogger(log))
	if err := tx.Init(cfg.Transmitter.CarrierHz); err != nil {
		return fmt.Errorf("carrier init: %w", err)
	}

	var sessionOpts []session.Option
	if cfg.Transmitter.DutyCycle > 0 {
		sessionOpts = append(sessionOpts, session.WithDutyCycle(cfg.Transmitter.DutyCycle))
	}

	collector := metrics.NewCollector()
	manager := remote.NewManager(encoder.New(encoder.WithPolicy(cfg.EncoderPolicy())), tx,
		remote.WithLogger(log),
		remote.WithObserver(collector),
		remote.WithDefaults(cfg.DefaultProtocol(), cfg.Session.AutoToggle),
		remote.WithMaxRepeats(cfg.Session.MaxHoldRepeats),
		remote.WithSessionOptions(sessionOpts...))

	log.Info("Transmitter ready",
		logger.String("driver", cfg.Transmitter.Driver),
		logger.Int("pin", cfg.Transmitter.Pin),
		logger.Uint32("carrier_hz", cfg.Transmitter.CarrierHz),
		logger.String("validation", cfg.EncoderPolicy().String()),
		logger.String("default_protocol", cfg.DefaultProtocol().String()))

	// Transmission history
	var history web.History
	if cfg.Database.Enabled {
		db, err := database.NewDB(database.Config{Path: cfg.Database.Path}, log.WithComponent("database"))
		if err != nil {
			return err
		}
		defer func() {
			if err := db.Close(); err != nil {
				log.Warn("Failed to close database", logger.Error(err))
			}
		}()

		repo := database.NewTransmissionRepository(db.GetDB())
		recorder := database.NewRecorder(repo, log,
			database.WithRetention(time.Duration(cfg.Database.RetentionDays)*24*time.Hour))
		manager.AddObserver(recorder)
		history = repo

		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := recorder.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("History recorder error", logger.Error(err))
			}
		}()
	}

	if cfg.Metrics.Enabled && cfg.Metrics.Prometheus.Enabled {
		metricsServer := metrics.NewPrometheusServer(
			metrics.PrometheusConfig{
				Enabled: cfg.Metrics.Prometheus.Enabled,
				Port:    cfg.Metrics.Prometheus.Port,
				Path:    cfg.Metrics.Prometheus.Path,
			},
			collector,
			log,
		)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := metricsServer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("Prometheus metrics server error", logger.Error(err))
			}
		}()
	}

	var mqttPublisher *mqtt.Publisher
	if cfg.MQTT.Enabled {
		mqttPublisher = mqtt.New(
			mqtt.Config{
				Enabled:     cfg.MQTT.Enabled,
				Broker:      cfg.MQTT.Broker,
				TopicPrefix: cfg.MQTT.TopicPrefix,
				ClientID:    cfg.MQTT.ClientID,
				Username:    cfg.MQTT.Username,
				Password:    cfg.MQTT.Password,
				QoS:         cfg.MQTT.QoS,
				Retained:    cfg.MQTT.Retained,
				AcceptSend:  cfg.MQTT.AcceptSend,
			},
			log,
			mqtt.WithSender(manager),
			mqtt.WithCollector(collector),
		)
		manager.AddObserver(mqttPublisher)

		// Start blocks until the broker answers; the rest of the daemon
		// does not wait for it
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := mqttPublisher.Start(ctx)
			if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, mqtt.ErrStopped) {
				log.Error("MQTT publisher error", logger.Error(err))
			}
		}()
	}

	if cfg.Web.Enabled {
		web.SetVersionInfo(version, commit, buildTime)
		srv := web.NewServer(cfg.Web, log, web.NewAPI(log, manager, history, collector))
		manager.AddObserver(srv.GetHub())

		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := srv.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("Web server error", logger.Error(err))
			}
		}()
	}

	log.Info("IR-Nexus initialized", logger.String("server_name", cfg.Server.Name))

	sig := <-sigChan
	log.Info("Received shutdown signal", logger.String("signal", sig.String()))

	cancel()
	if mqttPublisher != nil {
		mqttPublisher.Stop()
	}
	wg.Wait()
	return nil
}
