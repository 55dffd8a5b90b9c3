// Command sdwire builds a communication topology from a scenario file and
// applies the service-discovery configuration it declares.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/signalworks/ecutopo/core"
	"github.com/signalworks/ecutopo/internal/config"
	"github.com/signalworks/ecutopo/internal/logging"
	"github.com/signalworks/ecutopo/internal/observability"
)

func main() {
	configPath := flag.String("config", "", "path to the sdwire config file (yaml)")
	scenarioPath := flag.String("scenario", "", "path to the topology scenario (json); overrides the config file")
	serveMetrics := flag.Bool("serve-metrics", false, "keep running and serve /metrics after configuring")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		panic(err)
	}

	log := logging.New(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		AddSource: cfg.Logging.AddSource,
	})
	ctx, log := logging.WithRunLogger(context.Background(), log)

	shutdown, err := observability.InitTracing(ctx, observability.TracingConfig{
		Enabled:     cfg.Tracing.Enabled,
		ServiceName: cfg.Tracing.ServiceName,
		SampleRatio: cfg.Tracing.SampleRatio,
	}, log)
	if err != nil {
		panic(err)
	}
	defer observability.ShutdownWithTimeout(ctx, shutdown, log)

	collector, err := observability.NewTopologyCollector(nil)
	if err != nil {
		panic(err)
	}

	path := cfg.ScenarioPath
	if *scenarioPath != "" {
		path = *scenarioPath
	}
	if path == "" {
		log.Error(ctx, "no scenario given; use -scenario or the config file")
		os.Exit(2)
	}
	f, err := os.Open(path)
	if err != nil {
		panic(err)
	}
	scenario, err := core.LoadScenario(f)
	f.Close()
	if err != nil {
		panic(err)
	}
	collector.SetTopologyCounts(
		len(scenario.EcuNames),
		len(scenario.ChannelNames),
		len(scenario.SocketNames),
		len(scenario.PduNames),
	)
	log.Info(ctx, "scenario loaded",
		logging.String("path", path),
		logging.Int("ecus", len(scenario.EcuNames)),
		logging.Int("channels", len(scenario.ChannelNames)),
		logging.Int("sockets", len(scenario.SocketNames)),
		logging.Int("pdus", len(scenario.PduNames)),
	)

	if scenario.SdConfig == nil {
		log.Info(ctx, "scenario declares no service discovery; nothing to configure")
		return
	}

	tracer := otel.Tracer("sdwire")
	failures := 0
	for _, run := range scenario.SdRuns {
		runCtx, span := tracer.Start(ctx, "configure_service_discovery")
		span.SetAttributes(attribute.String("ecu", run.Ecu.Name()))

		start := time.Now()
		err := scenario.Channel.ConfigureServiceDiscovery(run.Ecu, run.UnicastSocket, run.RxPdu, run.TxPdu, *scenario.SdConfig)
		elapsed := time.Since(start)

		style, _ := scenario.Channel.ResolvedWiringStyle()
		collector.ObserveSdConfigure(style.String(), elapsed, err)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "configuration failed")
			log.Error(runCtx, "service discovery configuration failed",
				logging.String("ecu", run.Ecu.Name()),
				logging.Err(err),
			)
			failures++
		} else {
			log.Info(runCtx, "service discovery configured",
				logging.String("ecu", run.Ecu.Name()),
				logging.String("style", style.String()),
				logging.Any("duration", elapsed),
			)
		}
		span.End()
	}
	if failures > 0 {
		log.Error(ctx, "configuration finished with failures", logging.Int("failed", failures))
	} else {
		log.Info(ctx, "configuration finished", logging.Int("ecus", len(scenario.SdRuns)))
	}

	if cfg.Metrics.Enabled && *serveMetrics {
		serve(ctx, cfg.Metrics.Listen, collector, log)
	}
	if failures > 0 {
		os.Exit(1)
	}
}

// serve exposes /metrics until interrupted.
func serve(ctx context.Context, listen string, collector *observability.TopologyCollector, log logging.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", collector.Handler())
	srv := &http.Server{Addr: listen, Handler: mux}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info(ctx, "serving metrics", logging.String("listen", listen))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error(ctx, "metrics server failed", logging.Err(err))
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}
