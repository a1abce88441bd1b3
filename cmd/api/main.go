package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"wacc_simulator/pkg/api/config"
	"wacc_simulator/pkg/api/simulation"
	coreConfig "wacc_simulator/pkg/core/config"
	"wacc_simulator/pkg/core/logger"
	"wacc_simulator/pkg/core/metrics"
	"wacc_simulator/pkg/core/pipeline"
)

func main() {
	// Load configuration (.env, config/simulator.yaml, environment)
	cfg, err := coreConfig.Load(os.Getenv("WACC_CONFIG"))
	if err != nil {
		fmt.Printf("[FATAL] %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		fmt.Printf("[FATAL] %v\n", err)
		os.Exit(1)
	}
	apiLog := log.With("api")

	// Initialize input source
	ctx := context.Background()
	src, closeSource, err := pipeline.OpenSource(ctx, cfg.Data)
	if err != nil {
		apiLog.Error("open input source", logger.Error(err))
		os.Exit(1)
	}
	defer closeSource()
	apiLog.Info("input source ready", logger.String("source", src.Name()), logger.Duration("cache_ttl", cfg.Data.CacheTTL))

	rec := metrics.New(prometheus.DefaultRegisterer)
	mux := http.NewServeMux()

	// Config endpoints
	configHandler := config.NewHandler(cfg, src.Name())
	mux.HandleFunc("/api/config", configHandler.HandleConfig)

	// Simulation endpoints
	simHandler := simulation.NewHandler(src, cfg, rec, log)
	simHandler.Register(mux)

	mux.Handle("/metrics", promhttp.Handler())

	apiLog.Info("API server starting", logger.String("addr", cfg.Server.Addr))
	fmt.Println("  - GET  /api/config")
	fmt.Println("  - GET  /api/wacc/sectors")
	fmt.Println("  - POST /api/wacc/simulate")
	fmt.Println("  - GET  /api/wacc/guidance")
	fmt.Println("  - POST /api/wacc/reload")
	fmt.Println("  - GET  /metrics")

	if err := http.ListenAndServe(cfg.Server.Addr, mux); err != nil {
		apiLog.Error("server failed", logger.Error(err))
		closeSource()
		os.Exit(1)
	}
}
