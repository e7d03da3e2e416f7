package main

import (
	"context"
	stdlog "log"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/hlog"

	"pipetask-service/internal/api"
	"pipetask-service/internal/catalog"
	"pipetask-service/internal/config"
	"pipetask-service/internal/pipetask"
	"pipetask-service/internal/pipetask/variants"
	"pipetask-service/internal/worker"
	gorm_db "pipetask-service/pkg/db"
)

func main() {
	stdlog.Println("Starting Task Worker Service...")

	hlog.SetOutput(os.Stdout)
	hlog.SetLevel(hlog.LevelInfo)

	cfg, err := config.Load()
	if err != nil {
		stdlog.Fatalf("Invalid configuration: %v", err)
	}

	appCtx, appCancel := context.WithCancel(context.Background())

	gormDB, err := gorm_db.NewGormDB(cfg.DBType, cfg.DBDSN)
	if err != nil {
		stdlog.Fatalf("Failed to initialize database: %v", err)
	}
	if err := gorm_db.AutoMigrate(gormDB, &catalog.VariantTemplate{}); err != nil {
		stdlog.Fatalf("Failed to migrate database: %v", err)
	}

	registry := pipetask.NewRegistry()
	if err := variants.Register(registry); err != nil {
		stdlog.Fatalf("Failed to register variants: %v", err)
	}

	store := catalog.NewStore(gormDB)
	if _, err := store.Seed(appCtx, registry.Descriptors()); err != nil {
		stdlog.Fatalf("Failed to seed variant catalog: %v", err)
	}
	cache := catalog.NewCache(store)
	refresher, err := catalog.NewRefresher(cache, cfg.CatalogRefreshInterval)
	if err != nil {
		stdlog.Fatalf("Failed to create catalog refresher: %v", err)
	}
	if err := refresher.Start(appCtx); err != nil {
		stdlog.Fatalf("Failed to start catalog refresher: %v", err)
	}

	runner := worker.NewRunner(registry, cache, cfg.LoggingLevel)
	taskWorker := worker.NewWorker(worker.NewKafkaReader(cfg), worker.NewKafkaWriter(cfg), runner)
	taskWorker.MaxConcurrent = cfg.MaxConcurrentRuns

	grpcServer, healthServer := worker.NewHealthServer()
	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		stdlog.Fatalf("Failed to listen on %s: %v", cfg.GRPCAddr, err)
	}
	go func() {
		if err := grpcServer.Serve(lis); err != nil {
			hlog.Errorf("gRPC health server stopped: %v", err)
		}
	}()

	h := server.Default(server.WithHostPorts(cfg.ServerAddr), server.WithExitWaitTime(5*time.Second))
	api.RegisterRoutes(h.Engine, api.NewHandler(runner, registry, store, refresher))

	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		if err := taskWorker.Serve(appCtx); err != nil {
			hlog.Errorf("Task Worker stopped with error: %v", err)
		}
	}()
	worker.MarkServing(healthServer)

	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)
		signals := make(chan os.Signal, 1)
		signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
		sig := <-signals
		hlog.Infof("Received signal: %s. Initiating graceful shutdown...", sig)

		worker.MarkNotServing(healthServer)
		appCancel()
		<-workerDone
		hlog.Info("Task Worker drained in-flight runs.")

		shutdownCtx, httpShutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer httpShutdownCancel()
		if err := h.Shutdown(shutdownCtx); err != nil {
			hlog.Errorf("Hertz server shutdown error: %v", err)
		} else {
			hlog.Info("Hertz server gracefully stopped.")
		}

		refresher.Stop()
		grpcServer.GracefulStop()

		if err := taskWorker.Close(); err != nil {
			hlog.Errorf("Kafka reader/writer close error: %v", err)
		} else {
			hlog.Info("Kafka reader and writer closed.")
		}
		if err := gorm_db.Close(gormDB); err != nil {
			hlog.Errorf("Database close error: %v", err)
		}
		hlog.Info("Task Worker gracefully shut down.")
	}()

	hlog.Infof("Task Worker fully initialized, admin API on %s, gRPC health on %s", cfg.ServerAddr, cfg.GRPCAddr)
	h.Spin()
	<-shutdownDone

	stdlog.Println("Task Worker Service has been shut down.")
}
