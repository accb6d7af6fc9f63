package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/volcano-viz/server/internal/api"
	"github.com/volcano-viz/server/internal/cache"
	"github.com/volcano-viz/server/internal/config"
	"github.com/volcano-viz/server/internal/service"
)

func main() {
	configPath := flag.String("config", "config/server.yaml", "path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	datasets, err := cache.NewDatasetCache(cfg.Cache.MaxDatasets)
	if err != nil {
		log.Fatalf("failed to create dataset cache: %v", err)
	}
	responses, err := cache.NewResponseCache(cache.ResponseCacheConfig{
		MaxSizeMB: cfg.Cache.ResponseSizeMB,
		TTL:       time.Duration(cfg.Cache.ResponseTTLMinutes) * time.Minute,
	})
	if err != nil {
		log.Fatalf("failed to create response cache: %v", err)
	}
	defer responses.Close()

	svc := service.NewPlotService(service.PlotServiceConfig{
		Datasets:  datasets,
		Responses: responses,
		Engine:    cfg.Engine,
	})

	instanceID := uuid.NewString()
	log.Printf("starting plot server instance %s", instanceID)

	if len(cfg.Engine.WarmSizes) > 0 {
		go func() {
			warmed := svc.WarmCache(cfg.Engine.WarmSizes)
			log.Printf("startup warm complete: %v", warmed)
		}()
	}

	router := api.NewRouter(api.RouterConfig{
		Service:     svc,
		CORSOrigins: cfg.Server.CORSOrigins,
		InstanceID:  instanceID,
		StartedAt:   time.Now(),
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Printf("listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("forced shutdown: %v", err)
	}
	log.Println("server stopped")
}
