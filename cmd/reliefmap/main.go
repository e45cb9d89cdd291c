package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/paglaumhub/reliefmap/internal/api"
	"github.com/paglaumhub/reliefmap/internal/backend"
	"github.com/paglaumhub/reliefmap/internal/config"
	"github.com/paglaumhub/reliefmap/internal/gateway"
	"github.com/paglaumhub/reliefmap/internal/geo"
	"github.com/paglaumhub/reliefmap/internal/hazards"
	"github.com/paglaumhub/reliefmap/internal/logging"
	"github.com/paglaumhub/reliefmap/internal/mapview"
	"github.com/paglaumhub/reliefmap/internal/models"
	"github.com/paglaumhub/reliefmap/internal/observability"
	"github.com/paglaumhub/reliefmap/internal/store"
	"github.com/paglaumhub/reliefmap/internal/syncer"
)

// logCamera is the headless rendering surface: camera commands are logged so
// operators can trace navigation; a browser client consumes /api/map.
type logCamera struct{}

func (logCamera) PanTo(cmd mapview.CameraCommand) {
	slog.Info("camera pan", "lat", cmd.Center.Lat, "lng", cmd.Center.Lng, "zoom", cmd.Zoom)
}

func (logCamera) FlyTo(cmd mapview.CameraCommand) {
	slog.Info("camera fly", "lat", cmd.Center.Lat, "lng", cmd.Center.Lng, "zoom", cmd.Zoom, "duration", cmd.Duration)
}

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatalf("Fatal while loading config: %v", err)
	}
	logging.Setup(cfg.Logging.Level)

	slog.Info("Server starting", "host", cfg.Server.Host, "port", cfg.Server.Port)

	metrics := observability.NewMetrics()
	metrics.MustRegister(prometheus.DefaultRegisterer)

	db, err := backend.OpenSQLite(cfg.DB.Path)
	if err != nil {
		logging.Fatalf("Failed to initialize backend: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	requests := store.New[models.HelpRequest]()
	shelters := store.New[models.Shelter]()
	family := store.New[models.FamilyPost]()

	requestsSync := syncer.New(models.KindHelpRequest, db.Requests(), requests, metrics)
	sheltersSync := syncer.New(models.KindShelter, db.Shelters(), shelters, metrics)
	familySync := syncer.New(models.KindFamilyPost, db.FamilyPosts(), family, metrics)

	for _, open := range []func(context.Context) error{
		requestsSync.Open, sheltersSync.Open, familySync.Open,
	} {
		if err := open(ctx); err != nil {
			logging.Fatalf("Failed to open sync channel: %v", err)
		}
	}

	requestsGw := gateway.New(models.KindHelpRequest, db.Requests(), requests, metrics,
		gateway.WithUndoWindow[models.HelpRequest](cfg.Gateway.UndoWindow))
	sheltersGw := gateway.New(models.KindShelter, db.Shelters(), shelters, metrics)
	familyGw := gateway.New(models.KindFamilyPost, db.FamilyPosts(), family, metrics)

	var poller *hazards.Poller
	var overlay mapview.SnapshotSource
	if cfg.Hazards.Enabled {
		poller = hazards.NewPoller(cfg.Hazards.QuakeURL, cfg.Hazards.CycloneURL, cfg.Hazards.PollInterval, metrics)
		poller.Start(ctx)
		overlay = poller
	}

	var provider geo.Provider
	if cfg.Geo.DeviceLat != 0 || cfg.Geo.DeviceLng != 0 {
		provider = geo.StaticProvider{Pos: geo.Position{
			Coordinates: models.Coordinates{Lat: cfg.Geo.DeviceLat, Lng: cfg.Geo.DeviceLng},
		}}
	}
	geoGate := geo.NewGate(provider)
	geoOpts := geo.Options{
		HighAccuracy: cfg.Geo.HighAccuracy,
		Timeout:      cfg.Geo.Timeout,
	}

	controller := mapview.NewController(
		mapview.Config{
			DefaultCenter: models.Coordinates{Lat: cfg.Map.DefaultLat, Lng: cfg.Map.DefaultLng},
			DefaultZoom:   cfg.Map.DefaultZoom,
			FocusZoom:     cfg.Map.FocusZoom,
			FlyDuration:   cfg.Map.FlyDuration,
		},
		logCamera{},
		requests, shelters, family,
		overlay,
	)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false, // Set to false when using wildcard origins
	}))
	router.Use(api.RateLimitMiddleware(10, 20))

	handler := api.NewHandler(
		requests, shelters, family,
		requestsGw, sheltersGw, familyGw,
		requestsSync, sheltersSync, familySync,
		controller, geoGate, geoOpts,
	)
	handler.RegisterRoutes(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: router,
	}

	go func() {
		slog.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down...")

	cancel()
	requestsSync.Close()
	sheltersSync.Close()
	familySync.Close()
	if poller != nil {
		poller.Stop()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	slog.Info("shutdown complete")
}
