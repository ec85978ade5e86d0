package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	firebase "firebase.google.com/go/v4"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/pigjjun/board/backend/internal/config"
	"github.com/pigjjun/board/backend/internal/content"
	"github.com/pigjjun/board/backend/internal/database"
	"github.com/pigjjun/board/backend/internal/devicestore"
	"github.com/pigjjun/board/backend/internal/handlers"
	"github.com/pigjjun/board/backend/internal/identity"
	"github.com/pigjjun/board/backend/internal/live"
	"github.com/pigjjun/board/backend/internal/media"
	"github.com/pigjjun/board/backend/internal/prefs"
	"github.com/pigjjun/board/backend/internal/server"
	"github.com/pigjjun/board/backend/internal/voting"
)

const deviceTTL = 400 * 24 * time.Hour

func main() {
	cfg := config.Load()
	gin.SetMode(cfg.GinMode)

	dbService, err := database.New(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer dbService.Close()
	db := dbService.GetDB()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		rdb     *redis.Client
		devices devicestore.Store = devicestore.NewMemory()
	)
	if cfg.RedisURL != "" {
		rdb = devicestore.MustRedis(cfg.RedisURL)
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Fatalf("redis: %v", err)
		}
		devices = devicestore.NewRedis(rdb, deviceTTL)
		log.Println("✅ Redis connected")
	} else {
		log.Println("REDIS_URL not set, device data is kept in memory")
	}

	var store media.Store
	if cfg.FirebaseBucket != "" {
		app, err := firebase.NewApp(ctx, nil)
		if err != nil {
			log.Fatalf("error initializing firebase: %v", err)
		}
		bucket, err := media.NewBucket(ctx, app, cfg.FirebaseBucket)
		if err != nil {
			log.Fatalf("An error occurred while connecting to the uploads bucket: %v", err)
		}
		store = bucket
	} else {
		log.Println("FIREBASE_BUCKET not set, media uploads are disabled")
	}

	hub := live.NewHub(rdb)
	go hub.Run(ctx)

	prop := identity.NewPropagator(db, hub, cfg.PropagationConcurrency)
	srv := server.New(cfg, dbService, handlers.Deps{
		DB:        db,
		Content:   content.NewService(db, hub, store, cfg.PropagationConcurrency),
		Votes:     voting.NewAggregator(db, hub),
		Profiles:  identity.NewProfiles(db, prop, cfg.HandleCooldown),
		Prefs:     prefs.NewService(devices),
		Devices:   devices,
		Media:     store,
		Hub:       hub,
		JWTSecret: []byte(cfg.JWTSecret),
		Origins:   cfg.CORSOrigins,
	})
	defer srv.Close()

	httpSrv := srv.NewHTTPServer()
	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http: %v", err)
		}
	}()
	log.Println("📝 Press Ctrl+C to stop the server")

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	cancel()

	shutCtx, cancelShut := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShut()
	if err := httpSrv.Shutdown(shutCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}
