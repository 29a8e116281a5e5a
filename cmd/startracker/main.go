package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dukerupert/startracker/internal/database"
	"github.com/dukerupert/startracker/internal/logging"
	"github.com/dukerupert/startracker/internal/push"
	"github.com/dukerupert/startracker/internal/server"
	"github.com/dukerupert/startracker/internal/upload"
)

func main() {
	logger := logging.Setup(os.Getenv("STARTRACKER_LOG_LEVEL"))

	port := os.Getenv("STARTRACKER_PORT")
	if port == "" {
		port = "8080"
	}

	dbPath := os.Getenv("STARTRACKER_DB_PATH")
	if dbPath == "" {
		dbPath = "startracker.db"
	}

	db, err := database.Open(dbPath)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	pushCfg := push.Config{
		VAPIDPublicKey:  os.Getenv("STARTRACKER_VAPID_PUBLIC_KEY"),
		VAPIDPrivateKey: os.Getenv("STARTRACKER_VAPID_PRIVATE_KEY"),
	}
	if pushCfg.VAPIDPublicKey == "" {
		logger.Info("push notifications disabled, set STARTRACKER_VAPID_PUBLIC_KEY and STARTRACKER_VAPID_PRIVATE_KEY to enable")
	}

	uploadCfg := upload.Config{
		Endpoint:      os.Getenv("STARTRACKER_S3_ENDPOINT"),
		Bucket:        os.Getenv("STARTRACKER_S3_BUCKET"),
		Region:        os.Getenv("STARTRACKER_S3_REGION"),
		AccessKey:     os.Getenv("STARTRACKER_S3_ACCESS_KEY"),
		SecretKey:     os.Getenv("STARTRACKER_S3_SECRET_KEY"),
		PublicBaseURL: os.Getenv("STARTRACKER_S3_PUBLIC_URL"),
	}

	srv := server.New(db, pushCfg, uploadCfg, logger)

	// Periodic cleanup of expired sessions and stale rate limiter entries.
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for range ticker.C {
			if err := srv.SessionStore().DeleteExpired(); err != nil {
				logger.Error("session cleanup", "error", err)
			}
			srv.RateLimiter().Cleanup()
		}
	}()

	httpServer := &http.Server{
		Addr:         ":" + port,
		Handler:      srv.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		fmt.Printf("Star Tracker running at http://localhost:%s\n", port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	fmt.Println("\nShutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Fatalf("shutdown error: %v", err)
	}
}
