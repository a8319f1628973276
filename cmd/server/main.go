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

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/karolisbudreckas92-sys/frikt-backend/internal/db"
	"github.com/karolisbudreckas92-sys/frikt-backend/internal/engage"
	routes "github.com/karolisbudreckas92-sys/frikt-backend/internal/http"
	"github.com/karolisbudreckas92-sys/frikt-backend/internal/models"
	"github.com/karolisbudreckas92-sys/frikt-backend/internal/notify"
	"github.com/karolisbudreckas92-sys/frikt-backend/internal/tasks"
	"github.com/karolisbudreckas92-sys/frikt-backend/internal/ws"
)

func main() {
	// Allows running in production (env vars set directly) without a .env.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment")
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		log.Fatal("JWT_SECRET environment variable not set")
	}

	database, err := db.Init()
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	log.Println("Running database migrations...")
	if err := database.AutoMigrate(models.All()...); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Migrations complete.")

	hub := ws.NewHub()
	go hub.Run()

	engageSvc := engage.NewService(database)

	scheduler := tasks.Start(database, engageSvc)
	defer scheduler.Stop()

	env := &routes.Env{
		DB:        database,
		Hub:       hub,
		Engage:    engageSvc,
		Notify:    notify.NewService(database),
		JWTSecret: []byte(jwtSecret),
	}

	router := gin.Default()
	routes.SetupRoutes(router, env)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: router,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("Server listening on :%s", port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exiting")
}
