package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"taskhub/internal/auth"
	"taskhub/internal/config"
	"taskhub/internal/domain/models"
	api "taskhub/internal/http"
	h "taskhub/internal/http/handlers"
	"taskhub/internal/service"
	"taskhub/internal/store"

	"github.com/gin-gonic/gin"
)

func main() {
	settings := config.Load()
	if settings.GinMode != "" {
		gin.SetMode(settings.GinMode)
	}

	db, err := config.OpenDB(settings)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	userStore := store.New(db, models.UserDescriptor())
	taskStore := store.New(db, models.TaskDescriptor())

	users := service.NewUsers(userStore)
	tasks := service.NewTasks(taskStore)
	tokens := auth.NewTokenManager(settings.JWTSecret, settings.TokenTTL)

	if _, err := users.EnsureAdmin(context.Background(), settings.AdminEmail, settings.AdminPassword); err != nil {
		log.Fatalf("failed to ensure admin account: %v", err)
	}

	r := api.NewRouter(api.Deps{
		Settings: settings,
		Tokens:   tokens,
		Users:    users,
		Tasks:    tasks,
		System:   h.SystemHandler{DB: db},
	})

	srv := &http.Server{
		Addr:              settings.Addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       20 * time.Second,
		WriteTimeout:      20 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("server listening on %s", settings.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("shutdown failed: %v", err)
	}

	log.Println("server stopped cleanly")
}
