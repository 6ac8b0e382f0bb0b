package main // Entry point package

import (
	"log" // Logging library

	"github.com/joho/godotenv"    // loads .env files in local development
	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/bilhetinho/server/internal/config"     // Internal config loader
	"github.com/bilhetinho/server/internal/database"   // MySQL connection pool
	"github.com/bilhetinho/server/internal/handler"    // HTTP handlers
	"github.com/bilhetinho/server/internal/middleware" // rate limiting
	"github.com/bilhetinho/server/internal/queue"      // broker consumer
	"github.com/bilhetinho/server/internal/repository" // data access
	"github.com/bilhetinho/server/internal/router"     // Internal router setup
	"github.com/bilhetinho/server/internal/service"    // event code generation
)

func main() {
	_ = godotenv.Load() // .env is optional; real deployments set the env directly

	cfg := config.Load() // Load environment config

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Repositories share the one pool.
	establishments := repository.NewEstablishmentRepo(db)
	admins := repository.NewAdminRepo(db)
	events := repository.NewEventRepo(db)
	rooms := repository.NewRoomRepo(db)
	tables := repository.NewTableRepo(db)
	users := repository.NewUserRepo(db)
	notes := repository.NewNoteRepo(db)

	codes := service.NewCodeGenerator(events)

	authH := handler.NewAuthHandler(cfg, admins)
	eventH := handler.NewEventHandler(cfg, events, rooms, tables, codes)
	guestH := handler.NewGuestHandler(rooms, tables, users)
	noteH := handler.NewNoteHandler(cfg, notes, tables, rooms)
	masterH := handler.NewMasterHandler(cfg, establishments, admins, events)

	// The limiter degrades to a pass-through when Redis is unreachable.
	rdb := config.NewRedisClient()
	limiter := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)

	e := echo.New() // Create Echo instance
	router.RegisterRoutes(e)
	router.RegisterAuth(e, authH)
	router.RegisterAdmin(e, eventH, cfg.JWTSecret)
	router.RegisterMaster(e, masterH, cfg.JWTSecret)
	router.RegisterPublic(e, eventH, guestH, noteH, limiter)

	// Broker consumer writes note activity to the audit log; it reconnects
	// on its own and never blocks startup.
	go queue.StartNoteConsumer()

	addr := ":" + cfg.Port                                // Address string with port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env) // Print startup info

	if err := e.Start(addr); err != nil { // Start HTTP server
		log.Fatal(err) // Log and exit if server fails
	}
}
