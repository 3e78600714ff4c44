package main

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/tomzre/futbal.mng.auth-identity/internal/audit"
	"github.com/tomzre/futbal.mng.auth-identity/internal/authn"
	"github.com/tomzre/futbal.mng.auth-identity/internal/clients"
	"github.com/tomzre/futbal.mng.auth-identity/internal/config"
	"github.com/tomzre/futbal.mng.auth-identity/internal/domain"
	"github.com/tomzre/futbal.mng.auth-identity/internal/events"
	"github.com/tomzre/futbal.mng.auth-identity/internal/identity"
	"github.com/tomzre/futbal.mng.auth-identity/internal/outbox"
	"github.com/tomzre/futbal.mng.auth-identity/internal/registration"
	"github.com/tomzre/futbal.mng.auth-identity/internal/router"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("error loading config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("error creating pgx pool: %v", err)
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		log.Fatalf("error pinging database: %v", err)
	}

	conn, err := amqp.Dial(cfg.AMQPURL)
	if err != nil {
		log.Fatalf("error connecting to broker: %v", err)
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		log.Fatalf("error opening broker channel: %v", err)
	}

	publisher, err := events.NewAMQPPublisher(events.AMQPChannel{Ch: ch}, events.Topology{
		Exchange:   cfg.EventExchange,
		Queue:      cfg.EventQueue,
		RoutingKey: cfg.UserCreatedRoutingKey,
	})
	if err != nil {
		log.Fatalf("error setting up event publisher: %v", err)
	}

	registry, err := clients.Load(cfg.ClientsFile)
	if err != nil {
		log.Fatalf("error loading client registry: %v", err)
	}

	store := identity.NewPostgresStore(pool)

	var regService *registration.Service
	if cfg.PublishMode == config.PublishOutbox {
		obStore := outbox.NewStore(pool)
		store.CreateHook = func(ctx context.Context, tx pgx.Tx, user domain.User) error {
			return obStore.InsertTx(ctx, tx, events.EventTypeUserCreated, events.NewUserCreated(user))
		}
		regService = registration.NewOutboxedService(store)

		relay := &outbox.Relay{
			Source:    obStore,
			Publisher: publisher,
			Interval:  cfg.OutboxPollInterval,
		}
		go func() {
			if err := relay.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("outbox relay stopped: %v", err)
			}
		}()
	} else {
		regService = registration.NewService(store, publisher)
	}

	accountHandler := registration.NewHandler(regService)
	accountHandler.OnRegister = func(ctx context.Context, user domain.User) {
		uid := user.ID.String()
		meta, _ := json.Marshal(map[string]string{"email": user.Email})
		if err := audit.Write(ctx, pool, audit.Entry{
			UserID:   &uid,
			UserName: user.UserName,
			Action:   audit.ActionUserCreated,
			Metadata: meta,
		}); err != nil {
			log.Printf("audit: recording registration for %s: %v", user.ID, err)
		}
	}

	tokenService := authn.NewService(store, registry, []byte(cfg.JWTSecret), cfg.TokenTTL)

	authHandler := authn.NewHandler(tokenService)
	authHandler.OnSignIn = func(ctx context.Context, session authn.Session, clientID string) {
		uid := session.UserID.String()
		meta, _ := json.Marshal(map[string]string{"name": session.Name})
		if err := audit.Write(ctx, pool, audit.Entry{
			UserID:   &uid,
			UserName: session.UserName,
			Action:   audit.ActionLoginSuccess,
			ClientID: &clientID,
			Metadata: meta,
		}); err != nil {
			log.Printf("audit: recording login for %s: %v", session.UserID, err)
		}
	}

	app := fiber.New(fiber.Config{
		ErrorHandler: router.JSONErrorHandler,
	})

	origins := cfg.CORSOrigin
	if origins == "" {
		origins = registry.CORSOrigins()
	}
	app.Use(router.CorsMiddleware(origins))
	app.Use(requestLogger())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"ok": true})
	})
	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"ok": true})
	})

	r := &router.Router{
		AccountHandler:      accountHandler,
		AuthenticateHandler: authHandler,
		RegisterRateLimit:   router.RateLimitRegister(cfg.RegisterRateMax, cfg.RegisterRateWindow),
	}
	r.RegisterRoutes(app)

	go func() {
		<-ctx.Done()
		_ = app.ShutdownWithTimeout(10 * time.Second)
	}()

	log.Println("Listening on port", cfg.Port)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("error serving: %v", err)
	}
}

func requestLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		status := c.Response().StatusCode()
		log.Printf("%s %s %d %s", c.Method(), c.Path(), status, time.Since(start))
		return err
	}
}
