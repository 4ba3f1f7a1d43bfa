package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alessandronigro/corsi-backoffice/internal/application"
	"github.com/alessandronigro/corsi-backoffice/internal/application/commands"
	"github.com/alessandronigro/corsi-backoffice/internal/application/query"
	"github.com/alessandronigro/corsi-backoffice/internal/infra/db"
	"github.com/alessandronigro/corsi-backoffice/internal/infra/mail"
	"github.com/alessandronigro/corsi-backoffice/internal/presentation/rest"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/jackc/pgx/v5/pgxpool"
)

func Init() {
	// Shop DB
	dbConfig := db.NewConfig()
	shopPool, err := pgxpool.New(context.Background(), dbConfig.GetDSN())
	if err != nil {
		log.Panicf("failed to create pool: %v", err)
	}
	err = shopPool.Ping(context.Background())
	if err != nil {
		log.Panicf("failed to connect to db: %v", err)
	}
	ordersRepo := db.NewOrdersRepo(shopPool)

	// LMS registry
	hostsConfig := db.NewHostsConfig()
	registry := db.NewRegistry(hostsConfig)
	stores := db.NewStoreFactory(registry)

	// Mail
	mailConfig := mail.NewMailConfig()
	mailServer := mail.NewMailServer(mailConfig)

	enroll := commands.NewEnroll(stores, mailServer, ordersRepo)
	orderSummary := query.NewOrderSummary(ordersRepo)
	handlers := &application.Handlers{
		Enroll:       enroll,
		ImportSheet:  commands.NewImportSheet(enroll),
		ProcessOrder: commands.NewProcessOrder(ordersRepo, enroll),
		SendReminder: commands.NewSendReminder(orderSummary, mailServer),
		OrderSummary: orderSummary,
	}
	handler := rest.NewServer(handlers)
	app := fiber.New(fiber.Config{
		IdleTimeout: 5 * time.Second,
	})
	app.Use(cors.New(cors.Config{
		AllowOrigins:     "http://localhost:3000",
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
	}))
	rest.RegisterHandlers(app, handler)

	go func() {
		if err := app.Listen(":8080"); err != nil {
			log.Panic(err)
		}
	}()

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	_ = <-c
	fmt.Println("Gracefully shutting down...")
	_ = app.Shutdown()

	fmt.Println("Running cleanup tasks...")

	registry.Close()
	shopPool.Close()
	fmt.Println("Fiber was successfully shutdown.")
}
