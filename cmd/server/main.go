package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go-digistore/internal/checkout"
	"go-digistore/internal/config"
	"go-digistore/internal/database"
	"go-digistore/internal/handlers"
	"go-digistore/internal/mailer"
	"go-digistore/internal/middleware"
	"go-digistore/internal/notification"
	"go-digistore/internal/notification/fcm"
	"go-digistore/internal/notification/telegram"
	"go-digistore/internal/notification/whatsapp"
	"go-digistore/internal/orders"
	"go-digistore/internal/payment"
	"go-digistore/internal/payment/duitku"
	"go-digistore/internal/payment/lifecycle"
	"go-digistore/internal/payment/manual"
	"go-digistore/internal/payment/midtrans"
	"go-digistore/internal/scheduler"
	"go-digistore/internal/websocket"

	"github.com/rs/cors"
	"github.com/urfave/cli"
)

func main() {
	cmdApp := cli.NewApp()
	cmdApp.Name = "digistore"
	cmdApp.Usage = "payment service for the digital goods store"
	cmdApp.Action = func(c *cli.Context) error {
		return serve(config.Load())
	}
	cmdApp.Commands = []cli.Command{
		{
			Name:  "serve",
			Usage: "start the HTTP server",
			Action: func(c *cli.Context) error {
				return serve(config.Load())
			},
		},
		{
			Name:  "db:migrate",
			Usage: "create or update the database schema",
			Action: func(c *cli.Context) error {
				db, err := openDB(config.Load())
				if err != nil {
					return err
				}
				defer db.Close()
				fmt.Println("Database migrated successfully.")
				return nil
			},
		},
		{
			Name:  "db:seed",
			Usage: "insert the default admin, gateways and a sample manual account",
			Action: func(c *cli.Context) error {
				cfg := config.Load()
				db, err := openDB(cfg)
				if err != nil {
					return err
				}
				defer db.Close()
				if err := seed(context.Background(), db, cfg); err != nil {
					return err
				}
				fmt.Println("Database seeded successfully.")
				return nil
			},
		},
		{
			Name:  "payments:expire",
			Usage: "expire every pending order past its deadline, once",
			Action: func(c *cli.Context) error {
				db, err := openDB(config.Load())
				if err != nil {
					return err
				}
				defer db.Close()

				ids, err := orders.NewService(db, nil, nil).ExpireOverdue(context.Background(), time.Now())
				if err != nil {
					return err
				}
				fmt.Printf("Expired %d orders\n", len(ids))
				for _, id := range ids {
					fmt.Println("  " + id)
				}
				return nil
			},
		},
		{
			Name:      "order:watch",
			Usage:     "poll an order's payment status until it settles",
			ArgsUsage: "<order-id>",
			Flags: []cli.Flag{
				cli.StringFlag{Name: "url", Value: "http://localhost:8080", Usage: "store base URL"},
				cli.DurationFlag{Name: "interval", Value: lifecycle.DefaultPollInterval, Usage: "poll interval"},
			},
			Action: func(c *cli.Context) error {
				orderID := c.Args().First()
				if orderID == "" {
					return cli.NewExitError("order id is required", 2)
				}
				return watchOrder(c.String("url"), orderID, c.Duration("interval"))
			},
		},
	}

	if err := cmdApp.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func openDB(cfg *config.Config) (*database.DB, error) {
	db, err := database.InitDB(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	return db, nil
}

func seed(ctx context.Context, db *database.DB, cfg *config.Config) error {
	if err := db.EnsureDefaultAdmin(ctx, cfg.AdminUser, cfg.AdminPass); err != nil {
		return err
	}
	return db.SeedDefaults(ctx)
}

func serve(cfg *config.Config) error {
	// Print banner
	printBanner()

	// Initialize database
	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := seed(context.Background(), db, cfg); err != nil {
		return err
	}
	log.Println("✓ Database initialized successfully")

	// Initialize WebSocket hub
	wsHub := websocket.NewHub()
	go wsHub.Run()
	defer wsHub.Close()

	log.Println("✓ WebSocket hub started")

	// Payment gateways share one outbound client
	httpClient := &http.Client{Timeout: cfg.HTTPClientTimeout}

	midtransGateway := midtrans.New(httpClient)
	midtransGateway.Events = db

	duitkuGateway := duitku.New(httpClient, cfg.AppURL)
	duitkuGateway.Events = db

	processor := payment.NewProcessor(db, manual.New(db), midtransGateway, duitkuGateway)
	log.Println("✓ Payment processor ready (midtrans, duitku, manual)")

	// Initialize notification channels
	mailService := mailer.New(mailer.Config{
		Host:     cfg.SMTPHost, // Empty host triggers mock mode
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUser,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
	})
	notifier := &notification.Notifier{
		Mail:     mailService,
		WA:       whatsapp.New(cfg),
		Telegram: telegram.New(cfg.TelegramToken, cfg.TelegramChatID),
		Push:     fcm.New(cfg),
	}

	orderService := orders.NewService(db, wsHub, notifier)
	checkoutService := checkout.NewService(processor, db, notifier, cfg.ManualPaymentWindow, cfg.GatewayPaymentWindow)

	// Initialize HTTP handlers
	h := handlers.NewHandler(db, wsHub, processor, checkoutService, orderService, cfg)

	// Initialize Scheduler
	sched := scheduler.New(orderService, cfg.ExpiryCheckInterval)
	if cfg.ExpiryJobEnabled {
		sched.Start()
		defer sched.Stop()
		log.Printf("✓ Scheduler started (expiry check every %s)", cfg.ExpiryCheckInterval)
	}

	// Setup router
	router := handlers.NewRouter(h)

	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Requested-With", middleware.RequestIDHeader},
		ExposedHeaders:   []string{middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           300, // 5 minutes
	})

	// Apply authentication middleware
	authMiddleware := middleware.AuthMiddleware(cfg.JWTSecret)
	handler := middleware.RequestID(middleware.Logging(c.Handler(authMiddleware(router))))

	addr := fmt.Sprintf(":%d", cfg.ServerPort)
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	log.Printf("✓ HTTP server starting on port %d", cfg.ServerPort)
	log.Printf("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	log.Printf("🛒 Store: %s", cfg.AppURL)
	log.Printf("🔧 API: http://localhost:%d/api", cfg.ServerPort)
	log.Printf("💳 Webhooks: %s/api/webhook/{midtrans|duitku}", cfg.AppURL)
	log.Printf("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")

	// Graceful shutdown
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-sigChan:
		log.Println("🛑 Shutting down server...")
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Printf("Shutdown error: %v", err)
		}
	}

	notifier.Wait()
	return nil
}

func printBanner() {
	fmt.Println(`
╔══════════════════════════════════════════╗
║            GO-DIGISTORE PAYMENTS         ║
║   Midtrans · Duitku · Manual Transfer    ║
╚══════════════════════════════════════════╝`)
}
