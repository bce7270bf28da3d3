package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echoMw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sokoticket/checkout-service/config"
	"github.com/sokoticket/checkout-service/internal/consumer"
	"github.com/sokoticket/checkout-service/internal/handler"
	"github.com/sokoticket/checkout-service/internal/middleware"
	"github.com/sokoticket/checkout-service/internal/payment"
	"github.com/sokoticket/checkout-service/internal/repository"
	"github.com/sokoticket/checkout-service/internal/service"
	"github.com/sokoticket/checkout-service/pkg/database"
	"github.com/sokoticket/checkout-service/pkg/logger"
	"github.com/sokoticket/checkout-service/pkg/rabbitmq"
	"github.com/sokoticket/checkout-service/pkg/redisclient"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	log := logger.New(cfg.Environment)
	defer log.Sync()

	db := database.NewPostgresDB(cfg.DSN())
	rdb := redisclient.New(cfg.RedisURL)

	publisher, err := rabbitmq.NewPublisher(cfg.RabbitURL)
	if err != nil {
		log.Fatal("failed to connect rabbitmq publisher", zap.Error(err))
	}
	defer publisher.Close()

	mqConsumer, err := rabbitmq.NewConsumer(cfg.RabbitURL)
	if err != nil {
		log.Fatal("failed to connect rabbitmq consumer", zap.Error(err))
	}
	defer mqConsumer.Close()

	msgs, err := mqConsumer.Consume()
	if err != nil {
		log.Fatal("failed to start consuming", zap.Error(err))
	}
	consumer.NewNotificationConsumer(db, &consumer.LogMailer{Logger: log}, log).Start(msgs)

	// Repositories
	eventRepo := repository.NewEventRepository(db)
	ticketTypeRepo := repository.NewTicketTypeRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	ticketRepo := repository.NewTicketRepository(db)

	// Payment gateways: only providers with credentials are registered;
	// the mock gateway covers local development.
	gateways := payment.NewRegistry()

	var momoGateway *payment.MoMoGateway
	if cfg.Stripe.SecretKey != "" {
		stripe, err := payment.NewStripeGateway(payment.StripeConfig{
			SecretKey:     cfg.Stripe.SecretKey,
			WebhookSecret: cfg.Stripe.WebhookSecret,
			BaseURL:       cfg.Stripe.BaseURL,
		}, nil)
		if err != nil {
			log.Fatal("stripe gateway init failed", zap.Error(err))
		}
		gateways.Register(stripe)
	}
	if cfg.MoMo.SubscriptionKey != "" {
		momoGateway, err = payment.NewMoMoGateway(payment.MoMoConfig{
			BaseURL:         cfg.MoMo.BaseURL,
			SubscriptionKey: cfg.MoMo.SubscriptionKey,
			APIUser:         cfg.MoMo.APIUser,
			APIKey:          cfg.MoMo.APIKey,
			TargetEnv:       cfg.MoMo.TargetEnv,
			CallbackSecret:  cfg.MoMo.CallbackSecret,
		}, nil)
		if err != nil {
			log.Fatal("momo gateway init failed", zap.Error(err))
		}
		gateways.Register(momoGateway)
	}
	if cfg.Environment == "development" {
		mock, err := payment.NewMockGateway(cfg.Mock.Secret)
		if err != nil {
			log.Fatal("mock gateway init failed", zap.Error(err))
		}
		gateways.Register(mock)
	}
	if len(gateways.Providers()) == 0 {
		log.Fatal("no payment providers configured")
	}

	// Services
	issuer := service.NewTicketIssuer(ticketRepo)
	dispatcher := service.NewRabbitDispatcher(publisher, log)
	checkoutSvc := service.NewCheckoutService(orderRepo, ticketTypeRepo, eventRepo, gateways, cfg.PublicBaseURL, log)
	confirmationSvc := service.NewConfirmationService(orderRepo, ticketTypeRepo, issuer, gateways, dispatcher, log)
	eventSvc := service.NewEventService(eventRepo, ticketTypeRepo, publisher)

	// Background workers
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sweeper := service.NewSweeper(orderRepo, cfg.OrderExpiry, time.Minute, log)
	go sweeper.Run(ctx)

	if momoGateway != nil {
		poller := service.NewStatusPoller(orderRepo, confirmationSvc, momoGateway, payment.ProviderMoMo, cfg.MoMo.PollInterval, log)
		go poller.Run(ctx)
	}

	// Echo
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = middleware.ErrorHandler
	e.Use(echoMw.RequestLoggerWithConfig(echoMw.RequestLoggerConfig{
		LogStatus: true,
		LogURI:    true,
		LogMethod: true,
		LogValuesFunc: func(c echo.Context, v echoMw.RequestLoggerValues) error {
			log.Info("request",
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
			)
			return nil
		},
	}))
	e.Use(echoMw.Recover())

	e.GET("/health", func(c echo.Context) error {
		if err := redisclient.HealthCheck(rdb); err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "degraded", "redis": err.Error()})
		}
		return c.JSON(http.StatusOK, map[string]string{"status": "ok", "service": "checkout-service"})
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	rateLimit := middleware.CheckoutRateLimit(rdb, cfg.CheckoutRateLimit, cfg.CheckoutRateWindow)
	handler.NewCheckoutHandler(checkoutSvc).RegisterRoutes(e, rateLimit)
	handler.NewWebhookHandler(confirmationSvc).RegisterRoutes(e)
	handler.NewOrderHandler(orderRepo, ticketRepo).RegisterRoutes(e)
	handler.NewEventHandler(eventSvc).RegisterRoutes(e)

	go func() {
		log.Info("checkout service starting", zap.String("port", cfg.ServerPort))
		if err := e.Start(":" + cfg.ServerPort); err != nil && err != http.ErrServerClosed {
			log.Fatal("server stopped", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", zap.Error(err))
	}
}
