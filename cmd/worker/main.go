package main

import (
	"context"
	"errors"
	"menuo/app"
	"menuo/domain"
	"menuo/infra/rabbitmq"
	"menuo/infra/rest"
	"menuo/internal/consumers"
	"menuo/pkg/config"
	"menuo/pkg/events"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const statsInterval = 30 * time.Second

func main() {
	zapConfig := zap.NewDevelopmentConfig()
	zapConfig.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	logger, _ := zapConfig.Build()
	zap.ReplaceGlobals(logger)
	defer logger.Sync()

	zap.L().Info("Menu sync worker starting...")

	appConfig := config.Read()
	if lvl, err := zapcore.ParseLevel(appConfig.LogLevel); err == nil {
		zapConfig.Level.SetLevel(lvl)
	}
	zap.L().Info("Worker config loaded",
		zap.String("serviceName", appConfig.ServiceName),
		zap.String("apiBaseURL", appConfig.APIBaseURL),
	)

	if appConfig.RabbitMQURL == "" {
		zap.L().Fatal("RABBITMQ_URL is required for worker service")
	}

	repository := rest.NewRepository(rest.NewClient(rest.ClientConfig{
		BaseURL:               appConfig.APIBaseURL,
		Timeout:               appConfig.RequestTimeout,
		NativeMultipartUpdate: appConfig.NativeMultipartUpdate(),
	}))

	// The public view reads; it never uploads, so no archive.
	products := app.NewProductStore(repository, nil)
	categories := app.NewCategoryStore(repository, products)
	settings := app.NewSettingsStore(repository, domain.FirstSettings, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := categories.Refresh(ctx); err != nil {
		zap.L().Warn("Initial category load failed", zap.Error(err))
	}
	if err := settings.Refresh(ctx); err != nil {
		zap.L().Warn("Initial settings load failed", zap.Error(err))
	}

	menuHandler := consumers.NewMenuEventHandler(categories, products, settings)

	menuConsumer, err := rabbitmq.NewConsumer(appConfig.RabbitMQURL, rabbitmq.ConsumerConfig{
		Exchange:       events.MenuExchange,
		QueueName:      appConfig.ServiceName + "." + events.MenuDomain + ".all.v1",
		RoutingKeys:    events.MenuRoutingKeys,
		ServiceName:    appConfig.ServiceName,
		PrefetchCount:  10,
		WorkerPoolSize: 4,
	})
	if err != nil {
		zap.L().Fatal("Failed to create menu consumer", zap.Error(err))
	}
	defer menuConsumer.Close()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		zap.L().Info("Starting menu event consumer...")
		if err := menuConsumer.Consume(ctx, menuHandler.HandleEvent); err != nil && !errors.Is(err, context.Canceled) {
			zap.L().Error("Menu consumer error", zap.Error(err))
		}
	}()

	go func() {
		ticker := time.NewTicker(statsInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				selected, _ := categories.Selected()
				zap.L().Info("Public menu snapshot",
					zap.Int("categories", len(categories.Categories())),
					zap.Int64("selectedCategoryId", selected),
					zap.Int("products", len(products.Products())),
					zap.String("siteName", settings.Settings().SiteName),
				)
			}
		}
	}()

	zap.L().Info("Worker service started. Waiting for menu events...",
		zap.String("exchange", events.MenuExchange),
		zap.Strings("routingKeys", events.MenuRoutingKeys),
	)

	<-sigChan
	zap.L().Info("Shutdown signal received, stopping worker service...")
	cancel()

	zap.L().Info("Worker service stopped gracefully")
}
