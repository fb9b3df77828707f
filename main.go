package main

import (
	"context"
	"fmt"
	"menuo/app"
	"menuo/infra/rabbitmq"
	"menuo/infra/rest"
	"menuo/pkg/aws"
	"menuo/pkg/config"
	"menuo/pkg/events"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	appConfig := config.Read()
	setupLogger(appConfig.LogLevel)
	defer zap.L().Sync()

	zap.L().Debug("admin console config",
		zap.String("apiBaseURL", appConfig.APIBaseURL),
		zap.Duration("requestTimeout", appConfig.RequestTimeout),
		zap.String("multipartUpdate", appConfig.MultipartUpdate),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := rest.NewClient(rest.ClientConfig{
		BaseURL:               appConfig.APIBaseURL,
		Timeout:               appConfig.RequestTimeout,
		NativeMultipartUpdate: appConfig.NativeMultipartUpdate(),
	})

	var archive app.AssetArchive
	if appConfig.ArchiveEnabled() {
		archive = aws.NewS3Bucket(appConfig)
	}

	var publisher events.Publisher
	if appConfig.RabbitMQURL != "" {
		p, err := rabbitmq.NewPublisher(appConfig.RabbitMQURL, appConfig.ServiceName)
		if err != nil {
			zap.L().Warn("Menu events disabled", zap.Error(err))
		} else {
			defer p.Close()
			publisher = p
		}
	}

	c := newConsole(consoleDeps{
		Repository: rest.NewRepository(client),
		Archive:    archive,
		Publisher:  publisher,
		Service:    appConfig.ServiceName,
		In:         os.Stdin,
		Out:        os.Stdout,
	})

	if err := c.run(ctx, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, describe(err))
		zap.L().Sync()
		os.Exit(1)
	}
}

func setupLogger(level string) {
	zapConfig := zap.NewDevelopmentConfig()
	zapConfig.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	if lvl, err := zapcore.ParseLevel(level); err == nil {
		zapConfig.Level = zap.NewAtomicLevelAt(lvl)
	}
	logger, err := zapConfig.Build()
	if err != nil {
		panic(fmt.Errorf("build logger: %w", err))
	}
	zap.ReplaceGlobals(logger)
}
