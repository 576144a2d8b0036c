package main

import (
	"context"
	"database/sql"
	"log"
	"os"
	"os/signal"
	"syscall"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"go.uber.org/zap"

	"github.com/example/scaffold-shop/internal/config"
	"github.com/example/scaffold-shop/internal/email"
	"github.com/example/scaffold-shop/internal/infrastructure/kafka"
	"github.com/example/scaffold-shop/internal/infrastructure/store"
	"github.com/example/scaffold-shop/internal/logger"
	"github.com/example/scaffold-shop/internal/notification"
	"github.com/example/scaffold-shop/internal/order"
)

const consumerGroup = "order-notifier"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	zlog, err := logger.New(cfg.AppEnv)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer zlog.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Order store, for resolving customer email on status changes.
	var (
		orderStore order.Store
		db         *sql.DB
	)
	switch cfg.OrderStoreBackend {
	case "dynamo":
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
		if err != nil {
			zlog.Fatal("load aws config", zap.Error(err))
		}
		orderStore = store.NewDynamoOrderStore(dynamodb.NewFromConfig(awsCfg), cfg.OrdersTable)
	default:
		db, err = store.ConnectPostgres(cfg.DatabaseURL)
		if err != nil {
			zlog.Fatal("connect postgres", zap.Error(err))
		}
		defer db.Close()
		orderStore = store.NewPostgresOrderStore(db)
	}

	mailer := email.NewService(cfg.SMTPHost, cfg.SMTPPort, cfg.EmailFrom)

	var alerter notification.StaffAlerter
	if cfg.TelegramToken != "" && cfg.TelegramAdminChatID != 0 {
		tg, err := notification.NewTelegramAlerter(cfg.TelegramToken, cfg.TelegramAdminChatID)
		if err != nil {
			zlog.Fatal("telegram alerter", zap.Error(err))
		}
		alerter = tg
		zlog.Info("staff alerts enabled", zap.Int64("chat_id", cfg.TelegramAdminChatID))
	}

	handler := notification.NewHandler(mailer, alerter, orderStore, zlog)

	consumer := kafka.NewConsumer(cfg.KafkaBrokers, cfg.KafkaTopic, consumerGroup, zlog)
	defer consumer.Close()

	go func() {
		zlog.Info("notifier consuming",
			zap.Strings("brokers", cfg.KafkaBrokers),
			zap.String("topic", cfg.KafkaTopic),
			zap.String("group", consumerGroup))
		if err := consumer.Consume(ctx, handler.HandleEvent); err != nil && ctx.Err() == nil {
			zlog.Error("consumer", zap.Error(err))
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	zlog.Info("shutting down")
	cancel()
}
