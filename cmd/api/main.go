package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	cognitoidp "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/example/scaffold-shop/internal/api"
	"github.com/example/scaffold-shop/internal/auth"
	"github.com/example/scaffold-shop/internal/cart"
	"github.com/example/scaffold-shop/internal/catalog"
	"github.com/example/scaffold-shop/internal/checkout"
	"github.com/example/scaffold-shop/internal/config"
	"github.com/example/scaffold-shop/internal/infrastructure/kafka"
	"github.com/example/scaffold-shop/internal/infrastructure/store"
	"github.com/example/scaffold-shop/internal/logger"
	"github.com/example/scaffold-shop/internal/order"
	"github.com/example/scaffold-shop/internal/payment"
)

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

	ctx := context.Background()

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
	if err != nil {
		zlog.Fatal("load aws config", zap.Error(err))
	}

	// Order store backend
	var (
		orderStore order.Store
		db         *sql.DB
	)
	switch cfg.OrderStoreBackend {
	case "dynamo":
		orderStore = store.NewDynamoOrderStore(dynamodb.NewFromConfig(awsCfg), cfg.OrdersTable)
		zlog.Info("order store: dynamodb", zap.String("table", cfg.OrdersTable))
	default:
		db, err = store.ConnectPostgres(cfg.DatabaseURL)
		if err != nil {
			zlog.Fatal("connect postgres", zap.Error(err))
		}
		defer db.Close()
		orderStore = store.NewPostgresOrderStore(db)
		zlog.Info("order store: postgres")
	}

	// Session state in Redis
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		zlog.Fatal("connect redis", zap.Error(err))
	}

	producer := kafka.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic)
	defer producer.Close()

	// Services
	cat := catalog.New()

	cartRepo := cart.NewRedisRepository(redisClient)
	carts := cart.NewService(cartRepo, cat)

	payments := payment.NewStripeClient(cfg.StripeSecretKey, cfg.PublicBaseURL)

	checkoutRepo := checkout.NewRedisRepository(redisClient)
	checkouts := checkout.NewService(checkoutRepo, cartRepo, payments, zlog)

	orders := order.NewService(payments, orderStore, producer, zlog, cartRepo, checkoutRepo)

	jwtService := auth.NewJWTService(cfg.JWTSecret, 15*time.Minute, 7*24*time.Hour)
	provider := auth.NewCognitoProvider(
		cognitoidp.NewFromConfig(awsCfg),
		cfg.CognitoClientID,
		cfg.CognitoClientSecret,
	)

	handlers := api.NewHandlers(cat, carts, checkouts, orders, zlog)
	authHandlers := api.NewAuthHandlers(provider, jwtService, cfg.CognitoAdminGroup, zlog)
	adminHandlers := api.NewAdminHandlers(orders, zlog)
	router := api.NewRouter(handlers, authHandlers, adminHandlers, jwtService, zlog)

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		zlog.Info("server started", zap.String("addr", cfg.HTTPAddr))
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			zlog.Fatal("server", zap.Error(err))
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	zlog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		zlog.Error("shutdown", zap.Error(err))
	}
}
