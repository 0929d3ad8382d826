package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awsssm "github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/dgraph-io/badger/v4"

	"pointing-poker/handler"
	"pointing-poker/internal/config"
	"pointing-poker/internal/integrations/paramstore"
	"pointing-poker/internal/repository"
	"pointing-poker/internal/usecase"
)

func main() {
	ctx := context.Background()

	// ---- Configuration (read only here) ----
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}
	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(log)

	// ---- Session store ----
	var store usecase.SessionStore
	switch cfg.StoreBackend {
	case config.BackendBadger:
		opts := badger.DefaultOptions(cfg.BadgerPath).WithLogger(nil)
		if cfg.BadgerPath == "" {
			opts = opts.WithInMemory(true)
		}
		// Not closed: lambda.Start never returns, the db lives as long as the process.
		db, err := badger.Open(opts)
		if err != nil {
			log.Error("failed to open badger", "path", cfg.BadgerPath, "err", err)
			os.Exit(1)
		}
		store, err = repository.NewBadgerStore(db)
		if err != nil {
			log.Error("failed to create badger store", "err", err)
			os.Exit(1)
		}
	default:
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			log.Error("failed to load AWS config", "err", err)
			os.Exit(1)
		}
		params, err := paramstore.New(awsssm.NewFromConfig(awsCfg))
		if err != nil {
			log.Error("failed to create SSM client", "err", err)
			os.Exit(1)
		}
		tableName, err := params.Resolve(ctx, cfg.TableParam, cfg.TableName)
		if err != nil {
			log.Error("failed to resolve sessions table", "param", cfg.TableParam, "err", err)
			os.Exit(1)
		}
		store, err = repository.New(awsdynamodb.NewFromConfig(awsCfg), tableName)
		if err != nil {
			log.Error("failed to create sessions client", "err", err)
			os.Exit(1)
		}
		log.Info("using dynamodb sessions table", slog.String("table", tableName))
	}

	// ---- Handler ----
	sessions, err := usecase.NewSessionService(store, cfg.SessionTTL, log)
	if err != nil {
		log.Error("failed to create session service", "err", err)
		os.Exit(1)
	}
	h, err := handler.NewHandler(sessions, cfg.OperationTimeout, log)
	if err != nil {
		log.Error("failed to create handler", "err", err)
		os.Exit(1)
	}
	fn, err := h.For(cfg.Operation)
	if err != nil {
		log.Error("failed to select operation", "operation", cfg.Operation, "err", err)
		os.Exit(1)
	}

	lambda.Start(fn)
}
