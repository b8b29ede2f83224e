package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awsssm "github.com/aws/aws-sdk-go-v2/service/ssm"

	"suggestion-agent/handler"
	"suggestion-agent/internal/config"
	"suggestion-agent/internal/integrations/paramstore"
	"suggestion-agent/internal/repository"
	"suggestion-agent/internal/suggest"
	"suggestion-agent/internal/usecase"
)

func main() {
	ctx := context.Background()
	logger := slog.Default()

	// ---- Configuration (read only here) ----
	cfg := config.Load(os.Getenv)

	var recorder usecase.Recorder
	if cfg.ParamPrefix != "" || cfg.SuggestionTable != "" {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			slog.Error("failed to load AWS config", "err", err)
			os.Exit(1)
		}

		if cfg.ParamPrefix != "" {
			ssmClient, err := paramstore.New(awsssm.NewFromConfig(awsCfg))
			if err != nil {
				slog.Error("failed to create SSM client", "err", err)
				os.Exit(1)
			}
			cfg.Credentials = config.ResolveCredentials(ctx, ssmClient, cfg.ParamPrefix, cfg.Credentials, logger)
		}

		if cfg.SuggestionTable != "" {
			logClient, err := repository.New(awsdynamodb.NewFromConfig(awsCfg), cfg.SuggestionTable)
			if err != nil {
				slog.Error("failed to create suggestion log client", "err", err)
				os.Exit(1)
			}
			recorder = logClient
		}
	}

	// ---- Clients ----
	suggester, err := suggest.NewFromConfig(cfg, logger)
	if err != nil {
		slog.Error("failed to create suggestion client", "err", err)
		os.Exit(1)
	}

	// ---- Handler ----
	svc, err := usecase.NewSuggestService(suggester, recorder, logger)
	if err != nil {
		slog.Error("failed to create suggest service", "err", err)
		os.Exit(1)
	}

	h, err := handler.NewHandler(svc)
	if err != nil {
		slog.Error("failed to create handler", "err", err)
		os.Exit(1)
	}

	lambda.Start(h.Handle)
}
