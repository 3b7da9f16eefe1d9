package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awsssm "github.com/aws/aws-sdk-go-v2/service/ssm"

	"zaptalk/internal/config"
	"zaptalk/internal/integrations/gemini"
	"zaptalk/internal/integrations/paramstore"
	"zaptalk/internal/integrations/telegram"
	"zaptalk/internal/logutil"
	"zaptalk/internal/repository"
	"zaptalk/internal/usecase"
)

// statusStore is implemented by both repository backends.
type statusStore interface {
	usecase.StatusStore
	EnsureSchema(ctx context.Context) error
}

// runtimeEnv holds the resolved configuration and the AWS config, loaded only when
// SSM or DynamoDB is needed.
type runtimeEnv struct {
	cfg config.Config
	aws *aws.Config
}

func loadRuntime(ctx context.Context) (*runtimeEnv, error) {
	if err := config.LoadEnvFiles(config.DefaultEnvFiles...); err != nil {
		return nil, err
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger, err := logutil.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)

	rt := &runtimeEnv{cfg: cfg}
	if cfg.NeedsSecrets() {
		awsCfg, err := rt.awsConfig(ctx)
		if err != nil {
			return nil, err
		}
		ssmClient, err := paramstore.New(awsssm.NewFromConfig(awsCfg))
		if err != nil {
			return nil, fmt.Errorf("create SSM client: %w", err)
		}
		if rt.cfg, err = cfg.ResolveSecrets(ctx, ssmClient); err != nil {
			return nil, err
		}
	}
	return rt, nil
}

func (rt *runtimeEnv) awsConfig(ctx context.Context) (aws.Config, error) {
	if rt.aws == nil {
		cfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return aws.Config{}, fmt.Errorf("load AWS config: %w", err)
		}
		rt.aws = &cfg
	}
	return *rt.aws, nil
}

func (rt *runtimeEnv) openStore(ctx context.Context) (statusStore, func(), error) {
	target, err := rt.cfg.Store()
	if err != nil {
		return nil, nil, err
	}

	switch target.Kind {
	case config.StorePostgres:
		pool, err := repository.NewPool(ctx, target.DSN)
		if err != nil {
			return nil, nil, err
		}
		store, err := repository.NewPostgresStatusStore(repository.PoolConnector(pool), rt.cfg.StoreTimeout)
		if err != nil {
			pool.Close()
			return nil, nil, err
		}
		return store, pool.Close, nil
	case config.StoreDynamoDB:
		awsCfg, err := rt.awsConfig(ctx)
		if err != nil {
			return nil, nil, err
		}
		store, err := repository.NewDynamoStatusStore(awsdynamodb.NewFromConfig(awsCfg), target.Table, rt.cfg.StoreTimeout)
		if err != nil {
			return nil, nil, err
		}
		return store, func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unsupported store kind %q", target.Kind)
	}
}

// app is the fully wired bot.
type app struct {
	cfg        config.Config
	bot        *telegram.Client
	dispatcher *usecase.Dispatcher
	close      func()
}

func newApp(ctx context.Context) (*app, error) {
	rt, err := loadRuntime(ctx)
	if err != nil {
		return nil, err
	}
	cfg := rt.cfg

	store, closeStore, err := rt.openStore(ctx)
	if err != nil {
		return nil, err
	}
	a, err := wire(cfg, store)
	if err != nil {
		closeStore()
		return nil, err
	}
	a.close = closeStore
	return a, nil
}

func wire(cfg config.Config, store statusStore) (*app, error) {
	bot, err := telegram.New(cfg.BotToken)
	if err != nil {
		return nil, err
	}
	llm, err := gemini.NewClient(cfg.GeminiAPIKey, cfg.GeminiModel, gemini.WithBaseURL(cfg.GeminiBaseURL))
	if err != nil {
		return nil, fmt.Errorf("create Gemini client: %w", err)
	}

	persona := usecase.Persona{Character: cfg.PersonaCharacter, Series: cfg.PersonaSeries}
	router, err := usecase.NewCommandRouter(store, bot, usecase.RouterConfig{
		Persona:     persona,
		Links:       cfg.Links(),
		BotUsername: bot.Username(),
	})
	if err != nil {
		return nil, err
	}
	gate, err := usecase.NewReplyGate(store)
	if err != nil {
		return nil, err
	}
	responder, err := usecase.NewPersonaResponder(llm, bot, usecase.ResponderConfig{
		Persona:   persona,
		Fallbacks: usecase.DefaultFallbacks,
		Timeout:   cfg.LLMTimeout,
	})
	if err != nil {
		return nil, err
	}
	dispatcher, err := usecase.NewDispatcher(router, gate, responder, bot.BotID())
	if err != nil {
		return nil, err
	}
	return &app{cfg: cfg, bot: bot, dispatcher: dispatcher}, nil
}
