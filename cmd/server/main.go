// cmd/server/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"pocket-pharmacist/internal/api"
	awsclients "pocket-pharmacist/internal/common/aws"
	"pocket-pharmacist/internal/common/config"
	"pocket-pharmacist/internal/common/logger"
	"pocket-pharmacist/internal/common/observability"
	"pocket-pharmacist/internal/orchestration"
	"pocket-pharmacist/internal/services/medicalinfo"
	"pocket-pharmacist/internal/services/recognition"
	"pocket-pharmacist/internal/services/translation"
	"pocket-pharmacist/internal/session"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting pocket-pharmacist server...",
		zap.String("environment", cfg.App.Environment))

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	jaegerEndpoint := ""
	if cfg.Tracing.Enabled {
		jaegerEndpoint = cfg.Tracing.JaegerEndpoint
	}
	tracing, err := observability.NewTracing(cfg.App.Name, jaegerEndpoint)
	if err != nil {
		zapLog.Fatal("tracing init failed", zap.Error(err))
	}
	defer tracing.Shutdown()

	ctx := context.Background()

	// --- AWS collaborators ---
	translateClient, err := awsclients.NewTranslateClient(ctx, cfg.AWS.TranslateRegion())
	if err != nil {
		zapLog.Fatal("translate client init failed", zap.Error(err))
	}
	lexClient, err := awsclients.NewLexClient(ctx, cfg.AWS.Region)
	if err != nil {
		zapLog.Fatal("lex client init failed", zap.Error(err))
	}

	translator := translation.NewAWSService(translateClient, &translation.Config{
		Timeout: time.Duration(cfg.AWS.Translate.Timeout) * time.Millisecond,
	}, log)

	classifier := recognition.NewLexClassifier(lexClient, &recognition.Config{
		BotID:      cfg.AWS.Lex.BotID,
		BotAliasID: cfg.AWS.Lex.BotAliasID,
		LocaleID:   cfg.AWS.Lex.LocaleID,
		Timeout:    time.Duration(cfg.AWS.Lex.Timeout) * time.Millisecond,
		MaxRetries: cfg.AWS.Lex.MaxRetries,
	}, log)
	recognizer := recognition.NewService(classifier, log)

	drugFacts := medicalinfo.NewOpenFDAClient(&medicalinfo.Config{
		BaseURL:    cfg.FDA.BaseURL,
		APIKey:     cfg.FDA.APIKey,
		Timeout:    time.Duration(cfg.FDA.Timeout) * time.Millisecond,
		MaxRetries: cfg.FDA.MaxRetries,
	}, log)
	medical := medicalinfo.NewService(drugFacts, log)

	handler := orchestration.NewHandler(
		translator,
		recognizer,
		medical,
		cfg.Orchestrator.WorkingLanguage,
		log,
		tracing.Tracer(),
		obs,
	)

	// --- Optional shared session store ---
	var sessions *session.Store
	if cfg.Session.Store == "redis" {
		sessions = session.NewStore(
			cfg.Session.Redis,
			time.Duration(cfg.Session.TTLHours)*time.Hour,
			log,
		)
		err = retryWithBackoff(func() error {
			return sessions.Ping(ctx)
		}, 10, 2*time.Second, zapLog, "Redis connection")
		if err != nil {
			zapLog.Fatal("redis failed after retries", zap.Error(err))
		}
		defer sessions.Close()
		zapLog.Info("Redis session store connected")
	}

	server := api.NewServer(cfg.Server, handler, sessions, log)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			zapLog.Fatal("server error", zap.Error(err))
		}
	case sig := <-stop:
		zapLog.Info("shutting down", zap.String("signal", sig.String()))
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			zapLog.Error("graceful shutdown failed", zap.Error(err))
		}
	}
}
