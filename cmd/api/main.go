package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"voice-alerts-go/internal/api"
	"voice-alerts-go/internal/classifier"
	"voice-alerts-go/internal/config"
	"voice-alerts-go/internal/db"
	"voice-alerts-go/internal/logger"
	"voice-alerts-go/internal/notify"
	"voice-alerts-go/internal/pipeline"
	"voice-alerts-go/internal/storage"
	"voice-alerts-go/internal/transcription"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Options{
		Environment: cfg.Environment,
		Level:       cfg.Logging.Level,
		File:        cfg.Logging.File,
		MaxSizeMB:   cfg.Logging.MaxSizeMB,
		MaxBackups:  cfg.Logging.MaxBackups,
	})
	log.WithField("service", "voice-alerts-go").Info("starting service")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg, log)
	if err != nil {
		log.WithError(err).Fatal("failed to open alert store")
	}
	defer store.Close()

	audio, closeAudio, err := openAudioStore(ctx, cfg)
	if err != nil {
		log.WithError(err).Fatal("failed to open audio storage")
	}
	defer closeAudio()

	var transcriber transcription.Transcriber
	if cfg.Transcription.UseMock {
		log.Warn("using static transcriber")
		transcriber = transcription.Static{Text: cfg.Transcription.MockText, LanguageCode: cfg.Transcription.MockLang}
	} else {
		transcriber = transcription.NewElevenLabs(transcription.Options{
			BaseURL:    cfg.Transcription.BaseURL,
			APIKey:     cfg.Transcription.APIKey,
			Model:      cfg.Transcription.Model,
			Timeout:    cfg.Transcription.Timeout,
			MaxRetries: cfg.Transcription.MaxRetries,
		}, log)
	}

	registry, err := buildRegistry(ctx, cfg, log)
	if err != nil {
		log.WithError(err).Fatal("failed to configure classifiers")
	}
	log.WithField("providers", registry.Names()).WithField("default", cfg.LLM.DefaultProvider).Info("classifiers ready")

	hub := notify.NewHub(log)
	fanout, err := buildNotifiers(cfg, hub, log)
	if err != nil {
		log.WithError(err).Fatal("failed to configure notifiers")
	}
	defer func() {
		if err := fanout.Close(); err != nil {
			log.WithError(err).Warn("failed to close notifiers")
		}
	}()

	p := pipeline.New(audio, transcriber, registry, store, fanout, log)
	h := api.NewHandler(p, store, fanout, log)

	opts := api.RouterOptions{CORSOrigins: cfg.API.CORSOrigins}
	if cfg.Storage.Provider == storage.ProviderLocal {
		opts.RecordingsDir = cfg.Storage.LocalDir
		opts.RecordingsURL = cfg.Storage.PublicURL
	}

	addr := fmt.Sprintf(":%s", cfg.API.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      api.NewRouter(h, hub, log, opts),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.WithField("addr", addr).Info("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server terminated")
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("graceful shutdown failed")
	}
}

func openStore(ctx context.Context, cfg config.Config, log *logger.Logger) (db.Store, error) {
	if cfg.DB.DSN == "" {
		log.Warn("DB_DSN not set, alerts are kept in memory")
		return db.NewMemory(), nil
	}
	d, err := db.New(ctx, cfg.DB.DSN)
	if err != nil {
		return nil, err
	}
	if err := d.Migrate(ctx); err != nil {
		d.Close()
		return nil, err
	}
	log.Info("connected to postgres")
	return d, nil
}

func openAudioStore(ctx context.Context, cfg config.Config) (storage.AudioStore, func(), error) {
	switch cfg.Storage.Provider {
	case storage.ProviderGCS:
		g, err := storage.NewGCS(ctx, cfg.Storage.GCSBucket, cfg.Storage.GCSCreds)
		if err != nil {
			return nil, nil, err
		}
		return g, func() { _ = g.Close() }, nil
	default:
		l, err := storage.NewLocal(cfg.Storage.LocalDir, cfg.Storage.PublicURL)
		if err != nil {
			return nil, nil, err
		}
		return l, func() {}, nil
	}
}

func buildRegistry(ctx context.Context, cfg config.Config, log *logger.Logger) (*classifier.Registry, error) {
	reg := classifier.NewRegistry(cfg.LLM.DefaultProvider)
	if cfg.LLM.APIKey != "" {
		reg.Register(classifier.ProviderGPT, classifier.NewGPT(classifier.GPTOptions{
			GatewayURL: cfg.LLM.GatewayURL,
			APIKey:     cfg.LLM.APIKey,
			Model:      cfg.LLM.Model,
			Timeout:    cfg.LLM.Timeout,
			MaxRetries: cfg.LLM.MaxRetries,
		}, log))
	}
	if cfg.LLM.GeminiAPIKey != "" {
		g, err := classifier.NewGemini(ctx, cfg.LLM.GeminiAPIKey, cfg.LLM.GeminiModel, log)
		if err != nil {
			return nil, err
		}
		reg.Register(classifier.ProviderGemini, g)
	}
	reg.Register(classifier.ProviderRules, classifier.Rules{})
	return reg, nil
}

func buildNotifiers(cfg config.Config, hub *notify.Hub, log *logger.Logger) (*notify.Fanout, error) {
	fanout := notify.NewFanout(log)
	fanout.Add("websocket", hub)
	if cfg.Kafka.Broker != "" {
		fanout.Add("kafka", notify.NewKafka(cfg.Kafka.Broker, cfg.Kafka.Topic))
	}
	if cfg.Telegram.BotToken != "" {
		tg, err := notify.NewTelegram(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Telegram.RatePerSec)
		if err != nil {
			return nil, err
		}
		fanout.Add("telegram", tg)
	}
	return fanout, nil
}
