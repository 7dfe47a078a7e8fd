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

	"github.com/rs/zerolog"
	"github.com/wb-go/wbf/zlog"

	"rifa/cmd/buildCFG"
	"rifa/internal/api/api"
	"rifa/internal/consumerWorker"
	"rifa/internal/mailer"
	"rifa/internal/rabbit"
	"rifa/internal/repo"
	"rifa/internal/service"
	"rifa/internal/ticket"
	"rifa/internal/upload"
)

func main() {
	zlog.Init()
	log := zlog.Logger

	configPath := os.Getenv("RIFA_CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}
	cfg, err := buildCFG.Load(configPath, &log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	serverCfg := buildCFG.BuildServerConfig(cfg, &log)
	storeCfg, err := buildCFG.BuildStoreConfig(cfg, &log)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid storage config")
	}
	notifyCfg, err := buildCFG.BuildNotifyConfig(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid notify config")
	}
	ticketCfg := buildCFG.BuildTicketConfig(cfg)
	smtpCfg, err := buildCFG.BuildSMTPConfig(cfg, &log)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid smtp config")
	}

	store, err := newStore(storeCfg, &log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize store")
	}

	uploads, err := upload.NewStorage(storeCfg.UploadDir)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize upload storage")
	}

	smtpMailer := mailer.New(mailer.Config{
		Host:     smtpCfg.Host,
		Port:     smtpCfg.Port,
		Username: smtpCfg.Username,
		Password: smtpCfg.Password,
		From:     smtpCfg.From,
	}, &log)

	workerCtx, cancelWorkers := context.WithCancel(context.Background())
	defer cancelWorkers()

	var notifier service.Notifier = smtpMailer
	var reader *consumerWorker.Reader
	if notifyCfg.Mode == buildCFG.NotifyQueue {
		rabbitCfg, err := buildCFG.BuildRabbitConfig(cfg, &log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to load RabbitMQ config")
		}
		rmq, err := rabbit.NewRabbit(rabbitCfg.Url, rabbitCfg.Exchange, rabbitCfg.Queue)
		if err != nil {
			log.Fatal().Msgf("Failed to connect to RabbitMQ: %v", err)
		}
		defer rmq.Close()

		notifier = mailer.NewQueueNotifier(rmq)
		reader = consumerWorker.NewReader(rmq, smtpMailer)
		reader.Start(workerCtx)
	}

	serviceInstance := service.NewService(store, ticket.NewGenerator(), notifier, uploads, &log, service.Options{
		UniqueTickets:       ticketCfg.Unique,
		QueuedNotifications: notifyCfg.Mode == buildCFG.NotifyQueue,
	})
	app := api.NewRouters(&api.Routers{
		Service:        serviceInstance,
		Mode:           serverCfg.GinMode,
		MaxUploadBytes: serverCfg.MaxUploadMB << 20,
	})

	srv := &http.Server{
		Addr:    ":" + serverCfg.Port,
		Handler: app,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		log.Info().Msgf("Starting server on %s", serverCfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrChan <- fmt.Errorf("failed to start server: %w", err)
		}
	}()

	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-signalChan:
		log.Info().Msgf("Received signal %s. Initiating shutdown...", sig)
	case err := <-serverErrChan:
		log.Error().Msgf("Server error: %v", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Msgf("Error shutting down server: %v", err)
	}

	// Confirmations still in flight have published by now; the reader stops last.
	if reader != nil {
		reader.Stop()
	}
	cancelWorkers()

	log.Info().Msg("Shutdown complete")
}

func newStore(cfg buildCFG.StoreConfig, log *zerolog.Logger) (repo.Store, error) {
	if cfg.Driver == buildCFG.DriverPostgres {
		db, err := repo.OpenPostgres(cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		log.Info().Msg("Database connected successfully")
		return repo.NewPostgresStore(db, log)
	}
	return repo.NewFileStore(cfg.DataFile, log)
}
