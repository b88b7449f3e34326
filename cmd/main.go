package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"rest-tracker/internal/ack"
	"rest-tracker/internal/api"
	"rest-tracker/internal/config"
	"rest-tracker/internal/db"
	"rest-tracker/internal/kafka"
	"rest-tracker/internal/logging"
	"rest-tracker/internal/notify"
	"rest-tracker/internal/stream"
	"rest-tracker/internal/supervisor"
)

func main() {
	// Load config
	cfg, err := config.Load(".env")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.Logging.Dir, cfg.Logging.Level)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer func() {
		if err := logger.Close(); err != nil {
			log.Printf("Failed to close log file: %v", err)
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	flag := &ack.Flag{}
	hub := stream.NewHub(cfg.API.MaxClients, logger)
	opts := []supervisor.Option{
		supervisor.WithObserver(supervisor.NewLogObserver(logger)),
		supervisor.WithObserver(hub),
	}

	// Round history is optional
	var history api.RoundLister
	if cfg.DB.DSN != "" {
		dbConn, err := db.New(ctx, cfg.DB.DSN)
		if err != nil {
			log.Fatalf("Database connection failed: %v", err)
		}
		defer dbConn.Close()
		if err := dbConn.Migrate(ctx); err != nil {
			log.Fatalf("Database migration failed: %v", err)
		}
		recorder := db.NewRecorder(dbConn, cfg.Tracker.Budget, logger)
		defer recorder.Close()
		opts = append(opts, supervisor.WithObserver(recorder))
		history = dbConn
		logger.Infof("Round history enabled")
	}

	notifier := buildNotifier(cfg, logger)

	sup, err := supervisor.New(cfg.Tracker, flag, notifier, logger, opts...)
	if err != nil {
		log.Fatalf("Failed to init supervisor: %v", err)
	}

	// Acknowledgment sources
	var wg sync.WaitGroup
	if cfg.Kafka.Broker != "" {
		consumer := kafka.NewConsumer([]string{cfg.Kafka.Broker}, cfg.Kafka.Topic, cfg.Kafka.GroupID, flag, logger)
		consumer.Start(ctx, &wg)
		defer func() {
			if err := consumer.Close(); err != nil {
				logger.Errorf("Kafka consumer close failed: %v", err)
			}
		}()
		logger.Infof("Kafka consumer initialized with topic: %s", cfg.Kafka.Topic)
	}
	if cfg.ConsoleAck {
		// Blocks on stdin for the life of the process.
		go func() {
			if err := ack.NewConsole(os.Stdin, flag, logger).Run(); err != nil {
				logger.Errorf("Console reader stopped: %v", err)
			}
		}()
	}

	// Start API server
	router := api.NewRouter(logger, cfg.API.BasePath, api.NewHandler(flag, hub, history, logger))
	srv := &http.Server{Addr: cfg.API.Port, Handler: router}
	go func() {
		logger.Infof("Starting API server on %s", cfg.API.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Errorf("API server failed: %v", err)
		}
	}()

	done := make(chan struct{})
	go func() {
		defer close(done)
		if _, err := sup.Run(); err != nil {
			logger.Errorf("Supervisor stopped: %v", err)
		}
	}()

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	select {
	case <-done:
	case s := <-c:
		logger.Warnf("Received %s, abandoning the current round", s)
	}

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("API shutdown failed: %v", err)
	}
	wg.Wait()
	logger.Infof("Service stopped")
}

// buildNotifier always includes the shell command sink and adds every
// transport that is fully configured.
func buildNotifier(cfg config.Config, logger *logging.Logger) supervisor.Notifier {
	sinks := notify.Multi{notify.NewCommand(cfg.Notify.Command)}

	if cfg.Telegram.BotToken != "" {
		tg, err := notify.NewTelegram(notify.TelegramConfig{
			BotToken:  cfg.Telegram.BotToken,
			ChatID:    cfg.Telegram.ChatID,
			RateLimit: cfg.Telegram.RateLimit,
		}, logger)
		if err != nil {
			logger.Errorf("Telegram notifications disabled: %v", err)
		} else {
			sinks = append(sinks, tg)
		}
	}
	if cfg.Email.SMTPServer != "" {
		email, err := notify.NewEmail(notify.EmailConfig{
			SMTPServer: cfg.Email.SMTPServer,
			SMTPPort:   cfg.Email.SMTPPort,
			Username:   cfg.Email.Username,
			Password:   cfg.Email.Password,
			To:         cfg.Email.To,
		})
		if err != nil {
			logger.Errorf("Email notifications disabled: %v", err)
		} else {
			sinks = append(sinks, email)
		}
	}
	if cfg.SMS.AccountSID != "" {
		sms, err := notify.NewSMS(notify.SMSConfig{
			AccountSID: cfg.SMS.AccountSID,
			AuthToken:  cfg.SMS.AuthToken,
			FromNumber: cfg.SMS.FromNumber,
			To:         cfg.SMS.To,
		})
		if err != nil {
			logger.Errorf("SMS notifications disabled: %v", err)
		} else {
			sinks = append(sinks, sms)
		}
	}

	logger.Infof("Notifications go to %d sink(s)", len(sinks))
	return sinks
}
