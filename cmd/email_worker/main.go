package main

import (
	"context"
	"errors"
	"log"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/oksasatya/circle-up/config"
	"github.com/oksasatya/circle-up/pkg/helpers"
	"github.com/oksasatya/circle-up/pkg/mailer"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName+"-email-worker", cfg.Env)

	if !cfg.MailSendEnabled {
		logger.Info("MAIL_SEND_ENABLED=false; email worker disabled (no real emails will be sent)")
		return
	}
	if cfg.RabbitMQURL == "" || cfg.RabbitMQEmailQueue == "" {
		log.Fatal("RabbitMQ not configured")
	}
	if cfg.MailgunDomain == "" || cfg.MailgunAPIKey == "" || cfg.MailgunSender == "" {
		log.Fatal("Mailgun not configured")
	}

	consumer, err := helpers.NewRabbitConsumer(cfg.RabbitMQURL, cfg.RabbitMQEmailQueue, 16)
	if err != nil {
		log.Fatalf("amqp: %v", err)
	}
	defer consumer.Close()

	worker := mailer.NewWorker(mailer.NewMailgun(cfg.MailgunDomain, cfg.MailgunAPIKey, cfg.MailgunSender), logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	handle := func(ctx context.Context, body []byte) error {
		err := worker.Process(ctx, body)
		if err != nil {
			logger.WithError(err).Warn("email job failed")
		}
		return err
	}
	dropPermanent := func(err error) bool { return errors.Is(err, mailer.ErrPermanent) }

	logger.Infof("email worker listening on queue=%s", cfg.RabbitMQEmailQueue)
	if err := consumer.Run(ctx, handle, dropPermanent); err != nil {
		logger.WithError(err).Error("consumer stopped")
	}
	logger.Info("shutting down...")
}
