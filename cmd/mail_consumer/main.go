package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/SeakMengs/certportal/internal/config"
	"github.com/SeakMengs/certportal/internal/env"
	"github.com/SeakMengs/certportal/internal/mailer"
	"github.com/SeakMengs/certportal/internal/queue"
	"github.com/SeakMengs/certportal/internal/util"
)

// this function run before main
func init() {
	env.LoadEnv(".env")
}

const (
	MAX_WORKER = 3
)

func main() {
	cfg := config.GetConfig()
	logger := util.NewLogger(cfg.ENV, "mail_consumer")

	app := queue.MailConsumerContext{
		Logger: logger,
		Mailer: mailer.NewMailer(cfg.Mail, cfg.IsProduction(), logger),
	}

	rabbitMQ, err := queue.NewRabbitMQ(cfg.RabbitMQ.GetConnectionString())
	if err != nil {
		logger.Panic("Error connecting to RabbitMQ: ", err)
	}
	logger.Info("RabbitMQ connected")
	defer func() {
		if err := rabbitMQ.Close(); err != nil {
			logger.Errorf("Failed to close RabbitMQ connection: %v", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rabbitMQ.ConsumeMailJob(ctx, queue.HandleMailJob, MAX_WORKER, &app); err != nil {
		logger.Fatalf("Failed to consume mail job: %v", err)
	}

	logger.Infof("Started consuming mail job with %d workers", MAX_WORKER)

	<-ctx.Done()
	logger.Info("Shutting down mail consumer")
}
