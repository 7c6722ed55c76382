package main

import (
	"context"
	"os/signal"
	"syscall"

	appcontext "github.com/SeakMengs/certportal/internal/app_context"
	"github.com/SeakMengs/certportal/internal/config"
	"github.com/SeakMengs/certportal/internal/database"
	"github.com/SeakMengs/certportal/internal/env"
	filestorage "github.com/SeakMengs/certportal/internal/file_storage"
	"github.com/SeakMengs/certportal/internal/metrics"
	"github.com/SeakMengs/certportal/internal/queue"
	"github.com/SeakMengs/certportal/internal/repository"
	"github.com/SeakMengs/certportal/internal/util"
	"github.com/go-playground/validator/v10"
)

// this function run before main
func init() {
	env.LoadEnv(".env")
}

// Batches consumed at once, each batch has its own generation workers.
const MAX_WORKERS = 2

func main() {
	cfg := config.GetConfig()
	logger := util.NewLogger(cfg.ENV, "cert_consumer")

	db, err := database.ConnectReturnGormDB(cfg.DB)
	if err != nil {
		logger.Panic(err)
	}

	sqlDb, err := db.DB()
	if err != nil {
		logger.Panic(err)
	}
	defer sqlDb.Close()
	logger.Info("Database connected")

	s3, err := filestorage.NewMinioClient(&cfg.Minio)
	if err != nil {
		logger.Error("Error connecting to minio")
		logger.Panic(err)
	}
	logger.Info("Minio connected")

	v := validator.New()
	if err := util.RegisterCustomValidations(v); err != nil {
		logger.Panicf("Failed to register custom validations: %v", err)
	}

	renderer, err := appcontext.NewRenderer(cfg.Generate)
	if err != nil {
		logger.Panicf("Failed to create certificate renderer: %v", err)
	}
	logger.Infof("Certificates will be rendered as %s", renderer.Format())

	repo := repository.NewRepository(db, logger)
	app := appcontext.Application{
		Config:     &cfg,
		Repository: repo,
		Logger:     logger,
		Objects:    filestorage.NewMinioStore(s3, &cfg.Minio, logger),
		Renderer:   renderer,
		Validate:   v,
	}

	// Zero caps nothing, each batch still clamps workers to its participant count.
	generator, err := app.NewGenerator(0)
	if err != nil {
		logger.Panic(err)
	}

	metrics.Register()

	consumer := queue.ConsumerContext{
		Logger:         logger,
		Generator:      generator,
		GenerationLogs: repo.GenerationLog,
		JobTimeout:     cfg.Generate.JobTimeout,
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

	if err := rabbitMQ.ConsumeCertificateGenerateJob(ctx, queue.HandleCertificateGenerateJob, MAX_WORKERS, &consumer); err != nil {
		logger.Fatalf("Failed to consume certificate generate job: %v", err)
	}

	logger.Infof("Started consuming certificate generate job with %d workers", MAX_WORKERS)

	<-ctx.Done()
	logger.Info("Shutting down certificate consumer")
}
