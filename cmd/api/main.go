package main

import (
	"context"
	"time"

	appcontext "github.com/SeakMengs/certportal/internal/app_context"
	"github.com/SeakMengs/certportal/internal/auth"
	"github.com/SeakMengs/certportal/internal/config"
	"github.com/SeakMengs/certportal/internal/controller"
	"github.com/SeakMengs/certportal/internal/database"
	"github.com/SeakMengs/certportal/internal/env"
	filestorage "github.com/SeakMengs/certportal/internal/file_storage"
	"github.com/SeakMengs/certportal/internal/mailer"
	"github.com/SeakMengs/certportal/internal/metrics"
	"github.com/SeakMengs/certportal/internal/middleware"
	"github.com/SeakMengs/certportal/internal/queue"
	ratelimiter "github.com/SeakMengs/certportal/internal/rate_limiter"
	"github.com/SeakMengs/certportal/internal/repository"
	"github.com/SeakMengs/certportal/internal/route"
	"github.com/SeakMengs/certportal/internal/util"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
)

// this function run before main
func init() {
	env.LoadEnv(".env")
}

func main() {
	cfg := config.GetConfig()

	logger := util.NewLogger(cfg.ENV, "api")
	defer logger.Sync()

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

	objects := filestorage.NewMinioStore(s3, &cfg.Minio, logger)
	bucketCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	err = objects.EnsureBucket(bucketCtx)
	cancel()
	if err != nil {
		logger.Panicf("Failed to prepare bucket %s: %v", cfg.Minio.BUCKET, err)
	}
	logger.Infof("Minio connected, using bucket %s", cfg.Minio.BUCKET)

	// Custom validation
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		if err := util.RegisterCustomValidations(v); err != nil {
			logger.Panicf("Failed to register custom validations: %v", err)
		}
	}

	validate := validator.New()
	if err := util.RegisterCustomValidations(validate); err != nil {
		logger.Panicf("Failed to register custom validations: %v", err)
	}

	var rdb *redis.Client
	if cfg.Redis.Enabled {
		rdb = ratelimiter.NewRedisClient(cfg.Redis.ADDR, cfg.Redis.PASSWORD, cfg.Redis.DB)
		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := rdb.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			logger.Panicf("Error connecting to redis at %s: %v", cfg.Redis.ADDR, err)
		}
		defer rdb.Close()
		logger.Info("Redis connected")
	}
	rateLimiter, publicRateLimiter := ratelimiter.NewRateLimiters(cfg.RateLimiter, rdb, logger)

	renderer, err := appcontext.NewRenderer(cfg.Generate)
	if err != nil {
		logger.Panicf("Failed to create certificate renderer: %v", err)
	}

	jwtService := auth.NewJwt(cfg.Auth, logger)
	app := appcontext.Application{
		Config:     &cfg,
		Repository: repository.NewRepository(db, logger),
		Logger:     logger,
		Mailer:     mailer.NewMailer(cfg.Mail, cfg.IsProduction(), logger),
		JWTService: jwtService,
		Admin:      auth.NewAdminAuthenticator(cfg.Auth),
		Objects:    objects,
		Renderer:   renderer,
		Validate:   validate,
	}

	if cfg.RabbitMQ.Enabled {
		rabbitMQ, err := queue.NewRabbitMQ(cfg.RabbitMQ.GetConnectionString())
		if err != nil {
			logger.Panic("Error connecting to RabbitMQ: ", err)
		}
		defer func() {
			if err := rabbitMQ.Close(); err != nil {
				logger.Errorf("Failed to close RabbitMQ connection: %v", err)
			}
		}()
		app.Queue = rabbitMQ
		logger.Info("RabbitMQ connected")
	} else {
		logger.Info("RabbitMQ disabled, async jobs run in process")
	}

	metrics.Register()

	_middleware := middleware.NewMiddleware(&app, rateLimiter, publicRateLimiter)

	if cfg.IsProduction() {
		logger.Info("Running in production mode")
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()

	// docs: https://github.com/gin-contrib/cors?tab=readme-ov-file#using-defaultconfig-as-start-point
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"*"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "X-Requested-With", "Accept"}
	corsConfig.ExposeHeaders = []string{"Content-Disposition", "Retry-After"}
	r.Use(cors.New(corsConfig))
	r.Use(_middleware.RateLimiterMiddleware)

	_controller := controller.NewController(&app)

	route.Index(r, _controller.Index)

	rApi := r.Group("/api")

	route.V1_Auth(rApi, _controller.Auth, _middleware)
	route.V1_Events(rApi, _controller, _middleware)
	route.V1_Certificates(rApi, _controller.Certificate, _middleware)

	if err := r.Run("0.0.0.0:" + app.Config.Port); err != nil {
		logger.Panicf("Error running server: %v", err)
	}
}
