package appcontext

import (
	"fmt"

	"github.com/SeakMengs/certportal/internal/auth"
	"github.com/SeakMengs/certportal/internal/config"
	filestorage "github.com/SeakMengs/certportal/internal/file_storage"
	"github.com/SeakMengs/certportal/internal/mailer"
	"github.com/SeakMengs/certportal/internal/metrics"
	"github.com/SeakMengs/certportal/internal/queue"
	"github.com/SeakMengs/certportal/internal/repository"
	"github.com/SeakMengs/certportal/internal/util"
	"github.com/SeakMengs/certportal/pkg/certgen"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// Application contains core dependencies for the app.
type Application struct {
	// Config holds application settings provided from .env file.
	Config *config.Config

	Logger *zap.SugaredLogger

	// Repository provides access to data storage operations.
	Repository *repository.Repository

	// Mailer handles email-sending functions.
	Mailer mailer.Client

	// JWTService manages JWT operations for authentication such as generate, verify, refresh token.
	JWTService auth.JWTInterface

	Admin *auth.AdminAuthenticator

	// Objects stores templates and generated certificates.
	Objects *filestorage.MinioStore

	// Queue is nil when RabbitMQ is disabled, jobs then run inline.
	Queue queue.Publisher

	Renderer certgen.Renderer

	// Validate is shared with gin so the custom tags work for participants too.
	Validate *validator.Validate
}

// NewRenderer builds the compositor from the generate settings.
func NewRenderer(cfg config.GenerateConfig) (*certgen.Compositor, error) {
	format, err := certgen.ParseFormat(cfg.Format)
	if err != nil {
		return nil, err
	}

	fonts, err := certgen.NewFontLoader(cfg.FontMetadataPath)
	if err != nil {
		return nil, err
	}

	compositorCfg := certgen.NewDefaultConfig()
	compositorCfg.Format = format
	compositorCfg.FontMetadataPath = cfg.FontMetadataPath
	compositorCfg.ShrinkToFit = cfg.ShrinkToFit

	return certgen.NewCompositor(compositorCfg, fonts), nil
}

// NewGenerator returns a batch generator for one request or job. The generator
// holds no state between calls, callers may also keep one around.
func (app *Application) NewGenerator(jobCount int) (*certgen.BatchGenerator, error) {
	if app.Renderer == nil || app.Objects == nil || app.Repository == nil {
		return nil, fmt.Errorf("generator dependencies are not configured")
	}

	store := repository.NewCertgenStore(app.Repository)

	return certgen.NewBatchGenerator(certgen.Dependencies{
		Events:       store,
		Templates:    store,
		Objects:      app.Objects,
		Certificates: store,
		Renderer:     app.Renderer,
		Logger:       app.Logger,
		Validate:     app.Validate,
		Observer:     metrics.Observer{},
	}, certgen.Options{
		Workers:      util.DetermineWorkers(app.Config.Generate.Workers, jobCount),
		ItemTimeout:  app.Config.Generate.ItemTimeout,
		QRURLPattern: app.Config.Generate.QRURLPattern,
	}), nil
}

func (app *Application) QueueEnabled() bool {
	return app.Queue != nil
}
