// Command preview renders a sample name onto every template of an event and
// writes the results side by side into one PNG, to check name placement before
// a batch is generated.
package main

import (
	"bytes"
	"context"
	"flag"
	"image"
	"time"

	appcontext "github.com/SeakMengs/certportal/internal/app_context"
	"github.com/SeakMengs/certportal/internal/config"
	"github.com/SeakMengs/certportal/internal/database"
	"github.com/SeakMengs/certportal/internal/env"
	filestorage "github.com/SeakMengs/certportal/internal/file_storage"
	"github.com/SeakMengs/certportal/internal/repository"
	"github.com/SeakMengs/certportal/internal/util"
	"github.com/SeakMengs/certportal/pkg/certgen"
	"github.com/disintegration/imaging"
	"github.com/noelyahan/impexp"
	"github.com/noelyahan/mergi"
)

func init() {
	env.LoadEnv(".env")
}

const thumbnailWidth = 640

func main() {
	eventId := flag.String("event", "", "event id")
	name := flag.String("name", "Jane Doe", "participant name to render")
	out := flag.String("out", "preview.png", "output file")
	flag.Parse()

	cfg := config.GetConfig()
	logger := util.NewLogger(cfg.ENV, "preview")
	defer logger.Sync()

	if *eventId == "" {
		logger.Fatal("-event is required")
	}

	db, err := database.ConnectReturnGormDB(cfg.DB)
	if err != nil {
		logger.Panic(err)
	}

	s3, err := filestorage.NewMinioClient(&cfg.Minio)
	if err != nil {
		logger.Panic(err)
	}
	objects := filestorage.NewMinioStore(s3, &cfg.Minio, logger)

	generateCfg := cfg.Generate
	generateCfg.Format = string(certgen.FormatPNG)
	renderer, err := appcontext.NewRenderer(generateCfg)
	if err != nil {
		logger.Fatalf("Failed to create renderer: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	repo := repository.NewRepository(db, logger)
	templates, err := repo.Template.ListByEventId(ctx, nil, *eventId)
	if err != nil {
		logger.Fatalf("Failed to list templates: %v", err)
	}
	if len(templates) == 0 {
		logger.Fatalf("Event %s has no templates", *eventId)
	}

	images := make([]image.Image, 0, len(templates))
	for _, t := range templates {
		templateBytes, err := objects.Download(ctx, t.ImageKey)
		if err != nil {
			logger.Fatalf("Failed to download template %s: %v", t.ImageKey, err)
		}

		doc, err := renderer.Render(templateBytes, t.Placement(), *name)
		if err != nil {
			logger.Fatalf("Failed to render template for category %s: %v", t.Category, err)
		}

		img, err := imaging.Decode(bytes.NewReader(doc.Data))
		if err != nil {
			logger.Fatalf("Failed to decode preview for category %s: %v", t.Category, err)
		}

		images = append(images, imaging.Resize(img, thumbnailWidth, 0, imaging.Lanczos))
		logger.Infof("Rendered %s (%dx%d)", t.Category, doc.Width, doc.Height)
	}

	// One "T" per image lays them out left to right.
	layout := ""
	for range images {
		layout += "T"
	}

	sheet, err := mergi.Merge(layout, images)
	if err != nil {
		logger.Fatalf("Failed to merge previews: %v", err)
	}

	if err := mergi.Export(impexp.NewFileExporter(sheet, *out)); err != nil {
		logger.Fatalf("Failed to write %s: %v", *out, err)
	}

	logger.Infof("Wrote preview of %d templates to %s", len(images), *out)
}
