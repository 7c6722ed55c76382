package controller

import (
	"errors"
	"io"
	"net/http"
	"os"

	"github.com/SeakMengs/certportal/internal/model"
	"github.com/SeakMengs/certportal/internal/util"
	"github.com/SeakMengs/certportal/pkg/certgen"
	"github.com/gin-gonic/gin"
)

type ExportController struct {
	*baseController
}

const ErrNothingToExport = "no generated certificates for this event"

func (ec ExportController) generated(ctx *gin.Context) (*model.Event, []model.Certificate, bool) {
	eventId, ok := ec.eventIdParam(ctx)
	if !ok {
		return nil, nil, false
	}

	event, err := ec.app.Repository.Event.GetById(ctx, nil, eventId.String())
	if err != nil {
		ec.respondError(ctx, "Event not found", err)
		return nil, nil, false
	}

	certificates, err := ec.app.Repository.Certificate.ListGeneratedByEventId(ctx, nil, eventId.String())
	if err != nil {
		ec.respondError(ctx, "Failed to list certificates", err)
		return nil, nil, false
	}

	if len(certificates) == 0 {
		util.ResponseFailed(ctx, http.StatusNotFound, ErrNothingToExport, util.GenerateErrorMessages(errors.New(ErrNothingToExport), "eventId"), nil)
		return nil, nil, false
	}

	return event, certificates, true
}

// DownloadZip streams every generated certificate of an event, one folder per category.
func (ec ExportController) DownloadZip(ctx *gin.Context) {
	event, certificates, ok := ec.generated(ctx)
	if !ok {
		return
	}

	entries := make([]certgen.ExportEntry, 0, len(certificates))
	for _, c := range certificates {
		entries = append(entries, certgen.ExportEntryFor(*c.ToCertgen()))
	}

	ec.writeAttachment(ctx, "export-*.zip", util.AttachmentName(event.Name, "_certificates.zip"), func(w io.Writer) error {
		return certgen.WriteZip(ctx, w, ec.app.Objects, entries)
	})
}

// MergePDF joins the generated PDF certificates of an event into one document for printing.
func (ec ExportController) MergePDF(ctx *gin.Context) {
	event, certificates, ok := ec.generated(ctx)
	if !ok {
		return
	}

	keys := make([]string, 0, len(certificates))
	for _, c := range certificates {
		keys = append(keys, c.ObjectKey)
	}

	ec.writeAttachment(ctx, "merge-*.pdf", util.AttachmentName(event.Name, "_certificates.pdf"), func(w io.Writer) error {
		pages, err := certgen.MergePDFs(ctx, w, ec.app.Objects, keys)
		if err != nil {
			return err
		}
		ec.app.Logger.Debugf("Merged %d pages for event %s", pages, event.ID)
		return nil
	})
}

// writeAttachment builds the export in a temp file first so a failure can
// still be answered with a json error.
func (ec ExportController) writeAttachment(ctx *gin.Context, pattern, filename string, write func(w io.Writer) error) {
	tmp, err := util.CreateTemp(pattern)
	if err != nil {
		ec.respondError(ctx, "Failed to create export", err)
		return
	}
	defer os.Remove(tmp.Name())

	if err := write(tmp); err != nil {
		tmp.Close()
		ec.respondError(ctx, "Failed to create export", err)
		return
	}

	if err := tmp.Close(); err != nil {
		ec.respondError(ctx, "Failed to create export", err)
		return
	}

	ctx.FileAttachment(tmp.Name(), filename)
}
