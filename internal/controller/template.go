package controller

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/SeakMengs/certportal/internal/model"
	"github.com/SeakMengs/certportal/internal/util"
	"github.com/SeakMengs/certportal/pkg/certgen"
	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
)

type TemplateController struct {
	*baseController
}

const (
	MaxTemplateFileSize = 20 << 20

	ErrTemplateFileRequired               = "template file is required"
	ErrTemplateFileIsInvalidOrNotSupported = "template file is invalid or not supported, use png, jpeg, gif or webp"
)

var allowedTemplateMimeTypes = []string{"image/png", "image/jpeg", "image/gif", "image/webp"}

type placementRequest struct {
	NamePositionX  *float64 `json:"namePositionX" form:"namePositionX" binding:"omitempty,gte=0,lte=100"`
	NamePositionY  *float64 `json:"namePositionY" form:"namePositionY" binding:"omitempty,gte=0,lte=100"`
	NameFontSize   float64  `json:"nameFontSize" form:"nameFontSize" binding:"omitempty,gt=0,lte=1000"`
	NameFontColor  string   `json:"nameFontColor" form:"nameFontColor" binding:"omitempty,hexcolor"`
	NameFontFamily string   `json:"nameFontFamily" form:"nameFontFamily" binding:"omitempty,cmax=100"`
}

// placement applies the request on top of base, then fills the defaults.
func (r placementRequest) placement(base certgen.TextPlacement) certgen.TextPlacement {
	if r.NamePositionX != nil {
		base.PositionX = *r.NamePositionX
	}
	if r.NamePositionY != nil {
		base.PositionY = *r.NamePositionY
	}
	if r.NameFontSize > 0 {
		base.FontSize = r.NameFontSize
	}
	if r.NameFontColor != "" {
		base.FontColor = r.NameFontColor
	}
	if strings.TrimSpace(r.NameFontFamily) != "" {
		base.FontFamily = strings.TrimSpace(r.NameFontFamily)
	}
	return base.WithDefaults()
}

func defaultPlacement() certgen.TextPlacement {
	return certgen.TextPlacement{
		PositionX: certgen.DefaultPositionX,
		PositionY: certgen.DefaultPositionY,
	}.WithDefaults()
}

func (tc TemplateController) UploadTemplate(ctx *gin.Context) {
	type Request struct {
		Category string `form:"category" binding:"required,strNotEmpty,cmax=100"`
		placementRequest
	}
	var body Request

	eventId, ok := tc.eventIdParam(ctx)
	if !ok {
		return
	}

	if err := ctx.ShouldBind(&body); err != nil {
		util.ResponseFailed(ctx, http.StatusBadRequest, "Invalid request", util.GenerateErrorMessages(err), nil)
		return
	}

	if _, err := tc.app.Repository.Event.GetById(ctx, nil, eventId.String()); err != nil {
		tc.respondError(ctx, "Event not found", err)
		return
	}

	file, err := ctx.FormFile("templateFile")
	if err != nil {
		util.ResponseFailed(ctx, http.StatusBadRequest, "No template file uploaded", util.GenerateErrorMessages(errors.New(ErrTemplateFileRequired), "templateFile"), nil)
		return
	}
	if file.Size > MaxTemplateFileSize {
		util.ResponseFailed(ctx, http.StatusBadRequest, "Template file too large", util.GenerateErrorMessages(fmt.Errorf("template file must be at most %d MB", MaxTemplateFileSize>>20), "templateFile"), nil)
		return
	}

	src, err := file.Open()
	if err != nil {
		tc.respondError(ctx, "Failed to read template file", err)
		return
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		tc.respondError(ctx, "Failed to read template file", err)
		return
	}

	mime := mimetype.Detect(data)
	if !mimetype.EqualsAny(mime.String(), allowedTemplateMimeTypes...) {
		util.ResponseFailed(ctx, http.StatusBadRequest, "Invalid template file", util.GenerateErrorMessages(errors.New(ErrTemplateFileIsInvalidOrNotSupported), "templateFile"), nil)
		return
	}

	// Decoding also validates the file
	info, err := certgen.InspectTemplate(data)
	if err != nil {
		util.ResponseFailed(ctx, http.StatusBadRequest, "Invalid template file", util.GenerateErrorMessages(errors.New(ErrTemplateFileIsInvalidOrNotSupported), "templateFile"), nil)
		return
	}

	key, err := certgen.TemplateObjectKey(eventId, body.Category, file.Filename, time.Now())
	if err != nil {
		tc.respondError(ctx, "Failed to create template key", err)
		return
	}

	if err := tc.app.Objects.Upload(ctx, key, data, mime.String()); err != nil {
		tc.respondError(ctx, "Failed to upload template", err)
		return
	}

	placement := body.placementRequest.placement(defaultPlacement())
	template, err := tc.app.Repository.Template.Create(ctx, nil, &model.Template{
		EventID:        eventId.String(),
		Category:       strings.TrimSpace(body.Category),
		ImageKey:       key,
		ImageURL:       tc.app.Objects.PublicURL(key),
		Width:          info.Width,
		Height:         info.Height,
		BlurHash:       info.BlurHash,
		NamePositionX:  placement.PositionX,
		NamePositionY:  placement.PositionY,
		NameFontSize:   placement.FontSize,
		NameFontColor:  placement.FontColor,
		NameFontFamily: placement.FontFamily,
	})
	if err != nil {
		if rmErr := tc.app.Objects.Remove(ctx, key); rmErr != nil {
			tc.app.Logger.Warnf("Failed to remove orphan template image %s: %v", key, rmErr)
		}
		tc.respondError(ctx, "Failed to create template", err)
		return
	}

	util.ResponseStatus(ctx, http.StatusCreated, gin.H{
		"template": template,
	})
}

func (tc TemplateController) ListTemplates(ctx *gin.Context) {
	eventId, ok := tc.eventIdParam(ctx)
	if !ok {
		return
	}

	templates, err := tc.app.Repository.Template.ListByEventId(ctx, nil, eventId.String())
	if err != nil {
		tc.respondError(ctx, "Failed to list templates", err)
		return
	}

	util.ResponseSuccess(ctx, gin.H{
		"templates": templates,
	})
}

func (tc TemplateController) UpdatePlacement(ctx *gin.Context) {
	var body placementRequest

	eventId, ok := tc.eventIdParam(ctx)
	if !ok {
		return
	}

	templateId, err := parseUUIDParam(ctx, "templateId")
	if err != nil {
		util.ResponseFailed(ctx, http.StatusBadRequest, "Invalid template id", util.GenerateErrorMessages(err, "templateId"), nil)
		return
	}

	if err := ctx.ShouldBind(&body); err != nil {
		util.ResponseFailed(ctx, http.StatusBadRequest, "Invalid request", util.GenerateErrorMessages(err), nil)
		return
	}

	current, err := tc.app.Repository.Template.GetById(ctx, nil, eventId.String(), templateId)
	if err != nil {
		tc.respondError(ctx, "Template not found", err)
		return
	}

	template, err := tc.app.Repository.Template.UpdatePlacement(ctx, nil, eventId.String(), templateId, body.placement(current.Placement()))
	if err != nil {
		tc.respondError(ctx, "Failed to update template", err)
		return
	}

	util.ResponseSuccess(ctx, gin.H{
		"template": template,
	})
}

func (tc TemplateController) DeleteTemplate(ctx *gin.Context) {
	eventId, ok := tc.eventIdParam(ctx)
	if !ok {
		return
	}

	templateId, err := parseUUIDParam(ctx, "templateId")
	if err != nil {
		util.ResponseFailed(ctx, http.StatusBadRequest, "Invalid template id", util.GenerateErrorMessages(err, "templateId"), nil)
		return
	}

	template, err := tc.app.Repository.Template.Delete(ctx, nil, eventId.String(), templateId)
	if err != nil {
		tc.respondError(ctx, "Failed to delete template", err)
		return
	}

	if err := tc.app.Objects.Remove(ctx, template.ImageKey); err != nil {
		tc.app.Logger.Warnf("Failed to remove template image %s: %v", template.ImageKey, err)
	}

	util.ResponseSuccess(ctx, nil)
}
