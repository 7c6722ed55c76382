package controller

import (
	"errors"
	"fmt"
	"net/http"

	appcontext "github.com/SeakMengs/certportal/internal/app_context"
	"github.com/SeakMengs/certportal/internal/auth"
	"github.com/SeakMengs/certportal/internal/middleware"
	"github.com/SeakMengs/certportal/internal/util"
	"github.com/SeakMengs/certportal/pkg/certgen"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type baseController struct {
	app *appcontext.Application
}

type Controller struct {
	Index       *IndexController
	Auth        *AuthController
	Event       *EventController
	Template    *TemplateController
	Generate    *GenerateController
	Certificate *CertificateController
	Export      *ExportController
}

func newBaseController(app *appcontext.Application) *baseController {
	return &baseController{app: app}
}

func NewController(app *appcontext.Application) *Controller {
	bc := newBaseController(app)

	return &Controller{
		Index:       &IndexController{baseController: bc},
		Auth:        &AuthController{baseController: bc},
		Event:       &EventController{baseController: bc},
		Template:    &TemplateController{baseController: bc},
		Generate:    &GenerateController{baseController: bc},
		Certificate: &CertificateController{baseController: bc},
		Export:      &ExportController{baseController: bc},
	}
}

func (b *baseController) getAdmin(ctx *gin.Context) (*auth.JWTPayload, error) {
	admin, exists := ctx.Get(middleware.AdminContextKey)
	if !exists {
		return nil, errors.New("admin not found in context")
	}

	payload, ok := admin.(auth.JWTPayload)
	if !ok {
		return nil, fmt.Errorf("unexpected admin type %T", admin)
	}

	return &payload, nil
}

// Event ids are uuids, anything else is rejected before it reaches the database.
func parseUUIDParam(ctx *gin.Context, name string) (string, error) {
	id, err := uuid.Parse(ctx.Param(name))
	if err != nil {
		return "", fmt.Errorf("invalid %s", name)
	}
	return id.String(), nil
}

func (b *baseController) eventIdParam(ctx *gin.Context) (certgen.EventID, bool) {
	id, err := parseUUIDParam(ctx, "eventId")
	if err != nil {
		util.ResponseFailed(ctx, http.StatusBadRequest, "Invalid event id", util.GenerateErrorMessages(err, "eventId"), nil)
		return "", false
	}
	return certgen.EventID(id), true
}

type pageQuery struct {
	Page     uint `form:"page"`
	PageSize uint `form:"pageSize"`
}

func (b *baseController) getPage(ctx *gin.Context) (uint, uint) {
	var q pageQuery
	_ = ctx.ShouldBindQuery(&q)
	return util.NormalizePage(q.Page, q.PageSize)
}

// respondError maps repository and generator errors to a status code.
func (b *baseController) respondError(ctx *gin.Context, message string, err error) {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound), errors.Is(err, certgen.ErrEventNotFound), errors.Is(err, certgen.ErrTemplateNotFound):
		code = http.StatusNotFound
	case errors.Is(err, certgen.ErrTemplateExists), errors.Is(err, gorm.ErrDuplicatedKey), errors.Is(err, certgen.ErrObjectExists):
		code = http.StatusConflict
	case errors.Is(err, certgen.ErrNoTemplates), errors.Is(err, certgen.ErrValidation), errors.Is(err, certgen.ErrDecode):
		code = http.StatusBadRequest
	}

	if code == http.StatusInternalServerError {
		b.app.Logger.Errorf("%s: %v", message, err)
	} else {
		b.app.Logger.Debugf("%s: %v", message, err)
	}

	util.ResponseFailed(ctx, code, message, util.GenerateErrorMessages(err), nil)
}
