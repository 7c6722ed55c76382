package controller

import (
	"net/http"
	"strings"

	"github.com/SeakMengs/certportal/internal/model"
	"github.com/SeakMengs/certportal/internal/util"
	"github.com/gin-gonic/gin"
)

type EventController struct {
	*baseController
}

type eventRequest struct {
	Name      string `json:"name" form:"name" binding:"required,strNotEmpty,cmax=200"`
	EventDate string `json:"eventDate" form:"eventDate" binding:"cmax=50"`
	Location  string `json:"location" form:"location" binding:"cmax=200"`
}

func (ec EventController) CreateEvent(ctx *gin.Context) {
	var body eventRequest
	if err := ctx.ShouldBind(&body); err != nil {
		util.ResponseFailed(ctx, http.StatusBadRequest, "Invalid request", util.GenerateErrorMessages(err), nil)
		return
	}

	event, err := ec.app.Repository.Event.Create(ctx, nil, &model.Event{
		Name:      strings.TrimSpace(body.Name),
		EventDate: strings.TrimSpace(body.EventDate),
		Location:  strings.TrimSpace(body.Location),
	})
	if err != nil {
		ec.respondError(ctx, "Failed to create event", err)
		return
	}

	util.ResponseStatus(ctx, http.StatusCreated, gin.H{
		"event": event,
	})
}

func (ec EventController) ListEvents(ctx *gin.Context) {
	page, pageSize := ec.getPage(ctx)

	events, total, err := ec.app.Repository.Event.List(ctx, nil, page, pageSize)
	if err != nil {
		ec.respondError(ctx, "Failed to list events", err)
		return
	}

	util.ResponsePaginated(ctx, events, total, page, pageSize)
}

func (ec EventController) GetEvent(ctx *gin.Context) {
	eventId, ok := ec.eventIdParam(ctx)
	if !ok {
		return
	}

	event, err := ec.app.Repository.Event.GetById(ctx, nil, eventId.String())
	if err != nil {
		ec.respondError(ctx, "Event not found", err)
		return
	}

	templates, err := ec.app.Repository.Template.ListByEventId(ctx, nil, eventId.String())
	if err != nil {
		ec.respondError(ctx, "Failed to get templates", err)
		return
	}
	event.Templates = templates

	util.ResponseSuccess(ctx, gin.H{
		"event": event,
	})
}

// Templates go with the event, generated certificates stay searchable.
func (ec EventController) DeleteEvent(ctx *gin.Context) {
	eventId, ok := ec.eventIdParam(ctx)
	if !ok {
		return
	}

	templates, err := ec.app.Repository.Template.ListByEventId(ctx, nil, eventId.String())
	if err != nil {
		ec.respondError(ctx, "Failed to get templates", err)
		return
	}

	if err := ec.app.Repository.Event.Delete(ctx, nil, eventId.String()); err != nil {
		ec.respondError(ctx, "Failed to delete event", err)
		return
	}

	for _, t := range templates {
		if err := ec.app.Objects.Remove(ctx, t.ImageKey); err != nil {
			ec.app.Logger.Warnf("Failed to remove template image %s of deleted event %s: %v", t.ImageKey, eventId, err)
		}
	}

	util.ResponseSuccess(ctx, nil)
}
