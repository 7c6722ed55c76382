package route

import (
	"github.com/SeakMengs/certportal/internal/controller"
	"github.com/SeakMengs/certportal/internal/middleware"
	"github.com/gin-gonic/gin"
)

func V1_Events(r *gin.RouterGroup, c *controller.Controller, middleware *middleware.Middleware) {
	v1 := r.Group("/v1/events")
	v1.Use(middleware.AuthMiddleware)
	{
		v1.POST("", c.Event.CreateEvent)
		v1.GET("", c.Event.ListEvents)
		v1.GET("/:eventId", c.Event.GetEvent)
		v1.DELETE("/:eventId", c.Event.DeleteEvent)

		v1.POST("/:eventId/templates", c.Template.UploadTemplate)
		v1.GET("/:eventId/templates", c.Template.ListTemplates)
		v1.PATCH("/:eventId/templates/:templateId", c.Template.UpdatePlacement)
		v1.DELETE("/:eventId/templates/:templateId", c.Template.DeleteTemplate)

		v1.POST("/:eventId/generate", c.Generate.Generate)
		v1.POST("/:eventId/generate/csv", c.Generate.Generate)
		v1.POST("/:eventId/generate/async", c.Generate.GenerateAsync)
		v1.GET("/:eventId/generation-logs", c.Generate.ListGenerationLogs)
		v1.GET("/:eventId/generation-logs/:logId", c.Generate.GetGenerationLog)

		v1.GET("/:eventId/certificates/download", c.Export.DownloadZip)
		v1.GET("/:eventId/certificates/merge", c.Export.MergePDF)
	}
}
