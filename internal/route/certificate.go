package route

import (
	"github.com/SeakMengs/certportal/internal/controller"
	"github.com/SeakMengs/certportal/internal/middleware"
	"github.com/gin-gonic/gin"
)

func V1_Certificates(r *gin.RouterGroup, cc *controller.CertificateController, middleware *middleware.Middleware) {
	public := r.Group("/v1/certificates")
	public.Use(middleware.PublicRateLimiterMiddleware)
	{
		public.POST("/search", cc.Search)
		public.POST("/email", cc.EmailCertificates)
	}

	admin := r.Group("/v1/certificates")
	admin.Use(middleware.AuthMiddleware)
	{
		admin.GET("", cc.ListCertificates)
		admin.POST("", cc.CreateCertificate)
		admin.POST("/bulk", cc.BulkUpload)
		admin.GET("/:certificateId", cc.GetCertificate)
		admin.PUT("/:certificateId", cc.UpdateCertificate)
		admin.DELETE("/:certificateId", cc.DeleteCertificate)
		admin.POST("/:certificateId/regenerate", cc.Regenerate)
	}
}
