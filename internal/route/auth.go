package route

import (
	"github.com/SeakMengs/certportal/internal/controller"
	"github.com/SeakMengs/certportal/internal/middleware"
	"github.com/gin-gonic/gin"
)

func V1_Auth(r *gin.RouterGroup, authController *controller.AuthController, middleware *middleware.Middleware) {
	v1 := r.Group("/v1/auth")
	{
		v1.POST("/login", middleware.PublicRateLimiterMiddleware, authController.Login)
		v1.POST("/jwt/access/verify", authController.VerifyJwtAccessToken)
		v1.POST("/refresh", authController.RefreshAccessToken)
	}
}
