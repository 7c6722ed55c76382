package route

import (
	"github.com/SeakMengs/certportal/internal/controller"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func Index(r *gin.Engine, ic *controller.IndexController) {
	r.GET("/", ic.Index)
	r.GET("/health", ic.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}
