package controller

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type MetricsControllerConfig struct {
	Path string
}

type MetricsController struct {
	config   MetricsControllerConfig
	router   *gin.Engine
	gatherer prometheus.Gatherer
}

func NewMetricsController(config MetricsControllerConfig, router *gin.Engine, gatherer prometheus.Gatherer) *MetricsController {
	return &MetricsController{
		config:   config,
		router:   router,
		gatherer: gatherer,
	}
}

func (controller *MetricsController) SetupRoutes() {
	handler := promhttp.HandlerFor(controller.gatherer, promhttp.HandlerOpts{})
	controller.router.GET(controller.config.Path, gin.WrapH(handler))
}
