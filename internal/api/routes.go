package api

import "github.com/cloudwego/hertz/pkg/route"

func RegisterRoutes(r *route.Engine, h *Handler) {
	r.GET("/ping", h.Ping)

	variantGroup := r.Group("/variants")
	{
		variantGroup.GET("", h.ListVariants)
		variantGroup.PUT("/:type/:variant", h.UpdateVariant)
	}
	runGroup := r.Group("/runs")
	{
		runGroup.POST("", h.CreateRun)
		runGroup.GET("", h.ListRuns)
		runGroup.POST("/:id/kill", h.KillRun)
	}
	adminGroup := r.Group("/admin")
	adminGroup.POST("/catalog/refresh", h.RefreshCatalog)
}
