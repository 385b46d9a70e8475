package http

import (
	"inventory-service/internal/token"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func Router(h *Handler, verifier *token.HSVerifier, log *zap.Logger) *gin.Engine {
	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length", "Retry-After"},
		AllowCredentials: true,
	}))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status": "ok",
		})
	})

	v1 := r.Group("/v1", AuthRequired(verifier, log))
	{
		v1.POST("/items", h.CreateItem)
		v1.GET("/items", h.ListItems)
		v1.GET("/items/low-stock", h.ListLowStockItems)
		v1.GET("/items/:id", h.GetItem)
		v1.PATCH("/items/:id", h.UpdateItem)
		v1.DELETE("/items/:id", h.DeleteItem)

		v1.POST("/categories", h.CreateCategory)
		v1.GET("/categories", h.ListCategories)
		v1.POST("/units", h.CreateUnit)
		v1.GET("/units", h.ListUnits)
		v1.POST("/vendors", h.CreateVendor)
		v1.GET("/vendors", h.ListVendors)

		v1.GET("/stock/:id", h.GetStock)
		v1.POST("/stock/:id", h.InitializeStock)

		v1.POST("/reservations", h.Reserve)
		v1.GET("/reservations/:id", h.GetReservation)
		v1.POST("/reservations/:id/commit", h.CommitReservation)
		v1.POST("/reservations/:id/release", h.ReleaseReservation)
	}

	return r
}
