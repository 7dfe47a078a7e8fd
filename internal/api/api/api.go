package api

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/wb-go/wbf/ginext"

	"rifa/cmd/middleware"
	"rifa/internal/service"
)

type Routers struct {
	Service        service.Service
	Mode           string
	MaxUploadBytes int64
}

func NewRouters(r *Routers) *ginext.Engine {
	app := ginext.New(r.Mode)

	app.Use(gin.Recovery())
	app.Use(requestid.New())
	app.Use(middleware.LoggingMiddleware())
	app.Use(cors.Default())
	app.Use(middleware.BodyLimit(r.MaxUploadBytes))

	app.POST("/participation", r.Service.Submit)
	app.POST("/participations/:id/confirm", r.Service.Confirm)

	app.GET("/health", func(c *ginext.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	return app
}
