package router

import (
	"embed"
	"html/template"

	"github.com/andrewbot/andrewbot/config"
	"github.com/andrewbot/andrewbot/webserver/controller"
	"github.com/gin-gonic/gin"
)

//go:embed templates/*.html
var templatesFS embed.FS

func New(ctrl *controller.Controller) *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.SetHTMLTemplate(template.Must(template.New("").ParseFS(templatesFS, "templates/*.html")))
	engine.GET("/", ctrl.Index)
	engine.GET("/success", ctrl.Success)
	engine.GET("/failure", ctrl.Failure)
	engine.GET("/start/:UserID/:SecondaryID", ctrl.GetStart)
	engine.POST("/start/:UserID/:SecondaryID", ctrl.PostStart)
	engine.GET("/verify/:UserID/:SecondaryID", ctrl.GetVerify)
	engine.POST("/verify/:UserID/:SecondaryID", ctrl.PostVerify)
	engine.NoRoute(ctrl.NotFound)
	return engine
}

func Run(ctrl *controller.Controller) error {
	return New(ctrl).Run(config.GetConfig().Address)
}
