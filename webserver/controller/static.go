package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func setCache(ctx *gin.Context) {
	ctx.Header("Cache-Control", "public, max-age=2592000, immutable")
}

func (c *Controller) Index(ctx *gin.Context) {
	setCache(ctx)
	ctx.HTML(http.StatusOK, "index.html", nil)
}

func (c *Controller) Success(ctx *gin.Context) {
	setCache(ctx)
	ctx.HTML(http.StatusOK, "passed_verification.html", nil)
}

func (c *Controller) Failure(ctx *gin.Context) {
	setCache(ctx)
	ctx.HTML(http.StatusOK, "failed_verification.html", nil)
}

func (c *Controller) NotFound(ctx *gin.Context) {
	ctx.HTML(http.StatusNotFound, "404.html", nil)
}
