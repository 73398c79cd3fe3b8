package controller

import (
	"net/http"

	"github.com/andrewbot/andrewbot/model"
	"github.com/gin-gonic/gin"
)

func (c *Controller) GetVerify(ctx *gin.Context) {
	userID, secondaryID, ok := c.sessionParams(ctx)
	if !ok {
		return
	}
	session, err := c.Sessions.Session(userID, secondaryID)
	if err != nil {
		c.NotFound(ctx)
		return
	}
	switch {
	case session.RemainingAttempts == 0 || session.State == model.StateFailed:
		redirectToFailure(ctx)
	case session.State == model.StateVerified:
		redirectToSuccess(ctx)
	case session.State == model.StateAwaitingStart:
		redirectToStart(ctx, userID, secondaryID)
	default:
		ctx.HTML(http.StatusOK, "verify.html", gin.H{
			"RemainingAttempts": session.RemainingAttempts,
		})
	}
}

func (c *Controller) PostVerify(ctx *gin.Context) {
	userID, secondaryID, ok := c.sessionParams(ctx)
	if !ok {
		return
	}
	result, err := c.Sessions.Verify(userID, secondaryID, ctx.PostForm("verification"))
	if err != nil {
		c.NotFound(ctx)
		return
	}
	switch {
	case result.Verified:
		redirectToSuccess(ctx)
	case result.RemainingAttempts == 0:
		redirectToFailure(ctx)
	default:
		redirectToVerify(ctx, userID, secondaryID)
	}
}
