// Package controller implements the verification web flow. All mutating
// routes answer with 303 redirects (post-redirect-get), so refreshing a
// page never replays a mutation.
package controller

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/andrewbot/andrewbot/mailer"
	"github.com/andrewbot/andrewbot/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Controller struct {
	Sessions      *service.Manager
	Mail          mailer.Mailer
	AllowedDomain string
}

func New(sessions *service.Manager, mail mailer.Mailer, allowedDomain string) *Controller {
	return &Controller{
		Sessions:      sessions,
		Mail:          mail,
		AllowedDomain: allowedDomain,
	}
}

// sessionParams parses the route parameters. Malformed ids get the same 404
// page as an unknown session, so the error tells a prober nothing.
func (c *Controller) sessionParams(ctx *gin.Context) (userID int64, secondaryID uuid.UUID, ok bool) {
	userID, err := strconv.ParseInt(ctx.Param("UserID"), 10, 64)
	if err != nil {
		c.NotFound(ctx)
		return 0, uuid.Nil, false
	}
	secondaryID, err = uuid.Parse(ctx.Param("SecondaryID"))
	if err != nil {
		c.NotFound(ctx)
		return 0, uuid.Nil, false
	}
	return userID, secondaryID, true
}

func redirectToStart(ctx *gin.Context, userID int64, secondaryID uuid.UUID) {
	ctx.Redirect(http.StatusSeeOther, fmt.Sprintf("/start/%d/%s", userID, secondaryID))
}

func redirectToVerify(ctx *gin.Context, userID int64, secondaryID uuid.UUID) {
	ctx.Redirect(http.StatusSeeOther, fmt.Sprintf("/verify/%d/%s", userID, secondaryID))
}

func redirectToSuccess(ctx *gin.Context) {
	ctx.Redirect(http.StatusSeeOther, "/success")
}

func redirectToFailure(ctx *gin.Context) {
	ctx.Redirect(http.StatusSeeOther, "/failure")
}
