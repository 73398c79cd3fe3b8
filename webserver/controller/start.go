package controller

import (
	"errors"
	"net/http"
	"strings"

	"github.com/andrewbot/andrewbot/db"
	"github.com/andrewbot/andrewbot/model"
	"github.com/andrewbot/andrewbot/pkg/log"
	"github.com/gin-gonic/gin"
)

// startSession looks up the session for a /start request and resolves the
// states that should not land there. Returns nil if a response was already
// written.
func (c *Controller) startSession(ctx *gin.Context) *model.Session {
	userID, secondaryID, ok := c.sessionParams(ctx)
	if !ok {
		return nil
	}
	session, err := c.Sessions.Session(userID, secondaryID)
	if err != nil {
		c.NotFound(ctx)
		return nil
	}
	switch session.State {
	case model.StateAwaitingCode:
		redirectToVerify(ctx, userID, secondaryID)
		return nil
	case model.StateVerified:
		redirectToSuccess(ctx)
		return nil
	case model.StateFailed:
		redirectToFailure(ctx)
		return nil
	}
	return session
}

func (c *Controller) GetStart(ctx *gin.Context) {
	if session := c.startSession(ctx); session != nil {
		ctx.HTML(http.StatusOK, "start.html", nil)
	}
}

// PostStart takes the submitted email, checks the domain suffix, sends the
// code and records the transition. Mail goes out before the transition is
// persisted; if persisting then fails the user can still enter the code and
// Verify will settle the state.
func (c *Controller) PostStart(ctx *gin.Context) {
	session := c.startSession(ctx)
	if session == nil {
		return
	}
	emailAddr := ctx.PostForm("email")
	if !strings.HasSuffix(emailAddr, c.AllowedDomain) {
		redirectToStart(ctx, session.UserID, session.SecondaryID)
		return
	}
	log.Info("User %v with id %v sent an email", session.Name, session.UserID)
	if err := c.Mail.Send(emailAddr, session.Code, session.Name); err != nil {
		log.Warn("send mail for %v: %v", session.Name, err)
		redirectToStart(ctx, session.UserID, session.SecondaryID)
		return
	}
	if err := c.Sessions.SetEmailSent(session.UserID, session.SecondaryID); err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) {
			log.Warn("set email sent for %v: %v", session.UserID, err)
		}
		// non-fatal either way: the user can restart or retry the code
	}
	redirectToVerify(ctx, session.UserID, session.SecondaryID)
}
