package main

import (
	"time"

	"github.com/andrewbot/andrewbot/config"
	"github.com/andrewbot/andrewbot/db"
	"github.com/andrewbot/andrewbot/mailer"
	"github.com/andrewbot/andrewbot/pkg/log"
	"github.com/andrewbot/andrewbot/service"
	"github.com/andrewbot/andrewbot/webserver/controller"
	"github.com/andrewbot/andrewbot/webserver/router"
)

func main() {
	cfg := config.GetConfig()
	database, err := db.Open(cfg.Config)
	if err != nil {
		log.Fatal("%v", err)
	}
	defer database.Close()
	sessions := service.New(database, time.Duration(cfg.ExpirySeconds)*time.Second)

	var mail mailer.Mailer
	if cfg.SMTPHost == "" {
		mail = mailer.PrintMailer{}
		// no relay configured: print-only mail plus a synthetic session for
		// walking through the flow by hand
		if secondaryID, err := sessions.NewFake(); err == nil {
			log.Debug("Debug session: %v/start/0/%v", cfg.URL, secondaryID)
		}
	} else {
		mail = &mailer.SMTPMailer{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUser,
			Password: cfg.SMTPPass,
			FromAddr: cfg.SMTPFromAddr,
		}
	}
	log.Info("Using %T for mail", mail)

	ctrl := controller.New(sessions, mail, cfg.AllowedDomain)
	if err := router.Run(ctrl); err != nil {
		log.Fatal("%v", err)
	}
}
