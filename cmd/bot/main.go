package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/andrewbot/andrewbot/bot"
	"github.com/andrewbot/andrewbot/config"
	"github.com/andrewbot/andrewbot/db"
	"github.com/andrewbot/andrewbot/pkg/log"
	"github.com/andrewbot/andrewbot/rolesync"
	"github.com/andrewbot/andrewbot/service"
)

func main() {
	cfg := config.GetConfig()
	if cfg.BotToken == "" {
		log.Fatal("a bot token is required, see --help")
	}
	database, err := db.Open(cfg.Config)
	if err != nil {
		log.Fatal("%v", err)
	}
	defer database.Close()
	sessions := service.New(database, time.Duration(cfg.ExpirySeconds)*time.Second)

	b, err := bot.New(cfg.BotToken, sessions, cfg.URL, cfg.CommandPrefix)
	if err != nil {
		log.Fatal("Bot: %v", err)
	}
	defer b.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	loop := rolesync.New(sessions, b, cfg.RoleName, time.Duration(cfg.CheckIntervalSeconds)*time.Second)
	loop.Run(ctx)
	log.Info("Shutting down")
}
