// Package bot is the chat-platform front-end: it dispatches the verify and
// reset commands and exposes the platform primitives the role sync loop
// consumes.
package bot

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/andrewbot/andrewbot/pkg/log"
	"github.com/andrewbot/andrewbot/service"
	"github.com/bwmarrin/discordgo"
)

type Bot struct {
	dg       *discordgo.Session
	sessions *service.Manager
	url      string
	prefix   string

	readyOnce sync.Once
	ready     chan struct{}
}

// New connects to the platform gateway and registers the command handlers.
// The returned Bot also implements rolesync.Platform.
func New(token string, sessions *service.Manager, url string, prefix string) (*Bot, error) {
	dg, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, err
	}
	bot := &Bot{
		dg:       dg,
		sessions: sessions,
		url:      strings.TrimSuffix(url, "/"),
		prefix:   prefix,
		ready:    make(chan struct{}),
	}
	dg.Identify.Intents = discordgo.IntentGuilds | discordgo.IntentGuildMessages | discordgo.IntentMessageContent
	dg.AddHandler(bot.onReady)
	dg.AddHandler(bot.onMessageCreate)
	if err := dg.Open(); err != nil {
		return nil, fmt.Errorf("open gateway: %w", err)
	}
	return bot, nil
}

func (b *Bot) Close() error {
	return b.dg.Close()
}

func (b *Bot) onReady(s *discordgo.Session, r *discordgo.Ready) {
	b.readyOnce.Do(func() {
		log.Info("Bot is ready")
		close(b.ready)
	})
}

func (b *Bot) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot {
		return
	}
	// ignore all DMs for now
	if m.GuildID == "" {
		return
	}
	if !strings.HasPrefix(m.Content, b.prefix) || len(m.Content) <= len(b.prefix) {
		return
	}
	fields := strings.Fields(strings.TrimPrefix(m.Content, b.prefix))
	if len(fields) == 0 {
		return
	}
	switch fields[0] {
	case "verify":
		b.handleVerify(m)
	case "reset":
		b.handleReset(m)
	}
}

// WaitUntilReady blocks until the gateway reported ready, or ctx ends.
func (b *Bot) WaitUntilReady(ctx context.Context) error {
	select {
	case <-b.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (b *Bot) GuildIDs() []string {
	guilds := b.dg.State.Guilds
	ids := make([]string, 0, len(guilds))
	for _, g := range guilds {
		ids = append(ids, g.ID)
	}
	return ids
}

// RoleByName resolves a role by exact name match within one guild.
func (b *Bot) RoleByName(guildID string, name string) (string, error) {
	roles, err := b.dg.GuildRoles(guildID)
	if err != nil {
		return "", err
	}
	for _, role := range roles {
		if role.Name == name {
			return role.ID, nil
		}
	}
	return "", fmt.Errorf("no role named %q", name)
}

func (b *Bot) GrantRole(guildID string, userID string, roleID string) error {
	return b.dg.GuildMemberRoleAdd(guildID, userID, roleID)
}
