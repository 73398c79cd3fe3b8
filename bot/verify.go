package bot

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/andrewbot/andrewbot/pkg/log"
	"github.com/bwmarrin/discordgo"
)

// handleVerify starts (or resumes) a session for the author and DMs them
// their personal verification link.
func (b *Bot) handleVerify(m *discordgo.MessageCreate) {
	// only respond in verification channels
	channel, err := b.dg.State.Channel(m.ChannelID)
	if err != nil {
		channel, err = b.dg.Channel(m.ChannelID)
		if err != nil {
			log.Warn("verify: fetch channel %v: %v", m.ChannelID, err)
			return
		}
	}
	if !strings.Contains(strings.ToLower(channel.Name), "verification") {
		return
	}

	userID, err := strconv.ParseInt(m.Author.ID, 10, 64)
	if err != nil {
		log.Warn("verify: bad user id %v: %v", m.Author.ID, err)
		return
	}
	guildID, err := strconv.ParseInt(m.GuildID, 10, 64)
	if err != nil {
		log.Warn("verify: bad guild id %v: %v", m.GuildID, err)
		return
	}
	name := m.Author.Username + "#" + m.Author.Discriminator

	secondaryID, err := b.sessions.CreateOrGet(userID, guildID, name)
	if err != nil {
		log.Warn("verify: create session for %v: %v", name, err)
		return
	}
	link := fmt.Sprintf("%s/start/%d/%s", b.url, userID, secondaryID)

	dm, err := b.dg.UserChannelCreate(m.Author.ID)
	if err == nil {
		_, err = b.dg.ChannelMessageSendEmbed(dm.ID, &discordgo.MessageEmbed{
			Title:       "Verification!",
			URL:         link,
			Description: "Please use this page to enter your email for verification. Your email will not be shared with the server.",
			Color:       0xffc0cb,
			Fields: []*discordgo.MessageEmbedField{
				{
					Name:   "Verification Link",
					Value:  link,
					Inline: true,
				},
			},
		})
	}
	if err != nil {
		_, _ = b.dg.ChannelMessageSendReply(m.ChannelID,
			"Unable to send DM. Are you sure you have DMs enabled on this server?", m.Reference())
	}
}

// handleReset removes the mentioned member's session. Manage Roles only.
func (b *Bot) handleReset(m *discordgo.MessageCreate) {
	perms, err := b.dg.UserChannelPermissions(m.Author.ID, m.ChannelID)
	if err != nil || perms&discordgo.PermissionManageRoles == 0 {
		return
	}
	if len(m.Mentions) == 0 {
		_, _ = b.dg.ChannelMessageSendReply(m.ChannelID, "Mention the member to reset.", m.Reference())
		return
	}
	target := m.Mentions[0]
	userID, err := strconv.ParseInt(target.ID, 10, 64)
	if err != nil {
		return
	}
	if err := b.sessions.DeleteSession(userID); err != nil {
		log.Info("reset: no session for %v", target.Username)
	}
	_, _ = b.dg.ChannelMessageSendReply(m.ChannelID,
		fmt.Sprintf("Removed session for %v", target.Username), m.Reference())
}
