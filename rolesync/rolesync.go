// Package rolesync runs the background loop that grants the verified role
// to users whose sessions have passed verification, then sweeps expired
// sessions.
package rolesync

import (
	"context"
	"strconv"
	"time"

	"github.com/andrewbot/andrewbot/model"
	"github.com/andrewbot/andrewbot/pkg/log"
	"github.com/andrewbot/andrewbot/service"
)

// Platform is the slice of the chat platform the loop needs: a readiness
// gate, the guild list, role lookup by name and the grant call itself.
type Platform interface {
	WaitUntilReady(ctx context.Context) error
	GuildIDs() []string
	RoleByName(guildID string, name string) (roleID string, err error)
	GrantRole(guildID string, userID string, roleID string) error
}

type Loop struct {
	sessions *service.Manager
	platform Platform
	roleName string
	interval time.Duration

	// guild id -> verified role id, built once after the first ready
	roles map[string]string
}

func New(sessions *service.Manager, platform Platform, roleName string, interval time.Duration) *Loop {
	return &Loop{
		sessions: sessions,
		platform: platform,
		roleName: roleName,
		interval: interval,
	}
}

// Run drives the loop until ctx is cancelled. Cancellation is only observed
// at the readiness wait and the inter-sweep sleep; each per-session grant is
// bounded and simply retried on the next sweep if it fails.
func (l *Loop) Run(ctx context.Context) {
	log.Info("Sleeping %v between maintenance iterations", l.interval)
	for {
		if err := l.platform.WaitUntilReady(ctx); err != nil {
			return
		}
		if l.roles == nil {
			l.buildRoleCache()
		}
		l.sweep()
		if _, err := l.sessions.CollectGarbage(); err != nil {
			log.Warn("collect garbage: %v", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(l.interval):
		}
	}
}

// buildRoleCache scans every guild's role list for an exact name match.
// Guilds without the role are warned about and skipped on every sweep; no
// guild carrying the role at all is a startup misconfiguration.
func (l *Loop) buildRoleCache() {
	log.Info("Assembling role cache")
	l.roles = make(map[string]string)
	guilds := l.platform.GuildIDs()
	for _, guildID := range guilds {
		roleID, err := l.platform.RoleByName(guildID, l.roleName)
		if err != nil {
			log.Warn("%v role not found in guild %v: %v", l.roleName, guildID, err)
			continue
		}
		l.roles[guildID] = roleID
	}
	if len(guilds) > 0 && len(l.roles) == 0 {
		log.Fatal("%v role not found in any of %v guilds", l.roleName, len(guilds))
	}
}

// sweep grants the verified role for every verified session. Each grant is
// fault-isolated: a failure is logged and the rest of the batch continues.
// Sessions are not deleted after a grant; they linger until the expiry
// sweep, which keeps repeat verify commands rate-limited. Re-granting an
// already-granted role is harmless.
func (l *Loop) sweep() {
	err := l.sessions.ForEachVerified(func(session model.Session) {
		guildID := strconv.FormatInt(session.GuildID, 10)
		roleID, ok := l.roles[guildID]
		if !ok {
			log.Warn("Skipping verification for %v because no role was found in guild %v", session.Name, guildID)
			return
		}
		userID := strconv.FormatInt(session.UserID, 10)
		if err := l.platform.GrantRole(guildID, userID, roleID); err != nil {
			log.Warn("Failed to add role to (%v, %v) in guild %v: %v", session.Name, userID, guildID, err)
			return
		}
		log.Info("Added role to (%v, %v)", session.Name, userID)
	})
	if err != nil {
		log.Warn("list verified sessions: %v", err)
	}
}
