// Package admin is the privileged cache surface: permission checks, the
// reports shown to operators, and an HTTP front end for both.
package admin

import (
	"errors"
	"log/slog"
	"strings"
)

// ErrDenied is returned when a caller lacks admin rights.
var ErrDenied = errors.New("admin permission denied")

// Caller is who is asking, as the chat platform describes them.
type Caller struct {
	UserID     string
	GuildAdmin bool
	GuildOwner bool
}

// Permissions decides who may use admin operations.
type Permissions struct {
	allowed map[string]struct{}
	log     *slog.Logger
}

// NewPermissions allows the listed user ids in addition to guild admins and owners.
func NewPermissions(userIDs []string, logger *slog.Logger) *Permissions {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Permissions{allowed: make(map[string]struct{}, len(userIDs)), log: logger}
	for _, id := range userIDs {
		if id = strings.TrimSpace(id); id != "" {
			p.allowed[id] = struct{}{}
		}
	}
	return p
}

// Allowed reports whether c may act as an admin: whitelisted id, guild administrator, or guild owner.
func (p *Permissions) Allowed(c Caller) bool {
	if _, ok := p.allowed[c.UserID]; ok && c.UserID != "" {
		p.log.Info("admin access granted", "user", c.UserID, "via", "whitelist")
		return true
	}
	if c.GuildAdmin {
		p.log.Info("admin access granted", "user", c.UserID, "via", "guild_admin")
		return true
	}
	if c.GuildOwner {
		p.log.Info("admin access granted", "user", c.UserID, "via", "guild_owner")
		return true
	}
	p.log.Info("admin access denied", "user", c.UserID)
	return false
}

// HasWhitelist reports whether any user ids were configured.
func (p *Permissions) HasWhitelist() bool {
	return len(p.allowed) > 0
}

// DeniedReport explains what a denied caller would need.
func (p *Permissions) DeniedReport() Report {
	need := "Administrator role, OR\nGuild owner"
	if p.HasWhitelist() {
		need += ", OR\nWhitelisted user ID"
	}
	return Report{
		Title:       "Access Denied",
		Description: "You don't have permission to use this command.",
		Fields:      []Field{{Name: "Required Permissions", Value: need}},
		Footer:      "Contact a server administrator for access",
	}
}
