package utils

import (
	"slices"

	"discord-modbot/models"

	"github.com/bwmarrin/discordgo"
)

// Permission levels.
const (
	LevelDeveloper = "developer"
	LevelAdmin     = "admin"
	LevelGuest     = "guest"
)

// Auth provides methods for authorization checks.
type Auth struct {
	config models.AuthConfig
}

// NewAuth creates a new Auth instance from the commands configuration.
func NewAuth(config models.AuthConfig) *Auth {
	return &Auth{config: config}
}

// IsDeveloper checks if a user is a developer.
func (a *Auth) IsDeveloper(userID string) bool {
	return slices.Contains(a.config.Developers, userID)
}

// IsAdmin checks if any of the roles is an admin role.
func (a *Auth) IsAdmin(roles []string) bool {
	for _, adminRoleID := range a.config.AdminsRoles {
		if slices.Contains(roles, adminRoleID) {
			return true
		}
	}
	return false
}

// CanModerate reports whether the permission bitset allows managing messages.
func CanModerate(permissions int64) bool {
	return permissions&(discordgo.PermissionManageMessages|discordgo.PermissionAdministrator) != 0
}

// CheckPermission checks if a user has the required permission level.
// permissions is the user's computed permission bitset in the channel.
func (a *Auth) CheckPermission(userID string, roles []string, permissions int64, requiredLevel string) bool {
	switch requiredLevel {
	case LevelDeveloper:
		return a.IsDeveloper(userID)
	case LevelAdmin:
		return a.IsDeveloper(userID) || a.IsAdmin(roles) || CanModerate(permissions)
	case LevelGuest:
		return true
	default:
		return false
	}
}
