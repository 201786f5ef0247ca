package permission

import (
	"slices"

	"github.com/bwmarrin/discordgo"
)

// Default tier names.
const (
	TierUser          = "User"
	TierModerator     = "Moderator"
	TierAdministrator = "Administrator"
	TierServerOwner   = "Server Owner"
	TierDeveloper     = "Developer"
	TierBotOwner      = "Bot Owner"
)

// DefaultTiers is the bot's standard permission ladder.
func DefaultTiers(ownerID string, developerIDs []string) []Tier {
	return []Tier{
		{Name: TierUser, Level: 0, Check: func(*Actor) bool { return true }},
		{Name: TierModerator, Level: 1, Check: func(a *Actor) bool {
			return len(Missing(a.Permissions, []string{"KickMembers", "BanMembers"})) == 0
		}},
		{Name: TierAdministrator, Level: 2, Check: func(a *Actor) bool {
			return a.Permissions&discordgo.PermissionAdministrator != 0
		}},
		{Name: TierServerOwner, Level: 3, Check: func(a *Actor) bool {
			return a.GuildOwnerID != "" && a.GuildOwnerID == a.UserID
		}},
		{Name: TierDeveloper, Level: 4, Check: func(a *Actor) bool {
			return a.UserID != "" && slices.Contains(developerIDs, a.UserID)
		}},
		{Name: TierBotOwner, Level: 5, Check: func(a *Actor) bool {
			return ownerID != "" && a.UserID == ownerID
		}},
	}
}
