package music

import (
	"server-tempo/internal/command"
	"server-tempo/internal/commands"
	"server-tempo/internal/storage"

	"github.com/bwmarrin/discordgo"
)

var djRoles = idList{
	noun:     "DJ roles",
	prefix:   "<@&",
	optType:  discordgo.ApplicationCommandOptionRole,
	optName:  "role",
	ids:      func(s *storage.Settings) *[]string { return &s.DJRoleIDs },
	whenNone: "there are no DJ roles configured, DJ commands are reserved for Administrators and up",
}

func init() {
	commands.Register(command.Source{Origin: "music-admin/dj-roles", Build: func() command.Config {
		return djRoles.config("Manage the roles that are allowed to use DJ commands")
	}})
}
