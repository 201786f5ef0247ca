package music

import (
	"server-tempo/internal/command"
	"server-tempo/internal/commands"
	"server-tempo/internal/storage"

	"github.com/bwmarrin/discordgo"
)

var musicChannels = idList{
	noun:     "music channels",
	prefix:   "<#",
	optType:  discordgo.ApplicationCommandOptionChannel,
	optName:  "channel",
	ids:      func(s *storage.Settings) *[]string { return &s.MusicChannelIDs },
	whenNone: "there are no music channels configured, music commands can be used in any channel",
}

func init() {
	commands.Register(command.Source{Origin: "music-admin/music-channels", Build: func() command.Config {
		return musicChannels.config("Manage the channels music commands are restricted to")
	}})
}
