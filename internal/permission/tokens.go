package permission

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
)

// Token is a platform permission known to the bot.
type Token struct {
	Bit     int64
	Display string
}

// Tokens is the known-permission set used to validate descriptors.
var Tokens = map[string]Token{
	"CreateInstantInvite":    {discordgo.PermissionCreateInstantInvite, "Create Instant Invite"},
	"KickMembers":            {discordgo.PermissionKickMembers, "Kick Members"},
	"BanMembers":             {discordgo.PermissionBanMembers, "Ban Members"},
	"Administrator":          {discordgo.PermissionAdministrator, "Administrator"},
	"ManageChannels":         {discordgo.PermissionManageChannels, "Manage Channels"},
	"ManageGuild":            {discordgo.PermissionManageGuild, "Manage Server"},
	"AddReactions":           {discordgo.PermissionAddReactions, "Add Reactions"},
	"ViewAuditLog":           {discordgo.PermissionViewAuditLogs, "View Audit Logs"},
	"ViewChannel":            {discordgo.PermissionViewChannel, "View Channel"},
	"SendMessages":           {discordgo.PermissionSendMessages, "Send Messages"},
	"SendTTSMessages":        {discordgo.PermissionSendTTSMessages, "Send TTS Messages"},
	"ManageMessages":         {discordgo.PermissionManageMessages, "Manage Messages"},
	"EmbedLinks":             {discordgo.PermissionEmbedLinks, "Embed Links"},
	"AttachFiles":            {discordgo.PermissionAttachFiles, "Attach Files"},
	"ReadMessageHistory":     {discordgo.PermissionReadMessageHistory, "Read Message History"},
	"MentionEveryone":        {discordgo.PermissionMentionEveryone, "Mention Everyone"},
	"UseExternalEmojis":      {discordgo.PermissionUseExternalEmojis, "Use External Emojis"},
	"UseApplicationCommands": {discordgo.PermissionUseApplicationCommands, "Use Application Commands"},
	"ManageThreads":          {discordgo.PermissionManageThreads, "Manage Threads"},
	"CreatePublicThreads":    {discordgo.PermissionCreatePublicThreads, "Create Public Threads"},
	"CreatePrivateThreads":   {discordgo.PermissionCreatePrivateThreads, "Create Private Threads"},
	"SendMessagesInThreads":  {discordgo.PermissionSendMessagesInThreads, "Send Messages in Threads"},
	"PrioritySpeaker":        {discordgo.PermissionVoicePrioritySpeaker, "Priority Speaker"},
	"Stream":                 {discordgo.PermissionVoiceStreamVideo, "Stream Video"},
	"Connect":                {discordgo.PermissionVoiceConnect, "Connect to Voice Channel"},
	"Speak":                  {discordgo.PermissionVoiceSpeak, "Speak"},
	"MuteMembers":            {discordgo.PermissionVoiceMuteMembers, "Mute Members"},
	"DeafenMembers":          {discordgo.PermissionVoiceDeafenMembers, "Deafen Members"},
	"MoveMembers":            {discordgo.PermissionVoiceMoveMembers, "Move Members"},
	"UseVAD":                 {discordgo.PermissionVoiceUseVAD, "Use Voice Activity Detection"},
	"ChangeNickname":         {discordgo.PermissionChangeNickname, "Change Nickname"},
	"ManageNicknames":        {discordgo.PermissionManageNicknames, "Manage Nicknames"},
	"ManageRoles":            {discordgo.PermissionManageRoles, "Manage Roles"},
	"ManageWebhooks":         {discordgo.PermissionManageWebhooks, "Manage Webhooks"},
	"ManageEvents":           {discordgo.PermissionManageEvents, "Manage Events"},
	"ModerateMembers":        {discordgo.PermissionModerateMembers, "Moderate Members"},
	"ViewGuildInsights":      {discordgo.PermissionViewGuildInsights, "View Guild Insights"},
}

// ValidateTokens returns an error naming the first unknown token.
func ValidateTokens(tokens []string) error {
	for _, t := range tokens {
		if _, ok := Tokens[t]; !ok {
			return fmt.Errorf("unknown permission %q", t)
		}
	}
	return nil
}

// Missing returns the tokens whose bits are absent from have. Administrator
// implies every permission.
func Missing(have int64, tokens []string) []string {
	if have&discordgo.PermissionAdministrator != 0 {
		return nil
	}
	var out []string
	for _, t := range tokens {
		tok, ok := Tokens[t]
		if !ok || have&tok.Bit != tok.Bit {
			out = append(out, t)
		}
	}
	return out
}

// DisplayNames renders tokens the way Discord's UI names them.
func DisplayNames(tokens []string) string {
	names := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if tok, ok := Tokens[t]; ok {
			names = append(names, tok.Display)
		} else {
			names = append(names, t)
		}
	}
	return strings.Join(names, ", ")
}

// Bits folds tokens into a permission bit set.
func Bits(tokens []string) int64 {
	var bits int64
	for _, t := range tokens {
		bits |= Tokens[t].Bit
	}
	return bits
}
