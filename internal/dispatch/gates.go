package dispatch

import (
	"fmt"

	"server-tempo/internal/permission"
)

const (
	emojiError     = "❌"
	emojiInfo      = "ℹ️"
	emojiWait      = "⏳"
	emojiSeparator = "•"
)

// checkCapabilities runs the descriptor gates in order and stops at the
// first failure.
func (d *Dispatcher) checkCapabilities(in *interaction) (Result, bool) {
	desc, actor := in.desc, in.actor
	mention := "<@" + actor.UserID + ">"

	if !desc.Enabled {
		d.deny(in, fmt.Sprintf("%s %s, this command is currently disabled. Please try again later.", emojiError, mention))
		return d.finish(in, Rejected, ReasonDisabled), false
	}

	if !d.model.Has(desc.Level) {
		in.logger.Error().Int("level", desc.Level).Msg("Interaction returned: command permission level is not a configured tier")
		d.deny(in, fmt.Sprintf("%s %s, something went wrong while using this command.\n%s This issue has been logged to the developer.\n%s Please try again later",
			emojiError, mention, emojiInfo, emojiWait))
		return d.finish(in, Rejected, ReasonMisconfigured), false
	}

	if actor.Level < desc.Level {
		d.deny(in, fmt.Sprintf("%s %s, you do not have the required permission level to use this command.", emojiError, mention))
		return d.finish(in, Rejected, ReasonLevel), false
	}

	if missing := permission.Missing(actor.AppPermissions, desc.AgentPermissions); len(missing) > 0 {
		d.deny(in, fmt.Sprintf("%s %s, this command can't be executed because I lack the following permissions in <#%s>\n%s %s",
			emojiError, mention, actor.ChannelID, emojiSeparator, permission.DisplayNames(missing)))
		return d.finish(in, Rejected, ReasonAgentPermissions), false
	}

	if missing := permission.Missing(actor.Permissions, desc.CallerPermissions); len(missing) > 0 {
		d.deny(in, fmt.Sprintf("%s %s, this command can't be executed because you lack the following permissions in <#%s>:\n%s %s",
			emojiError, mention, actor.ChannelID, emojiSeparator, permission.DisplayNames(missing)))
		return d.finish(in, Rejected, ReasonCallerPermissions), false
	}

	if desc.NSFW && !actor.ChannelNSFW {
		d.deny(in, fmt.Sprintf("%s %s, that command is marked as **NSFW**, you can't use it in a **SFW** channel!", emojiError, mention))
		return d.finish(in, Rejected, ReasonNSFW), false
	}

	if desc.InvokerOnly && !spawnedBy(in, actor.UserID) {
		d.deny(in, fmt.Sprintf("%s %s, this message component isn't meant for you.", emojiError, mention))
		return d.finish(in, Rejected, ReasonNotInvoker), false
	}

	return Result{}, true
}

// spawnedBy reports whether the component's message was created by an
// interaction of userID. Messages without an originating interaction are
// open to everyone.
func spawnedBy(in *interaction, userID string) bool {
	msg := in.ev.Message
	if msg == nil || msg.Interaction == nil || msg.Interaction.User == nil {
		return true
	}
	return msg.Interaction.User.ID == userID
}
