package music

import (
	"testing"

	"server-tempo/internal/commands"
	"server-tempo/internal/commands/commandtest"

	qt "github.com/frankban/quicktest"
	"github.com/pajbot/testhelper"
)

func TestVolume(t *testing.T) {
	c := qt.New(t)
	h := commandtest.New(t, commands.All()...)

	resp := h.Slash(commandtest.User, "volume", commandtest.Int("volume", 50))
	c.Assert(resp.Last().Content, qt.Equals, "❌ <@user>, you do not have the required permission level to use this command.")

	resp = h.Slash(commandtest.Admin, "volume")
	c.Assert(resp.Last().Content, qt.Equals, "ℹ️ <@admin>, the current volume is `5`")

	resp = h.Slash(commandtest.Admin, "volume", commandtest.Int("volume", 42))
	c.Assert(resp.Last().Content, qt.Equals, "☑️ <@admin>, volume set to `42`")

	s, err := h.Settings.Settings(commandtest.GuildID)
	c.Assert(err, qt.IsNil)
	c.Assert(s.Volume, qt.Equals, 42)
}

func TestDJRoles(t *testing.T) {
	c := qt.New(t)
	h := commandtest.New(t, commands.All()...)

	list := func() string {
		return h.Slash(commandtest.Admin, "dj-roles", commandtest.Sub("list")).Last().Content
	}
	c.Assert(list(), qt.Equals, "ℹ️ <@admin>, there are no DJ roles configured, DJ commands are reserved for Administrators and up")

	resp := h.Slash(commandtest.Admin, "dj-roles", commandtest.Sub("add", commandtest.Role("role", "r1")))
	c.Assert(resp.Last().Content, qt.Equals, "☑️ <@admin>, <@&r1> has been added to the DJ roles")
	resp = h.Slash(commandtest.Admin, "dj-roles", commandtest.Sub("add", commandtest.Role("role", "r1")))
	c.Assert(resp.Last().Content, qt.Equals, "❌ <@admin>, <@&r1> is already one of the DJ roles - this command has been cancelled")
	h.Slash(commandtest.Admin, "dj-roles", commandtest.Sub("add", commandtest.Role("role", "r2")))

	c.Assert(list(), qt.Equals, "ℹ️ <@admin>, the current DJ roles are: <@&r1>, <@&r2>")

	resp = h.Slash(commandtest.Admin, "dj-roles", commandtest.Sub("remove", commandtest.Role("role", "r1")))
	c.Assert(resp.Last().Content, qt.Equals, "☑️ <@admin>, <@&r1> has been removed from the DJ roles")
	resp = h.Slash(commandtest.Admin, "dj-roles", commandtest.Sub("remove", commandtest.Role("role", "r1")))
	c.Assert(resp.Last().Content, qt.Equals, "❌ <@admin>, <@&r1> isn't one of the DJ roles - this command has been cancelled")

	s, _ := h.Settings.Settings(commandtest.GuildID)
	testhelper.AssertStringSlicesEqual(t, []string{"r2"}, s.DJRoleIDs)

	resp = h.Slash(commandtest.Admin, "dj-roles", commandtest.Sub("reset", commandtest.Bool("verification", false)))
	c.Assert(resp.Last().Content, qt.Equals, "❌ <@admin>, you didn't select the verification option - this command has been cancelled")
	resp = h.Slash(commandtest.Admin, "dj-roles", commandtest.Sub("reset", commandtest.Bool("verification", true)))
	c.Assert(resp.Last().Content, qt.Equals, "☑️ <@admin>, the DJ roles have been reset")

	s, _ = h.Settings.Settings(commandtest.GuildID)
	c.Assert(s.DJRoleIDs, qt.HasLen, 0)
}

func TestThreadSessionToggles(t *testing.T) {
	c := qt.New(t)
	h := commandtest.New(t, commands.All()...)

	resp := h.Slash(commandtest.Admin, "use-thread-sessions", commandtest.Bool("set", true))
	c.Assert(resp.Last().Content, qt.Equals, "☑️ <@admin>, `Use Thread Sessions` has been **☑️ Enabled**")
	resp = h.Slash(commandtest.Admin, "use-strict-thread-sessions", commandtest.Bool("set", false))
	c.Assert(resp.Last().Content, qt.Equals, "☑️ <@admin>, `Strict Thread Sessions` has been **❌ Disabled**")

	s, _ := h.Settings.Settings(commandtest.GuildID)
	c.Assert(s.UseThreadSessions, qt.IsTrue)
	c.Assert(s.ThreadSessionStrictCommandChannel, qt.IsFalse)
}

func TestLeaveCooldowns(t *testing.T) {
	c := qt.New(t)
	h := commandtest.New(t, commands.All()...)

	resp := h.Slash(commandtest.Admin, "leave-on-end-cooldown", commandtest.Int("seconds", 90))
	c.Assert(resp.Last().Content, qt.Equals, "☑️ <@admin>, the leave-on-end cooldown has been set to **`90`** seconds")

	resp = h.Slash(commandtest.Admin, "leave-on-empty-cooldown")
	c.Assert(resp.Last().Content, qt.Equals, "❌ <@admin>, please provide `seconds`, `status` or both - this command has been cancelled")

	resp = h.Slash(commandtest.Admin, "leave-on-empty-cooldown", commandtest.Bool("status", true), commandtest.Int("seconds", 30))
	c.Assert(resp.Last().Content, qt.Equals, "☑️ <@admin>, `Leave On Empty` is **☑️ Enabled** with a cooldown of **`30`** seconds")

	s, _ := h.Settings.Settings(commandtest.GuildID)
	c.Assert(s.LeaveOnEndCooldown, qt.Equals, 90)
	c.Assert(s.LeaveOnEmptyCooldown, qt.Equals, 30)
	c.Assert(s.LeaveOnEmpty, qt.IsTrue)
}
