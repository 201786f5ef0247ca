package docs

import (
	"os"
	"path/filepath"
	"testing"

	"server-tempo/internal/command"
	"server-tempo/internal/permission"

	qt "github.com/frankban/quicktest"
)

func source(origin, description string, kind command.Kind, aliases ...string) command.Source {
	return command.Source{Origin: origin, Build: func() command.Config {
		return command.Config{
			Kind:        kind,
			Description: description,
			Aliases:     aliases,
			Run:         func(*command.Context) error { return nil },
		}
	}}
}

func newRegistry(c *qt.C) *command.Registry {
	model, err := permission.New(permission.DefaultTiers("", nil)...)
	c.Assert(err, qt.IsNil)
	reg := command.NewRegistry(model)
	errs := reg.LoadAll([]command.Source{
		source("music/play", "Play a song", command.ChatInput),
		source("system/ping", "Displays the bot's latency", command.ChatInput),
		source("music-dj/skip", "Skip the current song", command.ChatInput, "next"),
		source("context-menus/user-info", "", command.UserContext),
		source("music/np-skip", "", command.Button),
	})
	c.Assert(errs, qt.HasLen, 0)
	return reg
}

func TestCommandSections(t *testing.T) {
	c := qt.New(t)
	got := CommandSections(newRegistry(c))
	c.Assert(got, qt.Equals, "### System\n\n"+
		"- **/ping** - Displays the bot's latency\n"+
		"\n### Music\n\n"+
		"- **/play** - Play a song\n"+
		"\n### Music Dj\n\n"+
		"- **/skip** - Skip the current song (aliases: `/next`)\n"+
		"\n### Context Menus\n\n"+
		"- **user-info**\n")
}

func TestUpdateReadme(t *testing.T) {
	c := qt.New(t)
	dir := t.TempDir()
	tmpl := filepath.Join(dir, "README.md.tmpl")
	out := filepath.Join(dir, "README.md")
	c.Assert(os.WriteFile(tmpl, []byte("# Tempo\n\n{{ .CommandSections }}"), 0644), qt.IsNil)

	c.Assert(UpdateReadme(newRegistry(c), tmpl, out), qt.IsNil)
	data, err := os.ReadFile(out)
	c.Assert(err, qt.IsNil)
	c.Assert(string(data), qt.Matches, `(?s)# Tempo\n\n### System.*- \*\*user-info\*\*\n`)

	c.Assert(UpdateReadme(newRegistry(c), filepath.Join(dir, "missing.tmpl"), out), qt.IsNotNil)
}
