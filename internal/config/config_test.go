package config

import (
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
	"github.com/pajbot/testhelper"
)

func TestLoadParsesListsAndDefaults(t *testing.T) {
	c := qt.New(t)
	c.Setenv("DISCORD_TOKEN", "token")
	c.Setenv("DEVELOPER_IDS", "1,2")
	c.Setenv("DEBUG_COMMAND_THROTTLING", "true")

	cfg, err := Load()
	c.Assert(err, qt.IsNil)
	testhelper.AssertStringSlicesEqual(t, []string{"1", "2"}, cfg.DeveloperIDs)
	c.Assert(cfg.DebugThrottling, qt.IsTrue)
	c.Assert(cfg.StoragePath, qt.Equals, "data/datastore.json")
	c.Assert(cfg.AuditRetain, qt.Equals, 720*time.Hour)
	c.Assert(cfg.ThrottleBypass, qt.Equals, "Developer")
}

func TestNewRequiresToken(t *testing.T) {
	c := qt.New(t)
	c.Setenv("DISCORD_TOKEN", "")

	_, err := New()
	c.Assert(err, qt.ErrorMatches, "DISCORD_TOKEN is not set")
}

func TestSortCategories(t *testing.T) {
	cats := []string{"developer", "zzz", "music-dj", "aaa", "system", "music"}
	SortCategories(cats)
	testhelper.AssertStringSlicesEqual(t, []string{"system", "music", "music-dj", "developer", "aaa", "zzz"}, cats)
}
