package main

import (
	"os"

	"server-tempo/internal/command"
	"server-tempo/internal/commands"
	_ "server-tempo/internal/commands/contextmenu"
	_ "server-tempo/internal/commands/developer"
	_ "server-tempo/internal/commands/music"
	_ "server-tempo/internal/commands/system"
	"server-tempo/internal/docs"
	"server-tempo/internal/logger"
	"server-tempo/internal/permission"

	"github.com/jessevdk/go-flags"
	"github.com/rs/zerolog/log"
)

func main() {
	var opts struct {
		Template string `long:"template" description:"README template" default:"README.md.tmpl"`
		Out      string `long:"out" description:"Output file" default:"README.md"`
	}
	if _, err := flags.Parse(&opts); err != nil {
		os.Exit(1)
	}
	logger.Setup(logger.Options{})

	model, err := permission.New(permission.DefaultTiers("", nil)...)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid permission tiers")
	}
	reg := command.NewRegistry(model)
	if errs := reg.LoadAll(commands.All()); len(errs) > 0 {
		log.Fatal().Int("failed", len(errs)).Msg("Commands failed to load")
	}
	if err := docs.UpdateReadme(reg, opts.Template, opts.Out); err != nil {
		log.Fatal().Err(err).Msg("Failed to update README")
	}
}
