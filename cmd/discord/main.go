package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"server-tempo/internal/audit"
	"server-tempo/internal/command"
	"server-tempo/internal/commands"
	_ "server-tempo/internal/commands/contextmenu"
	_ "server-tempo/internal/commands/developer"
	_ "server-tempo/internal/commands/music"
	_ "server-tempo/internal/commands/system"
	"server-tempo/internal/config"
	"server-tempo/internal/discord"
	"server-tempo/internal/dispatch"
	"server-tempo/internal/logger"
	"server-tempo/internal/metrics"
	"server-tempo/internal/music"
	"server-tempo/internal/permission"
	"server-tempo/internal/storage"
	"server-tempo/internal/throttle"
	v "server-tempo/internal/version"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.New()
	if err != nil {
		logger.Setup(logger.Options{})
		log.Fatal().Err(err).Msg("Invalid configuration")
	}
	// tracing flags log at debug level
	debug := cfg.Debug || cfg.DebugThrottling || cfg.DebugInteractions
	logger.Setup(logger.Options{Level: cfg.LogLevel, Debug: debug, File: cfg.LogFile})
	log.Info().Str("version", v.Version).Msgf("Starting %v bot...", v.AppName)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	model, err := permission.New(permission.DefaultTiers(cfg.OwnerID, cfg.DeveloperIDs)...)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid permission tiers")
	}
	registry := command.NewRegistry(model, command.WithOverrides(command.OverrideFile(cfg.OverridesPath)))
	if errs := registry.LoadAll(commands.All()); len(errs) > 0 {
		log.Warn().Int("failed", len(errs)).Msg("Some commands failed to load and were skipped")
	}
	log.Info().Int("entries", registry.Len()).Msg("Commands loaded")

	store, err := storage.New(cfg.StoragePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open storage")
	}
	defer store.Close()

	auditLog, err := audit.Open(cfg.AuditDBPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open audit log")
	}
	defer auditLog.Close()

	collector := metrics.New()
	if cfg.MetricsAddr != "" {
		go func() {
			if err := collector.Serve(ctx, cfg.MetricsAddr); err != nil {
				log.Error().Err(err).Msg("Metrics server stopped")
			}
		}()
	}

	players := music.NewManager(
		music.WithDefaults(func(guildID string) (int, music.RepeatMode) {
			s, err := store.Settings(guildID)
			if err != nil {
				log.Warn().Err(err).Str("guild", guildID).Msg("Falling back to default player settings")
				s = storage.DefaultSettings(guildID)
			}
			return s.Volume, music.RepeatMode(s.RepeatMode)
		}),
		music.WithStatusListener(func(guildID string, status music.PlayerStatus) {
			log.Debug().Str("guild", guildID).Msgf("%s %s", status.StringEmoji(), status)
		}),
	)
	defer players.Close()

	bot, err := discord.New(discord.Options{Config: cfg, Registry: registry, Music: players})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create Discord bot")
	}

	cooldowns := throttle.New(throttle.WithDebug(cfg.DebugThrottling))
	defer cooldowns.Close()

	env := &command.Env{
		Registry:      registry,
		Settings:      store,
		Music:         players,
		Votes:         music.NewVoteSkip(),
		Voice:         bot.Voice(),
		Deployer:      bot,
		Audit:         auditLog,
		Cooldowns:     cooldowns,
		ClientID:      cfg.ClientID,
		TestGuildID:   cfg.TestGuildID,
		SupportInvite: cfg.SupportServerInvite,
		EmbedColor:    discord.EmbedColor,
	}
	dispatcher, err := dispatch.New(dispatch.Options{
		Registry:   registry,
		Platform:   bot.Platform(),
		Env:        env,
		Throttle:   cooldowns,
		BypassTier: cfg.ThrottleBypass,
		Metrics:    collector,
		Recorder:   auditLog,
		Debug:      cfg.DebugInteractions,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create dispatcher")
	}

	scheduler := cron.New()
	if _, err := scheduler.AddFunc("@every 1h", func() {
		n, err := auditLog.Prune(ctx, time.Now().Add(-cfg.AuditRetain))
		if err != nil {
			log.Error().Err(err).Msg("Failed to prune audit log")
			return
		}
		log.Debug().Int64("rows", n).Msg("Audit log pruned")
	}); err != nil {
		log.Fatal().Err(err).Msg("Failed to schedule audit pruning")
	}
	if _, err := scheduler.AddFunc("@every 5m", func() {
		if err := store.Flush(); err != nil {
			log.Error().Err(err).Msg("Failed to flush storage")
		}
	}); err != nil {
		log.Fatal().Err(err).Msg("Failed to schedule storage flush")
	}
	scheduler.Start()
	defer scheduler.Stop()

	errCh := make(chan error, 1)
	go func() {
		if err := bot.Run(ctx, dispatcher); err != nil {
			errCh <- err
		}
		close(errCh)
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	select {
	case s := <-sig:
		log.Info().Msgf("Received signal %s, shutting down...", s)
		cancel()
	case err := <-errCh:
		if err != nil {
			log.Error().Err(err).Msg("Discord bot error")
		}
		cancel()
	case <-ctx.Done():
	}

	log.Info().Msg("Discord bot exited cleanly")
}
