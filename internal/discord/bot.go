// Package discord connects the gateway session to the dispatcher and keeps
// the application commands deployed.
package discord

import (
	"context"
	"fmt"
	"slices"

	"server-tempo/internal/command"
	"server-tempo/internal/config"
	"server-tempo/internal/dispatch"
	"server-tempo/internal/music"
	"server-tempo/pkg/util"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"
)

// Handler turns an interaction into exactly one outcome.
type Handler interface {
	Dispatch(ctx context.Context, ev *discordgo.InteractionCreate, resp command.Responder) dispatch.Result
}

// Options wires a Bot.
type Options struct {
	Config   *config.Config
	Registry *command.Registry
	Music    music.Engine
}

// Bot is a Discord bot
type Bot struct {
	cfg      *config.Config
	dg       *discordgo.Session
	platform *platform
	deployer *Deployer
	events   *eventBus
	music    music.Engine

	ctx     context.Context
	handler Handler
}

// New creates the session without connecting.
func New(opts Options) (*Bot, error) {
	if opts.Config == nil || opts.Registry == nil {
		return nil, fmt.Errorf("discord: config and registry are required")
	}
	dg, err := discordgo.New("Bot " + opts.Config.DiscordToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	dg.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildVoiceStates

	return &Bot{
		cfg:      opts.Config,
		dg:       dg,
		platform: &platform{state: dg.State, rest: dg},
		deployer: NewDeployer(dg, opts.Registry, DeployOptions{
			AppID:       opts.Config.ClientID,
			TestGuildID: opts.Config.TestGuildID,
			CacheDir:    opts.Config.CommandCache,
		}),
		events: newEventBus(16),
		music:  opts.Music,
		ctx:    context.Background(),
	}, nil
}

// Platform answers the dispatcher's guild and channel lookups.
func (b *Bot) Platform() dispatch.Platform { return b.platform }

// Voice answers voice state lookups for music commands.
func (b *Bot) Voice() command.Voice { return b.platform }

// RefreshCommands queues a command deployment. Target is "all", "global",
// "test" or a guild id.
func (b *Bot) RefreshCommands(guildID, target string) {
	b.events.Publish(SystemEvent{Type: SystemEventRefreshCommands, GuildID: guildID, Target: target})
}

// Run connects and routes interactions to h until ctx is done.
func (b *Bot) Run(ctx context.Context, h Handler) error {
	b.ctx = ctx
	b.handler = h

	b.dg.AddHandler(b.onReady)
	b.dg.AddHandler(b.onGuildCreate)
	b.dg.AddHandler(b.onGuildDelete)
	b.dg.AddHandler(b.onVoiceStateUpdate)
	b.dg.AddHandler(b.onInteractionCreate)

	if err := b.dg.Open(); err != nil {
		return fmt.Errorf("failed to open Discord session: %w", err)
	}
	defer b.dg.Close()

	go b.handleSystemEvents(ctx)

	<-ctx.Done()
	log.Info().Msg("❎ Shutdown signal received. Cleaning up...")
	b.deployer.Stop()
	return nil
}

func (b *Bot) onReady(s *discordgo.Session, r *discordgo.Ready) {
	if r.Application != nil {
		b.deployer.SetAppID(r.Application.ID)
	}
	b.deployer.SetAppID(r.User.ID)

	var blacklisted []string
	for _, g := range r.Guilds {
		if b.isGuildBlacklisted(g.ID) {
			blacklisted = append(blacklisted, g.ID)
		}
	}
	_ = util.Parallel(b.ctx, blacklisted, 2, func(_ context.Context, guildID string) error {
		b.leaveGuild(s, guildID)
		return nil
	})

	if b.cfg.RefreshCommands {
		if err := b.deployer.Start(b.ctx, "all", false); err != nil {
			log.Error().Err(err).Msg("Failed to start command deployment")
		}
	} else {
		log.Info().Msg("Skipping application (/) commands refresh")
	}

	log.Info().Str("user", r.User.Username).Int("guilds", len(r.Guilds)).Msg("✅ Discord bot is running")
}

func (b *Bot) onGuildCreate(s *discordgo.Session, g *discordgo.GuildCreate) {
	if b.isGuildBlacklisted(g.ID) {
		b.leaveGuild(s, g.ID)
		return
	}
	log.Info().Str("guild", g.ID).Str("name", g.Name).Msg("Guild available")
}

func (b *Bot) onGuildDelete(_ *discordgo.Session, g *discordgo.GuildDelete) {
	if g.Unavailable {
		log.Warn().Str("guild", g.ID).Msg("Guild became unavailable")
		return
	}
	log.Info().Str("guild", g.ID).Msg("Bot removed from guild")
	if b.music != nil {
		b.music.Destroy(g.ID)
	}
}

// onVoiceStateUpdate drops the guild's player when the bot is disconnected.
func (b *Bot) onVoiceStateUpdate(s *discordgo.Session, v *discordgo.VoiceStateUpdate) {
	if b.music == nil || s.State.User == nil || v.UserID != s.State.User.ID || v.ChannelID != "" {
		return
	}
	if _, ok := b.music.Lookup(v.GuildID); ok {
		log.Info().Str("guild", v.GuildID).Msg("Disconnected from voice, destroying player")
		b.music.Destroy(v.GuildID)
	}
}

func (b *Bot) onInteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if b.handler == nil {
		return
	}
	b.handler.Dispatch(b.ctx, i, newResponder(s, i.Interaction))
}

func (b *Bot) handleSystemEvents(ctx context.Context) {
	for {
		select {
		case evt := <-b.events.Events():
			switch evt.Type {
			case SystemEventRefreshCommands:
				b.handleRefreshCommands(evt)
			}
		case <-ctx.Done():
			return
		}
	}
}

func (b *Bot) handleRefreshCommands(evt SystemEvent) {
	log.Info().Str("guild", evt.GuildID).Str("target", evt.Target).Msg("Refreshing application commands")
	if evt.Target != "" && b.isGuildBlacklisted(evt.Target) {
		if err := b.deployer.Clear(b.ctx, evt.Target); err != nil {
			log.Error().Err(err).Str("guild", evt.Target).Msg("Failed to remove commands from blacklisted guild")
		}
		return
	}
	if err := b.deployer.Start(b.ctx, evt.Target, true); err != nil {
		log.Error().Err(err).Str("target", evt.Target).Msg("Failed to start command deployment")
	}
}

func (b *Bot) leaveGuild(s *discordgo.Session, guildID string) {
	log.Info().Str("guild", guildID).Msg("Leaving blacklisted guild")
	if err := s.GuildLeave(guildID); err != nil {
		log.Error().Err(err).Str("guild", guildID).Msg("Failed to leave guild")
	}
}

func (b *Bot) isGuildBlacklisted(guildID string) bool {
	return slices.Contains(b.cfg.DiscordGuildBlacklist, guildID)
}
