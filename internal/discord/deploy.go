package discord

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"net/http"
	"slices"
	"strings"
	"sync"

	"server-tempo/internal/command"
	"server-tempo/pkg/jobmgr"
	"server-tempo/pkg/retrylimit"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"
)

// ScopeGlobal names the global command scope in the hash cache and job names.
// Every other scope is a guild id.
const ScopeGlobal = "global"

// commandAPI is the part of *discordgo.Session deployment needs.
type commandAPI interface {
	ApplicationCommandBulkOverwrite(appID, guildID string, commands []*discordgo.ApplicationCommand, options ...discordgo.RequestOption) ([]*discordgo.ApplicationCommand, error)
}

// DeployOptions configures a Deployer.
type DeployOptions struct {
	AppID       string
	TestGuildID string
	CacheDir    string

	// Retry overrides the retry policy used for every API call.
	Retry *retrylimit.RetryConfig
}

// Deployer syncs registered commands with the Discord API. Enabled global
// commands go to the global scope, the rest to the test guild. A scope is
// only overwritten when its definitions changed since the last deploy.
type Deployer struct {
	api       commandAPI
	registry  *command.Registry
	testGuild string
	cache     hashCache
	limiter   *retrylimit.AdaptiveLimiter
	retry     retrylimit.RetryConfig
	jobs      *jobmgr.Manager

	mu    sync.RWMutex
	appID string
}

// NewDeployer returns a Deployer writing its hash cache below opts.CacheDir.
func NewDeployer(api commandAPI, registry *command.Registry, opts DeployOptions) *Deployer {
	retry := retrylimit.DefaultRetryConfig()
	retry.MaxAttempts = 5
	if opts.Retry != nil {
		retry = *opts.Retry
	}
	return &Deployer{
		api:       api,
		registry:  registry,
		testGuild: opts.TestGuildID,
		cache:     hashCache{dir: opts.CacheDir},
		limiter:   retrylimit.NewAdaptiveLimiter(5, 1, 20, 1, 0.5),
		retry:     retry,
		jobs:      jobmgr.NewManager(reportJob),
		appID:     opts.AppID,
	}
}

func reportJob(msg string) {
	if rest, ok := strings.CutPrefix(msg, "error:"); ok {
		log.Error().Str("job", rest).Msg("Deploy job failed")
		return
	}
	log.Debug().Str("job", msg).Msg("Deploy job")
}

// SetAppID sets the application id when it was not configured.
func (d *Deployer) SetAppID(id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.appID == "" {
		d.appID = id
	}
}

func (d *Deployer) applicationID() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.appID
}

// Plan groups the API definitions of enabled commands by scope. Aliases are
// deployed as commands of their own.
func (d *Deployer) Plan() map[string][]*discordgo.ApplicationCommand {
	plan := map[string][]*discordgo.ApplicationCommand{ScopeGlobal: {}}
	if d.testGuild != "" {
		plan[d.testGuild] = []*discordgo.ApplicationCommand{}
	}

	skipped := 0
	for _, ns := range []command.Namespace{command.Commands, command.ContextActions} {
		for _, desc := range d.registry.All(ns) {
			def := desc.Definition()
			if def == nil || !desc.Enabled {
				continue
			}
			scope := ScopeGlobal
			if !desc.Global {
				if d.testGuild == "" {
					skipped++
					continue
				}
				scope = d.testGuild
			}
			plan[scope] = append(plan[scope], def)
		}
	}
	if skipped > 0 {
		log.Warn().Int("commands", skipped).Msg("TEST_SERVER_GUILD_ID is not set, test server commands are not deployed")
	}
	return plan
}

// Deploy overwrites the commands of one scope. It reports whether anything
// was sent; unchanged scopes are skipped unless force is set.
func (d *Deployer) Deploy(ctx context.Context, scope string, force bool) (bool, error) {
	defs, ok := d.Plan()[scope]
	if !ok {
		return false, fmt.Errorf("unknown deploy scope %q", scope)
	}

	hashes := hashAll(defs)
	if !force && maps.Equal(hashes, d.cache.load(scope)) {
		log.Debug().Str("scope", scope).Msg("Application commands unchanged")
		return false, nil
	}

	if err := d.overwrite(ctx, scope, defs); err != nil {
		return false, fmt.Errorf("deploy %s commands: %w", scope, err)
	}
	if err := d.cache.save(scope, hashes); err != nil {
		log.Warn().Err(err).Str("scope", scope).Msg("Failed to write command hash cache")
	}
	log.Info().Str("scope", scope).Int("commands", len(defs)).Msg("Application commands deployed")
	return true, nil
}

// Clear removes every command from a scope, e.g. a blacklisted guild.
func (d *Deployer) Clear(ctx context.Context, scope string) error {
	if err := d.overwrite(ctx, scope, nil); err != nil {
		return fmt.Errorf("clear %s commands: %w", scope, err)
	}
	if err := d.cache.save(scope, map[string]string{}); err != nil {
		log.Warn().Err(err).Str("scope", scope).Msg("Failed to write command hash cache")
	}
	log.Info().Str("scope", scope).Msg("Application commands removed")
	return nil
}

// Scopes resolves a refresh target: "" or "all" for every scope, "global",
// "test" for the test guild, or a guild id.
func (d *Deployer) Scopes(target string) ([]string, error) {
	plan := d.Plan()
	switch t := strings.ToLower(strings.TrimSpace(target)); t {
	case "", "all":
		scopes := slices.Collect(maps.Keys(plan))
		slices.Sort(scopes)
		return scopes, nil
	case "test":
		if d.testGuild == "" {
			return nil, errors.New("no test server configured")
		}
		return []string{d.testGuild}, nil
	default:
		if _, ok := plan[t]; !ok {
			return nil, fmt.Errorf("unknown deploy scope %q", target)
		}
		return []string{t}, nil
	}
}

// Start deploys the scopes named by target in background jobs named
// "deploy:<scope>".
func (d *Deployer) Start(ctx context.Context, target string, force bool) error {
	scopes, err := d.Scopes(target)
	if err != nil {
		return err
	}
	var errs []error
	for _, scope := range scopes {
		err := d.jobs.StartAsync(ctx, "deploy:"+scope, func(ctx context.Context) error {
			_, err := d.Deploy(ctx, scope, force)
			return err
		})
		if err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Wait blocks until running deploy jobs finish.
func (d *Deployer) Wait() { d.jobs.Wait() }

// Stop cancels running deploy jobs.
func (d *Deployer) Stop() { d.jobs.StopAll() }

func (d *Deployer) overwrite(ctx context.Context, scope string, defs []*discordgo.ApplicationCommand) error {
	appID := d.applicationID()
	if appID == "" {
		return errors.New("application id is unknown")
	}
	guildID := scope
	if scope == ScopeGlobal {
		guildID = ""
	}
	if defs == nil {
		defs = []*discordgo.ApplicationCommand{}
	}
	return retrylimit.WithRetryConfig(ctx, func() error {
		_, err := d.api.ApplicationCommandBulkOverwrite(appID, guildID, defs)
		return classifyREST(err)
	}, d.limiter, d.retry)
}

// restStatus exposes the status code of a REST error to retrylimit.
type restStatus struct {
	err *discordgo.RESTError
}

func (e restStatus) Error() string   { return e.err.Error() }
func (e restStatus) Unwrap() error   { return e.err }
func (e restStatus) StatusCode() int { return e.err.Response.StatusCode }

// classifyREST keeps 429 and 5xx responses retryable and makes every other
// REST failure fatal.
func classifyREST(err error) error {
	if err == nil {
		return nil
	}
	var rest *discordgo.RESTError
	if !errors.As(err, &rest) || rest.Response == nil {
		return err
	}
	code := rest.Response.StatusCode
	if code == http.StatusTooManyRequests || code >= http.StatusInternalServerError {
		return restStatus{err: rest}
	}
	return retrylimit.Fatal(restStatus{err: rest})
}
