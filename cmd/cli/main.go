package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"server-tempo/internal/audit"
	"server-tempo/internal/command"
	"server-tempo/internal/commands"
	_ "server-tempo/internal/commands/contextmenu"
	_ "server-tempo/internal/commands/developer"
	_ "server-tempo/internal/commands/music"
	_ "server-tempo/internal/commands/system"
	"server-tempo/internal/config"
	"server-tempo/internal/logger"
	"server-tempo/internal/permission"
	"server-tempo/pkg/util"

	"github.com/jessevdk/go-flags"
)

type options struct {
	Overrides string `long:"overrides" description:"Command overrides file, defaults to COMMAND_OVERRIDES_PATH"`
	Verbose   bool   `short:"v" long:"verbose" description:"Log at debug level"`
}

var opts options

// loadRegistry builds every command source against the configured tiers and
// overrides.
func loadRegistry() (*command.Registry, []error, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	model, err := permission.New(permission.DefaultTiers(cfg.OwnerID, cfg.DeveloperIDs)...)
	if err != nil {
		return nil, nil, err
	}
	path := cfg.OverridesPath
	if opts.Overrides != "" {
		path = opts.Overrides
	}
	reg := command.NewRegistry(model, command.WithOverrides(command.OverrideFile(path)))
	return reg, reg.LoadAll(commands.All()), nil
}

type listCommand struct {
	Category string `short:"c" long:"category" description:"Only list commands of this category"`
}

func (c *listCommand) Execute([]string) error {
	reg, _, err := loadRegistry()
	if err != nil {
		return err
	}
	model := reg.Permissions()

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tKIND\tCATEGORY\tLEVEL\tCOOLDOWN\tALIASES\tSCOPE")
	for _, ns := range command.Priority {
		for _, d := range reg.All(ns) {
			if d.IsAlias || (c.Category != "" && d.Category != c.Category) {
				continue
			}
			scope := "test"
			if d.Global {
				scope = "global"
			}
			if !d.Enabled {
				scope = "disabled"
			}
			cooldown := "-"
			if d.Cooldown.Active() {
				cooldown = fmt.Sprintf("%d/%s per %s", d.Cooldown.Usages, d.Cooldown.Window, d.Cooldown.Scope)
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n", d.Name, d.Kind, d.Category, model.Name(d.Level), cooldown, strings.Join(d.Aliases, ","), scope)
		}
	}
	return w.Flush()
}

type validateCommand struct{}

func (validateCommand) Execute([]string) error {
	reg, errs, err := loadRegistry()
	if err != nil {
		return err
	}
	for _, e := range errs {
		fmt.Fprintln(os.Stderr, "✗", e)
	}
	if len(errs) > 0 {
		return fmt.Errorf("%d of %d commands failed validation", len(errs), len(commands.All()))
	}
	fmt.Printf("✓ %d commands valid (%d registry entries)\n", len(commands.All()), reg.Len())
	return nil
}

type auditCommand struct {
	Guild string `short:"g" long:"guild" description:"Guild id" required:"true"`
	Limit int    `short:"n" long:"limit" description:"Number of rows" default:"20"`
	DB    string `long:"db" description:"Audit database, defaults to AUDIT_DB_PATH"`
}

func (c *auditCommand) Execute([]string) error {
	path := c.DB
	if path == "" {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		path = cfg.AuditDBPath
	}
	store, err := audit.Open(path)
	if err != nil {
		return err
	}
	defer store.Close()

	entries, err := store.Recent(context.Background(), c.Guild, c.Limit)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tUSER\tCOMMAND\tOUTCOME\tREASON\tTRACE")
	for _, e := range entries {
		name := e.Command
		if e.AliasOf != "" {
			name += " (" + e.AliasOf + ")"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", util.FormatDate(e.CreatedAt.Local(), "YYYY-MM-DD hh:mm:ss"), e.UserID, name, e.Outcome, e.Reason, e.Trace)
	}
	return w.Flush()
}

func main() {
	parser := flags.NewParser(&opts, flags.Default)
	parser.CommandHandler = func(cmd flags.Commander, args []string) error {
		level := "warn"
		if opts.Verbose {
			level = "debug"
		}
		logger.Setup(logger.Options{Level: level})
		if cmd == nil {
			return nil
		}
		return cmd.Execute(args)
	}

	mustAdd := func(name, short string, data any) {
		if _, err := parser.AddCommand(name, short, "", data); err != nil {
			panic(err)
		}
	}
	mustAdd("list", "List the registered commands", &listCommand{})
	mustAdd("validate", "Build every command against the configured tiers and overrides", &validateCommand{})
	mustAdd("audit", "Print recent audit log rows of a guild", &auditCommand{})

	if _, err := parser.Parse(); err != nil {
		var ferr *flags.Error
		if errors.As(err, &ferr) && ferr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}
}
