package version

// AppName is the bot name used in logs and embeds.
const AppName = "Tempo"

// Version is overridden at build time with -ldflags "-X server-tempo/internal/version.Version=...".
var Version = "dev"
