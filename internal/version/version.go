package version

// AppName is the bot's display name.
const AppName = "Pollbot"

// Version is set at build time with -ldflags "-X .../internal/version.Version=...".
var Version = "dev"
