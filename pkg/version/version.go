package version

import "fmt"

// Set via -ldflags at build time.
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func String() string {
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildTime)
}

// UserAgent identifies this bot on outbound REST calls.
func UserAgent() string {
	return fmt.Sprintf("DiscordBot (https://github.com/jonny/instance-bot, %s)", Version)
}
