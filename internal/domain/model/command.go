package model

import "strings"

type CommandName string

const (
	CommandStart  CommandName = "start"
	CommandStop   CommandName = "stop"
	CommandStatus CommandName = "status"
)

// ParseCommandName matches the exact registered name; the chat platform
// always sends command names in lowercase.
func ParseCommandName(name string) (CommandName, bool) {
	switch c := CommandName(name); c {
	case CommandStart, CommandStop, CommandStatus:
		return c, true
	}
	return "", false
}

// CommandTypeChatInput is the registry type for slash commands.
const CommandTypeChatInput = 1

type CommandDefinition struct {
	Name        CommandName
	Description string
	Type        int
}

// DefaultCommands is the fixed command set registered with the chat platform.
func DefaultCommands() []CommandDefinition {
	return []CommandDefinition{
		{Name: CommandStart, Description: "Start the game server", Type: CommandTypeChatInput},
		{Name: CommandStop, Description: "Stop the game server", Type: CommandTypeChatInput},
		{Name: CommandStatus, Description: "Show the game server status", Type: CommandTypeChatInput},
	}
}

// RegisteredCommand is a command as reported back by the registry.
type RegisteredCommand struct {
	ID          string
	Name        string
	Description string
}

// CommandScope selects guild or global registration. An empty GuildID means
// global.
type CommandScope struct {
	GuildID string
}

func (s CommandScope) IsGlobal() bool {
	return strings.TrimSpace(s.GuildID) == ""
}

func (s CommandScope) String() string {
	if s.IsGlobal() {
		return "global"
	}
	return "guild " + s.GuildID
}
