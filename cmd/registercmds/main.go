// Command registercmds manages the bot's slash commands on Discord.
//
//	export DISCORD_BOT_TOKEN=...
//	export DISCORD_APPLICATION_ID=...
//	registercmds register [--guild-id ID]
//	registercmds list     [--guild-id ID]
//	registercmds delete   [--guild-id ID] COMMAND_ID
package main

import (
	"os"

	"github.com/jonny/instance-bot/internal/adapter/outbound/discord"
	"github.com/jonny/instance-bot/internal/domain/port/outbound"
)

func main() {
	root := newRootCmd(discordRegistry, os.Getenv)
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func discordRegistry(token, applicationID string) (outbound.CommandRegistry, error) {
	session, err := discord.NewSession(discord.Config{BotToken: token})
	if err != nil {
		return nil, err
	}
	return discord.NewRegistrar(session, applicationID), nil
}
