package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jonny/instance-bot/internal/domain/model"
	"github.com/jonny/instance-bot/internal/domain/port/outbound"
	"github.com/jonny/instance-bot/pkg/version"
)

type registryFactory func(token, applicationID string) (outbound.CommandRegistry, error)

type rootOptions struct {
	guildID       string
	token         string
	applicationID string
}

func (o *rootOptions) scope() model.CommandScope {
	return model.CommandScope{GuildID: strings.TrimSpace(o.guildID)}
}

func newRootCmd(newRegistry registryFactory, getenv func(string) string) *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:          "registercmds",
		Short:        "Manage the bot's Discord slash commands",
		Version:      version.String(),
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&opts.guildID, "guild-id", "", "Guild ID; commands are global when empty")
	root.PersistentFlags().StringVar(&opts.token, "token", getenv("DISCORD_BOT_TOKEN"), "Bot token (default $DISCORD_BOT_TOKEN)")
	root.PersistentFlags().StringVar(&opts.applicationID, "app-id", getenv("DISCORD_APPLICATION_ID"), "Application ID (default $DISCORD_APPLICATION_ID)")

	registry := func() (outbound.CommandRegistry, error) {
		if opts.token == "" {
			return nil, errors.New("bot token is required: set DISCORD_BOT_TOKEN or pass --token")
		}
		if opts.applicationID == "" {
			return nil, errors.New("application id is required: set DISCORD_APPLICATION_ID or pass --app-id")
		}
		return newRegistry(opts.token, opts.applicationID)
	}

	root.AddCommand(
		newRegisterCmd(opts, registry),
		newListCmd(opts, registry),
		newDeleteCmd(opts, registry),
	)
	return root
}

func newRegisterCmd(opts *rootOptions, registry func() (outbound.CommandRegistry, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "register",
		Short: "Register the start, stop and status commands",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			reg, err := registry()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			scope := opts.scope()
			defs := model.DefaultCommands()

			fmt.Fprintf(out, "Registering %d commands (%s):\n", len(defs), scope)
			for _, d := range defs {
				fmt.Fprintf(out, "  - /%s: %s\n", d.Name, d.Description)
			}
			fmt.Fprintln(out)

			result := reg.Register(cmd.Context(), scope, defs)
			printRegisterResult(out, defs, result)

			if !result.OK() {
				return fmt.Errorf("registered %d/%d commands", len(defs)-len(result.Failed), len(defs))
			}
			fmt.Fprintln(out, "All commands registered.")
			if scope.IsGlobal() {
				fmt.Fprintln(out, "Note: global commands can take up to an hour to propagate.")
			}
			return nil
		},
	}
}

func printRegisterResult(out io.Writer, defs []model.CommandDefinition, result outbound.RegisterResult) {
	for _, d := range defs {
		if err, failed := result.Failed[d.Name]; failed {
			fmt.Fprintf(out, "FAIL /%s: %v\n", d.Name, err)
			continue
		}
		fmt.Fprintf(out, "ok   /%s\n", d.Name)
	}
}

func newListCmd(opts *rootOptions, registry func() (outbound.CommandRegistry, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered commands",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			reg, err := registry()
			if err != nil {
				return err
			}
			cmds, err := reg.List(cmd.Context(), opts.scope())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(cmds) == 0 {
				fmt.Fprintln(out, "No commands registered.")
				return nil
			}
			fmt.Fprintf(out, "Registered commands (%d):\n", len(cmds))
			for _, c := range cmds {
				desc := c.Description
				if desc == "" {
					desc = "(no description)"
				}
				fmt.Fprintf(out, "  - /%s: %s (ID: %s)\n", c.Name, desc, c.ID)
			}
			return nil
		},
	}
}

func newDeleteCmd(opts *rootOptions, registry func() (outbound.CommandRegistry, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "delete COMMAND_ID",
		Short: "Delete a registered command by ID",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := registry()
			if err != nil {
				return err
			}
			if err := reg.Delete(cmd.Context(), opts.scope(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted command %s.\n", args[0])
			return nil
		},
	}
}
