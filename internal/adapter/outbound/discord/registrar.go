package discord

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/jonny/instance-bot/internal/domain/model"
	"github.com/jonny/instance-bot/internal/domain/port/outbound"
	"github.com/jonny/instance-bot/pkg/version"
)

// Session is the subset of *discordgo.Session used for command management.
type Session interface {
	ApplicationCommandCreate(appID, guildID string, cmd *discordgo.ApplicationCommand, options ...discordgo.RequestOption) (*discordgo.ApplicationCommand, error)
	ApplicationCommands(appID, guildID string, options ...discordgo.RequestOption) ([]*discordgo.ApplicationCommand, error)
	ApplicationCommandDelete(appID, cmdID, guildID string, options ...discordgo.RequestOption) error
}

var _ Session = (*discordgo.Session)(nil)

// Config holds Discord REST credentials.
type Config struct {
	BotToken string
	Timeout  time.Duration
}

// NewSession creates a REST-only discordgo session; no gateway connection is opened.
func NewSession(cfg Config) (*discordgo.Session, error) {
	s, err := discordgo.New("Bot " + cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("creating discord session: %w", err)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	s.Client = &http.Client{Timeout: timeout}
	s.UserAgent = version.UserAgent()
	return s, nil
}

// Registrar implements outbound.CommandRegistry against the Discord API.
type Registrar struct {
	session       Session
	applicationID string
}

func NewRegistrar(session Session, applicationID string) *Registrar {
	return &Registrar{session: session, applicationID: applicationID}
}

var _ outbound.CommandRegistry = (*Registrar)(nil)

// Register creates each command individually so one failure does not hide
// the result of the others.
func (r *Registrar) Register(ctx context.Context, scope model.CommandScope, defs []model.CommandDefinition) outbound.RegisterResult {
	result := outbound.RegisterResult{Failed: make(map[model.CommandName]error)}
	for _, def := range defs {
		cmd := &discordgo.ApplicationCommand{
			Name:        string(def.Name),
			Description: def.Description,
			Type:        discordgo.ApplicationCommandType(def.Type),
		}
		created, err := r.session.ApplicationCommandCreate(r.applicationID, scope.GuildID, cmd, discordgo.WithContext(ctx))
		if err != nil {
			result.Failed[def.Name] = fmt.Errorf("registering /%s: %w", def.Name, err)
			continue
		}
		result.Registered = append(result.Registered, toRegistered(created))
	}
	return result
}

func (r *Registrar) List(ctx context.Context, scope model.CommandScope) ([]model.RegisteredCommand, error) {
	cmds, err := r.session.ApplicationCommands(r.applicationID, scope.GuildID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("listing %s commands: %w", scope, err)
	}
	out := make([]model.RegisteredCommand, 0, len(cmds))
	for _, c := range cmds {
		out = append(out, toRegistered(c))
	}
	return out, nil
}

func (r *Registrar) Delete(ctx context.Context, scope model.CommandScope, commandID string) error {
	if commandID == "" {
		return fmt.Errorf("deleting command: empty command id")
	}
	if err := r.session.ApplicationCommandDelete(r.applicationID, commandID, scope.GuildID, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("deleting %s command %s: %w", scope, commandID, err)
	}
	return nil
}

func toRegistered(c *discordgo.ApplicationCommand) model.RegisteredCommand {
	if c == nil {
		return model.RegisteredCommand{}
	}
	return model.RegisteredCommand{ID: c.ID, Name: c.Name, Description: c.Description}
}
