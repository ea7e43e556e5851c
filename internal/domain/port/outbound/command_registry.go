package outbound

import (
	"context"

	"github.com/jonny/instance-bot/internal/domain/model"
)

// RegisterResult reports the outcome of registering each command.
type RegisterResult struct {
	Registered []model.RegisteredCommand
	Failed     map[model.CommandName]error
}

func (r RegisterResult) OK() bool {
	return len(r.Failed) == 0
}

// CommandRegistry manages slash commands on the chat platform.
type CommandRegistry interface {
	Register(ctx context.Context, scope model.CommandScope, defs []model.CommandDefinition) RegisterResult
	List(ctx context.Context, scope model.CommandScope) ([]model.RegisteredCommand, error)
	Delete(ctx context.Context, scope model.CommandScope, commandID string) error
}
