package inbound

import "context"

// CommandPort executes a chat command and returns the user-facing reply.
// Unknown names return model.ErrUnknownCommand.
type CommandPort interface {
	Execute(ctx context.Context, req CommandRequest) (CommandResponse, error)
}

type CommandRequest struct {
	Name          string
	InteractionID string
	GuildID       string
	UserID        string
}

type CommandResponse struct {
	Content string
	// Mutated is true when a start or stop call was issued.
	Mutated bool
}
