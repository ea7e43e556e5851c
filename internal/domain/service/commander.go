package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jonny/instance-bot/internal/domain/model"
	"github.com/jonny/instance-bot/internal/domain/port/inbound"
	"github.com/jonny/instance-bot/internal/domain/port/outbound"
)

// Commander implements the start, stop and status commands against a single
// instance. Every command re-queries the instance; nothing is cached.
type Commander struct {
	controlPlane outbound.ControlPlane
	logger       *slog.Logger
}

// NewCommander creates a Commander. A nil logger discards output.
func NewCommander(controlPlane outbound.ControlPlane, logger *slog.Logger) *Commander {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Commander{controlPlane: controlPlane, logger: logger}
}

var _ inbound.CommandPort = (*Commander)(nil)

// Execute implements inbound.CommandPort.
func (c *Commander) Execute(ctx context.Context, req inbound.CommandRequest) (inbound.CommandResponse, error) {
	name, ok := model.ParseCommandName(req.Name)
	if !ok {
		return inbound.CommandResponse{}, fmt.Errorf("%w: %q", model.ErrUnknownCommand, req.Name)
	}

	logger := c.logger.With("command", string(name), "interactionID", req.InteractionID, "userID", req.UserID)

	var (
		resp inbound.CommandResponse
		err  error
	)
	switch name {
	case model.CommandStart:
		resp, err = c.start(ctx, logger)
	case model.CommandStop:
		resp, err = c.stop(ctx, logger)
	case model.CommandStatus:
		resp, err = c.status(ctx)
	}
	if err != nil {
		return inbound.CommandResponse{}, fmt.Errorf("%s command: %w", name, err)
	}
	return resp, nil
}

func (c *Commander) start(ctx context.Context, logger *slog.Logger) (inbound.CommandResponse, error) {
	instance, err := c.controlPlane.DescribeInstance(ctx)
	if err != nil {
		return inbound.CommandResponse{}, err
	}

	if instance.State == model.InstanceStateRunning {
		logger.Info("start skipped, instance already running", "instanceID", instance.ID)
		return inbound.CommandResponse{Content: alreadyRunningMessage(instance)}, nil
	}

	if err := c.controlPlane.StartInstance(ctx); err != nil {
		return inbound.CommandResponse{}, err
	}
	logger.Info("start requested", "instanceID", instance.ID, "previousState", instance.DisplayState())
	return inbound.CommandResponse{Content: startingMessage, Mutated: true}, nil
}

func (c *Commander) stop(ctx context.Context, logger *slog.Logger) (inbound.CommandResponse, error) {
	instance, err := c.controlPlane.DescribeInstance(ctx)
	if err != nil {
		return inbound.CommandResponse{}, err
	}

	switch instance.State {
	case model.InstanceStateStopped:
		logger.Info("stop skipped, instance already stopped", "instanceID", instance.ID)
		return inbound.CommandResponse{Content: alreadyStoppedMessage}, nil
	case model.InstanceStateStopping:
		logger.Info("stop skipped, stop in progress", "instanceID", instance.ID)
		return inbound.CommandResponse{Content: stopInProgressMessage}, nil
	}

	if err := c.controlPlane.StopInstance(ctx); err != nil {
		return inbound.CommandResponse{}, err
	}
	logger.Info("stop requested", "instanceID", instance.ID, "previousState", instance.DisplayState())
	return inbound.CommandResponse{Content: stoppingMessage, Mutated: true}, nil
}

func (c *Commander) status(ctx context.Context) (inbound.CommandResponse, error) {
	instance, err := c.controlPlane.DescribeInstance(ctx)
	if err != nil {
		return inbound.CommandResponse{}, err
	}
	return inbound.CommandResponse{Content: statusMessage(instance)}, nil
}
