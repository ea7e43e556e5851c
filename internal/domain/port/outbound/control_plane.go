package outbound

import (
	"context"

	"github.com/jonny/instance-bot/internal/domain/model"
)

// ControlPlane abstracts the cloud provider's management API for the single
// configured instance.
type ControlPlane interface {
	// DescribeInstance returns a fresh snapshot. It returns an error wrapping
	// model.ErrInstanceNotFound when the provider reports no such instance.
	DescribeInstance(ctx context.Context) (model.Instance, error)
	StartInstance(ctx context.Context) error
	StopInstance(ctx context.Context) error
	HealthCheck(ctx context.Context) error
}
