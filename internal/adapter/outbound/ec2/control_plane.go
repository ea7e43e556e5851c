package ec2

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsec2 "github.com/aws/aws-sdk-go-v2/service/ec2"

	"github.com/jonny/instance-bot/internal/domain/model"
	"github.com/jonny/instance-bot/internal/domain/port/outbound"
	"github.com/jonny/instance-bot/pkg/metrics"
)

// API is the subset of the EC2 client used here; *ec2.Client satisfies it.
type API interface {
	DescribeInstances(ctx context.Context, params *awsec2.DescribeInstancesInput, optFns ...func(*awsec2.Options)) (*awsec2.DescribeInstancesOutput, error)
	StartInstances(ctx context.Context, params *awsec2.StartInstancesInput, optFns ...func(*awsec2.Options)) (*awsec2.StartInstancesOutput, error)
	StopInstances(ctx context.Context, params *awsec2.StopInstancesInput, optFns ...func(*awsec2.Options)) (*awsec2.StopInstancesOutput, error)
}

var _ API = (*awsec2.Client)(nil)

// Config holds the target instance and per-call timeout.
type Config struct {
	InstanceID  string
	CallTimeout time.Duration
}

// ControlPlane implements outbound.ControlPlane for one EC2 instance.
type ControlPlane struct {
	api     API
	cfg     Config
	metrics *metrics.Metrics
}

// NewControlPlane creates a ControlPlane. m may be nil.
func NewControlPlane(api API, cfg Config, m *metrics.Metrics) *ControlPlane {
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = 10 * time.Second
	}
	return &ControlPlane{api: api, cfg: cfg, metrics: m}
}

var _ outbound.ControlPlane = (*ControlPlane)(nil)

// DescribeInstance queries the instance's current state and public address.
func (c *ControlPlane) DescribeInstance(ctx context.Context) (model.Instance, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.CallTimeout)
	defer cancel()

	started := time.Now()
	out, err := c.api.DescribeInstances(ctx, &awsec2.DescribeInstancesInput{
		InstanceIds: []string{c.cfg.InstanceID},
	})
	c.metrics.ObserveControlPlane("describe", started, err)
	if err != nil {
		return model.Instance{}, fmt.Errorf("describing instance %s: %w", c.cfg.InstanceID, err)
	}

	for _, reservation := range out.Reservations {
		for _, inst := range reservation.Instances {
			if id := aws.ToString(inst.InstanceId); id != "" && id != c.cfg.InstanceID {
				continue
			}
			rawState := ""
			if inst.State != nil {
				rawState = string(inst.State.Name)
			}
			return model.NewInstance(c.cfg.InstanceID, rawState, aws.ToString(inst.PublicIpAddress)), nil
		}
	}
	return model.Instance{}, fmt.Errorf("describing instance %s: %w", c.cfg.InstanceID, model.ErrInstanceNotFound)
}

// StartInstance requests a start and returns without waiting for boot.
func (c *ControlPlane) StartInstance(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.CallTimeout)
	defer cancel()

	started := time.Now()
	_, err := c.api.StartInstances(ctx, &awsec2.StartInstancesInput{
		InstanceIds: []string{c.cfg.InstanceID},
	})
	c.metrics.ObserveControlPlane("start", started, err)
	if err != nil {
		return fmt.Errorf("starting instance %s: %w", c.cfg.InstanceID, err)
	}
	return nil
}

// StopInstance requests a stop and returns without waiting for shutdown.
func (c *ControlPlane) StopInstance(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.CallTimeout)
	defer cancel()

	started := time.Now()
	_, err := c.api.StopInstances(ctx, &awsec2.StopInstancesInput{
		InstanceIds: []string{c.cfg.InstanceID},
	})
	c.metrics.ObserveControlPlane("stop", started, err)
	if err != nil {
		return fmt.Errorf("stopping instance %s: %w", c.cfg.InstanceID, err)
	}
	return nil
}

// HealthCheck verifies the instance can be described with the current credentials.
func (c *ControlPlane) HealthCheck(ctx context.Context) error {
	if _, err := c.DescribeInstance(ctx); err != nil {
		return fmt.Errorf("ec2 health check failed: %w", err)
	}
	return nil
}
