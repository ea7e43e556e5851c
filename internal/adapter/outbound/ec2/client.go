package ec2

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsec2 "github.com/aws/aws-sdk-go-v2/service/ec2"
)

// ClientConfig selects the region and retry budget for the EC2 client.
// Zero values defer to the SDK's default resolution chain.
type ClientConfig struct {
	Region      string
	MaxAttempts int
}

// NewClient builds an EC2 client from the default credential chain.
func NewClient(ctx context.Context, cfg ClientConfig) (*awsec2.Client, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithAppID("instance-bot"),
	}
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.MaxAttempts > 0 {
		opts = append(opts, awsconfig.WithRetryMaxAttempts(cfg.MaxAttempts))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}
	if awsCfg.Region == "" {
		return nil, fmt.Errorf("loading aws config: no region configured")
	}

	return awsec2.NewFromConfig(awsCfg), nil
}
