// Package aws builds the AWS SDK clients used for customer and agent
// notifications.
package aws

import (
	"context"
	"fmt"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
)

// Load returns the SDK configuration for region. A non-empty endpoint
// (LocalStack, for example) overrides service endpoint resolution.
func Load(ctx context.Context, region, endpoint string) (awssdk.Config, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}

	if endpoint != "" {
		resolver := awssdk.EndpointResolverWithOptionsFunc(func(service, r string, _ ...interface{}) (awssdk.Endpoint, error) {
			return awssdk.Endpoint{
				URL:               endpoint,
				HostnameImmutable: true,
				PartitionID:       "aws",
				SigningRegion:     region,
			}, nil
		})
		opts = append(opts, awsconfig.WithEndpointResolverWithOptions(resolver))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return awssdk.Config{}, fmt.Errorf("load AWS config: %w", err)
	}
	return cfg, nil
}

// Clients holds the notification channels.
type Clients struct {
	SES *ses.Client
	SNS *sns.Client
}

func NewClients(cfg awssdk.Config) *Clients {
	return &Clients{
		SES: ses.NewFromConfig(cfg),
		SNS: sns.NewFromConfig(cfg),
	}
}
